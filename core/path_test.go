package core

import "testing"

func shippingGrid() Grid {
	return Grid{
		{"path:", "in:carrier", "out:rate"},
		{"domestic", "ups", "5"},
		{"domestic", "fedex", "6"},
		{"international", "dhl", "20"},
	}
}

func TestPathGroupsPartitionByDeclaredPath(t *testing.T) {
	table, err := Parse(shippingGrid(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if table.Paths == nil {
		t.Fatal("expected a path-partitioned table")
	}
	if len(table.Paths.Groups) != 2 {
		t.Fatalf("expected 2 distinct path groups, got %d", len(table.Paths.Groups))
	}
	if table.Paths.Groups[0].Path[0] != "domestic" || table.Paths.Groups[1].Path[0] != "international" {
		t.Fatalf("groups out of declaration order: %#v", table.Paths.Groups)
	}
}

func TestScanPathsDescendsIntoMatchingSubRecord(t *testing.T) {
	table, err := Parse(shippingGrid(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	input := map[string]interface{}{
		"domestic": map[string]interface{}{"carrier": "fedex"},
	}
	attrs, err := table.Decide(input, false)
	if err != nil {
		t.Fatal(err)
	}
	if attrs["rate"] != "6" {
		t.Fatalf("got %#v", attrs)
	}
}

func TestScanPathsSkipsAbsentSubRecord(t *testing.T) {
	table, err := Parse(shippingGrid(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	input := map[string]interface{}{
		"international": map[string]interface{}{"carrier": "dhl"},
	}
	attrs, err := table.Decide(input, false)
	if err != nil {
		t.Fatal(err)
	}
	if attrs["rate"] != "20" {
		t.Fatalf("got %#v", attrs)
	}
}

func TestScanPathsEmptyWhenNoGroupDescends(t *testing.T) {
	table, err := Parse(shippingGrid(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	attrs, err := table.Decide(map[string]interface{}{"unrelated": "x"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(attrs) != 0 {
		t.Fatalf("expected empty map, got %v", attrs)
	}
}

func TestMergeAccumulateConcatenatesCollidingKeys(t *testing.T) {
	a := map[string]interface{}{"x": "1"}
	b := map[string]interface{}{"x": "2"}
	merged := mergeAccumulate(a, b)
	seq, ok := merged["x"].([]interface{})
	if !ok || len(seq) != 2 || seq[0] != "1" || seq[1] != "2" {
		t.Fatalf("got %#v", merged)
	}
	// Neither input was mutated.
	if a["x"] != "1" || b["x"] != "2" {
		t.Fatalf("inputs mutated: a=%#v b=%#v", a, b)
	}
}

func TestMergeAccumulateNilLeftReturnsRight(t *testing.T) {
	b := map[string]interface{}{"x": "2"}
	merged := mergeAccumulate(nil, b)
	if merged["x"] != "2" {
		t.Fatalf("got %#v", merged)
	}
}

func TestDescendRequiresNestedMapAtEverySegment(t *testing.T) {
	record := map[string]interface{}{
		"a": map[string]interface{}{
			"b": "not a map",
		},
	}
	if _, ok := descend(record, []string{"a", "b"}); ok {
		t.Fatal("expected descend to fail past a non-map leaf")
	}
	if _, ok := descend(record, []string{"missing"}); ok {
		t.Fatal("expected descend to fail on an absent segment")
	}
	sub, ok := descend(record, []string{"a"})
	if !ok || sub["b"] != "not a map" {
		t.Fatalf("got %#v, %v", sub, ok)
	}
}

func TestBuildPathGroupsMergesNonContiguousRepeats(t *testing.T) {
	grid := Grid{
		{"path:", "in:carrier", "out:rate"},
		{"domestic", "ups", "5"},
		{"international", "dhl", "20"},
		{"domestic", "fedex", "6"},
	}
	table, err := Parse(grid, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Paths.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(table.Paths.Groups))
	}
	domestic := table.Paths.Groups[0]
	if len(domestic.Ranges) != 2 {
		t.Fatalf("expected domestic's non-contiguous rows kept as 2 ranges, got %#v", domestic.Ranges)
	}
}
