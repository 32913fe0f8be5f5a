package core

import (
	"testing"

	"github.com/gridrules/dtable/interpreters/goja"
)

func TestAccumulateCollectsAllMatchingRowsAsSequence(t *testing.T) {
	grid := Grid{
		{"accumulate"},
		{"in:region", "out:warehouse"},
		{"east", "w1"},
		{"east", "w2"},
		{"west", "w3"},
	}
	table, err := Parse(grid, Options{})
	if err != nil {
		t.Fatal(err)
	}

	attrs, err := table.Decide(map[string]interface{}{"region": "east"}, false)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := attrs["warehouse"].([]interface{})
	if !ok || len(got) != 2 || got[0] != "w1" || got[1] != "w2" {
		t.Fatalf("got %#v", attrs)
	}
}

func TestAccumulateSingleMatchIsScalarNotSequence(t *testing.T) {
	grid := Grid{
		{"accumulate"},
		{"in:region", "out:warehouse"},
		{"east", "w1"},
		{"west", "w3"},
	}
	table, err := Parse(grid, Options{})
	if err != nil {
		t.Fatal(err)
	}

	attrs, err := table.Decide(map[string]interface{}{"region": "east"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if attrs["warehouse"] != "w1" {
		t.Fatalf("expected scalar, got %#v", attrs)
	}
}

func TestFirstMatchStopsAtFirstAcceptedRow(t *testing.T) {
	grid := Grid{
		{"in:region", "out:warehouse"},
		{"east", "w1"},
		{"east", "w2"},
	}
	table, err := Parse(grid, Options{})
	if err != nil {
		t.Fatal(err)
	}

	attrs, err := table.Decide(map[string]interface{}{"region": "east"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if attrs["warehouse"] != "w1" {
		t.Fatalf("got %#v", attrs)
	}
}

func TestIfGuardRejectionContinuesFirstMatchScan(t *testing.T) {
	grid := Grid{
		{"in:region", "out:warehouse", "if:"},
		{"east", "w1", ":1 == 0"},
		{"east", "w2", ":1 == 1"},
	}
	opts := Options{Interpreters: map[string]Interpreter{"goja": goja.NewInterpreter()}}
	table, err := Parse(grid, opts)
	if err != nil {
		t.Fatal(err)
	}

	attrs, err := table.Decide(map[string]interface{}{"region": "east"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if attrs["warehouse"] != "w2" {
		t.Fatalf("got %#v", attrs)
	}
}

func TestIndexMissYieldsEmptyMapNotError(t *testing.T) {
	table, err := Parse(pricingGrid(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	attrs, err := table.Decide(map[string]interface{}{"status": "nonexistent"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(attrs) != 0 {
		t.Fatalf("expected empty map, got %v", attrs)
	}
}

func TestAccumulateWithProcOutputIsMultiResult(t *testing.T) {
	grid := Grid{
		{"accumulate"},
		{"in:region", "out:tag", "out:warehouse"},
		{"east", ":2", "w1"},
		{"east", ":3", "w2"},
	}
	opts := Options{Interpreters: map[string]Interpreter{"goja": goja.NewInterpreter()}}
	table, err := Parse(grid, opts)
	if err != nil {
		t.Fatal(err)
	}

	attrs, err := table.Decide(map[string]interface{}{"region": "east"}, false)
	if err != nil {
		t.Fatal(err)
	}
	tags, ok := attrs["tag"].([]interface{})
	if !ok || len(tags) != 2 {
		t.Fatalf("expected per-row sequence for tag, got %#v", attrs)
	}
	warehouses, ok := attrs["warehouse"].([]interface{})
	if !ok || len(warehouses) != 2 || warehouses[0] != "w1" || warehouses[1] != "w2" {
		t.Fatalf("expected per-row sequence for warehouse, got %#v", attrs)
	}
}

func TestDecideTraceRecordsEveryCandidateRow(t *testing.T) {
	grid := Grid{
		{"in:region", "out:warehouse"},
		{"east", "w1"},
		{"west", "w3"},
	}
	table, err := Parse(grid, Options{})
	if err != nil {
		t.Fatal(err)
	}

	_, trace, err := table.DecideTrace(map[string]interface{}{"region": "east"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(trace) == 0 {
		t.Fatal("expected at least one trace entry")
	}
	if !trace[0].Matched || !trace[0].Accepted {
		t.Fatalf("expected first row matched and accepted, got %#v", trace[0])
	}
}
