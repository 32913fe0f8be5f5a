package core

import (
	"testing"

	"github.com/gridrules/dtable/interpreters/goja"
)

func pricingGrid() Grid {
	return Grid{
		{"in:status", "out:discount"},
		{"active", "0.1"},
		{"trial", "0"},
	}
}

func TestParseAndDecide(t *testing.T) {
	table, err := Parse(pricingGrid(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	attrs, err := table.Decide(map[string]interface{}{"status": "active"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if attrs["discount"] != "0.1" {
		t.Fatalf("got %v", attrs)
	}
}

func TestDecideNoMatchIsEmptyNotError(t *testing.T) {
	table, err := Parse(pricingGrid(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	attrs, err := table.Decide(map[string]interface{}{"status": "unknown"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(attrs) != 0 {
		t.Fatalf("expected empty map, got %v", attrs)
	}
}

func TestDuplicateOutputNameRejected(t *testing.T) {
	grid := Grid{
		{"in:status", "out:discount", "out:discount"},
		{"active", "0.1", "0.2"},
	}
	if _, err := Parse(grid, Options{}); err == nil {
		t.Fatal("expected a table structure error")
	}
}

func TestBlankHeaderCellStripsColumn(t *testing.T) {
	grid := Grid{
		{"in:status", "", "out:discount"},
		{"active", "ignored", "0.1"},
	}
	table, err := Parse(grid, Options{})
	if err != nil {
		t.Fatal(err)
	}
	attrs, err := table.Decide(map[string]interface{}{"status": "active"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if attrs["discount"] != "0.1" {
		t.Fatalf("got %v", attrs)
	}
}

func TestAnonymousCondColumn(t *testing.T) {
	grid := Grid{
		{"cond:", "out:ok"},
		{`:record.status == "active"`, "yes"},
	}
	opts := Options{Interpreters: map[string]Interpreter{"goja": goja.NewInterpreter()}}
	table, err := Parse(grid, opts)
	if err != nil {
		t.Fatal(err)
	}
	attrs, err := table.Decide(map[string]interface{}{"status": "active"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if attrs["ok"] != "yes" {
		t.Fatalf("got %v", attrs)
	}
}

func TestGuardColumnRejectsPlainConstant(t *testing.T) {
	grid := Grid{
		{"cond:", "out:ok"},
		{"active", "yes"},
	}
	if _, err := Parse(grid, Options{}); err == nil {
		t.Fatal("expected a cell validation error for a constant in a guard column")
	}
}

func TestIfColumnRejectsPlainConstant(t *testing.T) {
	grid := Grid{
		{"in:status", "out:ok", "if:"},
		{"active", "yes", "true"},
	}
	if _, err := Parse(grid, Options{}); err == nil {
		t.Fatal("expected a cell validation error for a constant in an if column")
	}
}

func TestSymbolizeKeysLeavesCallerInputUntouched(t *testing.T) {
	grid := Grid{
		{"in:status", "set:region"},
		{"active", "east"},
	}
	table, err := Parse(grid, Options{})
	if err != nil {
		t.Fatal(err)
	}

	input := map[string]interface{}{"status": "active"}
	if _, err := table.Decide(input, true); err != nil {
		t.Fatal(err)
	}
	if _, ok := input["region"]; ok {
		t.Fatalf("input was mutated: %v", input)
	}
}

func TestCopyRoundTripsThroughParse(t *testing.T) {
	table, err := Parse(pricingGrid(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	copied, err := Parse(table.Copy(), Options{})
	if err != nil {
		t.Fatalf("reparse of Copy's grid failed: %v", err)
	}

	attrs, err := copied.Decide(map[string]interface{}{"status": "active"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if attrs["discount"] != "0.1" {
		t.Fatalf("got %v", attrs)
	}
}

func TestCopyPreservesCondHeaderKeyword(t *testing.T) {
	grid := Grid{
		{"cond:", "out:ok"},
		{`:record.status == "active"`, "yes"},
	}
	opts := Options{Interpreters: map[string]Interpreter{"goja": goja.NewInterpreter()}}
	table, err := Parse(grid, opts)
	if err != nil {
		t.Fatal(err)
	}

	reparsed, err := Parse(table.Copy(), opts)
	if err != nil {
		t.Fatalf("reparse of Copy's grid failed: %v", err)
	}
	attrs, err := reparsed.Decide(map[string]interface{}{"status": "active"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if attrs["ok"] != "yes" {
		t.Fatalf("got %v", attrs)
	}
}

func TestSetDefaultMutatesInPlaceWhenNotSymbolized(t *testing.T) {
	grid := Grid{
		{"in:status", "set:region"},
		{"active", "east"},
	}
	table, err := Parse(grid, Options{})
	if err != nil {
		t.Fatal(err)
	}

	input := map[string]interface{}{"status": "active"}
	if _, err := table.Decide(input, false); err != nil {
		t.Fatal(err)
	}
	if input["region"] != "east" {
		t.Fatalf("expected default to be applied in place, got %v", input)
	}
}
