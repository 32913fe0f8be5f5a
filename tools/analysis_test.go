package tools

import (
	"testing"

	"github.com/gridrules/dtable/core"
)

func TestAnalysis(t *testing.T) {
	grid := core.Grid{
		{"in:status", "out:discount"},
		{"active", "0.1"},
		{"active", "0.1"},
		{"trial", "0"},
	}
	table, err := core.Parse(grid, core.Options{})
	if err != nil {
		t.Fatal(err)
	}

	a, err := Analyze(table)
	if err != nil {
		t.Fatal(err)
	}
	if a.RowCount != 3 {
		t.Fatalf("expected 3 rows, got %d", a.RowCount)
	}
	if len(a.ShadowedRows) != 1 || a.ShadowedRows[0] != 1 {
		t.Fatalf("expected row 1 shadowed by row 0, got %v", a.ShadowedRows)
	}
}
