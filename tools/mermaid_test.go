package tools

import (
	"os"
	"testing"

	"github.com/gridrules/dtable/core"
)

func TestMermaid(t *testing.T) {
	filename := "g.mermaid"

	out, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(filename)

	grid := core.Grid{
		{"in:status", "out:discount"},
		{"active", "0.1"},
		{"trial", "0"},
	}
	table, err := core.Parse(grid, core.Options{})
	if err != nil {
		t.Fatal(err)
	}

	if err := Mermaid(table, out, nil); err != nil {
		t.Fatal(err)
	}
}
