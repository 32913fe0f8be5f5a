package tools

import (
	"bytes"
	"testing"

	"github.com/gridrules/dtable/core"
)

func TestRenderTableHTML(t *testing.T) {
	grid := core.Grid{
		{"in:status", "out:discount"},
		{"active", "0.1"},
		{"trial", "0"},
	}
	table, err := core.Parse(grid, core.Options{})
	if err != nil {
		t.Fatal(err)
	}

	out := bytes.NewBuffer(make([]byte, 0, 4096))
	if err := RenderTablePage(table, out, "pricing", []string{"spec.css"}); err != nil {
		t.Fatal(err)
	}
	if out.Len() == 0 {
		t.Fatal("expected non-empty HTML output")
	}
}
