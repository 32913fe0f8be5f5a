// dot -Tpng g.dot > g.png

package tools

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/gridrules/dtable/core"
)

// Dot renders a Graphviz dot file visualizing a compiled Table's scan
// structure: its index (or path groups) as key nodes, and each row
// range as a record node listing that range's constants.
func Dot(t *core.Table, w io.WriteCloser) error {
	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, "  graph [rankdir=LR,nodesep=0.3,ranksep=0.6]\n")
	fmt.Fprintf(w, "  node [shape=\"record\" style=\"rounded,filled\" fillcolor=\"#99ddc8\"]\n")

	switch {
	case t.Paths != nil:
		for gi, group := range t.Paths.Groups {
			keyID := fmt.Sprintf("path%d", gi)
			label := "path: " + strings.Join(group.Path, "/")
			fmt.Fprintf(w, "  %s [label=%q fillcolor=\"#2d93ad\"]\n", keyID, label)
			for ri, r := range group.Ranges {
				rowID := fmt.Sprintf("%s_r%d", keyID, ri)
				writeRangeNode(w, t, rowID, r)
				fmt.Fprintf(w, "  %s -> %s\n", keyID, rowID)
			}
		}
	case t.Index != nil:
		ki := 0
		for key, ranges := range t.Index.Hash {
			keyID := fmt.Sprintf("key%d", ki)
			ki++
			fmt.Fprintf(w, "  %s [label=%q fillcolor=\"#52aa5e\"]\n", keyID, escape(key))
			for ri, r := range ranges {
				rowID := fmt.Sprintf("%s_r%d", keyID, ri)
				writeRangeNode(w, t, rowID, r)
				fmt.Fprintf(w, "  %s -> %s\n", keyID, rowID)
			}
		}
	default:
		for i := range t.ScanRows {
			rowID := fmt.Sprintf("r%d", i)
			writeRangeNode(w, t, rowID, core.RowRange{Start: i, End: -1})
		}
	}

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

func writeRangeNode(w io.Writer, t *core.Table, id string, r core.RowRange) {
	first, last := r.Rows()
	label := fmt.Sprintf("rows %d..%d", first, last)
	if first < len(t.ScanRows) {
		sr := t.ScanRows[first]
		if len(sr.Constants) > 0 {
			var parts []string
			for col, text := range sr.Constants {
				parts = append(parts, fmt.Sprintf("col%d=%s", col, escbraces(text)))
			}
			label += `<BR ALIGN="LEFT"/>` + strings.Join(parts, `<BR ALIGN="LEFT"/>`)
		}
	}
	fmt.Fprintf(w, "  %s [label=<%s>]\n", id, label)
}

// PNG writes basename.dot and basename.png for a compiled Table,
// shelling out to the Graphviz "dot" command.
func PNG(t *core.Table, basename string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(t, dotfile); err != nil {
		return pngname, err
	}
	cmd := "dot -Tpng " + dotname + " > " + pngname
	if err := exec.Command("bash", "-c", cmd).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

func escape(s string) string {
	return strings.Replace(s, `"`, `\"`, -1)
}

func escbraces(s string) string {
	s = strings.Replace(s, "{", "\\{", -1)
	s = strings.Replace(s, "}", "\\}", -1)
	return s
}
