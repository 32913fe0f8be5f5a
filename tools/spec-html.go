package tools

import (
	"fmt"
	"io"
	"strings"

	"github.com/gridrules/dtable/core"
	"github.com/gridrules/dtable/grid"

	md "github.com/russross/blackfriday/v2"
)

// TableMarkdown renders a compiled Table's grid as a Markdown table,
// the source documentation format RenderTableHTML turns into HTML.
func TableMarkdown(t *core.Table) string {
	cols, labels := columnLabels(t)

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}

	writeRow(labels)
	seps := make([]string, len(labels))
	for i := range seps {
		seps[i] = "---"
	}
	writeRow(seps)

	for _, row := range t.RawRows {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = cellAt(row, col)
		}
		writeRow(cells)
	}

	return b.String()
}

func columnLabels(t *core.Table) (cols []int, labels []string) {
	all := make(map[int]string)
	for col, c := range t.Columns.Ins {
		all[col] = c.HeaderKeyword() + ":" + c.Name
	}
	for col, c := range t.Columns.Outs {
		all[col] = c.HeaderKeyword() + ":" + c.Name
	}
	for col, c := range t.Columns.Path {
		all[col] = c.HeaderKeyword() + ":" + c.Name
	}

	cols = make([]int, 0, len(all))
	for col := range all {
		cols = append(cols, col)
	}
	sortInts(cols)

	labels = make([]string, len(cols))
	for i, col := range cols {
		labels[i] = all[col]
	}
	return cols, labels
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// RenderTableHTML writes a compiled Table's documentation as HTML.
func RenderTableHTML(t *core.Table, out io.Writer) error {
	html := md.Run([]byte(TableMarkdown(t)))
	_, err := fmt.Fprintf(out, `<div class="tableDoc doc">%s</div>`, html)
	return err
}

// RenderTablePage writes a standalone HTML page wrapping
// RenderTableHTML's output.
func RenderTablePage(t *core.Table, out io.Writer, title string, cssFiles []string) error {
	if title == "" {
		title = "decision table"
	}
	if cssFiles == nil {
		cssFiles = []string{"/static/spec-html.css"}
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, title)

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, title)

	if err := RenderTableHTML(t, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)
	return nil
}

// ReadAndRenderTablePage loads a grid from filename, compiles it, and
// writes its documentation page to out.
func ReadAndRenderTablePage(filename string, opts core.Options, out io.Writer, title string, cssFiles []string) error {
	g, err := grid.LoadFile(filename)
	if err != nil {
		return err
	}
	t, err := core.Parse(g, opts)
	if err != nil {
		return core.WrapFile(filename, err)
	}
	return RenderTablePage(t, out, title, cssFiles)
}
