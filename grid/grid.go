// Package grid loads a core.Grid from CSV or YAML sources -- the
// row-oriented tokenization that spec.md §1 places outside core's
// scope.
package grid

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridrules/dtable/core"
)

// FromCSV reads a CSV document into a core.Grid. Rows of varying
// width are left as-is: core.Parse treats a short row's missing
// trailing cells as blank.
func FromCSV(r io.Reader) (core.Grid, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	grid := make(core.Grid, len(rows))
	for i, row := range rows {
		grid[i] = row
	}
	return grid, nil
}

// LoadFile reads a grid from filename, dispatching on its extension:
// ".yaml"/".yml" via FromYAML, anything else via FromCSV.
func LoadFile(filename string) (core.Grid, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, core.WrapFile(filename, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		g, err := FromYAML(f)
		if err != nil {
			return nil, core.WrapFile(filename, err)
		}
		return g, nil
	default:
		g, err := FromCSV(f)
		if err != nil {
			return nil, core.WrapFile(filename, err)
		}
		return g, nil
	}
}
