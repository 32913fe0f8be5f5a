package grid

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/gridrules/dtable/core"

	"github.com/jsccast/yaml"
)

// FromYAML reads a grid encoded as a top-level YAML sequence of
// sequences -- an alternate source format to CSV, for tables authored
// alongside YAML configuration.
func FromYAML(r io.Reader) (core.Grid, error) {
	bs, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var raw []interface{}
	if err := yaml.Unmarshal(bs, &raw); err != nil {
		return nil, err
	}

	g := make(core.Grid, len(raw))
	for i, rowVal := range raw {
		row, ok := rowVal.([]interface{})
		if !ok {
			return nil, fmt.Errorf("grid row %d is not a sequence", i)
		}
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cellString(cell)
		}
		g[i] = cells
	}
	return g, nil
}

func cellString(v interface{}) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	default:
		return fmt.Sprint(v)
	}
}
