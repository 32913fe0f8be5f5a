package tools

import (
	"sort"

	"github.com/gridrules/dtable/core"

	yaml "gopkg.in/yaml.v2"
)

// columnSummary is the YAML-friendly projection of a core.Column used
// by ColumnsYAML -- core.Column's Type is a ColumnType int, which
// yaml.v2 would otherwise round-trip as a bare number.
type columnSummary struct {
	Index    int    `yaml:"index"`
	Name     string `yaml:"name,omitempty"`
	Type     string `yaml:"type"`
	TextOnly bool   `yaml:"textOnly,omitempty"`
	Indexed  bool   `yaml:"indexed,omitempty"`
}

type columnsDoc struct {
	In   []columnSummary `yaml:"in,omitempty"`
	Out  []columnSummary `yaml:"out,omitempty"`
	Path []columnSummary `yaml:"path,omitempty"`
}

// ColumnsYAML round-trips a compiled Table's column dictionary to
// YAML, for a debug flag that wants to see how the header was
// interpreted without re-deriving it from the raw grid by eye.
func ColumnsYAML(t *core.Table) (string, error) {
	doc := columnsDoc{
		In:   summarize(t.Columns.Ins),
		Out:  summarize(t.Columns.Outs),
		Path: summarize(t.Columns.Path),
	}

	bs, err := yaml.Marshal(&doc)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

func summarize(cols map[int]*core.Column) []columnSummary {
	idxs := make([]int, 0, len(cols))
	for i := range cols {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)

	out := make([]columnSummary, len(idxs))
	for i, idx := range idxs {
		c := cols[idx]
		out[i] = columnSummary{
			Index:    idx,
			Name:     c.Name,
			Type:     c.Type.String(),
			TextOnly: c.TextOnly,
			Indexed:  c.Indexed,
		}
	}
	return out
}
