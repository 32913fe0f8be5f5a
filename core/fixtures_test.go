package core

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"testing"

	"github.com/gridrules/dtable/interpreters/goja"
	"github.com/gridrules/dtable/util/testutil"
)

// fixtureQuery is one input/want pair exercised against a fixtureCase's
// compiled table.
type fixtureQuery struct {
	Input map[string]interface{} `json:"input"`
	Want  map[string]interface{} `json:"want"`
}

// fixtureCase is one JSON-driven table test, following
// util/testutil's JSON-fixture-plus-t.Run convention.
type fixtureCase struct {
	Doc     string                 `json:"doc,omitempty"`
	Grid    [][]string             `json:"grid"`
	Options map[string]interface{} `json:"options,omitempty"`
	Queries []fixtureQuery         `json:"queries"`
}

func (c fixtureCase) name(i int) string {
	if c.Doc != "" {
		return c.Doc
	}
	return fmt.Sprintf("case%d", i)
}

// TestFixtures loads core/testdata/cases.json and decides every case's
// queries against its compiled table, comparing via testutil.JS the
// way the teacher's JSON-driven tests compare decoded records.
func TestFixtures(t *testing.T) {
	bs, err := ioutil.ReadFile("testdata/cases.json")
	if err != nil {
		t.Fatal(err)
	}

	var cases []fixtureCase
	if err := json.Unmarshal(bs, &cases); err != nil {
		t.Fatal(err)
	}

	for i, tc := range cases {
		tc := tc
		t.Run(tc.name(i), func(t *testing.T) {
			opts, err := ParseOptions(tc.Options)
			if err != nil {
				t.Fatal(err)
			}
			opts.Interpreters = map[string]Interpreter{"goja": goja.NewInterpreter()}

			grid := make(Grid, len(tc.Grid))
			for i, row := range tc.Grid {
				grid[i] = row
			}

			table, err := Parse(grid, opts)
			if err != nil {
				t.Fatal(err)
			}

			for qi, q := range tc.Queries {
				got, err := table.Decide(q.Input, false)
				if err != nil {
					t.Fatalf("query %d: %v", qi, err)
				}
				if testutil.JS(got) != testutil.JS(q.Want) {
					t.Errorf("query %d: got %s, want %s", qi, testutil.JS(got), testutil.JS(q.Want))
				}
			}
		})
	}
}
