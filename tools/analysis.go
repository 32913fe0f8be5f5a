/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tools

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gridrules/dtable/core"
)

// TableAnalysis reports structural statistics and potential defects
// about a compiled Table, the decision-table analogue of the
// teacher's state-machine spec analysis.
type TableAnalysis struct {
	table *core.Table

	RowCount      int
	InputColumns  int
	OutputColumns int
	HasIndex      bool
	HasPaths      bool
	KeyColumnsN   int

	// ProcKinds lists, sorted, the distinct matcher kinds this table's
	// cells compiled to.
	ProcKinds []string

	// UnusedOutputColumns names output columns that no row ever fills
	// -- every query would leave that attribute absent.
	UnusedOutputColumns []string

	// ShadowedRows lists (0-based) data row indices whose input
	// columns compiled to exactly the same constants as an earlier
	// row with no predicates: in first_match mode such a row can never
	// be reached.
	ShadowedRows []int
}

// Analyze inspects t and reports TableAnalysis.
func Analyze(t *core.Table) (*TableAnalysis, error) {
	a := &TableAnalysis{
		table:         t,
		RowCount:      len(t.ScanRows),
		InputColumns:  len(t.Columns.Ins),
		OutputColumns: len(t.Columns.Outs),
		HasIndex:      t.Index != nil,
		HasPaths:      t.Paths != nil,
	}
	if t.Index != nil {
		a.KeyColumnsN = len(t.Index.KeyColumns)
	}

	kinds := make(map[string]bool)
	for _, sr := range t.ScanRows {
		for _, cell := range sr.Procs {
			kinds[cell.ProcKind.String()] = true
		}
	}
	for _, sr := range t.OutsRows {
		for _, cell := range sr.Procs {
			kinds[cell.ProcKind.String()] = true
		}
	}
	a.ProcKinds = keysToStringSlice(kinds)

	used := make(map[int]bool, len(t.Columns.Outs))
	for _, row := range t.OutsRows {
		for col := range row.Constants {
			used[col] = true
		}
		for col := range row.Procs {
			used[col] = true
		}
	}
	unused := make(map[string]bool)
	for col, c := range t.Columns.Outs {
		if c.Type == core.ColIf {
			continue
		}
		if !used[col] {
			unused[c.Name] = true
		}
	}
	a.UnusedOutputColumns = keysToStringSlice(unused)

	seen := make(map[string]int)
	for i, sr := range t.ScanRows {
		if len(sr.Procs) > 0 {
			continue
		}
		key := encodeConstants(sr.Constants)
		if first, ok := seen[key]; ok {
			_ = first
			a.ShadowedRows = append(a.ShadowedRows, i)
			continue
		}
		seen[key] = i
	}

	return a, nil
}

func encodeConstants(m map[int]string) string {
	cols := make([]int, 0, len(m))
	for col := range m {
		cols = append(cols, col)
	}
	sort.Ints(cols)
	var b strings.Builder
	for _, col := range cols {
		b.WriteString(strconv.Itoa(col))
		b.WriteByte('=')
		b.WriteString(m[col])
		b.WriteByte(';')
	}
	return b.String()
}

// keysToStringSlice converts a set's keys into a sorted slice.
func keysToStringSlice(m map[string]bool) []string {
	list := make([]string, 0, len(m))
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)
	return list
}
