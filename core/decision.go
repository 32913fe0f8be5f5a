package core

// TraceEntry records one candidate row's outcome during a traced
// decision, the ambient diagnostics feature described by SPEC_FULL §4.
type TraceEntry struct {
	Row     int
	Matched bool
	// Accepted is only meaningful when Matched is true: it reports
	// whether output assembly accepted the row (false means an if:
	// guard rejected it and the scan continued).
	Accepted bool
}

// Decide drives the table's scan strategy, evaluates any output
// predicates, and assembles the result. A missing index key, or a
// scan that never matches, yields an empty (not nil) map, never an
// error -- spec.md §7's "the engine does not raise at query time for
// recognizably-normal inputs".
func (t *Table) Decide(input map[string]interface{}, symbolizeKeys bool) (map[string]interface{}, error) {
	attrs, _, err := t.decide(input, symbolizeKeys, false)
	return attrs, err
}

// DecideTrace is Decide plus a per-candidate-row trace, for
// diagnostics. See SPEC_FULL §4's "Diagnostics mode".
func (t *Table) DecideTrace(input map[string]interface{}, symbolizeKeys bool) (map[string]interface{}, []TraceEntry, error) {
	return t.decide(input, symbolizeKeys, true)
}

func (t *Table) decide(input map[string]interface{}, symbolizeKeys, trace bool) (map[string]interface{}, []TraceEntry, error) {
	parsed, err := parseInput(t, input, symbolizeKeys)
	if err != nil {
		return nil, nil, err
	}

	if t.Paths != nil {
		attrs, err := scanPaths(t, parsed, symbolizeKeys)
		return attrs, nil, err
	}

	var rowIdxs []int
	var tr []TraceEntry

	if t.Index != nil {
		ranges := t.Index.lookup(parsed.Key)
		if ranges == nil {
			return map[string]interface{}{}, nil, nil
		}
		rowIdxs = expandRanges(ranges)
	} else {
		rowIdxs = allRows(len(t.ScanRows))
	}

	firstMatch := t.Options.firstMatch()
	attrs, entries, err := scanRowIndices(t, rowIdxs, parsed, firstMatch, trace)
	if trace {
		tr = entries
	}
	return attrs, tr, err
}

func expandRanges(ranges []RowRange) []int {
	var idxs []int
	for _, r := range ranges {
		first, last := r.Rows()
		for i := first; i <= last; i++ {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func allRows(n int) []int {
	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = i
	}
	return idxs
}

// scanRowIndices is the heart of C7: run scan_row.Match over rowIdxs
// in order, then assemble the output per spec.md §4.6.
func scanRowIndices(t *Table, rowIdxs []int, parsed *ParsedInput, firstMatch, trace bool) (map[string]interface{}, []TraceEntry, error) {
	var tr []TraceEntry

	if firstMatch {
		for _, i := range rowIdxs {
			matched, err := t.ScanRows[i].Match(t.Columns, parsed.ScanCols, parsed.Record)
			if err != nil {
				return nil, tr, err
			}
			if !matched {
				if trace {
					tr = append(tr, TraceEntry{Row: i, Matched: false})
				}
				continue
			}
			record, accepted, err := evalOutputRow(t, i)
			if err != nil {
				return nil, tr, err
			}
			if trace {
				tr = append(tr, TraceEntry{Row: i, Matched: true, Accepted: accepted})
			}
			if accepted {
				return record, tr, nil
			}
		}
		return map[string]interface{}{}, tr, nil
	}

	var picked []int
	for _, i := range rowIdxs {
		matched, err := t.ScanRows[i].Match(t.Columns, parsed.ScanCols, parsed.Record)
		if err != nil {
			return nil, tr, err
		}
		if trace {
			tr = append(tr, TraceEntry{Row: i, Matched: matched})
		}
		if matched {
			picked = append(picked, i)
		}
	}
	attrs, err := assembleAccumulate(t, picked)
	return attrs, tr, err
}

// evalOutputRow writes every output-column constant of one row first,
// then evaluates its procs in ascending column order (so an if: cell
// sees every constant of the row and any proc value computed in an
// earlier column), honoring if: guards. accepted is false when an if:
// guard rejected the row.
func evalOutputRow(t *Table, rowIdx int) (map[string]interface{}, bool, error) {
	outsRow := t.OutsRows[rowIdx]

	out := make(map[string]interface{}, len(outsRow.Constants)+len(outsRow.Procs))
	for col, text := range outsRow.Constants {
		c := t.Columns.Outs[col]
		out[c.Name] = text
	}

	procCols := make([]int, 0, len(outsRow.Procs))
	for col := range outsRow.Procs {
		procCols = append(procCols, col)
	}
	sortInts(procCols)

	for _, col := range procCols {
		c := t.Columns.Outs[col]
		cell := outsRow.Procs[col]
		val, err := cell.OutFn(out)
		if err != nil {
			return nil, false, err
		}
		if c.Type == ColIf {
			if !truthy(val) {
				return nil, false, nil
			}
			continue
		}
		out[c.Name] = val
	}

	return out, true, nil
}

// assembleAccumulate implements spec.md §4.6's three accumulate-mode
// shapes: no output predicates (sequence, or scalar for one picked
// row), predicates collapsing to one result (multi_result=false), and
// per-row sequences (multi_result=true).
func assembleAccumulate(t *Table, picked []int) (map[string]interface{}, error) {
	if len(picked) == 0 {
		return map[string]interface{}{}, nil
	}

	if !t.outsFunctions {
		attrs := make(map[string]interface{}, len(t.Columns.Outs))
		for col, c := range t.Columns.Outs {
			values := make([]interface{}, len(picked))
			for i, rowIdx := range picked {
				text, ok := t.OutsRows[rowIdx].Constants[col]
				if !ok {
					text = ""
				}
				values[i] = text
			}
			if len(values) == 1 {
				attrs[c.Name] = values[0]
			} else {
				attrs[c.Name] = values
			}
		}
		return attrs, nil
	}

	if !multiResult(t, picked) {
		record, accepted, err := evalOutputRow(t, picked[0])
		if err != nil {
			return nil, err
		}
		if !accepted {
			return map[string]interface{}{}, nil
		}
		attrs := make(map[string]interface{}, len(t.Columns.Outs))
		for _, c := range t.Columns.Outs {
			if c.Type == ColIf {
				continue
			}
			attrs[c.Name] = record[c.Name]
		}
		return attrs, nil
	}

	type rowResult struct {
		record map[string]interface{}
	}
	var accepted []rowResult
	for _, rowIdx := range picked {
		record, ok, err := evalOutputRow(t, rowIdx)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		accepted = append(accepted, rowResult{record})
	}
	if len(accepted) == 0 {
		return map[string]interface{}{}, nil
	}

	attrs := make(map[string]interface{}, len(t.Columns.Outs))
	for col, c := range t.Columns.Outs {
		if c.Type == ColIf {
			continue
		}
		values := make([]interface{}, len(accepted))
		for i, r := range accepted {
			values[i] = r.record[c.Name]
		}
		attrs[c.Name] = values
		_ = col
	}
	return attrs, nil
}

// multiResult reports spec.md §3's accumulator flag: true iff any
// output column holds a Proc cell in at least one picked row.
func multiResult(t *Table, picked []int) bool {
	for _, rowIdx := range picked {
		if len(t.OutsRows[rowIdx].Procs) > 0 {
			return true
		}
	}
	return false
}
