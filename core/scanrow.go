package core

import "strings"

// ScanRow is one data row's compiled form: which input (or output)
// column indices are constant, which are predicates, and for input
// scan rows, the path segment sequence (if the table partitions rows
// by path).
//
// See spec.md §3.
type ScanRow struct {
	Constants map[int]string
	Procs     map[int]CellValue
	Path      []string
}

func newScanRow() *ScanRow {
	return &ScanRow{
		Constants: make(map[int]string),
		Procs:     make(map[int]CellValue),
	}
}

// compileCell runs the matcher list against one non-header cell,
// reporting the resulting CellValue.
func compileCell(matchers []Matcher, ctx *MatchContext, text string) (CellValue, error) {
	if strings.TrimSpace(text) == "" {
		return emptyCell(), nil
	}
	if ctx.Column.TextOnly || len(matchers) == 0 {
		return constantCell(text), nil
	}
	for _, m := range matchers {
		cell, ok, err := m.Match(ctx, text)
		if err != nil {
			return CellValue{}, err
		}
		if ok {
			return cell, nil
		}
	}
	return constantCell(text), nil
}

// compileScanRow compiles one data row into its input scan row, its
// output scan row, and (when the table has path columns) the row's
// path segment sequence.
func compileScanRow(dict *ColumnDict, matchers []Matcher, opts Options, rowIdx int, rawRow []string) (in, out *ScanRow, err error) {
	in, out = newScanRow(), newScanRow()

	pathCols := make([]int, 0, len(dict.Path))
	for col := range dict.Path {
		pathCols = append(pathCols, col)
	}
	sortInts(pathCols)
	for _, col := range pathCols {
		text := cellAt(rawRow, col)
		in.Path = append(in.Path, strings.TrimSpace(text))
	}

	for col, c := range dict.Ins {
		if c.Type != ColIn && c.Type != ColGuard {
			continue
		}
		text := cellAt(rawRow, col)

		if strings.TrimSpace(text) == "" {
			if c.Type == ColGuard {
				return nil, nil, cellErr(rowIdx, col, "guard column cells may not be empty")
			}
			c.Indexed = false
			continue
		}

		ctx := &MatchContext{Column: c, RegexpImplicit: opts.RegexpImplicit, Interpreters: opts.Interpreters, Interpreter: opts.Interpreter}
		cell, err := compileCell(matchers, ctx, text)
		if err != nil {
			return nil, nil, cellErr(rowIdx, col, "%v", err)
		}

		if c.Type == ColGuard && cell.Kind == Proc && cell.ProcKind == ConstantProc {
			return nil, nil, cellErr(rowIdx, col, "guard column may not contain a plain constant %q", text)
		}

		switch {
		case cell.IsEmpty():
			c.Indexed = false
		case cell.IsConstant(), cell.Kind == Proc && cell.ProcKind == ConstantProc:
			in.Constants[col] = cell.Text
		default:
			in.Procs[col] = cell
			c.Indexed = false
		}
	}

	for col, c := range dict.Outs {
		text := cellAt(rawRow, col)
		if strings.TrimSpace(text) == "" {
			continue
		}

		ctx := &MatchContext{Column: c, RegexpImplicit: opts.RegexpImplicit, Interpreters: opts.Interpreters, Interpreter: opts.Interpreter}
		cell, err := compileCell(matchers, ctx, text)
		if err != nil {
			return nil, nil, cellErr(rowIdx, col, "%v", err)
		}

		if c.Type == ColIf && cell.Kind == Proc && cell.ProcKind == ConstantProc {
			return nil, nil, cellErr(rowIdx, col, "if column may not contain a plain constant %q", text)
		}

		switch {
		case cell.IsEmpty():
			// no-op output cell
		case cell.IsConstant(), cell.Kind == Proc && cell.ProcKind == ConstantProc:
			out.Constants[col] = cell.Text
		default:
			out.Procs[col] = cell
		}
	}

	return in, out, nil
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Match implements the row-match primitive of spec.md §4.3.
//
// scanCols maps column index to the value the input parser retrieved
// for that column's declared name; record is the (possibly
// path-descended) full input record guard columns and path lookups
// use.
func (sr *ScanRow) Match(dict *ColumnDict, scanCols map[int]interface{}, record map[string]interface{}) (bool, error) {
	for col, want := range sr.Constants {
		have := stringValue(scanCols[col])
		if have != want {
			return false, nil
		}
	}
	for col, cell := range sr.Procs {
		ok, err := cell.InFn(scanCols[col], record)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
