package core

import "strings"

// Table is a compiled decision table: immutable after Parse returns.
// See spec.md §3 and §6.
type Table struct {
	Columns *ColumnDict

	// RawRows holds each data row's cell text, column-stripped the
	// same way the header was, for diagnostics and Copy.
	RawRows []Grid0Row

	ScanRows []*ScanRow
	OutsRows []*ScanRow

	Options Options

	Index *Index

	// Paths is non-nil only for tables declaring path columns; it
	// maps a path segment sequence to the contiguous row ranges that
	// share it, in declaration order.
	Paths *PathGroups

	// outsFunctions is true iff some output column holds a Proc in
	// at least one row -- spec.md §3's accumulator flag.
	outsFunctions bool

	Debug bool
}

// Grid0Row is one kept-columns-only data row, retained for
// diagnostics and Table.Copy.
type Grid0Row []string

// Copy reconstructs a Grid (header row plus every data row) from a
// compiled Table's column dictionary and RawRows, the same
// never-mutate-the-frozen-original idiom as the teacher's Spec.Copy --
// except Spec.Copy hands back an independently-immutable *Spec, while
// Table's compiled form has no setters to copy into, so Copy hands
// back the editable Grid a caller reparses with Parse after changing a
// cell, rather than a second *Table.
func (t *Table) Copy() Grid {
	cols, labels := t.columnLabels()

	g := make(Grid, 0, len(t.RawRows)+1)
	g = append(g, append([]string{}, labels...))

	for _, row := range t.RawRows {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = cellAt(row, col)
		}
		g = append(g, cells)
	}

	return g
}

// columnLabels rebuilds each kept grid column's "type:name" header
// label from the compiled column dictionary, in ascending column-index
// order.
func (t *Table) columnLabels() (cols []int, labels []string) {
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

func (t *Table) logf(format string, args ...interface{}) {
	if t.Debug {
		debugLogf("table: "+format, args...)
	}
}

// Parse compiles a Grid into an immutable Table.
//
// data's first row after any recognized option rows is the header;
// every row after that is a data row. See spec.md §6.
func Parse(data Grid, opts Options) (*Table, error) {
	headerIdx := scanPreHeaderOptions(data, &opts)
	if headerIdx >= len(data) {
		return nil, structureErr("no header row found")
	}

	headerCols, keep, err := parseHeaderRow(data[headerIdx])
	if err != nil {
		return nil, err
	}

	dict, err := buildColumnDict(headerCols)
	if err != nil {
		return nil, err
	}

	matchers := resolveMatchers(opts)

	dataRows := data[headerIdx+1:]
	strippedRows := make([]Grid0Row, len(dataRows))
	for i, row := range dataRows {
		strippedRows[i] = stripColumns(row, keep)
	}

	if err := compileDefaults(dict, matchers, opts, strippedRows); err != nil {
		return nil, err
	}

	t := &Table{
		Columns: dict,
		RawRows: strippedRows,
		Options: opts,
		Debug:   opts.Debug,
	}

	for i, row := range strippedRows {
		in, out, err := compileScanRow(dict, matchers, opts, i, row)
		if err != nil {
			return nil, err
		}
		t.ScanRows = append(t.ScanRows, in)
		t.OutsRows = append(t.OutsRows, out)
		if len(out.Procs) > 0 {
			t.outsFunctions = true
		}
		t.logf("row %d: %d constants, %d procs", i, len(in.Constants), len(in.Procs))
	}

	if len(dict.Path) > 0 {
		t.Paths = buildPathGroups(t)
	} else {
		t.Index = buildIndex(dict, t.ScanRows)
	}

	return t, nil
}

// buildColumnDict splits the flat header-cell map into Ins/Outs/Path
// sub-dictionaries and validates spec.md §3's uniqueness invariant on
// output names.
func buildColumnDict(headerCols map[int]*Column) (*ColumnDict, error) {
	dict := newColumnDict()

	seenOutNames := make(map[string]bool)

	for col, c := range headerCols {
		switch c.Type {
		case ColIn, ColGuard, ColSet, ColSetNil, ColSetBlank:
			dict.Ins[col] = c
		case ColOut, ColIf:
			dict.Outs[col] = c
			if c.Name != "" {
				if seenOutNames[c.Name] {
					return nil, structureErr("duplicate output column name %q", c.Name)
				}
				seenOutNames[c.Name] = true
			}
		case ColPath:
			dict.Path[col] = c
		default:
			return nil, internalErr("unknown column type %v after normalization", c.Type)
		}
	}

	return dict, nil
}

// stripColumns keeps only the grid columns the header recognized,
// per spec.md §6 ("A blank cell in a header column is stripped from
// the table (column and all data cells removed)"). The result stays
// addressable by the grid's own (0-based) column index, with unkept
// columns left as "" -- every other piece of this package only ever
// looks up a column index the header dictionary actually declared, so
// those holes are never read.
func stripColumns(row []string, keep []int) Grid0Row {
	if len(keep) == 0 {
		return nil
	}
	width := keep[len(keep)-1] + 1
	out := make(Grid0Row, width)
	for _, col := range keep {
		out[col] = cellAt(row, col)
	}
	return out
}

// compileDefaults builds dict.Defaults for every set/set-nil/set-blank
// column from the first data row's cell in that column, per spec.md
// §4.5's "defaults pipeline" design note: a set* column is a
// table-level default-assignment, not a per-row predicate, so only one
// compilation is needed regardless of row count.
func compileDefaults(dict *ColumnDict, matchers []Matcher, opts Options, rows []Grid0Row) error {
	if len(rows) == 0 {
		return nil
	}
	first := rows[0]

	for col, c := range dict.Ins {
		var gate func(interface{}) bool
		switch c.Type {
		case ColSet:
			gate = func(interface{}) bool { return true }
		case ColSetNil:
			gate = isNil
		case ColSetBlank:
			gate = isBlank
		default:
			continue
		}

		text := cellAt(first, col)
		if strings.TrimSpace(text) == "" {
			continue
		}

		ctx := &MatchContext{Column: &Column{Type: ColOut, Name: c.Name}, RegexpImplicit: opts.RegexpImplicit, Interpreters: opts.Interpreters, Interpreter: opts.Interpreter}
		cell, err := compileCell(matchers, ctx, text)
		if err != nil {
			return cellErr(0, col, "%v", err)
		}

		var fn OutputFn
		switch {
		case cell.IsConstant(), cell.Kind == Proc && cell.ProcKind == ConstantProc:
			literal := cell.Text
			fn = func(map[string]interface{}) (interface{}, error) { return literal, nil }
		case cell.OutFn != nil:
			fn = cell.OutFn
		default:
			continue
		}

		dict.Defaults[col] = &Default{Name: c.Name, Function: fn, If: gate}
	}

	return nil
}
