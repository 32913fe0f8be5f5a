package core

// ParsedInput is C6's output: the normalized input record, the
// per-column values the scan needs, and (when the table has an
// index) the key tuple to look it up with.
type ParsedInput struct {
	Record   map[string]interface{}
	ScanCols map[int]interface{}
	Key      []string
}

// parseInput transforms a caller's input record against dict into a
// ParsedInput, applying any set*-default functions along the way.
//
// When symbolizeKeys is true, record is a deep copy of input, leaving
// the caller's map untouched; when false, input is normalized and
// defaulted in place. See spec.md §4.5 and §5.
func parseInput(t *Table, input map[string]interface{}, symbolizeKeys bool) (*ParsedInput, error) {
	record := input
	if symbolizeKeys {
		record = deepCopyRecord(input)
	}

	if err := applyDefaults(t.Columns, record); err != nil {
		return nil, err
	}

	scanCols := make(map[int]interface{}, len(t.Columns.Ins))
	for col, c := range t.Columns.Ins {
		if c.Name == "" {
			continue
		}
		scanCols[col] = record[c.Name]
	}

	p := &ParsedInput{Record: record, ScanCols: scanCols}

	if t.Index != nil {
		p.Key = make([]string, len(t.Index.KeyColumns))
		for i, col := range t.Index.KeyColumns {
			p.Key[i] = stringValue(scanCols[col])
		}
	}

	return p, nil
}

// applyDefaults mutates record in column-index order -- spec.md §9's
// defaults-pipeline design note requires a deterministic order since
// one default's function could, in principle, read a field another
// default is about to set.
func applyDefaults(dict *ColumnDict, record map[string]interface{}) error {
	cols := make([]int, 0, len(dict.Defaults))
	for col := range dict.Defaults {
		cols = append(cols, col)
	}
	sortInts(cols)

	for _, col := range cols {
		d := dict.Defaults[col]
		if !d.If(record[d.Name]) {
			continue
		}
		v, err := d.Function(record)
		if err != nil {
			return err
		}
		record[d.Name] = v
	}
	return nil
}

// deepCopyRecord recursively copies a record so a decision never
// mutates the caller's input map.
func deepCopyRecord(v map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(v))
	for k, val := range v {
		out[k] = deepCopyValue(val)
	}
	return out
}

func deepCopyValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		return deepCopyRecord(vv)
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, x := range vv {
			out[i] = deepCopyValue(x)
		}
		return out
	default:
		return v
	}
}
