package core

import "strings"

// RowRange is a contiguous run of data rows sharing the same index
// key. End is -1 for an isolated single-row run; otherwise it's the
// inclusive index of the run's last row.
//
// See spec.md §3 and §4.4.
type RowRange struct {
	Start, End int
}

// Rows reports the inclusive row indices this range covers.
func (r RowRange) Rows() (first, last int) {
	if r.End < 0 {
		return r.Start, r.Start
	}
	return r.Start, r.End
}

// Index maps a tuple of constant key-column values to the row ranges
// sharing that key.
type Index struct {
	KeyColumns []int
	Hash       map[string][]RowRange
}

// keyColumns returns, in ascending column order, every in column whose
// every data-row cell compiled to a non-empty Constant -- the
// candidates spec.md §4.4 calls key columns.
func keyColumns(dict *ColumnDict) []int {
	var cols []int
	for col, c := range dict.Ins {
		if c.Type == ColIn && c.Indexed {
			cols = append(cols, col)
		}
	}
	sortInts(cols)
	return cols
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// encodeKey joins a tuple of key-column values into a single map key.
// Each value is preceded by its decimal length and a ':', so the
// encoding is unambiguous whatever characters the values contain.
func encodeKey(values []string) string {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(itoaLen(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}

func itoaLen(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [20]byte{}
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}

// buildIndex builds the eager index over scanRows if at least one key
// column exists; otherwise no index is built and the table falls back
// to a linear scan.
func buildIndex(dict *ColumnDict, scanRows []*ScanRow) *Index {
	cols := keyColumns(dict)
	if len(cols) == 0 {
		return nil
	}

	idx := &Index{KeyColumns: cols, Hash: make(map[string][]RowRange)}

	rowKey := func(i int) string {
		values := make([]string, len(cols))
		for j, col := range cols {
			values[j] = scanRows[i].Constants[col]
		}
		return encodeKey(values)
	}

	i := 0
	for i < len(scanRows) {
		key := rowKey(i)
		start := i
		j := i + 1
		for j < len(scanRows) && rowKey(j) == key {
			j++
		}
		end := -1
		if j-start > 1 {
			end = j - 1
		}
		idx.Hash[key] = append(idx.Hash[key], RowRange{Start: start, End: end})
		i = j
	}

	return idx
}

// lookup returns the row ranges whose key matches key's values, or nil
// if the index has no entry for that key (spec.md §4.6: "If absent,
// return the empty mapping").
func (idx *Index) lookup(key []string) []RowRange {
	if idx == nil {
		return nil
	}
	return idx.Hash[encodeKey(key)]
}
