package core

import "regexp"

// ColumnType is the type tag a header cell declares for its column.
type ColumnType int

const (
	ColIn ColumnType = iota
	ColOut
	ColGuard
	ColIf
	ColSet
	ColSetNil
	ColSetBlank
	ColPath
)

func (t ColumnType) String() string {
	switch t {
	case ColIn:
		return "in"
	case ColOut:
		return "out"
	case ColGuard:
		return "guard"
	case ColIf:
		return "if"
	case ColSet:
		return "set"
	case ColSetNil:
		return "set/nil"
	case ColSetBlank:
		return "set/blank"
	case ColPath:
		return "path"
	default:
		return "?"
	}
}

// HeaderKeyword renders the header-cell keyword (without name or
// trailing colon) that parseHeaderCell would read back into this
// column's Type and TextOnly -- the inverse of parseHeaderCell's
// switch, used to reconstruct an editable header row from a compiled
// Table (Table.Copy, tools.TableMarkdown). ColumnType.String() stays
// the shorter, non-round-tripping form used in diagnostics.
func (c *Column) HeaderKeyword() string {
	switch c.Type {
	case ColIn:
		if c.TextOnly {
			return "in/text"
		}
		return "in"
	case ColOut:
		if c.TextOnly {
			return "out/text"
		}
		return "out"
	case ColGuard:
		return "cond"
	default:
		return c.Type.String()
	}
}

// isInputRole reports whether a column's cells are compiled against
// the input record (in, guard, cond, set*) as opposed to the
// output-under-construction (out, if).
func (t ColumnType) isInputRole() bool {
	switch t {
	case ColIn, ColGuard, ColSet, ColSetNil, ColSetBlank:
		return true
	default:
		return false
	}
}

// requiresName reports whether a header cell of this type must name a
// field. path, if, and cond may be anonymous; cond normalizes to
// ColGuard, the data model's predicate-over-the-full-record column.
func (t ColumnType) requiresName() bool {
	switch t {
	case ColPath, ColIf, ColGuard:
		return false
	default:
		return true
	}
}

// Column is one entry of a Table's column dictionary.
//
// See spec.md §3.
type Column struct {
	// Name is an identifier for every column type except if, and
	// except guard columns left anonymous (cond permits, but does not
	// require, a name).
	Name string

	Type ColumnType

	// TextOnly disables all matchers for this column's cells; every
	// non-empty cell becomes a Constant.
	TextOnly bool

	// Eval is nil ("none" in spec.md's tri-state) unless a matcher
	// explicitly records whether this column's predicate closures
	// need to evaluate against the full record (set by the guard
	// matcher).
	Eval *bool

	// Indexed tracks whether this column remains a candidate index
	// key column: starts true, and a single predicate or empty cell
	// anywhere in the column's rows permanently disqualifies it.
	Indexed bool
}

// Default is one set/set-nil/set-blank entry: a default-assignment
// function for an input field, gated by whether the field's current
// value satisfies If.
type Default struct {
	Name     string
	Function OutputFn
	If       func(v interface{}) bool
}

// ColumnDict is a Table's compiled column dictionary. Ins, Outs, and
// Path are keyed by 0-based grid column index; Outs' Names must be
// unique (TableStructure error otherwise). Ins' names need not be
// unique: several in columns may test the same field.
type ColumnDict struct {
	Ins      map[int]*Column
	Outs     map[int]*Column
	Path     map[int]*Column
	Defaults map[int]*Default
}

func newColumnDict() *ColumnDict {
	return &ColumnDict{
		Ins:      make(map[int]*Column),
		Outs:     make(map[int]*Column),
		Path:     make(map[int]*Column),
		Defaults: make(map[int]*Default),
	}
}

// nameRegexp is the identifier grammar a column name must match after
// interior whitespace has been collapsed to underscores, per
// spec.md §3 and §4.2.
var nameRegexp = regexp.MustCompile(`^[A-Za-z_][\w:/!?]*$`)
