package core

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/gridrules/dtable/match"
)

// Interpreter can compile and execute an expression cell's source text.
// It backs the ExpressionProc kind used by guard/if cells and by
// set*-default cells whose text isn't a bare literal.
type Interpreter interface {
	// Compile pre-processes source, returning an opaque value handed
	// back to Exec.
	Compile(ctx context.Context, source string) (interface{}, error)

	// Exec runs compiled source against record, returning whatever
	// value the expression produces. Boolean coercion for guard use
	// is the caller's job (core.truthy).
	Exec(ctx context.Context, record map[string]interface{}, compiled interface{}) (interface{}, error)
}

// MatchContext carries everything a Matcher needs besides the cell
// text itself: which column the cell belongs to, and the table-level
// options that affect recognition.
type MatchContext struct {
	Column         *Column
	RegexpImplicit bool
	Interpreters   map[string]Interpreter
	// Interpreter names the entry of Interpreters the Guard matcher
	// uses to compile expression cells. Defaults to "goja".
	Interpreter string
}

func (ctx *MatchContext) interpreter() Interpreter {
	name := ctx.Interpreter
	if name == "" {
		name = "goja"
	}
	return ctx.Interpreters[name]
}

// Matcher compiles a cell's text into a CellValue, or declines by
// returning ok=false so dispatch proceeds to the next matcher in the
// table's matcher list.
//
// See spec.md §4.1.
type Matcher interface {
	Match(ctx *MatchContext, text string) (cell CellValue, ok bool, err error)
}

// DefaultMatchers is the matcher list tried in order when a table
// doesn't override it: Range, Numeric, Object, Pattern, Constant,
// Symbol, Guard.
func DefaultMatchers() []Matcher {
	return []Matcher{
		&RangeMatcher{},
		&NumericMatcher{},
		&ObjectMatcher{},
		&PatternMatcher{},
		&ConstantMatcher{},
		&SymbolMatcher{},
		&GuardMatcher{},
	}
}

func inputRoleCell(kind ProcKind, fn InputFn) CellValue {
	return CellValue{Kind: Proc, ProcKind: kind, InFn: fn}
}

func outputRoleCell(kind ProcKind, fn OutputFn) CellValue {
	return CellValue{Kind: Proc, ProcKind: kind, OutFn: fn}
}

// -- Pattern matcher -- fully specified by spec.md §4.1. --

var patternCellRegexp = regexp.MustCompile(`^\s*(=~|!~|!=)?\s*(.*)$`)

// PatternMatcher recognizes "(comparator)? value" cells, where
// comparator is one of =~, !~, or !=.
type PatternMatcher struct{}

func (m *PatternMatcher) Match(ctx *MatchContext, text string) (CellValue, bool, error) {
	if !ctx.Column.Type.isInputRole() {
		// A comparator only makes sense as a predicate over a cell's
		// input value; an out/if cell's text is always a literal (or
		// handled by Symbol/Guard/Object).
		return CellValue{}, false, nil
	}
	if strings.HasPrefix(strings.TrimSpace(text), ":") {
		// A leading ':' aborts pattern matching: regexps are not
		// compared against symbol references.
		return CellValue{}, false, nil
	}

	parts := patternCellRegexp.FindStringSubmatch(text)
	comparator, value := parts[1], parts[2]

	if comparator == "" {
		if !ctx.RegexpImplicit {
			return CellValue{}, false, nil
		}
		if !hasNonWordRune(value) {
			return CellValue{}, false, nil
		}
		comparator = "=~"
	}

	switch comparator {
	case "=~", "!~":
		re, err := regexp.Compile(value)
		if err != nil {
			return CellValue{}, false, cellErr(-1, -1, "invalid regexp %q: %v", value, err)
		}
		negate := comparator == "!~"
		fn := func(v interface{}, _ map[string]interface{}) (bool, error) {
			matched := re.MatchString(stringValue(v))
			if negate {
				matched = !matched
			}
			return matched, nil
		}
		return inputRoleCell(PatternProc, fn), true, nil
	case "!=":
		literal := value
		fn := func(v interface{}, _ map[string]interface{}) (bool, error) {
			return stringValue(v) != literal, nil
		}
		return inputRoleCell(PatternProc, fn), true, nil
	default:
		return CellValue{}, false, nil
	}
}

func hasNonWordRune(s string) bool {
	for _, r := range s {
		if !(r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')) {
			return true
		}
	}
	return false
}

// -- Object matcher -- structural JSON-pattern matching, via match.Match. --

// ObjectMatcher recognizes a cell written as a JSON object or array
// literal (e.g. {"role":"admin","tags":["vip","?"]}) and matches the
// column's value against it structurally, using match.Match's
// recursive pattern matcher. A bare "?" matches anything; "?name"
// binds, but the binding is discarded -- a Proc's InputFn reports a
// single bool with no channel to thread captured variables into other
// columns or into output assembly, so ObjectMatcher only asks whether
// match.Match found at least one set of bindings.
type ObjectMatcher struct{}

func (m *ObjectMatcher) Match(ctx *MatchContext, text string) (CellValue, bool, error) {
	if !ctx.Column.Type.isInputRole() {
		// An out/if cell written as {...}/[...] is a literal value to
		// emit, not a structural predicate -- ConstantMatcher claims it.
		return CellValue{}, false, nil
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return CellValue{}, false, nil
	}

	var pattern interface{}
	if err := json.Unmarshal([]byte(trimmed), &pattern); err != nil {
		return CellValue{}, false, cellErr(-1, -1, "invalid object pattern %q: %v", trimmed, err)
	}

	fn := func(v interface{}, _ map[string]interface{}) (bool, error) {
		fact := v
		if s, ok := v.(string); ok {
			var parsed interface{}
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				fact = parsed
			}
		}
		bss, err := match.Match(pattern, fact, match.NewBindings())
		if err != nil {
			return false, err
		}
		return bss != nil, nil
	}
	return inputRoleCell(ObjectProc, fn), true, nil
}

// -- Constant matcher -- fully specified by spec.md §4.1. --

// ConstantMatcher claims whatever no other matcher claims, except
// cells beginning with ':', which are reserved for Symbol/Guard.
type ConstantMatcher struct{}

func (m *ConstantMatcher) Match(ctx *MatchContext, text string) (CellValue, bool, error) {
	if strings.HasPrefix(strings.TrimSpace(text), ":") {
		return CellValue{}, false, nil
	}
	return CellValue{Kind: Proc, ProcKind: ConstantProc, Text: text}, true, nil
}

// -- Symbol matcher -- left to the general matcher contract. --

var bareSymbolRegexp = regexp.MustCompile(`^:([A-Za-z_]\w*)$`)

// SymbolMatcher recognizes a bare ":name" reference: on an input
// column it compares the cell's column value against the current
// value of the named field elsewhere in the record; on an output
// column it copies the named field's value from the record the cell
// is evaluated against (the output under construction for out/if
// cells, the input record for a set* default).
type SymbolMatcher struct{}

func (m *SymbolMatcher) Match(ctx *MatchContext, text string) (CellValue, bool, error) {
	parts := bareSymbolRegexp.FindStringSubmatch(strings.TrimSpace(text))
	if parts == nil {
		return CellValue{}, false, nil
	}
	name := parts[1]

	if ctx.Column.Type.isInputRole() {
		fn := func(v interface{}, record map[string]interface{}) (bool, error) {
			return stringValue(v) == stringValue(record[name]), nil
		}
		return inputRoleCell(SymbolProc, fn), true, nil
	}

	fn := func(record map[string]interface{}) (interface{}, error) {
		return record[name], nil
	}
	return outputRoleCell(SymbolProc, fn), true, nil
}

// -- Numeric matcher -- left to the general matcher contract. --

var numericCellRegexp = regexp.MustCompile(`^(<=|>=|==|<|>|!=)?\s*(-?\d+(?:\.\d+)?)$`)

// NumericMatcher recognizes "(comparator)? number" cells and compares
// the column's numeric value against the literal with that comparator
// (defaulting to == when the comparator is omitted).
type NumericMatcher struct{}

func (m *NumericMatcher) Match(ctx *MatchContext, text string) (CellValue, bool, error) {
	if !ctx.Column.Type.isInputRole() {
		// A bare number in an out/if cell is a literal value, not a
		// comparison -- let ConstantMatcher claim it.
		return CellValue{}, false, nil
	}
	trimmed := strings.TrimSpace(text)
	parts := numericCellRegexp.FindStringSubmatch(trimmed)
	if parts == nil {
		return CellValue{}, false, nil
	}
	comparator := parts[1]
	if comparator == "" {
		comparator = "=="
	}
	literal, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return CellValue{}, false, nil
	}

	fn := func(v interface{}, _ map[string]interface{}) (bool, error) {
		n, ok := asFloat(v)
		if !ok {
			return false, nil
		}
		switch comparator {
		case "<":
			return n < literal, nil
		case "<=":
			return n <= literal, nil
		case ">":
			return n > literal, nil
		case ">=":
			return n >= literal, nil
		case "!=":
			return n != literal, nil
		default:
			return n == literal, nil
		}
	}
	return inputRoleCell(RangeProc, fn), true, nil
}

func asFloat(v interface{}) (float64, bool) {
	switch vv := v.(type) {
	case float64:
		return vv, true
	case float32:
		return float64(vv), true
	case int:
		return float64(vv), true
	case int64:
		return float64(vv), true
	case string:
		n, err := strconv.ParseFloat(vv, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// -- Range matcher -- left to the general matcher contract. --

var rangeCellRegexp = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\.\.(-?\d+(?:\.\d+)?)$`)

// RangeMatcher recognizes "lo..hi" cells and compares the column's
// numeric value for inclusion in [lo, hi].
type RangeMatcher struct{}

func (m *RangeMatcher) Match(ctx *MatchContext, text string) (CellValue, bool, error) {
	if !ctx.Column.Type.isInputRole() {
		return CellValue{}, false, nil
	}
	parts := rangeCellRegexp.FindStringSubmatch(strings.TrimSpace(text))
	if parts == nil {
		return CellValue{}, false, nil
	}
	lo, _ := strconv.ParseFloat(parts[1], 64)
	hi, _ := strconv.ParseFloat(parts[2], 64)
	if hi < lo {
		lo, hi = hi, lo
	}

	fn := func(v interface{}, _ map[string]interface{}) (bool, error) {
		n, ok := asFloat(v)
		if !ok {
			return false, nil
		}
		return lo <= n && n <= hi, nil
	}
	return inputRoleCell(RangeProc, fn), true, nil
}

// -- Guard matcher -- the expression fallback for guard/if cells (and
// any other colon-prefixed cell Symbol didn't claim), backed by an
// Interpreter. --

// GuardMatcher compiles a ":<expression>" cell via the table's
// configured Interpreter (goja by default). On an input-role column
// (guard, or an in column using this syntax) the expression is
// evaluated against the full input record and coerced to bool. On an
// output-role column (if, out) it is evaluated against the
// output-under-construction record and its raw value returned; a set*
// default cell is compiled the same output-role way but evaluated
// against the input record.
type GuardMatcher struct{}

func (m *GuardMatcher) Match(ctx *MatchContext, text string) (CellValue, bool, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, ":") {
		return CellValue{}, false, nil
	}
	source := strings.TrimSpace(trimmed[1:])
	if source == "" {
		return CellValue{}, false, nil
	}

	interp := ctx.interpreter()
	if interp == nil {
		return CellValue{}, false, cellErr(-1, -1, "no interpreter available to compile expression %q", source)
	}

	compiled, err := interp.Compile(context.Background(), source)
	if err != nil {
		return CellValue{}, false, cellErr(-1, -1, "failed to compile expression %q: %v", source, err)
	}

	if ctx.Column.Type.isInputRole() {
		fn := func(_ interface{}, record map[string]interface{}) (bool, error) {
			v, err := interp.Exec(context.Background(), record, compiled)
			if err != nil {
				return false, err
			}
			return truthy(v), nil
		}
		return inputRoleCell(GuardProc, fn), true, nil
	}

	fn := func(record map[string]interface{}) (interface{}, error) {
		return interp.Exec(context.Background(), record, compiled)
	}
	return outputRoleCell(ExpressionProc, fn), true, nil
}

// truthy coerces an expression result to bool the way a guard cell's
// outcome gates row acceptance.
func truthy(v interface{}) bool {
	switch vv := v.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != ""
	case float64:
		return vv != 0
	default:
		return true
	}
}
