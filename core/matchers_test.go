package core

import (
	"testing"

	"github.com/gridrules/dtable/interpreters/goja"
)

func inCol(name string) *Column  { return &Column{Type: ColIn, Name: name, Indexed: true} }
func outCol(name string) *Column { return &Column{Type: ColOut, Name: name} }
func ifCol() *Column             { return &Column{Type: ColIf} }

func mustMatch(t *testing.T, m Matcher, ctx *MatchContext, text string) CellValue {
	t.Helper()
	cell, ok, err := m.Match(ctx, text)
	if err != nil {
		t.Fatalf("Match(%q) error: %v", text, err)
	}
	if !ok {
		t.Fatalf("Match(%q) declined, expected a claim", text)
	}
	return cell
}

func mustDecline(t *testing.T, m Matcher, ctx *MatchContext, text string) {
	t.Helper()
	_, ok, err := m.Match(ctx, text)
	if err != nil {
		t.Fatalf("Match(%q) error: %v", text, err)
	}
	if ok {
		t.Fatalf("Match(%q) claimed, expected decline", text)
	}
}

func TestNumericMatcherComparators(t *testing.T) {
	m := &NumericMatcher{}
	ctx := &MatchContext{Column: inCol("n")}

	cases := []struct {
		text  string
		value float64
		want  bool
	}{
		{">5", 6, true},
		{">5", 5, false},
		{"<=5", 5, true},
		{"!=5", 6, true},
		{"!=5", 5, false},
		{"5", 5, true},
	}
	for _, c := range cases {
		cell := mustMatch(t, m, ctx, c.text)
		got, err := cell.InFn(c.value, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("%q against %v: got %v, want %v", c.text, c.value, got, c.want)
		}
	}
}

func TestNumericMatcherDeclinesOnOutputColumn(t *testing.T) {
	mustDecline(t, &NumericMatcher{}, &MatchContext{Column: outCol("n")}, "5")
	mustDecline(t, &NumericMatcher{}, &MatchContext{Column: ifCol()}, "5")
}

func TestNumericMatcherDeclinesOnNonNumericText(t *testing.T) {
	mustDecline(t, &NumericMatcher{}, &MatchContext{Column: inCol("n")}, "abc")
}

func TestRangeMatcherInclusiveBounds(t *testing.T) {
	m := &RangeMatcher{}
	ctx := &MatchContext{Column: inCol("n")}
	cell := mustMatch(t, m, ctx, "1..10")

	for _, v := range []float64{1, 5, 10} {
		got, err := cell.InFn(v, nil)
		if err != nil || !got {
			t.Errorf("expected %v in [1,10], got %v (err %v)", v, got, err)
		}
	}
	got, err := cell.InFn(float64(11), nil)
	if err != nil || got {
		t.Errorf("expected 11 outside [1,10], got %v (err %v)", got, err)
	}
}

func TestRangeMatcherNormalizesReversedBounds(t *testing.T) {
	m := &RangeMatcher{}
	cell := mustMatch(t, m, &MatchContext{Column: inCol("n")}, "10..1")
	got, err := cell.InFn(float64(5), nil)
	if err != nil || !got {
		t.Errorf("expected reversed bounds normalized, got %v (err %v)", got, err)
	}
}

func TestRangeMatcherDeclinesOnOutputColumn(t *testing.T) {
	mustDecline(t, &RangeMatcher{}, &MatchContext{Column: outCol("n")}, "1..10")
}

func TestPatternMatcherRegexpAndNegation(t *testing.T) {
	m := &PatternMatcher{}
	ctx := &MatchContext{Column: inCol("name")}

	cell := mustMatch(t, m, ctx, "=~^a")
	got, err := cell.InFn("apple", nil)
	if err != nil || !got {
		t.Errorf("expected =~^a to match apple, got %v (err %v)", got, err)
	}

	cell = mustMatch(t, m, ctx, "!~^a")
	got, err = cell.InFn("apple", nil)
	if err != nil || got {
		t.Errorf("expected !~^a to reject apple, got %v (err %v)", got, err)
	}

	cell = mustMatch(t, m, ctx, "!=apple")
	got, err = cell.InFn("banana", nil)
	if err != nil || !got {
		t.Errorf("expected !=apple to accept banana, got %v (err %v)", got, err)
	}
}

func TestPatternMatcherDeclinesOnColonPrefix(t *testing.T) {
	mustDecline(t, &PatternMatcher{}, &MatchContext{Column: inCol("name")}, ":other")
}

func TestPatternMatcherDeclinesOnOutputColumn(t *testing.T) {
	mustDecline(t, &PatternMatcher{}, &MatchContext{Column: outCol("name")}, "=~^a")
}

func TestPatternMatcherImplicitRegexpRequiresNonWordRune(t *testing.T) {
	ctx := &MatchContext{Column: inCol("name"), RegexpImplicit: true}
	m := &PatternMatcher{}

	mustDecline(t, m, ctx, "apple")

	cell := mustMatch(t, m, ctx, "^a.*e$")
	got, err := cell.InFn("apple", nil)
	if err != nil || !got {
		t.Errorf("expected implicit regexp to match apple, got %v (err %v)", got, err)
	}
}

func TestObjectMatcherStructuralMatchOnInputColumn(t *testing.T) {
	m := &ObjectMatcher{}
	ctx := &MatchContext{Column: inCol("profile")}
	cell := mustMatch(t, m, ctx, `{"role":"admin"}`)

	got, err := cell.InFn(map[string]interface{}{"role": "admin", "extra": 1}, nil)
	if err != nil || !got {
		t.Errorf("expected structural match, got %v (err %v)", got, err)
	}

	got, err = cell.InFn(map[string]interface{}{"role": "guest"}, nil)
	if err != nil || got {
		t.Errorf("expected no match for mismatched role, got %v (err %v)", got, err)
	}
}

func TestObjectMatcherParsesJSONEncodedStringValue(t *testing.T) {
	m := &ObjectMatcher{}
	cell := mustMatch(t, m, &MatchContext{Column: inCol("profile")}, `{"role":"admin"}`)

	got, err := cell.InFn(`{"role":"admin"}`, nil)
	if err != nil || !got {
		t.Errorf("expected JSON-string-encoded value to structurally match, got %v (err %v)", got, err)
	}
}

func TestObjectMatcherDeclinesOnNonObjectText(t *testing.T) {
	mustDecline(t, &ObjectMatcher{}, &MatchContext{Column: inCol("profile")}, "admin")
}

func TestObjectMatcherDeclinesOnOutputColumn(t *testing.T) {
	mustDecline(t, &ObjectMatcher{}, &MatchContext{Column: outCol("profile")}, `{"role":"admin"}`)
	mustDecline(t, &ObjectMatcher{}, &MatchContext{Column: ifCol()}, `{"role":"admin"}`)
}

func TestObjectMatcherInvalidJSONIsAnError(t *testing.T) {
	_, _, err := (&ObjectMatcher{}).Match(&MatchContext{Column: inCol("profile")}, `{not json}`)
	if err == nil {
		t.Fatal("expected a cell error for malformed JSON")
	}
}

func TestSymbolMatcherInputRoleComparesAgainstNamedField(t *testing.T) {
	m := &SymbolMatcher{}
	cell := mustMatch(t, m, &MatchContext{Column: inCol("confirm_email")}, ":email")

	record := map[string]interface{}{"email": "a@example.com"}
	got, err := cell.InFn("a@example.com", record)
	if err != nil || !got {
		t.Errorf("expected matching symbol reference, got %v (err %v)", got, err)
	}
	got, err = cell.InFn("different@example.com", record)
	if err != nil || got {
		t.Errorf("expected mismatched symbol reference to fail, got %v (err %v)", got, err)
	}
}

func TestSymbolMatcherOutputRoleCopiesNamedField(t *testing.T) {
	m := &SymbolMatcher{}
	cell := mustMatch(t, m, &MatchContext{Column: outCol("region_copy")}, ":region")

	got, err := cell.OutFn(map[string]interface{}{"region": "east"})
	if err != nil || got != "east" {
		t.Errorf("expected copied field value, got %v (err %v)", got, err)
	}
}

func TestSymbolMatcherDeclinesOnMalformedReference(t *testing.T) {
	mustDecline(t, &SymbolMatcher{}, &MatchContext{Column: inCol("x")}, ":1abc")
	mustDecline(t, &SymbolMatcher{}, &MatchContext{Column: inCol("x")}, "plain")
}

func TestGuardMatcherCompilesAndEvaluatesExpressionOnGuardColumn(t *testing.T) {
	m := &GuardMatcher{}
	ctx := &MatchContext{
		Column:       &Column{Type: ColGuard},
		Interpreters: map[string]Interpreter{"goja": goja.NewInterpreter()},
	}
	cell := mustMatch(t, m, ctx, `:record.status == "active"`)

	got, err := cell.InFn(nil, map[string]interface{}{"status": "active"})
	if err != nil || !got {
		t.Errorf("expected guard expression to evaluate true, got %v (err %v)", got, err)
	}
	got, err = cell.InFn(nil, map[string]interface{}{"status": "trial"})
	if err != nil || got {
		t.Errorf("expected guard expression to evaluate false, got %v (err %v)", got, err)
	}
}

func TestGuardMatcherOnOutputColumnReturnsRawExpressionValue(t *testing.T) {
	m := &GuardMatcher{}
	ctx := &MatchContext{
		Column:       &Column{Type: ColOut, Name: "n"},
		Interpreters: map[string]Interpreter{"goja": goja.NewInterpreter()},
	}
	cell := mustMatch(t, m, ctx, ":1+1")

	got, err := cell.OutFn(map[string]interface{}{})
	if err != nil {
		t.Fatal(err)
	}
	n, ok := got.(int64)
	if !ok {
		if f, okf := got.(float64); okf {
			n, ok = int64(f), true
		}
	}
	if !ok || n != 2 {
		t.Errorf("got %#v (%T)", got, got)
	}
}

func TestGuardMatcherDeclinesWithoutColonPrefix(t *testing.T) {
	mustDecline(t, &GuardMatcher{}, &MatchContext{Column: &Column{Type: ColGuard}}, "active")
}

func TestConstantMatcherClaimsEverythingExceptColonPrefix(t *testing.T) {
	m := &ConstantMatcher{}
	cell := mustMatch(t, m, &MatchContext{Column: inCol("x")}, "hello")
	if cell.Text != "hello" {
		t.Fatalf("got %#v", cell)
	}
	mustDecline(t, m, &MatchContext{Column: inCol("x")}, ":sym")
}
