package core

// MatchersOption is the tri-state value of Options.Matchers: nil means
// "use DefaultMatchers()", NoMatchers means "disable all matchers"
// (equivalent to TextOnly), and a non-nil []Matcher overrides the
// default list and order.
type MatchersOption interface{}

// noMatchersSentinel is NoMatchers' concrete type, distinct from a nil
// interface so ResolveMatchers can tell "not set" from "explicitly
// disabled" apart.
type noMatchersSentinel struct{}

// NoMatchers, passed as Options.Matchers, disables matcher dispatch
// entirely: every non-empty cell becomes a Constant, the same effect
// as Options.TextOnly.
var NoMatchers MatchersOption = noMatchersSentinel{}

// Options controls how Parse compiles a Grid. The string-keyed form
// accepted by ParseOptions mirrors spec.md §6 exactly; the Go struct
// form adds fields (Interpreters, Interpreter, Debug) that have no
// wire-option equivalent because they wire in Go values, not scalars.
type Options struct {
	// FirstMatch is a *bool so a pre-header options row's
	// first_match/accumulate cells and an explicit Options value can
	// be told apart from "unset, use the default of true".
	FirstMatch *bool

	RegexpImplicit bool
	TextOnly       bool
	Matchers       MatchersOption

	// Interpreters backs the expression Proc kind. A table that
	// contains no guard/if/expression cells never needs one.
	Interpreters map[string]Interpreter

	// Interpreter names the entry of Interpreters used to compile
	// expression cells. Defaults to "goja".
	Interpreter string

	// Debug, when true, makes Table log each compiled row's
	// constants/procs partition at Parse time.
	Debug bool
}

func (o Options) firstMatch() bool {
	if o.FirstMatch == nil {
		return true
	}
	return *o.FirstMatch
}

// ParseOptions validates and converts the string-keyed options map
// described by spec.md §6. Unknown keys are an OptionValidation error.
func ParseOptions(m map[string]interface{}) (Options, error) {
	var opts Options

	for key, v := range m {
		switch key {
		case "first_match":
			b, ok := v.(bool)
			if !ok {
				return Options{}, optionErr("first_match must be a bool")
			}
			opts.FirstMatch = boolPtr(b)
		case "regexp_implicit":
			b, ok := v.(bool)
			if !ok {
				return Options{}, optionErr("regexp_implicit must be a bool")
			}
			opts.RegexpImplicit = b
		case "text_only":
			b, ok := v.(bool)
			if !ok {
				return Options{}, optionErr("text_only must be a bool")
			}
			opts.TextOnly = b
		case "matchers":
			switch vv := v.(type) {
			case nil:
				opts.Matchers = nil
			case bool:
				if vv {
					return Options{}, optionErr("matchers: true is not a valid value")
				}
				opts.Matchers = NoMatchers
			case []Matcher:
				opts.Matchers = vv
			default:
				return Options{}, optionErr("matchers must be nil, false, or a matcher list")
			}
		default:
			return Options{}, optionErr("unknown option %q", key)
		}
	}

	return opts, nil
}

// resolveMatchers applies spec.md §4.1's text_only/options interplay:
// TextOnly (from either the struct field or a pre-header options row)
// and an explicit NoMatchers both disable matching outright.
func resolveMatchers(opts Options) []Matcher {
	if opts.TextOnly {
		return nil
	}
	switch m := opts.Matchers.(type) {
	case nil:
		return DefaultMatchers()
	case noMatchersSentinel:
		return nil
	case []Matcher:
		return m
	default:
		return DefaultMatchers()
	}
}
