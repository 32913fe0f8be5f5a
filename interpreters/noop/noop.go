// Package noop provides a core.Interpreter that never evaluates
// expression text -- useful for a table whose options declare
// matchers: false but that never actually uses a guard/if/expression
// cell, so compilation doesn't need a working interpreter at all.
package noop

import "context"

// Interpreter implements core.Interpreter by refusing to compile
// anything. Its only purpose is to occupy the "interpreter" slot
// without pulling in Goja.
type Interpreter struct{}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (i *Interpreter) Compile(ctx context.Context, source string) (interface{}, error) {
	return nil, errNoop
}

func (i *Interpreter) Exec(ctx context.Context, record map[string]interface{}, compiled interface{}) (interface{}, error) {
	return nil, errNoop
}

type noopError struct{}

func (noopError) Error() string { return "noop interpreter cannot compile or execute expressions" }

var errNoop = noopError{}
