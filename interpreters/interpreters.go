// Package interpreters assembles the core.Interpreter registry a
// Table's Options.Interpreters field expects.
package interpreters

import (
	"github.com/gridrules/dtable/core"
	"github.com/gridrules/dtable/interpreters/goja"
	"github.com/gridrules/dtable/interpreters/noop"
)

// Standard returns the default interpreter set: "goja" (the default
// expression engine for guard/if/expression cells) and "noop" (for
// tables that declare an interpreter but never actually call it).
func Standard() map[string]core.Interpreter {
	return map[string]core.Interpreter{
		"goja": goja.NewInterpreter(),
		"noop": noop.NewInterpreter(),
	}
}
