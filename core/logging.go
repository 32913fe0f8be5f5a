package core

import "log"

// debugLogf is the package's one logging chokepoint, following the
// teacher's Debug-bool-gated log.Printf idiom used throughout its
// storage and transport layers. No structured-logging dependency is
// introduced here: see DESIGN.md.
func debugLogf(format string, args ...interface{}) {
	log.Printf(format, args...)
}
