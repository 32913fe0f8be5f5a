package service

import "log"

// debugLogf mirrors core's Debug-bool-gated log.Printf chokepoint.
func debugLogf(format string, args ...interface{}) {
	log.Printf(format, args...)
}
