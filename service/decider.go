// Package service provides the long-running front ends (HTTP,
// WebSocket, MQTT) that sit in front of a compiled decision table, plus
// a scheduled grid-reload and a decision audit log.
package service

import (
	"context"
	"sync"

	"github.com/gridrules/dtable/core"
)

// Decider holds a compiled table behind a mutex so a scheduled reload
// (see Reloader) can swap it out while requests are in flight, the way
// cmd/mservice's Service guards its shared state with sync.Mutex.
type Decider struct {
	mu    sync.RWMutex
	table *core.Table

	// SymbolizeKeys is passed through to every Decide call.
	SymbolizeKeys bool

	// Audit, if non-nil, records every decision after it's made.
	Audit AuditLog

	Debug bool
}

// AuditLog is the interface service/audit implements.
type AuditLog interface {
	Record(ctx context.Context, input, output map[string]interface{}, decideErr error) error
}

// NewDecider wraps an already-compiled table.
func NewDecider(t *core.Table) *Decider {
	return &Decider{table: t}
}

// Swap atomically replaces the compiled table, for a reload.
func (d *Decider) Swap(t *core.Table) {
	d.mu.Lock()
	d.table = t
	d.mu.Unlock()
}

// Decide runs one input record against the current table, auditing the
// outcome if an AuditLog is configured.
func (d *Decider) Decide(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	d.mu.RLock()
	t := d.table
	d.mu.RUnlock()

	attrs, err := t.Decide(input, d.SymbolizeKeys)
	if d.Audit != nil {
		if auditErr := d.Audit.Record(ctx, input, attrs, err); auditErr != nil {
			d.logf("audit record failed: %v", auditErr)
		}
	}
	return attrs, err
}

func (d *Decider) logf(format string, args ...interface{}) {
	if d.Debug {
		debugLogf("Decider."+format, args...)
	}
}
