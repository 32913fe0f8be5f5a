package service

import (
	"context"
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/gridrules/dtable/core"
	"github.com/gridrules/dtable/grid"
)

// Reloader re-parses a grid file on a cron schedule and swaps the
// result into a Decider, the same timer-fallback idiom the goja
// interpreter's cronNext exposes to expression cells -- except here
// the schedule drives a Go-level timer loop instead of an in-expression
// fallback computation.
type Reloader struct {
	Filename string
	Cron     string
	Options  core.Options
	Decider  *Decider

	Debug bool
}

// Run blocks, reloading Filename on every Cron occurrence until ctx is
// canceled. The first parse happens immediately so a misconfigured
// grid or cron expression is reported before Run returns rather than
// silently skipping the decider's first scheduled refresh.
func (r *Reloader) Run(ctx context.Context) error {
	expr, err := cronexpr.Parse(r.Cron)
	if err != nil {
		return err
	}

	if err := r.reloadOnce(); err != nil {
		return err
	}

	for {
		next := expr.Next(time.Now())
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			if err := r.reloadOnce(); err != nil {
				r.logf("reload of %s failed: %v", r.Filename, err)
			}
		}
	}
}

func (r *Reloader) reloadOnce() error {
	g, err := grid.LoadFile(r.Filename)
	if err != nil {
		return err
	}
	t, err := core.Parse(g, r.Options)
	if err != nil {
		return err
	}
	r.logf("reloaded %s (%d rows)", r.Filename, len(t.RawRows))
	r.Decider.Swap(t)
	return nil
}

func (r *Reloader) logf(format string, args ...interface{}) {
	if r.Debug {
		debugLogf("Reloader."+format, args...)
	}
}
