// Package executor runs a Selector's Result against a Registry: for each
// system, in order, it iterates that system's effective task list,
// evaluating `when` guards, invoking handlers, and applying `on_fail`
// policy.
package executor

import (
	"context"
	"fmt"

	"github.com/myfavshrimp/arc/internal/invariant"
	"github.com/myfavshrimp/arc/internal/registry"
	"github.com/myfavshrimp/arc/internal/report"
	"github.com/myfavshrimp/arc/internal/selector"
	"github.com/myfavshrimp/arc/internal/transport"
)

// Invoker bridges the Executor to the scripting host: it knows how to call
// a task's opaque Handler and When values against a concrete system. The
// concrete implementation lives in internal/script; this package depends
// only on this interface and does not import the scripting host.
type Invoker interface {
	// Invoke calls handler with system bound as the current System value,
	// returning its result or a raised error.
	Invoke(ctx context.Context, handler any, system transport.Session) (result any, err error)
	// EvalWhen calls a zero-arg predicate and returns its boolean result.
	// A nil when always evaluates true.
	EvalWhen(ctx context.Context, when any) (bool, error)
}

// Options configures a Run.
type Options struct {
	// DryRun, when true, skips handler invocation entirely: `when` guards
	// are still evaluated, and a task whose guard passes is marked success
	// with a nil result.
	DryRun bool
	// Logf receives one line per task-state transition, in execution order.
	// May be nil.
	Logf func(format string, args ...any)
}

func (o Options) logf(format string, args ...any) {
	if o.Logf != nil {
		o.Logf(format, args...)
	}
}

// Pool resolves a system name to a live transport.Session.
type Pool interface {
	SessionFor(system string) (transport.Session, error)
}

// Run executes result against reg, invoking handlers through inv and
// resolving sessions through pool. It returns the accumulated Report; a
// non-nil error indicates an abort (on_fail=abort) or a session-resolution
// failure, both of which halt remaining systems.
func Run(ctx context.Context, reg *registry.Registry, result selector.Result, pool Pool, inv Invoker, opts Options) (*report.Report, error) {
	invariant.NotNil(reg, "reg")
	invariant.NotNil(pool, "pool")

	rep := &report.Report{}

	// Task state is reset once per run, not per system: a later system's
	// handlers may observe results published on an earlier system within
	// the same run.
	reg.ResetAll()

	for _, system := range result.Systems {
		sysReport := rep.AddSystem(system)
		aborted, err := runSystem(ctx, system, result.EffectiveTasks(system), pool, inv, opts, sysReport)
		if err != nil {
			return rep, err
		}
		if aborted {
			sysReport.Aborted = true
			return rep, fmt.Errorf("run aborted: task on system %q failed with on_fail=abort", system)
		}
	}

	return rep, nil
}

func runSystem(ctx context.Context, system string, tasks []*registry.Task, pool Pool, inv Invoker, opts Options, sysReport *report.SystemReport) (aborted bool, err error) {
	var session transport.Session
	if !opts.DryRun {
		session, err = pool.SessionFor(system)
		if err != nil {
			return false, fmt.Errorf("resolving session for system %q: %w", system, err)
		}
	}

	stickySkip := false

	for _, task := range tasks {
		// A task that already finished on an earlier system in this run
		// starts this system's pass from pending again; until then its
		// earlier result stays visible to other tasks.
		if task.State() != registry.StatePending {
			task.Reset()
		}

		if stickySkip && !task.Important {
			task.MarkSkipped()
			sysReport.Record(task.Name, registry.StateSkipped, nil)
			opts.logf("[%s] %s: skipped (sticky skip_system)", system, task.Name)
			continue
		}

		run, werr := inv.EvalWhen(ctx, task.When)
		if werr != nil {
			task.MarkFailed(werr)
			sysReport.Record(task.Name, registry.StateFailed, werr)
			opts.logf("[%s] %s: when-guard error: %v", system, task.Name, werr)
			if shouldAbort, skipSys := applyOnFail(task.OnFail); shouldAbort {
				return true, nil
			} else if skipSys {
				stickySkip = true
			}
			continue
		}
		if !run {
			task.MarkSkipped()
			sysReport.Record(task.Name, registry.StateSkipped, nil)
			opts.logf("[%s] %s: skipped (when = false)", system, task.Name)
			continue
		}

		if opts.DryRun {
			task.MarkSuccess(nil)
			sysReport.Record(task.Name, registry.StateSuccess, nil)
			opts.logf("[%s] %s: would run", system, task.Name)
			continue
		}

		result, herr := inv.Invoke(ctx, task.Handler, session)
		if herr != nil {
			task.MarkFailed(herr)
			sysReport.Record(task.Name, registry.StateFailed, herr)
			opts.logf("[%s] %s: failed: %v", system, task.Name, herr)

			shouldAbort, skipSys := applyOnFail(task.OnFail)
			if shouldAbort {
				return true, nil
			}
			if skipSys {
				stickySkip = true
			}
			continue
		}

		task.MarkSuccess(result)
		sysReport.Record(task.Name, registry.StateSuccess, nil)
		opts.logf("[%s] %s: success", system, task.Name)
	}

	return false, nil
}

// applyOnFail reports whether policy demands an immediate full-run abort,
// and separately whether it sets the system's sticky skip flag.
func applyOnFail(policy registry.OnFail) (abort bool, skipSystem bool) {
	switch policy {
	case registry.OnFailContinue:
		return false, false
	case registry.OnFailSkipSystem:
		return false, true
	case registry.OnFailAbort:
		return true, false
	default:
		return true, false
	}
}
