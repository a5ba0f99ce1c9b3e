// Package report assembles the per-run summary an Executor produces:
// per-system, per-task outcomes suitable for CLI rendering.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/myfavshrimp/arc/internal/cli"
	"github.com/myfavshrimp/arc/internal/registry"
)

// TaskReport is one task's outcome on one system.
type TaskReport struct {
	Name  string
	State registry.TaskState
	Err   error
}

// SystemReport is one system's full ordered outcome list.
type SystemReport struct {
	System string
	Tasks  []TaskReport
	// Aborted is set when an on_fail=abort task halted the entire run while
	// processing this system.
	Aborted bool
}

// Report is the full run's outcome across every processed system.
type Report struct {
	Systems []SystemReport
}

// Failed reports whether any task anywhere in the run ended in StateFailed.
func (r *Report) Failed() bool {
	for _, sys := range r.Systems {
		for _, t := range sys.Tasks {
			if t.State == registry.StateFailed {
				return true
			}
		}
	}
	return false
}

// AddSystem appends a SystemReport, returning it by reference so the caller
// can append tasks to it as execution proceeds.
func (r *Report) AddSystem(system string) *SystemReport {
	r.Systems = append(r.Systems, SystemReport{System: system})
	return &r.Systems[len(r.Systems)-1]
}

// Record appends one task's outcome.
func (s *SystemReport) Record(name string, state registry.TaskState, err error) {
	s.Tasks = append(s.Tasks, TaskReport{Name: name, State: state, Err: err})
}

// Render writes a tree-style textual summary: one line per system, with an
// indented line per task beneath it. Glyphs are ANSI-colorized when
// useColor is true.
func (r *Report) Render(w io.Writer, useColor bool) {
	for _, sys := range r.Systems {
		fmt.Fprintf(w, "%s\n", sys.System)
		for _, t := range sys.Tasks {
			fmt.Fprintf(w, "  %s %s\n", stateGlyph(t.State, useColor), t.Name)
			if t.Err != nil {
				fmt.Fprintf(w, "      %s\n", indentError(t.Err))
			}
		}
		if sys.Aborted {
			fmt.Fprintf(w, "  %s\n", cli.Colorize("(run aborted on this system)", cli.ColorRed, useColor))
		}
	}
}

func stateGlyph(s registry.TaskState, useColor bool) string {
	switch s {
	case registry.StateSuccess:
		return cli.Colorize("✓", cli.ColorGreen, useColor)
	case registry.StateFailed:
		return cli.Colorize("✗", cli.ColorRed, useColor)
	case registry.StateSkipped:
		return cli.Colorize("-", cli.ColorGray, useColor)
	default:
		return cli.Colorize("?", cli.ColorYellow, useColor)
	}
}

func indentError(err error) string {
	return strings.ReplaceAll(err.Error(), "\n", "\n      ")
}
