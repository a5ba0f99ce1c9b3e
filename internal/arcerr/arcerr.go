// Package arcerr defines Arc's structured error type: a Category, a
// human message, an optional wrapped Cause, and free-form Context for
// diagnostics.
package arcerr

import "fmt"

// Category classifies an ArcError for exit-code mapping and formatting.
type Category string

const (
	// Config covers malformed target/group/task assignments, cyclic
	// groups, and duplicate names - surfaced by the Loader/Registry.
	Config Category = "config"
	// Selection covers filters that name no tasks or no systems, or an
	// unknown system/group/tag reference.
	Selection Category = "selection"
	// Script covers Lua runtime errors raised while evaluating arc.lua.
	Script Category = "script"
	// Handler covers a task handler's raised error or panic.
	Handler Category = "handler"
	// Transport covers SSH/SFTP/local-exec failures below the handler.
	Transport Category = "transport"
)

// ArcError is Arc's one structured error type. All fatal and task-level
// errors end up as one of these before being rendered or stored.
type ArcError struct {
	Category Category
	Message  string
	Cause    error
	Context  map[string]any
}

// New constructs an ArcError. context may be nil.
func New(category Category, message string, cause error, context map[string]any) *ArcError {
	return &ArcError{Category: category, Message: message, Cause: cause, Context: context}
}

func (e *ArcError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *ArcError) Unwrap() error { return e.Cause }

// ExitCode maps a Category to the process exit code used by cmd/arc's
// top-level error handling. A non-ArcError, such as cobra's own flag-parsing
// or usage-validation errors, exits 3 - distinct from task-failure exit 1.
func ExitCode(err error) int {
	var ae *ArcError
	if !asArcError(err, &ae) {
		return 3
	}
	switch ae.Category {
	case Config, Selection, Script:
		return 2
	case Handler, Transport:
		return 1
	default:
		return 1
	}
}

func asArcError(err error, target **ArcError) bool {
	for err != nil {
		if ae, ok := err.(*ArcError); ok {
			*target = ae
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// Format renders err for terminal output: the message, then each
// Context entry, then the Cause chain.
func Format(err error) string {
	var ae *ArcError
	if !asArcError(err, &ae) {
		return err.Error()
	}

	out := fmt.Sprintf("error: %s", ae.Message)
	for k, v := range ae.Context {
		out += fmt.Sprintf("\n  %s: %v", k, v)
	}
	if ae.Cause != nil {
		out += fmt.Sprintf("\ncaused by: %v", ae.Cause)
	}
	return out
}
