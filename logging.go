// logging.go - structured logging for the executor, node registry, and
// task spawner.
//
// Unlike a package-level global, the logger here is threaded through
// explicitly via [WithLogger]: test binaries routinely construct many
// [Executor] values (one per simulated run), and a shared global would leak
// configuration and, worse, interleave log lines from concurrently-running
// simulations.
package detexec

import (
	"io"
	stdslog "log/slog"

	"github.com/joeycumines/logiface"
	logifaceslog "github.com/joeycumines/logiface-slog"
)

// Logger is the structured logger type accepted by [WithLogger], an alias
// for the logiface facade bound to the slog backend.
type Logger = logiface.Logger[*logifaceslog.Event]

// NewLogger builds a [Logger] that writes newline-delimited JSON to w at the
// given minimum level.
func NewLogger(w io.Writer, level logiface.Level) *Logger {
	handler := stdslog.NewJSONHandler(w, nil)
	return logiface.New[*logifaceslog.Event](
		logifaceslog.NewLogger(handler),
		logiface.WithLevel[*logifaceslog.Event](level),
	)
}

// NewNoopLogger returns a [Logger] with logging disabled, the default when
// no [WithLogger] option is supplied.
func NewNoopLogger() *Logger {
	return logiface.New[*logifaceslog.Event](
		logiface.WithLevel[*logifaceslog.Event](logiface.LevelDisabled),
	)
}

// logNodeEvent emits a structured record describing a node lifecycle
// transition, tagged with category "node" (logTaskEvent uses "task") the
// same way a structured event-loop log tags entries by subsystem.
func logNodeEvent(l *Logger, event string, id NodeID, name string) {
	l.Info().
		Str("category", "node").
		Str("event", event).
		Uint64("node_id", uint64(id)).
		Str("node_name", name).
		Log("node lifecycle event")
}

// logTaskEvent emits a structured record describing a task lifecycle
// transition.
func logTaskEvent(l *Logger, event string, id TaskID, node NodeID) {
	l.Debug().
		Str("category", "task").
		Str("event", event).
		Uint64("task_id", uint64(id)).
		Uint64("node_id", uint64(node)).
		Log("task lifecycle event")
}
