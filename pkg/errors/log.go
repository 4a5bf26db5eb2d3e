package errors

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogHandler is an ErrorHandler that logs errors through zerolog.
type LogHandler struct {
	// Verbose enables detailed output including stack traces.
	Verbose bool
	// Out overrides the destination. Defaults to a console writer on stderr.
	Out io.Writer

	once   sync.Once
	logger zerolog.Logger
}

// NewLogHandler returns a LogHandler writing to out.
func NewLogHandler(out io.Writer, verbose bool) *LogHandler {
	return &LogHandler{Out: out, Verbose: verbose}
}

// log builds the logger on first use. Handlers are shared by goroutines.
func (h *LogHandler) log() *zerolog.Logger {
	h.once.Do(func() {
		out := h.Out
		if out == nil {
			out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		}
		h.logger = zerolog.New(out).With().Timestamp().Str("component", "lumen").Logger()
	})
	return &h.logger
}

// HandleError logs a LumenError.
func (h *LogHandler) HandleError(err *LumenError) {
	if err == nil {
		return
	}
	ev := h.log().Error().Str("op", err.Op).Stringer("kind", err.Kind)
	if err.Node != "" {
		ev = ev.Str("node", err.Node)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Err(err.Err).Msg("lumen error")
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	ev := h.log().Error().Interface("value", err.Value)
	if err.Op != "" {
		ev = ev.Str("op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("lumen panic")
}
