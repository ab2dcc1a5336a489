// Package obslog provides the structured logger every internal
// component uses to report invariant violations and listener panics —
// the only channel for these failures, since the cache's foreground
// operations never return errors for them (spec §7).
package obslog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog.Logger; re-exported so callers outside this
// package never need to import zerolog directly.
type Logger = zerolog.Logger

// New builds a Logger writing JSON lines to w at the given level. A
// nil w defaults to os.Stderr.
func New(w io.Writer, level zerolog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// NewConsole builds a Logger with zerolog's human-readable console
// writer, suitable for the cmd/tesseraecho demo.
func NewConsole(level zerolog.Level) Logger {
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return New(writer, level)
}

// Nop returns a Logger that discards everything, the default for a
// cache built without WithLogger.
func Nop() Logger {
	return zerolog.Nop()
}
