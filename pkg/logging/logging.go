// Package logging provides the pluggable progress-logging capability used by
// the index builder and query engine. Progress logging is explicitly an
// external, swappable concern (see spec §1); this package supplies an
// interface plus a default zerolog-backed implementation, not a mandatory
// dependency.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the pluggable capability. Callers may supply any implementation,
// including a no-op one (the zero value of NopLogger).
type Logger interface {
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, err error, kv ...any)
}

// NopLogger discards everything. It is the zero value of this type, so
// `var _ Logger = NopLogger{}` requires no construction.
type NopLogger struct{}

func (NopLogger) Info(string, ...any)         {}
func (NopLogger) Warn(string, ...any)         {}
func (NopLogger) Error(string, error, ...any) {}

// Zerolog wraps zerolog.Logger to satisfy Logger.
type Zerolog struct {
	log zerolog.Logger
}

// New builds a human-readable console logger writing to w (os.Stderr if nil).
func New(w io.Writer) Zerolog {
	if w == nil {
		w = os.Stderr
	}
	return Zerolog{log: zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).With().Timestamp().Logger()}
}

func (z Zerolog) Info(msg string, kv ...any) {
	z.event(z.log.Info(), kv).Msg(msg)
}

func (z Zerolog) Warn(msg string, kv ...any) {
	z.event(z.log.Warn(), kv).Msg(msg)
}

func (z Zerolog) Error(msg string, err error, kv ...any) {
	z.event(z.log.Error().Err(err), kv).Msg(msg)
}

// event folds a flat key/value... slice into zerolog fields.
func (z Zerolog) event(e *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}
