// Package obs wires the ambient observability stack: structured logging,
// Prometheus metrics, and a localhost-only debug server. yp is a terminal
// application, so none of this may write to stdout/stderr while the TUI
// owns the screen; logs go to a file and the debug server is opt-in.
package obs

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// NewFileLogger opens (creating if needed) the log file at path and
// returns a zerolog.Logger writing to it as newline-delimited JSON. The
// returned io.Closer must be closed on shutdown.
func NewFileLogger(path string, debug bool) (zerolog.Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	log := zerolog.New(f).Level(level).With().Timestamp().Str("app", "yp").Logger()
	return log, f, nil
}
