// Package logs builds the process logger: human-readable text on stderr
// fanned out with a JSON line log in the workspace dir, so pass activity is
// inspectable after the fact without re-running anything.
package logs

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

const logFileName = "remindsync.log"

// New returns the fan-out logger and a close func for the file sink.
// dir == "" gives a stderr-only logger; a file that cannot be opened
// degrades to stderr-only rather than failing the command.
func New(dir string, level slog.Level) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: level}
	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, opts)}
	closer := func() error { return nil }

	if dir != "" {
		path := filepath.Join(dir, logFileName)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err == nil {
			handlers = append(handlers, slog.NewJSONHandler(f, opts))
			closer = f.Close
		} else {
			slog.New(handlers[0]).Warn("open log file", slog.String("error", err.Error()))
		}
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
