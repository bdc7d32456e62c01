// Package logging builds the zerolog logger shared by FoxFocus components.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console-formatted logger writing to path at the given level.
// The returned closer releases the file. An empty path yields a disabled
// logger, since the terminal belongs to the TUI.
func New(level, path string) (zerolog.Logger, io.Closer, error) {
	if path == "" {
		return zerolog.Nop(), io.NopCloser(nil), nil
	}

	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	return NewWriter(f, lvl), f, nil
}

// NewWriter returns a logger formatting records for humans onto w.
func NewWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// ParseLevel maps a config value onto a zerolog level. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.TrimSpace(strings.ToLower(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
