// Package build assembles the process logger: a btclog console handler on
// stderr and, when a log directory is configured, a second handler writing
// into a rotating file.
package build

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// LogConfig is the logger configuration.
type LogConfig struct {
	// Level is one of trace, debug, info, warn or error.
	Level string

	// Console receives the terminal stream. Nil means stderr.
	Console io.Writer

	// Rotator configures the log file. An empty Dir disables it.
	Rotator RotatorConfig
}

// ParseLevel maps a level name to a btclog level.
func ParseLevel(name string) (btclog.Level, error) {
	lvl, ok := btclog.LevelFromString(strings.ToLower(name))
	if !ok {
		return btclog.LevelInfo, fmt.Errorf("unknown log level %q",
			name)
	}

	return lvl, nil
}

// NewLogger builds the logger. The returned close function flushes the log
// file and must be called before exit.
func NewLogger(cfg LogConfig) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	handlers := []btclogv2.Handler{btclogv2.NewDefaultHandler(console)}
	closeFn := func() error { return nil }

	if cfg.Rotator.Dir != "" {
		w, err := OpenRotatingWriter(cfg.Rotator)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, btclogv2.NewDefaultHandler(w))
		closeFn = w.Close
	}

	set := NewHandlerSet(handlers...)
	set.SetLevel(level)

	return slog.New(set), closeFn, nil
}

