package build

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrick/logrotate/rotator"
)

// LogFilename is the name of the active log file inside the log directory.
const LogFilename = "booksum.log"

// RotatorConfig controls the log file rotator.
type RotatorConfig struct {
	// Dir is the log directory. It is created if missing.
	Dir string

	// MaxFiles is the number of rotated files kept. Zero keeps a single
	// file that is never rotated.
	MaxFiles int

	// MaxFileSizeMB is the size at which the active file is rotated.
	MaxFileSizeMB int
}

// RotatingWriter is an io.WriteCloser feeding a jrick/logrotate rotator
// through a pipe. Rotated files are gzip compressed.
type RotatingWriter struct {
	pipe *io.PipeWriter
	done chan struct{}

	closeOnce sync.Once
	runErr    error
}

// OpenRotatingWriter creates the log directory and starts the rotator.
func OpenRotatingWriter(cfg RotatorConfig) (*RotatingWriter, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("log directory must be set")
	}
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// The rotator threshold is in kilobytes.
	r, err := rotator.New(
		filepath.Join(cfg.Dir, LogFilename),
		int64(cfg.MaxFileSizeMB*1024), false, cfg.MaxFiles,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create file rotator: %w", err)
	}
	r.SetCompressor(gzip.NewWriter(nil), ".gz")

	pr, pw := io.Pipe()
	w := &RotatingWriter{
		pipe: pw,
		done: make(chan struct{}),
	}

	go func() {
		defer close(w.done)

		// The rotator is the log sink, so its own failure can only go
		// to stderr.
		err := r.Run(pr)
		if err != nil && !errors.Is(err, io.EOF) {
			w.runErr = err
			_, _ = fmt.Fprintf(os.Stderr,
				"failed to run file rotator: %v\n", err)
		}
		if err := r.Close(); err != nil && w.runErr == nil {
			w.runErr = err
		}
	}()

	return w, nil
}

// Write implements io.Writer.
func (w *RotatingWriter) Write(b []byte) (int, error) {
	return w.pipe.Write(b)
}

// Close flushes pending writes and waits for the rotator to exit.
func (w *RotatingWriter) Close() error {
	w.closeOnce.Do(func() {
		_ = w.pipe.Close()
		<-w.done
	})

	return w.runErr
}
