package logging

import (
	"log/slog"
	"os"
	"sync"
	"time"
)

// The process-wide logger is shared by every job in the process. It is
// created by the first Init call and lets every level through; each caller
// filters through its own view.
var (
	processMu     sync.Mutex
	processLogger *Logger
)

// Init initializes the process-wide logger, writing to stderr and to a
// timestamped file in logDir, and returns a view of it at DEBUG when verbose
// is set, INFO otherwise.
//
// Init is idempotent: once a logger exists its handlers are reused and a
// different logDir is ignored. The level only applies to the returned view,
// so a later call never changes what an earlier caller logs.
func Init(logDir string, verbose bool) (*Logger, error) {
	processMu.Lock()
	defer processMu.Unlock()

	if processLogger == nil {
		l, err := newLogger(logDir, slog.LevelDebug, os.Stderr, time.Now())
		if err != nil {
			return nil, err
		}
		processLogger = l
	}

	level := LevelInfo
	if verbose {
		level = LevelDebug
	}
	return processLogger.WithLevel(level), nil
}

// Shutdown closes the process-wide logger and forgets it, so the next Init
// opens a new file.
func Shutdown() error {
	processMu.Lock()
	defer processMu.Unlock()

	if processLogger == nil {
		return nil
	}
	err := processLogger.Close()
	processLogger = nil
	return err
}
