// Package logging configures the module's single shared structured
// logger. Only `buffer` (eviction/flush diagnostics) and `cmd/` entry
// points ever log; C1, C4, and C5 never touch this package, matching
// spec.md's "no logging is produced by the core" stance.
//
// Grounded on the utkarsh5026-StoreMy example repo's pkg/logging/logger.go (Config
// shape, Init/GetLogger split, text-vs-JSON handler selection), trimmed
// to what dbkernel actually needs: no package-level Debug/Info/Warn/Error
// wrappers, since every caller here already holds a *slog.Logger handle
// (buffer.New takes one directly) rather than reaching for a global.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Level is the logger's minimum severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config configures the process-wide logger.
type Config struct {
	Level      Level
	OutputPath string // empty means stdout
	Format     string // "json" or "text"
}

var (
	mu      sync.RWMutex
	logger  *slog.Logger
	logFile *os.File
)

// Init builds the process-wide logger from cfg. Safe to call again; a
// log file opened by a prior call is closed.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	var w io.Writer = os.Stdout
	if cfg.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0o750); err != nil {
			return fmt.Errorf("logging: create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("logging: open %s: %w", cfg.OutputPath, err)
		}
		w = f
		if logFile != nil {
			logFile.Close()
		}
		logFile = f
	} else if logFile != nil {
		logFile.Close()
		logFile = nil
	}

	opts := &slog.HandlerOptions{Level: level(cfg.Level)}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger = slog.New(h)
	return nil
}

func level(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Get returns the process-wide logger, initializing a stdout/text default
// at Info level if Init was never called.
func Get() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return logger
}

// Close releases any open log file. Safe to call when none is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}
