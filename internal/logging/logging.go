// Package logging provides the process-wide structured logger.
//
// The teacher repository carried two parallel logger generations (a zap
// one under internal/logger and a slog one under pkg/logger); this
// consolidates on zap. Its callers are the embedding cache loader, the
// orchestrator stages and the CLI.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu       sync.Mutex
	instance *zap.Logger
)

// Init configures the package-level logger for production use (JSON
// encoding, info level). Safe to call multiple times; the last call wins.
func Init() error {
	l, err := zap.NewProduction()
	if err != nil {
		return err
	}
	mu.Lock()
	instance = l
	mu.Unlock()
	return nil
}

// Get returns the process logger, lazily falling back to a production
// logger if Init was never called.
func Get() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		instance = l
	}
	return instance
}

// Sync flushes any buffered log entries. Errors from Sync on stderr/stdout
// are expected on some platforms and are intentionally ignored by callers.
func Sync() error {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		return nil
	}
	return instance.Sync()
}

// With returns a child logger carrying the given stage/op context fields
// (for example source, chunk_id, model, op).
func With(fields ...zap.Field) *zap.Logger {
	return Get().With(fields...)
}
