// Package badgerstore implements friendgraph.Store on BadgerDB, an embedded
// key-value store, as a plain adjacency list.
//
// Key layout:
//
//	u\x00<name>          user exists
//	e\x00<a>\x00<b>      a lists b as a friend (written for both directions)
//
// Neighbor lookup is a prefix scan over e\x00<name>\x00, and BadgerDB iterates
// keys in byte order, so every listing comes back sorted.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Config holds configuration for the BadgerDB instance behind a Store.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// GCInterval is how often to run value log garbage collection.
	// Zero disables it.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before GC.
	GCDiscardRatio float64
}

// DefaultConfig returns durable settings for a database at path.
func DefaultConfig(path string) Config {
	return Config{
		Path:           path,
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns configuration for tests and throwaway graphs.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// zapLogger adapts zap to BadgerDB's Logger interface.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Errorf(format string, args ...interface{})   { l.sugar.Errorf(format, args...) }
func (l *zapLogger) Warningf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }
func (l *zapLogger) Infof(format string, args ...interface{})    { l.sugar.Infof(format, args...) }
func (l *zapLogger) Debugf(format string, args ...interface{})   { l.sugar.Debugf(format, args...) }

// openDB opens BadgerDB with cfg, creating the directory when needed.
func openDB(cfg Config, logger *zap.Logger) (*badger.DB, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badger: path is required for persistent storage")
		}
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("badger: create directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&zapLogger{sugar: logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}
	return db, nil
}

// gcLoop runs value log GC until ctx is cancelled.
func gcLoop(ctx context.Context, wg *sync.WaitGroup, db *badger.DB, cfg Config, logger *zap.Logger) {
	defer wg.Done()
	ticker := time.NewTicker(cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// RunValueLogGC rewrites at most one file per call; loop until
			// there is nothing left worth rewriting.
			for {
				err := db.RunValueLogGC(cfg.GCDiscardRatio)
				if err == nil {
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, badger.ErrRejected) {
					logger.Warn("badger value log gc failed", zap.Error(err))
				}
				break
			}
		}
	}
}
