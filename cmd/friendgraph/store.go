package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/badgerstore"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/config"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/memstore"
)

// openStore builds the backend selected by cfg.Store.Backend.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (friendgraph.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendNeo4j:
		return openNeo4j(ctx, cfg, logger)
	case config.BackendBadger:
		store, err := badgerstore.Open(cfg.Badger.StoreConfig(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		return store, nil
	case config.BackendMemory:
		logger.Warn("using in-memory store; the graph is lost on exit")
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func openNeo4j(ctx context.Context, cfg *config.Config, logger *zap.Logger) (friendgraph.Store, error) {
	executor, err := friendgraph.NewNeo4jExecutor(friendgraph.Neo4jConfig{
		URI:                          cfg.Neo4j.URI,
		Username:                     cfg.Neo4j.Username,
		Password:                     cfg.Neo4j.Password,
		Database:                     cfg.Neo4j.Database,
		MaxConnectionPoolSize:        cfg.Neo4j.MaxPoolSize,
		ConnectionAcquisitionTimeout: cfg.Neo4j.AcquisitionTimeout.Duration,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := executor.Verify(ctx); err != nil {
		_ = executor.Close(ctx)
		return nil, fmt.Errorf("could not connect to neo4j at %s: %w", cfg.Neo4j.URI, err)
	}

	var runner friendgraph.DBRunner = executor
	if cfg.Breaker.Enabled {
		runner = friendgraph.NewBreakerRunner(executor, cfg.Breaker.RunnerConfig("neo4j"), logger)
	}

	store, err := friendgraph.NewNeo4jStore(runner, logger)
	if err != nil {
		_ = executor.Close(ctx)
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = executor.Close(ctx)
		return nil, err
	}
	return store, nil
}

func closeStore(ctx context.Context, store friendgraph.Store) error {
	if c, ok := store.(friendgraph.Closer); ok {
		return c.Close(ctx)
	}
	return nil
}
