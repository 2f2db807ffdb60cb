// Package friendgraph maintains an undirected social graph of users and mutual
// friendships on top of the official Neo4j Go driver, and defines the Store
// contract the traversal engines run against.
package friendgraph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// DBRunner defines the interface for a generic query executor.
// It abstracts the execution of a Cypher query, allowing for different implementations
// (a circuit breaker, a scripted runner in tests) to be layered over the driver.
type DBRunner interface {
	// Run executes a given Cypher query with parameters and returns a fully-buffered result.
	Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error)
}

//---

// Neo4jConfig holds the connection settings for a Neo4j instance.
type Neo4jConfig struct {
	// URI is the connection URI, e.g. "neo4j://localhost:7687".
	URI      string
	Username string
	Password string
	// Database is the target database name. Empty selects the server default.
	Database string

	// MaxConnectionPoolSize caps the driver's pool. Zero keeps the driver default.
	MaxConnectionPoolSize int
	// ConnectionAcquisitionTimeout bounds how long a query waits for a pooled
	// connection. Zero keeps the driver default.
	ConnectionAcquisitionTimeout time.Duration
}

// Neo4jExecutor is a concrete implementation of the DBRunner interface that uses the
// official Neo4j Go driver. It manages the driver instance and the target database name.
//
// The executor holds no session of its own. Every Run borrows a session from the
// driver's connection pool for the duration of a single query, so concurrent
// requests never share a session.
type Neo4jExecutor struct {
	Driver neo4j.DriverWithContext
	DBName string

	logger *zap.Logger
}

// NewNeo4jExecutor creates and initializes a new Neo4jExecutor.
// It builds the driver with the provided credentials but does not contact the server;
// call Verify to check connectivity.
//
// Returns:
//
//	A pointer to the newly created Neo4jExecutor or an error if the driver creation fails.
func NewNeo4jExecutor(cfg Neo4jConfig, logger *zap.Logger) (*Neo4jExecutor, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j uri is required")
	}
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4j.Config) {
			if cfg.MaxConnectionPoolSize > 0 {
				c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
			}
			if cfg.ConnectionAcquisitionTimeout > 0 {
				c.ConnectionAcquisitionTimeout = cfg.ConnectionAcquisitionTimeout
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("could not create Neo4j driver: %w", err)
	}
	logger.Info("neo4j driver created",
		zap.String("uri", cfg.URI),
		zap.String("database", cfg.Database),
	)
	return &Neo4jExecutor{Driver: driver, DBName: cfg.Database, logger: logger}, nil
}

// Verify checks the connectivity to the Neo4j server.
func (e *Neo4jExecutor) Verify(ctx context.Context) error {
	return e.Driver.VerifyConnectivity(ctx)
}

// Ping implements Pinger for readiness checks.
func (e *Neo4jExecutor) Ping(ctx context.Context) error {
	return e.Verify(ctx)
}

// Close releases the driver and every pooled connection.
func (e *Neo4jExecutor) Close(ctx context.Context) error {
	return e.Driver.Close(ctx)
}

// Run executes a Cypher query using ExecuteQuery, which handles session and
// transaction management automatically, retrying transient failures.
// This function is suitable for both read and write operations.
//
// Returns:
//
//	An EagerResult containing all buffered records from the query, or an error if
//	the execution fails.
func (e *Neo4jExecutor) Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	start := time.Now()
	result, err := neo4j.ExecuteQuery(
		ctx,
		e.Driver,
		query,
		params,
		neo4j.EagerResultTransformer, // Buffers all results in memory before returning.
		neo4j.ExecuteQueryWithDatabase(e.DBName),
	)
	if err != nil {
		e.logger.Debug("neo4j query failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("error executing neo4j query: %w", err)
	}

	e.logger.Debug("neo4j query executed",
		zap.Int("records", len(result.Records)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}
