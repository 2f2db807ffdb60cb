package friendgraph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrStoreUnavailable is returned while the circuit breaker in front of the
// database is open or is limiting half-open probes.
var ErrStoreUnavailable = errors.New("store unavailable")

// BreakerConfig holds configuration for the circuit breaker around a DBRunner.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio at which the breaker trips.
	FailureThreshold float64
	// MinRequests is the number of requests observed before the ratio is evaluated.
	MinRequests uint32
}

// DefaultBreakerConfig returns a default configuration for the circuit breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerRunner wraps a DBRunner with a circuit breaker so that a failing
// database is not hammered by every incoming request.
type BreakerRunner struct {
	next DBRunner
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerRunner returns next guarded by a breaker built from cfg.
func NewBreakerRunner(next DBRunner, cfg BreakerConfig, logger *zap.Logger) *BreakerRunner {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Query errors the client caused (constraint violations, syntax) say
		// nothing about the health of the database.
		IsSuccessful: func(err error) bool {
			return err == nil || isNeo4jClientError(err) || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerRunner{next: next, cb: cb}
}

// Run executes the query through the breaker.
func (b *BreakerRunner) Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Run(ctx, query, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return nil, err
	}
	return res.(*neo4j.EagerResult), nil
}

// State reports the breaker's current state.
func (b *BreakerRunner) State() gobreaker.State {
	return b.cb.State()
}

// Ping forwards to the wrapped runner when it supports readiness checks.
func (b *BreakerRunner) Ping(ctx context.Context) error {
	if p, ok := b.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close forwards to the wrapped runner when it holds resources.
func (b *BreakerRunner) Close(ctx context.Context) error {
	if c, ok := b.next.(Closer); ok {
		return c.Close(ctx)
	}
	return nil
}

func isNeo4jClientError(err error) bool {
	var neoErr *neo4j.Neo4jError
	return errors.As(err, &neoErr) && strings.HasPrefix(neoErr.Code, "Neo.ClientError.")
}
