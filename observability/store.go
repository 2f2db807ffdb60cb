package observability

import (
	"context"
	"time"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
)

// instrumentedStore records a metric for every call to the wrapped store.
type instrumentedStore struct {
	inner     friendgraph.Store
	collector *Collector
}

// InstrumentStore wraps store so each operation is counted and timed. Ping and
// Close are forwarded when the wrapped store supports them.
func InstrumentStore(store friendgraph.Store, collector *Collector) friendgraph.Store {
	return &instrumentedStore{inner: store, collector: collector}
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	status := StatusOK
	switch {
	case err == nil:
	case friendgraph.IsClientError(err):
		status = StatusClientError
	default:
		status = StatusError
	}
	s.collector.ObserveStore(op, status, time.Since(start))
}

func (s *instrumentedStore) AddNode(ctx context.Context, name string) error {
	start := time.Now()
	err := s.inner.AddNode(ctx, name)
	s.observe("add_node", start, err)
	if err == nil {
		s.collector.UsersCreated.Inc()
	}
	return err
}

func (s *instrumentedStore) ListNodes(ctx context.Context) ([]string, error) {
	start := time.Now()
	names, err := s.inner.ListNodes(ctx)
	s.observe("list_nodes", start, err)
	return names, err
}

func (s *instrumentedStore) AddEdge(ctx context.Context, a, b string) error {
	start := time.Now()
	err := s.inner.AddEdge(ctx, a, b)
	s.observe("add_edge", start, err)
	if err == nil {
		s.collector.FriendshipsCreated.Inc()
	}
	return err
}

func (s *instrumentedStore) RemoveEdge(ctx context.Context, a, b string) error {
	start := time.Now()
	err := s.inner.RemoveEdge(ctx, a, b)
	s.observe("remove_edge", start, err)
	if err == nil {
		s.collector.FriendshipsRemoved.Inc()
	}
	return err
}

func (s *instrumentedStore) ListEdges(ctx context.Context) ([]models.Edge, error) {
	start := time.Now()
	edges, err := s.inner.ListEdges(ctx)
	s.observe("list_edges", start, err)
	return edges, err
}

func (s *instrumentedStore) Neighbors(ctx context.Context, name string) ([]string, error) {
	start := time.Now()
	friends, err := s.inner.Neighbors(ctx, name)
	s.observe("neighbors", start, err)
	return friends, err
}

func (s *instrumentedStore) RemoveNode(ctx context.Context, name string) error {
	start := time.Now()
	err := s.inner.RemoveNode(ctx, name)
	s.observe("remove_node", start, err)
	if err == nil {
		s.collector.UsersDeleted.Inc()
	}
	return err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	if p, ok := s.inner.(friendgraph.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *instrumentedStore) Close(ctx context.Context) error {
	if c, ok := s.inner.(friendgraph.Closer); ok {
		return c.Close(ctx)
	}
	return nil
}
