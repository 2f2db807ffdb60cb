// Package memstore implements friendgraph.Store on in-process adjacency sets.
// Contents are lost when the process exits.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
)

// Store keeps, for every user, the set of its friends. Both directions of a
// friendship are written under the same lock.
type Store struct {
	mu  sync.RWMutex
	adj map[string]map[string]struct{}
}

var _ friendgraph.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{adj: make(map[string]map[string]struct{})}
}

// AddNode implements friendgraph.Store.
func (s *Store) AddNode(_ context.Context, name string) error {
	const op = "add node"
	if err := friendgraph.ValidateName(op, name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.adj[name]; ok {
		return friendgraph.DuplicateNode(op, name)
	}
	s.adj[name] = make(map[string]struct{})
	return nil
}

// ListNodes implements friendgraph.Store.
func (s *Store) ListNodes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.adj))
	for name := range s.adj {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// AddEdge implements friendgraph.Store.
func (s *Store) AddEdge(_ context.Context, a, b string) error {
	const op = "add edge"
	if err := friendgraph.ValidatePair(op, a, b); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(op, a, b); err != nil {
		return err
	}
	s.adj[a][b] = struct{}{}
	s.adj[b][a] = struct{}{}
	return nil
}

// RemoveEdge implements friendgraph.Store.
func (s *Store) RemoveEdge(_ context.Context, a, b string) error {
	const op = "remove edge"
	if err := friendgraph.ValidatePair(op, a, b); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(op, a, b); err != nil {
		return err
	}
	delete(s.adj[a], b)
	delete(s.adj[b], a)
	return nil
}

// ListEdges implements friendgraph.Store.
func (s *Store) ListEdges(_ context.Context) ([]models.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := make([]models.Edge, 0)
	for a, friends := range s.adj {
		for b := range friends {
			if a < b {
				edges = append(edges, models.Edge{Source: a, Target: b})
			}
		}
	}
	models.SortEdges(edges)
	return edges, nil
}

// Neighbors implements friendgraph.Store.
func (s *Store) Neighbors(_ context.Context, name string) ([]string, error) {
	const op = "neighbors"
	if err := friendgraph.ValidateName(op, name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	friends, ok := s.adj[name]
	if !ok {
		return nil, friendgraph.UnknownNode(op, name)
	}
	names := make([]string, 0, len(friends))
	for f := range friends {
		names = append(names, f)
	}
	sort.Strings(names)
	return names, nil
}

// RemoveNode implements friendgraph.Store.
func (s *Store) RemoveNode(_ context.Context, name string) error {
	const op = "remove node"
	if err := friendgraph.ValidateName(op, name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	friends, ok := s.adj[name]
	if !ok {
		return friendgraph.UnknownNode(op, name)
	}
	for f := range friends {
		delete(s.adj[f], name)
	}
	delete(s.adj, name)
	return nil
}

func (s *Store) requireLocked(op string, names ...string) error {
	for _, name := range names {
		if _, ok := s.adj[name]; !ok {
			return friendgraph.UnknownNode(op, name)
		}
	}
	return nil
}
