package friendgraph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
	"go.uber.org/zap"
)

// neighborsQuery matches friends in either direction so that a relationship
// written by another client in one direction only still reads as mutual.
const neighborsQuery = `MATCH (u:User {name: $name})
OPTIONAL MATCH (u)-[:FRIEND]-(f:User)
WITH u, f ORDER BY f.name
RETURN u.name AS name, collect(DISTINCT f.name) AS friends`

// Neo4jStore implements Store on a Neo4j database. Users are `:User {name}`
// nodes; a friendship is a FRIEND relationship in each direction.
type Neo4jStore struct {
	manager *PersistenceManager
	users   *Repository[models.User]
	logger  *zap.Logger
}

var _ Store = (*Neo4jStore)(nil)

// NewNeo4jStore builds a store that issues every query through runner.
func NewNeo4jStore(runner DBRunner, logger *zap.Logger) (*Neo4jStore, error) {
	manager := NewPersistenceManager(runner)
	users, err := RepositoryFor[models.User](manager)
	if err != nil {
		return nil, err
	}
	return &Neo4jStore{manager: manager, users: users, logger: logger}, nil
}

// EnsureSchema declares the uniqueness constraint on user names.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.manager.Runner().Run(ctx, s.users.UniqueConstraintQuery(), nil); err != nil {
		return fmt.Errorf("ensure user name constraint: %w", err)
	}
	s.logger.Info("neo4j schema ready", zap.String("label", s.users.Label()))
	return nil
}

// Ping forwards to the runner when it supports readiness checks.
func (s *Neo4jStore) Ping(ctx context.Context) error {
	if p, ok := s.manager.Runner().(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the runner's resources when it holds any.
func (s *Neo4jStore) Close(ctx context.Context) error {
	if c, ok := s.manager.Runner().(Closer); ok {
		return c.Close(ctx)
	}
	return nil
}

// AddNode creates a :User node. The uniqueness constraint backs the duplicate check.
func (s *Neo4jStore) AddNode(ctx context.Context, name string) error {
	const op = "add node"
	if err := ValidateName(op, name); err != nil {
		return err
	}
	err := s.users.Create(ctx, &models.User{Name: name})
	if errors.Is(err, ErrAlreadyExists) {
		return DuplicateNode(op, name)
	}
	if err != nil {
		return fmt.Errorf("%s %q: %w", op, name, err)
	}
	return nil
}

// ListNodes returns every user name in ascending order.
func (s *Neo4jStore) ListNodes(ctx context.Context) ([]string, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	sort.Strings(names)
	return names, nil
}

// AddEdge merges FRIEND in both directions in one statement.
func (s *Neo4jStore) AddEdge(ctx context.Context, a, b string) error {
	const op = "add edge"
	if err := ValidatePair(op, a, b); err != nil {
		return err
	}
	if err := s.requireNodes(ctx, op, a, b); err != nil {
		return err
	}
	err := s.manager.MergeRelation(ctx, &models.User{Name: a}, &models.User{Name: b}, models.FriendRelation, true)
	if errors.Is(err, ErrNotFound) {
		// An endpoint was removed between the existence check and the merge.
		return s.vanishedEndpoint(ctx, op, a, b)
	}
	if err != nil {
		return fmt.Errorf("%s %q-%q: %w", op, a, b, err)
	}
	return nil
}

// RemoveEdge deletes every FRIEND relationship between a and b.
func (s *Neo4jStore) RemoveEdge(ctx context.Context, a, b string) error {
	const op = "remove edge"
	if err := ValidatePair(op, a, b); err != nil {
		return err
	}
	if err := s.requireNodes(ctx, op, a, b); err != nil {
		return err
	}
	err := s.manager.DeleteRelation(ctx, &models.User{Name: a}, &models.User{Name: b}, models.FriendRelation)
	if errors.Is(err, ErrNotFound) {
		return s.vanishedEndpoint(ctx, op, a, b)
	}
	if err != nil {
		return fmt.Errorf("%s %q-%q: %w", op, a, b, err)
	}
	return nil
}

// ListEdges projects the FRIEND relationships onto canonical edges.
func (s *Neo4jStore) ListEdges(ctx context.Context) ([]models.Edge, error) {
	qb := gocypher.NewQueryBuilder().
		Match(
			gocypher.N("a", models.UserLabel),
			gocypher.R("r", models.FriendRelation).To(),
			gocypher.N("b", models.UserLabel),
		).
		Return("a", "r", "b")

	graph, err := s.manager.FindGraph(ctx, qb, s.users.KeyProperty())
	if errors.Is(err, ErrNotFound) {
		return []models.Edge{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	return graph.Edges, nil
}

// Neighbors returns the users related to name by FRIEND in either direction.
func (s *Neo4jStore) Neighbors(ctx context.Context, name string) ([]string, error) {
	const op = "neighbors"
	if err := ValidateName(op, name); err != nil {
		return nil, err
	}
	result, err := s.manager.Runner().Run(ctx, neighborsQuery, map[string]interface{}{"name": name})
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", op, name, err)
	}
	if len(result.Records) == 0 {
		return nil, UnknownNode(op, name)
	}

	value, ok := result.Records[0].Get("friends")
	if !ok {
		return nil, fmt.Errorf("%s %q: could not find return value 'friends' in query result", op, name)
	}
	raw, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s %q: return value 'friends' is not a list", op, name)
	}

	friends := make([]string, 0, len(raw))
	for _, v := range raw {
		friend, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s %q: friend name %v is not a string", op, name, v)
		}
		if friend != name {
			friends = append(friends, friend)
		}
	}
	sort.Strings(friends)
	return friends, nil
}

// RemoveNode detaches and deletes the user node.
func (s *Neo4jStore) RemoveNode(ctx context.Context, name string) error {
	const op = "remove node"
	if err := ValidateName(op, name); err != nil {
		return err
	}
	if err := s.requireNodes(ctx, op, name); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, name); err != nil {
		return fmt.Errorf("%s %q: %w", op, name, err)
	}
	return nil
}

// requireNodes returns ErrUnknownNode for the first name that is not stored.
func (s *Neo4jStore) requireNodes(ctx context.Context, op string, names ...string) error {
	for _, name := range names {
		exists, err := s.users.Exists(ctx, name)
		if err != nil {
			return fmt.Errorf("%s %q: %w", op, name, err)
		}
		if !exists {
			return UnknownNode(op, name)
		}
	}
	return nil
}

// vanishedEndpoint names the endpoint that disappeared while a relation query
// ran. If both are back by the time it looks, the error carries no name.
func (s *Neo4jStore) vanishedEndpoint(ctx context.Context, op, a, b string) error {
	if err := s.requireNodes(ctx, op, a, b); err != nil {
		return err
	}
	return &NodeError{Op: op, Err: ErrUnknownNode}
}
