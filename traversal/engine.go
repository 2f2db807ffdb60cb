// Package traversal answers relationship queries over a friendgraph.Store:
// direct friends, friends-of-friends, the full graph snapshot and the
// unweighted shortest path between two users.
//
// The engine keeps no state between calls. Every query reads the store afresh,
// so a query running alongside writes may observe a mix of before and after
// states, but never a result that breaks the exclusion rules below.
package traversal

import (
	"context"
	"errors"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
)

const tracerName = "github.com/saulfrancisco-ruizacevedo/go-friendgraph/traversal"

// Engine runs graph queries against a store.
type Engine struct {
	store  friendgraph.Store
	logger *zap.Logger
	tracer trace.Tracer
}

// NewEngine returns an engine reading from store.
func NewEngine(store friendgraph.Store, logger *zap.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
}

// Friends returns the direct friends of name and its friends-of-friends.
//
// Friends-of-friends are the users exactly two hops away: the union of the
// friends of every direct friend, minus the direct friends themselves and minus
// name. A user reachable both directly and through another friend is reported
// only as a friend. ErrUnknownNode if name does not exist.
func (e *Engine) Friends(ctx context.Context, name string) (result *models.FriendsResult, err error) {
	ctx, span := e.tracer.Start(ctx, "traversal.Friends", trace.WithAttributes(attribute.String("user", name)))
	defer func() { endSpan(span, err) }()

	direct, err := e.store.Neighbors(ctx, name)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(direct)+1)
	excluded[name] = true
	for _, d := range direct {
		excluded[d] = true
	}

	seen := make(map[string]bool)
	fof := make([]string, 0)
	for _, d := range direct {
		next, err := e.store.Neighbors(ctx, d)
		if errors.Is(err, friendgraph.ErrUnknownNode) {
			// Removed after we listed it; its friendships went with it.
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, n := range next {
			if excluded[n] || seen[n] {
				continue
			}
			seen[n] = true
			fof = append(fof, n)
		}
	}
	sort.Strings(fof)

	friends := append(make([]string, 0, len(direct)), direct...)
	sort.Strings(friends)

	span.SetAttributes(
		attribute.Int("friends", len(friends)),
		attribute.Int("friends_of_friends", len(fof)),
	)
	return &models.FriendsResult{Friends: friends, FriendsOfFriends: fof}, nil
}

// Snapshot returns every user and every friendship, each friendship once.
//
// Nodes and edges are read separately; an edge whose endpoint disappeared
// between the two reads is dropped so the snapshot never references a user it
// does not contain.
func (e *Engine) Snapshot(ctx context.Context) (result *models.GraphResult, err error) {
	ctx, span := e.tracer.Start(ctx, "traversal.Snapshot")
	defer func() { endSpan(span, err) }()

	names, err := e.store.ListNodes(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := e.store.ListEdges(ctx)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(names))
	graph := &models.GraphResult{
		Nodes: make([]models.GraphNode, 0, len(names)),
		Edges: make([]models.Edge, 0, len(edges)),
	}
	for _, name := range names {
		present[name] = true
		graph.Nodes = append(graph.Nodes, models.NewGraphNode(name))
	}

	seen := make(map[models.Edge]bool, len(edges))
	for _, edge := range edges {
		edge = models.NewEdge(edge.Source, edge.Target)
		if !present[edge.Source] || !present[edge.Target] || seen[edge] {
			continue
		}
		seen[edge] = true
		graph.Edges = append(graph.Edges, edge)
	}
	graph.Sort()

	span.SetAttributes(attribute.Int("nodes", len(graph.Nodes)), attribute.Int("edges", len(graph.Edges)))
	return graph, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
