package traversal

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
)

// ShortestPath returns a minimum-hop path from source to target, both
// inclusive, found by breadth-first search.
//
// An empty path means no route exists, either because the users are in
// different components or because one of them does not exist. Both names must
// be non-empty (ErrInvalidRequest). When source == target the path is just
// that user. Among several shortest paths the one found first wins; stores
// list neighbors in name order, so the choice is stable.
func (e *Engine) ShortestPath(ctx context.Context, source, target string) (path []string, err error) {
	ctx, span := e.tracer.Start(ctx, "traversal.ShortestPath", trace.WithAttributes(
		attribute.String("source", source),
		attribute.String("target", target),
	))
	defer func() { endSpan(span, err) }()

	const op = "shortest path"
	if err := friendgraph.ValidateName(op, source); err != nil {
		return nil, err
	}
	if err := friendgraph.ValidateName(op, target); err != nil {
		return nil, err
	}

	start, err := e.store.Neighbors(ctx, source)
	if errors.Is(err, friendgraph.ErrUnknownNode) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if source == target {
		return []string{source}, nil
	}

	prev := map[string]string{source: ""}
	queue := []string{source}
	visited := 0
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := queue[0]
		queue = queue[1:]
		visited++

		next := start
		if cur != source {
			next, err = e.store.Neighbors(ctx, cur)
			if errors.Is(err, friendgraph.ErrUnknownNode) {
				continue
			}
			if err != nil {
				return nil, err
			}
		}

		for _, n := range next {
			if _, seen := prev[n]; seen {
				continue
			}
			prev[n] = cur
			if n == target {
				path = reconstruct(prev, source, target)
				span.SetAttributes(attribute.Int("hops", len(path)-1), attribute.Int("visited", visited))
				return path, nil
			}
			queue = append(queue, n)
		}
	}

	e.logger.Debug("no path between users",
		zap.String("source", source),
		zap.String("target", target),
		zap.Int("visited", visited),
	)
	return []string{}, nil
}

// reconstruct walks predecessors back from target and reverses the walk.
func reconstruct(prev map[string]string, source, target string) []string {
	var path []string
	for n := target; n != source; n = prev[n] {
		path = append(path, n)
	}
	path = append(path, source)
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
