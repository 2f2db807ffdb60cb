package friendgraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
)

// PersistenceManager is the central orchestrator for the persistence layer.
// It owns the query runner and provides access to repositories and to
// cross-entity operations like creating relationships.
type PersistenceManager struct {
	runner DBRunner
}

// NewPersistenceManager creates a new instance of the PersistenceManager.
func NewPersistenceManager(runner DBRunner) *PersistenceManager {
	return &PersistenceManager{runner: runner}
}

// Runner returns the DBRunner the manager executes queries with.
func (pm *PersistenceManager) Runner() DBRunner { return pm.runner }

// RepositoryFor is a generic function that creates and returns a repository
// for a specific struct type T, managed by the given PersistenceManager.
func RepositoryFor[T any](pm *PersistenceManager) (*Repository[T], error) {
	return NewRepository[T](pm.runner)
}

// MergeRelation ensures a relationship of relType runs from fromEntity to
// toEntity. With mutual set, the reverse relationship is merged in the same
// statement, so a mutual relation is never observable half-written.
//
// MERGE makes the call idempotent. ErrNotFound is returned when either entity
// is not stored.
func (pm *PersistenceManager) MergeRelation(ctx context.Context, fromEntity, toEntity any, relType string, mutual bool) error {
	query, params, err := pm.relationQuery(fromEntity, toEntity, relType, func(rel string) string {
		q := fmt.Sprintf("MERGE (a)-[:%s]->(b)\n", rel)
		if mutual {
			q += fmt.Sprintf("MERGE (b)-[:%s]->(a)\n", rel)
		}
		return q
	})
	if err != nil {
		return err
	}
	return pm.runMatched(ctx, query, params)
}

// DeleteRelation removes every relationship of relType between the two
// entities, in either direction. ErrNotFound is returned when either entity is
// not stored; an absent relationship is not an error.
func (pm *PersistenceManager) DeleteRelation(ctx context.Context, fromEntity, toEntity any, relType string) error {
	query, params, err := pm.relationQuery(fromEntity, toEntity, relType, func(rel string) string {
		return fmt.Sprintf("OPTIONAL MATCH (a)-[r:%s]-(b)\nDELETE r\n", rel)
	})
	if err != nil {
		return err
	}
	return pm.runMatched(ctx, query, params)
}

// relationQuery matches both endpoints by primary key, appends the clause
// produced by body and counts the matched rows as `matched`.
func (pm *PersistenceManager) relationQuery(fromEntity, toEntity any, relType string, body func(rel string) string) (string, map[string]interface{}, error) {
	if !identifierPattern.MatchString(relType) {
		return "", nil, fmt.Errorf("invalid relationship type %q", relType)
	}
	fromMeta, fromPKVal, err := entityMetaAndPK(fromEntity)
	if err != nil {
		return "", nil, err
	}
	toMeta, toPKVal, err := entityMetaAndPK(toEntity)
	if err != nil {
		return "", nil, err
	}

	query := fmt.Sprintf("MATCH (a:%s {%s: $from}), (b:%s {%s: $to})\n",
		fromMeta.Label, fromMeta.PKProp, toMeta.Label, toMeta.PKProp) +
		body(relType) +
		"RETURN count(*) AS matched"
	params := map[string]interface{}{"from": fromPKVal, "to": toPKVal}
	return query, params, nil
}

// runMatched runs a relationQuery and maps zero matched rows to ErrNotFound.
func (pm *PersistenceManager) runMatched(ctx context.Context, query string, params map[string]interface{}) error {
	result, err := pm.runner.Run(ctx, query, params)
	if err != nil {
		return err
	}
	matched, err := singleInt(result, "matched")
	if err != nil {
		return err
	}
	if matched == 0 {
		return ErrNotFound
	}
	return nil
}

// FindGraph executes a graph query defined by a gocypher.QueryBuilder and
// projects the result onto a models.GraphResult.
//
// Nodes are identified by their keyProp property instead of the database's
// internal element id, and every relationship is reported as an undirected,
// canonical edge between those keys. A mutual relation stored as two directed
// relationships therefore appears exactly once, and self-relationships are
// dropped.
//
// The caller is responsible for a RETURN clause that includes both endpoints of
// every returned relationship, for example `RETURN a, r, b`.
//
// Returns:
//   - A pointer to a models.GraphResult containing the de-duplicated nodes and edges.
//   - An ErrNotFound error if the query executes successfully but returns zero records.
//   - Any other error encountered during query building, execution or projection.
func (pm *PersistenceManager) FindGraph(ctx context.Context, qb *gocypher.QueryBuilder, keyProp string) (*models.GraphResult, error) {
	query, params, err := qb.Build()
	if err != nil {
		return nil, fmt.Errorf("could not build query: %w", err)
	}

	eagerResult, err := pm.runner.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(eagerResult.Records) == 0 {
		return nil, ErrNotFound
	}

	graph := &models.GraphResult{
		Nodes: make([]models.GraphNode, 0),
		Edges: make([]models.Edge, 0),
	}
	keys := make(map[string]string)
	var rels []neo4j.Relationship

	// Nodes first, so every relationship endpoint can be resolved to a key
	// regardless of column order.
	for _, record := range eagerResult.Records {
		for _, value := range record.Values {
			switch v := value.(type) {
			case neo4j.Node:
				if _, seen := keys[v.ElementId]; seen {
					continue
				}
				key, ok := v.Props[keyProp].(string)
				if !ok {
					return nil, fmt.Errorf("node %s has no string property %q", v.ElementId, keyProp)
				}
				keys[v.ElementId] = key
				graph.Nodes = append(graph.Nodes, models.NewGraphNode(key))
			case neo4j.Relationship:
				rels = append(rels, v)
			}
		}
	}

	seenEdges := make(map[models.Edge]bool)
	for _, rel := range rels {
		source, ok := keys[rel.StartElementId]
		if !ok {
			return nil, fmt.Errorf("relationship %s starts at a node missing from the result", rel.ElementId)
		}
		target, ok := keys[rel.EndElementId]
		if !ok {
			return nil, fmt.Errorf("relationship %s ends at a node missing from the result", rel.ElementId)
		}
		if source == target {
			continue
		}
		edge := models.NewEdge(source, target)
		if !seenEdges[edge] {
			seenEdges[edge] = true
			graph.Edges = append(graph.Edges, edge)
		}
	}

	graph.Sort()
	return graph, nil
}

// singleInt reads an integer column from a one-row result.
func singleInt(result *neo4j.EagerResult, key string) (int64, error) {
	if len(result.Records) != 1 {
		return 0, fmt.Errorf("expected 1 record but found %d", len(result.Records))
	}
	value, ok := result.Records[0].Get(key)
	if !ok {
		return 0, fmt.Errorf("could not find return value '%s' in query result", key)
	}
	n, ok := value.(int64)
	if !ok {
		return 0, fmt.Errorf("return value '%s' is not an integer", key)
	}
	return n, nil
}
