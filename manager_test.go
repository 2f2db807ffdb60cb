package friendgraph

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
)

func friendsGraphQuery() *gocypher.QueryBuilder {
	return gocypher.NewQueryBuilder().
		Match(
			gocypher.N("a", models.UserLabel),
			gocypher.R("r", models.FriendRelation).To(),
			gocypher.N("b", models.UserLabel),
		).
		Return("a", "r", "b")
}

func TestFindGraph_ProjectsAndDeduplicates(t *testing.T) {
	alice, bob := userNode("1", "alice"), userNode("2", "bob")
	runner := newScriptedRunner(rows([]string{"r", "a", "b"},
		// Relationship column first: endpoints must still resolve.
		[]interface{}{friendRel("r1", "1", "2"), alice, bob},
		[]interface{}{friendRel("r2", "2", "1"), bob, alice},
		[]interface{}{friendRel("r3", "1", "1"), alice, alice},
	))
	pm := NewPersistenceManager(runner)

	graph, err := pm.FindGraph(context.Background(), friendsGraphQuery(), "name")
	require.NoError(t, err)
	assert.Equal(t, []models.GraphNode{
		{ID: "alice", Label: "alice"},
		{ID: "bob", Label: "bob"},
	}, graph.Nodes)
	assert.Equal(t, []models.Edge{{Source: "alice", Target: "bob"}}, graph.Edges)
}

func TestFindGraph_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no records", func(t *testing.T) {
		pm := NewPersistenceManager(newScriptedRunner(empty()))
		_, err := pm.FindGraph(ctx, friendsGraphQuery(), "name")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("endpoint missing from result", func(t *testing.T) {
		pm := NewPersistenceManager(newScriptedRunner(rows([]string{"a", "r"},
			[]interface{}{userNode("1", "alice"), friendRel("r1", "1", "9")},
		)))
		_, err := pm.FindGraph(ctx, friendsGraphQuery(), "name")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing from the result")
	})

	t.Run("node without key", func(t *testing.T) {
		pm := NewPersistenceManager(newScriptedRunner(rows([]string{"a"},
			[]interface{}{neo4j.Node{ElementId: "1", Props: map[string]interface{}{}}},
		)))
		_, err := pm.FindGraph(ctx, friendsGraphQuery(), "name")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no string property "name"`)
	})
}

func TestMergeRelation(t *testing.T) {
	ctx := context.Background()
	a, b := &models.User{Name: "alice"}, &models.User{Name: "bob"}

	t.Run("one direction", func(t *testing.T) {
		runner := newScriptedRunner(matched(1))
		pm := NewPersistenceManager(runner)
		require.NoError(t, pm.MergeRelation(ctx, a, b, "FOLLOWS", false))
		query := runner.lastCall().query
		assert.Contains(t, query, "MERGE (a)-[:FOLLOWS]->(b)")
		assert.NotContains(t, query, "MERGE (b)")
		assert.Contains(t, query, "RETURN count(*) AS matched")
	})

	t.Run("missing endpoint", func(t *testing.T) {
		pm := NewPersistenceManager(newScriptedRunner(matched(0)))
		assert.ErrorIs(t, pm.MergeRelation(ctx, a, b, "FRIEND", true), ErrNotFound)
	})

	t.Run("invalid relationship type", func(t *testing.T) {
		runner := newScriptedRunner()
		pm := NewPersistenceManager(runner)
		err := pm.MergeRelation(ctx, a, b, "FRIEND]->(x) DETACH DELETE x //", true)
		require.Error(t, err)
		assert.Equal(t, 0, runner.callCount())
	})

	t.Run("entity not a pointer", func(t *testing.T) {
		pm := NewPersistenceManager(newScriptedRunner())
		assert.Error(t, pm.MergeRelation(ctx, models.User{Name: "alice"}, b, "FRIEND", true))
	})
}

func TestDeleteRelation_MissingEndpoint(t *testing.T) {
	pm := NewPersistenceManager(newScriptedRunner(matched(0)))
	err := pm.DeleteRelation(context.Background(), &models.User{Name: "a"}, &models.User{Name: "b"}, "FRIEND")
	assert.ErrorIs(t, err, ErrNotFound)
}
