// Package storetest is a conformance suite for friendgraph.Store implementations.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
)

// Factory returns a new, empty store. Cleanup belongs in t.Cleanup.
type Factory func(t *testing.T) friendgraph.Store

// Run exercises the Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s friendgraph.Store)
	}{
		{"AddNodeAndList", testAddNodeAndList},
		{"AddNodeDuplicate", testAddNodeDuplicate},
		{"InvalidNames", testInvalidNames},
		{"AddEdgeSymmetric", testAddEdgeSymmetric},
		{"AddEdgeIdempotent", testAddEdgeIdempotent},
		{"AddEdgeSelfLoop", testAddEdgeSelfLoop},
		{"AddEdgeUnknownNode", testAddEdgeUnknownNode},
		{"RemoveEdge", testRemoveEdge},
		{"ListEdgesCanonical", testListEdgesCanonical},
		{"NeighborsUnknownNode", testNeighborsUnknownNode},
		{"RemoveNodeCascades", testRemoveNodeCascades},
		{"RemoveNodeUnknown", testRemoveNodeUnknown},
		{"ConcurrentWrites", testConcurrentWrites},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, newStore(t))
		})
	}
}

// Seed adds the given users and friendships, failing the test on any error.
// Each edge is a two-element pair.
func Seed(t *testing.T, s friendgraph.Store, users []string, edges ...[2]string) {
	t.Helper()
	ctx := context.Background()
	for _, u := range users {
		require.NoError(t, s.AddNode(ctx, u))
	}
	for _, e := range edges {
		require.NoError(t, s.AddEdge(ctx, e[0], e[1]))
	}
}

func testAddNodeAndList(t *testing.T, s friendgraph.Store) {
	ctx := context.Background()

	nodes, err := s.ListNodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	Seed(t, s, []string{"carol", "alice", "bob"})

	nodes, err = s.ListNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, nodes)
}

func testAddNodeDuplicate(t *testing.T, s friendgraph.Store) {
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, "alice"))

	err := s.AddNode(ctx, "alice")
	assert.ErrorIs(t, err, friendgraph.ErrDuplicateNode)

	nodes, err := s.ListNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, nodes)
}

func testInvalidNames(t *testing.T, s friendgraph.Store) {
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, "alice"))

	assert.ErrorIs(t, s.AddNode(ctx, ""), friendgraph.ErrInvalidRequest)
	assert.ErrorIs(t, s.AddNode(ctx, "   "), friendgraph.ErrInvalidRequest)
	assert.ErrorIs(t, s.AddEdge(ctx, "alice", ""), friendgraph.ErrInvalidRequest)
	assert.ErrorIs(t, s.RemoveEdge(ctx, "", "alice"), friendgraph.ErrInvalidRequest)
	assert.ErrorIs(t, s.RemoveNode(ctx, ""), friendgraph.ErrInvalidRequest)
	_, err := s.Neighbors(ctx, "")
	assert.ErrorIs(t, err, friendgraph.ErrInvalidRequest)
}

func testAddEdgeSymmetric(t *testing.T, s friendgraph.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice", "bob"}, [2]string{"alice", "bob"})

	a, err := s.Neighbors(ctx, "alice")
	require.NoError(t, err)
	b, err := s.Neighbors(ctx, "bob")
	require.NoError(t, err)

	assert.Equal(t, []string{"bob"}, a)
	assert.Equal(t, []string{"alice"}, b)
}

func testAddEdgeIdempotent(t *testing.T, s friendgraph.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice", "bob"}, [2]string{"alice", "bob"})

	require.NoError(t, s.AddEdge(ctx, "alice", "bob"))
	require.NoError(t, s.AddEdge(ctx, "bob", "alice"))

	edges, err := s.ListEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Edge{{Source: "alice", Target: "bob"}}, edges)

	a, err := s.Neighbors(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, a)
}

func testAddEdgeSelfLoop(t *testing.T, s friendgraph.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice"})

	assert.ErrorIs(t, s.AddEdge(ctx, "alice", "alice"), friendgraph.ErrSelfLoop)

	a, err := s.Neighbors(ctx, "alice")
	require.NoError(t, err)
	assert.NotContains(t, a, "alice")
	assert.Empty(t, a)
}

func testAddEdgeUnknownNode(t *testing.T, s friendgraph.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice"})

	err := s.AddEdge(ctx, "alice", "ghost")
	require.ErrorIs(t, err, friendgraph.ErrUnknownNode)
	var nodeErr *friendgraph.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "ghost", nodeErr.Name)

	assert.ErrorIs(t, s.AddEdge(ctx, "ghost", "alice"), friendgraph.ErrUnknownNode)

	edges, err := s.ListEdges(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func testRemoveEdge(t *testing.T, s friendgraph.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice", "bob", "carol"},
		[2]string{"alice", "bob"}, [2]string{"alice", "carol"})

	// Either endpoint order removes both directions.
	require.NoError(t, s.RemoveEdge(ctx, "bob", "alice"))

	a, err := s.Neighbors(ctx, "alice")
	require.NoError(t, err)
	b, err := s.Neighbors(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, a)
	assert.Empty(t, b)

	require.NoError(t, s.RemoveEdge(ctx, "alice", "bob"), "removing a missing friendship is a no-op")
	assert.ErrorIs(t, s.RemoveEdge(ctx, "alice", "ghost"), friendgraph.ErrUnknownNode)
	assert.ErrorIs(t, s.RemoveEdge(ctx, "alice", "alice"), friendgraph.ErrSelfLoop)
}

func testListEdgesCanonical(t *testing.T, s friendgraph.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice", "bob", "carol", "dave"},
		[2]string{"bob", "alice"}, [2]string{"carol", "bob"}, [2]string{"dave", "alice"})

	edges, err := s.ListEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Edge{
		{Source: "alice", Target: "bob"},
		{Source: "alice", Target: "dave"},
		{Source: "bob", Target: "carol"},
	}, edges)
}

func testNeighborsUnknownNode(t *testing.T, s friendgraph.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice"})

	_, err := s.Neighbors(ctx, "ghost")
	assert.ErrorIs(t, err, friendgraph.ErrUnknownNode)

	a, err := s.Neighbors(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, a)
}

func testRemoveNodeCascades(t *testing.T, s friendgraph.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice", "bob", "carol"},
		[2]string{"alice", "bob"}, [2]string{"alice", "carol"}, [2]string{"bob", "carol"})

	require.NoError(t, s.RemoveNode(ctx, "alice"))

	b, err := s.Neighbors(ctx, "bob")
	require.NoError(t, err)
	c, err := s.Neighbors(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, b)
	assert.Equal(t, []string{"bob"}, c)

	nodes, err := s.ListNodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, nodes)

	edges, err := s.ListEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Edge{{Source: "bob", Target: "carol"}}, edges)

	_, err = s.Neighbors(ctx, "alice")
	assert.ErrorIs(t, err, friendgraph.ErrUnknownNode)

	// The name is free again and comes back without its old friendships.
	require.NoError(t, s.AddNode(ctx, "alice"))
	a, err := s.Neighbors(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, a)
}

func testRemoveNodeUnknown(t *testing.T, s friendgraph.Store) {
	err := s.RemoveNode(context.Background(), "ghost")
	assert.ErrorIs(t, err, friendgraph.ErrUnknownNode)
}

func testConcurrentWrites(t *testing.T, s friendgraph.Store) {
	ctx := context.Background()
	const n = 8
	Seed(t, s, []string{"hub"})

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("user-%d", i)
			if err := s.AddNode(ctx, name); err != nil {
				errs <- err
				return
			}
			errs <- s.AddEdge(ctx, "hub", name)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	hub, err := s.Neighbors(ctx, "hub")
	require.NoError(t, err)
	assert.Len(t, hub, n)

	edges, err := s.ListEdges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, n)
}
