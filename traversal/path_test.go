package traversal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/memstore"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/storetest"
)

func TestShortestPath(t *testing.T) {
	chain := []string{"A", "B", "C", "D"}
	chainEdges := [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}}

	tests := []struct {
		name   string
		users  []string
		edges  [][2]string
		source string
		target string
		want   []string
	}{
		{"chain end to end", chain, chainEdges, "A", "D", []string{"A", "B", "C", "D"}},
		{"chain partial", chain, chainEdges, "A", "C", []string{"A", "B", "C"}},
		{"chain reversed", chain, chainEdges, "D", "A", []string{"D", "C", "B", "A"}},
		{"adjacent", chain, chainEdges, "B", "C", []string{"B", "C"}},
		{"same user", chain, chainEdges, "B", "B", []string{"B"}},
		{"disconnected", []string{"A", "B", "X"}, [][2]string{{"A", "B"}}, "A", "X", []string{}},
		{"unknown source", chain, chainEdges, "ghost", "A", []string{}},
		{"unknown target", chain, chainEdges, "A", "ghost", []string{}},
		{"unknown same user", chain, chainEdges, "ghost", "ghost", []string{}},
		{
			"shortcut beats long way",
			[]string{"A", "B", "C", "D", "E"},
			[][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}, {"D", "E"}, {"A", "E"}},
			"A", "D",
			[]string{"A", "E", "D"},
		},
		{
			"tie broken by neighbor order",
			[]string{"A", "B", "C", "D"},
			[][2]string{{"A", "C"}, {"A", "B"}, {"C", "D"}, {"B", "D"}},
			"A", "D",
			[]string{"A", "B", "D"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := memstore.New()
			storetest.Seed(t, store, tc.users, tc.edges...)
			engine := NewEngine(store, zap.NewNop())

			got, err := engine.ShortestPath(context.Background(), tc.source, tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestShortestPath_InvalidRequest(t *testing.T) {
	engine, _ := newEngine(t, []string{"A"})

	_, err := engine.ShortestPath(context.Background(), "", "A")
	assert.ErrorIs(t, err, friendgraph.ErrInvalidRequest)

	_, err = engine.ShortestPath(context.Background(), "A", " ")
	assert.ErrorIs(t, err, friendgraph.ErrInvalidRequest)
}

func TestShortestPath_IsMinimal(t *testing.T) {
	// A 4x4 grid; the shortest route between opposite corners is 6 hops.
	store := memstore.New()
	name := func(r, c int) string { return string(rune('a'+r)) + string(rune('0'+c)) }
	var users []string
	var edges [][2]string
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			users = append(users, name(r, c))
			if r > 0 {
				edges = append(edges, [2]string{name(r-1, c), name(r, c)})
			}
			if c > 0 {
				edges = append(edges, [2]string{name(r, c-1), name(r, c)})
			}
		}
	}
	storetest.Seed(t, store, users, edges...)
	engine := NewEngine(store, zap.NewNop())

	path, err := engine.ShortestPath(context.Background(), "a0", "d3")
	require.NoError(t, err)
	require.Len(t, path, 7)
	assert.Equal(t, "a0", path[0])
	assert.Equal(t, "d3", path[len(path)-1])

	ctx := context.Background()
	for i := 1; i < len(path); i++ {
		nbrs, err := store.Neighbors(ctx, path[i-1])
		require.NoError(t, err)
		assert.Contains(t, nbrs, path[i], "consecutive path entries must be friends")
	}
}

func TestShortestPath_SkipsUserRemovedMidSearch(t *testing.T) {
	store := memstore.New()
	storetest.Seed(t, store, []string{"A", "B", "C", "D"},
		[2]string{"A", "B"}, [2]string{"A", "C"}, [2]string{"B", "D"}, [2]string{"C", "D"})
	engine := NewEngine(&faultyStore{
		Store: store,
		fail:  map[string]error{"B": friendgraph.UnknownNode("neighbors", "B")},
	}, zap.NewNop())

	got, err := engine.ShortestPath(context.Background(), "A", "D")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "D"}, got)
}

func TestShortestPath_PropagatesStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	store := memstore.New()
	storetest.Seed(t, store, []string{"A", "B", "C"}, [2]string{"A", "B"}, [2]string{"B", "C"})
	engine := NewEngine(&faultyStore{Store: store, fail: map[string]error{"B": boom}}, zap.NewNop())

	_, err := engine.ShortestPath(context.Background(), "A", "C")
	assert.ErrorIs(t, err, boom)
}

func TestShortestPath_Cancelled(t *testing.T) {
	engine, _ := newEngine(t, []string{"A", "B", "C"}, [2]string{"A", "B"}, [2]string{"B", "C"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.ShortestPath(ctx, "A", "C")
	assert.ErrorIs(t, err, context.Canceled)
}
