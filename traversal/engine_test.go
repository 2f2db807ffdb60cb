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
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/storetest"
)

func newEngine(t *testing.T, users []string, edges ...[2]string) (*Engine, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	storetest.Seed(t, store, users, edges...)
	return NewEngine(store, zap.NewNop()), store
}

// faultyStore fails Neighbors for selected users.
type faultyStore struct {
	friendgraph.Store
	fail map[string]error
}

func (s *faultyStore) Neighbors(ctx context.Context, name string) ([]string, error) {
	if err, ok := s.fail[name]; ok {
		return nil, err
	}
	return s.Store.Neighbors(ctx, name)
}

func TestFriends_TwoHopExclusion(t *testing.T) {
	ctx := context.Background()
	engine, store := newEngine(t, []string{"a", "b", "c"},
		[2]string{"a", "b"}, [2]string{"b", "c"})

	got, err := engine.Friends(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, got.Friends)
	assert.Equal(t, []string{"c"}, got.FriendsOfFriends)

	// Once c is a direct friend it leaves friends-of-friends entirely.
	require.NoError(t, store.AddEdge(ctx, "a", "c"))
	got, err = engine.Friends(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, got.Friends)
	assert.Empty(t, got.FriendsOfFriends)
}

func TestFriends_ExcludesSelfAndDeduplicates(t *testing.T) {
	engine, _ := newEngine(t, []string{"a", "b", "c", "d", "e"},
		[2]string{"a", "b"}, [2]string{"a", "c"},
		[2]string{"b", "d"}, [2]string{"c", "d"}, [2]string{"c", "e"})

	got, err := engine.Friends(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, got.Friends)
	assert.Equal(t, []string{"d", "e"}, got.FriendsOfFriends)
	assert.NotContains(t, got.Friends, "a")
	assert.NotContains(t, got.FriendsOfFriends, "a")
}

func TestFriends_NoFriends(t *testing.T) {
	engine, _ := newEngine(t, []string{"loner"})

	got, err := engine.Friends(context.Background(), "loner")
	require.NoError(t, err)
	assert.NotNil(t, got.Friends)
	assert.NotNil(t, got.FriendsOfFriends)
	assert.Empty(t, got.Friends)
	assert.Empty(t, got.FriendsOfFriends)
}

func TestFriends_UnknownUser(t *testing.T) {
	engine, _ := newEngine(t, nil)

	_, err := engine.Friends(context.Background(), "ghost")
	assert.ErrorIs(t, err, friendgraph.ErrUnknownNode)
}

func TestFriends_SkipsFriendRemovedMidQuery(t *testing.T) {
	store := memstore.New()
	storetest.Seed(t, store, []string{"a", "b", "c", "d"},
		[2]string{"a", "b"}, [2]string{"a", "c"}, [2]string{"c", "d"})
	engine := NewEngine(&faultyStore{
		Store: store,
		fail:  map[string]error{"b": friendgraph.UnknownNode("neighbors", "b")},
	}, zap.NewNop())

	got, err := engine.Friends(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, got.Friends)
	assert.Equal(t, []string{"d"}, got.FriendsOfFriends)
}

func TestFriends_PropagatesStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	store := memstore.New()
	storetest.Seed(t, store, []string{"a", "b"}, [2]string{"a", "b"})
	engine := NewEngine(&faultyStore{Store: store, fail: map[string]error{"b": boom}}, zap.NewNop())

	_, err := engine.Friends(context.Background(), "a")
	assert.ErrorIs(t, err, boom)
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	engine, _ := newEngine(t, []string{"c", "a", "b", "x"},
		[2]string{"b", "a"}, [2]string{"c", "b"})

	first, err := engine.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.GraphNode{
		{ID: "a", Label: "a"}, {ID: "b", Label: "b"}, {ID: "c", Label: "c"}, {ID: "x", Label: "x"},
	}, first.Nodes)
	assert.Equal(t, []models.Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}}, first.Edges)

	second, err := engine.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSnapshot_Empty(t *testing.T) {
	engine, _ := newEngine(t, nil)

	got, err := engine.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got.Nodes)
	assert.NotNil(t, got.Edges)
	assert.Empty(t, got.Nodes)
	assert.Empty(t, got.Edges)
}

// staleEdgesStore reports an edge whose endpoint is no longer a node, as a
// store read between a node delete and its edge cleanup would.
type staleEdgesStore struct {
	friendgraph.Store
}

func (s staleEdgesStore) ListEdges(ctx context.Context) ([]models.Edge, error) {
	edges, err := s.Store.ListEdges(ctx)
	return append(edges, models.Edge{Source: "a", Target: "gone"}, models.Edge{Source: "b", Target: "a"}), err
}

func TestSnapshot_DropsDanglingAndDuplicateEdges(t *testing.T) {
	store := memstore.New()
	storetest.Seed(t, store, []string{"a", "b"}, [2]string{"a", "b"})
	engine := NewEngine(staleEdgesStore{store}, zap.NewNop())

	got, err := engine.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Edge{{Source: "a", Target: "b"}}, got.Edges)
}
