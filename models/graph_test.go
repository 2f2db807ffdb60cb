package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEdgeIsCanonical(t *testing.T) {
	assert.Equal(t, Edge{Source: "alice", Target: "bob"}, NewEdge("bob", "alice"))
	assert.Equal(t, NewEdge("alice", "bob"), NewEdge("bob", "alice"))
}

func TestGraphResultSort(t *testing.T) {
	g := &GraphResult{
		Nodes: []GraphNode{NewGraphNode("c"), NewGraphNode("a"), NewGraphNode("b")},
		Edges: []Edge{NewEdge("b", "c"), NewEdge("a", "c"), NewEdge("a", "b")},
	}
	g.Sort()

	assert.Equal(t, []GraphNode{NewGraphNode("a"), NewGraphNode("b"), NewGraphNode("c")}, g.Nodes)
	assert.Equal(t, []Edge{{"a", "b"}, {"a", "c"}, {"b", "c"}}, g.Edges)
}

func TestNewPathResult(t *testing.T) {
	assert.Equal(t, PathResult{Path: []string{}, Hops: 0}, NewPathResult(nil))
	assert.Equal(t, PathResult{Path: []string{"a"}, Hops: 0}, NewPathResult([]string{"a"}))
	assert.Equal(t, 3, NewPathResult([]string{"a", "b", "c", "d"}).Hops)
}
