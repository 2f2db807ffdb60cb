// Package models contains the domain entities and data transfer objects for the application.
// The structs in this file represent the friend graph in a shape that serializes directly
// to JSON for frontend visualization clients (D3.js, vis-network, Cytoscape.js).
package models

import "sort"

// GraphNode is a user as it appears in a graph snapshot.
// The name is the node's identity, so ID and Label always carry the same value.
type GraphNode struct {
	// ID is the user's name.
	ID string `json:"id"`

	// Label is the text shown by visualization clients. Equal to ID.
	Label string `json:"label"`
}

// NewGraphNode returns the snapshot projection of the named user.
func NewGraphNode(name string) GraphNode {
	return GraphNode{ID: name, Label: name}
}

// Edge is an undirected friendship between two users.
// Edges are always canonical: Source sorts before Target, so the same
// friendship is never reported twice with its endpoints swapped.
type Edge struct {
	// Source is the lexicographically smaller endpoint.
	Source string `json:"source"`

	// Target is the lexicographically larger endpoint.
	Target string `json:"target"`
}

// NewEdge returns the canonical edge between a and b.
func NewEdge(a, b string) Edge {
	if b < a {
		a, b = b, a
	}
	return Edge{Source: a, Target: b}
}

// GraphResult is a top-level container for a full graph snapshot.
// It is composed of a list of nodes and a list of edges, which is the
// format consumed by most frontend graph visualization libraries.
type GraphResult struct {
	// Nodes contains every user currently in the graph.
	Nodes []GraphNode `json:"nodes"`

	// Edges contains every friendship currently in the graph, each reported once.
	Edges []Edge `json:"edges"`
}

// Sort orders nodes by ID and edges by (Source, Target) so that two snapshots
// of the same graph compare equal.
func (g *GraphResult) Sort() {
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
	SortEdges(g.Edges)
}

// SortEdges orders edges by (Source, Target).
func SortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
}
