package friendgraph

import (
	"context"
	"strings"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/models"
)

// Store is the capability set the query engines need from a graph backend.
//
// Implementations must keep the friend relation symmetric, must never store a
// self-loop, and must cascade edge removal when a node is removed. Names are
// returned in ascending order so that traversal tie-breaking is deterministic.
type Store interface {
	// AddNode creates a user. ErrDuplicateNode if the name is taken.
	AddNode(ctx context.Context, name string) error

	// ListNodes returns every user name.
	ListNodes(ctx context.Context) ([]string, error)

	// AddEdge befriends a and b. Re-adding an existing friendship is a no-op.
	// ErrUnknownNode if either endpoint is missing, ErrSelfLoop if a == b.
	AddEdge(ctx context.Context, a, b string) error

	// RemoveEdge ends the friendship between a and b. Removing a friendship
	// that does not exist is a no-op.
	RemoveEdge(ctx context.Context, a, b string) error

	// ListEdges returns every friendship once, in canonical order.
	ListEdges(ctx context.Context) ([]models.Edge, error)

	// Neighbors returns the direct friends of name. ErrUnknownNode if absent.
	Neighbors(ctx context.Context, name string) ([]string, error)

	// RemoveNode deletes the user and every friendship it takes part in.
	RemoveNode(ctx context.Context, name string) error
}

// Pinger is implemented by stores that can check their backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Closer is implemented by stores that hold resources.
type Closer interface {
	Close(ctx context.Context) error
}

// ValidateName rejects empty and whitespace-only names.
func ValidateName(op, name string) error {
	if strings.TrimSpace(name) == "" {
		return &NodeError{Op: op, Err: ErrInvalidRequest}
	}
	return nil
}

// ValidatePair validates both endpoints of an edge operation and rejects self-loops.
func ValidatePair(op, a, b string) error {
	if err := ValidateName(op, a); err != nil {
		return err
	}
	if err := ValidateName(op, b); err != nil {
		return err
	}
	if a == b {
		return &NodeError{Op: op, Name: a, Err: ErrSelfLoop}
	}
	return nil
}
