package friendgraph

import (
	"errors"
	"fmt"
)

// ErrNotFound is a sentinel error returned by repository lookups when no record
// matching the criteria is found in the database.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned by Repository.Create when a node with the same
// primary key is already stored.
var ErrAlreadyExists = errors.New("record already exists")

// Graph-level error kinds. Stores return them wrapped in a *NodeError; test with errors.Is.
var (
	ErrDuplicateNode  = errors.New("duplicate node")
	ErrUnknownNode    = errors.New("unknown node")
	ErrSelfLoop       = errors.New("self loop")
	ErrInvalidRequest = errors.New("invalid request")
)

// NodeError records the operation and user name that produced a graph-level error.
type NodeError struct {
	Op   string
	Name string
	Err  error
}

func (e *NodeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// DuplicateNode returns the error stores report when name is already taken.
func DuplicateNode(op, name string) error {
	return &NodeError{Op: op, Name: name, Err: ErrDuplicateNode}
}

// UnknownNode returns the error stores report when name does not exist.
func UnknownNode(op, name string) error {
	return &NodeError{Op: op, Name: name, Err: ErrUnknownNode}
}

// IsClientError reports whether err is one of the graph-level kinds caused by
// the caller's input rather than by the store.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateNode) ||
		errors.Is(err, ErrUnknownNode) ||
		errors.Is(err, ErrSelfLoop) ||
		errors.Is(err, ErrInvalidRequest)
}
