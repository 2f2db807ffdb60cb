package friendgraph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeError(t *testing.T) {
	err := UnknownNode("add edge", "ghost")
	assert.Equal(t, `add edge "ghost": unknown node`, err.Error())
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), ErrUnknownNode)

	var nodeErr *NodeError
	assert.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, "ghost", nodeErr.Name)

	assert.Equal(t, "add node: invalid request", ValidateName("add node", "  ").Error())
}

func TestValidatePair(t *testing.T) {
	assert.NoError(t, ValidatePair("add edge", "alice", "bob"))
	assert.ErrorIs(t, ValidatePair("add edge", "alice", "alice"), ErrSelfLoop)
	assert.ErrorIs(t, ValidatePair("add edge", "alice", "\t"), ErrInvalidRequest)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(DuplicateNode("add node", "a")))
	assert.True(t, IsClientError(UnknownNode("neighbors", "a")))
	assert.True(t, IsClientError(ValidatePair("add edge", "a", "a")))
	assert.True(t, IsClientError(ValidateName("add node", "")))
	assert.False(t, IsClientError(ErrStoreUnavailable))
	assert.False(t, IsClientError(errors.New("boom")))
}
