package graph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	err := newNotFoundError("sess-1", 4)
	assert.Equal(t, "NODE_NOT_FOUND: no node with id 4 in session (node=4, session=sess-1)", err.Error())

	err = newCrossSessionError(OpAdd, "s1", "s2")
	assert.Equal(t, "CROSS_SESSION_OPERATION: add operands belong to different sessions (s1, s2) (session=s1)", err.Error())

	err = &Error{Code: ErrCodeUnsupportedOperation, Message: "boom"}
	assert.Equal(t, "UNSUPPORTED_OPERATION: boom", err.Error())
}

func TestError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("evaluate: %w", newUnsupportedError("s", 3, Op("pow")))

	assert.True(t, IsUnsupportedOperation(wrapped))
	assert.False(t, IsNodeNotFound(wrapped))
	assert.False(t, IsCrossSession(wrapped))
	assert.True(t, errors.Is(wrapped, ErrUnsupportedOperation))
	assert.False(t, errors.Is(wrapped, ErrNodeNotFound))
}

func TestError_NonGraphError(t *testing.T) {
	err := errors.New("plain")
	assert.False(t, IsNodeNotFound(err))
	assert.False(t, IsCrossSession(err))
	assert.False(t, IsUnsupportedOperation(err))
	assert.False(t, IsNodeNotFound(nil))
}
