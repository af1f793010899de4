package graph

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes graph errors.
type ErrorCode string

const (
	// ErrCodeNodeNotFound indicates a handle or id does not resolve in the session.
	ErrCodeNodeNotFound ErrorCode = "NODE_NOT_FOUND"

	// ErrCodeCrossSession indicates an operation mixed handles from two sessions.
	ErrCodeCrossSession ErrorCode = "CROSS_SESSION_OPERATION"

	// ErrCodeUnsupportedOperation indicates an op tag with no derivative rule.
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"
)

// Sentinels for errors.Is matching against *Error values.
var (
	ErrNodeNotFound         = errors.New("node not found")
	ErrCrossSession         = errors.New("cross-session operation")
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// Error is a contract violation detected by the graph.
//
// All graph errors are programmer errors (stale or foreign handles, missing
// operator registration). None of them are transient and none are retried.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// NodeID is the offending node, when one is known.
	NodeID NodeID

	// SessionID identifies the session that reported the error.
	SessionID string

	// Op is the operator tag (UnsupportedOperation only).
	Op Op
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.NodeID != 0 && e.SessionID != "" {
		return fmt.Sprintf("%s: %s (node=%d, session=%s)", e.Code, e.Message, e.NodeID, e.SessionID)
	}
	if e.SessionID != "" {
		return fmt.Sprintf("%s: %s (session=%s)", e.Code, e.Message, e.SessionID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is maps the error code onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch e.Code {
	case ErrCodeNodeNotFound:
		return target == ErrNodeNotFound
	case ErrCodeCrossSession:
		return target == ErrCrossSession
	case ErrCodeUnsupportedOperation:
		return target == ErrUnsupportedOperation
	}
	return false
}

// IsNodeNotFound returns true if err is a NodeNotFound graph error.
// Uses errors.As to handle wrapped errors.
func IsNodeNotFound(err error) bool {
	return hasCode(err, ErrCodeNodeNotFound)
}

// IsCrossSession returns true if err is a CrossSessionOperation graph error.
func IsCrossSession(err error) bool {
	return hasCode(err, ErrCodeCrossSession)
}

// IsUnsupportedOperation returns true if err is an UnsupportedOperation graph error.
func IsUnsupportedOperation(err error) bool {
	return hasCode(err, ErrCodeUnsupportedOperation)
}

func hasCode(err error, code ErrorCode) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

// newNotFoundError creates an Error for an id that does not resolve.
func newNotFoundError(sessionID string, id NodeID) *Error {
	return &Error{
		Code:      ErrCodeNodeNotFound,
		Message:   fmt.Sprintf("no node with id %d in session", id),
		NodeID:    id,
		SessionID: sessionID,
	}
}

// newCrossSessionError creates an Error for operands owned by different sessions.
func newCrossSessionError(op Op, left, right string) *Error {
	return &Error{
		Code:      ErrCodeCrossSession,
		Message:   fmt.Sprintf("%s operands belong to different sessions (%s, %s)", op, left, right),
		SessionID: left,
		Op:        op,
	}
}

// newUnsupportedError creates an Error for an op without a derivative rule.
func newUnsupportedError(sessionID string, id NodeID, op Op) *Error {
	return &Error{
		Code:      ErrCodeUnsupportedOperation,
		Message:   fmt.Sprintf("no derivative rule registered for op %q", op),
		NodeID:    id,
		SessionID: sessionID,
		Op:        op,
	}
}
