package testutil

import (
	"sync"

	"github.com/google/uuid"
)

// SessionIDs hands out deterministic session identities for tests.
//
// Real sessions get a random UUIDv7, which makes reports that include the
// session id impossible to snapshot. SessionIDs produces version-7 shaped
// UUIDs whose low 48 bits are a counter:
//
//	00000000-0000-7000-8000-000000000001
//	00000000-0000-7000-8000-000000000002
//
// Thread-safety: All methods are safe for concurrent use.
type SessionIDs struct {
	mu  sync.Mutex
	seq uint64
}

// NewSessionIDs creates a generator whose first id is SessionID(1).
func NewSessionIDs() *SessionIDs {
	return &SessionIDs{}
}

// Next returns the next id in sequence.
func (g *SessionIDs) Next() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return SessionID(g.seq)
}

// Reset restarts the sequence. The next call to Next returns SessionID(1).
func (g *SessionIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// SessionID returns the n-th deterministic session id.
// Only the low 48 bits of n are used.
func SessionID(n uint64) uuid.UUID {
	var id uuid.UUID
	id[6] = 0x70 // version 7
	id[8] = 0x80 // RFC 4122 variant
	for i := 15; i >= 10; i-- {
		id[i] = byte(n)
		n >>= 8
	}
	return id
}
