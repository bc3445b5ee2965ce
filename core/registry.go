package core

import (
	"context"
	"sync"
)

// SessionRegistry holds at most one current authorization session. It is an
// explicitly constructed component rather than package-level state, so tests
// and multi-tenant hosts can run independent instances.
type SessionRegistry struct {
	mu      sync.Mutex
	current *Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{}
}

// Store makes session the current occupant. A displaced occupant always
// receives a cancellation outcome before the replacement takes the slot;
// starting a second flow never silently drops the first.
func (r *SessionRegistry) Store(session *Session) {
	if r == nil {
		return
	}
	r.mu.Lock()
	previous := r.current
	r.current = nil
	r.mu.Unlock()

	if previous != nil {
		previous.Cancel()
	}

	r.mu.Lock()
	r.current = session
	r.mu.Unlock()
}

// Resume offers a redirect callback URL to the current session. The slot is
// cleared only when the session claimed the URL, which keeps unmatched
// redirects from ending a pending flow.
func (r *SessionRegistry) Resume(ctx context.Context, rawURL string) bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	current := r.current
	r.mu.Unlock()
	if current == nil {
		return false
	}

	claimed := current.Resume(ctx, rawURL)
	if claimed {
		r.mu.Lock()
		if r.current == current {
			r.current = nil
		}
		r.mu.Unlock()
	}
	return claimed
}

// Cancel ends session if and only if it is still the current occupant. A
// dismissal event firing for an already-replaced session is a no-op.
func (r *SessionRegistry) Cancel(session *Session) {
	if r == nil || session == nil {
		return
	}
	r.mu.Lock()
	if r.current != session {
		r.mu.Unlock()
		return
	}
	r.current = nil
	r.mu.Unlock()

	session.Cancel()
}

// Current returns the occupant, if any.
func (r *SessionRegistry) Current() *Session {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
