// Package session keeps per-shopper state between requests.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/filter"
)

// Session is the state of one shopper. Hold the lock (Do) while touching
// Cart or Filters.
type Session struct {
	ID string

	mu       sync.Mutex
	Cart     *cart.Cart
	Filters  filter.Spec
	lastSeen time.Time
}

// Do runs fn with the session locked.
func (s *Session) Do(fn func(s *Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// Registry creates, finds and expires sessions.
type Registry struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a Registry whose sessions expire after ttl without
// use.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating a fresh one when id is empty,
// unknown or expired. The returned session's ID may differ from id.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if s, ok := r.sessions[id]; ok && now.Sub(s.lastSeen) < r.ttl {
		s.lastSeen = now
		return s
	}

	s := &Session{
		ID:       uuid.New().String(),
		Cart:     cart.New(),
		lastSeen: now,
	}
	r.sessions[s.ID] = s
	return s
}

// Lookup returns the live session for id without creating one. A hit counts
// as use and extends the session's life.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	s, ok := r.sessions[id]
	if !ok || now.Sub(s.lastSeen) >= r.ttl {
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

// Has reports whether id names a live session. Unlike Lookup it does not
// extend the session's life.
func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	return ok && r.now().Sub(s.lastSeen) < r.ttl
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// cleanup removes sessions idle for at least ttl.
func (r *Registry) cleanup(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) >= r.ttl {
			delete(r.sessions, id)
		}
	}
}

// StartCleanup launches a background goroutine that periodically removes
// expired sessions. It stops when ctx is cancelled.
func (r *Registry) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.cleanup(now)
			}
		}
	}()
}
