// Package sessions coordinates per-user turn scheduling: a registry of per-user
// state, a debounce scheduler that coalesces rapid-fire messages into one prompt,
// and a turn serializer that keeps at most one generation in flight per user.
package sessions

import (
	"sync"
	"time"
)

// UserSession is the coordination state for one user. All fields are guarded by
// mu; callers outside this package never touch fields directly.
type UserSession struct {
	mu sync.Mutex

	locked    bool
	turnEpoch int64       // bumped on acquire and on forced release; stale turns compare against it
	watchdog  *time.Timer // force-releases a stuck lock

	pending       []string // buffered messages, oldest first
	debounceEpoch int64    // invalidates superseded debounce callbacks
	debounceTimer *time.Timer
}

// Locked reports whether a turn is currently in flight for this session.
func (s *UserSession) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// PendingCount returns the number of buffered messages.
func (s *UserSession) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Registry is the process-wide map of per-user sessions. The registry mutex
// guards only lookup/insert; per-user work happens under the session's own lock
// so users never block each other.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*UserSession
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*UserSession)}
}

// GetOrCreate returns the session for userID, creating it on first use.
// Sessions live for the process lifetime; there is no removal.
func (r *Registry) GetOrCreate(userID string) *UserSession {
	r.mu.RLock()
	s, ok := r.sessions[userID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		return s
	}
	s = &UserSession{}
	r.sessions[userID] = s
	return s
}
