package sessions

import (
	"log/slog"
	"time"
)

// Serializer enforces at-most-one in-flight generation per user.
//
// This is a watchdog pattern, not a distributed lock: the deadline timer
// force-clears a lock left behind by a hung backend call so the system
// self-heals without operator intervention. The backend call itself is not
// interrupted; a late completion is detected by its stale epoch and its
// results are dropped.
type Serializer struct {
	registry *Registry
	timeout  time.Duration
}

func NewSerializer(registry *Registry, timeout time.Duration) *Serializer {
	return &Serializer{registry: registry, timeout: timeout}
}

// TryAcquire attempts to start a turn for the user. On success it arms the
// watchdog and returns the turn epoch the caller must present to Release and
// StillCurrent. Returns ok=false if a turn is already in flight.
func (t *Serializer) TryAcquire(userID string) (epoch int64, ok bool) {
	s := t.registry.GetOrCreate(userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return 0, false
	}
	s.locked = true
	s.turnEpoch++
	epoch = s.turnEpoch
	s.watchdog = time.AfterFunc(t.timeout, func() {
		t.forceRelease(userID, s, epoch)
	})
	return epoch, true
}

// Release ends the turn identified by epoch. A stale epoch (the watchdog
// already force-released, and possibly a newer turn started) is a no-op, so a
// late-finishing turn can never clear a successor's lock. Release must run on
// every exit path of a turn.
func (t *Serializer) Release(userID string, epoch int64) {
	s := t.registry.GetOrCreate(userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.locked || s.turnEpoch != epoch {
		return
	}
	if s.watchdog != nil {
		s.watchdog.Stop()
		s.watchdog = nil
	}
	s.locked = false
}

// StillCurrent reports whether the turn identified by epoch has not been
// superseded by a forced release. Callers check this before applying results
// of a slow generation so stale writes cannot clobber a newer turn.
func (t *Serializer) StillCurrent(userID string, epoch int64) bool {
	s := t.registry.GetOrCreate(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnEpoch == epoch
}

func (t *Serializer) forceRelease(userID string, s *UserSession, epoch int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.locked || s.turnEpoch != epoch {
		return
	}
	s.locked = false
	s.watchdog = nil
	// Bump the epoch so the hung turn's eventual completion is recognizably stale.
	s.turnEpoch++
	slog.Warn("turn watchdog fired, lock force-released", "user", userID, "timeout", t.timeout)
}
