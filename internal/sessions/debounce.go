package sessions

import (
	"log/slog"
	"strings"
	"time"
)

// FlushFunc receives the combined prompt once a user's quiet period elapses.
// It runs on a timer goroutine and must not block for long; long work (the
// generation call) belongs on its own goroutine.
type FlushFunc func(userID, prompt string)

// Debouncer coalesces bursts of messages from one user into a single
// newline-joined prompt, deferred by a fixed quiet period. Each new message
// restarts the quiet period (last-message-wins).
type Debouncer struct {
	registry *Registry
	quiet    time.Duration
	flush    FlushFunc
}

func NewDebouncer(registry *Registry, quiet time.Duration, flush FlushFunc) *Debouncer {
	return &Debouncer{registry: registry, quiet: quiet, flush: flush}
}

// OnMessage buffers text for the user and (re)arms the debounce timer.
// The epoch captured by the timer callback invalidates any previously armed
// callback: a stale callback that fires after rescheduling is a no-op, so a
// burst can never double-flush.
func (d *Debouncer) OnMessage(userID, text string) {
	s := d.registry.GetOrCreate(userID)

	s.mu.Lock()
	s.pending = append(s.pending, text)
	s.debounceEpoch++
	epoch := s.debounceEpoch
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(d.quiet, func() {
		d.fire(userID, s, epoch)
	})
	s.mu.Unlock()

	slog.Debug("message buffered", "user", userID, "quiet_period", d.quiet)
}

// fire drains the buffer and hands the combined prompt to the flush callback.
// If the user is mid-turn the messages stay buffered and the timer is re-armed
// for the next cycle: never dropped, never processed concurrently with an
// in-flight turn.
func (d *Debouncer) fire(userID string, s *UserSession, epoch int64) {
	s.mu.Lock()
	if epoch != s.debounceEpoch {
		s.mu.Unlock()
		return
	}
	s.debounceTimer = nil

	if s.locked {
		s.debounceEpoch++
		next := s.debounceEpoch
		s.debounceTimer = time.AfterFunc(d.quiet, func() {
			d.fire(userID, s, next)
		})
		s.mu.Unlock()
		slog.Debug("flush deferred, turn in flight", "user", userID)
		return
	}

	msgs := s.pending
	s.pending = nil
	s.mu.Unlock()

	prompt := strings.Join(msgs, "\n")
	if strings.TrimSpace(prompt) == "" {
		return
	}
	d.flush(userID, prompt)
}
