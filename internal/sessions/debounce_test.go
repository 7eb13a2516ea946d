package sessions

import (
	"sync"
	"testing"
	"time"
)

// flushRecorder collects debounce flushes for assertions.
type flushRecorder struct {
	mu      sync.Mutex
	flushes []string
	users   []string
	ch      chan struct{}
}

func newFlushRecorder() *flushRecorder {
	return &flushRecorder{ch: make(chan struct{}, 16)}
}

func (r *flushRecorder) flush(userID, prompt string) {
	r.mu.Lock()
	r.users = append(r.users, userID)
	r.flushes = append(r.flushes, prompt)
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *flushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flushes)
}

func (r *flushRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.flushes) == 0 {
		return ""
	}
	return r.flushes[len(r.flushes)-1]
}

func waitFlush(t *testing.T, r *flushRecorder, timeout time.Duration) {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(timeout):
		t.Fatal("expected a flush, got none")
	}
}

func TestDebounceCoalescesBurst(t *testing.T) {
	registry := NewRegistry()
	rec := newFlushRecorder()
	d := NewDebouncer(registry, 30*time.Millisecond, rec.flush)

	d.OnMessage("u1", "Hola")
	d.OnMessage("u1", "Me llamo Ana")
	d.OnMessage("u1", "¿Puedes ayudarme?")

	waitFlush(t, rec, time.Second)

	if got := rec.count(); got != 1 {
		t.Fatalf("flush count = %d, want 1", got)
	}
	want := "Hola\nMe llamo Ana\n¿Puedes ayudarme?"
	if got := rec.last(); got != want {
		t.Errorf("combined prompt = %q, want %q", got, want)
	}

	// The stale timer from the first message must not fire a second flush.
	time.Sleep(100 * time.Millisecond)
	if got := rec.count(); got != 1 {
		t.Errorf("flush count after settle = %d, want 1", got)
	}
}

func TestDebounceEachMessageRestartsQuietPeriod(t *testing.T) {
	registry := NewRegistry()
	rec := newFlushRecorder()
	d := NewDebouncer(registry, 60*time.Millisecond, rec.flush)

	d.OnMessage("u1", "primero")
	time.Sleep(30 * time.Millisecond)
	d.OnMessage("u1", "segundo")
	time.Sleep(30 * time.Millisecond)

	// 60ms elapsed since the first message but only 30ms since the second:
	// the quiet period restarted, so nothing has flushed yet.
	if got := rec.count(); got != 0 {
		t.Fatalf("flush count before quiet period = %d, want 0", got)
	}

	waitFlush(t, rec, time.Second)
	if got := rec.last(); got != "primero\nsegundo" {
		t.Errorf("combined prompt = %q", got)
	}
}

func TestDebounceWhitespaceOnlyNeverFlushes(t *testing.T) {
	registry := NewRegistry()
	rec := newFlushRecorder()
	d := NewDebouncer(registry, 20*time.Millisecond, rec.flush)

	d.OnMessage("u1", "   ")
	d.OnMessage("u1", "\n\t")

	time.Sleep(150 * time.Millisecond)
	if got := rec.count(); got != 0 {
		t.Errorf("flush count = %d, want 0 for whitespace-only buffer", got)
	}
}

func TestDebounceDefersWhileTurnInFlight(t *testing.T) {
	registry := NewRegistry()
	rec := newFlushRecorder()
	d := NewDebouncer(registry, 20*time.Millisecond, rec.flush)
	ser := NewSerializer(registry, time.Minute)

	epoch, ok := ser.TryAcquire("u1")
	if !ok {
		t.Fatal("initial acquire failed")
	}

	d.OnMessage("u1", "mensaje durante el turno")
	time.Sleep(120 * time.Millisecond)
	if got := rec.count(); got != 0 {
		t.Fatalf("flushed while locked: count = %d", got)
	}
	if got := registry.GetOrCreate("u1").PendingCount(); got != 1 {
		t.Fatalf("pending count while locked = %d, want 1 (buffered, not dropped)", got)
	}

	ser.Release("u1", epoch)
	waitFlush(t, rec, time.Second)
	if got := rec.last(); got != "mensaje durante el turno" {
		t.Errorf("deferred flush = %q", got)
	}
}

func TestDebounceUsersIndependent(t *testing.T) {
	registry := NewRegistry()
	rec := newFlushRecorder()
	d := NewDebouncer(registry, 20*time.Millisecond, rec.flush)

	d.OnMessage("ana", "hola de ana")
	d.OnMessage("ben", "hola de ben")

	waitFlush(t, rec, time.Second)
	waitFlush(t, rec, time.Second)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.flushes) != 2 {
		t.Fatalf("flush count = %d, want 2", len(rec.flushes))
	}
	got := map[string]string{rec.users[0]: rec.flushes[0], rec.users[1]: rec.flushes[1]}
	if got["ana"] != "hola de ana" || got["ben"] != "hola de ben" {
		t.Errorf("per-user flushes = %v", got)
	}
}
