package sessions

import (
	"sync"
	"testing"
)

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	r := NewRegistry()
	if r.GetOrCreate("u1") != r.GetOrCreate("u1") {
		t.Fatal("two lookups for one user returned different sessions")
	}
	if r.GetOrCreate("u1") == r.GetOrCreate("u2") {
		t.Fatal("distinct users share a session")
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	r := NewRegistry()

	const goroutines = 50
	sessions := make([]*UserSession, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = r.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("concurrent GetOrCreate created duplicate sessions")
		}
	}
}
