// Package ratelimit provides per-caller admission control. The Limiter
// interface keeps the orchestrator independent of the backing store so an
// in-memory window can be swapped for a shared one without touching
// pipeline code.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter admits or rejects a request for a caller identity. Admit must be
// atomic under concurrent calls for the same caller: two racing requests
// at the capacity boundary must never both be admitted.
type Limiter interface {
	Admit(callerID string) bool

	// Remaining reports the caller's unused quota in the current window,
	// for response-header reporting. It does not count as a request.
	Remaining(callerID string) int
}

// Memory is a sliding-window Limiter keyed by caller identity. Each caller
// tracks the timestamps of admitted requests in the trailing window;
// entries older than the window are evicted lazily on access.
type Memory struct {
	capacity int
	window   time.Duration

	mu      sync.Mutex
	callers map[string]*callerWindow

	// now is swappable for tests.
	now func() time.Time
}

type callerWindow struct {
	admitted []time.Time
}

// NewMemory creates an in-memory limiter admitting capacity requests per
// caller per window.
func NewMemory(capacity int, window time.Duration) *Memory {
	return &Memory{
		capacity: capacity,
		window:   window,
		callers:  make(map[string]*callerWindow),
		now:      time.Now,
	}
}

// Admit reports whether the caller may proceed, counting the request on
// admission. Increment-and-check happens under one lock so concurrent
// callers cannot over-admit.
func (m *Memory) Admit(callerID string) bool {
	now := m.now()
	cutoff := now.Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.callers[callerID]
	if !ok {
		w = &callerWindow{}
		m.callers[callerID] = w
	}

	w.evict(cutoff)

	if len(w.admitted) >= m.capacity {
		return false
	}
	w.admitted = append(w.admitted, now)
	return true
}

// evict drops timestamps at or before cutoff. Admitted times are appended
// in order, so the survivors are a suffix.
func (w *callerWindow) evict(cutoff time.Time) {
	i := 0
	for i < len(w.admitted) && !w.admitted[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.admitted = append(w.admitted[:0], w.admitted[i:]...)
	}
}

// Remaining reports how many admissions the caller has left in the current
// window, for response headers and operational inspection.
func (m *Memory) Remaining(callerID string) int {
	cutoff := m.now().Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.callers[callerID]
	if !ok {
		return m.capacity
	}
	w.evict(cutoff)
	if left := m.capacity - len(w.admitted); left > 0 {
		return left
	}
	return 0
}
