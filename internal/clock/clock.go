// Package clock supplies the time source used to stamp samples and to
// measure session progress.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time. Implementations must never go backwards.
type Clock interface {
	Now() time.Time
}

// System reads time.Now, which carries Go's monotonic reading
type System struct{}

// Now returns the current system time with monotonic clock reading.
func (System) Now() time.Time {
	return time.Now()
}

// Mock is a manually advanced clock for tests. Unlike the system clock it
// only moves when told to, so frame timing in tests is exact. It is safe for
// concurrent use.
type Mock struct {
	mu      sync.Mutex
	current time.Time
}

// NewMock creates a Mock at t, or at a fixed 2001 instant when t is zero.
func NewMock(t time.Time) *Mock {
	if t.IsZero() {
		t = time.Unix(1000000000, 0)
	}
	return &Mock{current: t}
}

// Now returns the mock clock's current time.
func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Advance moves the clock forward by d. Panics if d is negative.
func (m *Mock) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: Mock.Advance with negative duration")
	}
	m.mu.Lock()
	m.current = m.current.Add(d)
	m.mu.Unlock()
}
