package meter

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/adamwoolhether/metronome/internal/validate"
)

// ErrInvalidConfig is returned by New when the window is not positive.
var ErrInvalidConfig = validate.ErrInvalidConfig

type config struct {
	Window time.Duration `json:"window" validate:"gt=0"`
}

// Meter counts events over a sliding look-back window. Retained events
// always satisfy now-ts <= window at query time.
type Meter struct {
	mu     sync.Mutex
	clk    clock.Clock
	window time.Duration
	events []sample // chronological
	total  int      // sum of retained sample weights
}

// sample is n events recorded at the same instant.
type sample struct {
	at time.Time
	n  int
}

// New returns a Meter measuring over the last window.
func New(window time.Duration, opts ...Option) (*Meter, error) {
	if err := validate.Check(config{Window: window}); err != nil {
		return nil, fmt.Errorf("meter: %w", err)
	}

	o := options{clk: clock.New()}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("applying meter option: %w", err)
		}
	}

	m := Meter{
		clk:    o.clk,
		window: window,
	}

	return &m, nil
}

// Window returns the look-back duration.
func (m *Meter) Window() time.Duration {
	return m.window
}

// Record adds an event at the current time.
func (m *Meter) Record() {
	m.RecordN(1)
}

// RecordN adds n events at the current time. A loop that only reports
// every k-th iteration calls RecordN(k) so the skipped iterations still
// count toward the rate. n <= 0 records nothing.
func (m *Meter) RecordN(n int) {
	if n <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	m.evict(now)
	m.events = append(m.events, sample{at: now, n: n})
	m.total += n
}

// Count returns the number of events inside the window.
func (m *Meter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evict(m.clk.Now())

	return m.total
}

// Rate returns the retained events per second. It is 0 when nothing
// has been recorded inside the window.
func (m *Meter) Rate() float64 {
	n := m.Count()
	if n == 0 {
		return 0
	}

	return float64(n) / m.window.Seconds()
}

// Reset drops the whole event history.
func (m *Meter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = nil
	m.total = 0
}

// TryRecord records an event only if fewer than limit events are
// retained, reporting whether it did. The check and the record happen
// under one lock, so concurrent callers never push the count past limit.
func (m *Meter) TryRecord(limit int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	m.evict(now)
	if m.total >= limit {
		return false
	}
	m.events = append(m.events, sample{at: now, n: 1})
	m.total++

	return true
}

// RetryIn returns how long until fewer than limit events are retained.
// It is 0 when a TryRecord(limit) would succeed right now.
func (m *Meter) RetryIn(limit int) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	m.evict(now)
	if limit <= 0 || m.total < limit {
		return 0
	}

	// Find the first sample whose eviction drops the count below limit.
	remaining := m.total
	for _, s := range m.events {
		remaining -= s.n
		if remaining < limit {
			d := s.at.Add(m.window).Sub(now) + time.Nanosecond
			if d < 0 {
				return 0
			}
			return d
		}
	}

	return 0
}

// evict trims the prefix of events older than the window. m.mu must be held.
func (m *Meter) evict(now time.Time) {
	cutoff := now.Add(-m.window)
	i := sort.Search(len(m.events), func(i int) bool {
		return !m.events[i].at.Before(cutoff)
	})
	if i == 0 {
		return
	}

	for _, s := range m.events[:i] {
		m.total -= s.n
	}

	if i == len(m.events) {
		m.events = m.events[:0]
		return
	}

	// Reuse the backing array.
	n := copy(m.events, m.events[i:])
	m.events = m.events[:n]
}
