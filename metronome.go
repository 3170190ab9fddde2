// Package metronome exposes pacing and call-rate limiting constructors.
package metronome

import (
	"iter"
	"time"

	"github.com/adamwoolhether/metronome/limiter"
	"github.com/adamwoolhether/metronome/meter"
	"github.com/adamwoolhether/metronome/throttle"
)

// NewThrottle instantiates a drift-free iteration pacer. See throttle.New.
func NewThrottle(interval time.Duration, opts ...throttle.Option) (*throttle.Throttle, error) {
	return throttle.New(interval, opts...)
}

// NewMeter instantiates a sliding-window rate meter. See meter.New.
func NewMeter(window time.Duration, opts ...meter.Option) (*meter.Meter, error) {
	return meter.New(window, opts...)
}

// NewLimiter instantiates a call-rate limiter. See limiter.New.
func NewLimiter[T any](limit int, interval time.Duration, onFail limiter.Fallback[T], opts ...limiter.Option) (*limiter.Limiter[T], error) {
	return limiter.New(limit, interval, onFail, opts...)
}

// Measure records every index of seq on m before yielding it, so the
// achieved rate of a loop can be read from m while it runs.
func Measure(seq iter.Seq[int], m *meter.Meter) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range seq {
			m.Record()
			if !yield(i) {
				return
			}
		}
	}
}
