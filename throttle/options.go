package throttle

import (
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/trace"
)

// Option defines optional settings for a Throttle.
//
// WithDuration caps the total run time, measured from the first advance.
// WithMaxTicks caps the number of emitted iterations; it cannot be
// combined with WithDuration.
// WithClock replaces the clock used for deadlines and waits.
// WithLogger enables debug logs for start, overruns and exhaustion.
// WithTracer records a span around every cooperative wait.
type Option func(*options) error

type options struct {
	duration time.Duration
	maxTicks int
	clk      clock.Clock
	logger   *slog.Logger
	tracer   trace.Tracer
}

func WithDuration(d time.Duration) Option {
	return func(o *options) error {
		o.duration = d
		return nil
	}
}

func WithMaxTicks(n int) Option {
	return func(o *options) error {
		o.maxTicks = n
		return nil
	}
}

func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		if clk == nil {
			return errors.New("clock must not be nil")
		}
		o.clk = clk
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}
