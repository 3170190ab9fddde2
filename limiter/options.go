package limiter

import (
	"errors"
	"log/slog"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/trace"
)

// Option defines optional settings for a Limiter.
//
// WithWait makes rejected calls wait for room in the window instead of
// returning the fallback.
// WithClock replaces the clock used to count calls and wait.
// WithLogger enables logs of rejected calls, at most one per second as
// read from the limiter's clock.
// WithTracer records a span around every call.
type Option func(*options) error

type options struct {
	wait   bool
	clk    clock.Clock
	logger *slog.Logger
	tracer trace.Tracer
}

func WithWait() Option {
	return func(o *options) error {
		o.wait = true
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
