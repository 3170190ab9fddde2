package limiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"

	"github.com/adamwoolhether/metronome/internal/validate"
	"github.com/adamwoolhether/metronome/meter"
)

var (
	ErrInvalidConfig     = validate.ErrInvalidConfig
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrWaitCancelled     = errors.New("limiter wait cancelled")
	ErrContextEnded      = errors.New("limiter context ended")
)

type config struct {
	Limit    int           `json:"limit" validate:"gt=0"`
	Interval time.Duration `json:"interval" validate:"gt=0"`
}

// Limiter admits at most limit calls in any sliding window of interval.
// Calls over the limit never reach the wrapped function; the configured
// Fallback answers them instead.
//
// Each Limiter owns its counter. Wrapping a function twice, with two
// limiters, stacks two independent gates evaluated outermost first.
type Limiter[T any] struct {
	id       uuid.UUID
	limit    int
	interval time.Duration
	counter  *meter.Meter
	onFail   Fallback[T]
	wait     bool
	clk      clock.Clock
	logger   *slog.Logger
	tracer   trace.Tracer
	sampler  *rate.Limiter // rejection logs, one per second on clk
}

// New returns a Limiter admitting limit calls per interval. A nil onFail
// makes rejected calls return ErrRateLimitExceeded.
func New[T any](limit int, interval time.Duration, onFail Fallback[T], opts ...Option) (*Limiter[T], error) {
	if err := validate.Check(config{Limit: limit, Interval: interval}); err != nil {
		return nil, fmt.Errorf("limiter: %w", err)
	}

	var o options
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("applying limiter option: %w", err)
		}
	}

	if o.clk == nil {
		o.clk = clock.New()
	}
	if o.tracer == nil {
		o.tracer = noop.NewTracerProvider().Tracer("no-op tracer")
	}
	if onFail == nil {
		onFail = Error[T](nil)
	}

	counter, err := meter.New(interval, meter.WithClock(o.clk))
	if err != nil {
		return nil, fmt.Errorf("limiter counter: %w", err)
	}

	l := Limiter[T]{
		id:       uuid.New(),
		limit:    limit,
		interval: interval,
		counter:  counter,
		onFail:   onFail,
		wait:     o.wait,
		clk:      o.clk,
		logger:   o.logger,
		tracer:   o.tracer,
		sampler:  rate.NewLimiter(rate.Every(time.Second), 1),
	}

	return &l, nil
}

// Limit returns the maximum number of calls per interval.
func (l *Limiter[T]) Limit() int {
	return l.limit
}

// Interval returns the window length.
func (l *Limiter[T]) Interval() time.Duration {
	return l.interval
}

// Count returns the number of calls admitted in the current window.
func (l *Limiter[T]) Count() int {
	return l.counter.Count()
}

// Do calls fn if the call is admitted and returns its result unchanged.
// Otherwise it returns the fallback's result without calling fn. With
// WithWait, Do blocks until the window has room instead.
func (l *Limiter[T]) Do(fn func() (T, error)) (T, error) {
	return l.DoContext(context.Background(), func(context.Context) (T, error) {
		return fn()
	})
}

// DoContext is the cooperative form of Do. The admission rule is the
// same; with WithWait the wait for room ends early when ctx does, with
// an error wrapping ErrWaitCancelled.
func (l *Limiter[T]) DoContext(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := l.tracer.Start(ctx, "limiter.call")
	defer span.End()
	span.SetAttributes(
		attribute.String("limiter.id", l.id.String()),
		attribute.Int("limiter.limit", l.limit),
	)

	admitted, err := l.admit(ctx)
	span.SetAttributes(attribute.Bool("limiter.admitted", admitted))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		var zero T
		return zero, err
	}

	if !admitted {
		l.logReject()
		return l.onFail.fallback(ctx)
	}

	v, err := fn(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}

	return v, err
}

// Wrap returns fn gated by the limiter.
func (l *Limiter[T]) Wrap(fn func() (T, error)) func() (T, error) {
	return func() (T, error) {
		return l.Do(fn)
	}
}

// WrapContext returns fn gated by the limiter.
func (l *Limiter[T]) WrapContext(fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return l.DoContext(ctx, fn)
	}
}

// WrapArg returns a single-argument fn gated by l.
func WrapArg[A, T any](l *Limiter[T], fn func(A) (T, error)) func(A) (T, error) {
	return func(arg A) (T, error) {
		return l.Do(func() (T, error) {
			return fn(arg)
		})
	}
}

// WrapArgContext returns a single-argument fn gated by l.
func WrapArgContext[A, T any](l *Limiter[T], fn func(context.Context, A) (T, error)) func(context.Context, A) (T, error) {
	return func(ctx context.Context, arg A) (T, error) {
		return l.DoContext(ctx, func(ctx context.Context) (T, error) {
			return fn(ctx, arg)
		})
	}
}

// admit records the call if the window has room. Without WithWait the
// decision is immediate; with it, admit sleeps until the oldest counted
// call ages out and tries again.
func (l *Limiter[T]) admit(ctx context.Context) (bool, error) {
	for {
		if l.counter.TryRecord(l.limit) {
			return true, nil
		}

		if !l.wait {
			return false, nil
		}

		if d := l.counter.RetryIn(l.limit); d > 0 {
			if err := l.sleep(ctx, d); err != nil {
				return false, err
			}
		}
	}
}

func (l *Limiter[T]) sleep(ctx context.Context, d time.Duration) error {
	if ctx.Done() == nil {
		l.clk.Sleep(d)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w early: %w", ErrWaitCancelled, err)
	}

	timer := l.clk.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrWaitCancelled, context.Cause(ctx))
	case <-timer.C:
		return nil
	}
}

func (l *Limiter[T]) logReject() {
	if l.logger == nil {
		return
	}

	if !l.sampler.AllowN(l.clk.Now(), 1) {
		return
	}

	l.logger.Info("limiter call rejected", "id", l.id, "limit", l.limit, "interval", l.interval.String())
}
