package throttle

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/metronome/internal/validate"
)

var (
	ErrInvalidConfig = validate.ErrInvalidConfig
	ErrWaitCancelled = errors.New("throttle wait cancelled")
)

type config struct {
	Interval time.Duration `json:"interval" validate:"gt=0"`
	Duration time.Duration `json:"duration" validate:"gte=0,excluded_with=MaxTicks"`
	MaxTicks int           `json:"max_ticks" validate:"gte=0"`
}

// Throttle emits iteration indices at a fixed cadence. The deadline of
// iteration i is always start + i*interval, so a slow iteration delays
// only itself and never shifts the rest of the schedule.
//
// A Throttle belongs to a single loop and must not be advanced
// concurrently.
type Throttle struct {
	id       uuid.UUID
	clk      clock.Clock
	interval time.Duration
	duration time.Duration
	maxTicks int
	logger   *slog.Logger
	tracer   trace.Tracer

	start   time.Time
	started bool
	index   int // next index to emit
	done    bool
}

// New returns a Throttle emitting an iteration every interval. The time
// reference is bound on the first advance, not here.
func New(interval time.Duration, opts ...Option) (*Throttle, error) {
	var o options
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("applying throttle option: %w", err)
		}
	}

	cfg := config{
		Interval: interval,
		Duration: o.duration,
		MaxTicks: o.maxTicks,
	}
	if err := validate.Check(cfg); err != nil {
		return nil, fmt.Errorf("throttle: %w", err)
	}

	if o.clk == nil {
		o.clk = clock.New()
	}
	if o.tracer == nil {
		o.tracer = noop.NewTracerProvider().Tracer("no-op tracer")
	}

	t := Throttle{
		id:       uuid.New(),
		clk:      o.clk,
		interval: interval,
		duration: o.duration,
		maxTicks: o.maxTicks,
		logger:   o.logger,
		tracer:   o.tracer,
	}

	return &t, nil
}

// Interval returns the target time between iterations.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// Start returns the time reference bound by the first advance, or the
// zero time if the throttle has not started.
func (t *Throttle) Start() time.Time {
	return t.start
}

// Deadline returns the scheduled time of iteration i.
func (t *Throttle) Deadline(i int) time.Time {
	return t.start.Add(time.Duration(i) * t.interval)
}

// Ticks returns the number of iterations emitted so far.
func (t *Throttle) Ticks() int {
	return t.index
}

// Done reports whether the throttle is exhausted.
func (t *Throttle) Done() bool {
	return t.done
}

// Next blocks until the deadline of the next iteration and returns its
// index. The first call returns 0 immediately. If the previous iteration
// overran its slot, Next returns at once without any catch-up burst.
//
// ok is false once the configured duration or tick count is used up; the
// call that detects it first sleeps until the end of the run, so a loop
// never finishes earlier than its duration.
func (t *Throttle) Next() (int, bool) {
	if t.done {
		return -1, false
	}

	idx, deadline, ok := t.schedule()
	if d := deadline.Sub(t.clk.Now()); d > 0 {
		t.clk.Sleep(d)
	}

	if !ok {
		t.finish()
		return -1, false
	}

	t.emit(idx, deadline)

	return idx, true
}

// Wait is the cooperative form of Next. The wait selects on ctx, and a
// cancelled wait returns an error wrapping ErrWaitCancelled without
// consuming the index: the next call waits for the same deadline.
func (t *Throttle) Wait(ctx context.Context) (int, bool, error) {
	if t.done {
		return -1, false, nil
	}

	if err := ctx.Err(); err != nil {
		return -1, false, fmt.Errorf("%w early: %w", ErrWaitCancelled, err)
	}

	idx, deadline, ok := t.schedule()

	ctx, span := t.tracer.Start(ctx, "throttle.wait")
	defer span.End()
	span.SetAttributes(
		attribute.String("throttle.id", t.id.String()),
		attribute.Int("throttle.index", idx),
	)

	if err := t.sleepContext(ctx, deadline); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return -1, false, err
	}

	if !ok {
		span.SetAttributes(attribute.Bool("throttle.done", true))
		t.finish()
		return -1, false, nil
	}

	span.SetAttributes(attribute.String("throttle.lag", t.clk.Now().Sub(deadline).String()))
	t.emit(idx, deadline)

	return idx, true, nil
}

// TryNext emits the next iteration only if its deadline has already
// passed. It never blocks; ok is false when the iteration is not due yet
// or the throttle is exhausted (see Done).
func (t *Throttle) TryNext() (int, bool) {
	if t.done {
		return -1, false
	}

	idx, deadline, ok := t.schedule()
	if t.clk.Now().Before(deadline) {
		return -1, false
	}

	if !ok {
		t.finish()
		return -1, false
	}

	t.emit(idx, deadline)

	return idx, true
}

// Loop returns a sequence calling Next until the throttle is exhausted.
// The sequence shares the throttle's state and cannot be restarted.
func (t *Throttle) Loop() iter.Seq[int] {
	return func(yield func(int) bool) {
		for {
			i, ok := t.Next()
			if !ok || !yield(i) {
				return
			}
		}
	}
}

// LoopContext returns a sequence calling Wait until the throttle is
// exhausted. If ctx ends during a wait, a final (-1, err) pair is
// yielded.
func (t *Throttle) LoopContext(ctx context.Context) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		for {
			i, ok, err := t.Wait(ctx)
			if err != nil {
				yield(-1, err)
				return
			}
			if !ok || !yield(i, nil) {
				return
			}
		}
	}
}

// schedule binds the start time on first use and returns the next index
// with its deadline. When the throttle is exhausted ok is false and
// deadline holds the end of the run instead.
func (t *Throttle) schedule() (int, time.Time, bool) {
	if !t.started {
		t.start = t.clk.Now()
		t.started = true

		if t.logger != nil {
			t.logger.Debug("throttle started", "id", t.id, "interval", t.interval.String(), "duration", t.duration.String(), "max_ticks", t.maxTicks)
		}
	}

	idx := t.index
	deadline := t.Deadline(idx)
	exhausted := t.maxTicks > 0 && idx >= t.maxTicks

	if t.duration > 0 {
		end := t.start.Add(t.duration)
		if !deadline.Before(end) {
			deadline = end
			exhausted = true
		}
	}

	return idx, deadline, !exhausted
}

func (t *Throttle) emit(idx int, deadline time.Time) {
	t.index = idx + 1

	if t.logger == nil {
		return
	}

	if lag := t.clk.Now().Sub(deadline); lag >= t.interval {
		t.logger.Debug("throttle slot overrun", "id", t.id, "index", idx, "lag", lag.String(), "interval", t.interval.String())
	}
}

func (t *Throttle) finish() {
	t.done = true

	if t.logger != nil {
		t.logger.Debug("throttle exhausted", "id", t.id, "ticks", t.index, "elapsed", t.clk.Since(t.start).String())
	}
}

func (t *Throttle) sleepContext(ctx context.Context, deadline time.Time) error {
	d := deadline.Sub(t.clk.Now())
	if d <= 0 {
		return nil
	}

	timer := t.clk.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrWaitCancelled, context.Cause(ctx))
	case <-timer.C:
		return nil
	}
}
