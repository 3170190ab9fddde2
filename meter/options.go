package meter

import (
	"errors"

	"github.com/benbjohnson/clock"
)

// Option defines optional settings for a Meter.
//
// WithClock replaces the clock used to timestamp events.
type Option func(*options) error

type options struct {
	clk clock.Clock
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
