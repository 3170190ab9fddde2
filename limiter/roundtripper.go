package limiter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// roundTripper is an http.RoundTripper gating outbound requests
// with a Limiter.
type roundTripper struct {
	limiter *Limiter[*http.Response]
	next    http.RoundTripper
}

// NewRoundTripper returns an http.RoundTripper that forwards admitted
// requests to next and answers the rest with the limiter's fallback. Use
// TooManyRequests as the fallback to hand callers a 429 response, or
// Error to fail the request. A nil next uses http.DefaultTransport.
//
// Rejected requests get a shallow copy of the fallback's response with
// Request set to the rejected request. A Value fallback shares its Body
// across every copy, so prefer TooManyRequests, which builds a fresh
// response per call.
func NewRoundTripper(l *Limiter[*http.Response], next http.RoundTripper) (http.RoundTripper, error) {
	if l == nil {
		return nil, errors.New("limiter must not be nil")
	}
	if next == nil {
		next = http.DefaultTransport
	}

	rt := roundTripper{
		limiter: l,
		next:    next,
	}

	return &rt, nil
}

func (rt *roundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	var forwarded bool
	resp, err := rt.limiter.DoContext(ctx, func(context.Context) (*http.Response, error) {
		forwarded = true
		return rt.next.RoundTrip(r)
	})
	if err != nil {
		return nil, err
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: fallback returned no response", ErrRateLimitExceeded)
	}
	if forwarded {
		return resp, nil
	}

	// Fallback responses may be shared between calls.
	out := *resp
	out.Request = r

	return &out, nil
}
