package limiter

import (
	"context"
	"net/http"
)

// Fallback answers calls rejected by a Limiter. It is one of Value, Func
// or Error, chosen when the Limiter is built.
type Fallback[T any] interface {
	fallback(ctx context.Context) (T, error)
}

type valueFallback[T any] struct {
	v T
}

func (f valueFallback[T]) fallback(context.Context) (T, error) {
	return f.v, nil
}

// Value makes rejected calls return v and a nil error.
func Value[T any](v T) Fallback[T] {
	return valueFallback[T]{v: v}
}

type funcFallback[T any] func(context.Context) (T, error)

func (f funcFallback[T]) fallback(ctx context.Context) (T, error) {
	return f(ctx)
}

// Func makes rejected calls return the result of fn. A nil fn behaves
// like Error(nil).
func Func[T any](fn func(context.Context) (T, error)) Fallback[T] {
	if fn == nil {
		return Error[T](nil)
	}
	return funcFallback[T](fn)
}

type errFallback[T any] struct {
	err error
}

func (f errFallback[T]) fallback(context.Context) (T, error) {
	var zero T
	return zero, f.err
}

// Error makes rejected calls return the zero T and err. A nil err means
// ErrRateLimitExceeded.
func Error[T any](err error) Fallback[T] {
	if err == nil {
		err = ErrRateLimitExceeded
	}
	return errFallback[T]{err: err}
}

// TooManyRequests is a fallback for HTTP round trips that answers with a
// fresh, empty 429 response.
func TooManyRequests() Fallback[*http.Response] {
	return Func(func(context.Context) (*http.Response, error) {
		resp := http.Response{
			Status:     "429 Too Many Requests",
			StatusCode: http.StatusTooManyRequests,
			Proto:      "HTTP/1.1",
			ProtoMajor: 1,
			ProtoMinor: 1,
			Header:     http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
			Body:       http.NoBody,
		}
		return &resp, nil
	})
}
