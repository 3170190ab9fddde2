// Package limiter caps how often a function may run.
//
// A [Limiter] admits at most limit calls in any sliding window of the
// configured interval. Admission is a point-in-time decision: a call over
// the limit does not queue, it gets the [Fallback] the Limiter was built
// with.
//
// # Usage
//
//	type reply struct {
//		Msg  string
//		Code int
//	}
//
//	lim, err := limiter.New(2, 5*time.Second, limiter.Value(reply{"blocked", 429}))
//	if err != nil {
//		return err
//	}
//
//	handle := lim.Wrap(func() (reply, error) {
//		return reply{"ok", 200}, nil
//	})
//
//	handle() // {ok 200}
//	handle() // {ok 200}
//	handle() // {blocked 429}
//
// # Fallbacks
//
// [Value] returns a fixed value, [Func] calls a substitute function and
// [Error] returns an error, [ErrRateLimitExceeded] by default. A nil
// Fallback behaves like Error(nil).
//
// # HTTP
//
// [NewRoundTripper] gates an [http.RoundTripper]; pair it with
// [TooManyRequests] to turn excess requests into local 429 responses.
package limiter
