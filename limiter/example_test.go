package limiter_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/adamwoolhether/metronome/limiter"
)

func ExampleNew() {
	type reply struct {
		Msg  string
		Code int
	}

	lim, err := limiter.New(2, 5*time.Second, limiter.Value(reply{"blocked", 429}))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	handle := lim.Wrap(func() (reply, error) {
		return reply{"ok", 200}, nil
	})

	for range 3 {
		r, _ := handle()
		fmt.Println(r.Msg, r.Code)
	}
	// Output:
	// ok 200
	// ok 200
	// blocked 429
}

func ExampleError() {
	lim, err := limiter.New(1, time.Minute, limiter.Error[string](nil))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fetch := limiter.WrapArg(lim, func(id int) (string, error) {
		return fmt.Sprintf("item-%d", id), nil
	})

	for id := range 2 {
		v, err := fetch(id)
		if errors.Is(err, limiter.ErrRateLimitExceeded) {
			fmt.Println("rejected")
			continue
		}
		fmt.Println(v)
	}
	// Output:
	// item-0
	// rejected
}

func ExampleNewRoundTripper() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	lim, err := limiter.New(1, time.Minute, limiter.TooManyRequests())
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	rt, err := limiter.NewRoundTripper(lim, http.DefaultTransport)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	client := &http.Client{Transport: rt}

	for range 2 {
		resp, err := client.Get(ts.URL)
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		resp.Body.Close()
		fmt.Println(resp.StatusCode)
	}
	// Output:
	// 200
	// 429
}
