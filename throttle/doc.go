// Package throttle paces iterative work at a fixed cadence without
// accumulating drift.
//
// # Usage
//
// Create a [Throttle] and range over its loop. Each iteration starts at
// start + i*interval, whatever the previous iterations took:
//
//	th, err := throttle.New(
//		time.Second/24,                     // 24 fps
//		throttle.WithDuration(time.Second), // stop after one second
//	)
//	if err != nil {
//		return err
//	}
//
//	for i := range th.Loop() {
//		captureFrame(i)
//	}
//
// The first iteration runs immediately. An iteration that overruns its
// slot makes the next one start late, but the schedule is never caught
// up by firing skipped iterations back to back.
//
// # Cooperative waiting
//
// [Throttle.Wait] and [Throttle.LoopContext] share the deadline
// arithmetic of [Throttle.Next] and [Throttle.Loop], but wait on a
// context as well as the timer. Cancelling the context aborts only the
// pending wait; the iteration it was waiting for is not consumed.
//
// # Duration
//
// With [WithDuration], iteration i is emitted only if its deadline falls
// strictly before start + duration, so a run emits
// ceil(duration/interval) iterations. A loop run to completion lasts at
// least duration.
package throttle
