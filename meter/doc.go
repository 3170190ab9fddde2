// Package meter measures how often something happens over a recent
// look-back window.
//
// # Usage
//
// Record an event each time the measured work completes and query the
// smoothed rate whenever needed:
//
//	m, err := meter.New(2 * time.Second)
//	if err != nil {
//		return err
//	}
//
//	for range frames {
//		m.Record()
//		fmt.Printf("%.1f fps\n", m.Rate())
//	}
//
// A loop that reports only every k-th iteration calls [Meter.RecordN]
// with k instead.
//
// Events older than the window age out continuously, so [Meter.Rate]
// follows the recent throughput rather than the lifetime average. A Meter
// is safe for concurrent use; [Meter.TryRecord] performs the
// check-then-record step of a call limiter atomically.
package meter
