package driven

import "time"

// Metrics receives pipeline counters and timings.
type Metrics interface {
	Count(name string, value int64, tags ...string)
	Timing(name string, value time.Duration, tags ...string)
}
