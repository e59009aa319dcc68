package types

import (
	"math"
	"time"
)

// TestStatus represents the possible states of a test record.
type TestStatus string

const (
	TestStatusPass     TestStatus = "pass"
	TestStatusFail     TestStatus = "fail"
	TestStatusSkip     TestStatus = "skipped"
	TestStatusExcluded TestStatus = "excluded"
)

// TestResult captures the recorded outcome of a single test. Results are
// appended in execution order and never mutated afterwards.
type TestResult struct {
	Fullname string
	Status   TestStatus
	SimTime  float64 // simulated nanoseconds elapsed
	WallTime time.Duration
	Ratio    float64 // simulated time per wall-clock second
}

// Executed reports whether the test actually ran (as opposed to being
// skipped or filtered out before execution).
func (r *TestResult) Executed() bool {
	return r.Status == TestStatusPass || r.Status == TestStatusFail
}

// SpeedRatio computes simulated time divided by wall time. Zero wall time
// yields NaN when no simulated time passed either, +Inf otherwise.
func SpeedRatio(simNS float64, wallSeconds float64) float64 {
	if wallSeconds == 0 {
		if simNS == 0 {
			return math.NaN()
		}
		return math.Inf(1)
	}
	return simNS / wallSeconds
}
