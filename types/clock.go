package types

// TimeUnit selects the time base for simulated-time queries and timers.
type TimeUnit string

const (
	UnitStep TimeUnit = "step"
	UnitNS   TimeUnit = "ns"
	UnitUS   TimeUnit = "us"
	UnitMS   TimeUnit = "ms"
	UnitSec  TimeUnit = "sec"
)

// Clock is the simulated-time source consumed by the regression manager
// and by timeout wrappers. Now returns a monotonic simulated timestamp in
// the requested unit. Stop terminates the simulation session; it is called
// exactly once, during teardown.
type Clock interface {
	Now(unit TimeUnit) float64
	After(amount float64, unit TimeUnit) <-chan struct{}
	Stop()
}
