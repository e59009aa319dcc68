package types

// Unit is the schedulable handle for one in-progress test execution.
// Outcome is valid only after the completion callback registered with
// Runtime.Submit has fired.
type Unit interface {
	Name() string
	Cancel()
	Outcome() Outcome
}

// Runtime is the external asynchronous task runtime. Spawn validates the
// test body and produces an unstarted unit; a spawn error is the
// synchronous-initialization failure of the test. Submit starts the unit
// and registers exactly one completion callback.
type Runtime interface {
	Spawn(name string, fn TestFunc, tc *TestContext) (Unit, error)
	Submit(u Unit, complete func(Unit))
}
