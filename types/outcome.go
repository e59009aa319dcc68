package types

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// FailureKind classifies a raised failure. Tests declare the kinds they
// expect to see via ExpectError; the scorer matches the kind of the raised
// failure against that set instead of inspecting error types.
type FailureKind string

const (
	// KindAssertion marks a functional-check failure. Tests with
	// ExpectFail set pass when they raise this kind.
	KindAssertion FailureKind = "assertion"
	// KindTimeout marks a test that exceeded its declared timeout.
	KindTimeout FailureKind = "timeout"
	// KindSim marks a fatal simulator failure. The simulation session is
	// unusable once one is raised.
	KindSim FailureKind = "sim-failure"
	// KindGeneric is the kind of any failure that carries no explicit tag.
	KindGeneric FailureKind = "generic"
)

// Failure is an error tagged with a FailureKind.
type Failure struct {
	Kind  FailureKind
	Err   error
	Stack []byte // goroutine stack at the point of capture, if any
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure tags err with the given kind.
func NewFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// Assertionf builds an assertion-style failure from a format string.
func Assertionf(format string, args ...any) error {
	return &Failure{Kind: KindAssertion, Err: fmt.Errorf(format, args...)}
}

// NewTimeout reports that a test ran past its timeout.
func NewTimeout(amount float64, unit TimeUnit) error {
	return &Failure{Kind: KindTimeout, Err: fmt.Errorf("test timed out after %g %s", amount, unit)}
}

// SimFailure reports that the underlying simulation session failed and is
// no longer usable. Raising one forces teardown of the whole regression.
type SimFailure struct {
	Msg string
}

func (e *SimFailure) Error() string {
	return fmt.Sprintf("simulator failure: %s", e.Msg)
}

// NewSimFailure creates a fatal simulator failure.
func NewSimFailure(msg string) *SimFailure {
	return &SimFailure{Msg: msg}
}

// IsSimFailure checks if the error is or wraps a SimFailure.
func IsSimFailure(err error) bool {
	var simErr *SimFailure
	return err != nil && errors.As(err, &simErr)
}

// KindOf resolves the failure kind of an error. Sim failures always
// classify as KindSim, tagged failures report their tag, and anything else
// is KindGeneric.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	if IsSimFailure(err) {
		return KindSim
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindGeneric
}

// Outcome is the result of one completed test execution: nil Err for
// success, the raised failure otherwise.
type Outcome struct {
	Err error
}

// Passed reports whether the execution completed without raising.
func (o Outcome) Passed() bool {
	return o.Err == nil
}

// Capture invokes fn and converts a panic into a failure outcome. The
// goroutine stack is preserved for post-mortem logging.
func Capture(fn TestFunc, tc *TestContext) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		stack := debug.Stack()
		switch e := r.(type) {
		case *Failure:
			if e.Stack == nil {
				e.Stack = stack
			}
			err = e
		case *SimFailure:
			err = e
		case error:
			err = &Failure{Kind: KindGeneric, Err: e, Stack: stack}
		default:
			err = &Failure{Kind: KindGeneric, Err: fmt.Errorf("panic: %v", r), Stack: stack}
		}
	}()
	return fn(tc)
}
