package types

import (
	"context"
	"math/rand"

	"github.com/ethereum/go-ethereum/log"
)

// TestFunc is the body of a test. It receives its execution context and
// reports failure by returning an error (or panicking; panics are captured
// by the runtime).
type TestFunc func(tc *TestContext) error

// TestContext is the execution context injected into a test body. Rand is
// seeded deterministically per test from the global run seed and the
// test's fullname, so a test sees the same randomized inputs regardless of
// which other tests run around it.
type TestContext struct {
	Ctx   context.Context
	Rand  *rand.Rand
	Clock Clock
	Log   log.Logger
	Name  string
}

// WithContext returns a copy of the test context bound to ctx. Used by
// timeout wrappers to hand the inner body a separately cancellable scope.
func (tc *TestContext) WithContext(ctx context.Context) *TestContext {
	cp := *tc
	cp.Ctx = ctx
	return &cp
}

// Err returns the cancellation state of the context.
func (tc *TestContext) Err() error {
	if tc.Ctx == nil {
		return nil
	}
	return tc.Ctx.Err()
}
