package sim

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"

	"github.com/verilab/regress/types"
)

// Runtime is a goroutine-backed task runtime implementing types.Runtime.
// Each submitted unit runs on its own goroutine with panics captured into
// the unit's outcome. Sequencing (one unit in flight at a time) is the
// caller's responsibility.
type Runtime struct {
	log log.Logger
}

func NewRuntime(logger log.Logger) *Runtime {
	if logger == nil {
		logger = log.New()
	}
	return &Runtime{log: logger}
}

// Task is one spawned test execution.
type Task struct {
	name      string
	fn        types.TestFunc
	tc        *types.TestContext
	ctx       context.Context
	cancel    context.CancelFunc
	submitted atomic.Bool
	done      chan struct{}
	outcome   types.Outcome
}

// Spawn validates the body and produces an unstarted unit tagged with the
// test's name.
func (r *Runtime) Spawn(name string, fn types.TestFunc, tc *types.TestContext) (types.Unit, error) {
	if fn == nil {
		return nil, errors.New("test has no body")
	}
	if tc == nil {
		return nil, errors.New("test has no execution context")
	}
	parent := tc.Ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Task{
		name:   name,
		fn:     fn,
		tc:     tc,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}, nil
}

// Submit starts the unit and registers its single completion callback.
// Submitting the same unit twice is a no-op.
func (r *Runtime) Submit(u types.Unit, complete func(types.Unit)) {
	t, ok := u.(*Task)
	if !ok {
		r.log.Error("Submitted unit was not spawned by this runtime", "unit", u.Name())
		return
	}
	if !t.submitted.CompareAndSwap(false, true) {
		r.log.Warn("Unit already submitted", "unit", t.name)
		return
	}
	go func() {
		err := types.Capture(t.fn, t.tc.WithContext(t.ctx))
		t.outcome = types.Outcome{Err: err}
		close(t.done)
		if complete != nil {
			complete(t)
		}
	}()
}

func (t *Task) Name() string {
	return t.name
}

// Cancel forces termination of the unit's scope. The body observes it
// through its context.
func (t *Task) Cancel() {
	t.cancel()
}

// Outcome is valid only after the completion callback has fired.
func (t *Task) Outcome() types.Outcome {
	select {
	case <-t.done:
		return t.outcome
	default:
		return types.Outcome{Err: errors.New("unit has not completed")}
	}
}

// Done exposes completion to tests that need to wait out of band.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
