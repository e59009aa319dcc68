package types

import (
	"context"
	"reflect"
	"runtime"
	"strings"
	"sync/atomic"
)

// idCounter assigns discovery ids. Process-wide and never reset, so id
// order always equals registration order.
var idCounter atomic.Uint64

// TestConfig describes one test to register. Unset Name and Module default
// to metadata derived from the body's function symbol.
type TestConfig struct {
	Body        TestFunc
	Name        string
	Module      string
	Doc         string
	TimeoutTime float64
	TimeoutUnit TimeUnit
	ExpectFail  bool
	ExpectError []FailureKind
	Skip        bool
	Stage       int
}

// Test is an immutable description of one test in a regression.
type Test struct {
	ID          uint64
	Body        TestFunc
	Name        string
	Module      string
	Fullname    string
	Doc         string
	File        string
	Line        int
	TimeoutTime float64
	TimeoutUnit TimeUnit
	ExpectFail  bool
	ExpectError []FailureKind
	Skip        bool
	Stage       int
}

// NewTest builds a test descriptor. When a timeout is configured the
// stored body races the original body against a clock timer; if the timer
// fires first the inner body is cancelled and a timeout failure is raised.
func NewTest(cfg TestConfig) *Test {
	t := &Test{
		ID:          idCounter.Add(1),
		Body:        cfg.Body,
		Name:        cfg.Name,
		Module:      cfg.Module,
		Doc:         cfg.Doc,
		TimeoutTime: cfg.TimeoutTime,
		TimeoutUnit: cfg.TimeoutUnit,
		ExpectFail:  cfg.ExpectFail,
		ExpectError: cfg.ExpectError,
		Skip:        cfg.Skip,
		Stage:       cfg.Stage,
	}

	if fn := funcMeta(cfg.Body); fn != nil {
		file, line := fn.FileLine(fn.Entry())
		t.File = file
		t.Line = line
		name, module := splitFuncName(fn.Name())
		if t.Name == "" {
			t.Name = name
		}
		if t.Module == "" {
			t.Module = module
		}
	}
	t.Fullname = t.Module + "." + t.Name

	if t.TimeoutTime > 0 {
		if t.TimeoutUnit == "" {
			t.TimeoutUnit = UnitStep
		}
		t.Body = withTimeout(cfg.Body, t.TimeoutTime, t.TimeoutUnit)
	}
	return t
}

// withTimeout races fn against a timer on the test's clock. The inner body
// runs under its own cancellable context; cancellation is scoped to it and
// never touches the surrounding regression.
func withTimeout(fn TestFunc, amount float64, unit TimeUnit) TestFunc {
	return func(tc *TestContext) error {
		parent := tc.Ctx
		if parent == nil {
			parent = context.Background()
		}
		innerCtx, cancel := context.WithCancel(parent)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- Capture(fn, tc.WithContext(innerCtx))
		}()

		select {
		case err := <-done:
			return err
		case <-tc.Clock.After(amount, unit):
			cancel()
			return NewTimeout(amount, unit)
		}
	}
}

func funcMeta(fn TestFunc) *runtime.Func {
	if fn == nil {
		return nil
	}
	return runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
}

// splitFuncName splits a runtime symbol like
// "github.com/verilab/regress/examples.SmokeTest" into the short function
// name and its package path.
func splitFuncName(symbol string) (name, module string) {
	slash := strings.LastIndex(symbol, "/")
	dot := strings.Index(symbol[slash+1:], ".")
	if dot < 0 {
		return symbol, ""
	}
	dot += slash + 1
	return symbol[dot+1:], symbol[:dot]
}
