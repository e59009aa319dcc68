package regress

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verilab/regress/sim"
	"github.com/verilab/regress/types"
)

// moduleSource is a canned TestSource for discovery tests.
type moduleSource map[string][]*types.Test

func (s moduleSource) ModuleTests(name string) ([]*types.Test, error) {
	return s[name], nil
}

type managerHarness struct {
	manager *RegressionManager
	clock   *sim.WallClock
	out     *bytes.Buffer
	results string
}

func newHarness(t *testing.T, mutate func(*Config)) *managerHarness {
	t.Helper()
	logger := log.NewLogger(log.DiscardHandler())
	out := &bytes.Buffer{}
	results := filepath.Join(t.TempDir(), "results.xml")
	cfg := &Config{
		ResultsFile: results,
		SuiteName:   "unit",
		PackageName: "regress",
		Seed:        1377424657,
		Out:         out,
		Log:         logger,
	}
	if mutate != nil {
		mutate(cfg)
	}
	clock := sim.NewWallClock()
	m, err := New(context.Background(), cfg, sim.NewRuntime(logger), clock)
	require.NoError(t, err)
	return &managerHarness{manager: m, clock: clock, out: out, results: results}
}

func passBody(tc *types.TestContext) error { return nil }

func namedTest(name string, stage int, body types.TestFunc) *types.Test {
	if body == nil {
		body = passBody
	}
	return types.NewTest(types.TestConfig{Body: body, Name: name, Module: "m", Stage: stage})
}

func TestNewRequiresCollaborators(t *testing.T) {
	logger := log.NewLogger(log.DiscardHandler())
	cfg := &Config{Log: logger}

	_, err := New(context.Background(), nil, sim.NewRuntime(logger), sim.NewWallClock())
	require.Error(t, err)

	_, err = New(context.Background(), cfg, nil, sim.NewWallClock())
	require.Error(t, err)

	_, err = New(context.Background(), cfg, sim.NewRuntime(logger), nil)
	require.Error(t, err)
}

func TestDiscoverTests(t *testing.T) {
	source := moduleSource{
		"m1": {namedTest("a", 0, nil), namedTest("b", 0, nil)},
		"m2": {namedTest("c", 0, nil)},
	}

	h := newHarness(t, nil)
	require.NoError(t, h.manager.DiscoverTests(source, "m1", "m2"))
	assert.Len(t, h.manager.queue, 3)
}

func TestDiscoverTestsEmptyModule(t *testing.T) {
	h := newHarness(t, nil)
	err := h.manager.DiscoverTests(moduleSource{}, "ghost")
	require.Error(t, err)
	assert.True(t, IsDiscoveryError(err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestDiscoverTestsNoModules(t *testing.T) {
	h := newHarness(t, nil)
	err := h.manager.DiscoverTests(moduleSource{})
	require.Error(t, err)

	var notFound *NoTestsFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestExecutionOrderByStageThenRegistration(t *testing.T) {
	var order []string
	body := func(name string) types.TestFunc {
		return func(tc *types.TestContext) error {
			order = append(order, name)
			return nil
		}
	}

	h := newHarness(t, nil)
	// registered out of stage order; registration order breaks the tie
	// inside each stage
	h.manager.RegisterTest(namedTest("late", 1, body("late")))
	h.manager.RegisterTest(namedTest("first", 0, body("first")))
	h.manager.RegisterTest(namedTest("second", 0, body("second")))
	h.manager.RegisterTest(namedTest("later", 1, body("later")))
	h.manager.StartRegression()

	assert.Equal(t, []string{"first", "second", "late", "later"}, order)
	assert.True(t, h.manager.Done())
}

func TestRegressionCounts(t *testing.T) {
	h := newHarness(t, nil)
	h.manager.RegisterTest(namedTest("passes", 0, nil))
	h.manager.RegisterTest(namedTest("asserts", 0, func(tc *types.TestContext) error {
		return types.Assertionf("wrong answer")
	}))
	h.manager.RegisterTest(types.NewTest(types.TestConfig{
		Body: passBody, Name: "skipped", Module: "m", Skip: true,
	}))
	h.manager.StartRegression()

	stats := h.manager.Stats()
	assert.Equal(t, Stats{Total: 3, Passed: 1, Failed: 1, Skipped: 1}, stats)

	results := h.manager.Results()
	require.Len(t, results, 3)
	assert.Equal(t, types.TestStatusPass, results[0].Status)
	assert.Equal(t, types.TestStatusFail, results[1].Status)
	assert.Equal(t, types.TestStatusSkip, results[2].Status)
	assert.True(t, results[0].Executed())
	assert.False(t, results[2].Executed())

	data, err := os.ReadFile(h.results)
	require.NoError(t, err)
	report := string(data)
	assert.Contains(t, report, `name="unit"`)
	assert.Contains(t, report, `random_seed" value="1377424657"`)
	assert.Contains(t, report, "Test failed with seed=")
	assert.Contains(t, report, "<skipped>")
}

func TestExpectationsHonoredEndToEnd(t *testing.T) {
	h := newHarness(t, nil)
	h.manager.RegisterTest(types.NewTest(types.TestConfig{
		Name: "expected_assertion", Module: "m", ExpectFail: true,
		Body: func(tc *types.TestContext) error { return types.Assertionf("on purpose") },
	}))
	h.manager.RegisterTest(types.NewTest(types.TestConfig{
		Name: "expected_timeout", Module: "m",
		TimeoutTime: 5e6, TimeoutUnit: types.UnitNS,
		ExpectError: []types.FailureKind{types.KindTimeout},
		Body: func(tc *types.TestContext) error {
			<-tc.Ctx.Done()
			return nil
		},
	}))
	h.manager.StartRegression()

	stats := h.manager.Stats()
	assert.Equal(t, 2, stats.Passed)
	assert.Zero(t, stats.Failed)
}

func TestFilterTests(t *testing.T) {
	h := newHarness(t, nil)
	h.manager.RegisterTest(namedTest("fifo_fill", 0, nil))
	h.manager.RegisterTest(namedTest("fifo_drain", 0, nil))
	h.manager.RegisterTest(namedTest("uart_loopback", 0, nil))
	require.NoError(t, h.manager.FilterTests("fifo_"))
	h.manager.StartRegression()

	stats := h.manager.Stats()
	assert.Equal(t, Stats{Total: 2, Passed: 2}, stats)

	// the excluded test is still reported, with no duration
	results := h.manager.Results()
	require.Len(t, results, 3)
	excluded := results[0]
	assert.Equal(t, "m.uart_loopback", excluded.Fullname)
	assert.Equal(t, types.TestStatusExcluded, excluded.Status)
	assert.False(t, excluded.Executed())
	assert.Zero(t, excluded.WallTime)
}

func TestFilterTestsInvalidPattern(t *testing.T) {
	h := newHarness(t, nil)
	h.manager.RegisterTest(namedTest("a", 0, nil))
	err := h.manager.FilterTests("fifo_(")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
	assert.Len(t, h.manager.queue, 1, "queue untouched on error")
}

func TestPerTestSeedingIsDeterministic(t *testing.T) {
	draw := func(t *testing.T) int64 {
		var got int64
		h := newHarness(t, nil)
		h.manager.RegisterTest(types.NewTest(types.TestConfig{
			Name: "seeded", Module: "m",
			Body: func(tc *types.TestContext) error {
				got = tc.Rand.Int63()
				return nil
			},
		}))
		h.manager.StartRegression()
		return got
	}

	first := draw(t)
	second := draw(t)
	assert.Equal(t, first, second, "same global seed and fullname must yield the same stream")
}

func TestSimFailureTearsDownAndDrainsQueue(t *testing.T) {
	var ran []string
	body := func(name string, err error) types.TestFunc {
		return func(tc *types.TestContext) error {
			ran = append(ran, name)
			return err
		}
	}

	h := newHarness(t, nil)
	h.manager.RegisterTest(namedTest("before", 0, body("before", nil)))
	h.manager.RegisterTest(namedTest("lethal", 0, body("lethal", types.NewSimFailure("bus hang"))))
	h.manager.RegisterTest(namedTest("never_runs", 0, body("never_runs", nil)))
	h.manager.RegisterTest(namedTest("never_runs_either", 0, body("never_runs_either", nil)))
	h.manager.StartRegression()

	assert.Equal(t, []string{"before", "lethal"}, ran)
	assert.True(t, h.manager.Done())
	assert.True(t, h.clock.Stopped())

	// the drained remainder counts against the run
	stats := h.manager.Stats()
	assert.Equal(t, Stats{Total: 4, Passed: 1, Failed: 3}, stats)

	data, err := os.ReadFile(h.results)
	require.NoError(t, err)
	assert.Contains(t, string(data), "simulator session unusable")
}

func TestTeardownIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	h.manager.RegisterTest(namedTest("only", 0, nil))
	h.manager.StartRegression()
	require.True(t, h.manager.Done())

	before := h.manager.Stats()
	h.manager.Abort()
	h.manager.Abort()
	assert.Equal(t, before, h.manager.Stats())

	// the summary table was rendered exactly once
	rendered := stripansi.Strip(h.out.String())
	assert.Equal(t, 1, strings.Count(rendered, "TESTS=1 PASS=1 FAIL=0 SKIP=0"))
}

func TestSynchronousInitFailureStaysLocal(t *testing.T) {
	h := newHarness(t, nil)
	h.manager.RegisterTest(types.NewTest(types.TestConfig{Name: "bodyless", Module: "m"}))
	h.manager.RegisterTest(namedTest("survivor", 0, nil))
	h.manager.StartRegression()

	stats := h.manager.Stats()
	assert.Equal(t, Stats{Total: 2, Passed: 1, Failed: 1}, stats)

	results := h.manager.Results()
	require.Len(t, results, 2)
	assert.Equal(t, types.TestStatusFail, results[0].Status)
	assert.Zero(t, results[0].WallTime, "failed before it ever started")
	assert.Equal(t, types.TestStatusPass, results[1].Status)
}

func TestSummaryTable(t *testing.T) {
	h := newHarness(t, func(cfg *Config) { cfg.Color = true })
	h.manager.RegisterTest(namedTest("green", 0, nil))
	h.manager.RegisterTest(namedTest("red", 0, func(tc *types.TestContext) error {
		return types.Assertionf("nope")
	}))
	h.manager.RegisterTest(types.NewTest(types.TestConfig{
		Body: passBody, Name: "yellow", Module: "m", Skip: true,
	}))
	h.manager.StartRegression()

	rendered := stripansi.Strip(h.out.String())
	assert.Contains(t, rendered, "TEST")
	assert.Contains(t, rendered, "SIM TIME")
	assert.Contains(t, rendered, "RATIO")
	assert.Contains(t, rendered, "m.green")
	assert.Contains(t, rendered, "PASS")
	assert.Contains(t, rendered, "FAIL")
	assert.Contains(t, rendered, "SKIP")
	// skipped tests never executed and get the duration placeholder
	assert.Contains(t, rendered, "-.--")
	assert.Contains(t, rendered, "TESTS=3 PASS=1 FAIL=1 SKIP=1")
}

func TestOverallStatus(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, types.TestStatusPass, h.manager.overallStatus())

	h.manager.skipped = 2
	assert.Equal(t, types.TestStatusSkip, h.manager.overallStatus())

	h.manager.passed = 1
	assert.Equal(t, types.TestStatusPass, h.manager.overallStatus())

	h.manager.failures = 1
	assert.Equal(t, types.TestStatusFail, h.manager.overallStatus())
}

func TestRunIDsAreUnique(t *testing.T) {
	a := newHarness(t, nil)
	b := newHarness(t, nil)
	assert.NotEmpty(t, a.manager.RunID())
	assert.NotEqual(t, a.manager.RunID(), b.manager.RunID())
}
