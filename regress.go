// Package regress orchestrates a regression of simulation tests: it owns
// discovery bookkeeping, deterministic ordering, sequential hand-off to an
// asynchronous task runtime, outcome classification, per-test seeding and
// result reporting.
package regress

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/verilab/regress/metrics"
	"github.com/verilab/regress/reporting"
	"github.com/verilab/regress/types"
)

// TestSource resolves a module name to its exported test collection. The
// manager never inspects module internals beyond this interface.
type TestSource interface {
	ModuleTests(name string) ([]*types.Test, error)
}

// Manager lifecycle states. Exactly one owner performs the
// Running -> TearingDown -> Done transitions.
const (
	stateRunning int32 = iota
	stateTearingDown
	stateDone
)

// Stats are the running counters of a regression.
type Stats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// RegressionManager encapsulates all regression capability in a single
// place. It is single-threaded and cooperative: one test is in flight at a
// time and the submit-to-callback boundary with the task runtime is the
// only suspension point.
type RegressionManager struct {
	ctx     context.Context
	config  *Config
	log     log.Logger
	runtime types.Runtime
	clock   types.Clock
	runID   string

	queue    []*types.Test
	excluded []*types.Test

	ntests   int
	count    int
	passed   int
	skipped  int
	failures int

	test *types.Test // currently executing test
	unit types.Unit  // its schedulable unit

	testStartWall time.Time
	testStartSim  float64

	regressionStartWall time.Time
	regressionStartSim  float64

	results []*types.TestResult
	xunit   *reporting.XUnitReporter

	state       atomic.Int32
	completions chan types.Unit
}

// New creates a regression manager. The runtime and clock are the external
// collaborators the manager hands execution off to.
func New(ctx context.Context, cfg *Config, runtime types.Runtime, clock types.Clock) (*RegressionManager, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if runtime == nil {
		return nil, errors.New("task runtime is required")
	}
	if clock == nil {
		return nil, errors.New("time source is required")
	}
	cfg = cfg.withDefaults()

	m := &RegressionManager{
		ctx:         ctx,
		config:      cfg,
		log:         cfg.Log,
		runtime:     runtime,
		clock:       clock,
		runID:       uuid.New().String(),
		xunit:       reporting.NewXUnitReporter(cfg.ResultsFile),
		completions: make(chan types.Unit, 1),
	}
	m.xunit.AddTestsuite(cfg.SuiteName, cfg.PackageName)
	m.xunit.AddProperty("random_seed", strconv.FormatUint(cfg.Seed, 10))

	m.log.Debug("Created regression manager",
		"run_id", m.runID,
		"suite", cfg.SuiteName,
		"seed", cfg.Seed,
		"results_file", cfg.ResultsFile)
	return m, nil
}

// RunID returns the unique identifier of this regression run.
func (m *RegressionManager) RunID() string {
	return m.runID
}

// DiscoverTests resolves each referenced module's exported tests through
// the source and registers them. Should be called before StartRegression.
func (m *RegressionManager) DiscoverTests(source TestSource, modules ...string) error {
	for _, module := range modules {
		m.log.Debug("Searching for tests in module", "module", module)
		tests, err := source.ModuleTests(module)
		if err != nil {
			return &DiscoveryError{Module: module, Err: err}
		}
		if len(tests) == 0 {
			return &DiscoveryError{Module: module}
		}
		for _, test := range tests {
			m.RegisterTest(test)
		}
	}

	if len(m.queue) == 0 {
		return &NoTestsFoundError{Modules: modules}
	}
	return nil
}

// FilterTests partitions the queue against the given regex patterns: tests
// whose fullname matches at least one pattern stay queued, the rest are
// excluded and recorded as zero-duration results without ever reaching
// initialization. An empty included set is a warning, not an error.
func (m *RegressionManager) FilterTests(patterns ...string) error {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}

	var included, excluded []*types.Test
	for _, test := range m.queue {
		matched := false
		for _, re := range compiled {
			if re.MatchString(test.Fullname) {
				matched = true
				break
			}
		}
		if matched {
			included = append(included, test)
		} else {
			m.log.Debug("Filtered out test", "test", test.Fullname)
			excluded = append(excluded, test)
		}
	}

	if len(included) == 0 {
		m.log.Warn("No tests left after filtering", "patterns", patterns)
	}

	m.queue = included
	m.excluded = append(m.excluded, excluded...)
	return nil
}

// RegisterTest appends a test to the tail of the pending queue, preserving
// discovery order. Should be called before StartRegression.
func (m *RegressionManager) RegisterTest(test *types.Test) {
	m.log.Debug("Registered test", "test", test.Fullname)
	m.queue = append(m.queue, test)
}

// StartRegression sorts the queue by (stage, discovery id), records the
// previously excluded tests and runs the execution loop to completion.
// Should be called only once.
func (m *RegressionManager) StartRegression() {
	sort.SliceStable(m.queue, func(i, j int) bool {
		if m.queue[i].Stage != m.queue[j].Stage {
			return m.queue[i].Stage < m.queue[j].Stage
		}
		return m.queue[i].ID < m.queue[j].ID
	})

	m.ntests = len(m.queue)
	m.count = 1

	for _, test := range m.excluded {
		m.recordExcluded(test)
	}

	m.regressionStartWall = time.Now()
	m.regressionStartSim = m.clock.Now(types.UnitNS)
	m.execute()
}

// Stats returns the running counters of the regression.
func (m *RegressionManager) Stats() Stats {
	return Stats{
		Total:   m.ntests,
		Passed:  m.passed,
		Failed:  m.failures,
		Skipped: m.skipped,
	}
}

// Results returns the recorded results in execution order.
func (m *RegressionManager) Results() []*types.TestResult {
	return m.results
}

// Done reports whether teardown has completed.
func (m *RegressionManager) Done() bool {
	return m.state.Load() == stateDone
}

// Abort initiates teardown from outside the execution loop, draining every
// queued test. Idempotent; only the first transition wins.
func (m *RegressionManager) Abort() {
	m.tearDown()
}

// execute is the sequential loop: pop, initialize, submit, suspend until
// the completion callback, record, repeat. An empty queue enters teardown.
func (m *RegressionManager) execute() {
	for m.state.Load() == stateRunning {
		test := m.nextTest()
		if test == nil {
			m.tearDown()
			return
		}
		m.test = test

		unit := m.initTest(test)
		if unit == nil {
			// skipped or failed synchronously; no unit to run
			continue
		}
		m.unit = unit

		m.startTest(test, unit)
		u := <-m.completions // the only suspension point
		m.handleResult(u)
	}
}

// nextTest pops the head of the queue, or nil when it is drained.
func (m *RegressionManager) nextTest() *types.Test {
	if len(m.queue) == 0 {
		return nil
	}
	test := m.queue[0]
	m.queue = m.queue[1:]
	return test
}

// initTest initializes a test. Skipped tests and synchronous spawn
// failures are recorded immediately and yield no unit. On success the
// process-wide random stream for the test is derived from the global seed
// and a stable hash of the fullname.
func (m *RegressionManager) initTest(test *types.Test) types.Unit {
	if test.Skip {
		m.recordSkipped(test)
		return nil
	}

	seed := deriveSeed(m.config.Seed, test.Fullname)
	tc := &types.TestContext{
		Ctx:   m.ctx,
		Rand:  rand.New(rand.NewSource(int64(seed))),
		Clock: m.clock,
		Log:   m.log.New("test", test.Name),
		Name:  test.Name,
	}

	unit, err := m.runtime.Spawn(test.Name, test.Body, tc)
	if err != nil {
		m.log.Error("Failed to initialize test", "test", test.Name, "error", err)
		m.recordResult(test, types.Outcome{Err: types.NewFailure(types.KindGeneric, err)}, 0, 0)
		return nil
	}
	return unit
}

// startTest logs the progress line, snapshots both time bases and hands
// the unit to the task runtime.
func (m *RegressionManager) startTest(test *types.Test, unit types.Unit) {
	m.log.Info(fmt.Sprintf("%s %s (%d/%d)%s",
		m.paint(text.FgCyan, "running"), test.Name, m.count, m.ntests, docBrief(test.Doc)))

	m.testStartWall = time.Now()
	m.testStartSim = m.clock.Now(types.UnitNS)
	m.runtime.Submit(unit, func(u types.Unit) {
		m.completions <- u
	})
}

// handleResult computes elapsed wall and simulated time for the completed
// unit and records the scored result.
func (m *RegressionManager) handleResult(u types.Unit) {
	wall := time.Since(m.testStartWall)
	sim := m.clock.Now(types.UnitNS) - m.testStartSim
	m.recordResult(m.test, u.Outcome(), wall, sim)
}

// recordResult scores and records one completed (or synchronously failed)
// test. A fatal outcome triggers teardown.
func (m *RegressionManager) recordResult(test *types.Test, outcome types.Outcome, wall time.Duration, sim float64) {
	ratio := types.SpeedRatio(sim, wall.Seconds())

	m.xunit.AddTestcase(test.Name, test.Module, test.File, test.Line, wall, sim, ratio)

	pass, fatal := m.scoreTest(test, outcome)
	status := types.TestStatusPass
	if pass {
		m.passed++
	} else {
		status = types.TestStatusFail
		m.failures++
		m.xunit.AddFailure(fmt.Sprintf("Test failed with seed=%d", deriveSeed(m.config.Seed, test.Fullname)))
	}
	m.count++

	m.results = append(m.results, &types.TestResult{
		Fullname: test.Fullname,
		Status:   status,
		SimTime:  sim,
		WallTime: wall,
		Ratio:    ratio,
	})
	metrics.RecordTest(m.config.SuiteName, m.runID, test.Fullname, status)

	if fatal {
		m.tearDown()
	}
}

// recordSkipped records a test that never initializes because its skip
// flag is set.
func (m *RegressionManager) recordSkipped(test *types.Test) {
	m.log.Info(fmt.Sprintf("%s %s (%d/%d)%s",
		m.paint(text.FgYellow, "skipping"), test.Name, m.count, m.ntests, docBrief(test.Doc)))

	m.xunit.AddTestcase(test.Name, test.Module, test.File, test.Line, 0, 0, 0)
	m.xunit.AddSkipped()

	m.results = append(m.results, &types.TestResult{
		Fullname: test.Fullname,
		Status:   types.TestStatusSkip,
	})
	metrics.RecordTest(m.config.SuiteName, m.runID, test.Fullname, types.TestStatusSkip)

	m.skipped++
	m.count++
}

// recordExcluded records a filtered-out test. Excluded tests never reach
// initialization and are not part of the run's counters.
func (m *RegressionManager) recordExcluded(test *types.Test) {
	m.xunit.AddTestcase(test.Name, test.Module, test.File, test.Line, 0, 0, 0)
	m.xunit.AddSkipped()

	m.results = append(m.results, &types.TestResult{
		Fullname: test.Fullname,
		Status:   types.TestStatusExcluded,
	})
	metrics.RecordTest(m.config.SuiteName, m.runID, test.Fullname, types.TestStatusExcluded)
}

// recordAborted force-fails a queued test during teardown so aggregate
// counts reflect that no further progress was possible.
func (m *RegressionManager) recordAborted(test *types.Test) {
	m.xunit.AddTestcase(test.Name, test.Module, test.File, test.Line, 0, 0, 0)
	m.xunit.AddFailure(fmt.Sprintf("Test aborted: simulator session unusable (seed=%d)", m.config.Seed))

	m.failures++
	m.count++
	m.results = append(m.results, &types.TestResult{
		Fullname: test.Fullname,
		Status:   types.TestStatusFail,
	})
	metrics.RecordTest(m.config.SuiteName, m.runID, test.Fullname, types.TestStatusFail)
}

// tearDown drains the queue, emits the summary, flushes the report and
// stops the simulation session. The state latch makes second and later
// invocations no-ops.
func (m *RegressionManager) tearDown() {
	if !m.state.CompareAndSwap(stateRunning, stateTearingDown) {
		return
	}

	for {
		test := m.nextTest()
		if test == nil {
			break
		}
		m.recordAborted(test)
	}

	m.logSummary()

	if err := m.xunit.Write(); err != nil {
		m.log.Error("Failed to write results file", "error", err)
		metrics.RecordError("failed to write results file")
	}

	metrics.RecordRegression(
		m.config.SuiteName,
		m.runID,
		string(m.overallStatus()),
		m.ntests,
		m.passed,
		m.failures,
		m.skipped,
		time.Since(m.regressionStartWall),
		m.clock.Now(types.UnitNS)-m.regressionStartSim,
	)

	m.clock.Stop()
	m.state.Store(stateDone)
	m.log.Debug("Regression torn down", "run_id", m.runID)
}

func (m *RegressionManager) overallStatus() types.TestStatus {
	switch {
	case m.failures > 0:
		return types.TestStatusFail
	case m.passed == 0 && m.skipped > 0:
		return types.TestStatusSkip
	default:
		return types.TestStatusPass
	}
}

// docBrief formats the first line of a test's documentation for progress
// log lines.
func docBrief(doc string) string {
	if doc == "" {
		return ""
	}
	for i := 0; i < len(doc); i++ {
		if doc[i] == '\n' {
			doc = doc[:i]
			break
		}
	}
	return "\n    " + doc
}
