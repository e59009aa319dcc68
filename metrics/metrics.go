package metrics

import (
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/verilab/regress/types"
)

const (
	MetricsNamespace = "regress"
)

var (
	Debug        bool = true
	validResults      = []types.TestStatus{
		types.TestStatusPass,
		types.TestStatusFail,
		types.TestStatusSkip,
		types.TestStatusExcluded,
	}

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Count of recorded test results",
	}, []string{
		"suite",
		"run_id",
		"test",
		"result",
	})

	regressionResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "regression_results",
		Help:      "Result of regression runs",
	}, []string{
		"suite",
		"run_id",
		"result",
	})

	regressionTestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "regression_test_total",
		Help:      "Total number of tests in a regression run",
	}, []string{
		"suite",
		"run_id",
	})

	regressionTestPassed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "regression_test_passed",
		Help:      "Number of passed tests in a regression run",
	}, []string{
		"suite",
		"run_id",
	})

	regressionTestFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "regression_test_failed",
		Help:      "Number of failed tests in a regression run",
	}, []string{
		"suite",
		"run_id",
	})

	regressionTestSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "regression_test_skipped",
		Help:      "Number of skipped tests in a regression run",
	}, []string{
		"suite",
		"run_id",
	})

	regressionWallDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "regression_wall_duration_seconds",
		Help:      "Wall-clock duration of a regression run",
	}, []string{
		"suite",
		"run_id",
	})

	regressionSimDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "regression_sim_duration_ns",
		Help:      "Simulated-time duration of a regression run",
	}, []string{
		"suite",
		"run_id",
	})
)

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordTest records the classified result of a single test.
func RecordTest(suite string, runID string, fullname string, result types.TestStatus) {
	if !isValidResult(result) {
		log.Error("RecordTest - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "tests_total",
			"suite", suite,
			"run_id", runID,
			"test", fullname,
			"result", result)
	}
	testsTotal.WithLabelValues(suite, runID, fullname, string(result)).Inc()
}

// RecordRegression records the aggregate outcome of a regression run.
func RecordRegression(
	suite string,
	runID string,
	result string,
	total int,
	passed int,
	failed int,
	skipped int,
	wall time.Duration,
	simNS float64,
) {
	regressionResults.WithLabelValues(suite, runID, result).Set(1)
	regressionTestTotal.WithLabelValues(suite, runID).Add(float64(total))
	regressionTestPassed.WithLabelValues(suite, runID).Add(float64(passed))
	regressionTestFailed.WithLabelValues(suite, runID).Add(float64(failed))
	regressionTestSkipped.WithLabelValues(suite, runID).Add(float64(skipped))
	regressionWallDuration.WithLabelValues(suite, runID).Set(wall.Seconds())
	regressionSimDuration.WithLabelValues(suite, runID).Set(simNS)
}

func isValidResult(result types.TestStatus) bool {
	return slices.Contains(validResults, result)
}
