package regress

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/verilab/regress/types"
)

// scoreTest classifies a completed outcome against the test's declared
// expectations. The fatal flag is independent of the pass/fail
// classification; a fatal outcome always forces teardown of the run.
func (m *RegressionManager) scoreTest(test *types.Test, outcome types.Outcome) (pass bool, fatal bool) {
	err := outcome.Err

	if err == nil {
		switch {
		case !test.ExpectFail && len(test.ExpectError) == 0:
			m.logTestPassed(test, nil, "")
			return true, false
		case len(test.ExpectError) > 0:
			m.logTestFailed(test, nil, "passed but we expected an error")
			return false, false
		default:
			m.logTestFailed(test, nil, "passed but we expected a failure")
			return false, false
		}
	}

	if types.IsSimFailure(err) {
		// whether expected or not, the simulation has failed unrecoverably
		if slices.Contains(test.ExpectError, types.KindSim) {
			m.logTestPassed(test, err, "errored as expected")
			return true, true
		}
		m.log.Error("Test error has led to simulator shutting us down", "test", test.Name)
		m.logTestFailed(test, err, "")
		return false, true
	}

	kind := types.KindOf(err)

	if kind == types.KindAssertion && test.ExpectFail {
		m.logTestPassed(test, err, "failed as expected")
		return true, false
	}

	if len(test.ExpectError) > 0 {
		if slices.Contains(test.ExpectError, kind) {
			m.logTestPassed(test, err, "errored as expected")
			return true, false
		}
		m.logTestFailed(test, err, fmt.Sprintf("errored with unexpected kind %q", kind))
		return false, false
	}

	m.logTestFailed(test, err, "")
	return false, false
}

// paint wraps s in the given ANSI color when color output is enabled.
func (m *RegressionManager) paint(c text.Color, s string) string {
	if !m.config.Color {
		return s
	}
	return c.Sprint(s)
}

func (m *RegressionManager) logTestPassed(test *types.Test, result error, msg string) {
	rest := ""
	if msg != "" {
		rest = ": " + msg
	}
	resultWas := ""
	if result != nil {
		resultWas = fmt.Sprintf(" (result was %s)", types.KindOf(result))
	}
	m.log.Info(fmt.Sprintf("%s %s%s%s", test.Name, m.paint(text.FgGreen, "passed"), rest, resultWas))
}

func (m *RegressionManager) logTestFailed(test *types.Test, result error, msg string) {
	rest := ""
	if msg != "" {
		rest = ": " + msg
	}
	if result != nil {
		m.log.Info(fmt.Sprintf("%s %s%s", test.Name, m.paint(text.FgRed, "failed"), rest), "error", result)
	} else {
		m.log.Info(fmt.Sprintf("%s %s%s", test.Name, m.paint(text.FgRed, "failed"), rest))
	}

	if !m.config.PostMortem || result == nil {
		return
	}
	var f *types.Failure
	if errors.As(result, &f) && len(f.Stack) > 0 {
		m.log.Error("Post-mortem stack for failing test", "test", test.Name, "stack", string(f.Stack))
	}
}
