package regress

import (
	"fmt"
	"math"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/verilab/regress/types"
)

// logSummary renders the aligned per-test summary table. Column widths
// follow the longest test name (go-pretty sizes to content, including the
// totals row) and the totals row aggregates from the regression's overall
// start time rather than summing individual durations.
func (m *RegressionManager) logSummary() {
	if len(m.results) == 0 {
		return
	}

	wallTotal := time.Since(m.regressionStartWall).Seconds()
	simTotal := m.clock.Now(types.UnitNS) - m.regressionStartSim
	ratioTotal := types.SpeedRatio(simTotal, wallTotal)

	t := table.NewWriter()
	t.SetOutputMirror(m.config.Out)
	t.AppendHeader(table.Row{"TEST", "STATUS", "SIM TIME (ns)", "REAL TIME (s)", "RATIO (ns/s)"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "STATUS", Align: text.AlignCenter},
		{Name: "SIM TIME (ns)", Align: text.AlignRight},
		{Name: "REAL TIME (s)", Align: text.AlignRight},
		{Name: "RATIO (ns/s)", Align: text.AlignRight},
	})

	for _, result := range m.results {
		t.AppendRow(table.Row{
			result.Fullname,
			m.statusCell(result.Status),
			fmt.Sprintf("%.2f", result.SimTime),
			fmt.Sprintf("%.2f", result.WallTime.Seconds()),
			formatRatio(result),
		})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("TESTS=%d PASS=%d FAIL=%d SKIP=%d", m.ntests, m.passed, m.failures, m.skipped),
		"",
		fmt.Sprintf("%.2f", simTotal),
		fmt.Sprintf("%.2f", wallTotal),
		fmt.Sprintf("%.2f", ratioTotal),
	})

	t.Render()
}

func (m *RegressionManager) statusCell(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return m.paint(text.FgGreen, "PASS")
	case types.TestStatusFail:
		return m.paint(text.FgRed, "FAIL")
	case types.TestStatusSkip:
		return m.paint(text.FgYellow, "SKIP")
	default:
		return m.paint(text.FgYellow, "EXCL")
	}
}

// formatRatio prints the speed ratio, with a placeholder for tests that
// never executed.
func formatRatio(result *types.TestResult) string {
	if !result.Executed() {
		return "-.--"
	}
	if math.IsNaN(result.Ratio) {
		return "nan"
	}
	if math.IsInf(result.Ratio, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", result.Ratio)
}
