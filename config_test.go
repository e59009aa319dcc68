package regress

import (
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/verilab/regress/flags"
)

// parseConfig runs NewConfig through a real cli invocation so flag
// defaults and env wiring behave exactly as in the binary.
func parseConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var cfg *Config
	var cfgErr error
	app := &cli.App{
		Flags: flags.Flags,
		Action: func(ctx *cli.Context) error {
			cfg, cfgErr = NewConfig(ctx, log.NewLogger(log.DiscardHandler()))
			return nil
		},
	}
	err := app.Run(append([]string{"regress"}, args...))
	require.NoError(t, err)
	return cfg, cfgErr
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(t, "--plan", "plan.yaml")
	require.NoError(t, err)
	assert.Equal(t, "results.xml", cfg.ResultsFile)
	assert.Equal(t, "all", cfg.SuiteName)
	assert.Equal(t, "all", cfg.PackageName)
	assert.NotZero(t, cfg.Seed, "zero seed must be replaced with a time-derived one")
	assert.False(t, cfg.PostMortem)
}

func TestNewConfigExplicitValues(t *testing.T) {
	cfg, err := parseConfig(t,
		"--plan", "plan.yaml",
		"--results-file", "out/nightly.xml",
		"--suite", "nightly",
		"--package", "dsp",
		"--seed", "42",
		"--color", "always",
		"--post-mortem")
	require.NoError(t, err)
	assert.Equal(t, "out/nightly.xml", cfg.ResultsFile)
	assert.Equal(t, "nightly", cfg.SuiteName)
	assert.Equal(t, "dsp", cfg.PackageName)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.True(t, cfg.Color)
	assert.True(t, cfg.PostMortem)
}

func TestNewConfigColorNever(t *testing.T) {
	cfg, err := parseConfig(t, "--plan", "plan.yaml", "--color", "never")
	require.NoError(t, err)
	assert.False(t, cfg.Color)
}

func TestNewConfigInvalidColorMode(t *testing.T) {
	_, err := parseConfig(t, "--plan", "plan.yaml", "--color", "sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid color mode")
}

func TestNewConfigRequiresPlan(t *testing.T) {
	// bypass cli's own Required handling to exercise CheckRequired
	app := &cli.App{
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flags.Plan.Name},
			flags.ResultsFile, flags.Suite, flags.Package, flags.Seed, flags.Color, flags.PostMortem,
		},
		Action: func(ctx *cli.Context) error {
			_, err := NewConfig(ctx, log.NewLogger(log.DiscardHandler()))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "missing required flags")
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"regress"}))
}
