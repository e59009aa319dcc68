package regress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/verilab/regress/flags"
)

// Config holds the regression configuration. It is owned by the embedding
// harness and consumed read-only by the manager.
type Config struct {
	ResultsFile string    // Path the xUnit report is written to
	SuiteName   string    // Suite name recorded in the report
	PackageName string    // Package label recorded in the report
	Seed        uint64    // Global random seed, combined per test with a hash of its fullname
	Color       bool      // Highlight statuses in logs and the summary table
	PostMortem  bool      // Log captured stacks for failing tests
	Out         io.Writer // Destination for the summary table; defaults to stdout
	Log         log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	seed := ctx.Uint64(flags.Seed.Name)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	var color bool
	switch mode := ctx.String(flags.Color.Name); mode {
	case "always":
		color = true
	case "never":
		color = false
	case "auto", "":
		color = isatty.IsTerminal(os.Stdout.Fd())
	default:
		return nil, fmt.Errorf("invalid color mode %q. Must be one of: auto, always, never", mode)
	}

	return &Config{
		ResultsFile: ctx.String(flags.ResultsFile.Name),
		SuiteName:   ctx.String(flags.Suite.Name),
		PackageName: ctx.String(flags.Package.Name),
		Seed:        seed,
		Color:       color,
		PostMortem:  ctx.Bool(flags.PostMortem.Name),
		Out:         os.Stdout,
		Log:         logger,
	}, nil
}

// withDefaults fills unset fields so a partially populated Config is usable
// from library code.
func (c *Config) withDefaults() *Config {
	if c.ResultsFile == "" {
		c.ResultsFile = "results.xml"
	}
	if c.SuiteName == "" {
		c.SuiteName = "all"
	}
	if c.PackageName == "" {
		c.PackageName = "all"
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.Log == nil {
		c.Log = log.New()
	}
	return c
}
