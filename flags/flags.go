package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "REGRESS"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Plan = &cli.StringFlag{
		Name:     "plan",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVars("PLAN"),
		Usage:    "Path to regression plan file (eg. 'plan.yaml')",
	}
	ResultsFile = &cli.StringFlag{
		Name:    "results-file",
		Value:   "results.xml",
		EnvVars: prefixEnvVars("RESULTS_FILE"),
		Usage:   "Path the xUnit results file is written to",
	}
	Suite = &cli.StringFlag{
		Name:    "suite",
		Value:   "all",
		EnvVars: prefixEnvVars("SUITE"),
		Usage:   "Suite name recorded in the results file",
	}
	Package = &cli.StringFlag{
		Name:    "package",
		Value:   "all",
		EnvVars: prefixEnvVars("PACKAGE"),
		Usage:   "Package name recorded in the results file",
	}
	Seed = &cli.Uint64Flag{
		Name:    "seed",
		Value:   0,
		EnvVars: prefixEnvVars("SEED"),
		Usage:   "Global random seed. 0 derives a seed from the current time.",
	}
	Filter = &cli.StringSliceFlag{
		Name:    "filter",
		EnvVars: prefixEnvVars("FILTER"),
		Usage:   "Regex pattern for test fullnames; a match includes the test. May be repeated.",
	}
	Color = &cli.StringFlag{
		Name:    "color",
		Value:   "auto",
		EnvVars: prefixEnvVars("COLOR"),
		Usage:   "Color output: 'auto', 'always' or 'never'",
	}
	PostMortem = &cli.BoolFlag{
		Name:    "post-mortem",
		Value:   false,
		EnvVars: prefixEnvVars("POST_MORTEM"),
		Usage:   "Log captured stacks for failing tests",
	}
)

var requiredFlags = []cli.Flag{
	Plan,
}

var optionalFlags = []cli.Flag{
	ResultsFile,
	Suite,
	Package,
	Seed,
	Filter,
	Color,
	PostMortem,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
