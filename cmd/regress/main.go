package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/verilab/regress"
	"github.com/verilab/regress/examples/smoke"
	"github.com/verilab/regress/exitcodes"
	"github.com/verilab/regress/flags"
	"github.com/verilab/regress/registry"
	"github.com/verilab/regress/service"
	"github.com/verilab/regress/sim"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "regress"
	app.Usage = "Simulation regression runner"
	app.Description = "regress runs a regression of simulation tests and reports the results"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if regress.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	svc := service.New()
	svc.Start(context.Background())
	defer svc.Shutdown()

	if err := app.Run(os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context) error {
	logger := log.New()

	plan, err := registry.LoadPlan(ctx.String(flags.Plan.Name))
	if err != nil {
		return regress.NewRuntimeError(fmt.Errorf("failed to load plan: %w", err))
	}

	cfg, err := regress.NewConfig(ctx, logger)
	if err != nil {
		return regress.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	applyPlan(ctx, cfg, plan)

	reg := registry.NewRegistry(registry.Config{Log: logger})
	if err := smoke.Register(reg, logger); err != nil {
		return regress.NewRuntimeError(fmt.Errorf("failed to register modules: %w", err))
	}

	manager, err := regress.New(ctx.Context, cfg, sim.NewRuntime(logger), sim.NewWallClock())
	if err != nil {
		return regress.NewRuntimeError(fmt.Errorf("failed to create regression manager: %w", err))
	}

	if err := manager.DiscoverTests(reg, plan.Modules...); err != nil {
		return regress.NewRuntimeError(err)
	}

	filters := append(plan.Filters, ctx.StringSlice(flags.Filter.Name)...)
	if len(filters) > 0 {
		if err := manager.FilterTests(filters...); err != nil {
			return regress.NewRuntimeError(err)
		}
	}

	manager.StartRegression()

	if stats := manager.Stats(); stats.Failed > 0 {
		return regress.NewTestFailureError(
			fmt.Sprintf("%d of %d tests failed (run %s)", stats.Failed, stats.Total, manager.RunID()))
	}
	return nil
}

// applyPlan lets the plan file fill in report identity settings that were
// not set explicitly on the command line.
func applyPlan(ctx *cli.Context, cfg *regress.Config, plan *registry.Plan) {
	if plan.Suite != "" && !ctx.IsSet(flags.Suite.Name) {
		cfg.SuiteName = plan.Suite
	}
	if plan.Package != "" && !ctx.IsSet(flags.Package.Name) {
		cfg.PackageName = plan.Package
	}
	if plan.ResultsFile != "" && !ctx.IsSet(flags.ResultsFile.Name) {
		cfg.ResultsFile = plan.ResultsFile
	}
	if plan.Seed != nil && !ctx.IsSet(flags.Seed.Name) {
		cfg.Seed = *plan.Seed
	}
}
