package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/firefly/internal/config"
	"github.com/copyleftdev/firefly/internal/logging"
	"github.com/copyleftdev/firefly/internal/optimization"
	"github.com/copyleftdev/firefly/internal/optimization/firefly"
	"github.com/copyleftdev/firefly/internal/optimization/objective"
	"github.com/copyleftdev/firefly/internal/output"
)

type runOptions struct {
	fireflies  int
	iterations int
	bounds     optimization.Rect
	objective  string
	alpha      float64
	gamma      float64
	seed       int64
	workers    int
	mode       string
	kernel     string
	schedule   string
	alphaFloor float64
	scaleGamma bool
	init       string
	tolerance  float64
	rank       bool
	selectBest bool
	outDir     string
	chart      bool
}

func newRunCmd(c *cli) *cobra.Command {
	o := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the optimizer and write start.dat and end.dat",
		Long: `Runs the Firefly Algorithm and writes the initial and final positions,
one "x y" line per firefly, to start.dat and end.dat in the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, c.logger)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&o.fireflies, "fireflies", "n", 40, "Number of fireflies")
	f.IntVarP(&o.iterations, "iterations", "t", 100, "Number of generations")
	f.Float64Var(&o.bounds.Min.X, "min-x", -5, "Lower bound on x")
	f.Float64Var(&o.bounds.Min.Y, "min-y", -5, "Lower bound on y")
	f.Float64Var(&o.bounds.Max.X, "max-x", 5, "Upper bound on x")
	f.Float64Var(&o.bounds.Max.Y, "max-y", 5, "Upper bound on y")
	f.StringVar(&o.objective, "objective", "dejong", "Objective function (see 'firefly objectives')")
	f.Float64Var(&o.alpha, "alpha", 0.2, "Randomness step")
	f.Float64Var(&o.gamma, "gamma", 1.0, "Light absorption coefficient")
	f.Int64Var(&o.seed, "seed", 0, "Random seed (0 = time-based)")
	f.IntVar(&o.workers, "workers", config.GetEnvAsInt("FIREFLY_WORKERS", 1), "Goroutines used by the movement pass")
	f.StringVar(&o.mode, "mode", string(firefly.ModeStandard), "Movement mode: standard, hybrid")
	f.StringVar(&o.kernel, "kernel", "gaussian", "Attractiveness kernel: gaussian, inverse")
	f.StringVar(&o.schedule, "schedule", "", "Alpha schedule: constant, log (default follows --mode)")
	f.Float64Var(&o.alphaFloor, "alpha-floor", 0, "Smallest alpha the log schedule anneals to")
	f.BoolVar(&o.scaleGamma, "scale-gamma", false, "Divide gamma by the width of the x range")
	f.StringVar(&o.init, "init", string(firefly.InitUniform), "Initial placement: uniform, lhs")
	f.Float64Var(&o.tolerance, "tolerance", 0, "Stop once the mean intensity changes less than this (0 = off)")
	f.BoolVar(&o.rank, "rank", false, "Sort fireflies by intensity every generation")
	f.BoolVar(&o.selectBest, "select-best", true, "Report the brightest final firefly")
	f.StringVarP(&o.outDir, "out-dir", "o", ".", "Directory for start.dat and end.dat")
	f.BoolVar(&o.chart, "chart", config.GetEnvAsBool("FIREFLY_CHART", false), "Also render swarm.html with both swarms")

	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, logger *logging.Logger) error {
	obj, err := objective.Lookup(o.objective)
	if err != nil {
		return err
	}

	cfg := firefly.DefaultConfig()
	cfg.Fireflies = o.fireflies
	cfg.Iterations = o.iterations
	cfg.Bounds = o.bounds
	cfg.Alpha = o.alpha
	cfg.Gamma = o.gamma
	cfg.Workers = o.workers
	cfg.Mode = firefly.Mode(o.mode)
	cfg.Kernel = o.kernel
	cfg.Schedule = o.schedule
	cfg.AlphaFloor = o.alphaFloor
	cfg.ScaleGamma = o.scaleGamma
	cfg.Init = firefly.Init(o.init)
	cfg.Tolerance = o.tolerance
	cfg.Rank = o.rank
	cfg.SelectBest = o.selectBest

	sinks := output.Multi{output.NewFileSink(o.outDir)}
	if o.chart {
		sinks = append(sinks, output.NewChartSink(filepath.Join(o.outDir, output.ChartFile), o.objective))
	}

	opt, err := firefly.New(cfg,
		firefly.WithSeed(o.seed),
		firefly.WithSink(sinks),
		firefly.WithLogger(logging.NewZapLogger(logger.WithField("objective", o.objective))),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := opt.Run(cmd.Context(), obj)
	if result == nil {
		return err
	}

	logger.Info("Run finished", map[string]interface{}{
		"iterations": result.Iterations,
		"converged":  result.Converged,
		"elapsed":    time.Since(start).String(),
	})

	out := cmd.OutOrStdout()
	if result.Best != nil {
		fmt.Fprintf(out, "best %s intensity %.6g\n", result.Best.Position, result.Best.Intensity)
	}
	fmt.Fprintf(out, "generations %d converged %t\n", result.Iterations, result.Converged)
	return err
}
