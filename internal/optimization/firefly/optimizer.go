// Package firefly implements the Firefly Algorithm over a bounded 2-D domain.
//
// A run keeps two populations: the current one, which is evaluated and moved,
// and a snapshot of the previous generation that every firefly is compared
// against and attracted toward during the move.
package firefly

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/copyleftdev/firefly/internal/optimization"
	"github.com/copyleftdev/firefly/internal/optimization/kernels"
	"github.com/copyleftdev/firefly/internal/optimization/schedule"
)

// Objective writes the light intensity of every firefly from its position.
// It must not keep hidden state: evaluating identical positions has to give
// identical intensities. Brighter means larger.
type Objective func(pop *Population)

// Mode selects the movement variant.
type Mode string

const (
	// ModeStandard uses a fixed alpha and leaves unattracted fireflies in place.
	ModeStandard Mode = "standard"
	// ModeHybrid anneals alpha as alpha/ln(k+2) and gives unattracted
	// fireflies a random step.
	ModeHybrid Mode = "hybrid"
)

// Init selects how the first generation is placed.
type Init string

const (
	// InitUniform scatters every firefly uniformly over the domain.
	InitUniform Init = "uniform"
	// InitLHS places the first generation as a Latin hypercube sample.
	InitLHS Init = "lhs"
)

// Stage identifies which point set a Sink is receiving.
type Stage string

const (
	StageStart Stage = "start"
	StageEnd   Stage = "end"
)

// Sink receives the initial and final positions of a run.
type Sink interface {
	WritePositions(stage Stage, pop *Population) error
}

// Observer is notified about run progress.
type Observer interface {
	RunStarted(cfg Config)
	GenerationDone(generation int, elapsed time.Duration)
	RunFinished(result *optimization.Result, elapsed time.Duration, err error)
}

// Config contains the configuration of a run
type Config struct {
	// Number of fireflies
	Fireflies int `json:"fireflies"`

	// Number of generations; zero writes the initial positions as the final ones
	Iterations int `json:"iterations"`

	// Search rectangle
	Bounds optimization.Rect `json:"bounds"`

	// Randomness step
	Alpha float64 `json:"alpha"`

	// Light absorption coefficient
	Gamma float64 `json:"gamma"`

	// Goroutines used by the movement pass; 0 or 1 runs sequentially
	Workers int `json:"workers"`

	// Movement variant
	Mode Mode `json:"mode"`

	// Attractiveness kernel: "gaussian" (default) or "inverse"
	Kernel string `json:"kernel,omitempty"`

	// Alpha schedule: "constant" or "log"; empty follows the mode
	Schedule string `json:"schedule,omitempty"`

	// Lower bound for the annealed alpha of the log schedule
	AlphaFloor float64 `json:"alpha_floor,omitempty"`

	// Divide gamma by the domain width so attraction does not depend on
	// the scale of the search rectangle
	ScaleGamma bool `json:"scale_gamma,omitempty"`

	// Placement of the first generation; empty means uniform
	Init Init `json:"init,omitempty"`

	// Sort the population by intensity after each evaluation
	Rank bool `json:"rank"`

	// Evaluate the final population and report its brightest firefly
	SelectBest bool `json:"select_best"`

	// Stop once the mean intensity changes by less than this between
	// generations; zero always runs all iterations
	Tolerance float64 `json:"tolerance"`
}

// DefaultConfig returns a configuration with the standard constants
// (alpha 0.2, gamma 1.0) and no population or domain.
func DefaultConfig() Config {
	return Config{
		Alpha: 0.2,
		Gamma: 1.0,
		Mode:  ModeStandard,
	}
}

// Validate rejects configurations a run cannot start with.
func (c Config) Validate() error {
	fail := func(format string, args ...interface{}) error {
		return optimization.NewErrorf(optimization.KindConfig, format, args...).
			WithComponent("firefly").WithOperation("validate")
	}
	if c.Fireflies <= 0 {
		return fail("fireflies must be positive, got %d", c.Fireflies)
	}
	if c.Iterations < 0 {
		return fail("iterations must not be negative, got %d", c.Iterations)
	}
	if err := c.Bounds.Validate(); err != nil {
		return err
	}
	if c.Alpha < 0 || math.IsNaN(c.Alpha) {
		return fail("alpha must not be negative, got %v", c.Alpha)
	}
	if c.Gamma < 0 || math.IsNaN(c.Gamma) {
		return fail("gamma must not be negative, got %v", c.Gamma)
	}
	if c.Workers < 0 {
		return fail("workers must not be negative, got %d", c.Workers)
	}
	if c.Tolerance < 0 {
		return fail("tolerance must not be negative, got %v", c.Tolerance)
	}
	if c.AlphaFloor < 0 || math.IsNaN(c.AlphaFloor) {
		return fail("alpha floor must not be negative, got %v", c.AlphaFloor)
	}
	switch c.Mode {
	case "", ModeStandard, ModeHybrid:
	default:
		return fail("unknown mode %q", c.Mode)
	}
	switch c.Init {
	case "", InitUniform, InitLHS:
	default:
		return fail("unknown init %q", c.Init)
	}
	return nil
}

// Optimizer runs the Firefly Algorithm
type Optimizer struct {
	config   Config
	src      Source
	sink     Sink
	logger   *zap.Logger
	observer Observer
	pool     *Pool
	kernel   kernels.Kernel
	schedule schedule.Schedule
}

// New creates an Optimizer for cfg. Invalid configurations are rejected with
// a KindConfig error.
func New(cfg Config, opts ...Option) (*Optimizer, error) {
	o := &Optimizer{
		config: cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.config.Mode == "" {
		o.config.Mode = ModeStandard
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}
	cfg = o.config

	if o.src == nil {
		o.src = NewSource(0)
	}
	if o.kernel == nil {
		k, err := kernels.ByName(cfg.Kernel, Beta0, cfg.EffectiveGamma())
		if err != nil {
			return nil, optimization.WrapError(err, optimization.KindConfig, "invalid kernel").
				WithComponent("firefly").WithOperation("new")
		}
		o.kernel = k
	}
	if o.schedule == nil {
		name := cfg.Schedule
		if name == "" && cfg.Mode == ModeHybrid {
			name = "log"
		}
		s, err := schedule.ByName(name, cfg.Alpha, cfg.AlphaFloor)
		if err != nil {
			return nil, optimization.WrapError(err, optimization.KindConfig, "invalid schedule").
				WithComponent("firefly").WithOperation("new")
		}
		o.schedule = s
	}
	return o, nil
}

// EffectiveGamma is the absorption coefficient the default kernel is built
// with: Gamma, or Gamma over the domain width when ScaleGamma is set.
func (c Config) EffectiveGamma() float64 {
	if c.ScaleGamma && c.Bounds.Width() > 0 {
		return c.Gamma / c.Bounds.Width()
	}
	return c.Gamma
}

// Config returns the validated configuration
func (o *Optimizer) Config() Config {
	return o.config
}

// Run executes the run: it creates the current and snapshot populations,
// writes the initial positions, then for each generation snapshots, evaluates
// and moves, and finally writes the final positions.
//
// Output failures do not stop the search. They are returned as a KindIO error
// together with a complete Result. Cancelling ctx stops the run between
// generations and returns ctx.Err().
func (o *Optimizer) Run(ctx context.Context, objective Objective) (*optimization.Result, error) {
	start := time.Now()
	if o.observer != nil {
		o.observer.RunStarted(o.config)
	}

	result, err := o.run(ctx, objective)

	if o.observer != nil {
		o.observer.RunFinished(result, time.Since(start), err)
	}
	return result, err
}

func (o *Optimizer) run(ctx context.Context, objective Objective) (*optimization.Result, error) {
	cfg := o.config
	if objective == nil {
		return nil, optimization.NewError(optimization.KindConfig, "objective is required").
			WithComponent("firefly").WithOperation("run")
	}

	current, err := o.pool.Get(cfg.Fireflies, cfg.Bounds, o.src)
	if err != nil {
		return nil, err
	}
	defer o.pool.Put(current)
	if cfg.Init == InitLHS {
		current.Stratify(cfg.Bounds, o.src)
	}

	previous, err := o.pool.Get(cfg.Fireflies, cfg.Bounds, o.src)
	if err != nil {
		return nil, err
	}
	defer o.pool.Put(previous)

	o.logger.Debug("run started",
		zap.Int("fireflies", cfg.Fireflies),
		zap.Int("iterations", cfg.Iterations),
		zap.String("mode", string(cfg.Mode)),
		zap.Int("workers", cfg.Workers),
		zap.Float64("gamma", cfg.EffectiveGamma()),
	)

	var outputErrs []error
	result := &optimization.Result{Initial: current.Positions()}
	if err := o.write(StageStart, current); err != nil {
		outputErrs = append(outputErrs, err)
	}

	params := MoveParams{
		Kernel:  o.kernel,
		Bounds:  cfg.Bounds,
		Workers: cfg.Workers,
		Wander:  cfg.Mode == ModeHybrid,
	}
	lastMean := math.NaN()

	for gen := 0; gen < cfg.Iterations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		genStart := time.Now()

		if err := previous.CopyFrom(current); err != nil {
			return nil, err
		}
		objective(current)

		if cfg.Tolerance > 0 {
			mean := stat.Mean(current.intensity, nil)
			if !math.IsNaN(lastMean) && math.Abs(mean-lastMean) < cfg.Tolerance {
				o.logger.Debug("mean intensity settled",
					zap.Int("generation", gen),
					zap.Float64("mean", mean),
				)
				result.Converged = true
				break
			}
			lastMean = mean
		}

		if cfg.Rank {
			current.SortByIntensity(0, current.Len()-1)
		}

		params.Alpha = o.schedule.Alpha(gen)
		if err := Move(ctx, current, previous, params, o.src); err != nil {
			return nil, err
		}
		result.Iterations++

		if o.observer != nil {
			o.observer.GenerationDone(gen, time.Since(genStart))
		}
	}

	if err := o.write(StageEnd, current); err != nil {
		outputErrs = append(outputErrs, err)
	}
	result.Final = current.Positions()

	if cfg.SelectBest {
		objective(current)
		best := floats.MaxIdx(current.intensity)
		result.Best = &optimization.Solution{
			Position:  current.At(best),
			Intensity: current.Intensity(best),
		}
	}

	o.logger.Debug("run finished",
		zap.Int("iterations", result.Iterations),
		zap.Bool("converged", result.Converged),
	)

	if len(outputErrs) > 0 {
		return result, optimization.WrapError(errors.Join(outputErrs...), optimization.KindIO, "writing positions failed").
			WithComponent("firefly").WithOperation("output")
	}
	return result, nil
}

// write hands pop to the sink, logging failures instead of aborting.
func (o *Optimizer) write(stage Stage, pop *Population) error {
	if o.sink == nil {
		return nil
	}
	if err := o.sink.WritePositions(stage, pop); err != nil {
		o.logger.Warn("writing positions failed", zap.String("stage", string(stage)), zap.Error(err))
		return fmt.Errorf("%s positions: %w", stage, err)
	}
	return nil
}

// Optimize runs n fireflies for t generations over [min, max] with the
// default constants. The returned point is the zero Point unless
// WithSelectBest is passed, in which case it is the brightest final firefly.
func Optimize(ctx context.Context, n, t int, min, max optimization.Point, objective Objective, opts ...Option) (optimization.Point, error) {
	cfg := DefaultConfig()
	cfg.Fireflies = n
	cfg.Iterations = t
	cfg.Bounds = optimization.Rect{Min: min, Max: max}

	o, err := New(cfg, opts...)
	if err != nil {
		return optimization.Point{}, err
	}
	result, err := o.Run(ctx, objective)
	if result == nil || result.Best == nil {
		return optimization.Point{}, err
	}
	return result.Best.Position, err
}
