package firefly

import (
	"go.uber.org/zap"

	"github.com/copyleftdev/firefly/internal/optimization/kernels"
	"github.com/copyleftdev/firefly/internal/optimization/schedule"
)

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithSource sets the random stream. It takes precedence over WithSeed.
func WithSource(src Source) Option {
	return func(o *Optimizer) {
		o.src = src
	}
}

// WithSeed seeds a fresh random stream; zero means time-based.
func WithSeed(seed int64) Option {
	return func(o *Optimizer) {
		if o.src == nil {
			o.src = NewSource(seed)
		}
	}
}

// WithSink sets where the initial and final positions are written.
func WithSink(sink Sink) Option {
	return func(o *Optimizer) {
		o.sink = sink
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Optimizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver sets the progress observer.
func WithObserver(observer Observer) Option {
	return func(o *Optimizer) {
		o.observer = observer
	}
}

// WithPool makes the optimizer borrow its populations from pool.
func WithPool(pool *Pool) Option {
	return func(o *Optimizer) {
		o.pool = pool
	}
}

// WithKernel replaces the kernel named by Config.Kernel. Gamma scaling does
// not apply to it.
func WithKernel(kernel kernels.Kernel) Option {
	return func(o *Optimizer) {
		o.kernel = kernel
	}
}

// WithSchedule replaces the alpha schedule named by Config.Schedule.
func WithSchedule(s schedule.Schedule) Option {
	return func(o *Optimizer) {
		o.schedule = s
	}
}

// WithSelectBest turns on best-point selection.
func WithSelectBest() Option {
	return func(o *Optimizer) {
		o.config.SelectBest = true
	}
}

// WithWorkers sets how many goroutines the movement pass uses.
func WithWorkers(n int) Option {
	return func(o *Optimizer) {
		o.config.Workers = n
	}
}
