package firefly

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/copyleftdev/firefly/internal/optimization"
	"github.com/copyleftdev/firefly/internal/optimization/kernels"
)

// Beta0 is the attractiveness of a firefly at zero distance.
const Beta0 = 1.0

// MoveParams controls one movement pass.
type MoveParams struct {
	// Alpha scales the uniform noise added per axis to [-Alpha/2, Alpha/2).
	Alpha float64
	// Kernel maps squared distance to attractiveness.
	Kernel kernels.Kernel
	// Bounds is the rectangle positions are clamped into after the pass.
	Bounds optimization.Rect
	// Workers > 1 spreads fireflies over that many goroutines, each with its
	// own random stream per firefly.
	Workers int
	// Wander gives fireflies that no one attracted a pure random step.
	Wander bool
}

// Move pulls every firefly in current toward each brighter firefly of the
// previous generation and then clamps the population into p.Bounds.
//
// Firefly i is attracted by j when current's intensity of i is below
// previous's intensity of j. For a fixed i the peers are visited in index
// order and each update reads the position produced by the one before, so
// the result is a sequential fold over j. With Workers <= 1 all draws come
// from src in order i, j, then x before y. Otherwise src is drawn once for a
// generation seed and each i gets its own stream.
//
// ctx is checked before each firefly. A cancelled pass returns ctx.Err()
// and leaves current partly moved and unclamped.
func Move(ctx context.Context, current, previous *Population, p MoveParams, src Source) error {
	if current.Len() != previous.Len() {
		return optimization.NewErrorf(optimization.KindConfig, "population size mismatch: %d != %d", current.Len(), previous.Len()).
			WithComponent("movement").WithOperation("move")
	}
	if p.Kernel == nil {
		p.Kernel = kernels.NewGaussianKernel(Beta0, 1.0)
	}

	n := current.Len()
	if p.Workers <= 1 || n < 2 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			moveOne(current, previous, i, p, src)
		}
		Clamp(current, p.Bounds)
		return nil
	}

	seed := laneSeed(src)
	workers := p.Workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				moveOne(current, previous, i, p, laneSource(seed, i))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	Clamp(current, p.Bounds)
	return nil
}

// moveOne folds firefly i over every brighter peer in previous. Only index i
// of current is written.
func moveOne(current, previous *Population, i int, p MoveParams, rnd Source) {
	x, y := current.x[i], current.y[i]
	light := current.intensity[i]
	attracted := false

	for j := range previous.x {
		if j == i {
			continue
		}
		if light < previous.intensity[j] {
			xdist := x - previous.x[j]
			ydist := y - previous.y[j]
			r := math.Sqrt(xdist*xdist + ydist*ydist)
			beta := p.Kernel.Eval(r * r)

			x = ((1 - beta) * x) + (beta * previous.x[j]) + (p.Alpha * (rnd.Float64() - .5))
			y = ((1 - beta) * y) + (beta * previous.y[j]) + (p.Alpha * (rnd.Float64() - .5))
			attracted = true
		}
	}

	if !attracted && p.Wander {
		x += p.Alpha * (rnd.Float64() - .5)
		y += p.Alpha * (rnd.Float64() - .5)
	}

	current.x[i] = x
	current.y[i] = y
}

// Clamp moves every position into the closed rectangle bounds, each axis
// independently. Calling it twice is the same as calling it once.
func Clamp(pop *Population, bounds optimization.Rect) {
	for i := range pop.x {
		pop.x[i] = clamp(pop.x[i], bounds.Min.X, bounds.Max.X)
		pop.y[i] = clamp(pop.y[i], bounds.Min.Y, bounds.Max.Y)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
