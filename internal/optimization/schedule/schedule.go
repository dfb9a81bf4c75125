package schedule

import (
	"fmt"
	"math"
)

// Schedule yields the randomness step alpha used in a given generation.
// Generations are counted from zero.
type Schedule interface {
	Alpha(generation int) float64
}

// Constant keeps alpha fixed for the whole run.
type Constant struct {
	alpha float64
}

// NewConstant creates a schedule that always returns alpha
func NewConstant(alpha float64) *Constant {
	return &Constant{alpha: alpha}
}

// Alpha returns the fixed step.
func (c *Constant) Alpha(int) float64 {
	return c.alpha
}

// LogAnnealing decays alpha as alpha0 / ln(generation + 2), so the first
// generation uses alpha0/ln 2 and later ones cool slowly.
type LogAnnealing struct {
	alpha0 float64
	// Lower bound on the step; zero disables it
	floor float64
}

// NewLogAnnealing creates a logarithmic annealing schedule starting from
// alpha0 that never returns less than floor.
func NewLogAnnealing(alpha0, floor float64) *LogAnnealing {
	return &LogAnnealing{alpha0: alpha0, floor: floor}
}

// Alpha returns the annealed step for generation.
func (s *LogAnnealing) Alpha(generation int) float64 {
	if generation < 0 {
		generation = 0
	}
	a := s.alpha0 / math.Log(float64(generation)+2)
	if a < s.floor {
		return s.floor
	}
	return a
}

// ByName returns "constant" or "log" schedules starting at alpha. floor only
// applies to "log".
func ByName(name string, alpha, floor float64) (Schedule, error) {
	if floor < 0 {
		return nil, fmt.Errorf("alpha floor must not be negative, got %v", floor)
	}
	switch name {
	case "", "constant":
		return NewConstant(alpha), nil
	case "log":
		return NewLogAnnealing(alpha, floor), nil
	default:
		return nil, fmt.Errorf("unknown schedule %q", name)
	}
}
