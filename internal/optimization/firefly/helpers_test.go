package firefly

import (
	"math"
	"testing"

	"github.com/copyleftdev/firefly/internal/optimization"
)

var unitSquare = optimization.Rect{Max: optimization.Point{X: 1, Y: 1}}

// originProximity is the test objective -(x^2 + y^2).
func originProximity(pop *Population) {
	for i := 0; i < pop.Len(); i++ {
		p := pop.At(i)
		pop.SetIntensity(i, -(p.X*p.X + p.Y*p.Y))
	}
}

// newTestPopulation builds a population with the given positions and intensities.
func newTestPopulation(t *testing.T, points []optimization.Point, intensity []float64) *Population {
	t.Helper()

	pop, err := NewPopulation(len(points), unitSquare, Constant(0))
	if err != nil {
		t.Fatalf("failed to create population: %v", err)
	}
	for i, p := range points {
		pop.x[i] = p.X
		pop.y[i] = p.Y
		if intensity != nil {
			pop.intensity[i] = intensity[i]
		}
	}
	return pop
}

// assertContained fails if any firefly lies outside bounds.
func assertContained(t *testing.T, pop *Population, bounds optimization.Rect) {
	t.Helper()

	for i := 0; i < pop.Len(); i++ {
		if !bounds.Contains(pop.At(i)) {
			t.Fatalf("firefly %d at %v outside %v", i, pop.At(i), bounds)
		}
	}
}

// assertPointsEqual checks if two point slices are approximately equal
func assertPointsEqual(t *testing.T, got, want []optimization.Point, tol float64) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Abs(got[i].X-want[i].X) > tol || math.Abs(got[i].Y-want[i].Y) > tol {
			t.Fatalf("at index %d: got %v, want %v (tolerance %v)", i, got[i], want[i], tol)
		}
	}
}

// memorySink records the positions handed to it.
type memorySink struct {
	start, end []optimization.Point
	err        error
}

func (s *memorySink) WritePositions(stage Stage, pop *Population) error {
	if s.err != nil {
		return s.err
	}
	switch stage {
	case StageStart:
		s.start = pop.Positions()
	case StageEnd:
		s.end = pop.Positions()
	}
	return nil
}
