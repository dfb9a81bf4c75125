// Package objective provides light-intensity functions for the firefly
// optimizer. Benchmarks are minimization problems, so their intensity is the
// negated function value: the lower the value, the brighter the firefly.
package objective

import (
	"fmt"
	"math"
	"sort"

	"github.com/copyleftdev/firefly/internal/optimization"
	"github.com/copyleftdev/firefly/internal/optimization/firefly"
)

// Func is a scalar function of a position.
type Func func(p optimization.Point) float64

// FromFunc uses f directly as the intensity, so larger values are brighter.
func FromFunc(f Func) firefly.Objective {
	return func(pop *firefly.Population) {
		for i := 0; i < pop.Len(); i++ {
			pop.SetIntensity(i, f(pop.At(i)))
		}
	}
}

// Minimize makes lower values of f brighter.
func Minimize(f Func) firefly.Objective {
	return FromFunc(func(p optimization.Point) float64 {
		return -f(p)
	})
}

// Sphere is the De Jong function x^2 + y^2, minimum 0 at the origin.
func Sphere(p optimization.Point) float64 {
	return p.X*p.X + p.Y*p.Y
}

// Ackley has many local minima around its global minimum 0 at the origin.
func Ackley(p optimization.Point) float64 {
	const a, b, c = 20.0, 0.2, 2 * math.Pi
	sumSq := (p.X*p.X + p.Y*p.Y) / 2
	sumCos := (math.Cos(c*p.X) + math.Cos(c*p.Y)) / 2
	return -a*math.Exp(-b*math.Sqrt(sumSq)) - math.Exp(sumCos) + a + math.E
}

// Rosenbrock has its minimum 0 at (1, 1) at the end of a curved valley.
func Rosenbrock(p optimization.Point) float64 {
	dx := 1 - p.X
	dy := p.Y - p.X*p.X
	return dx*dx + 100*dy*dy
}

// Himmelblau has four global minima with value 0, one of them at (3, 2).
func Himmelblau(p optimization.Point) float64 {
	a := p.X*p.X + p.Y - 11
	b := p.X + p.Y*p.Y - 7
	return a*a + b*b
}

// OriginProximity sets intensity to -(x^2 + y^2): fireflies nearer the
// origin shine brighter.
var OriginProximity = Minimize(Sphere)

var registry = map[string]Func{
	"dejong":     Sphere,
	"sphere":     Sphere,
	"ackley":     Ackley,
	"rosenbrock": Rosenbrock,
	"himmelblau": Himmelblau,
}

// Lookup returns the minimizing objective registered under name.
func Lookup(name string) (firefly.Objective, error) {
	f, ok := registry[name]
	if !ok {
		return nil, optimization.NewErrorf(optimization.KindConfig, "unknown objective %q", name).
			WithComponent("objective").WithOperation("lookup")
	}
	return Minimize(f), nil
}

// Names lists the registered objectives in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns the function registered under name for direct evaluation.
func Describe(name string) (Func, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown objective %q", name)
	}
	return f, nil
}
