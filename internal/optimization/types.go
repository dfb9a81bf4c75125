// Package optimization holds the types shared by the optimizers, the output
// sinks and the service layer.
package optimization

import "fmt"

// Point is a position in the 2-D search domain.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// String formats the point the same way it is written to point files.
func (p Point) String() string {
	return fmt.Sprintf("%.2f %.2f", p.X, p.Y)
}

// Rect is the closed search rectangle [Min, Max].
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Validate rejects rectangles that are empty or inverted on either axis.
func (r Rect) Validate() error {
	if r.Min.X >= r.Max.X {
		return NewErrorf(KindConfig, "degenerate bounds on x: min %v >= max %v", r.Min.X, r.Max.X).
			WithOperation("validate").WithComponent("bounds")
	}
	if r.Min.Y >= r.Max.Y {
		return NewErrorf(KindConfig, "degenerate bounds on y: min %v >= max %v", r.Min.Y, r.Max.Y).
			WithOperation("validate").WithComponent("bounds")
	}
	return nil
}

// Contains reports whether p lies inside the closed rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Width returns the extent of the rectangle along x.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the extent of the rectangle along y.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Solution represents a solution in the optimization space
type Solution struct {
	Position  Point   `json:"position"`
	Intensity float64 `json:"intensity"`
}

// Result contains the result of an optimization run
type Result struct {
	// Best is only populated when best-point selection was requested.
	Best       *Solution `json:"best,omitempty"`
	Initial    []Point   `json:"initial"`
	Final      []Point   `json:"final"`
	Iterations int       `json:"iterations"`
	Converged  bool      `json:"converged"`
}
