package firefly

import (
	"fmt"

	"github.com/copyleftdev/firefly/internal/optimization"
)

// Population holds N fireflies as three parallel slices: x, y and intensity.
// The length is fixed when the population is created and every reordering
// moves the three values of an individual together.
type Population struct {
	x         []float64
	y         []float64
	intensity []float64
}

// NewPopulation creates n fireflies scattered uniformly over bounds with
// zero intensity. For each index it draws x first, then y.
func NewPopulation(n int, bounds optimization.Rect, src Source) (*Population, error) {
	if n <= 0 {
		return nil, optimization.NewErrorf(optimization.KindConfig, "population size must be positive, got %d", n).
			WithComponent("population").WithOperation("create")
	}
	pop, err := allocate(n)
	if err != nil {
		return nil, err
	}
	pop.scatter(bounds, src)
	return pop, nil
}

// allocate reserves storage for n fireflies. Length overflows in make panic
// at runtime; they are reported as allocation errors instead.
func allocate(n int) (pop *Population, err error) {
	defer func() {
		if r := recover(); r != nil {
			pop = nil
			err = optimization.WrapErrorf(fmt.Errorf("%v", r), optimization.KindAllocation,
				"cannot allocate %d fireflies", n).WithComponent("population").WithOperation("create")
		}
	}()
	return &Population{
		x:         make([]float64, n),
		y:         make([]float64, n),
		intensity: make([]float64, n),
	}, nil
}

func (p *Population) scatter(bounds optimization.Rect, src Source) {
	xrange := bounds.Width()
	yrange := bounds.Height()
	for i := range p.x {
		p.x[i] = src.Float64()*xrange + bounds.Min.X
		p.y[i] = src.Float64()*yrange + bounds.Min.Y
		p.intensity[i] = 0
	}
}

// Stratify replaces the positions with a Latin hypercube sample of bounds:
// each axis is cut into Len() equal strata and every stratum holds exactly
// one firefly. Intensities are reset to zero.
//
// Per axis, x then y, src is drawn Len()-1 times for the stratum shuffle and
// then once per firefly for the offset inside its stratum.
func (p *Population) Stratify(bounds optimization.Rect, src Source) {
	stratify(p.x, bounds.Min.X, bounds.Width(), src)
	stratify(p.y, bounds.Min.Y, bounds.Height(), src)
	for i := range p.intensity {
		p.intensity[i] = 0
	}
}

func stratify(axis []float64, lo, width float64, src Source) {
	n := len(axis)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := int(src.Float64() * float64(i+1))
		if j > i {
			j = i
		}
		perm[i], perm[j] = perm[j], perm[i]
	}
	step := width / float64(n)
	for i := range axis {
		axis[i] = lo + (float64(perm[i])+src.Float64())*step
	}
}

// Len returns the number of fireflies.
func (p *Population) Len() int {
	return len(p.x)
}

// At returns the position of firefly i.
func (p *Population) At(i int) optimization.Point {
	return optimization.Point{X: p.x[i], Y: p.y[i]}
}

// Intensity returns the light intensity of firefly i.
func (p *Population) Intensity(i int) float64 {
	return p.intensity[i]
}

// SetIntensity stores the light intensity of firefly i.
func (p *Population) SetIntensity(i int, v float64) {
	p.intensity[i] = v
}

// Positions returns a copy of all positions in index order.
func (p *Population) Positions() []optimization.Point {
	out := make([]optimization.Point, len(p.x))
	for i := range p.x {
		out[i] = optimization.Point{X: p.x[i], Y: p.y[i]}
	}
	return out
}

// Intensities returns a copy of all intensities in index order.
func (p *Population) Intensities() []float64 {
	return append([]float64(nil), p.intensity...)
}

// CopyFrom overwrites p with the state of src. Both must have the same size.
func (p *Population) CopyFrom(src *Population) error {
	if src.Len() != p.Len() {
		return optimization.NewErrorf(optimization.KindConfig, "snapshot size mismatch: %d != %d", p.Len(), src.Len()).
			WithComponent("population").WithOperation("snapshot")
	}
	copy(p.x, src.x)
	copy(p.y, src.y)
	copy(p.intensity, src.intensity)
	return nil
}

// Clone returns an independent copy of p.
func (p *Population) Clone() *Population {
	return &Population{
		x:         append([]float64(nil), p.x...),
		y:         append([]float64(nil), p.y...),
		intensity: append([]float64(nil), p.intensity...),
	}
}

// SortByIntensity orders the inclusive index range [left, right] by
// ascending intensity with an in-place quicksort that swaps whole
// (x, y, intensity) tuples. Nothing happens when right <= left.
func (p *Population) SortByIntensity(left, right int) {
	if right <= left {
		return
	}
	pivot := p.partition(left, right, (left+right)/2)
	p.SortByIntensity(left, pivot-1)
	p.SortByIntensity(pivot+1, right)
}

// partition moves the pivot tuple to right, gathers every tuple whose
// intensity is <= the pivot's at the front and returns the pivot's final index.
func (p *Population) partition(left, right, pivot int) int {
	value := p.intensity[pivot]
	p.swap(pivot, right)

	idx := left
	for i := left; i < right; i++ {
		if p.intensity[i] <= value {
			p.swap(i, idx)
			idx++
		}
	}

	p.swap(idx, right)
	return idx
}

func (p *Population) swap(i, j int) {
	p.x[i], p.x[j] = p.x[j], p.x[i]
	p.y[i], p.y[j] = p.y[j], p.y[i]
	p.intensity[i], p.intensity[j] = p.intensity[j], p.intensity[i]
}
