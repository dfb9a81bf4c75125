package firefly

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/firefly/internal/optimization"
	"github.com/copyleftdev/firefly/internal/optimization/kernels"
)

func gaussian(gamma float64) kernels.Kernel {
	return kernels.NewGaussianKernel(Beta0, gamma)
}

func TestMoveTowardBrighter(t *testing.T) {
	points := []optimization.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}
	current := newTestPopulation(t, points, []float64{-1, 0})
	previous := newTestPopulation(t, points, []float64{-1, 0})

	err := Move(context.Background(), current, previous, MoveParams{Alpha: 0.2, Kernel: gaussian(1), Bounds: unitSquare}, Constant(0.5))
	require.NoError(t, err)

	assert.InDelta(t, math.Exp(-1), current.At(0).X, 1e-15)
	assert.Equal(t, 0.0, current.At(0).Y)
	assert.Equal(t, optimization.Point{X: 1, Y: 0}, current.At(1), "the brightest firefly stays put")
}

func TestMoveComparesAgainstPreviousGeneration(t *testing.T) {
	points := []optimization.Point{{X: 0.2, Y: 0.2}, {X: 0.8, Y: 0.8}}
	// In the current generation firefly 1 is dimmer than 0, but in the
	// snapshot it was brighter, so 0 still moves toward it.
	current := newTestPopulation(t, points, []float64{0, -5})
	previous := newTestPopulation(t, points, []float64{0, 1})

	require.NoError(t, Move(context.Background(), current, previous, MoveParams{Kernel: gaussian(1), Bounds: unitSquare}, Constant(0.5)))

	beta := math.Exp(-(0.6*0.6 + 0.6*0.6))
	assert.InDelta(t, 0.2+beta*0.6, current.At(0).X, 1e-12)
	// firefly 1 compares its own -5 with the snapshot's 0 for firefly 0
	assert.InDelta(t, 0.8-beta*0.6, current.At(1).Y, 1e-12)
}

func TestMoveFoldsSequentially(t *testing.T) {
	points := []optimization.Point{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.5}, {X: 0.9, Y: 0.9}}
	current := newTestPopulation(t, points, []float64{-1, 0, 0})
	previous := newTestPopulation(t, points, []float64{-1, 0, 0})

	require.NoError(t, Move(context.Background(), current, previous, MoveParams{Kernel: gaussian(1), Bounds: unitSquare}, Constant(0.5)))

	// the second pull starts from where the first one left firefly 0
	x := 0.1
	for _, target := range []float64{0.5, 0.9} {
		d := x - target
		r := math.Sqrt(2 * d * d)
		beta := math.Exp(-(r * r))
		x = (1-beta)*x + beta*target
	}
	assert.InDelta(t, x, current.At(0).X, 1e-12)
	assert.InDelta(t, x, current.At(0).Y, 1e-12)

	// intensity 0 < 0 is false: equally bright fireflies ignore each other
	assert.Equal(t, points[1], current.At(1))
	assert.Equal(t, points[2], current.At(2))
}

func TestMoveDrawOrder(t *testing.T) {
	points := []optimization.Point{{X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.5}}
	current := newTestPopulation(t, points, []float64{-1, 0})
	previous := newTestPopulation(t, points, []float64{-1, 0})

	// zero distance gives beta 1, so the result is the target plus noise
	src := NewSequence(0.9, 0.1)
	require.NoError(t, Move(context.Background(), current, previous, MoveParams{Alpha: 0.2, Kernel: gaussian(1), Bounds: unitSquare}, src))

	assert.InDelta(t, 0.5+0.2*0.4, current.At(0).X, 1e-15, "x takes the first draw")
	assert.InDelta(t, 0.5-0.2*0.4, current.At(0).Y, 1e-15, "y takes the second draw")
	assert.Equal(t, 0, src.Drawn())
}

func TestMoveClampsAfterPass(t *testing.T) {
	points := []optimization.Point{{X: 0, Y: 1}, {X: 0, Y: 1}}
	current := newTestPopulation(t, points, []float64{-1, 0})
	previous := newTestPopulation(t, points, []float64{-1, 0})

	// noise of -0.5 on x and +0.5 on y pushes firefly 0 outside the square
	src := NewSequence(0, 1)
	require.NoError(t, Move(context.Background(), current, previous, MoveParams{Alpha: 1, Kernel: gaussian(1), Bounds: unitSquare}, src))

	assert.Equal(t, optimization.Point{X: 0, Y: 1}, current.At(0))
}

func TestMoveWander(t *testing.T) {
	points := []optimization.Point{{X: 0.2, Y: 0.2}, {X: 0.6, Y: 0.6}}
	current := newTestPopulation(t, points, []float64{1, 1})
	previous := newTestPopulation(t, points, []float64{1, 1})

	params := MoveParams{Alpha: 0.2, Kernel: gaussian(1), Bounds: unitSquare}
	require.NoError(t, Move(context.Background(), current, previous, params, Constant(0.75)))
	assert.Equal(t, points, current.Positions(), "without wander nobody moves")

	params.Wander = true
	require.NoError(t, Move(context.Background(), current, previous, params, Constant(0.75)))
	assertPointsEqual(t, current.Positions(), []optimization.Point{{X: 0.25, Y: 0.25}, {X: 0.65, Y: 0.65}}, 1e-12)
}

func TestMoveSizeMismatch(t *testing.T) {
	a := newTestPopulation(t, []optimization.Point{{}}, nil)
	b := newTestPopulation(t, []optimization.Point{{}, {}}, nil)

	err := Move(context.Background(), a, b, MoveParams{Bounds: unitSquare}, Constant(0.5))
	require.Error(t, err)
	assert.True(t, optimization.IsKind(err, optimization.KindConfig))
}

func TestMoveStopsOnCancel(t *testing.T) {
	points := []optimization.Point{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.5}, {X: 0.9, Y: 0.9}}

	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			current := newTestPopulation(t, points, []float64{-1, -1, 0})
			previous := newTestPopulation(t, points, []float64{-1, -1, 0})

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			params := MoveParams{Alpha: 0.2, Kernel: gaussian(1), Bounds: unitSquare, Workers: workers}
			err := Move(ctx, current, previous, params, Constant(0.5))
			require.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, points, current.Positions(), "no firefly moves after cancellation")
		})
	}
}

func TestMoveParallelDeterministic(t *testing.T) {
	bounds := optimization.Rect{
		Min: optimization.Point{X: -3, Y: -3},
		Max: optimization.Point{X: 3, Y: 3},
	}

	run := func(workers int) []optimization.Point {
		src := NewSource(1234)
		current, err := NewPopulation(64, bounds, src)
		require.NoError(t, err)
		previous, err := NewPopulation(64, bounds, src)
		require.NoError(t, err)

		params := MoveParams{Alpha: 0.3, Kernel: gaussian(0.5), Bounds: bounds, Workers: workers}
		for gen := 0; gen < 5; gen++ {
			require.NoError(t, previous.CopyFrom(current))
			originProximity(current)
			require.NoError(t, Move(context.Background(), current, previous, params, src))
			assertContained(t, current, bounds)
		}
		return current.Positions()
	}

	want := run(2)
	for _, workers := range []int{3, 4, 8, 64, 100} {
		if diff := cmp.Diff(want, run(workers)); diff != "" {
			t.Errorf("workers=%d changed positions (-want +got):\n%s", workers, diff)
		}
	}
}

func TestMoveParallelMatchesLaneStreams(t *testing.T) {
	points := []optimization.Point{{X: 0.1, Y: 0.1}, {X: 0.9, Y: 0.9}}
	current := newTestPopulation(t, points, []float64{-1, 0})
	previous := newTestPopulation(t, points, []float64{-1, 0})

	src := Constant(0.25)
	params := MoveParams{Alpha: 0.2, Kernel: gaussian(1), Bounds: unitSquare, Workers: 2}
	require.NoError(t, Move(context.Background(), current, previous, params, src))

	lane := laneSource(laneSeed(Constant(0.25)), 0)
	beta := math.Exp(-(0.8*0.8 + 0.8*0.8))
	want := optimization.Point{
		X: (1-beta)*0.1 + beta*0.9 + 0.2*(lane.Float64()-.5),
		Y: (1-beta)*0.1 + beta*0.9 + 0.2*(lane.Float64()-.5),
	}
	assert.InDelta(t, math.Min(math.Max(want.X, 0), 1), current.At(0).X, 1e-12)
	assert.InDelta(t, math.Min(math.Max(want.Y, 0), 1), current.At(0).Y, 1e-12)
}

func TestClamp(t *testing.T) {
	bounds := optimization.Rect{
		Min: optimization.Point{X: -1, Y: 0},
		Max: optimization.Point{X: 1, Y: 2},
	}
	pop := newTestPopulation(t, []optimization.Point{
		{X: -3, Y: 5},
		{X: 0.5, Y: -1},
		{X: 1, Y: 2},
		{X: 0, Y: 1},
	}, nil)

	Clamp(pop, bounds)

	assert.Equal(t, []optimization.Point{
		{X: -1, Y: 2},
		{X: 0.5, Y: 0},
		{X: 1, Y: 2},
		{X: 0, Y: 1},
	}, pop.Positions())

	once := pop.Positions()
	Clamp(pop, bounds)
	assert.Equal(t, once, pop.Positions(), "clamp must be idempotent")
}

func BenchmarkMove(b *testing.B) {
	bounds := optimization.Rect{
		Min: optimization.Point{X: -5, Y: -5},
		Max: optimization.Point{X: 5, Y: 5},
	}

	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			src := NewSource(42)
			current, _ := NewPopulation(200, bounds, src)
			previous, _ := NewPopulation(200, bounds, src)
			originProximity(previous)
			params := MoveParams{Alpha: 0.2, Kernel: gaussian(1), Bounds: bounds, Workers: workers}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				originProximity(current)
				_ = Move(context.Background(), current, previous, params, src)
			}
		})
	}
}
