package firefly

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceWraps(t *testing.T) {
	s := NewSequence(0.1, 0.2, 0.3)

	got := make([]float64, 7)
	for i := range got {
		got[i] = s.Float64()
	}

	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.1, 0.2, 0.3, 0.1}, got)
	assert.Equal(t, 1, s.Drawn())
}

func TestSequenceCopiesInput(t *testing.T) {
	values := []float64{0.4, 0.6}
	s := NewSequence(values...)
	values[0] = 0.9

	assert.Equal(t, 0.4, s.Float64())
}

func TestEmptySequencePanics(t *testing.T) {
	assert.Panics(t, func() { NewSequence() })
}

func TestConstant(t *testing.T) {
	c := Constant(0.5)
	assert.Equal(t, 0.5, c.Float64())
	assert.Equal(t, 0.5, c.Float64())
}

func TestNewSourceSeeded(t *testing.T) {
	a, b := NewSource(17), NewSource(17)
	for i := 0; i < 100; i++ {
		va, vb := a.Float64(), b.Float64()
		assert.Equal(t, va, vb)
		assert.GreaterOrEqual(t, va, 0.0)
		assert.Less(t, va, 1.0)
	}

	assert.NotEqual(t, NewSource(1).Float64(), NewSource(2).Float64())
}

func TestLaneSourcesIndependent(t *testing.T) {
	seed := laneSeed(Constant(0.5))

	a := laneSource(seed, 0)
	again := laneSource(seed, 0)
	other := laneSource(seed, 1)

	first := a.Float64()
	assert.Equal(t, first, again.Float64())
	assert.NotEqual(t, first, other.Float64())
}
