package firefly

import (
	"math"
	"math/rand/v2"
	"time"
)

// Source supplies uniform random numbers in [0, 1).
// *rand.Rand from math/rand and math/rand/v2 both satisfy it.
// A Source is used by one goroutine at a time.
type Source interface {
	Float64() float64
}

// NewSource returns a PCG-backed Source for seed. A zero seed is replaced by
// the current time.
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// Sequence replays a recorded stream of values, wrapping around at the end.
type Sequence struct {
	values []float64
	next   int
}

// NewSequence creates a Sequence over values. It panics if values is empty.
func NewSequence(values ...float64) *Sequence {
	if len(values) == 0 {
		panic("firefly: empty sequence")
	}
	return &Sequence{values: append([]float64(nil), values...)}
}

// Float64 returns the next recorded value.
func (s *Sequence) Float64() float64 {
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}

// Drawn returns how many values have been consumed modulo the stream length.
func (s *Sequence) Drawn() int {
	return s.next
}

// Constant always returns the same value.
type Constant float64

// Float64 returns c.
func (c Constant) Float64() float64 {
	return float64(c)
}

// laneSeed draws the per-generation seed that parallel lanes derive their
// streams from.
func laneSeed(src Source) uint64 {
	return uint64(src.Float64() * (1 << 53))
}

// laneSource returns the stream for lane i in a generation seeded with seed.
// Streams depend only on (seed, i), never on how lanes are scheduled.
func laneSource(seed uint64, i int) Source {
	return rand.New(rand.NewPCG(seed, uint64(i)*0x9e3779b97f4a7c15+math.MaxUint32))
}
