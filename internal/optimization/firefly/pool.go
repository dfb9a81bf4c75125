package firefly

import (
	"sync"

	"github.com/copyleftdev/firefly/internal/optimization"
)

// Pool provides reusable population buffers to reduce allocations across runs.
// It is safe for concurrent use. The zero value is ready to use. A nil *Pool
// allocates on every Get and discards on Put.
type Pool struct {
	mu   sync.Mutex
	free map[int][]*Population
}

// NewPool creates a new Pool
func NewPool() *Pool {
	return &Pool{
		free: make(map[int][]*Population),
	}
}

// Get returns a population of size n scattered over bounds, reusing a
// released buffer when one is available. It consumes the same draws from src
// as NewPopulation.
func (p *Pool) Get(n int, bounds optimization.Rect, src Source) (*Population, error) {
	if p == nil {
		return NewPopulation(n, bounds, src)
	}

	p.mu.Lock()
	list := p.free[n]
	var pop *Population
	if len(list) > 0 {
		pop = list[len(list)-1]
		p.free[n] = list[:len(list)-1]
	}
	p.mu.Unlock()

	if pop == nil {
		return NewPopulation(n, bounds, src)
	}
	pop.scatter(bounds, src)
	return pop, nil
}

// Put returns pop to the pool. pop must not be used afterwards.
func (p *Pool) Put(pop *Population) {
	if p == nil || pop == nil {
		return
	}
	p.mu.Lock()
	if p.free == nil {
		p.free = make(map[int][]*Population)
	}
	p.free[pop.Len()] = append(p.free[pop.Len()], pop)
	p.mu.Unlock()
}

// Idle returns how many released buffers of size n are waiting for reuse.
func (p *Pool) Idle(n int) int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free[n])
}
