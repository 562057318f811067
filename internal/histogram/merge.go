package histogram

import (
	"sort"
	"sync"
)

// partials collects finished accumulators from concurrently running tasks.
type partials struct {
	mu   sync.Mutex
	accs []*accumulator
}

func (p *partials) add(a *accumulator) {
	p.mu.Lock()
	p.accs = append(p.accs, a)
	p.mu.Unlock()
}

// merge sums the accumulators cell by cell into a fresh table. Accumulators
// are added in row-major order of their origin so the floating point result
// does not depend on task completion order.
func merge(accs []*accumulator, channels, nBins int) []float64 {
	sort.Slice(accs, func(i, j int) bool {
		a, b := accs[i].origin, accs[j].origin
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	values := make([]float64, channels*nBins)
	for _, a := range accs {
		for i, v := range a.values {
			values[i] += v
		}
	}
	return values
}
