package histogram

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Histogram holds the per-channel bin table of the last completed
// calculation.
//
// The zero value is not usable; create histograms with New.
type Histogram struct {
	mu         sync.RWMutex // guards components, nBins and values
	components int
	nBins      int
	// values is either nil or channels*nBins long. A published table is
	// never written again, only replaced.
	values []float64

	scheduler     Scheduler
	pixelsPerTask int

	calcMu sync.Mutex // serialises starting, clearing and cancelling
	calc   *Calculation
	state  atomic.Int32

	obsMu     sync.Mutex
	observers []func()
}

// Option configures a Histogram.
type Option func(*Histogram)

// WithScheduler sets the scheduler used to distribute tiles. The default is
// StripScheduler.
func WithScheduler(s Scheduler) Option {
	return func(h *Histogram) {
		if s != nil {
			h.scheduler = s
		}
	}
}

// WithPixelsPerTask sets the cost hint passed to the scheduler.
func WithPixelsPerTask(n int) Option {
	return func(h *Histogram) {
		if n > 0 {
			h.pixelsPerTask = n
		}
	}
}

// New returns an empty histogram.
func New(opts ...Option) *Histogram {
	h := &Histogram{
		nBins:         256,
		scheduler:     StripScheduler{},
		pixelsPerTask: DefaultPixelsPerTask,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Components returns the number of source components behind the current
// table, 0 when the histogram is empty.
func (h *Histogram) Components() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.components
}

// BinCount returns the number of bins per channel.
func (h *Histogram) BinCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.nBins
}

// Channels returns the number of stored rows: Components()+2, or 0 while
// the histogram is empty.
func (h *Histogram) Channels() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.values == nil {
		return 0
	}
	return channelsFor(h.components)
}

// Empty reports whether the histogram holds no bin table.
func (h *Histogram) Empty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.values == nil
}

func channelsFor(components int) int {
	if components > 0 {
		return components + 2
	}
	return 0
}

// HasChannel reports whether ch can be queried for the current component
// count. Value is always available.
func (h *Histogram) HasChannel(ch Channel) bool {
	ch.mustValid()
	h.mu.RLock()
	defer h.mu.RUnlock()
	return hasChannel(ch, h.components)
}

func hasChannel(ch Channel, components int) bool {
	switch ch {
	case Value:
		return true
	case RGB:
		return components >= 3
	default:
		return rowOf(ch, components) >= 0
	}
}

// rowOf returns the stored row of ch, or -1 when the channel has no row for
// the given component count. RGB never has a row.
func rowOf(ch Channel, components int) int {
	switch ch {
	case Value:
		if components > 0 {
			return 0
		}
	case Red, Green, Blue:
		if components >= 3 {
			return int(ch)
		}
	case Alpha:
		switch components {
		case 2:
			return 1
		case 4:
			return 4
		}
	case Luminance:
		if components >= 3 {
			return components + 1
		}
	}
	return -1
}

// Clear cancels any running calculation, drops the bin table and records the
// expected component count (0 to 4) for the next calculation. BinCount keeps
// reporting the previous bin count until the next calculation publishes.
func (h *Histogram) Clear(components int) {
	if components < 0 || components > 4 {
		panic(fmt.Sprintf("histogram: unsupported component count %d", components))
	}
	h.calcMu.Lock()
	h.stopLocked()
	h.calcMu.Unlock()

	h.mu.Lock()
	h.components = components
	h.values = nil
	h.mu.Unlock()
	h.notify()
}

// Clone returns a copy of the histogram's current table. The copy shares no
// state with h and has no calculation attached.
func (h *Histogram) Clone() *Histogram {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c := New(WithScheduler(h.scheduler), WithPixelsPerTask(h.pixelsPerTask))
	c.components = h.components
	c.nBins = h.nBins
	if h.values != nil {
		c.values = append([]float64(nil), h.values...)
	}
	return c
}

// OnUpdate registers fn to be called after every published calculation and
// every Clear. fn runs on the goroutine that changed the histogram.
func (h *Histogram) OnUpdate(fn func()) {
	h.obsMu.Lock()
	h.observers = append(h.observers, fn)
	h.obsMu.Unlock()
}

func (h *Histogram) notify() {
	h.obsMu.Lock()
	observers := append([]func(){}, h.observers...)
	h.obsMu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// publish replaces the table in one step.
func (h *Histogram) publish(components, nBins int, values []float64) {
	h.mu.Lock()
	h.components = components
	if nBins > 0 {
		h.nBins = nBins
	}
	h.values = values
	h.mu.Unlock()
	h.notify()
}
