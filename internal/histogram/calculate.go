package histogram

import (
	"fmt"
	"image"
	"sync/atomic"
)

// State is the life-cycle position of a histogram's calculation.
type State int32

const (
	Idle State = iota
	Running
	Finished
	Canceled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// chunkPixels bounds the number of pixels read from a source at once.
const chunkPixels = 64 * 64

// Request describes the data a calculation reads.
type Request struct {
	// Source is required.
	Source Source

	// Area restricts the calculation. The zero rectangle means the whole
	// source; anything else is intersected with the source bounds.
	Area image.Rectangle

	// Mask optionally weights each pixel. It must have one component.
	// Pixels of Area not covered by the mask are skipped.
	Mask Source

	// MaskOffset maps source coordinates to mask coordinates:
	// mask point = source point + MaskOffset.
	MaskOffset image.Point
}

// Callback receives the terminal state (Finished or Canceled) of an
// asynchronous calculation. It runs on the calculation's goroutine before
// Wait returns and must not start, clear or wait on calculations of the same
// histogram.
type Callback func(h *Histogram, state State)

// Calculation is a handle on one running calculation.
type Calculation struct {
	canceled atomic.Bool
	done     chan struct{}
	state    State
}

func newCalculation() *Calculation {
	return &Calculation{done: make(chan struct{})}
}

// Cancel asks the calculation to stop. It does not wait.
func (c *Calculation) Cancel() {
	c.canceled.Store(true)
}

// Done is closed once the calculation has stopped and its callback returned.
func (c *Calculation) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the calculation has stopped and returns Finished or
// Canceled.
func (c *Calculation) Wait() State {
	<-c.done
	return c.state
}

// State returns the state of the histogram's current calculation.
func (h *Histogram) State() State {
	return State(h.state.Load())
}

// Calculate fills the histogram from req and returns once the table is
// published. A calculation still in flight is canceled and waited for
// first. The returned state is Canceled only when a later calculation or
// Clear preempted this one; the previous table is then left untouched.
func (h *Histogram) Calculate(req Request) State {
	c := h.start()
	h.run(req, c, nil)
	return c.state
}

// CalculateAsync starts filling the histogram from req on a new goroutine.
// A calculation still in flight is canceled and waited for first.
func (h *Histogram) CalculateAsync(req Request, cb Callback) *Calculation {
	c := h.start()
	go h.run(req, c, cb)
	return c
}

// Cancel asks the in-flight calculation, if any, to stop. It returns that
// calculation so the caller can Wait on it, or nil.
func (h *Histogram) Cancel() *Calculation {
	h.calcMu.Lock()
	defer h.calcMu.Unlock()
	if h.calc != nil {
		h.calc.Cancel()
	}
	return h.calc
}

func (h *Histogram) start() *Calculation {
	h.calcMu.Lock()
	defer h.calcMu.Unlock()
	h.stopLocked()
	c := newCalculation()
	h.calc = c
	h.state.Store(int32(Running))
	return c
}

// stopLocked cancels and waits for the current calculation. h.calcMu must
// be held.
func (h *Histogram) stopLocked() {
	if h.calc == nil {
		return
	}
	h.calc.Cancel()
	h.calc.Wait()
	h.calc = nil
}

func (h *Histogram) run(req Request, c *Calculation, cb Callback) {
	c.state = h.calculate(req, &c.canceled)
	h.state.Store(int32(c.state))
	if cb != nil {
		cb(h, c.state)
	}
	h.state.Store(int32(Idle))
	close(c.done)
}

func (h *Histogram) calculate(req Request, canceled *atomic.Bool) State {
	src := req.Source
	if src == nil {
		panic("histogram: nil source")
	}
	components := src.Components()
	if components < 1 || components > 4 {
		panic(fmt.Sprintf("histogram: unsupported component count %d", components))
	}

	area := src.Bounds()
	if req.Area != (image.Rectangle{}) {
		area = req.Area.Intersect(area)
	}
	if req.Mask != nil {
		if n := req.Mask.Components(); n != 1 {
			panic(fmt.Sprintf("histogram: mask has %d components", n))
		}
		area = area.Intersect(req.Mask.Bounds().Sub(req.MaskOffset))
	}

	if canceled.Load() {
		return Canceled
	}
	if area.Empty() {
		h.publish(0, 0, nil)
		return Finished
	}

	nBins := BinCountForDepth(src.BitDepth())
	channels := channelsFor(components)

	var parts partials
	h.scheduler.Distribute(area, h.pixelsPerTask, func(sub image.Rectangle) {
		if sub.Empty() || canceled.Load() {
			return
		}
		acc := newAccumulator(sub.Min, channels, nBins)
		rows := chunkPixels / sub.Dx()
		if rows < 1 {
			rows = 1
		}

		var samples, weights []float32
		for y := sub.Min.Y; y < sub.Max.Y; y += rows {
			chunk := image.Rect(sub.Min.X, y, sub.Max.X, y+rows).Intersect(sub)
			samples = src.ReadTile(chunk, samples)
			if req.Mask != nil {
				weights = req.Mask.ReadTile(chunk.Add(req.MaskOffset), weights)
			}
			if !acc.accumulate(samples, components, weights, canceled) {
				return
			}
		}
		parts.add(acc)
	})

	if canceled.Load() {
		return Canceled
	}
	h.publish(components, nBins, merge(parts.accs, channels, nBins))
	return Finished
}
