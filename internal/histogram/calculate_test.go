package histogram

import (
	"image"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

func TestCalculate_PrimariesAndWhite(t *testing.T) {
	src := rgbBuffer(2, 2, 8,
		[3]float32{1, 0, 0},
		[3]float32{0, 1, 0},
		[3]float32{0, 0, 1},
		[3]float32{1, 1, 1},
	)
	h := New()
	if st := h.Calculate(Request{Source: src}); st != Finished {
		t.Fatalf("Calculate: got %v, want finished", st)
	}

	if h.BinCount() != 256 {
		t.Errorf("BinCount: got %d, want 256", h.BinCount())
	}
	if h.Components() != 3 || h.Channels() != 5 {
		t.Errorf("Components/Channels: got %d/%d, want 3/5", h.Components(), h.Channels())
	}
	if got := h.Count(Red, 0, 255); got != 4 {
		t.Errorf("Count(Red): got %v, want 4", got)
	}
	if got := h.ValueAt(Red, 0); got != 2 {
		t.Errorf("ValueAt(Red, 0): got %v, want 2", got)
	}
	if got := h.ValueAt(Red, 255); got != 2 {
		t.Errorf("ValueAt(Red, 255): got %v, want 2", got)
	}
	if got := h.Count(Value, 0, 255); got != 4 {
		t.Errorf("Count(Value): got %v, want 4", got)
	}
	if got := h.ValueAt(Value, 255); got != 4 {
		t.Errorf("ValueAt(Value, 255): got %v, want 4", got)
	}
	if got := h.Count(Luminance, 0, 255); got != 4 {
		t.Errorf("Count(Luminance): got %v, want 4", got)
	}
	if got := h.ValueAt(Luminance, 255); got != 1 {
		t.Errorf("ValueAt(Luminance, 255): got %v, want 1 (white)", got)
	}
	if got := h.Count(RGB, 0, 255); got != 12 {
		t.Errorf("Count(RGB): got %v, want 12", got)
	}
	if got := h.ValueAt(RGB, 0); got != 2 {
		t.Errorf("ValueAt(RGB, 0): got %v, want 2", got)
	}
}

func TestCalculate_EmptyArea(t *testing.T) {
	src := rgbBuffer(4, 4, 8)
	h := New()
	h.Calculate(Request{Source: src})
	if h.Components() != 3 {
		t.Fatalf("setup: Components got %d", h.Components())
	}

	if st := h.Calculate(Request{Source: src, Area: image.Rect(10, 10, 20, 20)}); st != Finished {
		t.Fatalf("Calculate: got %v, want finished", st)
	}
	if h.Components() != 0 || h.Channels() != 0 || !h.Empty() {
		t.Errorf("empty area: got components=%d channels=%d empty=%v", h.Components(), h.Channels(), h.Empty())
	}
	for _, ch := range Channels() {
		if got := h.Count(ch, 0, 255); got != 0 {
			t.Errorf("Count(%v): got %v, want 0", ch, got)
		}
		if got := h.Mean(ch, 0, 255); got != 0 {
			t.Errorf("Mean(%v): got %v, want 0", ch, got)
		}
		if got := h.Median(ch, 0, 255); got != -1 {
			t.Errorf("Median(%v): got %v, want -1", ch, got)
		}
		if got := h.StdDev(ch, 0, 255); got != 0 {
			t.Errorf("StdDev(%v): got %v, want 0", ch, got)
		}
		if got := h.Threshold(ch, 0, 255); got != 127 {
			t.Errorf("Threshold(%v): got %v, want 127", ch, got)
		}
		if got := h.Maximum(ch); got != 0 {
			t.Errorf("Maximum(%v): got %v, want 0", ch, got)
		}
	}
}

func TestCalculate_TransparentRGBA(t *testing.T) {
	src := NewBuffer(image.Rect(0, 0, 7, 5), 4, 8)
	src.Fill(0.3, 0.6, 0.9, 0)
	h := New()
	h.Calculate(Request{Source: src})

	for _, ch := range []Channel{Value, Red, Green, Blue, Luminance} {
		if got := rowSum(h, ch); got != 0 {
			t.Errorf("%v row sum: got %v, want 0", ch, got)
		}
	}
	if got := rowSum(h, Alpha); got != 35 {
		t.Errorf("alpha row sum: got %v, want 35", got)
	}
	if got := h.ValueAt(Alpha, 0); got != 35 {
		t.Errorf("alpha bin 0: got %v, want 35", got)
	}
}

func TestCalculate_HalfMask(t *testing.T) {
	r := image.Rect(0, 0, 33, 21)
	src := randomBuffer(r, 3, 1)
	mask := NewMask(r)
	mask.Fill(0.5)

	h := New()
	h.Calculate(Request{Source: src, Mask: mask})
	want := 0.5 * float64(r.Dx()*r.Dy())
	for _, ch := range []Channel{Value, Red, Green, Blue, Luminance} {
		if got := rowSum(h, ch); got != want {
			t.Errorf("%v row sum: got %v, want %v", ch, got, want)
		}
	}
}

func TestCalculate_RowSumsEqualPixelCount(t *testing.T) {
	r := image.Rect(-5, 10, 250, 190)
	h := New()
	h.Calculate(Request{Source: randomBuffer(r, 3, 7)})

	want := float64(r.Dx() * r.Dy())
	for _, ch := range []Channel{Value, Red, Green, Blue, Luminance} {
		if got := rowSum(h, ch); got != want {
			t.Errorf("%v row sum: got %v, want %v", ch, got, want)
		}
	}
}

func TestCalculate_GrayAlpha(t *testing.T) {
	src := NewBuffer(image.Rect(0, 0, 2, 2), 2, 16)
	src.Fill(0.5, 0.5)
	h := New()
	h.Calculate(Request{Source: src})

	if h.BinCount() != 1024 {
		t.Fatalf("BinCount: got %d, want 1024", h.BinCount())
	}
	if !h.HasChannel(Alpha) || h.HasChannel(Red) || h.HasChannel(RGB) || h.HasChannel(Luminance) {
		t.Error("gray+alpha channel availability wrong")
	}
	if got := h.ValueAt(Alpha, 512); got != 4 {
		t.Errorf("ValueAt(Alpha, 512): got %v, want 4", got)
	}
	if got := rowSum(h, Value); got != 2 {
		t.Errorf("value row sum: got %v, want alpha-weighted 2", got)
	}
	if got := rowSum(h, Red); got != 0 {
		t.Errorf("red row sum on gray: got %v, want 0", got)
	}
}

func TestCalculate_BinBoundaries(t *testing.T) {
	src := NewBuffer(image.Rect(0, 0, 4, 1), 1, 32)
	copy(src.Pix, []float32{0, 1, -2, 5})
	h := New()
	h.Calculate(Request{Source: src})

	if got := h.ValueAt(Value, 0); got != 2 {
		t.Errorf("bin 0: got %v, want 2", got)
	}
	if got := h.ValueAt(Value, 1023); got != 2 {
		t.Errorf("bin 1023: got %v, want 2", got)
	}
}

func TestCalculate_AreaAndMaskOffset(t *testing.T) {
	src := NewBuffer(image.Rect(0, 0, 4, 4), 1, 8)
	src.Fill(1)
	mask := NewMask(image.Rect(0, 0, 2, 2))
	mask.Fill(1)

	h := New()
	h.Calculate(Request{Source: src, Mask: mask, MaskOffset: image.Pt(-2, -2)})
	if got := rowSum(h, Value); got != 4 {
		t.Errorf("offset mask: got %v, want 4", got)
	}

	h.Calculate(Request{Source: src, Area: image.Rect(3, 3, 10, 10)})
	if got := rowSum(h, Value); got != 1 {
		t.Errorf("clipped area: got %v, want 1", got)
	}
}

func TestCalculate_SameResultForAnyPartition(t *testing.T) {
	r := image.Rect(0, 0, 301, 187)
	src := randomBuffer(r, 4, 11)
	// Opaque alpha keeps every weight exactly representable.
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 1
	}
	mask := quarterMask(r, 5)

	schedulers := []Scheduler{
		TileScheduler{Workers: 1, TileWidth: r.Dx(), TileHeight: r.Dy()},
		StripScheduler{},
		TileScheduler{},
		TileScheduler{Workers: 7, TileWidth: 13, TileHeight: 9},
		TileScheduler{Workers: 2, TileWidth: 1, TileHeight: 187},
	}

	var want [][]float64
	for i, s := range schedulers {
		h := New(WithScheduler(s), WithPixelsPerTask(500))
		h.Calculate(Request{Source: src, Mask: mask})

		var got [][]float64
		for _, ch := range []Channel{Value, Red, Green, Blue, Alpha, Luminance} {
			got = append(got, h.Values(ch))
		}
		if i == 0 {
			want = got
			continue
		}
		for c := range want {
			for b := range want[c] {
				if got[c][b] != want[c][b] {
					t.Fatalf("scheduler %d: row %d bin %d: got %v, want %v", i, c, b, got[c][b], want[c][b])
				}
			}
		}
	}
}

func TestCalculate_DeterministicWithFractionalWeights(t *testing.T) {
	r := image.Rect(0, 0, 200, 200)
	src := randomBuffer(r, 4, 3)
	s := TileScheduler{Workers: 8, TileWidth: 16, TileHeight: 16}

	a := New(WithScheduler(s))
	a.Calculate(Request{Source: src})
	b := New(WithScheduler(s))
	b.Calculate(Request{Source: src})

	va, vb := a.Values(Luminance), b.Values(Luminance)
	for i := range va {
		if va[i] != vb[i] {
			t.Fatalf("bin %d differs between runs: %v vs %v", i, va[i], vb[i])
		}
	}

	single := New(WithScheduler(TileScheduler{Workers: 1, TileWidth: 200, TileHeight: 200}))
	single.Calculate(Request{Source: src})
	if d := math.Abs(rowSum(single, Red) - rowSum(a, Red)); d > 1e-9 {
		t.Errorf("partitioned red sum differs by %v", d)
	}
}

func TestCalculateAsync_Finishes(t *testing.T) {
	h := New()
	var updates atomic.Int32
	h.OnUpdate(func() { updates.Add(1) })

	var cbState atomic.Int32
	c := h.CalculateAsync(Request{Source: randomBuffer(image.Rect(0, 0, 64, 64), 3, 2)}, func(got *Histogram, st State) {
		if got != h {
			t.Error("callback received a different histogram")
		}
		if got.State() != Finished {
			t.Errorf("state during callback: got %v, want finished", got.State())
		}
		cbState.Store(int32(st))
	})

	if st := c.Wait(); st != Finished {
		t.Fatalf("Wait: got %v, want finished", st)
	}
	if State(cbState.Load()) != Finished {
		t.Errorf("callback state: got %v, want finished", State(cbState.Load()))
	}
	if h.State() != Idle {
		t.Errorf("state after completion: got %v, want idle", h.State())
	}
	if updates.Load() != 1 {
		t.Errorf("updates: got %d, want 1", updates.Load())
	}
	if rowSum(h, Red) != 64*64 {
		t.Errorf("red row sum: got %v", rowSum(h, Red))
	}
}

func TestCalculateAsync_CancelKeepsPreviousResult(t *testing.T) {
	h := New(WithScheduler(TileScheduler{Workers: 2}))
	prev := rgbBuffer(1, 1, 8, [3]float32{0.2, 0.4, 0.6})
	h.Calculate(Request{Source: prev})
	before := h.Values(Red)

	slow := newGatedSource(randomBuffer(image.Rect(0, 0, 300, 300), 4, 9))
	var cbState atomic.Int32
	c := h.CalculateAsync(Request{Source: slow}, func(_ *Histogram, st State) {
		cbState.Store(int32(st))
	})

	<-slow.started
	if h.State() != Running {
		t.Errorf("state while running: got %v, want running", h.State())
	}
	c.Cancel()
	close(slow.gate)

	if st := c.Wait(); st != Canceled {
		t.Fatalf("Wait: got %v, want canceled", st)
	}
	if State(cbState.Load()) != Canceled {
		t.Errorf("callback state: got %v, want canceled", State(cbState.Load()))
	}
	if h.Components() != 3 {
		t.Errorf("Components after cancel: got %d, want 3", h.Components())
	}
	after := h.Values(Red)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("bin %d changed after cancel: %v -> %v", i, before[i], after[i])
		}
	}
}

func TestCalculateAsync_CancelOnEmptyHistogram(t *testing.T) {
	h := New()
	slow := newGatedSource(randomBuffer(image.Rect(0, 0, 100, 100), 3, 4))
	c := h.CalculateAsync(Request{Source: slow}, nil)
	<-slow.started
	if h.Cancel() != c {
		t.Error("Cancel should return the in-flight calculation")
	}
	close(slow.gate)
	c.Wait()

	if !h.Empty() || h.Components() != 0 {
		t.Error("canceled first calculation should leave the histogram empty")
	}
}

func TestCalculate_PreemptsRunningCalculation(t *testing.T) {
	h := New()
	slow := newGatedSource(randomBuffer(image.Rect(0, 0, 200, 200), 4, 6))
	first := h.CalculateAsync(Request{Source: slow}, nil)
	<-slow.started

	done := make(chan State)
	fast := rgbBuffer(1, 1, 8, [3]float32{1, 1, 1})
	go func() { done <- h.Calculate(Request{Source: fast}) }()

	deadline := time.Now().Add(5 * time.Second)
	for !first.canceled.Load() {
		if time.Now().After(deadline) {
			t.Fatal("second calculation never canceled the first")
		}
		time.Sleep(time.Millisecond)
	}
	close(slow.gate)

	if st := first.Wait(); st != Canceled {
		t.Errorf("first: got %v, want canceled", st)
	}
	if st := <-done; st != Finished {
		t.Errorf("second: got %v, want finished", st)
	}
	if h.Components() != 3 || rowSum(h, Value) != 1 {
		t.Errorf("result should come from the second calculation: components=%d sum=%v", h.Components(), rowSum(h, Value))
	}
}

func TestClear(t *testing.T) {
	h := New()
	var updates atomic.Int32
	h.OnUpdate(func() { updates.Add(1) })
	h.Calculate(Request{Source: rgbBuffer(1, 1, 8, [3]float32{1, 0, 0})})

	h.Clear(4)
	if !h.Empty() {
		t.Error("Clear should drop the table")
	}
	if h.Components() != 4 || h.Channels() != 0 {
		t.Errorf("Clear(4): got components=%d channels=%d, want 4/0", h.Components(), h.Channels())
	}
	if h.BinCount() != 256 {
		t.Errorf("BinCount after Clear: got %d, want previous 256", h.BinCount())
	}
	if got := h.Count(Red, 0, 255); got != 0 {
		t.Errorf("Count after Clear: got %v, want 0", got)
	}
	if updates.Load() != 2 {
		t.Errorf("updates: got %d, want 2", updates.Load())
	}

	h.Clear(0)
	if h.Channels() != 0 {
		t.Errorf("Clear(0): channels got %d, want 0", h.Channels())
	}
}

func TestClone(t *testing.T) {
	h := New()
	h.Calculate(Request{Source: rgbBuffer(2, 1, 8, [3]float32{1, 0, 0}, [3]float32{0, 0, 0})})
	c := h.Clone()
	h.Clear(0)

	if c.Components() != 3 || c.Count(Red, 0, 255) != 2 {
		t.Errorf("clone lost data: components=%d count=%v", c.Components(), c.Count(Red, 0, 255))
	}
}

func TestCalculate_ContractViolations(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"nil source", Request{}},
		{"rgb mask", Request{
			Source: NewBuffer(image.Rect(0, 0, 1, 1), 1, 8),
			Mask:   NewBuffer(image.Rect(0, 0, 1, 1), 3, 8),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Calculate should panic")
				}
			}()
			New().Calculate(tt.req)
		})
	}
}

// emptyFirstScheduler hands out a zero-width strip before the whole area.
type emptyFirstScheduler struct{}

func (emptyFirstScheduler) Distribute(area image.Rectangle, _ int, fn func(sub image.Rectangle)) {
	fn(image.Rect(area.Min.X, area.Min.Y, area.Min.X, area.Max.Y))
	fn(area)
}

func TestCalculate_EmptySubRect(t *testing.T) {
	h := New(WithScheduler(emptyFirstScheduler{}))
	src := randomBuffer(image.Rect(0, 0, 10, 7), 3, 4)
	if st := h.Calculate(Request{Source: src}); st != Finished {
		t.Fatalf("Calculate: got %v, want finished", st)
	}
	if got := rowSum(h, Value); got != 70 {
		t.Errorf("value row sum: got %v, want 70", got)
	}
}

// cancelingSource cancels its histogram's calculation from inside the
// ReadTile call numbered cancelAt and counts every read.
type cancelingSource struct {
	*Buffer
	h        *Histogram
	cancelAt int32
	reads    atomic.Int32
}

func (s *cancelingSource) ReadTile(r image.Rectangle, dst []float32) []float32 {
	if s.reads.Add(1) == s.cancelAt {
		s.h.Cancel()
	}
	return s.Buffer.ReadTile(r, dst)
}

func TestCalculate_CancelMidRun(t *testing.T) {
	// One 64x256 tile is read in four 64-row chunks.
	h := New(WithScheduler(TileScheduler{Workers: 1, TileWidth: 64, TileHeight: 256}))
	h.Calculate(Request{Source: rgbBuffer(1, 1, 8, [3]float32{1, 1, 1})})

	src := &cancelingSource{Buffer: randomBuffer(image.Rect(0, 0, 64, 256), 1, 5), h: h, cancelAt: 2}
	if st := h.Calculate(Request{Source: src}); st != Canceled {
		t.Fatalf("Calculate: got %v, want canceled", st)
	}
	if got := src.reads.Load(); got != 2 {
		t.Errorf("reads: got %d, want 2 (no chunk after the cancel)", got)
	}
	if h.Components() != 3 || rowSum(h, Value) != 1 {
		t.Errorf("previous table lost: components=%d sum=%v", h.Components(), rowSum(h, Value))
	}
}
