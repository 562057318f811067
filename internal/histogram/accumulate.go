package histogram

import (
	"fmt"
	"image"
	"math"
	"sync/atomic"
)

// Luminance weights of the red, green and blue primaries.
const (
	LuminanceRed   = 0.22248840
	LuminanceGreen = 0.71690369
	LuminanceBlue  = 0.06060791
)

// cancelInterval is the number of pixels between two polls of the cancel flag.
const cancelInterval = 128

// BinCountForDepth returns the number of bins used for a source of the given
// bit depth.
func BinCountForDepth(depth int) int {
	if depth == 8 {
		return 256
	}
	return 1024
}

// BinIndex maps a sample to its bin: round(clamp(v*(nBins-1), 0, nBins-1)).
// NaN lands in bin 0.
func BinIndex(v float64, nBins int) int {
	x := v * float64(nBins-1)
	if !(x > 0) {
		return 0
	}
	if x >= float64(nBins-1) {
		return nBins - 1
	}
	return int(math.Round(x))
}

func luminance(r, g, b float64) float64 {
	return r*LuminanceRed + g*LuminanceGreen + b*LuminanceBlue
}

// accumulator is the private bin table of one scheduled task.
type accumulator struct {
	// origin is the top-left corner of the task's area. The merge sums
	// accumulators in row-major origin order.
	origin image.Point
	nBins  int
	values []float64
}

func newAccumulator(origin image.Point, channels, nBins int) *accumulator {
	return &accumulator{
		origin: origin,
		nBins:  nBins,
		values: make([]float64, channels*nBins),
	}
}

func (a *accumulator) add(row int, v float64, w float64) {
	a.values[row*a.nBins+BinIndex(v, a.nBins)] += w
}

// accumulate adds every pixel of samples to the table. mask, when non-nil,
// holds one weight per pixel. It reports false when canceled was observed
// set, in which case the table is incomplete and must be discarded.
func (a *accumulator) accumulate(samples []float32, components int, mask []float32, canceled *atomic.Bool) bool {
	n := len(samples) / components
	weight := func(p int) float64 {
		if mask == nil {
			return 1
		}
		return float64(mask[p])
	}

	switch components {
	case 1:
		for p := 0; p < n; p++ {
			if p%cancelInterval == 0 && canceled.Load() {
				return false
			}
			a.add(0, float64(samples[p]), weight(p))
		}

	case 2:
		for p := 0; p < n; p++ {
			if p%cancelInterval == 0 && canceled.Load() {
				return false
			}
			s := samples[p*2 : p*2+2]
			w := weight(p)
			a.add(0, float64(s[0]), float64(s[1])*w)
			a.add(1, float64(s[1]), w)
		}

	case 3:
		for p := 0; p < n; p++ {
			if p%cancelInterval == 0 && canceled.Load() {
				return false
			}
			s := samples[p*3 : p*3+3]
			r, g, b := float64(s[0]), float64(s[1]), float64(s[2])
			w := weight(p)
			a.add(1, r, w)
			a.add(2, g, w)
			a.add(3, b, w)
			a.add(0, math.Max(r, math.Max(g, b)), w)
			a.add(4, luminance(r, g, b), w)
		}

	case 4:
		for p := 0; p < n; p++ {
			if p%cancelInterval == 0 && canceled.Load() {
				return false
			}
			s := samples[p*4 : p*4+4]
			r, g, b, alpha := float64(s[0]), float64(s[1]), float64(s[2]), float64(s[3])
			m := weight(p)
			w := alpha * m
			a.add(1, r, w)
			a.add(2, g, w)
			a.add(3, b, w)
			a.add(0, math.Max(r, math.Max(g, b)), w)
			a.add(5, luminance(r, g, b), w)
			a.add(4, alpha, m)
		}

	default:
		panic(fmt.Sprintf("histogram: unsupported component count %d", components))
	}
	return true
}
