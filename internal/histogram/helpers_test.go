package histogram

import (
	"image"
	"math/rand"
	"sync"
)

// rgbBuffer builds a w x h RGB buffer from 8-bit style samples given row by row.
func rgbBuffer(w, h int, depth int, pixels ...[3]float32) *Buffer {
	b := NewBuffer(image.Rect(0, 0, w, h), 3, depth)
	for i, p := range pixels {
		b.Set(i%w, i/w, p[0], p[1], p[2])
	}
	return b
}

// randomBuffer fills a buffer with samples on the 8-bit grid so that every
// sample is exactly representable.
func randomBuffer(r image.Rectangle, components int, seed int64) *Buffer {
	rng := rand.New(rand.NewSource(seed))
	b := NewBuffer(r, components, 8)
	for i := range b.Pix {
		b.Pix[i] = float32(rng.Intn(256)) / 255
	}
	return b
}

// quarterMask fills a mask with weights from {0, 0.25, 0.5, 1}. Those sum
// exactly in float64, so merged tables compare bit for bit.
func quarterMask(r image.Rectangle, seed int64) *Buffer {
	weights := []float32{0, 0.25, 0.5, 1}
	rng := rand.New(rand.NewSource(seed))
	m := NewMask(r)
	for i := range m.Pix {
		m.Pix[i] = weights[rng.Intn(len(weights))]
	}
	return m
}

// gatedSource blocks every ReadTile until gate is closed. started is closed
// on the first read.
type gatedSource struct {
	*Buffer
	gate    chan struct{}
	started chan struct{}
	once    sync.Once
}

func newGatedSource(b *Buffer) *gatedSource {
	return &gatedSource{
		Buffer:  b,
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
}

func (g *gatedSource) ReadTile(r image.Rectangle, dst []float32) []float32 {
	g.once.Do(func() { close(g.started) })
	<-g.gate
	return g.Buffer.ReadTile(r, dst)
}

func rowSum(h *Histogram, ch Channel) float64 {
	return h.Count(ch, 0, h.BinCount()-1)
}
