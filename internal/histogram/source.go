package histogram

import (
	"fmt"
	"image"
)

// Source is a readable 2D buffer of floating point samples.
//
// ReadTile copies the samples of r (which must lie within Bounds) into dst,
// growing it if needed, and returns the filled slice. Samples are stored row
// by row, Components() samples per pixel, nominally in [0, 1].
//
// BitDepth reports the precision of the backing store. It only affects the
// bin count of a histogram computed from the source.
type Source interface {
	Bounds() image.Rectangle
	Components() int
	BitDepth() int
	ReadTile(r image.Rectangle, dst []float32) []float32
}

// Buffer is an in-memory Source.
type Buffer struct {
	// Pix holds the samples, Stride samples per row.
	Pix    []float32
	Stride int
	Rect   image.Rectangle

	// NumComponents is the number of samples per pixel (1 to 4).
	NumComponents int

	// Depth is the bit depth of the data the buffer was filled from.
	Depth int
}

// NewBuffer allocates a zeroed buffer.
func NewBuffer(r image.Rectangle, components, depth int) *Buffer {
	if components < 1 || components > 4 {
		panic(fmt.Sprintf("histogram: unsupported component count %d", components))
	}
	stride := r.Dx() * components
	return &Buffer{
		Pix:           make([]float32, stride*r.Dy()),
		Stride:        stride,
		Rect:          r,
		NumComponents: components,
		Depth:         depth,
	}
}

// NewMask allocates a single-component float buffer for use as a mask.
func NewMask(r image.Rectangle) *Buffer {
	return NewBuffer(r, 1, 32)
}

func (b *Buffer) Bounds() image.Rectangle { return b.Rect }
func (b *Buffer) Components() int         { return b.NumComponents }
func (b *Buffer) BitDepth() int           { return b.Depth }

// PixOffset returns the index of the first sample of pixel (x, y).
func (b *Buffer) PixOffset(x, y int) int {
	return (y-b.Rect.Min.Y)*b.Stride + (x-b.Rect.Min.X)*b.NumComponents
}

// Set stores the samples of pixel (x, y). Points outside the buffer are ignored.
func (b *Buffer) Set(x, y int, samples ...float32) {
	if !(image.Point{x, y}.In(b.Rect)) {
		return
	}
	copy(b.Pix[b.PixOffset(x, y):b.PixOffset(x, y)+b.NumComponents], samples)
}

// At returns the samples of pixel (x, y), or nil outside the buffer. The
// returned slice aliases Pix.
func (b *Buffer) At(x, y int) []float32 {
	if !(image.Point{x, y}.In(b.Rect)) {
		return nil
	}
	i := b.PixOffset(x, y)
	return b.Pix[i : i+b.NumComponents : i+b.NumComponents]
}

// Fill sets every pixel to samples.
func (b *Buffer) Fill(samples ...float32) {
	for y := b.Rect.Min.Y; y < b.Rect.Max.Y; y++ {
		for x := b.Rect.Min.X; x < b.Rect.Max.X; x++ {
			b.Set(x, y, samples...)
		}
	}
}

func (b *Buffer) ReadTile(r image.Rectangle, dst []float32) []float32 {
	if !r.In(b.Rect) {
		panic(fmt.Sprintf("histogram: tile %v outside buffer %v", r, b.Rect))
	}
	rowLen := r.Dx() * b.NumComponents
	n := rowLen * r.Dy()
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := b.PixOffset(r.Min.X, y)
		copy(dst[(y-r.Min.Y)*rowLen:], b.Pix[i:i+rowLen])
	}
	return dst
}
