package histogram

import (
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/anthonynsimon/bild/parallel"
)

// DefaultPixelsPerTask is the cost hint handed to a Scheduler: roughly one
// 64x64 tile of work per task.
const DefaultPixelsPerTask = 64 * 64

// Scheduler splits an area into sub-rectangles and calls fn once for each,
// possibly in parallel. The sub-rectangles must cover area exactly once.
// Distribute returns when every call to fn has returned.
type Scheduler interface {
	Distribute(area image.Rectangle, pixelsPerTask int, fn func(sub image.Rectangle))
}

// StripScheduler cuts the area into horizontal strips, one per available CPU.
// Areas smaller than pixelsPerTask run inline on the calling goroutine.
type StripScheduler struct{}

func (StripScheduler) Distribute(area image.Rectangle, pixelsPerTask int, fn func(sub image.Rectangle)) {
	if area.Empty() {
		return
	}
	if pixelsPerTask <= 0 {
		pixelsPerTask = DefaultPixelsPerTask
	}
	if area.Dx()*area.Dy() <= pixelsPerTask || area.Dy() == 1 {
		fn(area)
		return
	}

	parallel.Line(area.Dy(), func(start, end int) {
		if start >= end {
			return
		}
		fn(image.Rect(area.Min.X, area.Min.Y+start, area.Max.X, area.Min.Y+end))
	})
}

// TileScheduler cuts the area into a grid of tiles and feeds them to a fixed
// pool of worker goroutines.
type TileScheduler struct {
	// Workers is the pool size. Zero means runtime.NumCPU().
	Workers int

	// TileWidth and TileHeight override the tile size. When zero the tile is
	// the square closest to pixelsPerTask.
	TileWidth  int
	TileHeight int
}

func (s TileScheduler) Distribute(area image.Rectangle, pixelsPerTask int, fn func(sub image.Rectangle)) {
	w, h := s.TileWidth, s.TileHeight
	if w <= 0 || h <= 0 {
		if pixelsPerTask <= 0 {
			pixelsPerTask = DefaultPixelsPerTask
		}
		side := int(math.Sqrt(float64(pixelsPerTask)))
		if side < 1 {
			side = 1
		}
		w, h = side, side
	}

	tiles := Tiles(area, w, h)
	if len(tiles) == 0 {
		return
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(tiles) {
		workers = len(tiles)
	}
	if workers == 1 {
		for _, t := range tiles {
			fn(t)
		}
		return
	}

	work := make(chan image.Rectangle, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range work {
				fn(t)
			}
		}()
	}
	for _, t := range tiles {
		work <- t
	}
	close(work)
	wg.Wait()
}

// Tiles returns the row-major grid of w x h tiles covering area. Tiles on
// the right and bottom edges are clipped to the area.
func Tiles(area image.Rectangle, w, h int) []image.Rectangle {
	if area.Empty() || w <= 0 || h <= 0 {
		return nil
	}
	cols := (area.Dx() + w - 1) / w
	rows := (area.Dy() + h - 1) / h
	tiles := make([]image.Rectangle, 0, cols*rows)
	for y := area.Min.Y; y < area.Max.Y; y += h {
		for x := area.Min.X; x < area.Max.X; x += w {
			tiles = append(tiles, image.Rect(x, y, x+w, y+h).Intersect(area))
		}
	}
	return tiles
}
