package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/histogram-mcp/internal/histogram"
)

// Region represents a rectangular region within an image.
//
// (X1, Y1) is the top-left corner (inclusive), (X2, Y2) the bottom-right
// corner (exclusive).
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// ValidateRegion checks that r is non-empty and lies inside bounds.
func ValidateRegion(r Region, bounds image.Rectangle) error {
	if r.X1 < bounds.Min.X || r.Y1 < bounds.Min.Y || r.X2 > bounds.Max.X || r.Y2 > bounds.Max.Y {
		return fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.X1, r.Y1, r.X2, r.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
		return fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
	}
	return nil
}

// ThresholdResult contains a binarised image encoded as base64 PNG.
type ThresholdResult struct {
	// Threshold is the Otsu threshold as a bin index.
	Threshold int `json:"threshold"`

	// Level is the threshold normalised to [0, 1].
	Level float64 `json:"level"`

	// Channel is the channel the histogram was taken from.
	Channel string `json:"channel"`

	// Bins is the bin count of the histogram.
	Bins int `json:"bins"`

	// Width of the output image in pixels (same as the region).
	Width int `json:"width"`

	// Height of the output image in pixels (same as the region).
	Height int `json:"height"`

	// ImageBase64 is the binarised region as base64 PNG. Pixels whose bin
	// lies above the threshold are white (255), the rest black.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png".
	MimeType string `json:"mime_type"`
}

// Threshold binarises an image (or a region of it) with Otsu's method.
//
// The region is cropped out, its histogram computed with the given options,
// and the Otsu threshold taken on ch over the full bin range. Every pixel is
// then mapped to its bin on ch and compared with the threshold.
//
// Parameters:
//   - img: Source image.
//   - region: Optional region. If nil, the whole image is used.
//   - ch: Histogram channel to threshold. Must exist for the image layout.
//     RGB is rejected: its table pools three samples per pixel, so no single
//     per-pixel value matches its threshold.
//   - opts: Options for the histogram calculation (scheduler, task size).
func Threshold(img image.Image, region *Region, ch histogram.Channel, opts ...histogram.Option) (*ThresholdResult, error) {
	if ch == histogram.RGB {
		return nil, fmt.Errorf("channel %s pools three samples per pixel and cannot binarise an image", ch)
	}

	src := img
	if region != nil {
		if err := ValidateRegion(*region, img.Bounds()); err != nil {
			return nil, err
		}
		src = imaging.Crop(img, region.Rect())
	}

	buf := ToBuffer(src)
	h := histogram.New(opts...)
	h.Calculate(histogram.Request{Source: buf})
	if !h.HasChannel(ch) {
		return nil, fmt.Errorf("channel %s not available for a %d-component image", ch, buf.Components())
	}

	bins := h.BinCount()
	threshold := h.Threshold(ch, 0, bins-1)

	bounds := buf.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v, _ := histogram.PixelValue(ch, buf.At(x, y))
			if histogram.BinIndex(v, bins) > threshold {
				out.SetGray(x-bounds.Min.X, y-bounds.Min.Y, color.Gray{255})
			}
		}
	}

	var b bytes.Buffer
	if err := png.Encode(&b, out); err != nil {
		return nil, fmt.Errorf("failed to encode threshold image: %w", err)
	}

	return &ThresholdResult{
		Threshold:   threshold,
		Level:       float64(threshold) / float64(bins-1),
		Channel:     ch.String(),
		Bins:        bins,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(b.Bytes()),
		MimeType:    "image/png",
	}, nil
}
