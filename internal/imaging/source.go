package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/histogram-mcp/internal/histogram"
)

// Layout reports how an image maps onto histogram components and its bit
// depth.
//
// # Components
//
//   - *image.Gray, *image.Gray16 -> 1
//   - *image.YCbCr, *image.CMYK -> 3
//   - everything else -> 4, or 3 when the image reports itself opaque
//
// # Bit Depth
//
//   - *image.Gray16, *image.RGBA64, *image.NRGBA64 -> 16
//   - all other types -> 8
func Layout(img image.Image) (components, depth int) {
	depth = 8
	switch img.(type) {
	case *image.Gray16, *image.RGBA64, *image.NRGBA64:
		depth = 16
	}

	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1, depth
	case *image.YCbCr, *image.CMYK:
		return 3, depth
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return 3, depth
	}
	return 4, depth
}

// ToBuffer converts an image into non-premultiplied float samples in [0, 1]
// laid out as described by Layout. The buffer keeps the image bounds.
func ToBuffer(img image.Image) *histogram.Buffer {
	components, depth := Layout(img)
	bounds := img.Bounds()
	buf := histogram.NewBuffer(bounds, components, depth)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.At(x, y)
			if components == 1 {
				g := color.Gray16Model.Convert(c).(color.Gray16)
				buf.Set(x, y, float32(g.Y)/0xffff)
				continue
			}

			// MakeColor undoes the alpha premultiplication; fully
			// transparent pixels come back black.
			col, _ := colorful.MakeColor(c)
			_, _, _, a := c.RGBA()
			buf.Set(x, y, float32(col.R), float32(col.G), float32(col.B), float32(a)/0xffff)
		}
	}
	return buf
}

// MaskFromImage turns an image into a histogram mask covering bounds.
//
// The image is scaled to the size of bounds if needed (nearest neighbour, so
// hard selection edges stay hard), converted to grayscale, and each weight is
// the gray level times the pixel's alpha, both in [0, 1]. Transparent mask
// pixels therefore exclude the corresponding source pixels.
func MaskFromImage(img image.Image, bounds image.Rectangle) *histogram.Buffer {
	if img.Bounds().Dx() != bounds.Dx() || img.Bounds().Dy() != bounds.Dy() {
		img = imaging.Resize(img, bounds.Dx(), bounds.Dy(), imaging.NearestNeighbor)
	}
	gray := imaging.Grayscale(img)

	mask := histogram.NewMask(bounds)
	gb := gray.Bounds()
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			i := gray.PixOffset(gb.Min.X+x, gb.Min.Y+y)
			w := float32(gray.Pix[i]) / 255 * float32(gray.Pix[i+3]) / 255
			mask.Set(bounds.Min.X+x, bounds.Min.Y+y, w)
		}
	}
	return mask
}

// LoadMask loads the mask image at path through the cache and aligns it
// with bounds.
func LoadMask(cache *ImageCache, path string, bounds image.Rectangle) (*histogram.Buffer, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return MaskFromImage(img, bounds), nil
}
