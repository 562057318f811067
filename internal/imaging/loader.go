package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/histogram-mcp/internal/histogram"
)

// ImageCache provides thread-safe caching of decoded images and of their
// float sample buffers.
//
// Images are keyed by file path. The sample buffer of an image is built on
// first use by Buffer and kept alongside the image, so repeated histogram
// calculations over the same file convert it only once.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	buf, err := cache.Buffer("/path/to/image.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	h := histogram.New()
//	h.Calculate(histogram.Request{Source: buf})
type ImageCache struct {
	mu      sync.RWMutex
	images  map[string]image.Image
	buffers map[string]*histogram.Buffer
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images:  make(map[string]image.Image),
		buffers: make(map[string]*histogram.Buffer),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. The image is
// cached under the exact path string provided.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not in a supported format
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Buffer returns the float sample buffer of the image at path, converting
// and caching it on first use.
func (c *ImageCache) Buffer(path string) (*histogram.Buffer, error) {
	c.mu.RLock()
	if buf, ok := c.buffers[path]; ok {
		c.mu.RUnlock()
		return buf, nil
	}
	c.mu.RUnlock()

	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	buf := ToBuffer(img)

	c.mu.Lock()
	c.buffers[path] = buf
	c.mu.Unlock()

	return buf, nil
}

// Clear removes all images and buffers from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.buffers = make(map[string]*histogram.Buffer)
	c.mu.Unlock()
}

// Evict removes a specific image and its buffer from the cache.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	delete(c.buffers, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about a loaded image file, including the
// histogram layout its pixels map to.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format detected from the file extension.
	Format string `json:"format"`

	// Components is the number of samples per pixel fed to the histogram:
	// 1 (gray), 3 (RGB) or 4 (RGBA).
	Components int `json:"components"`

	// BitDepth is the precision of the decoded data, 8 or 16.
	BitDepth int `json:"bit_depth"`

	// Bins is the number of histogram bins this image produces.
	Bins int `json:"bins"`

	// HasAlpha indicates whether the image carries a non-opaque alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image and returns its metadata.
//
// # Format Detection
//
// The format is determined by file extension:
//   - ".png" -> "png"
//   - ".jpg", ".jpeg" -> "jpeg"
//   - ".gif" -> "gif"
//   - ".bmp" -> "bmp"
//   - ".tif", ".tiff" -> "tiff"
//   - ".webp" -> "webp"
//   - Other extensions -> "unknown"
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".gif":
		format = "gif"
	case ".bmp":
		format = "bmp"
	case ".tif", ".tiff":
		format = "tiff"
	case ".webp":
		format = "webp"
	}

	components, depth := Layout(img)
	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		Components:    components,
		BitDepth:      depth,
		Bins:          histogram.BinCountForDepth(depth),
		HasAlpha:      components == 2 || components == 4,
		FileSizeBytes: stat.Size(),
	}, nil
}
