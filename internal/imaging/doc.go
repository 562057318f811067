// Package imaging loads images from disk and turns them into histogram
// sources, masks and thresholded output.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Sample Layout
//
// Layout decides how many components an image contributes: gray images
// give one, opaque colour images three (R, G, B) and colour images that
// may be translucent four (R, G, B, A). ToBuffer converts pixels to
// non-premultiplied float samples in [0, 1]; 16-bit images are tagged with
// bit depth 16 so their histograms get 1024 bins.
//
// # Masks
//
// MaskFromImage scales a mask image to the target area and weights each
// pixel by gray level times alpha.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Buffers handed out by
// the cache are shared and must not be modified.
//
// # Performance Considerations
//
// The cache keeps both the decoded image and its float buffer. Use Evict()
// or Clear() to manage memory for long-running processes.
package imaging
