// Package histogram computes per-channel histograms of floating point pixel
// buffers and answers statistical queries against them.
//
// A Histogram is filled by a tiled, parallel reduction over a rectangular
// area of a Source. Each scheduled task writes into its own private bin table;
// once every task has finished the tables are summed into the final result.
// An optional single-component mask weights every pixel.
//
// # Channels
//
// The stored rows depend on the number of source components:
//
//	components  rows
//	1 (Y)       Value, -, Luminance(unused)
//	2 (YA)      Value, Alpha, -, Luminance(unused)
//	3 (RGB)     Value, Red, Green, Blue, Luminance
//	4 (RGBA)    Value, Red, Green, Blue, Alpha, Luminance
//
// Value is the maximum of the colour components (or the gray sample itself).
// RGB is never stored: queries synthesise it from the Red, Green and Blue rows.
//
// # Weights
//
// Color rows of a source with alpha are weighted by alpha times the mask
// weight. The Alpha row itself is weighted by the mask weight only.
//
// # Bins
//
// Sources with an 8-bit backing store get 256 bins, everything else 1024.
// A sample v lands in bin round(clamp(v*(bins-1), 0, bins-1)).
//
// # Concurrency
//
// Only one calculation may be in flight per Histogram. Starting a new one
// cancels the previous calculation and waits for it to stop. A cancelled
// calculation never publishes anything: the histogram keeps its previous
// content. Statistics queries are safe to call from any goroutine.
//
// # Defaults
//
// Queries never fail. An empty histogram, an unavailable channel or an empty
// bin range yields 0 (Median: -1, Threshold: 127).
package histogram
