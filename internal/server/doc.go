// Package server implements the MCP (Model Context Protocol) server for image histograms.
//
// This package provides a JSON-RPC 2.0 server that exposes the histogram engine
// through the MCP protocol: histograms are computed per image path, optionally in
// the background, and queried channel by channel.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load image and get its layout (components, bit depth, bins)
//   - histogram_compute: Compute a histogram, optionally over a region and mask
//   - histogram_status: Poll or wait for a background calculation
//   - histogram_cancel: Cancel a background calculation, keeping the last result
//   - histogram_clear: Drop the histogram and the cached image
//   - histogram_channel_stats: Count, mean, median, std-dev, threshold, maximum
//   - histogram_values: Raw bin values of one channel
//   - histogram_threshold_image: Otsu-binarised image as base64 PNG
//
// # Calculations
//
// Each image path owns one histogram. Starting a calculation cancels and waits
// for the one in flight for the same path; a cancelled calculation never
// replaces the previous table. Outcomes are counted in the
// histogram_calculations_total metric and logged at debug level.
//
// # Configuration
//
// LoadConfig reads HISTOGRAM_MCP_LOG_LEVEL, HISTOGRAM_MCP_WORKERS,
// HISTOGRAM_MCP_PIXELS_PER_TASK and HISTOGRAM_MCP_METRICS_ADDR.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
