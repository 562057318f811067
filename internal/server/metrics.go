package server

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// calculationsTotal counts finished calculations by final state
	calculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "histogram_calculations_total",
		Help: "Total histogram calculations by final state",
	}, []string{"state"})

	// calculationDuration tracks calculation latency, canceled runs included
	calculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "histogram_calculation_duration_seconds",
		Help:    "Histogram calculation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	// trackedHistograms is the number of images with a histogram
	trackedHistograms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "histogram_tracked_images",
		Help: "Number of images the server holds a histogram for",
	})

	// toolCallsTotal counts tool invocations by tool and outcome
	toolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "histogram_mcp_tool_calls_total",
		Help: "Total MCP tool calls by tool and result",
	}, []string{"tool", "result"}) // "ok" or "error"
)

// ServeMetrics serves the Prometheus registry on addr at /metrics. It
// blocks like http.ListenAndServe.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
