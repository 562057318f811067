package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/histogram-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("histogram-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("histogram-mcp - MCP server for parallel image histograms")
			fmt.Println()
			fmt.Println("Usage: histogram-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  HISTOGRAM_MCP_LOG_LEVEL=debug        Enable debug logging")
			fmt.Println("  HISTOGRAM_MCP_WORKERS=N              Use N tile workers (default: row strips over all CPUs)")
			fmt.Println("  HISTOGRAM_MCP_PIXELS_PER_TASK=N      Pixels per scheduled task (default 4096)")
			fmt.Println("  HISTOGRAM_MCP_METRICS_ADDR=:9090     Serve Prometheus metrics at /metrics")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := server.LoadConfig()
	if cfg.Debug {
		log.Printf("Histogram MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("Workers=%d PixelsPerTask=%d", cfg.Workers, cfg.PixelsPerTask)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := server.ServeMetrics(cfg.MetricsAddr); err != nil {
				log.Printf("Metrics disabled: %v", err)
			}
		}()
	}

	srv := server.NewWithConfig(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
