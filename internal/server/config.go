package server

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/histogram-mcp/internal/histogram"
)

// Environment variables read by LoadConfig.
const (
	EnvConfigFile    = "HISTOGRAM_MCP_CONFIG"
	EnvLogLevel      = "HISTOGRAM_MCP_LOG_LEVEL"
	EnvWorkers       = "HISTOGRAM_MCP_WORKERS"
	EnvPixelsPerTask = "HISTOGRAM_MCP_PIXELS_PER_TASK"
	EnvMetricsAddr   = "HISTOGRAM_MCP_METRICS_ADDR"
)

// Config holds the server settings.
type Config struct {
	// Debug enables debug logging.
	Debug bool

	// Workers selects the scheduler. Zero spreads row strips over
	// GOMAXPROCS goroutines; N > 0 runs a pool of N tile workers.
	Workers int

	// PixelsPerTask is the cost hint given to the scheduler.
	PixelsPerTask int

	// MetricsAddr is the listen address for /metrics. Empty disables it.
	MetricsAddr string
}

// fileConfig is the YAML form of Config. Absent keys keep their defaults.
type fileConfig struct {
	LogLevel      *string `yaml:"log_level"`
	Workers       *int    `yaml:"workers"`
	PixelsPerTask *int    `yaml:"pixels_per_task"`
	MetricsAddr   *string `yaml:"metrics_addr"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		PixelsPerTask: histogram.DefaultPixelsPerTask,
	}
}

// LoadConfig builds the configuration from the defaults, then the YAML file
// named by HISTOGRAM_MCP_CONFIG if any, then the environment. Problems are
// logged and the affected settings keep their previous values.
func LoadConfig() Config {
	cfg := DefaultConfig()
	if path := os.Getenv(EnvConfigFile); path != "" {
		fromFile, err := LoadConfigFile(path, cfg)
		if err != nil {
			log.Printf("Ignoring config file: %v", err)
		} else {
			cfg = fromFile
		}
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Debug = strings.EqualFold(v, "debug")
	}
	cfg.Workers = envInt(EnvWorkers, cfg.Workers)
	cfg.PixelsPerTask = envInt(EnvPixelsPerTask, cfg.PixelsPerTask)
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		cfg.MetricsAddr = v
	}
	return cfg
}

// LoadConfigFile overlays the YAML file at path onto base.
func LoadConfigFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return base, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg := base
	if fc.LogLevel != nil {
		cfg.Debug = strings.EqualFold(*fc.LogLevel, "debug")
	}
	if fc.Workers != nil {
		if *fc.Workers < 0 {
			return base, fmt.Errorf("config %s: workers must be >= 0, got %d", path, *fc.Workers)
		}
		cfg.Workers = *fc.Workers
	}
	if fc.PixelsPerTask != nil {
		if *fc.PixelsPerTask <= 0 {
			return base, fmt.Errorf("config %s: pixels_per_task must be > 0, got %d", path, *fc.PixelsPerTask)
		}
		cfg.PixelsPerTask = *fc.PixelsPerTask
	}
	if fc.MetricsAddr != nil {
		cfg.MetricsAddr = *fc.MetricsAddr
	}
	return cfg, nil
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Printf("Ignoring %s=%q: want a non-negative integer", name, v)
		return def
	}
	return n
}

// HistogramOptions converts the config into histogram options.
func (c Config) HistogramOptions() []histogram.Option {
	opts := []histogram.Option{histogram.WithPixelsPerTask(c.PixelsPerTask)}
	if c.Workers > 0 {
		opts = append(opts, histogram.WithScheduler(histogram.TileScheduler{Workers: c.Workers}))
	}
	return opts
}
