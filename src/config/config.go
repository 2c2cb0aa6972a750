// Package config loads the YAML configuration shared by the epiviewer commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iafilius/EpiViewer/src/plotly"
	"github.com/iafilius/EpiViewer/src/plotting"
)

// DefaultPath is where the commands look for a config file.
const DefaultPath = "epiviewer.yaml"

// Engine kinds.
const (
	EngineExec   = "exec"
	EngineReplay = "replay"
)

// Config is the root configuration.
type Config struct {
	LogLevel    string          `yaml:"log_level"`
	OutDir      string          `yaml:"out_dir"`
	ResultsFile string          `yaml:"results_file"`
	StorePath   string          `yaml:"store_path"`
	Engine      EngineConfig    `yaml:"engine"`
	Plot        PlotConfig      `yaml:"plot"`
	Dashboard   DashboardConfig `yaml:"dashboard"`
}

// EngineConfig selects how simulations are run.
type EngineConfig struct {
	Kind        string `yaml:"kind"`
	Command     string `yaml:"command"`
	Timeout     string `yaml:"timeout"`
	MaxParallel int    `yaml:"max_parallel"`
	// AnySeed lets the replay engine fall back to another seed of the same label.
	AnySeed bool `yaml:"any_seed"`
}

// PlotConfig holds the static chart defaults.
type PlotConfig struct {
	DPI        int     `yaml:"dpi"`
	FontSize   float64 `yaml:"font_size"`
	FontFamily string  `yaml:"font_family"`
	NCols      int     `yaml:"n_cols"`
	Grid       bool    `yaml:"grid"`
	CommaTicks bool    `yaml:"commaticks"`
	AsDates    bool    `yaml:"as_dates"`
	DateFormat string  `yaml:"date_format"`
	Interval   int     `yaml:"interval"`
}

// DashboardConfig configures the HTML dashboard.
type DashboardConfig struct {
	Addr     string `yaml:"addr"`
	PlotlyJS string `yaml:"plotly_js"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:    "info",
		OutDir:      "results",
		ResultsFile: "results/sim_results.jsonl",
		StorePath:   "results/epiviewer.db",
		Engine: EngineConfig{
			Kind:        EngineExec,
			Timeout:     "10m",
			MaxParallel: 4,
		},
		Plot: PlotConfig{
			DPI:        100,
			FontSize:   18,
			NCols:      1,
			CommaTicks: true,
			AsDates:    true,
		},
		Dashboard: DashboardConfig{
			Addr:     "127.0.0.1:8050",
			PlotlyJS: plotly.DefaultPlotlyJS,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error. Environment
// overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML, creating the folder.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EPIVIEWER_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("EPIVIEWER_OUT_DIR"); v != "" {
		c.OutDir = v
	}
	if v := os.Getenv("EPIVIEWER_STORE"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("EPIVIEWER_ENGINE_CMD"); v != "" {
		c.Engine.Command = v
		c.Engine.Kind = EngineExec
	}
	if v := os.Getenv("EPIVIEWER_MAX_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Engine.MaxParallel = n
		}
	}
}

// EngineTimeout parses the engine timeout, defaulting to ten minutes.
func (c *Config) EngineTimeout() time.Duration {
	d, err := time.ParseDuration(c.Engine.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

var validLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate reports the first configuration problem.
func (c *Config) Validate() error {
	lvl := strings.ToLower(strings.TrimSpace(c.LogLevel))
	ok := false
	for _, l := range validLevels {
		if lvl == l {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("invalid log_level %q (valid: %v)", c.LogLevel, validLevels)
	}
	switch c.Engine.Kind {
	case EngineExec, EngineReplay:
	default:
		return fmt.Errorf("invalid engine.kind %q (valid: %s, %s)", c.Engine.Kind, EngineExec, EngineReplay)
	}
	if c.Engine.Timeout != "" {
		if _, err := time.ParseDuration(c.Engine.Timeout); err != nil {
			return fmt.Errorf("invalid engine.timeout %q: %w", c.Engine.Timeout, err)
		}
	}
	if c.Engine.MaxParallel < 0 {
		return fmt.Errorf("engine.max_parallel must be >= 0, got %d", c.Engine.MaxParallel)
	}
	if c.Plot.DPI < 0 || c.Plot.NCols < 0 || c.Plot.FontSize < 0 || c.Plot.Interval < 0 {
		return fmt.Errorf("plot settings must not be negative: %+v", c.Plot)
	}
	return nil
}

// RequireEngineCommand is checked by commands that actually run the simulator.
func (c *Config) RequireEngineCommand() error {
	if c.Engine.Kind == EngineExec && strings.TrimSpace(c.Engine.Command) == "" {
		return fmt.Errorf("engine.command not configured (set it in %s or EPIVIEWER_ENGINE_CMD)", DefaultPath)
	}
	return nil
}

// PlotOptions turns the plot section into plotting options.
func (c *Config) PlotOptions() plotting.Options {
	o := plotting.DefaultOptions()
	p := c.Plot
	o.Fig.DPI = p.DPI
	if p.FontSize > 0 {
		o.FontSize = p.FontSize
	}
	o.FontFamily = p.FontFamily
	if p.NCols > 0 {
		o.NCols = p.NCols
	}
	o.Grid = p.Grid
	o.CommaTicks = p.CommaTicks
	o.AsDates = p.AsDates
	o.DateFormat = p.DateFormat
	o.Interval = p.Interval
	return o
}

// LoadToPlot reads a YAML list of panels, each with a title and its result keys.
func LoadToPlot(path string) (plotting.ToPlot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read to_plot: %w", err)
	}
	var tp plotting.ToPlot
	if err := yaml.Unmarshal(data, &tp); err != nil {
		return nil, fmt.Errorf("parse to_plot %s: %w", path, err)
	}
	for i, p := range tp {
		if len(p.Keys) == 0 {
			return nil, fmt.Errorf("to_plot %s: panel %d (%q) has no keys", path, i, p.Title)
		}
	}
	return tp, nil
}
