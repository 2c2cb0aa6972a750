package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"EPIVIEWER_LOG_LEVEL", "EPIVIEWER_OUT_DIR", "EPIVIEWER_STORE", "EPIVIEWER_ENGINE_CMD", "EPIVIEWER_MAX_PARALLEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "epiviewer.yaml")
	yml := `
log_level: debug
engine:
  command: python3 run_sim.py
  timeout: 90s
plot:
  font_size: 12
  grid: true
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "python3 run_sim.py", cfg.Engine.Command)
	assert.Equal(t, 90*time.Second, cfg.EngineTimeout())
	assert.Equal(t, 4, cfg.Engine.MaxParallel, "unset keys keep defaults")
	assert.True(t, cfg.Plot.CommaTicks)

	o := cfg.PlotOptions()
	assert.Equal(t, 12.0, o.FontSize)
	assert.True(t, o.Grid)
	assert.True(t, o.AsDates)
	assert.Equal(t, 100, o.Fig.DPI)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("plot: [unclosed"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("engine command forces exec", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EPIVIEWER_ENGINE_CMD", "./sim")
		cfg := DefaultConfig()
		cfg.Engine.Kind = EngineReplay
		cfg.applyEnvOverrides()
		assert.Equal(t, "./sim", cfg.Engine.Command)
		assert.Equal(t, EngineExec, cfg.Engine.Kind)
	})
	t.Run("paths and level", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EPIVIEWER_LOG_LEVEL", "warn")
		t.Setenv("EPIVIEWER_OUT_DIR", "/tmp/out")
		t.Setenv("EPIVIEWER_STORE", "/tmp/runs.db")
		t.Setenv("EPIVIEWER_MAX_PARALLEL", "2")
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, "/tmp/out", cfg.OutDir)
		assert.Equal(t, "/tmp/runs.db", cfg.StorePath)
		assert.Equal(t, 2, cfg.Engine.MaxParallel)
	})
	t.Run("bad parallelism ignored", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("EPIVIEWER_MAX_PARALLEL", "lots")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 4, cfg.Engine.MaxParallel)
	})
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"log level":    func(c *Config) { c.LogLevel = "loud" },
		"engine kind":  func(c *Config) { c.Engine.Kind = "docker" },
		"timeout":      func(c *Config) { c.Engine.Timeout = "soon" },
		"parallel":     func(c *Config) { c.Engine.MaxParallel = -1 },
		"negative dpi": func(c *Config) { c.Plot.DPI = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	cfg := DefaultConfig()
	cfg.LogLevel = "WARNING"
	assert.NoError(t, cfg.Validate())
}

func TestRequireEngineCommand(t *testing.T) {
	cfg := DefaultConfig()
	require.ErrorContains(t, cfg.RequireEngineCommand(), "EPIVIEWER_ENGINE_CMD")
	cfg.Engine.Kind = EngineReplay
	require.NoError(t, cfg.RequireEngineCommand())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	cfg := DefaultConfig()
	cfg.Engine.Command = "sim --fast"
	cfg.Plot.DateFormat = "%d %b"
	require.NoError(t, cfg.Save(path))
	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestLoadToPlot(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "panels.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
- title: New infections
  keys: [new_infections]
- title: Cumulative infections
  keys: [cum_infections, cum_reinfections]
`), 0o644))
	tp, err := LoadToPlot(good)
	require.NoError(t, err)
	require.Len(t, tp, 2)
	assert.Equal(t, []string{"New infections", "Cumulative infections"}, tp.Titles())
	assert.Equal(t, []string{"cum_infections", "cum_reinfections"}, tp[1].Keys)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("- title: Nothing\n"), 0o644))
	_, err = LoadToPlot(empty)
	require.ErrorContains(t, err, "has no keys")
}
