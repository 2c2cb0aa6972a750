// Command epiviewer draws charts and dashboards for epidemic simulation results and
// runs the scenario battery through a configured simulator.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iafilius/EpiViewer/src/config"
	"github.com/iafilius/EpiViewer/src/results"
)

var (
	cfgPath  string
	verbose  bool
	logLevel string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "epiviewer",
	Short: "Charts, dashboards and scenario runs for epidemic simulations",
	Long: `epiviewer renders simulation results written as JSONL envelopes.

Static charts are PNG files, the dashboard is a self-contained HTML page backed by
plotly.js, and the scenario battery runs through an external simulator (or replays
stored runs) before plotting.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		if verbose {
			c.LogLevel = "debug"
		}
		if err := c.Validate(); err != nil {
			return err
		}

		zapCfg := zap.NewProductionConfig()
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		l, err := zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		results.SetLogger(logger)
		results.SetLogLevel(c.LogLevel)
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resultsFile returns the flag value or the configured results file.
func resultsFile(flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.ResultsFile
}

// outPath places bare file names in the configured output folder.
func outPath(name string) string {
	if name == "" || filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	return filepath.Join(cfg.OutDir, name)
}
