package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iafilius/EpiViewer/src/analysis"
	"github.com/iafilius/EpiViewer/src/plotting"
	"github.com/iafilius/EpiViewer/src/results"
)

var screenshotsFlags struct {
	file   string
	label  string
	outDir string
	dpi    int
}

var screenshotsCmd = &cobra.Command{
	Use:   "screenshots",
	Short: "Render a curated chart set from a results file",
	Long: `screenshots writes a fixed set of PNGs (sim panels, headline results, the
comparison of all sims, the last scenario set and the transmission tree) without any
interaction. Charts whose data is missing are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir := screenshotsFlags.outDir
		if outDir == "" {
			outDir = filepath.Join(cfg.OutDir, "screenshots")
		}
		n, err := runScreenshots(resultsFile(screenshotsFlags.file), screenshotsFlags.label, outDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d screenshots to %s\n", n, outDir)
		return nil
	},
}

func init() {
	f := screenshotsCmd.Flags()
	f.StringVar(&screenshotsFlags.file, "file", "", "results JSONL (default from config)")
	f.StringVar(&screenshotsFlags.label, "label", "", "sim label (default: last sim)")
	f.StringVar(&screenshotsFlags.outDir, "out-dir", "", "output folder (default <out_dir>/screenshots)")
	f.IntVar(&screenshotsFlags.dpi, "dpi", 0, "resolution (default from config)")
	rootCmd.AddCommand(screenshotsCmd)
}

// runScreenshots renders the curated set and returns how many files were written.
func runScreenshots(file, label, outDir string) (int, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, fmt.Errorf("create out dir: %w", err)
	}
	sim, err := results.LoadSim(file, label)
	if err != nil {
		return 0, err
	}
	opts := func() *plotting.Options {
		o := cfg.PlotOptions()
		if screenshotsFlags.dpi > 0 {
			o.Fig.DPI = screenshotsFlags.dpi
		}
		return &o
	}
	single := func(f *plotting.Figure, err error) ([]*plotting.Figure, error) {
		if err != nil {
			return nil, err
		}
		return []*plotting.Figure{f}, nil
	}
	result := func(key string) func() ([]*plotting.Figure, error) {
		return func() ([]*plotting.Figure, error) { return single(plotting.PlotResult(sim, key, opts())) }
	}

	toRender := []struct {
		name string
		fn   func() ([]*plotting.Figure, error)
	}{
		{"sim.png", func() ([]*plotting.Figure, error) { return plotting.PlotSim(sim, opts()) }},
		{"cum_infections.png", result("cum_infections")},
		{"new_infections.png", result("new_infections")},
		{"cum_deaths.png", result("cum_deaths")},
		{"r_eff.png", result("r_eff")},
		{"compare.png", func() ([]*plotting.Figure, error) {
			sims, err := results.LoadSims(file)
			if err != nil {
				return nil, err
			}
			if len(sims) < 2 {
				return nil, fmt.Errorf("need two sims to compare, have %d", len(sims))
			}
			return single(plotting.PlotCompare(analysis.CompareTable(sims), true, opts()))
		}},
		{"scenarios.png", func() ([]*plotting.Figure, error) {
			sc, err := results.LoadScenarios(file)
			if err != nil {
				return nil, err
			}
			return plotting.PlotScens(sc, opts())
		}},
		{"transtree.png", func() ([]*plotting.Figure, error) { return single(plotting.PlotTransTree(sim.TransTree, opts())) }},
	}

	written := 0
	for _, item := range toRender {
		figs, err := item.fn()
		if err != nil {
			results.Infof("[screenshots] skip %s: %v", item.name, err)
			continue
		}
		for _, f := range figs {
			path := filepath.Join(outDir, item.name)
			if err := f.SavePNG(path); err != nil {
				return written, fmt.Errorf("write %s: %w", path, err)
			}
			written++
			results.Debugf("[screenshots] wrote %s", path)
		}
	}
	return written, nil
}
