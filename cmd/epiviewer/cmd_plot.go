package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iafilius/EpiViewer/src/analysis"
	"github.com/iafilius/EpiViewer/src/config"
	"github.com/iafilius/EpiViewer/src/plotting"
	"github.com/iafilius/EpiViewer/src/results"
)

var plotFlags struct {
	file     string
	label    string
	key      string
	out      string
	toPlot   string
	sepFigs  bool
	logScale bool
	nCols    int
	dpi      int
	grid     bool
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render results as PNG charts",
}

var plotSimCmd = &cobra.Command{
	Use:   "sim",
	Short: "Plot the panels of one sim",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sim, err := results.LoadSim(resultsFile(plotFlags.file), plotFlags.label)
		if err != nil {
			return err
		}
		opts, err := plotOptions(plotting.DefaultSimFigName)
		if err != nil {
			return err
		}
		figs, err := plotting.PlotSim(sim, opts)
		if err != nil {
			return err
		}
		return reportFigures(cmd, opts.FigPath, len(figs), opts.SepFigs)
	},
}

var plotScensCmd = &cobra.Command{
	Use:   "scens",
	Short: "Plot the last scenario set",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := results.LoadScenarios(resultsFile(plotFlags.file))
		if err != nil {
			return err
		}
		opts, err := plotOptions(plotting.DefaultScensFigName)
		if err != nil {
			return err
		}
		figs, err := plotting.PlotScens(sc, opts)
		if err != nil {
			return err
		}
		return reportFigures(cmd, opts.FigPath, len(figs), opts.SepFigs)
	},
}

var plotResultCmd = &cobra.Command{
	Use:   "result",
	Short: "Plot a single result of one sim",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if plotFlags.key == "" {
			return errors.New("--key is required")
		}
		sim, err := results.LoadSim(resultsFile(plotFlags.file), plotFlags.label)
		if err != nil {
			return err
		}
		opts, err := plotOptions(plotFlags.key + ".png")
		if err != nil {
			return err
		}
		if _, err := plotting.PlotResult(sim, plotFlags.key, opts); err != nil {
			return err
		}
		return reportFigures(cmd, opts.FigPath, 1, false)
	},
}

var plotCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the final values of every sim in the results file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sims, err := results.LoadSims(resultsFile(plotFlags.file))
		if err != nil {
			return err
		}
		opts, err := plotOptions("compare.png")
		if err != nil {
			return err
		}
		if _, err := plotting.PlotCompare(analysis.CompareTable(sims), plotFlags.logScale, opts); err != nil {
			return err
		}
		return reportFigures(cmd, opts.FigPath, 1, false)
	},
}

var plotTransTreeCmd = &cobra.Command{
	Use:   "transtree",
	Short: "Plot transmissions per day by layer, stage and source state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sim, err := results.LoadSim(resultsFile(plotFlags.file), plotFlags.label)
		if err != nil {
			return err
		}
		opts, err := plotOptions("transtree.png")
		if err != nil {
			return err
		}
		if _, err := plotting.PlotTransTree(sim.TransTree, opts); err != nil {
			return fmt.Errorf("sim %q: %w", sim.Label, err)
		}
		return reportFigures(cmd, opts.FigPath, 1, false)
	},
}

func init() {
	f := plotCmd.PersistentFlags()
	f.StringVar(&plotFlags.file, "file", "", "results JSONL or JSON file (default from config)")
	f.StringVar(&plotFlags.label, "label", "", "sim label to pick from a JSONL file (default: last sim)")
	f.StringVar(&plotFlags.out, "out", "", "output PNG (bare names go to out_dir)")
	f.StringVar(&plotFlags.toPlot, "to-plot", "", "YAML file listing the panels to draw")
	f.BoolVar(&plotFlags.sepFigs, "sep-figs", false, "one figure per panel")
	f.BoolVar(&plotFlags.logScale, "log-scale", false, "log y axis (log x for compare)")
	f.IntVar(&plotFlags.nCols, "n-cols", 0, "panel columns (default from config)")
	f.IntVar(&plotFlags.dpi, "dpi", 0, "resolution (default from config)")
	f.BoolVar(&plotFlags.grid, "grid", false, "draw grid lines")
	plotResultCmd.Flags().StringVar(&plotFlags.key, "key", "", "result key, e.g. cum_infections")

	plotCmd.AddCommand(plotSimCmd, plotScensCmd, plotResultCmd, plotCompareCmd, plotTransTreeCmd)
	rootCmd.AddCommand(plotCmd)
}

// plotOptions merges the config defaults with the plot flags. Charts are always saved.
func plotOptions(defaultName string) (*plotting.Options, error) {
	o := cfg.PlotOptions()
	if plotFlags.toPlot != "" {
		tp, err := config.LoadToPlot(plotFlags.toPlot)
		if err != nil {
			return nil, err
		}
		o.ToPlot = tp
	}
	if plotFlags.nCols > 0 {
		o.NCols = plotFlags.nCols
	}
	if plotFlags.dpi > 0 {
		o.Fig.DPI = plotFlags.dpi
	}
	if plotFlags.grid {
		o.Grid = true
	}
	o.SepFigs = plotFlags.sepFigs
	o.LogScale = plotFlags.logScale
	o.DoSave = true
	o.FigPath = outPath(plotFlags.out)
	if o.FigPath == "" {
		o.FigPath = outPath(defaultName)
	}
	return &o, nil
}

func reportFigures(cmd *cobra.Command, path string, n int, sep bool) error {
	if sep && n > 1 {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d figures: %s .. %s\n", n, plotting.NumberedPath(path, 1), plotting.NumberedPath(path, n))
		return err
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return err
}
