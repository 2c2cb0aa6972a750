package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iafilius/EpiViewer/src/plotly"
	"github.com/iafilius/EpiViewer/src/results"
)

var dashboardFlags struct {
	file     string
	label    string
	out      string
	plotlyJS string
	serve    bool
	addr     string
	watch    bool
	png      string
	width    int
	height   int
	debounce time.Duration
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Build the interactive HTML dashboard for one sim",
	Long: `dashboard writes a self-contained HTML page with the sim panels and, when the sim
carries per-person states, the people views and the day-by-day animation.

With --serve the page is rebuilt on every request instead. With --watch the HTML (and
the --png snapshot) is rebuilt whenever the results file changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dashboardFlags.serve && dashboardFlags.png != "" {
			return errors.New("--png cannot be combined with --serve")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		file := resultsFile(dashboardFlags.file)
		build := func() (plotly.Page, error) {
			sim, err := results.LoadSim(file, dashboardFlags.label)
			if err != nil {
				return plotly.Page{}, err
			}
			return plotly.BuildPage(sim, dashboardJS())
		}
		if dashboardFlags.serve {
			addr := dashboardFlags.addr
			if addr == "" {
				addr = cfg.Dashboard.Addr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", file, addr)
			return plotly.Serve(ctx, addr, build)
		}

		out := outPath(dashboardFlags.out)
		rebuild := func() error {
			p, err := build()
			if err != nil {
				return err
			}
			if err := plotly.WriteDashboardFile(out, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d panels)\n", out, len(p.Panels))
			if dashboardFlags.png == "" {
				return nil
			}
			return snapshotDashboard(ctx, out, outPath(dashboardFlags.png))
		}
		if err := rebuild(); err != nil {
			return err
		}
		if dashboardFlags.png != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath(dashboardFlags.png))
		}
		if !dashboardFlags.watch {
			return nil
		}
		return plotly.Watch(ctx, file, dashboardFlags.debounce, rebuild)
	},
}

func init() {
	f := dashboardCmd.Flags()
	f.StringVar(&dashboardFlags.file, "file", "", "results JSONL or JSON file (default from config)")
	f.StringVar(&dashboardFlags.label, "label", "", "sim label (default: last sim)")
	f.StringVar(&dashboardFlags.out, "out", "dashboard.html", "output HTML (bare names go to out_dir)")
	f.StringVar(&dashboardFlags.plotlyJS, "plotly-js", "", "plotly.js URL (default from config)")
	f.BoolVar(&dashboardFlags.serve, "serve", false, "serve the dashboard over HTTP")
	f.StringVar(&dashboardFlags.addr, "addr", "", "listen address for --serve (default from config)")
	f.BoolVar(&dashboardFlags.watch, "watch", false, "rebuild when the results file changes")
	f.StringVar(&dashboardFlags.png, "png", "", "also capture the page as PNG through headless Chrome")
	f.IntVar(&dashboardFlags.width, "width", 1400, "browser width for --png")
	f.IntVar(&dashboardFlags.height, "height", 1000, "browser height for --png")
	f.DurationVar(&dashboardFlags.debounce, "debounce", 500*time.Millisecond, "quiet period before a --watch rebuild")
	rootCmd.AddCommand(dashboardCmd)
}

func dashboardJS() string {
	if js := strings.TrimSpace(dashboardFlags.plotlyJS); js != "" {
		return js
	}
	return cfg.Dashboard.PlotlyJS
}

func snapshotDashboard(ctx context.Context, htmlPath, pngPath string) error {
	target, err := plotly.FileURL(htmlPath)
	if err != nil {
		return err
	}
	return plotly.Snapshot(ctx, target, pngPath, plotly.SnapshotOptions{
		Width:  dashboardFlags.width,
		Height: dashboardFlags.height,
	})
}
