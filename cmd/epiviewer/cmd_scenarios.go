package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/iafilius/EpiViewer/src/config"
	"github.com/iafilius/EpiViewer/src/results"
	"github.com/iafilius/EpiViewer/src/scenario"
	"github.com/iafilius/EpiViewer/src/store"
)

var scenariosFlags struct {
	markdown bool
	all      bool
	plot     bool
	save     bool
	nRuns    int
	outDir   string
	file     string
	noStore  bool
	noWrite  bool
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List or run the scripted scenario battery",
}

var scenariosListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the battery cases in run order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var rows []table.Row
		for i, c := range scenario.Battery() {
			runs := c.NRuns
			if c.Kind == scenario.KindSims {
				runs = len(c.Sims)
			}
			if c.Kind == scenario.KindScenarios && c.Scens != nil {
				runs = c.Scens.Metapars.NRuns
			}
			rows = append(rows, table.Row{i + 1, c.Name, c.Kind, runs, c.FigPath, c.Heading})
		}
		renderTable(cmd.OutOrStdout(), table.Row{"#", "Case", "Kind", "Runs", "Figure", "Description"}, rows, scenariosFlags.markdown)
		return nil
	},
}

var scenariosRunCmd = &cobra.Command{
	Use:   "run [case...]",
	Short: "Run battery cases through the configured engine",
	Long: `run executes the named cases (or every case with --all) in battery order. Each run
is appended to the results file and saved in the store; --plot draws the case figures
and --save writes them to disk.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cases, err := selectCases(args, scenariosFlags.all)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var st *store.SQLStore
		if !scenariosFlags.noStore || cfg.Engine.Kind == config.EngineReplay {
			st, err = store.Open(cfg.StorePath)
			if err != nil {
				return err
			}
			defer st.Close()
		}
		eng, closeEng, err := openEngine(cfg, st)
		if err != nil {
			return err
		}
		defer closeEng()

		opts := scenario.RunOptions{
			NRuns:       scenariosFlags.nRuns,
			MaxParallel: cfg.Engine.MaxParallel,
			DoPlot:      scenariosFlags.plot || scenariosFlags.save,
			DoSave:      scenariosFlags.save,
			OutDir:      scenariosFlags.outDir,
		}
		po := cfg.PlotOptions()
		opts.Plot = &po
		// replayed runs are already stored
		if !scenariosFlags.noStore && cfg.Engine.Kind != config.EngineReplay {
			opts.Record = func(env *results.Envelope) error {
				_, err := st.Save(env)
				return err
			}
		}
		if !scenariosFlags.noWrite {
			w, err := results.NewResultWriter(resultsFile(scenariosFlags.file))
			if err != nil {
				return err
			}
			opts.Writer = w
			defer func() {
				if cerr := w.Close(); cerr != nil {
					results.Errorf("close results file: %v", cerr)
				}
			}()
		}

		var rows []table.Row
		for _, c := range cases {
			out, err := scenario.RunCase(ctx, eng, c, opts)
			if err != nil {
				return err
			}
			rows = append(rows, table.Row{out.Case, c.Kind, len(out.Sims), len(out.Figures), out.RunID})
		}
		renderTable(cmd.OutOrStdout(), table.Row{"Case", "Kind", "Sims", "Figures", "Run ID"}, rows, scenariosFlags.markdown)
		return nil
	},
}

func init() {
	scenariosCmd.PersistentFlags().BoolVar(&scenariosFlags.markdown, "markdown", false, "print tables as markdown")

	f := scenariosRunCmd.Flags()
	f.BoolVar(&scenariosFlags.all, "all", false, "run every case")
	f.BoolVar(&scenariosFlags.plot, "plot", false, "draw the case figures")
	f.BoolVar(&scenariosFlags.save, "save", false, "write the case figures (implies --plot)")
	f.IntVar(&scenariosFlags.nRuns, "n-runs", 0, "replace the run count of multi-run cases")
	f.StringVar(&scenariosFlags.outDir, "out-dir", "", "folder for figures (default: each case's own)")
	f.StringVar(&scenariosFlags.file, "file", "", "results JSONL to append to (default from config)")
	f.BoolVar(&scenariosFlags.noStore, "no-store", false, "do not save runs in the store")
	f.BoolVar(&scenariosFlags.noWrite, "no-write", false, "do not append runs to the results file")

	scenariosCmd.AddCommand(scenariosListCmd, scenariosRunCmd)
	rootCmd.AddCommand(scenariosCmd)
}

func selectCases(names []string, all bool) ([]scenario.Case, error) {
	if all {
		if len(names) > 0 {
			return nil, errors.New("--all takes no case names")
		}
		return scenario.Battery(), nil
	}
	if len(names) == 0 {
		return nil, errors.New("name at least one case or pass --all (see 'scenarios list')")
	}
	var out []scenario.Case
	for _, n := range names {
		c, ok := scenario.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("unknown case %q", n)
		}
		out = append(out, c)
	}
	return out, nil
}
