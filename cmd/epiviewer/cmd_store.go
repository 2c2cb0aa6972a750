package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/iafilius/EpiViewer/src/store"
)

var storeFlags struct {
	path     string
	kind     string
	label    string
	runID    string
	limit    int
	out      string
	markdown bool
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the SQLite run store",
}

var storeImportCmd = &cobra.Command{
	Use:   "import [file.jsonl...]",
	Short: "Copy the envelopes of JSONL results files into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{cfg.ResultsFile}
		}
		return withStore(func(st *store.SQLStore) error {
			total := 0
			for _, f := range args {
				n, err := st.ImportJSONL(f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d runs\n", f, n)
				total += n
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d runs into %s\n", total, st.Path())
			return nil
		})
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.SQLStore) error {
			runs, err := st.List(store.Filter{
				Kind:  storeFlags.kind,
				Label: storeFlags.label,
				RunID: storeFlags.runID,
				Limit: storeFlags.limit,
			})
			if err != nil {
				return err
			}
			rows := make([]table.Row, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, table.Row{r.ID, r.Kind, r.Label, r.Scenario, r.Seed, r.RunTag, r.CreatedAt})
			}
			renderTable(cmd.OutOrStdout(), table.Row{"ID", "Kind", "Label", "Scenario", "Seed", "Run tag", "Stored"}, rows, storeFlags.markdown)
			return nil
		})
	},
}

var storeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored envelope as JSON",
	Long:  "show prints one stored run; the output (or --out file) is readable by the plot and dashboard commands.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.SQLStore) error {
			env, err := st.Load(args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			var w io.Writer = cmd.OutOrStdout()
			if storeFlags.out != "" {
				f, err := os.Create(storeFlags.out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(env)
		})
	},
}

func init() {
	storeCmd.PersistentFlags().StringVar(&storeFlags.path, "store", "", "SQLite file (default from config)")
	lf := storeListCmd.Flags()
	lf.StringVar(&storeFlags.kind, "kind", "", "only sim or scenarios")
	lf.StringVar(&storeFlags.label, "label", "", "only this label")
	lf.StringVar(&storeFlags.runID, "run-id", "", "only runs of this battery run")
	lf.IntVar(&storeFlags.limit, "limit", 50, "maximum rows (0 for all)")
	lf.BoolVar(&storeFlags.markdown, "markdown", false, "print as markdown")
	storeShowCmd.Flags().StringVar(&storeFlags.out, "out", "", "write to this file instead of stdout")

	storeCmd.AddCommand(storeImportCmd, storeListCmd, storeShowCmd)
	rootCmd.AddCommand(storeCmd)
}

func withStore(fn func(st *store.SQLStore) error) error {
	path := storeFlags.path
	if path == "" {
		path = cfg.StorePath
	}
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}
