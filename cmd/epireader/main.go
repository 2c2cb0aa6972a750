// Command epireader prints headline numbers for the most recent runs in a results file.
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/iafilius/EpiViewer/src/analysis"
	"github.com/iafilius/EpiViewer/src/chartutil"
	"github.com/iafilius/EpiViewer/src/results"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("epireader", flag.ContinueOnError)
	var (
		file     string
		max      int
		key      string
		label    string
		markdown bool
	)
	fs.StringVar(&file, "file", results.DefaultResultsFile, "Path to sim_results.jsonl")
	fs.IntVar(&max, "n", 50, "Max runs to load")
	fs.StringVar(&key, "key", "cum_infections", "Result key to compare")
	fs.StringVar(&label, "label", "", "Optional label filter (case-insensitive)")
	fs.BoolVar(&markdown, "markdown", false, "Print the table as markdown")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sums, err := analysis.AnalyzeRecentResults(file, results.SchemaVersion, 0)
	if err != nil {
		return err
	}
	if label != "" {
		kept := sums[:0]
		for _, s := range sums {
			if strings.EqualFold(s.Label, label) {
				kept = append(kept, s)
			}
		}
		sums = kept
	}
	if max > 0 && len(sums) > max {
		sums = sums[len(sums)-max:]
	}

	counts := map[string]int{}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Run", "Label", "Scenario", "Seed", "Days", "Pop", "Peak new inf.", "Peak day", "Final " + key})
	for _, s := range sums {
		name := s.Label
		if name == "" {
			name = "(none)"
		}
		counts[name]++
		peak := s.Keys["new_infections"]
		tw.AppendRow(table.Row{s.RunTag, name, s.Scenario, s.Seed, s.NDays, humanize.Comma(int64(s.PopSize)), number(peak.Peak), peak.PeakDay, number(s.Final(key))})
	}
	if markdown {
		tw.RenderMarkdown()
	} else {
		tw.Render()
	}

	fmt.Fprintf(w, "Total runs: %d\n", len(sums))
	for _, k := range analysis.SortedKeys(counts) {
		fmt.Fprintf(w, "%s: %d\n", k, counts[k])
	}
	if len(sums) >= 2 {
		delta, prev := analysis.CompareLastVsPrevious(sums, key)
		fmt.Fprintf(w, "Last %s vs previous average %s: %+.1f%%\n", key, number(prev), delta)
	}
	return nil
}

func number(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return chartutil.CommaTick(v)
}
