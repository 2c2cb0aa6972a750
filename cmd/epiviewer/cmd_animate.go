package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iafilius/EpiViewer/src/plotting"
	"github.com/iafilius/EpiViewer/src/results"
)

var animateFlags struct {
	file   string
	labels []string
	out    string
	width  int
	fps    int
	all    bool
}

var animateCmd = &cobra.Command{
	Use:   "animate",
	Short: "Write the transmission tree animation as an MJPEG AVI",
	Long: `animate draws one frame per day with every person as a dot coloured by state
and arrows from source to target. Several sims (selected with --label) are drawn side
by side.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file := resultsFile(animateFlags.file)
		var sims []*results.Sim
		if len(animateFlags.labels) == 0 {
			sim, err := results.LoadSim(file, "")
			if err != nil {
				return err
			}
			sims = append(sims, sim)
		}
		for _, l := range animateFlags.labels {
			sim, err := results.LoadSim(file, l)
			if err != nil {
				return err
			}
			sims = append(sims, sim)
		}
		out := outPath(animateFlags.out)
		if out == "" {
			out = outPath(plotting.DefaultAnimationFile)
		}
		err := plotting.AnimateTransTree(cmd.Context(), sims, plotting.AnimateOptions{
			Path:       out,
			Width:      animateFlags.width,
			FPS:        animateFlags.fps,
			AnimateAll: animateFlags.all,
		})
		if err != nil {
			return err
		}
		names := make([]string, len(sims))
		for i, s := range sims {
			names[i] = s.Label
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", out, strings.Join(names, ", "))
		return nil
	},
}

func init() {
	f := animateCmd.Flags()
	f.StringVar(&animateFlags.file, "file", "", "results JSONL or JSON file (default from config)")
	f.StringSliceVar(&animateFlags.labels, "label", nil, "sim labels to animate side by side (default: last sim)")
	f.StringVar(&animateFlags.out, "out", "", "output AVI (bare names go to out_dir)")
	f.IntVar(&animateFlags.width, "width", 0, "frame width in pixels")
	f.IntVar(&animateFlags.fps, "fps", 0, "frames per second")
	f.BoolVar(&animateFlags.all, "all", false, "extra frame per day before targets are marked")
	rootCmd.AddCommand(animateCmd)
}
