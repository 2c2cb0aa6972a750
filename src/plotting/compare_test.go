package plotting

import (
	"math"
	"testing"

	"github.com/iafilius/EpiViewer/src/analysis"
)

func TestCompareCategory(t *testing.T) {
	cases := map[string]string{
		"cum_deaths":    "cum",
		"new_tests":     "new",
		"n_susceptible": "n",
		"r_eff":         "r",
		"prevalence":    "other",
		"doubling_time": "other",
	}
	for key, want := range cases {
		if got := compareCategory(key); got != want {
			t.Fatalf("compareCategory(%q)=%q want %q", key, got, want)
		}
	}
}

func TestPlotCompare(t *testing.T) {
	cmp := &analysis.Comparison{
		Keys:   []string{"cum_deaths", "cum_infections", "n_infectious", "new_infections", "prevalence", "r_eff"},
		Labels: []string{"Baseline", "Vaccine"},
		Values: [][]float64{{10, 5}, {1000, 600}, {40, 20}, {30, 12}, {0.1, 0.05}, {1.3, math.NaN()}},
	}
	o := smallOptions()
	fig, err := PlotCompare(cmp, true, o)
	if err != nil {
		t.Fatalf("PlotCompare: %v", err)
	}
	if len(fig.Axes) != 4 {
		t.Fatalf("axes=%d want 4", len(fig.Axes))
	}
	cum := fig.FindAxes("compare_cum")
	if len(cum.BarCategories) != 2 || !cum.LogX || len(cum.BarGroups) != 2 {
		t.Fatalf("cum panel: %+v", cum.BarCategories)
	}
	r := fig.FindAxes("compare_r")
	if r.LogX || !r.ShowLegend || r.LegendLoc != "below" || r.NRows != 8 || r.Index != 10 {
		t.Fatalf("r panel: log=%v legend=%v loc=%q", r.LogX, r.ShowLegend, r.LegendLoc)
	}
	if fig.Width != 8 || fig.Axis.Left != 0.16 || fig.Axis.WSpace != 0.50 {
		t.Fatalf("fig %vin axis %+v", fig.Width, fig.Axis)
	}
	if _, err := fig.Render(); err != nil {
		t.Fatalf("render: %v", err)
	}
}
