package plotting

import (
	"strings"

	"github.com/iafilius/EpiViewer/src/analysis"
)

// compareCategories maps a result-key prefix to its panel title, in panel order.
var compareCategories = []struct{ prefix, title string }{
	{"cum", "Cumulative counts"},
	{"new", "New counts"},
	{"n", "Number in state"},
	{"r", "R_eff"},
}

// compareCategory returns the prefix of key if it names a panel, else "other".
func compareCategory(key string) string {
	prefix, _, _ := strings.Cut(key, "_")
	for _, c := range compareCategories {
		if c.prefix == prefix {
			return prefix
		}
	}
	return "other"
}

// PlotCompare draws the final values of several sims as horizontal grouped bars, one
// panel per key category. Counts use a log axis when logScale is set; R_eff never
// does and carries the legend below it. Keys of no known category are not drawn.
func PlotCompare(cmp *analysis.Comparison, logScale bool, opts *Options) (*Figure, error) {
	o := resolveOptions(opts)
	fig := FigArgs{Width: 16, Height: 16}.merge(o.Fig)
	axis := AxisArgs{Left: 0.16, Bottom: 0.05, Right: 0.98, Top: 0.98, WSpace: 0.50, HSpace: 0.10}.merge(o.Axis)
	args := handleArgs(fig, o.Plot, o.Scatter, axis, o.Fill, o.Legend)
	l := createFigs(args, o.fontSize(), o.FontFamily, false, o.Figure)

	for i, c := range compareCategories {
		var ax *Axes
		notREff := c.prefix != "r"
		if notREff {
			ax = l.fig.AddSubplot(2, 2, i+1, "compare_"+c.prefix)
		} else {
			ax = l.fig.AddSubplot(8, 2, 10, "compare_"+c.prefix)
		}
		var rows []int
		for k, key := range cmp.Keys {
			if compareCategory(key) == c.prefix {
				rows = append(rows, k)
			}
		}
		cats := make([]string, len(rows))
		for j, k := range rows {
			cats[j] = cmp.Keys[k]
		}
		groups := make([]BarGroup, len(cmp.Labels))
		for j, label := range cmp.Labels {
			vals := make([]float64, len(rows))
			for r, k := range rows {
				vals[r] = cmp.Values[k][j]
			}
			groups[j] = BarGroup{Label: label, Color: cycleColor(j), Values: vals}
		}
		if len(rows) > 0 {
			ax.BarH(cats, groups)
		}
		ax.LogX = notREff && logScale
		ax.Grid = true
		if !notREff {
			ax.ShowLegend = true
			ax.LegendLoc = "below"
		}
	}
	if o.DoSave {
		if _, err := tidyUp(l, true, o.FigPath, false, nil, DefaultSimFigName); err != nil {
			return l.fig, err
		}
	}
	return l.fig, nil
}
