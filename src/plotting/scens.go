package plotting

import (
	"time"

	"github.com/iafilius/EpiViewer/src/results"
)

// PlotScens draws each scenario's best estimate with its low/high band. Colours come
// from GridColors unless overridden per scenario key; only the first panel gets a legend.
func PlotScens(scens *results.Scenarios, opts *Options) ([]*Figure, error) {
	o := resolveOptions(opts)
	args := handleArgs(o.Fig, o.Plot, o.Scatter, o.Axis, o.Fill, o.Legend)
	toPlot, nRows, err := handleToPlot("scens", o.ToPlot, o.nCols())
	if err != nil {
		return nil, err
	}
	l := createFigs(args, o.fontSize(), o.FontFamily, o.SepFigs, o.Figure)
	l.nRows, l.nCols = nRows, o.nCols()
	l.logScale, l.logPanels = o.LogScale, o.LogPanels

	defaultColors := GridColors(len(scens.ScenarioKeys))
	for pnum, panel := range toPlot {
		ax := l.createSubplots(pnum, panel.Title)
		for _, key := range panel.Keys {
			rs, err := scens.Result(key)
			if err != nil {
				return nil, err
			}
			for snum, sr := range rs {
				sim := scens.FirstSim(sr.Key)
				color := HexColor("#000000")
				if snum < len(defaultColors) {
					color = defaultColors[snum]
				}
				if c, ok := o.Colors[sr.Key]; ok {
					color = HexColor(c)
				}
				label := sr.Name
				if lb, ok := o.Labels[sr.Key]; ok {
					label = lb
				}
				tvec := []float64(scens.TVec)
				if len(tvec) == 0 {
					tvec = results.DayVector(len(sr.Best))
				}
				if len(sr.Low) > 0 && len(sr.High) > 0 {
					ax.FillBetween(Band{X: tvec[:minInt(len(tvec), len(sr.Low))], Low: sr.Low, High: sr.High, Color: color, Alpha: args.Fill.Alpha})
				}
				ax.Plot(Line{X: tvec[:minInt(len(tvec), len(sr.Best))], Y: sr.Best, Label: label, Color: color, Width: args.Plot.LineWidth, Alpha: args.Plot.Alpha})
				plotData(ax, sim, key, args.Scatter)
				plotInterventions(sim, ax)
				resetTicks(ax, scenStart(scens, sim), o.Interval, o.AsDates, o.DateFormat)
			}
		}
		titleGridLegend(ax, panel.Title, o.Grid, o.CommaTicks, o.SetYLim, args.Legend, pnum == 0)
	}
	return tidyUp(l, o.DoSave, o.FigPath, o.DoShow, o.Shower, DefaultScensFigName)
}

func scenStart(scens *results.Scenarios, sim *results.Sim) time.Time {
	if sim != nil && !sim.StartDay.IsZero() {
		return sim.StartDay.Time
	}
	return scens.StartDay.Time
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
