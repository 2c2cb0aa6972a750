package plotting

import (
	"github.com/iafilius/EpiViewer/src/results"
)

func resolveOptions(opts *Options) Options {
	if opts == nil {
		return DefaultOptions()
	}
	return *opts
}

// PlotSim draws the panels of a single simulation: per result an optional uncertainty
// band, the result line and any observed data, then intervention markers.
func PlotSim(sim *results.Sim, opts *Options) ([]*Figure, error) {
	o := resolveOptions(opts)
	args := handleArgs(o.Fig, o.Plot, o.Scatter, o.Axis, o.Fill, o.Legend)
	toPlot, nRows, err := handleToPlot("sim", o.ToPlot, o.nCols())
	if err != nil {
		return nil, err
	}
	l := createFigs(args, o.fontSize(), o.FontFamily, o.SepFigs, o.Figure)
	l.nRows, l.nCols = nRows, o.nCols()
	l.logScale, l.logPanels = o.LogScale, o.LogPanels

	for pnum, panel := range toPlot {
		ax := l.createSubplots(pnum, panel.Title)
		for _, key := range panel.Keys {
			res, err := sim.Result(key)
			if err != nil {
				return nil, err
			}
			color := HexColor(res.Color)
			if c, ok := o.Colors[key]; ok {
				color = HexColor(c)
			}
			label := res.Name
			if lb, ok := o.Labels[key]; ok {
				label = lb
			}
			if res.HasBounds() {
				ax.FillBetween(Band{X: results.DayVector(len(res.Low)), Low: res.Low, High: res.High, Color: color, Alpha: args.Fill.Alpha})
			}
			ax.Plot(Line{X: results.DayVector(len(res.Values)), Y: res.Values, Label: label, Color: color, Width: args.Plot.LineWidth, Alpha: args.Plot.Alpha})
			plotData(ax, sim, key, args.Scatter)
			resetTicks(ax, sim.StartDay.Time, o.Interval, o.AsDates, o.DateFormat)
		}
		plotInterventions(sim, ax)
		titleGridLegend(ax, panel.Title, o.Grid, o.CommaTicks, o.SetYLim, args.Legend, true)
	}
	return tidyUp(l, o.DoSave, o.FigPath, o.DoShow, o.Shower, DefaultSimFigName)
}

// PlotResult draws one result on a single axes labelled plot_result, reusing that
// axes when the supplied figure already has it.
func PlotResult(sim *results.Sim, key string, opts *Options) (*Figure, error) {
	o := resolveOptions(opts)
	fig := FigArgs{Width: 16, Height: 8}.merge(o.Fig)
	axis := o.Axis
	if axis.Top <= 0 {
		axis.Top = 0.95
	}
	args := handleArgs(fig, o.Plot, o.Scatter, axis, FillArgs{}, o.Legend)
	l := createFigs(args, o.fontSize(), o.FontFamily, false, o.Figure)

	res, err := sim.Result(key)
	if err != nil {
		return nil, err
	}
	color := HexColor(res.Color)
	if c, ok := o.Colors[key]; ok {
		color = HexColor(c)
	}
	label := res.Name
	if lb, ok := o.Labels[key]; ok {
		label = lb
	}

	var ax *Axes
	if len(l.fig.Axes) > 0 && l.fig.Axes[0].Label == "plot_result" {
		ax = l.fig.Axes[0]
	} else {
		ax = l.fig.AddSubplot(1, 1, 1, "plot_result")
	}
	ax.Plot(Line{X: results.DayVector(len(res.Values)), Y: res.Values, Label: label, Color: color, Width: args.Plot.LineWidth, Alpha: args.Plot.Alpha})
	plotData(ax, sim, key, args.Scatter)
	plotInterventions(sim, ax)
	titleGridLegend(ax, res.Name, o.Grid, o.CommaTicks, o.SetYLim, args.Legend, true)
	resetTicks(ax, sim.StartDay.Time, o.Interval, o.AsDates, o.DateFormat)

	if o.DoSave {
		if _, err := tidyUp(l, true, o.FigPath, false, nil, DefaultSimFigName); err != nil {
			return l.fig, err
		}
	}
	return l.fig, nil
}
