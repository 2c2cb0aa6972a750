package plotting

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/iafilius/EpiViewer/src/results"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Default output names used when saving without a path.
const (
	DefaultSimFigName   = "covasim.png"
	DefaultScensFigName = "covasim_scenarios.png"
)

// layout tracks the figure(s) of one plotting call and how panels map onto them.
type layout struct {
	args       Args
	fontSize   float64
	fontFamily string
	sepFigs    bool
	nRows      int
	nCols      int
	logScale   bool
	logPanels  []string

	fig  *Figure
	figs []*Figure
}

// createFigs prepares the target figure: the caller's (reused) or a new one, or
// nothing yet when every panel gets its own figure.
func createFigs(args Args, fontSize float64, fontFamily string, sepFigs bool, fig *Figure) *layout {
	l := &layout{args: args, fontSize: fontSize, fontFamily: fontFamily, sepFigs: sepFigs, nRows: 1, nCols: 1}
	if sepFigs {
		l.figs = []*Figure{}
		return l
	}
	if fig == nil {
		fig = NewFigure(args.Fig)
	}
	l.fig = l.style(fig)
	return l
}

func (l *layout) style(f *Figure) *Figure {
	f.Axis = l.args.Axis
	f.FontSize = l.fontSize
	if l.fontFamily != "" {
		f.FontFamily = l.fontFamily
	}
	return f
}

// createSubplots returns the axes for panel pnum (0-based), reusing an existing axes
// labelled ax<pnum+1>, and applies the log scale when asked for.
func (l *layout) createSubplots(pnum int, title string) *Axes {
	label := fmt.Sprintf("ax%d", pnum+1)
	var ax *Axes
	if l.sepFigs {
		f := l.style(NewFigure(l.args.Fig))
		l.figs = append(l.figs, f)
		ax = f.AddSubplot(1, 1, 1, label)
	} else {
		ax = l.fig.AddSubplot(l.nRows, l.nCols, pnum+1, label)
	}
	if l.logScale {
		if len(l.logPanels) == 0 || containsFold(l.logPanels, title) {
			ax.LogY = true
		}
	}
	return ax
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// plotData overlays observed data for key in the result's colour, plus a black
// "Data" legend swatch.
func plotData(ax *Axes, sim *results.Sim, key string, sa ScatterArgs) {
	if sim == nil {
		return
	}
	xs, ys := sim.DataDays(key)
	if len(xs) == 0 {
		return
	}
	color := drawing.ColorBlack
	if res, ok := sim.Results[key]; ok && res != nil {
		color = HexColor(res.Color)
	}
	ax.Scatter(Scatter{X: xs, Y: ys, Color: color, Size: sa.Size, Marker: sa.Marker})
	ax.LegendExtras = append(ax.LegendExtras, LegendEntry{Label: "Data", Color: drawing.ColorBlack, Marker: sa.Marker, Size: sa.Size})
}

// plotInterventions marks every change day of every plotted intervention.
func plotInterventions(sim *results.Sim, ax *Axes) {
	if sim == nil {
		return
	}
	for _, iv := range sim.Interventions {
		if !iv.Plotted() {
			continue
		}
		for _, day := range iv.Days {
			if ax.hasVLine(float64(day)) {
				continue
			}
			ax.AxVLine(VLine{X: float64(day), Color: colorIntervention, Width: 1, Dash: []float64{6, 4}})
		}
	}
}

func (ax *Axes) hasVLine(x float64) bool {
	for _, v := range ax.VLines {
		if v.X == x {
			return true
		}
	}
	return false
}

// titleGridLegend applies the per-panel styling. legend.Show, when set, overrides showLegend.
func titleGridLegend(ax *Axes, title string, grid, commaticks, setylim bool, legend LegendArgs, showLegend bool) {
	if legend.Show != nil {
		showLegend = *legend.Show
	}
	ax.ShowLegend = showLegend
	if legend.Loc != "" {
		ax.LegendLoc = legend.Loc
	}
	ax.Title = title
	ax.Grid = grid
	if setylim {
		ax.YMinZero = true
	}
	ax.CommaTicks = commaticks
}

// resetTicks sets the x tick spacing and, with asDates, labels days as calendar dates.
func resetTicks(ax *Axes, start time.Time, interval int, asDates bool, dateFormat string) {
	if interval > 0 {
		ax.XInterval = interval
	}
	if asDates {
		ax.XDateStart = start
		ax.XDateFormat = dateFormat
		if interval <= 0 {
			ax.XInteger = true
		}
	}
}

// tidyUp saves and shows the figures and returns them. Separate figures are saved as
// <name>_<n><ext>.
func tidyUp(l *layout, doSave bool, figPath string, doShow bool, shower Shower, defaultName string) ([]*Figure, error) {
	figs := l.figs
	if !l.sepFigs {
		figs = []*Figure{l.fig}
	}
	if doSave {
		if figPath == "" {
			figPath = defaultName
		}
		for i, f := range figs {
			path := figPath
			if l.sepFigs {
				path = NumberedPath(figPath, i+1)
			}
			if err := f.SavePNG(path); err != nil {
				return figs, fmt.Errorf("save %s: %w", path, err)
			}
			results.Infof("[plotting] saved %s", path)
		}
	}
	if doShow {
		if shower == nil {
			results.Debugf("[plotting] no display hook; %d figure(s) not shown", len(figs))
		} else if err := shower(figs...); err != nil {
			return figs, fmt.Errorf("show figures: %w", err)
		}
	}
	return figs, nil
}

// NumberedPath inserts _n before the extension: out/a.png, 2 gives out/a_2.png.
func NumberedPath(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(path, ext), n, ext)
}
