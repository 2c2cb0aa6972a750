// Package plotting renders simulation, scenario and transmission-tree results as
// static figures. A Figure is a retained model of subplots; nothing is drawn until
// Render or SavePNG, which lay the axes out on the subplot grid and draw each one
// with go-chart.
package plotting

import (
	"image/draw"
	"time"

	"github.com/iafilius/EpiViewer/src/chartutil"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Figure is a canvas holding one or more axes.
type Figure struct {
	Width      float64 // inches
	Height     float64 // inches
	DPI        int
	FontSize   float64
	FontFamily string
	Axis       AxisArgs
	Axes       []*Axes
	// Decorations are drawn on the composed image after all axes.
	Decorations []Decoration
}

// Decoration draws onto the composed figure image.
type Decoration func(dst draw.Image, f *Figure)

// NewFigure creates an empty figure sized by args.
func NewFigure(args FigArgs) *Figure {
	a := defaultArgs.Fig.merge(args)
	if a.DPI <= 0 {
		a.DPI = chartutil.DefaultDPI
	}
	return &Figure{Width: a.Width, Height: a.Height, DPI: a.DPI, FontSize: 18, Axis: defaultArgs.Axis}
}

// Pixels returns the rendered size.
func (f *Figure) Pixels() (int, int) { return chartutil.FigurePixels(f.Width, f.Height, f.DPI) }

// FindAxes returns the axes carrying label, or nil.
func (f *Figure) FindAxes(label string) *Axes {
	for _, ax := range f.Axes {
		if ax.Label == label {
			return ax
		}
	}
	return nil
}

// AddSubplot returns the axes with the given label, creating it at grid position
// index (1-based, row-major) of an nrows x ncols grid when it does not exist yet.
func (f *Figure) AddSubplot(nrows, ncols, index int, label string) *Axes {
	if label != "" {
		if ax := f.FindAxes(label); ax != nil {
			return ax
		}
	}
	ax := &Axes{Label: label, NRows: nrows, NCols: ncols, Index: index, LegendLoc: "best"}
	f.Axes = append(f.Axes, ax)
	return ax
}

// AddAxesRect adds axes placed at explicit figure fractions (left, bottom, width, height).
func (f *Figure) AddAxesRect(left, bottom, width, height float64, label string) *Axes {
	ax := f.AddSubplot(1, 1, 1, label)
	ax.Rect = &[4]float64{left, bottom, width, height}
	return ax
}

// Line is a polyline; NaN values break it.
type Line struct {
	X, Y  []float64
	Label string
	Color drawing.Color
	// Colors, when set, colour each NaN-separated run in turn; runs past the end use Color.
	Colors []drawing.Color
	Width  float64
	Alpha  float64
	Dash   []float64
}

// Band is a shaded region between Low and High.
type Band struct {
	X, Low, High []float64
	Color        drawing.Color
	Alpha        float64
}

// Scatter is a set of markers. Marker is one of o, s, *, x, O.
type Scatter struct {
	X, Y   []float64
	Label  string
	Color  drawing.Color
	Size   float64 // marker area in points squared, as for matplotlib scatter
	Marker string
	Alpha  float64
	// Colors, when set, colour each point; points past the end use Color.
	Colors []drawing.Color
}

// VLine is a full-height vertical line at X.
type VLine struct {
	X     float64
	Color drawing.Color
	Width float64
	Dash  []float64
}

// BarGroup is one series of a horizontal grouped bar chart.
type BarGroup struct {
	Label  string
	Color  drawing.Color
	Values []float64
}

// Axes is one subplot.
type Axes struct {
	Label               string
	NRows, NCols, Index int
	Rect                *[4]float64

	Title  string
	XLabel string
	YLabel string

	Lines    []Line
	Bands    []Band
	Scatters []Scatter
	VLines   []VLine

	// horizontal bars: one row per category, one bar per group
	BarCategories []string
	BarGroups     []BarGroup

	Grid       bool
	LogX       bool
	LogY       bool
	YMinZero   bool
	CommaTicks bool
	XLim       *[2]float64
	YLim       *[2]float64
	Off        bool

	XInterval   int
	XInteger    bool
	XDateStart  time.Time
	XDateFormat string

	ShowLegend bool
	LegendLoc  string
	// extra legend-only entries (e.g. the black "Data" swatch)
	LegendExtras []LegendEntry
}

// Plot adds a line.
func (ax *Axes) Plot(l Line) { ax.Lines = append(ax.Lines, l) }

// FillBetween adds an uncertainty band.
func (ax *Axes) FillBetween(b Band) { ax.Bands = append(ax.Bands, b) }

// Scatter adds markers.
func (ax *Axes) Scatter(s Scatter) { ax.Scatters = append(ax.Scatters, s) }

// AxVLine adds a vertical line.
func (ax *Axes) AxVLine(v VLine) { ax.VLines = append(ax.VLines, v) }

// BarH sets horizontal grouped bars.
func (ax *Axes) BarH(categories []string, groups []BarGroup) {
	ax.BarCategories = append([]string(nil), categories...)
	ax.BarGroups = groups
}

// Empty reports whether nothing has been drawn on the axes.
func (ax *Axes) Empty() bool {
	return len(ax.Lines) == 0 && len(ax.Bands) == 0 && len(ax.Scatters) == 0 && len(ax.BarGroups) == 0
}
