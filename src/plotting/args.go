package plotting

import "strings"

// FigArgs sizes a figure in inches; DPI converts to pixels.
type FigArgs struct {
	Width  float64 `yaml:"width" json:"width,omitempty"`
	Height float64 `yaml:"height" json:"height,omitempty"`
	DPI    int     `yaml:"dpi" json:"dpi,omitempty"`
}

// PlotArgs style result lines.
type PlotArgs struct {
	LineWidth float64 `yaml:"lw" json:"lw,omitempty"`
	Alpha     float64 `yaml:"alpha" json:"alpha,omitempty"`
}

// ScatterArgs style observed-data points. Marker is one of o, s, *, x, O (hollow circle).
type ScatterArgs struct {
	Size   float64 `yaml:"s" json:"s,omitempty"`
	Marker string  `yaml:"marker" json:"marker,omitempty"`
}

// AxisArgs is the subplot geometry as fractions of the figure.
type AxisArgs struct {
	Left   float64 `yaml:"left" json:"left,omitempty"`
	Bottom float64 `yaml:"bottom" json:"bottom,omitempty"`
	Right  float64 `yaml:"right" json:"right,omitempty"`
	Top    float64 `yaml:"top" json:"top,omitempty"`
	WSpace float64 `yaml:"wspace" json:"wspace,omitempty"`
	HSpace float64 `yaml:"hspace" json:"hspace,omitempty"`
}

// FillArgs style uncertainty bands.
type FillArgs struct {
	Alpha float64 `yaml:"alpha" json:"alpha,omitempty"`
}

// LegendArgs places the legend. Show, when set, overrides the caller's choice of
// showing a legend on a panel.
type LegendArgs struct {
	Loc  string `yaml:"loc" json:"loc,omitempty"`
	Show *bool  `yaml:"show_legend" json:"show_legend,omitempty"`
}

// Args is the merged set of style arguments used by one plotting call.
type Args struct {
	Fig     FigArgs
	Plot    PlotArgs
	Scatter ScatterArgs
	Axis    AxisArgs
	Fill    FillArgs
	Legend  LegendArgs
}

var defaultArgs = Args{
	Fig:     FigArgs{Width: 16, Height: 14},
	Plot:    PlotArgs{LineWidth: 3, Alpha: 0.7},
	Scatter: ScatterArgs{Size: 70, Marker: "s"},
	Axis:    AxisArgs{Left: 0.10, Bottom: 0.05, Right: 0.95, Top: 0.97, WSpace: 0.25, HSpace: 0.25},
	Fill:    FillArgs{Alpha: 0.2},
	Legend:  LegendArgs{Loc: "best"},
}

// handleArgs merges user arguments over the defaults; any field the user set wins.
func handleArgs(fig FigArgs, plot PlotArgs, scatter ScatterArgs, axis AxisArgs, fill FillArgs, legend LegendArgs) Args {
	a := defaultArgs
	a.Fig = a.Fig.merge(fig)
	a.Plot = a.Plot.merge(plot)
	a.Scatter = a.Scatter.merge(scatter)
	a.Axis = a.Axis.merge(axis)
	if fill.Alpha > 0 {
		a.Fill.Alpha = fill.Alpha
	}
	if strings.TrimSpace(legend.Loc) != "" {
		a.Legend.Loc = legend.Loc
	}
	a.Legend.Show = legend.Show
	return a
}

func (f FigArgs) merge(u FigArgs) FigArgs {
	if u.Width > 0 {
		f.Width = u.Width
	}
	if u.Height > 0 {
		f.Height = u.Height
	}
	if u.DPI > 0 {
		f.DPI = u.DPI
	}
	return f
}

func (p PlotArgs) merge(u PlotArgs) PlotArgs {
	if u.LineWidth > 0 {
		p.LineWidth = u.LineWidth
	}
	if u.Alpha > 0 {
		p.Alpha = u.Alpha
	}
	return p
}

func (s ScatterArgs) merge(u ScatterArgs) ScatterArgs {
	if u.Size > 0 {
		s.Size = u.Size
	}
	if u.Marker != "" {
		s.Marker = u.Marker
	}
	return s
}

func (a AxisArgs) merge(u AxisArgs) AxisArgs {
	if u.Left > 0 {
		a.Left = u.Left
	}
	if u.Bottom > 0 {
		a.Bottom = u.Bottom
	}
	if u.Right > 0 {
		a.Right = u.Right
	}
	if u.Top > 0 {
		a.Top = u.Top
	}
	if u.WSpace > 0 {
		a.WSpace = u.WSpace
	}
	if u.HSpace > 0 {
		a.HSpace = u.HSpace
	}
	return a
}

// Options controls PlotSim, PlotScens and PlotResult. Start from DefaultOptions; the
// zero value turns off dates, comma ticks and the y floor.
type Options struct {
	ToPlot  ToPlot
	DoSave  bool
	FigPath string

	Fig     FigArgs
	Plot    PlotArgs
	Scatter ScatterArgs
	Axis    AxisArgs
	Fill    FillArgs
	Legend  LegendArgs

	AsDates    bool
	DateFormat string
	Interval   int
	NCols      int
	FontSize   float64
	FontFamily string
	Grid       bool
	CommaTicks bool
	SetYLim    bool
	LogScale   bool
	// LogPanels limits the log scale to the panels with these titles.
	LogPanels []string
	// Colors and Labels override by result key (PlotSim) or scenario key (PlotScens).
	Colors map[string]string
	Labels map[string]string

	DoShow  bool
	Shower  Shower
	SepFigs bool
	// Fig to draw into; axes already carrying the panel labels are reused.
	Figure *Figure
}

// DefaultOptions mirrors the interactive defaults: dates on the x axis, one column,
// 18pt text, comma ticks and a zero y floor.
func DefaultOptions() Options {
	return Options{
		AsDates:    true,
		NCols:      1,
		FontSize:   18,
		CommaTicks: true,
		SetYLim:    true,
	}
}

// Shower displays finished figures. The library is headless, so showing is delegated.
type Shower func(figs ...*Figure) error

func (o *Options) nCols() int {
	if o.NCols <= 0 {
		return 1
	}
	return o.NCols
}

func (o *Options) fontSize() float64 {
	if o.FontSize <= 0 {
		return 18
	}
	return o.FontSize
}
