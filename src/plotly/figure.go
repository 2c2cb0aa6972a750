// Package plotly builds interactive Plotly figures from simulation results and serves
// them as a self-contained HTML dashboard.
package plotly

import "github.com/iafilius/EpiViewer/src/results"

// Figure is a Plotly figure; it marshals to the JSON accepted by Plotly.newPlot.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
	Frames []Frame `json:"frames,omitempty"`
}

// Trace is a scatter or heatmap trace. X and Y hold dates, numbers or [null].
type Trace struct {
	Type       string           `json:"type"`
	Name       string           `json:"name,omitempty"`
	Mode       string           `json:"mode,omitempty"`
	X          any              `json:"x,omitempty"`
	Y          any              `json:"y,omitempty"`
	Z          []results.Floats `json:"z,omitempty"`
	ZMin       *float64         `json:"zmin,omitempty"`
	ZMax       *float64         `json:"zmax,omitempty"`
	ColorScale [][2]any         `json:"colorscale,omitempty"`
	ShowScale  *bool            `json:"showscale,omitempty"`
	ShowLegend *bool            `json:"showlegend,omitempty"`
	Line       *Line            `json:"line,omitempty"`
	Marker     *Marker          `json:"marker,omitempty"`
	StackGroup string           `json:"stackgroup,omitempty"`
	FillColor  string           `json:"fillcolor,omitempty"`
	HoverInfo  string           `json:"hoverinfo,omitempty"`
}

// Line styles a trace line or a shape outline.
type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
	Dash  string  `json:"dash,omitempty"`
}

// Marker styles scatter markers.
type Marker struct {
	Size  float64 `json:"size,omitempty"`
	Color string  `json:"color,omitempty"`
}

// Text is a title.
type Text struct {
	Text string `json:"text"`
}

// Axis configures one layout axis.
type Axis struct {
	Title          *Text     `json:"title,omitempty"`
	Range          []float64 `json:"range,omitempty"`
	AutoMargin     bool      `json:"automargin,omitempty"`
	ShowGrid       *bool     `json:"showgrid,omitempty"`
	ShowLine       *bool     `json:"showline,omitempty"`
	ShowTickLabels *bool     `json:"showticklabels,omitempty"`
}

// Legend places the legend.
type Legend struct {
	Orientation string  `json:"orientation,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// Shape is a layout shape; only vertical lines are produced here.
type Shape struct {
	Type string  `json:"type"`
	XRef string  `json:"xref"`
	YRef string  `json:"yref"`
	X0   any     `json:"x0"`
	X1   any     `json:"x1"`
	Y0   float64 `json:"y0"`
	Y1   float64 `json:"y1"`
	Name string  `json:"name,omitempty"`
	Line *Line   `json:"line,omitempty"`
}

// Annotation is a text label placed on the plot.
type Annotation struct {
	X         any     `json:"x"`
	Y         float64 `json:"y"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	Text      string  `json:"text"`
	ShowArrow bool    `json:"showarrow"`
}

// Layout is the subset of the Plotly layout used by the dashboard.
type Layout struct {
	Title       *Text        `json:"title,omitempty"`
	AutoSize    bool         `json:"autosize,omitempty"`
	XAxis       *Axis        `json:"xaxis,omitempty"`
	YAxis       *Axis        `json:"yaxis,omitempty"`
	Legend      *Legend      `json:"legend,omitempty"`
	Shapes      []Shape      `json:"shapes,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	UpdateMenus []UpdateMenu `json:"updatemenus,omitempty"`
	Sliders     []Slider     `json:"sliders,omitempty"`
}

// Frame is one animation frame.
type Frame struct {
	Name string  `json:"name"`
	Data []Trace `json:"data"`
}

// Button is an update-menu button; Args is passed to the Plotly method verbatim.
type Button struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// UpdateMenu is a row of buttons.
type UpdateMenu struct {
	Type       string         `json:"type"`
	Direction  string         `json:"direction,omitempty"`
	ShowActive bool           `json:"showactive"`
	X          float64        `json:"x"`
	XAnchor    string         `json:"xanchor,omitempty"`
	Y          float64        `json:"y"`
	YAnchor    string         `json:"yanchor,omitempty"`
	Pad        map[string]int `json:"pad,omitempty"`
	Buttons    []Button       `json:"buttons"`
}

// SliderStep jumps to one frame.
type SliderStep struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// Slider scrubs through the animation frames.
type Slider struct {
	Active       int            `json:"active"`
	XAnchor      string         `json:"xanchor"`
	YAnchor      string         `json:"yanchor"`
	CurrentValue map[string]any `json:"currentvalue"`
	Transition   map[string]any `json:"transition"`
	Pad          map[string]int `json:"pad"`
	Len          float64        `json:"len"`
	X            float64        `json:"x"`
	Y            float64        `json:"y"`
	Steps        []SliderStep   `json:"steps"`
}

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }
func legendTop() *Legend          { return &Legend{Orientation: "h", X: 0, Y: 1.18} }
func title(s string) *Text        { return &Text{Text: s} }
