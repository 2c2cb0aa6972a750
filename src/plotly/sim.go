package plotly

import (
	"errors"
	"math"
	"strconv"

	"github.com/iafilius/EpiViewer/src/plotting"
	"github.com/iafilius/EpiViewer/src/results"
)

// ErrNoPeople is returned by the people views when the sim carries no per-person data.
var ErrNoPeople = errors.New("sim has no people data")

const dateLayout = "2006-01-02"

// State is one health state of the people views.
type State struct {
	Name     string
	Quantity string // date field that moves a person into this state; empty for the initial state
	Color    string
	Value    float64
}

// States are ordered so that later states overwrite earlier ones.
var States = []State{
	{Name: "Healthy", Color: "#a6cee3", Value: 0},
	{Name: "Exposed", Quantity: "date_exposed", Color: "#ff7f00", Value: 2},
	{Name: "Infectious", Quantity: "date_infectious", Color: "#e33d3e", Value: 3},
	{Name: "Recovered", Quantity: "date_recovered", Color: "#3e89bc", Value: 4},
	{Name: "Dead", Quantity: "date_dead", Color: "#000000", Value: 5},
}

// GetIndividualStates returns z[person][day], the state value of every person on
// every day: a defined state date sets the value from that day onward.
func GetIndividualStates(sim *results.Sim) ([][]float64, []State, error) {
	if sim.People == nil {
		return nil, nil, ErrNoPeople
	}
	n, npts := sim.People.Len(), sim.NPts()
	z := make([][]float64, n)
	for i := range z {
		z[i] = make([]float64, npts)
	}
	for _, st := range States {
		if st.Quantity == "" {
			continue
		}
		dates := sim.People.Quantity(st.Quantity)
		for _, ind := range sim.People.Defined(st.Quantity) {
			from := int(dates[ind])
			if from < 0 {
				from = 0
			}
			for t := from; t < npts; t++ {
				z[ind][t] = st.Value
			}
		}
	}
	return z, States, nil
}

func dateStrings(sim *results.Sim) []string {
	dates := sim.Dates()
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(dateLayout)
	}
	return out
}

// addInterventions draws a dashed line and an annotation for every plotted
// intervention day strictly inside the simulated period.
func addInterventions(l *Layout, sim *results.Sim) {
	for _, iv := range sim.Interventions {
		if !iv.Plotted() {
			continue
		}
		for _, day := range iv.Days {
			if day <= 0 || day >= sim.NDays {
				continue
			}
			x := sim.StartDay.AddDate(0, 0, day).Format(dateLayout)
			l.Shapes = append(l.Shapes, Shape{Type: "line", XRef: "x", YRef: "paper", X0: x, X1: x, Y0: 0, Y1: 1, Name: "Intervention", Line: &Line{Width: 0.5, Dash: "dash"}})
			l.Annotations = append(l.Annotations, Annotation{X: x, Y: 1.07, XRef: "x", YRef: "paper", Text: "Intervention change"})
		}
	}
}

// PlotlySim returns one figure per default sim panel, with observed data as markers.
func PlotlySim(sim *results.Sim) ([]*Figure, error) {
	x := dateStrings(sim)
	var figs []*Figure
	for _, panel := range plotting.SimPlots() {
		fig := &Figure{}
		for _, key := range panel.Keys {
			res, err := sim.Result(key)
			if err != nil {
				return nil, err
			}
			fig.Data = append(fig.Data, Trace{Type: "scatter", X: x[:min(len(x), len(res.Values))], Y: res.Values, Mode: "lines", Name: res.Name, Line: &Line{Color: res.Color}})
			if sim.Data.Has(key) {
				xd := make([]string, len(sim.Data.Dates))
				for i, d := range sim.Data.Dates {
					xd[i] = d.Format(dateLayout)
				}
				fig.Data = append(fig.Data, Trace{Type: "scatter", X: xd, Y: sim.Data.Series[key], Mode: "markers", Name: res.Name + " (data)", Line: &Line{Color: res.Color}})
			}
		}
		fig.Layout = Layout{Title: title(panel.Title), AutoSize: true, YAxis: &Axis{Title: title("Count")}, Legend: legendTop()}
		addInterventions(&fig.Layout, sim)
		figs = append(figs, fig)
	}
	return figs, nil
}

// PlotlyPeople stacks the number of people in each health state over time.
func PlotlyPeople(sim *results.Sim) (*Figure, error) {
	z, states, err := GetIndividualStates(sim)
	if err != nil {
		return nil, err
	}
	x := dateStrings(sim)
	fig := &Figure{}
	for i := len(states) - 1; i >= 0; i-- {
		st := states[i]
		y := make(results.Floats, len(x))
		for _, row := range z {
			for t, v := range row {
				if v == st.Value {
					y[t]++
				}
			}
		}
		fig.Data = append(fig.Data, Trace{
			Type: "scatter", X: x, Y: y, StackGroup: "one",
			Line: &Line{Width: 0.5, Color: st.Color}, FillColor: st.Color,
			HoverInfo: "y+name", Name: st.Name,
		})
	}
	fig.Layout = Layout{
		Title:    title("Numbers of people by health state"),
		AutoSize: true,
		YAxis:    &Axis{Title: title("People"), Range: []float64{0, float64(len(z))}},
		Legend:   legendTop(),
	}
	addInterventions(&fig.Layout, sim)
	return fig, nil
}

// heatmapGrid folds day t of z into rows of xSize people, padding with NaN.
func heatmapGrid(z [][]float64, t, xSize, ySize int) []results.Floats {
	grid := make([]results.Floats, ySize)
	for r := range grid {
		row := results.NaNs(xSize)
		for c := range row {
			if p := r*xSize + c; p < len(z) {
				row[c] = z[p][t]
			}
		}
		grid[r] = row
	}
	return grid
}

// PlotlyAnimate shows every person as a heatmap cell coloured by health state, one
// frame per day, with play/pause buttons and a day slider.
func PlotlyAnimate(sim *results.Sim) (*Figure, error) {
	z, states, err := GetIndividualStates(sim)
	if err != nil {
		return nil, err
	}
	if len(z) == 0 {
		return nil, ErrNoPeople
	}
	minC, maxC := states[0].Value, states[0].Value
	for _, s := range states {
		minC, maxC = math.Min(minC, s.Value), math.Max(maxC, s.Value)
	}
	colorscale := make([][2]any, len(states))
	for i, s := range states {
		colorscale[i] = [2]any{s.Value / maxC, s.Color}
	}
	const aspect = 5
	ySize := int(math.Ceil(math.Sqrt(float64(len(z)) / aspect)))
	xSize := int(math.Ceil(aspect * float64(ySize)))
	npts := sim.NPts()

	fig := &Figure{}
	fig.Data = append(fig.Data, Trace{
		Type: "heatmap", Z: heatmapGrid(z, 0, xSize, ySize),
		ZMin: floatPtr(minC), ZMax: floatPtr(maxC), ColorScale: colorscale, ShowScale: boolPtr(false),
	})
	for _, s := range states {
		fig.Data = append(fig.Data, Trace{
			Type: "scatter", X: []any{nil}, Y: []any{nil}, Mode: "markers",
			Marker: &Marker{Size: 10, Color: s.Color}, ShowLegend: boolPtr(true), Name: s.Name,
		})
	}
	slider := Slider{
		XAnchor: "left", YAnchor: "top",
		CurrentValue: map[string]any{"font": map[string]any{"size": 16}, "prefix": "Day: ", "visible": true, "xanchor": "right"},
		Transition:   map[string]any{"duration": 200},
		Pad:          map[string]int{"b": 10, "t": 50},
		Len:          0.9, X: 0.1, Y: 0,
	}
	for i := 0; i < npts; i++ {
		name := strconv.Itoa(i)
		fig.Frames = append(fig.Frames, Frame{Name: name, Data: []Trace{{Type: "heatmap", Z: heatmapGrid(z, i, xSize, ySize)}}})
		slider.Steps = append(slider.Steps, SliderStep{
			Label: name, Method: "animate",
			Args: []any{[]string{name}, map[string]any{"frame": map[string]any{"duration": 5, "redraw": true}, "mode": "immediate"}},
		})
	}
	hidden := func(automargin bool) *Axis {
		return &Axis{AutoMargin: automargin, ShowGrid: boolPtr(false), ShowLine: boolPtr(false), ShowTickLabels: boolPtr(false)}
	}
	fig.Layout = Layout{
		Title:    title("Epidemic over time"),
		AutoSize: true,
		XAxis:    hidden(false),
		YAxis:    hidden(true),
		Legend:   legendTop(),
		UpdateMenus: []UpdateMenu{{
			Type: "buttons", Direction: "left", ShowActive: false,
			X: 0.1, XAnchor: "right", Y: 0, YAnchor: "top",
			Pad: map[string]int{"r": 10, "t": 87},
			Buttons: []Button{
				{Label: "Play", Method: "animate", Args: []any{nil, map[string]any{"frame": map[string]any{"duration": 200, "redraw": true}, "fromcurrent": true}}},
				{Label: "Pause", Method: "animate", Args: []any{[]any{nil}, map[string]any{"frame": map[string]any{"duration": 0, "redraw": true}, "mode": "immediate", "transition": map[string]any{"duration": 0}}}},
			},
		}},
		Sliders: []Slider{slider},
	}
	return fig, nil
}
