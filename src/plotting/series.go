package plotting

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// The series below draw in display coordinates (already log-transformed where the
// axes ask for it) and skip NaN samples instead of handing them to the renderer.

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func toPixel(cb chart.Box, xr, yr chart.Range, x, y float64) (int, int) {
	return cb.Left + xr.Translate(x), cb.Bottom - yr.Translate(y)
}

// lineSeries is a polyline broken at NaN samples.
type lineSeries struct {
	name   string
	xs, ys []float64
	colors []drawing.Color // per run
	style  chart.Style
}

func (s lineSeries) GetName() string           { return s.name }
func (s lineSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (s lineSeries) GetStyle() chart.Style     { return s.style }
func (s lineSeries) Validate() error           { return validatePairs(s.name, s.xs, s.ys) }
func (s lineSeries) Render(r chart.Renderer, cb chart.Box, xr, yr chart.Range, defaults chart.Style) {
	st := s.style.InheritFrom(defaults)
	if !st.ShouldDrawStroke() {
		return
	}
	st.GetStrokeOptions().WriteDrawingOptionsToRenderer(r)
	open, run := false, 0
	for i := range s.xs {
		if !finite(s.xs[i]) || !finite(s.ys[i]) {
			if open {
				r.Stroke()
				open = false
			}
			continue
		}
		px, py := toPixel(cb, xr, yr, s.xs[i], s.ys[i])
		if !open {
			if run < len(s.colors) {
				r.SetStrokeColor(s.colors[run])
			} else if len(s.colors) > 0 {
				r.SetStrokeColor(st.StrokeColor)
			}
			run++
			r.MoveTo(px, py)
			open = true
			continue
		}
		r.LineTo(px, py)
	}
	if open {
		r.Stroke()
	}
}

func validatePairs(name string, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("series %q: %d x values vs %d y values", name, len(xs), len(ys))
	}
	return nil
}

// bandSeries shades between low and high, one polygon per NaN-free run.
type bandSeries struct {
	xs, lo, hi []float64
	style      chart.Style
}

func (s bandSeries) GetName() string           { return "" }
func (s bandSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (s bandSeries) GetStyle() chart.Style     { return s.style }
func (s bandSeries) Validate() error {
	if len(s.lo) != len(s.xs) || len(s.hi) != len(s.xs) {
		return fmt.Errorf("band: %d x values vs %d low / %d high", len(s.xs), len(s.lo), len(s.hi))
	}
	return nil
}

func (s bandSeries) Render(r chart.Renderer, cb chart.Box, xr, yr chart.Range, defaults chart.Style) {
	st := s.style.InheritFrom(chart.Style{StrokeWidth: chart.Disabled})
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= 2 {
			chart.Draw.BoundedSeries(r, cb, xr, yr, st, boundedRun{s: s, from: start, to: end})
		}
		start = -1
	}
	for i := range s.xs {
		if finite(s.xs[i]) && finite(s.lo[i]) && finite(s.hi[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(s.xs))
}

// boundedRun exposes s[from:to] to chart.Draw.BoundedSeries.
type boundedRun struct {
	s        bandSeries
	from, to int
}

func (b boundedRun) Len() int { return b.to - b.from }
func (b boundedRun) GetBoundedValues(i int) (float64, float64, float64) {
	j := b.from + i
	return b.s.xs[j], b.s.hi[j], b.s.lo[j]
}

// markerSeries draws one marker shape per point.
type markerSeries struct {
	name   string
	xs, ys []float64
	marker string
	radius float64 // pixels
	colors []drawing.Color
	style  chart.Style
}

func (s markerSeries) GetName() string           { return s.name }
func (s markerSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (s markerSeries) GetStyle() chart.Style     { return s.style }
func (s markerSeries) Validate() error           { return validatePairs(s.name, s.xs, s.ys) }
func (s markerSeries) Render(r chart.Renderer, cb chart.Box, xr, yr chart.Range, defaults chart.Style) {
	st := s.style.InheritFrom(defaults)
	for i := range s.xs {
		if !finite(s.xs[i]) || !finite(s.ys[i]) {
			continue
		}
		c := st.StrokeColor
		if i < len(s.colors) {
			c = s.colors[i]
		}
		px, py := toPixel(cb, xr, yr, s.xs[i], s.ys[i])
		drawMarker(r, s.marker, px, py, s.radius, c)
	}
}

// drawMarker draws a marker centred at (x, y).
func drawMarker(r chart.Renderer, marker string, x, y int, radius float64, c drawing.Color) {
	rad := int(math.Max(1, math.Round(radius)))
	r.SetStrokeDashArray(nil)
	switch marker {
	case "s":
		r.SetFillColor(c)
		r.SetStrokeColor(c)
		r.SetStrokeWidth(1)
		r.MoveTo(x-rad, y-rad)
		r.LineTo(x+rad, y-rad)
		r.LineTo(x+rad, y+rad)
		r.LineTo(x-rad, y+rad)
		r.Close()
		r.FillStroke()
	case "x":
		r.SetStrokeColor(c)
		r.SetStrokeWidth(math.Max(1.5, radius/4))
		r.MoveTo(x-rad, y-rad)
		r.LineTo(x+rad, y+rad)
		r.Stroke()
		r.MoveTo(x-rad, y+rad)
		r.LineTo(x+rad, y-rad)
		r.Stroke()
	case "*":
		r.SetFillColor(c)
		r.SetStrokeColor(c)
		r.SetStrokeWidth(1)
		for k := 0; k < 10; k++ {
			rr := radius
			if k%2 == 1 {
				rr = radius * 0.45
			}
			theta := -math.Pi/2 + float64(k)*math.Pi/5
			px := x + int(math.Round(rr*math.Cos(theta)))
			py := y + int(math.Round(rr*math.Sin(theta)))
			if k == 0 {
				r.MoveTo(px, py)
			} else {
				r.LineTo(px, py)
			}
		}
		r.Close()
		r.FillStroke()
	case "O":
		r.SetFillColor(drawing.ColorTransparent)
		r.SetStrokeColor(c)
		r.SetStrokeWidth(2)
		r.Circle(radius, x, y)
		r.Stroke()
	default:
		r.SetFillColor(c)
		r.SetStrokeColor(c)
		r.SetStrokeWidth(1)
		r.Circle(radius, x, y)
		r.FillStroke()
	}
}

// vlineSeries draws full-height vertical lines at each x inside the x range.
type vlineSeries struct {
	xs    []float64
	style chart.Style
}

func (s vlineSeries) GetName() string           { return "" }
func (s vlineSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (s vlineSeries) GetStyle() chart.Style     { return s.style }
func (s vlineSeries) Validate() error           { return nil }
func (s vlineSeries) Render(r chart.Renderer, cb chart.Box, xr, yr chart.Range, defaults chart.Style) {
	st := s.style.InheritFrom(defaults)
	for _, x := range s.xs {
		if !finite(x) || x < xr.GetMin() || x > xr.GetMax() {
			continue
		}
		st.GetStrokeOptions().WriteDrawingOptionsToRenderer(r)
		px := cb.Left + xr.Translate(x)
		r.MoveTo(px, cb.Top)
		r.LineTo(px, cb.Bottom)
		r.Stroke()
	}
}

// barhSeries is one group of a horizontal grouped bar chart. Category i is centred
// on y = i; groups share a 0.8 slot.
type barhSeries struct {
	name    string
	values  []float64 // display coordinates
	base    float64   // left edge of every bar
	group   int
	nGroups int
	style   chart.Style
}

func (s barhSeries) GetName() string           { return s.name }
func (s barhSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (s barhSeries) GetStyle() chart.Style     { return s.style }
func (s barhSeries) Validate() error {
	if s.nGroups <= 0 || s.group >= s.nGroups {
		return fmt.Errorf("bar group %d of %d", s.group, s.nGroups)
	}
	return nil
}

func (s barhSeries) Render(r chart.Renderer, cb chart.Box, xr, yr chart.Range, defaults chart.Style) {
	st := s.style.InheritFrom(defaults)
	height := 0.8 / float64(s.nGroups)
	for i, v := range s.values {
		if !finite(v) {
			continue
		}
		y0 := float64(i) - 0.4 + float64(s.group)*height
		left, top := toPixel(cb, xr, yr, s.base, y0+height)
		right, bottom := toPixel(cb, xr, yr, v, y0)
		if right < left {
			left, right = right, left
		}
		r.SetFillColor(st.FillColor)
		r.SetStrokeColor(st.FillColor)
		r.SetStrokeWidth(1)
		r.SetStrokeDashArray(nil)
		r.MoveTo(left, top)
		r.LineTo(right, top)
		r.LineTo(right, bottom)
		r.LineTo(left, bottom)
		r.Close()
		r.FillStroke()
	}
}

// placeholderSeries keeps go-chart happy on axes with nothing to draw.
type placeholderSeries struct{}

func (placeholderSeries) GetName() string           { return "" }
func (placeholderSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (placeholderSeries) GetStyle() chart.Style {
	return chart.Style{StrokeColor: drawing.ColorTransparent, StrokeWidth: chart.Disabled}
}
func (placeholderSeries) Validate() error                                                         { return nil }
func (placeholderSeries) Render(chart.Renderer, chart.Box, chart.Range, chart.Range, chart.Style) {}
