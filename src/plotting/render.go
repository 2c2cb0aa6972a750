package plotting

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/iafilius/EpiViewer/src/chartutil"
	"github.com/iafilius/EpiViewer/src/results"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const pointsPerInch = 72.0

var nan = math.NaN()

// px converts a size in points to pixels at the figure's DPI.
func (f *Figure) px(points float64) float64 { return points * float64(f.dpi()) / pointsPerInch }

// markerRadius converts a scatter marker area (points squared) to a pixel radius.
func (f *Figure) markerRadius(area float64) float64 {
	if area <= 0 {
		area = 36
	}
	return f.px(math.Sqrt(area)) / 2
}

func (f *Figure) dpi() int {
	if f.DPI <= 0 {
		return chartutil.DefaultDPI
	}
	return f.DPI
}

func (f *Figure) fontSize() float64 {
	if f.FontSize <= 0 {
		return 18
	}
	return f.FontSize
}

// Render lays the axes out and returns the composed image.
func (f *Figure) Render() (image.Image, error) {
	w, h := f.Pixels()
	canvas := blank(w, h)
	font, err := f.font()
	if err != nil {
		return nil, err
	}
	for _, ax := range f.Axes {
		rect := f.axesRect(ax, w, h)
		img, origin, err := f.renderAxes(ax, rect, font)
		if err != nil {
			return nil, fmt.Errorf("render axes %q: %w", ax.Label, err)
		}
		draw.Draw(canvas, img.Bounds().Add(origin), img, img.Bounds().Min, draw.Over)
	}
	for _, d := range f.Decorations {
		d(canvas, f)
	}
	return canvas, nil
}

// SavePNG renders the figure to path, creating missing folders.
func (f *Figure) SavePNG(path string) error {
	img, err := f.Render()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create figure dir: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create figure file: %w", err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return out.Close()
}

var fontCache sync.Map // path -> *truetype.Font

// font resolves FontFamily when it names a TrueType file; other values keep the
// built-in face.
func (f *Figure) font() (*truetype.Font, error) {
	fam := strings.TrimSpace(f.FontFamily)
	if fam == "" || !strings.EqualFold(filepath.Ext(fam), ".ttf") {
		if fam != "" {
			results.Debugf("[plotting] font family %q is not a .ttf file; using the default face", fam)
		}
		return nil, nil
	}
	if cached, ok := fontCache.Load(fam); ok {
		return cached.(*truetype.Font), nil
	}
	b, err := os.ReadFile(fam)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	ft, err := truetype.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", fam, err)
	}
	fontCache.Store(fam, ft)
	return ft, nil
}

// axesRect places an axes on the subplot grid (or at its explicit rect).
func (f *Figure) axesRect(ax *Axes, w, h int) image.Rectangle {
	W, H := float64(w), float64(h)
	if ax.Rect != nil {
		l, b, rw, rh := ax.Rect[0], ax.Rect[1], ax.Rect[2], ax.Rect[3]
		return image.Rect(snap(l*W), snap((1-b-rh)*H), snap((l+rw)*W), snap((1-b)*H))
	}
	a := defaultArgs.Axis.merge(f.Axis)
	nr, nc := maxInt(ax.NRows, 1), maxInt(ax.NCols, 1)
	idx := maxInt(ax.Index, 1) - 1
	row, col := idx/nc, idx%nc
	cellW := (a.Right - a.Left) * W / (float64(nc) + a.WSpace*float64(nc-1))
	cellH := (a.Top - a.Bottom) * H / (float64(nr) + a.HSpace*float64(nr-1))
	x0 := a.Left*W + float64(col)*cellW*(1+a.WSpace)
	y0 := (1-a.Top)*H + float64(row)*cellH*(1+a.HSpace)
	return image.Rect(snap(x0), snap(y0), snap(x0+cellW), snap(y0+cellH))
}

// snap rounds a canvas coordinate to the nearest pixel.
func snap(v float64) int { return int(math.Round(v)) }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// axisPlan is an axis range plus its ticks, in display coordinates.
type axisPlan struct {
	lo, hi float64
	ticks  []chart.Tick
}

// renderAxes draws one axes with go-chart. The returned image covers rect plus the
// margins needed for the title, tick labels and a hanging legend; origin is its
// top-left corner on the figure.
func (f *Figure) renderAxes(ax *Axes, rect image.Rectangle, font *truetype.Font) (image.Image, image.Point, error) {
	fs := f.fontSize()
	fontPx := f.px(fs)
	tickFont := fs * 0.8

	entries := ax.legendEntries()
	showLegend := ax.ShowLegend && len(entries) > 0

	left, top, right, bottom := int(fontPx*0.5), int(fontPx*0.5), int(fontPx*0.5), int(fontPx*0.5)
	if !ax.Off {
		right = int(fontPx * 4.5)
		bottom = int(fontPx * 2.2)
		if ax.Title != "" {
			top = int(fontPx * 2.2)
		}
		if ax.XLabel != "" {
			bottom += int(fontPx * 1.4)
		}
		if ax.YLabel != "" {
			right += int(fontPx * 1.4)
		}
		if len(ax.BarCategories) > 0 {
			longest := 0
			for _, c := range ax.BarCategories {
				longest = maxInt(longest, len(c))
			}
			right = maxInt(right, int(float64(longest)*fontPx*0.55)+int(fontPx))
		}
	}
	if showLegend && legendBelow(ax.LegendLoc) {
		bottom += int(0.3*float64(rect.Dy())) + (len(entries)+2)*int(fontPx*1.3)
	}
	width := rect.Dx() + left + right
	height := rect.Dy() + top + bottom
	origin := image.Point{X: rect.Min.X - left, Y: rect.Min.Y - top}

	var series []chart.Series
	xp, yp := axisPlan{lo: 0, hi: 1}, axisPlan{lo: 0, hi: 1}
	if !ax.Off {
		xp, yp = f.planAxes(ax)
		series = f.buildSeries(ax)
	}
	if len(series) == 0 {
		series = []chart.Series{placeholderSeries{}}
	}

	ch := chart.Chart{
		Width:  width,
		Height: height,
		DPI:    float64(f.dpi()),
		Font:   font,
		Title:  ax.Title,
		TitleStyle: chart.Style{
			FontSize: fs * 1.1,
			Padding:  chart.Box{Top: maxInt(1, int(fontPx*0.3))},
		},
		Background: chart.Style{
			Padding:     chart.Box{Top: top, Left: left, Right: maxInt(1, int(fontPx*0.3)), Bottom: maxInt(1, int(fontPx*0.3))},
			FillColor:   drawing.ColorTransparent,
			StrokeColor: drawing.ColorTransparent,
		},
		Canvas: chart.Style{FillColor: drawing.ColorWhite, StrokeColor: chart.DefaultAxisColor, StrokeWidth: 1},
		XAxis: chart.XAxis{
			Name:      ax.XLabel,
			NameStyle: chart.Style{FontSize: tickFont},
			Style:     chart.Style{FontSize: tickFont},
			Range:     &chart.ContinuousRange{Min: xp.lo, Max: xp.hi},
			Ticks:     xp.ticks,
		},
		YAxis: chart.YAxis{
			Name:      ax.YLabel,
			NameStyle: chart.Style{FontSize: tickFont},
			Style:     chart.Style{FontSize: tickFont},
			Range:     &chart.ContinuousRange{Min: yp.lo, Max: yp.hi},
			Ticks:     yp.ticks,
		},
		Series: series,
	}
	if ax.Off {
		ch.Title = ""
		ch.XAxis.Style = chart.Hidden()
		ch.YAxis.Style = chart.Hidden()
		ch.Canvas = chart.Style{FillColor: drawing.ColorTransparent, StrokeColor: drawing.ColorTransparent}
	}
	grid := chart.Style{Hidden: true}
	ch.XAxis.GridMajorStyle, ch.XAxis.GridMinorStyle = grid, grid
	ch.YAxis.GridMajorStyle, ch.YAxis.GridMinorStyle = grid, grid
	if ax.Grid && !ax.Off {
		major := chart.Style{StrokeColor: colorGridLine, StrokeWidth: 1}
		ch.XAxis.GridMajorStyle, ch.YAxis.GridMajorStyle = major, major
		ch.XAxis.GridLines = gridLines(xp.ticks, major)
		ch.YAxis.GridLines = gridLines(yp.ticks, major)
	}
	if showLegend {
		ch.Elements = []chart.Renderable{legendRenderable(f, entries, ax.LegendLoc, fs*0.8)}
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, origin, err
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, origin, fmt.Errorf("decode axes png: %w", err)
	}
	return img, origin, nil
}

// gridLines puts a line on every labelled tick.
func gridLines(ticks []chart.Tick, style chart.Style) []chart.GridLine {
	var out []chart.GridLine
	for _, t := range ticks {
		if t.Label == "" {
			continue
		}
		out = append(out, chart.GridLine{Value: t.Value, Style: style})
	}
	return out
}

// buildSeries converts the axes artists into go-chart series, bottom layer first.
func (f *Figure) buildSeries(ax *Axes) []chart.Series {
	var out []chart.Series
	xt, yt := ax.xTransform(), ax.yTransform()
	for _, b := range ax.Bands {
		out = append(out, bandSeries{
			xs: mapValues(b.X, xt), lo: mapValues(b.Low, yt), hi: mapValues(b.High, yt),
			style: chart.Style{FillColor: withAlpha(b.Color, b.Alpha), StrokeColor: drawing.ColorTransparent, StrokeWidth: 1},
		})
	}
	if n := len(ax.BarGroups); n > 0 {
		base := 0.0
		if ax.LogX {
			base = ax.barLogBase()
		}
		for i, g := range ax.BarGroups {
			out = append(out, barhSeries{
				name: g.Label, values: mapValues(g.Values, xt), base: base, group: i, nGroups: n,
				style: chart.Style{FillColor: g.Color, StrokeColor: g.Color},
			})
		}
	}
	for _, l := range ax.Lines {
		w := l.Width
		if w <= 0 {
			w = 1.5
		}
		out = append(out, lineSeries{
			xs: mapValues(l.X, xt), ys: mapValues(l.Y, yt),
			colors: withAlphas(l.Colors, l.Alpha),
			style:  chart.Style{StrokeColor: withAlpha(l.Color, l.Alpha), StrokeWidth: f.px(w), StrokeDashArray: l.Dash},
		})
	}
	for _, s := range ax.Scatters {
		out = append(out, markerSeries{
			xs: mapValues(s.X, xt), ys: mapValues(s.Y, yt), marker: s.Marker,
			radius: f.markerRadius(s.Size), colors: withAlphas(s.Colors, s.Alpha),
			style: chart.Style{StrokeColor: withAlpha(s.Color, s.Alpha)},
		})
	}
	if len(ax.VLines) > 0 {
		for _, v := range ax.VLines {
			c := v.Color
			if c.IsZero() {
				c = colorIntervention
			}
			w := v.Width
			if w <= 0 {
				w = 1
			}
			out = append(out, vlineSeries{
				xs:    mapValues([]float64{v.X}, xt),
				style: chart.Style{StrokeColor: c, StrokeWidth: f.px(w), StrokeDashArray: v.Dash},
			})
		}
	}
	return out
}

func log10OrNaN(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return nan
	}
	return math.Log10(v)
}

func identity(v float64) float64 { return v }

func (ax *Axes) xTransform() func(float64) float64 {
	if ax.LogX {
		return log10OrNaN
	}
	return identity
}

func (ax *Axes) yTransform() func(float64) float64 {
	if ax.LogY {
		return log10OrNaN
	}
	return identity
}

func mapValues(vs []float64, fn func(float64) float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = fn(v)
	}
	return out
}

// barLogBase is the decade below the smallest positive bar, in display coordinates.
func (ax *Axes) barLogBase() float64 {
	min := math.Inf(1)
	for _, g := range ax.BarGroups {
		for _, v := range g.Values {
			if v > 0 && v < min {
				min = v
			}
		}
	}
	if math.IsInf(min, 1) {
		return 0
	}
	return math.Floor(math.Log10(min))
}

// dataRange returns the finite min/max over vs.
func dataRange(lo, hi float64, vs ...[]float64) (float64, float64) {
	for _, s := range vs {
		for _, v := range s {
			if !finite(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

// planAxes picks the display ranges and ticks for both axes.
func (f *Figure) planAxes(ax *Axes) (axisPlan, axisPlan) {
	xlo, xhi := math.Inf(1), math.Inf(-1)
	ylo, yhi := math.Inf(1), math.Inf(-1)
	for _, l := range ax.Lines {
		xlo, xhi = dataRange(xlo, xhi, l.X)
		ylo, yhi = dataRange(ylo, yhi, l.Y)
	}
	for _, b := range ax.Bands {
		xlo, xhi = dataRange(xlo, xhi, b.X)
		ylo, yhi = dataRange(ylo, yhi, b.Low, b.High)
	}
	for _, s := range ax.Scatters {
		xlo, xhi = dataRange(xlo, xhi, s.X)
		ylo, yhi = dataRange(ylo, yhi, s.Y)
	}
	if len(ax.BarGroups) > 0 {
		return f.planBarX(ax), planCategories(ax.BarCategories)
	}
	if ax.XLim != nil {
		xlo, xhi = ax.XLim[0], ax.XLim[1]
	}
	if ax.YLim != nil {
		if finite(ax.YLim[0]) {
			ylo = ax.YLim[0]
		}
		if finite(ax.YLim[1]) {
			yhi = ax.YLim[1]
		}
	}
	return ax.planX(xlo, xhi), ax.planY(ylo, yhi)
}

func (ax *Axes) planX(lo, hi float64) axisPlan {
	if !finite(lo) || !finite(hi) {
		lo, hi = 0, 1
	}
	if hi <= lo {
		hi = lo + 1
	}
	var pos []float64
	dayAxis := ax.XInteger || ax.XInterval > 0 || !ax.XDateStart.IsZero()
	if dayAxis {
		pos = chartutil.BuildDayTicks(hi, ax.XInterval, 8)
	} else {
		pos = chartutil.BuildNumericTicks(lo, hi, 8)
	}
	label := chartutil.FormatNumericTick
	if !ax.XDateStart.IsZero() {
		start, layout := ax.XDateStart, ax.XDateFormat
		label = func(v float64) string { return chartutil.DateLabel(start, v, layout) }
	}
	return axisPlan{lo: lo, hi: hi, ticks: boundedTicks(lo, hi, pos, label)}
}

func (ax *Axes) planY(lo, hi float64) axisPlan {
	if ax.LogY {
		if !finite(hi) || hi <= 0 {
			hi = 10
		}
		if !finite(lo) || lo <= 0 {
			lo = math.Min(1, hi/10)
		}
		decades := chartutil.BuildLogTicks(lo, hi)
		ticks := make([]chart.Tick, len(decades))
		for i, d := range decades {
			ticks[i] = chart.Tick{Value: math.Log10(d), Label: chartutil.LogTick(d)}
		}
		return axisPlan{lo: ticks[0].Value, hi: ticks[len(ticks)-1].Value, ticks: ticks}
	}
	if !finite(lo) || !finite(hi) {
		lo, hi = 0, 1
	}
	if ax.YMinZero {
		lo = 0
		if hi <= 0 {
			hi = 1
		}
	}
	if hi <= lo {
		hi = lo + 1
	}
	hi += (hi - lo) * 0.05
	pos := chartutil.BuildNumericTicks(lo, hi, 6)
	label := chartutil.FormatNumericTick
	if ax.CommaTicks && pos[len(pos)-1] >= 1000 {
		label = chartutil.CommaTick
	}
	ticks := make([]chart.Tick, len(pos))
	for i, p := range pos {
		ticks[i] = chart.Tick{Value: p, Label: label(p)}
	}
	return axisPlan{lo: pos[0], hi: pos[len(pos)-1], ticks: ticks}
}

// boundedTicks keeps the positions inside [lo, hi] and pins unlabelled ticks on the
// ends, since go-chart derives the axis range from the outermost ticks.
func boundedTicks(lo, hi float64, pos []float64, label func(float64) string) []chart.Tick {
	var ticks []chart.Tick
	for _, p := range pos {
		if p < lo-1e-9 || p > hi+1e-9 {
			continue
		}
		ticks = append(ticks, chart.Tick{Value: p, Label: label(p)})
	}
	if len(ticks) == 0 || ticks[0].Value > lo+1e-9 {
		ticks = append([]chart.Tick{{Value: lo}}, ticks...)
	}
	if ticks[len(ticks)-1].Value < hi-1e-9 {
		ticks = append(ticks, chart.Tick{Value: hi})
	}
	return ticks
}

// planBarX is the value axis of a horizontal bar chart.
func (f *Figure) planBarX(ax *Axes) axisPlan {
	lo, hi := 0.0, math.Inf(-1)
	for _, g := range ax.BarGroups {
		_, hi = dataRange(lo, hi, g.Values)
		for _, v := range g.Values {
			if finite(v) && v < lo {
				lo = v
			}
		}
	}
	if !finite(hi) || hi <= lo {
		hi = lo + 1
	}
	if ax.LogX {
		base := math.Pow(10, ax.barLogBase())
		decades := chartutil.BuildLogTicks(base, hi)
		ticks := make([]chart.Tick, len(decades))
		for i, d := range decades {
			ticks[i] = chart.Tick{Value: math.Log10(d), Label: chartutil.LogTick(d)}
		}
		return axisPlan{lo: ticks[0].Value, hi: ticks[len(ticks)-1].Value, ticks: ticks}
	}
	pos := chartutil.BuildNumericTicks(lo, hi*1.05, 6)
	ticks := make([]chart.Tick, len(pos))
	for i, p := range pos {
		ticks[i] = chart.Tick{Value: p, Label: chartutil.FormatNumericTick(p)}
	}
	return axisPlan{lo: pos[0], hi: pos[len(pos)-1], ticks: ticks}
}

// planCategories centres category i on y = i.
func planCategories(cats []string) axisPlan {
	n := len(cats)
	ticks := []chart.Tick{{Value: -0.5}}
	for i, c := range cats {
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: c})
	}
	ticks = append(ticks, chart.Tick{Value: float64(n) - 0.5})
	return axisPlan{lo: -0.5, hi: float64(n) - 0.5, ticks: ticks}
}
