package plotting

import (
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// LegendEntry is one legend row: a line swatch, or a marker when Marker is set.
// Size is the marker area in points squared and Width the line width in points.
type LegendEntry struct {
	Label  string
	Color  drawing.Color
	Marker string
	Size   float64
	Width  float64
	Dash   []float64
}

// legendEntries collects labelled artists in drawing order, dropping exact duplicates.
func (ax *Axes) legendEntries() []LegendEntry {
	var out []LegendEntry
	seen := map[string]bool{}
	add := func(e LegendEntry) {
		if strings.TrimSpace(e.Label) == "" {
			return
		}
		key := e.Label + "|" + e.Color.String() + "|" + e.Marker
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, e)
	}
	for _, g := range ax.BarGroups {
		add(LegendEntry{Label: g.Label, Color: g.Color, Marker: "s", Size: 100})
	}
	for _, l := range ax.Lines {
		add(LegendEntry{Label: l.Label, Color: withAlpha(l.Color, l.Alpha), Width: l.Width, Dash: l.Dash})
	}
	for _, s := range ax.Scatters {
		add(LegendEntry{Label: s.Label, Color: withAlpha(s.Color, s.Alpha), Marker: s.Marker, Size: s.Size})
	}
	for _, e := range ax.LegendExtras {
		add(e)
	}
	return out
}

// legendBelow reports whether the legend hangs under the axes instead of inside it.
func legendBelow(loc string) bool { return strings.EqualFold(strings.TrimSpace(loc), "below") }

// legendRenderable draws entries inside (or just below) the canvas box. "best" is
// treated as upper left.
func legendRenderable(f *Figure, entries []LegendEntry, loc string, fontSize float64) chart.Renderable {
	return func(r chart.Renderer, cb chart.Box, defaults chart.Style) {
		if len(entries) == 0 {
			return
		}
		text := chart.Style{Font: defaults.Font, FontSize: fontSize, FontColor: chart.DefaultTextColor}
		text.WriteTextOptionsToRenderer(r)

		const pad, gap, spacing = 6, 8, 4
		swatch := int(fontSize * 2)
		lineH, textW := 0, 0
		for _, e := range entries {
			tb := r.MeasureText(e.Label)
			if tb.Height() > lineH {
				lineH = tb.Height()
			}
			if tb.Width() > textW {
				textW = tb.Width()
			}
		}
		w := pad + swatch + gap + textW + pad
		h := pad*2 + len(entries)*lineH + (len(entries)-1)*spacing

		box := chart.Box{Left: cb.Left + pad, Top: cb.Top + pad}
		switch strings.ToLower(strings.TrimSpace(loc)) {
		case "upper right":
			box.Left = cb.Right - pad - w
		case "lower left":
			box.Top = cb.Bottom - pad - h
		case "lower right":
			box.Left = cb.Right - pad - w
			box.Top = cb.Bottom - pad - h
		case "center left":
			box.Top = cb.Top + (cb.Height()-h)/2
		case "center right":
			box.Left = cb.Right - pad - w
			box.Top = cb.Top + (cb.Height()-h)/2
		case "below":
			box.Left = cb.Left
			box.Top = cb.Bottom + int(0.3*float64(cb.Height())) + lineH
		}
		box.Right = box.Left + w
		box.Bottom = box.Top + h
		chart.Draw.Box(r, box, chart.Style{
			FillColor:   drawing.ColorWhite.WithAlpha(220),
			StrokeColor: colorGridLine,
			StrokeWidth: 1,
		})

		y := box.Top + pad
		for _, e := range entries {
			mid := y + lineH/2
			x0 := box.Left + pad
			if e.Marker != "" {
				drawMarker(r, e.Marker, x0+swatch/2, mid, minFloat(f.markerRadius(e.Size), float64(lineH)/2), e.Color)
			} else {
				width := f.px(e.Width)
				if width <= 0 {
					width = 2
				}
				r.SetStrokeColor(e.Color)
				r.SetStrokeWidth(width)
				r.SetStrokeDashArray(e.Dash)
				r.MoveTo(x0, mid)
				r.LineTo(x0+swatch, mid)
				r.Stroke()
			}
			text.WriteTextOptionsToRenderer(r)
			r.Text(e.Label, x0+swatch+gap, y+lineH)
			y += lineH + spacing
		}
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
