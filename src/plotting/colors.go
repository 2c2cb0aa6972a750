package plotting

import (
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// qualitative palette used for up to nine scenarios
var gridPalette = []string{
	"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00",
	"#a65628", "#f781bf", "#999999", "#17becf",
}

// GridColors returns n visually distinct colours. Up to nine come from a fixed
// qualitative palette; beyond that hues are spaced evenly in HCL space.
func GridColors(n int) []drawing.Color {
	if n <= 0 {
		return nil
	}
	out := make([]drawing.Color, n)
	if n <= len(gridPalette) {
		for i := range out {
			out[i] = HexColor(gridPalette[i])
		}
		return out
	}
	for i := range out {
		c := colorful.Hcl(360*float64(i)/float64(n), 0.6, 0.6).Clamped()
		out[i] = fromColorful(c)
	}
	return out
}

// parula anchors, low to high
var parulaStops = []string{
	"#352a87", "#0f5cdd", "#1481d6", "#06a4ca", "#2eb7a4",
	"#87bf77", "#d1bb59", "#fec832", "#f9fb0e",
}

var viridisStops = []string{
	"#440154", "#472c7a", "#3b518b", "#2c718e", "#21908d",
	"#27ad81", "#5cc863", "#aadc32", "#fde725",
}

// VecToColor maps the indexes 0..n-1 onto a colour map ("parula" by default, or "viridis").
func VecToColor(n int, cmap string) []drawing.Color {
	if n <= 0 {
		return nil
	}
	stops := parulaStops
	if strings.EqualFold(cmap, "viridis") {
		stops = viridisStops
	}
	anchors := make([]colorful.Color, len(stops))
	for i, s := range stops {
		anchors[i], _ = colorful.Hex(s)
	}
	out := make([]drawing.Color, n)
	for i := range out {
		v := 0.0
		if n > 1 {
			v = float64(i) / float64(n-1)
		}
		out[i] = fromColorful(sampleMap(anchors, v))
	}
	return out
}

func sampleMap(anchors []colorful.Color, v float64) colorful.Color {
	if v <= 0 {
		return anchors[0]
	}
	if v >= 1 {
		return anchors[len(anchors)-1]
	}
	pos := v * float64(len(anchors)-1)
	i := int(math.Floor(pos))
	return anchors[i].BlendLab(anchors[i+1], pos-float64(i)).Clamped()
}

func fromColorful(c colorful.Color) drawing.Color {
	r, g, b := c.RGB255()
	return drawing.Color{R: r, G: g, B: b, A: 255}
}

// HexColor parses "#rrggbb" (or "#rgb"); anything unparsable becomes black.
func HexColor(s string) drawing.Color {
	s = strings.TrimSpace(s)
	if s == "" {
		return drawing.ColorBlack
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) == 4 {
		s = "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return drawing.ColorBlack
	}
	return fromColorful(c)
}

// withAlpha applies a 0..1 opacity.
func withAlpha(c drawing.Color, alpha float64) drawing.Color {
	if alpha <= 0 || alpha > 1 {
		return c
	}
	return c.WithAlpha(uint8(math.Round(alpha * 255)))
}

func withAlphas(cs []drawing.Color, alpha float64) []drawing.Color {
	if len(cs) == 0 {
		return nil
	}
	out := make([]drawing.Color, len(cs))
	for i, c := range cs {
		out[i] = withAlpha(c, alpha)
	}
	return out
}

// default matplotlib property cycle, used for category lines
var cycleColors = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

func cycleColor(i int) drawing.Color { return HexColor(cycleColors[i%len(cycleColors)]) }

var (
	colorGrey         = drawing.Color{R: 128, G: 128, B: 128, A: 255}
	colorGridLine     = drawing.Color{R: 176, G: 176, B: 176, A: 255}
	colorIntervention = drawing.Color{R: 0, G: 0, B: 0, A: 102}
)
