package plotting

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"github.com/iafilius/EpiViewer/src/results"
	"github.com/icza/mjpeg"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// DefaultAnimationFile is the AVI written when no path is given.
const DefaultAnimationFile = "transtree.avi"

// TransSegment is one person on the transmission plot. For an infection it runs from
// the source (at the source's own infection day) to the target (at the infection day);
// a person never infected is a single point at day 0 with Infected unset.
type TransSegment struct {
	SourceDay float64
	Source    float64
	TargetDay float64
	Target    float64
	Color     drawing.Color
	Infected  bool
}

// PersonMark places a testing, diagnosis or contact-tracing event. Day is the person's
// infection day, so marks stack on the target end of the segment.
type PersonMark struct {
	Day    float64
	Person float64
	Color  drawing.Color
}

// TransTreeFrame holds what appears on one day of the animation.
type TransTreeFrame struct {
	Day          int
	Segments     []TransSegment
	Tested       []PersonMark
	Diagnosed    []PersonMark
	KnownContact []PersonMark
}

// BuildTransTreeFrames sorts the detailed transmission tree of sim into per-day frames.
// People are coloured along the parula map by index; people never infected show up
// in grey on day 0.
func BuildTransTreeFrames(sim *results.Sim) ([]TransTreeFrame, error) {
	if sim.TransTree == nil || sim.TransTree.Detailed == nil {
		return nil, ErrNoDetailedTransTree
	}
	tt := sim.TransTree.Detailed
	npts := sim.NPts()
	if npts <= 0 {
		return nil, fmt.Errorf("sim %q has no time points", sim.Label)
	}
	n := sim.PopSize
	if len(tt) > n {
		n = len(tt)
	}
	colors := VecToColor(n, "parula")
	colorOf := func(i int) drawing.Color {
		if i < 0 || i >= len(colors) {
			return colorGrey
		}
		return colors[i]
	}
	frames := make([]TransTreeFrame, npts)
	for d := range frames {
		frames[d].Day = d
	}
	markDay := func(date *float64) (int, bool) {
		if date == nil || math.IsNaN(*date) || *date < 0 || *date >= float64(npts) {
			return 0, false
		}
		return int(*date), true
	}

	for i, e := range tt {
		if e == nil {
			frames[0].Segments = append(frames[0].Segments, TransSegment{Source: float64(i), Target: float64(i), Color: colorGrey})
			continue
		}
		if e.Date < 0 || e.Date >= npts {
			results.Debugf("[plotting] transmission to %d on day %d outside 0..%d", e.Target, e.Date, npts-1)
			continue
		}
		source, sourceDate := 0, 0
		if e.Source != nil {
			source = *e.Source
			if source >= 0 && source < len(tt) && tt[source] != nil {
				sourceDate = tt[source].Date
			}
		}
		frames[e.Date].Segments = append(frames[e.Date].Segments, TransSegment{
			SourceDay: float64(sourceDate), Source: float64(source),
			TargetDay: float64(e.Date), Target: float64(e.Target),
			Color: colorOf(source), Infected: true,
		})
		mark := PersonMark{Day: float64(e.Date), Person: float64(e.Target), Color: colorOf(e.Target)}
		if d, ok := markDay(e.T.DateTested); ok {
			frames[d].Tested = append(frames[d].Tested, mark)
		}
		if d, ok := markDay(e.T.DateDiagnosed); ok {
			frames[d].Diagnosed = append(frames[d].Diagnosed, mark)
		}
		if d, ok := markDay(e.T.DateKnownContact); ok {
			frames[d].KnownContact = append(frames[d].KnownContact, mark)
		}
	}
	return frames, nil
}

// AnimateOptions controls the transmission tree animation.
type AnimateOptions struct {
	Path       string // AVI output; DefaultAnimationFile when empty
	Width      int    // frame width in pixels
	FPS        int
	Quality    int // JPEG quality
	FontSize   float64
	AnimateAll bool // emit an extra frame per day before targets are marked
}

func (o AnimateOptions) withDefaults() AnimateOptions {
	if o.Path == "" {
		o.Path = DefaultAnimationFile
	}
	if o.Width <= 0 {
		o.Width = 1200
	}
	if o.FPS <= 0 {
		o.FPS = 5
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 85
	}
	if o.FontSize <= 0 {
		o.FontSize = 18
	}
	return o
}

const (
	animMarkerSize = 10.0
	animAlpha      = 0.5
	animLineWidth  = 2.0
)

// animationLegend lists the symbols used on the tree, in the colour of person 0.
func animationLegend(c drawing.Color) []LegendEntry {
	lc := withAlpha(c, animAlpha)
	sq := func(m float64) float64 { return (animMarkerSize * m) * (animMarkerSize * m) }
	return []LegendEntry{
		{Label: "Transmission", Color: lc, Width: animLineWidth},
		{Label: "Source", Color: lc, Marker: "o", Size: sq(1)},
		{Label: "Target", Color: lc, Marker: "*", Size: sq(1)},
		{Label: "Tested", Color: lc, Marker: "O", Size: sq(2)},
		{Label: "Diagnosed", Color: lc, Marker: "s", Size: sq(1.2)},
		{Label: "Known contact", Color: c, Marker: "x", Size: sq(2)},
	}
}

// RenderTransTreeFrames draws the animation one frame at a time, stacking one axes per
// sim, and hands every frame to emit. Drawn elements accumulate from day to day.
func RenderTransTreeFrames(ctx context.Context, sims []*results.Sim, opts AnimateOptions, emit func(day int, img image.Image) error) error {
	if len(sims) == 0 {
		return fmt.Errorf("no sims to animate")
	}
	o := opts.withDefaults()
	all := make([][]TransTreeFrame, len(sims))
	npts, n := 0, 0
	for i, s := range sims {
		frames, err := BuildTransTreeFrames(s)
		if err != nil {
			return fmt.Errorf("sim %q: %w", s.Label, err)
		}
		all[i] = frames
		if len(frames) > npts {
			npts = len(frames)
		}
		if len(s.TransTree.Detailed) > n {
			n = len(s.TransTree.Detailed)
		}
		if s.PopSize > n {
			n = s.PopSize
		}
	}

	fig := &Figure{
		Width: 24, Height: 18, DPI: maxInt(1, o.Width/24), FontSize: o.FontSize,
		Axis: AxisArgs{Left: 0.10, Bottom: 0.05, Right: 0.85, Top: 0.97, WSpace: 0.25, HSpace: 0.25},
	}
	legend := fig.AddAxesRect(0.85, 0.05, 0.14, 0.9, "legend")
	legend.Off = true
	legend.ShowLegend = true
	legend.LegendLoc = "upper left"
	legend.LegendExtras = animationLegend(VecToColor(maxInt(n, 1), "parula")[0])

	axes := make([]*Axes, len(sims))
	for i := range sims {
		ax := fig.AddSubplot(len(sims), 1, i+1, fmt.Sprintf("ax%d", i+1))
		ax.XLim = &[2]float64{0, float64(npts)}
		ax.YLim = &[2]float64{0, float64(n)}
		ax.XLabel = "Day"
		ax.YLabel = "Person"
		// progress bar, updated in place each day
		ax.Plot(Line{X: []float64{0, 0}, Y: []float64{0.5, 0.5}, Color: drawing.ColorBlack, Width: 5})
		axes[i] = ax
	}
	var day int
	fig.Decorations = append(fig.Decorations, func(dst draw.Image, _ *Figure) {
		drawCaption(dst, fmt.Sprintf("day %d of %d", day, npts-1))
	})

	render := func() error {
		img, err := fig.Render()
		if err != nil {
			return fmt.Errorf("render day %d: %w", day, err)
		}
		return emit(day, img)
	}
	for day = 0; day < npts; day++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i, s := range sims {
			ax := axes[i]
			ax.Title = fmt.Sprintf("Simulation: %s; day: %d; infections: %s", simLabel(s, i), day, cumInfections(s, day))
			ax.Lines[0].X = []float64{0, float64(day)}
			if day >= len(all[i]) {
				continue
			}
			sources, links := daySources(all[i][day].Segments)
			if len(sources.X) > 0 {
				ax.Scatter(sources)
			}
			if len(links.X) > 0 {
				ax.Plot(links)
			}
		}
		if o.AnimateAll {
			if err := render(); err != nil {
				return err
			}
		}
		for i := range sims {
			if day >= len(all[i]) {
				continue
			}
			ax, fr := axes[i], all[i][day]
			if targets := dayTargets(fr.Segments); len(targets.X) > 0 {
				ax.Scatter(targets)
			}
			addMarks(ax, fr.Tested, "O", 2, animAlpha)
			addMarks(ax, fr.Diagnosed, "s", 1.2, animAlpha)
			addMarks(ax, fr.KnownContact, "x", 2, 0)
		}
		if err := render(); err != nil {
			return err
		}
	}
	return nil
}

// daySources batches one day's source markers into a single series and its
// transmission segments into a single NaN-separated line.
func daySources(segs []TransSegment) (Scatter, Line) {
	pts := Scatter{Size: animMarkerSize * animMarkerSize, Marker: "o", Alpha: animAlpha}
	links := Line{Width: animLineWidth, Alpha: animAlpha}
	for _, sg := range segs {
		pts.X = append(pts.X, sg.SourceDay)
		pts.Y = append(pts.Y, sg.Source)
		pts.Colors = append(pts.Colors, sg.Color)
		if sg.Infected {
			links.X = append(links.X, sg.SourceDay, sg.TargetDay, nan)
			links.Y = append(links.Y, sg.Source, sg.Target, nan)
			links.Colors = append(links.Colors, sg.Color)
		}
	}
	return pts, links
}

func dayTargets(segs []TransSegment) Scatter {
	pts := Scatter{Size: animMarkerSize * animMarkerSize, Marker: "*", Alpha: animAlpha}
	for _, sg := range segs {
		if sg.Infected {
			pts.X = append(pts.X, sg.TargetDay)
			pts.Y = append(pts.Y, sg.Target)
			pts.Colors = append(pts.Colors, sg.Color)
		}
	}
	return pts
}

func addMarks(ax *Axes, marks []PersonMark, marker string, scale, alpha float64) {
	if len(marks) == 0 {
		return
	}
	size := (animMarkerSize * scale) * (animMarkerSize * scale)
	s := Scatter{Size: size, Marker: marker, Alpha: alpha}
	for _, m := range marks {
		s.X = append(s.X, m.Day)
		s.Y = append(s.Y, m.Person)
		s.Colors = append(s.Colors, m.Color)
	}
	ax.Scatter(s)
}

func simLabel(s *results.Sim, i int) string {
	if s.Label != "" {
		return s.Label
	}
	return fmt.Sprintf("Sim %d", i)
}

func cumInfections(s *results.Sim, day int) string {
	r, ok := s.Results["cum_infections"]
	if !ok || r == nil || day >= len(r.Values) || math.IsNaN(r.Values[day]) {
		return "n/a"
	}
	return fmt.Sprintf("%g", r.Values[day])
}

// AnimateTransTree writes the transmission tree animation of sims as an MJPEG AVI.
func AnimateTransTree(ctx context.Context, sims []*results.Sim, opts AnimateOptions) error {
	o := opts.withDefaults()
	for _, sim := range sims {
		if sim.TransTree == nil || sim.TransTree.Detailed == nil {
			return fmt.Errorf("sim %q: %w", sim.Label, ErrNoDetailedTransTree)
		}
	}
	w, h := (&Figure{Width: 24, Height: 18, DPI: maxInt(1, o.Width/24)}).Pixels()
	if dir := filepath.Dir(o.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create animation dir: %w", err)
		}
	}
	aw, err := mjpeg.New(o.Path, int32(w), int32(h), int32(o.FPS))
	if err != nil {
		return fmt.Errorf("create animation %s: %w", o.Path, err)
	}
	var buf bytes.Buffer
	frames := 0
	err = RenderTransTreeFrames(ctx, sims, o, func(day int, img image.Image) error {
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: o.Quality}); err != nil {
			return fmt.Errorf("encode frame %d: %w", day, err)
		}
		frames++
		return aw.AddFrame(buf.Bytes())
	})
	if cerr := aw.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close animation: %w", cerr)
	}
	if err != nil {
		return err
	}
	results.Infof("[plotting] wrote %d frames to %s", frames, o.Path)
	return nil
}
