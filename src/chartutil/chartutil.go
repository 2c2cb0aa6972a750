// Package chartutil holds the numeric helpers shared by the static and interactive
// renderers: figure sizing, nice tick placement and tick label formatting.
package chartutil

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"
)

// DefaultDPI converts figure inches to pixels.
const DefaultDPI = 100

// DefaultDateFormat labels date ticks like Mar-01.
const DefaultDateFormat = "Jan-02"

// FigurePixels converts a figure size in inches to pixels at dpi, clamped so tiny
// figures still leave room for axes and labels.
func FigurePixels(wIn, hIn float64, dpi int) (int, int) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	w := int(math.Round(wIn * float64(dpi)))
	h := int(math.Round(hIn * float64(dpi)))
	if w < 320 {
		w = 320
	}
	if h < 240 {
		h = 240
	}
	return w, h
}

// BuildDayTicks returns integer day positions between 0 and maxDay. A positive interval
// gives every interval-th day; otherwise roughly n ticks on a 1,2,5 pattern (or weeks
// for spans over a month).
func BuildDayTicks(maxDay float64, interval, n int) []float64 {
	if maxDay <= 0 {
		return []float64{0}
	}
	step := float64(interval)
	if interval <= 0 {
		if n < 2 {
			n = 2
		}
		raw := maxDay / float64(n-1)
		mag := pow10Floor(raw)
		norm := raw / mag
		switch {
		case norm <= 1:
			step = mag
		case norm <= 2:
			step = 2 * mag
		case norm <= 5:
			step = 5 * mag
		default:
			step = 10 * mag
		}
		if step < 1 {
			step = 1
		}
		if raw >= 4.5 && raw <= 10 && maxDay > 30 {
			step = 7
		}
	}
	var out []float64
	for v := 0.0; v <= maxDay+1e-9; v += step {
		out = append(out, round6(v))
	}
	return out
}

// pow10Floor returns 10^floor(log10(x)) safeguarding tiny values.
func pow10Floor(x float64) float64 {
	if x <= 0 {
		return 1
	}
	return math.Pow(10, math.Floor(math.Log10(x)))
}

// round6 rounds to 6 decimal places to stabilize test comparisons / labels prep.
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

// NiceUpper rounds max up to a readable axis limit (1, 2, 2.5, 5 times a power of ten).
func NiceUpper(max float64) float64 {
	if math.IsNaN(max) || max <= 0 {
		return 1
	}
	mag := pow10Floor(max)
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		if c*mag >= max*(1-1e-9) || c == 10 {
			return round6(c * mag)
		}
	}
	return max
}

// NiceAxisBounds expands [min,max] by a small margin and rounds to "nice" numbers for readability.
func NiceAxisBounds(min, max float64) (float64, float64) {
	if math.IsNaN(min) || math.IsNaN(max) {
		return min, max
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	pad := span * 0.05
	a := min - pad
	b := max + pad
	mag := math.Pow(10, math.Floor(math.Log10(span)))
	if !math.IsInf(mag, 0) && mag > 0 {
		a = math.Floor(a/mag) * mag
		b = math.Ceil(b/mag) * mag
	}
	return a, b
}

// BuildNumericTicks generates up to n tick marks spanning [min,max] using the same 1,2,2.5,5 pattern.
// Returns slice of raw numeric positions (label formatting left to caller).
func BuildNumericTicks(min, max float64, n int) []float64 {
	if n < 2 || math.IsNaN(min) || math.IsNaN(max) {
		return nil
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	candidates := []float64{1, 2, 2.5, 5, 10}
	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range candidates {
		step := c * mag
		count := math.Ceil(span/step) + 1
		if count < 2 {
			count = 2
		}
		diff := math.Abs(count - float64(n))
		if diff < bestScore {
			bestScore = diff
			bestStep = step
		}
	}
	start := math.Floor(min/bestStep) * bestStep
	end := math.Ceil(max/bestStep) * bestStep
	var out []float64
	for v := start; v <= end+bestStep*0.5; v += bestStep {
		out = append(out, round6(v))
	}
	if len(out) < 2 {
		out = []float64{min, max}
	}
	return out
}

// BuildLogTicks returns the powers of ten covering [min,max]; min must be positive.
func BuildLogTicks(min, max float64) []float64 {
	if min <= 0 {
		min = 1
	}
	if max < min {
		max = min
	}
	lo := math.Floor(math.Log10(min))
	hi := math.Ceil(math.Log10(max))
	if hi == lo {
		hi++
	}
	var out []float64
	for e := lo; e <= hi; e++ {
		out = append(out, math.Pow(10, e))
	}
	return out
}

// FormatNumericTick provides a compact label.
func FormatNumericTick(v float64) string {
	if v == 0 {
		return "0"
	}
	av := math.Abs(v)
	switch {
	case av >= 100 || v == math.Trunc(v):
		return strconv.FormatInt(int64(math.Round(v)), 10)
	case av >= 10:
		return strconv.FormatFloat(v, 'f', 1, 64)
	case av >= 1:
		return strconv.FormatFloat(v, 'f', 2, 64)
	case av >= 0.01:
		return strconv.FormatFloat(v, 'f', 3, 64)
	default:
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
}

// CommaTick labels large counts with thousands separators (12,345).
func CommaTick(v float64) string {
	if math.Abs(v) >= 1000 {
		return humanize.Commaf(math.Round(v))
	}
	return FormatNumericTick(v)
}

// LogTick labels a power of ten.
func LogTick(v float64) string {
	if v <= 0 {
		return ""
	}
	e := math.Log10(v)
	if math.Abs(e-math.Round(e)) > 1e-9 {
		return FormatNumericTick(v)
	}
	if e >= 0 && e < 4 {
		return humanize.Comma(int64(math.Round(v)))
	}
	return "1e" + strconv.Itoa(int(math.Round(e)))
}

// DateLabel formats start+day in the given layout. Layouts containing '%' are read as
// strftime patterns.
func DateLabel(start time.Time, day float64, layout string) string {
	if layout == "" {
		layout = DefaultDateFormat
	}
	t := start.AddDate(0, 0, int(math.Round(day)))
	if strings.Contains(layout, "%") {
		return strftime.Format(layout, t)
	}
	return t.Format(layout)
}
