package chartutil

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFigurePixels(t *testing.T) {
	cases := []struct {
		w, h         float64
		dpi          int
		wantW, wantH int
	}{
		{16, 14, 100, 1600, 1400},
		{16, 8, 0, 1600, 800},
		{1, 1, 100, 320, 240},
		{8, 6, 50, 400, 300},
	}
	for _, c := range cases {
		w, h := FigurePixels(c.w, c.h, c.dpi)
		if w != c.wantW || h != c.wantH {
			t.Fatalf("FigurePixels(%v,%v,%d)=%dx%d want %dx%d", c.w, c.h, c.dpi, w, h, c.wantW, c.wantH)
		}
	}
}

func TestBuildDayTicks(t *testing.T) {
	if diff := cmp.Diff([]float64{0, 30, 60, 90}, BuildDayTicks(100, 30, 0)); diff != "" {
		t.Fatalf("interval ticks mismatch:\n%s", diff)
	}
	auto := BuildDayTicks(10, 0, 6)
	if diff := cmp.Diff([]float64{0, 2, 4, 6, 8, 10}, auto); diff != "" {
		t.Fatalf("auto ticks mismatch:\n%s", diff)
	}
	weeks := BuildDayTicks(60, 0, 10)
	if len(weeks) < 2 || weeks[1] != 7 {
		t.Fatalf("expected weekly ticks for 60 days: %v", weeks)
	}
	if got := BuildDayTicks(0, 0, 5); len(got) != 1 {
		t.Fatalf("zero span should give a single tick: %v", got)
	}
	for _, v := range BuildDayTicks(3, 0, 10) {
		if v != math.Trunc(v) {
			t.Fatalf("day ticks must be whole days: %v", v)
		}
	}
}

func TestBuildNumericTicks(t *testing.T) {
	ticks := BuildNumericTicks(0, 100, 6)
	if len(ticks) < 2 {
		t.Fatalf("expected ticks, got %v", ticks)
	}
	if ticks[0] > 0 || ticks[len(ticks)-1] < 100 {
		t.Fatalf("ticks must cover range: %v", ticks)
	}
	step := ticks[1] - ticks[0]
	for i := 2; i < len(ticks); i++ {
		if math.Abs((ticks[i]-ticks[i-1])-step) > 1e-6 {
			t.Fatalf("uneven steps: %v", ticks)
		}
	}
	if BuildNumericTicks(math.NaN(), 1, 5) != nil {
		t.Fatalf("NaN input should give nil")
	}
}

func TestNiceUpper(t *testing.T) {
	cases := map[float64]float64{0: 1, 7: 10, 1200: 2000, 2400: 2500, 100: 100, 0.3: 0.5}
	for in, want := range cases {
		if got := NiceUpper(in); got != want {
			t.Fatalf("NiceUpper(%v)=%v want %v", in, got, want)
		}
	}
}

func TestTickLabels(t *testing.T) {
	cases := []struct {
		fn   func(float64) string
		in   float64
		want string
	}{
		{CommaTick, 1234567, "1,234,567"},
		{CommaTick, 250, "250"},
		{FormatNumericTick, 0, "0"},
		{FormatNumericTick, 2.5, "2.50"},
		{FormatNumericTick, 40, "40"},
		{LogTick, 1000, "1,000"},
		{LogTick, 1e6, "1e6"},
	}
	for _, c := range cases {
		if got := c.fn(c.in); got != c.want {
			t.Fatalf("label(%v)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestBuildLogTicks(t *testing.T) {
	if diff := cmp.Diff([]float64{1, 10, 100, 1000}, BuildLogTicks(3, 900)); diff != "" {
		t.Fatalf("log ticks mismatch:\n%s", diff)
	}
}

func TestDateLabel(t *testing.T) {
	start := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := DateLabel(start, 10, ""); got != "Mar-11" {
		t.Fatalf("default layout got %q", got)
	}
	if got := DateLabel(start, 0, "%Y-%m-%d"); got != "2020-03-01" {
		t.Fatalf("strftime layout got %q", got)
	}
	if got := DateLabel(start, 31, "%d %b"); got != "01 Apr" {
		t.Fatalf("strftime month got %q", got)
	}
}
