package plotting

import (
	"testing"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

func TestGridColors(t *testing.T) {
	small := GridColors(3)
	if len(small) != 3 {
		t.Fatalf("len=%d", len(small))
	}
	big := GridColors(20)
	seen := map[drawing.Color]bool{}
	for _, c := range big {
		seen[c] = true
	}
	if len(big) != 20 || len(seen) < 15 {
		t.Fatalf("expected mostly distinct colours, got %d of %d", len(seen), len(big))
	}
	if len(GridColors(0)) != 0 {
		t.Fatalf("expected no colours for n=0")
	}
}

func TestVecToColorEndsOfMap(t *testing.T) {
	cs := VecToColor(5, "parula")
	if len(cs) != 5 {
		t.Fatalf("len=%d", len(cs))
	}
	if cs[0] == cs[4] {
		t.Fatalf("first and last colour should differ")
	}
	if one := VecToColor(1, "viridis"); len(one) != 1 {
		t.Fatalf("single colour: %v", one)
	}
}

func TestHexColor(t *testing.T) {
	if c := HexColor("#e45226"); c.R != 0xe4 || c.G != 0x52 || c.B != 0x26 || c.A != 255 {
		t.Fatalf("parsed %+v", c)
	}
	if c := HexColor("not-a-colour"); c != drawing.ColorBlack {
		t.Fatalf("fallback %+v", c)
	}
	if c := withAlpha(drawing.ColorBlack, 0.5); c.A != 128 {
		t.Fatalf("alpha %d", c.A)
	}
}
