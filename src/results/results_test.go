package results

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFloatsNaNBecomesNull(t *testing.T) {
	b, err := json.Marshal(Floats{1, math.NaN(), 2.5, math.Inf(1)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "[1,null,2.5,null]" {
		t.Fatalf("unexpected json: %s", b)
	}
	var back Floats
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back) != 4 || back[0] != 1 || !math.IsNaN(back[1]) || back[2] != 2.5 || !math.IsNaN(back[3]) {
		t.Fatalf("unexpected round trip: %v", back)
	}
}

func TestDateAcceptsBothLayouts(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2020-03-01"`), &d); err != nil {
		t.Fatalf("short layout: %v", err)
	}
	var d2 Date
	if err := json.Unmarshal([]byte(`"2020-03-01T00:00:00Z"`), &d2); err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if !d.Equal(d2.Time) {
		t.Fatalf("dates differ: %v vs %v", d, d2)
	}
	b, _ := json.Marshal(d)
	if string(b) != `"2020-03-01"` {
		t.Fatalf("marshal date: %s", b)
	}
}

func TestSimVectors(t *testing.T) {
	sim := &Sim{StartDay: NewDate(2020, 3, 1), NDays: 4}
	if got := sim.NPts(); got != 5 {
		t.Fatalf("npts=%d want 5", got)
	}
	if diff := cmp.Diff([]float64{0, 1, 2, 3, 4}, sim.TVec()); diff != "" {
		t.Fatalf("tvec mismatch (-want +got):\n%s", diff)
	}
	dates := sim.Dates()
	if dates[4].Format("2006-01-02") != "2020-03-05" {
		t.Fatalf("last date %v", dates[4])
	}

	noDays := &Sim{Results: map[string]*Result{"a": {Values: Floats{1, 2, 3}}}}
	if noDays.NPts() != 3 {
		t.Fatalf("npts from results=%d", noDays.NPts())
	}
}

func TestSimResultUnknownKey(t *testing.T) {
	sim := &Sim{Label: "base", Results: map[string]*Result{}}
	_, err := sim.Result("new_infections")
	if !errors.Is(err, ErrUnknownResult) {
		t.Fatalf("expected ErrUnknownResult, got %v", err)
	}
}

func TestDataDaysRelativeToStart(t *testing.T) {
	sim := &Sim{
		StartDay: NewDate(2020, 3, 1),
		Data: &Data{
			Dates:  []Date{NewDate(2020, 3, 3), NewDate(2020, 3, 4), NewDate(2020, 3, 10)},
			Series: map[string]Floats{"new_diagnoses": {5, math.NaN(), 9}},
		},
	}
	xs, ys := sim.DataDays("new_diagnoses")
	if diff := cmp.Diff([]float64{2, 9}, xs); diff != "" {
		t.Fatalf("xs mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]float64{5, 9}, ys); diff != "" {
		t.Fatalf("ys mismatch:\n%s", diff)
	}
	if xs, _ := sim.DataDays("cum_deaths"); xs != nil {
		t.Fatalf("expected no data for missing key")
	}
}

func TestPeopleDefined(t *testing.T) {
	p := &People{DateExposed: Floats{math.NaN(), 3, math.NaN(), 0}}
	if diff := cmp.Diff([]int{1, 3}, p.Defined("date_exposed")); diff != "" {
		t.Fatalf("defined mismatch:\n%s", diff)
	}
	if p.Len() != 4 {
		t.Fatalf("len=%d", p.Len())
	}
}

func TestInterventionPlotted(t *testing.T) {
	no := false
	if !(Intervention{}).Plotted() {
		t.Fatalf("unset do_plot should plot")
	}
	if (Intervention{DoPlot: &no}).Plotted() {
		t.Fatalf("do_plot=false should not plot")
	}
}
