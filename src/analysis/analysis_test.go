package analysis

import (
	"encoding/json"
	"math"
	"os"
	"testing"

	"github.com/iafilius/EpiViewer/src/results"
)

// helper to write a synthetic line
func writeLine(f *os.File, runTag string, label string, cumInf []float64) error {
	sim := &results.Sim{Label: label, NDays: len(cumInf) - 1, PopSize: 1000, Results: map[string]*results.Result{
		"cum_infections": {Name: "Cumulative infections", Values: cumInf},
	}}
	env := results.NewEnvelope(sim, "", "", 1)
	env.Meta.RunTag = runTag
	b, _ := json.Marshal(env)
	_, err := f.Write(append(b, '\n'))
	return err
}

func TestAnalyzeRecentResults(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "results-*.jsonl")
	if err != nil {
		t.Fatalf("tmp file: %v", err)
	}
	writeLine(tmp, "20240101_000000", "a", []float64{10, 40, 100})
	writeLine(tmp, "20240102_000000", "b", []float64{10, 50, 120})
	writeLine(tmp, "20240103_000000", "c", []float64{10, 20, 55})
	tmp.Close()

	sums, err := AnalyzeRecentResults(tmp.Name(), results.SchemaVersion, 10)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(sums) != 3 {
		t.Fatalf("expected 3 runs got %d", len(sums))
	}
	if sums[0].RunTag != "20240101_000000" || sums[2].Label != "c" {
		t.Fatalf("unexpected order: %+v", sums)
	}
	ks := sums[1].Keys["cum_infections"]
	if ks.Peak != 120 || ks.PeakDay != 2 || ks.Final != 120 {
		t.Fatalf("summary: %+v", ks)
	}
	delta, prev := CompareLastVsPrevious(sums, "cum_infections")
	if prev != 110 {
		t.Fatalf("prev avg: %v", prev)
	}
	if delta >= 0 {
		t.Fatalf("expected last run lower, delta=%.2f", delta)
	}

	last, err := AnalyzeRecentResults(tmp.Name(), results.SchemaVersion, 1)
	if err != nil || len(last) != 1 || last[0].Label != "c" {
		t.Fatalf("max=1: %+v err=%v", last, err)
	}
}

func TestCompareLastVsPreviousNeedsTwoRuns(t *testing.T) {
	d, p := CompareLastVsPrevious([]RunSummary{{Keys: map[string]KeySummary{"x": {Final: 3}}}}, "x")
	if d != 0 || p != 0 {
		t.Fatalf("got %v %v", d, p)
	}
}

func TestSummarizeSkipsNaN(t *testing.T) {
	nan := math.NaN()
	ks := summarize([]float64{nan, 3, 7, 7, nan})
	if ks.Peak != 7 || ks.PeakDay != 2 || ks.Final != 7 {
		t.Fatalf("summary: %+v", ks)
	}
	empty := summarize([]float64{nan})
	if empty.PeakDay != -1 || !math.IsNaN(empty.Final) {
		t.Fatalf("all-NaN summary: %+v", empty)
	}
}

func TestCompareScenarios(t *testing.T) {
	sc := &results.Scenarios{
		ScenarioKeys: []string{"baseline", "vaccine"},
		Results: map[string][]results.ScenarioResult{
			"cum_deaths": {
				{Key: "baseline", Best: []float64{0, 10, 20}},
				{Key: "vaccine", Best: []float64{0, 5, 15}},
			},
		},
	}
	deltas, err := CompareScenarios(sc, "baseline")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if got := deltas["vaccine"]["cum_deaths"]; got != -25 {
		t.Fatalf("delta: %v", got)
	}
	if _, ok := deltas["baseline"]; ok {
		t.Fatalf("baseline compared with itself")
	}
	if _, err := CompareScenarios(sc, "missing"); err == nil {
		t.Fatalf("expected error for unknown baseline")
	}
}
