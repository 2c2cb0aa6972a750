package scenario

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestScenariosRun(t *testing.T) {
	defer goleak.VerifyNone(t)
	sc := Scenarios{
		Label:    "waning",
		Base:     SimPars{PopSize: 1000, UseWaning: boolPtr(false)},
		Metapars: Metapars{NRuns: 3},
		Scenarios: []Scenario{
			{Key: "no_waning", Name: "No waning"},
			{Key: "waning", Name: "Waning", Pars: SimPars{UseWaning: boolPtr(true), Seed: 10}},
		},
	}
	res, err := sc.Run(context.Background(), fakeEngine())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"no_waning", "waning"}, res.ScenarioKeys); diff != "" {
		t.Fatalf("scenario order (-want +got):\n%s", diff)
	}
	if len(res.TVec) != 11 || res.StartDay.IsZero() {
		t.Fatalf("tvec/start day not taken from the runs: %d %v", len(res.TVec), res.StartDay)
	}
	rs, err := res.Result("cum_infections")
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 2 || rs[0].Key != "no_waning" || rs[1].Name != "Waning" {
		t.Fatalf("unexpected scenario results %+v", rs)
	}
	// seeds 0,1,2 -> median 1, low 0.2, high 1.8 on day 0
	if rs[0].Best[0] != 1 {
		t.Fatalf("best should be the median run, got %v", rs[0].Best[0])
	}
	if rs[0].Low[0] >= rs[0].Best[0] || rs[0].High[0] <= rs[0].Best[0] {
		t.Fatalf("bounds should straddle the median: %v %v %v", rs[0].Low[0], rs[0].Best[0], rs[0].High[0])
	}
	// seeds 10,11,12
	if rs[1].Best[0] != 11 {
		t.Fatalf("scenario seed not applied: %v", rs[1].Best[0])
	}
	if n := len(res.Sims["waning"]); n != 3 {
		t.Fatalf("expected 3 stored runs, got %d", n)
	}
	if res.FirstSim("waning").Label != "Waning" {
		t.Fatalf("runs should carry the scenario name, got %q", res.FirstSim("waning").Label)
	}
}

func TestScenariosRunValidates(t *testing.T) {
	cases := map[string]Scenarios{
		"empty":     {},
		"no key":    {Scenarios: []Scenario{{Name: "x"}}},
		"duplicate": {Scenarios: []Scenario{{Key: "a"}, {Key: "a"}}},
	}
	for name, sc := range cases {
		if _, err := sc.Run(context.Background(), fakeEngine()); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestScenariosRunPropagatesCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sc := Scenarios{Scenarios: []Scenario{{Key: "a"}}, Metapars: Metapars{NRuns: 2}}
	if _, err := sc.Run(ctx, fakeEngine()); err == nil {
		t.Fatalf("expected the cancelled context to fail the run")
	}
}
