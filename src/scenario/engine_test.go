package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/iafilius/EpiViewer/src/results"
)

var fakeKeys = []string{
	"cum_infections", "n_infectious", "cum_diagnoses",
	"new_infections", "new_diagnoses",
	"cum_severe", "cum_critical", "cum_deaths",
	"new_reinfections", "cum_reinfections", "pop_nabs", "pop_protection",
}

// fakeSim is a short deterministic run whose values are offset by the seed.
func fakeSim(p SimPars) *results.Sim {
	const nDays = 10
	sim := &results.Sim{
		Label:    p.Label,
		StartDay: results.NewDate(2020, time.March, 1),
		NDays:    nDays,
		PopSize:  p.PopSize,
		Results:  make(map[string]*results.Result, len(fakeKeys)),
	}
	for j, key := range fakeKeys {
		vals := make(results.Floats, nDays+1)
		for t := range vals {
			vals[t] = float64(t*(j+1)) + float64(p.Seed)
		}
		sim.Results[key] = &results.Result{Name: key, Color: "#e45226", Values: vals}
	}
	return sim
}

func fakeEngine() Engine {
	return EngineFunc(func(ctx context.Context, p SimPars) (*results.Sim, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fakeSim(p), nil
	})
}

func TestRunMultiKeepsOrderAndSeeds(t *testing.T) {
	defer goleak.VerifyNone(t)
	// later seeds finish first
	eng := EngineFunc(func(ctx context.Context, p SimPars) (*results.Sim, error) {
		time.Sleep(time.Duration(5-p.Seed) * 5 * time.Millisecond)
		return fakeSim(p), nil
	})
	runs, err := RunMulti(context.Background(), eng, SimPars{Label: "m", Seed: 1}, 4, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 4 {
		t.Fatalf("got %d runs", len(runs))
	}
	for i, r := range runs {
		if got := r.Results["cum_infections"].Values[0]; got != float64(1+i) {
			t.Fatalf("run %d: seed offset %v, want %d", i, got, 1+i)
		}
		if r.Label != "m" {
			t.Fatalf("run %d: label %q", i, r.Label)
		}
	}
}

func TestRunMultiLimitsParallelism(t *testing.T) {
	defer goleak.VerifyNone(t)
	var active, peak atomic.Int32
	eng := EngineFunc(func(ctx context.Context, p SimPars) (*results.Sim, error) {
		n := active.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		return fakeSim(p), nil
	})
	if _, err := RunMulti(context.Background(), eng, SimPars{}, 8, 2); err != nil {
		t.Fatal(err)
	}
	if p := peak.Load(); p > 2 {
		t.Fatalf("peak parallelism %d exceeds limit 2", p)
	}
}

func TestRunMultiFirstErrorCancels(t *testing.T) {
	defer goleak.VerifyNone(t)
	boom := errors.New("boom")
	var cancelled atomic.Int32
	eng := EngineFunc(func(ctx context.Context, p SimPars) (*results.Sim, error) {
		if p.Seed == 0 {
			return nil, boom
		}
		select {
		case <-ctx.Done():
			cancelled.Add(1)
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
			return fakeSim(p), nil
		}
	})
	start := time.Now()
	_, err := RunMulti(context.Background(), eng, SimPars{}, 3, 0)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("remaining runs were not cancelled")
	}
	if cancelled.Load() != 2 {
		t.Fatalf("expected 2 cancelled runs, got %d", cancelled.Load())
	}
}

func TestRunMultiFillsInterventions(t *testing.T) {
	defer goleak.VerifyNone(t)
	pars := SimPars{Label: "iv", Interventions: []Intervention{{ChangeBeta: &ChangeBeta{Days: []int{5, 20}, Changes: []float64{0.8, 0.7}}}}}
	runs, err := RunMulti(context.Background(), fakeEngine(), pars, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	ivs := runs[0].Interventions
	if len(ivs) != 1 || ivs[0].Kind != "change_beta" || len(ivs[0].Days) != 2 {
		t.Fatalf("interventions not filled from pars: %+v", ivs)
	}
}

// TestHelperProcess is not a real test: ExecEngine tests run the test binary as the engine.
func TestHelperProcess(t *testing.T) {
	mode := os.Getenv("EPIVIEWER_HELPER_ENGINE")
	if mode == "" {
		return
	}
	var p SimPars
	if err := json.NewDecoder(os.Stdin).Decode(&p); err != nil {
		fmt.Fprintln(os.Stderr, "bad input:", err)
		os.Exit(2)
	}
	switch mode {
	case "envelope":
		_ = json.NewEncoder(os.Stdout).Encode(results.NewEnvelope(fakeSim(p), "helper", "", p.Seed))
	case "bare":
		sim := fakeSim(p)
		sim.Label = ""
		_ = json.NewEncoder(os.Stdout).Encode(sim)
	case "fail":
		fmt.Fprintln(os.Stderr, "engine exploded")
		os.Exit(3)
	case "hang":
		time.Sleep(10 * time.Second)
	}
	os.Exit(0)
}

func helperEngine(mode string, timeout time.Duration) *ExecEngine {
	return &ExecEngine{
		Command: os.Args[0],
		Args:    []string{"-test.run=^TestHelperProcess$"},
		Env:     []string{"EPIVIEWER_HELPER_ENGINE=" + mode},
		Timeout: timeout,
	}
}

func TestExecEngine(t *testing.T) {
	for _, mode := range []string{"envelope", "bare"} {
		sim, err := helperEngine(mode, 0).Run(context.Background(), SimPars{Label: "exec", Seed: 7})
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		if sim.Label != "exec" {
			t.Fatalf("%s: label %q", mode, sim.Label)
		}
		if got := sim.Results["new_infections"].Values[0]; got != 7 {
			t.Fatalf("%s: pars not passed through stdin, got %v", mode, got)
		}
	}
}

func TestExecEngineFailure(t *testing.T) {
	_, err := helperEngine("fail", 0).Run(context.Background(), SimPars{})
	if err == nil {
		t.Fatalf("expected failure")
	}
	if got := err.Error(); !strings.Contains(got, "engine exploded") {
		t.Fatalf("stderr should be reported: %v", err)
	}
}

func TestExecEngineTimeout(t *testing.T) {
	start := time.Now()
	_, err := helperEngine("hang", 200*time.Millisecond).Run(context.Background(), SimPars{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("timeout not enforced")
	}
}

func TestNewExecEngine(t *testing.T) {
	if _, err := NewExecEngine("   ", 0); err == nil {
		t.Fatalf("empty command should fail")
	}
	e, err := NewExecEngine("python3 -m covasim_engine --fast", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if e.Command != "python3" || len(e.Args) != 3 || e.Timeout != time.Minute {
		t.Fatalf("unexpected engine %+v", e)
	}
}
