package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/iafilius/EpiViewer/src/analysis"
	"github.com/iafilius/EpiViewer/src/results"
)

// Scenario is one named variant of the base parameters.
type Scenario struct {
	Key  string  `json:"key" yaml:"key"`
	Name string  `json:"name" yaml:"name"`
	Pars SimPars `json:"pars" yaml:"pars"`
}

// Metapars control how each scenario is sampled.
type Metapars struct {
	NRuns       int        `json:"n_runs" yaml:"n_runs"`
	Quantiles   [2]float64 `json:"quantiles" yaml:"quantiles"`
	MaxParallel int        `json:"max_parallel,omitempty" yaml:"max_parallel"`
}

// Scenarios runs every variant NRuns times and reduces each to best/low/high series.
type Scenarios struct {
	Label     string     `json:"label,omitempty" yaml:"label"`
	Base      SimPars    `json:"base" yaml:"base"`
	Metapars  Metapars   `json:"metapars" yaml:"metapars"`
	Scenarios []Scenario `json:"scenarios" yaml:"scenarios"`
}

// Run executes the scenarios in order. Best is the per-day median across runs.
func (s *Scenarios) Run(ctx context.Context, eng Engine) (*results.Scenarios, error) {
	if len(s.Scenarios) == 0 {
		return nil, errors.New("no scenarios to run")
	}
	q := s.Metapars.Quantiles
	if q == ([2]float64{}) {
		q = analysis.DefaultQuantiles
	}
	out := &results.Scenarios{
		Label:   s.Label,
		Sims:    make(map[string][]*results.Sim, len(s.Scenarios)),
		Results: make(map[string][]results.ScenarioResult),
	}
	seen := make(map[string]bool, len(s.Scenarios))
	for _, sc := range s.Scenarios {
		if sc.Key == "" {
			return nil, errors.New("scenario without key")
		}
		if seen[sc.Key] {
			return nil, fmt.Errorf("duplicate scenario key %q", sc.Key)
		}
		seen[sc.Key] = true
		name := sc.Name
		if name == "" {
			name = sc.Key
		}
		pars := s.Base.Merge(sc.Pars)
		pars.Label = name
		results.Infof("[scenarios] running %q (%d runs)", name, max(s.Metapars.NRuns, 1))
		runs, err := RunMulti(ctx, eng, pars, s.Metapars.NRuns, s.Metapars.MaxParallel)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Key, err)
		}
		reduced, err := analysis.Reduce(runs, q)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", sc.Key, err)
		}
		if len(out.TVec) == 0 {
			out.TVec = reduced.TVec()
			out.StartDay = reduced.StartDay
		}
		out.ScenarioKeys = append(out.ScenarioKeys, sc.Key)
		out.Sims[sc.Key] = runs
		for _, key := range reduced.Keys() {
			r := reduced.Results[key]
			out.Results[key] = append(out.Results[key], results.ScenarioResult{
				Key:  sc.Key,
				Name: name,
				Best: r.Values,
				Low:  r.Low,
				High: r.High,
			})
		}
	}
	return out, nil
}
