// Package analysis reduces and compares simulation outputs: multi-run reduction to
// median and quantile bands, final-value comparison tables across sims, and headline
// summaries of stored runs.
package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/iafilius/EpiViewer/src/results"
)

// KeySummary is the headline of one result series.
type KeySummary struct {
	Peak    float64 `json:"peak"`
	PeakDay int     `json:"peak_day"`
	Final   float64 `json:"final"`
}

// RunSummary captures headline metrics for one stored sim run.
type RunSummary struct {
	RunTag   string                `json:"run_tag"`
	RunID    string                `json:"run_id,omitempty"`
	Label    string                `json:"label"`
	Scenario string                `json:"scenario,omitempty"`
	Seed     int64                 `json:"seed"`
	NDays    int                   `json:"n_days"`
	PopSize  int                   `json:"pop_size"`
	Keys     map[string]KeySummary `json:"keys"`
}

// Final returns the final value of key, or NaN when the run lacks it.
func (s RunSummary) Final(key string) float64 {
	if ks, ok := s.Keys[key]; ok {
		return ks.Final
	}
	return math.NaN()
}

// summarize finds the peak (first occurrence) and last finite value of a series.
func summarize(vals []float64) KeySummary {
	ks := KeySummary{Peak: math.NaN(), PeakDay: -1, Final: math.NaN()}
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if ks.PeakDay < 0 || v > ks.Peak {
			ks.Peak, ks.PeakDay = v, i
		}
		ks.Final = v
	}
	return ks
}

// SummarizeSim returns peak and final values for every result of sim.
func SummarizeSim(sim *results.Sim) map[string]KeySummary {
	out := make(map[string]KeySummary, len(sim.Results))
	for k, r := range sim.Results {
		if r == nil {
			continue
		}
		out[k] = summarize(r.Values)
	}
	return out
}

// SummarizeScenarios returns, per scenario key, the summaries of the best estimates.
func SummarizeScenarios(sc *results.Scenarios) map[string]map[string]KeySummary {
	out := make(map[string]map[string]KeySummary, len(sc.ScenarioKeys))
	for key, rs := range sc.Results {
		for _, sr := range rs {
			m, ok := out[sr.Key]
			if !ok {
				m = map[string]KeySummary{}
				out[sr.Key] = m
			}
			m[key] = summarize(sr.Best)
		}
	}
	return out
}

// CompareScenarios returns the percent change of every scenario's final best value
// against the baseline scenario, per result key. Keys whose baseline is zero or
// missing are left out.
func CompareScenarios(sc *results.Scenarios, baseline string) (map[string]map[string]float64, error) {
	sums := SummarizeScenarios(sc)
	base, ok := sums[baseline]
	if !ok {
		return nil, fmt.Errorf("baseline scenario %q not found", baseline)
	}
	out := make(map[string]map[string]float64, len(sums))
	for scen, m := range sums {
		if scen == baseline {
			continue
		}
		deltas := map[string]float64{}
		for key, ks := range m {
			b, ok := base[key]
			if !ok || b.Final == 0 || math.IsNaN(b.Final) || math.IsNaN(ks.Final) {
				continue
			}
			deltas[key] = (ks.Final - b.Final) / b.Final * 100
		}
		out[scen] = deltas
	}
	return out, nil
}

// AnalyzeRecentResults reads the results file and summarizes the most recent maxRuns
// sim envelopes (maxRuns <= 0 means all), oldest first.
func AnalyzeRecentResults(path string, schemaVersion, maxRuns int) ([]RunSummary, error) {
	envs, err := results.ReadEnvelopes(path, schemaVersion, 0)
	if err != nil {
		return nil, err
	}
	results.Debugf("[analysis] %d envelopes in %s", len(envs), path)
	var out []RunSummary
	for _, e := range envs {
		if e.Sim == nil {
			continue
		}
		out = append(out, RunSummary{
			RunTag:   e.Meta.RunTag,
			RunID:    e.Meta.RunID,
			Label:    e.Sim.Label,
			Scenario: e.Meta.Scenario,
			Seed:     e.Meta.Seed,
			NDays:    e.Sim.NDays,
			PopSize:  e.Sim.PopSize,
			Keys:     SummarizeSim(e.Sim),
		})
	}
	if maxRuns > 0 && len(out) > maxRuns {
		out = out[len(out)-maxRuns:]
	}
	return out, nil
}

// CompareLastVsPrevious returns the percent change of the last run's final value of
// key against the average of the previous runs, plus that average.
func CompareLastVsPrevious(summaries []RunSummary, key string) (deltaPct, prevAvg float64) {
	if len(summaries) < 2 {
		return 0, 0
	}
	last := summaries[len(summaries)-1].Final(key)
	n := 0
	for _, s := range summaries[:len(summaries)-1] {
		if v := s.Final(key); !math.IsNaN(v) {
			prevAvg += v
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	prevAvg /= float64(n)
	if prevAvg > 0 && !math.IsNaN(last) {
		deltaPct = (last - prevAvg) / prevAvg * 100
	}
	return deltaPct, prevAvg
}

// SortedKeys returns the keys of m in order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
