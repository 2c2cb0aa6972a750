package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/iafilius/EpiViewer/src/results"
)

// ErrNoRuns is returned when there is nothing to reduce.
var ErrNoRuns = errors.New("no runs to reduce")

// DefaultQuantiles are the low and high bounds used when none are given.
var DefaultQuantiles = [2]float64{0.1, 0.9}

// Quantile returns the q-quantile of vals with linear interpolation between order
// statistics. NaNs are ignored; an all-NaN input yields NaN.
func Quantile(vals []float64, q float64) float64 {
	xs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return math.NaN()
	}
	sort.Float64s(xs)
	if q <= 0 {
		return xs[0]
	}
	if q >= 1 {
		return xs[len(xs)-1]
	}
	pos := q * float64(len(xs)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return xs[lo] + (xs[hi]-xs[lo])*frac
}

// Reduce collapses several runs of the same configuration into one sim whose results
// hold the per-day median and the quantile bounds. The first run supplies the label,
// start day, data and interventions.
func Reduce(runs []*results.Sim, quantiles [2]float64) (*results.Sim, error) {
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	if quantiles == ([2]float64{}) {
		quantiles = DefaultQuantiles
	}
	if quantiles[0] >= quantiles[1] {
		return nil, fmt.Errorf("invalid quantiles %v: low must be below high", quantiles)
	}
	base := runs[0]
	out := &results.Sim{
		Label:         base.Label,
		StartDay:      base.StartDay,
		NDays:         base.NDays,
		PopSize:       base.PopSize,
		Results:       make(map[string]*results.Result, len(base.Results)),
		Data:          base.Data,
		Interventions: base.Interventions,
	}
	for _, key := range base.Keys() {
		ref := base.Results[key]
		n := len(ref.Values)
		for _, r := range runs[1:] {
			rr, ok := r.Results[key]
			if !ok || rr == nil {
				return nil, fmt.Errorf("run %q: %w: %q", r.Label, results.ErrUnknownResult, key)
			}
			if len(rr.Values) > n {
				n = len(rr.Values)
			}
		}
		res := &results.Result{Name: ref.Name, Color: ref.Color, Values: make(results.Floats, n), Low: make(results.Floats, n), High: make(results.Floats, n)}
		col := make([]float64, len(runs))
		for t := 0; t < n; t++ {
			for i, r := range runs {
				vals := r.Results[key].Values
				if t < len(vals) {
					col[i] = vals[t]
				} else {
					col[i] = math.NaN()
				}
			}
			res.Values[t] = Quantile(col, 0.5)
			res.Low[t] = Quantile(col, quantiles[0])
			res.High[t] = Quantile(col, quantiles[1])
		}
		out.Results[key] = res
	}
	return out, nil
}
