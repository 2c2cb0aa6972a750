// Package results holds the data contract between the simulation engine and the
// plotting layer: day-indexed result series, observed data, intervention day lists,
// scenario aggregates, the detailed transmission tree and per-person state dates.
//
// Everything here is produced elsewhere (by the engine) and only read by plotting.
// Missing samples are NaN in memory and null on the wire.
package results

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrUnknownResult is returned when a result key is not present in a sim or scenario set.
var ErrUnknownResult = errors.New("unknown result key")

// Result is one named, day-indexed series with optional uncertainty bounds.
type Result struct {
	Name   string `json:"name,omitempty"`
	Color  string `json:"color,omitempty"`
	Values Floats `json:"values"`
	Low    Floats `json:"low,omitempty"`
	High   Floats `json:"high,omitempty"`
}

// HasBounds reports whether both low and high bounds are available.
func (r *Result) HasBounds() bool {
	return r != nil && len(r.Low) > 0 && len(r.High) > 0
}

// Intervention is the plotting view of a policy object: the days at which it changes
// something, and whether it wants its markers drawn.
type Intervention struct {
	Label  string `json:"label,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Days   []int  `json:"days,omitempty"`
	DoPlot *bool  `json:"do_plot,omitempty"`
}

// Plotted reports whether markers should be drawn (unset means yes).
func (iv Intervention) Plotted() bool { return iv.DoPlot == nil || *iv.DoPlot }

// Data holds observed series (e.g. reported diagnoses) on calendar dates.
type Data struct {
	Dates  []Date            `json:"date"`
	Series map[string]Floats `json:"series"`
}

// Has reports whether the data carries a non-empty series for key.
func (d *Data) Has(key string) bool {
	if d == nil {
		return false
	}
	s, ok := d.Series[key]
	return ok && len(s) > 0
}

// Sim is the result set of one simulation run.
type Sim struct {
	Label         string             `json:"label,omitempty"`
	StartDay      Date               `json:"start_day"`
	NDays         int                `json:"n_days"`
	PopSize       int                `json:"pop_size"`
	Seed          int64              `json:"rand_seed,omitempty"`
	Results       map[string]*Result `json:"results"`
	Data          *Data              `json:"data,omitempty"`
	Interventions []Intervention     `json:"interventions,omitempty"`
	People        *People            `json:"people,omitempty"`
	TransTree     *TransTree         `json:"transtree,omitempty"`
}

// NPts is the number of simulated time points (n_days + 1). When NDays is not set the
// longest result series decides.
func (s *Sim) NPts() int {
	if s.NDays > 0 {
		return s.NDays + 1
	}
	n := 0
	for _, r := range s.Results {
		if len(r.Values) > n {
			n = len(r.Values)
		}
	}
	return n
}

// TVec returns the simulated day index vector 0..NPts-1.
func (s *Sim) TVec() []float64 { return DayVector(s.NPts()) }

// Dates returns the calendar date of every time point.
func (s *Sim) Dates() []time.Time {
	n := s.NPts()
	out := make([]time.Time, n)
	for i := range out {
		out[i] = s.StartDay.AddDate(0, 0, i)
	}
	return out
}

// Result looks up a result by key.
func (s *Sim) Result(key string) (*Result, error) {
	r, ok := s.Results[key]
	if !ok || r == nil {
		return nil, fmt.Errorf("%w: %q in sim %q", ErrUnknownResult, key, s.Label)
	}
	return r, nil
}

// Keys returns the result keys in sorted order.
func (s *Sim) Keys() []string {
	keys := make([]string, 0, len(s.Results))
	for k := range s.Results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DataDays converts the observed series for key from calendar dates to model day indexes
// relative to the start day. Points with a NaN value are dropped.
func (s *Sim) DataDays(key string) (xs, ys []float64) {
	if !s.Data.Has(key) {
		return nil, nil
	}
	vals := s.Data.Series[key]
	for i, d := range s.Data.Dates {
		if i >= len(vals) || math.IsNaN(vals[i]) {
			continue
		}
		xs = append(xs, d.Sub(s.StartDay.Time).Hours()/24)
		ys = append(ys, vals[i])
	}
	return xs, ys
}

// DayVector returns 0..n-1 as float64.
func DayVector(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// ScenarioResult is the best/low/high aggregate of one result key for one scenario.
type ScenarioResult struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Best Floats `json:"best"`
	Low  Floats `json:"low"`
	High Floats `json:"high"`
}

// Scenarios is the aggregated output of running several named parameter variants.
type Scenarios struct {
	Label        string                      `json:"label,omitempty"`
	StartDay     Date                        `json:"start_day"`
	TVec         Floats                      `json:"tvec"`
	ScenarioKeys []string                    `json:"scenario_keys"`
	Sims         map[string][]*Sim           `json:"sims,omitempty"`
	Results      map[string][]ScenarioResult `json:"results"`
}

// Result returns the per-scenario aggregates for a result key, in scenario order.
func (sc *Scenarios) Result(key string) ([]ScenarioResult, error) {
	rs, ok := sc.Results[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q in scenarios %q", ErrUnknownResult, key, sc.Label)
	}
	return rs, nil
}

// FirstSim returns the first run of a scenario, used for data and intervention overlays.
func (sc *Scenarios) FirstSim(scenKey string) *Sim {
	runs := sc.Sims[scenKey]
	if len(runs) == 0 {
		return nil
	}
	return runs[0]
}

// PersonState carries the flags and dates of a source or target person at transmission time.
// Nil dates mean the event never happened.
type PersonState struct {
	IsAsymp          bool     `json:"is_asymp,omitempty"`
	IsPresymp        bool     `json:"is_presymp,omitempty"`
	IsSevere         bool     `json:"is_severe,omitempty"`
	IsCritical       bool     `json:"is_critical,omitempty"`
	IsDiagnosed      bool     `json:"is_diagnosed,omitempty"`
	IsQuarantined    bool     `json:"is_quarantined,omitempty"`
	DateTested       *float64 `json:"date_tested,omitempty"`
	DateDiagnosed    *float64 `json:"date_diagnosed,omitempty"`
	DateKnownContact *float64 `json:"date_known_contact,omitempty"`
}

// TransEntry is one infection event. Source is nil for seed infections.
type TransEntry struct {
	Source *int        `json:"source"`
	Target int         `json:"target"`
	Date   int         `json:"date"`
	Layer  string      `json:"layer"`
	S      PersonState `json:"s"`
	T      PersonState `json:"t"`
}

// TransTree is the transmission tree. Detailed is nil until the engine has built the
// detailed tree; nil entries inside it are people who were never infected.
type TransTree struct {
	Detailed []*TransEntry `json:"detailed"`
}

// People holds per-person ages and state dates (NaN when the state was never reached).
type People struct {
	Age            Floats `json:"age,omitempty"`
	DateExposed    Floats `json:"date_exposed,omitempty"`
	DateInfectious Floats `json:"date_infectious,omitempty"`
	DateRecovered  Floats `json:"date_recovered,omitempty"`
	DateDead       Floats `json:"date_dead,omitempty"`
	Vaccinated     []bool `json:"vaccinated,omitempty"`
}

// Len returns the number of people.
func (p *People) Len() int {
	n := len(p.Age)
	for _, s := range [][]float64{p.DateExposed, p.DateInfectious, p.DateRecovered, p.DateDead} {
		if len(s) > n {
			n = len(s)
		}
	}
	return n
}

// Quantity returns the date vector for a quantity name such as "date_exposed".
func (p *People) Quantity(name string) Floats {
	switch name {
	case "date_exposed":
		return p.DateExposed
	case "date_infectious":
		return p.DateInfectious
	case "date_recovered":
		return p.DateRecovered
	case "date_dead":
		return p.DateDead
	case "age":
		return p.Age
	}
	return nil
}

// Defined returns the indexes of people for whom the named date is set.
func (p *People) Defined(name string) []int {
	var inds []int
	for i, v := range p.Quantity(name) {
		if !math.IsNaN(v) {
			inds = append(inds, i)
		}
	}
	return inds
}
