// Package scenario describes simulation configurations, hands them to an engine and
// aggregates the runs into scenario sets. It also carries the scripted battery of
// multi-strain, vaccination and waning cases used to exercise an engine end to end.
package scenario

import (
	"github.com/iafilius/EpiViewer/src/results"
)

// Dist is a named probability distribution with two parameters.
type Dist struct {
	Dist string  `json:"dist" yaml:"dist"`
	Par1 float64 `json:"par1" yaml:"par1"`
	Par2 float64 `json:"par2,omitempty" yaml:"par2"`
}

// NabDecay shapes how neutralizing antibodies wane.
type NabDecay struct {
	Form       string  `json:"form" yaml:"form"`
	DecayRate1 float64 `json:"decay_rate1" yaml:"decay_rate1"`
	DecayTime1 float64 `json:"decay_time1" yaml:"decay_time1"`
	DecayRate2 float64 `json:"decay_rate2" yaml:"decay_rate2"`
}

// StrainPars are custom strain properties relative to the wild type.
type StrainPars struct {
	RelBeta       float64         `json:"rel_beta,omitempty" yaml:"rel_beta"`
	RelSevereProb float64         `json:"rel_severe_prob,omitempty" yaml:"rel_severe_prob"`
	RelSympProb   float64         `json:"rel_symp_prob,omitempty" yaml:"rel_symp_prob"`
	Dur           map[string]Dist `json:"dur,omitempty" yaml:"dur"`
}

// Strain imports a variant on the given days. Either Name picks a known variant
// (b117, b1351, p1, ...) or Pars describes a custom one.
type Strain struct {
	Name     string      `json:"name,omitempty" yaml:"name"`
	Pars     *StrainPars `json:"pars,omitempty" yaml:"pars"`
	Label    string      `json:"label,omitempty" yaml:"label"`
	Days     []int       `json:"days" yaml:"days"`
	NImports int         `json:"n_imports,omitempty" yaml:"n_imports"`
}

// ChangeBeta scales transmissibility from each day onward.
type ChangeBeta struct {
	Days    []int     `json:"days" yaml:"days"`
	Changes []float64 `json:"changes" yaml:"changes"`
}

// Vaccinate rolls out a named vaccine on the given days, optionally restricted by age.
type Vaccinate struct {
	Days      []int         `json:"days" yaml:"days"`
	Vaccine   string        `json:"vaccine" yaml:"vaccine"`
	Subtarget *AgeSubtarget `json:"subtarget,omitempty" yaml:"subtarget"`
}

// TestProb tests people with a daily probability depending on symptoms.
type TestProb struct {
	SympProb  float64 `json:"symp_prob" yaml:"symp_prob"`
	AsympProb float64 `json:"asymp_prob,omitempty" yaml:"asymp_prob"`
	StartDay  int     `json:"start_day,omitempty" yaml:"start_day"`
}

// Intervention is one policy; exactly one of the kind fields is set.
type Intervention struct {
	Label      string      `json:"label,omitempty" yaml:"label"`
	ChangeBeta *ChangeBeta `json:"change_beta,omitempty" yaml:"change_beta"`
	Vaccinate  *Vaccinate  `json:"vaccinate,omitempty" yaml:"vaccinate"`
	TestProb   *TestProb   `json:"test_prob,omitempty" yaml:"test_prob"`
	DoPlot     *bool       `json:"do_plot,omitempty" yaml:"do_plot"`
}

// Kind names the populated intervention.
func (iv Intervention) Kind() string {
	switch {
	case iv.ChangeBeta != nil:
		return "change_beta"
	case iv.Vaccinate != nil:
		return "vaccinate"
	case iv.TestProb != nil:
		return "test_prob"
	}
	return ""
}

// Days are the points at which the intervention changes something.
func (iv Intervention) Days() []int {
	switch {
	case iv.ChangeBeta != nil:
		return append([]int(nil), iv.ChangeBeta.Days...)
	case iv.Vaccinate != nil:
		return append([]int(nil), iv.Vaccinate.Days...)
	case iv.TestProb != nil:
		return []int{iv.TestProb.StartDay}
	}
	return nil
}

// Plotting returns the view the plotting layer draws markers from.
func (iv Intervention) Plotting() results.Intervention {
	return results.Intervention{Label: iv.Label, Kind: iv.Kind(), Days: iv.Days(), DoPlot: iv.DoPlot}
}

// Analyzer records extra state during a run. Snapshot keeps copies of the sim on days.
type Analyzer struct {
	Snapshot []int `json:"snapshot,omitempty" yaml:"snapshot"`
}

// SimPars is the configuration of one simulation. Zero values mean "engine default".
type SimPars struct {
	Label     string  `json:"label,omitempty" yaml:"label"`
	PopSize   int     `json:"pop_size,omitempty" yaml:"pop_size"`
	PopType   string  `json:"pop_type,omitempty" yaml:"pop_type"`
	PopScale  float64 `json:"pop_scale,omitempty" yaml:"pop_scale"`
	NDays     int     `json:"n_days,omitempty" yaml:"n_days"`
	StartDay  string  `json:"start_day,omitempty" yaml:"start_day"`
	Beta      float64 `json:"beta,omitempty" yaml:"beta"`
	UseWaning *bool   `json:"use_waning,omitempty" yaml:"use_waning"`
	Seed      int64   `json:"rand_seed,omitempty" yaml:"rand_seed"`
	Verbose   *int    `json:"verbose,omitempty" yaml:"verbose"`

	NabDecay      *NabDecay      `json:"nab_decay,omitempty" yaml:"nab_decay"`
	Strains       []Strain       `json:"strains,omitempty" yaml:"strains"`
	Interventions []Intervention `json:"interventions,omitempty" yaml:"interventions"`
	Analyzers     []Analyzer     `json:"analyzers,omitempty" yaml:"analyzers"`

	// Synthetic population options, used with PopType "synthpops".
	WithFacilities bool              `json:"with_facilities,omitempty" yaml:"with_facilities"`
	LayerMapping   map[string]string `json:"layer_mapping,omitempty" yaml:"layer_mapping"`
}

// Merge returns p overlaid with every field o sets. Slices and maps replace rather than append.
func (p SimPars) Merge(o SimPars) SimPars {
	if o.Label != "" {
		p.Label = o.Label
	}
	if o.PopSize > 0 {
		p.PopSize = o.PopSize
	}
	if o.PopType != "" {
		p.PopType = o.PopType
	}
	if o.PopScale > 0 {
		p.PopScale = o.PopScale
	}
	if o.NDays > 0 {
		p.NDays = o.NDays
	}
	if o.StartDay != "" {
		p.StartDay = o.StartDay
	}
	if o.Beta > 0 {
		p.Beta = o.Beta
	}
	if o.UseWaning != nil {
		p.UseWaning = o.UseWaning
	}
	if o.Seed != 0 {
		p.Seed = o.Seed
	}
	if o.Verbose != nil {
		p.Verbose = o.Verbose
	}
	if o.NabDecay != nil {
		p.NabDecay = o.NabDecay
	}
	if o.Strains != nil {
		p.Strains = o.Strains
	}
	if o.Interventions != nil {
		p.Interventions = o.Interventions
	}
	if o.Analyzers != nil {
		p.Analyzers = o.Analyzers
	}
	if o.WithFacilities {
		p.WithFacilities = true
	}
	if o.LayerMapping != nil {
		p.LayerMapping = o.LayerMapping
	}
	return p
}

// PlottingInterventions converts the configured interventions for the plotting layer.
func (p SimPars) PlottingInterventions() []results.Intervention {
	if len(p.Interventions) == 0 {
		return nil
	}
	out := make([]results.Intervention, len(p.Interventions))
	for i, iv := range p.Interventions {
		out[i] = iv.Plotting()
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }
