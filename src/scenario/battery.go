package scenario

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iafilius/EpiViewer/src/analysis"
	"github.com/iafilius/EpiViewer/src/plotting"
	"github.com/iafilius/EpiViewer/src/results"
)

// Kind says how a battery case is run.
type Kind int

const (
	// KindSims runs each configuration once.
	KindSims Kind = iota
	// KindMultiSim runs one configuration NRuns times and reduces the runs.
	KindMultiSim
	// KindScenarios runs a scenario set.
	KindScenarios
)

func (k Kind) String() string {
	switch k {
	case KindSims:
		return "sims"
	case KindMultiSim:
		return "msim"
	case KindScenarios:
		return "scenarios"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Case is one scripted run of the battery.
type Case struct {
	Name    string
	Heading string
	Kind    Kind
	Sims    []SimPars
	NRuns   int
	Scens   *Scenarios
	ToPlot  plotting.ToPlot
	FigPath string
	// Style adjusts the plot options after the battery defaults are applied.
	Style func(o *plotting.Options)
}

// RunOptions control output of RunCase. Nil writers and hooks are skipped.
type RunOptions struct {
	Writer *results.ResultWriter
	Record func(env *results.Envelope) error
	// NRuns, when set, replaces the case's run count.
	NRuns       int
	MaxParallel int

	DoPlot bool
	DoSave bool
	DoShow bool
	Shower plotting.Shower
	// OutDir, when set, replaces the folder of the case's figure path.
	OutDir string
	Plot   *plotting.Options
}

// Outcome is what a case produced.
type Outcome struct {
	Case      string
	RunID     string
	Sims      []*results.Sim
	Reduced   *results.Sim
	Scenarios *results.Scenarios
	Figures   []*plotting.Figure
}

var basePars = SimPars{PopSize: 10_000, Verbose: intPtr(-1)}

func toPlot(panels ...string) plotting.ToPlot {
	out := make(plotting.ToPlot, 0, len(panels)/2)
	for i := 0; i+1 < len(panels); i += 2 {
		out = append(out, plotting.Panel{Title: panels[i], Keys: []string{panels[i+1]}})
	}
	return out
}

func nabDecay(halfLife float64) *NabDecay {
	return &NabDecay{Form: "nab_decay", DecayRate1: math.Log(2) / halfLife, DecayTime1: 250, DecayRate2: 0.001}
}

func vaccinate(vaccine string, sub *AgeSubtarget, days ...int) Intervention {
	return Intervention{Label: vaccine, Vaccinate: &Vaccinate{Days: days, Vaccine: vaccine, Subtarget: sub}}
}

// Battery returns the scripted cases in run order.
func Battery() []Case {
	b1351At100 := Strain{Name: "b1351", Days: []int{100}, NImports: 20}
	b1351At10 := Strain{Name: "b1351", Days: []int{10}, NImports: 20}
	p1 := Strain{Name: "p1", Days: []int{100}, NImports: 100}
	pfizerStaged := vaccinate("pfizer", StagedByAge(0.05, 20, 40, 60, 80), 20, 40, 60, 80)
	jnj := vaccinate("j&j", StagedByAge(0.01, 60, 150, 200, 220), 60, 150, 200, 220)
	waning := basePars.Merge(SimPars{UseWaning: boolPtr(true)})

	reinfections := toPlot(
		"New infections", "new_infections",
		"Cumulative infections", "cum_infections",
		"New reinfections", "new_reinfections",
	)

	return []Case{
		{
			Name:    "simple",
			Heading: "Run the simplest possible sims",
			Kind:    KindSims,
			Sims:    []SimPars{basePars, basePars.Merge(SimPars{NDays: 300, UseWaning: boolPtr(true)})},
		},
		{
			Name:    "varying_immunity",
			Heading: "Test varying properties of immunity",
			Kind:    KindScenarios,
			Scens: &Scenarios{
				Base:     waning.Merge(SimPars{NDays: 400}),
				Metapars: Metapars{NRuns: 3},
				Scenarios: []Scenario{
					{Key: "baseline", Name: "Default Immunity (decay at log(2)/90)", Pars: SimPars{NabDecay: nabDecay(90)}},
					{Key: "faster_immunity", Name: "Faster Immunity (decay at log(2)/30)", Pars: SimPars{NabDecay: nabDecay(30)}},
					{Key: "baseline_b1351", Name: "Default Immunity (decay at log(2)/90), B1351 on day 100", Pars: SimPars{NabDecay: nabDecay(90), Strains: []Strain{b1351At100}}},
					{Key: "faster_immunity_b1351", Name: "Faster Immunity (decay at log(2)/30), B1351 on day 100", Pars: SimPars{NabDecay: nabDecay(30), Strains: []Strain{b1351At100}}},
				},
			},
			ToPlot: toPlot(
				"New infections", "new_infections",
				"New re-infections", "new_reinfections",
				"Population Nabs", "pop_nabs",
				"Population Immunity", "pop_protection",
			),
			FigPath: "results/test_basic_immunity.png",
		},
		{
			Name:    "import1strain",
			Heading: "Test introducing a new strain partway through a sim",
			Kind:    KindSims,
			Sims: []SimPars{waning.Merge(SimPars{
				Beta:      0.01,
				Strains:   []Strain{{Pars: &StrainPars{RelBeta: 1.5}, Label: "Strain 2: 1.5x more transmissible", Days: []int{1}, NImports: 20}},
				Analyzers: []Analyzer{{Snapshot: []int{30, 60}}},
			})},
		},
		{
			Name:    "import2strains",
			Heading: "Test introducing 2 new strains partway through a sim",
			Kind:    KindSims,
			Sims: []SimPars{waning.Merge(SimPars{
				Label: "With imported infections",
				Strains: []Strain{
					{Name: "b117", Days: []int{1}, NImports: 20},
					{Name: "sa variant", Days: []int{2}, NImports: 20},
				},
			})},
		},
		{
			Name:    "importstrain_longerdur",
			Heading: "Test introducing a new strain with longer duration partway through a sim",
			Kind:    KindSims,
			Sims: []SimPars{waning.Merge(SimPars{
				Label: "With imported infections",
				NDays: 120,
				Strains: []Strain{{
					Pars:     &StrainPars{RelBeta: 1.5, Dur: map[string]Dist{"exp2inf": {Dist: "lognormal_int", Par1: 6.0, Par2: 2.0}}},
					Label:    "Custom strain",
					Days:     []int{10},
					NImports: 30,
				}},
			})},
		},
		{
			Name:    "import2strains_changebeta",
			Heading: "Test introducing 2 new strains partway through a sim, with a change_beta intervention",
			Kind:    KindSims,
			Sims: []SimPars{waning.Merge(SimPars{
				Label:         "With imported infections",
				Interventions: []Intervention{{Label: "change_beta", ChangeBeta: &ChangeBeta{Days: []int{5, 20, 40}, Changes: []float64{0.8, 0.7, 0.6}}}},
				Strains: []Strain{
					{Pars: &StrainPars{RelBeta: 1.5, RelSevereProb: 1.3}, Days: []int{10}, NImports: 20},
					{Pars: &StrainPars{RelBeta: 2, RelSympProb: 1.6}, Days: []int{30}, NImports: 20},
				},
			})},
		},
		{
			Name:    "vaccine_1strain",
			Heading: "Test vaccination with a single strain",
			Kind:    KindSims,
			Sims: []SimPars{waning.Merge(SimPars{
				Beta:          0.015,
				NDays:         120,
				Interventions: []Intervention{vaccinate("pfizer", nil, 20)},
			})},
			ToPlot:  reinfections,
			FigPath: "results/test_reinfection.png",
		},
		{
			Name:    "synthpops",
			Heading: "Test staged vaccination of a synthetic population",
			Kind:    KindSims,
			Sims: []SimPars{waning.Merge(SimPars{
				PopSize:        5000,
				PopType:        "synthpops",
				WithFacilities: true,
				LayerMapping:   map[string]string{"LTCF": "f"},
				Interventions:  []Intervention{pfizerStaged},
			})},
		},
		{
			Name:    "vaccine_1strain_scen",
			Heading: "Run a basic sim with 1 strain, pfizer vaccine",
			Kind:    KindScenarios,
			Scens: &Scenarios{
				Base:     waning,
				Metapars: Metapars{NRuns: 3},
				Scenarios: []Scenario{
					{Key: "baseline", Name: "No Vaccine"},
					{Key: "pfizer", Name: "Pfizer starting on day 20", Pars: SimPars{Interventions: []Intervention{pfizerStaged}}},
				},
			},
			ToPlot:  reinfections,
			FigPath: "results/test_basic_vaccination.png",
		},
		{
			Name:    "vaccine_2strains_scen",
			Heading: "Run a basic sim with b117 strain on day 10, pfizer vaccine day 20",
			Kind:    KindScenarios,
			Scens: &Scenarios{
				Base:     waning,
				Metapars: Metapars{NRuns: 3},
				Scenarios: []Scenario{
					{Key: "baseline", Name: "B1351 on day 10, No Vaccine", Pars: SimPars{Strains: []Strain{b1351At10}}},
					{Key: "b1351", Name: "B1351 on day 10, J&J starting on day 60", Pars: SimPars{Interventions: []Intervention{jnj}, Strains: []Strain{b1351At10}}},
					{Key: "p1", Name: "B1351 on day 10, J&J starting on day 60, p1 on day 100", Pars: SimPars{Interventions: []Intervention{jnj}, Strains: []Strain{b1351At10, p1}}},
				},
			},
			ToPlot:  reinfections,
			FigPath: "results/test_vaccine_b1351.png",
		},
		{
			Name:    "strainduration_scen",
			Heading: "Run a sim with 2 strains, one of which has a much longer period before symptoms develop",
			Kind:    KindScenarios,
			Scens: &Scenarios{
				Base: waning.Merge(SimPars{
					Beta:          0.015,
					NDays:         120,
					Interventions: []Intervention{{Label: "test_prob", TestProb: &TestProb{SympProb: 0.2}}},
				}),
				Metapars: Metapars{NRuns: 1},
				Scenarios: []Scenario{
					{Key: "baseline", Name: "1 day to symptoms"},
					{Key: "slowsymp", Name: "10 days to symptoms", Pars: SimPars{Strains: []Strain{{
						Pars:     &StrainPars{Dur: map[string]Dist{"inf2sym": {Dist: "lognormal_int", Par1: 10.0, Par2: 0.9}}},
						Label:    "10 days til symptoms",
						Days:     []int{10},
						NImports: 30,
					}}}},
				},
			},
			ToPlot: toPlot(
				"New infections", "new_infections",
				"Cumulative infections", "cum_infections",
				"New diagnoses", "new_diagnoses",
				"Cumulative diagnoses", "cum_diagnoses",
			),
			FigPath: "results/test_strainduration.png",
		},
		{
			Name:    "waning_vs_not",
			Heading: "Testing waning",
			Kind:    KindScenarios,
			Scens: &Scenarios{
				Base:     basePars.Merge(SimPars{PopScale: 50, NDays: 150, UseWaning: boolPtr(false)}),
				Metapars: Metapars{NRuns: 3},
				Scenarios: []Scenario{
					{Key: "no_waning", Name: "No waning"},
					{Key: "waning", Name: "Waning", Pars: SimPars{UseWaning: boolPtr(true)}},
				},
			},
			ToPlot: toPlot(
				"New infections", "new_infections",
				"New reinfections", "new_reinfections",
				"Cumulative infections", "cum_infections",
				"Cumulative reinfections", "cum_reinfections",
			),
			FigPath: "results/test_waning_vs_not.png",
		},
		{
			Name:    "msim",
			Heading: "Testing multisim",
			Kind:    KindMultiSim,
			Sims:    []SimPars{waning.Merge(SimPars{Strains: []Strain{{Name: "b117", Days: []int{0}}}})},
			NRuns:   2,
			ToPlot: toPlot(
				"Total infections", "cum_infections",
				"New infections per day", "new_infections",
				"New Re-infections per day", "new_reinfections",
			),
			Style: func(o *plotting.Options) {
				o.Legend.Loc = "upper left"
				o.Axis.HSpace = 0.4
				o.Interval = 35
			},
		},
	}
}

// Lookup finds a battery case by name, ignoring case.
func Lookup(name string) (Case, bool) {
	for _, c := range Battery() {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Case{}, false
}

// RunCase runs one case, records every run and, when asked, plots it. Unlabelled sims
// are named after the case.
func RunCase(ctx context.Context, eng Engine, c Case, opts RunOptions) (*Outcome, error) {
	results.Infof("[battery] %s: %s", c.Name, c.Heading)
	defer results.TimeTrack(time.Now(), "case "+c.Name)
	out := &Outcome{Case: c.Name, RunID: uuid.NewString()}

	switch c.Kind {
	case KindSims:
		if len(c.Sims) == 0 {
			return nil, fmt.Errorf("case %s: no sims configured", c.Name)
		}
		for i, p := range c.Sims {
			if p.Label == "" {
				p.Label = fmt.Sprintf("%s_%d", c.Name, i+1)
			}
			runs, err := RunMulti(ctx, eng, p, 1, 1)
			if err != nil {
				return nil, fmt.Errorf("case %s sim %d: %w", c.Name, i, err)
			}
			out.Sims = append(out.Sims, runs[0])
			if err := opts.record(results.NewEnvelope(runs[0], out.RunID, c.Name, runs[0].Seed)); err != nil {
				return nil, err
			}
		}
	case KindMultiSim:
		if len(c.Sims) != 1 {
			return nil, fmt.Errorf("case %s: multisim needs exactly one configuration, have %d", c.Name, len(c.Sims))
		}
		n := c.NRuns
		if opts.NRuns > 0 {
			n = opts.NRuns
		}
		p := c.Sims[0]
		if p.Label == "" {
			p.Label = c.Name
		}
		runs, err := RunMulti(ctx, eng, p, n, opts.MaxParallel)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", c.Name, err)
		}
		out.Sims = runs
		for _, r := range runs {
			if err := opts.record(results.NewEnvelope(r, out.RunID, c.Name, r.Seed)); err != nil {
				return nil, err
			}
		}
		if out.Reduced, err = analysis.Reduce(runs, analysis.DefaultQuantiles); err != nil {
			return nil, fmt.Errorf("case %s: %w", c.Name, err)
		}
	case KindScenarios:
		if c.Scens == nil {
			return nil, fmt.Errorf("case %s: no scenarios configured", c.Name)
		}
		sc := *c.Scens
		if sc.Label == "" {
			sc.Label = c.Name
		}
		if opts.NRuns > 0 {
			sc.Metapars.NRuns = opts.NRuns
		}
		if opts.MaxParallel > 0 {
			sc.Metapars.MaxParallel = opts.MaxParallel
		}
		res, err := sc.Run(ctx, eng)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", c.Name, err)
		}
		out.Scenarios = res
		for _, key := range res.ScenarioKeys {
			for _, sim := range res.Sims[key] {
				if err := opts.record(results.NewEnvelope(sim, out.RunID, key, sim.Seed)); err != nil {
					return nil, err
				}
			}
		}
		if err := opts.record(results.NewScenariosEnvelope(res, out.RunID)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("case %s: unknown kind %v", c.Name, c.Kind)
	}

	if !opts.DoPlot {
		return out, nil
	}
	figs, err := plotCase(c, out, opts)
	if err != nil {
		return out, fmt.Errorf("case %s: plot: %w", c.Name, err)
	}
	out.Figures = figs
	return out, nil
}

func (o RunOptions) record(env *results.Envelope) error {
	if o.Writer != nil {
		o.Writer.Write(env)
	}
	if o.Record != nil {
		if err := o.Record(env); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}
	return nil
}

func (c Case) figPath(outDir string) string {
	p := c.FigPath
	if p == "" {
		p = filepath.Join("results", c.Name+".png")
	}
	if outDir != "" {
		p = filepath.Join(outDir, filepath.Base(p))
	}
	return p
}

func (o RunOptions) plotOptions(c Case, figPath string) *plotting.Options {
	po := plotting.DefaultOptions()
	if o.Plot != nil {
		po = *o.Plot
	}
	po.ToPlot = c.ToPlot
	po.DoSave = o.DoSave
	po.DoShow = o.DoShow
	po.Shower = o.Shower
	po.FigPath = ""
	if o.DoSave {
		po.FigPath = figPath
	}
	if c.Style != nil {
		c.Style(&po)
	}
	return &po
}

func plotCase(c Case, out *Outcome, opts RunOptions) ([]*plotting.Figure, error) {
	path := c.figPath(opts.OutDir)
	switch {
	case out.Scenarios != nil:
		return plotting.PlotScens(out.Scenarios, opts.plotOptions(c, path))
	case out.Reduced != nil:
		return plotting.PlotSim(out.Reduced, opts.plotOptions(c, path))
	}
	var figs []*plotting.Figure
	for i, sim := range out.Sims {
		p := path
		if len(out.Sims) > 1 {
			p = plotting.NumberedPath(p, i+1)
		}
		fs, err := plotting.PlotSim(sim, opts.plotOptions(c, p))
		if err != nil {
			return nil, err
		}
		figs = append(figs, fs...)
	}
	return figs, nil
}
