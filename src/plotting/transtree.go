package plotting

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/iafilius/EpiViewer/src/results"
)

// ErrNoDetailedTransTree is returned when a transmission tree plot is requested before
// the detailed tree has been built.
var ErrNoDetailedTransTree = errors.New("please build the detailed transmission tree (make_detailed_transtree) before plotting")

// transRow is one non-seed transmission, classified for the tree panels.
type transRow struct {
	day  int
	cats map[string]string
}

// Stage and severity of the infecting person.
func sourceStage(s results.PersonState) string {
	switch {
	case s.IsPresymp:
		return "Presymptomatic"
	case s.IsAsymp:
		return "Asymptomatic"
	}
	return "Symptomatic"
}

func sourceSeverity(s results.PersonState) string {
	switch {
	case s.IsCritical:
		return "Critical"
	case s.IsSevere:
		return "Severe"
	}
	return "Mild"
}

func boolLabel(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// transTreePanels are the grouping keys and titles, in panel order.
var transTreePanels = []struct{ key, title string }{
	{"layer", "Layer"},
	{"Stage", "Source stage"},
	{"s_diag", "Source diagnosed"},
	{"s_quar", "Source quarantined"},
	{"t_quar", "Target quarantined"},
	{"Severity", "Symptomatic source severity"},
}

func transRows(tt *results.TransTree) []transRow {
	var rows []transRow
	for _, e := range tt.Detailed {
		if e == nil || e.Source == nil || e.Layer == "seed_infection" {
			continue
		}
		rows = append(rows, transRow{day: e.Date, cats: map[string]string{
			"layer":    e.Layer,
			"Stage":    sourceStage(e.S),
			"s_diag":   boolLabel(e.S.IsDiagnosed),
			"s_quar":   boolLabel(e.S.IsQuarantined),
			"t_quar":   boolLabel(e.T.IsQuarantined),
			"Severity": sourceSeverity(e.S),
		}})
	}
	return rows
}

// groupCounts counts rows per day and category value. Days are the sorted days with
// any transmission; a category without transmissions on a day gets NaN there.
func groupCounts(rows []transRow, key string) (days []float64, cats []string, counts map[string][]float64) {
	daySet := map[int]struct{}{}
	catSet := map[string]struct{}{}
	for _, r := range rows {
		daySet[r.day] = struct{}{}
		catSet[r.cats[key]] = struct{}{}
	}
	dayList := make([]int, 0, len(daySet))
	for d := range daySet {
		dayList = append(dayList, d)
	}
	sort.Ints(dayList)
	pos := make(map[int]int, len(dayList))
	for i, d := range dayList {
		days = append(days, float64(d))
		pos[d] = i
	}
	for c := range catSet {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	counts = make(map[string][]float64, len(cats))
	for _, c := range cats {
		counts[c] = results.NaNs(len(days))
	}
	for _, r := range rows {
		s := counts[r.cats[key]]
		i := pos[r.day]
		if math.IsNaN(s[i]) {
			s[i] = 0
		}
		s[i]++
	}
	return days, cats, counts
}

// PlotTransTree draws per-day transmission counts split by layer, source stage,
// source and target quarantine, source diagnosis and source severity.
func PlotTransTree(tt *results.TransTree, opts *Options) (*Figure, error) {
	if tt == nil || tt.Detailed == nil {
		return nil, ErrNoDetailedTransTree
	}
	o := resolveOptions(opts)
	args := handleArgs(FigArgs{Width: 16, Height: 10}.merge(o.Fig), o.Plot, o.Scatter, o.Axis, o.Fill, o.Legend)
	l := createFigs(args, o.fontSize(), o.FontFamily, false, o.Figure)

	rows := transRows(tt)
	results.Debugf("[plotting] transmission tree: %d transmissions", len(rows))
	for i, p := range transTreePanels {
		ax := l.fig.AddSubplot(2, 3, i+1, fmt.Sprintf("ax%d", i+1))
		days, cats, counts := groupCounts(rows, p.key)
		for j, c := range cats {
			ax.Plot(Line{X: days, Y: counts[c], Label: c, Color: cycleColor(j), Width: 1.5, Alpha: 1})
		}
		ax.Title = p.title
		ax.ShowLegend = true
		ax.XInteger = true
	}
	if o.DoSave {
		if _, err := tidyUp(l, true, o.FigPath, false, nil, "transtree.png"); err != nil {
			return l.fig, err
		}
	}
	return l.fig, nil
}
