package plotting

import (
	"errors"
	"fmt"
)

// ErrUnsupportedWhich is returned when a default plot set is requested for an unknown category.
var ErrUnsupportedWhich = errors.New("unsupported plot category")

// Panel is one subplot: a title and the result keys drawn in it.
type Panel struct {
	Title string   `yaml:"title" json:"title"`
	Keys  []string `yaml:"keys" json:"keys"`
}

// ToPlot is an ordered title -> keys mapping.
type ToPlot []Panel

// Clone returns a deep copy.
func (tp ToPlot) Clone() ToPlot {
	if tp == nil {
		return nil
	}
	out := make(ToPlot, len(tp))
	for i, p := range tp {
		out[i] = Panel{Title: p.Title, Keys: append([]string(nil), p.Keys...)}
	}
	return out
}

// Titles lists the panel titles in order.
func (tp ToPlot) Titles() []string {
	out := make([]string, len(tp))
	for i, p := range tp {
		out[i] = p.Title
	}
	return out
}

// SimPlots is the default panel set for a single simulation.
func SimPlots() ToPlot {
	return ToPlot{
		{Title: "Total counts", Keys: []string{"cum_infections", "n_infectious", "cum_diagnoses"}},
		{Title: "Daily counts", Keys: []string{"new_infections", "new_diagnoses"}},
		{Title: "Health outcomes", Keys: []string{"cum_severe", "cum_critical", "cum_deaths"}},
	}
}

// ScenPlots is the default panel set for scenarios.
func ScenPlots() ToPlot {
	return ToPlot{
		{Title: "Cumulative infections", Keys: []string{"cum_infections"}},
		{Title: "New infections per day", Keys: []string{"new_infections"}},
		{Title: "Cumulative deaths", Keys: []string{"cum_deaths"}},
	}
}

// handleToPlot resolves the panels to draw and the number of subplot rows.
func handleToPlot(which string, toPlot ToPlot, nCols int) (ToPlot, int, error) {
	if toPlot == nil {
		switch which {
		case "sim":
			toPlot = SimPlots()
		case "scens":
			toPlot = ScenPlots()
		default:
			return nil, 0, fmt.Errorf("%w: \"which\" must be \"sim\" or \"scens\", not %q", ErrUnsupportedWhich, which)
		}
	}
	if nCols <= 0 {
		nCols = 1
	}
	out := toPlot.Clone()
	nRows := (len(out) + nCols - 1) / nCols
	return out, nRows, nil
}
