package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/iafilius/EpiViewer/src/results"
)

// Comparison is a key-by-sim table of final values.
type Comparison struct {
	Keys   []string    `json:"keys"`
	Labels []string    `json:"labels"`
	Values [][]float64 `json:"values"` // Values[key][sim]
}

// Value returns the entry for key and sim label, or NaN.
func (c *Comparison) Value(key, label string) float64 {
	ki, li := indexOf(c.Keys, key), indexOf(c.Labels, label)
	if ki < 0 || li < 0 {
		return math.NaN()
	}
	return c.Values[ki][li]
}

// Column returns the values of one sim in key order.
func (c *Comparison) Column(j int) []float64 {
	col := make([]float64, len(c.Keys))
	for i := range c.Keys {
		col[i] = c.Values[i][j]
	}
	return col
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// CompareTable takes the last value of every result key from each sim. Keys are the
// sorted union over all sims; a sim lacking a key gets NaN. Unlabelled sims are named
// "Sim <i>".
func CompareTable(sims []*results.Sim) *Comparison {
	keySet := map[string]struct{}{}
	for _, s := range sims {
		for k := range s.Results {
			keySet[k] = struct{}{}
		}
	}
	c := &Comparison{Keys: make([]string, 0, len(keySet))}
	for k := range keySet {
		c.Keys = append(c.Keys, k)
	}
	sort.Strings(c.Keys)
	for i, s := range sims {
		label := s.Label
		if label == "" {
			label = fmt.Sprintf("Sim %d", i)
		}
		c.Labels = append(c.Labels, label)
	}
	c.Values = make([][]float64, len(c.Keys))
	for i, k := range c.Keys {
		row := make([]float64, len(sims))
		for j, s := range sims {
			row[j] = math.NaN()
			if r, ok := s.Results[k]; ok && r != nil && len(r.Values) > 0 {
				row[j] = r.Values[len(r.Values)-1]
			}
		}
		c.Values[i] = row
	}
	return c
}
