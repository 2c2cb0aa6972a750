package scenario

import (
	"errors"
	"fmt"
)

// ErrTimeNotInList is returned when a day precedes every threshold of a schedule.
var ErrTimeNotInList = errors.New("time not in list")

// AgeSubtarget is a staged vaccination schedule: from Days[i] onward people aged
// Age[i] or older are targeted with probability Prob[i].
type AgeSubtarget struct {
	Age  []float64 `json:"age" yaml:"age"`
	Prob []float64 `json:"prob" yaml:"prob"`
	Days []int     `json:"days" yaml:"days"`
}

// GetIndOfMinValue returns the index of the last entry in times that is <= t.
func GetIndOfMinValue(times []int, t int) (int, error) {
	ind := -1
	for i, v := range times {
		if t >= v {
			ind = i
		}
	}
	if ind < 0 {
		return 0, fmt.Errorf("%d is not within the list of times: %w", t, ErrTimeNotInList)
	}
	return ind, nil
}

// VaccinationSubtarget picks the people targeted on day t: everyone unvaccinated at or
// above the active threshold age. vals holds the matching probability for each index.
func VaccinationSubtarget(sub AgeSubtarget, t int, ages []float64, vaccinated []bool) (inds []int, vals []float64, err error) {
	ind, err := GetIndOfMinValue(sub.Days, t)
	if err != nil {
		return nil, nil, err
	}
	if ind >= len(sub.Age) || ind >= len(sub.Prob) {
		return nil, nil, fmt.Errorf("subtarget stage %d: have %d ages and %d probabilities", ind, len(sub.Age), len(sub.Prob))
	}
	age, prob := sub.Age[ind], sub.Prob[ind]
	for i, a := range ages {
		if a < age {
			continue
		}
		if i < len(vaccinated) && vaccinated[i] {
			continue
		}
		inds = append(inds, i)
		vals = append(vals, prob)
	}
	return inds, vals, nil
}

// StagedByAge builds the age-staged schedule used by the vaccination cases.
func StagedByAge(prob float64, days ...int) *AgeSubtarget {
	ages := []float64{75, 65, 50, 18}
	sub := &AgeSubtarget{Days: append([]int(nil), days...)}
	for i := range days {
		sub.Age = append(sub.Age, ages[min(i, len(ages)-1)])
		sub.Prob = append(sub.Prob, prob)
	}
	return sub
}
