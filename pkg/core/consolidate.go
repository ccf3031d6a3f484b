package core

import (
	"fmt"
	"sort"
)

// Consolidate merges masses that are equal after rounding to decimals
// places. Each group reports the mean of its raw masses and the sum of its
// abundances. Input is sorted by raw mass before grouping so the merge does
// not depend on the order in which candidates were generated.
//
// The result is ordered by descending abundance (ties by ascending mass)
// when sortByAbundance is set, otherwise by ascending mass. The inputs are
// left untouched. Empty input returns ErrEmptyDistribution.
func Consolidate(masses, abundances []float64, decimals int, sortByAbundance bool) ([]float64, []float64, error) {
	if len(masses) != len(abundances) {
		return nil, nil, &ValidationError{
			Field:   "Consolidate",
			Message: fmt.Sprintf("got %d masses and %d abundances", len(masses), len(abundances)),
		}
	}
	if len(masses) == 0 {
		return nil, nil, ErrEmptyDistribution
	}

	order := make([]int, len(masses))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return masses[order[i]] < masses[order[j]]
	})

	var outMasses, outAbundances []float64
	var sum, total float64
	var count int
	key := RoundFloat(masses[order[0]], decimals)

	flush := func() {
		outMasses = append(outMasses, sum/float64(count))
		outAbundances = append(outAbundances, total)
	}

	for _, idx := range order {
		k := RoundFloat(masses[idx], decimals)
		if count > 0 && k != key {
			flush()
			sum, total, count = 0, 0, 0
		}
		key = k
		sum += masses[idx]
		total += abundances[idx]
		count++
	}
	flush()

	if sortByAbundance {
		sortPairs(outMasses, outAbundances, func(mi, ai, mj, aj float64) bool {
			if ai != aj {
				return ai > aj
			}
			return mi < mj
		})
	}

	return outMasses, outAbundances, nil
}

// sortPairs sorts two parallel slices in place by less.
func sortPairs(masses, abundances []float64, less func(mi, ai, mj, aj float64) bool) {
	sort.Stable(pairSorter{masses: masses, abundances: abundances, less: less})
}

type pairSorter struct {
	masses, abundances []float64
	less               func(mi, ai, mj, aj float64) bool
}

func (p pairSorter) Len() int { return len(p.masses) }

func (p pairSorter) Less(i, j int) bool {
	return p.less(p.masses[i], p.abundances[i], p.masses[j], p.abundances[j])
}

func (p pairSorter) Swap(i, j int) {
	p.masses[i], p.masses[j] = p.masses[j], p.masses[i]
	p.abundances[i], p.abundances[j] = p.abundances[j], p.abundances[i]
}
