// Package filter provides post-processing of computed isotope patterns
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ChrisMcGann/masscalc/pkg/core"
)

// Normalisation modes
const (
	NormalizeNone = ""
	NormalizeMax  = "max" // base peak scaled to 100
	NormalizeSum  = "sum" // abundances scaled to sum to 1
)

// Config holds filtering configuration
type Config struct {
	TopN            int     // Keep only top N most abundant peaks (0 = no limit)
	IntensityCutoff float64 // Keep only peaks above this % of base peak (0 = no cutoff)
	MinMass         float64 // Lower mass (or m/z) bound, inclusive (0 = none)
	MaxMass         float64 // Upper mass (or m/z) bound, inclusive (0 = none)
	Normalize       string  // "", "max" or "sum"
}

// Validate rejects nonsensical settings.
func (c *Config) Validate() error {
	var errs []string
	if c.TopN < 0 {
		errs = append(errs, "top-n must be non-negative")
	}
	if c.IntensityCutoff < 0 || c.IntensityCutoff > 100 {
		errs = append(errs, "cutoff must be between 0 and 100")
	}
	if c.MaxMass > 0 && c.MinMass > c.MaxMass {
		errs = append(errs, "minimum mass exceeds maximum mass")
	}
	switch strings.ToLower(c.Normalize) {
	case NormalizeNone, NormalizeMax, NormalizeSum:
	default:
		errs = append(errs, fmt.Sprintf("unknown normalisation %q", c.Normalize))
	}

	if len(errs) > 0 {
		return &core.ValidationError{Field: "filter.Config", Message: strings.Join(errs, "; ")}
	}
	return nil
}

// Apply applies all configured filters to a distribution. The relative
// order of surviving peaks is preserved. Cutoff and normalisation are
// relative to the peaks left by the mass window.
func (c *Config) Apply(dist *core.MassDistribution) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.MinMass > 0 || c.MaxMass > 0 {
		c.filterByMass(dist)
	}

	if c.IntensityCutoff > 0 {
		c.filterByIntensity(dist)
	}

	if c.TopN > 0 {
		c.filterTopN(dist)
	}

	switch strings.ToLower(c.Normalize) {
	case NormalizeMax:
		if base, ok := dist.BasePeak(); ok && base.Abundance > 0 {
			scale(dist, 100/base.Abundance)
		}
	case NormalizeSum:
		if total := dist.TotalAbundance(); total > 0 {
			scale(dist, 1/total)
		}
	}

	return nil
}

// keep retains the peaks for which pred is true, in order
func keep(dist *core.MassDistribution, pred func(i int) bool) {
	masses := dist.Masses[:0:0]
	abundances := dist.Abundances[:0:0]
	for i := range dist.Masses {
		if pred(i) {
			masses = append(masses, dist.Masses[i])
			abundances = append(abundances, dist.Abundances[i])
		}
	}
	dist.Masses = masses
	dist.Abundances = abundances
}

// filterByMass removes peaks outside the mass window
func (c *Config) filterByMass(dist *core.MassDistribution) {
	keep(dist, func(i int) bool {
		m := dist.Masses[i]
		if c.MinMass > 0 && m < c.MinMass {
			return false
		}
		if c.MaxMass > 0 && m > c.MaxMass {
			return false
		}
		return true
	})
}

// filterByIntensity removes peaks below the intensity cutoff percentage
func (c *Config) filterByIntensity(dist *core.MassDistribution) {
	base, ok := dist.BasePeak()
	if !ok {
		return
	}

	threshold := (c.IntensityCutoff / 100.0) * base.Abundance
	keep(dist, func(i int) bool {
		return dist.Abundances[i] >= threshold
	})
}

// filterTopN keeps only the N most abundant peaks
func (c *Config) filterTopN(dist *core.MassDistribution) {
	if dist.Len() <= c.TopN {
		return
	}

	idx := make([]int, dist.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return dist.Abundances[idx[i]] > dist.Abundances[idx[j]]
	})

	selected := make(map[int]bool, c.TopN)
	for _, i := range idx[:c.TopN] {
		selected[i] = true
	}
	keep(dist, func(i int) bool {
		return selected[i]
	})
}

func scale(dist *core.MassDistribution, factor float64) {
	for i := range dist.Abundances {
		dist.Abundances[i] *= factor
	}
}
