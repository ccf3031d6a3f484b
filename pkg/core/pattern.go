package core

import "fmt"

// Pattern is a computed isotope pattern with the metadata writers need.
type Pattern struct {
	Name             string
	Formula          Formula // ion formula after adduct arithmetic
	Adduct           string
	Options          Options
	Distribution     *MassDistribution
	MonoisotopicMass float64 // neutral mass of the ion formula
}

// NewPattern computes the distribution of formula and its monoisotopic
// neutral mass. An empty distribution fails with an error matching
// ErrEmptyDistribution so batch callers can skip it.
func (c *Calculator) NewPattern(name string, formula Formula, adduct string, opts Options) (*Pattern, error) {
	dist, err := c.Compute(formula, opts)
	if err != nil {
		return nil, err
	}

	monoOpts := opts
	monoOpts.Monoisotopic = true
	monoOpts.Charge = 0
	monoOpts.MinimumFormulaAbundance = 0
	mono, err := c.Compute(formula, monoOpts)
	if err != nil {
		return nil, fmt.Errorf("monoisotopic mass of %s: %w", name, err)
	}

	return &Pattern{
		Name:             name,
		Formula:          formula,
		Adduct:           adduct,
		Options:          opts,
		Distribution:     dist,
		MonoisotopicMass: mono.Masses[0],
	}, nil
}

// Polarity returns "+", "-" or "0" from the charge sign.
func (p *Pattern) Polarity() string {
	switch {
	case p.Distribution.Charge > 0:
		return "+"
	case p.Distribution.Charge < 0:
		return "-"
	default:
		return "0"
	}
}
