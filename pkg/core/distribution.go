package core

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
)

// Formula maps element symbols to atom counts.
type Formula map[string]int

// Elements returns the symbols with a non-zero count in Hill order: C and H
// first when carbon is present, then alphabetical.
func (f Formula) Elements() []string {
	symbols := make([]string, 0, len(f))
	for s, n := range f {
		if n != 0 {
			symbols = append(symbols, s)
		}
	}
	hasCarbon := f["C"] > 0
	rank := func(s string) int {
		if hasCarbon {
			switch s {
			case "C":
				return 0
			case "H":
				return 1
			}
		}
		return 2
	}
	sort.Slice(symbols, func(i, j int) bool {
		ri, rj := rank(symbols[i]), rank(symbols[j])
		if ri != rj {
			return ri < rj
		}
		return symbols[i] < symbols[j]
	})
	return symbols
}

// Atoms returns the total number of atoms.
func (f Formula) Atoms() int {
	total := 0
	for _, n := range f {
		total += n
	}
	return total
}

// Validate rejects negative counts and formulas without atoms.
func (f Formula) Validate() error {
	for _, s := range f.Elements() {
		if f[s] < 0 {
			return &InvalidFormulaError{Symbol: s, Count: f[s], Reason: "negative atom count"}
		}
	}
	if f.Atoms() == 0 {
		return &InvalidFormulaError{Reason: "no atoms"}
	}
	return nil
}

// Options controls a distribution computation.
type Options struct {
	MinimumIsotopeAbundance float64 // per-element isotope filter
	MinimumFormulaAbundance float64 // candidate pruning threshold
	Charge                  int     // net charge; 0 reports neutral masses
	Monoisotopic            bool    // use only the most abundant isotope of each element
	Decimals                int     // consolidation precision
	SortByAbundance         bool    // descending abundance instead of ascending mass
}

// DefaultOptions returns the standard thresholds for a neutral molecule.
func DefaultOptions() Options {
	return Options{
		MinimumIsotopeAbundance: 1e-6,
		MinimumFormulaAbundance: 1e-6,
		Charge:                  0,
		Decimals:                10,
		SortByAbundance:         true,
	}
}

// MassDistribution is the computed isotope pattern: masses (or m/z when
// Charge is non-zero) paired with relative abundances.
type MassDistribution struct {
	Masses     []float64
	Abundances []float64
	Charge     int
}

// Peak is one mass/abundance pair of a distribution.
type Peak struct {
	Mass      float64
	Abundance float64
}

// Len returns the number of peaks.
func (d *MassDistribution) Len() int {
	return len(d.Masses)
}

// Peaks returns the distribution as a slice of pairs.
func (d *MassDistribution) Peaks() []Peak {
	peaks := make([]Peak, d.Len())
	for i := range d.Masses {
		peaks[i] = Peak{Mass: d.Masses[i], Abundance: d.Abundances[i]}
	}
	return peaks
}

// BasePeak returns the most abundant peak. ok is false for an empty
// distribution.
func (d *MassDistribution) BasePeak() (peak Peak, ok bool) {
	for i := range d.Masses {
		if !ok || d.Abundances[i] > peak.Abundance {
			peak = Peak{Mass: d.Masses[i], Abundance: d.Abundances[i]}
			ok = true
		}
	}
	return peak, ok
}

// TotalAbundance returns the sum of all abundances.
func (d *MassDistribution) TotalAbundance() float64 {
	total := 0.0
	for _, a := range d.Abundances {
		total += a
	}
	return total
}

// Validate checks that the distribution is well formed.
func (d *MassDistribution) Validate() error {
	var errs []string

	if len(d.Masses) != len(d.Abundances) {
		errs = append(errs, fmt.Sprintf("%d masses but %d abundances", len(d.Masses), len(d.Abundances)))
	}
	for i := 0; i < len(d.Masses) && i < len(d.Abundances); i++ {
		if math.IsNaN(d.Masses[i]) || math.IsInf(d.Masses[i], 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid mass", i))
		} else if d.Masses[i] <= 0 {
			errs = append(errs, fmt.Sprintf("peak %d mass must be positive", i))
		}
		if math.IsNaN(d.Abundances[i]) || math.IsInf(d.Abundances[i], 0) {
			errs = append(errs, fmt.Sprintf("peak %d has invalid abundance", i))
		} else if d.Abundances[i] < 0 {
			errs = append(errs, fmt.Sprintf("peak %d abundance must be non-negative", i))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "MassDistribution",
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// ArePeaksSorted checks if peaks are sorted by mass in ascending order.
func (d *MassDistribution) ArePeaksSorted() bool {
	for i := 1; i < len(d.Masses); i++ {
		if d.Masses[i] < d.Masses[i-1] {
			return false
		}
	}
	return true
}

// SortByMass sorts peaks by ascending mass.
func (d *MassDistribution) SortByMass() {
	sortPairs(d.Masses, d.Abundances, func(mi, _, mj, _ float64) bool {
		return mi < mj
	})
}

// SortByAbundance sorts peaks by descending abundance, ties by ascending mass.
func (d *MassDistribution) SortByAbundance() {
	sortPairs(d.Masses, d.Abundances, func(mi, ai, mj, aj float64) bool {
		if ai != aj {
			return ai > aj
		}
		return mi < mj
	})
}

// Calculator computes distributions against one isotope table. It holds no
// per-call state and is safe for concurrent use.
type Calculator struct {
	table  *IsotopeTable
	logger *slog.Logger
}

// NewCalculator creates a calculator. A nil table selects the bundled NIST
// table and a nil logger selects slog.Default().
func NewCalculator(table *IsotopeTable, logger *slog.Logger) *Calculator {
	if table == nil {
		table = DefaultTable()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{table: table, logger: logger}
}

// Table returns the isotope table the calculator reads from.
func (c *Calculator) Table() *IsotopeTable {
	return c.table
}

// Compute returns the isotope pattern of formula.
//
// A negative count fails with *InvalidFormulaError before any work is done,
// and an element missing from the table fails with *UnknownElementError.
// When the thresholds leave nothing to report the empty distribution is
// returned together with an error for which IsEmptyResult is true.
func (c *Calculator) Compute(formula Formula, opts Options) (*MassDistribution, error) {
	empty := &MassDistribution{Masses: []float64{}, Abundances: []float64{}, Charge: opts.Charge}

	if err := formula.Validate(); err != nil {
		return nil, err
	}

	var vectors []IsotopeVector
	for _, symbol := range formula.Elements() {
		v, err := c.table.IsotopesOf(symbol, opts.MinimumIsotopeAbundance, opts.Monoisotopic)
		if err != nil {
			if IsEmptyResult(err) {
				return empty, err
			}
			return nil, err
		}
		for i := 0; i < formula[symbol]; i++ {
			vectors = append(vectors, v)
		}
	}

	candidates := Expand(vectors, opts.MinimumFormulaAbundance)
	c.logger.Debug("expanded isotope combinations",
		"atoms", len(vectors),
		"candidates", len(candidates),
		"minimum_formula_abundance", opts.MinimumFormulaAbundance)

	if len(candidates) == 0 {
		return empty, fmt.Errorf("all isotope combinations below abundance %g: %w",
			opts.MinimumFormulaAbundance, ErrEmptyDistribution)
	}

	masses := AdjustForCharge(candidates.Masses(), opts.Charge)
	masses, abundances, err := Consolidate(masses, candidates.Abundances(), opts.Decimals, opts.SortByAbundance)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("consolidated distribution", "peaks", len(masses))

	return &MassDistribution{Masses: masses, Abundances: abundances, Charge: opts.Charge}, nil
}

// ComputeDistribution computes the isotope pattern of formula with the
// bundled isotope table.
func ComputeDistribution(formula Formula, opts Options) (*MassDistribution, error) {
	return NewCalculator(nil, nil).Compute(formula, opts)
}
