package core

import (
	"errors"
	"fmt"
)

// ErrEmptyDistribution is returned when a computation or consolidation has
// no peaks to report. It marks a valid but empty result, not a failure of
// the inputs.
var ErrEmptyDistribution = errors.New("empty mass distribution")

// UnknownElementError reports a symbol that is absent from the isotope table.
type UnknownElementError struct {
	Symbol string
}

func (e *UnknownElementError) Error() string {
	return fmt.Sprintf("unknown element %q", e.Symbol)
}

// InvalidFormulaError reports a formula that cannot be expanded, such as one
// holding a negative atom count after adduct arithmetic.
type InvalidFormulaError struct {
	Symbol string
	Count  int
	Reason string
}

func (e *InvalidFormulaError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("invalid formula: %s", e.Reason)
	}
	return fmt.Sprintf("invalid formula: %s count %d: %s", e.Symbol, e.Count, e.Reason)
}

// EmptyIsotopeSetError reports that the abundance threshold removed every
// isotope of an element.
type EmptyIsotopeSetError struct {
	Symbol           string
	MinimumAbundance float64
}

func (e *EmptyIsotopeSetError) Error() string {
	return fmt.Sprintf("no isotopes of %s above abundance %g", e.Symbol, e.MinimumAbundance)
}

// Is lets errors.Is(err, ErrEmptyDistribution) match an empty isotope set.
func (e *EmptyIsotopeSetError) Is(target error) bool {
	return target == ErrEmptyDistribution
}

// ValidationError represents an error found during distribution validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// IsEmptyResult reports whether err describes a valid but empty result
// rather than a genuine failure.
func IsEmptyResult(err error) bool {
	return errors.Is(err, ErrEmptyDistribution)
}
