// Package core computes isotopic mass distributions: isotope lookup,
// combinatorial expansion, consolidation and charge correction.
package core

import "math"

const (
	// ElectronMass in u, used for the charge correction
	ElectronMass = 5.48579909065e-4

	// ProtonMass in u
	ProtonMass = 1.00727646688
)

// AdjustForCharge converts neutral masses to m/z for the given net charge.
// Each mass loses charge electrons (a negative charge gains them) and is
// then divided by |charge|. Charge 0 returns an unmodified copy.
func AdjustForCharge(masses []float64, charge int) []float64 {
	out := make([]float64, len(masses))
	copy(out, masses)
	if charge == 0 {
		return out
	}

	z := math.Abs(float64(charge))
	for i := range out {
		out[i] = (out[i] - float64(charge)*ElectronMass) / z
	}
	return out
}

// NeutralMass undoes AdjustForCharge for a single m/z value.
func NeutralMass(mz float64, charge int) float64 {
	if charge == 0 {
		return mz
	}
	return mz*math.Abs(float64(charge)) + float64(charge)*ElectronMass
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
