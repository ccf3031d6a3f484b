package core

// IsotopeVector holds the isotope choices available to one atom. Masses and
// Abundances are paired index for index.
type IsotopeVector struct {
	Masses     []float64
	Abundances []float64
}

// Len returns the number of isotope choices.
func (v IsotopeVector) Len() int {
	return len(v.Masses)
}

// Candidate is a partial isotope combination: the summed mass and the
// product of the abundances of the choices made so far.
type Candidate struct {
	Mass      float64
	Abundance float64
}

// CandidateSet is the in-progress cartesian product of isotope choices.
type CandidateSet []Candidate

// Masses returns the candidate masses in set order.
func (s CandidateSet) Masses() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Mass
	}
	return out
}

// Abundances returns the candidate abundances in set order.
func (s CandidateSet) Abundances() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Abundance
	}
	return out
}

// Expand folds one isotope vector per atom into the set of isotope
// combinations of the whole molecule. After every fold, candidates whose
// abundance is not above minimumFormulaAbundance are dropped, which keeps the
// set far smaller than the full product. A threshold of 0 keeps everything.
// An empty result is valid and means every branch was pruned.
func Expand(vectors []IsotopeVector, minimumFormulaAbundance float64) CandidateSet {
	if len(vectors) == 0 {
		return CandidateSet{}
	}

	// The first atom seeds the set unpruned; a single atom keeps every isotope.
	seed := vectors[0]
	set := make(CandidateSet, 0, seed.Len())
	for i := range seed.Masses {
		set = append(set, Candidate{Mass: seed.Masses[i], Abundance: seed.Abundances[i]})
	}

	for _, v := range vectors[1:] {
		if len(set) == 0 {
			break
		}
		set = fold(set, v, minimumFormulaAbundance)
	}

	return set
}

// fold multiplies out set by the choices of one more atom and prunes.
func fold(set CandidateSet, v IsotopeVector, minimumFormulaAbundance float64) CandidateSet {
	next := make(CandidateSet, 0, len(set)*v.Len())
	for _, c := range set {
		for i, mass := range v.Masses {
			abundance := c.Abundance * v.Abundances[i]
			if abundance <= minimumFormulaAbundance {
				continue
			}
			next = append(next, Candidate{Mass: c.Mass + mass, Abundance: abundance})
		}
	}
	return next
}
