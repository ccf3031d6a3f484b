package core

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference masses are from PubChem.
func TestComputeDistributionKnownMasses(t *testing.T) {
	tests := []struct {
		name     string
		formula  Formula
		wantFull float64
		wantMono float64
	}{
		{"aspirin", Formula{"C": 9, "H": 8, "O": 4}, 180.04225873, 180.04225873},
		{"dodecamethylcyclohexastannane", Formula{"C": 12, "H": 36, "Sn": 6}, 891.69326, 899.69492},
		{"hexachlorobiphenyl", Formula{"C": 12, "H": 4, "Cl": 6}, 359.841466, 357.844416},
		{"nickel phosphate", Formula{"Ni": 3, "O": 8, "P": 2}, 365.708309, 363.71287},
		{"perfluorodecane sulfonic acid", Formula{"C": 10, "H": 1, "F": 21, "O": 3, "S": 1}, 599.9311065, 599.9311065},
		{"PIP(16:2/18:0)", Formula{"C": 43, "H": 80, "O": 16, "P": 2}, 914.49216046, 914.49216046},
		{"serine", Formula{"C": 3, "H": 7, "N": 1, "O": 3}, 105.042593085, 105.042593085},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()

			dist, err := ComputeDistribution(tt.formula, opts)
			require.NoError(t, err)
			require.NotZero(t, dist.Len())
			assert.InDelta(t, tt.wantFull, dist.Masses[0], 1e-4)

			opts.Monoisotopic = true
			mono, err := ComputeDistribution(tt.formula, opts)
			require.NoError(t, err)
			require.Equal(t, 1, mono.Len())
			assert.InDelta(t, tt.wantMono, mono.Masses[0], 1e-4)
		})
	}
}

func TestComputeDistributionBasePeakFirst(t *testing.T) {
	dist, err := ComputeDistribution(Formula{"C": 12, "H": 4, "Cl": 6}, DefaultOptions())
	require.NoError(t, err)

	base, ok := dist.BasePeak()
	require.True(t, ok)
	assert.Equal(t, base.Mass, dist.Masses[0])
	for i := 1; i < dist.Len(); i++ {
		assert.LessOrEqual(t, dist.Abundances[i], dist.Abundances[i-1])
	}
}

func TestComputeDistributionSortedByMass(t *testing.T) {
	opts := DefaultOptions()
	opts.SortByAbundance = false

	dist, err := ComputeDistribution(Formula{"C": 12, "H": 4, "Cl": 6}, opts)
	require.NoError(t, err)
	assert.True(t, dist.ArePeaksSorted())
	assert.NoError(t, dist.Validate())
}

func TestComputeDistributionDeterministic(t *testing.T) {
	formula := Formula{"C": 12, "H": 36, "Sn": 6}
	first, err := ComputeDistribution(formula, DefaultOptions())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		again, err := ComputeDistribution(formula, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, first.Masses, again.Masses)
		assert.Equal(t, first.Abundances, again.Abundances)
	}
}

func TestComputeDistributionConcurrent(t *testing.T) {
	formula := Formula{"C": 12, "H": 4, "Cl": 6}
	want, err := ComputeDistribution(formula, DefaultOptions())
	require.NoError(t, err)

	calc := NewCalculator(nil, nil)
	var wg sync.WaitGroup
	results := make([]*MassDistribution, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = calc.Compute(formula, DefaultOptions())
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		require.NotNil(t, got)
		assert.Equal(t, want.Masses, got.Masses)
	}
}

func TestComputeDistributionCharge(t *testing.T) {
	formula := Formula{"C": 3, "H": 8, "N": 1, "O": 3} // [serine+H]
	neutral, err := ComputeDistribution(formula, DefaultOptions())
	require.NoError(t, err)

	for _, charge := range []int{1, 2, -1} {
		opts := DefaultOptions()
		opts.Charge = charge
		dist, err := ComputeDistribution(formula, opts)
		require.NoError(t, err)

		assert.Equal(t, charge, dist.Charge)
		want := (neutral.Masses[0] - float64(charge)*ElectronMass) / math.Abs(float64(charge))
		assert.InDelta(t, want, dist.Masses[0], 1e-9)
	}
}

func TestComputeDistributionThresholdMonotonic(t *testing.T) {
	formula := Formula{"C": 12, "H": 4, "Cl": 6}
	prev := math.MaxInt
	for _, threshold := range []float64{1e-9, 1e-6, 1e-4, 1e-2} {
		opts := DefaultOptions()
		opts.MinimumFormulaAbundance = threshold
		dist, err := ComputeDistribution(formula, opts)
		require.NoError(t, err)
		assert.LessOrEqual(t, dist.Len(), prev, "threshold %g", threshold)
		prev = dist.Len()
	}
}

func TestComputeDistributionSingleAtomThreshold(t *testing.T) {
	opts := DefaultOptions()
	opts.MinimumFormulaAbundance = 1e-3
	opts.SortByAbundance = false

	dist, err := ComputeDistribution(Formula{"H": 1}, opts)
	require.NoError(t, err)
	require.Equal(t, 2, dist.Len())
	assert.InDelta(t, 1.00782503223, dist.Masses[0], 1e-9)
	assert.InDelta(t, 2.01410177812, dist.Masses[1], 1e-9)
	assert.InDelta(t, 0.000115, dist.Abundances[1], 1e-12)
}

func TestComputeDistributionErrors(t *testing.T) {
	t.Run("unknown element", func(t *testing.T) {
		_, err := ComputeDistribution(Formula{"C": 1, "Xx": 2}, DefaultOptions())

		var unknown *UnknownElementError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "Xx", unknown.Symbol)
		assert.False(t, IsEmptyResult(err))
	})

	t.Run("negative count", func(t *testing.T) {
		// validation must run before the unknown element is looked up
		_, err := ComputeDistribution(Formula{"C": 2, "H": -1, "Xx": 1}, DefaultOptions())

		var invalid *InvalidFormulaError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "H", invalid.Symbol)
		assert.Equal(t, -1, invalid.Count)
	})

	t.Run("no atoms", func(t *testing.T) {
		_, err := ComputeDistribution(Formula{"C": 0}, DefaultOptions())

		var invalid *InvalidFormulaError
		assert.True(t, errors.As(err, &invalid))
	})

	t.Run("isotopes filtered out", func(t *testing.T) {
		opts := DefaultOptions()
		opts.MinimumIsotopeAbundance = 0.5
		dist, err := ComputeDistribution(Formula{"C": 1, "Sn": 1}, opts)

		assert.True(t, IsEmptyResult(err))
		require.NotNil(t, dist)
		assert.Zero(t, dist.Len())
	})

	t.Run("everything pruned", func(t *testing.T) {
		opts := DefaultOptions()
		opts.MinimumFormulaAbundance = 1
		dist, err := ComputeDistribution(Formula{"Cl": 2}, opts)

		assert.True(t, errors.Is(err, ErrEmptyDistribution))
		require.NotNil(t, dist)
		assert.Zero(t, dist.Len())
	})
}

func TestFormulaElementsHillOrder(t *testing.T) {
	assert.Equal(t, []string{"C", "H", "Cl", "N", "O"}, Formula{"O": 1, "N": 1, "Cl": 1, "H": 3, "C": 2}.Elements())
	assert.Equal(t, []string{"Cl", "H", "Na"}, Formula{"Na": 1, "H": 1, "Cl": 1}.Elements())
	assert.Equal(t, []string{"H", "O"}, Formula{"O": 1, "H": 2, "C": 0}.Elements())
}

func TestMassDistributionValidate(t *testing.T) {
	tests := []struct {
		name    string
		dist    *MassDistribution
		wantErr bool
	}{
		{"valid", &MassDistribution{Masses: []float64{100, 101}, Abundances: []float64{0.9, 0.1}}, false},
		{"length mismatch", &MassDistribution{Masses: []float64{100}, Abundances: []float64{}}, true},
		{"NaN mass", &MassDistribution{Masses: []float64{math.NaN()}, Abundances: []float64{1}}, true},
		{"negative abundance", &MassDistribution{Masses: []float64{100}, Abundances: []float64{-1}}, true},
		{"zero mass", &MassDistribution{Masses: []float64{0}, Abundances: []float64{1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dist.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMassDistributionSorting(t *testing.T) {
	dist := &MassDistribution{
		Masses:     []float64{300, 100, 200},
		Abundances: []float64{0.2, 0.3, 0.5},
	}

	dist.SortByMass()
	assert.Equal(t, []float64{100, 200, 300}, dist.Masses)
	assert.Equal(t, []float64{0.3, 0.5, 0.2}, dist.Abundances)

	dist.SortByAbundance()
	assert.Equal(t, []float64{200, 100, 300}, dist.Masses)
	assert.InDelta(t, 1.0, dist.TotalAbundance(), 1e-12)

	peaks := dist.Peaks()
	require.Len(t, peaks, 3)
	assert.Equal(t, Peak{Mass: 200, Abundance: 0.5}, peaks[0])
}

func TestNewPattern(t *testing.T) {
	calc := NewCalculator(nil, nil)

	opts := DefaultOptions()
	opts.Charge = -1
	p, err := calc.NewPattern("deprotonated serine", Formula{"C": 3, "H": 6, "N": 1, "O": 3}, "[M-H]-", opts)
	require.NoError(t, err)

	assert.Equal(t, "-", p.Polarity())
	assert.Equal(t, "[M-H]-", p.Adduct)
	assert.InDelta(t, 105.04259308875-1.00782503223, p.MonoisotopicMass, 1e-6)

	base, ok := p.Distribution.BasePeak()
	require.True(t, ok)
	assert.InDelta(t, p.MonoisotopicMass+ElectronMass, base.Mass, 1e-6)
}

func TestNewPatternEmpty(t *testing.T) {
	opts := DefaultOptions()
	opts.MinimumFormulaAbundance = 0.9

	p, err := NewCalculator(nil, nil).NewPattern("C100", Formula{"C": 100}, "", opts)
	assert.Nil(t, p)
	assert.True(t, IsEmptyResult(err))
}
