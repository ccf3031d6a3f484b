package formula

import (
	"errors"
	"strings"
	"testing"

	"github.com/ChrisMcGann/masscalc/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  core.Formula
	}{
		{"serine", "C3H7NO3", core.Formula{"C": 3, "H": 7, "N": 1, "O": 3}},
		{"repeated symbols accumulate", "CH3COOC6H4COOH", core.Formula{"C": 9, "H": 8, "O": 4}},
		{"two-letter symbols", "C12H4Cl6", core.Formula{"C": 12, "H": 4, "Cl": 6}},
		{"multi-digit counts", "C43H80O16P2", core.Formula{"C": 43, "H": 80, "O": 16, "P": 2}},
		{"whitespace ignored", " Na Cl ", core.Formula{"Na": 1, "Cl": 1}},
		{"explicit zero", "C0H2O", core.Formula{"C": 0, "H": 2, "O": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantOffset int
	}{
		{"parentheses", "Ca(OH)2", 2},
		{"leading digit", "2H2O", 0},
		{"lowercase start", "h2o", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)

			var syntax *SyntaxError
			require.True(t, errors.As(err, &syntax), "got %v", err)
			assert.Equal(t, tt.wantOffset, syntax.Offset)
		})
	}

	_, err := Parse("")
	assert.Error(t, err)
}

func TestSyntaxErrorNonASCII(t *testing.T) {
	_, err := Parse("H2Ö")

	var syntax *SyntaxError
	require.True(t, errors.As(err, &syntax), "got %v", err)
	assert.Equal(t, 2, syntax.Offset)
	assert.Contains(t, err.Error(), `unexpected 'Ö'`)

	// a non-breaking space is whitespace, not a stray byte
	f, err := Parse("Na\u00a0Cl")
	require.NoError(t, err)
	assert.Equal(t, core.Formula{"Na": 1, "Cl": 1}, f)
}

func TestHill(t *testing.T) {
	assert.Equal(t, "C9H8O4", Hill(MustParse("CH3COOC6H4COOH")))
	assert.Equal(t, "C12H4Cl6", Hill(MustParse("Cl6C12H4")))
	assert.Equal(t, "ClNa", Hill(MustParse("NaCl")))
	assert.Equal(t, "H2O", Hill(MustParse("OH2")))
}

func TestArithmetic(t *testing.T) {
	water := MustParse("H2O")
	glucose := MustParse("C6H12O6")

	assert.Equal(t, core.Formula{"C": 6, "H": 14, "O": 7}, Add(glucose, water))
	assert.Equal(t, core.Formula{"C": 6, "H": 10, "O": 5}, Sub(glucose, water))
	assert.Equal(t, core.Formula{"C": 12, "H": 24, "O": 12}, Scale(glucose, 2))

	// zero counts are dropped, negative counts are kept for the calculator to reject
	assert.Equal(t, core.Formula{"H": -2, "O": -1}, Sub(core.Formula{}, water))
	assert.Equal(t, core.Formula{}, Sub(water, water))
}

func TestAdductApply(t *testing.T) {
	db := DefaultAdductDatabase()
	serine := MustParse("C3H7NO3")

	tests := []struct {
		adduct     string
		want       string
		wantCharge int
	}{
		{"[M+H]+", "C3H8NO3", 1},
		{"[M+Na]+", "C3H7NNaO3", 1},
		{"[M-H]-", "C3H6NO3", -1},
		{"[M+H-H2O]+", "C3H6NO2", 1},
		{"[M+2H]2+", "C3H9NO3", 2},
		{"[2M+H]+", "C6H15N2O6", 1},
	}

	for _, tt := range tests {
		t.Run(tt.adduct, func(t *testing.T) {
			a, ok := db.Get(tt.adduct)
			require.True(t, ok)
			assert.Equal(t, tt.want, Hill(a.Apply(serine)))
			assert.Equal(t, tt.wantCharge, a.Charge)
		})
	}
}

func TestAdductLossBelowZero(t *testing.T) {
	db := DefaultAdductDatabase()
	a, ok := db.Get("[M+H-H2O]+")
	require.True(t, ok)

	f := a.Apply(MustParse("CH4"))
	_, err := core.ComputeDistribution(f, core.DefaultOptions())

	var invalid *core.InvalidFormulaError
	assert.True(t, errors.As(err, &invalid))
}

func TestAdductProtonatedMass(t *testing.T) {
	db := DefaultAdductDatabase()
	a, _ := db.Get("[M+H]+")

	opts := core.DefaultOptions()
	opts.Charge = a.Charge
	opts.Monoisotopic = true
	dist, err := core.ComputeDistribution(a.Apply(MustParse("C3H7NO3")), opts)
	require.NoError(t, err)

	assert.InDelta(t, 105.042593085+core.ProtonMass, dist.Masses[0], 1e-6)
}

func TestAdductDatabaseLoadFromCSV(t *testing.T) {
	csv := `name,add,remove,charge,multimer
[M+Li]+,Li,,1
# comment
[M+2Na-H]+,Na2,H,1,

[3M+H]+,H,,1,3
`
	db := NewAdductDatabase()
	require.NoError(t, db.LoadFromCSV(strings.NewReader(csv)))

	a, ok := db.Get("[M+2Na-H]+")
	require.True(t, ok)
	assert.Equal(t, core.Formula{"Na": 2}, a.Add)
	assert.Equal(t, core.Formula{"H": 1}, a.Remove)
	assert.Equal(t, 1, a.Multimer)

	a, ok = db.Get("[3M+H]+")
	require.True(t, ok)
	assert.Equal(t, 3, a.Multimer)

	assert.Equal(t, []string{"[3M+H]+", "[M+2Na-H]+", "[M+Li]+"}, db.Names())
}

func TestAdductDatabaseLoadFromCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"too few fields", "h\n[M+X]+,H\n"},
		{"bad formula", "h\n[M+X]+,h2,,1\n"},
		{"bad charge", "h\n[M+X]+,H,,one\n"},
		{"bad multimer", "h\n[M+X]+,H,,1,0\n"},
		{"missing name", "h\n,H,,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAdductDatabase().LoadFromCSV(strings.NewReader(tt.csv))
			assert.Error(t, err)
		})
	}
}

func TestPeptide(t *testing.T) {
	tests := []struct {
		name     string
		sequence string
		want     string
		wantMass float64
	}{
		{"simple tripeptide", "AAA", "C9H17N3O4", 231.121},
		{"lower case", "aaa", "C9H17N3O4", 231.121},
		{"with sulfur", "PEPTIDEC", "C37H58N8O16S", 902.369},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Peptide(tt.sequence)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Hill(f))

			opts := core.DefaultOptions()
			opts.Monoisotopic = true
			dist, err := core.ComputeDistribution(f, opts)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantMass, dist.Masses[0], 0.01)
		})
	}
}

func TestPeptideErrors(t *testing.T) {
	_, err := Peptide("")
	assert.Error(t, err)

	_, err = Peptide("PEPXIDE")
	assert.ErrorContains(t, err, "position 4")

	_, err = Peptide("AÄX")
	assert.ErrorContains(t, err, "'Ä' at position 2")
}
