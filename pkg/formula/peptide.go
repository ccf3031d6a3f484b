package formula

import (
	"fmt"
	"unicode"

	"github.com/ChrisMcGann/masscalc/pkg/core"
)

// residueCompositions maps amino acid one-letter codes to the elemental
// composition of the residue (amino acid minus water).
var residueCompositions = map[rune]core.Formula{
	'A': {"C": 3, "H": 5, "N": 1, "O": 1},
	'R': {"C": 6, "H": 12, "N": 4, "O": 1},
	'N': {"C": 4, "H": 6, "N": 2, "O": 2},
	'D': {"C": 4, "H": 5, "N": 1, "O": 3},
	'C': {"C": 3, "H": 5, "N": 1, "O": 1, "S": 1},
	'E': {"C": 5, "H": 7, "N": 1, "O": 3},
	'Q': {"C": 5, "H": 8, "N": 2, "O": 2},
	'G': {"C": 2, "H": 3, "N": 1, "O": 1},
	'H': {"C": 6, "H": 7, "N": 3, "O": 1},
	'I': {"C": 6, "H": 11, "N": 1, "O": 1},
	'L': {"C": 6, "H": 11, "N": 1, "O": 1},
	'K': {"C": 6, "H": 12, "N": 2, "O": 1},
	'M': {"C": 5, "H": 9, "N": 1, "O": 1, "S": 1},
	'F': {"C": 9, "H": 9, "N": 1, "O": 1},
	'P': {"C": 5, "H": 7, "N": 1, "O": 1},
	'S': {"C": 3, "H": 5, "N": 1, "O": 2},
	'T': {"C": 4, "H": 7, "N": 1, "O": 2},
	'W': {"C": 11, "H": 10, "N": 2, "O": 1},
	'Y': {"C": 9, "H": 9, "N": 1, "O": 2},
	'V': {"C": 5, "H": 9, "N": 1, "O": 1},
}

var water = core.Formula{"H": 2, "O": 1}

// Peptide returns the elemental composition of an unmodified peptide
// sequence, including the terminal water. Lower-case letters are accepted.
func Peptide(sequence string) (core.Formula, error) {
	if sequence == "" {
		return nil, fmt.Errorf("empty peptide sequence")
	}

	f := Add(core.Formula{}, water)
	pos := 0
	for _, aa := range sequence {
		pos++
		comp, ok := residueCompositions[unicode.ToUpper(aa)]
		if !ok {
			return nil, fmt.Errorf("unknown residue %q at position %d", aa, pos)
		}
		f = Add(f, comp)
	}
	return f, nil
}
