// Package formula turns formula strings, adducts and peptide sequences into
// atom-count maps for the core calculator.
package formula

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ChrisMcGann/masscalc/pkg/core"
)

var atomRe = regexp.MustCompile(`([A-Z][a-z]?)([0-9]*)`)

// SyntaxError reports an unparseable character in a formula string.
type SyntaxError struct {
	Input  string
	Offset int
}

func (e *SyntaxError) Error() string {
	r, _ := utf8.DecodeRuneInString(e.Input[e.Offset:])
	return fmt.Sprintf("invalid formula %q: unexpected %q at offset %d", e.Input, r, e.Offset)
}

// Parse reads a formula such as "CH3COOC6H4COOH". A missing count means one
// atom and repeated symbols accumulate. Whitespace is ignored.
func Parse(s string) (core.Formula, error) {
	f := make(core.Formula)
	pos := 0

	for _, loc := range atomRe.FindAllStringSubmatchIndex(s, -1) {
		if err := checkGap(s, pos, loc[0]); err != nil {
			return nil, err
		}
		pos = loc[1]

		symbol := s[loc[2]:loc[3]]
		count := 1
		if loc[5] > loc[4] {
			n, err := strconv.Atoi(s[loc[4]:loc[5]])
			if err != nil {
				return nil, fmt.Errorf("invalid count for %s in %q: %w", symbol, s, err)
			}
			count = n
		}
		f[symbol] += count
	}
	if err := checkGap(s, pos, len(s)); err != nil {
		return nil, err
	}

	if len(f) == 0 {
		return nil, fmt.Errorf("formula %q contains no elements", s)
	}
	return f, nil
}

// MustParse is like Parse but panics on error. Intended for constant tables.
func MustParse(s string) core.Formula {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}

func checkGap(s string, from, to int) error {
	for i := from; i < to; {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			return &SyntaxError{Input: s, Offset: i}
		}
		i += size
	}
	return nil
}

// Hill renders a formula in Hill notation: C and H first when carbon is
// present, then alphabetical, with counts of one omitted.
func Hill(f core.Formula) string {
	var b strings.Builder
	for _, s := range f.Elements() {
		b.WriteString(s)
		if n := f[s]; n != 1 {
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String()
}

// Add returns the element-wise sum of a and b.
func Add(a, b core.Formula) core.Formula {
	out := make(core.Formula, len(a)+len(b))
	for s, n := range a {
		out[s] += n
	}
	for s, n := range b {
		out[s] += n
	}
	return prune(out)
}

// Sub returns a minus b. Counts may go negative; the calculator rejects
// such formulas.
func Sub(a, b core.Formula) core.Formula {
	out := make(core.Formula, len(a)+len(b))
	for s, n := range a {
		out[s] += n
	}
	for s, n := range b {
		out[s] -= n
	}
	return prune(out)
}

// Scale multiplies every count by n, as for a multimer [2M+H]+.
func Scale(f core.Formula, n int) core.Formula {
	out := make(core.Formula, len(f))
	for s, c := range f {
		out[s] = c * n
	}
	return prune(out)
}

func prune(f core.Formula) core.Formula {
	for s, n := range f {
		if n == 0 {
			delete(f, s)
		}
	}
	return f
}
