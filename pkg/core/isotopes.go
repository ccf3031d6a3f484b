package core

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

//go:embed nist.csv
var nistData string

// IsotopeRecord is one naturally occurring isotope of an element.
type IsotopeRecord struct {
	AtomicNumber int
	Symbol       string
	MassNumber   int
	Mass         float64 // u
	Abundance    float64 // natural abundance, fraction in [0,1]
}

// IsotopeTable is an immutable symbol -> isotopes index. It is never
// modified after loading and may be shared between goroutines.
type IsotopeTable struct {
	bySymbol map[string][]IsotopeRecord
	symbols  []string // atomic-number order
}

var defaultTable = sync.OnceValues(func() (*IsotopeTable, error) {
	return LoadTable(strings.NewReader(nistData))
})

// DefaultTable returns the bundled NIST isotope table, parsed on first use.
func DefaultTable() *IsotopeTable {
	t, err := defaultTable()
	if err != nil {
		panic(fmt.Sprintf("bundled isotope table is corrupt: %v", err))
	}
	return t
}

// LoadTable parses an isotope table in CSV form
// (AtomicNumber,Symbol,MassNumber,Mass,Composition). Rows with a blank or
// non-numeric composition are radioactive or trace isotopes and are skipped.
func LoadTable(r io.Reader) (*IsotopeTable, error) {
	scanner := bufio.NewScanner(r)

	// Skip header line
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("error reading isotope table: %w", err)
		}
		return nil, fmt.Errorf("isotope table is empty")
	}

	t := &IsotopeTable{bySymbol: make(map[string][]IsotopeRecord)}
	atomicNumbers := make(map[string]int)

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 5 {
			return nil, fmt.Errorf("line %d: expected 5 fields, got %d", lineNum, len(parts))
		}

		abundance, err := strconv.ParseFloat(strings.TrimSpace(parts[4]), 64)
		if err != nil {
			continue
		}

		z, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid atomic number '%s': %w", lineNum, parts[0], err)
		}
		a, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid mass number '%s': %w", lineNum, parts[2], err)
		}
		mass, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid mass '%s': %w", lineNum, parts[3], err)
		}
		if abundance < 0 || abundance > 1 {
			return nil, fmt.Errorf("line %d: composition %g outside [0,1]", lineNum, abundance)
		}

		symbol := strings.TrimSpace(parts[1])
		t.bySymbol[symbol] = append(t.bySymbol[symbol], IsotopeRecord{
			AtomicNumber: z,
			Symbol:       symbol,
			MassNumber:   a,
			Mass:         mass,
			Abundance:    abundance,
		})
		atomicNumbers[symbol] = z
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading isotope table: %w", err)
	}

	for symbol, records := range t.bySymbol {
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].MassNumber < records[j].MassNumber
		})
		t.symbols = append(t.symbols, symbol)
	}
	sort.Slice(t.symbols, func(i, j int) bool {
		return atomicNumbers[t.symbols[i]] < atomicNumbers[t.symbols[j]]
	})

	return t, nil
}

// Symbols lists the elements in the table in atomic-number order.
func (t *IsotopeTable) Symbols() []string {
	out := make([]string, len(t.symbols))
	copy(out, t.symbols)
	return out
}

// Records returns a copy of the isotopes of symbol in mass-number order.
func (t *IsotopeTable) Records(symbol string) ([]IsotopeRecord, bool) {
	records, ok := t.bySymbol[symbol]
	if !ok {
		return nil, false
	}
	out := make([]IsotopeRecord, len(records))
	copy(out, records)
	return out, true
}

// IsotopesOf returns the isotope vector of symbol, keeping only isotopes
// whose abundance exceeds minimumAbundance. In monoisotopic mode the vector
// is reduced to the most abundant isotope; on a tie the lowest mass number
// wins.
func (t *IsotopeTable) IsotopesOf(symbol string, minimumAbundance float64, monoisotopic bool) (IsotopeVector, error) {
	records, ok := t.bySymbol[symbol]
	if !ok {
		return IsotopeVector{}, &UnknownElementError{Symbol: symbol}
	}

	var v IsotopeVector
	for _, rec := range records {
		if rec.Abundance > minimumAbundance {
			v.Masses = append(v.Masses, rec.Mass)
			v.Abundances = append(v.Abundances, rec.Abundance)
		}
	}

	if monoisotopic && v.Len() > 1 {
		best := 0
		for i := 1; i < v.Len(); i++ {
			if v.Abundances[i] > v.Abundances[best] {
				best = i
			}
		}
		v = IsotopeVector{
			Masses:     []float64{v.Masses[best]},
			Abundances: []float64{v.Abundances[best]},
		}
	}

	if v.Len() == 0 {
		return IsotopeVector{}, &EmptyIsotopeSetError{Symbol: symbol, MinimumAbundance: minimumAbundance}
	}
	return v, nil
}
