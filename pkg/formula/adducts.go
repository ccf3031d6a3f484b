package formula

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/masscalc/pkg/core"
)

// Adduct describes the atoms gained and lost during ionisation and the
// resulting net charge.
type Adduct struct {
	Name     string
	Add      core.Formula
	Remove   core.Formula
	Charge   int
	Multimer int // molecules per ion, 1 for [M+...]
}

// Apply performs the adduct arithmetic on a neutral formula. The result may
// contain negative counts when the loss exceeds the molecule.
func (a Adduct) Apply(f core.Formula) core.Formula {
	m := a.Multimer
	if m < 1 {
		m = 1
	}
	return Sub(Add(Scale(f, m), a.Add), a.Remove)
}

// AdductDatabase stores adduct definitions
type AdductDatabase struct {
	adducts map[string]Adduct // name -> adduct
}

// NewAdductDatabase creates an empty adduct database
func NewAdductDatabase() *AdductDatabase {
	return &AdductDatabase{
		adducts: make(map[string]Adduct),
	}
}

// LoadFromCSV loads adducts from a CSV file (format: name,add,remove,charge[,multimer]).
// Empty add or remove columns mean no atoms.
func (db *AdductDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 4 {
			return fmt.Errorf("line %d: invalid format, expected at least 4 comma-separated fields", lineNum)
		}

		name := strings.TrimSpace(parts[0])
		if name == "" {
			return fmt.Errorf("line %d: adduct name is required", lineNum)
		}

		add, err := parseOptional(parts[1])
		if err != nil {
			return fmt.Errorf("line %d: invalid add formula: %w", lineNum, err)
		}
		remove, err := parseOptional(parts[2])
		if err != nil {
			return fmt.Errorf("line %d: invalid remove formula: %w", lineNum, err)
		}

		chargeStr := strings.TrimSpace(parts[3])
		charge, err := strconv.Atoi(chargeStr)
		if err != nil {
			return fmt.Errorf("line %d: invalid charge value '%s': %w", lineNum, chargeStr, err)
		}

		multimer := 1
		if len(parts) > 4 && strings.TrimSpace(parts[4]) != "" {
			multimer, err = strconv.Atoi(strings.TrimSpace(parts[4]))
			if err != nil || multimer < 1 {
				return fmt.Errorf("line %d: invalid multimer value '%s'", lineNum, strings.TrimSpace(parts[4]))
			}
		}

		db.Add(Adduct{Name: name, Add: add, Remove: remove, Charge: charge, Multimer: multimer})
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

func parseOptional(s string) (core.Formula, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Formula{}, nil
	}
	return Parse(s)
}

// Get returns the adduct registered under name
func (db *AdductDatabase) Get(name string) (Adduct, bool) {
	a, ok := db.adducts[name]
	return a, ok
}

// Add adds or updates an adduct
func (db *AdductDatabase) Add(a Adduct) {
	if a.Multimer < 1 {
		a.Multimer = 1
	}
	db.adducts[a.Name] = a
}

// Names lists the registered adducts sorted by charge, then name.
func (db *AdductDatabase) Names() []string {
	names := make([]string, 0, len(db.adducts))
	for name := range db.adducts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := db.adducts[names[i]].Charge, db.adducts[names[j]].Charge
		if ci != cj {
			return ci > cj
		}
		return names[i] < names[j]
	})
	return names
}

// DefaultAdductDatabase returns an AdductDatabase pre-loaded with common ESI adducts
func DefaultAdductDatabase() *AdductDatabase {
	db := NewAdductDatabase()
	none := core.Formula{}

	// Positive mode
	db.Add(Adduct{Name: "[M]+", Add: none, Remove: none, Charge: 1})
	db.Add(Adduct{Name: "[M+H]+", Add: MustParse("H"), Remove: none, Charge: 1})
	db.Add(Adduct{Name: "[M+Na]+", Add: MustParse("Na"), Remove: none, Charge: 1})
	db.Add(Adduct{Name: "[M+K]+", Add: MustParse("K"), Remove: none, Charge: 1})
	db.Add(Adduct{Name: "[M+NH4]+", Add: MustParse("NH4"), Remove: none, Charge: 1})
	db.Add(Adduct{Name: "[M+H-H2O]+", Add: MustParse("H"), Remove: MustParse("H2O"), Charge: 1})
	db.Add(Adduct{Name: "[M+2H]2+", Add: MustParse("H2"), Remove: none, Charge: 2})
	db.Add(Adduct{Name: "[M+3H]3+", Add: MustParse("H3"), Remove: none, Charge: 3})
	db.Add(Adduct{Name: "[M+H+Na]2+", Add: MustParse("HNa"), Remove: none, Charge: 2})
	db.Add(Adduct{Name: "[2M+H]+", Add: MustParse("H"), Remove: none, Charge: 1, Multimer: 2})
	db.Add(Adduct{Name: "[2M+Na]+", Add: MustParse("Na"), Remove: none, Charge: 1, Multimer: 2})

	// Negative mode
	db.Add(Adduct{Name: "[M]-", Add: none, Remove: none, Charge: -1})
	db.Add(Adduct{Name: "[M-H]-", Add: none, Remove: MustParse("H"), Charge: -1})
	db.Add(Adduct{Name: "[M+Cl]-", Add: MustParse("Cl"), Remove: none, Charge: -1})
	db.Add(Adduct{Name: "[M+HCOO]-", Add: MustParse("HCOO"), Remove: none, Charge: -1})
	db.Add(Adduct{Name: "[M+CH3COO]-", Add: MustParse("CH3COO"), Remove: none, Charge: -1})
	db.Add(Adduct{Name: "[M-H-H2O]-", Add: none, Remove: MustParse("H3O"), Charge: -1})
	db.Add(Adduct{Name: "[M-2H]2-", Add: none, Remove: MustParse("H2"), Charge: -2})
	db.Add(Adduct{Name: "[2M-H]-", Add: none, Remove: MustParse("H"), Charge: -1, Multimer: 2})

	return db
}
