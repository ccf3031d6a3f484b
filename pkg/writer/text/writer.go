// Package text renders isotope patterns for terminals and pipelines.
package text

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/masscalc/pkg/core"
	"github.com/ChrisMcGann/masscalc/pkg/formula"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatYAML  = "yaml"
)

// Formats lists the supported output formats.
var Formats = []string{FormatTable, FormatCSV, FormatYAML}

// Write renders p in the named format.
func Write(w io.Writer, p *core.Pattern, format string) error {
	switch strings.ToLower(format) {
	case FormatTable, "":
		return WriteTable(w, p)
	case FormatCSV:
		return WriteCSV(w, p)
	case FormatYAML:
		return WriteYAML(w, p)
	default:
		return fmt.Errorf("unknown output format %q, must be one of %s", format, strings.Join(Formats, ", "))
	}
}

func massHeader(charge int) string {
	if charge == 0 {
		return "Mass"
	}
	return "m/z"
}

// WriteTable renders p as an aligned table with abundances relative to the
// base peak.
func WriteTable(w io.Writer, p *core.Pattern) error {
	dist := p.Distribution
	base, _ := dist.BasePeak()

	if _, err := fmt.Fprintf(w, "%s  %s  charge %d\n", p.Name, formula.Hill(p.Formula), dist.Charge); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{massHeader(dist.Charge), "Abundance", "Relative %"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})

	for i := range dist.Masses {
		rel := 0.0
		if base.Abundance > 0 {
			rel = 100 * dist.Abundances[i] / base.Abundance
		}
		table.Append([]string{
			strconv.FormatFloat(dist.Masses[i], 'f', 6, 64),
			strconv.FormatFloat(dist.Abundances[i], 'g', 6, 64),
			strconv.FormatFloat(rel, 'f', 2, 64),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("%d peaks", dist.Len()),
		strconv.FormatFloat(dist.TotalAbundance(), 'g', 6, 64),
		"",
	})

	table.Render()
	return nil
}

// WriteCSV writes one row per peak with full precision.
func WriteCSV(w io.Writer, p *core.Pattern) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "formula", "charge", "mass", "abundance"}); err != nil {
		return err
	}

	hill := formula.Hill(p.Formula)
	charge := strconv.Itoa(p.Distribution.Charge)
	for i := range p.Distribution.Masses {
		if err := cw.Write([]string{
			p.Name,
			hill,
			charge,
			strconv.FormatFloat(p.Distribution.Masses[i], 'f', -1, 64),
			strconv.FormatFloat(p.Distribution.Abundances[i], 'g', -1, 64),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Document is the YAML form of a pattern.
type Document struct {
	Name             string     `yaml:"name"`
	Formula          string     `yaml:"formula"`
	Adduct           string     `yaml:"adduct,omitempty"`
	Charge           int        `yaml:"charge"`
	MonoisotopicMass float64    `yaml:"monoisotopic_mass"`
	Options          DocOptions `yaml:"options"`
	Peaks            []DocPeak  `yaml:"peaks"`
}

// DocOptions records the thresholds a pattern was computed with.
type DocOptions struct {
	MinimumIsotopeAbundance float64 `yaml:"minimum_isotope_abundance"`
	MinimumFormulaAbundance float64 `yaml:"minimum_formula_abundance"`
	Monoisotopic            bool    `yaml:"monoisotopic"`
	Decimals                int     `yaml:"decimals"`
}

// DocPeak is one peak of a Document.
type DocPeak struct {
	Mass      float64 `yaml:"mass"`
	Abundance float64 `yaml:"abundance"`
}

// NewDocument converts a pattern to its YAML form.
func NewDocument(p *core.Pattern) Document {
	doc := Document{
		Name:             p.Name,
		Formula:          formula.Hill(p.Formula),
		Adduct:           p.Adduct,
		Charge:           p.Distribution.Charge,
		MonoisotopicMass: p.MonoisotopicMass,
		Options: DocOptions{
			MinimumIsotopeAbundance: p.Options.MinimumIsotopeAbundance,
			MinimumFormulaAbundance: p.Options.MinimumFormulaAbundance,
			Monoisotopic:            p.Options.Monoisotopic,
			Decimals:                p.Options.Decimals,
		},
		Peaks: make([]DocPeak, 0, p.Distribution.Len()),
	}
	for _, peak := range p.Distribution.Peaks() {
		doc.Peaks = append(doc.Peaks, DocPeak{Mass: peak.Mass, Abundance: peak.Abundance})
	}
	return doc
}

// WriteYAML writes p as a YAML document.
func WriteYAML(w io.Writer, p *core.Pattern) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(p)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
