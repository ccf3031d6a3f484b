package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ChrisMcGann/masscalc/pkg/core"
	"github.com/ChrisMcGann/masscalc/pkg/filter"
	"github.com/ChrisMcGann/masscalc/pkg/formula"
	"github.com/ChrisMcGann/masscalc/pkg/writer/text"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCalcCmd() *cobra.Command {
	var (
		peptide    bool
		adductName string
		name       string
	)

	cmd := &cobra.Command{
		Use:   "calc FORMULA",
		Short: "Compute the isotope pattern of a formula",
		Long: `Compute the isotope pattern of a chemical formula or peptide sequence.

Examples:
  # Full isotope distribution of serine
  masscalc calc C3H7NO3

  # Monoisotopic mass only
  masscalc calc C12H4Cl6 --monoisotopic

  # Protonated ion, top 5 peaks normalised to the base peak
  masscalc calc C12H36Sn6 --adduct "[M+H]+" --top-n 5 --normalize max

  # Doubly protonated peptide as YAML
  masscalc calc PEPTIDE --peptide --adduct "[M+2H]2+" --format yaml`,
		Args: cobra.ExactArgs(1),
	}

	keys := addCalcFlags(cmd)
	for k, v := range addFilterFlags(cmd) {
		keys[k] = v
	}
	cmd.Flags().StringP("format", "f", "table", "Output format: "+strings.Join(text.Formats, ", "))
	keys["format"] = formatKey

	cmd.Flags().BoolVarP(&peptide, "peptide", "p", false, "Treat the argument as a peptide sequence")
	cmd.Flags().StringVarP(&adductName, "adduct", "a", "", "Adduct to apply, e.g. '[M+H]+' (see 'masscalc adducts')")
	cmd.Flags().StringVar(&name, "name", "", "Name to report (defaults to the input)")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, keys)
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		input := args[0]
		if name == "" {
			name = input
		}

		var f core.Formula
		var err error
		if peptide {
			f, err = formula.Peptide(input)
		} else {
			f, err = formula.Parse(input)
		}
		if err != nil {
			return err
		}

		opts, err := calcOptionsFromConfig()
		if err != nil {
			return err
		}

		filterConfig := filterConfigFromConfig()
		if err := filterConfig.Validate(); err != nil {
			return err
		}

		ion, opts, err := applyAdduct(loadAdducts(cmd), f, adductName, opts)
		if err != nil {
			return err
		}

		calc := core.NewCalculator(nil, slog.Default())
		p, err := calc.NewPattern(name, ion, adductName, opts)
		if core.IsEmptyResult(err) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s: %v\n", name, err)
			return nil
		}
		if err != nil {
			return err
		}

		if err := filterConfig.Apply(p.Distribution); err != nil {
			return err
		}
		if p.Distribution.Len() == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s: no peaks left after filtering\n", name)
			return nil
		}

		return text.Write(cmd.OutOrStdout(), p, viper.GetString(formatKey))
	}

	return cmd
}

// addFilterFlags registers the post-processing flags.
func addFilterFlags(cmd *cobra.Command) map[string]string {
	cmd.Flags().Int("top-n", 0, "Keep only top N most abundant peaks (0 = no limit)")
	cmd.Flags().Float64("cutoff", 0, "Abundance cutoff as % of base peak (0 = no cutoff)")
	cmd.Flags().String("normalize", filter.NormalizeNone, "Scale abundances: 'max' (base peak = 100) or 'sum' (total = 1)")
	cmd.Flags().Float64("min-mass", 0, "Drop peaks below this mass or m/z (0 = no limit)")
	cmd.Flags().Float64("max-mass", 0, "Drop peaks above this mass or m/z (0 = no limit)")

	return map[string]string{
		"top-n":     topNKey,
		"cutoff":    cutoffKey,
		"normalize": normalizeKey,
		"min-mass":  minMassKey,
		"max-mass":  maxMassKey,
	}
}

// applyAdduct returns the ion formula and the options with the adduct's
// charge. An empty name leaves both unchanged.
func applyAdduct(db *formula.AdductDatabase, f core.Formula, name string, opts core.Options) (core.Formula, core.Options, error) {
	if name == "" {
		return f, opts, nil
	}

	a, ok := db.Get(name)
	if !ok {
		return nil, opts, fmt.Errorf("unknown adduct '%s' (see 'masscalc adducts')", name)
	}

	if opts.Charge != 0 && opts.Charge != a.Charge {
		slog.Warn("adduct charge overrides configured charge", "adduct", name, "charge", opts.Charge, "adduct_charge", a.Charge)
	}
	opts.Charge = a.Charge
	return a.Apply(f), opts, nil
}
