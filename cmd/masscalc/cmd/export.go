package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ChrisMcGann/masscalc/pkg/core"
	"github.com/ChrisMcGann/masscalc/pkg/reader/formulalist"
	"github.com/ChrisMcGann/masscalc/pkg/writer/sqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func newExportCmd() *cobra.Command {
	var (
		inputFile  string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Compute isotope patterns for a formula list and write an SQLite library",
		Long: `Compute the isotope pattern of every compound in a CSV formula list
(header line, then Name,Formula[,Adduct] rows) and write them to an SQLite
spectral library with one compound and one spectrum per row.

Examples:
  # Neutral patterns
  masscalc export --in compounds.csv --out patterns.db

  # Use 8 workers and keep peaks above 0.1% of the base peak
  masscalc export --in compounds.csv --out patterns.db --threads 8 --cutoff 0.1`,
		Args: cobra.NoArgs,
	}

	keys := addCalcFlags(cmd)
	for k, v := range addFilterFlags(cmd) {
		keys[k] = v
	}
	cmd.Flags().StringVarP(&inputFile, "in", "i", "", "Input formula list (required)")
	cmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output database file (required)")
	cmd.Flags().Int("threads", 4, "Number of worker goroutines")
	keys["threads"] = threadsKey

	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, keys)
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, inputFile, outputFile)
	}

	return cmd
}

func runExport(cmd *cobra.Command, inputFile, outputFile string) error {
	// Validate input file exists
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}

	opts, err := calcOptionsFromConfig()
	if err != nil {
		return err
	}
	filterConfig := filterConfigFromConfig()
	if err := filterConfig.Validate(); err != nil {
		return err
	}
	threads := viper.GetInt(threadsKey)
	if threads < 1 {
		threads = 1
	}

	inFile, err := os.Open(inputFile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()

	entries, err := formulalist.NewReader(inFile).ReadAll()
	if err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	adducts := loadAdducts(cmd)
	calc := core.NewCalculator(nil, slog.Default())
	out := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	fmt.Fprintf(out, "Computing %d patterns from %s with %d worker(s)...\n", len(entries), inputFile, threads)

	// Workers fill their own slot; writing happens afterwards in input order.
	patterns := make([]*core.Pattern, len(entries))
	warnings := make([]error, len(entries))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(threads)
	for i, entry := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			ion, entryOpts, err := applyAdduct(adducts, entry.Formula, entry.Adduct, opts)
			if err != nil {
				warnings[i] = fmt.Errorf("line %d: %w", entry.Line, err)
				return nil
			}

			p, err := calc.NewPattern(entry.Name, ion, entry.Adduct, entryOpts)
			if err != nil {
				warnings[i] = fmt.Errorf("line %d: %s: %w", entry.Line, entry.Name, err)
				return nil
			}

			if err := filterConfig.Apply(p.Distribution); err != nil {
				return err
			}
			if p.Distribution.Len() == 0 {
				warnings[i] = fmt.Errorf("line %d: %s: no peaks left after filtering: %w", entry.Line, entry.Name, core.ErrEmptyDistribution)
				return nil
			}
			patterns[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	writer, err := sqlite.NewWriter(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	skipped := 0
	for i, p := range patterns {
		if warnings[i] != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", warnings[i])
			if !isSkippable(warnings[i]) {
				slog.Error("pattern failed", "line", entries[i].Line, "error", warnings[i])
			}
			skipped++
			continue
		}

		if err := writer.WritePattern(p); err != nil {
			return fmt.Errorf("failed to write pattern %s: %w", p.Name, err)
		}
	}

	// Finalize database
	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	slog.Info("export complete", "input", inputFile, "output", outputFile, "written", writer.Count(), "skipped", skipped)

	fmt.Fprintf(out, "\nExport complete!\n")
	fmt.Fprintf(out, "Written: %d patterns\n", writer.Count())
	if skipped > 0 {
		fmt.Fprintf(out, "Skipped: %d entries (see warnings)\n", skipped)
	}
	fmt.Fprintf(out, "Output: %s\n", outputFile)

	return nil
}

// isSkippable reports whether err is an expected per-entry problem rather
// than a bug worth logging at error level.
func isSkippable(err error) bool {
	var unknown *core.UnknownElementError
	var invalid *core.InvalidFormulaError
	return core.IsEmptyResult(err) || errors.As(err, &unknown) || errors.As(err, &invalid)
}
