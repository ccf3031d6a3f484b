// Package cmd provides CLI command implementations
package cmd

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/masscalc/pkg/formula"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Flags for root command
	verbose bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "masscalc",
	Short: "masscalc - isotopic mass distribution calculator",
	Long: `masscalc computes the isotope pattern of a chemical formula from natural
isotope abundances (NIST), optionally as m/z for a charged ion.

Features:
- Full isotope distribution with abundance pruning, or monoisotopic mass
- Adducts and losses ([M+H]+, [M-H]-, [M+Na]+, ...)
- Peptide sequences as input
- Table, CSV and YAML output
- Batch export of isotope patterns to an SQLite spectral library`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogger(logFile, verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (default from config, "+defaultLogFilename+")")

	rootCmd.AddCommand(newCalcCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newElementsCmd())
	rootCmd.AddCommand(newAdductsCmd())
}

// loadAdducts returns the built-in adducts plus any defined in the
// configured CSV file, if it exists.
func loadAdducts(cmd *cobra.Command) *formula.AdductDatabase {
	db := formula.DefaultAdductDatabase()

	path := viper.GetString(adductFileKey)
	if path == "" {
		return db
	}
	if _, err := os.Stat(path); err != nil {
		return db
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to open %s: %v\n", path, err)
		return db
	}
	defer f.Close()

	if err := db.LoadFromCSV(f); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to load %s: %v\n", path, err)
	}
	return db
}
