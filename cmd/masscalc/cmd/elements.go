package cmd

import (
	"fmt"
	"strconv"

	"github.com/ChrisMcGann/masscalc/pkg/core"
	"github.com/ChrisMcGann/masscalc/pkg/formula"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newElementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "elements [SYMBOL...]",
		Short: "List the natural isotopes of elements",
		Long: `List the bundled NIST isotope data. With no arguments every element is
listed; otherwise only the given symbols.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := core.DefaultTable()

			symbols := args
			if len(symbols) == 0 {
				symbols = table.Symbols()
			}

			tw := tablewriter.NewWriter(cmd.OutOrStdout())
			tw.SetHeader([]string{"Z", "Symbol", "A", "Mass", "Abundance"})
			tw.SetBorder(false)
			tw.SetCenterSeparator("")
			tw.SetAutoMergeCells(true)

			for _, s := range symbols {
				records, ok := table.Records(s)
				if !ok {
					return &core.UnknownElementError{Symbol: s}
				}
				for _, r := range records {
					tw.Append([]string{
						strconv.Itoa(r.AtomicNumber),
						r.Symbol,
						strconv.Itoa(r.MassNumber),
						strconv.FormatFloat(r.Mass, 'f', -1, 64),
						strconv.FormatFloat(r.Abundance, 'f', -1, 64),
					})
				}
			}

			tw.Render()
			return nil
		},
	}
}

func newAdductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adducts",
		Short: "List known adducts",
		Long: `List the built-in adducts and any loaded from the adducts CSV file
(default ` + defaultAdductFile + ` in the working directory).`,
		Args: cobra.NoArgs,
	}

	cmd.Flags().String("adducts", defaultAdductFile, "CSV of extra adduct definitions (name,add,remove,charge[,multimer])")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, map[string]string{"adducts": adductFileKey})
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		db := loadAdducts(cmd)

		tw := tablewriter.NewWriter(cmd.OutOrStdout())
		tw.SetHeader([]string{"Adduct", "Add", "Remove", "Charge", "M"})
		tw.SetBorder(false)
		tw.SetCenterSeparator("")

		for _, name := range db.Names() {
			a, _ := db.Get(name)
			tw.Append([]string{
				name,
				formula.Hill(a.Add),
				formula.Hill(a.Remove),
				fmt.Sprintf("%+d", a.Charge),
				strconv.Itoa(a.Multimer),
			})
		}

		tw.Render()
		return nil
	}

	return cmd
}
