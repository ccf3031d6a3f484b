// masscalc - isotopic mass distribution calculator
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/masscalc/cmd/masscalc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
