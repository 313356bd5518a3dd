package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gumbo64/sm64-crypto/internal/engine"
)

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List available simulations",
	Long:  `Shows every simulation engine compiled into the miner.`,
	Args:  cobra.NoArgs,
	Run:   runEngines,
}

func runEngines(_ *cobra.Command, _ []string) {
	engines := engine.List()

	if len(engines) == 0 {
		fmt.Println("No engines available.")
		return
	}

	fmt.Println("Available engines:")
	fmt.Println()

	// Calculate column widths
	maxIDLen := 2 // "ID" header
	for _, e := range engines {
		if len(e.ID) > maxIDLen {
			maxIDLen = len(e.ID)
		}
	}

	// Print header
	fmt.Printf("  %-*s  %s\n", maxIDLen, "ID", "Title")
	fmt.Printf("  %-*s  %s\n", maxIDLen, "--", "-----")

	for _, e := range engines {
		fmt.Printf("  %-*s  %s\n", maxIDLen, e.ID, e.Title)
	}

	fmt.Println()
	fmt.Println("Run 'sm64miner mine --engine <id>' to mine with an engine.")
}
