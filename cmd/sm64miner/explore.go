package main

import (
	"github.com/spf13/cobra"

	"github.com/Gumbo64/sm64-crypto/internal/platform/tui"
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse blocks and attempts",
	Long: `Open an interactive explorer over the local chain and the attempt
journal.

Controls:
  Tab/Left/Right  - Switch between blocks and attempts
  Up/Down/j/k     - Scroll
  R               - Reload
  Q/Esc           - Quit`,
	Args: cobra.NoArgs,
	Run:  runExplore,
}

func runExplore(_ *cobra.Command, _ []string) {
	cfg := loadConfig()

	store := openStore(cfg)
	defer store.Close()

	width, height := terminalSize()
	if err := tui.RunExplorer(store, width, height); err != nil {
		fail("%v", err)
	}
}
