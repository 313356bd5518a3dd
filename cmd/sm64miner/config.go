package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Gumbo64/sm64-crypto/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the default configuration",
	Long: `Print the built-in configuration as YAML. Save it to
~/.sm64crypto/config.yaml or ./configs/miner.yaml and edit it to override
the defaults.

Examples:
  sm64miner config > ~/.sm64crypto/config.yaml`,
	Args: cobra.NoArgs,
	Run:  runConfig,
}

func runConfig(_ *cobra.Command, _ []string) {
	if _, err := os.Stdout.Write(config.DefaultYAML()); err != nil {
		fail("%v", err)
	}
}
