package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/platform/tui"
)

var (
	flagRecordSeed   uint32
	flagUnseeded     bool
	flagRecordPrefix string
	flagRecordOut    string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a single seed to a solution file",
	Long: `Record runs of one seed until one is won, then write the solution.

Without --unseeded the RNG perturbs your inputs exactly as the chain will
when it verifies the solution. --prefix replays an earlier partial
solution first; press Enter during the replay to take over.

Examples:
  sm64miner record --seed 22 --out run.bin
  sm64miner record --seed 22 --prefix run.bin --out run2.bin
  sm64miner record --unseeded --out practice.bin`,
	Args: cobra.NoArgs,
	Run:  runRecord,
}

func init() {
	recordCmd.Flags().Uint32Var(&flagRecordSeed, "seed", 22, "RNG seed")
	recordCmd.Flags().BoolVar(&flagUnseeded, "unseeded", false, "Record without RNG perturbation")
	recordCmd.Flags().StringVar(&flagRecordPrefix, "prefix", "", "Solution file to replay first")
	recordCmd.Flags().StringVarP(&flagRecordOut, "out", "o", "solution.bin", "Output solution file")
}

// seedFlag returns the seed selected by --seed and --unseeded.
func seedFlag() core.Seed {
	if flagUnseeded {
		return core.Unseeded
	}
	return core.SeedOf(flagRecordSeed)
}

// readSolution reads a solution file.
func readSolution(path string) core.Solution {
	data, err := os.ReadFile(path)
	if err != nil {
		fail("reading solution: %v", err)
	}
	sol, err := core.ParseSolution(data)
	if err != nil {
		fail("%s: %v", path, err)
	}
	return sol
}

func runRecord(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()
	factory := engineFactory(cfg)

	logger, closeLog := newLogger(true)
	defer closeLog()

	var prefix core.Solution
	if flagRecordPrefix != "" {
		prefix = readSolution(flagRecordPrefix)
	}

	seed := seedFlag()
	width, height := terminalSize()
	res, err := tui.RunRecord(cmd.Context(), tui.RecordConfig{
		Factory: factory,
		Config:  cfg,
		Seed:    seed,
		Prefix:  prefix,
		Logger:  logger,
		Title:   "recording seed " + seed.String(),
	}, width, height)
	if err != nil {
		fail("%v", err)
	}
	if res == nil || len(res.Solution) == 0 {
		fmt.Println("Nothing recorded.")
		return
	}

	data, err := res.Solution.MarshalBinary()
	if err != nil {
		fail("encoding solution: %v", err)
	}
	if err := os.WriteFile(flagRecordOut, data, 0o644); err != nil {
		fail("writing solution: %v", err)
	}

	fmt.Printf("Recording %s after %d frames (%s of game time).\n", res.Outcome, len(res.Solution), res.Solution.Duration())
	fmt.Printf("Solution written to %s\n", flagRecordOut)
	if !res.Won {
		fmt.Printf("Continue with: sm64miner record --seed %d --prefix %s\n", flagRecordSeed, flagRecordOut)
	}
}
