package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gumbo64/sm64-crypto/internal/chain"
	"github.com/Gumbo64/sm64-crypto/internal/replay"
)

var flagVerifyHeight int64

var verifyCmd = &cobra.Command{
	Use:   "verify [file]",
	Short: "Replay a solution headlessly",
	Long: `Replay a solution file at full speed without a terminal and report
whether it wins. With --height, verify a block of the local chain instead:
its seed, hash and solution are all checked.

Examples:
  sm64miner verify run.bin --seed 22
  sm64miner verify --height 3`,
	Args: cobra.MaximumNArgs(1),
	Run:  runVerify,
}

func init() {
	verifyCmd.Flags().Uint32Var(&flagRecordSeed, "seed", 22, "RNG seed")
	verifyCmd.Flags().BoolVar(&flagUnseeded, "unseeded", false, "Replay without RNG perturbation")
	verifyCmd.Flags().Int64Var(&flagVerifyHeight, "height", -1, "Verify the block at this height")
}

func runVerify(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	factory := engineFactory(cfg)
	ctx := cmd.Context()

	if flagVerifyHeight >= 0 {
		store := openStore(cfg)
		defer store.Close()

		ledger, err := chain.New(ctx, store, factory, cfg, cfg.Miner.Name)
		if err != nil {
			fail("%v", err)
		}
		b, err := store.BlockByHeight(ctx, flagVerifyHeight)
		if err != nil {
			fail("block %d: %v", flagVerifyHeight, err)
		}
		if err := ledger.Verify(ctx, b); err != nil {
			fail("block %d is invalid: %v", b.Height, err)
		}
		fmt.Printf("Block %d (%s) is valid.\n", b.Height, b.Hash)
		return
	}

	if len(args) != 1 {
		fail("a solution file or --height is required")
	}

	sol := readSolution(args[0])
	seed := seedFlag()
	won, err := replay.Evaluate(ctx, factory, seed, sol, cfg)
	if err != nil {
		fail("%v", err)
	}
	if !won {
		fail("solution does not win under seed %s (%d frames)", seed, len(sol))
	}
	fmt.Printf("Solution wins under seed %s in %d frames (%s of game time).\n", seed, len(sol), sol.Duration())
}
