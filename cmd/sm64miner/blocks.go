package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Gumbo64/sm64-crypto/internal/core"
)

var flagBlocksLimit int

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Print the local chain",
	Long: `Display the most recent blocks of the local chain, newest first.

Examples:
  sm64miner blocks
  sm64miner blocks --limit 50`,
	Args: cobra.NoArgs,
	Run:  runBlocks,
}

func init() {
	blocksCmd.Flags().IntVarP(&flagBlocksLimit, "limit", "n", 10, "Number of blocks to show")
}

func runBlocks(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()

	store := openStore(cfg)
	defer store.Close()

	ctx := cmd.Context()
	blocks, err := store.Blocks(ctx, flagBlocksLimit)
	if err != nil {
		fail("retrieving blocks: %v", err)
	}

	if len(blocks) == 0 {
		fmt.Println("No blocks yet.")
		fmt.Println()
		fmt.Println("Run 'sm64miner mine' to create the chain and mine the first block!")
		return
	}

	// Calculate column widths
	maxMinerLen := 5 // "Miner" header
	for _, b := range blocks {
		if len(b.Miner) > maxMinerLen {
			maxMinerLen = len(b.Miner)
		}
	}

	// Print header
	fmt.Printf("  %-7s  %-12s  %-*s  %-10s  %-8s  %s\n", "Height", "Hash", maxMinerLen, "Miner", "Seed", "Time", "Mined")
	fmt.Printf("  %-7s  %-12s  %-*s  %-10s  %-8s  %s\n", "------", "----", maxMinerLen, "-----", "----", "----", "-----")

	now := time.Now()
	for _, b := range blocks {
		hash := b.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		sol := core.Solution(make([]core.Pad, len(b.Solution)/core.PadSize))
		fmt.Printf("  %-7s  %-12s  %-*s  %-10d  %-8s  %s\n",
			humanize.Comma(b.Height),
			hash,
			maxMinerLen, b.Miner,
			b.Seed,
			sol.Duration().Truncate(time.Second),
			humanize.RelTime(time.Unix(b.Timestamp, 0), now, "ago", "from now"),
		)
	}

	fmt.Println()
	if stats, err := store.AttemptStats(ctx); err == nil && stats.Attempts > 0 {
		fmt.Printf("Attempts: %s  won: %s  submitted: %s\n",
			humanize.Comma(int64(stats.Attempts)),
			humanize.Comma(int64(stats.Won)),
			humanize.Comma(int64(stats.Submitted)))
	}
}
