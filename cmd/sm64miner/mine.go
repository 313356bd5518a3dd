package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Gumbo64/sm64-crypto/internal/chain"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
	"github.com/Gumbo64/sm64-crypto/internal/platform/tui"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Mine interactively against the local chain",
	Long: `Start mining. Each attempt replays the seeded run from the chain head;
finish it before the time budget runs out and the solution is submitted as
the next block. A new block from another miner abandons the attempt.

Controls:
  Arrows/WASD  - Move
  Space/J      - Jump (A)
  K            - Dash (B)
  L            - Ground pound (Z)
  Enter        - Take control during a replay (Start)
  X            - Restart and replay your inputs so far
  F            - Hold to fast forward
  Q/Ctrl+C     - Quit

Examples:
  sm64miner mine
  sm64miner mine --name numnum --db ./chain.db`,
	Args: cobra.NoArgs,
	Run:  runMine,
}

func runMine(cmd *cobra.Command, _ []string) {
	cfg := loadConfig()
	factory := engineFactory(cfg)

	logger, closeLog := newLogger(true)
	defer closeLog()

	store := openStore(cfg)
	defer store.Close()

	ctx := cmd.Context()
	ledger, err := chain.New(ctx, store, factory, cfg, cfg.Miner.Name, chain.WithLogger(logger))
	if err != nil {
		fail("%v", err)
	}

	width, height := terminalSize()
	err = tui.RunMine(ctx, tui.MineConfig{
		Chain:   ledger,
		Factory: factory,
		Config:  cfg,
		Journal: store,
		Logger:  logger,
		Name:    cfg.Miner.Name,
		Title:   "sm64 miner · " + cfg.Miner.Name,
	}, width, height)
	if err != nil {
		if errors.Is(err, engine.ErrInstantiation) {
			fail("cannot start the %s engine: %v", cfg.Miner.Engine, err)
		}
		fail("%v", err)
	}
}
