// sm64miner mines proof-of-play blocks: it records seeded runs of a
// frame-stepped simulation and submits winning input sequences to a local
// chain.
//
// Usage:
//
//	sm64miner mine             - Mine interactively against the local chain
//	sm64miner record           - Record a single seed to a solution file
//	sm64miner verify <file>    - Replay a solution file headlessly
//	sm64miner blocks           - Print the local chain
//	sm64miner explore          - Browse blocks and attempts
//	sm64miner engines          - List available simulations
//	sm64miner config           - Print the default configuration
//	sm64miner serve            - Serve mining sessions over SSH
//
// Global flags:
//
//	--config <path>     - Configuration file (default: search path)
//	--db <path>         - Chain database (default: ~/.sm64crypto/chain.db)
//	--engine <id>       - Simulation to mine with
//	--name <name>       - Miner name blocks are credited to
//	--log-level <lvl>   - debug, info, warn or error
//	--log-file <path>   - Log file for interactive commands
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Gumbo64/sm64-crypto/internal/config"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
	"github.com/Gumbo64/sm64-crypto/internal/storage"

	// Import simulations to register them
	_ "github.com/Gumbo64/sm64-crypto/internal/sim"
)

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagEngine   string
	flagName     string
	flagLogLevel string
	flagLogFile  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sm64miner",
	Short: "sm64miner - Proof-of-play mining in your terminal",
	Long: `sm64miner mines blocks by playing: every block carries a seed, and the
first input sequence that wins the seeded run is the proof of work.

Available commands:
  mine     - Mine interactively against the local chain
  record   - Record a single seed to a solution file
  verify   - Replay a solution file headlessly
  blocks   - Print the local chain
  explore  - Browse blocks and attempts
  engines  - List available simulations
  config   - Print the default configuration
  serve    - Serve mining sessions over SSH

Examples:
  sm64miner mine --name numnum
  sm64miner record --seed 22 --out run.bin
  sm64miner verify run.bin --seed 22
  sm64miner serve --ssh :2222`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML (default: search path)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to chain database (default: from config)")
	rootCmd.PersistentFlags().StringVar(&flagEngine, "engine", "", "Simulation engine ID (default: from config)")
	rootCmd.PersistentFlags().StringVar(&flagName, "name", "", "Miner name (default: from config, then OS user)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "~/.sm64crypto/miner.log", "Log file used while the TUI owns the terminal")

	// Add subcommands
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(blocksCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(enginesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

// fail prints an error and exits.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// loadConfig loads .env and the YAML config, then applies flag overrides.
func loadConfig() config.Config {
	if err := config.LoadDotEnv(); err != nil {
		fail("%v", err)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		fail("%v", err)
	}

	if flagDBPath != "" {
		cfg.Miner.DBPath = flagDBPath
	}
	if flagEngine != "" {
		cfg.Miner.Engine = flagEngine
	}
	if flagName != "" {
		cfg.Miner.Name = flagName
	}
	if cfg.Miner.Name == "" {
		cfg.Miner.Name = "anonymous"
		if u, err := user.Current(); err == nil && u.Username != "" {
			cfg.Miner.Name = u.Username
		}
	}
	return cfg
}

// engineFactory returns the configured simulation, or exits.
func engineFactory(cfg config.Config) engine.Factory {
	if !engine.Exists(cfg.Miner.Engine) {
		fmt.Fprintf(os.Stderr, "Error: unknown engine %q\n", cfg.Miner.Engine)
		fmt.Fprintln(os.Stderr, "Run 'sm64miner engines' to see available engines.")
		os.Exit(1)
	}
	return engine.Named(cfg.Miner.Engine)
}

// openStore opens the chain database, or exits.
func openStore(cfg config.Config) *storage.Store {
	store, err := storage.Open(cfg.Miner.DBPath)
	if err != nil {
		fail("opening chain database: %v", err)
	}
	return store
}

// newLogger creates the command logger. Interactive commands log to
// --log-file since the TUI owns the terminal.
func newLogger(interactive bool) (*log.Logger, func()) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		fail("%v", err)
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	if interactive {
		path, err := config.ExpandHome(flagLogFile)
		if err != nil {
			fail("%v", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fail("creating log directory: %v", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			fail("opening log file: %v", err)
		}
		w = f
		closeFn = func() { f.Close() }
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "sm64miner",
		Level:           level,
	})
	return logger, closeFn
}

// terminalSize returns the terminal size, or 80x24.
func terminalSize() (int, int) {
	width, height := 80, 24 // Defaults
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width = w
		height = h
	}
	return width, height
}
