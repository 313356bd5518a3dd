package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Gumbo64/sm64-crypto/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve mining sessions over SSH",
	Long: `Start an SSH server that lets users connect and mine.

Each SSH connection mines under its SSH user name. All sessions share the
server's chain, so a block found by one session interrupts the others.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.sm64crypto/host_key

Examples:
  sm64miner serve                           # Listen on :23234 with auto-generated key
  sm64miner serve --ssh :2222               # Listen on port 2222
  sm64miner serve --host-key ./my_host_key  # Use specific host key
  sm64miner serve --db ./chain.db           # Use specific database

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(_ *cobra.Command, _ []string) {
	cfg := loadConfig()

	logger, closeLog := newLogger(false)
	defer closeLog()

	store := openStore(cfg)
	defer store.Close()

	srvCfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
		Miner:       cfg,
	}

	server, err := tui.NewSSHServer(srvCfg, store, logger)
	if err != nil {
		fail("creating server: %v", err)
	}

	fmt.Printf("Starting sm64miner SSH server on %s\n", server.Addr())
	fmt.Println("Connect with: ssh localhost -p 23234")
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fail("server error: %v", err)
	}
}
