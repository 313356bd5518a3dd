package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/miner.yaml
var defaultMinerYAML []byte

// Default returns the built-in configuration, matching defaults/miner.yaml.
func Default() Config {
	return Config{
		RNG: RNG{
			MaxRandomAction: 5,
			MaxWindowLength: 100,
			AProb:           0.5,
			BProb:           0.5,
			ZProb:           0.2,
			MaxSolutionTime: 600, // 10 minutes
			MaxNameLength:   64,
		},
		Pacer: Pacer{
			FrameRate:    30,
			HostRate:     60,
			LagThreshold: 100,
			LagEpsilon:   0.01,
		},
		Playback: Playback{
			MinSpeed:         2,
			MaxSpeed:         10000,
			FastForwardSpeed: 10,
			ResumeMargin:     10,
		},
		Miner: Miner{
			Engine:       "star",
			DBPath:       "~/.sm64crypto/chain.db",
			NewBlockPoll: 250 * time.Millisecond,
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultMinerYAML
}
