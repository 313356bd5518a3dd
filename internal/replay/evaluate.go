package replay

import (
	"context"
	"time"

	"github.com/Gumbo64/sm64-crypto/internal/config"
	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
	"github.com/Gumbo64/sm64-crypto/internal/pacer"
)

// Evaluate replays solution headlessly at max speed on a virtual clock and
// reports whether it wins. It never waits on wall-clock time.
func Evaluate(ctx context.Context, factory engine.Factory, seed core.Seed, solution core.Solution, cfg config.Config) (bool, error) {
	interval := time.Second / 60
	if cfg.Pacer.HostRate > 0 {
		interval = time.Second / time.Duration(cfg.Pacer.HostRate)
	}
	s := NewSession(factory, cfg, WithHost(func() pacer.Host {
		return pacer.NewVirtualHost(interval)
	}))

	res, err := s.Playback(ctx, seed, solution, false)
	if err != nil {
		return false, err
	}
	defer res.Engine.Close()

	return res.Won, nil
}
