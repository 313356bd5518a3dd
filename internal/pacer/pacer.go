package pacer

import (
	"context"
	"fmt"

	"github.com/Gumbo64/sm64-crypto/internal/config"
)

// StepFunc executes one simulation step and reports whether the run is
// finished. A non-nil error aborts the run.
type StepFunc func() (finished bool, err error)

// SpeedFunc returns the current number of steps per frame of host time.
type SpeedFunc func() float64

// Pacer schedules simulation steps against host frame callbacks.
type Pacer struct {
	cfg  config.Pacer
	host Host
}

// New creates a pacer over the given host.
func New(cfg config.Pacer, host Host) *Pacer {
	return &Pacer{cfg: cfg, host: host}
}

// Run drives step until it reports finished, returning the number of steps
// executed. Time is measured in frames from the run's first host callback.
//
// On every callback the pacer catches up: while the current frame time is at
// least target+1/speed it steps once and advances target by 1/speed. If the
// host stalled for lag_threshold frames or more, target snaps to just behind
// the current time instead of replaying the backlog.
//
// Run returns ctx.Err() if the context ends while waiting for the host, and
// the step error if a step fails.
func (p *Pacer) Run(ctx context.Context, step StepFunc, speed SpeedFunc) (int, error) {
	var (
		origin  float64
		started bool
		target  float64
		steps   int
	)

	for {
		elapsed, err := p.host.NextFrame(ctx)
		if err != nil {
			return steps, err
		}

		now := elapsed.Seconds() * p.cfg.FrameRate
		if !started {
			origin = now
			started = true
		}
		now -= origin

		if now >= target+p.cfg.LagThreshold {
			// Coming back after inactivity: skip the backlog, leaving a small
			// margin so the next callbacks do not jitter.
			target = now - p.cfg.LagEpsilon
		}

		for {
			s := speed()
			if s <= 0 || now < target+1/s {
				break
			}

			finished, err := step()
			steps++
			if err != nil {
				return steps, fmt.Errorf("pacer: step %d: %w", steps, err)
			}
			if finished {
				return steps, nil
			}

			if s = speed(); s > 0 {
				target += 1 / s
			}
		}
	}
}
