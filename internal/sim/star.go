// Package sim implements "star", a small deterministic side-scrolling
// simulation used as the reference engine. The runner must reach the star at
// the end of a seeded course of spikes; touching a spike knocks it back to the
// start. Seeded runs perturb input with the random-action RNG.
package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/Gumbo64/sm64-crypto/internal/config"
	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
)

// ID is the registry identifier of the star engine.
const ID = "star"

func init() {
	engine.Register(ID, "Star Runner", New)
}

// Engine is a running star simulation. It is safe to render from another
// goroutine while the owning controller steps it.
type Engine struct {
	mu     sync.Mutex
	world  *World
	random *RandomAction // nil when unseeded
	input  engine.Controller
	audio  bool
	closed bool
}

// New is the engine.Factory for the star engine.
func New(ctx context.Context, opts engine.Options) (engine.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layoutSeed := uint32(defaultLayoutSeed)
	if opts.Seed.Set {
		if err := validateRNG(opts.RNG); err != nil {
			return nil, err
		}
		layoutSeed = opts.Seed.Value
	}

	return NewWithLayout(opts, GenerateLayout(layoutSeed)), nil
}

// NewWithLayout creates an engine on a fixed course.
func NewWithLayout(opts engine.Options, layout Layout) *Engine {
	e := &Engine{
		world: NewWorld(layout),
		input: opts.Controller(),
		audio: true,
	}
	if opts.Seed.Set {
		e.random = NewRandomAction(opts.Seed.Value, opts.RNG)
	}
	if opts.Target != nil {
		opts.Target.Attach(e)
	}
	return e
}

func validateRNG(r config.RNG) error {
	if r.MaxWindowLength <= 0 || r.MaxRandomAction < 0 || r.MaxRandomAction > r.MaxWindowLength {
		return fmt.Errorf("sim: %d random actions in a window of %d", r.MaxRandomAction, r.MaxWindowLength)
	}
	for _, p := range []float64{r.AProb, r.BProb, r.ZProb} {
		if p < 0 || p > 1 {
			return fmt.Errorf("sim: probability %v out of range", p)
		}
	}
	return nil
}

// Step applies one frame of input. Steps after Close are ignored.
func (e *Engine) Step(p core.Pad) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.world.Step(p)
}

// State returns the current simulation state.
func (e *Engine) State() core.SimulationState {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.world.State()
}

// ControllerPad returns the live input.
func (e *Engine) ControllerPad() core.Pad {
	return e.input.Pad()
}

// RNGPad returns the effective pad for the next step.
func (e *Engine) RNGPad(p core.Pad) core.Pad {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.random == nil {
		return p
	}
	return e.random.Pad(p)
}

// SetAudioEnabled toggles the audio indicator.
func (e *Engine) SetAudioEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.audio = enabled
}

// AudioEnabled reports the audio state.
func (e *Engine) AudioEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.audio
}

// Steps returns the number of steps applied so far.
func (e *Engine) Steps() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.world.steps
}

// Close stops the engine. Closing twice is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	return nil
}
