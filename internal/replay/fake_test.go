package replay

import (
	"context"
	"sync"
	"time"

	"github.com/Gumbo64/sm64-crypto/internal/config"
	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
	"github.com/Gumbo64/sm64-crypto/internal/pacer"
)

// fakeEngine wins after a fixed number of steps regardless of input.
type fakeEngine struct {
	winAt   int // 0 never wins
	input   engine.Controller
	rng     func(call int, p core.Pad) core.Pad
	onStep  func(n int)
	steps   int
	applied core.Solution
	rngCall int
	audio   []bool
	closed  bool
}

func (f *fakeEngine) Step(p core.Pad) {
	f.steps++
	if f.onStep != nil {
		f.onStep(f.steps)
	}
	f.applied = append(f.applied, p)
}

func (f *fakeEngine) State() core.SimulationState {
	var st core.SimulationState
	if f.winAt > 0 && f.steps >= f.winAt {
		st.Stars = 1
	}
	return st
}

func (f *fakeEngine) ControllerPad() core.Pad {
	return f.input.Pad()
}

func (f *fakeEngine) RNGPad(p core.Pad) core.Pad {
	call := f.rngCall
	f.rngCall++
	if f.rng != nil {
		return f.rng(call, p)
	}
	return p
}

func (f *fakeEngine) SetAudioEnabled(enabled bool) {
	f.audio = append(f.audio, enabled)
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

// fakeFactory records every engine it creates.
type fakeFactory struct {
	winAt   int
	rng     func(call int, p core.Pad) core.Pad
	onStep  func(n int)
	engines []*fakeEngine
	opts    []engine.Options
}

func (ff *fakeFactory) New(ctx context.Context, opts engine.Options) (engine.Engine, error) {
	e := &fakeEngine{winAt: ff.winAt, input: opts.Controller(), rng: ff.rng, onStep: ff.onStep}
	ff.engines = append(ff.engines, e)
	ff.opts = append(ff.opts, opts)
	return e, nil
}

func (ff *fakeFactory) last() *fakeEngine {
	return ff.engines[len(ff.engines)-1]
}

// script is a controller returning one pad per call, then zero pads.
type script struct {
	mu    sync.Mutex
	pads  []core.Pad
	calls int
}

func (s *script) Pad() core.Pad {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	s.calls++
	if i < len(s.pads) {
		return s.pads[i]
	}
	return core.Pad{}
}

func press(b core.Button) core.Pad {
	return core.NewPad(b, 0, 0)
}

func stick(x int) core.Pad {
	return core.NewPad(0, x, 0)
}

// virtualHost steps without waiting on wall-clock time.
func virtualHost(interval time.Duration) Option {
	return WithHost(func() pacer.Host { return pacer.NewVirtualHost(interval) })
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Playback.MinSpeed = 2
	cfg.Playback.MaxSpeed = 10000
	return cfg
}

// numbered returns n distinct pads.
func numbered(n int) core.Solution {
	sol := make(core.Solution, n)
	for i := range sol {
		sol[i] = core.NewPad(0, i%core.StickMax, -(i % core.StickMax))
	}
	return sol
}
