// Package engine defines the capabilities the miner consumes from a
// frame-stepped simulation, and a registry of simulation factories.
// Simulations register themselves in init() functions, allowing the miner to
// instantiate them by ID without hardcoded dependencies.
package engine

import (
	"context"

	"github.com/Gumbo64/sm64-crypto/internal/config"
	"github.com/Gumbo64/sm64-crypto/internal/core"
)

// Engine is one running simulation instance. Instances are owned by the
// controller driving them and are never shared between attempts.
type Engine interface {
	// Step applies one frame of input and advances the simulation.
	Step(pad core.Pad)

	// State returns a snapshot of the simulation after the last step.
	State() core.SimulationState

	// ControllerPad returns the live human or hardware input.
	ControllerPad() core.Pad

	// RNGPad perturbs a candidate pad according to the seed's RNG stream.
	// It advances the stream, so it must be called exactly once per step.
	// Unseeded engines return the pad unchanged.
	RNGPad(pad core.Pad) core.Pad

	// SetAudioEnabled toggles the audio side channel.
	SetAudioEnabled(enabled bool)

	// Close releases the instance.
	Close() error
}

// Controller supplies live input.
type Controller interface {
	Pad() core.Pad
}

// ControllerFunc adapts a function to the Controller interface.
type ControllerFunc func() core.Pad

// Pad returns f().
func (f ControllerFunc) Pad() core.Pad {
	return f()
}

// NoInput is a controller that never presses anything.
var NoInput Controller = ControllerFunc(func() core.Pad { return core.Pad{} })

// Renderer draws the simulation's current frame. It may be called from a
// different goroutine than the one stepping the simulation.
type Renderer interface {
	Render(width, height int) *Frame
}

// RenderTarget receives the renderer of each new engine instance.
type RenderTarget interface {
	Attach(r Renderer)
}

// Options parameterize a new engine instance.
type Options struct {
	Seed   core.Seed
	RNG    config.RNG
	Input  Controller   // nil means NoInput
	Target RenderTarget // nil means headless
}

// Controller returns the live input source, never nil.
func (o Options) Controller() Controller {
	if o.Input == nil {
		return NoInput
	}
	return o.Input
}

// Factory creates a new engine instance.
type Factory func(ctx context.Context, opts Options) (Engine, error)
