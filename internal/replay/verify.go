// Package replay drives a simulation through stored and live input: seeded
// replay verification, controllable playback, live recording with debounce,
// abort and fast-forward, and headless evaluation of finished solutions.
package replay

import (
	"errors"
	"fmt"

	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
)

// ErrDesync reports that a seeded replay recomputed a different pad than the
// one stored. It is not retriable for the same seed and solution.
var ErrDesync = errors.New("replay: desync")

// DesyncError describes where a replay diverged. It matches ErrDesync with
// errors.Is.
type DesyncError struct {
	Step       int
	Stored     core.Pad
	Recomputed core.Pad
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("replay: desync at step %d: stored %v, recomputed %v", e.Step, e.Stored, e.Recomputed)
}

// Is reports whether target is ErrDesync.
func (e *DesyncError) Is(target error) bool {
	return target == ErrDesync
}

// Verifier applies and checks the seed's RNG perturbation. Each call to
// Effective or Verify consumes one step of the engine's RNG stream, so
// exactly one of them must be called per simulation step.
type Verifier struct {
	eng  engine.Engine
	seed core.Seed
}

// NewVerifier creates a verifier for eng running under seed.
func NewVerifier(eng engine.Engine, seed core.Seed) *Verifier {
	return &Verifier{eng: eng, seed: seed}
}

// Effective returns the pad to apply and record for a live input.
func (v *Verifier) Effective(pad core.Pad) core.Pad {
	if !v.seed.Set {
		return pad
	}
	return v.eng.RNGPad(pad)
}

// Verify checks a stored pad against its recomputation.
func (v *Verifier) Verify(step int, stored core.Pad) error {
	if !v.seed.Set {
		return nil
	}
	recomputed := v.eng.RNGPad(stored)
	if !recomputed.Equal(stored) {
		return &DesyncError{Step: step, Stored: stored, Recomputed: recomputed}
	}
	return nil
}
