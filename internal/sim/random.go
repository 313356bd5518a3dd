package sim

import (
	"math"

	"github.com/Gumbo64/sm64-crypto/internal/config"
	"github.com/Gumbo64/sm64-crypto/internal/core"
)

// RandomAction perturbs pads from a seeded xorshift32 stream. Every window of
// MaxWindowLength steps holds up to MaxRandomAction steps whose pad is
// replaced by a random one.
type RandomAction struct {
	state uint32
	cfg   config.RNG

	windowLeft int
	randomLeft int
}

// NewRandomAction creates a stream seeded with seed.
func NewRandomAction(seed uint32, cfg config.RNG) *RandomAction {
	return &RandomAction{state: seed, cfg: cfg}
}

// next advances the xorshift32 stream.
func (r *RandomAction) next() uint32 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return x
}

// nextProb returns a value in [0, 1].
func (r *RandomAction) nextProb() float64 {
	return float64(r.next()) / math.MaxUint32
}

// nextStick returns a stick value in [-80, 80].
func (r *RandomAction) nextStick() int8 {
	return int8(int(r.next()%(2*core.StickMax+1)) - core.StickMax)
}

// isRandom decides whether the current step is a random action, spreading
// the remaining random actions over the remaining steps of the window.
func (r *RandomAction) isRandom() bool {
	if r.windowLeft == 0 {
		r.windowLeft = r.cfg.MaxWindowLength
		r.randomLeft = r.cfg.MaxRandomAction
	}

	prob := float64(r.randomLeft) / float64(r.windowLeft)
	random := r.nextProb() < prob
	if random {
		r.randomLeft--
	}
	r.windowLeft--

	return random
}

// Pad returns the effective pad for this step. The stream advances on every
// call.
func (r *RandomAction) Pad(p core.Pad) core.Pad {
	if !r.isRandom() {
		return p
	}

	var out core.Pad
	if r.nextProb() < r.cfg.AProb {
		out.Press(core.ButtonA)
	}
	if r.nextProb() < r.cfg.BProb {
		out.Press(core.ButtonB)
	}
	if r.nextProb() < r.cfg.ZProb {
		out.Press(core.ButtonZ)
	}
	out.StickX = r.nextStick()
	out.StickY = r.nextStick()
	return out
}
