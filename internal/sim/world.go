package sim

import (
	"math/rand"

	"github.com/Gumbo64/sm64-crypto/internal/core"
)

// Physics constants, in world units per step.
const (
	RunSpeed    = 0.5  // Horizontal speed at full stick
	DashFactor  = 1.5  // Run multiplier while B is held
	JumpImpulse = 0.9  // Initial upward velocity of a jump
	Gravity     = 0.08 // Downward acceleration per step
	MaxFall     = 1.2  // Terminal velocity, also the ground-pound speed
)

// Runner dimensions.
const (
	RunnerW = 1.0
	RunnerH = 2.0
)

// defaultLayoutSeed is used by unseeded runs.
const defaultLayoutSeed = 22

// Layout is the static course: its length, the star and the spikes.
type Layout struct {
	Length float64
	Star   Box
	Spikes []Box
}

// GenerateLayout builds the course for a seed. Spikes are spaced so that a
// full-speed jump always clears them.
func GenerateLayout(seed uint32) Layout {
	rng := rand.New(rand.NewSource(int64(seed)))

	l := Layout{Length: 160}
	l.Star = Box{X: l.Length - 8 - float64(rng.Intn(4)), Y: 3, W: 1, H: 1}

	x := 16.0 + float64(rng.Intn(8))
	for x < l.Star.X-12 {
		w := 1.0 + float64(rng.Intn(2))
		l.Spikes = append(l.Spikes, Box{X: x, Y: 0, W: w, H: 1})
		x += 14 + float64(rng.Intn(14))
	}
	return l
}

// World is the simulated course and the runner on it.
type World struct {
	layout   Layout
	pos      core.Vec3
	vel      core.Vec3
	grounded bool
	stars    int32
	falls    int
	steps    int
}

// NewWorld places the runner at the start of the layout.
func NewWorld(layout Layout) *World {
	return &World{layout: layout, grounded: true}
}

// runner returns the runner's collision box.
func (w *World) runner() Box {
	return Box{X: float64(w.pos[0]), Y: float64(w.pos[1]), W: RunnerW, H: RunnerH}
}

// Step advances the world by one frame of input.
func (w *World) Step(p core.Pad) {
	w.steps++

	run := float64(p.StickX) / core.StickMax * RunSpeed
	if p.Pressed(core.ButtonB) {
		run *= DashFactor
	}
	vx := run
	vy := float64(w.vel[1])

	if p.Pressed(core.ButtonA) && w.grounded {
		vy = JumpImpulse
		w.grounded = false
	}

	if !w.grounded {
		if p.Pressed(core.ButtonZ) {
			vy = -MaxFall
		} else {
			vy -= Gravity
			if vy < -MaxFall {
				vy = -MaxFall
			}
		}
	}

	x := clamp(float64(w.pos[0])+vx, 0, w.layout.Length-RunnerW)
	y := float64(w.pos[1]) + vy
	if y <= 0 {
		y = 0
		vy = 0
		w.grounded = true
	}

	w.pos = core.Vec3{float32(x), float32(y), 0}
	w.vel = core.Vec3{float32(vx), float32(vy), 0}

	r := w.runner()
	for _, s := range w.layout.Spikes {
		if r.Intersects(s) {
			// Knocked back to the start
			w.pos = core.Vec3{}
			w.vel = core.Vec3{}
			w.grounded = true
			w.falls++
			return
		}
	}

	if w.stars == 0 && r.Intersects(w.layout.Star) {
		w.stars = 1
	}
}

// State returns a snapshot of the world.
func (w *World) State() core.SimulationState {
	return core.SimulationState{
		Stars:     w.stars,
		Pos:       w.pos,
		Vel:       w.vel,
		CameraPos: core.Vec3{w.pos[0] - 10, 4, -20},
		Course:    1,
		Act:       1,
		Area:      1,
	}
}
