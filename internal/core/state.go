package core

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// Seed parameterizes the simulation's deterministic RNG stream.
// The zero value is Unseeded.
type Seed struct {
	Value uint32
	Set   bool
}

// Unseeded disables RNG perturbation and replay verification.
var Unseeded = Seed{}

// SeedOf returns a set seed with the given value.
func SeedOf(v uint32) Seed {
	return Seed{Value: v, Set: true}
}

func (s Seed) String() string {
	if !s.Set {
		return "unseeded"
	}
	return strconv.FormatUint(uint64(s.Value), 10)
}

// Vec3 is a position or velocity in simulation space.
type Vec3 [3]float32

// SimulationState is a read-only snapshot of the simulation. Only HasWon is
// used for control decisions; the remaining fields are telemetry.
type SimulationState struct {
	Stars     int32
	Pos       Vec3
	Vel       Vec3
	CameraPos Vec3
	CameraYaw int16
	InCredits bool
	Course    int16
	Act       int16
	Area      int16
}

// HasWon reports whether at least one star has been collected.
func (s SimulationState) HasWon() bool {
	return s.Stars > 0
}

func (s SimulationState) String() string {
	return fmt.Sprintf("State{stars=%d pos=(%.1f, %.1f, %.1f) vel=(%.1f, %.1f, %.1f) course=%d act=%d area=%d}",
		s.Stars, s.Pos[0], s.Pos[1], s.Pos[2], s.Vel[0], s.Vel[1], s.Vel[2], s.Course, s.Act, s.Area)
}

// Speed is the number of simulation steps executed per frame of wall-clock
// time. It is written by the controller that owns the current attempt and read
// by the frame pacer, possibly from another goroutine.
type Speed struct {
	bits atomic.Uint64
}

// NewSpeed returns a speed cell holding v.
func NewSpeed(v float64) *Speed {
	s := &Speed{}
	s.Store(v)
	return s
}

// Load returns the current speed.
func (s *Speed) Load() float64 {
	return math.Float64frombits(s.bits.Load())
}

// Store replaces the current speed.
func (s *Speed) Store(v float64) {
	s.bits.Store(math.Float64bits(v))
}
