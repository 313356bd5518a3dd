// Package config provides YAML-based configuration loading for the miner:
// RNG shaping forwarded to the simulation, frame pacing constants, playback
// speeds and mining options.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the full miner configuration. It is an immutable value: callers
// receive a copy and pass it down at construction time.
type Config struct {
	RNG      RNG      `yaml:"rng"`
	Pacer    Pacer    `yaml:"pacer"`
	Playback Playback `yaml:"playback"`
	Miner    Miner    `yaml:"miner"`
}

// RNG holds the options forwarded opaquely to the simulation at
// instantiation. The core only reads MaxSolutionTime, to bound recordings.
type RNG struct {
	MaxRandomAction int     `yaml:"max_random_action"`
	MaxWindowLength int     `yaml:"max_window_length"`
	AProb           float64 `yaml:"a_prob"`
	BProb           float64 `yaml:"b_prob"`
	ZProb           float64 `yaml:"z_prob"`
	MaxSolutionTime int     `yaml:"max_solution_time"` // seconds
	MaxNameLength   int     `yaml:"max_name_length"`
}

// MaxSolutionFrames returns the longest solution allowed, in 30 Hz steps.
func (r RNG) MaxSolutionFrames() int {
	return r.MaxSolutionTime * 30
}

// MaxSolutionBytes returns the encoded size of the longest allowed solution.
func (r RNG) MaxSolutionBytes() int {
	return r.MaxSolutionFrames() * 4
}

// SolutionTime returns MaxSolutionTime as a duration.
func (r RNG) SolutionTime() time.Duration {
	return time.Duration(r.MaxSolutionTime) * time.Second
}

// Pacer defines how wall-clock frames are converted into simulation steps.
type Pacer struct {
	FrameRate    float64 `yaml:"frame_rate"`    // Steps per second at speed 1
	HostRate     int     `yaml:"host_rate"`     // Host callbacks per second
	LagThreshold float64 `yaml:"lag_threshold"` // Backlog (in frames) that triggers a snap
	LagEpsilon   float64 `yaml:"lag_epsilon"`   // Margin left behind after a snap
}

// Playback defines replay and recording speeds.
type Playback struct {
	MinSpeed         float64 `yaml:"min_speed"`
	MaxSpeed         float64 `yaml:"max_speed"`
	FastForwardSpeed float64 `yaml:"fast_forward_speed"`
	ResumeMargin     float64 `yaml:"resume_margin"` // seconds
}

// ResumeMarginSteps returns how many recorded steps before the end of a
// controllable replay the speed drops to MinSpeed.
func (p Playback) ResumeMarginSteps() int {
	return int(p.ResumeMargin * p.MinSpeed * 30)
}

// Miner holds mining loop options.
type Miner struct {
	Name         string        `yaml:"name"`
	Engine       string        `yaml:"engine"`
	DBPath       string        `yaml:"db_path"`
	NewBlockPoll time.Duration `yaml:"new_block_poll"`
}

// Validation errors.
var (
	ErrInvalidRate  = errors.New("config: rates must be positive")
	ErrInvalidSpeed = errors.New("config: speeds must be positive")
	ErrInvalidProb  = errors.New("config: probabilities must be within [0, 1]")
	ErrInvalidRNG   = errors.New("config: invalid rng window")
)

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.Pacer.FrameRate <= 0 || c.Pacer.HostRate <= 0 || c.Pacer.LagThreshold <= 0 {
		return ErrInvalidRate
	}
	if c.Pacer.LagEpsilon < 0 || c.Pacer.LagEpsilon >= c.Pacer.LagThreshold {
		return fmt.Errorf("%w: lag_epsilon %v", ErrInvalidRate, c.Pacer.LagEpsilon)
	}

	p := c.Playback
	if p.MinSpeed <= 0 || p.MaxSpeed <= 0 || p.FastForwardSpeed <= 0 {
		return ErrInvalidSpeed
	}
	if p.MinSpeed > p.MaxSpeed {
		return fmt.Errorf("%w: min_speed %v exceeds max_speed %v", ErrInvalidSpeed, p.MinSpeed, p.MaxSpeed)
	}
	if p.ResumeMargin < 0 {
		return fmt.Errorf("%w: resume_margin %v", ErrInvalidSpeed, p.ResumeMargin)
	}

	r := c.RNG
	for _, prob := range []float64{r.AProb, r.BProb, r.ZProb} {
		if prob < 0 || prob > 1 {
			return fmt.Errorf("%w: %v", ErrInvalidProb, prob)
		}
	}
	if r.MaxWindowLength <= 0 || r.MaxRandomAction < 0 || r.MaxRandomAction > r.MaxWindowLength {
		return fmt.Errorf("%w: %d random actions in a window of %d", ErrInvalidRNG, r.MaxRandomAction, r.MaxWindowLength)
	}
	if r.MaxSolutionTime <= 0 || r.MaxNameLength <= 0 {
		return fmt.Errorf("%w: solution time and name length must be positive", ErrInvalidRNG)
	}

	return nil
}
