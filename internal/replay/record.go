package replay

import (
	"context"

	"github.com/Gumbo64/sm64-crypto/internal/core"
)

// RecordResult is the end state of a recording. Solution holds the prefix
// plus every effective pad applied live.
type RecordResult struct {
	Won      bool
	Outcome  Outcome
	Solution core.Solution
	Steps    int
}

// Record replays prefix under player control, then records live input from
// where playback stopped until the run is won, aborted, interrupted or the
// solution reaches the configured time budget.
//
// Live pads are perturbed by the seed's RNG before being applied, and the
// perturbed pad is what gets recorded. The resume press that ended playback
// is masked until the button is seen released. Holding the fast-forward
// button runs at fast-forward speed with audio muted. The engine is closed
// when Record returns.
func (s *Session) Record(ctx context.Context, seed core.Seed, prefix core.Solution) (*RecordResult, error) {
	pb, err := s.Playback(ctx, seed, prefix, true)
	if err != nil {
		return nil, err
	}
	eng := pb.Engine
	defer eng.Close()

	res := &RecordResult{Outcome: pb.Outcome, Solution: pb.Solution, Steps: pb.Steps}
	switch pb.Outcome {
	case OutcomeWon:
		res.Won = true
		return res, nil
	case OutcomeInterrupted:
		return res, nil
	}

	verifier := NewVerifier(eng, seed)
	maxFrames := s.cfg.RNG.MaxSolutionFrames()
	sol := res.Solution
	masking := true
	fast := false

	s.speed.Store(1)
	defer func() {
		if fast {
			eng.SetAudioEnabled(true)
		}
	}()

	s.logger.Debug("live recording", "seed", seed, "prefix", len(sol))

	_, err = s.run(ctx, func() (bool, error) {
		if s.kill() {
			res.Outcome = OutcomeInterrupted
			return true, nil
		}
		if len(sol) >= maxFrames {
			res.Outcome = OutcomeExpired
			return true, nil
		}

		raw := eng.ControllerPad()
		if masking {
			if raw.Pressed(core.ResumeButton) {
				raw.Release(core.ResumeButton)
			} else {
				masking = false
			}
		}

		if raw.Pressed(core.AbortButton) {
			res.Outcome = OutcomeAborted
			return true, nil
		}

		if held := raw.Pressed(core.FastForwardButton); held != fast {
			fast = held
			if fast {
				s.speed.Store(s.cfg.Playback.FastForwardSpeed)
			} else {
				s.speed.Store(1)
			}
			eng.SetAudioEnabled(!fast)
		}

		pad := verifier.Effective(raw.Clone())
		eng.Step(pad)
		sol = append(sol, pad)
		res.Steps++

		if eng.State().HasWon() {
			res.Won = true
			res.Outcome = OutcomeWon
			return true, nil
		}
		return false, nil
	})
	res.Solution = sol
	if err != nil {
		return nil, err
	}

	s.logger.Debug("recording finished", "seed", seed, "outcome", res.Outcome, "frames", len(sol))
	return res, nil
}

// RecordLoop records under one seed until the run ends for a reason other
// than an abort. Each aborted partial solution is replayed as the prefix of
// the next recording.
func (s *Session) RecordLoop(ctx context.Context, seed core.Seed) (*RecordResult, error) {
	return s.RecordLoopFrom(ctx, seed, nil)
}

// RecordLoopFrom is RecordLoop starting from an existing partial solution.
func (s *Session) RecordLoopFrom(ctx context.Context, seed core.Seed, prefix core.Solution) (*RecordResult, error) {
	for {
		res, err := s.Record(ctx, seed, prefix)
		if err != nil {
			return nil, err
		}
		if res.Outcome != OutcomeAborted {
			return res, nil
		}

		s.logger.Info("attempt restarted from partial solution", "seed", seed, "frames", len(res.Solution))
		prefix = res.Solution
	}
}
