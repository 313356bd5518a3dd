package replay

import (
	"context"

	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
)

// PlaybackResult is the end state of a playback. The engine stays open so a
// recording can continue from it; the caller must close it.
type PlaybackResult struct {
	Engine   engine.Engine
	Won      bool
	Outcome  Outcome
	Solution core.Solution // Truncated at the resume or win step
	Steps    int
}

// Playback replays solution on a fresh engine. Playback runs at max speed
// with audio muted. When controllable, pressing the resume button hands
// control back to the player, and the last stretch of the solution plays at
// min speed so the player has time to react.
//
// A seeded playback verifies every pad and fails with ErrDesync on the first
// mismatch. Engine creation failures are returned unchanged and match
// engine.ErrInstantiation.
func (s *Session) Playback(ctx context.Context, seed core.Seed, solution core.Solution, controllable bool) (*PlaybackResult, error) {
	eng, err := s.newEngine(ctx, seed)
	if err != nil {
		return nil, err
	}

	res, err := s.playback(ctx, eng, seed, solution, controllable)
	if err != nil {
		eng.Close()
		return nil, err
	}
	return res, nil
}

func (s *Session) playback(ctx context.Context, eng engine.Engine, seed core.Seed, solution core.Solution, controllable bool) (*PlaybackResult, error) {
	res := &PlaybackResult{Engine: eng, Outcome: OutcomeExhausted, Solution: solution.Clone()}
	verifier := NewVerifier(eng, seed)
	margin := s.cfg.Playback.ResumeMarginSteps()

	s.speed.Store(s.cfg.Playback.MaxSpeed)
	eng.SetAudioEnabled(false)
	defer eng.SetAudioEnabled(true)

	i := 0
	_, err := s.run(ctx, func() (bool, error) {
		if i >= len(solution) {
			res.Outcome = OutcomeExhausted
			return true, nil
		}
		if s.kill() {
			res.Outcome = OutcomeInterrupted
			return true, nil
		}

		pad := solution[i]
		if err := verifier.Verify(i, pad); err != nil {
			return true, err
		}
		eng.Step(pad)
		i++
		res.Steps = i

		if eng.State().HasWon() {
			res.Won = true
			res.Outcome = OutcomeWon
			res.Solution = solution.Truncate(i)
			return true, nil
		}

		if controllable {
			if eng.ControllerPad().Pressed(core.ResumeButton) {
				res.Outcome = OutcomeResumed
				res.Solution = solution.Truncate(i)
				return true, nil
			}
			if len(solution)-margin < i {
				s.speed.Store(s.cfg.Playback.MinSpeed)
			}
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("playback finished", "seed", seed, "outcome", res.Outcome, "steps", res.Steps, "frames", len(solution))
	return res, nil
}
