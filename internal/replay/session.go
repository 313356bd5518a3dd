package replay

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/Gumbo64/sm64-crypto/internal/config"
	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
	"github.com/Gumbo64/sm64-crypto/internal/pacer"
)

// Outcome is how a playback or recording ended. Interruption, abort and
// expiry are outcomes, not errors.
type Outcome int

const (
	OutcomeWon         Outcome = iota
	OutcomeExhausted           // Playback ran out of stored input
	OutcomeResumed             // Player took control during playback
	OutcomeInterrupted         // Kill signal
	OutcomeAborted             // Abort button during live recording
	OutcomeExpired             // Solution reached the time budget
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWon:
		return "won"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeResumed:
		return "resumed"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeAborted:
		return "aborted"
	case OutcomeExpired:
		return "expired"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// HostFunc creates the frame source for one pacer run.
type HostFunc func() pacer.Host

// Session runs playbacks and recordings against engines from one factory.
// A session runs one attempt at a time.
type Session struct {
	factory engine.Factory
	cfg     config.Config
	host    HostFunc
	input   engine.Controller
	target  engine.RenderTarget
	kill    func() bool
	speed   *core.Speed
	logger  *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithHost sets the frame source. Defaults to a wall-clock ticker at the
// configured host rate.
func WithHost(h HostFunc) Option {
	return func(s *Session) { s.host = h }
}

// WithInput sets the live controller handed to each engine.
func WithInput(c engine.Controller) Option {
	return func(s *Session) { s.input = c }
}

// WithTarget sets the render target handed to each engine.
func WithTarget(t engine.RenderTarget) Option {
	return func(s *Session) { s.target = t }
}

// WithKill sets the kill signal, checked once per step.
func WithKill(kill func() bool) Option {
	return func(s *Session) { s.kill = kill }
}

// WithSpeed shares the speed cell, so a UI can display it.
func WithSpeed(sp *core.Speed) Option {
	return func(s *Session) { s.speed = sp }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates a session.
func NewSession(factory engine.Factory, cfg config.Config, opts ...Option) *Session {
	s := &Session{
		factory: factory,
		cfg:     cfg,
		input:   engine.NoInput,
		kill:    func() bool { return false },
		speed:   core.NewSpeed(1),
	}
	s.host = func() pacer.Host { return pacer.NewTickerHost(cfg.Pacer.HostRate) }
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	return s
}

// Speed returns the shared speed cell.
func (s *Session) Speed() *core.Speed {
	return s.speed
}

// newEngine instantiates a fresh engine for seed. Failures other than
// cancellation match engine.ErrInstantiation.
func (s *Session) newEngine(ctx context.Context, seed core.Seed) (engine.Engine, error) {
	eng, err := s.factory(ctx, engine.Options{
		Seed:   seed,
		RNG:    s.cfg.RNG,
		Input:  s.input,
		Target: s.target,
	})
	switch {
	case err == nil:
		return eng, nil
	case errors.Is(err, engine.ErrInstantiation), ctx.Err() != nil:
		return nil, err
	default:
		return nil, &engine.InstantiationError{Err: err}
	}
}

// run drives step through a pacer over a fresh host.
func (s *Session) run(ctx context.Context, step pacer.StepFunc) (int, error) {
	host := s.host()
	if st, ok := host.(interface{ Stop() }); ok {
		defer st.Stop()
	}
	return pacer.New(s.cfg.Pacer, host).Run(ctx, step, s.speed.Load)
}
