// Package miner runs the mining loop: ask the chain for a seed, record a run
// under that seed, submit the solution when the run is won, repeat.
package miner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Gumbo64/sm64-crypto/internal/config"
	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
	"github.com/Gumbo64/sm64-crypto/internal/replay"
	"github.com/Gumbo64/sm64-crypto/internal/storage"
)

// Ticket is what the chain hands out for one attempt.
type Ticket struct {
	Seed uint32
	RNG  config.RNG
}

// Chain is the mining collaborator.
type Chain interface {
	// StartMine opens a pending block on the current head and returns its seed.
	StartMine(ctx context.Context) (Ticket, error)
	// HasNewBlock reports whether the head moved since StartMine.
	HasNewBlock(ctx context.Context) (bool, error)
	// SubmitMine seals the pending block with solution.
	SubmitMine(ctx context.Context, seed uint32, solution core.Solution) error
	MaxSolutionTime() time.Duration
}

// Recorder records one seed to completion.
type Recorder interface {
	RecordLoop(ctx context.Context, seed core.Seed) (*replay.RecordResult, error)
}

// SessionFactory builds the recorder for one attempt. kill must be polled
// once per step.
type SessionFactory func(rng config.RNG, kill func() bool) Recorder

// Sessions returns a SessionFactory creating replay sessions on factory.
// The ticket's RNG options replace cfg.RNG.
func Sessions(factory engine.Factory, cfg config.Config, opts ...replay.Option) SessionFactory {
	return func(rng config.RNG, kill func() bool) Recorder {
		c := cfg
		c.RNG = rng
		all := append([]replay.Option{}, opts...)
		all = append(all, replay.WithKill(kill))
		return replay.NewSession(factory, c, all...)
	}
}

// Journal persists finished attempts.
type Journal interface {
	SaveAttempt(ctx context.Context, a storage.Attempt) error
}

// EventKind identifies a mining event.
type EventKind int

const (
	EventStarted EventKind = iota
	EventFinished
	EventSubmitted
	EventSubmitFailed
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventFinished:
		return "finished"
	case EventSubmitted:
		return "submitted"
	case EventSubmitFailed:
		return "submit failed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is published to the observer as attempts progress.
type Event struct {
	Kind      EventKind
	AttemptID uuid.UUID
	Seed      uint32
	Outcome   replay.Outcome
	Frames    int
	Err       error
	Time      time.Time
}

// Stats counts attempts since the miner was created.
type Stats struct {
	Attempts   int
	Wins       int
	Submitted  int
	Desyncs    int
	Interrupts int
}

// Miner drives attempts strictly one after another.
type Miner struct {
	chain    Chain
	sessions SessionFactory
	logger   *log.Logger
	observer func(Event)
	journal  Journal
	poll     time.Duration
	now      func() time.Time
	name     string

	mu    sync.Mutex
	stats Stats
}

// Option configures a Miner.
type Option func(*Miner)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Miner) { m.logger = l }
}

// WithObserver receives every event. It is called on the mining goroutine.
func WithObserver(fn func(Event)) Option {
	return func(m *Miner) { m.observer = fn }
}

// WithJournal records each finished attempt.
func WithJournal(j Journal) Option {
	return func(m *Miner) { m.journal = j }
}

// WithPoll sets the minimum interval between new-block checks.
func WithPoll(d time.Duration) Option {
	return func(m *Miner) { m.poll = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Miner) { m.now = now }
}

// WithName sets the miner name written to the journal.
func WithName(name string) Option {
	return func(m *Miner) { m.name = name }
}

// New creates a miner.
func New(chain Chain, sessions SessionFactory, opts ...Option) *Miner {
	m := &Miner{
		chain:    chain,
		sessions: sessions,
		logger:   log.New(io.Discard),
		poll:     250 * time.Millisecond,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Stats returns a snapshot of the counters.
func (m *Miner) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *Miner) count(fn func(*Stats)) {
	m.mu.Lock()
	fn(&m.stats)
	m.mu.Unlock()
}

// Mine runs attempts until cancel reports true, ctx is done or an engine
// cannot be created. A cancelled run returns nil; instantiation failures
// are returned as is.
func (m *Miner) Mine(ctx context.Context, cancel func() bool) error {
	for {
		if cancel() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		ticket, err := m.chain.StartMine(ctx)
		if err != nil {
			return fmt.Errorf("miner: start mine: %w", err)
		}

		if err := m.attempt(ctx, ticket, cancel); err != nil {
			return err
		}
	}
}

// attempt runs one seed. It returns an error only when mining must stop.
func (m *Miner) attempt(ctx context.Context, ticket Ticket, cancel func() bool) error {
	id := uuid.New()
	started := m.now()
	m.count(func(s *Stats) { s.Attempts++ })
	m.publish(Event{Kind: EventStarted, AttemptID: id, Seed: ticket.Seed, Time: started})
	m.logger.Info("attempt started", "attempt", id, "seed", ticket.Seed)

	rec := m.sessions(ticket.RNG, m.killSignal(ctx, cancel))
	res, err := rec.RecordLoop(ctx, core.SeedOf(ticket.Seed))

	attempt := storage.Attempt{
		ID:        id.String(),
		Miner:     m.name,
		Seed:      ticket.Seed,
		StartedAt: started,
	}

	switch {
	case errors.Is(err, engine.ErrInstantiation):
		m.logger.Error("engine failed to start", "err", err)
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, replay.ErrDesync):
		m.count(func(s *Stats) { s.Desyncs++ })
		m.logger.Warn("attempt desynced", "attempt", id, "seed", ticket.Seed, "err", err)
		attempt.Outcome = "desync"
		attempt.Error = err.Error()
		m.finish(ctx, attempt, Event{Kind: EventFinished, AttemptID: id, Seed: ticket.Seed, Err: err})
		return nil
	case err != nil:
		return fmt.Errorf("miner: attempt %s: %w", id, err)
	}

	attempt.Outcome = res.Outcome.String()
	attempt.Frames = len(res.Solution)
	ev := Event{Kind: EventFinished, AttemptID: id, Seed: ticket.Seed, Outcome: res.Outcome, Frames: len(res.Solution)}

	if !res.Won {
		if res.Outcome == replay.OutcomeInterrupted {
			m.count(func(s *Stats) { s.Interrupts++ })
		}
		m.logger.Info("attempt discarded", "attempt", id, "outcome", res.Outcome, "frames", len(res.Solution))
		m.finish(ctx, attempt, ev)
		return nil
	}

	m.count(func(s *Stats) { s.Wins++ })
	m.publish(withTime(ev, m.now()))

	if err := m.chain.SubmitMine(ctx, ticket.Seed, res.Solution); err != nil {
		m.logger.Error("submission failed", "attempt", id, "seed", ticket.Seed, "err", err)
		attempt.Error = err.Error()
		m.finish(ctx, attempt, Event{Kind: EventSubmitFailed, AttemptID: id, Seed: ticket.Seed, Outcome: res.Outcome, Frames: len(res.Solution), Err: err})
		return nil
	}

	m.count(func(s *Stats) { s.Submitted++ })
	m.logger.Info("block submitted", "attempt", id, "seed", ticket.Seed, "frames", len(res.Solution))
	attempt.Submitted = true
	m.finish(ctx, attempt, Event{Kind: EventSubmitted, AttemptID: id, Seed: ticket.Seed, Outcome: res.Outcome, Frames: len(res.Solution)})
	return nil
}

func withTime(ev Event, t time.Time) Event {
	ev.Time = t
	return ev
}

// finish journals the attempt and publishes ev.
func (m *Miner) finish(ctx context.Context, a storage.Attempt, ev Event) {
	a.FinishedAt = m.now()
	if m.journal != nil {
		if err := m.journal.SaveAttempt(context.WithoutCancel(ctx), a); err != nil {
			m.logger.Warn("cannot journal attempt", "attempt", a.ID, "err", err)
		}
	}
	m.publish(withTime(ev, a.FinishedAt))
}

func (m *Miner) publish(ev Event) {
	if m.observer != nil {
		m.observer(ev)
	}
}

// killSignal combines the caller's cancel with new-block detection. The
// chain is polled at most once per poll interval and a new block latches.
func (m *Miner) killSignal(ctx context.Context, cancel func() bool) func() bool {
	var last time.Time
	stale := false
	return func() bool {
		if stale || cancel() {
			return true
		}
		now := m.now()
		if !last.IsZero() && now.Sub(last) < m.poll {
			return false
		}
		last = now

		moved, err := m.chain.HasNewBlock(ctx)
		if err != nil {
			m.logger.Warn("cannot check for new blocks", "err", err)
			return false
		}
		if moved {
			m.logger.Info("new block on the chain, abandoning attempt")
		}
		stale = moved
		return stale
	}
}
