package tui

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Gumbo64/sm64-crypto/internal/config"
	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
	"github.com/Gumbo64/sm64-crypto/internal/miner"
	"github.com/Gumbo64/sm64-crypto/internal/replay"
)

// eventBuffer bounds the events queued for the view. Events are dropped
// when the view falls behind; counters are read from the miner directly.
const eventBuffer = 64

// EventMsg carries a mining event to the view.
type EventMsg miner.Event

// DoneMsg is delivered once, after the mining loop returns.
type DoneMsg struct {
	Err error
}

// MineConfig holds what one mining session needs.
type MineConfig struct {
	Chain   miner.Chain
	Factory engine.Factory
	Config  config.Config
	Journal miner.Journal // optional
	Logger  *log.Logger   // optional
	Name    string
	Title   string
}

// Mining connects a miner, or a single recording, to a view: the keyboard
// is the engine's controller, the screen its render target.
type Mining struct {
	title    string
	screen   *Screen
	keyboard *Keyboard
	speed    *core.Speed
	miner    *miner.Miner // nil for a recording
	run      func(ctx context.Context) error
	msgs     chan tea.Msg
	stopped  atomic.Bool
	err      error                // set before msgs is closed
	result   *replay.RecordResult // set before msgs is closed
}

// NewMining wires a miner for cfg.
func NewMining(cfg MineConfig) *Mining {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	m := &Mining{
		title:    cfg.Title,
		screen:   &Screen{},
		keyboard: NewKeyboard(DefaultHold),
		speed:    core.NewSpeed(1),
		msgs:     make(chan tea.Msg, eventBuffer),
	}

	sessions := miner.Sessions(cfg.Factory, cfg.Config,
		replay.WithInput(m.keyboard),
		replay.WithTarget(m.screen),
		replay.WithSpeed(m.speed),
		replay.WithLogger(logger),
	)

	opts := []miner.Option{
		miner.WithLogger(logger),
		miner.WithObserver(func(ev miner.Event) { m.send(EventMsg(ev)) }),
		miner.WithPoll(cfg.Config.Miner.NewBlockPoll),
		miner.WithName(cfg.Name),
	}
	if cfg.Journal != nil {
		opts = append(opts, miner.WithJournal(cfg.Journal))
	}
	m.miner = miner.New(cfg.Chain, sessions, opts...)
	m.run = func(ctx context.Context) error {
		return m.miner.Mine(ctx, m.stopped.Load)
	}

	return m
}

// RecordConfig holds what a single-seed recording needs.
type RecordConfig struct {
	Factory engine.Factory
	Config  config.Config
	Seed    core.Seed
	Prefix  core.Solution
	Logger  *log.Logger // optional
	Title   string
}

// NewRecording wires a record loop on one seed. The result is available
// from Result once Run returns.
func NewRecording(cfg RecordConfig) *Mining {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	m := &Mining{
		title:    cfg.Title,
		screen:   &Screen{},
		keyboard: NewKeyboard(DefaultHold),
		speed:    core.NewSpeed(1),
		msgs:     make(chan tea.Msg, eventBuffer),
	}

	session := replay.NewSession(cfg.Factory, cfg.Config,
		replay.WithInput(m.keyboard),
		replay.WithTarget(m.screen),
		replay.WithSpeed(m.speed),
		replay.WithKill(m.stopped.Load),
		replay.WithLogger(logger),
	)

	m.run = func(ctx context.Context) error {
		id := uuid.New()
		m.send(EventMsg{Kind: miner.EventStarted, AttemptID: id, Seed: cfg.Seed.Value, Time: time.Now()})

		res, err := session.RecordLoopFrom(ctx, cfg.Seed, cfg.Prefix)
		if err != nil {
			return err
		}
		m.result = res
		m.send(EventMsg{Kind: miner.EventFinished, AttemptID: id, Seed: cfg.Seed.Value, Outcome: res.Outcome, Frames: len(res.Solution), Time: time.Now()})
		return nil
	}

	return m
}

// Result returns the recording's result, or nil while running, after a
// failure and for miners.
func (m *Mining) Result() *replay.RecordResult {
	return m.result
}

// Run mines until Stop is called, ctx is done or mining fails.
// Cancellation is not an error.
func (m *Mining) Run(ctx context.Context) error {
	err := m.run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	m.err = err
	close(m.msgs)
	return err
}

// Stop ends mining at the next step.
func (m *Mining) Stop() {
	m.stopped.Store(true)
}

// Stats returns the miner's counters, zero for a recording.
func (m *Mining) Stats() miner.Stats {
	if m.miner == nil {
		return miner.Stats{}
	}
	return m.miner.Stats()
}

func (m *Mining) send(msg tea.Msg) {
	select {
	case m.msgs <- msg:
	default:
	}
}

// waitForMsg delivers the next mining message to the view, then DoneMsg
// once the loop has returned.
func (m *Mining) waitForMsg() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.msgs
		if !ok {
			return DoneMsg{Err: m.err}
		}
		return msg
	}
}
