package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/Gumbo64/sm64-crypto/internal/miner"
	"github.com/Gumbo64/sm64-crypto/internal/replay"
)

// Mining view layout
const (
	redrawRate  = 30 // Frames per second
	maxEvents   = 3  // Event log lines
	chromeLines = 3 + maxEvents
	minFrameH   = 4
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	statStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	eventStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is the Bubble Tea model of a mining session.
type Model struct {
	mining   *Mining
	keys     KeyMap
	help     help.Model
	events   []string
	seed     uint32
	width    int
	height   int
	done     bool
	err      error
	quitting bool
}

// NewModel creates the view of m.
func NewModel(m *Mining, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		mining: m,
		keys:   DefaultKeyMap(),
		help:   h,
		width:  width,
		height: height,
	}
}

// Init starts redrawing and listening for mining events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(redrawRate), m.mining.waitForMsg())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		if m.quitting {
			return m, nil
		}
		return m, tickCmd(redrawRate)

	case EventMsg:
		m.addEvent(miner.Event(msg))
		return m, m.mining.waitForMsg()

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		m.mining.Stop()
		m.mining.keyboard.ReleaseAll()
		return m, tea.Quit
	}
	if msg.String() == "?" {
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if in, ok := m.keys.Input(msg); ok {
		m.mining.keyboard.Press(in)
	}
	return m, nil
}

func (m *Model) addEvent(ev miner.Event) {
	var line string
	id := ev.AttemptID.String()[:8]
	switch ev.Kind {
	case miner.EventStarted:
		m.seed = ev.Seed
		line = fmt.Sprintf("attempt %s started on seed %d", id, ev.Seed)
	case miner.EventFinished:
		if ev.Err != nil {
			line = fmt.Sprintf("attempt %s failed: %v", id, ev.Err)
		} else {
			line = fmt.Sprintf("attempt %s %s after %d frames", id, ev.Outcome, ev.Frames)
		}
	case miner.EventSubmitted:
		line = fmt.Sprintf("attempt %s mined a block (%d frames)", id, ev.Frames)
	case miner.EventSubmitFailed:
		line = fmt.Sprintf("attempt %s rejected: %v", id, ev.Err)
	}

	line = ev.Time.Format("15:04:05") + "  " + line
	m.events = append(m.events, line)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

// speedLabel describes what the pacer is doing.
func (m Model) speedLabel() string {
	switch s := m.mining.speed.Load(); {
	case s == 1:
		return "live"
	case s > 1:
		return fmt.Sprintf("x%g", s)
	default:
		return "paused"
	}
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := m.mining.title
	if title == "" {
		title = "sm64 miner"
	}
	header := fmt.Sprintf("%s  seed %d  %s", title, m.seed, m.speedLabel())
	b.WriteString(titleStyle.Render(truncate(header, m.width)))
	b.WriteString("\n")

	frameH := m.height - chromeLines
	if frameH < minFrameH {
		frameH = minFrameH
	}
	if f := m.mining.screen.Frame(m.width, frameH); f != nil {
		b.WriteString(RenderFrame(f))
	} else {
		b.WriteString(strings.Repeat("\n", frameH-1))
	}
	b.WriteString("\n")

	stats := "recording: restarting replays your inputs so far"
	if m.mining.miner != nil {
		st := m.mining.Stats()
		stats = fmt.Sprintf("attempts %d · wins %d · blocks %d · desyncs %d · interrupted %d",
			st.Attempts, st.Wins, st.Submitted, st.Desyncs, st.Interrupts)
	}
	b.WriteString(statStyle.Render(truncate(stats, m.width)))
	b.WriteString("\n")

	for i := range maxEvents {
		if i < len(m.events) {
			b.WriteString(eventStyle.Render(truncate(m.events[i], m.width)))
		}
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render(truncate("stopped: "+m.err.Error(), m.width)))
	case m.done:
		b.WriteString(helpStyle.Render("stopped, press q to exit"))
	default:
		b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	}

	return b.String()
}

// truncate cuts s to width runes.
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}

// RunMine runs the mining view and the miner together until the user quits
// or mining fails.
func RunMine(ctx context.Context, cfg MineConfig, width, height int, opts ...tea.ProgramOption) error {
	return run(ctx, NewMining(cfg), width, height, opts...)
}

// RunRecord runs a recording in the mining view. The result may be nil
// when the user quits mid-recording.
func RunRecord(ctx context.Context, cfg RecordConfig, width, height int, opts ...tea.ProgramOption) (*replay.RecordResult, error) {
	rec := NewRecording(cfg)
	if err := run(ctx, rec, width, height, opts...); err != nil {
		return nil, err
	}
	return rec.Result(), nil
}

// run drives the view and mining together. Quitting the view stops mining.
func run(ctx context.Context, mining *Mining, width, height int, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(NewModel(mining, width, height), opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		mining.Stop()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return mining.Run(gctx)
	})

	return g.Wait()
}
