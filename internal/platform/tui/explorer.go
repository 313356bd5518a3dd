package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/storage"
)

// Explorer layout constants
const (
	minWidthForSidebar = 90  // Minimum width to show the stats sidebar
	sidebarWidth       = 26  // Width of the stats sidebar
	maxRows            = 200 // Max rows to load per tab
)

// explorerTab is a table shown by the explorer.
type explorerTab int

const (
	tabBlocks explorerTab = iota
	tabAttempts
)

var explorerTabs = []string{"Blocks", "Attempts"}

// ExplorerKeyMap defines the key bindings for the explorer.
type ExplorerKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Reload  key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ExplorerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextTab, k.Reload, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ExplorerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextTab, k.PrevTab},
		{k.Reload, k.Quit},
	}
}

// DefaultExplorerKeyMap returns default key bindings.
func DefaultExplorerKeyMap() ExplorerKeyMap {
	return ExplorerKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev tab"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ExplorerModel is the Bubble Tea model for browsing the local chain and
// the attempt journal.
type ExplorerModel struct {
	store       *storage.Store
	tab         explorerTab
	blocks      []storage.Block
	attempts    []storage.Attempt
	stats       storage.AttemptStats
	loadErr     error
	now         func() time.Time
	table       table.Model
	help        help.Model
	keys        ExplorerKeyMap
	width       int
	height      int
	quitting    bool
	showSidebar bool
}

// NewExplorerModel creates a new explorer model.
func NewExplorerModel(store *storage.Store, width, height int) ExplorerModel {
	h := help.New()
	h.ShowAll = false

	m := ExplorerModel{
		store:       store,
		now:         time.Now,
		keys:        DefaultExplorerKeyMap(),
		help:        h,
		width:       width,
		height:      height,
		showSidebar: width >= minWidthForSidebar,
	}

	m.table = m.createTable()
	m.load()

	return m
}

// columns returns the columns of the current tab.
func (m *ExplorerModel) columns() []table.Column {
	if m.tab == tabAttempts {
		return []table.Column{
			{Title: "Attempt", Width: 10},
			{Title: "Seed", Width: 11},
			{Title: "Outcome", Width: 12},
			{Title: "Game time", Width: 10},
			{Title: "Block", Width: 6},
			{Title: "Finished", Width: 16},
		}
	}
	return []table.Column{
		{Title: "Height", Width: 7},
		{Title: "Hash", Width: 12},
		{Title: "Miner", Width: 14},
		{Title: "Seed", Width: 11},
		{Title: "Game time", Width: 10},
		{Title: "Size", Width: 8},
		{Title: "Mined", Width: 16},
	}
}

// createTable creates a new table for the current tab.
func (m *ExplorerModel) createTable() table.Model {
	height := m.height - 8 // Leave room for header, help, and margins
	if height < 3 {
		height = 3
	}

	t := table.New(
		table.WithColumns(m.columns()),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	// Table styles
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// load reads blocks, attempts and stats from the store.
func (m *ExplorerModel) load() {
	m.loadErr = nil
	if m.store == nil {
		m.updateTableRows()
		return
	}

	ctx := context.Background()
	var err error
	if m.blocks, err = m.store.Blocks(ctx, maxRows); err != nil {
		m.loadErr = err
	}
	if m.attempts, err = m.store.RecentAttempts(ctx, maxRows); err != nil {
		m.loadErr = err
	}
	if m.stats, err = m.store.AttemptStats(ctx); err != nil {
		m.loadErr = err
	}
	m.updateTableRows()
}

// gameTime formats a frame count as game time.
func gameTime(frames int) string {
	d := time.Duration(frames) * time.Second / core.FrameRate
	return d.Truncate(100 * time.Millisecond).String()
}

func shortHash(h string) string {
	if len(h) > 10 {
		return h[:10]
	}
	return h
}

// updateTableRows fills the table with the current tab's rows.
func (m *ExplorerModel) updateTableRows() {
	var rows []table.Row
	switch m.tab {
	case tabBlocks:
		rows = make([]table.Row, len(m.blocks))
		for i, b := range m.blocks {
			rows[i] = table.Row{
				humanize.Comma(b.Height),
				shortHash(b.Hash),
				b.Miner,
				fmt.Sprintf("%d", b.Seed),
				gameTime(len(b.Solution) / core.PadSize),
				humanize.Bytes(uint64(len(b.Solution))),
				humanize.RelTime(time.Unix(b.Timestamp, 0), m.now(), "ago", "from now"),
			}
		}
	case tabAttempts:
		rows = make([]table.Row, len(m.attempts))
		for i, a := range m.attempts {
			block := ""
			if a.Submitted {
				block = "yes"
			}
			rows[i] = table.Row{
				shortHash(a.ID),
				fmt.Sprintf("%d", a.Seed),
				a.Outcome,
				gameTime(a.Frames),
				block,
				humanize.RelTime(a.FinishedAt, m.now(), "ago", "from now"),
			}
		}
	}
	m.table.SetRows(rows)

	// Reset cursor to top
	m.table.GotoTop()
}

// switchTab moves to the tab delta steps away.
func (m *ExplorerModel) switchTab(delta int) {
	n := len(explorerTabs)
	m.tab = explorerTab((int(m.tab) + delta + n) % n)
	m.table = m.createTable()
	m.updateTableRows()
}

// Init initializes the explorer model.
func (m ExplorerModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the explorer.
func (m ExplorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextTab):
			m.switchTab(1)
			return m, nil

		case key.Matches(msg, m.keys.PrevTab):
			m.switchTab(-1)
			return m, nil

		case key.Matches(msg, m.keys.Reload):
			m.load()
			return m, nil

		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			// Pass to table for scrolling
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showSidebar = m.width >= minWidthForSidebar
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	// Pass other messages to table
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the explorer.
func (m ExplorerModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "LOCAL CHAIN"
	if len(m.blocks) > 0 {
		title = fmt.Sprintf("LOCAL CHAIN - height %s", humanize.Comma(m.blocks[0].Height))
	}
	b.WriteString(titleStyle.MarginBottom(1).Render(centerText(title, m.width)))
	b.WriteString("\n\n")
	b.WriteString(centerText(m.renderTabs(), m.width))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	tableRendered := tableStyle.Render(m.renderTableContent())

	if m.showSidebar {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), "  ", tableRendered))
	} else {
		b.WriteString(tableRendered)
	}

	if m.loadErr != nil {
		b.WriteString("\n")
		b.WriteString(errStyle.Render(m.loadErr.Error()))
	}

	// Help bar
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTabs renders the tab bar.
func (m ExplorerModel) renderTabs() string {
	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))
	activeTabStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Padding(0, 1)

	tabs := make([]string, len(explorerTabs))
	for i, name := range explorerTabs {
		if explorerTab(i) == m.tab {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(" " + name + " ")
		}
	}
	return strings.Join(tabs, " ")
}

// renderSidebar renders the attempt statistics.
func (m ExplorerModel) renderSidebar() string {
	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(sidebarWidth).
		Padding(0, 1)

	var sb strings.Builder
	sb.WriteString("Mining\n")
	sb.WriteString(strings.Repeat("-", sidebarWidth-4))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Attempts  %s\n", humanize.Comma(int64(m.stats.Attempts)))
	fmt.Fprintf(&sb, "Won       %s\n", humanize.Comma(int64(m.stats.Won)))
	fmt.Fprintf(&sb, "Blocks    %s\n", humanize.Comma(int64(m.stats.Submitted)))
	fmt.Fprintf(&sb, "Played    %s\n", gameTime(int(m.stats.Frames)))
	if !m.stats.LastAttempt.IsZero() {
		fmt.Fprintf(&sb, "Last      %s\n", humanize.RelTime(m.stats.LastAttempt, m.now(), "ago", "from now"))
	}

	return sidebarStyle.Render(sb.String())
}

// renderTableContent renders the table or empty message.
func (m ExplorerModel) renderTableContent() string {
	empty := len(m.blocks) == 0
	if m.tab == tabAttempts {
		empty = len(m.attempts) == 0
	}
	if empty {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		return emptyStyle.Render("Nothing here yet.\nRun 'sm64miner mine' to start mining!")
	}

	return m.table.View()
}

// IsQuitting returns true if user wants to quit.
func (m ExplorerModel) IsQuitting() bool {
	return m.quitting
}

// centerText pads text to center it within width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text
}

// RunExplorer runs the explorer screen.
func RunExplorer(store *storage.Store, width, height int) error {
	p := tea.NewProgram(
		NewExplorerModel(store, width, height),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
