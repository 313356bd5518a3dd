package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Gumbo64/sm64-crypto/internal/core"
)

// Input is the pad contribution of one key press.
type Input struct {
	Button core.Button
	StickX int
	StickY int
}

// KeyMap defines the key bindings of the mining view.
type KeyMap struct {
	Left        key.Binding
	Right       key.Binding
	Up          key.Binding
	Down        key.Binding
	A           key.Binding
	B           key.Binding
	Z           key.Binding
	Resume      key.Binding
	Abort       key.Binding
	FastForward key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left: key.NewBinding(
			key.WithKeys("left", "a"),
			key.WithHelp("←/a", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "d"),
			key.WithHelp("→/d", "right"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "w"),
			key.WithHelp("↑/w", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "s"),
			key.WithHelp("↓/s", "down"),
		),
		A: key.NewBinding(
			key.WithKeys(" ", "j"),
			key.WithHelp("space/j", "jump"),
		),
		B: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "dash"),
		),
		Z: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "pound"),
		),
		Resume: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "take control"),
		),
		Abort: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "restart attempt"),
		),
		FastForward: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "fast forward"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.A, k.Resume, k.Abort, k.FastForward, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.A, k.B, k.Z},
		{k.Resume, k.Abort, k.FastForward, k.Quit},
	}
}

// Input translates a key message to its pad contribution.
// Returns false for keys that do not touch the pad.
func (k KeyMap) Input(msg tea.KeyMsg) (Input, bool) {
	switch {
	case key.Matches(msg, k.Left):
		return Input{StickX: -core.StickMax}, true
	case key.Matches(msg, k.Right):
		return Input{StickX: core.StickMax}, true
	case key.Matches(msg, k.Up):
		return Input{StickY: core.StickMax}, true
	case key.Matches(msg, k.Down):
		return Input{StickY: -core.StickMax}, true
	case key.Matches(msg, k.A):
		return Input{Button: core.ButtonA}, true
	case key.Matches(msg, k.B):
		return Input{Button: core.ButtonB}, true
	case key.Matches(msg, k.Z):
		return Input{Button: core.ButtonZ}, true
	case key.Matches(msg, k.Resume):
		return Input{Button: core.ResumeButton}, true
	case key.Matches(msg, k.Abort):
		return Input{Button: core.AbortButton}, true
	case key.Matches(msg, k.FastForward):
		return Input{Button: core.FastForwardButton}, true
	}
	return Input{}, false
}
