package tui

import (
	"sync"
	"time"

	"github.com/Gumbo64/sm64-crypto/internal/core"
	"github.com/Gumbo64/sm64-crypto/internal/engine"
)

// DefaultHold is how long a key counts as held after its last press.
// Terminals report presses and repeats but never releases.
const DefaultHold = 300 * time.Millisecond

// buttons lists every pad button in bit order.
var buttons = []core.Button{
	core.ButtonA, core.ButtonB, core.ButtonZ, core.ButtonStart,
	core.ButtonDUp, core.ButtonDDown, core.ButtonDLeft, core.ButtonDRight,
	core.ButtonL, core.ButtonR,
	core.ButtonCUp, core.ButtonCDown, core.ButtonCLeft, core.ButtonCRight,
}

// Keyboard is an engine.Controller fed by key presses. Each press latches
// its button or stick direction until DefaultHold passes without a repeat.
// Safe for concurrent use: the TUI writes, the simulation reads.
type Keyboard struct {
	mu     sync.Mutex
	hold   time.Duration
	now    func() time.Time
	until  map[core.Button]time.Time
	stickX int
	stickY int
	xUntil time.Time
	yUntil time.Time
}

// NewKeyboard creates a keyboard controller. hold <= 0 uses DefaultHold.
func NewKeyboard(hold time.Duration) *Keyboard {
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Keyboard{
		hold:  hold,
		now:   time.Now,
		until: make(map[core.Button]time.Time),
	}
}

// Press latches in.
func (k *Keyboard) Press(in Input) {
	k.mu.Lock()
	defer k.mu.Unlock()

	deadline := k.now().Add(k.hold)
	for _, b := range buttons {
		if in.Button&b != 0 {
			k.until[b] = deadline
		}
	}
	if in.StickX != 0 {
		k.stickX = in.StickX
		k.xUntil = deadline
	}
	if in.StickY != 0 {
		k.stickY = in.StickY
		k.yUntil = deadline
	}
}

// ReleaseAll drops every latched input.
func (k *Keyboard) ReleaseAll() {
	k.mu.Lock()
	defer k.mu.Unlock()

	clear(k.until)
	k.stickX, k.stickY = 0, 0
	k.xUntil, k.yUntil = time.Time{}, time.Time{}
}

// Pad returns the currently held input.
func (k *Keyboard) Pad() core.Pad {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	var held core.Button
	for b, until := range k.until {
		if now.Before(until) {
			held |= b
		}
	}

	x, y := 0, 0
	if now.Before(k.xUntil) {
		x = k.stickX
	}
	if now.Before(k.yUntil) {
		y = k.stickY
	}
	return core.NewPad(held, x, y)
}

// Screen is the render target of the mining view. It holds the renderer
// of the engine currently being stepped.
type Screen struct {
	mu       sync.Mutex
	renderer engine.Renderer
}

// Attach replaces the renderer.
func (s *Screen) Attach(r engine.Renderer) {
	s.mu.Lock()
	s.renderer = r
	s.mu.Unlock()
}

// Frame renders the current engine, or returns nil before any engine attached.
func (s *Screen) Frame(width, height int) *engine.Frame {
	s.mu.Lock()
	r := s.renderer
	s.mu.Unlock()

	if r == nil || width <= 0 || height <= 0 {
		return nil
	}
	return r.Render(width, height)
}
