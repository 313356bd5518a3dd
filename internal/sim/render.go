package sim

import (
	"fmt"
	"math"

	"github.com/Gumbo64/sm64-crypto/internal/engine"
)

// Visual characters for rendering
const (
	RunnerHead  = '◆'
	RunnerBody  = '█'
	SpikeChar   = '▲'
	StarChar    = '★'
	GroundChar  = '═'
	FinishChar  = '┃'
	minRenderW  = 20
	minRenderH  = 8
	cameraShare = 4 // Runner sits at 1/cameraShare of the width
)

// Render draws the course around the runner. It is safe to call while
// another goroutine steps the engine.
func (e *Engine) Render(width, height int) *engine.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()

	f := engine.NewFrame(width, height)
	if width < minRenderW || height < minRenderH {
		f.DrawText(0, 0, "terminal too small", engine.ColorRed)
		return f
	}

	w := e.world
	groundY := height - 2
	camX := int(math.Floor(float64(w.pos[0]))) - width/cameraShare

	// screen maps world coordinates to a cell.
	screen := func(x, y float64) (int, int) {
		return int(math.Floor(x)) - camX, groundY - 1 - int(math.Floor(y))
	}

	f.DrawHLine(0, groundY, width, GroundChar, engine.ColorGray)

	if ex, _ := screen(w.layout.Length, 0); ex >= 0 && ex < width {
		for y := 1; y < groundY; y++ {
			f.Set(ex, y, FinishChar, engine.ColorGray)
		}
	}

	for _, s := range w.layout.Spikes {
		for dx := 0; dx < int(s.W); dx++ {
			sx, sy := screen(s.X+float64(dx), s.Y)
			f.Set(sx, sy, SpikeChar, engine.ColorRed)
		}
	}

	if w.stars == 0 {
		sx, sy := screen(w.layout.Star.X, w.layout.Star.Y)
		f.Set(sx, sy, StarChar, engine.ColorYellow)
	}

	rx, ry := screen(float64(w.pos[0]), float64(w.pos[1]))
	f.Set(rx, ry, RunnerBody, engine.ColorCyan)
	f.Set(rx, ry-1, RunnerHead, engine.ColorCyan)

	hud := fmt.Sprintf(" Stars: %d  Frame: %d  Falls: %d ", w.stars, w.steps, w.falls)
	f.DrawText(1, 0, hud, engine.ColorWhite)
	if !e.audio {
		f.DrawText(width-9, 0, " ♪ muted ", engine.ColorGray)
	}
	if w.stars > 0 {
		f.DrawTextCentered(height/2-1, "★ STAR COLLECTED ★", engine.ColorYellow)
	}

	return f
}
