package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Gumbo64/sm64-crypto/internal/engine"
)

// colorStyles maps engine.Color to lipgloss styles.
var colorStyles = map[engine.Color]lipgloss.Style{
	engine.ColorDefault: lipgloss.NewStyle(),
	engine.ColorRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	engine.ColorGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	engine.ColorYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	engine.ColorBlue:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	engine.ColorMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	engine.ColorCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	engine.ColorWhite:   lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	engine.ColorOrange:  lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	engine.ColorGray:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// RenderFrame converts an engine frame to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderFrame(f *engine.Frame) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(f.Width()*f.Height()*2 + f.Height())

	for y := range f.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < f.Width() {
			startColor := f.Cell(x, y).Color

			var run strings.Builder
			for x < f.Width() {
				cell := f.Cell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[engine.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}
