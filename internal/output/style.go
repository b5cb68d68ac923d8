package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
)

const (
	sectionWidth = 72
	barFilled    = "█"
	barEmpty     = "░"
)

var (
	barGood = mustHex("#5fd787")
	barBad  = mustHex("#ff5f5f")
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// styler renders headers and bars, with or without colour.
type styler struct {
	noColor bool
}

// header renders a boxed section title padded to sectionWidth.
func (s styler) header(title string) string {
	pad := sectionWidth - runewidth.StringWidth(title) - 4
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	right := pad - left
	line := fmt.Sprintf("╭%s  %s  %s╮", strings.Repeat("─", left), title, strings.Repeat("─", right))

	if s.noColor {
		return line
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Render(line)
}

// bar draws ratio (0..1) as a fixed-width bar. The fill colour blends from
// green to red; higherIsBetter flips the direction.
func (s styler) bar(ratio float64, width int, higherIsBetter bool) string {
	filled := int(ratio * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	full := strings.Repeat(barFilled, filled)
	empty := strings.Repeat(barEmpty, width-filled)
	if s.noColor {
		return full + empty
	}

	badness := clamp01(ratio)
	if higherIsBetter {
		badness = 1 - badness
	}
	fill := barGood.BlendLab(barBad, badness).Clamped()

	return lipgloss.NewStyle().Foreground(lipgloss.Color(fill.Hex())).Render(full) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(empty)
}

// muted renders secondary text such as annotations.
func (s styler) muted(text string) string {
	if s.noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render(text)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
