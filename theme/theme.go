package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

// Symbols draw step rows in the monitor
type Symbols struct {
	StepEmpty    rune // · rest
	StepActive   rune // ● onset
	StepPlayhead rune // ▶ playhead on a rest
	StepHit      rune // ◉ playhead on an onset
	CellOn       rune // █ live automaton cell
	CellOff      rune // space
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = Plasma()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			StepEmpty:    '·',
			StepActive:   '●',
			StepPlayhead: '▶',
			StepHit:      '◉',
			CellOn:       '█',
			CellOff:      ' ',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleCursor  = 0.6
	RoleActive  = 0.7
	RoleWarning = 0.8
	RoleSuccess = 1.0
)

func (t *Theme) BG() lipgloss.Color { return t.Color(RoleBG) }
func (t *Theme) FG() lipgloss.Color { return t.Color(RoleFG) }
func (t *Theme) Accent() lipgloss.Color { return t.Color(RoleAccent) }
func (t *Theme) Muted() lipgloss.Color { return t.Color(RoleMuted) }
func (t *Theme) Active() lipgloss.Color { return t.Color(RoleActive) }
func (t *Theme) Cursor() lipgloss.Color { return t.Color(RoleCursor) }
func (t *Theme) Warning() lipgloss.Color { return t.Color(RoleWarning) }
func (t *Theme) Success() lipgloss.Color { return t.Color(RoleSuccess) }

// Color returns the lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return lipgloss.Color(t.Palette.Lookup(norm).Hex())
}

// RGB returns the raw color for any normalized value, for grid lights
func (t *Theme) RGB(norm float64) RGB {
	return t.Palette.Lookup(norm)
}

// Velocity colors an onset by its velocity (0-1) along the upper half of
// the palette
func (t *Theme) Velocity(v float64) RGB {
	return t.Palette.Lookup(RoleAccent + v*(1-RoleAccent))
}
