package grid

import (
	"go-genmidi/engine"
	"go-genmidi/generator"
	"go-genmidi/midi"
	"go-genmidi/theme"
)

// Layout, row 0 at the bottom:
//
//	row 8      transport and nudge buttons
//	rows 4-7   Euclidean steps, 8 per row from the top, up to 32
//	rows 0-3   the first four polyrhythm layers, one per row from row 3,
//	           showing the 8-step page under the layer's cursor
//	column 8   generator select, top to bottom; row 0 is the play light
const (
	euclidRows = 4
	layerRows  = 4
	euclidTop  = 7
	layerTop   = 3
)

// Top row buttons
const (
	btnPlay = iota
	btnReset
	btnPulsesDown
	btnPulsesUp
	btnRotateDown
	btnRotateUp
	btnTempoDown
	btnTempoUp
)

var (
	dim      = [3]uint8{24, 24, 32}
	playhead = [3]uint8{255, 255, 255}
	playing  = [3]uint8{0, 255, 0}
	stopped  = [3]uint8{180, 60, 60}
)

// Render draws a state. It allocates nothing.
func Render(st *engine.State, th *theme.Theme, f *Frame) {
	*f = Frame{}
	if st == nil {
		return
	}
	renderEuclid(st, th, f)
	renderLayers(st, th, f)

	kind, _ := generator.ParseKind(st.Generator)
	for k := generator.Kind(0); k < generator.KindCount && int(k) < size-1; k++ {
		led := LED{Color: th.RGB(theme.RoleMuted).Scale(0.4)}
		if k == kind {
			led = LED{Color: th.RGB(theme.RoleSuccess)}
		}
		f[size-2-int(k)][size-1] = led
	}

	play := LED{Color: stopped}
	if st.Playing {
		play = LED{Color: playing, Channel: midi.ChannelPulse}
	}
	f[0][size-1] = play
	f[8][btnPlay] = play

	nudge := th.RGB(theme.RoleAccent).Scale(0.6)
	for col := btnReset; col <= btnTempoUp; col++ {
		f[8][col] = LED{Color: nudge}
	}
	if st.ExternalSync {
		// tempo follows the clock
		f[8][btnTempoDown] = LED{}
		f[8][btnTempoUp] = LED{}
	}
}

func renderEuclid(st *engine.State, th *theme.Theme, f *Frame) {
	eu := st.Euclid
	for i := 0; i < euclidRows*8; i++ {
		row, col := euclidTop-i/8, i%8
		switch {
		case i >= eu.Steps:
		case i == eu.Current && st.Playing:
			f[row][col] = LED{Color: playhead}
		case i < len(eu.Pattern) && eu.Pattern[i]:
			v := 1.0
			if i < len(eu.Velocities) {
				v = eu.Velocities[i]
			}
			f[row][col] = LED{Color: th.Velocity(v)}
		default:
			f[row][col] = LED{Color: dim}
		}
	}
}

func renderLayers(st *engine.State, th *theme.Theme, f *Frame) {
	for li := 0; li < layerRows && li < len(st.Layers); li++ {
		l := st.Layers[li]
		row := layerTop - li
		page := layerPage(l)
		for col := 0; col < 8; col++ {
			step := page + col
			switch {
			case step >= l.Length:
			case step == l.Cursor && st.Playing:
				f[row][col] = LED{Color: playhead}
			case !l.Enabled:
				f[row][col] = LED{Color: dim}
			case step < len(l.Pattern) && l.Pattern[step]:
				v := 1.0
				if step < len(l.Velocity) {
					v = l.Velocity[step]
				}
				f[row][col] = LED{Color: th.Velocity(v)}
			default:
				f[row][col] = LED{Color: dim}
			}
		}
	}
}

// layerPage is the first step of the 8-step page holding the cursor
func layerPage(l engine.LayerState) int {
	if l.Cursor < 0 {
		return 0
	}
	return l.Cursor / 8 * 8
}
