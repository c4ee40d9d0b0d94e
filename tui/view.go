package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-genmidi/engine"
	"go-genmidi/grid"
	"go-genmidi/theme"
	"go-genmidi/widgets"
)

// visible parameter rows around the selection
const paramWindow = 9

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.Engine.State()
	if st == nil {
		return "starting..."
	}
	th := m.Theme

	header := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	label := lipgloss.NewStyle().Foreground(th.Muted()).Width(11)
	value := lipgloss.NewStyle().Foreground(th.FG())
	active := lipgloss.NewStyle().Foreground(th.Active())
	cursor := lipgloss.NewStyle().Foreground(th.BG()).Background(th.Cursor())
	warn := lipgloss.NewStyle().Foreground(th.Warning())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header.Render(headerLine(st)))
	out.WriteString("\n\n")

	row := func(name, body string) {
		out.WriteString(label.Render(name))
		out.WriteString(body)
		out.WriteString("\n")
	}

	row("euclid", active.Render(StepRow(st.Euclid.Pattern, st.Euclid.Current, st.Playing, th.Symbols))+
		value.Render(fmt.Sprintf("  %d/%d r%d", st.Euclid.Pulses, st.Euclid.Steps, st.Euclid.Rotation)))
	for i, l := range st.Layers {
		body := StepRow(l.Pattern, l.Cursor, st.Playing, th.Symbols)
		if !l.Enabled {
			body = value.Render(body + "  off")
		} else {
			body = active.Render(body) + value.Render(fmt.Sprintf("  /%d", l.Division))
		}
		row(fmt.Sprintf("layer %d", i+1), body)
	}
	row(fmt.Sprintf("rule %d", st.CARule), active.Render(CellRow(st.Cells, th.Symbols)))
	row("walk", value.Render(fmt.Sprintf("%-9s %s", st.Stochastic.Walk, Meter(st.Stochastic.Value, 24))))
	row("markov", value.Render(fmt.Sprintf("order %d, %d states", st.Markov.Order, st.Markov.States)))
	row("l-system", value.Render(fmt.Sprintf("%s, %d notes", st.LSystem.Axiom, st.LSystem.Notes)))
	row("recent", value.Render(RecentNotes(st.Recent, 12)))

	queue := fmt.Sprintf("queued %d  dropped %d  notes %d", st.Queued, st.Dropped, st.NotesOn)
	if st.Dropped > 0 {
		row("queue", warn.Render(queue))
	} else {
		row("queue", value.Render(queue))
	}
	out.WriteString("\n")

	if m.showGrid {
		var f grid.Frame
		grid.Render(st, th, &f)
		out.WriteString(widgets.RenderFrame(&f))
		out.WriteString("\n")
		out.WriteString(widgets.RenderLegendItem(th.RGB(theme.RoleActive), "steps", "euclid, top four rows"))
		out.WriteString("\n")
		out.WriteString(widgets.RenderLegendItem(th.RGB(theme.RoleSuccess), "scene column", "generator, play"))
		out.WriteString("\n\n")
	}

	p := m.Engine.Params()
	first := max(0, int(m.selected)-paramWindow/2)
	first = min(first, int(engine.ParamCount)-paramWindow)
	for id := engine.ParamID(first); id < engine.ParamCount && int(id) < first+paramWindow; id++ {
		info := engine.Info(id)
		line := fmt.Sprintf("%-20s %s", info.Name, info.Format(p.Get(id)))
		if id == m.selected {
			out.WriteString(cursor.Render(line))
		} else {
			out.WriteString(value.Render(line))
		}
		out.WriteString("\n")
	}

	out.WriteString("\n")
	if len(m.devices) > 0 {
		out.WriteString(value.Render("devices: " + strings.Join(m.devices, ", ")))
		out.WriteString("\n")
	}
	if m.status != "" {
		out.WriteString(warn.Render(m.status))
		out.WriteString("\n")
	}
	out.WriteString(m.help.View(keys))
	return out.String()
}

func headerLine(st *engine.State) string {
	play := "STOP"
	if st.Playing {
		play = "PLAY"
	}
	sync := ""
	if st.ExternalSync {
		sync = " ext"
	}
	bar := int(st.Bars) + 1
	beat := int(st.Beats)%max(st.Numerator, 1) + 1
	return fmt.Sprintf("genmidi  %s%s  %6.2fbpm  %d/%d  %3d.%d  %s  %s %s  ch%d",
		play, sync, st.Tempo, st.Numerator, st.Denominator, bar, beat,
		st.Generator, st.Root, st.Scale, st.Channel)
}

// StepRow draws a pattern with the playhead
func StepRow(pattern []bool, cur int, playing bool, sym theme.Symbols) string {
	var b strings.Builder
	for i, on := range pattern {
		r := sym.StepEmpty
		switch {
		case playing && i == cur && on:
			r = sym.StepHit
		case playing && i == cur:
			r = sym.StepPlayhead
		case on:
			r = sym.StepActive
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CellRow draws automaton cells
func CellRow(cells []bool, sym theme.Symbols) string {
	var b strings.Builder
	for _, on := range cells {
		if on {
			b.WriteRune(sym.CellOn)
		} else {
			b.WriteRune(sym.CellOff)
		}
	}
	return b.String()
}

// Meter draws v (0-1) as a bar of width cells
func Meter(v float64, width int) string {
	v = max(0, min(v, 1))
	n := int(v*float64(width) + 0.5)
	return strings.Repeat("▮", n) + strings.Repeat("▯", width-n)
}

// RecentNotes names the newest n notes, oldest first
func RecentNotes(notes []engine.NoteInfo, n int) string {
	if len(notes) > n {
		notes = notes[len(notes)-n:]
	}
	names := make([]string, len(notes))
	for i, nt := range notes {
		names[i] = nt.Name
	}
	return strings.Join(names, " ")
}
