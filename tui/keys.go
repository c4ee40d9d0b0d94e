package tui

import "github.com/charmbracelet/bubbles/key"

func binding(help string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help))
}

type keyMap struct {
	Play      key.Binding
	Reset     key.Binding
	Panic     key.Binding
	Up        key.Binding
	Down      key.Binding
	Inc       key.Binding
	Dec       key.Binding
	BigInc    key.Binding
	BigDec    key.Binding
	Generator key.Binding
	Grid      key.Binding
	Faster    key.Binding
	Slower    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Play:      key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/stop")),
	Reset:     binding("rewind", "r"),
	Panic:     binding("all notes off", "!"),
	Up:        binding("prev param", "up", "k"),
	Down:      binding("next param", "down", "j"),
	Inc:       binding("nudge up", "right", "l"),
	Dec:       binding("nudge down", "left", "h"),
	BigInc:    binding("nudge up x10", "L", "shift+right"),
	BigDec:    binding("nudge down x10", "H", "shift+left"),
	Generator: binding("next generator", "g"),
	Grid:      binding("show grid", "tab"),
	Faster:    binding("tempo +5", "+", "="),
	Slower:    binding("tempo -5", "-", "_"),
	Help:      binding("more keys", "?"),
	Quit:      binding("quit", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Play, k.Up, k.Inc, k.Generator, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Play, k.Reset, k.Panic, k.Faster, k.Slower},
		{k.Up, k.Down, k.Inc, k.Dec, k.BigInc, k.BigDec},
		{k.Generator, k.Grid, k.Help, k.Quit},
	}
}
