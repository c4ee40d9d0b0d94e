package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"go-genmidi/engine"
	"go-genmidi/theme"
)

func TestStepRow(t *testing.T) {
	sym := theme.New(nil).Symbols
	pattern := []bool{true, false, false, true}
	if want, got := "●··●", StepRow(pattern, 1, false, sym); want != got {
		t.Errorf("stopped: want %q, got %q", want, got)
	}
	if want, got := "●▶·●", StepRow(pattern, 1, true, sym); want != got {
		t.Errorf("playhead on rest: want %q, got %q", want, got)
	}
	if want, got := "●··◉", StepRow(pattern, 3, true, sym); want != got {
		t.Errorf("playhead on onset: want %q, got %q", want, got)
	}
}

func TestMeter(t *testing.T) {
	if want, got := "▮▮▯▯", Meter(0.5, 4); want != got {
		t.Errorf("half: want %q, got %q", want, got)
	}
	if want, got := "▮▮▮▮", Meter(3, 4); want != got {
		t.Errorf("clamped: want %q, got %q", want, got)
	}
}

func TestRecentNotes(t *testing.T) {
	notes := []engine.NoteInfo{{Name: "C4"}, {Name: "E4"}, {Name: "G4"}}
	if want, got := "E4 G4", RecentNotes(notes, 2); want != got {
		t.Errorf("want %q, got %q", want, got)
	}
}

func TestKeysEditParams(t *testing.T) {
	e := engine.New(engine.Config{SampleRate: 48000, BufferSize: 256, Seed: 1})
	m := NewModel(e, nil, nil, theme.New(nil), 30)

	press := func(s string) {
		var msg tea.KeyMsg
		switch s {
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}

	press("+")
	if want, got := 125.0, e.Params().Get(engine.ParamTempo); want != got {
		t.Fatalf("tempo: want %v, got %v", want, got)
	}
	// numerator is the second parameter
	press("down")
	press("right")
	if want, got := 5.0, e.Params().Get(engine.ParamNumerator); want != got {
		t.Fatalf("numerator: want %v, got %v", want, got)
	}
	press("g")
	if want, got := 1.0, e.Params().Get(engine.ParamGenerator); want != got {
		t.Fatalf("generator: want %v, got %v", want, got)
	}

	press(" ")
	e.Process(nil, nil, 256)
	if !e.State().Playing {
		t.Fatal("space did not start playback")
	}
	if view := m.View(); !strings.Contains(view, "PLAY") || !strings.Contains(view, "numerator") {
		t.Fatalf("view missing header or params:\n%s", view)
	}

	press("tab")
	if view := m.View(); !strings.Contains(view, "scene column") {
		t.Fatalf("grid mirror not shown:\n%s", view)
	}
}
