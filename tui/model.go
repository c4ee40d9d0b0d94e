package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"go-genmidi/engine"
	"go-genmidi/grid"
	"go-genmidi/midi"
	"go-genmidi/theme"
)

// Engine is what the monitor reads and edits
type Engine interface {
	grid.Engine
	Panic() error
}

type Model struct {
	Engine    Engine
	DeviceMgr *midi.DeviceManager // may be nil
	Surface   *grid.Surface       // may be nil
	Theme     *theme.Theme

	fps      int
	selected engine.ParamID
	help     help.Model
	width    int
	status   string
	devices  []string
	showGrid bool
	quitting bool
}

type frameMsg time.Time

type DeviceEventMsg midi.DeviceEvent

// NewModel creates the monitor. deviceMgr and surface may be nil.
func NewModel(eng Engine, deviceMgr *midi.DeviceManager, surface *grid.Surface, th *theme.Theme, fps int) Model {
	if fps <= 0 {
		fps = 30
	}
	return Model{
		Engine:    eng,
		DeviceMgr: deviceMgr,
		Surface:   surface,
		Theme:     th,
		fps:       fps,
		help:      help.New(),
	}
}

func (m Model) nextFrame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// ListenForDevices waits for the next connect or disconnect
func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.nextFrame()}
	if m.DeviceMgr != nil {
		cmds = append(cmds, ListenForDevices(m.DeviceMgr))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		return m, m.nextFrame()

	case DeviceEventMsg:
		m.handleDevice(midi.DeviceEvent(msg))
		return m, ListenForDevices(m.DeviceMgr)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.Engine.Params()
	var err error
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		m.Engine.Stop()
		return m, tea.Quit
	case key.Matches(msg, keys.Play):
		if st := m.Engine.State(); st != nil && st.Playing {
			err = m.Engine.Stop()
		} else {
			err = m.Engine.Start()
		}
	case key.Matches(msg, keys.Reset):
		err = m.Engine.Reset()
	case key.Matches(msg, keys.Panic):
		err = m.Engine.Panic()
	case key.Matches(msg, keys.Up):
		m.selected = (m.selected + engine.ParamCount - 1) % engine.ParamCount
	case key.Matches(msg, keys.Down):
		m.selected = (m.selected + 1) % engine.ParamCount
	case key.Matches(msg, keys.Inc):
		p.Nudge(m.selected, 1)
	case key.Matches(msg, keys.Dec):
		p.Nudge(m.selected, -1)
	case key.Matches(msg, keys.BigInc):
		p.Nudge(m.selected, 10)
	case key.Matches(msg, keys.BigDec):
		p.Nudge(m.selected, -10)
	case key.Matches(msg, keys.Generator):
		p.Nudge(engine.ParamGenerator, 1)
	case key.Matches(msg, keys.Faster):
		p.Set(engine.ParamTempo, p.Get(engine.ParamTempo)+5)
	case key.Matches(msg, keys.Slower):
		p.Set(engine.ParamTempo, p.Get(engine.ParamTempo)-5)
	case key.Matches(msg, keys.Grid):
		m.showGrid = !m.showGrid
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	m.status = ""
	if err != nil {
		m.status = err.Error()
	}
	return m, nil
}

// handleDevice keeps the device list and hands the event to the grid
func (m *Model) handleDevice(ev midi.DeviceEvent) {
	switch ev.Type {
	case midi.DeviceConnected:
		m.devices = append(m.devices, ev.ID)
	case midi.DeviceDisconnected:
		for i, id := range m.devices {
			if id == ev.ID {
				m.devices = append(m.devices[:i], m.devices[i+1:]...)
				break
			}
		}
	}
	if m.Surface != nil {
		m.status = grid.Bind(m.Surface, ev)
	} else {
		m.status = fmt.Sprintf("%s: no grid surface", ev.ID)
	}
}
