package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"go-genmidi/config"
	"go-genmidi/debug"
	"go-genmidi/driver"
	"go-genmidi/engine"
	"go-genmidi/grid"
	"go-genmidi/midi"
	"go-genmidi/remote"
	"go-genmidi/repl"
	"go-genmidi/theme"
	"go-genmidi/tui"
)

// ringSize holds several seconds of dense output
const ringSize = 4096

// rig is a configured engine that is not running yet
type rig struct {
	cfg    *config.Config
	eng    *engine.Engine
	theme  *theme.Theme
	logger *slog.Logger
}

// live is a rig with its driver, output and surfaces running
type live struct {
	*rig
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	clock    *midi.ClockListener
	audio    *driver.Audio
	out      *driver.Output
	ring     *driver.Ring
	surface  *grid.Surface
	devices  *midi.DeviceManager
	latency  time.Duration
	interval time.Duration
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if outPort != "" {
		cfg.Output.Port = outPort
	}
	if clockPort != "" {
		cfg.Clock.Port = clockPort
		cfg.Clock.External = true
	}
	if driverName != "" {
		cfg.Audio.Driver = driverName
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if latencyMs > 0 {
		cfg.Output.LatencyMs = latencyMs
	}
	if remoteAddr != "" {
		cfg.Remote.Addr = remoteAddr
	}
	return cfg, cfg.Validate()
}

// newRig builds the engine from config and flags. logTo receives
// structured logs; the monitor passes the debug log so the screen stays
// clean.
func newRig(logTo io.Writer) (*rig, error) {
	if debugPath != "" {
		if err := debug.Enable(debugPath); err != nil {
			return nil, err
		}
	}
	logger := slog.New(slog.NewTextHandler(logTo, nil))

	cfg, err := loadConfig()
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	eng := engine.New(engine.Config{
		SampleRate: cfg.Audio.SampleRate,
		BufferSize: cfg.Audio.BufferSize,
		Seed:       cfg.Seed,
	})
	p := eng.Params()
	if unknown := p.Load(cfg.Params); len(unknown) > 0 {
		logger.Warn("unknown parameters in config", slog.Any("names", unknown))
	}
	for _, kv := range sets {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errors.Errorf("--set %q: want name=value", kv)
		}
		if _, err := p.SetNamed(name, value); err != nil {
			return nil, errors.Wrapf(err, "--set %s", name)
		}
	}
	if sceneName != "" {
		var sc engine.Scene
		if err := config.LoadScene(sceneName, &sc); err != nil {
			return nil, err
		}
		if _, err := eng.Apply(&sc); err != nil {
			return nil, errors.Wrap(err, "applying scene")
		}
	}

	palette := theme.Plasma()
	if cfg.UI.Palette != "" {
		if palette, err = theme.LoadGPL(cfg.UI.Palette); err != nil {
			return nil, errors.Wrap(err, "palette")
		}
	}
	return &rig{cfg: cfg, eng: eng, theme: theme.New(palette), logger: logger}, nil
}

// start opens the ports and runs the driver. With pump set, device events
// are bound to the grid here; otherwise the caller reads them.
func (r *rig) start(parent context.Context, pump, serve bool) (*live, error) {
	cfg := r.cfg
	ctx, cancel := context.WithCancel(parent)
	l := &live{
		rig:      r,
		cancel:   cancel,
		ring:     driver.NewRing(ringSize),
		latency:  time.Duration(cfg.Output.LatencyMs) * time.Millisecond,
		interval: time.Duration(float64(cfg.Audio.BufferSize) / cfg.Audio.SampleRate * float64(time.Second)),
	}
	fail := func(err error) (*live, error) {
		cancel()
		l.close()
		return nil, err
	}

	port := cfg.Output.Port
	if port == "" {
		names := midi.OutPortNames()
		if len(names) == 0 {
			return fail(errors.New("no MIDI output ports; see genmidi ports"))
		}
		port = names[0]
		r.logger.Info("no output configured, using first port", slog.String("port", port))
	}
	send, err := midi.NewSenders().Get(port)
	if err != nil {
		return fail(errors.Wrapf(err, "output %q", port))
	}

	var clock driver.ClockSource
	if cfg.Clock.Port != "" {
		if l.clock, err = midi.ListenClock(cfg.Clock.Port); err != nil {
			return fail(errors.Wrapf(err, "clock %q", cfg.Clock.Port))
		}
		clock = l.clock
		if cfg.Clock.External {
			r.eng.Params().Set(engine.ParamSync, 1)
		}
	}

	// leave a moment for the first buffer to render before it falls due
	origin := time.Now().Add(2 * l.interval)
	var tl driver.Timeline
	switch cfg.Audio.Driver {
	case config.DriverPortAudio:
		if l.audio, err = driver.NewAudio(r.eng, l.ring, cfg.Audio.SampleRate, cfg.Audio.BufferSize, clock); err != nil {
			return fail(err)
		}
		if tl, err = l.audio.Start(origin); err != nil {
			return fail(err)
		}
	default:
		tk := driver.NewTicker(r.eng, l.ring, cfg.Audio.SampleRate, cfg.Audio.BufferSize, clock)
		tl = tk.Start(origin)
		l.goRun(func() { tk.Run(ctx) })
	}

	l.out = driver.NewOutput(l.ring, send, tl, l.latency)
	l.goRun(func() { l.out.Run(ctx) })

	l.surface = grid.NewSurface(r.eng, r.theme, cfg.UI.FPS)
	l.goRun(func() { l.surface.Run(ctx) })

	ignore := cfg.Ignored()
	if cfg.Clock.Port != "" {
		ignore = append(ignore, cfg.Clock.Port)
	}
	l.devices = midi.NewDeviceManager(cfg.Keyboards, ignore...)
	l.goRun(func() { l.devices.Run(ctx) })
	if pump {
		l.goRun(func() { grid.Pump(ctx, l.surface, l.devices) })
	}

	if serve || withRemote {
		srv := remote.New(r.eng, r.logger)
		l.goRun(func() {
			if err := srv.Run(ctx, cfg.Remote.Addr); err != nil {
				r.logger.Error("remote", slog.Any("error", err))
			}
		})
	}

	r.logger.Info("playing",
		slog.String("port", port),
		slog.String("driver", cfg.Audio.Driver),
		slog.Float64("sampleRate", cfg.Audio.SampleRate),
		slog.Int("buffer", cfg.Audio.BufferSize))
	if err := r.eng.Start(); err != nil {
		return fail(err)
	}
	return l, nil
}

func (l *live) goRun(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

// shutdown stops playback, waits for the note-offs to go out and closes
// everything
func (l *live) shutdown() {
	if err := l.eng.Stop(); err != nil {
		l.logger.Warn("stop", slog.Any("error", err))
	}
	time.Sleep(l.latency + 3*l.interval + 10*time.Millisecond)
	l.cancel()
	l.wg.Wait()
	l.close()
	if n := l.ring.Overflow(); n > 0 {
		l.logger.Warn("output ring overflowed", slog.Uint64("dropped", n))
	}
	if l.out != nil {
		if n := l.out.Errors(); n > 0 {
			l.logger.Warn("send errors", slog.Uint64("count", n))
		}
	}
}

func (l *live) close() {
	if l.audio != nil {
		l.audio.Stop()
		l.audio = nil
	}
	if l.clock != nil {
		l.clock.Close()
		l.clock = nil
	}
	midi.CloseDriver()
	debug.Disable()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	logTo := io.Writer(os.Stderr)
	if !headless {
		logTo = debug.Writer("main")
	}
	r, err := newRig(logTo)
	if err != nil {
		return err
	}
	l, err := r.start(ctx, headless, false)
	if err != nil {
		return err
	}
	defer l.shutdown()

	if headless {
		<-ctx.Done()
		return nil
	}
	m := tui.NewModel(r.eng, l.devices, l.surface, r.theme, r.cfg.UI.FPS)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	r, err := newRig(os.Stderr)
	if err != nil {
		return err
	}
	l, err := r.start(ctx, true, true)
	if err != nil {
		return err
	}
	defer l.shutdown()
	<-ctx.Done()
	return nil
}

func runRepl(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	r, err := newRig(debug.Writer("main"))
	if err != nil {
		return err
	}
	l, err := r.start(ctx, true, false)
	if err != nil {
		return err
	}
	defer l.shutdown()
	return repl.Run(ctx, r.eng)
}

func runRender(cmd *cobra.Command, args []string) error {
	r, err := newRig(os.Stderr)
	if err != nil {
		return err
	}
	defer debug.Disable()
	if renderBars <= 0 {
		return errors.Errorf("--bars must be positive, got %v", renderBars)
	}
	rec, err := r.eng.Render(renderBars, 0)
	if err != nil {
		return errors.Wrap(err, "render")
	}
	f, err := os.Create(renderOut)
	if err != nil {
		return errors.Wrap(err, "output file")
	}
	if err := r.eng.WriteSMF(f, rec); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "output file")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d events over %v bars to %s\n", len(rec), renderBars, renderOut)
	return nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	defer midi.CloseDriver()
	w := cmd.OutOrStdout()

	if len(ignorePorts) > 0 {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, name := range ignorePorts {
			typ := config.ControllerKeyboard
			if strings.Contains(strings.ToLower(name), "launchpad") {
				typ = config.ControllerLaunchpadX
			}
			cfg.AddController(config.ControllerConfig{PortName: name, Type: typ})
			fmt.Fprintf(w, "ignoring %s\n", name)
		}
		if err := cfg.Save(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "inputs:")
	for _, name := range midi.InPortNames() {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w, "outputs:")
	for _, name := range midi.OutPortNames() {
		fmt.Fprintf(w, "  %s\n", name)
	}
	return nil
}

// paramTable describes every parameter, one line each
func paramTable() []string {
	var lines []string
	for _, name := range engine.Names() {
		id, _ := engine.Lookup(name)
		info := engine.Info(id)
		line := fmt.Sprintf("%-20s %s..%s default %s", name,
			info.Format(info.Min), info.Format(info.Max), info.Format(info.Default))
		if len(info.Choices) > 0 {
			line += " (" + strings.Join(info.Choices, ", ") + ")"
		}
		lines = append(lines, line)
	}
	return lines
}
