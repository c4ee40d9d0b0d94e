package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNoScene   = errors.New("no such scene")
	ErrBadDriver = errors.New("unknown driver")
)

// Drivers
const (
	DriverTicker    = "ticker"
	DriverPortAudio = "portaudio"
)

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerLaunchpadX ControllerType = "launchpad-x"
	ControllerKeyboard   ControllerType = "keyboard"
)

// ControllerConfig remembers a control surface by port name
type ControllerConfig struct {
	PortName    string         `json:"portName"`
	Type        ControllerType `json:"type"`
	AutoConnect bool           `json:"autoConnect"`
}

// OutputConfig is where generated notes go
type OutputConfig struct {
	Port      string `json:"port,omitempty"`
	LatencyMs int    `json:"latencyMs,omitempty"`
}

// ClockConfig is the optional MIDI clock input
type ClockConfig struct {
	Port     string `json:"port,omitempty"`
	External bool   `json:"external,omitempty"`
}

// AudioConfig selects the real-time driver and its buffer
type AudioConfig struct {
	Driver     string  `json:"driver"`
	SampleRate float64 `json:"sampleRate"`
	BufferSize int     `json:"bufferSize"`
}

// UIConfig stores display preferences
type UIConfig struct {
	Palette string `json:"palette,omitempty"` // GPL file, empty for the built-in one
	FPS     int    `json:"fps,omitempty"`
}

// RemoteConfig is the HTTP control surface
type RemoteConfig struct {
	Addr string `json:"addr,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Output      OutputConfig       `json:"output"`
	Clock       ClockConfig        `json:"clock,omitempty"`
	Audio       AudioConfig        `json:"audio"`
	Seed        uint64             `json:"seed,omitempty"`
	Params      map[string]float64 `json:"params,omitempty"`
	Keyboards   bool               `json:"keyboards,omitempty"`
	Controllers []ControllerConfig `json:"controllers,omitempty"`
	UI          UIConfig           `json:"ui,omitempty"`
	Remote      RemoteConfig       `json:"remote,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{LatencyMs: 20},
		Audio: AudioConfig{
			Driver:     DriverTicker,
			SampleRate: 48000,
			BufferSize: 256,
		},
		Seed: 1,
		Controllers: []ControllerConfig{
			{PortName: "Launchpad X LPX MIDI", Type: ControllerLaunchpadX, AutoConnect: true},
		},
		UI:     UIConfig{FPS: 30},
		Remote: RemoteConfig{Addr: "localhost:7777"},
	}
}

// Validate fills zero values with defaults and rejects what cannot run
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.Audio.Driver == "" {
		c.Audio.Driver = def.Audio.Driver
	}
	if c.Audio.Driver != DriverTicker && c.Audio.Driver != DriverPortAudio {
		return errors.Wrapf(ErrBadDriver, "%q", c.Audio.Driver)
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = def.Audio.SampleRate
	}
	if c.Audio.BufferSize <= 0 {
		c.Audio.BufferSize = def.Audio.BufferSize
	}
	if c.Output.LatencyMs <= 0 {
		c.Output.LatencyMs = def.Output.LatencyMs
	}
	if c.UI.FPS <= 0 {
		c.UI.FPS = def.UI.FPS
	}
	return nil
}

// Dir returns the config directory, ~/.config/go-genmidi. GENMIDI_HOME
// overrides it.
func Dir() (string, error) {
	if d := os.Getenv("GENMIDI_HOME"); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "home directory")
	}
	return filepath.Join(home, ".config", "go-genmidi"), nil
}

// Path returns the full path to config.json
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file, returning defaults if it does not exist
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrap(err, "reading config")
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config as indented JSON, creating the directory
func (c *Config) SaveFile(path string) error {
	return writeJSON(path, c)
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == portName {
			return &c.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == ctrl.PortName {
			c.Controllers[i] = ctrl
			return
		}
	}
	c.Controllers = append(c.Controllers, ctrl)
}

// Ignored lists the port names of controllers that must not be claimed
func (c *Config) Ignored() []string {
	var out []string
	for _, ctrl := range c.Controllers {
		if !ctrl.AutoConnect {
			out = append(out, ctrl.PortName)
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// Scenes live as <name>.json under the scenes directory

func sceneDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "scenes"), nil
}

func scenePath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", errors.Errorf("bad scene name %q", name)
	}
	dir, err := sceneDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".json"), nil
}

// SaveScene stores v as JSON under name
func SaveScene(name string, v any) error {
	path, err := scenePath(name)
	if err != nil {
		return err
	}
	return writeJSON(path, v)
}

// LoadScene decodes the named scene into v
func LoadScene(name string, v any) error {
	path, err := scenePath(name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNoScene, "%q", name)
		}
		return errors.Wrap(err, "reading scene")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "parsing scene %q", name)
	}
	return nil
}

// Scenes lists saved scene names in order
func Scenes() ([]string, error) {
	dir, err := sceneDir()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "listing scenes")
	}
	var names []string
	for _, e := range entries {
		if n := e.Name(); !e.IsDir() && strings.HasSuffix(n, ".json") {
			names = append(names, strings.TrimSuffix(n, ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// DeleteScene removes a saved scene
func DeleteScene(name string) error {
	path, err := scenePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNoScene, "%q", name)
		}
		return errors.Wrap(err, "deleting scene")
	}
	return nil
}
