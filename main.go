package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.3.0"

// flags shared by every command that builds an engine
var (
	outPort     string
	clockPort   string
	driverName  string
	seed        uint64
	latencyMs   int
	sets        []string
	sceneName   string
	debugPath   string
	headless    bool
	remoteAddr  string
	withRemote  bool
	renderBars  float64
	renderOut   string
	ignorePorts []string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "genmidi",
	Short: "Real-time generative MIDI",
	Long: `genmidi generates notes with Euclidean rhythms, polyrhythms, Markov
chains, L-systems, cellular automata and random walks, quantizes them to a
scale, humanizes them and plays them to a MIDI port.

Run with no command to start playing with the monitor.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runPlay,
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play to a MIDI port with the monitor",
	Long: `Start the engine, send to the configured output port and show the
monitor. Launchpads and keyboards are picked up as they are plugged in.

Examples:
  genmidi play --port "IAC Driver Bus 1"
  genmidi play --set generator=markov --set tempo=96
  genmidi play --clock "MIDI Clock In" --headless --remote`,
	RunE: runPlay,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render bars offline to a MIDI file",
	Long: `Run the engine faster than real time and write what it played.

Example:
  genmidi render --bars 16 -o out.mid --set generator=l-system`,
	RunE: runRender,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Play with a command console instead of the monitor",
	RunE:  runRepl,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Play headless with the HTTP remote",
	Long: `Play without a terminal UI and accept control over HTTP.

Example:
  genmidi serve --addr :7777`,
	RunE: runServe,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI ports",
	Long: `List input and output ports. --ignore stores an input in the
config file so it is never claimed as a controller.`,
	RunE: runPorts,
}

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "List parameters with their ranges",
	RunE:  runParams,
}

func init() {
	rootCmd.AddCommand(playCmd, renderCmd, replCmd, serveCmd, portsCmd, paramsCmd)

	engineFlags := func(c *cobra.Command) {
		f := c.Flags()
		f.StringVarP(&outPort, "port", "p", "", "Output port (name or part of it)")
		f.StringVar(&clockPort, "clock", "", "MIDI clock input port")
		f.StringVar(&driverName, "driver", "", "Real-time driver: ticker or portaudio")
		f.Uint64Var(&seed, "seed", 0, "Random seed (0 keeps the configured one)")
		f.IntVar(&latencyMs, "latency", 0, "Output latency in milliseconds")
		f.StringArrayVarP(&sets, "set", "s", nil, "Set a parameter, name=value (repeatable)")
		f.StringVar(&sceneName, "scene", "", "Load a saved scene at start")
		f.StringVar(&debugPath, "debug", "", "Write a debug log to this file")
	}
	for _, c := range []*cobra.Command{rootCmd, playCmd, replCmd, serveCmd, renderCmd} {
		engineFlags(c)
	}
	for _, c := range []*cobra.Command{rootCmd, playCmd} {
		c.Flags().BoolVar(&headless, "headless", false, "No monitor; run until interrupted")
		c.Flags().BoolVar(&withRemote, "remote", false, "Also serve the HTTP remote")
	}
	for _, c := range []*cobra.Command{rootCmd, playCmd, serveCmd} {
		c.Flags().StringVar(&remoteAddr, "addr", "", "HTTP remote address")
	}

	renderCmd.Flags().Float64Var(&renderBars, "bars", 8, "Bars to render")
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "genmidi.mid", "MIDI file to write")

	portsCmd.Flags().StringArrayVar(&ignorePorts, "ignore", nil, "Never claim this input as a controller (repeatable)")
}

func runParams(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	for _, line := range paramTable() {
		fmt.Fprintln(w, line)
	}
	return nil
}
