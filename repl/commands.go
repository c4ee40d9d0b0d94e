package repl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go-genmidi/config"
	"go-genmidi/engine"
	"go-genmidi/scale"
)

type command struct {
	name  string
	run   func(*env, []string) (string, error)
	arity int // -n means len(args) must be >= n
	help  string
}

var commands []command

func init() {
	commands = []command{
		{"set", setCommand, 2, "set <param> <value>"},
		{"get", getCommand, 1, "get <param>"},
		{"params", paramsCommand, 0, "list every parameter"},
		{"start", transport((Engine).Start), 0, "play from the top"},
		{"stop", transport((Engine).Stop), 0, "stop and release notes"},
		{"continue", transport((Engine).Continue), 0, "resume where stopped"},
		{"reset", transport((Engine).Reset), 0, "rewind"},
		{"panic", transport((Engine).Panic), 0, "all notes off"},
		{"status", statusCommand, 0, "transport and queue"},
		{"learn", learnCommand, -1, "learn <note>... teach the markov chain a phrase"},
		{"forget", forgetCommand, 0, "clear the markov chain"},
		{"axiom", axiomCommand, 1, "axiom <string>"},
		{"rule", ruleCommand, -2, "rule <symbol> <replacement> [probability]"},
		{"rules", rulesCommand, 0, "show the l-system"},
		{"clear-rules", clearRulesCommand, 0, "drop every l-system rule"},
		{"layer", layerCommand, -1, "layer add | layer <n> remove|clear|on|off|div|len|phase|step|random ..."},
		{"cells", cellsCommand, 1, "cells <pattern of . and #> | cells random"},
		{"accents", accentsCommand, -1, "accents <velocity>..."},
		{"custom", customCommand, -1, "custom <interval>... install a custom scale"},
		{"sources", sourcesCommand, 0, "list modulation sources"},
		{"mod", modCommand, 3, "mod <source#> <param> <depth>"},
		{"unmod", unmodCommand, 1, "unmod <param>"},
		{"mods", modsCommand, 0, "list modulation routes"},
		{"save", saveCommand, 1, "save <scene>"},
		{"load", loadCommand, 1, "load <scene>"},
		{"scenes", scenesCommand, 0, "list saved scenes"},
		{"delete", deleteCommand, 1, "delete <scene>"},
		{"help", helpCommand, 0, "this list"},
		{"quit", quitCommand, 0, "leave"},
	}
}

func lookup(name string) (command, bool) {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd, true
		}
	}
	return command{}, false
}

func transport(fn func(Engine) error) func(*env, []string) (string, error) {
	return func(e *env, _ []string) (string, error) {
		return "", fn(e.eng)
	}
}

func setCommand(e *env, args []string) (string, error) {
	id, ok := engine.Lookup(args[0])
	if !ok {
		return "", fmt.Errorf("%w %q", engine.ErrUnknownParam, args[0])
	}
	v, err := e.eng.Params().SetNamed(args[0], args[1])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s", id, engine.Info(id).Format(v)), nil
}

func getCommand(e *env, args []string) (string, error) {
	id, ok := engine.Lookup(args[0])
	if !ok {
		return "", fmt.Errorf("%w %q", engine.ErrUnknownParam, args[0])
	}
	return engine.Info(id).Format(e.eng.Params().Get(id)), nil
}

func paramsCommand(e *env, _ []string) (string, error) {
	p := e.eng.Params()
	var b strings.Builder
	for id := engine.ParamID(0); id < engine.ParamCount; id++ {
		info := engine.Info(id)
		fmt.Fprintf(&b, "%-20s %s\n", info.Name, info.Format(p.Get(id)))
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func statusCommand(e *env, _ []string) (string, error) {
	st := e.eng.State()
	if st == nil {
		return "", errors.New("no state yet")
	}
	play := "stopped"
	if st.Playing {
		play = "playing"
	}
	return fmt.Sprintf("%s %.2fbpm %d/%d bar %d, %s %s %s, queued %d dropped %d",
		play, st.Tempo, st.Numerator, st.Denominator, int(st.Bars)+1,
		st.Generator, st.Root, st.Scale, st.Queued, st.Dropped), nil
}

func learnCommand(e *env, args []string) (string, error) {
	seq := make([]int, len(args))
	for i, a := range args {
		n, err := scale.ParseNote(a)
		if err != nil {
			return "", err
		}
		seq[i] = n
	}
	return fmt.Sprintf("learned %d notes", len(seq)), e.eng.Do(func(c *engine.Core) {
		c.Markov.Learn(seq)
	})
}

func forgetCommand(e *env, _ []string) (string, error) {
	return "", e.eng.Do(func(c *engine.Core) { c.Markov.Forget() })
}

func axiomCommand(e *env, args []string) (string, error) {
	axiom := args[0]
	return "", e.eng.Do(func(c *engine.Core) { c.LSystem.SetAxiom(axiom) })
}

func ruleCommand(e *env, args []string) (string, error) {
	if len(args[0]) != 1 {
		return "", fmt.Errorf("symbol must be one character: %q", args[0])
	}
	sym, repl, prob := args[0][0], args[1], 1.0
	if len(args) > 2 {
		var err error
		if prob, err = strconv.ParseFloat(args[2], 64); err != nil {
			return "", err
		}
		if prob < 0 || prob > 1 {
			return "", fmt.Errorf("probability is out of range 0-1: %v", prob)
		}
	}
	return "", e.eng.Do(func(c *engine.Core) { c.LSystem.AddRule(sym, repl, prob) })
}

func clearRulesCommand(e *env, _ []string) (string, error) {
	return "", e.eng.Do(func(c *engine.Core) { c.LSystem.ClearRules() })
}

func rulesCommand(e *env, _ []string) (string, error) {
	st := e.eng.State()
	if st == nil {
		return "", errors.New("no state yet")
	}
	lines := []string{"axiom " + st.LSystem.Axiom}
	for _, r := range st.LSystem.Rules {
		lines = append(lines, fmt.Sprintf("%c -> %s (%.2f)", r.Symbol, r.Replacement, r.Probability))
	}
	return strings.Join(lines, "\n"), nil
}

func layerCommand(e *env, args []string) (string, error) {
	sub := args[0]
	if sub == "add" {
		return "", e.eng.Do(func(c *engine.Core) { c.Polyrhythm.AddLayer() })
	}
	if len(args) < 2 {
		return "", fmt.Errorf("layer %s: missing layer number", sub)
	}
	i, err := strconv.Atoi(args[1])
	if err != nil {
		return "", err
	}
	i-- // layers are numbered from 1 on screen
	if i < 0 {
		return "", fmt.Errorf("no layer %s", args[1])
	}
	rest := args[2:]
	need := func(n int) error {
		if len(rest) < n {
			return fmt.Errorf("layer %s: want %d more arguments", sub, n)
		}
		return nil
	}

	var fn func(*engine.Core)
	switch sub {
	case "remove":
		fn = func(c *engine.Core) { c.Polyrhythm.RemoveLayer(i) }
	case "clear":
		fn = func(c *engine.Core) { c.Polyrhythm.ClearLayer(i) }
	case "on", "off":
		on := sub == "on"
		fn = func(c *engine.Core) { c.Polyrhythm.SetLayerEnabled(i, on) }
	case "div", "len":
		if err := need(1); err != nil {
			return "", err
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return "", err
		}
		if sub == "div" {
			fn = func(c *engine.Core) { c.Polyrhythm.SetLayerDivision(i, n) }
		} else {
			fn = func(c *engine.Core) { c.Polyrhythm.SetLayerLength(i, n) }
		}
	case "phase", "random":
		if err := need(1); err != nil {
			return "", err
		}
		f, err := strconv.ParseFloat(rest[0], 64)
		if err != nil {
			return "", err
		}
		if sub == "phase" {
			fn = func(c *engine.Core) { c.Polyrhythm.SetLayerPhase(i, f) }
		} else {
			fn = func(c *engine.Core) { c.Polyrhythm.RandomizeLayer(i, f) }
		}
	case "step":
		// step <n> [velocity] [note]; velocity 0 clears the step
		if err := need(1); err != nil {
			return "", err
		}
		step, err := strconv.Atoi(rest[0])
		if err != nil {
			return "", err
		}
		step--
		vel, pitch := 0.8, -1
		if len(rest) > 1 {
			if vel, err = strconv.ParseFloat(rest[1], 64); err != nil {
				return "", err
			}
		}
		if len(rest) > 2 {
			if pitch, err = scale.ParseNote(rest[2]); err != nil {
				return "", err
			}
		}
		fn = func(c *engine.Core) {
			l := c.Polyrhythm.Layer(i)
			if l == nil || step < 0 || step >= l.Length {
				return
			}
			p := pitch
			if p < 0 {
				p = l.Pitches[step]
			}
			c.Polyrhythm.SetStep(i, step, vel > 0, vel, p)
		}
	default:
		return "", fmt.Errorf("unknown layer command %q", sub)
	}
	return "", e.eng.Do(fn)
}

func cellsCommand(e *env, args []string) (string, error) {
	if args[0] == "random" {
		density := e.eng.Params().Get(engine.ParamDensity)
		return "", e.eng.Do(func(c *engine.Core) { c.Cellular.RandomizeState(density) })
	}
	cells := make([]bool, 0, len(args[0]))
	for _, r := range args[0] {
		switch r {
		case '#', '1', 'x':
			cells = append(cells, true)
		case '.', '0', '-':
			cells = append(cells, false)
		default:
			return "", fmt.Errorf("bad cell %q", r)
		}
	}
	return "", e.eng.Do(func(c *engine.Core) { c.Cellular.SetState(cells) })
}

func accentsCommand(e *env, args []string) (string, error) {
	accents, err := floats(args)
	if err != nil {
		return "", err
	}
	return "", e.eng.Do(func(c *engine.Core) { c.Euclidean.SetAccents(accents) })
}

func customCommand(e *env, args []string) (string, error) {
	ivs := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return "", err
		}
		ivs[i] = n
	}
	return "", e.eng.Do(func(c *engine.Core) { c.Quantizer.SetCustom(ivs) })
}

func sourcesCommand(e *env, _ []string) (string, error) {
	st := e.eng.State()
	if st == nil {
		return "", errors.New("no state yet")
	}
	lines := make([]string, len(st.Sources))
	for i, name := range st.Sources {
		lines[i] = fmt.Sprintf("%d %s", i+1, name)
	}
	return strings.Join(lines, "\n"), nil
}

func modCommand(e *env, args []string) (string, error) {
	st := e.eng.State()
	if st == nil {
		return "", errors.New("no state yet")
	}
	src, err := strconv.Atoi(args[0])
	if err != nil || src < 1 || src > len(st.Sources) {
		return "", fmt.Errorf("no source %q", args[0])
	}
	id, ok := engine.Lookup(args[1])
	if !ok {
		return "", fmt.Errorf("%w %q", engine.ErrUnknownParam, args[1])
	}
	depth, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return "", err
	}
	msg := fmt.Sprintf("%s -> %s %.2f", st.Sources[src-1], id, depth)
	return msg, e.eng.Do(func(c *engine.Core) {
		c.Modulation.Connect(src-1, int(id), depth)
	})
}

func unmodCommand(e *env, args []string) (string, error) {
	id, ok := engine.Lookup(args[0])
	if !ok {
		return "", fmt.Errorf("%w %q", engine.ErrUnknownParam, args[0])
	}
	return "", e.eng.Do(func(c *engine.Core) { c.Modulation.DisconnectTarget(int(id)) })
}

func modsCommand(e *env, _ []string) (string, error) {
	st := e.eng.State()
	if st == nil {
		return "", errors.New("no state yet")
	}
	if len(st.Routes) == 0 {
		return "no routes", nil
	}
	lines := make([]string, len(st.Routes))
	for i, r := range st.Routes {
		lines[i] = fmt.Sprintf("%s -> %s %.2f", r.Source, r.Target, r.Depth)
	}
	return strings.Join(lines, "\n"), nil
}

func saveCommand(e *env, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	sc, err := e.eng.Capture(ctx)
	if err != nil {
		return "", err
	}
	if err := config.SaveScene(args[0], sc); err != nil {
		return "", err
	}
	return "saved " + args[0], nil
}

func loadCommand(e *env, args []string) (string, error) {
	var sc engine.Scene
	if err := config.LoadScene(args[0], &sc); err != nil {
		return "", err
	}
	unknown, err := e.eng.Apply(&sc)
	if err != nil {
		return "", err
	}
	if len(unknown) > 0 {
		return fmt.Sprintf("loaded %s, ignored %s", args[0], strings.Join(unknown, ", ")), nil
	}
	return "loaded " + args[0], nil
}

func scenesCommand(e *env, _ []string) (string, error) {
	names, err := config.Scenes()
	if err != nil {
		return "", err
	}
	return strings.Join(names, "\n"), nil
}

func deleteCommand(e *env, args []string) (string, error) {
	return "", config.DeleteScene(args[0])
}

func helpCommand(e *env, _ []string) (string, error) {
	var b strings.Builder
	for _, cmd := range commands {
		fmt.Fprintf(&b, "%-9s %s\n", cmd.name, cmd.help)
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func quitCommand(e *env, _ []string) (string, error) {
	return "", ErrQuit
}

func floats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
