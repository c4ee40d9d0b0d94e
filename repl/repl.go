// Package repl is a line-oriented console for editing a running engine.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"go-genmidi/config"
	"go-genmidi/engine"
)

// ErrQuit is returned by eval when the user asks to leave
var ErrQuit = errors.New("quit")

// Engine is what the console drives
type Engine interface {
	Params() *engine.Params
	State() *engine.State
	Do(fn func(*engine.Core)) error
	Start() error
	Stop() error
	Continue() error
	Reset() error
	Panic() error
	Capture(ctx context.Context) (*engine.Scene, error)
	Apply(sc *engine.Scene) ([]string, error)
}

type env struct {
	eng     Engine
	timeout time.Duration // for captures
}

func newEnv(eng Engine) *env {
	return &env{eng: eng, timeout: time.Second}
}

func (e *env) eval(input string) (string, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return "", nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	cmd, ok := lookup(name)
	if !ok {
		return "", fmt.Errorf("unknown command: %s", name)
	}
	if cmd.arity < 0 {
		if arity := -cmd.arity; len(args) < arity {
			return "", fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
				cmd.name, arity, len(args))
		}
	} else if len(args) != cmd.arity {
		return "", fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
			cmd.name, cmd.arity, len(args))
	}
	result, err := cmd.run(e, args)
	if err != nil && !errors.Is(err, ErrQuit) {
		return result, fmt.Errorf("%s error: %w", cmd.name, err)
	}
	return result, err
}

func completer() *readline.PrefixCompleter {
	params := make([]readline.PrefixCompleterInterface, 0, engine.ParamCount)
	for _, name := range engine.Names() {
		params = append(params, readline.PcItem(name))
	}
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, cmd := range commands {
		switch cmd.name {
		case "set", "get", "unmod":
			items = append(items, readline.PcItem(cmd.name, params...))
		default:
			items = append(items, readline.PcItem(cmd.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

// Run reads commands until EOF, quit or ctx is done
func Run(ctx context.Context, eng Engine) error {
	cfg := &readline.Config{
		Prompt:          "genmidi> ",
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	}
	if dir, err := config.Dir(); err == nil {
		cfg.HistoryFile = filepath.Join(dir, "history")
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}
	defer rl.Close()
	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	e := newEnv(eng)
	for {
		line, err := rl.Readline()
		if err == io.EOF || ctx.Err() != nil {
			return nil
		}
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			continue
		}
		result, err := e.eval(line)
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			continue
		}
		if result != "" {
			fmt.Fprintln(rl.Stdout(), result)
		}
	}
}
