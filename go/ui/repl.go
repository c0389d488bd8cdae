package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/shibukawa/configdir"

	"github.com/lunixbochs/hc11corn/go/debug/cmd"
	"github.com/lunixbochs/hc11corn/go/models"
)

// Repl is the local debugger prompt. It runs commands on the calling
// goroutine, between runs of the machine.
type Repl struct {
	m   models.Machine
	rl  *readline.Instance
	ctx *cmd.Context
}

type nullCloser struct{ io.Writer }

func (n *nullCloser) Close() error { return nil }

func HistoryPath() string {
	configDirs := configdir.New("hc11corn", "repl")
	cacheDir := configDirs.QueryCacheFolder()
	if err := cacheDir.MkdirAll(); err != nil {
		return ""
	}
	return filepath.Join(cacheDir.Path, "history")
}

func NewRepl(m models.Machine) (*Repl, error) {
	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		HistoryFile:     HistoryPath(),
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, err
	}
	rw := struct {
		io.Reader
		io.Writer
	}{strings.NewReader(""), rl.Stdout()}
	return &Repl{m: m, rl: rl, ctx: cmd.NewContext(rw, m)}, nil
}

func completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for name := range cmd.Commands {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func (r *Repl) setPrompt() {
	core := r.m.Core()
	pc, _ := core.RegRead(r.m.Arch().PC)
	r.rl.SetPrompt(fmt.Sprintf("%s $%04x> ", core.Name(), pc))
}

// Run reads commands until quit or end of input.
func (r *Repl) Run() error {
	defer r.rl.Close()
	r.ctx.Status(r.m.Core())
	for {
		r.setPrompt()
		line, err := r.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "quit" {
			return nil
		}
		if err := cmd.Run(r.ctx, line); err != nil {
			return err
		}
	}
}

// Output is where log and trace output should go while the prompt is up,
// so it does not scribble over the line being edited.
func (r *Repl) Output() io.WriteCloser {
	return &nullCloser{r.rl.Stderr()}
}
