package debug

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/lunixbochs/readline"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/hc11corn/go/debug/cmd"
	"github.com/lunixbochs/hc11corn/go/models"
)

// Debugger serves the command set for one machine. Commands run on the
// caller's goroutine, which must be the one driving the machine.
type Debugger struct {
	m   models.Machine
	log logrus.FieldLogger
}

func NewDebugger(m models.Machine) *Debugger {
	return &Debugger{m: m, log: m.Log().WithField("sys", "debug")}
}

func (d *Debugger) prompt() string {
	core := d.m.Core()
	pc, _ := core.RegRead(d.m.Arch().PC)
	return fmt.Sprintf("%s $%04x> ", core.Name(), pc)
}

// Run drives a remote session until the client leaves.
func (d *Debugger) Run(c net.Conn) {
	log := d.log.WithField("remote", c.RemoteAddr().String())
	log.Info("debug connection")
	defer c.Close()

	tcp, ok := c.(*net.TCPConn)
	if !ok {
		log.Error("debugger needs a tcp connection")
		return
	}
	stdin, err := tcp.File()
	if err != nil {
		log.WithError(err).Error("error opening 'stdin' for debugger")
		return
	}
	defer stdin.Close()
	rl, err := readline.NewEx(&readline.Config{
		Prompt: d.prompt(),
		Stderr: c,
		Stdin:  stdin,
		Stdout: c,
	})
	if err != nil {
		log.WithError(err).Error("error opening readline for debugger")
		return
	}
	defer rl.Close()
	ctx := cmd.NewContext(c, d.m)
	ctx.Status(d.m.Core())
	for {
		rl.SetPrompt(d.prompt())
		line, err := rl.Readline()
		if err != nil {
			if err != io.EOF {
				log.WithError(err).Error("error in readline")
			}
			break
		}
		if strings.TrimSpace(line) == "quit" {
			break
		}
		if err := cmd.Run(ctx, line); err != nil {
			log.WithError(err).Error("error in command")
			break
		}
	}
	log.Info("debug connection closed")
}

// Script runs one command per line of r, echoing each to w.
func (d *Debugger) Script(r io.Reader, w io.Writer) error {
	rw := struct {
		io.Reader
		io.Writer
	}{r, w}
	ctx := cmd.NewContext(rw, d.m)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fmt.Fprintf(w, "%s%s\n", d.prompt(), line)
		if err := cmd.Run(ctx, line); err != nil {
			return err
		}
	}
	return errors.WithStack(scanner.Err())
}
