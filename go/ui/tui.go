package ui

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/jroimartin/gocui"
	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/debug/cmd"
	"github.com/lunixbochs/hc11corn/go/models"
)

// Tui is a full screen debugger: registers, code around PC and a memory
// window above a command line that takes monitor commands.
//
// Commands run on their own goroutine. The panes are rendered by that
// goroutine once the command returns, so the screen never reads the
// machine while it runs. Ctrl-C stops a running command, or quits when
// nothing runs.
type Tui struct {
	m   models.Machine
	g   *gocui.Gui
	ctx *cmd.Context
	// command, console and log output, trimmed on every render
	out *bytes.Buffer

	status map[models.Core]*models.StatusDiff
	// memory pane origin, moved with "view addr"
	memAddr uint64
	last    string
	busy    int32
	// owned by the gui goroutine
	panes panes
}

type panes struct {
	regs, code, mem, out string
	memTitle             string
}

const (
	codeLines = 12
	memSize   = 0x80
	outLines  = 200
)

type disassembler interface {
	Disassemble(addr uint64, count int) ([]models.Ins, error)
}

// RegPane lists every register of the core, marking the ones that moved
// since the last call on sd.
func RegPane(sd *models.StatusDiff, name string) string {
	return fmt.Sprintf("[%s]\n%s", name, sd.Changes(false).String(false))
}

// CodePane disassembles n instructions from PC, with the next instruction
// marked.
func CodePane(core models.Core, arch *models.Arch, n int) string {
	pc, err := core.RegRead(arch.PC)
	if err != nil {
		return err.Error()
	}
	var ins []models.Ins
	if d, ok := core.(disassembler); ok {
		ins, err = d.Disassemble(pc, n)
	} else {
		var mem []byte
		if mem, err = core.MemRead(pc, uint64(n)*4); err == nil {
			ins, err = arch.Dis.Dis(mem, pc)
		}
	}
	if err != nil {
		return fmt.Sprintf("$%04x: %v", pc, err)
	}
	if len(ins) > n {
		ins = ins[:n]
	}
	lines := strings.Split(models.FormatIns(ins, true), "\n")
	for i := range lines {
		if i == 0 {
			lines[i] = "> " + lines[i]
		} else {
			lines[i] = "  " + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

// MemPane dumps size bytes from addr, one hexdump line at a time so a hole
// in the map only blanks its own lines.
func MemPane(core models.Core, addr, size uint64, bits int) string {
	var out []string
	for off := uint64(0); off < size; off += 16 {
		line := addr + off
		mem, err := core.MemRead(line, 16)
		if err != nil {
			out = append(out, fmt.Sprintf("$%04x: unmapped", line))
			continue
		}
		out = append(out, models.HexDump(line, mem, bits)...)
	}
	return strings.Join(out, "\n")
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// newContext gives monitor commands an output and nothing to read.
func newContext(w io.Writer, m models.Machine) *cmd.Context {
	return cmd.NewContext(struct {
		io.Reader
		io.Writer
	}{strings.NewReader(""), w}, m)
}

// NewTui takes over the terminal. Whatever the machine writes to out while
// a command runs shows up in the output pane; out may be nil.
func NewTui(m models.Machine, out *bytes.Buffer) (*Tui, error) {
	if out == nil {
		out = new(bytes.Buffer)
	}
	t := &Tui{m: m, out: out, status: make(map[models.Core]*models.StatusDiff)}
	t.ctx = newContext(out, m)
	if sp, err := m.Core().RegRead(m.Arch().SP); err == nil {
		t.memAddr = (sp + 1) &^ 0xf
	}
	t.panes = t.render()

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, errors.Wrap(err, "gocui failed")
	}
	t.g = g
	g.Cursor = true
	g.SetManagerFunc(t.layout)
	if err := t.bindKeys(); err != nil {
		g.Close()
		return nil, err
	}
	return t, nil
}

// render draws every pane from the machine. Only called while no command
// runs.
func (t *Tui) render() panes {
	core := t.m.Core()
	sd, ok := t.status[core]
	if !ok {
		sd = &models.StatusDiff{Arch: t.m.Arch(), Cpu: core}
		t.status[core] = sd
	}
	out := tail(t.out.String(), outLines)
	t.out.Reset()
	if out != "" {
		t.out.WriteString(out + "\n")
	}
	return panes{
		regs:     RegPane(sd, core.Name()),
		code:     CodePane(core, t.m.Arch(), codeLines),
		mem:      MemPane(core, t.memAddr, memSize, t.m.Arch().Bits),
		memTitle: fmt.Sprintf("memory $%04x", t.memAddr),
		out:      out,
	}
}

func (t *Tui) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	split := maxY / 2
	views := []struct {
		name, title, text string
		x0, y0, x1, y1    int
	}{
		{"regs", "registers", t.panes.regs, 0, 0, maxX/2 - 1, 5},
		{"code", "code", t.panes.code, 0, 6, maxX/2 - 1, split},
		{"mem", t.panes.memTitle, t.panes.mem, maxX / 2, 0, maxX - 1, split},
		{"out", "output", t.panes.out, 0, split + 1, maxX - 1, maxY - 4},
	}
	for _, p := range views {
		v, err := g.SetView(p.name, p.x0, p.y0, p.x1, p.y1)
		if err != nil && err != gocui.ErrUnknownView {
			return err
		}
		v.Title = p.title
		v.Wrap = p.name == "out"
		v.Autoscroll = p.name == "out"
		v.Clear()
		fmt.Fprint(v, p.text)
	}
	if v, err := g.SetView("cmd", 0, maxY-3, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "command (enter runs, empty repeats, ctrl-c stops or quits)"
		v.Editable = true
		if _, err := g.SetCurrentView("cmd"); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tui) bindKeys() error {
	if err := t.g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, t.interrupt); err != nil {
		return err
	}
	return t.g.SetKeybinding("cmd", gocui.KeyEnter, gocui.ModNone, t.enter)
}

func (t *Tui) interrupt(g *gocui.Gui, v *gocui.View) error {
	if atomic.LoadInt32(&t.busy) != 0 {
		t.m.Stop()
		return nil
	}
	return gocui.ErrQuit
}

func (t *Tui) enter(g *gocui.Gui, v *gocui.View) error {
	if atomic.LoadInt32(&t.busy) != 0 {
		return nil
	}
	line := strings.TrimSpace(v.Buffer())
	v.Clear()
	v.SetCursor(0, 0)
	if line == "" {
		line = t.last
	}
	if line == "quit" {
		return gocui.ErrQuit
	}
	if line == "" {
		return nil
	}
	t.last = line
	atomic.StoreInt32(&t.busy, 1)
	go t.exec(line)
	return nil
}

// exec runs one command line away from the gui goroutine.
func (t *Tui) exec(line string) {
	fmt.Fprintf(t.out, "> %s\n", line)
	if err := t.command(line); err != nil {
		fmt.Fprintf(t.out, "error: %v\n", err)
	}
	p := t.render()
	atomic.StoreInt32(&t.busy, 0)
	t.g.Update(func(*gocui.Gui) error {
		t.panes = p
		return nil
	})
}

// command handles the pane commands and passes the rest to the monitor.
func (t *Tui) command(line string) error {
	fields := strings.Fields(line)
	if fields[0] == "view" {
		if len(fields) != 2 {
			return errors.New("usage: view addr")
		}
		addr, err := cmd.ParseNum(fields[1])
		if err != nil {
			return err
		}
		t.memAddr = addr &^ 0xf
		return nil
	}
	return cmd.Run(t.ctx, line)
}

// Run shows the screen until quit.
func (t *Tui) Run() error {
	defer t.g.Close()
	if err := t.g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}
