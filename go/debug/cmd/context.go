package cmd

import (
	"fmt"
	"io"

	"github.com/lunixbochs/hc11corn/go/models"
)

type Context struct {
	io.ReadWriter
	M models.Machine

	status map[models.Core]*models.StatusDiff
}

func NewContext(rw io.ReadWriter, m models.Machine) *Context {
	return &Context{ReadWriter: rw, M: m, status: make(map[models.Core]*models.StatusDiff)}
}

func (c *Context) Printf(format string, a ...interface{}) (n int, err error) {
	return fmt.Fprintf(c, format, a...)
}

// Status prints where core is, and the registers that moved since the
// last time it was asked about.
func (c *Context) Status(core models.Core) {
	arch := c.M.Arch()
	sd, ok := c.status[core]
	if !ok {
		sd = &models.StatusDiff{Arch: arch, Cpu: core}
		sd.Changes(false)
		c.status[core] = sd
	}
	pc, _ := core.RegRead(arch.PC)
	line := fmt.Sprintf("$%04x", pc)
	if mem, err := core.MemRead(pc, 4); err == nil {
		if ins, err := arch.Dis.Dis(mem, pc); err == nil && len(ins) > 0 {
			line = models.FormatIns(ins[:1], false)
		}
	}
	c.Printf("[%s] %s\n", core.Name(), line)
	if changes := sd.Changes(true); changes.Count() > 0 {
		c.Printf("%s", changes.String(c.M.Config().Color))
	}
}
