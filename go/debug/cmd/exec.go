package cmd

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/sched"
)

var StepCmd = cmd(&Command{
	Name:  "step",
	Desc:  "Step the selected cpu by n instructions.",
	Usage: "[n]",
	Run: func(c *Context, n ...int) error {
		count := 1
		if len(n) > 0 {
			count = n[0]
		}
		for i := 0; i < count; i++ {
			if err := c.M.Step(); err != nil {
				return err
			}
			if b := c.M.Hit(); b != nil {
				c.Printf("breakpoint %s\n", b)
				break
			}
		}
		c.Status(c.M.Core())
		return nil
	},
})

var ContCmd = cmd(&Command{
	Name:  "cont",
	Desc:  "Run until a breakpoint, or for some seconds of emulated time.",
	Usage: "[seconds]",
	Run: func(c *Context, secs ...float64) error {
		d := sched.Never
		if len(secs) > 0 {
			d = sched.FromSeconds(secs[0])
		}
		err := c.M.Run(d)
		if b := c.M.Hit(); b != nil {
			c.Printf("breakpoint %s\n", b)
			for _, core := range c.M.Cores() {
				if pc, _ := core.RegRead(c.M.Arch().PC); b.Match(core.Name(), pc) {
					c.Status(core)
				}
			}
		}
		c.Printf("time %s\n", c.M.Sched().Now())
		return err
	},
})

var ResetCmd = cmd(&Command{
	Name: "reset",
	Desc: "Reset every cpu.",
	Run: func(c *Context) error {
		if err := c.M.Reset(); err != nil {
			return err
		}
		c.Status(c.M.Core())
		return nil
	},
})

var BreakCmd = cmd(&Command{
	Name:  "break",
	Desc:  "List breakpoints, or add one.",
	Usage: "[addr[@cpu]]",
	Run: func(c *Context, desc ...string) error {
		if len(desc) == 0 {
			for i, b := range c.M.Breakpoints() {
				c.Printf("  %d: %s\n", i, b)
			}
			return nil
		}
		for _, d := range desc {
			b, err := c.M.BreakAdd(d)
			if err != nil {
				return err
			}
			c.Printf("breakpoint %d at %s\n", len(c.M.Breakpoints())-1, b)
		}
		return nil
	},
})

var DeleteCmd = cmd(&Command{
	Name:  "delete",
	Desc:  "Delete a breakpoint by number.",
	Usage: "n",
	Run: func(c *Context, n int) error {
		bps := c.M.Breakpoints()
		if n < 0 || n >= len(bps) {
			return errors.Errorf("no breakpoint %d", n)
		}
		return c.M.BreakDel(bps[n])
	},
})
