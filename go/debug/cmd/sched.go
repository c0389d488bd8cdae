package cmd

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/models/cpu"
	"github.com/lunixbochs/hc11corn/go/sched"
)

var lineStates = map[string]int{
	"clear":  cpu.CLEAR_LINE,
	"assert": cpu.ASSERT_LINE,
	"hold":   cpu.HOLD_LINE,
}

var CpuCmd = cmd(&Command{
	Name:  "cpu",
	Desc:  "Show or select the cpu that reg, mem and step act on.",
	Usage: "[name]",
	Run: func(c *Context, name ...string) error {
		if len(name) > 0 {
			if err := c.M.Select(name[0]); err != nil {
				return err
			}
		}
		c.Status(c.M.Core())
		return nil
	},
})

var DevicesCmd = cmd(&Command{
	Name: "devices",
	Desc: "List scheduled devices.",
	Run: func(c *Context) error {
		sel := c.M.Core().Name()
		for _, e := range c.M.Sched().Devices() {
			mark := " "
			if e.Name() == sel {
				mark = "*"
			}
			c.Printf("%s %-8s %10dHz  local %s  cycles %d  %s\n", mark, e.Name(), e.Device().Clock(),
				e.Local(), e.TotalCycles(), sched.SuspendString(e.Suspended()))
		}
		return nil
	},
})

var TimeCmd = cmd(&Command{
	Name: "time",
	Desc: "Show emulated time.",
	Run: func(c *Context) error {
		s := c.M.Sched()
		c.Printf("time %s, %d slices\n", s.Now(), s.Slices())
		return nil
	},
})

var IrqCmd = cmd(&Command{
	Name:  "irq",
	Desc:  "Drive an interrupt line of the selected cpu: clear, assert or hold.",
	Usage: "line [state]",
	Run: func(c *Context, line int, state ...string) error {
		st := cpu.HOLD_LINE
		if len(state) > 0 {
			var ok bool
			if st, ok = lineStates[state[0]]; !ok {
				return errors.Errorf("unknown line state %q", state[0])
			}
		}
		return c.M.Sched().SetIRQLine(c.M.Core(), line, st)
	},
})

var TriggerCmd = cmd(&Command{
	Name:  "trigger",
	Desc:  "Fire a trigger, waking cpus waiting on it.",
	Usage: "id",
	Run: func(c *Context, id int) error {
		c.Printf("woke %d\n", c.M.Sched().Trigger(id))
		return nil
	},
})

func suspendReason(name string) (uint32, error) {
	reason, ok := sched.ParseSuspend(name)
	if !ok {
		return 0, errors.Errorf("unknown suspend reason %q", name)
	}
	return reason, nil
}

var SuspendCmd = cmd(&Command{
	Name:  "suspend",
	Desc:  "Suspend the selected cpu.",
	Usage: "[reason]",
	Run: func(c *Context, name ...string) error {
		reason := uint32(sched.SUSPEND_DISABLE)
		if len(name) > 0 {
			var err error
			if reason, err = suspendReason(name[0]); err != nil {
				return err
			}
		}
		return c.M.Sched().Suspend(c.M.Core(), reason, false)
	},
})

var ResumeCmd = cmd(&Command{
	Name:  "resume",
	Desc:  "Resume the selected cpu.",
	Usage: "[reason]",
	Run: func(c *Context, name ...string) error {
		reason := uint32(sched.SUSPEND_DISABLE)
		if len(name) > 0 {
			var err error
			if reason, err = suspendReason(name[0]); err != nil {
				return err
			}
		}
		return c.M.Sched().Resume(c.M.Core(), reason)
	},
})
