package sched

import (
	"fmt"
	"strings"

	"github.com/lunixbochs/hc11corn/go/models/cpu"
)

// suspend reasons, OR-ed together in Exec.suspend
const (
	SUSPEND_HALT      = 0x01
	SUSPEND_RESET     = 0x02
	SUSPEND_SPIN      = 0x04
	SUSPEND_TRIGGER   = 0x08
	SUSPEND_DISABLE   = 0x10
	SUSPEND_TIMESLICE = 0x20
)

var suspendNames = []struct {
	bit  uint32
	name string
}{
	{SUSPEND_HALT, "halt"},
	{SUSPEND_RESET, "reset"},
	{SUSPEND_SPIN, "spin"},
	{SUSPEND_TRIGGER, "trigger"},
	{SUSPEND_DISABLE, "disable"},
	{SUSPEND_TIMESLICE, "timeslice"},
}

// SuspendString renders a reason mask, "running" when empty.
func SuspendString(mask uint32) string {
	if mask == 0 {
		return "running"
	}
	var out []string
	for _, v := range suspendNames {
		if mask&v.bit != 0 {
			out = append(out, v.name)
		}
	}
	return strings.Join(out, "|")
}

// ParseSuspend maps a reason name back to its bit.
func ParseSuspend(name string) (uint32, bool) {
	for _, v := range suspendNames {
		if v.name == name {
			return v.bit, true
		}
	}
	return 0, false
}

// Exec is the scheduler's view of one device.
type Exec struct {
	dev   Device
	sched *Scheduler
	hz    uint64

	local       Time
	totalCycles uint64
	eatenCycles uint64

	suspend   uint32
	eatCycles bool
	trigger   int

	irqState map[int]int
	irqAck   cpu.IRQCallback
}

func (e *Exec) Device() Device      { return e.dev }
func (e *Exec) Name() string        { return e.dev.Name() }
func (e *Exec) Local() Time         { return e.local }
func (e *Exec) TotalCycles() uint64 { return e.totalCycles }
func (e *Exec) Suspended() uint32   { return e.suspend }
func (e *Exec) Runnable() bool      { return e.suspend == 0 }

// EatenCycles counts cycles charged to the device while it was suspended.
func (e *Exec) EatenCycles() uint64 { return e.eatenCycles }

// Trigger is the id the device waits on, when suspended for one.
func (e *Exec) Trigger() int { return e.trigger }

func (e *Exec) IRQLine(line int) int { return e.irqState[line] }

func (e *Exec) String() string {
	state := SuspendString(e.suspend)
	if e.suspend&SUSPEND_TRIGGER != 0 {
		state += fmt.Sprintf(" (%d)", e.trigger)
	}
	return fmt.Sprintf("%-8s %10dHz  %s  %12d cycles  %s", e.Name(), e.hz, e.local, e.totalCycles, state)
}

// advance accounts for cycles the device ran.
func (e *Exec) advance(cycles uint64) {
	e.totalCycles += cycles
	e.local = e.local.Add(FromCycles(cycles, e.hz))
}

// idle moves a suspended device's clock up to target. Eating devices are
// charged for the time.
func (e *Exec) idle(target Time) {
	if !e.local.Less(target) {
		return
	}
	if e.eatCycles {
		n := target.Sub(e.local).Cycles(e.hz)
		e.totalCycles += n
		e.eatenCycles += n
	}
	e.local = target
}

// ack runs when the core takes an interrupt. HOLD_LINE levels drop here.
func (e *Exec) ack(c cpu.Cpu, line int) int {
	if e.irqState[line] == cpu.HOLD_LINE {
		e.irqState[line] = cpu.CLEAR_LINE
		if irq, ok := e.dev.(Interruptible); ok {
			irq.SetIRQLine(line, cpu.CLEAR_LINE)
		}
	}
	if e.irqAck != nil {
		return e.irqAck(c, line)
	}
	return 0
}
