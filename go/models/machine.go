package models

import (
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/hc11corn/go/models/cpu"
	"github.com/lunixbochs/hc11corn/go/sched"
)

// Core is one scheduled processor of a Machine.
type Core interface {
	cpu.Cpu
	Name() string
	Clock() uint64
	ContextSize() int
}

// Machine is a set of cores sharing one program space and one scheduler.
// The debugger, tracer and save-state code work against it. A Machine is
// driven from a single goroutine; only Stop may be called from another.
type Machine interface {
	Arch() *Arch
	Config() *Config
	Log() logrus.FieldLogger
	Sched() *sched.Scheduler
	Mem() *cpu.Mem

	Cores() []Core
	// Core is the selected core, the target of register and step commands.
	Core() Core
	Select(name string) error
	FindCore(name string) Core

	// Run advances emulated time by d, returning early on Stop or a
	// breakpoint. sched.Never runs until one of those.
	Run(d sched.Time) error
	// Reset resets every core, as if the reset line was pulsed.
	Reset() error
	// Step runs until the selected core has executed one instruction.
	Step() error
	Stop()
	// Hit is the breakpoint that ended the last Run, if any.
	Hit() *Breakpoint

	BreakAdd(desc string) (*Breakpoint, error)
	BreakDel(b *Breakpoint) error
	Breakpoints() []*Breakpoint
}
