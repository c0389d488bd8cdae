package sched

import (
	"github.com/lunixbochs/hc11corn/go/models/cpu"
)

// Device is anything the scheduler can hand a cycle budget to.
type Device interface {
	Name() string
	Clock() uint64
	Reset() error
	// Execute runs at least cycles cycles unless stopped, and returns how
	// many it actually used.
	Execute(cycles int) int
	// ContextSize is the size of the packed device state. Zero is not a
	// valid device.
	ContextSize() int
}

// Burner devices can give up cycles without executing them.
type Burner interface {
	Burn(cycles int)
}

// Stopper devices can end Execute early, at the next instruction
// boundary.
type Stopper interface {
	Stop() error
}

type Interruptible interface {
	SetIRQLine(line, state int)
	SetIRQCallback(cb cpu.IRQCallback)
}

// Saver devices can be included in a scheduler State.
type Saver interface {
	PackContext() ([]byte, error)
	UnpackContext(p []byte) error
}
