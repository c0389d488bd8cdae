package cpu

type Hook interface{}

// IRQCallback is invoked by a Cpu each time it actually takes an interrupt.
// The return value is a vector number on chips that use one.
type IRQCallback func(c Cpu, line int) int

// This interface abstracts what the scheduler, debugger and save-state code
// require from an emulated processor.
type Cpu interface {
	// memory IO, as seen from the cpu (internal windows included)
	MemRead(addr, size uint64) ([]byte, error)
	MemWrite(addr uint64, p []byte) error

	// register IO
	RegRead(reg int) (uint64, error)
	RegWrite(reg int, val uint64) error

	// execution
	Reset() error
	Execute(cycles int) int
	Step() int
	Stop() error

	// interrupt lines
	SetIRQLine(line, state int)
	SetIRQCallback(cb IRQCallback)

	// hooks
	HookAdd(htype int, cb interface{}, begin, end uint64, extra ...int) (Hook, error)
	HookDel(hook Hook) error

	// save/restore entire CPU state
	ContextSave(reuse interface{}) (interface{}, error)
	ContextRestore(ctx interface{}) error

	// cleanup
	Close() error
}
