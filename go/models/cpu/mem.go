package cpu

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Mem is the external program space a cpu sees through its bus, after any
// on-chip windows have been routed away.
type Mem struct {
	bits uint
	// methods return an error for addresses that do not fit inside mask
	mask uint64
	// set when passing *Mem to NewHooks()
	hooks *Hooks
	sim   *MemSim

	order binary.ByteOrder
}

func NewMem(bits uint, order binary.ByteOrder) *Mem {
	return &Mem{
		bits:  bits,
		mask:  ^uint64(0) >> (64 - bits),
		sim:   &MemSim{},
		order: order,
	}
}

func (m *Mem) Bits() uint               { return m.bits }
func (m *Mem) Order() binary.ByteOrder { return m.order }

func (m *Mem) inRange(addr, size uint64) bool {
	return size > 0 && addr&m.mask == addr && (addr+size-1)&m.mask == addr+size-1
}

func (m *Mem) MemMapProt(addr, size uint64, prot int) error {
	if !m.inRange(addr, size) {
		return errors.New("region outside memory range")
	}
	m.sim.Map(addr, size, prot, false)
	return nil
}

// MemMapData maps a caller-owned slice, so two cpus can share one RAM.
func (m *Mem) MemMapData(addr uint64, data []byte, prot int, desc string) error {
	size := uint64(len(data))
	if !m.inRange(addr, size) {
		return errors.New("region outside memory range")
	}
	m.sim.MapPage(&Page{Addr: addr, Size: size, Prot: prot, Data: data, Desc: desc})
	return nil
}

// MemMapHandler routes [addr, addr+size) to h.
func (m *Mem) MemMapHandler(addr, size uint64, prot int, h Handler, desc string) error {
	if !m.inRange(addr, size) {
		return errors.New("region outside memory range")
	}
	if h == nil {
		return errors.New("nil handler")
	}
	m.sim.MapPage(&Page{Addr: addr, Size: size, Prot: prot, Handler: h, Desc: desc})
	return nil
}

func (m *Mem) MemProt(addr, size uint64, prot int) error {
	if mapped, _ := m.sim.RangeValid(addr, size, 0); !mapped {
		return errors.New("range not mapped")
	}
	m.sim.Prot(addr, size, prot)
	return nil
}

func (m *Mem) MemUnmap(addr, size uint64) error {
	if mapped, _ := m.sim.RangeValid(addr, size, 0); !mapped {
		return errors.New("range not mapped")
	}
	m.sim.Unmap(addr, size)
	return nil
}

func (m *Mem) Mappings() Pages {
	return m.sim.Mem
}

func (m *Mem) MemReadInto(p []byte, addr uint64) error {
	return m.sim.Read(addr, p, 0)
}

func (m *Mem) MemRead(addr, size uint64) ([]byte, error) {
	p := make([]byte, size)
	if err := m.MemReadInto(p, addr); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Mem) MemWrite(addr uint64, p []byte) error {
	return m.sim.Write(addr, p, 0)
}

// Read while checking protections.
func (m *Mem) ReadProt(addr, size uint64, prot int) ([]byte, error) {
	p := make([]byte, size)
	if err := m.sim.Read(addr, p, prot); err != nil {
		if merr, ok := err.(*MemError); ok && m.hooks != nil {
			m.hooks.OnFault(merr.Enum, addr, int(size), 0)
		}
		return nil, err
	}
	return p, nil
}

// Write while checking protections.
func (m *Mem) WriteProt(addr uint64, p []byte, prot int) error {
	err := m.sim.Write(addr, p, prot)
	if merr, ok := err.(*MemError); ok && m.hooks != nil {
		m.hooks.OnFault(merr.Enum, addr, len(p), 0)
	}
	return err
}

// Read8 never fails: an open bus reads 0xff. Faults are reported to the hooks.
func (m *Mem) Read8(addr uint64, prot int) uint8 {
	v, fault := m.sim.Read8(addr&m.mask, prot)
	if fault != 0 {
		if m.hooks != nil {
			m.hooks.OnFault(fault, addr, 1, 0)
		}
		return 0xff
	}
	return v
}

// Peek8 reads a byte without protection checks or fault reporting.
func (m *Mem) Peek8(addr uint64) (uint8, bool) {
	v, fault := m.sim.Read8(addr&m.mask, 0)
	return v, fault == 0
}

// Write8 drops writes to unmapped or read-only space after reporting them.
func (m *Mem) Write8(addr uint64, val uint8, prot int) {
	if fault := m.sim.Write8(addr&m.mask, val, prot); fault != 0 && m.hooks != nil {
		m.hooks.OnFault(fault, addr, 1, int64(val))
	}
}

func (m *Mem) ReadUint(addr uint64, size, prot int) (uint64, error) {
	if size > 8 {
		return 0, errors.Errorf("ReadUint size too large: %d > 8", size)
	}
	p, err := m.ReadProt(addr, uint64(size), prot)
	if err != nil {
		return 0, err
	}
	return UnpackUint(m.order, size, p)
}

func (m *Mem) WriteUint(addr uint64, size, prot int, val uint64) error {
	var buf [8]byte
	if size > 8 {
		return errors.Errorf("WriteUint size too large: %d > 8", size)
	}
	if _, err := PackUint(m.order, size, buf[:], val); err != nil {
		return err
	}
	return m.WriteProt(addr, buf[:size], prot)
}

func PackUint(order binary.ByteOrder, size int, buf []byte, n uint64) ([]byte, error) {
	if buf == nil {
		buf = make([]byte, size)
	} else if len(buf) < size {
		return nil, errors.Errorf("buffer too small (%d < %d)", len(buf), size)
	}
	switch size {
	case 8:
		order.PutUint64(buf[:size], n)
	case 4:
		order.PutUint32(buf[:size], uint32(n))
	case 2:
		order.PutUint16(buf[:size], uint16(n))
	case 1:
		buf[0] = byte(n)
	default:
		return nil, errors.Errorf("unsupported uint size: %d", size)
	}
	return buf[:size], nil
}

func UnpackUint(order binary.ByteOrder, size int, buf []byte) (uint64, error) {
	if len(buf) < size {
		return 0, errors.Errorf("buffer too small (%d < %d)", len(buf), size)
	}
	switch size {
	case 8:
		return order.Uint64(buf), nil
	case 4:
		return uint64(order.Uint32(buf)), nil
	case 2:
		return uint64(order.Uint16(buf)), nil
	case 1:
		return uint64(buf[0]), nil
	default:
		return 0, errors.Errorf("unsupported uint size: %d", size)
	}
}
