package cpu

import (
	"fmt"
	"sort"
)

type MemError struct {
	Addr uint64
	Size int
	Enum int
}

func (m *MemError) Error() string {
	reason := "memory error"
	switch m.Enum {
	case MEM_WRITE_UNMAPPED:
		reason = "unmapped write"
	case MEM_READ_UNMAPPED:
		reason = "unmapped read"
	case MEM_FETCH_UNMAPPED:
		reason = "unmapped fetch"
	case MEM_WRITE_PROT:
		reason = "protected write"
	case MEM_READ_PROT:
		reason = "protected read"
	case MEM_FETCH_PROT:
		reason = "protected exec"
	}
	return fmt.Sprintf("%s at %#x(%d)", reason, m.Addr, m.Size)
}

type MemSim struct {
	Mem Pages
}

// Checks whether the address range exists in the currently-mapped memory.
// If prot > 0, ensures that each region has the entire protection mask provided.
func (m *MemSim) RangeValid(addr, size uint64, prot int) (mapGood bool, protGood bool) {
	first := m.Mem.bsearch(addr)
	if first == -1 {
		return false, false
	}
	protGood = true
	end := addr + size
	for _, mm := range m.Mem[first:] {
		if mm.Contains(addr) {
			if prot > 0 && mm.Prot&prot != prot {
				protGood = false
			}
			addr = mm.Addr + mm.Size
			if addr >= end {
				break
			}
		} else {
			break
		}
	}
	return addr >= end, protGood
}

// Maps <addr> - <addr>+<size> and protects with prot.
// If zero is false, it first copies any existing data in this range to the new mapping.
func (m *MemSim) Map(addr, size uint64, prot int, zero bool) *Page {
	data := make([]byte, size)
	if !zero {
		m.Read(addr, data, 0)
	}
	page := &Page{Addr: addr, Size: size, Prot: prot, Data: data}
	m.MapPage(page)
	return page
}

// MapPage inserts a prepared page (shared data or a Handler), replacing
// whatever was mapped underneath it.
func (m *MemSim) MapPage(page *Page) {
	m.Unmap(page.Addr, page.Size)
	m.Mem = append(m.Mem, page)
	sort.Sort(m.Mem)
}

// this is *exactly* unmap, but the "middle" pages of each split are re-protected
func (m *MemSim) Prot(addr, size uint64, prot int) {
	tmp := make([]*Page, 0, len(m.Mem))
	for _, mm := range m.Mem {
		if oaddr, osize, ok := mm.Intersect(addr, size); ok {
			left, right := mm.Split(oaddr, osize)
			if left != nil {
				tmp = append(tmp, left)
			}
			tmp = append(tmp, mm)
			mm.Prot = prot
			if right != nil {
				tmp = append(tmp, right)
			}
		} else {
			tmp = append(tmp, mm)
		}
	}
	m.Mem = tmp
}

func (m *MemSim) Unmap(addr, size uint64) {
	tmp := make([]*Page, 0, len(m.Mem))
	for _, mm := range m.Mem {
		if oaddr, osize, ok := mm.Intersect(addr, size); ok {
			left, right := mm.Split(oaddr, osize)
			if left != nil {
				tmp = append(tmp, left)
			}
			if right != nil {
				tmp = append(tmp, right)
			}
		} else {
			tmp = append(tmp, mm)
		}
	}
	m.Mem = tmp
}

func (m *MemSim) Read(addr uint64, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint64(len(p)), prot); !gmap {
		if prot&PROT_EXEC == PROT_EXEC {
			return &MemError{Addr: addr, Size: len(p), Enum: MEM_FETCH_UNMAPPED}
		}
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_READ_UNMAPPED}
	} else if !gprot {
		if prot&PROT_EXEC == PROT_EXEC {
			return &MemError{Addr: addr, Size: len(p), Enum: MEM_FETCH_PROT}
		}
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_READ_PROT}
	}
	for i := range p {
		p[i] = m.Mem.Find(addr + uint64(i)).read8(addr + uint64(i))
	}
	return nil
}

func (m *MemSim) Write(addr uint64, p []byte, prot int) error {
	if gmap, gprot := m.RangeValid(addr, uint64(len(p)), prot); !gmap {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_WRITE_UNMAPPED}
	} else if !gprot {
		return &MemError{Addr: addr, Size: len(p), Enum: MEM_WRITE_PROT}
	}
	for i, v := range p {
		m.Mem.Find(addr+uint64(i)).write8(addr+uint64(i), v)
	}
	return nil
}

// Read8 is the single byte bus path. It returns the MEM_* error enum, or 0.
func (m *MemSim) Read8(addr uint64, prot int) (uint8, int) {
	page := m.Mem.Find(addr)
	if page == nil {
		if prot&PROT_EXEC != 0 {
			return 0, MEM_FETCH_UNMAPPED
		}
		return 0, MEM_READ_UNMAPPED
	}
	if prot > 0 && page.Prot&prot != prot {
		if prot&PROT_EXEC != 0 {
			return 0, MEM_FETCH_PROT
		}
		return 0, MEM_READ_PROT
	}
	return page.read8(addr), 0
}

func (m *MemSim) Write8(addr uint64, val uint8, prot int) int {
	page := m.Mem.Find(addr)
	if page == nil {
		return MEM_WRITE_UNMAPPED
	}
	if prot > 0 && page.Prot&prot != prot {
		return MEM_WRITE_PROT
	}
	page.write8(addr, val)
	return 0
}
