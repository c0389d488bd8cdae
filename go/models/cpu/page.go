package cpu

import (
	"bytes"
	"fmt"
	"strings"
)

// Handler backs a page with callbacks instead of a byte slice. Drivers use it
// for latches, shared chips and anything else that reacts to bus access.
type Handler interface {
	Read8(addr uint64) uint8
	Write8(addr uint64, val uint8)
}

// HandlerState is a Handler with state of its own, saved alongside memory.
type HandlerState interface {
	Handler
	PackState() []byte
	UnpackState(p []byte) error
}

type FileDesc struct {
	Name string
	Off  uint64
	Len  uint64
}

type Page struct {
	Addr uint64
	Size uint64
	Prot int
	Data []byte

	Desc    string
	File    *FileDesc
	Handler Handler
}

func (p *Page) String() string {
	prots := []int{PROT_READ, PROT_WRITE, PROT_EXEC}
	chars := []string{"r", "w", "x"}
	prot := ""
	for i := range prots {
		if p.Prot&prots[i] != 0 {
			prot += chars[i]
		} else {
			prot += "-"
		}
	}
	desc := fmt.Sprintf("0x%04x-0x%04x %s", p.Addr, p.Addr+p.Size, prot)
	if p.Handler != nil {
		desc += " io"
	}
	if p.Desc != "" {
		desc += fmt.Sprintf(" [%s]", p.Desc)
	}
	if p.File != nil {
		desc += fmt.Sprintf(" %s", p.File.Name)
	}
	return desc
}

func (p *Page) Contains(addr uint64) bool {
	return addr >= p.Addr && addr < p.Addr+p.Size
}

// start = max(s1, s2), end = min(e1, e2), ok = end > start
func (p *Page) Intersect(addr, size uint64) (uint64, uint64, bool) {
	start := p.Addr
	end := p.Addr + p.Size
	e2 := addr + size
	if end > e2 {
		end = e2
	}
	if start < addr {
		start = addr
	}
	return start, end - start, end > start
}

func (p *Page) Overlaps(addr, size uint64) bool {
	_, _, ok := p.Intersect(addr, size)
	return ok
}

func (p *Page) read8(addr uint64) uint8 {
	if p.Handler != nil {
		return p.Handler.Read8(addr)
	}
	return p.Data[addr-p.Addr]
}

func (p *Page) write8(addr uint64, val uint8) {
	if p.Handler != nil {
		p.Handler.Write8(addr, val)
		return
	}
	p.Data[addr-p.Addr] = val
}

// slice returns a view of [addr, addr+size) sharing the backing store
func (p *Page) slice(addr, size uint64) *Page {
	o := addr - p.Addr
	var file *FileDesc
	if p.File != nil && o < p.File.Len {
		file = &FileDesc{
			Name: p.File.Name,
			Len:  p.File.Len - o,
			Off:  p.File.Off + o,
		}
	}
	var data []byte
	if p.Handler == nil {
		data = p.Data[o : o+size]
	}
	return &Page{Addr: addr, Size: size, Prot: p.Prot, Data: data, Desc: p.Desc, File: file, Handler: p.Handler}
}

// Split trims p to [addr, addr+size), returning the pieces that fell off
// either side. Data is padded with zeroes when the new range is larger.
func (p *Page) Split(addr, size uint64) (left, right *Page) {
	if addr+size < p.Addr+p.Size {
		ra := addr + size
		rs := (p.Addr + p.Size) - ra
		right = p.slice(ra, rs)
		if p.Handler == nil {
			p.Data = p.Data[:ra-p.Addr]
		}
	}
	if addr > p.Addr {
		ls := addr - p.Addr
		left = p.slice(p.Addr, ls)
		if p.Handler == nil {
			p.Data = p.Data[ls:]
		}
	}
	if p.Handler == nil {
		if addr < p.Addr {
			extra := bytes.Repeat([]byte{0}, int(p.Addr-addr))
			p.Data = append(extra, p.Data...)
		}
		raddr, nraddr := p.Addr+p.Size, addr+size
		if nraddr > raddr {
			extra := bytes.Repeat([]byte{0}, int(nraddr-raddr))
			p.Data = append(p.Data, extra...)
		}
	}
	p.Addr, p.Size = addr, size
	return left, right
}

type Pages []*Page

func (p Pages) Len() int           { return len(p) }
func (p Pages) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }
func (p Pages) Less(i, j int) bool { return p[i].Addr < p[j].Addr }

func (p Pages) String() string {
	s := make([]string, len(p))
	for i, v := range p {
		s[i] = v.String()
	}
	return strings.Join(s, "\n")
}

// binary search to find index of the region containing addr, if any, else -1
func (p Pages) bsearch(addr uint64) int {
	l := 0
	r := len(p) - 1
	for l <= r {
		mid := (l + r) / 2
		e := p[mid]
		if addr >= e.Addr {
			if addr < e.Addr+e.Size {
				return mid
			}
			l = mid + 1
		} else {
			r = mid - 1
		}
	}
	return -1
}

func (p Pages) Find(addr uint64) *Page {
	i := p.bsearch(addr)
	if i >= 0 {
		return p[i]
	}
	return nil
}

// FindRange returns every page overlapping [addr, addr+size).
func (p Pages) FindRange(addr, size uint64) Pages {
	var ret Pages
	for _, v := range p {
		if v.Overlaps(addr, size) {
			ret = append(ret, v)
		}
	}
	return ret
}
