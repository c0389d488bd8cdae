package models

import (
	"bytes"
	"sync"
)

// Discache remembers decoded instructions by address. An entry is only
// reused while the bytes under it are unchanged, so self-modifying code and
// reloaded RAM decode fresh.
type Discache struct {
	sync.RWMutex
	cache map[uint64]*discacheEntry
}

type discacheEntry struct {
	mem []byte
	dis []Ins
}

func NewDiscache() *Discache {
	return &Discache{cache: make(map[uint64]*discacheEntry)}
}

func (d *Discache) Get(addr uint64, mem []byte) ([]Ins, bool) {
	d.RLock()
	defer d.RUnlock()
	if ent, ok := d.cache[addr]; ok && bytes.Equal(mem, ent.mem) {
		return ent.dis, true
	}
	return nil, false
}

func (d *Discache) Put(addr uint64, mem []byte, dis []Ins) {
	d.Lock()
	d.cache[addr] = &discacheEntry{mem: append([]byte(nil), mem...), dis: dis}
	d.Unlock()
}
