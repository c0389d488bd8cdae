package models

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/models/cpu"
	"github.com/lunixbochs/hc11corn/go/sched"
)

// savestate format, big endian:
//
// header
//   [4]byte magic "HC1S"
//   uint32 format version
//   uint32 crc32 of the compressed body
//   uint32 length of the compressed body
//
// body, snappy block
//   int64, uint64 scheduler time
//   uint32 device count
//   per device: name, local time, cycles, suspend mask, eat flag,
//               trigger id, driven irq lines as (line, state) byte
//               pairs, packed cpu context
//   uint32 page count
//   per writable data page: uint64 addr, raw bytes
//
//   uint32 bus device count
//   per stateful handler: uint64 lowest mapped addr, packed state
//
// Handlers without state are not saved. Read-only pages come back from
// the ROM images.

const (
	SAVE_MAGIC   = "HC1S"
	SAVE_VERSION = 2
)

var saveOptions = &struc.Options{Order: binary.BigEndian}

type saveHeader struct {
	Magic   string `struc:"[4]byte"`
	Version uint32
	Crc     uint32
	Length  uint32
}

type saveTime struct {
	Sec  int64
	Atto uint64
}

type saveCount struct {
	Count uint32
}

type saveDevice struct {
	NameLen uint16 `struc:"sizeof=Name"`
	Name    string
	Local   saveTime
	Total   uint64
	Suspend uint32
	Eat     bool
	Trigger int32
	IRQLen  uint16 `struc:"sizeof=IRQ"`
	IRQ     []byte
	CtxLen  uint32 `struc:"sizeof=Context"`
	Context []byte
}

type savePage struct {
	Addr    uint64
	DataLen uint32 `struc:"sizeof=Data"`
	Data    []byte
}

func savedPages(mem *cpu.Mem) []*cpu.Page {
	var out []*cpu.Page
	for _, p := range mem.Mappings() {
		if p.Handler == nil && p.Prot&cpu.PROT_WRITE != 0 {
			out = append(out, p)
		}
	}
	return out
}

// savedHandlers lists each stateful handler once, at its lowest address.
func savedHandlers(mem *cpu.Mem) []*cpu.Page {
	var out []*cpu.Page
	seen := make(map[cpu.Handler]bool)
	for _, p := range mem.Mappings() {
		if _, ok := p.Handler.(cpu.HandlerState); !ok || seen[p.Handler] {
			continue
		}
		seen[p.Handler] = true
		out = append(out, p)
	}
	return out
}

// Save snapshots the scheduler, every core, the writable memory and the
// stateful bus devices of m.
func Save(m Machine) ([]byte, error) {
	st, err := m.Sched().State()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	s := StrucStream{&buf, saveOptions}
	if err := s.Pack(&saveTime{st.Now.Sec, st.Now.Atto}, &saveCount{uint32(len(st.Devices))}); err != nil {
		return nil, errors.Wrap(err, "packing clock")
	}
	for _, d := range st.Devices {
		var irq []byte
		for _, l := range d.IRQ {
			irq = append(irq, uint8(l.Line), uint8(l.State))
		}
		sd := &saveDevice{
			Name:    d.Name,
			Local:   saveTime{d.Local.Sec, d.Local.Atto},
			Total:   d.TotalCycles,
			Suspend: d.Suspend,
			Eat:     d.EatCycles,
			Trigger: int32(d.Trigger),
			IRQ:     irq,
			Context: d.Context,
		}
		if err := s.Pack(sd); err != nil {
			return nil, errors.Wrapf(err, "packing device %s", d.Name)
		}
	}
	pages := savedPages(m.Mem())
	if err := s.Pack(&saveCount{uint32(len(pages))}); err != nil {
		return nil, err
	}
	for _, p := range pages {
		data, err := m.Mem().MemRead(p.Addr, p.Size)
		if err != nil {
			return nil, err
		}
		if err := s.Pack(&savePage{Addr: p.Addr, Data: data}); err != nil {
			return nil, errors.Wrapf(err, "packing page %#x", p.Addr)
		}
	}

	handlers := savedHandlers(m.Mem())
	if err := s.Pack(&saveCount{uint32(len(handlers))}); err != nil {
		return nil, err
	}
	for _, p := range handlers {
		state := p.Handler.(cpu.HandlerState).PackState()
		if err := s.Pack(&savePage{Addr: p.Addr, Data: state}); err != nil {
			return nil, errors.Wrapf(err, "packing %s at %#x", p.Desc, p.Addr)
		}
	}

	body := snappy.Encode(nil, buf.Bytes())
	var out bytes.Buffer
	s = StrucStream{&out, saveOptions}
	hdr := &saveHeader{
		Magic:   SAVE_MAGIC,
		Version: SAVE_VERSION,
		Crc:     crc32.ChecksumIEEE(body),
		Length:  uint32(len(body)),
	}
	if err := s.Pack(hdr); err != nil {
		return nil, err
	}
	out.Write(body)
	return out.Bytes(), nil
}

// Load restores a Save taken from a machine with the same layout.
func Load(m Machine, p []byte) error {
	r := bytes.NewBuffer(p)
	s := StrucStream{r, saveOptions}
	var hdr saveHeader
	if err := s.Unpack(&hdr); err != nil {
		return errors.Wrap(err, "reading savestate header")
	}
	if hdr.Magic != SAVE_MAGIC {
		return errors.New("not a savestate")
	}
	if hdr.Version != SAVE_VERSION {
		return errors.Errorf("unsupported savestate version %d", hdr.Version)
	}
	body := r.Bytes()
	if uint32(len(body)) != hdr.Length {
		return errors.Errorf("savestate truncated: %d of %d bytes", len(body), hdr.Length)
	}
	if crc32.ChecksumIEEE(body) != hdr.Crc {
		return errors.New("savestate checksum mismatch")
	}
	raw, err := snappy.Decode(nil, body)
	if err != nil {
		return errors.Wrap(err, "decompressing savestate")
	}

	s = StrucStream{bytes.NewBuffer(raw), saveOptions}
	var now saveTime
	var count saveCount
	if err := s.Unpack(&now, &count); err != nil {
		return errors.Wrap(err, "reading clock")
	}
	st := &sched.State{Now: sched.Time{Sec: now.Sec, Atto: now.Atto}}
	for i := uint32(0); i < count.Count; i++ {
		var sd saveDevice
		if err := s.Unpack(&sd); err != nil {
			return errors.Wrap(err, "reading device")
		}
		if len(sd.IRQ)%2 != 0 {
			return errors.Errorf("%s: bad irq line table", sd.Name)
		}
		var irq []sched.IRQLevel
		for j := 0; j < len(sd.IRQ); j += 2 {
			irq = append(irq, sched.IRQLevel{Line: int(sd.IRQ[j]), State: int(sd.IRQ[j+1])})
		}
		st.Devices = append(st.Devices, sched.DeviceState{
			Name:        sd.Name,
			Local:       sched.Time{Sec: sd.Local.Sec, Atto: sd.Local.Atto},
			TotalCycles: sd.Total,
			Suspend:     sd.Suspend,
			EatCycles:   sd.Eat,
			Trigger:     int(sd.Trigger),
			IRQ:         irq,
			Context:     sd.Context,
		})
	}
	if err := s.Unpack(&count); err != nil {
		return errors.Wrap(err, "reading page count")
	}
	// decode everything before touching the machine
	pages := make([]savePage, count.Count)
	for i := range pages {
		if err := s.Unpack(&pages[i]); err != nil {
			return errors.Wrap(err, "reading page")
		}
	}
	if err := s.Unpack(&count); err != nil {
		return errors.Wrap(err, "reading bus device count")
	}
	devices := make([]savePage, count.Count)
	var targets []cpu.HandlerState
	for i := range devices {
		if err := s.Unpack(&devices[i]); err != nil {
			return errors.Wrap(err, "reading bus device")
		}
		page := m.Mem().Mappings().Find(devices[i].Addr)
		if page == nil {
			return errors.Errorf("no bus device at %#x", devices[i].Addr)
		}
		h, ok := page.Handler.(cpu.HandlerState)
		if !ok {
			return errors.Errorf("%#x: mapping has no device state", devices[i].Addr)
		}
		targets = append(targets, h)
	}
	if err := m.Sched().SetState(st); err != nil {
		return err
	}
	for _, p := range pages {
		if err := m.Mem().MemWrite(p.Addr, p.Data); err != nil {
			return errors.Wrapf(err, "restoring page %#x", p.Addr)
		}
	}
	for i, h := range targets {
		if err := h.UnpackState(devices[i].Data); err != nil {
			return errors.Wrapf(err, "restoring bus device %#x", devices[i].Addr)
		}
	}
	return nil
}
