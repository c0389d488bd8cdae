package loader

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func parseHex(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "$")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "bad hex number %q", s)
	}
	return v, nil
}

// ROMSpec is a -rom flag: file, or file@addr. Raw images default to the
// top of the address space.
type ROMSpec struct {
	Path    string
	Addr    uint64
	HasAddr bool
}

func ParseROM(spec string) (ROMSpec, error) {
	path, addr := spec, ""
	if i := strings.LastIndex(spec, "@"); i >= 0 {
		path, addr = spec[:i], spec[i+1:]
	}
	if path == "" {
		return ROMSpec{}, errors.Errorf("rom %q: missing file", spec)
	}
	r := ROMSpec{Path: path}
	if addr != "" {
		v, err := parseHex(addr)
		if err != nil {
			return ROMSpec{}, errors.Wrapf(err, "rom %q", spec)
		}
		r.Addr, r.HasAddr = v, true
	}
	return r, nil
}

func (r ROMSpec) Load() (Image, error) {
	return LoadFile(r.Path, r.Addr, !r.HasAddr)
}

// RAMSpec is a -ram flag: addr:size, both hex.
type RAMSpec struct {
	Addr, Size uint64
}

func ParseRAM(spec string) (RAMSpec, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 2 {
		return RAMSpec{}, errors.Errorf("ram %q: want addr:size", spec)
	}
	addr, err := parseHex(parts[0])
	if err != nil {
		return RAMSpec{}, errors.Wrapf(err, "ram %q", spec)
	}
	size, err := parseHex(parts[1])
	if err != nil {
		return RAMSpec{}, errors.Wrapf(err, "ram %q", spec)
	}
	if size == 0 || addr+size > 0x10000 {
		return RAMSpec{}, errors.Errorf("ram %q: outside 64k", spec)
	}
	return RAMSpec{Addr: addr, Size: size}, nil
}

// CoreSpec is a -cpu flag: name, or name:hz.
type CoreSpec struct {
	Name  string
	Clock uint64
}

func ParseCore(spec string) (CoreSpec, error) {
	name, hz := spec, ""
	if i := strings.Index(spec, ":"); i >= 0 {
		name, hz = spec[:i], spec[i+1:]
	}
	if name == "" {
		return CoreSpec{}, errors.Errorf("cpu %q: missing name", spec)
	}
	c := CoreSpec{Name: name}
	if hz != "" {
		v, err := strconv.ParseUint(hz, 10, 64)
		if err != nil || v == 0 {
			return CoreSpec{}, errors.Errorf("cpu %q: bad clock", spec)
		}
		c.Clock = v
	}
	return c, nil
}
