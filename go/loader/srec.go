package loader

import (
	"bufio"
	"encoding/hex"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Srec is a Motorola S-record image. Data records are merged into
// contiguous segments.
type Srec struct {
	name     string
	segments []Segment
	entry    uint64
	hasEntry bool
}

// address bytes per record type
var srecAddrLen = map[byte]int{
	'0': 2, '1': 2, '2': 3, '3': 4,
	'5': 2, '6': 3,
	'7': 4, '8': 3, '9': 2,
}

func LoadSrec(r io.Reader, path string) (*Srec, error) {
	s := &Srec{name: filepath.Base(path)}
	var records []Segment
	scanner := bufio.NewScanner(r)
	for lineno := 1; scanner.Scan(); lineno++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(line) < 4 || line[0] != 'S' {
			return nil, errors.Errorf("%s:%d: not an S-record", path, lineno)
		}
		typ := line[1]
		alen, ok := srecAddrLen[typ]
		if !ok {
			return nil, errors.Errorf("%s:%d: unknown record type S%c", path, lineno, typ)
		}
		raw, err := hex.DecodeString(line[2:])
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", path, lineno)
		}
		if len(raw) < 1+alen+1 || int(raw[0]) != len(raw)-1 {
			return nil, errors.Errorf("%s:%d: bad record length", path, lineno)
		}
		var sum uint8
		for _, b := range raw[:len(raw)-1] {
			sum += b
		}
		if ^sum != raw[len(raw)-1] {
			return nil, errors.Errorf("%s:%d: checksum mismatch", path, lineno)
		}
		var addr uint64
		for _, b := range raw[1 : 1+alen] {
			addr = addr<<8 | uint64(b)
		}
		data := raw[1+alen : len(raw)-1]
		switch typ {
		case '1', '2', '3':
			if addr+uint64(len(data)) > 0x10000 {
				return nil, errors.Errorf("%s:%d: record at %#x outside 64k", path, lineno, addr)
			}
			records = append(records, Segment{Addr: addr, Data: data})
		case '7', '8', '9':
			s.entry, s.hasEntry = addr, true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	if len(records) == 0 {
		return nil, errors.Errorf("%s: no data records", path)
	}
	s.segments = merge(records)
	return s, nil
}

// merge lays records over the 64k space in file order, so a later record
// wins where two overlap, and returns each contiguous run as a segment.
func merge(records []Segment) []Segment {
	var image [0x10000]byte
	var used [0x10000]bool
	for _, r := range records {
		copy(image[r.Addr:], r.Data)
		for i := range r.Data {
			used[r.Addr+uint64(i)] = true
		}
	}
	var out []Segment
	for addr := 0; addr < len(used); {
		if !used[addr] {
			addr++
			continue
		}
		start := addr
		for addr < len(used) && used[addr] {
			addr++
		}
		out = append(out, Segment{Addr: uint64(start), Data: append([]byte(nil), image[start:addr]...)})
	}
	return out
}

func (s *Srec) Name() string          { return s.name }
func (s *Srec) Segments() []Segment   { return s.segments }
func (s *Srec) Entry() (uint64, bool) { return s.entry, s.hasEntry }
func (s *Srec) Close() error          { return nil }
