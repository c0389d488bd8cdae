package loader

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
)

// srecLine builds a record with a 16-bit address.
func srecLine(typ byte, addr uint16, data []byte) string {
	raw := append([]byte{uint8(len(data) + 3), uint8(addr >> 8), uint8(addr)}, data...)
	var sum uint8
	for _, b := range raw {
		sum += b
	}
	return fmt.Sprintf("S%c%X%02X", typ, raw, ^sum)
}

func TestSrec(t *testing.T) {
	lines := []string{
		srecLine('0', 0, []byte("hdr")),
		srecLine('1', 0x8004, []byte{5, 6, 7}),
		srecLine('1', 0x8000, []byte{1, 2, 3, 4}),
		srecLine('1', 0xfffe, []byte{0x80, 0x00}),
		srecLine('9', 0x8000, nil),
	}
	s, err := LoadSrec(strings.NewReader(strings.Join(lines, "\r\n")+"\n"), "test.s19")
	if err != nil {
		t.Fatal(err)
	}
	segs := s.Segments()
	if len(segs) != 2 {
		t.Fatalf("got %d segments", len(segs))
	}
	if segs[0].Addr != 0x8000 || !bytes.Equal(segs[0].Data, []byte{1, 2, 3, 4, 5, 6, 7}) {
		t.Errorf("first segment %#x % x", segs[0].Addr, segs[0].Data)
	}
	if segs[1].Addr != 0xfffe || len(segs[1].Data) != 2 {
		t.Errorf("second segment %#x % x", segs[1].Addr, segs[1].Data)
	}
	if entry, ok := s.Entry(); !ok || entry != 0x8000 {
		t.Errorf("entry %#x %v", entry, ok)
	}
}

func TestSrecOverlap(t *testing.T) {
	lines := []string{
		srecLine('1', 0x8002, []byte{0xaa, 0xbb, 0xcc}),
		srecLine('1', 0x8000, []byte{1, 2, 3, 4}),
		srecLine('1', 0x8003, []byte{9}),
	}
	s, err := LoadSrec(strings.NewReader(strings.Join(lines, "\n")), "patch.s19")
	if err != nil {
		t.Fatal(err)
	}
	segs := s.Segments()
	if len(segs) != 1 || segs[0].Addr != 0x8000 || !bytes.Equal(segs[0].Data, []byte{1, 2, 3, 9, 0xcc}) {
		t.Errorf("later records should win: %v", segs)
	}
}

func TestSrecErrors(t *testing.T) {
	good := srecLine('1', 0x8000, []byte{1, 2})
	bad := []string{
		good[:len(good)-2] + "00",
		"S1zz",
		"SA03000000",
		"hello",
		srecLine('0', 0, nil),
	}
	for _, v := range bad {
		if _, err := LoadSrec(strings.NewReader(v), "bad.s19"); err == nil {
			t.Errorf("%q: expected error", v)
		}
	}
}

func TestMapROM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rom.bin")
	data := []byte{0x86, 0x12, 0x20, 0xfe, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x80, 0x00}
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	spec, err := ParseROM(path)
	if err != nil {
		t.Fatal(err)
	}
	img, err := spec.Load()
	if err != nil {
		t.Fatal(err)
	}
	seg := img.Segments()[0]
	if seg.Addr != 0xfff0 || !bytes.Equal(seg.Data, data) {
		t.Errorf("mapped %#x % x", seg.Addr, seg.Data)
	}
	// patches stay in memory
	seg.Data[0] = 0xff
	if err := img.Close(); err != nil {
		t.Fatal(err)
	}
	disk, _ := ioutil.ReadFile(path)
	if disk[0] != 0x86 {
		t.Error("patch reached the file")
	}

	img, err = LoadFile(path, 0x8000, false)
	if err != nil {
		t.Fatal(err)
	}
	if img.Segments()[0].Addr != 0x8000 {
		t.Errorf("explicit address ignored")
	}
	img.Close()
	if _, err := LoadFile(path, 0xfff8, false); err == nil {
		t.Error("image past 64k accepted")
	}

	empty := filepath.Join(dir, "empty.bin")
	ioutil.WriteFile(empty, nil, 0644)
	if _, err := LoadFile(empty, 0, true); err == nil {
		t.Error("empty image accepted")
	}
}

func TestLoadFileSrec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.s19")
	ioutil.WriteFile(path, []byte(srecLine('1', 0x8000, []byte{1})+"\n"), 0644)
	img, err := LoadFile(path, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := img.(*Srec); !ok {
		t.Errorf("got %T", img)
	}
}

func TestParseLayout(t *testing.T) {
	rom, err := ParseROM("a/b.bin@$8000")
	if err != nil || rom.Path != "a/b.bin" || rom.Addr != 0x8000 || !rom.HasAddr {
		t.Errorf("rom: %+v %v", rom, err)
	}
	if _, err := ParseROM("@8000"); err == nil {
		t.Error("rom without file accepted")
	}
	ram, err := ParseRAM("0x2000:2000")
	if err != nil || ram.Addr != 0x2000 || ram.Size != 0x2000 {
		t.Errorf("ram: %+v %v", ram, err)
	}
	for _, v := range []string{"2000", "2000:0", "f000:2000", "x:1"} {
		if _, err := ParseRAM(v); err == nil {
			t.Errorf("ram %q accepted", v)
		}
	}
	core, err := ParseCore("io:4000000")
	if err != nil || core.Name != "io" || core.Clock != 4000000 {
		t.Errorf("cpu: %+v %v", core, err)
	}
	if core, err := ParseCore("main"); err != nil || core.Clock != 0 {
		t.Errorf("cpu without clock: %+v %v", core, err)
	}
	if _, err := ParseCore("main:0"); err == nil {
		t.Error("zero clock accepted")
	}
}
