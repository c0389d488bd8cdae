package cpu

import (
	"testing"
)

func TestIOSpace(t *testing.T) {
	io := NewIOSpace()
	if v := io.Read(3); v != 0 {
		t.Errorf("unhandled port read %#x", v)
	}
	io.Write(3, 1)

	var last uint8
	io.Install(3, func(port int) uint8 { return uint8(port) << 4 }, func(port int, val uint8) { last = val })
	io.Write(3, 0x42)
	if last != 0x42 {
		t.Errorf("writer saw %#x", last)
	}
	if v := io.Read(3); v != 0x30 {
		t.Errorf("reader returned %#x", v)
	}
	io.Install(3, nil, nil)
	if v := io.Read(3); v != 0 {
		t.Errorf("uninstalled port read %#x", v)
	}
}
