package models

import (
	"strings"
	"testing"
)

func TestHexDump(t *testing.T) {
	mem := []byte("ABCD\x00\x01\x02\x03efghijklmnop")
	lines := HexDump(0x1000, mem, 16)
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	want := "$1000: 41424344 00010203 65666768 696a6b6c [ABCD....efghijkl]"
	if lines[0] != want {
		t.Errorf("line 0:\n got %q\nwant %q", lines[0], want)
	}
	want = "$1010: 6d6e6f70" + strings.Repeat(" ", 28) + "[mnop" + strings.Repeat(" ", 12) + "]"
	if lines[1] != want {
		t.Errorf("line 1:\n got %q\nwant %q", lines[1], want)
	}
}

func TestRepr(t *testing.T) {
	if s := Repr([]byte("hi\n"), 0); s != `"hi\x0a"` {
		t.Errorf("got %s", s)
	}
	if s := Repr([]byte("abcdefgh"), 6); s != `"abc"...` {
		t.Errorf("got %s", s)
	}
}

func TestDiscache(t *testing.T) {
	d := NewDiscache()
	mem := []byte{1, 2}
	d.Put(0x100, mem, nil)
	mem[0] = 9
	if _, ok := d.Get(0x100, []byte{1, 2}); !ok {
		t.Error("entry lost after caller reused its buffer")
	}
	if _, ok := d.Get(0x100, []byte{1, 3}); ok {
		t.Error("stale entry returned for changed bytes")
	}
}
