package models

import (
	"testing"

	"github.com/pkg/errors"
)

func TestParseBreakpoint(t *testing.T) {
	tests := []struct {
		desc string
		addr uint64
		core string
	}{
		{"8000", 0x8000, ""},
		{"$e000", 0xe000, ""},
		{"0xFFFE@cpu1", 0xfffe, "cpu1"},
	}
	for _, test := range tests {
		b, err := ParseBreakpoint(test.desc)
		if err != nil {
			t.Errorf("%s: %v", test.desc, err)
			continue
		}
		if b.Addr != test.addr || b.Core != test.core {
			t.Errorf("%s: got %#x@%q", test.desc, b.Addr, b.Core)
		}
	}
	for _, bad := range []string{"", "zz", "@cpu0", "$10000"} {
		if _, err := ParseBreakpoint(bad); err == nil {
			t.Errorf("%q should not parse", bad)
		}
	}
	if _, err := ParseBreakpoint("nope"); errors.Cause(err) != BreakpointParseErr {
		t.Errorf("wrong error: %v", err)
	}
}

func TestBreakpointMatch(t *testing.T) {
	any := &Breakpoint{Addr: 0x8000}
	one := &Breakpoint{Addr: 0x8000, Core: "cpu1"}
	if !any.Match("cpu0", 0x8000) || any.Match("cpu0", 0x8001) {
		t.Error("unrestricted breakpoint")
	}
	if one.Match("cpu0", 0x8000) || !one.Match("cpu1", 0x8000) {
		t.Error("core breakpoint")
	}
	if one.String() != "$8000@cpu1" || any.String() != "$8000" {
		t.Errorf("String: %s %s", one, any)
	}
}
