package models

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

var breakRe = regexp.MustCompile(`^(?:0x|\$)?([0-9a-fA-F]+)(?:@(.+))?$`)

var BreakpointParseErr = fmt.Errorf("breakpoint parse failed")

// Breakpoint stops a run before the instruction at Addr executes.
type Breakpoint struct {
	Addr uint64
	// restrict to one core, empty for all of them
	Core string
}

// ParseBreakpoint accepts an address in hex, with an optional 0x or $
// prefix, optionally suffixed with @core.
func ParseBreakpoint(desc string) (*Breakpoint, error) {
	r := breakRe.FindStringSubmatch(desc)
	if r == nil {
		return nil, errors.WithStack(BreakpointParseErr)
	}
	addr, err := strconv.ParseUint(r[1], 16, 64)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse address")
	}
	if addr > 0xffff {
		return nil, errors.Errorf("breakpoint address out of range: %#x", addr)
	}
	return &Breakpoint{Addr: addr, Core: r[2]}, nil
}

func (b *Breakpoint) Match(core string, addr uint64) bool {
	return b.Addr == addr && (b.Core == "" || b.Core == core)
}

func (b *Breakpoint) String() string {
	s := fmt.Sprintf("$%04x", b.Addr)
	if b.Core != "" {
		s += "@" + b.Core
	}
	return s
}
