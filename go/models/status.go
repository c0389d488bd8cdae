package models

import (
	"fmt"
	"strings"

	"github.com/mgutz/ansi"

	"github.com/lunixbochs/hc11corn/go/models/cpu"
)

// StatusDiff tracks one core's registers between calls to Changes.
type StatusDiff struct {
	Arch    *Arch
	Cpu     cpu.Cpu
	oldRegs map[int]uint64
}

var chSame = ansi.ColorCode("default:default")
var chNew = ansi.ColorCode("default+bu:default")

// FlagString renders the low len(names) bits of val, names[0] being the
// highest bit, with '.' for clear bits.
func FlagString(names string, val uint64) string {
	buf := make([]byte, len(names))
	for i := range buf {
		if val&(1<<uint(len(names)-1-i)) != 0 {
			buf[i] = names[i]
		} else {
			buf[i] = '.'
		}
	}
	return string(buf)
}

type ChangeMask struct {
	Old, New string
	Changed  bool
}

type Change struct {
	Old, New uint64
	Enum     int
	Name     string
	// hex digits of the value
	Digits int
	// bit names of a flags register, empty for a number
	Flags string
}

func (c *Change) Changed() bool {
	return c.Old != c.New
}

func (c *Change) text(val uint64) string {
	if c.Flags != "" {
		return FlagString(c.Flags, val)
	}
	return fmt.Sprintf("$%0*x", c.Digits, val)
}

// Mask splits the rendered value into runs that match or differ from the
// old value. A flags register differs per flag.
func (c *Change) Mask() []ChangeMask {
	s1, s2 := c.text(c.New), c.text(c.Old)
	pos := 0
	matching := true
	masks := make([]ChangeMask, 0, len(s1))
	for i := range s1 {
		if (s1[i] == s2[i]) != matching {
			if i > pos {
				masks = append(masks, ChangeMask{New: s1[pos:i], Old: s2[pos:i], Changed: !matching})
				pos = i
			}
			matching = !matching
		}
	}
	if pos < len(s1) {
		masks = append(masks, ChangeMask{New: s1[pos:], Old: s2[pos:], Changed: !matching})
	}
	return masks
}

// plain is the entry without color: "+" marks a change.
func (c *Change) plain() string {
	mark := " "
	if c.Changed() {
		mark = "+"
	}
	return fmt.Sprintf("%s %4s %s", mark, c.Name, c.text(c.New))
}

func (c *Change) String(color bool) string {
	if !color || !c.Changed() {
		return c.plain()
	}
	out := []string{fmt.Sprintf("  %s%4s%s ", chNew, c.Name, ansi.Reset)}
	for _, mask := range c.Mask() {
		col := chSame
		if mask.Changed {
			col = chNew
		}
		out = append(out, col+mask.New)
	}
	out = append(out, ansi.Reset)
	return strings.Join(out, "")
}

type Changes struct {
	Changes []*Change
}

// String lays the registers out four to a line, in columns as wide as the
// widest entry.
func (cs *Changes) String(color bool) string {
	const cols = 4
	width := 0
	for _, c := range cs.Changes {
		if n := len(c.plain()); n > width {
			width = n
		}
	}
	var out []string
	for i, c := range cs.Changes {
		out = append(out, c.String(color))
		if i%cols == cols-1 || i == len(cs.Changes)-1 {
			out = append(out, "\n")
		} else {
			out = append(out, strings.Repeat(" ", width-len(c.plain())+1))
		}
	}
	return strings.Join(out, "")
}

func (cs *Changes) Changed() []*Change {
	ret := make([]*Change, 0, cs.Count())
	for _, c := range cs.Changes {
		if c.Changed() {
			ret = append(ret, c)
		}
	}
	return ret
}

func (cs *Changes) Count() int {
	ret := 0
	for _, c := range cs.Changes {
		if c.Changed() {
			ret += 1
		}
	}
	return ret
}

func (cs *Changes) Find(enum int) *Change {
	for _, c := range cs.Changes {
		if c.Enum == enum {
			return c
		}
	}
	return nil
}

// Changes compares the core's registers with the previous call. With
// onlyChanged set, only changed default registers are returned.
func (s *StatusDiff) Changes(onlyChanged bool) *Changes {
	regs, _ := s.Arch.RegDump(s.Cpu)
	cs := make([]*Change, 0, len(regs))
	for _, reg := range regs {
		if onlyChanged && !reg.Default {
			continue
		}
		change := &Change{
			New:    reg.Val,
			Old:    s.oldRegs[reg.Enum],
			Enum:   reg.Enum,
			Name:   reg.Name,
			Digits: s.Arch.RegWidth(reg.Enum) / 4,
			Flags:  s.Arch.FlagNames[reg.Enum],
		}
		if !onlyChanged || change.Changed() {
			cs = append(cs, change)
		}
	}
	s.oldRegs = make(map[int]uint64, len(regs))
	for _, r := range regs {
		s.oldRegs[r.Enum] = r.Val
	}
	return &Changes{Changes: cs}
}
