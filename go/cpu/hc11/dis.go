package hc11

import (
	"fmt"
	"strings"

	"github.com/lunixbochs/hc11corn/go/models"
)

type ins struct {
	addr  uint64
	name  string
	args  []string
	bytes []byte
}

func (i *ins) String() string {
	if len(i.args) == 0 {
		return i.name
	}
	return i.name + " " + i.OpStr()
}

func (i *ins) Addr() uint64     { return i.addr }
func (i *ins) Bytes() []byte    { return i.bytes }
func (i *ins) Mnemonic() string { return i.name }
func (i *ins) OpStr() string    { return strings.Join(i.args, ", ") }

type Dis struct{}

// Dis decodes as many whole instructions as fit in mem. A truncated
// instruction at the end is left out.
func (d *Dis) Dis(mem []byte, addr uint64) ([]models.Ins, error) {
	var out []models.Ins
	for pos := 0; pos < len(mem); {
		in, ok := decode(mem[pos:], uint16(addr)+uint16(pos))
		if !ok {
			break
		}
		out = append(out, in)
		pos += len(in.bytes)
	}
	return out, nil
}

func decode(mem []byte, addr uint16) (*ins, bool) {
	page, n := PAGE_0, 0
	switch mem[0] {
	case 0x18:
		page = PAGE_18
	case 0x1a:
		page = PAGE_1A
	case 0xcd:
		page = PAGE_CD
	}
	if page != PAGE_0 {
		n++
		if len(mem) < 2 {
			return nil, false
		}
	}
	o := &optables[page][mem[n]]
	n++
	size := n + modeSize[o.mode]
	if len(mem) < size {
		return nil, false
	}
	ops := mem[n:size]
	next := addr + uint16(size)
	u16 := func(p []byte) uint16 { return uint16(p[0])<<8 | uint16(p[1]) }
	rel := func(b byte) string { return fmt.Sprintf("$%04x", next+uint16(int8(b))) }

	var args []string
	switch o.mode {
	case MODE_IMM8:
		args = []string{fmt.Sprintf("#$%02x", ops[0])}
	case MODE_IMM16:
		args = []string{fmt.Sprintf("#$%04x", u16(ops))}
	case MODE_DIR:
		args = []string{fmt.Sprintf("$%02x", ops[0])}
	case MODE_EXT:
		args = []string{fmt.Sprintf("$%04x", u16(ops))}
	case MODE_INDX:
		args = []string{fmt.Sprintf("$%02x,x", ops[0])}
	case MODE_INDY:
		args = []string{fmt.Sprintf("$%02x,y", ops[0])}
	case MODE_REL:
		args = []string{rel(ops[0])}
	case MODE_BIT_DIR:
		args = []string{fmt.Sprintf("$%02x", ops[0]), fmt.Sprintf("#$%02x", ops[1])}
	case MODE_BIT_INDX:
		args = []string{fmt.Sprintf("$%02x,x", ops[0]), fmt.Sprintf("#$%02x", ops[1])}
	case MODE_BIT_INDY:
		args = []string{fmt.Sprintf("$%02x,y", ops[0]), fmt.Sprintf("#$%02x", ops[1])}
	case MODE_BRA_DIR:
		args = []string{fmt.Sprintf("$%02x", ops[0]), fmt.Sprintf("#$%02x", ops[1]), rel(ops[2])}
	case MODE_BRA_INDX:
		args = []string{fmt.Sprintf("$%02x,x", ops[0]), fmt.Sprintf("#$%02x", ops[1]), rel(ops[2])}
	case MODE_BRA_INDY:
		args = []string{fmt.Sprintf("$%02x,y", ops[0]), fmt.Sprintf("#$%02x", ops[1]), rel(ops[2])}
	}
	name := o.name
	if name == "invalid" {
		name = "???"
	}
	return &ins{
		addr:  uint64(addr),
		name:  name,
		args:  args,
		bytes: append([]byte(nil), mem[:size]...),
	}, true
}

// Disassemble reads through the core's side-effect free view.
func (c *HC11) Disassemble(addr uint64, count int) ([]models.Ins, error) {
	var out []models.Ins
	for i := 0; i < count; i++ {
		var buf [5]byte
		n := 0
		for ; n < len(buf); n++ {
			v, ok := c.peek8(uint16(addr) + uint16(n))
			if !ok {
				break
			}
			buf[n] = v
		}
		if n == 0 {
			break
		}
		in, ok := decode(buf[:n], uint16(addr))
		if !ok {
			break
		}
		out = append(out, in)
		addr += uint64(len(in.bytes))
	}
	return out, nil
}
