package models

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var discache = NewDiscache()

// Disas renders mem as instructions, using arch's disassembler.
func Disas(mem []byte, addr uint64, arch *Arch, bytes bool) (string, error) {
	if len(mem) == 0 {
		return "", nil
	}
	if arch.Dis == nil {
		return "", errors.Errorf("%s: no disassembler", arch.Name)
	}
	ins, ok := discache.Get(addr, mem)
	if !ok {
		var err error
		if ins, err = arch.Dis.Dis(mem, addr); err != nil {
			return "", err
		}
		discache.Put(addr, mem, ins)
	}
	return FormatIns(ins, bytes), nil
}

func Repr(p []byte, strsize int) string {
	tmp := make([]string, len(p))
	for i, b := range p {
		if b >= 0x20 && b <= 0x7e {
			tmp[i] = string(b)
		} else {
			tmp[i] = fmt.Sprintf("\\x%02x", b)
		}
	}
	out := strings.Join(tmp, "")
	if strsize > 0 && len(out) > strsize {
		for i := len(tmp) - 1; len(out) > strsize-3; i-- {
			out = strings.Join(tmp[:i], "")
		}
		return "\"" + out + "\"..."
	}
	return "\"" + out + "\""
}

// HexDump renders 16 bytes per line, grouped in fours, with a printable
// column. bits sizes the address column.
func HexDump(base uint64, mem []byte, bits int) []string {
	clean := func(p []byte) string {
		o := make([]byte, len(p))
		for i, c := range p {
			if c >= 0x20 && c <= 0x7e {
				o[i] = c
			} else {
				o[i] = '.'
			}
		}
		return string(o)
	}
	addrFmt := fmt.Sprintf("$%%0%dx:", (bits+3)/4)
	const lineSize, group = 16, 4
	var out []string
	for i := 0; i < len(mem); i += lineSize {
		line := mem[i:]
		if len(line) > lineSize {
			line = line[:lineSize]
		}
		var blocks []string
		for j := 0; j < lineSize; j += group {
			switch {
			case j >= len(line):
				blocks = append(blocks, strings.Repeat(" ", group*2))
			case j+group > len(line):
				blocks = append(blocks, hex.EncodeToString(line[j:])+strings.Repeat("  ", j+group-len(line)))
			default:
				blocks = append(blocks, hex.EncodeToString(line[j:j+group]))
			}
		}
		tail := clean(line) + strings.Repeat(" ", lineSize-len(line))
		out = append(out, fmt.Sprintf(addrFmt+" %s [%s]", base+uint64(i), strings.Join(blocks, " "), tail))
	}
	return out
}
