package models

import (
	"encoding/hex"
	"fmt"
	"strings"
)

type Ins interface {
	Addr() uint64
	Bytes() []byte
	Mnemonic() string
	OpStr() string
}

type Disassembler interface {
	Dis(mem []byte, addr uint64) ([]Ins, error)
}

// FormatIns renders one line per instruction, with the raw bytes padded
// to the longest instruction when bytes is set.
func FormatIns(ins []Ins, bytes bool) string {
	width := 0
	for _, in := range ins {
		if len(in.Bytes()) > width {
			width = len(in.Bytes())
		}
	}
	var out []string
	for _, in := range ins {
		line := fmt.Sprintf("$%04x: ", in.Addr())
		if bytes {
			data := hex.EncodeToString(in.Bytes())
			line += data + strings.Repeat(" ", (width-len(in.Bytes()))*2) + "  "
		}
		line += in.Mnemonic()
		if op := in.OpStr(); op != "" {
			line += " " + op
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
