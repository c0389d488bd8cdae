package models

import (
	"sort"
	"strings"
	"testing"

	"github.com/lunixbochs/fvbommel-util/sortorder"

	"github.com/lunixbochs/hc11corn/go/models/cpu"
)

type Reg struct {
	Enum    int
	Name    string
	Default bool
}

type RegVal struct {
	Reg
	Val uint64
}

type regList []Reg

func (r regList) Len() int           { return len(r) }
func (r regList) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }
func (r regList) Less(i, j int) bool { return sortorder.NaturalLess(r[i].Name, r[j].Name) }

type regMap map[int]string

func (r regMap) Items() regList {
	ret := make(regList, 0, len(r))
	for e, n := range r {
		ret = append(ret, Reg{Enum: e, Name: n})
	}
	return ret
}

// Arch describes a processor family to the debugger, tracer and
// save-state code.
type Arch struct {
	Name string
	// address bus width
	Bits int
	// widest register, in bits
	RegBits int
	// registers narrower than RegBits
	RegWidths map[int]int
	// bit names, highest first, of registers shown as flags
	FlagNames map[int]string
	PC        int
	SP        int
	Regs      regMap
	// registers shown by default in status and trace output
	DefaultRegs []string
	Dis         Disassembler

	// sorted for RegDump
	regList regList
}

func NewArch(name string, bits, regBits, pc, sp int, regs map[string]int) *Arch {
	a := &Arch{Name: name, Bits: bits, RegBits: regBits, PC: pc, SP: sp, Regs: make(regMap)}
	for n, e := range regs {
		a.Regs[e] = n
	}
	return a
}

func (a *Arch) sorted() regList {
	if a.regList == nil {
		rl := a.Regs.Items()
		sort.Sort(rl)
		for i := range rl {
			for _, name := range a.DefaultRegs {
				if rl[i].Name == name {
					rl[i].Default = true
				}
			}
		}
		a.regList = rl
	}
	return a.regList
}

// RegWidth is the width of a register in bits.
func (a *Arch) RegWidth(enum int) int {
	if w, ok := a.RegWidths[enum]; ok {
		return w
	}
	return a.RegBits
}

func (a *Arch) RegEnums() []int {
	rl := a.sorted()
	ret := make([]int, len(rl))
	for i, r := range rl {
		ret[i] = r.Enum
	}
	return ret
}

// RegLookup finds a register by name, ignoring case.
func (a *Arch) RegLookup(name string) (int, bool) {
	name = strings.ToLower(name)
	for e, n := range a.Regs {
		if strings.ToLower(n) == name {
			return e, true
		}
	}
	return 0, false
}

func (a *Arch) RegDump(c cpu.Cpu) ([]RegVal, error) {
	rl := a.sorted()
	ret := make([]RegVal, len(rl))
	for i, r := range rl {
		val, err := c.RegRead(r.Enum)
		if err != nil {
			return nil, err
		}
		ret[i] = RegVal{r, val}
	}
	return ret, nil
}

// SmokeTest checks that every named register of c reads back what was
// written to it.
func (a *Arch) SmokeTest(t *testing.T, c cpu.Cpu) {
	if err := c.RegWrite(a.SP, 0x1000); err != nil {
		t.Fatal(err)
	}
	val, err := c.RegRead(a.SP)
	if err != nil {
		t.Fatal(err)
	}
	if val != 0x1000 {
		t.Fatal(a.Name + " failed to read/write stack pointer")
	}
	for _, r := range a.sorted() {
		if _, err := c.RegRead(r.Enum); err != nil {
			t.Errorf("%s: %v", r.Name, err)
		}
	}
}
