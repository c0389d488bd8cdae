package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/lunixbochs/hc11corn/go/models"
)

var intrNames = map[uint8]string{0: "irq", 1: "xirq", 2: "swi"}

func pad(s string, to int) string {
	if len(s) >= to {
		return s + " "
	}
	return s + strings.Repeat(" ", to-len(s))
}

// Printer renders an op stream as text, one line per frame. It is fed
// live by a Trace or from a TraceReader.
type Printer struct {
	w      io.Writer
	arch   *models.Arch
	config *models.TraceConfig
	inscol int

	cores map[uint8]string
	core  string
}

func NewPrinter(w io.Writer, arch *models.Arch, config *models.TraceConfig) *Printer {
	return &Printer{
		w:      w,
		arch:   arch,
		config: config,
		inscol: 36,
		cores:  make(map[uint8]string),
	}
}

func (p *Printer) Printf(f string, args ...interface{}) { fmt.Fprintf(p.w, f, args...) }

func (p *Printer) Feed(op Op) {
	switch o := op.(type) {
	case *OpKeyframe:
		p.keyframe(o)
	case *OpCore:
		p.cores[o.Num] = o.Name
		p.core = o.Name
	case *OpFrame:
		p.frame(o)
	case *OpExit:
		p.Printf("[exit]\n")
	}
}

func (p *Printer) regName(num uint8) string {
	if name, ok := p.arch.Regs[int(num)]; ok {
		return name
	}
	return fmt.Sprintf("r%d", num)
}

func (p *Printer) keyframe(kf *OpKeyframe) {
	var regs []string
	flushRegs := func() {
		if len(regs) > 0 {
			p.Printf("  %s\n", strings.Join(regs, " "))
			regs = nil
		}
	}
	for _, op := range kf.Ops {
		switch o := op.(type) {
		case *OpCore:
			flushRegs()
			p.cores[o.Num] = o.Name
			p.Printf("[%s]\n", o.Name)
		case *OpReg:
			regs = append(regs, fmt.Sprintf("%s=$%04x", p.regName(o.Num), o.Val))
		case *OpMemMap:
			flushRegs()
			p.Printf("[map] $%04x-$%04x %s\n", o.Addr, o.Addr+o.Size, o.Desc)
		}
	}
	flushRegs()
}

func (p *Printer) frame(f *OpFrame) {
	var ins string
	var effects []string
	for _, op := range f.Ops {
		switch o := op.(type) {
		case *OpStep:
			if !p.config.Ins {
				continue
			}
			ins = p.dis(o)
		case *OpReg:
			if p.config.Reg {
				effects = append(effects, fmt.Sprintf("%s=$%x", p.regName(o.Num), o.Val))
			}
		case *OpMemRead:
			if p.config.Mem {
				effects = append(effects, fmt.Sprintf("R $%04x=$%02x", o.Addr, o.Val))
			}
		case *OpMemWrite:
			if p.config.Mem {
				effects = append(effects, fmt.Sprintf("W $%04x=$%02x", o.Addr, o.Val))
			}
		case *OpIntr:
			if p.config.Intr {
				name, ok := intrNames[o.Line]
				if !ok {
					name = fmt.Sprintf("intr %d", o.Line)
				}
				effects = append(effects, "<"+name+">")
			}
		}
	}
	if ins == "" && len(effects) == 0 {
		return
	}
	line := pad(p.core, 6) + pad(ins, p.inscol) + strings.Join(effects, " ")
	p.Printf("%s\n", strings.TrimRight(line, " "))
}

func (p *Printer) dis(step *OpStep) string {
	if p.arch.Dis != nil {
		if ins, err := p.arch.Dis.Dis(step.Ins, uint64(step.Addr)); err == nil && len(ins) > 0 {
			return models.FormatIns(ins[:1], false)
		}
	}
	return fmt.Sprintf("$%04x: %x", step.Addr, step.Ins)
}
