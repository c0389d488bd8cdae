package trace

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/models/cpu"
	"github.com/lunixbochs/hc11corn/go/models/trace"
)

type drcovBB struct {
	Start uint32
	Size  uint16
	ModId uint16
}

var strucOptions = &struc.Options{Order: binary.LittleEndian}

// WriteDrcov converts a trace to drcov coverage. Every executable mapping
// is a module and every executed instruction a block, so coverage tools
// see exactly the bytes each core ran.
func WriteDrcov(tf *trace.TraceReader, out io.Writer) error {
	var blocks bytes.Buffer
	bbCount := 0
	modules := make(map[string]*cpu.Page)
	var modlookup cpu.Pages
	seen := make(map[uint32]bool)

	addmod := func(o *trace.OpMemMap) {
		if o.Prot&cpu.PROT_EXEC == 0 {
			return
		}
		key := fmt.Sprintf("%s|%x", o.Desc, o.Addr)
		if _, ok := modules[key]; ok {
			return
		}
		mod := &cpu.Page{Addr: uint64(o.Addr), Size: uint64(o.Size), Prot: len(modules), Desc: "[" + o.Desc + "]"}
		modules[key] = mod
		modlookup = append(modlookup, mod)
		sort.Sort(modlookup)
	}

	for {
		op, err := tf.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return errors.Wrap(err, "error reading next trace operation")
		}
		var ops []trace.Op
		switch frame := op.(type) {
		case *trace.OpKeyframe:
			ops = frame.Ops
		case *trace.OpFrame:
			ops = frame.Ops
		}
		for _, op := range ops {
			switch o := op.(type) {
			case *trace.OpMemMap:
				addmod(o)
			case *trace.OpStep:
				// one entry per address is enough for coverage
				if seen[uint32(o.Addr)] {
					continue
				}
				mod := modlookup.Find(uint64(o.Addr))
				if mod == nil {
					continue
				}
				seen[uint32(o.Addr)] = true
				bb := drcovBB{
					Start: uint32(uint64(o.Addr) - mod.Addr),
					Size:  uint16(len(o.Ins)),
					ModId: uint16(mod.Prot),
				}
				if err := struc.PackWithOptions(&blocks, &bb, strucOptions); err != nil {
					return errors.WithStack(err)
				}
				bbCount++
			}
		}
	}

	fmt.Fprintf(out, "DRCOV VERSION: 2\n")
	fmt.Fprintf(out, "DRCOV FLAVOR: drcov\n")
	fmt.Fprintf(out, "Module Table: version 2, count %d\n", len(modules))
	fmt.Fprintf(out, "Columns: id, base, end, entry, path\n")
	for _, page := range modlookup {
		fmt.Fprintf(out, "%d, %#08x, %#08x, %#08x, %s\n", page.Prot, page.Addr, page.Addr+page.Size, 0, page.Desc)
	}
	fmt.Fprintf(out, "BB Table: %d bbs\n", bbCount)
	_, err := blocks.WriteTo(out)
	return errors.WithStack(err)
}
