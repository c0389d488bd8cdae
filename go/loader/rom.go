package loader

import (
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// ROM is a raw image, mapped copy-on-write so the debugger can patch it
// without touching the file.
type ROM struct {
	name string
	addr uint64
	mm   mmap.MMap
}

// MapROM maps path at addr. With top set, the image ends at the top of
// the address space instead, where the vectors live.
func MapROM(path string, addr uint64, top bool) (*ROM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if st.Size() == 0 {
		return nil, errors.Errorf("%s: empty image", path)
	}
	if top && st.Size() <= 0x10000 {
		addr = 0x10000 - uint64(st.Size())
	}
	if uint64(st.Size())+addr > 0x10000 {
		return nil, errors.Errorf("%s: %d bytes at %#x do not fit in 64k", path, st.Size(), addr)
	}
	mm, err := mmap.Map(f, mmap.COPY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: mmap failed", path)
	}
	return &ROM{name: filepath.Base(path), addr: addr, mm: mm}, nil
}

func (r *ROM) Name() string { return r.name }

func (r *ROM) Segments() []Segment {
	return []Segment{{Addr: r.addr, Data: r.mm}}
}

func (r *ROM) Entry() (uint64, bool) { return 0, false }

func (r *ROM) Close() error {
	if r.mm == nil {
		return nil
	}
	err := r.mm.Unmap()
	r.mm = nil
	return err
}
