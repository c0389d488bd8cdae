package loader

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Segment is a run of bytes to place at Addr.
type Segment struct {
	Addr uint64
	Data []byte
}

// Image is a program image ready to be mapped into a machine.
type Image interface {
	Name() string
	Segments() []Segment
	// Entry is the start address recorded in the image, if any.
	Entry() (uint64, bool)
	Close() error
}

var UnknownMagic = errors.New("Could not identify file magic.")

// LoadFile picks a loader by content. S-record files are parsed, anything
// else is mapped as a raw image at addr, or at the top of memory.
func LoadFile(path string, addr uint64, top bool) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	var head [2]byte
	n, err := io.ReadFull(f, head[:])
	if err != nil && n == 0 {
		return nil, errors.Wrapf(err, "%s: empty image", path)
	}
	if MatchSrec(head[:n]) {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, errors.WithStack(err)
		}
		return LoadSrec(f, path)
	}
	return MapROM(path, addr, top)
}

func MatchSrec(head []byte) bool {
	return len(head) >= 2 && head[0] == 'S' && bytes.IndexByte([]byte("0123456789"), head[1]) >= 0
}
