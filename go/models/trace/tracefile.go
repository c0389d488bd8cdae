package trace

import (
	"bufio"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

var TRACE_MAGIC = "HC1T"

const TRACE_VERSION = 1

type TraceHeader struct {
	// MAGIC ("HC1T")
	Magic string `struc:"[4]byte" json:"-"`
	// file format version
	Version uint32 `json:"version"`
	// Emulated architecture, right-null-padded.
	Arch string `struc:"[32]byte" json:"arch"`
	// number of cores in the machine
	Cores uint8 `json:"cores"`
}

// TraceWriter writes the header raw, then a snappy stream of ops.
type TraceWriter struct {
	w  io.WriteCloser
	zw *snappy.Writer
}

func NewWriter(w io.WriteCloser, arch string, cores int) (*TraceWriter, error) {
	header := &TraceHeader{
		Magic:   TRACE_MAGIC,
		Version: TRACE_VERSION,
		Arch:    arch,
		Cores:   uint8(cores),
	}
	if err := struc.Pack(w, header); err != nil {
		return nil, errors.Wrap(err, "failed to pack header")
	}
	return &TraceWriter{w: w, zw: snappy.NewBufferedWriter(w)}, nil
}

// Pack writes one top level op.
func (t *TraceWriter) Pack(op Op) error {
	buf := make([]byte, op.Sizeof())
	op.Pack(buf)
	_, err := t.zw.Write(buf)
	return err
}

func (t *TraceWriter) Close() error {
	if err := t.zw.Close(); err != nil {
		t.w.Close()
		return err
	}
	return t.w.Close()
}

type TraceReader struct {
	r      io.ReadCloser
	zr     *bufio.Reader
	Header TraceHeader
}

func NewReader(r io.ReadCloser) (*TraceReader, error) {
	t := &TraceReader{r: r}
	if err := struc.Unpack(r, &t.Header); err != nil {
		return nil, errors.Wrap(err, "failed to unpack header")
	}
	if t.Header.Magic != TRACE_MAGIC {
		return nil, errors.New("invalid trace file magic")
	}
	if t.Header.Version != TRACE_VERSION {
		return nil, errors.Errorf("unsupported trace version %d", t.Header.Version)
	}
	t.Header.Arch = strings.TrimRight(t.Header.Arch, "\x00")
	t.zr = bufio.NewReader(snappy.NewReader(r))
	return t, nil
}

// Next returns io.EOF at the end of the trace.
func (t *TraceReader) Next() (Op, error) {
	op, _, err := Unpack(t.zr, false)
	return op, err
}

func (t *TraceReader) Close() error {
	return t.r.Close()
}
