package trace

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/models"
)

var order = binary.BigEndian

type Op = models.Op

const (
	OP_NOP       = 0
	OP_FRAME     = 1
	OP_KEYFRAME  = 2
	OP_CORE      = 3
	OP_STEP      = 4
	OP_REG       = 5
	OP_TIME      = 6
	OP_MEM_READ  = 7
	OP_MEM_WRITE = 8
	OP_MEM_MAP   = 9
	OP_INTR      = 12
	OP_EXIT      = 13
)

// used by frame and keyframe
func packOps(p []byte, ops []Op) {
	for _, op := range ops {
		op.Pack(p)
		p = p[op.Sizeof():]
	}
}

// used by frame and keyframe
func unpackOps(r io.Reader, count int) (ops []Op, total int, err error) {
	ops = make([]Op, count)
	for i := 0; i < count; i++ {
		op, n, err := Unpack(r, true)
		total += n
		if err != nil {
			return ops, total, errors.Wrap(err, "unpacking op list")
		}
		ops[i] = op
	}
	return ops, total, nil
}

// Unpack reads one op. Frames may not nest.
func Unpack(r io.Reader, nested bool) (Op, int, error) {
	var tmp [1]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return nil, 0, err
	}
	var op Op
	switch tmp[0] {
	case OP_NOP:
		op = &OpNop{}
	case OP_CORE:
		op = &OpCore{}
	case OP_STEP:
		op = &OpStep{}
	case OP_REG:
		op = &OpReg{}
	case OP_TIME:
		op = &OpTime{}
	case OP_MEM_READ:
		op = &OpMemRead{}
	case OP_MEM_WRITE:
		op = &OpMemWrite{}
	case OP_MEM_MAP:
		op = &OpMemMap{}
	case OP_INTR:
		op = &OpIntr{}
	case OP_FRAME:
		op = &OpFrame{}
	case OP_KEYFRAME:
		op = &OpKeyframe{}
	case OP_EXIT:
		op = &OpExit{}
	default:
		return nil, 1, errors.Errorf("Unknown op: %d", tmp[0])
	}
	if nested && (tmp[0] == OP_FRAME || tmp[0] == OP_KEYFRAME) {
		return nil, 1, errors.Errorf("fatal: nested frame")
	}
	n, err := op.Unpack(r)
	return op, n + 1, err
}

type OpNop struct{}

func (o *OpNop) Sizeof() int   { return 1 }
func (o *OpNop) Pack(p []byte) { p[0] = OP_NOP }

func (o *OpNop) Unpack(r io.Reader) (int, error) { return 0, nil }

type OpExit struct{ OpNop }

func (o *OpExit) Pack(p []byte) { p[0] = OP_EXIT }

// OpCore makes core Num the source of the ops that follow it.
type OpCore struct {
	Num  uint8
	Name string
}

func (o *OpCore) Sizeof() int { return 1 + 1 + 1 + len(o.Name) }
func (o *OpCore) Pack(p []byte) {
	p[0] = OP_CORE
	p[1] = o.Num
	p[2] = uint8(len(o.Name))
	copy(p[3:], o.Name)
}

func (o *OpCore) Unpack(r io.Reader) (int, error) {
	var tmp [2]byte
	total, err := io.ReadFull(r, tmp[:])
	if err != nil {
		return total, err
	}
	o.Num = tmp[0]
	name := make([]byte, tmp[1])
	n, err := io.ReadFull(r, name)
	o.Name = string(name)
	return total + n, err
}

// OpStep is one executed instruction, with its encoding.
type OpStep struct {
	Addr uint16
	Ins  []byte
}

func (o *OpStep) Sizeof() int { return 1 + 2 + 1 + len(o.Ins) }
func (o *OpStep) Pack(p []byte) {
	p[0] = OP_STEP
	order.PutUint16(p[1:], o.Addr)
	p[3] = uint8(len(o.Ins))
	copy(p[4:], o.Ins)
}

func (o *OpStep) Unpack(r io.Reader) (int, error) {
	var tmp [3]byte
	total, err := io.ReadFull(r, tmp[:])
	if err != nil {
		return total, err
	}
	o.Addr = order.Uint16(tmp[:])
	o.Ins = make([]byte, tmp[2])
	n, err := io.ReadFull(r, o.Ins)
	return total + n, err
}

type OpReg struct {
	Num uint8
	Val uint16
}

func (o *OpReg) Sizeof() int { return 1 + 1 + 2 }
func (o *OpReg) Pack(p []byte) {
	p[0] = OP_REG
	p[1] = o.Num
	order.PutUint16(p[2:], o.Val)
}

func (o *OpReg) Unpack(r io.Reader) (int, error) {
	var tmp [3]byte
	n, err := io.ReadFull(r, tmp[:])
	if err == nil {
		o.Num = tmp[0]
		o.Val = order.Uint16(tmp[1:])
	}
	return n, err
}

// OpTime is the scheduler clock when the following ops happened.
type OpTime struct {
	Sec  int64
	Atto uint64
}

func (o *OpTime) Sizeof() int { return 1 + 8 + 8 }
func (o *OpTime) Pack(p []byte) {
	p[0] = OP_TIME
	order.PutUint64(p[1:], uint64(o.Sec))
	order.PutUint64(p[9:], o.Atto)
}

func (o *OpTime) Unpack(r io.Reader) (int, error) {
	var tmp [16]byte
	n, err := io.ReadFull(r, tmp[:])
	if err == nil {
		o.Sec = int64(order.Uint64(tmp[:]))
		o.Atto = order.Uint64(tmp[8:])
	}
	return n, err
}

// memory ops are single bus cycles: 16-bit reads and writes show up as
// two of them
type OpMemRead struct {
	Addr uint16
	Val  uint8
}

func (o *OpMemRead) Sizeof() int { return 1 + 2 + 1 }
func (o *OpMemRead) Pack(p []byte) {
	p[0] = OP_MEM_READ
	order.PutUint16(p[1:], o.Addr)
	p[3] = o.Val
}

func (o *OpMemRead) Unpack(r io.Reader) (int, error) {
	var tmp [3]byte
	n, err := io.ReadFull(r, tmp[:])
	if err == nil {
		o.Addr = order.Uint16(tmp[:])
		o.Val = tmp[2]
	}
	return n, err
}

type OpMemWrite struct {
	Addr uint16
	Val  uint8
}

func (o *OpMemWrite) Sizeof() int { return 1 + 2 + 1 }
func (o *OpMemWrite) Pack(p []byte) {
	p[0] = OP_MEM_WRITE
	order.PutUint16(p[1:], o.Addr)
	p[3] = o.Val
}

func (o *OpMemWrite) Unpack(r io.Reader) (int, error) {
	return (*OpMemRead)(o).Unpack(r)
}

type OpMemMap struct {
	Addr uint32
	Size uint32
	Prot uint8
	Desc string
}

func (o *OpMemMap) Sizeof() int { return 1 + 4 + 4 + 1 + 2 + len(o.Desc) }
func (o *OpMemMap) Pack(p []byte) {
	p[0] = OP_MEM_MAP
	order.PutUint32(p[1:], o.Addr)
	order.PutUint32(p[5:], o.Size)
	p[9] = o.Prot
	order.PutUint16(p[10:], uint16(len(o.Desc)))
	copy(p[12:], o.Desc)
}

func (o *OpMemMap) Unpack(r io.Reader) (int, error) {
	var tmp [4 + 4 + 1 + 2]byte
	total, err := io.ReadFull(r, tmp[:])
	if err != nil {
		return total, err
	}
	o.Addr = order.Uint32(tmp[:])
	o.Size = order.Uint32(tmp[4:])
	o.Prot = tmp[8]
	desc := make([]byte, order.Uint16(tmp[9:]))
	n, err := io.ReadFull(r, desc)
	o.Desc = string(desc)
	return total + n, err
}

// OpIntr is an interrupt taken by the current core.
type OpIntr struct {
	Line uint8
}

func (o *OpIntr) Sizeof() int { return 2 }
func (o *OpIntr) Pack(p []byte) {
	p[0] = OP_INTR
	p[1] = o.Line
}

func (o *OpIntr) Unpack(r io.Reader) (int, error) {
	var tmp [1]byte
	n, err := io.ReadFull(r, tmp[:])
	if err == nil {
		o.Line = tmp[0]
	}
	return n, err
}

// OpKeyframe carries the machine state a trace starts from.
type OpKeyframe struct {
	Ops []Op
}

func (o *OpKeyframe) Sizeof() int { return (*OpFrame)(o).Sizeof() }
func (o *OpKeyframe) Pack(p []byte) {
	(*OpFrame)(o).Pack(p)
	p[0] = OP_KEYFRAME
}

func (o *OpKeyframe) Unpack(r io.Reader) (int, error) {
	return (*OpFrame)(o).Unpack(r)
}

// OpFrame groups an instruction with its side effects.
type OpFrame struct {
	Ops []Op
}

func (o *OpFrame) Sizeof() int {
	size := 1 + 4
	for _, op := range o.Ops {
		size += op.Sizeof()
	}
	return size
}
func (o *OpFrame) Pack(p []byte) {
	p[0] = OP_FRAME
	order.PutUint32(p[1:], uint32(len(o.Ops)))
	packOps(p[1+4:], o.Ops)
}

func (o *OpFrame) Unpack(r io.Reader) (int, error) {
	var tmp [4]byte
	total, err := io.ReadFull(r, tmp[:])
	if err != nil {
		return total, errors.Wrap(err, "frame unpack")
	}
	ops, n, err := unpackOps(r, int(order.Uint32(tmp[:])))
	o.Ops = ops
	return total + n, err
}
