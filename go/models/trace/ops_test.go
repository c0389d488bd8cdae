package trace

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
)

var allUnframed = []Op{
	&OpNop{},
	&OpCore{1, "cpu1"},
	&OpTime{0, 500000000000},
	&OpMemMap{0x8000, 0x8000, 5, "rom"},
	&OpStep{0x8000, []byte{0x18, 0xce, 0x12, 0x34}},
	&OpReg{5, 0x1234},
	&OpMemRead{0x1000, 0x42},
	&OpMemWrite{0x0010, 0x43},
	&OpIntr{1},
	&OpExit{},
}

var testFrame = &OpFrame{Ops: allUnframed}
var testKeyframe = &OpKeyframe{Ops: allUnframed}

func TestOpFrame(t *testing.T) {
	for _, frame := range []Op{testFrame, testKeyframe} {
		buf := make([]byte, frame.Sizeof())
		frame.Pack(buf)
		op, n, err := Unpack(bytes.NewReader(buf), false)
		if err != nil {
			t.Fatal(err)
		}
		if n != len(buf) {
			t.Errorf("read %d of %d bytes", n, len(buf))
		}
		if !reflect.DeepEqual(op, frame) {
			t.Errorf("decoded %#v, want %#v", op, frame)
		}
	}
}

func TestNestedFrame(t *testing.T) {
	inner := &OpFrame{Ops: []Op{&OpNop{}}}
	outer := &OpFrame{Ops: []Op{inner}}
	buf := make([]byte, outer.Sizeof())
	outer.Pack(buf)
	if _, _, err := Unpack(bytes.NewReader(buf), false); err == nil {
		t.Error("nested frame should not decode")
	}
	if _, _, err := Unpack(bytes.NewReader([]byte{0xff}), false); err == nil {
		t.Error("unknown op should not decode")
	}
}

func TestOpJSON(t *testing.T) {
	out, err := json.Marshal(&OpFrame{Ops: []Op{&OpStep{0x8000, []byte{0x86, 0x12}}, &OpMemWrite{0x10, 0x12}}})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"op":1,"ops":[{"op":4,"addr":32768,"ins":"8612"},{"op":8,"addr":16,"val":18}]}`
	if string(out) != want {
		t.Errorf("got %s", out)
	}
}

func BenchmarkPack(b *testing.B) {
	for i := 0; i < b.N; i++ {
		tmp := make([]byte, testFrame.Sizeof())
		testFrame.Pack(tmp)
	}
}

func BenchmarkUnpack(b *testing.B) {
	tmp := make([]byte, testFrame.Sizeof())
	testFrame.Pack(tmp)
	r := bytes.NewReader(tmp)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Seek(0, 0)
		if _, _, err := Unpack(r, false); err != nil {
			b.Fatal(err)
		}
	}
}
