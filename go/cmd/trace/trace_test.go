package trace

import (
	"bytes"
	"io"
	"io/ioutil"
	"strings"
	"testing"

	hc11corn "github.com/lunixbochs/hc11corn/go"
	"github.com/lunixbochs/hc11corn/go/cpu/hc11"
	"github.com/lunixbochs/hc11corn/go/loader"
	"github.com/lunixbochs/hc11corn/go/models"
	"github.com/lunixbochs/hc11corn/go/models/trace"
	"github.com/lunixbochs/hc11corn/go/sched"
)

type bufCloser struct{ *bytes.Buffer }

func (bufCloser) Close() error { return nil }

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// record runs a short loop with a binary trace attached.
func record(t *testing.T) []byte {
	var buf bytes.Buffer
	config := &models.Config{Output: nopCloser{ioutil.Discard}}
	config.Trace.TraceWriter = bufCloser{&buf}
	m, err := hc11corn.NewMachine(config, &hc11corn.Options{
		RAMs: []loader.RAMSpec{{Addr: 0x8000, Size: 0x8000}},
	})
	if err != nil {
		t.Fatal(err)
	}
	m.Mem().MemWrite(0x8000, []byte{
		0x86, 0x01, // ldaa #1
		0x4c, // inca
		0x20, 0xfe, // bra *
	})
	m.Mem().MemWrite(hc11.VEC_RESET, []byte{0x80, 0x00})
	if err := m.Reset(); err != nil {
		t.Fatal(err)
	}
	if err := m.Run(sched.FromSeconds(0.00005)); err != nil {
		t.Fatal(err)
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func reader(t *testing.T, data []byte) *trace.TraceReader {
	tf, err := trace.NewReader(ioutil.NopCloser(bytes.NewReader(data)))
	if err != nil {
		t.Fatal(err)
	}
	return tf
}

func TestPretty(t *testing.T) {
	data := record(t)
	var out bytes.Buffer
	if err := PrintPretty(reader(t, data), &out); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	for _, want := range []string{"ldaa #$01", "inca", "a=$2", "[exit]"} {
		if !strings.Contains(text, want) {
			t.Errorf("pretty output missing %q:\n%s", want, text)
		}
	}
}

func TestJson(t *testing.T) {
	var out bytes.Buffer
	if err := PrintJson(reader(t, record(t)), &out); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) < 3 || !strings.Contains(lines[0], `"arch":"hc11"`) {
		t.Fatalf("bad json trace:\n%s", out.String())
	}
}

func TestDrcov(t *testing.T) {
	var out bytes.Buffer
	if err := WriteDrcov(reader(t, record(t)), &out); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	if !strings.HasPrefix(text, "DRCOV VERSION: 2\n") {
		t.Fatalf("bad header:\n%s", text)
	}
	// ldaa, inca and the loop branch, each counted once
	if !strings.Contains(text, "BB Table: 3 bbs\n") {
		t.Errorf("bad block count:\n%s", text)
	}
	if !strings.Contains(text, "[ram]") {
		t.Errorf("ram module missing:\n%s", text)
	}
}
