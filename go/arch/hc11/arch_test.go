package hc11

import (
	"testing"

	"github.com/lunixbochs/hc11corn/go/cpu/hc11"
)

func TestRegs(t *testing.T) {
	c, err := hc11.New("cpu0", nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	Arch.SmokeTest(t, c)
	if e, ok := Arch.RegLookup("ccr"); !ok || e != hc11.CCR {
		t.Error("ccr lookup failed")
	}
}
