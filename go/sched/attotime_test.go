package sched

import (
	"testing"
	"time"
)

func TestAttotime(t *testing.T) {
	if v := FromCycles(2000000, 2000000); v != (Time{Sec: 1}) {
		t.Errorf("2M cycles at 2MHz = %v", v)
	}
	if v := FromCycles(1, 2000000); v != (Time{Atto: 500000000000}) {
		t.Errorf("one cycle at 2MHz = %+v", v)
	}
	if v := FromCycles(3000001, 2000000).Cycles(2000000); v != 3000001 {
		t.Errorf("cycle round trip = %d", v)
	}
	if v := FromDuration(1500 * time.Millisecond); v.String() != "1.500000000s" {
		t.Errorf("1.5s = %s", v)
	}
	if v := FromSeconds(0.25); v.Cmp(FromDuration(250*time.Millisecond)) != 0 {
		t.Errorf("0.25s = %+v", v)
	}

	a := Time{Sec: 1, Atto: AttoPerSec - 1}
	b := Time{Atto: 2}
	if v := a.Add(b); v != (Time{Sec: 2, Atto: 1}) {
		t.Errorf("add carry: %+v", v)
	}
	if v := a.Add(b).Sub(b); v != a {
		t.Errorf("sub borrow: %+v", v)
	}
	if v := b.Sub(a); v != Zero {
		t.Errorf("sub should clamp at zero: %+v", v)
	}
	if !b.Less(a) || a.Less(b) || a.Cmp(a) != 0 {
		t.Errorf("ordering broken")
	}
	if !a.Add(Never).IsNever() || Never.String() != "never" {
		t.Errorf("never is not sticky")
	}
	if FromCycles(10, 0) != Never {
		t.Errorf("zero clock should never finish")
	}
}
