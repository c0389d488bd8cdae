package sched

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/lunixbochs/hc11corn/go/models/cpu"
)

// fakeDev runs one-cycle instructions and calls step after each.
type fakeDev struct {
	name   string
	hz     uint64
	ctx    int
	ran    uint64
	icount int
	stop   bool
	resets int
	step   func(f *fakeDev)

	irq map[int]int
	ack cpu.IRQCallback
}

func newFake(name string, hz uint64) *fakeDev {
	return &fakeDev{name: name, hz: hz, ctx: 8, irq: make(map[int]int)}
}

func (f *fakeDev) Name() string     { return f.name }
func (f *fakeDev) Clock() uint64    { return f.hz }
func (f *fakeDev) ContextSize() int { return f.ctx }
func (f *fakeDev) Burn(n int)       { f.icount -= n }

func (f *fakeDev) Reset() error {
	f.resets++
	return nil
}

func (f *fakeDev) Stop() error {
	f.stop = true
	return nil
}

func (f *fakeDev) Execute(cycles int) int {
	f.icount, f.stop = cycles, false
	for f.icount > 0 && !f.stop {
		f.icount--
		f.ran++
		if f.step != nil {
			f.step(f)
		}
	}
	return cycles - f.icount
}

func (f *fakeDev) SetIRQLine(line, state int)        { f.irq[line] = state }
func (f *fakeDev) SetIRQCallback(cb cpu.IRQCallback) { f.ack = cb }

func (f *fakeDev) PackContext() ([]byte, error) {
	p := make([]byte, 8)
	binary.BigEndian.PutUint64(p, f.ran)
	return p, nil
}

func (f *fakeDev) UnpackContext(p []byte) error {
	if len(p) != 8 {
		return errors.New("bad context")
	}
	f.ran = binary.BigEndian.Uint64(p)
	return nil
}

func newSched() *Scheduler {
	log, _ := test.NewNullLogger()
	return New(log)
}

var ms = FromDuration(time.Millisecond)

func TestZeroContext(t *testing.T) {
	s := newSched()
	f := newFake("bad", 1000000)
	f.ctx = 0
	if _, err := s.Add(f); errors.Cause(err) != ErrZeroContext {
		t.Fatalf("got %v, want ErrZeroContext", err)
	}
	defer func() {
		if recover() == nil {
			t.Errorf("MustAdd did not panic")
		}
	}()
	s.MustAdd(f)
}

func TestAddErrors(t *testing.T) {
	s := newSched()
	f := newFake("a", 1000000)
	s.MustAdd(f)
	if _, err := s.Add(f); err == nil {
		t.Errorf("added the same device twice")
	}
	if _, err := s.Add(newFake("a", 1000)); err == nil {
		t.Errorf("added a duplicate name")
	}
	if _, err := s.Add(newFake("b", 0)); err == nil {
		t.Errorf("added a device without a clock")
	}
	if err := s.Suspend(newFake("c", 1000), SUSPEND_HALT, false); err == nil {
		t.Errorf("suspended an unknown device")
	}
}

func TestInterleave(t *testing.T) {
	s := newSched()
	slow, fast := newFake("slow", 1000000), newFake("fast", 2000000)
	es, ef := s.MustAdd(slow), s.MustAdd(fast)
	s.RunFor(ms)
	if slow.ran != 1000 || fast.ran != 2000 {
		t.Errorf("ran %d/%d cycles, want 1000/2000", slow.ran, fast.ran)
	}
	if es.Local() != ms || ef.Local() != ms || s.Now() != ms {
		t.Errorf("clocks: %v %v %v", es.Local(), ef.Local(), s.Now())
	}
	if s.Slices() != 10 {
		t.Errorf("%d slices", s.Slices())
	}
}

func TestSuspendEat(t *testing.T) {
	s := newSched()
	a, b := newFake("a", 1000000), newFake("b", 1000000)
	ea, eb := s.MustAdd(a), s.MustAdd(b)
	s.Suspend(a, SUSPEND_HALT, false)
	s.Suspend(b, SUSPEND_HALT|SUSPEND_DISABLE, true)
	s.RunFor(ms)
	if a.ran != 0 || b.ran != 0 {
		t.Fatalf("suspended devices ran")
	}
	if ea.TotalCycles() != 0 || ea.Local() != ms {
		t.Errorf("ignored suspension charged %d cycles, local %v", ea.TotalCycles(), ea.Local())
	}
	if eb.TotalCycles() != 1000 || eb.EatenCycles() != 1000 {
		t.Errorf("eaten suspension charged %d cycles", eb.TotalCycles())
	}

	// one reason left keeps it asleep
	s.Resume(b, SUSPEND_HALT)
	if eb.Runnable() || SuspendString(eb.Suspended()) != "disable" {
		t.Errorf("b is %s", SuspendString(eb.Suspended()))
	}
	s.Resume(a, SUSPEND_HALT)
	s.RunFor(ms)
	if a.ran != 1000 || b.ran != 0 {
		t.Errorf("after resume ran %d/%d", a.ran, b.ran)
	}
}

func TestSpinUntilTrigger(t *testing.T) {
	s := newSched()
	a, b := newFake("a", 1000000), newFake("b", 1000000)
	ea := s.MustAdd(a)
	s.MustAdd(b)
	woke := -1
	a.step = func(f *fakeDev) {
		if f.ran == 50 {
			s.SpinUntilTrigger(a, 7)
		}
	}
	b.step = func(f *fakeDev) {
		if f.ran == 300 {
			woke = s.Trigger(7)
		}
	}
	s.RunFor(ms)
	if woke != 1 {
		t.Errorf("trigger woke %d devices", woke)
	}
	if !ea.Runnable() {
		t.Errorf("a still %s", SuspendString(ea.Suspended()))
	}
	// 50 cycles of the first slice and all of the second were spent asleep
	if ea.TotalCycles() != 1000 || a.ran != 850 {
		t.Errorf("a: total %d, ran %d", ea.TotalCycles(), a.ran)
	}
	if b.ran != 1000 {
		t.Errorf("b ran %d", b.ran)
	}
	if s.Trigger(7) != 0 {
		t.Errorf("trigger woke a running device")
	}
}

func TestSpinUntilTime(t *testing.T) {
	s := newSched()
	a := newFake("a", 1000000)
	ea := s.MustAdd(a)
	a.step = func(f *fakeDev) {
		if f.ran == 10 {
			s.SpinUntilTime(a, FromDuration(250*time.Microsecond))
		}
	}
	s.RunFor(ms)
	if ea.EatenCycles() != 150 || a.ran != 760 || ea.TotalCycles() != 1000 {
		t.Errorf("eaten %d, ran %d, total %d", ea.EatenCycles(), a.ran, ea.TotalCycles())
	}
	if s.Slices() != 11 {
		t.Errorf("%d slices, want 11", s.Slices())
	}
}

func TestSpin(t *testing.T) {
	s := newSched()
	a := newFake("a", 1000000)
	ea := s.MustAdd(a)
	a.step = func(f *fakeDev) {
		if f.ran == 1 {
			s.Spin(a)
		}
	}
	s.Timeslice()
	if !ea.Runnable() {
		t.Errorf("spin outlived its slice")
	}
	s.Timeslice()
	if a.ran != 101 {
		t.Errorf("ran %d", a.ran)
	}
}

func TestTimers(t *testing.T) {
	s := newSched()
	s.MustAdd(newFake("a", 1000000))
	var once []Time
	pulses := 0
	s.TimerSet(FromDuration(150*time.Microsecond), func() { once = append(once, s.Now()) })
	s.TimerPulse(FromDuration(300*time.Microsecond), func() { pulses++ })
	dead := s.TimerSet(FromDuration(500*time.Microsecond), func() { t.Errorf("cancelled timer fired") })
	dead.Cancel()
	if dead.Active() {
		t.Errorf("cancelled timer still active")
	}
	s.RunFor(ms)
	if len(once) != 1 || once[0] != FromDuration(150*time.Microsecond) {
		t.Errorf("one-shot fired at %v", once)
	}
	if pulses != 3 {
		t.Errorf("pulse fired %d times", pulses)
	}
}

func TestTriggerAfter(t *testing.T) {
	s := newSched()
	a := newFake("a", 1000000)
	ea := s.MustAdd(a)
	s.SpinUntilTrigger(a, 1)
	s.TriggerAfter(FromDuration(400*time.Microsecond), 1)
	s.RunFor(ms)
	if !ea.Runnable() || a.ran != 600 {
		t.Errorf("ran %d after the trigger", a.ran)
	}
}

func TestEat(t *testing.T) {
	s := newSched()
	a := newFake("a", 1000000)
	ea := s.MustAdd(a)
	a.step = func(f *fakeDev) {
		if f.ran == 10 {
			if err := s.Eat(50); err != nil {
				t.Error(err)
			}
		}
	}
	s.Timeslice()
	if a.ran != 50 || ea.TotalCycles() != 100 {
		t.Errorf("ran %d, total %d", a.ran, ea.TotalCycles())
	}
	if err := s.Eat(1); err == nil {
		t.Errorf("eat outside a slice should fail")
	}
}

func TestHoldReset(t *testing.T) {
	s := newSched()
	a := newFake("a", 1000000)
	ea := s.MustAdd(a)
	s.HoldReset(a, true)
	s.RunFor(ms)
	if a.ran != 0 || ea.Suspended() != SUSPEND_RESET {
		t.Fatalf("ran %d in reset", a.ran)
	}
	s.HoldReset(a, false)
	if a.resets != 1 || !ea.Runnable() {
		t.Errorf("resets %d, %s", a.resets, SuspendString(ea.Suspended()))
	}
}

func TestAbortTimeslice(t *testing.T) {
	s := newSched()
	a, b := newFake("a", 1000000), newFake("b", 1000000)
	s.MustAdd(a)
	s.MustAdd(b)
	a.step = func(f *fakeDev) {
		if f.ran == 40 {
			s.AbortTimeslice()
		}
	}
	end := s.Timeslice()
	if a.ran != 40 || b.ran != 40 {
		t.Errorf("ran %d/%d, want 40/40", a.ran, b.ran)
	}
	if end != FromDuration(40*time.Microsecond) {
		t.Errorf("slice ended at %v", end)
	}
	s.AbortTimeslice()
}

func TestState(t *testing.T) {
	s := newSched()
	a := newFake("a", 1000000)
	ea := s.MustAdd(a)
	s.RunFor(ms)
	st, err := s.State()
	if err != nil {
		t.Fatal(err)
	}
	s.SpinUntilTrigger(a, 3)
	s.RunFor(ms)
	a.ran = 0
	if err := s.SetState(st); err != nil {
		t.Fatal(err)
	}
	if a.ran != 1000 || s.Now() != ms || ea.Local() != ms || !ea.Runnable() {
		t.Errorf("restore: ran %d, now %v, %s", a.ran, s.Now(), SuspendString(ea.Suspended()))
	}
	st.Devices[0].Name = "nope"
	if err := s.SetState(st); err == nil {
		t.Errorf("restored a state for another machine")
	}
}

func TestSuspendString(t *testing.T) {
	if s := SuspendString(SUSPEND_HALT | SUSPEND_TRIGGER); s != "halt|trigger" {
		t.Errorf("got %s", s)
	}
	if s := SuspendString(0); s != "running" {
		t.Errorf("got %s", s)
	}
	if v, ok := ParseSuspend("spin"); !ok || v != SUSPEND_SPIN {
		t.Errorf("parse spin = %x", v)
	}
}

func TestFakeIRQHold(t *testing.T) {
	s := newSched()
	a := newFake("a", 1000000)
	ea := s.MustAdd(a)
	acks := 0
	s.SetIRQCallback(a, func(c cpu.Cpu, line int) int {
		acks++
		return 0
	})
	s.SetIRQLine(a, 0, cpu.HOLD_LINE)
	if a.irq[0] != cpu.HOLD_LINE {
		t.Fatalf("line not forwarded")
	}
	a.ack(nil, 0)
	if acks != 1 || a.irq[0] != cpu.CLEAR_LINE || ea.IRQLine(0) != cpu.CLEAR_LINE {
		t.Errorf("hold line not released on ack")
	}
}

func TestStateIRQ(t *testing.T) {
	s := newSched()
	a := newFake("a", 1000000)
	s.MustAdd(a)
	s.SetIRQLine(a, 1, cpu.HOLD_LINE)
	s.SetIRQLine(a, 0, cpu.ASSERT_LINE)
	st, err := s.State()
	if err != nil {
		t.Fatal(err)
	}
	want := []IRQLevel{{0, cpu.ASSERT_LINE}, {1, cpu.HOLD_LINE}}
	if got := st.Devices[0].IRQ; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("irq levels %+v", got)
	}

	s2 := newSched()
	b := newFake("a", 1000000)
	eb := s2.MustAdd(b)
	if err := s2.SetState(st); err != nil {
		t.Fatal(err)
	}
	if eb.IRQLine(1) != cpu.HOLD_LINE {
		t.Fatalf("hold level not restored")
	}
	b.ack(nil, 1)
	if eb.IRQLine(1) != cpu.CLEAR_LINE || b.irq[1] != cpu.CLEAR_LINE {
		t.Errorf("restored hold line not released on ack")
	}
	if eb.IRQLine(0) != cpu.ASSERT_LINE {
		t.Errorf("asserted line dropped by restore")
	}
}
