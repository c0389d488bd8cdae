package sched

import (
	"container/heap"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lunixbochs/hc11corn/go/models/cpu"
)

var ErrZeroContext = errors.New("device has zero context size")

// Scheduler runs devices cooperatively against one shared emulated clock.
// Each time slice every runnable device executes up to the slice target,
// furthest behind first. Nothing here is safe for concurrent use; devices
// call back into the scheduler from inside Execute on the same goroutine.
type Scheduler struct {
	log     logrus.FieldLogger
	devices []*Exec
	byDev   map[Device]*Exec

	now     Time
	quantum Time
	timers  timerHeap
	seq     uint64

	executing *Exec
	abort     bool
	slices    uint64
}

// DefaultQuantum bounds a slice when no timer comes sooner.
var DefaultQuantum = FromDuration(100 * time.Microsecond)

func New(log logrus.FieldLogger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{
		log:     log.WithField("sys", "sched"),
		byDev:   make(map[Device]*Exec),
		quantum: DefaultQuantum,
	}
}

func (s *Scheduler) SetLogger(log logrus.FieldLogger) {
	s.log = log.WithField("sys", "sched")
}

func (s *Scheduler) SetQuantum(q Time) {
	if q == Zero {
		q = DefaultQuantum
	}
	s.quantum = q
}

// Add registers a device, starting at the current time.
func (s *Scheduler) Add(d Device) (*Exec, error) {
	if d.ContextSize() == 0 {
		return nil, errors.Wrap(ErrZeroContext, d.Name())
	}
	if d.Clock() == 0 {
		return nil, errors.Errorf("%s: device has no clock", d.Name())
	}
	if _, ok := s.byDev[d]; ok {
		return nil, errors.Errorf("%s: device added twice", d.Name())
	}
	for _, e := range s.devices {
		if e.Name() == d.Name() {
			return nil, errors.Errorf("%s: duplicate device name", d.Name())
		}
	}
	e := &Exec{
		dev:      d,
		sched:    s,
		hz:       d.Clock(),
		local:    s.now,
		irqState: make(map[int]int),
	}
	if irq, ok := d.(Interruptible); ok {
		irq.SetIRQCallback(e.ack)
	}
	s.devices = append(s.devices, e)
	s.byDev[d] = e
	s.log.WithFields(logrus.Fields{"device": d.Name(), "clock": d.Clock()}).Debug("device added")
	return e, nil
}

// MustAdd is Add for construction code, where a bad device is fatal.
func (s *Scheduler) MustAdd(d Device) *Exec {
	e, err := s.Add(d)
	if err != nil {
		panic(err)
	}
	return e
}

func (s *Scheduler) Devices() []*Exec { return s.devices }

func (s *Scheduler) Find(name string) *Exec {
	for _, e := range s.devices {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

func (s *Scheduler) exec(d Device) (*Exec, error) {
	e, ok := s.byDev[d]
	if !ok {
		return nil, errors.Errorf("%s: device not scheduled", d.Name())
	}
	return e, nil
}

func (s *Scheduler) Now() Time      { return s.now }
func (s *Scheduler) Slices() uint64 { return s.slices }

// Executing is the device currently inside Execute, or nil.
func (s *Scheduler) Executing() *Exec { return s.executing }

// Reset resets every device. The clock keeps running.
func (s *Scheduler) Reset() error {
	for _, e := range s.devices {
		if err := e.dev.Reset(); err != nil {
			return errors.Wrap(err, e.Name())
		}
	}
	return nil
}

// AbortTimeslice ends the executing device's budget at its next
// instruction boundary. The rest of the slice stops at the point it
// reached, so other devices do not run past it.
func (s *Scheduler) AbortTimeslice() {
	e := s.executing
	if e == nil {
		return
	}
	s.abort = true
	if st, ok := e.dev.(Stopper); ok {
		st.Stop()
	}
}

// Timeslice runs one slice and returns the time it ended at.
func (s *Scheduler) Timeslice() Time {
	return s.timeslice(Never)
}

// TimesliceUntil runs one slice that ends no later than limit.
func (s *Scheduler) TimesliceUntil(limit Time) Time {
	return s.timeslice(limit)
}

// Idle reports that no device can run and no timer will wake one.
func (s *Scheduler) Idle() bool {
	if len(s.timers) > 0 {
		return false
	}
	for _, e := range s.devices {
		if e.Runnable() {
			return false
		}
	}
	return true
}

func (s *Scheduler) timeslice(limit Time) Time {
	target := s.now.Add(s.quantum)
	if next := s.timers.next(); next.Less(target) {
		target = next
	}
	if limit.Less(target) {
		target = limit
	}
	if target.Less(s.now) {
		target = s.now
	}

	order := make([]*Exec, len(s.devices))
	copy(order, s.devices)
	sort.SliceStable(order, func(i, j int) bool { return order[i].local.Less(order[j].local) })

	for _, e := range order {
		if !e.Runnable() || !e.local.Less(target) {
			continue
		}
		budget := target.Sub(e.local).Cycles(e.hz)
		if budget == 0 {
			continue
		}
		if budget > 1<<30 {
			budget = 1 << 30
		}
		s.executing, s.abort = e, false
		ran := e.dev.Execute(int(budget))
		s.executing = nil
		if ran < 0 {
			ran = 0
		}
		// a device that put itself to sleep eating cycles gives up the rest
		if !e.Runnable() && e.eatCycles && uint64(ran) < budget {
			ran = int(budget)
		}
		e.advance(uint64(ran))
		if s.abort {
			s.abort = false
			if e.local.Less(target) && s.now.Less(e.local) {
				target = e.local
			}
		}
	}
	for _, e := range s.devices {
		if !e.Runnable() {
			e.idle(target)
		}
	}
	s.now = target
	s.slices++
	s.fireTimers()

	for _, e := range s.devices {
		if e.suspend&SUSPEND_TIMESLICE != 0 {
			s.resume(e, SUSPEND_TIMESLICE)
		}
	}
	return s.now
}

func (s *Scheduler) fireTimers() {
	for len(s.timers) > 0 && !s.now.Less(s.timers[0].when) {
		t := heap.Pop(&s.timers).(*Timer)
		if t.period != Zero {
			t.when = t.when.Add(t.period)
			heap.Push(&s.timers, t)
		}
		t.cb()
	}
}

// RunFor advances emulated time by d.
func (s *Scheduler) RunFor(d Time) {
	s.RunUntil(s.now.Add(d))
}

func (s *Scheduler) RunUntil(end Time) {
	for s.now.Less(end) {
		s.timeslice(end)
	}
}

// TimerSet calls cb once, delay from now.
func (s *Scheduler) TimerSet(delay Time, cb func()) *Timer {
	return s.addTimer(delay, Zero, cb)
}

// TimerPulse calls cb every period, starting one period from now.
func (s *Scheduler) TimerPulse(period Time, cb func()) *Timer {
	if period == Zero {
		panic("sched: zero timer period")
	}
	return s.addTimer(period, period, cb)
}

func (s *Scheduler) addTimer(delay, period Time, cb func()) *Timer {
	s.seq++
	t := &Timer{s: s, when: s.now.Add(delay), period: period, seq: s.seq, cb: cb}
	heap.Push(&s.timers, t)
	// a timer that lands inside the running slice cuts it short
	if s.executing != nil && t.when.Less(s.executing.local.Add(s.quantum)) {
		s.AbortTimeslice()
	}
	return t
}

// Suspend adds reason to the device's suspend mask. eatCycles decides
// whether the time spent suspended is charged to the device. Suspending
// the executing device ends its slice.
func (s *Scheduler) Suspend(d Device, reason uint32, eatCycles bool) error {
	e, err := s.exec(d)
	if err != nil {
		return err
	}
	s.suspend(e, reason, eatCycles)
	return nil
}

func (s *Scheduler) suspend(e *Exec, reason uint32, eatCycles bool) {
	e.suspend |= reason
	e.eatCycles = eatCycles
	s.log.WithFields(logrus.Fields{"device": e.Name(), "reason": SuspendString(reason)}).Debug("suspend")
	if s.executing == e {
		s.AbortTimeslice()
	}
}

// Resume clears reason. The device runs again once its mask is empty.
func (s *Scheduler) Resume(d Device, reason uint32) error {
	e, err := s.exec(d)
	if err != nil {
		return err
	}
	s.resume(e, reason)
	return nil
}

func (s *Scheduler) resume(e *Exec, reason uint32) {
	if e.suspend&reason == 0 {
		return
	}
	e.suspend &^= reason
	s.log.WithFields(logrus.Fields{"device": e.Name(), "reason": SuspendString(reason)}).Debug("resume")
	// let the woken device catch up before the executing one runs ahead
	if e.Runnable() && s.executing != nil && s.executing != e {
		s.AbortTimeslice()
	}
}

// Spin suspends the device for the rest of the current slice.
func (s *Scheduler) Spin(d Device) error {
	return s.Suspend(d, SUSPEND_TIMESLICE, true)
}

// SpinUntilTrigger suspends the device until Trigger(id).
func (s *Scheduler) SpinUntilTrigger(d Device, id int) error {
	e, err := s.exec(d)
	if err != nil {
		return err
	}
	e.trigger = id
	s.suspend(e, SUSPEND_TRIGGER, true)
	return nil
}

// SpinUntilTime suspends the device for delay of emulated time.
func (s *Scheduler) SpinUntilTime(d Device, delay Time) error {
	e, err := s.exec(d)
	if err != nil {
		return err
	}
	s.suspend(e, SUSPEND_SPIN, true)
	s.TimerSet(delay, func() { s.resume(e, SUSPEND_SPIN) })
	return nil
}

// Trigger wakes every device waiting on id and returns how many woke.
func (s *Scheduler) Trigger(id int) int {
	woke := 0
	for _, e := range s.devices {
		if e.suspend&SUSPEND_TRIGGER != 0 && e.trigger == id {
			woke++
			s.resume(e, SUSPEND_TRIGGER)
		}
	}
	s.log.WithFields(logrus.Fields{"trigger": id, "woke": woke}).Debug("trigger")
	return woke
}

func (s *Scheduler) TriggerAfter(delay Time, id int) *Timer {
	return s.TimerSet(delay, func() { s.Trigger(id) })
}

// HoldReset keeps a device in reset while asserted. Releasing it resets
// the device and lets it run.
func (s *Scheduler) HoldReset(d Device, asserted bool) error {
	e, err := s.exec(d)
	if err != nil {
		return err
	}
	if asserted {
		s.suspend(e, SUSPEND_RESET, true)
		return nil
	}
	if err := d.Reset(); err != nil {
		return errors.Wrap(err, d.Name())
	}
	s.resume(e, SUSPEND_RESET)
	return nil
}

// Eat burns cycles from the executing device's budget.
func (s *Scheduler) Eat(cycles int) error {
	e := s.executing
	if e == nil {
		return errors.New("no device executing")
	}
	b, ok := e.dev.(Burner)
	if !ok {
		return errors.Errorf("%s: device cannot burn cycles", e.Name())
	}
	b.Burn(cycles)
	return nil
}

// SetIRQLine drives an interrupt line of d. HOLD_LINE stays asserted until
// the device acknowledges it.
func (s *Scheduler) SetIRQLine(d Device, line, state int) error {
	e, err := s.exec(d)
	if err != nil {
		return err
	}
	irq, ok := d.(Interruptible)
	if !ok {
		return errors.Errorf("%s: device has no interrupt lines", d.Name())
	}
	e.irqState[line] = state
	irq.SetIRQLine(line, state)
	if state != cpu.CLEAR_LINE && s.executing != nil && s.executing != e {
		s.AbortTimeslice()
	}
	return nil
}

// SetIRQCallback installs the acknowledge callback for d. The scheduler
// keeps its own hook in front of it for HOLD_LINE.
func (s *Scheduler) SetIRQCallback(d Device, cb cpu.IRQCallback) error {
	e, err := s.exec(d)
	if err != nil {
		return err
	}
	if _, ok := d.(Interruptible); !ok {
		return errors.Errorf("%s: device has no interrupt lines", d.Name())
	}
	e.irqAck = cb
	return nil
}
