package sched

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/models/cpu"
)

// IRQLevel is a line the scheduler drives at something other than
// CLEAR_LINE.
type IRQLevel struct {
	Line, State int
}

// DeviceState is one device's share of a scheduler snapshot.
type DeviceState struct {
	Name        string
	Local       Time
	TotalCycles uint64
	Suspend     uint32
	EatCycles   bool
	Trigger     int
	// lines driven through SetIRQLine, so HOLD_LINE still drops on
	// acknowledge after a restore
	IRQ     []IRQLevel
	Context []byte
}

// State is a snapshot of the clock and every device. Timers hold Go
// callbacks and are not part of it; whoever created them re-arms them.
type State struct {
	Now     Time
	Devices []DeviceState
}

func (s *Scheduler) State() (*State, error) {
	st := &State{Now: s.now}
	for _, e := range s.devices {
		sv, ok := e.dev.(Saver)
		if !ok {
			return nil, errors.Errorf("%s: device cannot be saved", e.Name())
		}
		ctx, err := sv.PackContext()
		if err != nil {
			return nil, errors.Wrap(err, e.Name())
		}
		st.Devices = append(st.Devices, DeviceState{
			Name:        e.Name(),
			Local:       e.local,
			TotalCycles: e.totalCycles,
			Suspend:     e.suspend,
			EatCycles:   e.eatCycles,
			Trigger:     e.trigger,
			IRQ:         e.irqLevels(),
			Context:     ctx,
		})
	}
	return st, nil
}

// SetState restores a snapshot taken from a scheduler with the same
// devices.
func (s *Scheduler) SetState(st *State) error {
	if len(st.Devices) != len(s.devices) {
		return errors.Errorf("state has %d devices, scheduler has %d", len(st.Devices), len(s.devices))
	}
	for _, ds := range st.Devices {
		e := s.Find(ds.Name)
		if e == nil {
			return errors.Errorf("%s: no such device", ds.Name)
		}
		sv, ok := e.dev.(Saver)
		if !ok {
			return errors.Errorf("%s: device cannot be restored", e.Name())
		}
		if err := sv.UnpackContext(ds.Context); err != nil {
			return errors.Wrap(err, e.Name())
		}
		e.local = ds.Local
		e.totalCycles = ds.TotalCycles
		e.suspend = ds.Suspend
		e.eatCycles = ds.EatCycles
		e.trigger = ds.Trigger
		e.irqState = make(map[int]int)
		for _, l := range ds.IRQ {
			e.irqState[l.Line] = l.State
		}
	}
	s.now = st.Now
	return nil
}

func (e *Exec) irqLevels() []IRQLevel {
	var out []IRQLevel
	for line, state := range e.irqState {
		if state != cpu.CLEAR_LINE {
			out = append(out, IRQLevel{line, state})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}
