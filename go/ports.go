package hc11corn

import (
	"github.com/sirupsen/logrus"

	core "github.com/lunixbochs/hc11corn/go/cpu/hc11"
)

// Ports every core gets:
//
//	PORTA read   index of the core, so cores sharing a ROM can tell
//	             themselves apart
//	PORTB write  one byte to the console
//	PORTG write  suspend until a trigger with that id
//	PORTH write  fire trigger id, waking every core waiting on it
//
// PORTG and PORTH are only decoded on extended I/O parts.
func (m *Machine) wirePorts(c *coreState) {
	io := c.IO()
	log := m.log.WithField("cpu", c.Name())
	io.Install(core.IO_PORTA, func(int) uint8 {
		return uint8(c.index)
	}, nil)
	io.Install(core.IO_PORTB, nil, func(_ int, val uint8) {
		m.console.Write([]byte{val})
	})
	io.Install(core.IO_PORTG, nil, func(_ int, val uint8) {
		log.WithField("trigger", val).Debug("waiting")
		if err := m.sched.SpinUntilTrigger(c.HC11, int(val)); err != nil {
			log.WithError(err).Error("wait failed")
		}
	})
	io.Install(core.IO_PORTH, nil, func(_ int, val uint8) {
		woke := m.sched.Trigger(int(val))
		log.WithFields(logrus.Fields{"trigger": val, "woke": woke}).Debug("signal")
	})
}
