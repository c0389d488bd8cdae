package hc11corn

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/hc11corn/go/sched"
)

// Mailbox registers, relative to Options.Mailbox:
//
//	+0 DATA    last byte written. A write sets FULL, or OVERRUN if FULL
//	           was already set, and fires MailboxTrigger.
//	+1 STATUS  MAILBOX_FULL, MAILBOX_OVERRUN. Writing a 1 clears the bit.
//	+2 TIME    emulated microseconds, 16 bits big endian, read only
//
// Reads have no side effects, so the debugger can dump the mailbox freely.
const (
	MAILBOX_SIZE = 4

	MAILBOX_FULL    = 0x80
	MAILBOX_OVERRUN = 0x40

	// a core writing this to PORTG sleeps until the next mail
	MailboxTrigger = 0xf0
)

// mailbox is one latch on the shared bus, seen by every core.
type mailbox struct {
	base   uint64
	sched  *sched.Scheduler
	data   uint8
	status uint8
}

func (b *mailbox) Read8(addr uint64) uint8 {
	switch addr - b.base {
	case 0:
		return b.data
	case 1:
		return b.status
	}
	now := b.sched.Now()
	us := uint16(uint64(now.Sec)*1e6 + now.Atto/1e12)
	if addr-b.base == 2 {
		return uint8(us >> 8)
	}
	return uint8(us)
}

func (b *mailbox) Write8(addr uint64, val uint8) {
	switch addr - b.base {
	case 0:
		if b.status&MAILBOX_FULL != 0 {
			b.status |= MAILBOX_OVERRUN
		}
		b.data = val
		b.status |= MAILBOX_FULL
		b.sched.Trigger(MailboxTrigger)
	case 1:
		b.status &^= val & (MAILBOX_FULL | MAILBOX_OVERRUN)
	}
}

func (b *mailbox) PackState() []byte {
	return []byte{b.data, b.status}
}

func (b *mailbox) UnpackState(p []byte) error {
	if len(p) != 2 {
		return errors.Errorf("mailbox state is %d bytes, want 2", len(p))
	}
	b.data, b.status = p[0], p[1]
	return nil
}
