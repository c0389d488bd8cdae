package hc11

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// on-chip register offsets, relative to the register window
const (
	REG_PORTA  = 0x00
	REG_DDRA   = 0x01
	REG_PIOC   = 0x02
	REG_PORTC  = 0x03
	REG_PORTB  = 0x04
	REG_DDRC   = 0x07
	REG_PORTD  = 0x08
	REG_DDRD   = 0x09
	REG_PORTE  = 0x0a
	REG_TMSK1  = 0x22
	REG_TFLG1  = 0x23
	REG_TMSK2  = 0x24
	REG_PACTL  = 0x26
	REG_SPCR1  = 0x28
	REG_SCSR   = 0x2e
	REG_SCDR   = 0x2f
	REG_ADCTL  = 0x30
	REG_ADR1   = 0x31
	REG_ADR2   = 0x32
	REG_ADR3   = 0x33
	REG_ADR4   = 0x34
	REG_BPROT  = 0x35
	REG_OPT2   = 0x38
	REG_OPTION = 0x39
	REG_COPRST = 0x3a
	REG_HPRIO  = 0x3c
	REG_INIT   = 0x3d
	REG_CONFIG = 0x3f

	// extended I/O parts only
	REG_CSCTL  = 0x5d
	REG_CSGADR = 0x5e
	REG_CSGSIZ = 0x5f
	REG_SCBDH  = 0x70
	REG_SCBDL  = 0x71
	REG_SCC1   = 0x72
	REG_SCC2   = 0x73
	REG_SCSR1  = 0x74
	REG_PORTH  = 0x7c
	REG_DDRH   = 0x7d
	REG_PORTG  = 0x7e
	REG_DDRG   = 0x7f
	REG_SPCR2  = 0x88
	REG_SPSR2  = 0x89
	REG_SPDR2  = 0x8a
	REG_OPT4   = 0x8b
)

var regNames = map[int]string{
	REG_PORTA: "PORTA", REG_DDRA: "DDRA", REG_PIOC: "PIOC", REG_PORTC: "PORTC",
	REG_PORTB: "PORTB", REG_DDRC: "DDRC", REG_PORTD: "PORTD", REG_DDRD: "DDRD",
	REG_PORTE: "PORTE", REG_TMSK1: "TMSK1", REG_TFLG1: "TFLG1", REG_TMSK2: "TMSK2",
	REG_PACTL: "PACTL", REG_SPCR1: "SPCR1", REG_SCSR: "SCSR", REG_SCDR: "SCDR",
	REG_ADCTL: "ADCTL", REG_ADR1: "ADR1", REG_ADR2: "ADR2", REG_ADR3: "ADR3",
	REG_ADR4: "ADR4", REG_BPROT: "BPROT", REG_OPT2: "OPT2", REG_OPTION: "OPTION",
	REG_COPRST: "COPRST", REG_HPRIO: "HPRIO", REG_INIT: "INIT", REG_CONFIG: "CONFIG",
	REG_CSCTL: "CSCTL", REG_CSGADR: "CSGADR", REG_CSGSIZ: "CSGSIZ",
	REG_SCBDH: "SCBDH", REG_SCBDL: "SCBDL", REG_SCC1: "SCC1", REG_SCC2: "SCC2",
	REG_SCSR1: "SCSR1", REG_PORTH: "PORTH", REG_DDRH: "DDRH", REG_PORTG: "PORTG",
	REG_DDRG: "DDRG", REG_SPCR2: "SPCR2", REG_SPSR2: "SPSR2", REG_SPDR2: "SPDR2",
	REG_OPT4: "OPT4",
}

func RegName(off int) string {
	if name, ok := regNames[off]; ok {
		return name
	}
	return fmt.Sprintf("REG_%02X", off)
}

// registers that only hold what was last written
var latched = map[int]bool{
	REG_TMSK1: true, REG_TMSK2: true, REG_PACTL: true, REG_SPCR1: true,
	REG_SCSR: true, REG_SCDR: true, REG_BPROT: true, REG_OPT2: true,
	REG_OPTION: true, REG_HPRIO: true, REG_INIT: true, REG_CONFIG: true,
	REG_CSCTL: true, REG_CSGADR: true, REG_CSGSIZ: true,
	REG_SCBDH: true, REG_SCBDL: true, REG_SCC1: true, REG_SCC2: true,
	REG_SPCR2: true, REG_OPT4: true,
}

var portMap = map[int]int{
	REG_PORTA: IO_PORTA,
	REG_PORTB: IO_PORTB,
	REG_PORTC: IO_PORTC,
	REG_PORTD: IO_PORTD,
	REG_PORTE: IO_PORTE,
	REG_PORTG: IO_PORTG,
	REG_PORTH: IO_PORTH,
	REG_SPDR2: IO_SPI2_DATA,
}

func (c *HC11) regLog(off int) logrus.FieldLogger {
	return c.log.WithFields(logrus.Fields{
		"reg": RegName(off),
		"pc":  fmt.Sprintf("%04x", c.ppc),
	})
}

// selectChannel picks the analog input for ADR1..ADR4. With MULT set the four
// result registers map to four consecutive channels.
func (c *HC11) selectChannel(off int) int {
	if c.adctl&0x10 != 0 {
		return int(c.adctl&0x4) + (off - REG_ADR1) + IO_AD0
	}
	return int(c.adctl&0x7) + IO_AD0
}

func (c *HC11) regRead(off int) uint8 {
	if port, ok := portMap[off]; ok {
		return c.io.Read(port)
	}
	switch off {
	case REG_DDRA, REG_PIOC, REG_DDRC, REG_DDRD, REG_DDRH, REG_DDRG:
		return 0
	case REG_TFLG1:
		return c.tflg1
	case REG_ADCTL:
		// conversion always complete
		return 0x80
	case REG_ADR1, REG_ADR2, REG_ADR3, REG_ADR4:
		c.adChannel = c.selectChannel(off)
		return c.io.Read(c.adChannel)
	case REG_SCSR1:
		// transmit complete
		return 0x40
	case REG_SPSR2:
		// transfer complete
		return 0x80
	}
	if latched[off] {
		return c.latch[off]
	}
	c.regLog(off).Debug("unmapped register read")
	return 0
}

func (c *HC11) regWrite(off int, val uint8) {
	c.latch[off] = val
	if port, ok := portMap[off]; ok {
		c.io.Write(port, val)
		return
	}
	switch off {
	case REG_DDRA, REG_DDRC, REG_DDRD, REG_DDRH, REG_DDRG:
		c.regLog(off).WithField("val", val).Debug("data direction write ignored")
	case REG_TFLG1:
		c.tflg1 = val
	case REG_ADCTL:
		c.adctl = val
	case REG_INIT:
		c.relocate(val)
	case REG_COPRST:
		// watchdog is not modeled
	default:
		if !latched[off] {
			c.regLog(off).WithField("val", val).Debug("unmapped register write")
		}
	}
}

// relocate moves the windows per INIT: the low nibble is the register page,
// the high nibble the RAM page. Equal pages put RAM right after the registers.
func (c *HC11) relocate(val uint8) {
	regPage := int(val & 0xf)
	ramPage := int(val >> 4)
	if regPage == ramPage {
		c.regPosition = regPage << 12
		c.ramPosition = c.regPosition + 0x100
	} else {
		c.regPosition = regPage << 12
		c.ramPosition = ramPage << 12
	}
	c.log.WithFields(logrus.Fields{
		"reg": fmt.Sprintf("%04x", c.regPosition),
		"ram": fmt.Sprintf("%04x", c.ramPosition),
	}).Debug("windows relocated")
}
