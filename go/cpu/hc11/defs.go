package hc11

// register enums for RegRead/RegWrite
const (
	PC = iota
	SP
	A
	B
	D
	IX
	IY
	CCR
	PPC
)

// CCR bit names, highest first
const CCR_NAMES = "SXHINZVC"

// condition code bits
const (
	CC_C = 0x01
	CC_V = 0x02
	CC_Z = 0x04
	CC_N = 0x08
	CC_I = 0x10
	CC_H = 0x20
	CC_X = 0x40
	CC_S = 0x80
)

// interrupt lines
const (
	IRQ_LINE  = 0
	XIRQ_LINE = 1
)

// interrupt numbers passed to HOOK_INTR, after the two lines
const (
	INTR_SWI = 2
)

// interrupt vectors, from the MC68HC11 reference manual.
// Only IRQ, XIRQ, SWI and RESET are raised by this core.
const (
	VEC_SCI     = 0xffd6
	VEC_SPI     = 0xffd8
	VEC_PAI     = 0xffda
	VEC_PAOV    = 0xffdc
	VEC_TOF     = 0xffde
	VEC_TI4O5   = 0xffe0
	VEC_TOC4    = 0xffe2
	VEC_TOC3    = 0xffe4
	VEC_TOC2    = 0xffe6
	VEC_TOC1    = 0xffe8
	VEC_TIC3    = 0xffea
	VEC_TIC2    = 0xffec
	VEC_TIC1    = 0xffee
	VEC_RTI     = 0xfff0
	VEC_IRQ     = 0xfff2
	VEC_XIRQ    = 0xfff4
	VEC_SWI     = 0xfff6
	VEC_ILLEGAL = 0xfff8
	VEC_COP     = 0xfffa
	VEC_CLKMON  = 0xfffc
	VEC_RESET   = 0xfffe
)

// I/O space port numbers. Reads and writes of the on-chip ports are
// forwarded to these.
const (
	IO_PORTA = 0x00
	IO_PORTB = 0x01
	IO_PORTC = 0x02
	IO_PORTD = 0x03
	IO_PORTE = 0x04
	IO_PORTF = 0x05
	IO_PORTG = 0x06
	IO_PORTH = 0x07

	IO_SPI1_DATA = 0x08
	IO_SPI2_DATA = 0x09

	IO_AD0 = 0x10
	IO_AD1 = 0x11
	IO_AD2 = 0x12
	IO_AD3 = 0x13
	IO_AD4 = 0x14
	IO_AD5 = 0x15
	IO_AD6 = 0x16
	IO_AD7 = 0x17
)

// opcode pages, indexed by optables
const (
	PAGE_0 = iota
	PAGE_18
	PAGE_1A
	PAGE_CD
)

var prebytes = [4]uint8{0x00, 0x18, 0x1a, 0xcd}

// addressing modes
const (
	MODE_INH = iota
	MODE_IMM8
	MODE_IMM16
	MODE_DIR
	MODE_EXT
	MODE_INDX
	MODE_INDY
	MODE_REL

	// BSET/BCLR: address, mask
	MODE_BIT_DIR
	MODE_BIT_INDX
	MODE_BIT_INDY

	// BRSET/BRCLR: address, mask, displacement
	MODE_BRA_DIR
	MODE_BRA_INDX
	MODE_BRA_INDY
)

// operand bytes following the opcode
var modeSize = [...]int{
	MODE_INH:   0,
	MODE_IMM8:  1,
	MODE_IMM16: 2,
	MODE_DIR:   1,
	MODE_EXT:   2,
	MODE_INDX:  1,
	MODE_INDY:  1,
	MODE_REL:   1,

	MODE_BIT_DIR:  2,
	MODE_BIT_INDX: 2,
	MODE_BIT_INDY: 2,

	MODE_BRA_DIR:  3,
	MODE_BRA_INDX: 3,
	MODE_BRA_INDY: 3,
}
