package regs

// Registers mirrors the STM32F4 I2C register block layout.
type Registers struct {
	CR1   uint32
	CR2   uint32
	OAR1  uint32
	OAR2  uint32
	DR    uint32
	SR1   uint32
	SR2   uint32
	CCR   uint32
	TRISE uint32
	FLTR  uint32
}

// CR1 bits
const (
	CR1PE    uint32 = 1 << 0
	CR1START uint32 = 1 << 8
	CR1STOP  uint32 = 1 << 9
	CR1ACK   uint32 = 1 << 10
	CR1POS   uint32 = 1 << 11
	CR1SWRST uint32 = 1 << 15
)

// SR1 bits
const (
	SR1SB   uint32 = 1 << 0
	SR1ADDR uint32 = 1 << 1
	SR1BTF  uint32 = 1 << 2
	SR1RXNE uint32 = 1 << 6
	SR1TXE  uint32 = 1 << 7
	SR1AF   uint32 = 1 << 10
)

// SR2 bits
const (
	SR2BUSY uint32 = 1 << 1
)

const (
	CR2FreqMask  uint32 = 0x3F
	CCRMask      uint32 = 0xFFF
	CCRFS        uint32 = 1 << 15
	CCRDuty      uint32 = 1 << 14
	OAR1Reserved uint32 = 1 << 14
	OAR1AddMode  uint32 = 1 << 15
)

var flagBits = map[Flag]uint32{
	FlagStartSent:            SR1SB,
	FlagAddrSent:             SR1ADDR,
	FlagAckFailure:           SR1AF,
	FlagByteTransferFinished: SR1BTF,
	FlagTxEmpty:              SR1TXE,
	FlagRxNotEmpty:           SR1RXNE,
}

var _ Surface = &Peripheral{}
var _ Configurable = &Peripheral{}
var _ Resetter = &Peripheral{}

// Peripheral drives a Registers block, usually one mapped with Map.
type Peripheral struct {
	r *Registers
	// sink keeps status register reads that only exist for their side effect
	sr uint32
}

func NewPeripheral(r *Registers) *Peripheral {
	return &Peripheral{r: r}
}

func (p *Peripheral) Registers() *Registers {
	return p.r
}

func (p *Peripheral) Flag(f Flag) bool {
	if f == FlagBusy {
		return p.r.SR2&SR2BUSY != 0
	}
	return p.r.SR1&flagBits[f] != 0
}

func (p *Peripheral) Do(c Command) {
	switch c {
	case CmdStart:
		p.r.CR1 |= CR1START
	case CmdStop:
		p.r.CR1 |= CR1STOP
	case CmdAckEnable:
		p.r.CR1 |= CR1ACK
	case CmdAckDisable:
		p.r.CR1 &^= CR1ACK
	case CmdPosEnable:
		p.r.CR1 |= CR1POS
	case CmdPosDisable:
		p.r.CR1 &^= CR1POS
	case CmdClearAddr:
		// ADDR clears on an SR1 read followed by an SR2 read
		sr1 := p.r.SR1
		p.sr = sr1<<16 | p.r.SR2
	case CmdClearAckFailure:
		// SR1 error bits are rc_w0: writing 1 leaves them untouched
		p.r.SR1 = ^SR1AF & 0xFFFF
	}
}

func (p *Peripheral) WriteData(b byte) {
	p.r.DR = uint32(b)
}

func (p *Peripheral) ReadData() byte {
	return byte(p.r.DR)
}

// Reset pulses the software reset bit.
func (p *Peripheral) Reset() {
	p.r.CR1 |= CR1SWRST
	p.r.CR1 &^= CR1SWRST
}
