package regs

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
)

type DutyCycle int

const (
	// Duty2 is the fast-mode Tlow/Thigh = 2 ratio.
	Duty2 DutyCycle = iota
	// Duty16_9 is the fast-mode Tlow/Thigh = 16/9 ratio.
	Duty16_9
)

type Addressing int

const (
	Addressing7Bit Addressing = iota
	Addressing10Bit
)

const (
	StandardModeMax = 100 * physic.KiloHertz
	FastModeMax     = 400 * physic.KiloHertz
	MinPClk         = 2 * physic.MegaHertz
	MaxPClk         = 50 * physic.MegaHertz
)

var ErrInvalidTiming = errors.New("invalid i2c timing")

// Timing holds the one-time clock and addressing configuration.
type Timing struct {
	PClk       physic.Frequency
	Speed      physic.Frequency
	Duty       DutyCycle
	Addressing Addressing
	OwnAddress uint16
}

func (t Timing) Validate() error {
	if t.Speed <= 0 || t.Speed > FastModeMax {
		return fmt.Errorf("%w: speed %s out of range (max %s)", ErrInvalidTiming, t.Speed, FastModeMax)
	}
	if t.PClk < MinPClk || t.PClk > MaxPClk {
		return fmt.Errorf("%w: peripheral clock %s out of range", ErrInvalidTiming, t.PClk)
	}
	return nil
}

// Values computes the CR2, TRISE and CCR register contents.
func (t Timing) Values() (cr2, trise, ccr uint32, err error) {
	if err = t.Validate(); err != nil {
		return 0, 0, 0, err
	}
	pclk := uint32(t.PClk / physic.Hertz)
	speed := uint32(t.Speed / physic.Hertz)
	freq := pclk / 1000000
	cr2 = freq & CR2FreqMask
	if t.Speed <= StandardModeMax {
		trise = freq + 1
		ccr = (pclk / (speed * 2)) & CCRMask
		if ccr < 4 {
			ccr = 4
		}
		return cr2, trise, ccr, nil
	}
	trise = freq*300/1000 + 1
	switch t.Duty {
	case Duty16_9:
		ccr = (pclk / (speed * 25)) & CCRMask
		if ccr == 0 {
			ccr = 1
		}
		ccr |= CCRDuty
	default:
		ccr = (pclk / (speed * 3)) & CCRMask
		if ccr == 0 {
			ccr = 1
		}
	}
	return cr2, trise, ccr | CCRFS, nil
}

// Configure disables the peripheral, programs clock and addressing registers
// and enables it again.
func (p *Peripheral) Configure(t Timing) error {
	cr2, trise, ccr, err := t.Values()
	if err != nil {
		return err
	}
	p.r.CR1 &^= CR1PE
	p.r.CR2 = cr2
	p.r.TRISE = trise
	p.r.CCR = ccr
	// no general call, clock stretching enabled
	p.r.CR1 = 0
	oar1 := OAR1Reserved | uint32(t.OwnAddress)
	if t.Addressing == Addressing10Bit {
		oar1 |= OAR1AddMode
	}
	p.r.OAR1 = oar1
	p.r.OAR2 = 0
	p.r.CR1 |= CR1PE
	return nil
}
