package master

import (
	"github.com/mklimuk/i2cmaster"
	"github.com/mklimuk/i2cmaster/regs"
)

// prepare waits for the bus to be free and puts the peripheral in single
// byte acknowledge mode.
func (e *Engine) prepare(h *Handle) i2cmaster.Status {
	if st := e.waitIdle(h); st != i2cmaster.StatusOK {
		return st
	}
	h.Surface.Do(regs.CmdPosDisable)
	return i2cmaster.StatusOK
}

// address issues START followed by the address byte and waits for the
// address phase to end. ADDR is left set.
func (e *Engine) address(h *Handle, b byte) i2cmaster.Status {
	s := h.Surface
	s.Do(regs.CmdStart)
	if st := e.waitStart(h); st != i2cmaster.StatusOK {
		s.Do(regs.CmdStop)
		return st
	}
	s.WriteData(b)
	st := e.waitAddr(h)
	if st.IsTimeout() {
		s.Do(regs.CmdStop)
	}
	return st
}

func (e *Engine) openWrite(h *Handle, addr uint8) i2cmaster.Status {
	if st := e.prepare(h); st != i2cmaster.StatusOK {
		return st
	}
	if st := e.address(h, addr<<1); st != i2cmaster.StatusOK {
		return st
	}
	h.Surface.Do(regs.CmdClearAddr)
	return i2cmaster.StatusOK
}

// openRead addresses the device for reading and arms the acknowledge
// logic for n bytes. The order of the commands around ADDR clearing
// decides which byte gets the NACK.
func (e *Engine) openRead(h *Handle, addr uint8, n int) i2cmaster.Status {
	if st := e.prepare(h); st != i2cmaster.StatusOK {
		return st
	}
	s := h.Surface
	s.Do(regs.CmdAckEnable)
	if st := e.address(h, addr<<1|1); st != i2cmaster.StatusOK {
		return st
	}
	switch n {
	case 0:
		s.Do(regs.CmdClearAddr)
		s.Do(regs.CmdStop)
	case 1:
		s.Do(regs.CmdAckDisable)
		s.Do(regs.CmdClearAddr)
		s.Do(regs.CmdStop)
	case 2:
		s.Do(regs.CmdAckDisable)
		s.Do(regs.CmdPosEnable)
		s.Do(regs.CmdClearAddr)
	default:
		s.Do(regs.CmdAckEnable)
		s.Do(regs.CmdClearAddr)
	}
	return i2cmaster.StatusOK
}
