package master

import (
	"github.com/mklimuk/i2cmaster"
	"github.com/mklimuk/i2cmaster/regs"
)

// waitFlag polls f while its observed state equals state. Callers pass the
// state they wait to leave: false to wait for a flag to set, true to wait
// for it to clear. Faults are checked before the retry budget so they are
// reported even on the first poll.
func (e *Engine) waitFlag(h *Handle, f regs.Flag, state bool) i2cmaster.Status {
	s := h.Surface
	y := e.yielder(h)
	for count := 0; s.Flag(f) == state; count++ {
		if st := classifyFault(s, f); st != i2cmaster.StatusOK {
			return st
		}
		if count >= e.config.RetryBudget {
			return i2cmaster.StatusTimeout
		}
		y.Yield()
	}
	return i2cmaster.StatusOK
}

// classifyFault inspects the acknowledge failure condition for transfer and
// address waits. An address rejection releases the bus with STOP.
func classifyFault(s regs.Surface, f regs.Flag) i2cmaster.Status {
	switch f {
	case regs.FlagByteTransferFinished, regs.FlagTxEmpty:
		if s.Flag(regs.FlagAckFailure) {
			s.Do(regs.CmdClearAckFailure)
			return i2cmaster.StatusNack
		}
	case regs.FlagAddrSent:
		if s.Flag(regs.FlagAckFailure) {
			s.Do(regs.CmdStop)
			s.Do(regs.CmdClearAckFailure)
			return i2cmaster.StatusAckFailure
		}
	}
	return i2cmaster.StatusOK
}

func specialize(st, timeout i2cmaster.Status) i2cmaster.Status {
	if st == i2cmaster.StatusTimeout {
		return timeout
	}
	return st
}

func (e *Engine) waitIdle(h *Handle) i2cmaster.Status {
	return e.waitFlag(h, regs.FlagBusy, true)
}

func (e *Engine) waitStart(h *Handle) i2cmaster.Status {
	return e.waitFlag(h, regs.FlagStartSent, false)
}

func (e *Engine) waitAddr(h *Handle) i2cmaster.Status {
	return specialize(e.waitFlag(h, regs.FlagAddrSent, false), i2cmaster.StatusAddrTimeout)
}

func (e *Engine) waitBTF(h *Handle) i2cmaster.Status {
	return specialize(e.waitFlag(h, regs.FlagByteTransferFinished, false), i2cmaster.StatusBtfTimeout)
}

func (e *Engine) waitTXE(h *Handle) i2cmaster.Status {
	return specialize(e.waitFlag(h, regs.FlagTxEmpty, false), i2cmaster.StatusTxeTimeout)
}

func (e *Engine) waitRXNE(h *Handle) i2cmaster.Status {
	return e.waitFlag(h, regs.FlagRxNotEmpty, false)
}
