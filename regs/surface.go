// Package regs is the peripheral control surface of an I2C master: named
// status flags and commands, and their bit-level encoding for the STM32F4
// family register block.
package regs

import "fmt"

// Flag is a hardware status condition observed by the transaction engine.
type Flag uint8

const (
	FlagBusy Flag = iota
	FlagStartSent
	FlagAddrSent
	FlagAckFailure
	FlagByteTransferFinished
	FlagTxEmpty
	FlagRxNotEmpty
)

func (f Flag) String() string {
	switch f {
	case FlagBusy:
		return "BUSY"
	case FlagStartSent:
		return "SB"
	case FlagAddrSent:
		return "ADDR"
	case FlagAckFailure:
		return "AF"
	case FlagByteTransferFinished:
		return "BTF"
	case FlagTxEmpty:
		return "TXE"
	case FlagRxNotEmpty:
		return "RXNE"
	default:
		return fmt.Sprintf("flag(%d)", uint8(f))
	}
}

// Flags lists every observable flag, in declaration order.
var Flags = []Flag{
	FlagBusy,
	FlagStartSent,
	FlagAddrSent,
	FlagAckFailure,
	FlagByteTransferFinished,
	FlagTxEmpty,
	FlagRxNotEmpty,
}

// Command is a control action issued by the transaction engine.
type Command uint8

const (
	CmdStart Command = iota
	CmdStop
	CmdAckEnable
	CmdAckDisable
	// CmdPosEnable selects the dual-byte latch mode: the ACK setting applies
	// to the next byte received instead of the current one.
	CmdPosEnable
	CmdPosDisable
	CmdClearAddr
	CmdClearAckFailure
)

func (c Command) String() string {
	switch c {
	case CmdStart:
		return "START"
	case CmdStop:
		return "STOP"
	case CmdAckEnable:
		return "ACK+"
	case CmdAckDisable:
		return "ACK-"
	case CmdPosEnable:
		return "POS+"
	case CmdPosDisable:
		return "POS-"
	case CmdClearAddr:
		return "CLR_ADDR"
	case CmdClearAckFailure:
		return "CLR_AF"
	default:
		return fmt.Sprintf("command(%d)", uint8(c))
	}
}

// Surface is the register-level capability the engine drives. Every Flag call
// must re-read hardware state; implementations never cache flags.
type Surface interface {
	Flag(f Flag) bool
	Do(c Command)
	WriteData(b byte)
	ReadData() byte
}

// Configurable surfaces accept the one-time clock/addressing setup.
type Configurable interface {
	Configure(t Timing) error
}

// Resetter surfaces can be put through a software reset.
type Resetter interface {
	Reset()
}
