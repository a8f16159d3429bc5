// Package master drives I2C master transactions on a register-level
// peripheral by polling its status flags.
package master

import (
	"log/slog"

	"github.com/mklimuk/i2cmaster"
	"github.com/mklimuk/i2cmaster/regs"
)

// DefaultRetryBudget is the number of polls a flag wait tolerates before
// reporting a timeout.
const DefaultRetryBudget = 100

type EngineOpts struct {
	RetryBudget int
	Yielder     Yielder
	Logger      *slog.Logger
}

type EngineOpt func(*EngineOpts)

func WithRetryBudget(budget int) EngineOpt {
	return func(o *EngineOpts) {
		o.RetryBudget = budget
	}
}

func WithYielder(y Yielder) EngineOpt {
	return func(o *EngineOpts) {
		o.Yielder = y
	}
}

func WithLogger(l *slog.Logger) EngineOpt {
	return func(o *EngineOpts) {
		o.Logger = l
	}
}

// Engine runs blocking write and read transactions on the buses of a
// registry. It keeps no per-transaction state: everything lives on the
// caller's stack or in the peripheral. Concurrent calls on distinct buses
// are safe; calls on the same bus must be serialized by the caller.
type Engine struct {
	buses  *Registry
	config EngineOpts
	log    *slog.Logger
}

func New(buses *Registry, opts ...EngineOpt) *Engine {
	config := EngineOpts{
		RetryBudget: DefaultRetryBudget,
		Yielder:     Sleep(DefaultYieldQuantum),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Engine{
		buses:  buses,
		config: config,
		log:    config.Logger.With("component", "i2c-master"),
	}
}

func (e *Engine) Registry() *Registry {
	return e.buses
}

func (e *Engine) yielder(h *Handle) Yielder {
	if h.Yielder != nil {
		return h.Yielder
	}
	return e.config.Yielder
}

// MasterWrite transmits buf to the device at the 7-bit address addr. An
// empty buf addresses the device and stops, which is how presence is
// probed.
func (e *Engine) MasterWrite(id BusID, addr uint8, buf []byte) i2cmaster.Status {
	h, ok := e.buses.Lookup(id)
	if !ok {
		return e.report("write", id, addr, len(buf), i2cmaster.StatusNullHandle)
	}
	if st := e.openWrite(h, addr); st != i2cmaster.StatusOK {
		return e.report("write", id, addr, len(buf), st)
	}
	return e.report("write", id, addr, len(buf), e.transmit(h, buf))
}

// MasterRead fills buf from the device at the 7-bit address addr. The last
// byte is not acknowledged, as the protocol requires.
func (e *Engine) MasterRead(id BusID, addr uint8, buf []byte) i2cmaster.Status {
	h, ok := e.buses.Lookup(id)
	if !ok {
		return e.report("read", id, addr, len(buf), i2cmaster.StatusNullHandle)
	}
	if st := e.openRead(h, addr, len(buf)); st != i2cmaster.StatusOK {
		return e.report("read", id, addr, len(buf), st)
	}
	return e.report("read", id, addr, len(buf), e.receive(h, buf))
}

// Probe reports whether a device acknowledges addr with a zero-length
// write.
func (e *Engine) Probe(id BusID, addr uint8) i2cmaster.Status {
	return e.MasterWrite(id, addr, nil)
}

// Release generates a STOP condition. Reads that time out in the single
// byte or long tiers leave the bus held; Release hands it back.
func (e *Engine) Release(id BusID) i2cmaster.Status {
	h, ok := e.buses.Lookup(id)
	if !ok {
		return i2cmaster.StatusNullHandle
	}
	h.Surface.Do(regs.CmdStop)
	e.log.Debug("bus released", "bus", h.String())
	return i2cmaster.StatusOK
}

func (e *Engine) report(op string, id BusID, addr uint8, n int, st i2cmaster.Status) i2cmaster.Status {
	switch st {
	case i2cmaster.StatusOK:
		e.log.Debug("transaction done", "op", op, "bus", id, "addr", addr, "len", n)
	case i2cmaster.StatusNack, i2cmaster.StatusAckFailure:
		e.log.Debug("transaction rejected", "op", op, "bus", id, "addr", addr, "len", n, "status", st)
	default:
		e.log.Warn("transaction failed", "op", op, "bus", id, "addr", addr, "len", n, "status", st)
	}
	return st
}
