package master

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"

	"github.com/mklimuk/i2cmaster/regs"
)

var (
	_ i2c.BusCloser = &PeriphBus{}
	_ i2c.Pins      = &PeriphBus{}
	_ drivers.I2C   = &PeriphBus{}
)

// PeriphBus exposes one engine bus as a periph.io bus so that periph and
// TinyGo device drivers run on top of the engine. A combined Tx is issued
// as a write transaction followed by a separate read transaction.
type PeriphBus struct {
	engine *Engine
	id     BusID
}

func (e *Engine) PeriphBus(id BusID) *PeriphBus {
	return &PeriphBus{engine: e, id: id}
}

func (p *PeriphBus) String() string {
	if h, ok := p.engine.buses.Lookup(p.id); ok {
		return h.String()
	}
	return fmt.Sprintf("I2C%d", p.id)
}

func (p *PeriphBus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return fmt.Errorf("%s: 10-bit address %#x not supported", p, addr)
	}
	if len(w) > 0 || len(r) == 0 {
		if err := p.engine.MasterWrite(p.id, uint8(addr), w).Err(); err != nil {
			return fmt.Errorf("%s: write to %#x failed: %w", p, addr, err)
		}
	}
	if len(r) > 0 {
		if err := p.engine.MasterRead(p.id, uint8(addr), r).Err(); err != nil {
			return fmt.Errorf("%s: read from %#x failed: %w", p, addr, err)
		}
	}
	return nil
}

// SetSpeed reprograms the bus clock when the peripheral supports timing
// configuration.
func (p *PeriphBus) SetSpeed(f physic.Frequency) error {
	h, ok := p.engine.buses.Lookup(p.id)
	if !ok {
		return fmt.Errorf("bus %d: %w", p.id, ErrInvalidBus)
	}
	c, ok := h.Surface.(regs.Configurable)
	if !ok {
		return fmt.Errorf("%s: speed is fixed", h)
	}
	t := h.Timing
	t.Speed = f
	if err := c.Configure(t); err != nil {
		return fmt.Errorf("%s: %w", h, err)
	}
	h.Timing = t
	return nil
}

func (p *PeriphBus) Close() error {
	return nil
}

func (p *PeriphBus) SCL() gpio.PinIO {
	if h, ok := p.engine.buses.Lookup(p.id); ok {
		return gpioreg.ByName(h.Pins.SCL)
	}
	return nil
}

func (p *PeriphBus) SDA() gpio.PinIO {
	if h, ok := p.engine.buses.Lookup(p.id); ok {
		return gpioreg.ByName(h.Pins.SDA)
	}
	return nil
}

func (p *PeriphBus) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return p.Tx(uint16(addr), []byte{r}, buf)
}

func (p *PeriphBus) WriteRegister(addr uint8, r uint8, buf []byte) error {
	return p.Tx(uint16(addr), append([]byte{r}, buf...), nil)
}

// PeriphName is the name under which RegisterPeriph publishes a bus.
func PeriphName(h *Handle) string {
	return "STM32-" + h.String()
}

// RegisterPeriph publishes every attached bus in the periph i2c registry.
func RegisterPeriph(e *Engine) error {
	for _, h := range e.buses.Handles() {
		id := h.ID
		opener := func() (i2c.BusCloser, error) {
			return e.PeriphBus(id), nil
		}
		if err := i2creg.Register(PeriphName(h), nil, -1, opener); err != nil {
			return fmt.Errorf("could not register %s: %w", h, err)
		}
	}
	return nil
}

// UnregisterPeriph removes the buses published by RegisterPeriph.
func UnregisterPeriph(e *Engine) error {
	for _, h := range e.buses.Handles() {
		if err := i2creg.Unregister(PeriphName(h)); err != nil {
			return fmt.Errorf("could not unregister %s: %w", h, err)
		}
	}
	return nil
}
