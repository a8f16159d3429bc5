package master

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/mklimuk/i2cmaster/regs"
)

var ErrPinNotFound = errors.New("pin not found")

// Platform brings the pins, clock and interrupt lines of a bus up and down.
// It runs outside any transaction.
type Platform interface {
	Setup(h *Handle) error
	Teardown(h *Handle) error
}

// Setup prepares the platform resources of h and programs the peripheral
// timing when the surface supports it.
func Setup(p Platform, h *Handle) error {
	if err := p.Setup(h); err != nil {
		return fmt.Errorf("could not set up %s: %w", h, err)
	}
	if c, ok := h.Surface.(regs.Configurable); ok {
		if err := c.Configure(h.Timing); err != nil {
			return fmt.Errorf("could not configure %s: %w", h, err)
		}
	}
	return nil
}

// Teardown resets the peripheral and releases the platform resources of h.
func Teardown(p Platform, h *Handle) error {
	if r, ok := h.Surface.(regs.Resetter); ok {
		r.Reset()
	}
	if err := p.Teardown(h); err != nil {
		return fmt.Errorf("could not tear down %s: %w", h, err)
	}
	return nil
}

// ClockGate enables the peripheral clock of a bus and takes it out of
// reset.
type ClockGate interface {
	Enable(id BusID) error
	Disable(id BusID) error
}

// GPIOPlatform claims the bus lines through the periph GPIO registry.
type GPIOPlatform struct {
	clocks ClockGate
	pin    func(name string) gpio.PinIO
}

// NewGPIOPlatform creates a platform; clocks may be nil when the clock tree
// is managed elsewhere.
func NewGPIOPlatform(clocks ClockGate) *GPIOPlatform {
	return &GPIOPlatform{
		clocks: clocks,
		pin:    gpioreg.ByName,
	}
}

func (p *GPIOPlatform) lines(h *Handle) (scl, sda gpio.PinIO, err error) {
	scl = p.pin(h.Pins.SCL)
	if scl == nil {
		return nil, nil, fmt.Errorf("%w: scl %q", ErrPinNotFound, h.Pins.SCL)
	}
	sda = p.pin(h.Pins.SDA)
	if sda == nil {
		return nil, nil, fmt.Errorf("%w: sda %q", ErrPinNotFound, h.Pins.SDA)
	}
	return scl, sda, nil
}

func (p *GPIOPlatform) Setup(h *Handle) error {
	scl, sda, err := p.lines(h)
	if err != nil {
		return err
	}
	if err := scl.In(h.Pins.SCLPull, gpio.NoEdge); err != nil {
		return fmt.Errorf("could not configure scl: %w", err)
	}
	if err := sda.In(h.Pins.SDAPull, gpio.NoEdge); err != nil {
		return fmt.Errorf("could not configure sda: %w", err)
	}
	if p.clocks != nil {
		if err := p.clocks.Enable(h.ID); err != nil {
			return fmt.Errorf("could not enable clock: %w", err)
		}
	}
	return nil
}

func (p *GPIOPlatform) Teardown(h *Handle) error {
	if p.clocks != nil {
		if err := p.clocks.Disable(h.ID); err != nil {
			return fmt.Errorf("could not disable clock: %w", err)
		}
	}
	scl, sda, err := p.lines(h)
	if err != nil {
		return err
	}
	return errors.Join(scl.Halt(), sda.Halt())
}
