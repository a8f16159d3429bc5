package master

import (
	"context"
	"fmt"

	"github.com/mklimuk/i2cmaster"
)

var _ i2cmaster.I2CBus = &Bus{}

// Bus exposes one engine bus through the context-aware bus interface used
// by device drivers.
type Bus struct {
	engine *Engine
	id     BusID
}

func (e *Engine) Bus(id BusID) *Bus {
	return &Bus{engine: e, id: id}
}

func (b *Bus) ID() BusID {
	return b.id
}

func checkAddress(address byte) error {
	if address > 0x7F {
		return fmt.Errorf("invalid 7-bit address %#x", address)
	}
	return nil
}

func (b *Bus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkAddress(address); err != nil {
		return err
	}
	if err := b.engine.MasterRead(b.id, address, buffer).Err(); err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *Bus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkAddress(address); err != nil {
		return err
	}
	if err := b.engine.MasterWrite(b.id, address, buffer).Err(); err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *Bus) Release(ctx context.Context) error {
	return b.engine.Release(b.id).Err()
}
