package regs

import (
	"fmt"

	"periph.io/x/host/v3/pmem"
)

// Map maps the register block at the physical base address. It requires
// access to /dev/mem.
func Map(base uint64) (*Peripheral, error) {
	var r *Registers
	if err := pmem.MapAsPOD(base, &r); err != nil {
		return nil, fmt.Errorf("could not map i2c registers at %#x: %w", base, err)
	}
	return NewPeripheral(r), nil
}
