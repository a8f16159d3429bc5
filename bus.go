package i2cmaster

import (
	"context"
)

type BusReader interface {
	Read(ctx context.Context, buffer []byte) error
}

type BusWriter interface {
	Write(ctx context.Context, buffer []byte) error
}

// AddressableReader reads len(buffer) bytes from the 7-bit (unshifted) address.
type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

// AddressableWriter writes buffer to the 7-bit (unshifted) address.
// Release leaves the bus in STOP/idle state after a failed transaction.
type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is the caller-facing surface of a master bus. Implementations do not
// serialize callers: one transaction must complete before the next one starts
// on the same bus.
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

type I2CDevice interface {
	BusReader
	BusWriter
}
