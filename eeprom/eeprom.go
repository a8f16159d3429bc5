// Package eeprom drives 24xx-series I2C EEPROMs.
//
// Writes are split on page boundaries. After each page the device runs an
// internal write cycle during which it does not acknowledge its address;
// the driver polls with empty writes until it answers again.
//
// Example usage:
//
//	mem := eeprom.New(bus, eeprom.WithModel(eeprom.Model24C16))
//	err := mem.WriteAt(ctx, 0x0100, []byte("hello"))
//	buf := make([]byte, 5)
//	err = mem.ReadAt(ctx, 0x0100, buf)
package eeprom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mklimuk/i2cmaster"
)

const DefaultAddress = 0x50

var (
	ErrOutOfRange = errors.New("eeprom: access out of range")
	ErrNotReady   = errors.New("eeprom: device did not finish its write cycle")
)

// Model is a known device geometry.
type Model struct {
	Size         int
	PageSize     int
	AddressBytes int
}

var (
	Model24C02  = Model{Size: 256, PageSize: 8, AddressBytes: 1}
	Model24C16  = Model{Size: 2048, PageSize: 16, AddressBytes: 1}
	Model24C256 = Model{Size: 32768, PageSize: 64, AddressBytes: 2}
)

type Opts struct {
	Address      byte
	Size         int
	PageSize     int
	AddressBytes int
	WriteCycle   time.Duration
	PollAttempts int
	Logger       *slog.Logger
}

type Opt func(*Opts)

func WithAddress(address byte) Opt {
	return func(o *Opts) {
		o.Address = address
	}
}

func WithModel(m Model) Opt {
	return func(o *Opts) {
		o.Size = m.Size
		o.PageSize = m.PageSize
		o.AddressBytes = m.AddressBytes
	}
}

func WithSize(size int) Opt {
	return func(o *Opts) {
		o.Size = size
	}
}

func WithPageSize(size int) Opt {
	return func(o *Opts) {
		o.PageSize = size
	}
}

// WithAddressBytes sets the word address width. One byte parts larger than
// 256 bytes take the high address bits from the device address.
func WithAddressBytes(n int) Opt {
	return func(o *Opts) {
		o.AddressBytes = n
	}
}

// WithWriteCycle sets the longest internal write cycle of the part. The
// readiness polls are spread over it.
func WithWriteCycle(d time.Duration) Opt {
	return func(o *Opts) {
		o.WriteCycle = d
	}
}

func WithPollAttempts(n int) Opt {
	return func(o *Opts) {
		o.PollAttempts = n
	}
}

func WithLogger(l *slog.Logger) Opt {
	return func(o *Opts) {
		o.Logger = l
	}
}

type EEPROM struct {
	mx     sync.Mutex
	bus    i2cmaster.I2CBus
	config Opts
	log    *slog.Logger
}

func New(bus i2cmaster.I2CBus, opts ...Opt) *EEPROM {
	config := Opts{
		Address:      DefaultAddress,
		Size:         Model24C02.Size,
		PageSize:     Model24C02.PageSize,
		AddressBytes: Model24C02.AddressBytes,
		WriteCycle:   5 * time.Millisecond,
		PollAttempts: 10,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.PageSize <= 0 {
		config.PageSize = 1
	}
	if config.PollAttempts <= 0 {
		config.PollAttempts = 1
	}
	return &EEPROM{
		bus:    bus,
		config: config,
		log:    config.Logger.With("device", "eeprom", "addr", config.Address),
	}
}

func (e *EEPROM) Size() int {
	return e.config.Size
}

func (e *EEPROM) PageSize() int {
	return e.config.PageSize
}

func (e *EEPROM) check(off, n int) error {
	if off < 0 || n < 0 || off+n > e.config.Size {
		return fmt.Errorf("%w: %d bytes at %#x (size %d)", ErrOutOfRange, n, off, e.config.Size)
	}
	return nil
}

// locate returns the device address and the word address bytes for off.
func (e *EEPROM) locate(off int) (byte, []byte) {
	if e.config.AddressBytes == 2 {
		return e.config.Address, []byte{byte(off >> 8), byte(off)}
	}
	return e.config.Address | byte(off>>8)&0x07, []byte{byte(off)}
}

// span returns how many bytes starting at off can be transferred without
// crossing a boundary of the given size.
func span(off, n, boundary int) int {
	return min(n, boundary-off%boundary)
}

// ReadAt fills buf from the memory starting at off. One byte parts are read
// block by block since the device address selects the block.
func (e *EEPROM) ReadAt(ctx context.Context, off int, buf []byte) error {
	if err := e.check(off, len(buf)); err != nil {
		return err
	}
	e.mx.Lock()
	defer e.mx.Unlock()
	for len(buf) > 0 {
		n := len(buf)
		if e.config.AddressBytes != 2 {
			n = span(off, n, 256)
		}
		addr, word := e.locate(off)
		if err := e.bus.WriteToAddr(ctx, addr, word); err != nil {
			return e.fail(ctx, fmt.Errorf("could not set address %#x: %w", off, err))
		}
		if err := e.bus.ReadFromAddr(ctx, addr, buf[:n]); err != nil {
			return e.fail(ctx, fmt.Errorf("could not read %d bytes at %#x: %w", n, off, err))
		}
		e.log.Debug("read", "offset", off, "len", n)
		buf = buf[n:]
		off += n
	}
	return nil
}

// WriteAt stores data starting at off, one page at a time.
func (e *EEPROM) WriteAt(ctx context.Context, off int, data []byte) error {
	if err := e.check(off, len(data)); err != nil {
		return err
	}
	e.mx.Lock()
	defer e.mx.Unlock()
	for len(data) > 0 {
		n := span(off, len(data), e.config.PageSize)
		addr, word := e.locate(off)
		if err := e.bus.WriteToAddr(ctx, addr, append(word, data[:n]...)); err != nil {
			return e.fail(ctx, fmt.Errorf("could not write %d bytes at %#x: %w", n, off, err))
		}
		if err := e.waitReady(ctx, addr); err != nil {
			return err
		}
		e.log.Debug("page written", "offset", off, "len", n)
		data = data[n:]
		off += n
	}
	return nil
}

// Fill sets n bytes starting at off to value.
func (e *EEPROM) Fill(ctx context.Context, off, n int, value byte) error {
	data := make([]byte, n)
	for i := range data {
		data[i] = value
	}
	return e.WriteAt(ctx, off, data)
}

// waitReady polls the device address until the write cycle is over.
func (e *EEPROM) waitReady(ctx context.Context, addr byte) error {
	interval := e.config.WriteCycle / time.Duration(e.config.PollAttempts)
	for attempt := 0; attempt < e.config.PollAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := e.bus.WriteToAddr(ctx, addr, nil)
		if err == nil {
			return nil
		}
		if !errors.Is(err, i2cmaster.ErrAckFailure) {
			return e.fail(ctx, fmt.Errorf("could not poll device: %w", err))
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return ErrNotReady
}

// fail hands the bus back after an error; the release error is only logged.
func (e *EEPROM) fail(ctx context.Context, err error) error {
	if rerr := e.bus.Release(ctx); rerr != nil {
		e.log.Warn("could not release bus", "error", rerr)
	}
	return err
}
