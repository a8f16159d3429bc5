// Package environment holds drivers for sensors reached over an I2C master.
package environment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/i2cmaster"
)

const (
	TC74DefaultAddress = 0x4D

	tc74TempRegister   = 0x00
	tc74ConfigRegister = 0x01

	tc74Standby   = 0x80
	tc74DataReady = 0x40
)

// ErrNoSample is returned before the first conversion of the sensor is ready.
var ErrNoSample = errors.New("tc74: no conversion available yet")

// TC74 is a Microchip TC74 digital temperature sensor.
// See: https://ww1.microchip.com/downloads/en/DeviceDoc/21462D.pdf
type TC74 struct {
	mx       sync.Mutex
	bus      i2cmaster.I2CBus
	address  byte
	log      *slog.Logger
	lastTemp int8
	sampled  bool
}

type TC74Opts struct {
	Address byte
	Logger  *slog.Logger
}

type TC74Opt func(*TC74Opts)

func WithAddress(address byte) TC74Opt {
	return func(o *TC74Opts) {
		o.Address = address
	}
}

func WithLogger(l *slog.Logger) TC74Opt {
	return func(o *TC74Opts) {
		o.Logger = l
	}
}

func NewTC74(bus i2cmaster.I2CBus, opts ...TC74Opt) *TC74 {
	config := TC74Opts{
		Address: TC74DefaultAddress,
		Logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &TC74{
		bus:     bus,
		address: config.Address,
		log:     config.Logger.With("device", "tc74", "addr", config.Address),
	}
}

// register selects reg and reads it back in a second transaction.
func (s *TC74) register(ctx context.Context, reg byte) (byte, error) {
	if err := s.bus.WriteToAddr(ctx, s.address, []byte{reg}); err != nil {
		return 0, s.fail(ctx, fmt.Errorf("tc74: could not select register %#02x: %w", reg, err))
	}
	resp := make([]byte, 1)
	if err := s.bus.ReadFromAddr(ctx, s.address, resp); err != nil {
		return 0, s.fail(ctx, fmt.Errorf("tc74: could not read register %#02x: %w", reg, err))
	}
	return resp[0], nil
}

func (s *TC74) Config(ctx context.Context) (byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.register(ctx, tc74ConfigRegister)
}

// Temperature returns the last conversion in degrees Celsius. While the
// sensor reports no fresh data the previous reading is returned.
func (s *TC74) Temperature(ctx context.Context) (int8, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	config, err := s.register(ctx, tc74ConfigRegister)
	if err != nil {
		return 0, err
	}
	if config&tc74DataReady == 0 {
		if !s.sampled {
			return 0, ErrNoSample
		}
		s.log.Debug("data not ready, returning previous reading", "temp", s.lastTemp)
		return s.lastTemp, nil
	}
	raw, err := s.register(ctx, tc74TempRegister)
	if err != nil {
		return 0, err
	}
	s.lastTemp = int8(raw)
	s.sampled = true
	return s.lastTemp, nil
}

// Standby switches the sensor between standby and continuous conversion.
func (s *TC74) Standby(ctx context.Context, on bool) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	var value byte
	if on {
		value = tc74Standby
	}
	if err := s.bus.WriteToAddr(ctx, s.address, []byte{tc74ConfigRegister, value}); err != nil {
		return s.fail(ctx, fmt.Errorf("tc74: could not write config register: %w", err))
	}
	return nil
}

func (s *TC74) fail(ctx context.Context, err error) error {
	if rerr := s.bus.Release(ctx); rerr != nil {
		s.log.Warn("could not release bus", "error", rerr)
	}
	return err
}
