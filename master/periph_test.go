package master

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"

	"github.com/mklimuk/i2cmaster"
	"github.com/mklimuk/i2cmaster/regs"
	"github.com/mklimuk/i2cmaster/sim"
)

func TestPeriphBusTx(t *testing.T) {
	e, p := newTestEngine(t, 1)
	mem := sim.NewMemory(128)
	mem.Load(0x20, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	p.Attach(0x50, mem)
	bus := e.PeriphBus(Bus1)

	buf := make([]byte, 4)
	require.NoError(t, bus.Tx(0x50, []byte{0x20}, buf))
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, buf)

	require.NoError(t, bus.WriteRegister(0x50, 0x40, []byte{1, 2}))
	assert.Equal(t, []byte{1, 2}, mem.Bytes()[0x40:0x42])
	require.NoError(t, bus.ReadRegister(0x50, 0x41, buf[:1]))
	assert.Equal(t, byte(2), buf[0])

	// empty transaction probes the address
	require.NoError(t, bus.Tx(0x50, nil, nil))
	err := bus.Tx(0x51, nil, nil)
	assert.ErrorIs(t, err, i2cmaster.ErrAckFailure)

	assert.Error(t, bus.Tx(0x150, []byte{1}, nil))
	assert.Equal(t, "I2C1", bus.String())
	assert.NoError(t, bus.Close())
}

func TestPeriphBusAsDriverBus(t *testing.T) {
	e, p := newTestEngine(t, 0)
	target := sim.NewScripted(0x42)
	p.Attach(0x68, target)

	var bus drivers.I2C = e.PeriphBus(Bus1)
	buf := make([]byte, 1)
	require.NoError(t, bus.Tx(0x68, []byte{0x75}, buf))
	assert.Equal(t, byte(0x42), buf[0])
	assert.Equal(t, []byte{0x75}, target.Written())
}

func TestPeriphBusSetSpeed(t *testing.T) {
	p := sim.New()
	timing := regs.Timing{PClk: 42 * physic.MegaHertz, Speed: 100 * physic.KiloHertz}
	reg, err := NewRegistry(&Handle{ID: Bus1, Surface: p, Timing: timing})
	require.NoError(t, err)
	e := New(reg, WithLogger(quietLogger()))
	bus := e.PeriphBus(Bus1)

	require.NoError(t, bus.SetSpeed(400*physic.KiloHertz))
	got, ok := p.Timing()
	require.True(t, ok)
	assert.Equal(t, 400*physic.KiloHertz, got.Speed)
	assert.Equal(t, 42*physic.MegaHertz, got.PClk)

	assert.ErrorIs(t, bus.SetSpeed(physic.MegaHertz), regs.ErrInvalidTiming)
	h, _ := reg.Lookup(Bus1)
	assert.Equal(t, 400*physic.KiloHertz, h.Timing.Speed)

	assert.ErrorIs(t, e.PeriphBus(Bus2).SetSpeed(physic.KiloHertz), ErrInvalidBus)
}

func TestRegisterPeriph(t *testing.T) {
	p := sim.New()
	p.Attach(testAddr, sim.NewScripted())
	reg, err := NewRegistry(&Handle{ID: Bus2, Name: "I2C2-test", Surface: p})
	require.NoError(t, err)
	e := New(reg, WithLogger(quietLogger()))

	require.NoError(t, RegisterPeriph(e))
	t.Cleanup(func() {
		assert.NoError(t, UnregisterPeriph(e))
	})
	assert.Error(t, RegisterPeriph(e))

	var bus i2c.BusCloser
	bus, err = i2creg.Open("STM32-I2C2-test")
	require.NoError(t, err)
	defer bus.Close()
	assert.NoError(t, bus.Tx(testAddr, []byte{1}, nil))
}
