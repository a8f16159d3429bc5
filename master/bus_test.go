package master

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/i2cmaster"
	"github.com/mklimuk/i2cmaster/sim"
)

func TestBus(t *testing.T) {
	e, p := newTestEngine(t, 1)
	target := sim.NewScripted(0x10, 0x20)
	p.Attach(testAddr, target)
	var bus i2cmaster.I2CBus = e.Bus(Bus1)
	ctx := context.Background()

	require.NoError(t, bus.WriteToAddr(ctx, testAddr, []byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, target.Written())

	buf := make([]byte, 2)
	require.NoError(t, bus.ReadFromAddr(ctx, testAddr, buf))
	assert.Equal(t, []byte{0x10, 0x20}, buf)

	err := bus.WriteToAddr(ctx, 0x11, []byte{1})
	assert.ErrorIs(t, err, i2cmaster.ErrAckFailure)
	err = bus.ReadFromAddr(ctx, 0x11, buf)
	assert.ErrorIs(t, err, i2cmaster.ErrAckFailure)

	assert.NoError(t, bus.Release(ctx))
	assert.Equal(t, Bus1, e.Bus(Bus1).ID())
}

func TestBusRejectsBeforeStarting(t *testing.T) {
	e, p := newTestEngine(t, 0)
	p.Attach(testAddr, sim.NewScripted())
	bus := e.Bus(Bus1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.WriteToAddr(ctx, testAddr, []byte{1}), context.Canceled)
	assert.ErrorIs(t, bus.ReadFromAddr(ctx, testAddr, make([]byte, 1)), context.Canceled)

	assert.Error(t, bus.WriteToAddr(context.Background(), 0x80, []byte{1}))
	assert.Error(t, bus.ReadFromAddr(context.Background(), 0xFF, make([]byte, 1)))
	assert.Empty(t, p.Commands())

	assert.ErrorIs(t, e.Bus(Bus2).Release(context.Background()), i2cmaster.ErrNullHandle)
}
