package eeprom

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/i2cmaster/master"
	"github.com/mklimuk/i2cmaster/sim"
)

func simBus(t *testing.T, attach func(p *sim.Peripheral)) *master.Bus {
	t.Helper()
	p := sim.New(sim.WithLatency(1))
	attach(p)
	reg, err := master.NewRegistry(&master.Handle{ID: master.Bus1, Surface: p, Yielder: p})
	require.NoError(t, err)
	return master.New(reg, master.WithLogger(slog.New(slog.DiscardHandler))).Bus(master.Bus1)
}

func pattern(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*7 + 3)
	}
	return data
}

func TestEngineBlockSelect(t *testing.T) {
	memory := sim.NewMemory(Model24C16.Size, sim.WithPageSize(Model24C16.PageSize), sim.WithWriteCycle(2))
	bus := simBus(t, func(p *sim.Peripheral) {
		for block := range 8 {
			p.Attach(DefaultAddress+uint8(block), memory.Block(block*256))
		}
	})
	mem := New(bus, WithModel(Model24C16), WithWriteCycle(0), quiet())
	ctx := context.Background()

	data := pattern(100)
	require.NoError(t, mem.WriteAt(ctx, 250, data))
	assert.Equal(t, data, memory.Bytes()[250:350])

	buf := make([]byte, len(data))
	require.NoError(t, mem.ReadAt(ctx, 250, buf))
	assert.Equal(t, data, buf)
}

func TestEngineTwoByteAddress(t *testing.T) {
	memory := sim.NewMemory(Model24C256.Size, sim.WithAddressBytes(2), sim.WithPageSize(Model24C256.PageSize), sim.WithWriteCycle(3))
	bus := simBus(t, func(p *sim.Peripheral) {
		p.Attach(DefaultAddress, memory)
	})
	mem := New(bus, WithModel(Model24C256), WithWriteCycle(0), quiet())
	ctx := context.Background()

	data := pattern(200)
	require.NoError(t, mem.WriteAt(ctx, 0x1FF0, data))
	require.NoError(t, mem.Fill(ctx, 0, 3, 0xEE))

	buf := make([]byte, len(data))
	require.NoError(t, mem.ReadAt(ctx, 0x1FF0, buf))
	assert.Equal(t, data, buf)
	require.NoError(t, mem.ReadAt(ctx, 0, buf[:4]))
	assert.Equal(t, []byte{0xEE, 0xEE, 0xEE, 0x00}, buf[:4])
}

func TestEngineAbsentDevice(t *testing.T) {
	bus := simBus(t, func(p *sim.Peripheral) {})
	mem := New(bus, quiet())
	err := mem.ReadAt(context.Background(), 0, make([]byte, 2))
	assert.Error(t, err)
}
