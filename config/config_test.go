package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2cmaster/master"
	"github.com/mklimuk/i2cmaster/regs"
	"github.com/mklimuk/i2cmaster/sim"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 100, c.RetryBudget)
	assert.Equal(t, 50*time.Millisecond, c.Yield)
	require.Len(t, c.Buses, 2)
	b, ok := c.Bus(2)
	require.True(t, ok)
	assert.Equal(t, uint64(0x40005800), b.Base)
	_, ok = c.Bus(3)
	assert.False(t, ok)
}

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
retry_budget: 20
yield: 5ms
buses:
  - id: 1
    name: sensors
    base: 0x40005400
    pclk: 16MHz
    speed: 400kHz
    duty: 16/9
    pins: {scl: PB8, sda: PB9, sda_pull: up, alt: 4, event_irq: 31, error_irq: 32}
`))
	require.NoError(t, err)
	assert.Equal(t, 20, c.RetryBudget)
	assert.Equal(t, 5*time.Millisecond, c.Yield)
	require.Len(t, c.Buses, 1)
	b := c.Buses[0]
	assert.Equal(t, "sensors", b.Name)
	assert.Equal(t, uint64(0x40005400), b.Base)

	timing, err := b.Timing()
	require.NoError(t, err)
	assert.Equal(t, 16*physic.MegaHertz, timing.PClk)
	assert.Equal(t, 400*physic.KiloHertz, timing.Speed)
	assert.Equal(t, regs.Duty16_9, timing.Duty)

	h, err := b.Handle(sim.New())
	require.NoError(t, err)
	assert.Equal(t, master.Bus1, h.ID)
	assert.Equal(t, gpio.Float, h.Pins.SCLPull)
	assert.Equal(t, gpio.PullUp, h.Pins.SDAPull)
	assert.Equal(t, "PB9", h.Pins.SDA)
}

func TestParseKeepsDefaultBuses(t *testing.T) {
	c, err := Parse([]byte("retry_budget: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, c.RetryBudget)
	assert.Equal(t, Default().Buses, c.Buses)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{name: "bus id zero", config: "buses: [{id: 0, pclk: 42MHz, speed: 100kHz}]"},
		{name: "bus id three", config: "buses: [{id: 3, pclk: 42MHz, speed: 100kHz}]"},
		{name: "duplicate bus", config: "buses: [{id: 1, pclk: 42MHz, speed: 100kHz}, {id: 1, pclk: 42MHz, speed: 100kHz}]"},
		{name: "no speed", config: "buses: [{id: 1, pclk: 42MHz}]"},
		{name: "speed too high", config: "buses: [{id: 1, pclk: 42MHz, speed: 1MHz}]"},
		{name: "clock too low", config: "buses: [{id: 1, pclk: 1MHz, speed: 100kHz}]"},
		{name: "clock too high", config: "buses: [{id: 1, pclk: 84MHz, speed: 100kHz}]"},
		{name: "duty", config: "buses: [{id: 1, pclk: 42MHz, speed: 400kHz, duty: '3'}]"},
		{name: "pull", config: "buses: [{id: 1, pclk: 42MHz, speed: 100kHz, pins: {sda_pull: sideways}}]"},
		{name: "negative budget", config: "retry_budget: -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.config))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("buses: [{id: 1, speed: fast}]"))
	assert.Error(t, err)
	_, err = Parse([]byte("retry_budget: [1]"))
	assert.Error(t, err)
}

func TestLoadAndMarshal(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "i2cm.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	surfaces := map[int]*sim.Peripheral{}
	reg, err := Default().Registry(func(b Bus) (regs.Surface, error) {
		p := sim.New()
		surfaces[b.ID] = p
		return p, nil
	})
	require.NoError(t, err)
	h, ok := reg.Lookup(master.Bus2)
	require.True(t, ok)
	assert.Same(t, surfaces[2], h.Surface)
	assert.Equal(t, "I2C2", h.String())
	assert.Equal(t, uint8(4), h.Pins.Alt)
	assert.Len(t, Default().EngineOpts(), 2)
}
