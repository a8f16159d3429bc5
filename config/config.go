// Package config loads the bus layout of the I2C master from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/i2cmaster/master"
	"github.com/mklimuk/i2cmaster/regs"
)

// Version is set at build time.
var Version = "dev"

var ErrInvalidConfig = errors.New("invalid configuration")

// Frequency is a periph frequency written as a string such as "100kHz".
type Frequency physic.Frequency

func (f *Frequency) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	var v physic.Frequency
	if err := v.Set(s); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*f = Frequency(v)
	return nil
}

func (f Frequency) MarshalYAML() (any, error) {
	return physic.Frequency(f).String(), nil
}

type Pins struct {
	SCL      string `yaml:"scl"`
	SDA      string `yaml:"sda"`
	SCLPull  string `yaml:"scl_pull,omitempty"`
	SDAPull  string `yaml:"sda_pull,omitempty"`
	Alt      uint8  `yaml:"alt"`
	EventIRQ int    `yaml:"event_irq"`
	ErrorIRQ int    `yaml:"error_irq"`
}

type Bus struct {
	ID         int       `yaml:"id"`
	Name       string    `yaml:"name"`
	Base       uint64    `yaml:"base"`
	PClk       Frequency `yaml:"pclk"`
	Speed      Frequency `yaml:"speed"`
	Duty       string    `yaml:"duty,omitempty"`
	OwnAddress uint16    `yaml:"own_address,omitempty"`
	Pins       Pins      `yaml:"pins"`
}

type Config struct {
	RetryBudget int           `yaml:"retry_budget"`
	Yield       time.Duration `yaml:"yield"`
	Buses       []Bus         `yaml:"buses"`
}

// Default describes the two buses of an STM32F4 with the register blocks at
// their reference manual addresses.
func Default() *Config {
	return &Config{
		RetryBudget: master.DefaultRetryBudget,
		Yield:       master.DefaultYieldQuantum,
		Buses: []Bus{
			{
				ID:    1,
				Name:  "I2C1",
				Base:  0x40005400,
				PClk:  Frequency(42 * physic.MegaHertz),
				Speed: Frequency(100 * physic.KiloHertz),
				Duty:  "2",
				Pins:  Pins{SCL: "PB6", SDA: "PB7", SCLPull: "float", SDAPull: "up", Alt: 4, EventIRQ: 31, ErrorIRQ: 32},
			},
			{
				ID:    2,
				Name:  "I2C2",
				Base:  0x40005800,
				PClk:  Frequency(42 * physic.MegaHertz),
				Speed: Frequency(100 * physic.KiloHertz),
				Duty:  "2",
				Pins:  Pins{SCL: "PB10", SDA: "PB11", SCLPull: "float", SDAPull: "up", Alt: 4, EventIRQ: 33, ErrorIRQ: 34},
			},
		},
	}
}

// Load reads path on top of the defaults. A file without buses keeps the
// default bus list.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	c := Default()
	buses := c.Buses
	c.Buses = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}
	if len(c.Buses) == 0 {
		c.Buses = buses
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) Validate() error {
	if c.RetryBudget < 0 {
		return fmt.Errorf("%w: negative retry budget", ErrInvalidConfig)
	}
	if c.Yield < 0 {
		return fmt.Errorf("%w: negative yield", ErrInvalidConfig)
	}
	seen := map[int]bool{}
	for _, b := range c.Buses {
		if b.ID < 1 || b.ID > master.MaxBuses {
			return fmt.Errorf("%w: bus id %d out of range 1..%d", ErrInvalidConfig, b.ID, master.MaxBuses)
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: bus %d defined twice", ErrInvalidConfig, b.ID)
		}
		seen[b.ID] = true
		if _, err := b.Timing(); err != nil {
			return fmt.Errorf("%w: bus %d: %w", ErrInvalidConfig, b.ID, err)
		}
		if _, err := b.Pins.pins(); err != nil {
			return fmt.Errorf("%w: bus %d: %w", ErrInvalidConfig, b.ID, err)
		}
	}
	return nil
}

// Bus returns the configuration of bus id.
func (c *Config) Bus(id int) (Bus, bool) {
	for _, b := range c.Buses {
		if b.ID == id {
			return b, true
		}
	}
	return Bus{}, false
}

func (b Bus) Timing() (regs.Timing, error) {
	t := regs.Timing{
		PClk:       physic.Frequency(b.PClk),
		Speed:      physic.Frequency(b.Speed),
		OwnAddress: b.OwnAddress,
	}
	switch b.Duty {
	case "", "2":
		t.Duty = regs.Duty2
	case "16/9":
		t.Duty = regs.Duty16_9
	default:
		return t, fmt.Errorf("unknown duty cycle %q", b.Duty)
	}
	return t, t.Validate()
}

func parsePull(s string) (gpio.Pull, error) {
	switch s {
	case "", "float", "none":
		return gpio.Float, nil
	case "up":
		return gpio.PullUp, nil
	case "down":
		return gpio.PullDown, nil
	default:
		return gpio.PullNoChange, fmt.Errorf("unknown pull %q", s)
	}
}

func (p Pins) pins() (master.Pins, error) {
	scl, err := parsePull(p.SCLPull)
	if err != nil {
		return master.Pins{}, fmt.Errorf("scl: %w", err)
	}
	sda, err := parsePull(p.SDAPull)
	if err != nil {
		return master.Pins{}, fmt.Errorf("sda: %w", err)
	}
	return master.Pins{
		SCL:      p.SCL,
		SDA:      p.SDA,
		SCLPull:  scl,
		SDAPull:  sda,
		Alt:      p.Alt,
		EventIRQ: p.EventIRQ,
		ErrorIRQ: p.ErrorIRQ,
	}, nil
}

// Handle builds the engine handle of the bus around surface.
func (b Bus) Handle(surface regs.Surface) (*master.Handle, error) {
	t, err := b.Timing()
	if err != nil {
		return nil, err
	}
	pins, err := b.Pins.pins()
	if err != nil {
		return nil, err
	}
	return &master.Handle{
		ID:      master.BusID(b.ID),
		Name:    b.Name,
		Surface: surface,
		Pins:    pins,
		Timing:  t,
	}, nil
}

// Registry builds handles for every bus, asking surface for each control
// surface.
func (c *Config) Registry(surface func(Bus) (regs.Surface, error)) (*master.Registry, error) {
	reg, err := master.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, b := range c.Buses {
		s, err := surface(b)
		if err != nil {
			return nil, fmt.Errorf("bus %d: %w", b.ID, err)
		}
		h, err := b.Handle(s)
		if err != nil {
			return nil, fmt.Errorf("bus %d: %w", b.ID, err)
		}
		if err := reg.Attach(h); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// EngineOpts translates the global settings into engine options.
func (c *Config) EngineOpts() []master.EngineOpt {
	return []master.EngineOpt{
		master.WithRetryBudget(c.RetryBudget),
		master.WithYielder(master.Sleep(c.Yield)),
	}
}
