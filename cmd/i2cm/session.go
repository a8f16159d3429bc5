package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"periph.io/x/host/v3"

	"github.com/mklimuk/i2cmaster/cmd/i2cm/console"
	"github.com/mklimuk/i2cmaster/config"
	"github.com/mklimuk/i2cmaster/environment"
	"github.com/mklimuk/i2cmaster/master"
	"github.com/mklimuk/i2cmaster/regs"
	"github.com/mklimuk/i2cmaster/sim"
)

// session is the engine and bus set one command runs against.
type session struct {
	config    *config.Config
	engine    *master.Engine
	platform  master.Platform
	simulated bool
	sims      map[master.BusID]*sim.Peripheral
	// trace dumps the simulated bus events on Close
	trace bool
}

var busFlag = &cli.IntFlag{
	Name:    "bus",
	Aliases: []string{"b"},
	Usage:   "bus id",
	Value:   int(master.Bus1),
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// simTargets populates a simulated bus with an EEPROM at 0x50 and a TC74
// reading 25 degrees.
func simTargets(p *sim.Peripheral) {
	mem := sim.NewMemory(256, sim.WithPageSize(8), sim.WithWriteCycle(2))
	mem.Load(0, []byte("i2cm simulated eeprom"))
	p.Attach(0x50, mem)
	p.Attach(environment.TC74DefaultAddress, sim.NewScripted(0x40, 0x19))
}

func openSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	s := &session{
		config:    cfg,
		simulated: c.Bool("sim"),
		sims:      map[master.BusID]*sim.Peripheral{},
		trace:     console.IsVerbose(c.Context),
	}
	var surface func(b config.Bus) (regs.Surface, error)
	if s.simulated {
		surface = func(b config.Bus) (regs.Surface, error) {
			p := sim.New(sim.WithLatency(1))
			simTargets(p)
			s.sims[master.BusID(b.ID)] = p
			return p, nil
		}
	} else {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("could not init host: %w", err)
		}
		surface = func(b config.Bus) (regs.Surface, error) {
			return regs.Map(b.Base)
		}
	}
	reg, err := cfg.Registry(surface)
	if err != nil {
		return nil, err
	}
	opts := cfg.EngineOpts()
	if s.simulated {
		// simulated buses advance when yielded to
		for _, h := range reg.Handles() {
			h.Yielder = s.sims[h.ID]
		}
		s.platform = nopPlatform{}
	} else {
		s.platform = master.NewGPIOPlatform(nil)
	}
	for _, h := range reg.Handles() {
		if err := master.Setup(s.platform, h); err != nil {
			return nil, err
		}
	}
	s.engine = master.New(reg, opts...)
	return s, nil
}

func (s *session) Close() error {
	var errs []error
	for _, h := range s.engine.Registry().Handles() {
		if p, ok := s.sims[h.ID]; ok && s.trace {
			for _, ev := range p.Trace() {
				console.Printf("%s %s: %s\n", console.Faint("sim"), h, ev)
			}
		}
		errs = append(errs, master.Teardown(s.platform, h))
	}
	err := errors.Join(errs...)
	if err != nil {
		slog.Warn("teardown failed", "error", err)
	}
	return err
}

// nopPlatform stands in for pins and clocks of simulated buses.
type nopPlatform struct{}

func (nopPlatform) Setup(*master.Handle) error {
	return nil
}

func (nopPlatform) Teardown(*master.Handle) error {
	return nil
}
