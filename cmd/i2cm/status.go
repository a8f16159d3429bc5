package main

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/i2cmaster/cmd/i2cm/console"
	"github.com/mklimuk/i2cmaster/config"
	"github.com/mklimuk/i2cmaster/master"
	"github.com/mklimuk/i2cmaster/regs"
)

type busStatus struct {
	ID     int             `yaml:"id"`
	Name   string          `yaml:"name"`
	Base   string          `yaml:"base"`
	Speed  string          `yaml:"speed"`
	CR2    string          `yaml:"cr2"`
	TRISE  string          `yaml:"trise"`
	CCR    string          `yaml:"ccr"`
	Pins   string          `yaml:"pins"`
	Flags  map[string]bool `yaml:"flags"`
	Device []string        `yaml:"devices,omitempty"`
}

type statusReport struct {
	Version     string      `yaml:"version"`
	Mode        string      `yaml:"mode"`
	RetryBudget int         `yaml:"retry_budget"`
	Yield       string      `yaml:"yield"`
	Buses       []busStatus `yaml:"buses"`
}

var statusCmd = cli.Command{
	Name:  "status",
	Usage: "dump bus configuration and peripheral flags",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "scan", Usage: "also list responding devices"},
	},
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return console.Exit(1, "could not open bus: %s", console.Red(err))
		}
		defer s.Close()
		report, err := s.status(c.Bool("scan"))
		if err != nil {
			return console.Exit(1, "could not build status: %s", console.Red(err))
		}
		return writeStatus(console.Output(), report)
	},
}

func (s *session) status(withScan bool) (statusReport, error) {
	report := statusReport{
		Version:     config.Version,
		Mode:        "hardware",
		RetryBudget: s.config.RetryBudget,
		Yield:       s.config.Yield.String(),
	}
	if s.simulated {
		report.Mode = "simulated"
	}
	for _, b := range s.config.Buses {
		t, err := b.Timing()
		if err != nil {
			return report, err
		}
		cr2, trise, ccr, err := t.Values()
		if err != nil {
			return report, err
		}
		st := busStatus{
			ID:    b.ID,
			Name:  b.Name,
			Base:  fmt.Sprintf("%#08x", b.Base),
			Speed: t.Speed.String(),
			CR2:   fmt.Sprintf("%#04x", cr2),
			TRISE: fmt.Sprintf("%#04x", trise),
			CCR:   fmt.Sprintf("%#04x", ccr),
			Pins:  fmt.Sprintf("scl=%s sda=%s af%d", b.Pins.SCL, b.Pins.SDA, b.Pins.Alt),
			Flags: map[string]bool{},
		}
		id := master.BusID(b.ID)
		if h, ok := s.engine.Registry().Lookup(id); ok {
			for _, f := range regs.Flags {
				st.Flags[f.String()] = h.Surface.Flag(f)
			}
		}
		if withScan {
			found, err := scan(s.engine, id)
			if err != nil {
				return report, err
			}
			for _, a := range found {
				st.Device = append(st.Device, fmt.Sprintf("%#02x", a))
			}
		}
		report.Buses = append(report.Buses, st)
	}
	return report, nil
}

func writeStatus(w io.Writer, report statusReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
