package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2cmaster/cmd/i2cm/console"
	"github.com/mklimuk/i2cmaster/eeprom"
	"github.com/mklimuk/i2cmaster/master"
)

var models = map[string]eeprom.Model{
	"24c02":  eeprom.Model24C02,
	"24c16":  eeprom.Model24C16,
	"24c256": eeprom.Model24C256,
}

var eepromFlags = []cli.Flag{
	busFlag,
	&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "24c02, 24c16 or 24c256", Value: "24c02"},
	&cli.StringFlag{Name: "address", Aliases: []string{"a"}, Usage: "device address", Value: "0x50"},
}

var eepromCmd = cli.Command{
	Name:  "eeprom",
	Usage: "access a 24xx EEPROM",
	Subcommands: cli.Commands{
		&eepromReadCmd,
		&eepromWriteCmd,
	},
}

func openEEPROM(c *cli.Context, s *session) (*eeprom.EEPROM, error) {
	model, ok := models[strings.ToLower(c.String("model"))]
	if !ok {
		return nil, fmt.Errorf("unknown model %q", c.String("model"))
	}
	addr, err := parseAddress(c.String("address"))
	if err != nil {
		return nil, err
	}
	bus := s.engine.Bus(master.BusID(c.Int("bus")))
	return eeprom.New(bus, eeprom.WithModel(model), eeprom.WithAddress(addr)), nil
}

var eepromReadCmd = cli.Command{
	Name:      "read",
	Usage:     "read memory",
	ArgsUsage: "<offset> [length]",
	Flags:     eepromFlags,
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return console.Usage(c, "missing offset")
		}
		s, err := openSession(c)
		if err != nil {
			return console.Exit(1, "could not open bus: %s", console.Red(err))
		}
		defer s.Close()
		mem, err := openEEPROM(c, s)
		if err != nil {
			return console.Usage(c, "%s", err)
		}
		off, err := parseInt(c.Args().Get(0), 0, mem.Size()-1)
		if err != nil {
			return console.Usage(c, "%s", err)
		}
		length := 16
		if c.NArg() > 1 {
			if length, err = parseInt(c.Args().Get(1), 1, mem.Size()-off); err != nil {
				return console.Usage(c, "%s", err)
			}
		}
		buf := make([]byte, length)
		if err := mem.ReadAt(c.Context, off, buf); err != nil {
			return console.Exit(1, "read failed: %s", console.Red(err))
		}
		console.PInfof(console.PictoChip, "%s bytes at %s", console.White(length), console.White(fmt.Sprintf("%#04x", off)))
		console.Print(hex.Dump(buf))
		return nil
	},
}

var eepromWriteCmd = cli.Command{
	Name:      "write",
	Usage:     "write memory",
	ArgsUsage: "<offset> <hex data>",
	Flags: append([]cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	}, eepromFlags...),
	Action: func(c *cli.Context) error {
		if c.NArg() < 2 {
			return console.Usage(c, "missing offset or data")
		}
		data, err := parseData(c.Args().Get(1))
		if err != nil {
			return console.Usage(c, "%s", err)
		}
		s, err := openSession(c)
		if err != nil {
			return console.Exit(1, "could not open bus: %s", console.Red(err))
		}
		defer s.Close()
		mem, err := openEEPROM(c, s)
		if err != nil {
			return console.Usage(c, "%s", err)
		}
		off, err := parseInt(c.Args().Get(0), 0, mem.Size()-len(data))
		if err != nil {
			return console.Usage(c, "%s", err)
		}
		if !s.simulated && !c.Bool("yes") {
			answer, err := console.YesOrNo(fmt.Sprintf("overwrite %d bytes at %#04x?", len(data), off))
			if err != nil {
				return err
			}
			if answer != console.Yes {
				console.Warn("aborted")
				return nil
			}
		}
		if err := mem.WriteAt(c.Context, off, data); err != nil {
			return console.Exit(1, "write failed: %s", console.Red(err))
		}
		console.PInfof(console.PictoChip, "wrote %s bytes at %s", console.White(len(data)), console.White(fmt.Sprintf("%#04x", off)))
		return nil
	},
}
