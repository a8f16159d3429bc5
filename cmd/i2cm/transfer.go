package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2cmaster"
	"github.com/mklimuk/i2cmaster/cmd/i2cm/console"
	"github.com/mklimuk/i2cmaster/master"
)

var writeCmd = cli.Command{
	Name:      "write",
	Aliases:   []string{"w"},
	Usage:     "write bytes to a device",
	ArgsUsage: "<addr> [hex data]",
	Flags: []cli.Flag{
		busFlag,
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return console.Usage(c, "missing device address")
		}
		addr, err := parseAddress(c.Args().Get(0))
		if err != nil {
			return console.Usage(c, "%s", err)
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
		bus := master.BusID(c.Int("bus"))
		if !s.simulated && !c.Bool("yes") {
			answer, err := console.YesOrNo(fmt.Sprintf("write %d bytes to %#02x on bus %d?", len(data), addr, bus))
			if err != nil {
				return err
			}
			if answer != console.Yes {
				console.Warn("aborted")
				return nil
			}
		}
		if st := s.engine.MasterWrite(bus, addr, data); st != i2cmaster.StatusOK {
			return console.Exit(1, "write to %#02x failed: %s", addr, console.Red(st))
		}
		console.PInfof(console.PictoWrite, "wrote %s bytes to %s", console.White(len(data)), console.White(fmt.Sprintf("%#02x", addr)))
		return nil
	},
}

var readCmd = cli.Command{
	Name:      "read",
	Aliases:   []string{"r"},
	Usage:     "read bytes from a device",
	ArgsUsage: "<addr> [length]",
	Flags: []cli.Flag{
		busFlag,
		&cli.StringFlag{Name: "register", Aliases: []string{"reg"}, Usage: "hex bytes written in a separate transaction before reading"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return console.Usage(c, "missing device address")
		}
		addr, err := parseAddress(c.Args().Get(0))
		if err != nil {
			return console.Usage(c, "%s", err)
		}
		length := 1
		if c.NArg() > 1 {
			length, err = parseInt(c.Args().Get(1), 0, 4096)
			if err != nil {
				return console.Usage(c, "%s", err)
			}
		}
		var prefix []byte
		if c.IsSet("register") {
			prefix, err = parseData(c.String("register"))
			if err != nil {
				return console.Usage(c, "%s", err)
			}
		}
		s, err := openSession(c)
		if err != nil {
			return console.Exit(1, "could not open bus: %s", console.Red(err))
		}
		defer s.Close()
		bus := master.BusID(c.Int("bus"))
		if prefix != nil {
			if st := s.engine.MasterWrite(bus, addr, prefix); st != i2cmaster.StatusOK {
				return console.Exit(1, "register select on %#02x failed: %s", addr, console.Red(st))
			}
		}
		buf := make([]byte, length)
		if st := s.engine.MasterRead(bus, addr, buf); st != i2cmaster.StatusOK {
			if st.IsTimeout() {
				s.engine.Release(bus)
			}
			return console.Exit(1, "read from %#02x failed: %s", addr, console.Red(st))
		}
		console.PInfof(console.PictoRead, "read %s bytes from %s", console.White(length), console.White(fmt.Sprintf("%#02x", addr)))
		console.Print(hex.Dump(buf))
		return nil
	},
}
