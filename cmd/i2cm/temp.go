package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2cmaster/cmd/i2cm/console"
	"github.com/mklimuk/i2cmaster/environment"
	"github.com/mklimuk/i2cmaster/master"
)

var tempCmd = cli.Command{
	Name:    "temperature",
	Aliases: []string{"temp"},
	Usage:   "read a TC74 temperature sensor",
	Flags: []cli.Flag{
		busFlag,
		&cli.StringFlag{Name: "address", Aliases: []string{"a"}, Usage: "sensor address", Value: "0x4d"},
		&cli.BoolFlag{Name: "standby", Usage: "put the sensor in standby after reading"},
	},
	Action: func(c *cli.Context) error {
		addr, err := parseAddress(c.String("address"))
		if err != nil {
			return console.Usage(c, "%s", err)
		}
		s, err := openSession(c)
		if err != nil {
			return console.Exit(1, "could not open bus: %s", console.Red(err))
		}
		defer s.Close()
		sensor := environment.NewTC74(s.engine.Bus(master.BusID(c.Int("bus"))), environment.WithAddress(addr))
		temp, err := sensor.Temperature(c.Context)
		if err != nil {
			return console.Exit(1, "could not read temperature: %s", console.Red(err))
		}
		console.PInfof(console.PictoTemp, "%s°C", console.White(temp))
		if c.Bool("standby") {
			if err := sensor.Standby(c.Context, true); err != nil {
				return console.Exit(1, "could not enter standby: %s", console.Red(err))
			}
		}
		return nil
	},
}
