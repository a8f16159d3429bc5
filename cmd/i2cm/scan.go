package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2cmaster"
	"github.com/mklimuk/i2cmaster/cmd/i2cm/console"
	"github.com/mklimuk/i2cmaster/master"
)

const (
	scanFirst = 0x08
	scanLast  = 0x77
)

var scanCmd = cli.Command{
	Name:  "scan",
	Usage: "probe every regular address on a bus",
	Flags: []cli.Flag{busFlag},
	Action: func(c *cli.Context) error {
		s, err := openSession(c)
		if err != nil {
			return console.Exit(1, "could not open bus: %s", console.Red(err))
		}
		defer s.Close()
		bus := master.BusID(c.Int("bus"))
		found, err := scan(s.engine, bus)
		if err != nil {
			return console.Exit(1, "scan aborted: %s", console.Red(err))
		}
		console.PInfof(console.PictoSearch, "bus %d: %s devices", bus, console.White(len(found)))
		console.Print(scanTable(found))
		return nil
	},
}

// scan probes scanFirst..scanLast. Only a missing handle or a bus that
// stops answering aborts the scan; rejected addresses are just absent.
func scan(e *master.Engine, bus master.BusID) ([]uint8, error) {
	var found []uint8
	for addr := uint8(scanFirst); addr <= scanLast; addr++ {
		switch st := e.Probe(bus, addr); st {
		case i2cmaster.StatusOK:
			found = append(found, addr)
		case i2cmaster.StatusAckFailure:
		case i2cmaster.StatusNullHandle:
			return nil, st.Err()
		default:
			e.Release(bus)
			return found, fmt.Errorf("probe %#02x: %w", addr, st.Err())
		}
	}
	return found, nil
}

// scanTable renders the addresses the way i2cdetect does.
func scanTable(found []uint8) string {
	present := map[uint8]bool{}
	for _, a := range found {
		present[a] = true
	}
	var b strings.Builder
	b.WriteString("    ")
	for col := range 16 {
		fmt.Fprintf(&b, " %x ", col)
	}
	for row := 0; row < 0x80; row += 16 {
		fmt.Fprintf(&b, "\n%02x: ", row)
		for col := range 16 {
			addr := uint8(row + col)
			switch {
			case addr < scanFirst || addr > scanLast:
				b.WriteString("   ")
			case present[addr]:
				b.WriteString(console.Green(fmt.Sprintf("%02x", addr)) + " ")
			default:
				b.WriteString(console.Faint("--") + " ")
			}
		}
	}
	return b.String()
}
