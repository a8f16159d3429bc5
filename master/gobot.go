package master

import (
	"encoding/binary"
	"fmt"

	"gobot.io/x/gobot/v2/drivers/i2c"
)

var _ i2c.Connector = &GobotAdaptor{}

// GobotAdaptor lets gobot I2C drivers open connections on the engine
// buses. Gobot bus numbers are engine bus ids.
type GobotAdaptor struct {
	engine     *Engine
	defaultBus BusID
}

func (e *Engine) GobotAdaptor(defaultBus BusID) *GobotAdaptor {
	return &GobotAdaptor{engine: e, defaultBus: defaultBus}
}

func (a *GobotAdaptor) GetI2cConnection(address int, busNr int) (i2c.Connection, error) {
	id := BusID(busNr)
	if _, ok := a.engine.buses.Lookup(id); !ok {
		return nil, fmt.Errorf("bus %d: %w", busNr, ErrInvalidBus)
	}
	if address < 0 || address > 0x7F {
		return nil, fmt.Errorf("invalid 7-bit address %#x", address)
	}
	return &gobotConnection{engine: a.engine, id: id, addr: uint8(address)}, nil
}

func (a *GobotAdaptor) DefaultI2cBus() int {
	return int(a.defaultBus)
}

// gobotConnection maps the SMBus style operations onto write and read
// transactions. Register reads are a write of the register followed by a
// separate read; words are little endian.
type gobotConnection struct {
	engine *Engine
	id     BusID
	addr   uint8
}

func (c *gobotConnection) write(buf []byte) error {
	if err := c.engine.MasterWrite(c.id, c.addr, buf).Err(); err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", c.addr, err)
	}
	return nil
}

func (c *gobotConnection) read(buf []byte) error {
	if err := c.engine.MasterRead(c.id, c.addr, buf).Err(); err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", c.addr, err)
	}
	return nil
}

func (c *gobotConnection) Read(b []byte) (int, error) {
	if err := c.read(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (c *gobotConnection) Write(b []byte) (int, error) {
	if err := c.write(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (c *gobotConnection) Close() error {
	return nil
}

func (c *gobotConnection) ReadByte() (byte, error) {
	buf := []byte{0}
	err := c.read(buf)
	return buf[0], err
}

func (c *gobotConnection) ReadByteData(reg uint8) (uint8, error) {
	buf := []byte{0}
	err := c.ReadBlockData(reg, buf)
	return buf[0], err
}

func (c *gobotConnection) ReadWordData(reg uint8) (uint16, error) {
	buf := []byte{0, 0}
	err := c.ReadBlockData(reg, buf)
	return binary.LittleEndian.Uint16(buf), err
}

func (c *gobotConnection) ReadBlockData(reg uint8, b []byte) error {
	if err := c.write([]byte{reg}); err != nil {
		return err
	}
	return c.read(b)
}

func (c *gobotConnection) WriteByte(val byte) error {
	return c.write([]byte{val})
}

func (c *gobotConnection) WriteByteData(reg uint8, val uint8) error {
	return c.write([]byte{reg, val})
}

func (c *gobotConnection) WriteWordData(reg uint8, val uint16) error {
	return c.write(binary.LittleEndian.AppendUint16([]byte{reg}, val))
}

func (c *gobotConnection) WriteBlockData(reg uint8, b []byte) error {
	return c.write(append([]byte{reg}, b...))
}

func (c *gobotConnection) WriteBytes(b []byte) error {
	return c.write(b)
}
