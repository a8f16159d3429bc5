// Package sim is an in-memory I2C master peripheral with attached targets.
// It implements the control surface consumed by the transaction engine and
// advances simulated bus time every time it is yielded to.
package sim

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/mklimuk/i2cmaster/regs"
)

var (
	_ regs.Surface      = &Peripheral{}
	_ regs.Configurable = &Peripheral{}
	_ regs.Resetter     = &Peripheral{}
)

type EventKind int

const (
	EventStart EventKind = iota
	EventAddress
	EventData
	EventStop
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventAddress:
		return "address"
	case EventData:
		return "data"
	case EventStop:
		return "stop"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one bus condition as seen on the wire.
type Event struct {
	Kind EventKind
	Addr uint8
	Read bool
	Byte byte
	Ack  bool
}

func (e Event) String() string {
	switch e.Kind {
	case EventAddress:
		return fmt.Sprintf("address %#02x read=%t ack=%t", e.Addr, e.Read, e.Ack)
	case EventData:
		return fmt.Sprintf("data %#02x read=%t ack=%t", e.Byte, e.Read, e.Ack)
	default:
		return e.Kind.String()
	}
}

// Target is a device attached to the simulated bus.
type Target interface {
	// Select is called when the address matches; false rejects it.
	Select(read bool) bool
	// Write receives a byte from the master; false rejects it.
	Write(b byte) bool
	// Read supplies the next byte for the master.
	Read() byte
	// Stop ends the current transaction.
	Stop()
}

type phase int

const (
	phaseIdle phase = iota
	phaseStart
	phaseAddress
	phaseTransmit
	phaseReceive
)

type op int

const (
	opNone op = iota
	opStart
	opAddress
	opShift
)

type reg struct {
	v    byte
	full bool
}

type Opts struct {
	Latency int
}

type Opt func(*Opts)

// WithLatency sets the number of yields a bus condition or a byte takes to
// complete. Zero completes everything as soon as it is requested.
func WithLatency(yields int) Opt {
	return func(o *Opts) {
		o.Latency = yields
	}
}

// Peripheral simulates the register-level behaviour of the master
// peripheral: flags, command effects, the data and shift registers, and
// the acknowledge logic including the two-byte POS mode.
type Peripheral struct {
	mx      sync.Mutex
	config  Opts
	targets map[uint8]Target
	frozen  map[regs.Flag]bool

	trace    []Event
	commands []regs.Command
	yields   int
	resets   int
	timing   *regs.Timing

	busy, sb, addr, af, btf, txe, rxne bool
	ack, pos                           bool

	phase     phase
	target    Target
	read      bool
	pending   byte
	nackArmed bool
	halted    bool
	stopAfter bool

	dr, shift reg
	op        op
	countdown int
}

func New(opts ...Opt) *Peripheral {
	config := Opts{}
	for _, opt := range opts {
		opt(&config)
	}
	return &Peripheral{
		config:  config,
		targets: map[uint8]Target{},
		frozen:  map[regs.Flag]bool{},
	}
}

// Attach connects t at the 7-bit address addr.
func (p *Peripheral) Attach(addr uint8, t Target) {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.targets[addr] = t
}

func (p *Peripheral) Detach(addr uint8) {
	p.mx.Lock()
	defer p.mx.Unlock()
	delete(p.targets, addr)
}

// Addresses lists the attached target addresses in ascending order.
func (p *Peripheral) Addresses() []uint8 {
	p.mx.Lock()
	defer p.mx.Unlock()
	return slices.Sorted(maps.Keys(p.targets))
}

// Freeze pins the observed value of f regardless of the bus state.
func (p *Peripheral) Freeze(f regs.Flag, value bool) {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.frozen[f] = value
}

func (p *Peripheral) Unfreeze(f regs.Flag) {
	p.mx.Lock()
	defer p.mx.Unlock()
	delete(p.frozen, f)
}

func (p *Peripheral) Flag(f regs.Flag) bool {
	p.mx.Lock()
	defer p.mx.Unlock()
	if v, ok := p.frozen[f]; ok {
		return v
	}
	switch f {
	case regs.FlagBusy:
		return p.busy
	case regs.FlagStartSent:
		return p.sb
	case regs.FlagAddrSent:
		return p.addr
	case regs.FlagAckFailure:
		return p.af
	case regs.FlagByteTransferFinished:
		return p.btf
	case regs.FlagTxEmpty:
		return p.txe
	case regs.FlagRxNotEmpty:
		return p.rxne
	}
	return false
}

func (p *Peripheral) Do(c regs.Command) {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.commands = append(p.commands, c)
	switch c {
	case regs.CmdStart:
		p.start()
	case regs.CmdStop:
		p.stop()
	case regs.CmdAckEnable:
		p.ack = true
	case regs.CmdAckDisable:
		p.ack = false
	case regs.CmdPosEnable:
		p.pos = true
	case regs.CmdPosDisable:
		p.pos = false
	case regs.CmdClearAddr:
		p.clearAddr()
	case regs.CmdClearAckFailure:
		p.af = false
	}
}

func (p *Peripheral) WriteData(b byte) {
	p.mx.Lock()
	defer p.mx.Unlock()
	switch p.phase {
	case phaseStart:
		if !p.sb {
			return
		}
		p.sb = false
		p.pending = b
		p.phase = phaseAddress
		p.schedule(opAddress)
	case phaseTransmit:
		p.btf = false
		if !p.shift.full && p.op == opNone {
			p.shift = reg{v: b, full: true}
			p.txe = true
			p.schedule(opShift)
			return
		}
		if !p.dr.full {
			p.dr = reg{v: b, full: true}
			p.txe = false
		}
	}
}

func (p *Peripheral) ReadData() byte {
	p.mx.Lock()
	defer p.mx.Unlock()
	b := p.dr.v
	if p.phase == phaseTransmit {
		return b
	}
	if p.shift.full {
		p.dr = p.shift
		p.shift = reg{}
	} else {
		p.dr = reg{}
	}
	p.rxne = p.dr.full
	p.btf = false
	p.clock()
	return b
}

// Yield advances simulated time by one step. It lets the peripheral act as
// the engine yielder.
func (p *Peripheral) Yield() {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.yields++
	if p.op == opNone {
		return
	}
	p.countdown--
	if p.countdown <= 0 {
		p.complete()
	}
}

// Settle completes every pending bus operation.
func (p *Peripheral) Settle() {
	p.mx.Lock()
	defer p.mx.Unlock()
	for range 1024 {
		if p.op == opNone {
			return
		}
		p.complete()
	}
}

// Idle reports whether the bus is released.
func (p *Peripheral) Idle() bool {
	p.mx.Lock()
	defer p.mx.Unlock()
	return !p.busy
}

func (p *Peripheral) Trace() []Event {
	p.mx.Lock()
	defer p.mx.Unlock()
	return slices.Clone(p.trace)
}

func (p *Peripheral) Commands() []regs.Command {
	p.mx.Lock()
	defer p.mx.Unlock()
	return slices.Clone(p.commands)
}

func (p *Peripheral) Yields() int {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.yields
}

// ClearTrace drops the recorded events and commands.
func (p *Peripheral) ClearTrace() {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.trace = nil
	p.commands = nil
}

func (p *Peripheral) Configure(t regs.Timing) error {
	if _, _, _, err := t.Values(); err != nil {
		return err
	}
	p.mx.Lock()
	defer p.mx.Unlock()
	p.timing = &t
	return nil
}

// Timing returns the last configured timing, if any.
func (p *Peripheral) Timing() (regs.Timing, bool) {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.timing == nil {
		return regs.Timing{}, false
	}
	return *p.timing, true
}

// Reset returns the peripheral to its power-on state. Targets, frozen
// flags and the trace are kept.
func (p *Peripheral) Reset() {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.resets++
	p.timing = nil
	p.busy, p.sb, p.addr, p.af, p.btf, p.txe, p.rxne = false, false, false, false, false, false, false
	p.ack, p.pos = false, false
	p.phase = phaseIdle
	p.target = nil
	p.nackArmed, p.halted, p.stopAfter = false, false, false
	p.dr, p.shift = reg{}, reg{}
	p.op = opNone
}

func (p *Peripheral) Resets() int {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.resets
}

func (p *Peripheral) record(e Event) {
	p.trace = append(p.trace, e)
}

func (p *Peripheral) schedule(o op) {
	p.op = o
	p.countdown = p.config.Latency
	if p.countdown <= 0 {
		p.complete()
	}
}

func (p *Peripheral) complete() {
	o := p.op
	p.op = opNone
	switch o {
	case opStart:
		p.sb = true
	case opAddress:
		p.addressed()
	case opShift:
		switch p.phase {
		case phaseTransmit:
			p.transmitted()
		case phaseReceive:
			p.received()
		}
	}
}

func (p *Peripheral) start() {
	p.record(Event{Kind: EventStart})
	p.busy = true
	p.phase = phaseStart
	p.sb, p.addr, p.btf, p.txe, p.rxne = false, false, false, false, false
	p.dr, p.shift = reg{}, reg{}
	p.schedule(opStart)
}

func (p *Peripheral) addressed() {
	addr, read := p.pending>>1, p.pending&1 == 1
	t := p.targets[addr]
	ack := t != nil && t.Select(read)
	p.record(Event{Kind: EventAddress, Addr: addr, Read: read, Ack: ack})
	if !ack {
		p.af = true
		return
	}
	p.target = t
	p.read = read
	p.addr = true
}

func (p *Peripheral) clearAddr() {
	if !p.addr {
		return
	}
	p.addr = false
	if p.read {
		p.phase = phaseReceive
		p.nackArmed, p.halted = false, false
		p.clock()
		return
	}
	p.phase = phaseTransmit
	p.txe = true
}

// clock starts receiving the next byte when there is room for it.
func (p *Peripheral) clock() {
	if p.phase != phaseReceive || p.halted || p.op != opNone || p.shift.full {
		return
	}
	p.schedule(opShift)
}

func (p *Peripheral) transmitted() {
	b := p.shift.v
	p.shift = reg{}
	ack := p.target.Write(b)
	p.record(Event{Kind: EventData, Byte: b, Ack: ack})
	if !ack {
		p.af = true
		p.txe, p.btf = false, false
		p.dr = reg{}
		return
	}
	if p.dr.full {
		p.shift, p.dr = p.dr, reg{}
		p.txe = true
		p.schedule(opShift)
		return
	}
	p.btf = true
}

func (p *Peripheral) received() {
	b := p.target.Read()
	acked := p.ack
	if p.pos {
		acked = !p.nackArmed
		p.nackArmed = !p.ack
	}
	p.record(Event{Kind: EventData, Read: true, Byte: b, Ack: acked})
	if !p.dr.full {
		p.dr = reg{v: b, full: true}
		p.rxne = true
	} else {
		p.shift = reg{v: b, full: true}
		p.btf = true
	}
	if !acked {
		p.halted = true
	}
	if p.stopAfter {
		p.finishStop()
		return
	}
	p.clock()
}

func (p *Peripheral) stop() {
	if !p.busy {
		return
	}
	if p.phase == phaseReceive && p.op == opShift {
		p.stopAfter = true
		return
	}
	p.finishStop()
}

// finishStop releases the bus. Received bytes stay readable.
func (p *Peripheral) finishStop() {
	p.record(Event{Kind: EventStop})
	if p.target != nil {
		p.target.Stop()
	}
	if p.phase != phaseReceive {
		p.txe, p.btf = false, false
		p.dr, p.shift = reg{}, reg{}
	}
	p.target = nil
	p.op = opNone
	p.stopAfter = false
	p.busy, p.sb, p.addr = false, false, false
	p.phase = phaseIdle
}
