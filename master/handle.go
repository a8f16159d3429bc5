package master

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"

	"github.com/mklimuk/i2cmaster/regs"
)

// BusID identifies a physical bus instance.
type BusID int

const (
	Bus1 BusID = 1
	Bus2 BusID = 2
)

// MaxBuses is the number of bus instances a Registry can hold.
const MaxBuses = 2

var (
	ErrInvalidBus  = errors.New("invalid bus id")
	ErrBusAttached = errors.New("bus already attached")
)

// Pins describes the clock and data line assignment of a bus. The engine
// never reads it during a transaction.
type Pins struct {
	SCL      string
	SDA      string
	SCLPull  gpio.Pull
	SDAPull  gpio.Pull
	Alt      uint8
	EventIRQ int
	ErrorIRQ int
}

// Handle is the per-bus state borrowed by the engine for one call.
type Handle struct {
	ID      BusID
	Name    string
	Surface regs.Surface
	Pins    Pins
	Timing  regs.Timing
	// Yielder overrides the engine yielder for this bus when set.
	Yielder Yielder
}

func (h *Handle) String() string {
	if h.Name != "" {
		return h.Name
	}
	return fmt.Sprintf("I2C%d", h.ID)
}

// Registry owns the bus handles. Lookups are safe for concurrent use; the
// handles themselves are not: callers serialize transactions per bus.
type Registry struct {
	mx      sync.RWMutex
	handles [MaxBuses]*Handle
}

func NewRegistry(handles ...*Handle) (*Registry, error) {
	r := &Registry{}
	for _, h := range handles {
		if err := r.Attach(h); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func index(id BusID) (int, bool) {
	i := int(id) - 1
	return i, i >= 0 && i < MaxBuses
}

func (r *Registry) Attach(h *Handle) error {
	if h == nil || h.Surface == nil {
		return fmt.Errorf("%w: handle without control surface", ErrInvalidBus)
	}
	i, ok := index(h.ID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidBus, h.ID)
	}
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.handles[i] != nil {
		return fmt.Errorf("%w: %d", ErrBusAttached, h.ID)
	}
	r.handles[i] = h
	return nil
}

// Lookup resolves a bus id; ok is false when nothing is attached.
func (r *Registry) Lookup(id BusID) (*Handle, bool) {
	if r == nil {
		return nil, false
	}
	i, ok := index(id)
	if !ok {
		return nil, false
	}
	r.mx.RLock()
	defer r.mx.RUnlock()
	h := r.handles[i]
	return h, h != nil
}

func (r *Registry) Detach(id BusID) (*Handle, bool) {
	if r == nil {
		return nil, false
	}
	i, ok := index(id)
	if !ok {
		return nil, false
	}
	r.mx.Lock()
	defer r.mx.Unlock()
	h := r.handles[i]
	r.handles[i] = nil
	return h, h != nil
}

// Handles returns the attached handles ordered by id.
func (r *Registry) Handles() []*Handle {
	if r == nil {
		return nil
	}
	r.mx.RLock()
	defer r.mx.RUnlock()
	res := make([]*Handle, 0, MaxBuses)
	for _, h := range r.handles {
		if h != nil {
			res = append(res, h)
		}
	}
	return res
}
