package sim

import (
	"slices"
	"sync"
)

var (
	_ Target = &Memory{}
	_ Target = &Scripted{}
	_ Target = &block{}
)

type MemoryOpts struct {
	AddressBytes int
	PageSize     int
	WriteCycle   int
}

type MemoryOpt func(*MemoryOpts)

// WithAddressBytes sets the width of the word address sent before data.
func WithAddressBytes(n int) MemoryOpt {
	return func(o *MemoryOpts) {
		o.AddressBytes = n
	}
}

// WithPageSize makes writes wrap inside pages of n bytes. Zero disables
// wrapping.
func WithPageSize(n int) MemoryOpt {
	return func(o *MemoryOpts) {
		o.PageSize = n
	}
}

// WithWriteCycle rejects the next n address selections after a write, the
// way an EEPROM busy with its internal write cycle does.
func WithWriteCycle(n int) MemoryOpt {
	return func(o *MemoryOpts) {
		o.WriteCycle = n
	}
}

// Memory is an EEPROM-like target: a write transaction starts with the
// word address, reads continue from the current pointer, which advances
// after every byte.
type Memory struct {
	mx      sync.Mutex
	config  MemoryOpts
	data    []byte
	ptr     int
	base    int
	pending int
	wrote   bool
	busy    int
	selects int
}

func NewMemory(size int, opts ...MemoryOpt) *Memory {
	config := MemoryOpts{
		AddressBytes: 1,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Memory{
		config: config,
		data:   make([]byte, size),
	}
}

// Block returns a view of the memory whose word addresses start at
// offset. It serves parts that take the high address bits from the device
// address.
func (m *Memory) Block(offset int) Target {
	return &block{m: m, offset: offset}
}

func (m *Memory) Bytes() []byte {
	m.mx.Lock()
	defer m.mx.Unlock()
	return slices.Clone(m.data)
}

func (m *Memory) Load(offset int, data []byte) {
	m.mx.Lock()
	defer m.mx.Unlock()
	copy(m.data[offset:], data)
}

// Selections counts every address selection, rejected ones included.
func (m *Memory) Selections() int {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.selects
}

func (m *Memory) Select(read bool) bool {
	return m.selectAt(0, read)
}

func (m *Memory) Write(b byte) bool {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.pending > 0 {
		m.ptr = m.ptr<<8 | int(b)
		m.pending--
		if m.pending == 0 {
			m.ptr = (m.base + m.ptr) % len(m.data)
		}
		return true
	}
	m.data[m.ptr] = b
	m.wrote = true
	m.ptr = m.next(m.ptr, true)
	return true
}

func (m *Memory) Read() byte {
	m.mx.Lock()
	defer m.mx.Unlock()
	b := m.data[m.ptr]
	m.ptr = m.next(m.ptr, false)
	return b
}

func (m *Memory) Stop() {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.wrote {
		m.busy = m.config.WriteCycle
	}
	m.wrote = false
	m.pending = 0
}

func (m *Memory) selectAt(offset int, read bool) bool {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.selects++
	if m.busy > 0 {
		m.busy--
		return false
	}
	if !read {
		m.base = offset
		m.ptr = 0
		m.pending = m.config.AddressBytes
	}
	return true
}

func (m *Memory) next(ptr int, write bool) int {
	if write && m.config.PageSize > 0 {
		page := ptr - ptr%m.config.PageSize
		return page + (ptr+1-page)%m.config.PageSize
	}
	return (ptr + 1) % len(m.data)
}

type block struct {
	m      *Memory
	offset int
}

func (b *block) Select(read bool) bool {
	return b.m.selectAt(b.offset, read)
}

func (b *block) Write(v byte) bool {
	return b.m.Write(v)
}

func (b *block) Read() byte {
	return b.m.Read()
}

func (b *block) Stop() {
	b.m.Stop()
}

// Scripted is a target with fixed responses: it serves Data to reads and
// can reject its address or a given written byte.
type Scripted struct {
	mx          sync.Mutex
	Data        []byte
	NackAddress bool
	// NackAt is the index of the written byte to reject; negative accepts
	// everything.
	NackAt int

	written []byte
	reads   int
	stops   int
}

func NewScripted(data ...byte) *Scripted {
	return &Scripted{Data: data, NackAt: -1}
}

func (s *Scripted) Select(read bool) bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	return !s.NackAddress
}

func (s *Scripted) Write(b byte) bool {
	s.mx.Lock()
	defer s.mx.Unlock()
	i := len(s.written)
	s.written = append(s.written, b)
	return i != s.NackAt
}

func (s *Scripted) Read() byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	defer func() { s.reads++ }()
	if s.reads < len(s.Data) {
		return s.Data[s.reads]
	}
	return 0xFF
}

func (s *Scripted) Stop() {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.stops++
}

func (s *Scripted) Written() []byte {
	s.mx.Lock()
	defer s.mx.Unlock()
	return slices.Clone(s.written)
}

func (s *Scripted) Stops() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.stops
}
