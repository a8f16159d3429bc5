package eeprom

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/i2cmaster"
)

// MockI2CBus is a mock implementation of i2cmaster.I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func quiet() Opt {
	return WithLogger(slog.New(slog.DiscardHandler))
}

func TestReadAt(t *testing.T) {
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte{0x10}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(0x50), mock.Anything).Return([]byte{1, 2, 3}, nil).Once()

	mem := New(bus, quiet())
	buf := make([]byte, 3)
	require.NoError(t, mem.ReadAt(context.Background(), 0x10, buf))
	assert.Equal(t, []byte{1, 2, 3}, buf)
	bus.AssertExpectations(t)
}

func TestReadAtSplitsBlocks(t *testing.T) {
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte{0xFE}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(0x50), mock.MatchedBy(func(b []byte) bool { return len(b) == 2 })).Return([]byte{1, 2}, nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(0x51), []byte{0x00}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(0x51), mock.MatchedBy(func(b []byte) bool { return len(b) == 3 })).Return([]byte{3, 4, 5}, nil).Once()

	mem := New(bus, WithModel(Model24C16), quiet())
	buf := make([]byte, 5)
	require.NoError(t, mem.ReadAt(context.Background(), 0xFE, buf))
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, buf)
	bus.AssertExpectations(t)
}

func TestTwoByteAddress(t *testing.T) {
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", mock.Anything, byte(0x54), []byte{0x12, 0x34}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(0x54), mock.Anything).Return([]byte{9}, nil).Once()

	mem := New(bus, WithModel(Model24C256), WithAddress(0x54), quiet())
	buf := make([]byte, 1)
	require.NoError(t, mem.ReadAt(context.Background(), 0x1234, buf))
	assert.Equal(t, byte(9), buf[0])
	assert.Equal(t, 32768, mem.Size())
	assert.Equal(t, 64, mem.PageSize())
	bus.AssertExpectations(t)
}

func TestWriteAtSplitsPages(t *testing.T) {
	bus := &MockI2CBus{}
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte{0x05, 1, 2, 3}).Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte{0x08, 4, 5, 6, 7, 8, 9, 10, 11}).Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte{0x10, 12}).Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte(nil)).Return(nil).Times(3)

	mem := New(bus, WithWriteCycle(0), quiet())
	require.NoError(t, mem.WriteAt(context.Background(), 0x05, data))
	bus.AssertExpectations(t)
}

func TestWriteAtPollsUntilReady(t *testing.T) {
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte{0x00, 0xAA}).Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte(nil)).Return(i2cmaster.ErrAckFailure).Twice()
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte(nil)).Return(nil).Once()

	mem := New(bus, WithWriteCycle(0), quiet())
	require.NoError(t, mem.WriteAt(context.Background(), 0, []byte{0xAA}))
	bus.AssertExpectations(t)
}

func TestWriteAtNotReady(t *testing.T) {
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte{0x00, 0xAA}).Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte(nil)).Return(i2cmaster.ErrAckFailure).Times(3)

	mem := New(bus, WithWriteCycle(0), WithPollAttempts(3), quiet())
	assert.ErrorIs(t, mem.WriteAt(context.Background(), 0, []byte{0xAA}), ErrNotReady)
	bus.AssertExpectations(t)
}

func TestErrorsReleaseBus(t *testing.T) {
	boom := errors.New("boom")
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte{0x00}).Return(nil).Once()
	bus.On("ReadFromAddr", mock.Anything, byte(0x50), mock.Anything).Return(nil, i2cmaster.ErrTimeout).Once()
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte{0x00, 1}).Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte(nil)).Return(boom).Once()
	bus.On("Release", mock.Anything).Return(nil).Twice()

	mem := New(bus, WithWriteCycle(0), quiet())
	err := mem.ReadAt(context.Background(), 0, make([]byte, 4))
	assert.ErrorIs(t, err, i2cmaster.ErrTimeout)
	err = mem.WriteAt(context.Background(), 0, []byte{1})
	assert.ErrorIs(t, err, boom)
	bus.AssertExpectations(t)
}

func TestOutOfRange(t *testing.T) {
	bus := &MockI2CBus{}
	mem := New(bus, quiet())
	ctx := context.Background()
	assert.ErrorIs(t, mem.ReadAt(ctx, 250, make([]byte, 10)), ErrOutOfRange)
	assert.ErrorIs(t, mem.WriteAt(ctx, -1, []byte{1}), ErrOutOfRange)
	assert.ErrorIs(t, mem.Fill(ctx, 0, 257, 0xFF), ErrOutOfRange)
	bus.AssertNotCalled(t, "WriteToAddr", mock.Anything, mock.Anything, mock.Anything)
}

func TestWriteAtCanceled(t *testing.T) {
	bus := &MockI2CBus{}
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte{0x00, 1}).Return(nil).Once()
	bus.On("WriteToAddr", mock.Anything, byte(0x50), []byte(nil)).Return(i2cmaster.ErrAckFailure)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mem := New(bus, quiet())
	assert.ErrorIs(t, mem.WriteAt(ctx, 0, []byte{1}), context.Canceled)
}
