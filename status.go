package i2cmaster

import "fmt"

// Status is the outcome of a single master transaction. Exactly one value is
// returned per operation.
type Status int

const (
	StatusOK Status = iota
	StatusNullHandle
	StatusTimeout
	StatusAddrTimeout
	StatusBtfTimeout
	StatusTxeTimeout
	StatusNack
	StatusAckFailure
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNullHandle:
		return "null handle"
	case StatusTimeout:
		return "timeout"
	case StatusAddrTimeout:
		return "address timeout"
	case StatusBtfTimeout:
		return "byte transfer timeout"
	case StatusTxeTimeout:
		return "transmit empty timeout"
	case StatusNack:
		return "nack"
	case StatusAckFailure:
		return "acknowledge failure"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// IsTimeout reports whether the status is the generic timeout or one of its
// specializations.
func (s Status) IsTimeout() bool {
	switch s {
	case StatusTimeout, StatusAddrTimeout, StatusBtfTimeout, StatusTxeTimeout:
		return true
	}
	return false
}

// StatusError carries a non-OK status as an error.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return "i2c: " + e.Status.String()
}

// Is makes every specialized timeout match ErrTimeout.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	if !ok {
		return false
	}
	if t.Status == e.Status {
		return true
	}
	return t.Status == StatusTimeout && e.Status.IsTimeout()
}

var (
	ErrNullHandle  = &StatusError{Status: StatusNullHandle}
	ErrTimeout     = &StatusError{Status: StatusTimeout}
	ErrAddrTimeout = &StatusError{Status: StatusAddrTimeout}
	ErrBtfTimeout  = &StatusError{Status: StatusBtfTimeout}
	ErrTxeTimeout  = &StatusError{Status: StatusTxeTimeout}
	ErrNack        = &StatusError{Status: StatusNack}
	ErrAckFailure  = &StatusError{Status: StatusAckFailure}
)

// Err returns nil for StatusOK and the matching sentinel otherwise.
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusNullHandle:
		return ErrNullHandle
	case StatusTimeout:
		return ErrTimeout
	case StatusAddrTimeout:
		return ErrAddrTimeout
	case StatusBtfTimeout:
		return ErrBtfTimeout
	case StatusTxeTimeout:
		return ErrTxeTimeout
	case StatusNack:
		return ErrNack
	case StatusAckFailure:
		return ErrAckFailure
	default:
		return &StatusError{Status: s}
	}
}
