package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// CloseCode is a WebSocket close status code (RFC 6455 section 7.4).
// CloseInvalid means the connection has not been observed closed.
type CloseCode int

const (
	CloseInvalid            CloseCode = 0
	CloseNormal             CloseCode = 1000
	CloseGoingAway          CloseCode = 1001
	CloseProtocolError      CloseCode = 1002
	CloseUnsupportedData    CloseCode = 1003
	CloseNoStatus           CloseCode = 1005
	CloseAbnormal           CloseCode = 1006
	CloseInvalidPayload     CloseCode = 1007
	ClosePolicyViolation    CloseCode = 1008
	CloseMessageTooBig      CloseCode = 1009
	CloseMandatoryExtension CloseCode = 1010
	CloseInternalError      CloseCode = 1011
)

func (c CloseCode) String() string {
	switch c {
	case CloseInvalid:
		return "invalid"
	case CloseNormal:
		return "normal"
	case CloseGoingAway:
		return "going-away"
	case CloseProtocolError:
		return "protocol-error"
	case CloseUnsupportedData:
		return "unsupported-data"
	case CloseNoStatus:
		return "no-status"
	case CloseAbnormal:
		return "abnormal"
	case CloseInvalidPayload:
		return "invalid-payload"
	case ClosePolicyViolation:
		return "policy-violation"
	case CloseMessageTooBig:
		return "message-too-big"
	case CloseMandatoryExtension:
		return "mandatory-extension"
	case CloseInternalError:
		return "internal-error"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// State is the lifecycle of a connection.
type State int

const (
	StateOpen State = iota
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Status tracks the lifecycle of one connection. The first recorded close
// code wins. The zero value is an open connection.
type Status struct {
	mu      sync.RWMutex
	closing bool
	code    CloseCode
}

// Code returns the recorded close code or CloseInvalid.
func (s *Status) Code() CloseCode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.code
}

// State derives the lifecycle state.
func (s *Status) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.code != CloseInvalid:
		return StateClosed
	case s.closing:
		return StateClosing
	default:
		return StateOpen
	}
}

// MarkClosing records that a local close handshake has started.
func (s *Status) MarkClosing() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
}

// MarkClosed records code unless a code is already set. It reports whether
// this call recorded it.
func (s *Status) MarkClosed(code CloseCode) bool {
	if code == CloseInvalid {
		code = CloseNoStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.code != CloseInvalid {
		return false
	}
	s.code = code
	return true
}

// IsConnectionLost reports errors that mean the underlying connection is gone
// even though no close frame was seen.
func IsConnectionLost(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, ErrClosed)
}
