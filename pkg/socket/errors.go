package socket

import (
	"errors"
	"fmt"

	"github.com/BobCatC/CodableWebsocket/pkg/transport"
)

var (
	// ErrConnectionClosed ends a stream whose connection is gone.
	ErrConnectionClosed = errors.New("socket: connection closed")
	// ErrEncode reports a typed value the codec could not marshal. The item is
	// dropped and the connection stays open.
	ErrEncode = errors.New("socket: encode failed")
	// ErrSend reports a frame the transport failed to write.
	ErrSend = errors.New("socket: send failed")
	// ErrInvalidItem rejects the zero Item.
	ErrInvalidItem = errors.New("socket: invalid item")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("socket: adapter closed")
)

// CloseError is the terminal error of a stream whose connection closed.
type CloseError struct {
	Code transport.CloseCode
	Err  error
}

func (e *CloseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("socket: connection closed (%d %s)", int(e.Code), e.Code)
	}
	return fmt.Sprintf("socket: connection closed (%d %s): %v", int(e.Code), e.Code, e.Err)
}

func (e *CloseError) Unwrap() error { return e.Err }

func (e *CloseError) Is(target error) bool { return target == ErrConnectionClosed }

// CloseCodeOf extracts the close code carried by err, or CloseInvalid.
func CloseCodeOf(err error) transport.CloseCode {
	var ce *CloseError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return transport.CloseInvalid
}
