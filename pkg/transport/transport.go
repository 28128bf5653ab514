package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind identifies the socket library behind a Binding.
type Kind int

const (
	KindUnknown Kind = iota
	KindCoder
	KindGorilla
	KindMem
)

func (k Kind) String() string {
	switch k {
	case KindCoder:
		return "coder"
	case KindGorilla:
		return "gorilla"
	case KindMem:
		return "mem"
	default:
		return "unknown"
	}
}

var (
	// ErrClosed is returned by bindings used after Close.
	ErrClosed = errors.New("transport: binding closed")
	// ErrUnknownFrame reports a frame kind outside of Text/Binary.
	ErrUnknownFrame = errors.New("transport: unknown frame kind")
)

// FrameKind tags a Frame as text or binary.
type FrameKind int

const (
	FrameText FrameKind = iota + 1
	FrameBinary
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	default:
		return fmt.Sprintf("frame(%d)", int(k))
	}
}

// Frame is one WebSocket message as delivered by the transport.
// Exactly one of Text or Data is meaningful, selected by Kind.
type Frame struct {
	Kind FrameKind
	Text string
	Data []byte
}

// TextFrame returns a text frame carrying s.
func TextFrame(s string) Frame { return Frame{Kind: FrameText, Text: s} }

// BinaryFrame returns a binary frame carrying b.
func BinaryFrame(b []byte) Frame { return Frame{Kind: FrameBinary, Data: b} }

// Payload returns the frame bytes regardless of kind.
func (f Frame) Payload() []byte {
	if f.Kind == FrameText {
		return []byte(f.Text)
	}
	return f.Data
}

// Binding owns a single live WebSocket connection.
//
// Send and Receive may be called from several goroutines; implementations
// serialize concurrent readers and concurrent writers themselves. No retries
// are performed: every failure is returned to the caller.
type Binding interface {
	Kind() Kind
	// Send writes one frame.
	Send(ctx context.Context, f Frame) error
	// Receive blocks until the next frame arrives or the connection fails.
	Receive(ctx context.Context) (Frame, error)
	// CloseStatus reports CloseInvalid while the connection is open and the
	// close code once it is known to be closed.
	CloseStatus() CloseCode
	// State reports the lifecycle state of the connection.
	State() State
	// Subprotocol returns the negotiated subprotocol, if any.
	Subprotocol() string
	// Close sends a close frame with code and reason and releases the connection.
	Close(code CloseCode, reason string) error
}

// DialOptions configures the opening handshake.
type DialOptions struct {
	// Protocols lists the requested subprotocols in preference order.
	Protocols []string
	// Header is sent with the handshake request (auth, cookies, origin).
	Header http.Header
	// HTTPClient overrides the client used for the handshake.
	HTTPClient *http.Client
	// HandshakeTimeout bounds the opening handshake; zero means no limit
	// beyond the dial context.
	HandshakeTimeout time.Duration
	// ReadLimit is the maximum accepted message size in bytes; zero keeps
	// the library default.
	ReadLimit int64
	// Compression negotiates permessage-deflate when supported.
	Compression bool
}

// Dialer eagerly opens Bindings.
type Dialer interface {
	Kind() Kind
	// Dial connects to endpoint (ws:// or wss:// URL) and returns once the
	// handshake has completed.
	Dial(ctx context.Context, endpoint string, opts DialOptions) (Binding, error)
}
