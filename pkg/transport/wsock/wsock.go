// Package wsock binds github.com/coder/websocket connections to the transport
// contract. It is the default dialer.
package wsock

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/coder/websocket"

	"github.com/BobCatC/CodableWebsocket/pkg/transport"
)

// Dialer opens coder/websocket connections.
type Dialer struct{}

var _ transport.Dialer = Dialer{}

func New() Dialer { return Dialer{} }

func (Dialer) Kind() transport.Kind { return transport.KindCoder }

func (Dialer) Dial(ctx context.Context, endpoint string, opts transport.DialOptions) (transport.Binding, error) {
	if opts.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.HandshakeTimeout)
		defer cancel()
	}
	dopts := &websocket.DialOptions{
		HTTPClient:   opts.HTTPClient,
		HTTPHeader:   opts.Header,
		Subprotocols: opts.Protocols,
	}
	if opts.Compression {
		dopts.CompressionMode = websocket.CompressionContextTakeover
	}
	c, resp, err := websocket.Dial(ctx, endpoint, dopts)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("wsock: dial %s: %w", endpoint, err)
	}
	if opts.ReadLimit > 0 {
		c.SetReadLimit(opts.ReadLimit)
	}
	return Wrap(c), nil
}

// Binding adapts a *websocket.Conn. coder/websocket already serializes
// concurrent readers and writers.
type Binding struct {
	c      *websocket.Conn
	status transport.Status
}

var _ transport.Binding = (*Binding)(nil)

// Wrap binds an established connection, e.g. one returned by websocket.Accept.
func Wrap(c *websocket.Conn) *Binding { return &Binding{c: c} }

func (b *Binding) Kind() transport.Kind { return transport.KindCoder }

func (b *Binding) Subprotocol() string { return b.c.Subprotocol() }

func (b *Binding) CloseStatus() transport.CloseCode { return b.status.Code() }

func (b *Binding) State() transport.State { return b.status.State() }

func (b *Binding) Send(ctx context.Context, f transport.Frame) error {
	var typ websocket.MessageType
	switch f.Kind {
	case transport.FrameText:
		typ = websocket.MessageText
	case transport.FrameBinary:
		typ = websocket.MessageBinary
	default:
		return fmt.Errorf("wsock: %w: %s", transport.ErrUnknownFrame, f.Kind)
	}
	if err := b.c.Write(ctx, typ, f.Payload()); err != nil {
		return b.fail(ctx, "send", err)
	}
	return nil
}

func (b *Binding) Receive(ctx context.Context) (transport.Frame, error) {
	typ, p, err := b.c.Read(ctx)
	if err != nil {
		return transport.Frame{}, b.fail(ctx, "receive", err)
	}
	switch typ {
	case websocket.MessageText:
		return transport.TextFrame(string(p)), nil
	case websocket.MessageBinary:
		return transport.BinaryFrame(p), nil
	default:
		return transport.Frame{}, fmt.Errorf("wsock: %w: %v", transport.ErrUnknownFrame, typ)
	}
}

func (b *Binding) Close(code transport.CloseCode, reason string) error {
	if code == transport.CloseInvalid {
		code = transport.CloseNormal
	}
	b.status.MarkClosing()
	err := b.c.Close(websocket.StatusCode(code), reason)
	b.status.MarkClosed(code)
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("wsock: close: %w", err)
	}
	return nil
}

// fail records the close status implied by err. coder/websocket closes the
// connection when a read or write context expires, so those count as closed.
func (b *Binding) fail(ctx context.Context, op string, err error) error {
	if code := websocket.CloseStatus(err); code != -1 {
		b.status.MarkClosed(transport.CloseCode(code))
		return fmt.Errorf("wsock: %s: %w: %w", op, transport.ErrClosed, err)
	}
	if ctx.Err() != nil || transport.IsConnectionLost(err) {
		b.status.MarkClosed(transport.CloseAbnormal)
		return fmt.Errorf("wsock: %s: %w: %w", op, transport.ErrClosed, err)
	}
	return fmt.Errorf("wsock: %s: %w", op, err)
}
