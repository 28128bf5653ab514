// Package gorilla binds github.com/gorilla/websocket connections to the
// transport contract.
package gorilla

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BobCatC/CodableWebsocket/pkg/transport"
)

// closeGrace bounds the close frame write.
const closeGrace = time.Second

// Dialer opens gorilla/websocket connections.
type Dialer struct{}

var _ transport.Dialer = Dialer{}

func New() Dialer { return Dialer{} }

func (Dialer) Kind() transport.Kind { return transport.KindGorilla }

func (Dialer) Dial(ctx context.Context, endpoint string, opts transport.DialOptions) (transport.Binding, error) {
	d := websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  opts.HandshakeTimeout,
		Subprotocols:      opts.Protocols,
		EnableCompression: opts.Compression,
	}
	if hc := opts.HTTPClient; hc != nil {
		d.Jar = hc.Jar
		if t, ok := hc.Transport.(*http.Transport); ok {
			d.Proxy = t.Proxy
			d.TLSClientConfig = t.TLSClientConfig
			d.NetDialContext = t.DialContext
		}
	}
	c, resp, err := d.DialContext(ctx, endpoint, opts.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("gorilla: dial %s: %w", endpoint, err)
	}
	if opts.ReadLimit > 0 {
		c.SetReadLimit(opts.ReadLimit)
	}
	return Wrap(c), nil
}

// Binding adapts a *websocket.Conn. gorilla supports one concurrent reader
// and one concurrent writer, so both sides are guarded.
type Binding struct {
	c       *websocket.Conn
	readMu  sync.Mutex
	writeMu sync.Mutex
	status  transport.Status
	once    sync.Once
}

var _ transport.Binding = (*Binding)(nil)

// Wrap binds an established connection, e.g. one returned by an Upgrader.
func Wrap(c *websocket.Conn) *Binding { return &Binding{c: c} }

func (b *Binding) Kind() transport.Kind { return transport.KindGorilla }

func (b *Binding) Subprotocol() string { return b.c.Subprotocol() }

func (b *Binding) CloseStatus() transport.CloseCode { return b.status.Code() }

func (b *Binding) State() transport.State { return b.status.State() }

// Send writes one frame. The ctx deadline becomes the write deadline;
// cancelling ctx mid-write closes the binding.
func (b *Binding) Send(ctx context.Context, f transport.Frame) error {
	var typ int
	switch f.Kind {
	case transport.FrameText:
		typ = websocket.TextMessage
	case transport.FrameBinary:
		typ = websocket.BinaryMessage
	default:
		return fmt.Errorf("gorilla: %w: %s", transport.ErrUnknownFrame, f.Kind)
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = b.c.SetWriteDeadline(dl)
		defer func() { _ = b.c.SetWriteDeadline(time.Time{}) }()
	}
	stop := context.AfterFunc(ctx, b.abort)
	defer stop()
	if err := b.c.WriteMessage(typ, f.Payload()); err != nil {
		return b.fail(ctx, "send", err)
	}
	return nil
}

// Receive reads one frame. Cancelling ctx mid-read closes the binding:
// gorilla connections cannot resume after an interrupted read.
func (b *Binding) Receive(ctx context.Context) (transport.Frame, error) {
	b.readMu.Lock()
	defer b.readMu.Unlock()
	stop := context.AfterFunc(ctx, b.abort)
	defer stop()
	typ, p, err := b.c.ReadMessage()
	if err != nil {
		return transport.Frame{}, b.fail(ctx, "receive", err)
	}
	switch typ {
	case websocket.TextMessage:
		return transport.TextFrame(string(p)), nil
	case websocket.BinaryMessage:
		return transport.BinaryFrame(p), nil
	default:
		return transport.Frame{}, fmt.Errorf("gorilla: %w: %d", transport.ErrUnknownFrame, typ)
	}
}

// Close sends a close frame and closes the network connection.
func (b *Binding) Close(code transport.CloseCode, reason string) error {
	var err error
	b.once.Do(func() {
		if code == transport.CloseInvalid {
			code = transport.CloseNormal
		}
		b.status.MarkClosing()
		msg := websocket.FormatCloseMessage(int(code), reason)
		_ = b.c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
		b.status.MarkClosed(code)
		if cerr := b.c.Close(); cerr != nil {
			err = fmt.Errorf("gorilla: close: %w", cerr)
		}
	})
	return err
}

func (b *Binding) abort() {
	b.status.MarkClosed(transport.CloseAbnormal)
	_ = b.c.Close()
}

func (b *Binding) fail(ctx context.Context, op string, err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		b.status.MarkClosed(transport.CloseCode(ce.Code))
		return fmt.Errorf("gorilla: %s: %w: %w", op, transport.ErrClosed, err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("gorilla: %s: %w", op, ctx.Err())
	}
	if errors.Is(err, websocket.ErrCloseSent) || transport.IsConnectionLost(err) {
		b.status.MarkClosed(transport.CloseAbnormal)
		return fmt.Errorf("gorilla: %s: %w: %w", op, transport.ErrClosed, err)
	}
	return fmt.Errorf("gorilla: %s: %w", op, err)
}
