// Package mem provides connected in-process bindings.
package mem

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/BobCatC/CodableWebsocket/pkg/transport"
)

// Frame opcodes on the pipe, loosely following RFC 6455.
const (
	opText   byte = 0x1
	opBinary byte = 0x2
	opClose  byte = 0x8
)

const maxFrameSize = 1 << 24

// closeWait bounds how long Close waits for the peer to take the close frame.
var closeWait = 200 * time.Millisecond

// Binding is an in-process connection built on net.Pipe. Frames are
// opcode + u32 LE length + payload. Useful for tests and loopback wiring.
type Binding struct {
	c      net.Conn
	br     *bufio.Reader
	bw     *bufio.Writer
	readMu sync.Mutex
	sendMu sync.Mutex
	status transport.Status
	once   sync.Once
}

var _ transport.Binding = (*Binding)(nil)

// Pipe returns two connected bindings.
func Pipe() (*Binding, *Binding) {
	c1, c2 := net.Pipe()
	return newBinding(c1), newBinding(c2)
}

func newBinding(c net.Conn) *Binding {
	return &Binding{c: c, br: bufio.NewReader(c), bw: bufio.NewWriter(c)}
}

func (b *Binding) Kind() transport.Kind { return transport.KindMem }

func (b *Binding) Subprotocol() string { return "" }

func (b *Binding) CloseStatus() transport.CloseCode { return b.status.Code() }

func (b *Binding) State() transport.State { return b.status.State() }

// Send writes one frame. Cancelling ctx while the write is blocked closes
// the binding.
func (b *Binding) Send(ctx context.Context, f transport.Frame) error {
	var op byte
	switch f.Kind {
	case transport.FrameText:
		op = opText
	case transport.FrameBinary:
		op = opBinary
	default:
		return fmt.Errorf("mem: %w: %s", transport.ErrUnknownFrame, f.Kind)
	}
	if b.status.State() != transport.StateOpen {
		return fmt.Errorf("mem: send: %w", transport.ErrClosed)
	}
	stop := context.AfterFunc(ctx, func() { b.abort() })
	defer stop()
	if err := b.writeFrame(op, f.Payload()); err != nil {
		return b.fail("send", err)
	}
	return nil
}

// Receive reads the next frame. A close frame from the peer records its code
// and returns an error wrapping transport.ErrClosed. Cancelling ctx while the
// read is blocked closes the binding.
func (b *Binding) Receive(ctx context.Context) (transport.Frame, error) {
	b.readMu.Lock()
	defer b.readMu.Unlock()
	if code := b.status.Code(); code != transport.CloseInvalid {
		return transport.Frame{}, fmt.Errorf("mem: receive: %w (%s)", transport.ErrClosed, code)
	}
	stop := context.AfterFunc(ctx, func() { b.abort() })
	defer stop()

	op, payload, err := b.readFrame()
	if err != nil {
		if ctx.Err() != nil {
			return transport.Frame{}, ctx.Err()
		}
		return transport.Frame{}, b.fail("receive", err)
	}
	switch op {
	case opText:
		return transport.TextFrame(string(payload)), nil
	case opBinary:
		return transport.BinaryFrame(payload), nil
	case opClose:
		code := transport.CloseNoStatus
		if len(payload) >= 2 {
			code = transport.CloseCode(binary.BigEndian.Uint16(payload[:2]))
		}
		b.status.MarkClosed(code)
		_ = b.c.Close()
		return transport.Frame{}, fmt.Errorf("mem: peer closed: %w (%s)", transport.ErrClosed, code)
	default:
		return transport.Frame{}, fmt.Errorf("mem: %w: opcode %#x", transport.ErrUnknownFrame, op)
	}
}

// Close sends a close frame carrying code and reason, then closes the pipe.
func (b *Binding) Close(code transport.CloseCode, reason string) error {
	var err error
	b.once.Do(func() {
		if code == transport.CloseInvalid {
			code = transport.CloseNormal
		}
		b.status.MarkClosing()
		payload := make([]byte, 2, 2+len(reason))
		binary.BigEndian.PutUint16(payload, uint16(code))
		payload = append(payload, reason...)
		_ = b.c.SetWriteDeadline(time.Now().Add(closeWait))
		_ = b.writeFrame(opClose, payload)
		b.status.MarkClosed(code)
		err = b.c.Close()
	})
	return err
}

func (b *Binding) abort() {
	b.status.MarkClosed(transport.CloseAbnormal)
	_ = b.c.Close()
}

func (b *Binding) fail(op string, err error) error {
	if transport.IsConnectionLost(err) {
		b.status.MarkClosed(transport.CloseAbnormal)
		return fmt.Errorf("mem: %s: %w: %w", op, transport.ErrClosed, err)
	}
	return fmt.Errorf("mem: %s: %w", op, err)
}

func (b *Binding) writeFrame(op byte, p []byte) error {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	var hdr [5]byte
	hdr[0] = op
	binary.LittleEndian.PutUint32(hdr[1:], uint32(len(p)))
	if _, err := b.bw.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := b.bw.Write(p); err != nil {
		return err
	}
	return b.bw.Flush()
}

func (b *Binding) readFrame() (byte, []byte, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(b.br, hdr[:]); err != nil {
		return 0, nil, err
	}
	n := int(binary.LittleEndian.Uint32(hdr[1:]))
	if n < 0 || n > maxFrameSize {
		return 0, nil, errors.New("invalid frame size")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(b.br, buf); err != nil {
		return 0, nil, err
	}
	return hdr[0], buf, nil
}
