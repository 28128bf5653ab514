package socket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BobCatC/CodableWebsocket/pkg/observability"
	"github.com/BobCatC/CodableWebsocket/pkg/pipeline"
	"github.com/BobCatC/CodableWebsocket/pkg/protocol/codec"
	"github.com/BobCatC/CodableWebsocket/pkg/transport"
)

// pump is the per-subscriber receive loop. It holds the subscriber only until
// Cancel or completion; after that the reference is cleared and nothing more
// is delivered. Every OnNext and OnComplete runs under deliverMu, so Cancel
// can wait out a delivery that is already in flight.
type pump[T any] struct {
	id      string
	ctx     context.Context // adapter lifetime, not the subscription's
	binding transport.Binding
	codec   codec.Codec
	policy  ErrorPolicy
	log     *zap.Logger
	metrics *observability.Metrics
	onExit  func(*pump[T])

	mu  sync.Mutex
	sub pipeline.Subscriber[Outcome[T]]

	deliverMu sync.Mutex
	gid       atomic.Uint64 // receive goroutine, set once run starts
}

var _ pipeline.Subscription = (*pump[int])(nil)

func newPump[T any](ctx context.Context, b transport.Binding, o options, s pipeline.Subscriber[Outcome[T]], onExit func(*pump[T])) *pump[T] {
	id := uuid.NewString()
	return &pump[T]{
		id:      id,
		ctx:     ctx,
		binding: b,
		codec:   o.codec,
		policy:  o.policy,
		log:     o.logger.With(zap.String("subscription", id)),
		metrics: o.metrics,
		onExit:  onExit,
		sub:     s,
	}
}

// start hands the subscription to the subscriber, then starts receiving.
func (p *pump[T]) start() {
	p.metrics.SubscriptionStarted()
	if s := p.subscriber(); s != nil {
		s.OnSubscribe(p)
	}
	go p.run()
}

// Request is accepted for protocol compliance; the pump always behaves as if
// demand were unlimited.
func (p *pump[T]) Request(pipeline.Demand) {}

// Cancel releases the subscriber. The connection is left open. An in-flight
// receive completes in the background and its frame is dropped.
//
// Once Cancel returns the subscriber sees no further OnNext or OnComplete.
// Called from another goroutine it waits for a delivery in progress to
// return. Called from inside the subscriber's own OnNext it returns at once.
func (p *pump[T]) Cancel() {
	p.mu.Lock()
	had := p.sub != nil
	p.sub = nil
	p.mu.Unlock()
	if goid() != p.gid.Load() {
		p.deliverMu.Lock()
		p.deliverMu.Unlock()
	}
	if had {
		p.log.Debug("subscription cancelled")
	}
}

func (p *pump[T]) subscriber() pipeline.Subscriber[Outcome[T]] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sub
}

// release clears the subscriber and returns the previous one.
func (p *pump[T]) release() pipeline.Subscriber[Outcome[T]] {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.sub
	p.sub = nil
	return s
}

// deliver hands o to the subscriber unless it has been released. It reports
// whether the subscriber was still there.
func (p *pump[T]) deliver(o Outcome[T]) bool {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()
	s := p.subscriber()
	if s == nil {
		return false
	}
	// demand is ignored; the next receive is issued unconditionally
	_ = s.OnNext(o)
	return true
}

// complete releases the subscriber and sends it the terminal event.
func (p *pump[T]) complete(err error) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()
	if s := p.release(); s != nil {
		s.OnComplete(err)
	}
}

// goid returns the current goroutine's id as printed in stack traces.
func goid() uint64 {
	var buf [64]byte
	b := bytes.TrimPrefix(buf[:runtime.Stack(buf[:], false)], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}

func (p *pump[T]) run() {
	p.gid.Store(goid())
	defer func() {
		p.metrics.SubscriptionEnded()
		if p.onExit != nil {
			p.onExit(p)
		}
	}()
	for {
		if p.subscriber() == nil {
			return
		}
		f, err := p.binding.Receive(p.ctx)
		if err != nil {
			if !p.receiveFailed(err) {
				return
			}
			continue
		}
		p.metrics.FrameReceived(f.Kind.String())
		if !p.deliver(Succeeded(p.decode(f))) {
			p.log.Debug("frame dropped after cancel", zap.Stringer("frame", f.Kind))
			return
		}
	}
}

// receiveFailed applies the error policy and reports whether the loop goes on.
func (p *pump[T]) receiveFailed(err error) bool {
	p.metrics.ReceiveFailed()
	closed := p.closed(err)
	if !closed && p.policy == DeliverTransient {
		p.log.Warn("receive failed", zap.Error(err))
		return p.deliver(Failed[T](err))
	}

	var terminal error
	if closed {
		terminal = &CloseError{Code: p.closeCode(), Err: err}
		p.log.Debug("connection closed", zap.Stringer("code", p.closeCode()), zap.Error(err))
	} else {
		terminal = fmt.Errorf("socket: receive: %w", err)
		p.log.Error("receive failed, completing stream", zap.Error(err))
	}
	p.complete(terminal)
	return false
}

func (p *pump[T]) closed(err error) bool {
	return p.binding.CloseStatus() != transport.CloseInvalid ||
		errors.Is(err, transport.ErrClosed) ||
		p.ctx.Err() != nil
}

func (p *pump[T]) closeCode() transport.CloseCode {
	if code := p.binding.CloseStatus(); code != transport.CloseInvalid {
		return code
	}
	return transport.CloseAbnormal
}

// decode turns a frame into an item. Frames that do not decode into T are
// delivered as they arrived.
func (p *pump[T]) decode(f transport.Frame) Item[T] {
	switch f.Kind {
	case transport.FrameText:
		v, err := codec.Decode[T](p.codec, []byte(f.Text))
		if err != nil {
			p.log.Info("text frame is not a typed value, delivering text", zap.Error(err))
			p.metrics.DecodeFallback("text")
			return TextItem[T](f.Text)
		}
		return TypedItem(v)
	case transport.FrameBinary:
		v, err := codec.Decode[T](p.codec, f.Data)
		if err != nil {
			p.log.Error("binary frame failed to decode, delivering raw bytes",
				zap.Int("size", len(f.Data)), zap.Error(err))
			p.metrics.DecodeFallback("binary")
			return RawItem[T](f.Data)
		}
		return TypedItem(v)
	default:
		panic(fmt.Sprintf("socket: %v: %s", transport.ErrUnknownFrame, f.Kind))
	}
}
