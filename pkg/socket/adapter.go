// Package socket adapts a WebSocket connection to a typed push stream.
//
// An Adapter is a Publisher of Outcome[T]: every subscriber gets its own
// receive loop that decodes frames into T, falling back to the raw text or
// bytes when decoding fails. It is also a Subscriber of Item[T], encoding
// and sending whatever an upstream publisher produces.
//
// Several subscribers on one Adapter read from the same connection and
// therefore race for frames: each frame reaches exactly one of them. Use a
// single subscriber and fan out downstream when every consumer needs every
// frame.
package socket

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BobCatC/CodableWebsocket/pkg/observability"
	"github.com/BobCatC/CodableWebsocket/pkg/pipeline"
	"github.com/BobCatC/CodableWebsocket/pkg/protocol/codec"
	"github.com/BobCatC/CodableWebsocket/pkg/transport"
)

// Adapter owns one connection for its whole lifetime.
type Adapter[T any] struct {
	binding     transport.Binding
	opts        options
	codec       codec.Codec
	typedAsText bool
	limiter     *rate.Limiter
	log         *zap.Logger
	metrics     *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	pumps    map[*pump[T]]struct{}
	upstream pipeline.Subscription
	closeErr error
}

var (
	_ pipeline.Publisher[Outcome[int]] = (*Adapter[int])(nil)
	_ pipeline.Subscriber[Item[int]]   = (*Adapter[int])(nil)
)

// Dial connects to url and returns once the handshake completed.
func Dial[T any](ctx context.Context, url string, opts ...Option) (*Adapter[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	b, err := o.dialer.Dial(ctx, url, o.dial)
	if err != nil {
		return nil, fmt.Errorf("socket: dial %s: %w", url, err)
	}
	o.logger.Info("connected",
		zap.String("url", url),
		zap.Stringer("transport", b.Kind()),
		zap.String("subprotocol", b.Subprotocol()))
	return newAdapter[T](b, o), nil
}

// DialRequest dials the URL of a prepared request and sends its headers with
// the handshake. http and https schemes are mapped to ws and wss.
func DialRequest[T any](ctx context.Context, req *http.Request, opts ...Option) (*Adapter[T], error) {
	if req == nil || req.URL == nil {
		return nil, fmt.Errorf("socket: dial: nil request")
	}
	u := *req.URL
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if len(req.Header) > 0 {
		opts = append([]Option{WithHeader(req.Header)}, opts...)
	}
	return Dial[T](ctx, u.String(), opts...)
}

// New wraps an already open binding, for example a server-side connection.
// Dial options are ignored.
func New[T any](b transport.Binding, opts ...Option) *Adapter[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newAdapter[T](b, o)
}

func newAdapter[T any](b transport.Binding, o options) *Adapter[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Adapter[T]{
		binding:     b,
		opts:        o,
		codec:       o.codec,
		typedAsText: o.typedAsText,
		limiter:     o.limiter,
		log:         o.logger,
		metrics:     o.metrics,
		ctx:         ctx,
		cancel:      cancel,
		pumps:       make(map[*pump[T]]struct{}),
	}
}

// Subscribe starts a receive loop delivering to s. The returned subscription
// is also handed to s.OnSubscribe before any delivery.
func (a *Adapter[T]) Subscribe(s pipeline.Subscriber[Outcome[T]]) pipeline.Subscription {
	p := newPump[T](a.ctx, a.binding, a.opts, s, a.pumpExited)
	a.mu.Lock()
	a.pumps[p] = struct{}{}
	a.mu.Unlock()
	p.start()
	return p
}

func (a *Adapter[T]) pumpExited(p *pump[T]) {
	a.mu.Lock()
	delete(a.pumps, p)
	a.mu.Unlock()
}

// Typed publishes only successfully decoded values.
func (a *Adapter[T]) Typed() pipeline.Publisher[T] {
	return pipeline.CompactMap[Outcome[T], T](a, Outcome[T].Value)
}

// Outcomes subscribes through a channel with the given buffer. The consumer
// stalls the receive loop when the buffer is full. The subscription ends when
// ctx ends or Cancel is called on the result.
func (a *Adapter[T]) Outcomes(ctx context.Context, buffer int) *pipeline.Chan[Outcome[T]] {
	return pipeline.Subscribe[Outcome[T]](ctx, a, buffer)
}

// Values is Outcomes restricted to decoded values.
func (a *Adapter[T]) Values(ctx context.Context, buffer int) *pipeline.Chan[T] {
	return pipeline.Subscribe(ctx, a.Typed(), buffer)
}

// Close sends a normal close frame and releases the connection. Active
// subscribers complete with a CloseError. Close is idempotent.
func (a *Adapter[T]) Close() error {
	a.mu.Lock()
	if a.closed {
		err := a.closeErr
		a.mu.Unlock()
		return err
	}
	a.closed = true
	up := a.upstream
	a.upstream = nil
	a.mu.Unlock()

	if up != nil {
		up.Cancel()
	}
	err := a.binding.Close(transport.CloseNormal, "")
	a.cancel()

	a.mu.Lock()
	a.closeErr = err
	a.mu.Unlock()
	if err != nil {
		a.log.Warn("close failed", zap.Error(err))
	} else {
		a.log.Info("closed")
	}
	return err
}

func (a *Adapter[T]) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// Subprotocol returns the negotiated subprotocol.
func (a *Adapter[T]) Subprotocol() string { return a.binding.Subprotocol() }

// CloseStatus returns CloseInvalid while open, the close code afterwards.
func (a *Adapter[T]) CloseStatus() transport.CloseCode { return a.binding.CloseStatus() }

func (a *Adapter[T]) State() transport.State { return a.binding.State() }

// ActiveSubscriptions counts receive loops that have not exited yet.
func (a *Adapter[T]) ActiveSubscriptions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pumps)
}
