package pipeline

import (
	"context"
	"sync"
)

// Chan is a Subscriber that forwards items into a Go channel. The channel
// buffer is the backpressure policy: with a full buffer OnNext blocks, which
// stalls the producer until the consumer catches up. A zero buffer makes
// every delivery a direct hand-off.
//
// The channel is closed after OnComplete or Cancel; Err reports the terminal
// error once it is closed.
type Chan[T any] struct {
	ch     chan T
	stop   chan struct{}
	stopMu sync.Once

	sendMu sync.Mutex // held across a blocked send
	mu     sync.Mutex
	closed bool
	err    error
	sub    Subscription
}

// NewChan returns a channel subscriber with the given buffer size.
func NewChan[T any](buffer int) *Chan[T] {
	if buffer < 0 {
		buffer = 0
	}
	return &Chan[T]{ch: make(chan T, buffer), stop: make(chan struct{})}
}

// Subscribe attaches c to p and cancels the subscription when ctx ends.
func Subscribe[T any](ctx context.Context, p Publisher[T], buffer int) *Chan[T] {
	c := NewChan[T](buffer)
	p.Subscribe(c)
	context.AfterFunc(ctx, c.Cancel)
	return c
}

// C returns the receive side of the channel.
func (c *Chan[T]) C() <-chan T { return c.ch }

// Err returns the error the stream completed with, if any.
func (c *Chan[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Chan[T]) OnSubscribe(s Subscription) {
	c.mu.Lock()
	c.sub = s
	closed := c.closed
	c.mu.Unlock()
	if closed {
		s.Cancel()
		return
	}
	s.Request(Unlimited)
}

func (c *Chan[T]) OnNext(v T) Demand {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return None
	}
	select {
	case c.ch <- v:
		return Max(1)
	case <-c.stop:
		return None
	}
}

func (c *Chan[T]) OnComplete(err error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.err = err
	c.closed = true
	close(c.ch)
}

// Cancel cancels the upstream subscription and closes the channel.
func (c *Chan[T]) Cancel() {
	c.stopMu.Do(func() { close(c.stop) })
	c.sendMu.Lock()
	c.mu.Lock()
	sub := c.sub
	if !c.closed {
		c.closed = true
		close(c.ch)
	}
	c.mu.Unlock()
	c.sendMu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

func (c *Chan[T]) Request(d Demand) {
	c.mu.Lock()
	sub := c.sub
	c.mu.Unlock()
	if sub != nil {
		sub.Request(d)
	}
}

var _ Subscriber[int] = (*Chan[int])(nil)
var _ Subscription = (*Chan[int])(nil)
