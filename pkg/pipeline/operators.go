package pipeline

import (
	"context"
	"sync"
)

// CompactMap transforms each item with f and drops those for which f reports
// false. Dropped items do not consume downstream demand.
func CompactMap[In, Out any](p Publisher[In], f func(In) (Out, bool)) Publisher[Out] {
	return PublisherFunc[Out](func(down Subscriber[Out]) Subscription {
		return p.Subscribe(&compactMapSubscriber[In, Out]{down: down, f: f})
	})
}

type compactMapSubscriber[In, Out any] struct {
	down Subscriber[Out]
	f    func(In) (Out, bool)
}

func (s *compactMapSubscriber[In, Out]) OnSubscribe(sub Subscription) { s.down.OnSubscribe(sub) }

func (s *compactMapSubscriber[In, Out]) OnNext(v In) Demand {
	out, ok := s.f(v)
	if !ok {
		return None
	}
	return s.down.OnNext(out)
}

func (s *compactMapSubscriber[In, Out]) OnComplete(err error) { s.down.OnComplete(err) }

// FromChannel publishes the items received on in. Each subscriber starts its
// own reader goroutine; the stream completes with nil when in is closed and
// with ctx.Err() when ctx ends first. Demand returned by the subscriber is
// not enforced.
func FromChannel[T any](ctx context.Context, in <-chan T) Publisher[T] {
	return PublisherFunc[T](func(s Subscriber[T]) Subscription {
		sctx, cancel := context.WithCancel(ctx)
		sub := &channelSubscription{cancel: cancel}
		s.OnSubscribe(sub)
		go func() {
			defer cancel()
			for {
				select {
				case <-sctx.Done():
					if sub.isCancelled() {
						return
					}
					s.OnComplete(sctx.Err())
					return
				case v, ok := <-in:
					if !ok {
						s.OnComplete(nil)
						return
					}
					if sub.isCancelled() {
						return
					}
					s.OnNext(v)
				}
			}
		}()
		return sub
	})
}

type channelSubscription struct {
	mu        sync.Mutex
	cancelled bool
	cancel    context.CancelFunc
}

func (c *channelSubscription) Request(Demand) {}

func (c *channelSubscription) Cancel() {
	c.mu.Lock()
	c.cancelled = true
	c.mu.Unlock()
	c.cancel()
}

func (c *channelSubscription) isCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}
