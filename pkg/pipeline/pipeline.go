// Package pipeline provides the push-stream primitives the socket adapter is
// composed with: publishers, subscribers, subscriptions and demand.
//
// Delivery to a single Subscriber is always serial: OnNext is never called
// concurrently with itself or with OnComplete for the same subscription.
package pipeline

import "fmt"

// Demand is the number of further items a subscriber is willing to accept.
type Demand int64

const (
	// None requests nothing.
	None Demand = 0
	// Unlimited lifts any bound.
	Unlimited Demand = -1
)

// Max returns a bounded demand of n items.
func Max(n int64) Demand {
	if n < 0 {
		n = 0
	}
	return Demand(n)
}

func (d Demand) IsUnlimited() bool { return d < 0 }

// Add combines two demands, saturating at Unlimited.
func (d Demand) Add(o Demand) Demand {
	if d.IsUnlimited() || o.IsUnlimited() {
		return Unlimited
	}
	return d + o
}

func (d Demand) String() string {
	if d.IsUnlimited() {
		return "unlimited"
	}
	return fmt.Sprintf("max(%d)", int64(d))
}

// Subscription links one subscriber to one publisher.
type Subscription interface {
	// Request signals additional demand.
	Request(Demand)
	// Cancel stops further deliveries. It is idempotent.
	Cancel()
}

// Subscriber consumes a stream of T.
type Subscriber[T any] interface {
	// OnSubscribe hands over the subscription before any delivery.
	OnSubscribe(Subscription)
	// OnNext delivers one item and returns the additional demand.
	OnNext(T) Demand
	// OnComplete ends the stream; err is nil for a normal end.
	OnComplete(err error)
}

// Publisher produces a stream of T for each subscriber.
type Publisher[T any] interface {
	Subscribe(Subscriber[T]) Subscription
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc[T any] func(Subscriber[T]) Subscription

func (f PublisherFunc[T]) Subscribe(s Subscriber[T]) Subscription { return f(s) }

// Funcs builds a Subscriber from callbacks; nil callbacks are skipped.
// Next results in Unlimited demand.
type Funcs[T any] struct {
	Subscribed func(Subscription)
	Next       func(T)
	Complete   func(error)
}

func (f Funcs[T]) OnSubscribe(s Subscription) {
	if f.Subscribed != nil {
		f.Subscribed(s)
	}
}

func (f Funcs[T]) OnNext(v T) Demand {
	if f.Next != nil {
		f.Next(v)
	}
	return Unlimited
}

func (f Funcs[T]) OnComplete(err error) {
	if f.Complete != nil {
		f.Complete(err)
	}
}
