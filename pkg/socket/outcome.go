package socket

// Outcome is what a pump delivers: an Item on success or the receive error
// that produced no item.
type Outcome[T any] struct {
	item Item[T]
	err  error
}

func Succeeded[T any](it Item[T]) Outcome[T] { return Outcome[T]{item: it} }

func Failed[T any](err error) Outcome[T] { return Outcome[T]{err: err} }

// Item returns the delivered item; ok is false for failures.
func (o Outcome[T]) Item() (Item[T], bool) { return o.item, o.err == nil }

func (o Outcome[T]) Err() error { return o.err }

// Value returns the decoded value when the outcome carries a typed item.
func (o Outcome[T]) Value() (T, bool) {
	if o.err != nil {
		var zero T
		return zero, false
	}
	return o.item.Typed()
}
