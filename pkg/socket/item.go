package socket

import "fmt"

// ItemKind names the active variant of an Item.
type ItemKind int

const (
	ItemInvalid ItemKind = iota
	ItemText
	ItemTyped
	ItemRaw
)

func (k ItemKind) String() string {
	switch k {
	case ItemText:
		return "text"
	case ItemTyped:
		return "typed"
	case ItemRaw:
		return "raw"
	default:
		return "invalid"
	}
}

// Item is one unit flowing through the socket: a raw string, a decoded value
// of type T, or raw bytes. Exactly one variant is active. The zero Item is
// invalid and is rejected by Send.
type Item[T any] struct {
	kind  ItemKind
	text  string
	value T
	raw   []byte
}

// TextItem wraps a raw string.
func TextItem[T any](s string) Item[T] { return Item[T]{kind: ItemText, text: s} }

// TypedItem wraps a decoded value.
func TypedItem[T any](v T) Item[T] { return Item[T]{kind: ItemTyped, value: v} }

// RawItem wraps raw bytes. A nil slice is kept as an empty payload.
func RawItem[T any](b []byte) Item[T] {
	if b == nil {
		b = []byte{}
	}
	return Item[T]{kind: ItemRaw, raw: b}
}

func (it Item[T]) Kind() ItemKind { return it.kind }

func (it Item[T]) Valid() bool { return it.kind != ItemInvalid }

func (it Item[T]) Text() (string, bool) { return it.text, it.kind == ItemText }

func (it Item[T]) Typed() (T, bool) { return it.value, it.kind == ItemTyped }

func (it Item[T]) Raw() ([]byte, bool) { return it.raw, it.kind == ItemRaw }

func (it Item[T]) String() string {
	switch it.kind {
	case ItemText:
		return fmt.Sprintf("text(%q)", it.text)
	case ItemTyped:
		return fmt.Sprintf("typed(%v)", it.value)
	case ItemRaw:
		return fmt.Sprintf("raw(%d bytes)", len(it.raw))
	default:
		return "invalid"
	}
}
