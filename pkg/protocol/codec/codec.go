package codec

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ErrNull is returned when a null document would be decoded into a value
// that cannot hold null, such as a struct or a number.
var ErrNull = errors.New("codec: null for non-nullable type")

// rejectNull fails unless v points at a type that can represent null.
func rejectNull(v any) error {
	t := reflect.TypeOf(v)
	if t == nil || t.Kind() != reflect.Pointer {
		return nil
	}
	switch t.Elem().Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNull, t.Elem())
}

// Codec defines a simple interface for marshaling typed messages.
// Implementations should be deterministic and safe for concurrent use.
type Codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Registry maps content types and short aliases to codecs.
type Registry struct {
	mu      sync.RWMutex
	byType  map[string]Codec
	aliases map[string]string
}

// NewRegistry constructs a registry preloaded with the built-in codecs:
// JSON, Protobuf, YAML, CBOR and snappy-compressed JSON.
func NewRegistry() *Registry {
	r := &Registry{byType: make(map[string]Codec), aliases: make(map[string]string)}
	r.Register(JSON(), "json")
	r.Register(Proto(), "proto", "protobuf")
	r.Register(YAML(), "yaml", "yml")
	r.Register(Snappy(JSON()), "json+snappy")
	// CBOR only fails on invalid static options.
	if c, err := CBOR(); err == nil {
		r.Register(c, "cbor")
	}
	return r
}

// Register adds a codec under its content type and any aliases.
func (r *Registry) Register(c Codec, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[c.ContentType()] = c
	for _, a := range aliases {
		r.aliases[strings.ToLower(a)] = c.ContentType()
	}
}

// Get returns a codec by content type, or nil.
func (r *Registry) Get(contentType string) Codec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byType[contentType]
}

// Lookup resolves a content type or alias.
func (r *Registry) Lookup(name string) (Codec, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ct, ok := r.aliases[name]; ok {
		name = ct
	}
	c, ok := r.byType[name]
	if !ok {
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
	return c, nil
}
