// Package transports maps configured transport kinds to dialers.
package transports

import (
	"strings"

	"github.com/BobCatC/CodableWebsocket/pkg/transport"
	"github.com/BobCatC/CodableWebsocket/pkg/transport/gorilla"
	"github.com/BobCatC/CodableWebsocket/pkg/transport/wsock"
)

// ErrUnknownKind is returned for kinds without a dialer.
type ErrUnknownKind string

func (e ErrUnknownKind) Error() string { return "unknown transport kind: " + string(e) }

// NewByKind returns the dialer for kind. An empty kind selects the default
// coder/websocket dialer. "mem" has no dialer: in-process bindings come in
// pairs from mem.Pipe.
func NewByKind(kind string) (transport.Dialer, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "coder", "websocket", "ws":
		return wsock.New(), nil
	case "gorilla":
		return gorilla.New(), nil
	default:
		return nil, ErrUnknownKind(kind)
	}
}
