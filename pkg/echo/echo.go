// Package echo serves a WebSocket endpoint that writes every frame back to
// its sender with the same frame kind.
package echo

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	gws "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BobCatC/CodableWebsocket/pkg/transport"
	"github.com/BobCatC/CodableWebsocket/pkg/transport/gorilla"
)

// Handler upgrades requests and echoes frames until the peer closes.
type Handler struct {
	upgrader  gws.Upgrader
	readLimit int64
	log       *zap.Logger
	active    atomic.Int64
}

// Option configures a Handler.
type Option func(*Handler)

// WithSubprotocols lists the subprotocols the server accepts, in preference
// order.
func WithSubprotocols(p ...string) Option {
	return func(h *Handler) { h.upgrader.Subprotocols = p }
}

func WithReadLimit(n int64) Option {
	return func(h *Handler) { h.readLimit = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		upgrader: gws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: zap.NewNop(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Active returns the number of connections being served.
func (h *Handler) Active() int64 { return h.active.Load() }

// Collector exposes Active as the codablews_echo_active_connections gauge.
func (h *Handler) Collector() prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "codablews",
		Subsystem: "echo",
		Name:      "active_connections",
		Help:      "WebSocket connections currently being echoed.",
	}, func() float64 { return float64(h.Active()) })
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}
	h.active.Add(1)
	defer h.active.Add(-1)

	b := gorilla.Wrap(conn)
	log := h.log.With(zap.String("remote", r.RemoteAddr), zap.String("subprotocol", b.Subprotocol()))
	log.Debug("echo connection opened")
	h.serve(r.Context(), b, log)
}

func (h *Handler) serve(ctx context.Context, b transport.Binding, log *zap.Logger) {
	defer func() { _ = b.Close(transport.CloseNormal, "") }()
	for {
		f, err := b.Receive(ctx)
		if err != nil {
			if errors.Is(err, transport.ErrClosed) {
				log.Debug("echo connection closed", zap.Stringer("code", b.CloseStatus()))
			} else {
				log.Warn("echo receive failed", zap.Error(err))
			}
			return
		}
		if err := b.Send(ctx, f); err != nil {
			log.Warn("echo send failed", zap.Error(err))
			return
		}
	}
}
