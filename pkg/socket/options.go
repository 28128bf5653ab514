package socket

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BobCatC/CodableWebsocket/pkg/observability"
	"github.com/BobCatC/CodableWebsocket/pkg/protocol/codec"
	"github.com/BobCatC/CodableWebsocket/pkg/transport"
	"github.com/BobCatC/CodableWebsocket/pkg/transport/wsock"
)

// ErrorPolicy decides what a pump does with a failed receive.
type ErrorPolicy int

const (
	// TerminateOnError completes the stream on any receive failure.
	TerminateOnError ErrorPolicy = iota
	// DeliverTransient delivers failures on a still-open connection as failed
	// outcomes and keeps receiving. A closed connection still completes.
	DeliverTransient
)

func (p ErrorPolicy) String() string {
	switch p {
	case TerminateOnError:
		return "terminate"
	case DeliverTransient:
		return "deliver"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseErrorPolicy maps the config names "terminate" and "deliver".
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "terminate":
		return TerminateOnError, nil
	case "deliver":
		return DeliverTransient, nil
	default:
		return TerminateOnError, fmt.Errorf("socket: unknown error policy %q", s)
	}
}

type options struct {
	codec       codec.Codec
	logger      *zap.Logger
	metrics     *observability.Metrics
	dialer      transport.Dialer
	dial        transport.DialOptions
	policy      ErrorPolicy
	typedAsText bool
	limiter     *rate.Limiter
}

func defaultOptions() options {
	return options{
		codec:  codec.JSON(),
		logger: zap.NewNop(),
		dialer: wsock.New(),
	}
}

// Option configures an Adapter.
type Option func(*options)

// WithCodec sets the codec for typed values. Defaults to JSON.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger injects the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithDialer selects the socket library. Defaults to coder/websocket.
func WithDialer(d transport.Dialer) Option {
	return func(o *options) {
		if d != nil {
			o.dialer = d
		}
	}
}

func WithProtocols(protocols ...string) Option {
	return func(o *options) { o.dial.Protocols = append(o.dial.Protocols, protocols...) }
}

// WithHeader adds handshake headers; repeated calls merge.
func WithHeader(h http.Header) Option {
	return func(o *options) {
		if o.dial.Header == nil {
			o.dial.Header = make(http.Header, len(h))
		}
		for k, vs := range h {
			for _, v := range vs {
				o.dial.Header.Add(k, v)
			}
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.dial.HTTPClient = c }
}

func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) { o.dial.HandshakeTimeout = d }
}

func WithReadLimit(n int64) Option {
	return func(o *options) { o.dial.ReadLimit = n }
}

func WithCompression(enable bool) Option {
	return func(o *options) { o.dial.Compression = enable }
}

func WithErrorPolicy(p ErrorPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithTypedAsText sends encoded typed values as text frames instead of
// binary frames. Only meaningful for text codecs such as JSON or YAML.
func WithTypedAsText() Option {
	return func(o *options) { o.typedAsText = true }
}

// WithSendRate shapes outbound traffic to perSecond frames with bursts of up
// to burst frames. Send waits for a token or for its context to end.
func WithSendRate(perSecond float64, burst int) Option {
	return func(o *options) {
		if perSecond <= 0 {
			o.limiter = nil
			return
		}
		o.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}
