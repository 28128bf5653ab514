package main

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BobCatC/CodableWebsocket/pkg/config"
	"github.com/BobCatC/CodableWebsocket/pkg/observability"
	"github.com/BobCatC/CodableWebsocket/pkg/protocol/codec"
	"github.com/BobCatC/CodableWebsocket/pkg/socket"
	"github.com/BobCatC/CodableWebsocket/pkg/transports"
)

// socketOptions translates the socket config section into adapter options.
func socketOptions(c config.SocketConfig, logger *zap.Logger, m *observability.Metrics) ([]socket.Option, error) {
	d, err := transports.NewByKind(c.Transport)
	if err != nil {
		return nil, err
	}
	cd, err := codec.NewRegistry().Lookup(c.Codec)
	if err != nil {
		return nil, err
	}
	if _, err := cd.Marshal(Message{"type": "check"}); err != nil {
		return nil, fmt.Errorf("codec %s cannot carry JSON objects: %w", cd.ContentType(), err)
	}
	policy, err := socket.ParseErrorPolicy(c.ErrorPolicy)
	if err != nil {
		return nil, err
	}
	opts := []socket.Option{
		socket.WithDialer(d),
		socket.WithCodec(cd),
		socket.WithLogger(logger),
		socket.WithMetrics(m),
		socket.WithErrorPolicy(policy),
		socket.WithHandshakeTimeout(time.Duration(c.HandshakeTimeoutMS) * time.Millisecond),
		socket.WithReadLimit(c.ReadLimit),
		socket.WithCompression(c.Compression),
		socket.WithSendRate(c.SendRate, c.SendBurst),
	}
	if len(c.Protocols) > 0 {
		opts = append(opts, socket.WithProtocols(c.Protocols...))
	}
	if len(c.Headers) > 0 {
		h := make(http.Header, len(c.Headers))
		for k, v := range c.Headers {
			h.Set(k, v)
		}
		opts = append(opts, socket.WithHeader(h))
	}
	if c.TypedAsText {
		if cd.ContentType() != codec.JSON().ContentType() && cd.ContentType() != codec.YAML().ContentType() {
			return nil, fmt.Errorf("typed_as_text needs a text codec, got %s", cd.ContentType())
		}
		opts = append(opts, socket.WithTypedAsText())
	}
	return opts, nil
}
