package echo_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BobCatC/CodableWebsocket/pkg/echo"
	"github.com/BobCatC/CodableWebsocket/pkg/transport"
	"github.com/BobCatC/CodableWebsocket/pkg/transport/wsock"
)

func wsURL(s *httptest.Server) string { return "ws" + strings.TrimPrefix(s.URL, "http") }

func TestEchoPreservesFrameKind(t *testing.T) {
	h := echo.NewHandler(echo.WithSubprotocols("json.v1"))
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := wsock.New().Dial(ctx, wsURL(srv), transport.DialOptions{Protocols: []string{"json.v1"}})
	require.NoError(t, err)
	defer b.Close(transport.CloseNormal, "")
	assert.Equal(t, "json.v1", b.Subprotocol())

	for _, f := range []transport.Frame{
		transport.TextFrame(`{"a":1}`),
		transport.BinaryFrame([]byte{0xde, 0xad}),
		transport.BinaryFrame([]byte{}),
	} {
		require.NoError(t, b.Send(ctx, f))
		got, err := b.Receive(ctx)
		require.NoError(t, err)
		assert.Equal(t, f.Kind, got.Kind)
		assert.Equal(t, f.Payload(), got.Payload())
	}
	assert.EqualValues(t, 1, h.Active())
}

func TestEchoReleasesClosedConnections(t *testing.T) {
	h := echo.NewHandler()
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b, err := wsock.New().Dial(ctx, wsURL(srv), transport.DialOptions{})
	require.NoError(t, err)
	require.NoError(t, b.Send(ctx, transport.TextFrame("ping")))
	_, err = b.Receive(ctx)
	require.NoError(t, err)

	gauge := h.Collector()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(gauge))
	assert.Equal(t, 1.0, testutil.ToFloat64(gauge))
	n, err := testutil.GatherAndCount(reg, "codablews_echo_active_connections")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, b.Close(transport.CloseNormal, "bye"))

	assert.Eventually(t, func() bool { return h.Active() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(gauge))
}
