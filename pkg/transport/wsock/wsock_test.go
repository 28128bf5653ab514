package wsock_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BobCatC/CodableWebsocket/pkg/echo"
	"github.com/BobCatC/CodableWebsocket/pkg/transport"
	"github.com/BobCatC/CodableWebsocket/pkg/transport/wsock"
)

func TestDialEcho(t *testing.T) {
	srv := httptest.NewServer(echo.NewHandler())
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := wsock.New().Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), transport.DialOptions{
		Header:           http.Header{"X-Client": []string{"test"}},
		HandshakeTimeout: time.Second,
		ReadLimit:        1 << 20,
		Compression:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, transport.KindCoder, b.Kind())
	assert.Equal(t, transport.StateOpen, b.State())

	require.NoError(t, b.Send(ctx, transport.BinaryFrame([]byte("abc"))))
	f, err := b.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, transport.BinaryFrame([]byte("abc")), f)

	require.NoError(t, b.Close(transport.CloseNormal, ""))
	assert.Equal(t, transport.CloseNormal, b.CloseStatus())
}

func TestServerCloseCodeRecorded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		_ = wsock.Wrap(c).Close(transport.ClosePolicyViolation, "go away")
	}))
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := wsock.New().Dial(ctx, srv.URL, transport.DialOptions{})
	require.NoError(t, err)
	_, err = b.Receive(ctx)
	assert.ErrorIs(t, err, transport.ErrClosed)
	assert.Equal(t, transport.ClosePolicyViolation, b.CloseStatus())
}

func TestDialRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := wsock.New().Dial(ctx, "ws://127.0.0.1:1", transport.DialOptions{})
	assert.Error(t, err)
}
