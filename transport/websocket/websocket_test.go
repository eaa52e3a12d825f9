package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialAndExchangeFrames(t *testing.T) {
	listener := NewListener()
	server := httptest.NewServer(listener.Handler())
	defer server.Close()
	defer listener.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dialer := &Dialer{}
	clientConn, err := dialer.Dial(ctx, wsURL)
	require.NoError(t, err)
	defer clientConn.Close()

	serverConn, err := listener.Accept(ctx)
	require.NoError(t, err)
	defer serverConn.Close()

	require.NoError(t, clientConn.Send(ctx, []byte("ping")))
	got, err := serverConn.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), got)

	require.NoError(t, serverConn.Send(ctx, []byte("pong")))
	got, err = clientConn.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("pong"), got)
}

func TestCloseStopsFurtherAccept(t *testing.T) {
	listener := NewListener()
	require.NoError(t, listener.Close())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := listener.Accept(ctx)
	assert.Error(t, err)
}

func TestDialBadAddressFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	dialer := &Dialer{}
	_, err := dialer.Dial(ctx, "ws://127.0.0.1:1/no-such-server")
	assert.Error(t, err)
}
