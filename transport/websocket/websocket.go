// Copyright (C) 2025 tomnet-org
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package websocket implements transport.Conn/Dialer/Listener over
// persistent gorilla/websocket connections, exchanging binary envelope
// frames rather than the request/response JSON of a typical RPC
// transport: either side may send at any time.
package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/transport"
)

// DefaultReadTimeout and DefaultWriteTimeout bound idle connections and
// slow writers respectively.
const (
	DefaultReadTimeout  = 60 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// Conn wraps a gorilla/websocket connection as a transport.Conn,
// carrying opaque binary envelope frames.
type Conn struct {
	ws     *websocket.Conn
	remote identity.NodeID

	writeMu sync.Mutex
	recvMu  sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration
}

var _ transport.Conn = (*Conn)(nil)

// NewConn wraps an established websocket connection, attributing it to
// remote (learned out-of-band, e.g. from the runtime's initial
// handshake envelope — the transport layer does not itself authenticate
// peers).
func NewConn(ws *websocket.Conn, remote identity.NodeID) *Conn {
	return &Conn{
		ws:           ws,
		remote:       remote,
		readTimeout:  DefaultReadTimeout,
		writeTimeout: DefaultWriteTimeout,
	}
}

// Send implements transport.Conn.
func (c *Conn) Send(ctx context.Context, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := c.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Recv implements transport.Conn. It does not itself honor ctx
// cancellation mid-read (gorilla/websocket reads are not context-aware);
// callers that need prompt cancellation should pair this with Close.
func (c *Conn) Recv(ctx context.Context) ([]byte, error) {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	if err := c.ws.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		return nil, transport.ErrClosed
	}
	return data, nil
}

// RemotePeer implements transport.Conn.
func (c *Conn) RemotePeer() identity.NodeID {
	return c.remote
}

// Close implements transport.Conn.
func (c *Conn) Close() error {
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}

// Dialer connects to a remote tomnode over a WebSocket URL.
type Dialer struct {
	HandshakeTimeout time.Duration
}

var _ transport.Dialer = (*Dialer)(nil)

// Dial implements transport.Dialer. The returned Conn's RemotePeer is
// the zero NodeID until the caller learns the remote's identity from
// the first envelope it receives.
func (d *Dialer) Dial(ctx context.Context, addr string) (transport.Conn, error) {
	dialer := &websocket.Dialer{HandshakeTimeout: d.HandshakeTimeout}
	if dialer.HandshakeTimeout == 0 {
		dialer.HandshakeTimeout = 10 * time.Second
	}
	ws, resp, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return NewConn(ws, identity.NodeID{}), nil
}

// Listener accepts inbound WebSocket connections over an HTTP server.
type Listener struct {
	upgrader websocket.Upgrader
	accepted chan transport.Conn

	closeOnce sync.Once
	closed    chan struct{}
}

var _ transport.Listener = (*Listener)(nil)

// NewListener creates a Listener. Handler returns the http.Handler to
// mount on a path; Accept yields connections as they arrive.
func NewListener() *Listener {
	return &Listener{
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		accepted: make(chan transport.Conn, 16),
		closed:   make(chan struct{}),
	}
}

// Handler returns the http.Handler that upgrades incoming requests and
// feeds them to Accept.
func (l *Listener) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := l.upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, fmt.Sprintf("websocket upgrade failed: %v", err), http.StatusBadRequest)
			return
		}
		conn := NewConn(ws, identity.NodeID{})
		select {
		case l.accepted <- conn:
		case <-l.closed:
			_ = conn.Close()
		}
	})
}

// Accept implements transport.Listener.
func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	select {
	case conn := <-l.accepted:
		return conn, nil
	case <-l.closed:
		return nil, transport.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close implements transport.Listener.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}
