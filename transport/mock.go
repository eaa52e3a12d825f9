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

package transport

import (
	"context"
	"sync"

	"github.com/tomnet-org/tomnet/identity"
)

// MockConn is an in-process Conn backed by a pair of channels, letting
// tests wire two runtimes together without a real socket.
type MockConn struct {
	remote identity.NodeID
	out    chan []byte
	in     chan []byte

	mu     sync.Mutex
	closed bool
}

// NewMockPair creates two connected MockConns: frames sent on one arrive
// on the other's Recv.
func NewMockPair(aRemote, bRemote identity.NodeID) (a, b *MockConn) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	a = &MockConn{remote: bRemote, out: ab, in: ba}
	b = &MockConn{remote: aRemote, out: ba, in: ab}
	return a, b
}

// Send implements Conn.
func (c *MockConn) Send(ctx context.Context, frame []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	select {
	case c.out <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv implements Conn.
func (c *MockConn) Recv(ctx context.Context) ([]byte, error) {
	select {
	case frame, ok := <-c.in:
		if !ok {
			return nil, ErrClosed
		}
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RemotePeer implements Conn.
func (c *MockConn) RemotePeer() identity.NodeID {
	return c.remote
}

// Close implements Conn. It is idempotent and closes the outbound
// channel, which the peer on the other end observes as ErrClosed from
// Recv.
func (c *MockConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.out)
	return nil
}
