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

// Package transport provides the byte-oriented channel abstraction the
// runtime sends and receives encoded envelopes over, independent of the
// concrete wire protocol (WebSocket, in-process mock, or anything else
// implementing Conn).
package transport

import (
	"context"
	"errors"

	"github.com/tomnet-org/tomnet/identity"
)

// ErrClosed is returned by Recv/Send on a connection that has been
// closed, either locally or by the remote peer.
var ErrClosed = errors.New("transport: connection closed")

// Conn is a single logical connection to a peer. Send and Recv carry
// already-encoded envelope bytes; Conn implementations never interpret
// the payload.
type Conn interface {
	// Send transmits one encoded envelope frame.
	Send(ctx context.Context, frame []byte) error

	// Recv blocks until the next frame arrives, ctx is cancelled, or the
	// connection closes.
	Recv(ctx context.Context) ([]byte, error)

	// RemotePeer identifies who is on the other end, if known at the
	// transport layer (it may be the zero value before a handshake
	// completes and is not itself a source of authentication — every
	// envelope is independently signature-verified regardless).
	RemotePeer() identity.NodeID

	// Close releases the connection's resources.
	Close() error
}

// Dialer establishes outbound connections to peers.
type Dialer interface {
	Dial(ctx context.Context, addr string) (Conn, error)
}

// Listener accepts inbound connections.
type Listener interface {
	// Accept blocks until a peer connects or the listener closes.
	Accept(ctx context.Context) (Conn, error)
	Close() error
}
