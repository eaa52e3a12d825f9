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

package runtime

import (
	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/topology"
)

// Command is anything the application sends to the runtime. Concrete
// command types implement this marker method.
type Command interface {
	isCommand()
}

// ConnectCommand is accepted by the Loop but takes no action there;
// connections are added through Loop.Dial, Loop.AddConn, or the listener.
type ConnectCommand struct{}

func (ConnectCommand) isCommand() {}

// DisconnectCommand is accepted by the Loop but takes no action there;
// it does not close any connection.
type DisconnectCommand struct{}

func (DisconnectCommand) isCommand() {}

// SendMessageCommand sends a direct chat message.
type SendMessageCommand struct {
	To   identity.NodeID
	Text []byte
}

func (SendMessageCommand) isCommand() {}

// SendReadReceiptCommand acknowledges a received message as read.
type SendReadReceiptCommand struct {
	To        identity.NodeID
	MessageID string
}

func (SendReadReceiptCommand) isCommand() {}

// AddPeerCommand introduces a new peer to the topology.
type AddPeerCommand struct{ Peer topology.PeerInfo }

func (AddPeerCommand) isCommand() {}

// UpsertPeerCommand updates an existing (or inserts a new) peer.
type UpsertPeerCommand struct{ Peer topology.PeerInfo }

func (UpsertPeerCommand) isCommand() {}

// RemovePeerCommand explicitly removes a peer (e.g. blocklisting).
type RemovePeerCommand struct{ NodeID identity.NodeID }

func (RemovePeerCommand) isCommand() {}

// CreateGroupCommand creates a new group with the given members.
type CreateGroupCommand struct {
	GroupID string
	Name    string
	Members []identity.NodeID
}

func (CreateGroupCommand) isCommand() {}

// AcceptInviteCommand accepts a pending group invite.
type AcceptInviteCommand struct{ GroupID string }

func (AcceptInviteCommand) isCommand() {}

// LeaveGroupCommand leaves a group.
type LeaveGroupCommand struct{ GroupID string }

func (LeaveGroupCommand) isCommand() {}

// SendGroupMessageCommand sends a chat message to a group.
type SendGroupMessageCommand struct {
	GroupID string
	Text    []byte
}

func (SendGroupMessageCommand) isCommand() {}

// GetTopologyCommand is a query command: the runtime replies on Reply
// rather than returning effects, since queries don't mutate state.
type GetTopologyCommand struct {
	Reply chan []topology.PeerInfo
}

func (GetTopologyCommand) isCommand() {}

// GetConnectedPeersCommand queries the set of peers with a live transport
// connection.
type GetConnectedPeersCommand struct {
	Reply chan []identity.NodeID
}

func (GetConnectedPeersCommand) isCommand() {}

// BroadcastAnnounceCommand asks the runtime to gossip this node's current
// roles and encryption key to every online peer, e.g. right after a new
// connection is established so the peer's topology entry stops being
// key-less.
type BroadcastAnnounceCommand struct{}

func (BroadcastAnnounceCommand) isCommand() {}

// QueryBackupCommand asks every online peer whether it holds backup
// entries addressed to this node, e.g. right after reconnecting. A node
// has no way to learn in advance which peers an earlier sender chose as
// its backup replicas, so the query broadcasts rather than targeting one
// holder.
type QueryBackupCommand struct{}

func (QueryBackupCommand) isCommand() {}
