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

import "github.com/tomnet-org/tomnet/identity"

// Event is anything the runtime hands to the application's event stream.
// Concrete event types implement this marker method; application code
// type-switches on the concrete type.
type Event interface {
	isEvent()
}

// PeerOnlineEvent fires when a peer's heartbeat flips it from offline (or
// unknown) to online.
type PeerOnlineEvent struct{ NodeID identity.NodeID }

func (PeerOnlineEvent) isEvent() {}

// PeerOfflineEvent fires when a peer's heartbeat gap exceeds the offline
// threshold.
type PeerOfflineEvent struct{ NodeID identity.NodeID }

func (PeerOfflineEvent) isEvent() {}

// MessageReceivedEvent carries a delivered message to the application.
type MessageReceivedEvent struct{ Message DeliveredMessage }

func (MessageReceivedEvent) isEvent() {}

// StatusChangedEvent mirrors a StatusChange effect into the event stream
// for application consumers that only watch events.
type StatusChangedEvent struct {
	MessageID string
	Previous  string
	Current   string
}

func (StatusChangedEvent) isEvent() {}

// GroupCreatedEvent fires when a group is created locally or via invite
// acceptance.
type GroupCreatedEvent struct{ GroupID string }

func (GroupCreatedEvent) isEvent() {}

// GroupMemberJoinedEvent fires when a member joins a known group.
type GroupMemberJoinedEvent struct {
	GroupID string
	Member  identity.NodeID
}

func (GroupMemberJoinedEvent) isEvent() {}

// GroupMessageEvent delivers a group chat message to the application.
type GroupMessageEvent struct {
	GroupID string
	From    identity.NodeID
	Text    []byte
}

func (GroupMessageEvent) isEvent() {}

// GroupHubChangedEvent fires when a group's elected hub changes.
type GroupHubChangedEvent struct {
	GroupID string
	Hub     identity.NodeID
}

func (GroupHubChangedEvent) isEvent() {}

// BackupStoredEvent fires after an offline send has been replicated to
// backup peers.
type BackupStoredEvent struct {
	MessageID string
	Replicas  []identity.NodeID
}

func (BackupStoredEvent) isEvent() {}

// BackupDeliveredEvent fires when a backup holder forwards a stored
// message to its now-reconnected recipient.
type BackupDeliveredEvent struct{ MessageID string }

func (BackupDeliveredEvent) isEvent() {}

// ErrorEvent reports a user-visible failure that does not have a more
// specific event of its own. Kind/Detail are for logging; Err, when set,
// wraps one of the package's sentinel errors so a caller can match the
// condition with errors.Is(event, runtime.ErrPeerUnknown) instead of
// comparing Kind strings.
type ErrorEvent struct {
	Kind   string
	Detail string
	Err    error
}

func (ErrorEvent) isEvent() {}

func (e ErrorEvent) Error() string {
	if e.Detail == "" {
		return e.Kind
	}
	return e.Kind + ": " + e.Detail
}

func (e ErrorEvent) Unwrap() error { return e.Err }

// SubnetFormedEvent fires when a cluster of frequently-communicating
// peers crosses the density threshold and forms an ephemeral subnet.
type SubnetFormedEvent struct{ SubnetID string }

func (SubnetFormedEvent) isEvent() {}

// SubnetDissolvedEvent fires when a subnet's members go quiet long
// enough to cross the inactivity TTL.
type SubnetDissolvedEvent struct{ SubnetID string }

func (SubnetDissolvedEvent) isEvent() {}
