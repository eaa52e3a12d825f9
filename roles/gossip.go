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

package roles

import (
	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/topology"
)

// Announce is the payload of a PeerAnnounce gossip message: a snapshot of
// the sender's own identity and roles, broadcast periodically so every
// peer's topology stays current without per-peer handshakes.
type Announce struct {
	NodeID              identity.NodeID
	Username            string
	EncryptionPublicKey [32]byte
	Roles               []topology.Role
}

// BuildAnnounce snapshots self's current roles from topo into an
// Announce ready for gossip broadcast.
func BuildAnnounce(self identity.NodeID, username string, encPub [32]byte, topo *topology.Directory) Announce {
	var roles []topology.Role
	if info, ok := topo.Get(self); ok {
		for r := range info.Roles {
			roles = append(roles, r)
		}
	}
	return Announce{NodeID: self, Username: username, EncryptionPublicKey: encPub, Roles: roles}
}

// HandleAnnounce upserts the announcing peer into topo. Gossip is
// separate from the routed message layer: it carries no signature of
// its own here because it rides inside a signed envelope at the
// transport layer, the same way every other message type is
// authenticated.
func HandleAnnounce(a Announce, topo *topology.Directory, nowMs int64) {
	roleSet := make(map[topology.Role]struct{}, len(a.Roles))
	for _, r := range a.Roles {
		roleSet[r] = struct{}{}
	}
	existing, known := topo.Get(a.NodeID)
	status := topology.Offline
	if known {
		status = existing.Status
	}
	topo.UpsertPeer(topology.PeerInfo{
		NodeID:              a.NodeID,
		Username:            a.Username,
		EncryptionPublicKey: a.EncryptionPublicKey,
		Roles:               roleSet,
		Status:              status,
		LastSeen:            nowMs,
	})
}
