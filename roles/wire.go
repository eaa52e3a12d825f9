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
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/topology"
)

// wireAnnounce is the JSON-over-envelope-payload form of Announce. The
// envelope itself is already the canonical signed binary wire format;
// this inner payload is gossip-specific content and, like this
// runtime's configuration files, uses plain JSON rather than a second
// binary codec.
type wireAnnounce struct {
	NodeID   string   `json:"node_id"`
	Username string   `json:"username"`
	EncPub   string   `json:"enc_pub"`
	Roles    []string `json:"roles"`
}

// Marshal encodes a into a PeerAnnounce envelope payload.
func (a Announce) Marshal() ([]byte, error) {
	roles := make([]string, len(a.Roles))
	for i, r := range a.Roles {
		roles[i] = string(r)
	}
	return json.Marshal(wireAnnounce{
		NodeID:   hex.EncodeToString(a.NodeID.Bytes()),
		Username: a.Username,
		EncPub:   hex.EncodeToString(a.EncryptionPublicKey[:]),
		Roles:    roles,
	})
}

// UnmarshalAnnounce decodes a PeerAnnounce envelope payload.
func UnmarshalAnnounce(data []byte) (Announce, error) {
	var w wireAnnounce
	if err := json.Unmarshal(data, &w); err != nil {
		return Announce{}, fmt.Errorf("roles: decode announce: %w", err)
	}

	nodeIDBytes, err := hex.DecodeString(w.NodeID)
	if err != nil {
		return Announce{}, fmt.Errorf("roles: decode announce node id: %w", err)
	}
	nodeID, err := identity.NodeIDFromBytes(nodeIDBytes)
	if err != nil {
		return Announce{}, fmt.Errorf("roles: decode announce node id: %w", err)
	}

	encPubBytes, err := hex.DecodeString(w.EncPub)
	if err != nil {
		return Announce{}, fmt.Errorf("roles: decode announce enc pub: %w", err)
	}
	var encPub [32]byte
	copy(encPub[:], encPubBytes)

	roles := make([]topology.Role, len(w.Roles))
	for i, r := range w.Roles {
		roles[i] = topology.Role(r)
	}

	return Announce{NodeID: nodeID, Username: w.Username, EncryptionPublicKey: encPub, Roles: roles}, nil
}
