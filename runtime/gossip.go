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
	"fmt"

	"github.com/tomnet-org/tomnet/envelope"
	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/roles"
)

// HandleGossipAnnounce applies an inbound PeerAnnounce envelope to the
// topology, learning (or refreshing) a peer's username, encryption key,
// and roles.
func (s *RuntimeState) HandleGossipAnnounce(e *envelope.Envelope) []Effect {
	a, err := roles.UnmarshalAnnounce(e.Payload)
	if err != nil {
		return []Effect{Emit(ErrorEvent{Kind: "gossip_decode_failed", Detail: err.Error(), Err: fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)})}
	}
	roles.HandleAnnounce(a, s.Topology, nowMillis())
	return nil
}

// BuildGossipAnnounce constructs and signs a PeerAnnounce envelope
// advertising this node's current role set to peer.
func (s *RuntimeState) BuildGossipAnnounce(peer identity.NodeID) ([]Effect, error) {
	a := roles.BuildAnnounce(s.Self.NodeID(), s.Config.Username, s.Self.X25519EncPub, s.Topology)
	payload, err := a.Marshal()
	if err != nil {
		return nil, err
	}
	e := envelope.BuildPlaintext(s.Self, peer, envelope.PeerAnnounce, payload)
	return []Effect{SendEnvelope(e)}, nil
}

// BroadcastGossipAnnounce announces this node's roles to every online peer.
func (s *RuntimeState) BroadcastGossipAnnounce() []Effect {
	var effects []Effect
	for _, p := range s.Topology.Online() {
		peerEffects, err := s.BuildGossipAnnounce(p.NodeID)
		if err != nil {
			effects = append(effects, Emit(ErrorEvent{Kind: "gossip_build_failed", Detail: err.Error()}))
			continue
		}
		effects = append(effects, peerEffects...)
	}
	return effects
}
