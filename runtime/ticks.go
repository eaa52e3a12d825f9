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
	"time"

	"github.com/tomnet-org/tomnet/backup"
	"github.com/tomnet-org/tomnet/envelope"
	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/topology"
)

// TickPresence evaluates heartbeat staleness and emits PeerOffline for
// every peer that just crossed the offline threshold.
func (s *RuntimeState) TickPresence() []Effect {
	transitions := s.Presence.Evaluate(nowMillis())
	effects := make([]Effect, 0, len(transitions))
	for _, t := range transitions {
		s.Topology.SetStatus(t.NodeID, topology.Offline, t.AtMillis)
		effects = append(effects, Emit(PeerOfflineEvent{NodeID: t.NodeID}))
	}
	return effects
}

// TickHeartbeat builds a signed Heartbeat envelope to broadcast to every
// online peer, the mechanism that keeps this node's own presence fresh
// at the rest of the network.
func (s *RuntimeState) TickHeartbeat() []Effect {
	var effects []Effect
	for _, p := range s.Topology.Online() {
		e := envelope.BuildPlaintext(s.Self, p.NodeID, envelope.Heartbeat, nil)
		effects = append(effects, SendEnvelope(e))
	}
	return effects
}

// TickTrackerCleanup sweeps the message tracker's stale entries. The dedup
// cache runs its own background goroutine and needs no tick.
func (s *RuntimeState) TickTrackerCleanup() []Effect {
	s.Tracker.Evict(time.Now())
	return nil
}

// TickBackup runs the periodic backup maintenance cycle: purge expired
// entries, and proactively migrate held entries away if this node's own
// host quality has fallen below the threshold.
func (s *RuntimeState) TickBackup(quality backup.HostQuality) []Effect {
	s.Backup.EvictExpired(nowMillis())

	if !quality.ShouldMigrate() {
		return nil
	}
	target, ok := s.pickMigrationTarget()
	if !ok {
		return nil
	}
	moved := s.Backup.Migrate(s.Self.NodeID(), target)
	effects := make([]Effect, 0, len(moved))
	for _, entry := range moved {
		payload := encodeBackupPayload(entry.ExpiresAt, entry.EnvelopeBytes)
		store := envelope.New(s.Self.NodeID(), target, envelope.BackupStore, payload)
		store.Sign(s.Self)
		effects = append(effects, SendEnvelopeTo(target, store))
	}
	return effects
}

// pickMigrationTarget chooses the best-available online peer other than
// self to hand off backup entries to. Without a richer quality gossip
// channel, any other online peer is an improvement over a node that has
// already decided it is failing.
func (s *RuntimeState) pickMigrationTarget() (identity.NodeID, bool) {
	for _, p := range s.Topology.Online() {
		if p.NodeID != s.Self.NodeID() {
			return p.NodeID, true
		}
	}
	return identity.NodeID{}, false
}

// TickSubnets advances the ephemeral subnet clustering and returns events
// for every subnet formed or dissolved this cycle.
func (s *RuntimeState) TickSubnets() []Effect {
	formed, dissolved := s.Subnets.Tick(nowMillis())
	effects := make([]Effect, 0, len(formed)+len(dissolved))
	for _, id := range formed {
		effects = append(effects, Emit(SubnetFormedEvent{SubnetID: id}))
	}
	for _, id := range dissolved {
		effects = append(effects, Emit(SubnetDissolvedEvent{SubnetID: id}))
	}
	return effects
}

// TickGroupHubs re-evaluates the elected hub of every known group and
// emits GroupHubChangedEvent for each group whose hub moved since the
// last check. Hub election is itself stateless (the lexicographically
// smallest online member, recomputed from Topology on every call), so
// detecting a change requires remembering what the last computed winner
// was.
func (s *RuntimeState) TickGroupHubs() []Effect {
	var effects []Effect
	for _, g := range s.Groups.All() {
		hub, ok := g.Hub(s.Topology)
		if !ok {
			continue
		}
		if prev, known := s.lastHubs[g.ID]; known && prev == hub {
			continue
		}
		s.lastHubs[g.ID] = hub
		effects = append(effects, Emit(GroupHubChangedEvent{GroupID: g.ID, Hub: hub}))
	}
	return effects
}

// TickRoles re-evaluates every peer's contribution score against the
// promotion/demotion thresholds and gossips an announce if this node's
// own roles changed.
func (s *RuntimeState) TickRoles() []Effect {
	changed := s.Roles.Evaluate(s.Topology)
	var effects []Effect
	for _, peer := range changed {
		if peer == s.Self.NodeID() {
			effects = append(effects, s.BroadcastGossipAnnounce()...)
		}
	}
	return effects
}
