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

// Package topology is the in-memory peer directory: every peer ever seen,
// its roles, and its last known status. A peer that goes offline is
// retained, not forgotten; only an explicit RemovePeer deletes an entry.
package topology

import (
	"sort"
	"sync"

	"github.com/tomnet-org/tomnet/identity"
)

// Status is a peer's last known connectivity state.
type Status string

const (
	Online  Status = "online"
	Offline Status = "offline"
)

// Role is a capability a peer may hold.
type Role string

const (
	RolePeer  Role = "peer"
	RoleRelay Role = "relay"
)

// PeerInfo is everything the directory knows about one peer.
type PeerInfo struct {
	NodeID              identity.NodeID
	Username            string
	EncryptionPublicKey [32]byte
	Roles               map[Role]struct{}
	Status              Status
	LastSeen            int64 // unix ms
}

// HasRole reports whether the peer holds role.
func (p PeerInfo) HasRole(role Role) bool {
	_, ok := p.Roles[role]
	return ok
}

// Clone returns a deep copy safe to hand to callers outside the directory's
// lock.
func (p PeerInfo) Clone() PeerInfo {
	roles := make(map[Role]struct{}, len(p.Roles))
	for r := range p.Roles {
		roles[r] = struct{}{}
	}
	p.Roles = roles
	return p
}

// Directory is the in-memory peer directory.
type Directory struct {
	mu    sync.RWMutex
	peers map[identity.NodeID]PeerInfo
}

// New creates an empty directory.
func New() *Directory {
	return &Directory{peers: make(map[identity.NodeID]PeerInfo)}
}

// AddPeer inserts a peer seen for the first time. If the peer already
// exists, AddPeer behaves like UpsertPeer.
func (d *Directory) AddPeer(info PeerInfo) {
	d.UpsertPeer(info)
}

// UpsertPeer inserts or merges a peer update. Roles and encryption key are
// replaced wholesale by info; status and last_seen follow info too —
// callers that only want to bump last_seen should use Touch.
func (d *Directory) UpsertPeer(info PeerInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.peers[info.NodeID] = info.Clone()
}

// RemovePeer deletes a peer from the directory entirely. Per the spec,
// runtime code does not call this for ordinary offline transitions —
// it exists for explicit application-driven removal (e.g. blocklisting).
func (d *Directory) RemovePeer(id identity.NodeID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.peers, id)
}

// Get returns the peer's info and whether it is known.
func (d *Directory) Get(id identity.NodeID) (PeerInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, ok := d.peers[id]
	if !ok {
		return PeerInfo{}, false
	}
	return info.Clone(), true
}

// SetStatus transitions a known peer's status and last-seen timestamp. A
// peer not yet in the directory is silently ignored — callers must
// UpsertPeer first so username/roles are populated.
func (d *Directory) SetStatus(id identity.NodeID, status Status, lastSeenMs int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	info, ok := d.peers[id]
	if !ok {
		return
	}
	info.Status = status
	info.LastSeen = lastSeenMs
	d.peers[id] = info
}

// Touch bumps a known peer's last-seen timestamp without changing status.
func (d *Directory) Touch(id identity.NodeID, nowMs int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	info, ok := d.peers[id]
	if !ok {
		return
	}
	info.LastSeen = nowMs
	d.peers[id] = info
}

// All returns every known peer, sorted by NodeID for deterministic
// iteration (hub election depends on this ordering elsewhere).
func (d *Directory) All() []PeerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]PeerInfo, 0, len(d.peers))
	for _, info := range d.peers {
		out = append(out, info.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID.Less(out[j].NodeID) })
	return out
}

// Online returns every peer currently marked Online.
func (d *Directory) Online() []PeerInfo {
	all := d.All()
	out := all[:0]
	for _, p := range all {
		if p.Status == Online {
			out = append(out, p)
		}
	}
	return out
}

// WithRole returns every peer holding role, regardless of status.
func (d *Directory) WithRole(role Role) []PeerInfo {
	all := d.All()
	out := all[:0]
	for _, p := range all {
		if p.HasRole(role) {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of known peers.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.peers)
}
