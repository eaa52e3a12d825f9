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

// Package group implements multi-party messaging via a deterministic
// hub-and-spoke topology: the lexicographically smallest online member is
// always the hub, so every member recomputes the same hub independently
// on failover.
package group

import (
	"errors"
	"sort"
	"sync"

	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/topology"
)

// ErrRateLimited is returned by the hub when a sender exceeds its group
// message budget.
var ErrRateLimited = errors.New("group: sender rate limited")

// ErrNotAMember is returned when an operation targets a group the caller
// does not belong to.
var ErrNotAMember = errors.New("group: not a member")

// Group is a multi-party conversation with a deterministically-elected hub.
type Group struct {
	ID      string
	Name    string
	Members map[identity.NodeID]struct{}
	Epoch   uint64
}

// Hub returns the lexicographically smallest online member, or ok=false
// if no member is online.
func (g *Group) Hub(topo *topology.Directory) (identity.NodeID, bool) {
	var online []identity.NodeID
	for m := range g.Members {
		if info, found := topo.Get(m); found && info.Status == topology.Online {
			online = append(online, m)
		}
	}
	if len(online) == 0 {
		return identity.NodeID{}, false
	}
	sort.Slice(online, func(i, j int) bool { return online[i].Less(online[j]) })
	return online[0], true
}

// Manager owns all groups a node knows about and the per-group dedup state
// a hub needs to fan out each message exactly once.
type Manager struct {
	mu     sync.Mutex
	groups map[string]*Group
	seen   map[string]map[string]struct{} // group id -> message id -> seen

	limiter *SenderRateLimiter
}

// NewManager creates a group manager. rateLimitPerSecond is the hub-side
// cap on group messages accepted per sender per second.
func NewManager(rateLimitPerSecond int) *Manager {
	return &Manager{
		groups:  make(map[string]*Group),
		seen:    make(map[string]map[string]struct{}),
		limiter: NewSenderRateLimiter(rateLimitPerSecond),
	}
}

// Close releases background resources (the rate limiter's refill loop).
func (m *Manager) Close() {
	m.limiter.Close()
}

// Create registers a new group.
func (m *Manager) Create(id, name string, members []identity.NodeID) *Group {
	memberSet := make(map[identity.NodeID]struct{}, len(members))
	for _, mem := range members {
		memberSet[mem] = struct{}{}
	}
	g := &Group{ID: id, Name: name, Members: memberSet, Epoch: 1}

	m.mu.Lock()
	m.groups[id] = g
	m.seen[id] = make(map[string]struct{})
	m.mu.Unlock()
	return g
}

// Get returns a group by id.
func (m *Manager) Get(id string) (*Group, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	return g, ok
}

// All returns every group this node currently knows about, e.g. for a
// periodic hub-election re-check.
func (m *Manager) All() []*Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Group, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g)
	}
	return out
}

// Join adds member to an existing group.
func (m *Manager) Join(id string, member identity.NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return ErrNotAMember
	}
	g.Members[member] = struct{}{}
	return nil
}

// Leave removes member from group id. If the group becomes empty, it is
// destroyed.
func (m *Manager) Leave(id string, member identity.NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return
	}
	delete(g.Members, member)
	if len(g.Members) == 0 {
		delete(m.groups, id)
		delete(m.seen, id)
	}
}

// AcceptAsHub checks the per-sender rate limit and the per-group message
// dedup before the hub fans a group message out to the remaining members.
// It returns the list of members to forward to (every member except
// sender), or an error if rate limited or the group is unknown. A message
// already seen returns nil recipients and no error.
func (m *Manager) AcceptAsHub(groupID, messageID string, sender identity.NodeID) ([]identity.NodeID, error) {
	if !m.limiter.Allow(sender) {
		return nil, ErrRateLimited
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[groupID]
	if !ok {
		return nil, ErrNotAMember
	}

	seen := m.seen[groupID]
	if _, dup := seen[messageID]; dup {
		return nil, nil
	}
	seen[messageID] = struct{}{}

	recipients := make([]identity.NodeID, 0, len(g.Members)-1)
	for member := range g.Members {
		if member != sender {
			recipients = append(recipients, member)
		}
	}
	return recipients, nil
}
