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

package subnet

import (
	"fmt"
	"sync"

	"github.com/tomnet-org/tomnet/identity"
)

// InactivityTTLMs is how long a subnet may go without activity before it
// auto-dissolves.
const InactivityTTLMs = 5 * 60 * 1000

// Manager owns the communication graph and the currently-formed subnets,
// evaluating both on a periodic tick.
type Manager struct {
	mu       sync.Mutex
	graph    *Graph
	subnets  map[string]*Subnet
	memberOf map[identity.NodeID]string
	nextID   int
}

// NewManager creates an empty subnet manager.
func NewManager() *Manager {
	return &Manager{
		graph:    NewGraph(),
		subnets:  make(map[string]*Subnet),
		memberOf: make(map[identity.NodeID]string),
	}
}

// RecordExchange notes a communication event between a and b, feeding the
// density graph used by the next evaluation tick.
func (m *Manager) RecordExchange(a, b identity.NodeID) {
	m.graph.RecordExchange(a, b)
}

// Get returns the subnet a peer currently belongs to, if any.
func (m *Manager) Get(peer identity.NodeID) (*Subnet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.memberOf[peer]
	if !ok {
		return nil, false
	}
	s := m.subnets[id]
	return s, s != nil
}

// SameSubnet reports whether a and b are both members of the same
// currently-formed subnet.
func (m *Manager) SameSubnet(a, b identity.NodeID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	idA, okA := m.memberOf[a]
	idB, okB := m.memberOf[b]
	return okA && okB && idA == idB
}

// Tick decays the graph, dissolves subnets that have gone inactive,
// forms new subnets from dense clusters, and returns the ids formed and
// dissolved this cycle. Dissolved members are excluded from this same
// cycle's cluster search so a subnet cannot dissolve and immediately
// reform.
func (m *Manager) Tick(nowMs int64) (formed, dissolved []string) {
	m.graph.Decay()

	m.mu.Lock()
	excluded := make(map[identity.NodeID]struct{})
	for id, s := range m.subnets {
		if nowMs-s.LastActivity >= InactivityTTLMs {
			dissolved = append(dissolved, id)
			delete(m.subnets, id)
			for member := range s.Members {
				delete(m.memberOf, member)
				excluded[member] = struct{}{}
			}
		}
	}
	for member := range m.memberOf {
		excluded[member] = struct{}{}
	}
	m.mu.Unlock()

	clusters := m.graph.FindClusters(excluded)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, members := range clusters {
		m.nextID++
		id := fmt.Sprintf("subnet-%d", m.nextID)
		s := &Subnet{
			ID:           id,
			Members:      members,
			FormedAt:     nowMs,
			LastActivity: nowMs,
			DensityScore: m.graph.componentAverageWeight(members),
		}
		m.subnets[id] = s
		for member := range members {
			m.memberOf[member] = id
		}
		formed = append(formed, id)
	}

	return formed, dissolved
}

// Touch refreshes the last-activity timestamp of the subnet a peer
// belongs to, if any.
func (m *Manager) Touch(peer identity.NodeID, nowMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.memberOf[peer]
	if !ok {
		return
	}
	if s, ok := m.subnets[id]; ok {
		s.LastActivity = nowMs
	}
}
