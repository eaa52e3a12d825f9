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

// Package relay picks the next hop for an envelope that cannot be
// delivered directly.
package relay

import (
	"sync"

	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/topology"
)

// Selector chooses among online Relay peers, tracking recent failures per
// relay and round-robining among equally-good candidates to spread load.
type Selector struct {
	self identity.NodeID

	mu           sync.Mutex
	failures     map[identity.NodeID]int
	roundRobinAt int
}

// NewSelector creates a relay selector for a node identified by self.
func NewSelector(self identity.NodeID) *Selector {
	return &Selector{
		self:     self,
		failures: make(map[identity.NodeID]int),
	}
}

// RecordFailure increments the failure count for relay, penalizing it in
// subsequent selections. The count does not decay; only ResetFailures
// clears it.
func (s *Selector) RecordFailure(relay identity.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[relay]++
}

// ResetFailures clears the failure count for relay, e.g. after a
// successful forward.
func (s *Selector) ResetFailures(relay identity.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, relay)
}

// SelectBestRelay picks the lowest-cost Online Relay peer for target.
// Returns (self, true, true) when target is a direct neighbor (known and
// online in the topology). Returns ok=false when no relay is usable.
func (s *Selector) SelectBestRelay(target identity.NodeID, topo *topology.Directory) (next identity.NodeID, direct bool, ok bool) {
	if info, found := topo.Get(target); found && info.Status == topology.Online {
		return s.self, true, true
	}
	return s.selectAmong(target, topo, nil)
}

// SelectAlternate behaves like SelectBestRelay but excludes relays in
// failed, for retry after a forward failure.
func (s *Selector) SelectAlternate(target identity.NodeID, topo *topology.Directory, failed map[identity.NodeID]struct{}) (next identity.NodeID, direct bool, ok bool) {
	if info, found := topo.Get(target); found && info.Status == topology.Online {
		return s.self, true, true
	}
	return s.selectAmong(target, topo, failed)
}

func (s *Selector) selectAmong(target identity.NodeID, topo *topology.Directory, excluded map[identity.NodeID]struct{}) (identity.NodeID, bool, bool) {
	candidates := topo.WithRole(topology.RoleRelay)

	type scored struct {
		id   identity.NodeID
		cost int
	}
	var usable []scored

	s.mu.Lock()
	for _, c := range candidates {
		if c.Status != topology.Online {
			continue
		}
		if _, isExcluded := excluded[c.NodeID]; isExcluded {
			continue
		}
		cost := s.failures[c.NodeID]
		usable = append(usable, scored{id: c.NodeID, cost: cost})
	}
	s.mu.Unlock()

	if len(usable) == 0 {
		var zero identity.NodeID
		return zero, false, false
	}

	minCost := usable[0].cost
	for _, u := range usable[1:] {
		if u.cost < minCost {
			minCost = u.cost
		}
	}
	var best []scored
	for _, u := range usable {
		if u.cost == minCost {
			best = append(best, u)
		}
	}

	s.mu.Lock()
	idx := s.roundRobinAt % len(best)
	s.roundRobinAt++
	s.mu.Unlock()

	return best[idx].id, false, true
}
