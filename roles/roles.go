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

// Package roles tracks each peer's contribution score and online ratio,
// promoting and demoting them between Peer and Relay with hysteresis so
// a peer hovering near a threshold does not flap.
package roles

import (
	"sync"

	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/topology"
)

// Config holds the promotion/demotion thresholds. Promotion requires
// meeting the (higher) promote thresholds; demotion triggers when either
// score or ratio falls below the (lower) demote thresholds, leaving a
// hysteresis band between them where the current role is kept.
type Config struct {
	PromoteScoreThreshold float64
	PromoteRatioThreshold float64
	DemoteScoreThreshold  float64
	DemoteRatioThreshold  float64
}

// DefaultConfig matches the reference thresholds: promote at score 10 /
// ratio 0.8, demote below score 3 / ratio 0.4.
func DefaultConfig() Config {
	return Config{
		PromoteScoreThreshold: 10,
		PromoteRatioThreshold: 0.8,
		DemoteScoreThreshold:  3,
		DemoteRatioThreshold:  0.4,
	}
}

// Contribution is one peer's running tally toward relay eligibility.
type Contribution struct {
	Relayed       int
	BackupsServed int
	Consumed      int
	OnlineRatio   float64
}

// Score combines relayed messages and served backups, net of consumption,
// into the single contribution number the thresholds compare against.
func (c Contribution) Score() float64 {
	return float64(c.Relayed+c.BackupsServed-c.Consumed)
}

// Manager evaluates contribution scores against Config on each tick and
// promotes/demotes peers in the shared topology directory.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	scores map[identity.NodeID]*Contribution
}

// NewManager creates a role manager with the given thresholds.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, scores: make(map[identity.NodeID]*Contribution)}
}

// RecordRelayed increments peer's relayed-message count.
func (m *Manager) RecordRelayed(peer identity.NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contribution(peer).Relayed++
}

// RecordBackupServed increments peer's served-backup count.
func (m *Manager) RecordBackupServed(peer identity.NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contribution(peer).BackupsServed++
}

// RecordConsumed increments peer's consumption count (messages it caused
// others to relay/store on its behalf).
func (m *Manager) RecordConsumed(peer identity.NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contribution(peer).Consumed++
}

// SetOnlineRatio records peer's observed online ratio over the
// evaluation window.
func (m *Manager) SetOnlineRatio(peer identity.NodeID, ratio float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contribution(peer).OnlineRatio = ratio
}

func (m *Manager) contribution(peer identity.NodeID) *Contribution {
	c, ok := m.scores[peer]
	if !ok {
		c = &Contribution{}
		m.scores[peer] = c
	}
	return c
}

// Evaluate checks every known peer's contribution against the configured
// thresholds and promotes/demotes it in topo, returning the peers whose
// role set changed.
func (m *Manager) Evaluate(topo *topology.Directory) []identity.NodeID {
	m.mu.Lock()
	snapshot := make(map[identity.NodeID]Contribution, len(m.scores))
	for peer, c := range m.scores {
		snapshot[peer] = *c
	}
	m.mu.Unlock()

	var changed []identity.NodeID
	for peer, c := range snapshot {
		info, ok := topo.Get(peer)
		if !ok {
			continue
		}
		isRelay := info.HasRole(topology.RoleRelay)
		score := c.Score()

		switch {
		case !isRelay && score >= m.cfg.PromoteScoreThreshold && c.OnlineRatio >= m.cfg.PromoteRatioThreshold:
			info.Roles[topology.RoleRelay] = struct{}{}
			topo.UpsertPeer(info)
			changed = append(changed, peer)
		case isRelay && (score < m.cfg.DemoteScoreThreshold || c.OnlineRatio < m.cfg.DemoteRatioThreshold):
			delete(info.Roles, topology.RoleRelay)
			topo.UpsertPeer(info)
			changed = append(changed, peer)
		}
	}
	return changed
}
