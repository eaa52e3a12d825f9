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

package backup

import "github.com/tomnet-org/tomnet/identity"

// QualityThreshold is the minimum self-assessed host quality below which
// a backup holder proactively migrates its entries to a better peer
// rather than waiting to fail.
const QualityThreshold = 0.4

// HostQuality is a 0..1 self-assessment a node makes of its own fitness to
// keep holding backups: higher uptime ratio and more free capacity score
// higher.
type HostQuality struct {
	UptimeRatio  float64
	FreeCapacity float64
}

// Score combines uptime and free capacity into a single 0..1 quality
// value. Equal weighting matches the spec's "host quality" phrasing,
// which names no sub-metric as dominant.
func (h HostQuality) Score() float64 {
	s := (h.UptimeRatio + h.FreeCapacity) / 2
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// ShouldMigrate reports whether a holder with this quality should
// proactively move its entries to a better peer before it is likely to
// fail.
func (h HostQuality) ShouldMigrate() bool {
	return h.Score() < QualityThreshold
}

// Migrate moves every entry this coordinator holds to target, returning
// the moved entries so the caller can send BackupStore to target and
// drop its own copies. The entry's replica set is updated to reflect the
// new holder in place of self.
func (c *Coordinator) Migrate(self, target identity.NodeID) []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	moved := make([]*Entry, 0, len(c.entries))
	for id, e := range c.entries {
		delete(e.Replicas, self)
		e.Replicas[target] = struct{}{}
		moved = append(moved, e)
		delete(c.entries, id)
	}
	return moved
}

// Ack purges messageID locally and returns the other known replicas so the
// caller can propagate the ack to them.
func (c *Coordinator) Ack(messageID string, self identity.NodeID) []identity.NodeID {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[messageID]
	if !ok {
		return nil
	}
	delete(c.entries, messageID)

	others := make([]identity.NodeID, 0, len(e.Replicas))
	for r := range e.Replicas {
		if r != self {
			others = append(others, r)
		}
	}
	return others
}
