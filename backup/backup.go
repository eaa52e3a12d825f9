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

// Package backup stores messages for offline recipients, replicated to a
// handful of backup peers, and purges them on ack, migration, or
// absolute expiry.
package backup

import (
	"sync"

	"github.com/tomnet-org/tomnet/identity"
)

// MinReplicas and MaxReplicas bound how many backup peers hold a copy.
const (
	MinReplicas = 3
	MaxReplicas = 5
)

// Entry is one stored message awaiting delivery to an offline recipient.
// ExpiresAt is absolute (unix ms), not a relative TTL, so replicas agree on
// expiry even with clock drift between them.
type Entry struct {
	MessageID     string
	Recipient     identity.NodeID
	EnvelopeBytes []byte
	ExpiresAt     int64
	Replicas      map[identity.NodeID]struct{}
}

// Coordinator holds backup entries this node is responsible for, keyed by
// message id.
type Coordinator struct {
	mu      sync.Mutex
	entries map[string]*Entry
}

// New creates an empty backup coordinator.
func New() *Coordinator {
	return &Coordinator{entries: make(map[string]*Entry)}
}

// Store records a new backup entry for messageID, replicated to replicas.
func (c *Coordinator) Store(messageID string, recipient identity.NodeID, envelopeBytes []byte, expiresAtMs int64, replicas []identity.NodeID) *Entry {
	replicaSet := make(map[identity.NodeID]struct{}, len(replicas))
	for _, r := range replicas {
		replicaSet[r] = struct{}{}
	}
	e := &Entry{
		MessageID:     messageID,
		Recipient:     recipient,
		EnvelopeBytes: envelopeBytes,
		ExpiresAt:     expiresAtMs,
		Replicas:      replicaSet,
	}
	c.mu.Lock()
	c.entries[messageID] = e
	c.mu.Unlock()
	return e
}

// Get returns the entry for messageID, if this node holds it.
func (c *Coordinator) Get(messageID string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[messageID]
	return e, ok
}

// Purge removes messageID unconditionally, e.g. on ack or migration.
func (c *Coordinator) Purge(messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, messageID)
}

// EvictExpired removes every entry whose ExpiresAt has passed nowMs,
// returning the removed message ids.
func (c *Coordinator) EvictExpired(nowMs int64) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed []string
	for id, e := range c.entries {
		if e.ExpiresAt <= nowMs {
			removed = append(removed, id)
			delete(c.entries, id)
		}
	}
	return removed
}

// PendingForRecipient returns every held entry addressed to recipient, for
// forwarding on reconnection.
func (c *Coordinator) PendingForRecipient(recipient identity.NodeID) []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*Entry
	for _, e := range c.entries {
		if e.Recipient == recipient {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of held entries.
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SelectReplicas picks up to MaxReplicas (at least MinReplicas if
// available) eligible backup peers from candidates: online, and not the
// recipient or self. Candidates should already be filtered/sorted by the
// caller's preference (e.g. timezone overlap); SelectReplicas only
// enforces the count bound and excludes recipient/self, preserving input
// order as the preference order.
func SelectReplicas(candidates []identity.NodeID, recipient, self identity.NodeID) []identity.NodeID {
	eligible := make([]identity.NodeID, 0, len(candidates))
	for _, c := range candidates {
		if c == recipient || c == self {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) > MaxReplicas {
		eligible = eligible[:MaxReplicas]
	}
	return eligible
}
