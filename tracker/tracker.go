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

// Package tracker follows each outbound message through its monotone
// status chain: Pending -> Sent -> Relayed -> Delivered -> Read.
package tracker

import (
	"sync"
	"time"

	"github.com/tomnet-org/tomnet/identity"
)

// State is a position in the outbound message lifecycle.
type State int

const (
	Pending State = iota
	Sent
	Relayed
	Delivered
	Read
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Sent:
		return "Sent"
	case Relayed:
		return "Relayed"
	case Delivered:
		return "Delivered"
	case Read:
		return "Read"
	default:
		return "Unknown"
	}
}

// allows transition from -> to only when to is strictly further along the
// chain than from.
func (s State) allows(to State) bool {
	return to > s
}

// MessageStatus is the tracked entity for one outbound message.
type MessageStatus struct {
	ID             string
	Recipient      identity.NodeID
	Current        State
	CreatedAt      time.Time
	StateTimestamp map[State]time.Time
}

// Tracker holds MessageStatus entries and enforces monotone transitions.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*MessageStatus
	ttl     time.Duration
}

// New creates a Tracker. ttl is the eviction age for entries that never
// reach Read (default 24h per the envelope's own lifetime).
func New(ttl time.Duration) *Tracker {
	return &Tracker{
		entries: make(map[string]*MessageStatus),
		ttl:     ttl,
	}
}

// Create registers a new Pending message.
func (t *Tracker) Create(id string, recipient identity.NodeID, now time.Time) *MessageStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := &MessageStatus{
		ID:        id,
		Recipient: recipient,
		Current:   Pending,
		CreatedAt: now,
		StateTimestamp: map[State]time.Time{
			Pending: now,
		},
	}
	t.entries[id] = entry
	return entry
}

// Transition attempts to move id to state at time now. Out-of-order or
// backward transitions are ignored and reported via ok=false; unknown ids
// are likewise ignored.
func (t *Tracker) Transition(id string, state State, now time.Time) (ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, found := t.entries[id]
	if !found {
		return false
	}
	if !entry.Current.allows(state) {
		return false
	}
	entry.Current = state
	entry.StateTimestamp[state] = now
	return true
}

// Get returns a copy of the tracked status for id.
func (t *Tracker) Get(id string) (MessageStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, found := t.entries[id]
	if !found {
		return MessageStatus{}, false
	}
	return *entry, true
}

// Evict removes entries older than ttl or already Read, as of now. Returns
// the ids removed.
func (t *Tracker) Evict(now time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var removed []string
	for id, entry := range t.entries {
		if entry.Current == Read || now.Sub(entry.CreatedAt) > t.ttl {
			removed = append(removed, id)
			delete(t.entries, id)
		}
	}
	return removed
}

// Len returns the number of tracked messages.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
