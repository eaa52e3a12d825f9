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

// Package presence tracks per-peer heartbeat timestamps and derives
// online/offline transitions from them.
package presence

import (
	"sync"
	"time"

	"github.com/tomnet-org/tomnet/identity"
)

// Transition describes a peer flipping online or offline.
type Transition struct {
	NodeID   identity.NodeID
	Online   bool
	AtMillis int64
}

// Tracker holds last-heartbeat timestamps and the offline threshold used
// to derive transitions on each tick.
type Tracker struct {
	mu               sync.Mutex
	lastHeartbeat    map[identity.NodeID]int64
	onlineState      map[identity.NodeID]bool
	offlineThreshold time.Duration
}

// NewTracker creates a tracker. offlineThreshold must exceed the send
// interval used by peers to avoid flapping; the caller (config validation)
// is responsible for enforcing that.
func NewTracker(offlineThreshold time.Duration) *Tracker {
	return &Tracker{
		lastHeartbeat:    make(map[identity.NodeID]int64),
		onlineState:      make(map[identity.NodeID]bool),
		offlineThreshold: offlineThreshold,
	}
}

// Seen records a heartbeat (or any inbound envelope) from peer at nowMs.
// It reports whether this heartbeat flips the peer from offline to online;
// callers only need to emit a PeerOnline event when ok is true.
func (t *Tracker) Seen(peer identity.NodeID, nowMs int64) (transition Transition, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	wasOnline := t.onlineState[peer]
	t.lastHeartbeat[peer] = nowMs
	t.onlineState[peer] = true

	if wasOnline {
		return Transition{}, false
	}
	return Transition{NodeID: peer, Online: true, AtMillis: nowMs}, true
}

// Evaluate scans all tracked peers and returns transitions for peers that
// just crossed the offline threshold. Call this periodically (the presence
// evaluation tick).
func (t *Tracker) Evaluate(nowMs int64) []Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	var transitions []Transition
	thresholdMs := t.offlineThreshold.Milliseconds()

	for peer, last := range t.lastHeartbeat {
		online := t.onlineState[peer]
		if online && nowMs-last > thresholdMs {
			t.onlineState[peer] = false
			transitions = append(transitions, Transition{NodeID: peer, Online: false, AtMillis: nowMs})
		}
	}
	return transitions
}

// IsOnline reports the tracker's current view of peer's status.
func (t *Tracker) IsOnline(peer identity.NodeID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.onlineState[peer]
}

// LastHeartbeat returns the last recorded heartbeat time for peer, and
// whether any heartbeat has ever been seen.
func (t *Tracker) LastHeartbeat(peer identity.NodeID) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts, ok := t.lastHeartbeat[peer]
	return ts, ok
}

// OnlineCount returns the number of peers the tracker currently considers
// online; used by health checks.
func (t *Tracker) OnlineCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	for _, online := range t.onlineState {
		if online {
			count++
		}
	}
	return count
}
