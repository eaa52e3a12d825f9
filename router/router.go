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

// Package router is the routing decision engine: for each inbound
// envelope it decides whether to deliver, forward, ack, reject or drop.
// Decisions are pure data; the dedup cache lookup is the only mutation,
// matching the spec's "purely functional decision engine" characterization
// down to its one necessary piece of state.
package router

import (
	"github.com/tomnet-org/tomnet/envelope"
	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/topology"
)

// Action enumerates the possible routing decisions.
type Action int

const (
	ActionDeliver Action = iota
	ActionForward
	ActionAck
	ActionReadReceipt
	ActionReject
	ActionDrop
)

// Reason further qualifies Reject/Drop decisions.
type Reason string

const (
	ReasonInvalidSignature  Reason = "invalid_signature"
	ReasonDuplicate         Reason = "duplicate"
	ReasonTTLExpired        Reason = "ttl_expired"
	ReasonDecryptionFailed  Reason = "decryption_failed"
	ReasonSelfLoop          Reason = "self_loop"
	ReasonUnroutable        Reason = "unroutable"
)

// Decision is the result of routing one inbound envelope.
type Decision struct {
	Action    Action
	Envelope  *envelope.Envelope
	NextHop   identity.NodeID
	Reason    Reason
	MessageID string
	ReplyTo   identity.NodeID
}

// RelaySelector chooses the next hop for an envelope that must be
// forwarded. Implemented by package relay; declared here as an interface
// to keep router decoupled from relay's selection heuristics.
type RelaySelector interface {
	SelectBestRelay(target identity.NodeID, topo *topology.Directory) (next identity.NodeID, direct bool, ok bool)
}

// Router holds the state needed across routing decisions: this node's
// identity, the dedup cache, and a relay selector.
type Router struct {
	Self     *identity.Identity
	Dedup    *DedupCache
	Selector RelaySelector
	Topo     *topology.Directory
}

// New creates a Router.
func New(self *identity.Identity, dedup *DedupCache, selector RelaySelector, topo *topology.Directory) *Router {
	return &Router{Self: self, Dedup: dedup, Selector: selector, Topo: topo}
}

// nextExplicitHop returns the hop immediately following self in via, the
// envelope's sender-planned route. via is immutable once set (only TTL
// is mutated hop by hop), so each relay must locate its own position in
// the chain rather than assume it sits one hop from the end. ok is false
// when self is not in via, or is already its last entry — either way the
// remaining leg to the final destination falls through to RelaySelector.
func nextExplicitHop(via []identity.NodeID, self identity.NodeID) (identity.NodeID, bool) {
	for i, hop := range via {
		if hop == self {
			if i+1 < len(via) {
				return via[i+1], true
			}
			return identity.NodeID{}, false
		}
	}
	return identity.NodeID{}, false
}

// Decide runs the routing algorithm for one inbound envelope.
func (r *Router) Decide(e *envelope.Envelope) Decision {
	if err := e.Verify(); err != nil {
		return Decision{Action: ActionReject, Envelope: e, Reason: ReasonInvalidSignature}
	}

	if r.Dedup.Seen(e.ID) {
		return Decision{Action: ActionDrop, Envelope: e, Reason: ReasonDuplicate}
	}

	if e.TTL == 0 {
		return Decision{Action: ActionDrop, Envelope: e, Reason: ReasonTTLExpired}
	}

	self := r.Self.NodeID()

	if e.To == self {
		if e.From == self {
			return Decision{Action: ActionDrop, Envelope: e, Reason: ReasonSelfLoop}
		}
		if e.Encrypted {
			if _, err := e.Open(r.Self); err != nil {
				return Decision{Action: ActionReject, Envelope: e, Reason: ReasonDecryptionFailed}
			}
		}
		return Decision{Action: ActionDeliver, Envelope: e, MessageID: e.ID, ReplyTo: e.From}
	}

	if err := e.DecrementTTL(); err != nil {
		return Decision{Action: ActionDrop, Envelope: e, Reason: ReasonTTLExpired}
	}

	if next, ok := nextExplicitHop(e.Via, self); ok {
		return Decision{Action: ActionForward, Envelope: e, NextHop: next}
	}

	next, direct, ok := r.Selector.SelectBestRelay(e.To, r.Topo)
	if !ok {
		return Decision{Action: ActionDrop, Envelope: e, Reason: ReasonUnroutable}
	}
	if direct {
		return Decision{Action: ActionForward, Envelope: e, NextHop: next}
	}
	return Decision{Action: ActionForward, Envelope: e, NextHop: next}
}
