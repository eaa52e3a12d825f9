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

// Package runtime is the protocol runtime: RuntimeState owns every
// subsystem (identity, envelope codec, topology, presence, router,
// relay selection, message tracking, groups, backup, subnets, roles) and
// exposes pure handler methods that return Effects. A separate Loop and
// Executor perform all I/O; RuntimeState itself never blocks or mutates
// anything outside its own fields.
package runtime

import (
	"github.com/tomnet-org/tomnet/envelope"
	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/tracker"
)

// EffectKind discriminates the union of side-effecting actions a handler
// can request. Keeping this a closed Go type with an exhaustive switch in
// the executor (rather than a callback or interface per effect) mirrors
// the rest of this runtime's preference for static dispatch over dynamic
// plugin-style indirection.
type EffectKind int

const (
	// EffectSendEnvelope sends Envelope to its first hop: Envelope.Via's
	// first entry if present, otherwise Envelope.To directly.
	EffectSendEnvelope EffectKind = iota
	// EffectSendEnvelopeTo sends Envelope to Target, overriding the
	// envelope's own routing fields (used by the router's forward path).
	EffectSendEnvelopeTo
	// EffectDeliverMessage hands Delivered to the application.
	EffectDeliverMessage
	// EffectStatusChange notifies the application of a tracked message's
	// status transition.
	EffectStatusChange
	// EffectEmit hands Event to the application's event stream.
	EffectEmit
	// EffectSendWithBackupFallback attempts to send Envelope; on success
	// it runs OnSuccess, on transport failure it runs OnFailure. Pure
	// handler logic cannot observe whether a send actually reached the
	// network, so this effect defers that decision to the executor.
	EffectSendWithBackupFallback
)

// StatusChangeNotice reports a tracked outbound message's status
// transition to the application.
type StatusChangeNotice struct {
	MessageID string
	Previous  tracker.State
	Current   tracker.State
}

// DeliveredMessage is a message handed to the application after
// successful verification (and decryption, if encrypted).
type DeliveredMessage struct {
	From           identity.NodeID
	MessageID      string
	Payload        []byte
	WasEncrypted   bool
	SignatureValid bool
	Timestamp      uint64
}

// Effect is a declarative description of one side-effecting action
// produced by a pure RuntimeState handler. The executor is the only code
// that interprets and runs effects.
type Effect struct {
	Kind EffectKind

	Envelope  *envelope.Envelope
	Target    identity.NodeID
	Delivered *DeliveredMessage
	Status    *StatusChangeNotice
	Event     Event

	OnSuccess []Effect
	OnFailure []Effect
}

// SendEnvelope builds an EffectSendEnvelope.
func SendEnvelope(e *envelope.Envelope) Effect {
	return Effect{Kind: EffectSendEnvelope, Envelope: e}
}

// SendEnvelopeTo builds an EffectSendEnvelopeTo.
func SendEnvelopeTo(target identity.NodeID, e *envelope.Envelope) Effect {
	return Effect{Kind: EffectSendEnvelopeTo, Envelope: e, Target: target}
}

// DeliverMessage builds an EffectDeliverMessage.
func DeliverMessage(d DeliveredMessage) Effect {
	return Effect{Kind: EffectDeliverMessage, Delivered: &d}
}

// StatusChange builds an EffectStatusChange.
func StatusChange(n StatusChangeNotice) Effect {
	return Effect{Kind: EffectStatusChange, Status: &n}
}

// Emit builds an EffectEmit.
func Emit(ev Event) Effect {
	return Effect{Kind: EffectEmit, Event: ev}
}

// SendWithBackupFallback builds an EffectSendWithBackupFallback.
func SendWithBackupFallback(e *envelope.Envelope, onSuccess, onFailure []Effect) Effect {
	return Effect{Kind: EffectSendWithBackupFallback, Envelope: e, OnSuccess: onSuccess, OnFailure: onFailure}
}
