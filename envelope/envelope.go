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

// Package envelope defines the wire message, its canonical binary codec,
// and the sign/verify/encrypt/decrypt operations over it.
package envelope

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomnet-org/tomnet/identity"
)

// ProtocolVersion identifies the wire format. Bumped whenever MessageType
// gains a new member or the codec's field layout changes.
const ProtocolVersion = 1

// MaxRelayHops bounds the via chain.
const MaxRelayHops = 4

// MessageType enumerates the exhaustive message taxonomy.
type MessageType uint8

const (
	Chat MessageType = iota
	Ack
	ReadReceipt
	Heartbeat
	PeerAnnounce
	GroupInvite
	GroupInviteAck
	GroupMessage
	GroupJoin
	GroupLeave
	GroupHubHeartbeat
	BackupStore
	BackupAck
	BackupQuery
	SubnetAnnounce
	RoleAssignment
)

func (t MessageType) String() string {
	switch t {
	case Chat:
		return "Chat"
	case Ack:
		return "Ack"
	case ReadReceipt:
		return "ReadReceipt"
	case Heartbeat:
		return "Heartbeat"
	case PeerAnnounce:
		return "PeerAnnounce"
	case GroupInvite:
		return "GroupInvite"
	case GroupInviteAck:
		return "GroupInviteAck"
	case GroupMessage:
		return "GroupMessage"
	case GroupJoin:
		return "GroupJoin"
	case GroupLeave:
		return "GroupLeave"
	case GroupHubHeartbeat:
		return "GroupHubHeartbeat"
	case BackupStore:
		return "BackupStore"
	case BackupAck:
		return "BackupAck"
	case BackupQuery:
		return "BackupQuery"
	case SubnetAnnounce:
		return "SubnetAnnounce"
	case RoleAssignment:
		return "RoleAssignment"
	default:
		return fmt.Sprintf("MessageType(%d)", uint8(t))
	}
}

// Errors returned by envelope operations.
var (
	ErrTTLExpired       = errors.New("envelope: ttl expired")
	ErrTooManyHops      = errors.New("envelope: via chain exceeds max relay hops")
	ErrBadSignature     = errors.New("envelope: signature verification failed")
	ErrTruncated        = errors.New("envelope: truncated wire data")
	ErrUnsupportedMagic = errors.New("envelope: unrecognized protocol version")
)

// Envelope is the wire message exchanged between nodes.
type Envelope struct {
	ID        string
	From      identity.NodeID
	To        identity.NodeID
	Via       []identity.NodeID
	MsgType   MessageType
	Payload   []byte
	Timestamp uint64 // unix ms
	Signature [ed25519.SignatureSize]byte
	TTL       uint32
	Encrypted bool
}

// New constructs an unsigned, unencrypted envelope with a fresh UUID and
// the default initial TTL.
func New(from, to identity.NodeID, msgType MessageType, payload []byte) *Envelope {
	return &Envelope{
		ID:        uuid.NewString(),
		From:      from,
		To:        to,
		Via:       nil,
		MsgType:   msgType,
		Payload:   payload,
		Timestamp: uint64(time.Now().UnixMilli()),
		TTL:       4,
		Encrypted: false,
	}
}

// Sign computes the Ed25519 signature over every field except TTL and the
// signature itself, and stores it on the envelope.
func (e *Envelope) Sign(id *identity.Identity) {
	msg := e.signingBytes()
	sig := id.Sign(msg)
	copy(e.Signature[:], sig)
}

// Verify checks the envelope's signature against its From field.
func (e *Envelope) Verify() error {
	msg := e.signingBytes()
	if err := identity.Verify(e.From.Bytes(), msg, e.Signature[:]); err != nil {
		return ErrBadSignature
	}
	return nil
}

// signingBytes returns the canonical encoding of every field except ttl
// and signature, per the envelope's signing invariant.
func (e *Envelope) signingBytes() []byte {
	return encode(e, false)
}

// DecrementTTL decrements the hop counter, returning ErrTTLExpired if it
// has already reached zero.
func (e *Envelope) DecrementTTL() error {
	if e.TTL == 0 {
		return ErrTTLExpired
	}
	e.TTL--
	return nil
}

// AppendHop appends relay to the via chain, enforcing MaxRelayHops.
func (e *Envelope) AppendHop(relay identity.NodeID) error {
	if len(e.Via) >= MaxRelayHops {
		return ErrTooManyHops
	}
	e.Via = append(e.Via, relay)
	return nil
}

// BuildEncrypted constructs a signed, encrypted envelope: the plaintext is
// sealed to recipientEncPub first, then the whole envelope is signed,
// per the encrypt-then-sign ordering.
func BuildEncrypted(sender *identity.Identity, to identity.NodeID, recipientEncPub [32]byte, msgType MessageType, plaintext []byte) (*Envelope, error) {
	ciphertext, err := EncryptPayload(recipientEncPub, plaintext)
	if err != nil {
		return nil, err
	}
	e := New(sender.NodeID(), to, msgType, ciphertext)
	e.Encrypted = true
	e.Sign(sender)
	return e, nil
}

// BuildPlaintext constructs a signed, unencrypted envelope.
func BuildPlaintext(sender *identity.Identity, to identity.NodeID, msgType MessageType, payload []byte) *Envelope {
	e := New(sender.NodeID(), to, msgType, payload)
	e.Sign(sender)
	return e
}

// Open returns the envelope's plaintext payload, decrypting it first if
// Encrypted is set.
func (e *Envelope) Open(recipient *identity.Identity) ([]byte, error) {
	if !e.Encrypted {
		return e.Payload, nil
	}
	return DecryptPayload(recipient, e.Payload)
}
