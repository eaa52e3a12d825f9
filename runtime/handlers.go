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

package runtime

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomnet-org/tomnet/backup"
	"github.com/tomnet-org/tomnet/envelope"
	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/router"
	"github.com/tomnet-org/tomnet/topology"
	"github.com/tomnet-org/tomnet/tracker"
)

// HandleIncoming decodes and routes one inbound wire frame, returning the
// effects the executor must carry out (forwarding, delivery, acks).
func (s *RuntimeState) HandleIncoming(frame []byte) []Effect {
	e, err := envelope.Decode(frame)
	if err != nil {
		return []Effect{Emit(ErrorEvent{Kind: "decode", Detail: err.Error(), Err: fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)})}
	}

	effects := s.noteActivity(e.From)
	decision := s.Router.Decide(e)

	switch decision.Action {
	case router.ActionDeliver:
		return append(effects, s.handleDeliver(decision)...)
	case router.ActionForward:
		return append(effects, SendEnvelopeTo(decision.NextHop, decision.Envelope))
	case router.ActionAck, router.ActionReadReceipt:
		return append(effects, s.handleStatusUpdate(decision)...)
	case router.ActionReject, router.ActionDrop:
		s.metrics.RecordDrop()
		if sentinel := routerReasonError(decision.Reason); sentinel != nil {
			effects = append(effects, Emit(ErrorEvent{
				Kind:   string(decision.Reason),
				Detail: decision.Envelope.ID,
				Err:    fmt.Errorf("%w: envelope %s", sentinel, decision.Envelope.ID),
			}))
		}
		return effects
	default:
		return effects
	}
}

func (s *RuntimeState) handleDeliver(d router.Decision) []Effect {
	e := d.Envelope
	s.metrics.RecordReceive(0)

	switch e.MsgType {
	case envelope.Chat:
		return s.deliverChat(e)
	case envelope.Ack, envelope.ReadReceipt:
		return s.handleStatusUpdate(d)
	case envelope.GroupMessage:
		return s.deliverGroupMessage(e)
	case envelope.GroupInvite:
		return s.deliverGroupInvite(e)
	case envelope.BackupStore:
		return s.deliverBackupStore(e)
	case envelope.BackupAck:
		return s.deliverBackupAck(e)
	case envelope.BackupQuery:
		return s.deliverBackupQuery(e)
	case envelope.PeerAnnounce, envelope.RoleAssignment:
		return s.deliverGossip(e)
	case envelope.Heartbeat, envelope.GroupHubHeartbeat:
		return nil
	default:
		return []Effect{Emit(ErrorEvent{Kind: "unhandled_message_type", Detail: e.MsgType.String()})}
	}
}

func (s *RuntimeState) deliverChat(e *envelope.Envelope) []Effect {
	plaintext, wasEncrypted, sigValid := s.openIfNeeded(e)
	delivered := DeliveredMessage{
		From:           e.From,
		MessageID:      e.ID,
		Payload:        plaintext,
		WasEncrypted:   wasEncrypted,
		SignatureValid: sigValid,
		Timestamp:      e.Timestamp,
	}

	ack := envelope.BuildPlaintext(s.Self, e.From, envelope.Ack, []byte(e.ID))

	return []Effect{
		DeliverMessage(delivered),
		SendEnvelope(ack),
	}
}

// openIfNeeded decrypts e's payload when encrypted, reporting the
// plaintext and whether decryption/signature verification succeeded.
// The signature itself was already checked by the router's Verify call
// before delivery; sigValid is false only when decrypting the payload
// fails, and payload is then nil.
func (s *RuntimeState) openIfNeeded(e *envelope.Envelope) (payload []byte, wasEncrypted, sigValid bool) {
	if !e.Encrypted {
		return e.Payload, false, true
	}
	plaintext, err := e.Open(s.Self)
	if err != nil {
		return nil, true, false
	}
	return plaintext, true, true
}

func (s *RuntimeState) handleStatusUpdate(d router.Decision) []Effect {
	var to tracker.State
	switch d.Envelope.MsgType {
	case envelope.Ack:
		to = tracker.Sent
	case envelope.ReadReceipt:
		to = tracker.Read
	default:
		return nil
	}

	id := string(d.Envelope.Payload)
	status, found := s.Tracker.Get(id)
	if !found {
		return nil
	}
	previous := status.Current
	if !s.Tracker.Transition(id, to, time.Now()) {
		return nil
	}
	notice := StatusChangeNotice{MessageID: id, Previous: previous, Current: to}
	return []Effect{StatusChange(notice)}
}

// HandleSendMessage starts an outbound chat send: builds and signs an
// encrypted envelope, and arranges a backup store as the fallback path
// if the direct/relayed send fails.
func (s *RuntimeState) HandleSendMessage(to identity.NodeID, payload []byte) []Effect {
	peer, found := s.Topology.Get(to)
	if !found {
		return []Effect{Emit(ErrorEvent{Kind: "unknown_peer", Detail: to.String(), Err: fmt.Errorf("%w: %s", ErrPeerUnknown, to)})}
	}

	e, err := envelope.BuildEncrypted(s.Self, to, peer.EncryptionPublicKey, envelope.Chat, payload)
	if err != nil {
		return []Effect{Emit(ErrorEvent{Kind: "encrypt_failed", Detail: err.Error()})}
	}

	s.Tracker.Create(e.ID, to, time.Now())
	s.metrics.RecordSend()

	fallback := s.buildBackupFallback(e)
	return []Effect{SendWithBackupFallback(e, nil, fallback)}
}

// buildBackupFallback picks backup replicas for e and returns the effects
// to run if the direct send fails: store the envelope with each replica
// and notify the application.
func (s *RuntimeState) buildBackupFallback(e *envelope.Envelope) []Effect {
	candidates := onlineRelayCandidates(s.Topology, s.Self.NodeID())
	replicas := backup.SelectReplicas(candidates, e.To, s.Self.NodeID())
	if s.Config.BackupReplicaCount > 0 && len(replicas) > s.Config.BackupReplicaCount {
		replicas = replicas[:s.Config.BackupReplicaCount]
	}
	if len(replicas) == 0 {
		return []Effect{Emit(ErrorEvent{Kind: "no_backup_peers", Detail: e.ID, Err: fmt.Errorf("%w: no backup replicas available for %s", ErrUnroutable, e.ID)})}
	}

	expiresAt := time.Now().Add(s.Config.BackupMessageTTL).UnixMilli()
	payload := encodeBackupPayload(expiresAt, envelope.Encode(e))

	effects := make([]Effect, 0, len(replicas)+1)
	for _, r := range replicas {
		store := envelope.New(s.Self.NodeID(), r, envelope.BackupStore, payload)
		store.Sign(s.Self)
		effects = append(effects, SendEnvelopeTo(r, store))
	}
	effects = append(effects, Emit(BackupStoredEvent{MessageID: e.ID, Replicas: replicas}))
	return effects
}

// encodeBackupPayload prefixes raw envelope bytes with the absolute
// expiry the backup holder should enforce, since the inner envelope's
// own TTL counts relay hops, not wall-clock backup lifetime.
func encodeBackupPayload(expiresAtMs int64, raw []byte) []byte {
	out := make([]byte, 8+len(raw))
	binary.BigEndian.PutUint64(out[:8], uint64(expiresAtMs))
	copy(out[8:], raw)
	return out
}

func decodeBackupPayload(payload []byte) (expiresAtMs int64, raw []byte, ok bool) {
	if len(payload) < 8 {
		return 0, nil, false
	}
	return int64(binary.BigEndian.Uint64(payload[:8])), payload[8:], true
}

func onlineRelayCandidates(topo *topology.Directory, self identity.NodeID) []identity.NodeID {
	online := topo.Online()
	out := make([]identity.NodeID, 0, len(online))
	for _, p := range online {
		if p.NodeID != self {
			out = append(out, p.NodeID)
		}
	}
	return out
}

// HandleSendReadReceipt acknowledges messageID as read to peer to.
func (s *RuntimeState) HandleSendReadReceipt(to identity.NodeID, messageID string) []Effect {
	e := envelope.BuildPlaintext(s.Self, to, envelope.ReadReceipt, []byte(messageID))
	return []Effect{SendEnvelope(e)}
}

// HandlePeerCommand applies a topology mutation command.
func (s *RuntimeState) HandlePeerCommand(cmd Command) []Effect {
	switch c := cmd.(type) {
	case AddPeerCommand:
		s.Topology.AddPeer(c.Peer)
	case UpsertPeerCommand:
		s.Topology.UpsertPeer(c.Peer)
	case RemovePeerCommand:
		s.Topology.RemovePeer(c.NodeID)
	}
	return nil
}

// HandleSendGroupMessage sends a chat message to every member of a group
// whose local hub election picks this node; otherwise it forwards the
// message to the elected hub for fan-out.
func (s *RuntimeState) HandleSendGroupMessage(groupID string, payload []byte) []Effect {
	g, ok := s.Groups.Get(groupID)
	if !ok {
		return []Effect{Emit(ErrorEvent{Kind: "unknown_group", Detail: groupID, Err: fmt.Errorf("%w: %s", ErrGroupUnknown, groupID)})}
	}
	hub, ok := g.Hub(s.Topology)
	if !ok {
		return []Effect{Emit(ErrorEvent{Kind: "group_no_hub", Detail: groupID, Err: fmt.Errorf("%w: %s", ErrNotHub, groupID)})}
	}

	self := s.Self.NodeID()
	if hub == self {
		messageID := uuid.NewString()
		return s.fanOutGroupMessage(groupID, self, messageID, payload)
	}

	hubPeer, found := s.Topology.Get(hub)
	if !found {
		return []Effect{Emit(ErrorEvent{Kind: "unknown_peer", Detail: hub.String(), Err: fmt.Errorf("%w: %s", ErrPeerUnknown, hub)})}
	}
	wire := encodeGroupPayload(groupID, self, payload)
	e, err := envelope.BuildEncrypted(s.Self, hub, hubPeer.EncryptionPublicKey, envelope.GroupMessage, wire)
	if err != nil {
		return []Effect{Emit(ErrorEvent{Kind: "encrypt_failed", Detail: err.Error()})}
	}
	return []Effect{SendEnvelope(e)}
}

func (s *RuntimeState) fanOutGroupMessage(groupID string, from identity.NodeID, messageID string, text []byte) []Effect {
	recipients, err := s.Groups.AcceptAsHub(groupID, messageID, from)
	if err != nil {
		return []Effect{Emit(ErrorEvent{Kind: "group_send_rejected", Detail: err.Error(), Err: err})}
	}
	wire := encodeGroupPayload(groupID, from, text)
	effects := make([]Effect, 0, len(recipients)+1)
	for _, r := range recipients {
		peer, found := s.Topology.Get(r)
		if !found {
			effects = append(effects, Emit(ErrorEvent{Kind: "unknown_peer", Detail: r.String(), Err: fmt.Errorf("%w: %s", ErrPeerUnknown, r)}))
			continue
		}
		out, err := envelope.BuildEncrypted(s.Self, r, peer.EncryptionPublicKey, envelope.GroupMessage, wire)
		if err != nil {
			effects = append(effects, Emit(ErrorEvent{Kind: "encrypt_failed", Detail: err.Error()}))
			continue
		}
		effects = append(effects, SendEnvelopeTo(r, out))
	}
	effects = append(effects, Emit(GroupMessageEvent{GroupID: groupID, From: from, Text: text}))
	return effects
}

// encodeGroupPayload prefixes text with a length-delimited group id and
// the original sender's node id: a hub relaying a fan-out envelope is
// not the author of the message, so From alone (the envelope's
// immediate sender) cannot tell a recipient who actually wrote it.
func encodeGroupPayload(groupID string, from identity.NodeID, text []byte) []byte {
	out := make([]byte, 2+len(groupID)+len(from)+len(text))
	binary.BigEndian.PutUint16(out[:2], uint16(len(groupID)))
	copy(out[2:2+len(groupID)], groupID)
	copy(out[2+len(groupID):2+len(groupID)+len(from)], from[:])
	copy(out[2+len(groupID)+len(from):], text)
	return out
}

func decodeGroupPayload(payload []byte) (groupID string, from identity.NodeID, text []byte, ok bool) {
	if len(payload) < 2 {
		return "", identity.NodeID{}, nil, false
	}
	n := int(binary.BigEndian.Uint16(payload[:2]))
	if len(payload) < 2+n+len(from) {
		return "", identity.NodeID{}, nil, false
	}
	groupID = string(payload[2 : 2+n])
	copy(from[:], payload[2+n:2+n+len(from)])
	text = payload[2+n+len(from):]
	return groupID, from, text, true
}

// HandleGroupCommand applies a group lifecycle command.
func (s *RuntimeState) HandleGroupCommand(cmd Command) []Effect {
	switch c := cmd.(type) {
	case CreateGroupCommand:
		s.Groups.Create(c.GroupID, c.Name, c.Members)
		return []Effect{Emit(GroupCreatedEvent{GroupID: c.GroupID})}
	case AcceptInviteCommand:
		if err := s.Groups.Join(c.GroupID, s.Self.NodeID()); err != nil {
			return []Effect{Emit(ErrorEvent{Kind: "accept_invite_failed", Detail: err.Error(), Err: err})}
		}
		return []Effect{Emit(GroupMemberJoinedEvent{GroupID: c.GroupID, Member: s.Self.NodeID()})}
	case LeaveGroupCommand:
		s.Groups.Leave(c.GroupID, s.Self.NodeID())
		return nil
	default:
		return nil
	}
}

// deliverGroupMessage handles a GroupMessage envelope addressed to this
// node: if this node is the group's hub, the sender was a spoke asking to
// fan the message out; otherwise this node is a spoke receiving the
// hub's fan-out and simply surfaces the message.
func (s *RuntimeState) deliverGroupMessage(e *envelope.Envelope) []Effect {
	payload, _, sigValid := s.openIfNeeded(e)
	if !sigValid {
		return []Effect{Emit(ErrorEvent{Kind: "group_message_decrypt_failed", Detail: e.ID, Err: fmt.Errorf("%w: envelope %s", ErrDecryptionFailed, e.ID)})}
	}
	groupID, from, text, ok := decodeGroupPayload(payload)
	if !ok {
		return []Effect{Emit(ErrorEvent{Kind: "group_message_decode_failed", Detail: e.ID, Err: fmt.Errorf("%w: envelope %s", ErrMalformedEnvelope, e.ID)})}
	}

	g, found := s.Groups.Get(groupID)
	if !found {
		return []Effect{Emit(ErrorEvent{Kind: "unknown_group", Detail: groupID, Err: fmt.Errorf("%w: %s", ErrGroupUnknown, groupID)})}
	}
	if hub, ok := g.Hub(s.Topology); ok && hub == s.Self.NodeID() && e.From != s.Self.NodeID() {
		return s.fanOutGroupMessage(groupID, from, e.ID, text)
	}
	return []Effect{Emit(GroupMessageEvent{GroupID: groupID, From: from, Text: text})}
}

func (s *RuntimeState) deliverGroupInvite(e *envelope.Envelope) []Effect {
	if err := s.Groups.Join(string(e.Payload), s.Self.NodeID()); err != nil {
		return []Effect{Emit(ErrorEvent{Kind: "group_invite_failed", Detail: err.Error(), Err: err})}
	}
	return []Effect{Emit(GroupCreatedEvent{GroupID: string(e.Payload)})}
}

func (s *RuntimeState) deliverBackupStore(e *envelope.Envelope) []Effect {
	expiresAtMs, raw, ok := decodeBackupPayload(e.Payload)
	if !ok {
		return []Effect{Emit(ErrorEvent{Kind: "backup_decode_failed", Detail: e.ID, Err: fmt.Errorf("%w: envelope %s", ErrMalformedEnvelope, e.ID)})}
	}
	inner, err := envelope.Decode(raw)
	if err != nil {
		return []Effect{Emit(ErrorEvent{Kind: "backup_decode_failed", Detail: err.Error(), Err: fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)})}
	}
	s.Backup.Store(inner.ID, inner.To, raw, expiresAtMs, []identity.NodeID{s.Self.NodeID()})
	return nil
}

func (s *RuntimeState) deliverBackupAck(e *envelope.Envelope) []Effect {
	messageID := string(e.Payload)
	others := s.Backup.Ack(messageID, s.Self.NodeID())
	effects := make([]Effect, 0, len(others))
	for _, r := range others {
		ack := envelope.New(s.Self.NodeID(), r, envelope.BackupAck, e.Payload)
		ack.Sign(s.Self)
		effects = append(effects, SendEnvelopeTo(r, ack))
	}
	return effects
}

// HandleQueryBackup asks every online peer (other than self) whether it
// holds backup entries for this node. Each query is sealed to its
// recipient so a relay forwarding it cannot learn which node the query
// is actually about; the payload is that target node id.
func (s *RuntimeState) HandleQueryBackup() []Effect {
	self := s.Self.NodeID()
	var effects []Effect
	for _, p := range s.Topology.Online() {
		if p.NodeID == self {
			continue
		}
		e, err := envelope.BuildEncrypted(s.Self, p.NodeID, p.EncryptionPublicKey, envelope.BackupQuery, self[:])
		if err != nil {
			effects = append(effects, Emit(ErrorEvent{Kind: "encrypt_failed", Detail: err.Error()}))
			continue
		}
		effects = append(effects, SendEnvelopeTo(p.NodeID, e))
	}
	return effects
}

// deliverBackupQuery answers a BackupQuery: decrypt the query to learn
// which node it is asking about, then re-forward every held entry for
// that node directly to it. This node already holds the entry as a
// fully signed, independently verifiable envelope, so it is simply
// re-sent rather than wrapped in another BackupStore round trip.
func (s *RuntimeState) deliverBackupQuery(e *envelope.Envelope) []Effect {
	payload, _, sigValid := s.openIfNeeded(e)
	if !sigValid {
		return []Effect{Emit(ErrorEvent{Kind: "backup_query_decrypt_failed", Detail: e.ID, Err: fmt.Errorf("%w: envelope %s", ErrDecryptionFailed, e.ID)})}
	}
	target, err := identity.NodeIDFromBytes(payload)
	if err != nil {
		return []Effect{Emit(ErrorEvent{Kind: "backup_query_decode_failed", Detail: e.ID, Err: fmt.Errorf("%w: envelope %s", ErrMalformedEnvelope, e.ID)})}
	}

	pending := s.Backup.PendingForRecipient(target)
	effects := make([]Effect, 0, len(pending))
	for _, entry := range pending {
		inner, err := envelope.Decode(entry.EnvelopeBytes)
		if err != nil {
			continue
		}
		effects = append(effects, SendEnvelopeTo(target, inner))
	}
	return effects
}

func (s *RuntimeState) deliverGossip(e *envelope.Envelope) []Effect {
	switch e.MsgType {
	case envelope.PeerAnnounce:
		return s.HandleGossipAnnounce(e)
	default:
		return nil
	}
}
