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
	"context"
	"sync"
	"time"

	"github.com/tomnet-org/tomnet/backup"
	"github.com/tomnet-org/tomnet/envelope"
	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/topology"
	"github.com/tomnet-org/tomnet/transport"
)

// Intervals bundles the tick periods the Loop schedules. Callers derive
// these from config.Config's sub-structs.
type Intervals struct {
	Heartbeat      time.Duration
	PresenceCheck  time.Duration
	TrackerCleanup time.Duration
	Backup         time.Duration
	Subnet         time.Duration
	Roles          time.Duration
	GroupHub       time.Duration
}

// inboundFrame pairs a received frame with the connection it arrived on,
// so a decode failure can still be attributed to a peer for logging.
type inboundFrame struct {
	from identity.NodeID
	data []byte
}

// Loop drives a RuntimeState: it owns the live connection set, funnels
// inbound frames and application commands through the state's pure
// handlers, executes the resulting effects, and fires periodic ticks.
type Loop struct {
	state     *RuntimeState
	dialer    transport.Dialer
	listener  transport.Listener
	intervals Intervals
	quality   func() backup.HostQuality

	mu    sync.Mutex
	conns map[identity.NodeID]transport.Conn

	Commands chan Command
	Events   chan Event

	incoming chan inboundFrame
	wg       sync.WaitGroup
}

// NewLoop creates a Loop around state. quality supplies this node's
// current self-assessed backup host quality at each backup tick; a
// caller with no real capacity signal can return a constant.
func NewLoop(state *RuntimeState, dialer transport.Dialer, listener transport.Listener, intervals Intervals, quality func() backup.HostQuality) *Loop {
	return &Loop{
		state:     state,
		dialer:    dialer,
		listener:  listener,
		intervals: intervals,
		quality:   quality,
		conns:     make(map[identity.NodeID]transport.Conn),
		Commands:  make(chan Command, 64),
		Events:    make(chan Event, 256),
		incoming:  make(chan inboundFrame, 256),
	}
}

// AddConn registers an already-established connection to peer, e.g. after
// a successful Dial, and starts reading frames from it. ctx should be the
// same context passed to Run (or a context derived from it) so the read
// goroutine unwinds when the loop stops.
func (l *Loop) AddConn(ctx context.Context, peer identity.NodeID, conn transport.Conn) {
	l.mu.Lock()
	l.conns[peer] = conn
	l.mu.Unlock()

	l.wg.Add(1)
	go l.readLoop(ctx, peer, conn)
}

// Dial establishes an outbound connection to addr and registers it under
// peer once the transport reports who answered.
func (l *Loop) Dial(ctx context.Context, addr string) error {
	conn, err := l.dialer.Dial(ctx, addr)
	if err != nil {
		return err
	}
	l.AddConn(ctx, conn.RemotePeer(), conn)
	return nil
}

func (l *Loop) readLoop(ctx context.Context, peer identity.NodeID, conn transport.Conn) {
	defer l.wg.Done()
	for {
		frame, err := conn.Recv(ctx)
		if err != nil {
			l.mu.Lock()
			delete(l.conns, peer)
			l.mu.Unlock()
			return
		}
		select {
		case l.incoming <- inboundFrame{from: peer, data: frame}:
		case <-ctx.Done():
			return
		}
	}
}

func (l *Loop) acceptLoop(ctx context.Context) {
	defer l.wg.Done()
	for {
		conn, err := l.listener.Accept(ctx)
		if err != nil {
			return
		}
		l.AddConn(ctx, conn.RemotePeer(), conn)
	}
}

// Run blocks, dispatching inbound frames, commands, and periodic ticks
// until ctx is cancelled. It is the only goroutine that touches
// RuntimeState, preserving the single-writer invariant the state's
// handlers assume.
func (l *Loop) Run(ctx context.Context) {
	if l.listener != nil {
		l.wg.Add(1)
		go l.acceptLoop(ctx)
	}

	heartbeat := newTicker(l.intervals.Heartbeat)
	presence := newTicker(l.intervals.PresenceCheck)
	trackerCleanup := newTicker(l.intervals.TrackerCleanup)
	backupTick := newTicker(l.intervals.Backup)
	subnetTick := newTicker(l.intervals.Subnet)
	rolesTick := newTicker(l.intervals.Roles)
	groupHubTick := newTicker(l.intervals.GroupHub)
	defer func() {
		heartbeat.Stop()
		presence.Stop()
		trackerCleanup.Stop()
		backupTick.Stop()
		subnetTick.Stop()
		rolesTick.Stop()
		groupHubTick.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			l.wg.Wait()
			return

		case frame := <-l.incoming:
			l.execute(ctx, l.state.HandleIncoming(frame.data))

		case cmd := <-l.Commands:
			l.execute(ctx, l.dispatchCommand(cmd))

		case <-heartbeat.C:
			l.execute(ctx, l.state.TickHeartbeat())
		case <-presence.C:
			l.execute(ctx, l.state.TickPresence())
		case <-trackerCleanup.C:
			l.execute(ctx, l.state.TickTrackerCleanup())
		case <-backupTick.C:
			l.execute(ctx, l.state.TickBackup(l.quality()))
		case <-subnetTick.C:
			l.execute(ctx, l.state.TickSubnets())
		case <-rolesTick.C:
			l.execute(ctx, l.state.TickRoles())
		case <-groupHubTick.C:
			l.execute(ctx, l.state.TickGroupHubs())
		}
	}
}

// newTicker returns a ticker for d, or one that never fires if d is
// non-positive (a tick the caller has disabled).
func newTicker(d time.Duration) *time.Ticker {
	if d <= 0 {
		return time.NewTicker(time.Hour * 24 * 365)
	}
	return time.NewTicker(d)
}

func (l *Loop) dispatchCommand(cmd Command) []Effect {
	switch c := cmd.(type) {
	case SendMessageCommand:
		return l.state.HandleSendMessage(c.To, c.Text)
	case SendReadReceiptCommand:
		return l.state.HandleSendReadReceipt(c.To, c.MessageID)
	case AddPeerCommand, UpsertPeerCommand, RemovePeerCommand:
		return l.state.HandlePeerCommand(cmd)
	case CreateGroupCommand, AcceptInviteCommand, LeaveGroupCommand:
		return l.state.HandleGroupCommand(cmd)
	case SendGroupMessageCommand:
		return l.state.HandleSendGroupMessage(c.GroupID, c.Text)
	case GetTopologyCommand:
		c.Reply <- peerInfoSnapshot(l.state.Topology)
		return nil
	case GetConnectedPeersCommand:
		c.Reply <- l.connectedPeers()
		return nil
	case BroadcastAnnounceCommand:
		return l.state.BroadcastGossipAnnounce()
	case QueryBackupCommand:
		return l.state.HandleQueryBackup()
	case ConnectCommand, DisconnectCommand:
		return nil
	default:
		return nil
	}
}

func peerInfoSnapshot(topo *topology.Directory) []topology.PeerInfo {
	return topo.All()
}

func (l *Loop) connectedPeers() []identity.NodeID {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]identity.NodeID, 0, len(l.conns))
	for peer := range l.conns {
		out = append(out, peer)
	}
	return out
}

// execute runs every effect in order, performing the I/O a pure handler
// could only describe.
func (l *Loop) execute(ctx context.Context, effects []Effect) {
	for _, e := range effects {
		l.executeOne(ctx, e)
	}
}

func (l *Loop) executeOne(ctx context.Context, e Effect) {
	switch e.Kind {
	case EffectSendEnvelope:
		target := e.Envelope.To
		if len(e.Envelope.Via) > 0 {
			target = e.Envelope.Via[0]
		}
		l.send(ctx, target, e.Envelope)

	case EffectSendEnvelopeTo:
		l.send(ctx, e.Target, e.Envelope)

	case EffectDeliverMessage:
		l.Events <- MessageReceivedEvent{Message: *e.Delivered}

	case EffectStatusChange:
		l.Events <- StatusChangedEvent{
			MessageID: e.Status.MessageID,
			Previous:  e.Status.Previous.String(),
			Current:   e.Status.Current.String(),
		}

	case EffectEmit:
		l.Events <- e.Event

	case EffectSendWithBackupFallback:
		if l.send(ctx, e.Envelope.To, e.Envelope) {
			l.execute(ctx, e.OnSuccess)
		} else {
			l.execute(ctx, e.OnFailure)
		}
	}
}

// send transmits env to peer over its live connection, if any, reporting
// whether the frame was handed to the transport successfully.
func (l *Loop) send(ctx context.Context, peer identity.NodeID, env *envelope.Envelope) bool {
	l.mu.Lock()
	conn, ok := l.conns[peer]
	l.mu.Unlock()
	if !ok {
		return false
	}
	if err := conn.Send(ctx, envelope.Encode(env)); err != nil {
		return false
	}
	return true
}
