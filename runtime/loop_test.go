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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomnet-org/tomnet/backup"
	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/topology"
	"github.com/tomnet-org/tomnet/transport"
)

func noopQuality() backup.HostQuality {
	return backup.HostQuality{UptimeRatio: 1, FreeCapacity: 1}
}

// disabledIntervals stops every periodic tick from firing during a test;
// tests that need a specific tick drive it directly via the state's
// Tick* methods instead of waiting on a timer.
func disabledIntervals() Intervals {
	return Intervals{}
}

func TestLoopDeliversChatMessageEndToEnd(t *testing.T) {
	aliceID, err := identity.Generate()
	require.NoError(t, err)
	bobID, err := identity.Generate()
	require.NoError(t, err)

	alice := New(aliceID, Config{Username: "alice", BackupMessageTTL: time.Hour}, time.Minute, time.Minute, 24*time.Hour)
	bob := New(bobID, Config{Username: "bob", BackupMessageTTL: time.Hour}, time.Minute, time.Minute, 24*time.Hour)
	defer alice.Close()
	defer bob.Close()

	alice.Topology.UpsertPeer(topology.PeerInfo{
		NodeID: bobID.NodeID(), EncryptionPublicKey: bobID.X25519EncPub, Status: topology.Online,
	})
	bob.Topology.UpsertPeer(topology.PeerInfo{
		NodeID: aliceID.NodeID(), EncryptionPublicKey: aliceID.X25519EncPub, Status: topology.Online,
	})
	// Each side has already seen the other, so first contact raises no
	// PeerOnlineEvent ahead of the events this test waits for.
	alice.Presence.Seen(bobID.NodeID(), time.Now().UnixMilli())
	bob.Presence.Seen(aliceID.NodeID(), time.Now().UnixMilli())

	connA, connB := transport.NewMockPair(aliceID.NodeID(), bobID.NodeID())

	loopA := NewLoop(alice, nil, nil, disabledIntervals(), noopQuality)
	loopB := NewLoop(bob, nil, nil, disabledIntervals(), noopQuality)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loopA.AddConn(ctx, bobID.NodeID(), connA)
	loopB.AddConn(ctx, aliceID.NodeID(), connB)
	go loopA.Run(ctx)
	go loopB.Run(ctx)

	loopA.Commands <- SendMessageCommand{To: bobID.NodeID(), Text: []byte("hello bob")}

	select {
	case ev := <-loopB.Events:
		msg, ok := ev.(MessageReceivedEvent)
		require.True(t, ok, "expected MessageReceivedEvent, got %T", ev)
		require.Equal(t, "hello bob", string(msg.Message.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	select {
	case ev := <-loopA.Events:
		_, ok := ev.(StatusChangedEvent)
		require.True(t, ok, "expected StatusChangedEvent (ack), got %T", ev)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ack status change")
	}
}

func TestLoopGetTopologyCommand(t *testing.T) {
	selfID, err := identity.Generate()
	require.NoError(t, err)
	s := New(selfID, Config{BackupMessageTTL: time.Hour}, time.Minute, time.Minute, 24*time.Hour)
	defer s.Close()

	peer, err := identity.Generate()
	require.NoError(t, err)
	s.Topology.UpsertPeer(topology.PeerInfo{NodeID: peer.NodeID(), Status: topology.Online})

	loop := NewLoop(s, nil, nil, disabledIntervals(), noopQuality)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	reply := make(chan []topology.PeerInfo, 1)
	loop.Commands <- GetTopologyCommand{Reply: reply}

	select {
	case peers := <-reply:
		require.Len(t, peers, 1)
		require.Equal(t, peer.NodeID(), peers[0].NodeID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for topology reply")
	}
}
