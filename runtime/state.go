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
	"time"

	"github.com/tomnet-org/tomnet/backup"
	"github.com/tomnet-org/tomnet/envelope"
	"github.com/tomnet-org/tomnet/group"
	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/internal/logger"
	"github.com/tomnet-org/tomnet/internal/metrics"
	"github.com/tomnet-org/tomnet/presence"
	"github.com/tomnet-org/tomnet/relay"
	"github.com/tomnet-org/tomnet/roles"
	"github.com/tomnet-org/tomnet/router"
	"github.com/tomnet-org/tomnet/subnet"
	"github.com/tomnet-org/tomnet/topology"
	"github.com/tomnet-org/tomnet/tracker"
)

// Config bundles the timing parameters RuntimeState's handlers consult.
// Field-by-field this mirrors config.Config's sub-structs; it is kept
// separate so this package does not import config (which in turn would
// need to import every subsystem package just to describe their
// defaults).
type Config struct {
	Username           string
	BackupReplicaCount int
	BackupMessageTTL   time.Duration
	GroupSendRateLimit int
}

// RuntimeState owns every subsystem and exposes pure handler methods.
// Nothing in this type performs I/O; handlers mutate in-memory state and
// return []Effect for the executor to carry out. A single goroutine
// (the Loop) is expected to hold exclusive access — RuntimeState takes
// no internal locks of its own, matching the concurrency model's
// "exclusive ownership replaces locking" design.
type RuntimeState struct {
	Self   *identity.Identity
	Config Config
	Log    *logger.StructuredLogger

	Topology *topology.Directory
	Presence *presence.Tracker
	Router   *router.Router
	Relay    *relay.Selector
	Tracker  *tracker.Tracker
	Groups   *group.Manager
	Backup   *backup.Coordinator
	Subnets  *subnet.Manager
	Roles    *roles.Manager

	metrics  *metrics.RuntimeCollector
	lastHubs map[string]identity.NodeID
}

// New constructs a RuntimeState for self, wiring every subsystem with
// the given Config. presenceOfflineThreshold, dedupTTL, and trackerTTL
// come from config.Config's own sub-structs at call sites; they are
// accepted here rather than re-derived so this package stays decoupled
// from the config package's YAML tags.
func New(self *identity.Identity, cfg Config, presenceOfflineThreshold, dedupTTL, trackerTTL time.Duration) *RuntimeState {
	topo := topology.New()
	selector := relay.NewSelector(self.NodeID())

	return &RuntimeState{
		Self:     self,
		Config:   cfg,
		Log:      logger.NewDefaultLogger(),
		Topology: topo,
		Presence: presence.NewTracker(presenceOfflineThreshold),
		Router:   router.New(self, router.NewDedupCache(dedupTTL), selector, topo),
		Relay:    selector,
		Tracker:  tracker.New(trackerTTL),
		Groups:   group.NewManager(cfg.GroupSendRateLimit),
		Backup:   backup.New(),
		Subnets:  subnet.NewManager(),
		Roles:    roles.NewManager(roles.DefaultConfig()),
		metrics:  metrics.GetGlobalCollector(),
		lastHubs: make(map[string]identity.NodeID),
	}
}

// Close releases background resources owned by subsystems (rate
// limiter refill loops, dedup cache GC).
func (s *RuntimeState) Close() {
	s.Router.Dedup.Close()
	s.Groups.Close()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// noteActivity records a send/receive between self and peer in the
// subnet density graph and refreshes presence, the two pieces of shared
// state every handler that talks to a specific peer should touch.
func (s *RuntimeState) noteActivity(peer identity.NodeID) []Effect {
	s.Subnets.RecordExchange(s.Self.NodeID(), peer)
	s.Subnets.Touch(s.Self.NodeID(), nowMillis())
	s.Subnets.Touch(peer, nowMillis())

	transition, ok := s.Presence.Seen(peer, nowMillis())
	if !ok {
		return nil
	}
	s.Topology.SetStatus(peer, topology.Online, transition.AtMillis)
	return []Effect{Emit(PeerOnlineEvent{NodeID: peer})}
}
