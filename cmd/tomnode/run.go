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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomnet-org/tomnet/backup"
	"github.com/tomnet-org/tomnet/config"
	"github.com/tomnet-org/tomnet/health"
	"github.com/tomnet-org/tomnet/internal/logger"
	"github.com/tomnet-org/tomnet/internal/metrics"
	"github.com/tomnet-org/tomnet/keystore"
	"github.com/tomnet-org/tomnet/runtime"
	"github.com/tomnet-org/tomnet/topology"
	"github.com/tomnet-org/tomnet/transport/websocket"
)

const identityName = "node"

var (
	runEnvironment string
	runPeers       []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the node daemon",
	Long: `Start the tomnode daemon: load configuration and identity, bring up
the websocket transport, and drive presence, routing, group, backup,
subnet, and role maintenance until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runEnvironment, "env", "", "Config environment to load (overrides TOM_ENV detection)")
	runCmd.Flags().StringSliceVar(&runPeers, "peer", nil, "Known peer to dial at startup, as <node-id-hex>@<ws://address>; repeatable")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.LoaderOptions{ConfigDir: configDir, Environment: runEnvironment})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewLogger(os.Stdout, levelFromString(cfg.Logging.Level))
	logger.SetDefaultLogger(log)

	store, err := keystore.NewFileStore(cfg.Identity.KeystoreDir)
	if err != nil {
		return fmt.Errorf("open keystore: %w", err)
	}
	self, err := keystore.LoadOrGenerate(store, identityName)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}
	log.Info("node identity ready", logger.String("node_id", self.NodeID().String()))

	peers := make([]contactPeer, 0, len(runPeers))
	for _, spec := range runPeers {
		p, err := parseContactPeer(spec)
		if err != nil {
			return err
		}
		peers = append(peers, p)
	}

	rtCfg := runtime.Config{
		Username:           cfg.Environment,
		BackupReplicaCount: cfg.Backup.ReplicaCount,
		BackupMessageTTL:   cfg.Backup.MessageTTL,
		GroupSendRateLimit: cfg.Group.SendRateLimit,
	}
	// trackerTTL has no dedicated config field; a day comfortably outlives
	// any delivery status an application would still care about.
	const trackerTTL = 24 * time.Hour
	state := runtime.New(self, rtCfg, cfg.Presence.OfflineThreshold, cfg.Router.DedupCacheTTL, trackerTTL)
	defer state.Close()

	dialer := &websocket.Dialer{}
	listener := websocket.NewListener()

	intervals := runtime.Intervals{
		Heartbeat:      cfg.Presence.SendInterval,
		PresenceCheck:  cfg.Presence.SendInterval,
		TrackerCleanup: 10 * time.Minute,
		Backup:         30 * time.Second,
		Subnet:         cfg.Subnet.EvaluationInterval,
		Roles:          cfg.Roles.EvaluationInterval,
		GroupHub:       cfg.Group.HubHeartbeatInterval,
	}
	// No host-quality telemetry source is wired up yet (disk/uptime
	// monitoring is outside this daemon's scope); report a steady-state
	// quality so backup migration only triggers on an operator's signal.
	quality := func() backup.HostQuality {
		return backup.HostQuality{UptimeRatio: 1, FreeCapacity: 1}
	}

	loop := runtime.NewLoop(state, dialer, listener, intervals, quality)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/ws", listener.Handler())
	wsServer := &http.Server{Addr: cfg.Transport.ListenAddr, Handler: mux}
	go func() {
		if err := wsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("websocket listener stopped", logger.Error(err))
		}
	}()

	if cfg.Metrics.Enabled {
		go func() {
			if err := metrics.StartServer(cfg.Metrics.Addr); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server stopped", logger.Error(err))
			}
		}()
	}

	if cfg.Health.Enabled {
		checker := health.NewHealthChecker(5 * time.Second)
		checker.RegisterCheck("keystore", health.KeystoreHealthCheck(func() error {
			if !store.Exists(identityName) {
				return fmt.Errorf("identity %q missing from keystore", identityName)
			}
			return nil
		}))
		checker.RegisterCheck("peers", health.PeerCountHealthCheck(func() int {
			return len(state.Topology.Online())
		}))
		healthMux := http.NewServeMux()
		healthMux.HandleFunc(cfg.Health.Path, func(w http.ResponseWriter, r *http.Request) {
			sys := checker.GetSystemHealth(r.Context())
			w.Header().Set("Content-Type", "application/json")
			if sys.Status != health.StatusHealthy {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			_ = json.NewEncoder(w).Encode(sys)
		})
		healthServer := &http.Server{Addr: cfg.Health.Addr, Handler: healthMux}
		go func() {
			if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("health server stopped", logger.Error(err))
			}
		}()
	}

	go loop.Run(ctx)

	for _, p := range peers {
		conn, err := dialer.Dial(ctx, p.Addr)
		if err != nil {
			log.Error("dial peer failed", logger.String("peer", p.NodeID.String()), logger.Error(err))
			continue
		}
		state.Topology.AddPeer(topology.PeerInfo{NodeID: p.NodeID, Status: topology.Online, LastSeen: time.Now().UnixMilli()})
		loop.AddConn(ctx, p.NodeID, conn)
		loop.Commands <- runtime.BroadcastAnnounceCommand{}
	}
	if len(peers) > 0 {
		loop.Commands <- runtime.QueryBackupCommand{}
	}

	go logEvents(ctx, log, loop.Events)

	log.Info("node started",
		logger.String("listen_addr", cfg.Transport.ListenAddr),
		logger.Int("known_peers", len(peers)),
	)

	<-ctx.Done()
	log.Info("shutting down")
	_ = listener.Close()
	_ = wsServer.Close()
	return nil
}

func logEvents(ctx context.Context, log logger.Logger, events <-chan runtime.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			switch e := ev.(type) {
			case runtime.ErrorEvent:
				rerr := classifyRuntimeError(e)
				log.Warn("runtime error",
					logger.String("kind", e.Kind),
					logger.String("detail", e.Detail),
					logger.String("code", rerr.Code),
				)
			case runtime.MessageReceivedEvent:
				log.Info("message received", logger.String("from", e.Message.From.String()), logger.String("id", e.Message.MessageID))
			case runtime.PeerOnlineEvent:
				log.Info("peer online", logger.String("peer", e.NodeID.String()))
			case runtime.PeerOfflineEvent:
				log.Info("peer offline", logger.String("peer", e.NodeID.String()))
			default:
				log.Debug("runtime event", logger.Any("event", fmt.Sprintf("%T", ev)))
			}
		}
	}
}
