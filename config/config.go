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

// Package config provides configuration management for a tomnet node.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration structure for a node runtime.
type Config struct {
	Environment string           `yaml:"environment" json:"environment"`
	Identity    *IdentityConfig  `yaml:"identity" json:"identity"`
	Transport   *TransportConfig `yaml:"transport" json:"transport"`
	Presence    *PresenceConfig  `yaml:"presence" json:"presence"`
	Router      *RouterConfig    `yaml:"router" json:"router"`
	Group       *GroupConfig     `yaml:"group" json:"group"`
	Backup      *BackupConfig    `yaml:"backup" json:"backup"`
	Subnet      *SubnetConfig    `yaml:"subnet" json:"subnet"`
	Roles       *RolesConfig     `yaml:"roles" json:"roles"`
	Logging     *LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig   `yaml:"metrics" json:"metrics"`
	Health      *HealthConfig    `yaml:"health" json:"health"`
}

// IdentityConfig configures the node's long-term key material.
type IdentityConfig struct {
	KeystoreDir   string `yaml:"keystore_dir" json:"keystore_dir"`
	PassphraseEnv string `yaml:"passphrase_env" json:"passphrase_env"`
}

// TransportConfig configures the wire transport used to reach peers.
type TransportConfig struct {
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`
}

// PresenceConfig configures the heartbeat tracker.
type PresenceConfig struct {
	SendInterval      time.Duration `yaml:"send_interval" json:"send_interval"`
	OfflineThreshold  time.Duration `yaml:"offline_threshold" json:"offline_threshold"`
}

// RouterConfig configures the routing decision engine.
type RouterConfig struct {
	DedupCacheTTL     time.Duration `yaml:"dedup_cache_ttl" json:"dedup_cache_ttl"`
	InitialEnvelopeTTL uint32       `yaml:"initial_envelope_ttl" json:"initial_envelope_ttl"`
}

// GroupConfig configures group hubs.
type GroupConfig struct {
	HubHeartbeatInterval time.Duration `yaml:"hub_heartbeat_interval" json:"hub_heartbeat_interval"`
	SendRateLimit        int           `yaml:"send_rate_limit" json:"send_rate_limit"`
}

// BackupConfig configures viral backup replication.
type BackupConfig struct {
	ReplicaCount int           `yaml:"replica_count" json:"replica_count"`
	MessageTTL   time.Duration `yaml:"message_ttl" json:"message_ttl"`
}

// SubnetConfig configures ephemeral subnet formation.
type SubnetConfig struct {
	EvaluationInterval time.Duration `yaml:"evaluation_interval" json:"evaluation_interval"`
	InactivityTTL      time.Duration `yaml:"inactivity_ttl" json:"inactivity_ttl"`
}

// RolesConfig configures peer/relay role promotion and gossip.
type RolesConfig struct {
	EvaluationInterval time.Duration `yaml:"evaluation_interval" json:"evaluation_interval"`
	GossipInterval     time.Duration `yaml:"gossip_interval" json:"gossip_interval"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
}

// HealthConfig represents health check configuration.
type HealthConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
}

// LoadFromFile loads configuration from a file, trying YAML then JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile saves configuration to a file, choosing format by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setDefaults fills unset fields with the runtime's default values.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Identity == nil {
		cfg.Identity = &IdentityConfig{}
	}
	if cfg.Identity.KeystoreDir == "" {
		cfg.Identity.KeystoreDir = ".tomnet/keys"
	}

	if cfg.Transport == nil {
		cfg.Transport = &TransportConfig{}
	}
	if cfg.Transport.ListenAddr == "" {
		cfg.Transport.ListenAddr = ":7700"
	}

	if cfg.Presence == nil {
		cfg.Presence = &PresenceConfig{}
	}
	if cfg.Presence.SendInterval == 0 {
		cfg.Presence.SendInterval = 5 * time.Second
	}
	if cfg.Presence.OfflineThreshold == 0 {
		cfg.Presence.OfflineThreshold = 15 * time.Second
	}

	if cfg.Router == nil {
		cfg.Router = &RouterConfig{}
	}
	if cfg.Router.DedupCacheTTL == 0 {
		cfg.Router.DedupCacheTTL = 24 * time.Hour
	}
	if cfg.Router.InitialEnvelopeTTL == 0 {
		cfg.Router.InitialEnvelopeTTL = 4
	}

	if cfg.Group == nil {
		cfg.Group = &GroupConfig{}
	}
	if cfg.Group.HubHeartbeatInterval == 0 {
		cfg.Group.HubHeartbeatInterval = 30 * time.Second
	}
	if cfg.Group.SendRateLimit == 0 {
		cfg.Group.SendRateLimit = 2
	}

	if cfg.Backup == nil {
		cfg.Backup = &BackupConfig{}
	}
	if cfg.Backup.ReplicaCount == 0 {
		cfg.Backup.ReplicaCount = 3
	}
	if cfg.Backup.MessageTTL == 0 {
		cfg.Backup.MessageTTL = 24 * time.Hour
	}

	if cfg.Subnet == nil {
		cfg.Subnet = &SubnetConfig{}
	}
	if cfg.Subnet.EvaluationInterval == 0 {
		cfg.Subnet.EvaluationInterval = 30 * time.Second
	}
	if cfg.Subnet.InactivityTTL == 0 {
		cfg.Subnet.InactivityTTL = 5 * time.Minute
	}

	if cfg.Roles == nil {
		cfg.Roles = &RolesConfig{}
	}
	if cfg.Roles.EvaluationInterval == 0 {
		cfg.Roles.EvaluationInterval = 60 * time.Second
	}
	if cfg.Roles.GossipInterval == 0 {
		cfg.Roles.GossipInterval = 10 * time.Second
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Health == nil {
		cfg.Health = &HealthConfig{}
	}
	if cfg.Health.Addr == "" {
		cfg.Health.Addr = ":9091"
	}
	if cfg.Health.Path == "" {
		cfg.Health.Path = "/healthz"
	}
}
