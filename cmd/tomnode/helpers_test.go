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
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomnet-org/tomnet/group"
	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/internal/logger"
	"github.com/tomnet-org/tomnet/runtime"
)

func TestParseContactPeerValid(t *testing.T) {
	id, err := identity.Generate()
	require.NoError(t, err)
	nodeID := id.NodeID()
	spec := hex.EncodeToString(nodeID[:]) + "@127.0.0.1:9000"

	peer, err := parseContactPeer(spec)
	require.NoError(t, err)
	assert.Equal(t, nodeID, peer.NodeID)
	assert.Equal(t, "127.0.0.1:9000", peer.Addr)
}

func TestParseContactPeerMissingAt(t *testing.T) {
	_, err := parseContactPeer("deadbeef")
	assert.Error(t, err)
}

func TestParseContactPeerBadHex(t *testing.T) {
	_, err := parseContactPeer("zz@127.0.0.1:9000")
	assert.Error(t, err)
}

func TestParseContactPeerWrongLength(t *testing.T) {
	_, err := parseContactPeer("deadbeef@127.0.0.1:9000")
	assert.Error(t, err)
}

func TestClassifyRuntimeErrorMapsSentinelsToCodes(t *testing.T) {
	cases := []struct {
		name string
		ev   runtime.ErrorEvent
		want string
	}{
		{"peer unknown", runtime.ErrorEvent{Kind: "unknown_peer", Err: fmt.Errorf("%w", runtime.ErrPeerUnknown)}, logger.ErrCodePeerUnknown},
		{"group unknown", runtime.ErrorEvent{Kind: "unknown_group", Err: fmt.Errorf("%w", runtime.ErrGroupUnknown)}, logger.ErrCodeGroupUnknown},
		{"unroutable", runtime.ErrorEvent{Kind: "unroutable", Err: fmt.Errorf("%w", runtime.ErrUnroutable)}, logger.ErrCodeUnroutable},
		{"decryption failed", runtime.ErrorEvent{Kind: "decrypt", Err: fmt.Errorf("%w", runtime.ErrDecryptionFailed)}, logger.ErrCodeCryptoError},
		{"malformed envelope", runtime.ErrorEvent{Kind: "decode", Err: fmt.Errorf("%w", runtime.ErrMalformedEnvelope)}, logger.ErrCodeValidationError},
		{"rate limited", runtime.ErrorEvent{Kind: "group_send_rejected", Err: fmt.Errorf("%w", group.ErrRateLimited)}, logger.ErrCodeRateLimited},
		{"invalid signature", runtime.ErrorEvent{Kind: "invalid_signature", Err: fmt.Errorf("%w", identity.ErrInvalidSignature)}, logger.ErrCodeCryptoError},
		{"unmapped", runtime.ErrorEvent{Kind: "encrypt_failed", Detail: "boom"}, logger.ErrCodeInternal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rerr := classifyRuntimeError(c.ev)
			assert.Equal(t, c.want, rerr.Code)
			assert.Equal(t, c.ev.Kind, rerr.Message)
		})
	}
}

func TestLevelFromString(t *testing.T) {
	cases := map[string]logger.Level{
		"debug": logger.DebugLevel,
		"DEBUG": logger.DebugLevel,
		"warn":  logger.WarnLevel,
		"error": logger.ErrorLevel,
		"info":  logger.InfoLevel,
		"":      logger.InfoLevel,
		"bogus": logger.InfoLevel,
	}
	for input, want := range cases {
		assert.Equal(t, want, levelFromString(input), "input %q", input)
	}
}
