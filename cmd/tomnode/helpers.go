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
	"errors"
	"fmt"
	"strings"

	"github.com/tomnet-org/tomnet/group"
	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/internal/logger"
	"github.com/tomnet-org/tomnet/runtime"
)

// contactPeer is one entry of the --peer flag: a known node id paired
// with the address to reach it at. Unlike a traditional client/server
// handshake, this protocol has no central directory to resolve a node
// id to an address, so the operator supplies both halves up front, the
// same way one would add a contact in any peer-to-peer messenger.
type contactPeer struct {
	NodeID identity.NodeID
	Addr   string
}

// parseContactPeer parses a "<hex-node-id>@<address>" flag value.
func parseContactPeer(spec string) (contactPeer, error) {
	idPart, addr, ok := strings.Cut(spec, "@")
	if !ok {
		return contactPeer{}, fmt.Errorf("peer %q: expected format <node-id-hex>@<address>", spec)
	}
	raw, err := hex.DecodeString(idPart)
	if err != nil {
		return contactPeer{}, fmt.Errorf("peer %q: decode node id: %w", spec, err)
	}
	id, err := identity.NodeIDFromBytes(raw)
	if err != nil {
		return contactPeer{}, fmt.Errorf("peer %q: %w", spec, err)
	}
	return contactPeer{NodeID: id, Addr: addr}, nil
}

// levelFromString maps a config log level string to a logger.Level,
// defaulting to Info for anything unrecognized.
func levelFromString(s string) logger.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return logger.DebugLevel
	case "WARN":
		return logger.WarnLevel
	case "ERROR":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

// classifyRuntimeError maps a runtime.ErrorEvent to the structured error
// code its wrapped sentinel (if any) corresponds to, so the daemon's
// logs carry the same taxonomy callers match against with errors.Is.
func classifyRuntimeError(e runtime.ErrorEvent) *logger.RuntimeError {
	code := logger.ErrCodeInternal
	switch {
	case errors.Is(e, runtime.ErrPeerUnknown):
		code = logger.ErrCodePeerUnknown
	case errors.Is(e, runtime.ErrGroupUnknown):
		code = logger.ErrCodeGroupUnknown
	case errors.Is(e, runtime.ErrNotHub):
		code = logger.ErrCodeGroupUnknown
	case errors.Is(e, runtime.ErrUnroutable):
		code = logger.ErrCodeUnroutable
	case errors.Is(e, runtime.ErrDecryptionFailed):
		code = logger.ErrCodeCryptoError
	case errors.Is(e, runtime.ErrMalformedEnvelope):
		code = logger.ErrCodeValidationError
	case errors.Is(e, group.ErrRateLimited):
		code = logger.ErrCodeRateLimited
	case errors.Is(e, identity.ErrInvalidSignature):
		code = logger.ErrCodeCryptoError
	}
	return logger.NewRuntimeError(code, e.Kind, e.Err).WithDetails("detail", e.Detail)
}
