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
	"errors"

	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/router"
)

// Sentinel errors for the conditions this package itself detects. A
// caller matches one of these with errors.Is against the ErrorEvent
// value Emit carries, not against the Kind string, which exists only
// for logging. identity.ErrInvalidSignature and group.ErrRateLimited
// cover the two conditions owned by those packages; ErrorEvent.Err
// wraps whichever of the two a given failure actually came from.
var (
	ErrPeerUnknown       = errors.New("runtime: peer unknown")
	ErrGroupUnknown      = errors.New("runtime: group unknown")
	ErrNotHub            = errors.New("runtime: no hub available for group")
	ErrDecryptionFailed  = errors.New("runtime: decryption failed")
	ErrMalformedEnvelope = errors.New("runtime: malformed envelope payload")
	ErrUnroutable        = errors.New("runtime: no route to destination")
)

// routerReasonError maps a router drop/reject reason to the sentinel it
// corresponds to, when one of the eight is a fit. Reasons like duplicate
// or self-loop are expected steady-state traffic shaping, not failures
// a caller would want to errors.Is against, so they report nil.
func routerReasonError(r router.Reason) error {
	switch r {
	case router.ReasonInvalidSignature:
		return identity.ErrInvalidSignature
	case router.ReasonDecryptionFailed:
		return ErrDecryptionFailed
	case router.ReasonUnroutable:
		return ErrUnroutable
	default:
		return nil
	}
}
