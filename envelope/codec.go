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

package envelope

import (
	"encoding/binary"
	"fmt"

	"github.com/tomnet-org/tomnet/identity"
)

// Encode renders the envelope as the canonical length-prefixed big-endian
// binary wire form, including the signature and ttl.
func Encode(e *Envelope) []byte {
	return encode(e, true)
}

// encode builds the binary form. When includeMutable is false, ttl and
// signature are omitted — this is also the byte string that gets signed.
func encode(e *Envelope, includeMutable bool) []byte {
	buf := make([]byte, 0, 256)

	buf = appendUint8(buf, ProtocolVersion)
	buf = appendLenPrefixed(buf, []byte(e.ID))
	buf = append(buf, e.From.Bytes()...)
	buf = append(buf, e.To.Bytes()...)

	buf = appendUint8(buf, uint8(len(e.Via)))
	for _, hop := range e.Via {
		buf = append(buf, hop.Bytes()...)
	}

	buf = appendUint8(buf, uint8(e.MsgType))
	buf = appendLenPrefixed(buf, e.Payload)

	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], e.Timestamp)
	buf = append(buf, tsBuf[:]...)

	buf = appendBool(buf, e.Encrypted)

	if includeMutable {
		var ttlBuf [4]byte
		binary.BigEndian.PutUint32(ttlBuf[:], e.TTL)
		buf = append(buf, ttlBuf[:]...)
		buf = append(buf, e.Signature[:]...)
	}

	return buf
}

// Decode parses the canonical wire form produced by Encode.
func Decode(data []byte) (*Envelope, error) {
	r := &reader{buf: data}

	version, err := r.uint8()
	if err != nil {
		return nil, err
	}
	if version != ProtocolVersion {
		return nil, ErrUnsupportedMagic
	}

	idBytes, err := r.lenPrefixed()
	if err != nil {
		return nil, err
	}

	fromBytes, err := r.fixed(32)
	if err != nil {
		return nil, err
	}
	from, err := identity.NodeIDFromBytes(fromBytes)
	if err != nil {
		return nil, err
	}

	toBytes, err := r.fixed(32)
	if err != nil {
		return nil, err
	}
	to, err := identity.NodeIDFromBytes(toBytes)
	if err != nil {
		return nil, err
	}

	hopCount, err := r.uint8()
	if err != nil {
		return nil, err
	}
	if int(hopCount) > MaxRelayHops {
		return nil, ErrTooManyHops
	}
	via := make([]identity.NodeID, 0, hopCount)
	for i := uint8(0); i < hopCount; i++ {
		hopBytes, err := r.fixed(32)
		if err != nil {
			return nil, err
		}
		hop, err := identity.NodeIDFromBytes(hopBytes)
		if err != nil {
			return nil, err
		}
		via = append(via, hop)
	}

	msgTypeRaw, err := r.uint8()
	if err != nil {
		return nil, err
	}

	payload, err := r.lenPrefixed()
	if err != nil {
		return nil, err
	}

	tsBytes, err := r.fixed(8)
	if err != nil {
		return nil, err
	}
	timestamp := binary.BigEndian.Uint64(tsBytes)

	encByte, err := r.uint8()
	if err != nil {
		return nil, err
	}

	ttlBytes, err := r.fixed(4)
	if err != nil {
		return nil, err
	}
	ttl := binary.BigEndian.Uint32(ttlBytes)

	sigBytes, err := r.fixed(64)
	if err != nil {
		return nil, err
	}

	e := &Envelope{
		ID:        string(idBytes),
		From:      from,
		To:        to,
		Via:       via,
		MsgType:   MessageType(msgTypeRaw),
		Payload:   payload,
		Timestamp: timestamp,
		TTL:       ttl,
		Encrypted: encByte == 1,
	}
	copy(e.Signature[:], sigBytes)
	return e, nil
}

func appendUint8(buf []byte, v uint8) []byte {
	return append(buf, v)
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func appendLenPrefixed(buf, data []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, data...)
}

// reader walks a byte slice sequentially, bounds-checking every read.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) uint8() (uint8, error) {
	if r.pos+1 > len(r.buf) {
		return 0, ErrTruncated
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) fixed(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, ErrTruncated
	}
	v := r.buf[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

func (r *reader) lenPrefixed() ([]byte, error) {
	lenBytes, err := r.fixed(4)
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBytes)
	if r.pos+int(n) > len(r.buf) {
		return nil, fmt.Errorf("envelope: %w: length-prefixed field claims %d bytes", ErrTruncated, n)
	}
	return r.fixed(int(n))
}
