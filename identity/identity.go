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

// Package identity holds the long-lived Ed25519 node keypair and its
// derived X25519 encryption keypair.
package identity

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

// NodeID is the 32-byte Ed25519 public key. It doubles as network address
// and identity; there is no separate registry.
type NodeID [ed25519.PublicKeySize]byte

// String renders the NodeID as lowercase hex.
func (n NodeID) String() string {
	const hextable = "0123456789abcdef"
	buf := make([]byte, len(n)*2)
	for i, b := range n {
		buf[i*2] = hextable[b>>4]
		buf[i*2+1] = hextable[b&0x0f]
	}
	return string(buf)
}

// Bytes returns the NodeID as a byte slice.
func (n NodeID) Bytes() []byte {
	return n[:]
}

// Less reports whether n sorts lexicographically before other. Used for
// deterministic hub election.
func (n NodeID) Less(other NodeID) bool {
	for i := range n {
		if n[i] != other[i] {
			return n[i] < other[i]
		}
	}
	return false
}

// NodeIDFromBytes validates and wraps a 32-byte public key.
func NodeIDFromBytes(b []byte) (NodeID, error) {
	var id NodeID
	if len(b) != ed25519.PublicKeySize {
		return id, fmt.Errorf("identity: bad node id length: %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}

// ErrInvalidSignature is returned by Verify when the signature does not match.
var ErrInvalidSignature = errors.New("identity: invalid signature")

// Identity is a node's long-lived Ed25519 keypair plus its X25519
// encryption public key, derived deterministically from the same seed.
type Identity struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey

	// X25519EncPub is the Montgomery-form public key used for ECDH. It is
	// derived from PublicKey and is safe to publish alongside the node id.
	X25519EncPub [32]byte
}

// NodeID returns the node's address/identity.
func (id *Identity) NodeID() NodeID {
	var n NodeID
	copy(n[:], id.PublicKey)
	return n
}

// Generate creates a fresh random identity.
func Generate() (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("identity: generate key: %w", err)
	}
	return FromSeed(priv.Seed())
}

// FromSeed rebuilds an identity from a persisted 32-byte Ed25519 seed.
func FromSeed(seed []byte) (*Identity, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("identity: bad seed length: %d", len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	xPub, err := PublicKeyToX25519(pub)
	if err != nil {
		return nil, err
	}

	return &Identity{
		PrivateKey:   priv,
		PublicKey:    pub,
		X25519EncPub: xPub,
	}, nil
}

// Seed returns the 32-byte seed backing this identity, suitable for
// persistence in a keystore.
func (id *Identity) Seed() []byte {
	return id.PrivateKey.Seed()
}

// Sign signs message with the node's Ed25519 private key.
func (id *Identity) Sign(message []byte) []byte {
	return ed25519.Sign(id.PrivateKey, message)
}

// Verify checks an Ed25519 signature produced by the node with the given
// public key over message.
func Verify(pub ed25519.PublicKey, message, signature []byte) error {
	if !ed25519.Verify(pub, message, signature) {
		return ErrInvalidSignature
	}
	return nil
}

// X25519PrivateKey returns the 32-byte X25519 scalar derived from this
// identity's Ed25519 private key, for use in ephemeral-static ECDH.
func (id *Identity) X25519PrivateKey() ([32]byte, error) {
	return PrivateKeyToX25519(id.PrivateKey)
}

// PrivateKeyToX25519 converts an Ed25519 private key into the X25519
// scalar used for Diffie-Hellman, per RFC 8032 §5.1.5: clamp SHA-512 of
// the seed.
func PrivateKeyToX25519(priv ed25519.PrivateKey) ([32]byte, error) {
	var out [32]byte
	if len(priv) != ed25519.PrivateKeySize {
		return out, fmt.Errorf("identity: bad ed25519 private key length: %d", len(priv))
	}
	seed := priv.Seed()
	h := sha512.Sum512(seed)
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64
	copy(out[:], h[:32])
	return out, nil
}

// PublicKeyToX25519 converts an Ed25519 public key (an Edwards curve
// point) into its Montgomery-form X25519 public key.
func PublicKeyToX25519(pub ed25519.PublicKey) ([32]byte, error) {
	var out [32]byte
	if len(pub) != ed25519.PublicKeySize {
		return out, fmt.Errorf("identity: bad ed25519 public key length: %d", len(pub))
	}
	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return out, fmt.Errorf("identity: invalid ed25519 public key: %w", err)
	}
	copy(out[:], p.BytesMontgomery())
	return out, nil
}

// CryptoPublicKey satisfies crypto.Signer-adjacent callers that expect the
// opaque crypto.PublicKey type.
func (id *Identity) CryptoPublicKey() crypto.PublicKey {
	return id.PublicKey
}
