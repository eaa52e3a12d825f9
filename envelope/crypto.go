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
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/tomnet-org/tomnet/identity"
)

// hkdfInfo is the literal HKDF info string fixing this protocol's key
// derivation domain.
const hkdfInfo = "tom-protocol-e2e-xchacha20poly1305-v1"

// EncryptPayload performs ephemeral-static X25519 ECDH against the
// recipient's long-term encryption public key, derives a XChaCha20-Poly1305
// key via HKDF-SHA256, and seals plaintext. The wire payload is
// ephemeral_pk(32) || nonce(24) || ciphertext.
func EncryptPayload(recipientEncPub [32]byte, plaintext []byte) ([]byte, error) {
	curve := ecdh.X25519()

	ephPriv, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("envelope: generate ephemeral key: %w", err)
	}
	ephPub := ephPriv.PublicKey()

	peerPub, err := curve.NewPublicKey(recipientEncPub[:])
	if err != nil {
		return nil, fmt.Errorf("envelope: invalid recipient encryption key: %w", err)
	}

	shared, err := ephPriv.ECDH(peerPub)
	if err != nil {
		return nil, fmt.Errorf("envelope: ecdh: %w", err)
	}

	key, err := deriveKey(shared, ephPub.Bytes(), recipientEncPub[:])
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: new aead: %w", err)
	}

	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("envelope: read nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	out := make([]byte, 0, 32+len(nonce)+len(ciphertext))
	out = append(out, ephPub.Bytes()...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// DecryptPayload reverses EncryptPayload using the recipient's identity.
func DecryptPayload(recipient *identity.Identity, payload []byte) ([]byte, error) {
	const ephLen = 32
	if len(payload) < ephLen+chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("envelope: payload too short")
	}

	ephPubBytes := payload[:ephLen]
	nonce := payload[ephLen : ephLen+chacha20poly1305.NonceSizeX]
	ciphertext := payload[ephLen+chacha20poly1305.NonceSizeX:]

	curve := ecdh.X25519()
	ephPub, err := curve.NewPublicKey(ephPubBytes)
	if err != nil {
		return nil, fmt.Errorf("envelope: invalid ephemeral key: %w", err)
	}

	xPrivBytes, err := recipient.X25519PrivateKey()
	if err != nil {
		return nil, err
	}
	xPriv, err := curve.NewPrivateKey(xPrivBytes[:])
	if err != nil {
		return nil, fmt.Errorf("envelope: invalid recipient private key: %w", err)
	}

	shared, err := xPriv.ECDH(ephPub)
	if err != nil {
		return nil, fmt.Errorf("envelope: ecdh: %w", err)
	}

	key, err := deriveKey(shared, ephPubBytes, recipient.X25519EncPub[:])
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: new aead: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("envelope: decrypt: %w", err)
	}
	return plaintext, nil
}

// deriveKey runs HKDF-SHA256 over the ECDH shared secret, salted with the
// ephemeral and recipient public keys to bind the derived key to both
// parties, and keyed with the protocol's fixed info string.
func deriveKey(shared, ephPub, recipientPub []byte) ([]byte, error) {
	salt := make([]byte, 0, len(ephPub)+len(recipientPub))
	salt = append(salt, ephPub...)
	salt = append(salt, recipientPub...)

	h := hkdf.New(sha256.New, shared, salt, []byte(hkdfInfo))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("envelope: hkdf: %w", err)
	}
	return key, nil
}
