package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndSignVerify(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	msg := []byte("hello peer")
	sig := id.Sign(msg)
	assert.NoError(t, Verify(id.PublicKey, msg, sig))

	sig[0] ^= 0xFF
	assert.ErrorIs(t, Verify(id.PublicKey, msg, sig), ErrInvalidSignature)
}

func TestFromSeedRoundTrip(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	seed := id.Seed()
	rebuilt, err := FromSeed(seed)
	require.NoError(t, err)

	assert.Equal(t, id.PublicKey, rebuilt.PublicKey)
	assert.Equal(t, id.X25519EncPub, rebuilt.X25519EncPub)
	assert.Equal(t, id.NodeID(), rebuilt.NodeID())
}

func TestNodeIDLess(t *testing.T) {
	a := NodeID{0x01}
	b := NodeID{0x02}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.False(t, a.Less(a))
}

func TestNodeIDFromBytes(t *testing.T) {
	_, err := NodeIDFromBytes(make([]byte, 10))
	assert.Error(t, err)

	raw := make([]byte, 32)
	raw[0] = 0xAB
	id, err := NodeIDFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, "ab", id.String()[:2])
}

func TestX25519Conversion(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	xPriv, err := id.X25519PrivateKey()
	require.NoError(t, err)
	assert.NotEqual(t, [32]byte{}, xPriv)

	xPub, err := PublicKeyToX25519(id.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, id.X25519EncPub, xPub)
}

func TestGenerateProducesDistinctIdentities(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a.NodeID(), b.NodeID())
}
