package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomnet-org/tomnet/topology"
)

func TestAnnounceMarshalRoundTrip(t *testing.T) {
	peer := nid(t)
	a := Announce{
		NodeID:              peer,
		Username:            "alice",
		EncryptionPublicKey: [32]byte{1, 2, 3},
		Roles:               []topology.Role{topology.RolePeer, topology.RoleRelay},
	}

	data, err := a.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalAnnounce(data)
	require.NoError(t, err)
	assert.Equal(t, a.NodeID, got.NodeID)
	assert.Equal(t, a.Username, got.Username)
	assert.Equal(t, a.EncryptionPublicKey, got.EncryptionPublicKey)
	assert.ElementsMatch(t, a.Roles, got.Roles)
}

func TestUnmarshalAnnounceBadJSON(t *testing.T) {
	_, err := UnmarshalAnnounce([]byte("not json"))
	assert.Error(t, err)
}
