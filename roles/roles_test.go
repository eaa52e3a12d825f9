package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/topology"
)

func nid(t *testing.T) identity.NodeID {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)
	return id.NodeID()
}

func TestPromotesAboveThresholds(t *testing.T) {
	topo := topology.New()
	peer := nid(t)
	topo.UpsertPeer(topology.PeerInfo{NodeID: peer, Status: topology.Online, Roles: map[topology.Role]struct{}{}})

	m := NewManager(DefaultConfig())
	for i := 0; i < 10; i++ {
		m.RecordRelayed(peer)
	}
	m.SetOnlineRatio(peer, 0.9)

	changed := m.Evaluate(topo)
	assert.Contains(t, changed, peer)

	info, _ := topo.Get(peer)
	assert.True(t, info.HasRole(topology.RoleRelay))
}

func TestDemotesBelowThresholds(t *testing.T) {
	topo := topology.New()
	peer := nid(t)
	topo.UpsertPeer(topology.PeerInfo{
		NodeID: peer,
		Status: topology.Online,
		Roles:  map[topology.Role]struct{}{topology.RoleRelay: {}},
	})

	m := NewManager(DefaultConfig())
	m.RecordRelayed(peer)
	m.SetOnlineRatio(peer, 0.1)

	changed := m.Evaluate(topo)
	assert.Contains(t, changed, peer)

	info, _ := topo.Get(peer)
	assert.False(t, info.HasRole(topology.RoleRelay))
}

func TestHysteresisKeepsRoleUnchanged(t *testing.T) {
	topo := topology.New()
	peer := nid(t)
	topo.UpsertPeer(topology.PeerInfo{
		NodeID: peer,
		Status: topology.Online,
		Roles:  map[topology.Role]struct{}{topology.RoleRelay: {}},
	})

	m := NewManager(DefaultConfig())
	m.RecordRelayed(peer)
	m.RecordRelayed(peer)
	m.RecordRelayed(peer)
	m.RecordRelayed(peer)
	m.RecordRelayed(peer)
	m.SetOnlineRatio(peer, 0.6) // between demote (0.4) and promote (0.8) bands

	changed := m.Evaluate(topo)
	assert.NotContains(t, changed, peer)

	info, _ := topo.Get(peer)
	assert.True(t, info.HasRole(topology.RoleRelay))
}

func TestEvaluateSkipsUnknownPeer(t *testing.T) {
	topo := topology.New()
	m := NewManager(DefaultConfig())
	m.RecordRelayed(nid(t))

	changed := m.Evaluate(topo)
	assert.Empty(t, changed)
}

func TestBuildAndHandleAnnounce(t *testing.T) {
	topo := topology.New()
	peer := nid(t)

	announce := Announce{
		NodeID:   peer,
		Username: "alice",
		Roles:    []topology.Role{topology.RoleRelay},
	}
	HandleAnnounce(announce, topo, 1000)

	info, ok := topo.Get(peer)
	require.True(t, ok)
	assert.Equal(t, "alice", info.Username)
	assert.True(t, info.HasRole(topology.RoleRelay))
	assert.Equal(t, int64(1000), info.LastSeen)
}

func TestHandleAnnouncePreservesExistingStatus(t *testing.T) {
	topo := topology.New()
	peer := nid(t)
	topo.UpsertPeer(topology.PeerInfo{NodeID: peer, Status: topology.Online})

	HandleAnnounce(Announce{NodeID: peer, Username: "bob"}, topo, 2000)

	info, _ := topo.Get(peer)
	assert.Equal(t, topology.Online, info.Status)
}

func TestBuildAnnounceSnapshotsRoles(t *testing.T) {
	topo := topology.New()
	self := nid(t)
	topo.UpsertPeer(topology.PeerInfo{
		NodeID: self,
		Status: topology.Online,
		Roles:  map[topology.Role]struct{}{topology.RolePeer: {}, topology.RoleRelay: {}},
	})

	a := BuildAnnounce(self, "me", [32]byte{}, topo)
	assert.ElementsMatch(t, []topology.Role{topology.RolePeer, topology.RoleRelay}, a.Roles)
}
