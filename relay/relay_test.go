package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/topology"
)

func freshNodeID(t *testing.T) identity.NodeID {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)
	return id.NodeID()
}

func TestSelectBestRelayDirectNeighbor(t *testing.T) {
	self := freshNodeID(t)
	topo := topology.New()
	target := freshNodeID(t)
	topo.UpsertPeer(topology.PeerInfo{NodeID: target, Status: topology.Online, Roles: map[topology.Role]struct{}{}})

	s := NewSelector(self)
	next, direct, ok := s.SelectBestRelay(target, topo)
	require.True(t, ok)
	assert.True(t, direct)
	assert.Equal(t, self, next)
}

func TestSelectBestRelayViaRelayPeer(t *testing.T) {
	self := freshNodeID(t)
	topo := topology.New()
	target := freshNodeID(t)
	relayPeer := freshNodeID(t)
	topo.UpsertPeer(topology.PeerInfo{NodeID: relayPeer, Status: topology.Online, Roles: map[topology.Role]struct{}{topology.RoleRelay: {}}})

	s := NewSelector(self)
	next, direct, ok := s.SelectBestRelay(target, topo)
	require.True(t, ok)
	assert.False(t, direct)
	assert.Equal(t, relayPeer, next)
}

func TestSelectBestRelayNoneAvailable(t *testing.T) {
	self := freshNodeID(t)
	topo := topology.New()
	target := freshNodeID(t)

	s := NewSelector(self)
	_, _, ok := s.SelectBestRelay(target, topo)
	assert.False(t, ok)
}

func TestSelectBestRelayPrefersLowerFailureCount(t *testing.T) {
	self := freshNodeID(t)
	topo := topology.New()
	target := freshNodeID(t)
	good := freshNodeID(t)
	bad := freshNodeID(t)
	topo.UpsertPeer(topology.PeerInfo{NodeID: good, Status: topology.Online, Roles: map[topology.Role]struct{}{topology.RoleRelay: {}}})
	topo.UpsertPeer(topology.PeerInfo{NodeID: bad, Status: topology.Online, Roles: map[topology.Role]struct{}{topology.RoleRelay: {}}})

	s := NewSelector(self)
	s.RecordFailure(bad)
	s.RecordFailure(bad)

	next, _, ok := s.SelectBestRelay(target, topo)
	require.True(t, ok)
	assert.Equal(t, good, next)
}

func TestSelectAlternateExcludesFailed(t *testing.T) {
	self := freshNodeID(t)
	topo := topology.New()
	target := freshNodeID(t)
	onlyRelay := freshNodeID(t)
	topo.UpsertPeer(topology.PeerInfo{NodeID: onlyRelay, Status: topology.Online, Roles: map[topology.Role]struct{}{topology.RoleRelay: {}}})

	s := NewSelector(self)
	_, _, ok := s.SelectAlternate(target, topo, map[identity.NodeID]struct{}{onlyRelay: {}})
	assert.False(t, ok)
}

func TestSelectBestRelayRoundRobinsEqualCost(t *testing.T) {
	self := freshNodeID(t)
	topo := topology.New()
	target := freshNodeID(t)
	a := freshNodeID(t)
	b := freshNodeID(t)
	topo.UpsertPeer(topology.PeerInfo{NodeID: a, Status: topology.Online, Roles: map[topology.Role]struct{}{topology.RoleRelay: {}}})
	topo.UpsertPeer(topology.PeerInfo{NodeID: b, Status: topology.Online, Roles: map[topology.Role]struct{}{topology.RoleRelay: {}}})

	s := NewSelector(self)
	seen := map[identity.NodeID]bool{}
	for i := 0; i < 4; i++ {
		next, _, ok := s.SelectBestRelay(target, topo)
		require.True(t, ok)
		seen[next] = true
	}
	assert.Len(t, seen, 2)
}
