package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomnet-org/tomnet/identity"
)

func nid(t *testing.T) identity.NodeID {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)
	return id.NodeID()
}

func TestStoreAndGet(t *testing.T) {
	c := New()
	recipient := nid(t)
	r1, r2 := nid(t), nid(t)

	c.Store("msg-1", recipient, []byte("hello"), 1000, []identity.NodeID{r1, r2})

	e, ok := c.Get("msg-1")
	require.True(t, ok)
	assert.Equal(t, recipient, e.Recipient)
	assert.Len(t, e.Replicas, 2)
	assert.Equal(t, 1, c.Len())
}

func TestPurgeRemovesEntry(t *testing.T) {
	c := New()
	c.Store("msg-1", nid(t), nil, 1000, nil)
	c.Purge("msg-1")

	_, ok := c.Get("msg-1")
	assert.False(t, ok)
}

func TestEvictExpired(t *testing.T) {
	c := New()
	c.Store("expired", nid(t), nil, 1000, nil)
	c.Store("alive", nid(t), nil, 5000, nil)

	removed := c.EvictExpired(2000)
	assert.Equal(t, []string{"expired"}, removed)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("alive")
	assert.True(t, ok)
}

func TestPendingForRecipient(t *testing.T) {
	c := New()
	recipient := nid(t)
	other := nid(t)

	c.Store("msg-1", recipient, nil, 1000, nil)
	c.Store("msg-2", recipient, nil, 1000, nil)
	c.Store("msg-3", other, nil, 1000, nil)

	pending := c.PendingForRecipient(recipient)
	assert.Len(t, pending, 2)
}

func TestSelectReplicasExcludesRecipientAndSelf(t *testing.T) {
	recipient, self := nid(t), nid(t)
	a, b, c := nid(t), nid(t), nid(t)

	got := SelectReplicas([]identity.NodeID{recipient, self, a, b, c}, recipient, self)
	assert.ElementsMatch(t, []identity.NodeID{a, b, c}, got)
}

func TestSelectReplicasCapsAtMax(t *testing.T) {
	recipient, self := nid(t), nid(t)
	var candidates []identity.NodeID
	for i := 0; i < 8; i++ {
		candidates = append(candidates, nid(t))
	}

	got := SelectReplicas(candidates, recipient, self)
	assert.Len(t, got, MaxReplicas)
}

func TestAckPurgesAndReturnsOtherReplicas(t *testing.T) {
	c := New()
	self := nid(t)
	other1, other2 := nid(t), nid(t)
	c.Store("msg-1", nid(t), nil, 1000, []identity.NodeID{self, other1, other2})

	others := c.Ack("msg-1", self)
	assert.ElementsMatch(t, []identity.NodeID{other1, other2}, others)

	_, ok := c.Get("msg-1")
	assert.False(t, ok)
}

func TestAckUnknownMessageReturnsNil(t *testing.T) {
	c := New()
	assert.Nil(t, c.Ack("nope", nid(t)))
}

func TestMigrateMovesAllEntries(t *testing.T) {
	c := New()
	self, target := nid(t), nid(t)
	c.Store("msg-1", nid(t), []byte("a"), 1000, []identity.NodeID{self})
	c.Store("msg-2", nid(t), []byte("b"), 1000, []identity.NodeID{self})

	moved := c.Migrate(self, target)
	assert.Len(t, moved, 2)
	assert.Equal(t, 0, c.Len())
	for _, e := range moved {
		_, hasSelf := e.Replicas[self]
		_, hasTarget := e.Replicas[target]
		assert.False(t, hasSelf)
		assert.True(t, hasTarget)
	}
}

func TestHostQualityScore(t *testing.T) {
	q := HostQuality{UptimeRatio: 1.0, FreeCapacity: 1.0}
	assert.Equal(t, 1.0, q.Score())

	low := HostQuality{UptimeRatio: 0.1, FreeCapacity: 0.1}
	assert.True(t, low.ShouldMigrate())

	high := HostQuality{UptimeRatio: 0.9, FreeCapacity: 0.9}
	assert.False(t, high.ShouldMigrate())
}
