package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomnet-org/tomnet/envelope"
	"github.com/tomnet-org/tomnet/identity"
	"github.com/tomnet-org/tomnet/topology"
)

type fakeSelector struct {
	next   identity.NodeID
	direct bool
	ok     bool
}

func (f fakeSelector) SelectBestRelay(target identity.NodeID, topo *topology.Directory) (identity.NodeID, bool, bool) {
	return f.next, f.direct, f.ok
}

func newTestRouter(t *testing.T, selector RelaySelector) (*Router, *identity.Identity) {
	t.Helper()
	self, err := identity.Generate()
	require.NoError(t, err)
	r := New(self, NewDedupCache(time.Hour), selector, topology.New())
	return r, self
}

func TestDecideDeliverPlaintext(t *testing.T) {
	r, self := newTestRouter(t, fakeSelector{})
	sender, err := identity.Generate()
	require.NoError(t, err)

	e := envelope.BuildPlaintext(sender, self.NodeID(), envelope.Chat, []byte("hi"))
	d := r.Decide(e)
	assert.Equal(t, ActionDeliver, d.Action)
	assert.Equal(t, e.ID, d.MessageID)
}

func TestDecideRejectInvalidSignature(t *testing.T) {
	r, self := newTestRouter(t, fakeSelector{})
	sender, err := identity.Generate()
	require.NoError(t, err)

	e := envelope.BuildPlaintext(sender, self.NodeID(), envelope.Chat, []byte("hi"))
	e.Payload = []byte("tampered")

	d := r.Decide(e)
	assert.Equal(t, ActionReject, d.Action)
	assert.Equal(t, ReasonInvalidSignature, d.Reason)
}

func TestDecideDropDuplicate(t *testing.T) {
	r, self := newTestRouter(t, fakeSelector{})
	sender, err := identity.Generate()
	require.NoError(t, err)

	e := envelope.BuildPlaintext(sender, self.NodeID(), envelope.Chat, []byte("hi"))
	r.Decide(e)
	d := r.Decide(e)
	assert.Equal(t, ActionDrop, d.Action)
	assert.Equal(t, ReasonDuplicate, d.Reason)
}

func TestDecideDropTTLExpired(t *testing.T) {
	r, self := newTestRouter(t, fakeSelector{})
	sender, err := identity.Generate()
	require.NoError(t, err)

	e := envelope.BuildPlaintext(sender, self.NodeID(), envelope.Chat, []byte("hi"))
	e.TTL = 0

	d := r.Decide(e)
	assert.Equal(t, ActionDrop, d.Action)
	assert.Equal(t, ReasonTTLExpired, d.Reason)
}

func TestDecideForwardViaExplicitHop(t *testing.T) {
	r, self := newTestRouter(t, fakeSelector{})
	sender, err := identity.Generate()
	require.NoError(t, err)
	target, err := identity.Generate()
	require.NoError(t, err)
	next, err := identity.Generate()
	require.NoError(t, err)

	// via:[self, next] processed at self forwards to next, per the via
	// chain being the sender's full planned route rather than a queue
	// each relay pops from.
	e := envelope.BuildPlaintext(sender, target.NodeID(), envelope.Chat, []byte("hi"))
	require.NoError(t, e.AppendHop(self.NodeID()))
	require.NoError(t, e.AppendHop(next.NodeID()))
	e.Sign(sender) // Via is covered by the signature

	d := r.Decide(e)
	assert.Equal(t, ActionForward, d.Action)
	assert.Equal(t, next.NodeID(), d.NextHop)
	assert.Equal(t, uint32(3), e.TTL)
}

func TestDecideForwardViaExplicitHopMultiHop(t *testing.T) {
	r, self := newTestRouter(t, fakeSelector{})
	sender, err := identity.Generate()
	require.NoError(t, err)
	target, err := identity.Generate()
	require.NoError(t, err)

	other1, err := identity.Generate()
	require.NoError(t, err)
	other2, err := identity.Generate()
	require.NoError(t, err)

	// via:[other1, self, other2] processed at self (the middle hop) must
	// forward to other2, not jump to the chain's last entry by accident.
	e := envelope.BuildPlaintext(sender, target.NodeID(), envelope.Chat, []byte("hi"))
	require.NoError(t, e.AppendHop(other1.NodeID()))
	require.NoError(t, e.AppendHop(self.NodeID()))
	require.NoError(t, e.AppendHop(other2.NodeID()))
	e.Sign(sender) // Via is covered by the signature

	d := r.Decide(e)
	assert.Equal(t, ActionForward, d.Action)
	assert.Equal(t, other2.NodeID(), d.NextHop)
}

func TestDecideViaFallsThroughToSelectorAtLastExplicitHop(t *testing.T) {
	relay, err := identity.Generate()
	require.NoError(t, err)
	r, self := newTestRouter(t, fakeSelector{next: relay.NodeID(), direct: true, ok: true})

	sender, err := identity.Generate()
	require.NoError(t, err)
	target, err := identity.Generate()
	require.NoError(t, err)
	first, err := identity.Generate()
	require.NoError(t, err)

	// via:[first, self] processed at self, the chain's last explicit hop:
	// there is no next entry in via, so routing must fall through to
	// RelaySelector for the remaining leg to target, not forward to self.
	e := envelope.BuildPlaintext(sender, target.NodeID(), envelope.Chat, []byte("hi"))
	require.NoError(t, e.AppendHop(first.NodeID()))
	require.NoError(t, e.AppendHop(self.NodeID()))
	e.Sign(sender) // Via is covered by the signature

	d := r.Decide(e)
	assert.Equal(t, ActionForward, d.Action)
	assert.Equal(t, relay.NodeID(), d.NextHop)
}

func TestDecideForwardViaSelector(t *testing.T) {
	relay, err := identity.Generate()
	require.NoError(t, err)
	r, _ := newTestRouter(t, fakeSelector{next: relay.NodeID(), ok: true})

	sender, err := identity.Generate()
	require.NoError(t, err)
	target, err := identity.Generate()
	require.NoError(t, err)

	e := envelope.BuildPlaintext(sender, target.NodeID(), envelope.Chat, []byte("hi"))
	d := r.Decide(e)
	assert.Equal(t, ActionForward, d.Action)
	assert.Equal(t, relay.NodeID(), d.NextHop)
}

func TestDecideDropUnroutable(t *testing.T) {
	r, _ := newTestRouter(t, fakeSelector{ok: false})

	sender, err := identity.Generate()
	require.NoError(t, err)
	target, err := identity.Generate()
	require.NoError(t, err)

	e := envelope.BuildPlaintext(sender, target.NodeID(), envelope.Chat, []byte("hi"))
	d := r.Decide(e)
	assert.Equal(t, ActionDrop, d.Action)
	assert.Equal(t, ReasonUnroutable, d.Reason)
}

func TestDecideEncryptedDeliverAndReject(t *testing.T) {
	r, self := newTestRouter(t, fakeSelector{})
	sender, err := identity.Generate()
	require.NoError(t, err)

	e, err := envelope.BuildEncrypted(sender, self.NodeID(), self.X25519EncPub, envelope.Chat, []byte("secret"))
	require.NoError(t, err)

	d := r.Decide(e)
	assert.Equal(t, ActionDeliver, d.Action)

	other, err := identity.Generate()
	require.NoError(t, err)
	bad, err := envelope.BuildEncrypted(sender, self.NodeID(), other.X25519EncPub, envelope.Chat, []byte("secret"))
	require.NoError(t, err)

	d2 := r.Decide(bad)
	assert.Equal(t, ActionReject, d2.Action)
	assert.Equal(t, ReasonDecryptionFailed, d2.Reason)
}

func TestDedupCacheSeenTwice(t *testing.T) {
	c := NewDedupCache(time.Hour)
	assert.False(t, c.Seen("a"))
	assert.True(t, c.Seen("a"))
	assert.False(t, c.Seen("b"))
}
