package hostsim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunatic-go/actorkit/host"
)

func TestRegistryPutGetRemove(t *testing.T) {
	w := New()
	defer w.Close()
	self := w.Root()

	id := host.ProcessIdentity{NodeID: 1, ProcessID: 7}
	self.Registry().Put("svc", id)

	got, ok := self.Registry().Get("svc")
	require.True(t, ok)
	assert.Equal(t, id, got)

	self.Registry().Remove("svc")
	_, ok = self.Registry().Get("svc")
	assert.False(t, ok)
}

func TestRegistryGetOrPutLaterReservesOnce(t *testing.T) {
	w := New()
	defer w.Close()
	self := w.Root()

	_, already := self.Registry().GetOrPutLater("name")
	assert.False(t, already)

	_, already = self.Registry().GetOrPutLater("name")
	assert.True(t, already, "a second reservation while the first is in flight must report already-registered")

	id := host.ProcessIdentity{NodeID: 1, ProcessID: 3}
	self.Registry().Put("name", id)

	existing, already := self.Registry().GetOrPutLater("name")
	assert.True(t, already)
	assert.Equal(t, id, existing)
}

func TestKillNotifiesLinkedPeerByDefaultDieWithPeer(t *testing.T) {
	w := New()
	defer w.Close()
	self := w.Root()

	peerTerminated := make(chan struct{})
	peer, err := self.Process().Spawn(host.SpawnOptions{
		Entry: func(child host.ABI) {
			<-peerTerminated
		},
	})
	require.NoError(t, err)

	linked := make(chan struct{})
	victim, err := self.Process().Spawn(host.SpawnOptions{
		Entry: func(child host.ABI) {
			child.Process().Link(99, peer)
			close(linked)
			<-peerTerminated
		},
	})
	require.NoError(t, err)
	<-linked

	require.NoError(t, self.Process().Kill(victim))

	assert.Eventually(t, func() bool {
		return !self.Process().Exists(peer)
	}, time.Second, 5*time.Millisecond)
	close(peerTerminated)
}

func ptr[T any](v T) *T { return &v }

func TestCrossNodeSpawnWithLinkIsRejected(t *testing.T) {
	w := New()
	defer w.Close()
	self := w.Root()

	other := uint64(2)
	_, err := self.Distributed().Spawn(other, host.SpawnOptions{
		LinkTag: ptr(uint64(1)),
		Entry:   func(host.ABI) {},
	})
	require.Error(t, err)
}

func TestTimerCancelIsIdempotent(t *testing.T) {
	w := New()
	defer w.Close()
	self := w.Root()

	ref := self.Timer().SendAfter(self.Process().This(), time.Hour, []byte("x"), 5)
	assert.True(t, self.Timer().CancelTimer(ref))
	assert.False(t, self.Timer().CancelTimer(ref), "cancelling twice must report false, not error")
}

func TestTimerFiresAndDeliversPayload(t *testing.T) {
	w := New()
	defer w.Close()
	self := w.Root()

	delivered := make(chan host.MessageCode, 1)
	target, err := self.Process().Spawn(host.SpawnOptions{
		Entry: func(child host.ABI) {
			code, err := child.Message().Receive([]uint64{42}, time.Second)
			if err != nil {
				return
			}
			delivered <- code
		},
	})
	require.NoError(t, err)

	self.Timer().SendAfter(target, 10*time.Millisecond, []byte("hi"), 42)

	select {
	case code := <-delivered:
		assert.Equal(t, host.MessageOK, code)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for timer delivery")
	}
}

func TestSendToDeadProcessIsSilentNoOp(t *testing.T) {
	w := New()
	defer w.Close()
	self := w.Root()

	dead, err := self.Process().Spawn(host.SpawnOptions{Entry: func(host.ABI) {}})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return !self.Process().Exists(dead) }, time.Second, 5*time.Millisecond)

	self.Message().CreateData(1, 0)
	require.NoError(t, self.Message().Send(dead))
}

func TestScratchBufferResourceTakeRejectsDoubleTake(t *testing.T) {
	s := newScratchBuffer()
	s.setIncoming(0, nil, []resourceSlot{{kind: host.ResourceKind(1), id: 123}})

	id, err := s.takeResource(host.ResourceKind(1), 0)
	require.NoError(t, err)
	assert.EqualValues(t, 123, id)

	_, err = s.takeResource(host.ResourceKind(1), 0)
	require.Error(t, err)
}

func TestScratchBufferResourceKindMismatch(t *testing.T) {
	s := newScratchBuffer()
	s.setIncoming(0, nil, []resourceSlot{{kind: host.ResourceKind(1), id: 1}})

	_, err := s.takeResource(host.ResourceKind(2), 0)
	require.Error(t, err)
}
