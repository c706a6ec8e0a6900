package process

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunatic-go/actorkit/aperrors"
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/hostsim"
	"github.com/lunatic-go/actorkit/serializer"
	"github.com/lunatic-go/actorkit/tag"
)

type greeting struct {
	Text string
}

func TestSpawnSendReceiveRoundTrip(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ser := serializer.NewMsgPack[greeting]()
	received := make(chan greeting, 1)

	child, err := Spawn[struct{}, greeting](self, struct{}{}, ser,
		func(_ struct{}, mb Mailbox[greeting, *serializer.MsgPack[greeting]]) {
			received <- mb.Receive()
		},
	)
	require.NoError(t, err)

	require.NoError(t, child.Send(self, greeting{Text: "hi"}))

	select {
	case g := <-received:
		assert.Equal(t, "hi", g.Text)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for child to receive")
	}
}

func TestEqualComparesIdentityNotSerializer(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ser := serializer.NewMsgPack[greeting]()
	child, err := Spawn[struct{}, greeting](self, struct{}{}, ser,
		func(_ struct{}, mb Mailbox[greeting, *serializer.MsgPack[greeting]]) { mb.Receive() },
	)
	require.NoError(t, err)

	other := New[greeting](child.ID(), serializer.NewMsgPack[greeting]())
	assert.True(t, child.Equal(other))

	unrelated, err := Spawn[struct{}, greeting](self, struct{}{}, ser,
		func(_ struct{}, mb Mailbox[greeting, *serializer.MsgPack[greeting]]) { mb.Receive() },
	)
	require.NoError(t, err)
	assert.False(t, child.Equal(unrelated))
}

func TestReceiveTimeoutReportsTimeout(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ser := serializer.NewMsgPack[greeting]()
	done := make(chan error, 1)

	_, err := Spawn[struct{}, greeting](self, struct{}{}, ser,
		func(_ struct{}, mb Mailbox[greeting, *serializer.MsgPack[greeting]]) {
			_, err := mb.ReceiveTimeout(10 * time.Millisecond)
			done <- err
		},
	)
	require.NoError(t, err)

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for child's ReceiveTimeout to return")
	}
}

func TestRegisterLookupUnregister(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ser := serializer.NewMsgPack[greeting]()
	child, err := Spawn[struct{}, greeting](self, struct{}{}, ser,
		func(_ struct{}, mb Mailbox[greeting, *serializer.MsgPack[greeting]]) { mb.Receive() },
	)
	require.NoError(t, err)

	child.Register(self, "greeter")

	found, ok := Lookup[greeting](self, "greeter", ser)
	require.True(t, ok)
	assert.True(t, child.Equal(found))

	Unregister(self, "greeter")
	_, ok = Lookup[greeting](self, "greeter", ser)
	assert.False(t, ok)
}

func TestKillMakesExistsFalse(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ser := serializer.NewMsgPack[greeting]()
	unblock := make(chan struct{})
	child, err := Spawn[struct{}, greeting](self, struct{}{}, ser,
		func(_ struct{}, mb Mailbox[greeting, *serializer.MsgPack[greeting]]) {
			<-unblock
		},
	)
	require.NoError(t, err)

	require.NoError(t, child.Kill(self))
	close(unblock)

	assert.Eventually(t, func() bool {
		return !child.Exists(self)
	}, time.Second, 5*time.Millisecond)
}

func TestSendAfterDelaysDelivery(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ser := serializer.NewMsgPack[greeting]()
	arrived := make(chan time.Time, 1)

	child, err := Spawn[struct{}, greeting](self, struct{}{}, ser,
		func(_ struct{}, mb Mailbox[greeting, *serializer.MsgPack[greeting]]) {
			mb.Receive()
			arrived <- time.Now()
		},
	)
	require.NoError(t, err)

	start := time.Now()
	_, err = child.SendAfter(self, greeting{Text: "later"}, 50*time.Millisecond)
	require.NoError(t, err)

	select {
	case got := <-arrived:
		assert.GreaterOrEqual(t, got.Sub(start), 40*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delayed delivery")
	}
}

func TestSendHandleSmugglesResourceThroughEnvelope(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	replySer := serializer.NewMsgPack[greeting]()
	received := make(chan greeting, 1)
	replyTarget, err := Spawn[struct{}, greeting](self, struct{}{}, replySer,
		func(_ struct{}, mb Mailbox[greeting, *serializer.MsgPack[greeting]]) {
			received <- mb.Receive()
		},
	)
	require.NoError(t, err)

	envSer := serializer.NewMsgPack[HandleEnvelope[struct{}]]()
	middle, err := Spawn[struct{}, HandleEnvelope[struct{}]](self, struct{}{}, envSer,
		func(_ struct{}, mb Mailbox[HandleEnvelope[struct{}], *serializer.MsgPack[HandleEnvelope[struct{}]]]) {
			env := mb.Receive()
			handle, err := TakeHandle[greeting](mb.Self(), env.Index, replySer)
			if err != nil {
				return
			}
			handle.Send(mb.Self(), greeting{Text: "hello via smuggled handle"})
		},
	)
	require.NoError(t, err)

	require.NoError(t, SendHandle(self, middle, replyTarget, struct{}{}))

	select {
	case g := <-received:
		assert.Equal(t, "hello via smuggled handle", g.Text)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the smuggled handle to be used")
	}
}

func TestTakeHandleRejectsDoubleTake(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	replySer := serializer.NewMsgPack[greeting]()
	replyTarget, err := Spawn[struct{}, greeting](self, struct{}{}, replySer,
		func(_ struct{}, mb Mailbox[greeting, *serializer.MsgPack[greeting]]) { mb.Receive() },
	)
	require.NoError(t, err)

	envSer := serializer.NewMsgPack[HandleEnvelope[struct{}]]()
	outcome := make(chan error, 1)
	middle, err := Spawn[struct{}, HandleEnvelope[struct{}]](self, struct{}{}, envSer,
		func(_ struct{}, mb Mailbox[HandleEnvelope[struct{}], *serializer.MsgPack[HandleEnvelope[struct{}]]]) {
			env := mb.Receive()
			_, err := TakeHandle[greeting](mb.Self(), env.Index, replySer)
			outcome <- err
			_, err = TakeHandle[greeting](mb.Self(), env.Index, replySer)
			outcome <- err
		},
	)
	require.NoError(t, err)

	require.NoError(t, SendHandle(self, middle, replyTarget, struct{}{}))

	require.NoError(t, <-outcome)
	require.Error(t, <-outcome, "taking the same resource index twice must fail")
}

func TestLinkDeathSurfacesAsLinkTrappedWithTagReceive(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ser := serializer.NewMsgPack[greeting]()
	result := make(chan error, 1)

	victimUnblock := make(chan struct{})
	victim, err := Spawn[struct{}, greeting](self, struct{}{}, ser,
		func(_ struct{}, mb Mailbox[greeting, *serializer.MsgPack[greeting]]) {
			<-victimUnblock
		},
	)
	require.NoError(t, err)

	cfg := &host.ProcessConfig{DieIfLinkDies: false}
	linkTag := tag.New(self.Tag())
	_, err = SpawnConfig[struct{}, greeting](self, cfg, struct{}{}, ser,
		func(_ struct{}, mb Mailbox[greeting, *serializer.MsgPack[greeting]]) {
			self := mb.Self()
			if err := self.Process().Link(linkTag.Uint64(), victim.ID()); err != nil {
				result <- err
				return
			}
			_, err := mb.TagReceive([]tag.Tag{linkTag})
			result <- err
		},
	)
	require.NoError(t, err)

	require.NoError(t, victim.Kill(self))
	close(victimUnblock)

	select {
	case err := <-result:
		require.Error(t, err)
		var trapped *aperrors.LinkTrapped
		assert.ErrorAs(t, err, &trapped)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for link-death notification")
	}
}
