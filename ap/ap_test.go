package ap

import (
	"sync"
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

type counterState struct {
	value int
}

type increment struct{ By int }
type get struct{}

type counter struct {
	DefaultLifecycle[counterState]
	failOnInit bool
}

var (
	counterHandlersOnce sync.Once
	counterHandlers     *Handlers[counterState]
)

func (c counter) Init(cfg *Config[counterState], start int) (counterState, error) {
	if c.failOnInit {
		return counterState{}, assertError("init refused")
	}
	return counterState{value: start}, nil
}

func (counter) Handlers() *Handlers[counterState] {
	counterHandlersOnce.Do(func() {
		counterHandlers = NewHandlers[counterState]()
		Message(counterHandlers, serializer.NewMsgPack[increment](), func(s *counterState, msg increment) {
			s.value += msg.By
		})
		Request(counterHandlers, serializer.NewMsgPack[get](), serializer.NewMsgPack[int](),
			func(s *counterState, _ get) int { return s.value })
		DeferredRequest(counterHandlers, serializer.NewMsgPack[get](), serializer.NewMsgPack[int](),
			func(self host.ABI, s *counterState, _ get, reply DeferredResponse[int]) {
				reply.SendResponse(self, s.value)
			})
	})
	return counterHandlers
}

type assertError string

func (e assertError) Error() string { return string(e) }

func TestStartSendRequestShutdown(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ref, err := Start[counterState, int](self, counter{}, 10)
	require.NoError(t, err)

	require.NoError(t, Send[counterState, increment](self, ref, serializer.NewMsgPack[increment](), increment{By: 5}))
	require.NoError(t, Send[counterState, increment](self, ref, serializer.NewMsgPack[increment](), increment{By: 2}))

	total := Request[counterState, get, int](self, ref, serializer.NewMsgPack[get](), get{})
	assert.Equal(t, 17, total)

	deferredTotal := DeferredRequest[counterState, get, int](self, ref, serializer.NewMsgPack[get](), get{})
	assert.Equal(t, 17, deferredTotal)

	ref.Shutdown(self)
}

func TestStartAsRegistersAndRejectsDuplicate(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ref, err := StartAs[counterState, int](self, counter{}, "ticker", 0)
	require.NoError(t, err)
	defer ref.Shutdown(self)

	_, err = StartAs[counterState, int](self, counter{}, "ticker", 99)
	require.Error(t, err)
	var already *aperrors.StartupError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, aperrors.StartupNameAlreadyRegistered, already.Kind)
	existingRef, ok := already.Existing.(ProcessRef[counterState])
	require.True(t, ok)
	assert.True(t, existingRef.Equal(ref))

	found, ok := Lookup[counterState](self, "ticker", counter{}.Handlers())
	require.True(t, ok)
	assert.True(t, found.Equal(ref))
}

func TestStartReportsInitFailureAsStartupCustom(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	_, err := Start[counterState, int](self, counter{failOnInit: true}, 0)
	require.Error(t, err)
	var startupErr *aperrors.StartupError
	require.ErrorAs(t, err, &startupErr)
	assert.Equal(t, aperrors.StartupCustom, startupErr.Kind)
	assert.Contains(t, startupErr.Error(), "init refused")
}

func TestShutdownTimeoutOnDeadProcess(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ref, err := Start[counterState, int](self, counter{}, 0)
	require.NoError(t, err)

	require.NoError(t, ref.Kill(self))

	err = ref.ShutdownTimeout(self, 50*time.Millisecond)
	require.Error(t, err)
}

// watcherState/watcher track how many times HandleLinkDeath fires on a
// linked peer's death.
type watcherState struct {
	mu     *sync.Mutex
	deaths int
	report chan int
}

type watcher struct {
	DefaultLifecycle[watcherState]
	report   chan int
	victimID host.ProcessIdentity
	linkTag  tag.Tag
}

var (
	watcherHandlersOnce sync.Once
	watcherHandlersVal  *Handlers[watcherState]
)

func (w watcher) Init(cfg *Config[watcherState], _ struct{}) (watcherState, error) {
	cfg.DieIfLinkDies(false)
	if err := cfg.abi.Process().Link(w.linkTag.Uint64(), w.victimID); err != nil {
		return watcherState{}, err
	}
	return watcherState{mu: &sync.Mutex{}, report: w.report}, nil
}

func (watcher) Handlers() *Handlers[watcherState] {
	watcherHandlersOnce.Do(func() {
		watcherHandlersVal = NewHandlers[watcherState]()
	})
	return watcherHandlersVal
}

func (watcher) HandleLinkDeath(s *watcherState, _ tag.Tag) {
	s.mu.Lock()
	s.deaths++
	n := s.deaths
	s.mu.Unlock()
	s.report <- n
}

func TestLinkDeathInvokesHandleLinkDeath(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	victim, err := Start[counterState, int](self, counter{}, 0)
	require.NoError(t, err)

	report := make(chan int, 1)
	linkTag := tag.New(self.Tag())
	_, err = Start[watcherState, struct{}](self, watcher{report: report, victimID: victim.ID(), linkTag: linkTag}, struct{}{})
	require.NoError(t, err)

	require.NoError(t, victim.Kill(self))

	select {
	case n := <-report:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for HandleLinkDeath to fire")
	}
}
