package supervisor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunatic-go/actorkit/ap"
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/hostsim"
	"github.com/lunatic-go/actorkit/serializer"
	"github.com/lunatic-go/actorkit/tag"
)

type counterState struct{ value int }
type bump struct{}
type read struct{}

type counter struct {
	ap.DefaultLifecycle[counterState]
}

var (
	handlersOnce sync.Once
	handlers     *ap.Handlers[counterState]
)

func (counter) Init(cfg *ap.Config[counterState], _ struct{}) (counterState, error) {
	return counterState{}, nil
}

func (counter) Handlers() *ap.Handlers[counterState] {
	handlersOnce.Do(func() {
		handlers = ap.NewHandlers[counterState]()
		ap.Message(handlers, serializer.NewMsgPack[bump](), func(s *counterState, _ bump) { s.value++ })
		ap.Request(handlers, serializer.NewMsgPack[read](), serializer.NewMsgPack[int](),
			func(s *counterState, _ read) int { return s.value })
	})
	return handlers
}

type counterFleet struct {
	mu   sync.Mutex
	refs []ap.ProcessRef[counterState]
}

func (f *counterFleet) get(i int) ap.ProcessRef[counterState] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs[i]
}

func buildFleet(n int, sup *Supervisor) *counterFleet {
	f := &counterFleet{refs: make([]ap.ProcessRef[counterState], n)}
	for i := 0; i < n; i++ {
		idx := i
		sup.AddChild(ChildSpec{
			ID:      fmt.Sprintf("counter-%d", idx),
			Restart: Permanent,
			Start: func(parent host.ABI, linkTag tag.Tag) (host.ProcessIdentity, error) {
				ref, err := ap.For[counterState, struct{}](counter{}).LinkWith(linkTag).Start(parent, struct{}{})
				if err != nil {
					return host.ProcessIdentity{}, err
				}
				f.mu.Lock()
				f.refs[idx] = ref
				f.mu.Unlock()
				return ref.ID(), nil
			},
		})
	}
	return f
}

var bumpSer = serializer.NewMsgPack[bump]()
var readSer = serializer.NewMsgPack[read]()

func readValue(self host.ABI, ref ap.ProcessRef[counterState]) int {
	return ap.Request[counterState, read, int](self, ref, readSer, read{})
}

func TestOneForOneRestartsOnlyTheDeadChild(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	sup := New(OneForOne, WithMaxRestarts(3, time.Minute))
	fleet := buildFleet(2, sup)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := sup.Start(ctx, self)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	a, b := fleet.get(0), fleet.get(1)
	require.NoError(t, ap.Send[counterState, bump](self, a, bumpSer, bump{}))
	require.NoError(t, ap.Send[counterState, bump](self, a, bumpSer, bump{}))
	require.NoError(t, ap.Send[counterState, bump](self, b, bumpSer, bump{}))
	require.NoError(t, ap.Send[counterState, bump](self, b, bumpSer, bump{}))
	require.NoError(t, ap.Send[counterState, bump](self, b, bumpSer, bump{}))

	assert.Equal(t, 2, readValue(self, a))
	assert.Equal(t, 3, readValue(self, b))

	require.NoError(t, self.Process().Kill(a.ID()))
	time.Sleep(30 * time.Millisecond)

	restartedA := fleet.get(0)
	assert.False(t, restartedA.Equal(a))
	assert.Equal(t, 0, readValue(self, restartedA))
	assert.Equal(t, 3, readValue(self, fleet.get(1)), "sibling must survive untouched")
}

func TestOneForAllRestartsEverySibling(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	sup := New(OneForAll, WithMaxRestarts(3, time.Minute))
	fleet := buildFleet(2, sup)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := sup.Start(ctx, self)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	a, b := fleet.get(0), fleet.get(1)
	require.NoError(t, ap.Send[counterState, bump](self, a, bumpSer, bump{}))
	require.NoError(t, ap.Send[counterState, bump](self, b, bumpSer, bump{}))
	require.NoError(t, ap.Send[counterState, bump](self, b, bumpSer, bump{}))
	assert.Equal(t, 1, readValue(self, a))
	assert.Equal(t, 2, readValue(self, b))

	require.NoError(t, self.Process().Kill(a.ID()))
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, 0, readValue(self, fleet.get(0)))
	assert.Equal(t, 0, readValue(self, fleet.get(1)), "OneForAll restarts siblings too, resetting their state")
}

func TestRestForOneRestartsDeadChildAndLaterSiblingsOnly(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	sup := New(RestForOne, WithMaxRestarts(3, time.Minute))
	fleet := buildFleet(3, sup)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := sup.Start(ctx, self)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	a, b, c := fleet.get(0), fleet.get(1), fleet.get(2)
	require.NoError(t, ap.Send[counterState, bump](self, a, bumpSer, bump{}))
	require.NoError(t, ap.Send[counterState, bump](self, b, bumpSer, bump{}))
	require.NoError(t, ap.Send[counterState, bump](self, c, bumpSer, bump{}))

	require.NoError(t, self.Process().Kill(b.ID()))
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, 1, readValue(self, fleet.get(0)), "child before the dead one is untouched")
	assert.Equal(t, 0, readValue(self, fleet.get(1)))
	assert.Equal(t, 0, readValue(self, fleet.get(2)), "children after the dead one restart too")
}

func TestExceedingRestartIntensityGivesUpAndSetsErr(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	sup := New(OneForOne, WithMaxRestarts(1, time.Minute))
	fleet := buildFleet(1, sup)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := sup.Start(ctx, self)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, self.Process().Kill(fleet.get(0).ID()))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, self.Process().Kill(fleet.get(0).ID()))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, self.Process().Kill(fleet.get(0).ID()))
	time.Sleep(30 * time.Millisecond)

	assert.Eventually(t, func() bool {
		return sup.Err() != nil
	}, time.Second, 5*time.Millisecond)

	var ri *ErrRestartIntensity
	require.ErrorAs(t, sup.Err(), &ri)
	assert.Equal(t, 1, ri.MaxRestarts)
}

func TestTemporaryChildIsNotRestarted(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	var ref ap.ProcessRef[counterState]
	var mu sync.Mutex

	sup := New(OneForOne, WithMaxRestarts(3, time.Minute))
	sup.AddChild(ChildSpec{
		ID:      "temp",
		Restart: Temporary,
		Start: func(parent host.ABI, linkTag tag.Tag) (host.ProcessIdentity, error) {
			r, err := ap.For[counterState, struct{}](counter{}).LinkWith(linkTag).Start(parent, struct{}{})
			if err != nil {
				return host.ProcessIdentity{}, err
			}
			mu.Lock()
			ref = r
			mu.Unlock()
			return r.ID(), nil
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := sup.Start(ctx, self)
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	first := ref
	mu.Unlock()

	require.NoError(t, self.Process().Kill(first.ID()))
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, ref.Equal(first), "a Temporary child must not be respawned")
}
