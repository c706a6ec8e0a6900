// Command supervisortree demonstrates OneForOne supervision: a supervisor
// watches two counter abstract processes, and when one is killed out from
// under it, only that one is restarted — its sibling's state survives.
package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lunatic-go/actorkit/ap"
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/hostsim"
	"github.com/lunatic-go/actorkit/serializer"
	"github.com/lunatic-go/actorkit/supervisor"
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

func main() {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	var refs [2]ap.ProcessRef[counterState]
	var mu sync.Mutex

	sup := supervisor.New(supervisor.OneForOne, supervisor.WithMaxRestarts(3, time.Minute))
	for i := 0; i < 2; i++ {
		idx := i
		sup.AddChild(supervisor.ChildSpec{
			ID:      fmt.Sprintf("counter-%d", idx),
			Restart: supervisor.Permanent,
			Start: func(parent host.ABI, linkTag tag.Tag) (host.ProcessIdentity, error) {
				ref, err := ap.For[counterState, struct{}](counter{}).LinkWith(linkTag).Start(parent, struct{}{})
				if err != nil {
					return host.ProcessIdentity{}, err
				}
				mu.Lock()
				refs[idx] = ref
				mu.Unlock()
				return ref.ID(), nil
			},
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := sup.Start(ctx, self); err != nil {
		panic(err)
	}

	// Give the supervisor's background loop a moment to spawn both
	// children before driving them from this process.
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	a, b := refs[0], refs[1]
	mu.Unlock()

	bumpSer := serializer.NewMsgPack[bump]()
	readSer := serializer.NewMsgPack[read]()

	for i := 0; i < 3; i++ {
		_ = ap.Send[counterState, bump](self, a, bumpSer, bump{})
	}
	for i := 0; i < 5; i++ {
		_ = ap.Send[counterState, bump](self, b, bumpSer, bump{})
	}

	fmt.Printf("before crash: a=%d b=%d\n",
		ap.Request[counterState, read, int](self, a, readSer, read{}),
		ap.Request[counterState, read, int](self, b, readSer, read{}))

	// Kill a's process directly, bypassing Terminate, to simulate a crash
	// the supervisor must notice via the link and restart.
	self.Process().Kill(a.ID())
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	restartedA := refs[0]
	mu.Unlock()

	fmt.Printf("after restart: a=%d b=%d\n",
		ap.Request[counterState, read, int](self, restartedA, readSer, read{}),
		ap.Request[counterState, read, int](self, b, readSer, read{}))
}
