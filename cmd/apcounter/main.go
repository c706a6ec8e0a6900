// Command apcounter is the canonical abstract-process example: a counter
// AP with a fire-and-forget Increment message and a synchronous Get
// request, started, driven, and shut down under hostsim.
package main

import (
	"fmt"
	"sync"

	"github.com/lunatic-go/actorkit/ap"
	"github.com/lunatic-go/actorkit/hostsim"
	"github.com/lunatic-go/actorkit/serializer"
)

type counterState struct {
	value int
}

type increment struct{ By int }

type get struct{}

type counter struct {
	ap.DefaultLifecycle[counterState]
}

var (
	counterHandlersOnce sync.Once
	counterHandlers     *ap.Handlers[counterState]
)

func (counter) Init(cfg *ap.Config[counterState], start int) (counterState, error) {
	return counterState{value: start}, nil
}

func (counter) Handlers() *ap.Handlers[counterState] {
	counterHandlersOnce.Do(func() {
		counterHandlers = ap.NewHandlers[counterState]()
		ap.Message(counterHandlers, serializer.NewMsgPack[increment](), func(s *counterState, msg increment) {
			s.value += msg.By
		})
		ap.Request(counterHandlers, serializer.NewMsgPack[get](), serializer.NewMsgPack[int](),
			func(s *counterState, _ get) int { return s.value })
	})
	return counterHandlers
}

func main() {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ref, err := ap.Start[counterState, int](self, counter{}, 10)
	if err != nil {
		panic(err)
	}

	if err := ap.Send[counterState, increment](self, ref, serializer.NewMsgPack[increment](), increment{By: 5}); err != nil {
		panic(err)
	}
	if err := ap.Send[counterState, increment](self, ref, serializer.NewMsgPack[increment](), increment{By: 2}); err != nil {
		panic(err)
	}

	total := ap.Request[counterState, get, int](self, ref, serializer.NewMsgPack[get](), get{})
	fmt.Printf("counter value: %d\n", total)

	ref.Shutdown(self)
}
