// Command pingpong is the smallest possible function-process example: ping
// and pong bounce an incrementing counter back and forth five times, each
// side replying to whichever process last sent it — the reply-to handle
// travels as a smuggled resource rather than a plain identity field, run
// under hostsim rather than a real host.
package main

import (
	"fmt"

	"github.com/lunatic-go/actorkit/hostsim"
	"github.com/lunatic-go/actorkit/process"
	"github.com/lunatic-go/actorkit/serializer"
)

// ball is the plain part of what bounces between ping and pong: just the
// round counter. Who to bounce it back to rides alongside as a smuggled
// process handle (see ballEnv), never as a field of ball itself.
type ball struct {
	N int
}

// ballEnv is the envelope actually sent: ball's payload plus the sender's
// own handle, smuggled as a resource.
type ballEnv = process.HandleEnvelope[ball]

type ballMailbox = process.Mailbox[ballEnv, *serializer.MsgPack[ballEnv]]

const rounds = 5

func bounce(name string, mb ballMailbox, ser *serializer.MsgPack[ballEnv], last bool) {
	self := mb.Self()
	for i := 0; i < rounds; i++ {
		env := mb.Receive()
		fmt.Printf("%s: round %d, counter %d\n", name, i, env.Payload.N)
		if last && i == rounds-1 {
			return
		}

		from, err := process.TakeHandle[ballEnv](self, env.Index, ser)
		if err != nil {
			return
		}

		here := process.New[ballEnv](self.Process().This(), ser)
		if err := process.SendHandle(self, from, here, ball{N: env.Payload.N + 1}); err != nil {
			return
		}
	}
}

func main() {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ser := serializer.NewMsgPack[ballEnv]()

	pong, err := process.Spawn[struct{}, ballEnv](self, struct{}{}, ser,
		func(_ struct{}, mb ballMailbox) {
			bounce("pong", mb, ser, false)
		},
	)
	if err != nil {
		panic(err)
	}

	done := make(chan struct{})
	ping, err := process.Spawn[struct{}, ballEnv](self, struct{}{}, ser,
		func(_ struct{}, mb ballMailbox) {
			defer close(done)
			bounce("ping", mb, ser, true)
		},
	)
	if err != nil {
		panic(err)
	}

	if err := process.SendHandle(self, pong, ping, ball{N: 0}); err != nil {
		panic(err)
	}
	<-done
}
