// Command sessiontype demonstrates a session-typed protocol (spec §4.4): a
// child computes the sum of two numbers it asks the parent for, one at a
// time, then sends the total back and the session ends.
package main

import (
	"fmt"

	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/hostsim"
	"github.com/lunatic-go/actorkit/protocol"
	"github.com/lunatic-go/actorkit/serializer"
)

// childProto is the child's view: receive two ints, then send their sum,
// then end. parentProto, declared adjacent to it, is its hand-written
// dual — see protocol's package doc for why Go cannot derive one from the
// other automatically.
type childProto = protocol.Recv[int, protocol.Recv[int, protocol.Send[int, protocol.End]]]
type parentProto = protocol.Send[int, protocol.Send[int, protocol.Recv[int, protocol.End]]]

func main() {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	intSer := serializer.NewMsgPack[int]()

	session, err := protocol.Spawn[struct{}, childProto, parentProto](self, struct{}{},
		func(_ struct{}, childSelf host.ABI, child protocol.Protocol[childProto]) {
			s1, a := protocol.RecvOn[int, protocol.Recv[int, protocol.Send[int, protocol.End]]](childSelf, child, intSer)
			s2, b := protocol.RecvOn[int, protocol.Send[int, protocol.End]](childSelf, s1, intSer)
			s3 := protocol.SendOn[int, protocol.End](childSelf, s2, intSer, a+b)
			protocol.Close(s3)
		},
	)
	if err != nil {
		panic(err)
	}

	p1 := protocol.SendOn[int, protocol.Send[int, protocol.Recv[int, protocol.End]]](self, session, intSer, 3)
	p2 := protocol.SendOn[int, protocol.Recv[int, protocol.End]](self, p1, intSer, 4)
	p3, sum := protocol.RecvOn[int, protocol.End](self, p2, intSer)
	protocol.Close(p3)

	fmt.Printf("sum: %d\n", sum)
}
