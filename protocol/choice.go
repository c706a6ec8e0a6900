package protocol

import (
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/serializer"
)

// boolSerializer is the wire encoding used for Choose/Offer's single-bit
// selector, matching the Rust source's `S: Serializer<bool>` bound — every
// backend this module ships (MsgPack, JSON) handles bool without the
// caller needing to say so explicitly.
var boolSerializer = serializer.NewMsgPack[bool]()

// SelectLeft performs an active choice, selecting protocol P.
func SelectLeft[P any, Q any](self host.ABI, p Protocol[Choose[P, Q]]) Protocol[P] {
	return sendChoice[P](self, p, true)
}

// SelectRight performs an active choice, selecting protocol Q.
func SelectRight[P any, Q any](self host.ABI, p Protocol[Choose[P, Q]]) Protocol[Q] {
	return sendChoice[Q](self, p, false)
}

func sendChoice[Next any, P any, Q any](self host.ABI, p Protocol[Choose[P, Q]], left bool) Protocol[Next] {
	payload, err := serializer.EncodeToBytes[bool](boolSerializer, left)
	if err != nil {
		panic(err)
	}
	m := self.Message()
	m.CreateData(p.t.Uint64(), len(payload))
	if _, err := m.WriteData(payload); err != nil {
		panic(err)
	}
	if err := m.Send(p.id); err != nil {
		panic(err)
	}
	return transition[Next](p.tok, p.id, p.t)
}

// OfferOn is the passive side of a choice: it blocks for the other end's
// selector and returns a Branch naming which continuation is live.
func OfferOn[P any, Q any](self host.ABI, p Protocol[Offer[P, Q]]) Branch[P, Q] {
	code, err := self.Message().Receive([]uint64{p.t.Uint64()}, 0)
	if err != nil {
		panic(err)
	}
	if code != host.MessageOK {
		panic("actorkit: protocol offer receive did not yield a message")
	}
	buf := readAll(self)
	left, err := serializer.DecodeFromBytes[bool](boolSerializer, buf)
	if err != nil {
		panic(err)
	}
	if left {
		return Branch[P, Q]{Left: transition[P](p.tok, p.id, p.t), IsLeft: true}
	}
	return Branch[P, Q]{Right: transition[Q](p.tok, p.id, p.t), IsLeft: false}
}
