package process

import (
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/serializer"
	"github.com/lunatic-go/actorkit/tag"
)

// HandleEnvelope pairs a plain payload with a process handle smuggled as a
// capability (spec §3 "Resource smuggling") rather than encoded as plain
// data: Index is the only trace of the handle that ever crosses the wire,
// mirroring the Rust source's `serde::Serialize`/`Deserialize` impls for
// `Process<M,S>`, which write/read a resource-table index in place of the
// handle's identity (`host_api::message::push_process`/`take_process`).
type HandleEnvelope[M any] struct {
	Index   uint64
	Payload M
}

// SendHandle delivers payload to target's mailbox wrapped in a
// HandleEnvelope carrying handle, smuggled as a resource rather than
// encoded as plain data (spec §3 "Resource smuggling"). The push must
// happen after CreateData and before WriteData/Send — CreateData discards
// any resource pushed before it — so this performs the whole
// create/push/write/send sequence as one unit rather than composing it out
// of Process.Send. The sender's copy of handle must be treated as consumed
// once this call returns.
func SendHandle[M any, S serializer.Serializer[HandleEnvelope[M]], HM any, HS serializer.Serializer[HM]](
	self host.ABI, target Process[HandleEnvelope[M], S], handle Process[HM, HS], payload M,
) error {
	t := tag.New(self.Tag())
	msg := self.Message()
	msg.CreateData(t.Uint64(), 0)
	index, err := msg.PushResource(host.ResourceProcess, handle.id.ProcessID)
	if err != nil {
		return err
	}
	wire, err := serializer.EncodeToBytes[HandleEnvelope[M]](target.ser, HandleEnvelope[M]{Index: index, Payload: payload})
	if err != nil {
		return err
	}
	if _, err := msg.WriteData(wire); err != nil {
		return err
	}
	return msg.Send(target.id)
}

// TakeHandle recovers a handle smuggled at index (a HandleEnvelope's Index
// field, once decoded) out of the process's current incoming scratch
// buffer, binding it to the caller's own node — resource smuggling never
// crosses a node boundary (spec §3). ser is the serializer the recovered
// handle uses for messages of type HM; it is chosen by the receiver, never
// carried on the wire.
func TakeHandle[HM any, HS serializer.Serializer[HM]](self host.ABI, index uint64, ser HS) (Process[HM, HS], error) {
	pid, err := self.Message().TakeResource(host.ResourceProcess, index)
	if err != nil {
		return Process[HM, HS]{}, err
	}
	id := host.ProcessIdentity{NodeID: self.Process().This().NodeID, ProcessID: pid}
	return New[HM](id, ser), nil
}
