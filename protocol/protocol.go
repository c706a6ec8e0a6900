// Package protocol implements session-typed protocols (spec §4.4): a
// Protocol[P] handle whose type parameter P is a sequence of phantom
// combinator types (Send, Recv, Choose, Offer, End, TaskEnd) describing,
// at compile time, the exact order and types of messages the two ends of
// a session must exchange.
//
// Go's generics have no type-level specialization — unlike Rust, which can
// write "impl<P, A, S> Protocol<Send<A, P>, S>" to attach a method only to
// that one instantiation, Go cannot attach a method to a generic type
// conditioned on what its type parameter happens to be. Package-level
// generic functions sidestep this cleanly: SendOn's parameter type
// Protocol[Send[A, Next]] is just an ordinary (if specific) instantiation
// of Protocol, so the compiler accepts it without any specialization at
// all. Every combinator below is a free function for exactly this reason.
//
// The one piece of the original design Go truly cannot reproduce is
// HasDual::Dual as an automatic type-level transform: Rust computes a
// protocol's mirror image from its type alone. Go has no conditional or
// recursive generic type aliases, so this module does not compute Dual —
// callers declare both ends of a session as two ordinary type aliases and
// keep them adjacent in source (see cmd/sessiontype for the convention).
// Spawn takes both P and its intended dual D as explicit type arguments;
// nothing stops the two from actually being mismatched, just as nothing in
// the type system stops a hand-written Dual impl from being wrong — the
// difference is Go does not check it for you. DESIGN.md records this as
// the one deliberate divergence from the letter of the spec's Dual
// operator.
package protocol

import (
	"reflect"

	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/serializer"
	"github.com/lunatic-go/actorkit/tag"
)

// End marks a session that has nothing left to exchange.
type End struct{}

// TaskEnd marks a session spawned as a one-shot task: the parent's only
// remaining operation is Result/ResultTimeout, not a plain Recv.
type TaskEnd struct{}

// Send[A, Next] marks "send a value of type A, then continue as Next".
type Send[A any, Next any] struct{}

// Recv[A, Next] marks "receive a value of type A, then continue as Next".
type Recv[A any, Next any] struct{}

// Choose[P, Q] marks an active choice: this end selects P or Q.
type Choose[P any, Q any] struct{}

// Offer[P, Q] marks a passive choice: the other end selects, this end
// finds out which via Branch.
type Offer[P any, Q any] struct{}

// Protocol is a handle to one end of a session in state P. Handles are
// single-owner by convention (every combinator below consumes its
// Protocol[...] argument and returns a new one for the next state) — Go
// cannot enforce move-only semantics the way Rust does, so reusing a
// Protocol value after passing it to a combinator is a programmer error
// this package cannot detect, exactly as reusing a Rust value after it has
// been moved is normally a compile error Go does not have.
type Protocol[P any] struct {
	id  host.ProcessIdentity
	t   tag.Tag
	tok *token
}

// ID returns the identity of the process on the other end of the session.
func (p Protocol[P]) ID() host.ProcessIdentity { return p.id }

func newRoot[P any](self host.ABI, id host.ProcessIdentity, t tag.Tag) Protocol[P] {
	return Protocol[P]{id: id, t: t, tok: newToken(self, reflect.TypeFor[P]())}
}

func transition[Next any](tok *token, id host.ProcessIdentity, t tag.Tag) Protocol[Next] {
	tok.advance(reflect.TypeFor[Next]())
	return Protocol[Next]{id: id, t: t, tok: tok}
}

// SendOn sends msg, encoded with ser, to the other end of the session and
// returns the continuation in state Next.
func SendOn[A any, Next any](self host.ABI, p Protocol[Send[A, Next]], ser serializer.Serializer[A], msg A) Protocol[Next] {
	payload, err := serializer.EncodeToBytes[A](ser, msg)
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

// RecvOn blocks for the other end's next message, tagged to this session,
// and returns the continuation in state Next alongside the decoded value.
func RecvOn[A any, Next any](self host.ABI, p Protocol[Recv[A, Next]], ser serializer.Serializer[A]) (Protocol[Next], A) {
	code, err := self.Message().Receive([]uint64{p.t.Uint64()}, 0)
	if err != nil {
		panic(err)
	}
	if code != host.MessageOK {
		panic("actorkit: protocol session receive did not yield a message")
	}
	buf := readAll(self)
	v, err := serializer.DecodeFromBytes[A](ser, buf)
	if err != nil {
		panic(err)
	}
	return transition[Next](p.tok, p.id, p.t), v
}

// Result is Recv's terminal form for a task-shaped session (spec §4.4):
// the one value the task ever produces, after which the session is
// implicitly at TaskEnd and requires no further Close.
func Result[A any](self host.ABI, p Protocol[Recv[A, TaskEnd]], ser serializer.Serializer[A]) A {
	code, err := self.Message().Receive([]uint64{p.t.Uint64()}, 0)
	if err != nil {
		panic(err)
	}
	if code != host.MessageOK {
		panic("actorkit: protocol task receive did not yield a message")
	}
	buf := readAll(self)
	v, err := serializer.DecodeFromBytes[A](ser, buf)
	if err != nil {
		panic(err)
	}
	transition[TaskEnd](p.tok, p.id, p.t)
	return v
}

func readAll(self host.ABI) []byte {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, _ := self.Message().ReadData(chunk)
		if n == 0 {
			break
		}
		buf = append(buf, chunk[:n]...)
	}
	return buf
}

// Branch is the outcome of Offer: exactly one of Left or Right is the zero
// value of its type, matching which side the other end selected.
type Branch[P any, Q any] struct {
	Left   Protocol[P]
	Right  Protocol[Q]
	IsLeft bool
}
