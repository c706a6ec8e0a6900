package protocol

import (
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/tag"
)

// Spawn starts a child process running entry with protocol state P, and
// returns the parent's view of the same session. Dual, the type the
// parent's Protocol is declared to start as, is given explicitly — see the
// package doc for why Go cannot infer it from P. Combining P and Dual
// correctly is the caller's responsibility, exactly as when hand-writing a
// wire protocol's two ends to agree by construction rather than by an
// enforced type-level relation.
func Spawn[C any, P any, Dual any](self host.ABI, capture C, entry func(capture C, self host.ABI, session Protocol[P])) (Protocol[Dual], error) {
	t := tag.New(self.Tag())
	raw := t.Uint64()
	parent := self.Process().This()

	id, err := self.Process().Spawn(host.SpawnOptions{
		LinkTag: &raw,
		Entry: func(child host.ABI) {
			session := newRoot[P](child, parent, t)
			entry(capture, child, session)
		},
	})
	if err != nil {
		return Protocol[Dual]{}, err
	}
	return newRoot[Dual](self, id, t), nil
}
