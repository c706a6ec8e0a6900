package process

import (
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/serializer"
	"github.com/lunatic-go/actorkit/tag"
)

// Entry is the signature every spawned function process's body takes: its
// capture value (closed over at the spawn call site, not round-tripped
// through a serializer — see DESIGN.md for why that is a deliberate
// simplification of the Rust "type helper" bootstrap step) and a typed
// mailbox bound to its own identity.
type Entry[C any, M any, S serializer.Serializer[M]] func(capture C, mailbox Mailbox[M, S])

// spawnParams composes the {link?, config?, node?} matrix spec §4.3
// describes; every public Spawn* variant below fills in one combination.
type spawnParams struct {
	linkTag *uint64
	config  *host.ProcessConfig
	node    *uint64
}

func spawn[C any, M any, S serializer.Serializer[M]](self host.ABI, capture C, ser S, entry Entry[C, M, S], p spawnParams) (Process[M, S], error) {
	dieIfLinkDies := true
	if p.config != nil {
		dieIfLinkDies = p.config.DieIfLinkDies
	}

	opts := host.SpawnOptions{
		LinkTag: p.linkTag,
		Config:  p.config,
		Node:    p.node,
		Entry: func(child host.ABI) {
			mb := NewMailbox[M](child, ser, dieIfLinkDies)
			entry(capture, mb)
		},
	}

	var id host.ProcessIdentity
	var err error
	if p.node != nil {
		id, err = self.Distributed().Spawn(*p.node, opts)
	} else {
		id, err = self.Process().Spawn(opts)
	}
	if err != nil {
		return Process[M, S]{}, err
	}
	return New[M](id, ser), nil
}

// Spawn starts an unlinked function process with no special configuration.
func Spawn[C any, M any, S serializer.Serializer[M]](self host.ABI, capture C, ser S, entry Entry[C, M, S]) (Process[M, S], error) {
	return spawn(self, capture, ser, entry, spawnParams{})
}

// SpawnLink starts a function process atomically linked to the caller under
// a freshly drawn tag, returning that tag so the caller can later correlate
// a link-death notification with this specific child.
func SpawnLink[C any, M any, S serializer.Serializer[M]](self host.ABI, capture C, ser S, entry Entry[C, M, S]) (Process[M, S], tag.Tag, error) {
	t := tag.New(self.Tag())
	raw := t.Uint64()
	p, err := spawn(self, capture, ser, entry, spawnParams{linkTag: &raw})
	return p, t, err
}

// SpawnLinkTag is SpawnLink with a caller-chosen tag, for callers that need
// to pick the correlation tag themselves rather than have one drawn for
// them.
func SpawnLinkTag[C any, M any, S serializer.Serializer[M]](self host.ABI, t tag.Tag, capture C, ser S, entry Entry[C, M, S]) (Process[M, S], error) {
	raw := t.Uint64()
	return spawn(self, capture, ser, entry, spawnParams{linkTag: &raw})
}

// SpawnConfig starts a function process under an explicit ProcessConfig
// (currently just die_if_link_dies; spec §4.5.8). A nil link tag leaves the
// child unlinked.
func SpawnConfig[C any, M any, S serializer.Serializer[M]](self host.ABI, cfg *host.ProcessConfig, capture C, ser S, entry Entry[C, M, S]) (Process[M, S], error) {
	return spawn(self, capture, ser, entry, spawnParams{config: cfg})
}

// SpawnNode starts a function process on the named node. Combining a remote
// node with a link tag is rejected by the host (spec §9's cross-node
// linking open question, resolved as unsupported — see
// host.SpawnOptions.Node and DESIGN.md).
func SpawnNode[C any, M any, S serializer.Serializer[M]](self host.ABI, node uint64, capture C, ser S, entry Entry[C, M, S]) (Process[M, S], error) {
	return spawn(self, capture, ser, entry, spawnParams{node: &node})
}
