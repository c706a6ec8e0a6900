package ap

import (
	"github.com/lunatic-go/actorkit/aperrors"
	"github.com/lunatic-go/actorkit/applog"
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/tag"
)

// Builder composes the {link?, config?, node?} spawn matrix a definition
// starts under, mirroring the Rust source's AbstractProcessBuilder. The
// zero Builder starts an unlinked, unconfigured, local process — callers
// that need none of the fluent options can skip it and call Start/StartAs
// directly.
type Builder[State any, Arg any] struct {
	def      Definition[State, Arg]
	link     bool
	linkTag  tag.Tag
	config   *host.ProcessConfig
	node     uint64
	haveNode bool
	logger   applog.Logger
}

// For begins a Builder for def.
func For[State any, Arg any](def Definition[State, Arg]) *Builder[State, Arg] {
	return &Builder[State, Arg]{def: def}
}

// Link atomically links the started process to the caller under a freshly
// drawn tag.
func (b *Builder[State, Arg]) Link() *Builder[State, Arg] {
	b.link = true
	return b
}

// LinkWith is Link with a caller-chosen tag.
func (b *Builder[State, Arg]) LinkWith(t tag.Tag) *Builder[State, Arg] {
	b.link = true
	b.linkTag = t
	return b
}

// Configure applies cfg (die_if_link_dies and friends) to the started
// process.
func (b *Builder[State, Arg]) Configure(cfg *host.ProcessConfig) *Builder[State, Arg] {
	b.config = cfg
	return b
}

// OnNode starts the process on a remote node. Combined with Link/LinkWith,
// the host rejects the spawn outright (spec §4.5.1, §9) — this module does
// not support linking across nodes, which this Builder does not try to
// paper over.
func (b *Builder[State, Arg]) OnNode(node uint64) *Builder[State, Arg] {
	b.node = node
	b.haveNode = true
	return b
}

// WithLogger sets the structured logger Config.Logger returns inside Init
// and that startup failures get logged through. Unset, the started process
// gets applog.Noop().
func (b *Builder[State, Arg]) WithLogger(l applog.Logger) *Builder[State, Arg] {
	b.logger = l
	return b
}

// Start spawns the process and blocks until its Init has run, returning a
// ref to it or the StartupError Init failed with.
func (b *Builder[State, Arg]) Start(self host.ABI, arg Arg) (ProcessRef[State], error) {
	id, initTag, err := b.startWithoutWait(self, arg)
	if err != nil {
		return ProcessRef[State]{}, err
	}
	if err := waitOnInit(self, id, initTag); err != nil {
		return ProcessRef[State]{}, err
	}
	return ProcessRef[State]{id: id, handlers: b.def.Handlers()}, nil
}

// StartAs is Start, additionally registering the process under name. If
// name is already registered (or another start_as for it is in flight),
// nothing is spawned and StartupNameAlreadyRegistered is returned carrying
// a ref to the existing registrant (spec §4.5.2). When the name is only
// reserved by an in-flight start_as, that ref's identity is the zero value.
func (b *Builder[State, Arg]) StartAs(self host.ABI, name string, arg Arg) (ProcessRef[State], error) {
	existing, already := self.Registry().GetOrPutLater(name)
	if already {
		return ProcessRef[State]{}, aperrors.NewStartupNameAlreadyRegistered(
			ProcessRef[State]{id: existing, handlers: b.def.Handlers()},
		)
	}

	id, initTag, err := b.startWithoutWait(self, arg)
	if err != nil {
		self.Registry().Remove(name)
		return ProcessRef[State]{}, err
	}
	if err := waitOnInit(self, id, initTag); err != nil {
		self.Registry().Remove(name)
		return ProcessRef[State]{}, err
	}

	self.Registry().Put(name, id)
	return ProcessRef[State]{id: id, handlers: b.def.Handlers()}, nil
}

func (b *Builder[State, Arg]) startWithoutWait(self host.ABI, arg Arg) (host.ProcessIdentity, tag.Tag, error) {
	initTag := tag.New(self.Tag())
	parent := self.Process().This()
	logger := b.logger
	if logger == nil {
		logger = applog.Noop()
	}

	opts := host.SpawnOptions{
		Entry: func(child host.ABI) {
			runEntry(child, b.def, parent, initTag, arg, logger)
		},
	}
	if b.config != nil {
		opts.Config = b.config
	}
	if b.link {
		lt := b.linkTag
		if lt.IsNone() {
			lt = tag.New(self.Tag())
		}
		raw := lt.Uint64()
		opts.LinkTag = &raw
	}

	var (
		id  host.ProcessIdentity
		err error
	)
	if b.haveNode {
		node := b.node
		opts.Node = &node
		id, err = self.Distributed().Spawn(node, opts)
	} else {
		id, err = self.Process().Spawn(opts)
	}
	return id, initTag, err
}

func waitOnInit(self host.ABI, id host.ProcessIdentity, initTag tag.Tag) error {
	code, err := self.Message().Receive([]uint64{initTag.Uint64()}, 0)
	if err != nil {
		return err
	}
	if code != host.MessageOK {
		return &aperrors.StartupError{Kind: aperrors.StartupInitPanicked}
	}
	result := decodeCurrent(self, startupResultSerializer)
	if result.OK {
		return nil
	}
	if aperrors.StartupErrorKind(result.Kind) == aperrors.StartupInitPanicked {
		return aperrors.NewStartupInitPanicked()
	}
	return aperrors.NewStartupCustom(&remoteInitError{message: result.Message})
}

// remoteInitError preserves a failed Init's message across the wire without
// requiring every Arg's custom error type to itself be serializable — only
// its rendered text crosses the process boundary, matching the
// startupResult wire type in messages.go.
type remoteInitError struct{ message string }

func (e *remoteInitError) Error() string { return e.message }

// Start is the common case: build a Builder with no special options and
// Start it, mirroring AbstractProcess::start's default delegation.
func Start[State any, Arg any](self host.ABI, def Definition[State, Arg], arg Arg) (ProcessRef[State], error) {
	return For(def).Start(self, arg)
}

// StartAs is the common case for StartAs.
func StartAs[State any, Arg any](self host.ABI, def Definition[State, Arg], name string, arg Arg) (ProcessRef[State], error) {
	return For(def).StartAs(self, name, arg)
}
