package ap

import (
	"github.com/lunatic-go/actorkit/applog"
	"github.com/lunatic-go/actorkit/host"
)

// Config is handed to Definition.Init so startup code can adjust the
// process's own link-death policy and obtain a ref to itself before Init
// has even returned (spec §4.5.1, mirroring the Rust source's Config<AP>
// and its self_ref()).
type Config[State any] struct {
	abi           host.ABI
	handlers      *Handlers[State]
	dieIfLinkDies bool
	logger        applog.Logger
}

// Logger returns the structured logger this process was started with (the
// no-op logger if none was configured via Builder.WithLogger).
func (c *Config[State]) Logger() applog.Logger { return c.logger }

// DieIfLinkDies overrides whether this process terminates when a linked
// peer dies (true, the default) or instead surfaces the death as a
// message its own handle can observe (false). See spec §4.5.8.
func (c *Config[State]) DieIfLinkDies(die bool) {
	c.dieIfLinkDies = die
	c.abi.Process().SetDieWhenLinkDies(die)
}

// SelfRef returns a ref this process can use to register itself, hand its
// own address to a collaborator, or schedule a delayed message to itself —
// all before Init has returned.
func (c *Config[State]) SelfRef() ProcessRef[State] {
	return ProcessRef[State]{id: c.abi.Process().This(), handlers: c.handlers}
}
