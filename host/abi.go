// Package host declares the ABI surface the Lunatic host exposes to guest
// code: process spawn/link/kill, mailbox send/receive against a per-process
// scratch buffer, a distributed namespace, a name registry, timers, and the
// tag generator. Every higher layer in actorkit (tag, process, protocol,
// ap) is written purely in terms of this interface.
//
// This package never implements ABI — per the distilled spec (§1),
// host-function bindings are an external collaborator's concern. hostsim
// ships the one concrete implementation in this repository, a goroutine and
// channel based simulator used by every package's tests and by the cmd/
// examples; a real WASM-host binding would be a second implementation of
// the same interface, living outside this module.
package host

import "time"

// ABI groups the host's imported namespaces exactly as spec §6 lists them.
type ABI interface {
	Process() ProcessABI
	Message() MessageABI
	Distributed() DistributedABI
	Registry() RegistryABI
	Timer() TimerABI
	Tag() TagABI
}

// ProcessIdentity uniquely identifies a process across the cluster.
type ProcessIdentity struct {
	NodeID    uint64
	ProcessID uint64
}

// SpawnOptions composes the {link?, config?, node?} matrix spec §4.3
// describes: every Spawn* variant in package process reduces to one call to
// ProcessABI.Spawn with the right combination of these fields set.
type SpawnOptions struct {
	// LinkTag is non-nil when the spawn should atomically link the new
	// child to the caller, tagged with *LinkTag for link-death delivery.
	LinkTag *uint64
	// Config, when non-nil, names a previously created process
	// configuration (die_if_link_dies and friends) to apply to the child.
	Config *ProcessConfig
	// Node, when non-nil, spawns on a remote node. Combining Node with
	// LinkTag is rejected by the host with an error (hostsim's
	// errCrossNodeLink) — spec §9's
	// "open question" is resolved by this module as: cross-node linking is
	// not supported, consistent with the builder-level rejection described
	// in spec §4.5.1.
	Node *uint64
	// Entry is the child's user entry point. In real Lunatic this is a pair
	// of monomorphization-specific function table indices threaded across
	// the WASM instance boundary (spec §4.3's "spawn protocol"); since this
	// module's one host implementation (hostsim) runs every simulated
	// process in the same Go process rather than a separate WASM instance,
	// the instance-boundary indirection collapses to an ordinary Go
	// closure, invoked on a fresh goroutine with a host.ABI bound to the
	// new child's own identity.
	Entry func(self ABI)
	// BootstrapPayload is the encoded capture/arg value delivered as the
	// child's first mailbox message (tag 0), matching the "type helper
	// pulls one message from its mailbox" step of the spawn protocol.
	BootstrapPayload []byte
}

// ProcessConfig is a host-side per-process configuration handle (created by
// ProcessABI.ConfigCreate), currently only carrying the
// die-if-link-dies flag (spec §4.5.8).
type ProcessConfig struct {
	ID            uint64
	DieIfLinkDies bool
}

// ProcessABI is the `process` host namespace (spec §6).
type ProcessABI interface {
	This() ProcessIdentity
	Spawn(opts SpawnOptions) (ProcessIdentity, error)
	Link(tag uint64, id ProcessIdentity) error
	Unlink(id ProcessIdentity) error
	Kill(id ProcessIdentity) error
	Exists(id ProcessIdentity) bool
	SetDieWhenLinkDies(die bool)
	SleepMS(ms uint64)
	ConfigCreate() *ProcessConfig
	ConfigSetDieIfLinkDies(cfg *ProcessConfig, die bool)
}

// MessageCode is the integer status Message.Receive returns, mirroring the
// host's u32 return codes (spec §3 "Mailbox").
type MessageCode uint32

const (
	// MessageOK indicates a normal user message was delivered.
	MessageOK MessageCode = 0
	// MessageSignal indicates a raw signal was delivered. hostsim never
	// returns it (it reports link deaths as LinkDied), and package process
	// has no separate branch for it.
	MessageSignal MessageCode = 1
	// MessageLinkDied indicates the delivered item is a link-death
	// notification rather than a user message.
	MessageLinkDied MessageCode = 2
	// MessageTimeout indicates the receive's deadline elapsed with nothing
	// matching the tag filter delivered.
	MessageTimeout MessageCode = 3
)

// MessageABI is the `message` host namespace (spec §6): scratch-buffer I/O,
// send/receive, and resource smuggling (push_*/take_*).
type MessageABI interface {
	// CreateData opens a new outgoing scratch buffer tagged t.
	CreateData(t uint64, capacityHint int)
	// WriteData appends p to the current outgoing scratch buffer.
	WriteData(p []byte) (int, error)
	// ReadData reads up to len(p) bytes from the current incoming scratch
	// buffer.
	ReadData(p []byte) (int, error)
	// GetTag reports the tag of the current incoming scratch buffer.
	GetTag() uint64
	// Send hands the current outgoing buffer to target's mailbox and
	// clears it.
	Send(target ProcessIdentity) error
	// SendReceiveSkipSearch atomically sends the current outgoing buffer
	// and blocks for a reply tagged waitTag, skipping over (but retaining)
	// any non-matching messages already queued. timeout of 0 means no
	// deadline.
	SendReceiveSkipSearch(target ProcessIdentity, waitTag uint64, timeout time.Duration) (MessageCode, error)
	// Receive blocks for the next message whose tag is in tags (or any
	// message, if tags is empty), up to timeout (0 = no deadline), and
	// makes it the current incoming buffer.
	Receive(tags []uint64, timeout time.Duration) (MessageCode, error)
	// PushResource removes resource id from the caller's resource table and
	// returns its index within the message currently being constructed.
	PushResource(kind ResourceKind, id uint64) (index uint64, err error)
	// TakeResource moves the resource at index out of the most recently
	// received message into the receiver's resource table, returning its
	// new process-local id.
	TakeResource(kind ResourceKind, index uint64) (id uint64, err error)
}

// ResourceKind enumerates the host resource kinds spec §3 names
// ("process handles, TCP streams, TLS streams, UDP sockets, WASM modules").
type ResourceKind int

const (
	ResourceProcess ResourceKind = iota
	ResourceTCPStream
	ResourceTLSStream
	ResourceUDPSocket
	ResourceWasmModule
)

// DistributedABI is the `distributed` host namespace (spec §6).
type DistributedABI interface {
	NodeID() uint64
	Spawn(node uint64, opts SpawnOptions) (ProcessIdentity, error)
	Send(node uint64, target ProcessIdentity) error
	SendReceiveSkipSearch(node uint64, target ProcessIdentity, waitTag uint64, timeout time.Duration) (MessageCode, error)
}

// RegistryABI is the `registry` host namespace (spec §6).
type RegistryABI interface {
	Get(name string) (ProcessIdentity, bool)
	Put(name string, id ProcessIdentity)
	// GetOrPutLater reserves name if absent, returning (zero, false) and a
	// live reservation; if present, returns the existing identity and true.
	// The reservation must be released via Remove if the caller abandons
	// it without ever calling Put (spec §4.5.2, §7 "name reservation
	// leaks").
	GetOrPutLater(name string) (existing ProcessIdentity, alreadyRegistered bool)
	Remove(name string)
}

// TimerRef identifies a pending delayed send, cancellable exactly once
// (cancellation is idempotent per spec §5).
type TimerRef uint64

// TimerABI is the `timer` host namespace (spec §6).
type TimerABI interface {
	SendAfter(target ProcessIdentity, delay time.Duration, payload []byte, t uint64) TimerRef
	CancelTimer(ref TimerRef) bool
}

// TagABI is the `tag` host namespace (spec §6): a fresh unique 64-bit tag
// generator. It also satisfies tag.Source so package tag can be handed a
// host.ABI's Tag() sub-interface directly.
type TagABI interface {
	New() uint64
}
