// Package tag implements the 64-bit tag algebra shared by every message
// exchanged through actorkit: a fresh tag identifies a reply-correlation
// slot, and its low 6 bits double as the abstract-process handler-id
// subfield so a single untyped mailbox can dispatch to many typed handlers.
package tag

// handlerBits is the width of the handler-id subfield packed into the low
// bits of a tag. 6 bits gives handler ids 0..63: 0 is reserved for "ignore",
// 1..62 for user handlers, 63 for the shutdown handler.
const handlerBits = 6

// handlerMask clears/selects the low handlerBits bits of a tag.
const handlerMask = (uint64(1) << handlerBits) - 1

// ShutdownHandlerID is the reserved handler id the abstract-process
// dispatch loop treats as "break out of the loop and terminate".
const ShutdownHandlerID = handlerMask // 63

// IgnoreHandlerID is the reserved handler id meaning "this is a stale reply
// to a request the caller already gave up on — discard it".
const IgnoreHandlerID = 0

// MaxUserHandlerID is the largest handler id a Handlers registration may
// assign to a user handler (1..62 inclusive).
const MaxUserHandlerID = handlerMask - 1

// Source generates fresh, host-unique 64-bit tag values. The host ABI's
// TagABI implements this; it is factored out as its own tiny interface so
// tag.New can be called without importing the host package (which would
// create an import cycle, since host.ABI's sub-interfaces are described in
// terms of tags).
type Source interface {
	New() uint64
}

// Tag is an opaque 64-bit value attached to every message. The zero Tag is
// the distinguished "no tag" value (Tag.None()).
type Tag uint64

// None returns the distinguished "no tag" value.
func None() Tag { return Tag(0) }

// New draws a fresh tag from the host and returns it unmodified — callers
// that need the handler-id subfield set should follow up with FromU6.
func New(src Source) Tag { return Tag(src.New()) }

// FromU6 draws a fresh tag from the host and overwrites its low 6 bits with
// handlerID. handlerID must be in [0, 63]; out-of-range ids are masked
// silently, matching the host's own tag-generation guarantee that those
// bits start zero.
func FromU6(src Source, handlerID uint8) Tag {
	t := src.New()
	t = (t &^ handlerMask) | (uint64(handlerID) & handlerMask)
	return Tag(t)
}

// ExtractU6Data splits t into a response tag (t with its low 6 bits
// cleared) and the handler id carried in those bits.
func ExtractU6Data(t Tag) (response Tag, handlerID uint8) {
	response = Tag(uint64(t) &^ handlerMask)
	handlerID = uint8(uint64(t) & handlerMask)
	return
}

// WithHandlerID returns a copy of t with its low 6 bits overwritten by
// handlerID, leaving the remaining bits (the response-correlation part)
// untouched. It is the inverse helper used when re-assembling
// response+handler back into a single wire tag, and debug builds can assert
// ExtractU6Data(WithHandlerID(t, id)) reconstructs (t, id).
func WithHandlerID(t Tag, handlerID uint8) Tag {
	return Tag((uint64(t) &^ handlerMask) | (uint64(handlerID) & handlerMask))
}

// Uint64 returns the tag's raw wire value.
func (t Tag) Uint64() uint64 { return uint64(t) }

// IsNone reports whether t is the distinguished zero tag.
func (t Tag) IsNone() bool { return t == 0 }
