// Package aperrors defines the error taxonomy shared by every layer of
// actorkit: startup failures, receive/timeout errors, encode/decode errors
// and the link-trapped signal. Every type follows the teacher codebase's
// convention (see commbus/errors.go): a small struct, a constructor, an
// Error() string, and an Unwrap() where the error wraps a cause.
package aperrors

import (
	"errors"
	"fmt"
)

// Timeout is returned by any timed operation (request, deferred request,
// shutdown, receive_timeout) that did not complete before its deadline. It
// carries no data: per the wire contract, a timed-out caller cannot
// distinguish "server never saw it" from "server replied too late".
type Timeout struct{}

func (Timeout) Error() string { return "actorkit: operation timed out" }

// IsTimeout reports whether err is (or wraps) a Timeout.
func IsTimeout(err error) bool {
	var t Timeout
	return errors.As(err, &t)
}

// DeserializationFailed wraps a decode failure observed during a receive.
type DeserializationFailed struct {
	Cause error
}

func (e *DeserializationFailed) Error() string {
	return fmt.Sprintf("actorkit: deserialization failed: %v", e.Cause)
}

func (e *DeserializationFailed) Unwrap() error { return e.Cause }

// ReceiveError is returned from Mailbox receive operations.
type ReceiveError struct {
	// Timeout is set when the receive deadline elapsed with no matching
	// message. Deserialization is set when a message arrived but could not
	// be decoded into the expected type. At most one is set.
	Timeout         bool
	Deserialization *DeserializationFailed
}

func (e *ReceiveError) Error() string {
	if e.Timeout {
		return "actorkit: receive timed out"
	}
	if e.Deserialization != nil {
		return e.Deserialization.Error()
	}
	return "actorkit: receive error"
}

func (e *ReceiveError) Unwrap() error {
	if e.Deserialization != nil {
		return e.Deserialization
	}
	return nil
}

// NewReceiveTimeout builds a ReceiveError reporting a timed-out receive.
func NewReceiveTimeout() *ReceiveError { return &ReceiveError{Timeout: true} }

// NewReceiveDeserializationFailed builds a ReceiveError wrapping a decode
// failure observed while servicing a receive call.
func NewReceiveDeserializationFailed(cause error) *ReceiveError {
	return &ReceiveError{Deserialization: &DeserializationFailed{Cause: cause}}
}

// EncodeError is returned by a Serializer when it cannot encode a value into
// the current outgoing scratch buffer.
type EncodeError struct {
	Type  string
	Cause error
}

func (e *EncodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("actorkit: encode %s failed: %v", e.Type, e.Cause)
	}
	return fmt.Sprintf("actorkit: encode %s failed", e.Type)
}

func (e *EncodeError) Unwrap() error { return e.Cause }

// DecodeError is returned by a Serializer when it cannot decode a value from
// the current incoming scratch buffer.
type DecodeError struct {
	Type  string
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("actorkit: decode %s failed: %v", e.Type, e.Cause)
	}
	return fmt.Sprintf("actorkit: decode %s failed", e.Type)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// LinkTrapped is delivered to a tag-filtered receive when the caller has
// opted into link-death-as-message mode (Config.DieIfLinkDies(false)) and a
// linked peer has died. The Tag is the tag carried by the link-death
// sentinel message, matching the original signal's tag so the caller can
// correlate it with whichever link it came from.
type LinkTrapped struct {
	Tag uint64
}

func (e *LinkTrapped) Error() string {
	return fmt.Sprintf("actorkit: link trapped (tag=%d)", e.Tag)
}

// UnknownHandlerID is panicked by the dispatch loop when an incoming
// message's tag names a handler id larger than the registered tuple length,
// or one that was never registered at all — a fatal condition, not a
// droppable message (a handler id is only ever assigned by this process's
// own Handlers table, so seeing an unknown one means the sender and this
// process disagree about which Definition is running).
type UnknownHandlerID struct {
	ID uint8
}

func (e *UnknownHandlerID) Error() string {
	return fmt.Sprintf("actorkit: no handler registered for id %d", e.ID)
}

// NewUnknownHandlerID builds an UnknownHandlerID for the given wire id.
func NewUnknownHandlerID(id uint8) *UnknownHandlerID {
	return &UnknownHandlerID{ID: id}
}

// StartupErrorKind discriminates the three ways AbstractProcess startup can
// fail, mirroring the Rust enum's variants.
type StartupErrorKind int

const (
	// StartupCustom wraps a user-returned error from init.
	StartupCustom StartupErrorKind = iota
	// StartupInitPanicked indicates init panicked; the panic was caught and
	// converted into this error so the spawner is never left blocked.
	StartupInitPanicked
	// StartupNameAlreadyRegistered indicates start_as raced (or lost) a
	// registry reservation against an already-running process.
	StartupNameAlreadyRegistered
)

// StartupError is returned from ap.Start / ap.StartAs when the child fails
// to come up cleanly. Existing is only populated for
// StartupNameAlreadyRegistered and holds the ap.ProcessRef value that ap
// builds for the existing registrant; it is typed any because this package
// cannot depend on ap without an import cycle, so callers type-assert it
// back to the ProcessRef type they expect.
type StartupError struct {
	Kind     StartupErrorKind
	Custom   error
	Existing any
}

func (e *StartupError) Error() string {
	switch e.Kind {
	case StartupInitPanicked:
		return "actorkit: init panicked"
	case StartupNameAlreadyRegistered:
		return "actorkit: name already registered"
	default:
		if e.Custom != nil {
			return fmt.Sprintf("actorkit: startup failed: %v", e.Custom)
		}
		return "actorkit: startup failed"
	}
}

func (e *StartupError) Unwrap() error { return e.Custom }

// NewStartupInitPanicked builds a StartupError for a caught init panic.
func NewStartupInitPanicked() *StartupError {
	return &StartupError{Kind: StartupInitPanicked}
}

// NewStartupCustom wraps a user-returned init error.
func NewStartupCustom(err error) *StartupError {
	return &StartupError{Kind: StartupCustom, Custom: err}
}

// NewStartupNameAlreadyRegistered builds a StartupError carrying the
// existing registrant so the caller can recover a handle to it.
func NewStartupNameAlreadyRegistered(existing any) *StartupError {
	return &StartupError{Kind: StartupNameAlreadyRegistered, Existing: existing}
}
