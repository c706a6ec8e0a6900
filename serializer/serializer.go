// Package serializer defines the wire-encoding boundary every message
// crosses on its way in or out of a process's scratch buffer, plus the two
// concrete backends this module ships: a MessagePack-backed default and a
// JSON backend used for debugging and interop.
//
// The contract (spec §4.1): encoding a value with S and then decoding it
// with S yields a value equal to the original under the type's own equality
// relation. There is at most one encode or decode in flight per process at
// any time, so implementations may assume exclusive access to the scratch
// buffer they are handed.
package serializer

import (
	"bytes"

	"github.com/lunatic-go/actorkit/aperrors"
)

// Serializer encodes and decodes values of type M against a process's
// current scratch buffer. Scratch is the minimal reader/writer surface a
// backend needs; process/hostsim supply the concrete buffer.
type Serializer[M any] interface {
	// Encode appends the wire representation of v to w.
	Encode(w ScratchWriter, v M) error
	// Decode reads the wire representation of a value from r and returns it.
	Decode(r ScratchReader) (M, error)
}

// ScratchWriter is the outgoing half of a process's current scratch buffer.
type ScratchWriter interface {
	Write(p []byte) (int, error)
}

// ScratchReader is the incoming half of a process's current scratch buffer.
type ScratchReader interface {
	Read(p []byte) (int, error)
}

// EncodeToBytes is a convenience used by callers (process.Send, ap dispatch)
// that need the fully encoded payload as a single buffer before handing it
// to the host's message.create_data/write_data pair.
func EncodeToBytes[M any](s Serializer[M], v M) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Encode(&buf, v); err != nil {
		return nil, &aperrors.EncodeError{Type: typeName[M](), Cause: err}
	}
	return buf.Bytes(), nil
}

// DecodeFromBytes is the dual of EncodeToBytes, used once the host has
// delivered the current incoming scratch buffer's raw bytes.
func DecodeFromBytes[M any](s Serializer[M], data []byte) (M, error) {
	v, err := s.Decode(bytes.NewReader(data))
	if err != nil {
		var zero M
		return zero, &aperrors.DecodeError{Type: typeName[M](), Cause: err}
	}
	return v, nil
}

func typeName[M any]() string {
	var zero M
	return typeOf(zero)
}
