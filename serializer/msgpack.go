package serializer

import (
	"github.com/vmihailenco/msgpack/v5"
)

// MsgPack is the default "Bincode-like" serializer: a compact, schema-less
// binary codec for any struct-tagged Go value. It is the closest ecosystem
// analogue available to Rust's Bincode — no field names on the wire when a
// type opts into array encoding, just positional values — which is why it
// is the default rather than the JSON backend below.
type MsgPack[M any] struct {
	// UseArrayEncoding drops struct field names from the wire format,
	// matching Bincode's positional layout more closely. Off by default so
	// a type's own `msgpack:",omitempty"` tags keep working unmodified.
	UseArrayEncoding bool
}

// NewMsgPack returns the default MessagePack serializer for M.
func NewMsgPack[M any]() *MsgPack[M] { return &MsgPack[M]{} }

func (s *MsgPack[M]) Encode(w ScratchWriter, v M) error {
	enc := msgpack.NewEncoder(asWriter{w})
	if s.UseArrayEncoding {
		enc.SetCustomStructTag("msgpack")
		enc.UseArrayEncodedStructs(true)
	}
	return enc.Encode(v)
}

func (s *MsgPack[M]) Decode(r ScratchReader) (M, error) {
	var v M
	dec := msgpack.NewDecoder(asReader{r})
	if s.UseArrayEncoding {
		dec.SetCustomStructTag("msgpack")
		dec.UseArrayEncodedStructs(true)
	}
	if err := dec.Decode(&v); err != nil {
		var zero M
		return zero, err
	}
	return v, nil
}

// asWriter/asReader adapt the narrow ScratchWriter/ScratchReader interfaces
// to the io.Writer/io.Reader msgpack expects, without pulling an io import
// into the public Serializer contract above.
type asWriter struct{ w ScratchWriter }

func (a asWriter) Write(p []byte) (int, error) { return a.w.Write(p) }

type asReader struct{ r ScratchReader }

func (a asReader) Read(p []byte) (int, error) { return a.r.Read(p) }
