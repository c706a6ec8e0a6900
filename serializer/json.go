package serializer

import "encoding/json"

// JSON is a debugging/interop serializer. It is not the default because
// field names and human-readable numbers cost wire size the MsgPack backend
// avoids, but it is invaluable when a process's traffic needs to be logged
// or inspected, matching the ambient convention in this codebase of
// json-tagging internal/debug-facing types.
type JSON[M any] struct{}

// NewJSON returns the JSON serializer for M.
func NewJSON[M any]() *JSON[M] { return &JSON[M]{} }

func (JSON[M]) Encode(w ScratchWriter, v M) error {
	enc := json.NewEncoder(asWriter{w})
	return enc.Encode(v)
}

func (JSON[M]) Decode(r ScratchReader) (M, error) {
	var v M
	dec := json.NewDecoder(asReader{r})
	if err := dec.Decode(&v); err != nil {
		var zero M
		return zero, err
	}
	return v, nil
}
