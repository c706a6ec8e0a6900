package aperrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(Timeout{}))
	assert.False(t, IsTimeout(errors.New("boom")))
}

func TestReceiveErrorTimeout(t *testing.T) {
	err := NewReceiveTimeout()
	assert.True(t, err.Timeout)
	assert.Nil(t, err.Deserialization)
	assert.Equal(t, "actorkit: receive timed out", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestReceiveErrorDeserialization(t *testing.T) {
	cause := errors.New("bad bytes")
	err := NewReceiveDeserializationFailed(cause)
	assert.False(t, err.Timeout)
	assert.ErrorIs(t, err.Unwrap(), err.Deserialization)
	assert.Contains(t, err.Error(), "bad bytes")
}

func TestEncodeDecodeErrorsUnwrap(t *testing.T) {
	cause := errors.New("overflow")
	enc := &EncodeError{Type: "widget", Cause: cause}
	assert.ErrorIs(t, enc, cause)
	assert.Contains(t, enc.Error(), "widget")

	dec := &DecodeError{Type: "widget"}
	assert.Nil(t, dec.Unwrap())
	assert.NotContains(t, dec.Error(), "<nil>")
}

func TestStartupErrorKinds(t *testing.T) {
	panicked := NewStartupInitPanicked()
	assert.Equal(t, StartupInitPanicked, panicked.Kind)
	assert.Equal(t, "actorkit: init panicked", panicked.Error())

	custom := NewStartupCustom(errors.New("bad config"))
	assert.Equal(t, StartupCustom, custom.Kind)
	assert.Contains(t, custom.Error(), "bad config")
	assert.ErrorIs(t, custom, custom.Custom)

	existing := NewStartupNameAlreadyRegistered("some-ref")
	assert.Equal(t, StartupNameAlreadyRegistered, existing.Kind)
	assert.Equal(t, "some-ref", existing.Existing)
	assert.Equal(t, "actorkit: name already registered", existing.Error())
}

func TestLinkTrappedError(t *testing.T) {
	err := &LinkTrapped{Tag: 42}
	assert.Contains(t, err.Error(), "42")
}
