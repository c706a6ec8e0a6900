package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct{ next uint64 }

func (f *fakeSource) New() uint64 {
	f.next += 64
	return f.next
}

func TestNoneIsZero(t *testing.T) {
	assert.True(t, None().IsNone())
	assert.True(t, Tag(0).IsNone())
	assert.False(t, Tag(1).IsNone())
}

func TestFromU6RoundTripsThroughExtractU6Data(t *testing.T) {
	src := &fakeSource{}
	for id := uint8(0); id <= MaxUserHandlerID; id++ {
		tg := FromU6(src, id)
		resp, gotID := ExtractU6Data(tg)
		require.Equal(t, id, gotID)
		assert.Zero(t, resp.Uint64()&handlerMask)
	}
}

func TestExtractU6DataClearsLowBits(t *testing.T) {
	src := &fakeSource{}
	base := New(src)
	tg := WithHandlerID(base, 42)
	resp, id := ExtractU6Data(tg)
	assert.EqualValues(t, 42, id)
	assert.Zero(t, resp.Uint64()&handlerMask)
}

func TestWithHandlerIDPreservesResponseBits(t *testing.T) {
	src := &fakeSource{}
	base := New(src)
	a := WithHandlerID(base, 5)
	b := WithHandlerID(a, 9)
	respA, _ := ExtractU6Data(a)
	respB, idB := ExtractU6Data(b)
	assert.Equal(t, respA, respB)
	assert.EqualValues(t, 9, idB)
}

func TestReservedHandlerIDs(t *testing.T) {
	assert.EqualValues(t, 63, ShutdownHandlerID)
	assert.EqualValues(t, 0, IgnoreHandlerID)
	assert.EqualValues(t, 62, MaxUserHandlerID)
}

func TestFromU6MasksOutOfRangeID(t *testing.T) {
	src := &fakeSource{}
	tg := FromU6(src, 0xFF)
	_, id := ExtractU6Data(tg)
	assert.EqualValues(t, 0xFF&int(handlerMask), id)
}
