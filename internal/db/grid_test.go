package db

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestGridRoundTrip(t *testing.T) {
	values := []float64{math.NaN(), -14, 0, 13, math.NaN(), 1 << 20}
	blob := EncodeGrid(values)
	assert.Len(t, blob, 4*len(values))

	got, err := DecodeGrid(blob)
	require.NoError(t, err)
	assert.True(t, floats.Same(values, got), "got %v", got)
}

func TestGridEmpty(t *testing.T) {
	got, err := DecodeGrid(EncodeGrid(nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeGrid_BadLength(t *testing.T) {
	_, err := DecodeGrid([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestEncodeGrid_LittleEndian(t *testing.T) {
	// 1.0 as float32 is 0x3f800000.
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, EncodeGrid([]float64{1}))
}
