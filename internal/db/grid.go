package db

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodeGrid packs lag values as little-endian float32. Lags are whole sample
// counts, so float32 holds them exactly; NaN cells stay NaN.
func EncodeGrid(values []float64) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(float32(v)))
	}
	return buf
}

// DecodeGrid reverses EncodeGrid.
func DecodeGrid(blob []byte) ([]float64, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("grid blob length %d is not a multiple of 4", len(blob))
	}
	values := make([]float64, len(blob)/4)
	for i := range values {
		values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:])))
	}
	return values, nil
}
