package bits

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitsPerBlockAndBiome(t *testing.T) {
	require.Equal(t, 4, BitsPerBlock(16))
	require.Equal(t, 5, BitsPerBlock(17))
	require.Equal(t, 10, BitsPerBlock(1<<10))
	require.Equal(t, 1, BitsPerBiome(1))
	require.Equal(t, 2, BitsPerBiome(3))
}

func TestUnpackPackRoundTripDense(t *testing.T) {
	values := []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	k := 4
	packed := Pack(values, k, Dense)
	require.Equal(t, Dense, DetectMode(len(packed), len(values), k))

	out, err := Unpack(packed, k, len(values), Dense)
	require.NoError(t, err)
	require.Equal(t, values, out)
}

func TestUnpackPackRoundTripPadded(t *testing.T) {
	values := []uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17}
	k := 5
	packed := Pack(values, k, Padded)

	out, err := Unpack(packed, k, len(values), Padded)
	require.NoError(t, err)
	require.Equal(t, values, out)
}

func TestUnpackValueStraddlingWordBoundary(t *testing.T) {
	// k=5, n=13 means 65 bits total: the 13th value straddles word 0/1 in
	// dense packing.
	values := make([]uint32, 13)
	for i := range values {
		values[i] = uint32(i) + 1
	}
	packed := Pack(values, 5, Dense)
	require.Len(t, packed, 2)

	out, err := Unpack(packed, 5, 13, Dense)
	require.NoError(t, err)
	require.Equal(t, values, out)
}

func TestUnpackRejectsOutOfRangeK(t *testing.T) {
	_, err := Unpack([]int64{0}, 0, 1, Dense)
	require.Error(t, err)

	_, err = Unpack([]int64{0}, 33, 1, Dense)
	require.Error(t, err)
}

func TestUnpackRejectsInsufficientData(t *testing.T) {
	_, err := Unpack([]int64{0}, 10, 100, Dense)
	require.Error(t, err)

	_, err = Unpack([]int64{0}, 10, 100, Padded)
	require.Error(t, err)
}

func TestDetectModeDistinguishesDenseFromPadded(t *testing.T) {
	// 4096 values at 5 bits = 20480 bits = 320 words exactly -> Dense.
	require.Equal(t, Dense, DetectMode(320, 4096, 5))
	// One extra word beyond the dense minimum -> Padded.
	require.Equal(t, Padded, DetectMode(321, 4096, 5))
}
