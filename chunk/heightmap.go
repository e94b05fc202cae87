package chunk

import (
	"github.com/oriumgames/anviligo/anvilerr"
	"github.com/oriumgames/anviligo/bits"
)

const (
	heightmapLen1_15 = 36
	heightmapLen1_16 = 37
	heightmapLen1_17 = 43

	// dataVersionAppliesYOffset is the DataVersion at and after which the
	// world can extend below y=0, so the y_min of the section tower must be
	// added back into a decoded motion-blocking heightmap value.
	dataVersionAppliesYOffset = 2695
)

// ExpandHeightmap decodes a packed "MOTION_BLOCKING" heightmap into 256
// per-column surface heights, one per (x, z) in z*16+x order (spec.md
// §4.4.5).
//
// Grounded on fastanvil/src/bits.rs's expand_heightmap: the data length
// alone determines the bits-per-value and packing mode (9 bits Dense for
// pre-1.16 worlds, 9 bits Padded for 1.16, 10 bits Padded for 1.18+); only
// whether yMin gets added back in depends on dataVersion, since worlds
// could not extend below y=0 before 1.18.
func ExpandHeightmap(data []int64, yMin int, dataVersion int32) ([]int, error) {
	const op = "chunk.ExpandHeightmap"

	var (
		k           int
		mode        bits.Mode
		applyOffset bool
	)
	switch len(data) {
	case heightmapLen1_15:
		k, mode, applyOffset = 9, bits.Dense, false
	case heightmapLen1_16:
		k, mode, applyOffset = 9, bits.Padded, dataVersion >= dataVersionAppliesYOffset
	case heightmapLen1_17:
		k, mode, applyOffset = 10, bits.Padded, true
	default:
		return nil, anvilerr.Newf(anvilerr.MalformedBits, op, "unrecognized heightmap data length %d", len(data))
	}

	raw, err := bits.Unpack(data, k, 256, mode)
	if err != nil {
		return nil, err
	}

	out := make([]int, 256)
	for i, v := range raw {
		h := int(v)
		if applyOffset {
			h += yMin
		}
		out[i] = h
	}
	return out, nil
}
