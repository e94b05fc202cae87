package chunk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oriumgames/anviligo/bits"
	"github.com/oriumgames/anviligo/nbt"
)

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := nbt.Marshal(v, "", nbt.FileDialect)
	require.NoError(t, err)
	return data
}

func TestBlockEncodedDescriptionSortsAndExcludes(t *testing.T) {
	b := Block{
		Name: "minecraft:oak_stairs",
		Properties: map[string]string{
			"facing":      "north",
			"waterlogged": "true",
			"powered":     "false",
			"half":        "bottom",
		},
	}
	require.Equal(t, "minecraft:oak_stairs|facing=north,half=bottom", b.EncodedDescription())
}

func TestBlockEncodedDescriptionNoProperties(t *testing.T) {
	require.Equal(t, "minecraft:air|", AIR.EncodedDescription())
}

func TestIsAirLike(t *testing.T) {
	require.True(t, isAirLike(AIR))
	require.True(t, isAirLike(Block{Name: "minecraft:cave_air"}))
	require.False(t, isAirLike(Block{Name: "minecraft:stone"}))
}

func TestBiomeClimateDefaultsToTemperate(t *testing.T) {
	c := Biome("minecraft:some_unlisted_biome").Climate()
	require.Equal(t, Climate{Temperature: 0.5, Rainfall: 0.5}, c)

	desert := Biome("minecraft:desert").Climate()
	require.Equal(t, 2.0, desert.Temperature)
}

func TestLegacyBiomeTranslatesKnownIds(t *testing.T) {
	require.Equal(t, Biome("minecraft:plains"), legacyBiome(1))
	require.Equal(t, UnknownBiome, legacyBiome(9999))
}

func TestResolveLegacyBlockKnownAndUnknown(t *testing.T) {
	b := resolveLegacyBlock(1, 0)
	require.Equal(t, "minecraft:stone", b.Name)

	unknown := resolveLegacyBlock(4000, 0)
	require.Equal(t, "minecraft:unknown_0x0fa0", unknown.Name)
}

func TestRegisterLegacyBlockInstallOnceSemantics(t *testing.T) {
	ok := RegisterLegacyBlock(200, 3, Block{Name: "minecraft:test_override", Properties: map[string]string{"variant": "x"}})
	require.True(t, ok)

	again := RegisterLegacyBlock(200, 3, Block{Name: "minecraft:different"})
	require.False(t, again)

	resolved := resolveLegacyBlock(200, 3)
	require.Equal(t, "minecraft:test_override", resolved.Name)
}

func TestExpandHeightmapDenseNoOffset(t *testing.T) {
	values := make([]uint32, 256)
	for i := range values {
		values[i] = uint32(64 + i%8)
	}
	packed := bits.Pack(values, 9, bits.Dense)

	out, err := ExpandHeightmap(packed, 0, 0)
	require.NoError(t, err)
	require.Len(t, out, 256)
	require.Equal(t, int(values[0]), out[0])
}

func TestExpandHeightmapPaddedWithOffsetOnlyAfterDataVersion(t *testing.T) {
	values := make([]uint32, 256)
	for i := range values {
		values[i] = uint32(100 + i%8)
	}
	packed := bits.Pack(values, 9, bits.Padded)

	noOffset, err := ExpandHeightmap(packed, -64, 2000)
	require.NoError(t, err)
	require.Equal(t, int(values[0]), noOffset[0])

	withOffset, err := ExpandHeightmap(packed, -64, 2700)
	require.NoError(t, err)
	require.Equal(t, int(values[0])-64, withOffset[0])
}

func TestExpandHeightmapLen43AlwaysOffsets(t *testing.T) {
	values := make([]uint32, 256)
	for i := range values {
		values[i] = uint32(200 + i%16)
	}
	packed := bits.Pack(values, 10, bits.Padded)
	require.Len(t, packed, 43)

	out, err := ExpandHeightmap(packed, -64, 3000)
	require.NoError(t, err)
	require.Equal(t, int(values[0])-64, out[0])
}

func TestExpandHeightmapRejectsUnknownLength(t *testing.T) {
	_, err := ExpandHeightmap(make([]int64, 5), 0, 0)
	require.Error(t, err)
}

func TestSectionTowerContiguousRangeAndLookup(t *testing.T) {
	tower := newSectionTower([]legacySection{
		{raw: legacySectionRaw{Y: 0}},
		{raw: legacySectionRaw{Y: 1}},
		{raw: legacySectionRaw{Y: 2}},
	})
	yMin, yMax := tower.yRange()
	require.Equal(t, 0, yMin)
	require.Equal(t, 48, yMax)

	sec, ok := tower.forY(20)
	require.True(t, ok)
	require.Equal(t, int8(1), sec.sectionY())

	_, ok = tower.forY(-1)
	require.False(t, ok)
}

func TestSectionTowerStripsTerminators(t *testing.T) {
	tower := newSectionTower([]intermediateSection{
		{raw: intermediateSectionRaw{Y: 0, Palette: []blockRaw{{Name: "minecraft:stone"}}}},
		{raw: intermediateSectionRaw{Y: 1}}, // terminator: no palette, no states
	})
	require.Len(t, tower.sections, 1)
}

func makeFlatLegacySection(y int8, blockID, data byte) legacySectionRaw {
	blocks := make(nbt.ByteArray, 4096)
	for i := range blocks {
		blocks[i] = blockID
	}
	datas := make(nbt.ByteArray, 2048)
	packedData := data&0xF | (data&0xF)<<4
	for i := range datas {
		datas[i] = packedData
	}
	return legacySectionRaw{Y: y, Blocks: blocks, Data: datas}
}

func TestDecodeLegacyChunkBlockAndBiome(t *testing.T) {
	biomes := make(nbt.ByteArray, 256)
	for i := range biomes {
		biomes[i] = 1 // plains
	}

	root := legacyRoot{
		Level: legacyLevel{
			XPos:   0,
			ZPos:   0,
			Biomes: biomes,
			Sections: []legacySectionRaw{
				makeFlatLegacySection(0, 1, 0), // all stone
				makeFlatLegacySection(1, 0, 0), // all air
			},
		},
	}
	data := mustMarshal(t, root)

	c, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, "full", c.Status())

	b, ok := c.Block(0, 0, 0)
	require.True(t, ok)
	require.Equal(t, "minecraft:stone", b.Name)

	top, ok := c.Block(0, 20, 0)
	require.True(t, ok)
	require.Equal(t, "minecraft:air", top.Name)

	bi, ok := c.Biome(0, 0, 0)
	require.True(t, ok)
	require.Equal(t, Biome("minecraft:plains"), bi)
}

func TestDecodeLegacyChunkSurfaceHeightCalculated(t *testing.T) {
	root := legacyRoot{
		Level: legacyLevel{
			Sections: []legacySectionRaw{
				makeFlatLegacySection(0, 1, 0), // stone floor
				makeFlatLegacySection(1, 0, 0), // air above
			},
		},
	}
	data := mustMarshal(t, root)

	c, err := Decode(data)
	require.NoError(t, err)
	h := c.SurfaceHeight(0, 0, Calculate)
	require.Equal(t, 16, h)
}

func TestDecodeLegacyChunkTrustsFlatHeightMap(t *testing.T) {
	heightMap := make(nbt.IntArray, 256)
	for i := range heightMap {
		heightMap[i] = 55
	}
	root := legacyRoot{
		Level: legacyLevel{
			HeightMap: heightMap,
			Sections: []legacySectionRaw{
				makeFlatLegacySection(0, 1, 0),
			},
		},
	}
	data := mustMarshal(t, root)

	c, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, 55, c.SurfaceHeight(0, 0, Trust))
}

func TestDecodeIntermediateChunkPalettedBlock(t *testing.T) {
	paletteIndices := make([]uint32, 4096)
	for i := range paletteIndices {
		if i < 256 {
			paletteIndices[i] = 0 // stone layer
		} else {
			paletteIndices[i] = 1 // air above
		}
	}
	k := bits.BitsPerBlock(2)
	packed := bits.Pack(paletteIndices, k, bits.Padded)

	root := intermediateRoot{
		DataVersion: 2230,
		Level: intermediateLevel{
			Status: "full",
			Sections: []intermediateSectionRaw{
				{
					Y: 0,
					Palette: []blockRaw{
						{Name: "minecraft:stone"},
						{Name: "minecraft:air"},
					},
					BlockStates: packed,
				},
			},
		},
	}
	data := mustMarshal(t, root)

	c, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, "full", c.Status())

	b, ok := c.Block(0, 0, 0)
	require.True(t, ok)
	require.Equal(t, "minecraft:stone", b.Name)

	top, ok := c.Block(0, 15, 0)
	require.True(t, ok)
	require.Equal(t, "minecraft:air", top.Name)
}

func TestDecodeIntermediateUniformSectionSkipsUnpack(t *testing.T) {
	root := intermediateRoot{
		DataVersion: 2230,
		Level: intermediateLevel{
			Status: "full",
			Sections: []intermediateSectionRaw{
				{Y: 0, Palette: []blockRaw{{Name: "minecraft:bedrock"}}},
			},
		},
	}
	data := mustMarshal(t, root)

	c, err := Decode(data)
	require.NoError(t, err)
	b, ok := c.Block(3, 3, 3)
	require.True(t, ok)
	require.Equal(t, "minecraft:bedrock", b.Name)
}

func TestDecodeModernChunkDualPalette(t *testing.T) {
	blockIdx := make([]uint32, 4096)
	for i := range blockIdx {
		if i < 256 {
			blockIdx[i] = 0
		} else {
			blockIdx[i] = 1
		}
	}
	blockData := bits.Pack(blockIdx, bits.BitsPerBlock(2), bits.Padded)

	root := modernRoot{
		DataVersion: 3200,
		Status:      "full",
		Sections: []modernSectionRaw{
			{
				Y: 0,
				BlockStates: &modernPaletted{
					Palette: []blockRaw{{Name: "minecraft:dirt"}, {Name: "minecraft:air"}},
					Data:    blockData,
				},
				BiomesPalette: &modernBiomePal{
					Palette: []string{"minecraft:plains"},
				},
			},
		},
	}
	data := mustMarshal(t, root)

	c, err := Decode(data)
	require.NoError(t, err)

	b, ok := c.Block(0, 0, 0)
	require.True(t, ok)
	require.Equal(t, "minecraft:dirt", b.Name)

	bi, ok := c.Biome(0, 0, 0)
	require.True(t, ok)
	require.Equal(t, Biome("minecraft:plains"), bi)
}

func TestDecodeModernSurfaceHeightTrustsStoredHeightmap(t *testing.T) {
	values := make([]uint32, 256)
	for i := range values {
		values[i] = uint32(70)
	}
	packed := bits.Pack(values, 9, bits.Padded) // len 37, DataVersion below 2695 -> no offset

	root := modernRoot{
		DataVersion: 2000,
		Status:      "full",
		Sections: []modernSectionRaw{
			{Y: 0, BlockStates: &modernPaletted{Palette: []blockRaw{{Name: "minecraft:stone"}}}},
		},
		Heightmaps: &modernHeightmaps{MotionBlocking: nbt.LongArray(packed)},
	}
	data := mustMarshal(t, root)

	c, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, 70, c.SurfaceHeight(0, 0, Trust))
}
