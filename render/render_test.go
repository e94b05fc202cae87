package render

import (
	"bytes"
	"context"
	"image"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oriumgames/anviligo/chunk"
	"github.com/oriumgames/anviligo/nbt"
	"github.com/oriumgames/anviligo/palette"
	"github.com/oriumgames/anviligo/region"
)

// memStream is a minimal in-memory io.ReadWriteSeeker, matching the one in
// region/region_test.go but kept package-local since that one is unexported.
type memStream struct {
	buf []byte
	pos int64
}

func (m *memStream) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memStream) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memStream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = m.pos
	case io.SeekEnd:
		base = int64(len(m.buf))
	}
	m.pos = base + offset
	return m.pos, nil
}

// Local mirrors of the modern-dialect NBT shape chunk.Decode expects;
// chunk's own root types are unexported, but the wire format only cares
// about struct tags, so any struct with matching tags marshals identically.
type testBlockRaw struct {
	Name string `nbt:"Name"`
}
type testPaletted struct {
	Palette []testBlockRaw `nbt:"palette,omitempty"`
	Data    nbt.LongArray  `nbt:"data,omitempty"`
}
type testSection struct {
	Y           int8          `nbt:"Y"`
	BlockStates *testPaletted `nbt:"block_states,omitempty"`
}
type testModernRoot struct {
	DataVersion int32         `nbt:"DataVersion"`
	Status      string        `nbt:"Status,omitempty"`
	Sections    []testSection `nbt:"sections,omitempty"`
}

func flatStoneChunk(t *testing.T) []byte {
	t.Helper()
	root := testModernRoot{
		DataVersion: 3200,
		Status:      "full",
		Sections: []testSection{
			{Y: 0, BlockStates: &testPaletted{Palette: []testBlockRaw{{Name: "minecraft:stone"}}}},
			{Y: -1, BlockStates: &testPaletted{Palette: []testBlockRaw{{Name: "minecraft:stone"}}}},
		},
	}
	data, err := nbt.Marshal(root, "", nbt.FileDialect)
	require.NoError(t, err)
	return data
}

func buildStoreWithOneChunk(t *testing.T) *region.Store {
	t.Helper()
	stream := &memStream{}
	store, err := region.Empty(stream)
	require.NoError(t, err)
	require.NoError(t, store.WriteChunk(0, 0, flatStoneChunk(t)))
	return store
}

func testPalette() *palette.Palette {
	ramp := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	return palette.New(map[string]palette.RGBA{
		"minecraft:stone|": {R: 128, G: 128, B: 128, A: 255},
	}, ramp, ramp)
}

func TestRenderRegionDrawsGeneratedChunk(t *testing.T) {
	store := buildStoreWithOneChunk(t)
	r := &Renderer{Palette: testPalette(), HeightMode: chunk.Calculate}

	m, err := r.RenderRegion(context.Background(), 0, 0, store)
	require.NoError(t, err)
	require.Equal(t, 0, m.RX())
	require.Equal(t, 0, m.RZ())

	img := m.ToImage()
	require.Equal(t, RegionPixels, img.Bounds().Dx())
	require.Equal(t, RegionPixels, img.Bounds().Dy())

	c := img.NRGBAAt(0, 0)
	require.Equal(t, uint8(128), c.R)
	require.Equal(t, uint8(255), c.A)
}

func TestRenderRegionLeavesUngeneratedChunkTransparent(t *testing.T) {
	store := buildStoreWithOneChunk(t)
	r := &Renderer{Palette: testPalette(), HeightMode: chunk.Calculate}

	m, err := r.RenderRegion(context.Background(), 0, 0, store)
	require.NoError(t, err)

	img := m.ToImage()
	c := img.NRGBAAt(500, 500) // chunk (31, 31), never written
	require.Equal(t, uint8(0), c.A)
}

func TestRenderRegionMarksUndecodableChunkWithRedCross(t *testing.T) {
	stream := &memStream{}
	store, err := region.Empty(stream)
	require.NoError(t, err)
	require.NoError(t, store.WriteChunk(1, 0, bytes.Repeat([]byte{0xFF}, 16))) // garbage, not valid NBT

	r := &Renderer{Palette: testPalette(), HeightMode: chunk.Calculate}
	m, err := r.RenderRegion(context.Background(), 0, 0, store)
	require.NoError(t, err)

	img := m.ToImage()
	// Chunk (1, 0) occupies pixels x in [16, 32), z in [0, 16); the diagonal
	// centre of its cross sits at local (x=8, z=8) -> global (24, 8).
	c := img.NRGBAAt(24, 8)
	require.Equal(t, uint8(255), c.R)
	require.Equal(t, uint8(255), c.A)
}

func TestRenderRegionRespectsCancellation(t *testing.T) {
	store := buildStoreWithOneChunk(t)
	r := &Renderer{Palette: testPalette(), HeightMode: chunk.Calculate}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RenderRegion(ctx, 0, 0, store)
	require.Error(t, err)
}

func TestTopShadeLightensTallerColumnRelativeToNorthNeighbour(t *testing.T) {
	stream := &memStream{}
	store, err := region.Empty(stream)
	require.NoError(t, err)

	// Chunk (0,0) is short (single section at y in [-16, 0), surface height
	// 0); chunk (0,1) is the standard two-section flat-stone fixture
	// (surface height 16). Chunk (0,1)'s north-edge row (local z=0, global
	// z=16) borders chunk (0,0)'s south-edge row (local z=15, global z=15)
	// and is taller, so it should come out lightened.
	short := testModernRoot{
		DataVersion: 3200,
		Status:      "full",
		Sections: []testSection{
			{Y: -1, BlockStates: &testPaletted{Palette: []testBlockRaw{{Name: "minecraft:stone"}}}},
		},
	}
	data, err := nbt.Marshal(short, "", nbt.FileDialect)
	require.NoError(t, err)
	require.NoError(t, store.WriteChunk(0, 0, data))
	require.NoError(t, store.WriteChunk(0, 1, flatStoneChunk(t)))

	pal := testPalette()
	unshaded := &Renderer{Palette: pal, HeightMode: chunk.Calculate}
	shaded := &Renderer{Palette: pal, HeightMode: chunk.Calculate, Shade: true}

	mUnshaded, err := unshaded.RenderRegion(context.Background(), 0, 0, store)
	require.NoError(t, err)
	mShaded, err := shaded.RenderRegion(context.Background(), 0, 0, store)
	require.NoError(t, err)

	baseline := mUnshaded.ToImage().NRGBAAt(0, 16)
	lit := mShaded.ToImage().NRGBAAt(0, 16)
	require.Greater(t, lit.R, baseline.R)
}

func TestPoolSubmitRendersConcurrently(t *testing.T) {
	store := buildStoreWithOneChunk(t)
	pool := NewPool(&Renderer{Palette: testPalette(), HeightMode: chunk.Calculate}, 2)

	reply := pool.Submit(context.Background(), Request{RX: 0, RZ: 0, Store: store})
	result := <-reply
	require.NoError(t, result.Err)
	require.NotNil(t, result.Map)
}
