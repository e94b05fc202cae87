package anviligo

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oriumgames/anviligo/chunk"
	"github.com/oriumgames/anviligo/hostproto"
	"github.com/oriumgames/anviligo/nbt"
	"github.com/oriumgames/anviligo/palette"
	"github.com/oriumgames/anviligo/region"
)

// Local mirror of the modern-dialect NBT shape chunk.Decode expects; see
// render/render_test.go for the same pattern and its rationale.
type worldTestBlockRaw struct {
	Name string `nbt:"Name"`
}
type worldTestPaletted struct {
	Palette []worldTestBlockRaw `nbt:"palette,omitempty"`
	Data    nbt.LongArray       `nbt:"data,omitempty"`
}
type worldTestSection struct {
	Y           int8               `nbt:"Y"`
	BlockStates *worldTestPaletted `nbt:"block_states,omitempty"`
}
type worldTestModernRoot struct {
	DataVersion int32              `nbt:"DataVersion"`
	Status      string             `nbt:"Status,omitempty"`
	Sections    []worldTestSection `nbt:"sections,omitempty"`
}

func worldTestPalette() *palette.Palette {
	ramp := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	return palette.New(map[string]palette.RGBA{
		"minecraft:stone|": {R: 100, G: 100, B: 100, A: 255},
	}, ramp, ramp)
}

func flatStoneChunkBytes(t *testing.T) []byte {
	t.Helper()
	root := worldTestModernRoot{
		DataVersion: 3200,
		Status:      "full",
		Sections: []worldTestSection{
			{Y: 0, BlockStates: &worldTestPaletted{Palette: []worldTestBlockRaw{{Name: "minecraft:stone"}}}},
			{Y: -1, BlockStates: &worldTestPaletted{Palette: []worldTestBlockRaw{{Name: "minecraft:stone"}}}},
		},
	}
	data, err := nbt.Marshal(root, "", nbt.FileDialect)
	require.NoError(t, err)
	return data
}

// writeRegionFile creates worldDir/<sub>/r.<rx>.<rz>.mca, optionally writing
// one chunk at (0, 0) when withChunk is true.
func writeRegionFile(t *testing.T, worldDir, sub string, rx, rz int, withChunk bool) {
	t.Helper()
	dir := filepath.Join(worldDir, sub)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, fmt.Sprintf("r.%d.%d.mca", rx, rz))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	store, err := region.Empty(f)
	require.NoError(t, err)
	if withChunk {
		require.NoError(t, store.WriteChunk(0, 0, flatStoneChunkBytes(t)))
	}
}

func testOptions(worldDir string) Options {
	return Options{
		WorldDir:   worldDir,
		HeightMode: chunk.Calculate,
		Palette:    worldTestPalette(),
		Workers:    2,
	}
}

func TestHandleTileRendersExistingRegion(t *testing.T) {
	dir := t.TempDir()
	writeRegionFile(t, dir, "region", 0, 0, true)

	w := NewWorld(testOptions(dir))
	req := hostproto.NewTileRequest("1", 0, 0, hostproto.Overworld, dir, hostproto.HeightCalculate)

	reply := w.HandleTile(context.Background(), req)
	require.Equal(t, "render", reply.Kind())

	render, ok := reply.(hostproto.TileRender)
	require.True(t, ok)
	raw, err := base64.StdEncoding.DecodeString(render.ImageData)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, 512, img.Bounds().Dx())
	require.Equal(t, 512, img.Bounds().Dy())
}

func TestHandleTileReturnsMissingWhenRegionFileAbsent(t *testing.T) {
	dir := t.TempDir()
	w := NewWorld(testOptions(dir))
	req := hostproto.NewTileRequest("2", 5, 5, hostproto.Overworld, dir, hostproto.HeightTrust)

	reply := w.HandleTile(context.Background(), req)
	require.Equal(t, "missing", reply.Kind())
}

func TestHandleTileReturnsMissingWhenRegionFileHasNoChunks(t *testing.T) {
	dir := t.TempDir()
	writeRegionFile(t, dir, "region", 0, 0, false)

	w := NewWorld(testOptions(dir))
	req := hostproto.NewTileRequest("3", 0, 0, hostproto.Overworld, dir, hostproto.HeightTrust)

	reply := w.HandleTile(context.Background(), req)
	require.Equal(t, "missing", reply.Kind())
}

func TestHandleTileReturnsErrorOnUnknownDimension(t *testing.T) {
	dir := t.TempDir()
	w := NewWorld(testOptions(dir))
	req := hostproto.NewTileRequest("4", 0, 0, hostproto.Dimension("moon"), dir, hostproto.HeightTrust)

	reply := w.HandleTile(context.Background(), req)
	require.Equal(t, "error", reply.Kind())
	tileErr, ok := reply.(hostproto.TileError)
	require.True(t, ok)
	require.NotEmpty(t, tileErr.Message)
}

func TestHandleTileUsesDimensionSubPath(t *testing.T) {
	dir := t.TempDir()
	writeRegionFile(t, dir, "DIM-1/region", 0, 0, true)

	w := NewWorld(testOptions(dir))
	req := hostproto.NewTileRequest("5", 0, 0, hostproto.Nether, dir, hostproto.HeightCalculate)

	reply := w.HandleTile(context.Background(), req)
	require.Equal(t, "render", reply.Kind())
}

func TestHandleTilesProcessesBatchAndPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	writeRegionFile(t, dir, "region", 0, 0, true)

	w := NewWorld(testOptions(dir))
	reqs := []hostproto.TileRequest{
		hostproto.NewTileRequest("a", 0, 0, hostproto.Overworld, dir, hostproto.HeightCalculate),
		hostproto.NewTileRequest("b", 9, 9, hostproto.Overworld, dir, hostproto.HeightCalculate),
	}

	replies := w.HandleTiles(context.Background(), reqs)
	require.Len(t, replies, 2)
	require.Equal(t, "render", replies[0].Kind())
	require.Equal(t, "missing", replies[1].Kind())
}
