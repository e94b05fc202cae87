// Package render rasterizes a decoded Anvil region into a top-down colour
// grid, the way fastanvil/src/render.rs's RegionBlockDrawer and the Tauri
// app's render_tile command do together: one Renderer per render, one
// RegionMap of results, invalid chunks drawn as a red cross instead of
// aborting the whole region.
package render

import (
	"image"

	"github.com/oriumgames/anviligo/palette"
)

const (
	// RegionChunks is the number of chunks along one side of a region file.
	RegionChunks = 32
	// ChunkSize is the number of block columns along one side of a chunk.
	ChunkSize = 16
	// RegionPixels is the rasterized tile's side length in pixels: one
	// pixel per block column (spec.md §8.3 S6: "dimensions are 512x512").
	RegionPixels = RegionChunks * ChunkSize
)

// RegionMap is a flat 512x512 grid of colours, one per block column in the
// region, stored row-major by global pixel: the column at local (x, z) of
// chunk (xc, zc) sits at index (zc*16+z)*512 + xc*16+x (see pixelIndex).
type RegionMap struct {
	data       []palette.RGBA
	rx, rz     int
	invalid    []bool
	haveHeight []bool
	heights    []int
	chunksRead int
}

// NewRegionMap allocates an empty (fully transparent) map for region
// (rx, rz).
func NewRegionMap(rx, rz int) *RegionMap {
	n := RegionPixels * RegionPixels
	return &RegionMap{
		data:       make([]palette.RGBA, n),
		rx:         rx,
		rz:         rz,
		invalid:    make([]bool, n),
		haveHeight: make([]bool, n),
		heights:    make([]int, n),
	}
}

func (m *RegionMap) RX() int { return m.rx }
func (m *RegionMap) RZ() int { return m.rz }

// ChunksRead reports how many chunk slots actually held data, decodable or
// not. A region file that opens cleanly but whose every slot is empty (no
// chunk has ever been generated there) reports zero, which callers use to
// tell "empty region" apart from "region holds at least one chunk" (§6.3:
// the host-facing Missing reply covers both an absent region file and a
// present-but-empty one).
func (m *RegionMap) ChunksRead() int { return m.chunksRead }

func pixelIndex(xc, zc, x, z int) int {
	px := xc*ChunkSize + x
	pz := zc*ChunkSize + z
	return pz*RegionPixels + px
}

func (m *RegionMap) setColumn(xc, zc, x, z int, c palette.RGBA, height int) {
	i := pixelIndex(xc, zc, x, z)
	m.data[i] = c
	m.heights[i] = height
	m.haveHeight[i] = true
}

func (m *RegionMap) markInvalidChunk(xc, zc int) {
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			i := pixelIndex(xc, zc, x, z)
			m.invalid[i] = true
			// Red diagonal cross, matching fastanvil's draw_invalid: lit
			// within 3 columns of either diagonal, transparent elsewhere.
			if abs(x-z) < 3 || abs(x-(ChunkSize-z)) < 3 {
				m.data[i] = palette.RGBA{R: 255, A: 255}
			} else {
				m.data[i] = palette.RGBA{}
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ToImage rasterizes the map into a 512x512 image ready for PNG encoding.
func (m *RegionMap) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, RegionPixels, RegionPixels))
	for z := 0; z < RegionPixels; z++ {
		for x := 0; x < RegionPixels; x++ {
			c := m.data[z*RegionPixels+x]
			img.SetNRGBA(x, z, c.ToColor())
		}
	}
	return img
}
