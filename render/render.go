package render

import (
	"context"

	"github.com/oriumgames/anviligo/anvilerr"
	"github.com/oriumgames/anviligo/chunk"
	"github.com/oriumgames/anviligo/palette"
	"github.com/oriumgames/anviligo/region"
)

// statusDrawn mirrors fastanvil/src/render.rs's RegionBlockDrawer::draw
// guard: only chunks that have finished generating render predictably.
var statusDrawn = map[string]bool{"full": true, "spawn": true}

// Renderer draws a single region into a RegionMap. It holds no per-render
// mutable state beyond the call stack, so one Renderer value is safely
// reused (or shared by reference, per spec.md §5) across concurrent
// RenderRegion calls against different stores.
type Renderer struct {
	Palette    *palette.Palette
	HeightMode chunk.HeightMode

	// Shade enables the optional top-shade pass (spec.md §4.5, explicitly
	// optional): a column is lightened or darkened relative to its north
	// neighbour's surface height to give the flat top-down render a sense
	// of relief. Off by default, so the default render path stays
	// byte-for-byte deterministic (§8.1 Invariant 8) whether or not some
	// other caller in the process has it enabled.
	Shade bool
}

// RenderRegion reads every chunk slot of store and rasterizes it into a new
// RegionMap. Suspension points are coarse (per §5): opening the region file
// is the caller's job, one ReadChunk per chunk slot, nothing finer.
// Cancellation is cooperative — ctx is checked before each chunk — so a
// caller can abort a slow render by cancelling ctx without corrupting the
// in-progress map (the caller simply discards it, per §5).
func (r *Renderer) RenderRegion(ctx context.Context, rx, rz int, store *region.Store) (*RegionMap, error) {
	const op = "render.RenderRegion"

	m := NewRegionMap(rx, rz)
	for zc := 0; zc < RegionChunks; zc++ {
		for xc := 0; xc < RegionChunks; xc++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}

			raw, err := store.ReadChunk(xc, zc)
			if err != nil {
				if anvilerr.Is(err, anvilerr.ChunkNotFound) {
					continue // ungenerated slot: leave transparent
				}
				return nil, anvilerr.New(anvilerr.IoError, op, err)
			}
			m.chunksRead++

			c, err := chunk.Decode(raw)
			if err != nil {
				m.markInvalidChunk(xc, zc)
				continue
			}
			if !statusDrawn[c.Status()] {
				continue
			}

			r.drawChunk(m, xc, zc, c)
		}
	}

	if r.Shade {
		applyTopShade(m)
	}
	return m, nil
}

func (r *Renderer) drawChunk(m *RegionMap, xc, zc int, c chunk.Chunk) {
	yMin, _ := c.YRange()
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			height := c.SurfaceHeight(x, z, r.HeightMode)
			sampleY := height - 1
			if sampleY < yMin {
				sampleY = yMin
			}

			block, ok := c.Block(x, sampleY, z)
			if !ok {
				m.setColumn(xc, zc, x, z, palette.RGBA{}, height)
				continue
			}
			biome, _ := c.Biome(x, sampleY, z)
			colour := r.Palette.Pick(block, biome)
			m.setColumn(xc, zc, x, z, colour, height)
		}
	}
}

// applyTopShade darkens columns shorter than their north neighbour and
// lightens columns taller than it, leaving the region's north edge (and any
// invalid or height-less pixel) untouched. Operating over the fully
// populated heights array rather than during the per-chunk draw pass keeps
// the result independent of chunk processing order (§5's ordering
// requirement).
func applyTopShade(m *RegionMap) {
	const lighten = 1.08
	const darken = 0.92

	for z := RegionPixels - 1; z > 0; z-- {
		for x := 0; x < RegionPixels; x++ {
			i := z*RegionPixels + x
			north := i - RegionPixels
			if m.invalid[i] || !m.haveHeight[i] || !m.haveHeight[north] {
				continue
			}

			factor := 1.0
			switch {
			case m.heights[i] > m.heights[north]:
				factor = lighten
			case m.heights[i] < m.heights[north]:
				factor = darken
			default:
				continue
			}
			m.data[i] = scaleRGB(m.data[i], factor)
		}
	}
}

func scaleRGB(c palette.RGBA, factor float64) palette.RGBA {
	return palette.RGBA{
		R: scaleChannel(c.R, factor),
		G: scaleChannel(c.G, factor),
		B: scaleChannel(c.B, factor),
		A: c.A,
	}
}

func scaleChannel(v uint8, factor float64) uint8 {
	scaled := float64(v) * factor
	switch {
	case scaled < 0:
		return 0
	case scaled > 255:
		return 255
	default:
		return uint8(scaled)
	}
}
