// Package palette resolves a decoded block (plus its biome) to an RGBA
// colour for the renderer, backed by a loadable blockstate table and a pair
// of grass/foliage colour ramps.
//
// Grounded on original_source/fastanvil/src/rendered_palette.rs's
// RenderedPalette/Palette::pick: the same special-case table, the same
// water-colour-by-biome switch, the same blockstate-then-bare-id-then-magenta
// fallback chain.
package palette

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/oriumgames/anviligo/chunk"
)

// RGBA is an 8-bit-per-channel colour, matching the 4-element array the
// blockstates.json member of a palette archive carries per block (§4.6).
type RGBA struct {
	R, G, B, A uint8
}

var (
	missingColor = RGBA{255, 0, 255, 255}
	airColor     = RGBA{0, 0, 0, 255}
	birchLeaves  = RGBA{0x80, 0xA7, 0x55, 255}
	spruceLeaves = RGBA{0x61, 0x99, 0x61, 255}
	defaultWater = RGBA{0x3F, 0x76, 0xE4, 255}
)

// waterColors maps the biomes with a distinct water tint to their RGB;
// every other biome (including UnknownBiome) falls through to defaultWater
// (spec.md §4.6's water colour table).
var waterColors = map[chunk.Biome]RGBA{
	"minecraft:swamp":          {0x61, 0x7B, 0x64, 255},
	"minecraft:river":          defaultWater,
	"minecraft:ocean":          defaultWater,
	"minecraft:lukewarm_ocean": {0x45, 0xAD, 0xF2, 255},
	"minecraft:warm_ocean":     {0x43, 0xD5, 0xEE, 255},
	"minecraft:cold_ocean":     {0x3D, 0x57, 0xD6, 255},
	"minecraft:frozen_river":   {0x39, 0x38, 0xC9, 255},
	"minecraft:frozen_ocean":   {0x39, 0x38, 0xC9, 255},
}

// snowBlock is the synthetic substitute looked up whenever a snowy
// grass_block or a snow block needs a blockstate-table colour (spec.md §4.6:
// "grass_block ... else resolve as snow_block", "snow ... as snow_block").
var snowBlock = chunk.Block{Name: "minecraft:snow_block"}

// Palette is an immutable, concurrency-safe colour source: once loaded it is
// read-only, matching §5's "immutable after load; freely shared by
// reference" requirement — Pick takes no lock.
type Palette struct {
	blockstates map[string]RGBA
	grass       *image.NRGBA
	foliage     *image.NRGBA
}

// New builds a Palette directly from already-decoded components, primarily
// for tests; production callers use Load.
func New(blockstates map[string]RGBA, grass, foliage *image.NRGBA) *Palette {
	return &Palette{blockstates: blockstates, grass: grass, foliage: foliage}
}

// Pick resolves the colour for block in biome, applying the special cases
// of spec.md §4.6 before falling back to the blockstate table.
func (p *Palette) Pick(block chunk.Block, biome chunk.Biome) RGBA {
	name, ok := strings.CutPrefix(block.Name, "minecraft:")
	if ok {
		switch name {
		case "grass", "tall_grass", "fern", "large_fern", "vine":
			return p.pickGrass(biome)
		case "grass_block":
			if block.Properties["snowy"] == "true" {
				return p.Pick(snowBlock, biome)
			}
			return p.pickGrass(biome)
		case "water", "bubble_column", "kelp", "kelp_plant", "seagrass", "tall_seagrass":
			return p.pickWater(biome)
		case "oak_leaves", "jungle_leaves", "acacia_leaves", "dark_oak_leaves", "mangrove_leaves":
			return p.pickFoliage(biome)
		case "birch_leaves":
			return birchLeaves
		case "spruce_leaves":
			return spruceLeaves
		case "snow":
			return p.Pick(snowBlock, biome)
		case "air", "cave_air":
			return airColor
		}
	}

	if c, ok := p.blockstates[block.EncodedDescription()]; ok {
		return c
	}
	if c, ok := p.blockstates[block.Name+"|"]; ok {
		return c
	}
	if c, ok := p.blockstates[block.Name]; ok {
		return c
	}
	return missingColor
}

// rampCoords turns a biome's climate into the (x, y) pixel coordinate of its
// grass/foliage ramp sample, per spec.md §4.6: t = temperature, r =
// rainfall*temperature, both clamped to [0, 1], indexed at
// (255 - round(t*255), 255 - round(r*255)).
func rampCoords(biome chunk.Biome) (x, y int) {
	climate := biome.Climate()
	t := clamp01(climate.Temperature)
	r := clamp01(climate.Rainfall) * t

	x = 255 - int(math.Round(t*255))
	y = 255 - int(math.Round(r*255))
	return x, y
}

func (p *Palette) pickGrass(biome chunk.Biome) RGBA {
	x, y := rampCoords(biome)
	return sampleRamp(p.grass, x, y)
}

func (p *Palette) pickFoliage(biome chunk.Biome) RGBA {
	x, y := rampCoords(biome)
	return sampleRamp(p.foliage, x, y)
}

func (p *Palette) pickWater(biome chunk.Biome) RGBA {
	if c, ok := waterColors[biome]; ok {
		return c
	}
	return defaultWater
}

func sampleRamp(ramp *image.NRGBA, x, y int) RGBA {
	if ramp == nil {
		return missingColor
	}
	b := ramp.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return missingColor
	}
	c := ramp.NRGBAAt(x, y)
	return RGBA{c.R, c.G, c.B, c.A}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// ToColor converts an RGBA to the stdlib image/color.NRGBA draw's raster
// uses, used by render.Renderer when compositing onto the tile image.
func (c RGBA) ToColor() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}
