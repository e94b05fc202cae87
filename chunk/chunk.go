// Package chunk decodes the three Java-edition chunk NBT dialects this
// project needs to support (legacy numeric-id, intermediate per-section
// palette, and modern dual-palette) behind one Chunk interface.
//
// Grounded on original_source/fastanvil/src/java/{pre13,pre18,chunk,mod}.rs:
// each Rust file there is one dialect's Deserialize struct plus a Chunk impl;
// this file folds all three into one package using a shared sectionTower and
// a dialect-dispatching Decode entry point (spec.md §4.4).
package chunk

import (
	"sync"

	"github.com/oriumgames/anviligo/anvilerr"
	"github.com/oriumgames/anviligo/bits"
	"github.com/oriumgames/anviligo/nbt"
)

// HeightMode selects whether SurfaceHeight trusts the stored motion-blocking
// heightmap or always recomputes it by scanning blocks (spec.md §4.4.5).
type HeightMode int

const (
	Trust HeightMode = iota
	Calculate
)

// Chunk is the per-dialect-agnostic view a renderer queries (spec.md §4.4).
type Chunk interface {
	Status() string
	YRange() (min, max int)
	Block(x, y, z int) (Block, bool)
	Biome(x, y, z int) (Biome, bool)
	SurfaceHeight(x, z int, mode HeightMode) int
}

// Decode inspects the root compound of already-decompressed chunk NBT and
// dispatches to the matching dialect decoder (spec.md §4.4.7): modern worlds
// carry a flattened root with "sections"; intermediate and legacy worlds
// nest everything under "Level", distinguished by whether "Level.Sections"
// entries carry a numeric "Y"+"Blocks" pair (legacy) or a "Palette" (1.13+).
func Decode(data []byte) (Chunk, error) {
	const op = "chunk.Decode"

	_, root, err := nbt.DecodeValue(nbt.NewSliceInput(data), nbt.FileDialect)
	if err != nil {
		return nil, err
	}

	if _, ok := root["sections"]; ok {
		return decodeModern(data)
	}

	level, ok := root["Level"].(nbt.Compound)
	if !ok {
		return nil, anvilerr.Newf(anvilerr.InvalidChunkMeta, op, "chunk root has neither sections nor Level")
	}

	sections, _ := level["Sections"].(nbt.List)
	for _, item := range sections.Items {
		sec, ok := item.(nbt.Compound)
		if !ok {
			continue
		}
		if _, hasPalette := sec["Palette"]; hasPalette {
			return decodeIntermediate(data)
		}
		if _, hasBlocks := sec["Blocks"]; hasBlocks {
			return decodeLegacy(data)
		}
	}
	// Empty/ungenerated chunk: no sections to disambiguate on. Treat as
	// whichever dialect matches the presence of DataVersion, since legacy
	// (pre-1.9) worlds never carry one.
	if _, hasVersion := root["DataVersion"]; hasVersion {
		return decodeIntermediate(data)
	}
	return decodeLegacy(data)
}

// lazyHeightmap is the single-initializer, RWMutex-guarded per-chunk height
// cache required by spec.md §5, mirroring the RefCell<Option<[i16; 256]>>
// fields threaded through every dialect in original_source/fastanvil.
type lazyHeightmap struct {
	mu       sync.RWMutex
	computed bool
	values   [256]int
}

func (c *lazyHeightmap) get(compute func() [256]int) [256]int {
	c.mu.RLock()
	if c.computed {
		v := c.values
		c.mu.RUnlock()
		return v
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.computed {
		c.values = compute()
		c.computed = true
	}
	return c.values
}

// calculateHeightmap scans every column from the top of the tower down,
// stopping at the first non-air block (spec.md §4.4.5's fallback rule and
// every dialect's recalculate_heightmap).
func calculateHeightmap(yMin, yMax int, blockAt func(x, y, z int) (Block, bool)) [256]int {
	var out [256]int
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			h := yMin
			for y := yMax; y > yMin; y-- {
				b, ok := blockAt(x, y-1, z)
				if ok && !isAirLike(b) {
					h = y
					break
				}
			}
			out[z*16+x] = h
		}
	}
	return out
}

// ---- legacy dialect (pre-1.13) ----

type legacyRoot struct {
	DataVersion *int32      `nbt:"DataVersion,omitempty"`
	Level       legacyLevel `nbt:"Level"`
}

type legacyLevel struct {
	XPos      int32              `nbt:"xPos"`
	ZPos      int32              `nbt:"zPos"`
	Biomes    nbt.ByteArray      `nbt:"Biomes,omitempty"`
	Sections  []legacySectionRaw `nbt:"Sections,omitempty"`
	HeightMap nbt.IntArray       `nbt:"HeightMap,omitempty"`
}

type legacySectionRaw struct {
	Y      int8          `nbt:"Y"`
	Blocks nbt.ByteArray  `nbt:"Blocks"`
	Add    nbt.ByteArray  `nbt:"Add,omitempty"`
	Data   nbt.ByteArray  `nbt:"Data"`
}

type legacySection struct {
	raw legacySectionRaw
}

func (s legacySection) sectionY() int8    { return s.raw.Y }
func (s legacySection) isTerminator() bool { return false }

func (s legacySection) blockAt(x, secY, z int) Block {
	idx := (secY << 8) + (z << 4) + x
	blockID := int(uint8(s.raw.Blocks[idx]))
	if len(s.raw.Add) > 0 {
		nibble := uint8(s.raw.Add[idx/2])
		if idx%2 == 0 {
			nibble &= 0x0F
		} else {
			nibble = (nibble & 0xF0) >> 4
		}
		blockID += int(nibble) << 8
	}

	dataNibble := uint8(s.raw.Data[idx/2])
	if idx%2 == 0 {
		dataNibble &= 0x0F
	} else {
		dataNibble = (dataNibble & 0xF0) >> 4
	}
	return resolveLegacyBlock(blockID, dataNibble)
}

type legacyChunk struct {
	biomes     nbt.ByteArray
	heightMap  nbt.IntArray
	tower      *sectionTower[legacySection]
	yMin, yMax int

	heights lazyHeightmap
}

func decodeLegacy(data []byte) (Chunk, error) {
	var root legacyRoot
	if err := nbt.Unmarshal(data, &root, nbt.FileDialect, nbt.Options{}); err != nil {
		return nil, err
	}

	wrapped := make([]legacySection, len(root.Level.Sections))
	for i, s := range root.Level.Sections {
		wrapped[i] = legacySection{raw: s}
	}
	tower := newSectionTower(wrapped)
	yMin, yMax := tower.yRange()

	return &legacyChunk{
		biomes:    root.Level.Biomes,
		heightMap: root.Level.HeightMap,
		tower:     tower,
		yMin:      yMin,
		yMax:      yMax,
	}, nil
}

func (c *legacyChunk) Status() string { return "full" }

func (c *legacyChunk) YRange() (int, int) { return c.yMin, c.yMax }

func (c *legacyChunk) Block(x, y, z int) (Block, bool) {
	sec, ok := c.tower.forY(y)
	if !ok {
		return Block{}, false
	}
	secY := y - int(sec.sectionY())*16
	return sec.blockAt(x, secY, z), true
}

func (c *legacyChunk) Biome(x, _y, z int) (Biome, bool) {
	if len(c.biomes) != 256 {
		return UnknownBiome, false
	}
	i := z*16 + x
	return legacyBiome(int32(int8(c.biomes[i]))), true
}

func (c *legacyChunk) SurfaceHeight(x, z int, mode HeightMode) int {
	vals := c.heights.get(func() [256]int {
		if mode == Trust && len(c.heightMap) == 256 {
			var arr [256]int
			for i, h := range c.heightMap {
				arr[i] = int(h)
			}
			return arr
		}
		return calculateHeightmap(c.yMin, c.yMax, c.Block)
	})
	return vals[z*16+x]
}

// ---- intermediate dialect (1.13-1.17) ----

type intermediateRoot struct {
	DataVersion int32               `nbt:"DataVersion"`
	Level       intermediateLevel   `nbt:"Level"`
}

type intermediateLevel struct {
	XPos       int32                      `nbt:"xPos"`
	ZPos       int32                      `nbt:"zPos"`
	Biomes     nbt.IntArray               `nbt:"Biomes,omitempty"`
	Sections   []intermediateSectionRaw   `nbt:"Sections,omitempty"`
	Heightmaps *intermediateHeightmapsRaw `nbt:"Heightmaps,omitempty"`
	Status     string                     `nbt:"Status,omitempty"`
}

type intermediateHeightmapsRaw struct {
	MotionBlocking nbt.LongArray `nbt:"MOTION_BLOCKING,omitempty"`
}

type intermediateSectionRaw struct {
	Y           int8          `nbt:"Y"`
	Palette     []blockRaw    `nbt:"Palette,omitempty"`
	BlockStates nbt.LongArray `nbt:"BlockStates,omitempty"`
}

type blockRaw struct {
	Name       string            `nbt:"Name"`
	Properties map[string]string `nbt:"Properties,omitempty"`
}

func (b blockRaw) toBlock() Block {
	return Block{Name: b.Name, Properties: b.Properties}
}

type intermediateSection struct {
	raw     intermediateSectionRaw
	palette []Block
}

func (s intermediateSection) sectionY() int8 { return s.raw.Y }
func (s intermediateSection) isTerminator() bool {
	return len(s.raw.Palette) == 0 && len(s.raw.BlockStates) == 0
}

func (s intermediateSection) blockAt(x, secY, z int) (Block, error) {
	if len(s.palette) == 0 {
		return AIR, nil
	}
	if len(s.palette) == 1 {
		return s.palette[0], nil
	}

	k := bits.BitsPerBlock(len(s.palette))
	mode := bits.DetectMode(len(s.raw.BlockStates), 4096, k)
	idx := (secY << 8) + (z << 4) + x

	values, err := bits.Unpack(s.raw.BlockStates, k, 4096, mode)
	if err != nil {
		return Block{}, err
	}
	pi := int(values[idx])
	if pi >= len(s.palette) {
		return Block{}, anvilerr.Newf(anvilerr.PaletteLookupMiss, "chunk.intermediateSection.blockAt", "palette index %d out of range (len %d)", pi, len(s.palette))
	}
	return s.palette[pi], nil
}

type intermediateChunk struct {
	dataVersion int32
	biomes      nbt.IntArray
	status      string
	heightmaps  *intermediateHeightmapsRaw
	tower       *sectionTower[intermediateSection]
	yMin, yMax  int

	heights lazyHeightmap
}

func decodeIntermediate(data []byte) (Chunk, error) {
	var root intermediateRoot
	if err := nbt.Unmarshal(data, &root, nbt.FileDialect, nbt.Options{}); err != nil {
		return nil, err
	}

	wrapped := make([]intermediateSection, len(root.Level.Sections))
	for i, s := range root.Level.Sections {
		palette := make([]Block, len(s.Palette))
		for j, b := range s.Palette {
			palette[j] = b.toBlock()
		}
		wrapped[i] = intermediateSection{raw: s, palette: palette}
	}
	tower := newSectionTower(wrapped)
	yMin, yMax := tower.yRange()

	return &intermediateChunk{
		dataVersion: root.DataVersion,
		biomes:      root.Level.Biomes,
		status:      root.Level.Status,
		heightmaps:  root.Level.Heightmaps,
		tower:       tower,
		yMin:        yMin,
		yMax:        yMax,
	}, nil
}

func (c *intermediateChunk) Status() string { return c.status }

func (c *intermediateChunk) YRange() (int, int) { return c.yMin, c.yMax }

func (c *intermediateChunk) Block(x, y, z int) (Block, bool) {
	sec, ok := c.tower.forY(y)
	if !ok {
		return Block{}, false
	}
	secY := y - int(sec.sectionY())*16
	b, err := sec.blockAt(x, secY, z)
	if err != nil {
		return Block{}, false
	}
	return b, true
}

func (c *intermediateChunk) Biome(x, y, z int) (Biome, bool) {
	switch len(c.biomes) {
	case 256: // 1.15: flat x/z column
		return legacyBiome(c.biomes[z*16+x]), true
	case 1024, 1536: // 1.16/1.17: 4x4x4 coarse cubes across the tower
		ySec := y - c.yMin
		if ySec < 0 {
			ySec = 0
		}
		i := (z/4)*4 + (x / 4) + (ySec/4)*16
		if i < 0 || i >= len(c.biomes) {
			return UnknownBiome, false
		}
		return legacyBiome(c.biomes[i]), true
	default:
		return UnknownBiome, false
	}
}

func (c *intermediateChunk) SurfaceHeight(x, z int, mode HeightMode) int {
	vals := c.heights.get(func() [256]int {
		if mode == Trust && c.heightmaps != nil && len(c.heightmaps.MotionBlocking) > 0 {
			expanded, err := ExpandHeightmap(c.heightmaps.MotionBlocking, c.yMin, c.dataVersion)
			if err == nil {
				var arr [256]int
				copy(arr[:], expanded)
				return arr
			}
		}
		return calculateHeightmap(c.yMin, c.yMax, c.Block)
	})
	return vals[z*16+x]
}

// ---- modern dialect (1.18+) ----

type modernRoot struct {
	DataVersion int32               `nbt:"DataVersion"`
	Sections    []modernSectionRaw  `nbt:"sections,omitempty"`
	Heightmaps  *modernHeightmaps   `nbt:"Heightmaps,omitempty"`
	Status      string              `nbt:"Status,omitempty"`
}

type modernHeightmaps struct {
	MotionBlocking nbt.LongArray `nbt:"MOTION_BLOCKING,omitempty"`
}

type modernSectionRaw struct {
	Y             int8             `nbt:"Y"`
	BlockStates   *modernPaletted  `nbt:"block_states,omitempty"`
	BiomesPalette *modernBiomePal  `nbt:"biomes,omitempty"`
}

type modernPaletted struct {
	Palette []blockRaw    `nbt:"palette,omitempty"`
	Data    nbt.LongArray `nbt:"data,omitempty"`
}

type modernBiomePal struct {
	Palette []string      `nbt:"palette,omitempty"`
	Data    nbt.LongArray `nbt:"data,omitempty"`
}

type modernSection struct {
	raw           modernSectionRaw
	blockPalette  []Block
	biomePalette  []Biome
}

func (s modernSection) sectionY() int8 { return s.raw.Y }
func (s modernSection) isTerminator() bool {
	return s.raw.BlockStates == nil && s.raw.BiomesPalette == nil
}

func (s modernSection) blockAt(x, secY, z int) (Block, error) {
	if s.raw.BlockStates == nil || len(s.blockPalette) == 0 {
		return AIR, nil
	}
	if len(s.blockPalette) == 1 {
		// Uniform section shortcut: data is absent when every cell is the
		// same palette entry (spec.md §4.4.3).
		return s.blockPalette[0], nil
	}

	k := bits.BitsPerBlock(len(s.blockPalette))
	idx := (secY << 8) + (z << 4) + x
	values, err := bits.Unpack(s.raw.BlockStates.Data, k, 4096, bits.Padded)
	if err != nil {
		return Block{}, err
	}
	pi := int(values[idx])
	if pi >= len(s.blockPalette) {
		return Block{}, anvilerr.Newf(anvilerr.PaletteLookupMiss, "chunk.modernSection.blockAt", "palette index %d out of range (len %d)", pi, len(s.blockPalette))
	}
	return s.blockPalette[pi], nil
}

func (s modernSection) biomeAt(x, secY, z int) (Biome, error) {
	if s.raw.BiomesPalette == nil || len(s.biomePalette) == 0 {
		return UnknownBiome, nil
	}
	if len(s.biomePalette) == 1 {
		return s.biomePalette[0], nil
	}

	k := bits.BitsPerBiome(len(s.biomePalette))
	// Biomes are indexed on a 4x4x4 coarse grid within the section.
	idx := (secY/4)*16 + (z/4)*4 + (x / 4)
	values, err := bits.Unpack(s.raw.BiomesPalette.Data, k, 64, bits.Padded)
	if err != nil {
		return UnknownBiome, err
	}
	pi := int(values[idx])
	if pi >= len(s.biomePalette) {
		return UnknownBiome, anvilerr.Newf(anvilerr.PaletteLookupMiss, "chunk.modernSection.biomeAt", "palette index %d out of range (len %d)", pi, len(s.biomePalette))
	}
	return s.biomePalette[pi], nil
}

type modernChunk struct {
	dataVersion int32
	status      string
	heightmaps  *modernHeightmaps
	tower       *sectionTower[modernSection]
	yMin, yMax  int

	heights lazyHeightmap
}

func decodeModern(data []byte) (Chunk, error) {
	var root modernRoot
	if err := nbt.Unmarshal(data, &root, nbt.FileDialect, nbt.Options{}); err != nil {
		return nil, err
	}

	wrapped := make([]modernSection, len(root.Sections))
	for i, s := range root.Sections {
		sec := modernSection{raw: s}
		if s.BlockStates != nil {
			sec.blockPalette = make([]Block, len(s.BlockStates.Palette))
			for j, b := range s.BlockStates.Palette {
				sec.blockPalette[j] = b.toBlock()
			}
		}
		if s.BiomesPalette != nil {
			sec.biomePalette = make([]Biome, len(s.BiomesPalette.Palette))
			for j, b := range s.BiomesPalette.Palette {
				sec.biomePalette[j] = Biome(b)
			}
		}
		wrapped[i] = sec
	}
	tower := newSectionTower(wrapped)
	yMin, yMax := tower.yRange()

	return &modernChunk{
		dataVersion: root.DataVersion,
		status:      root.Status,
		heightmaps:  root.Heightmaps,
		tower:       tower,
		yMin:        yMin,
		yMax:        yMax,
	}, nil
}

func (c *modernChunk) Status() string { return c.status }

func (c *modernChunk) YRange() (int, int) { return c.yMin, c.yMax }

func (c *modernChunk) Block(x, y, z int) (Block, bool) {
	sec, ok := c.tower.forY(y)
	if !ok {
		return Block{}, false
	}
	secY := y - int(sec.sectionY())*16
	b, err := sec.blockAt(x, secY, z)
	if err != nil {
		return Block{}, false
	}
	return b, true
}

func (c *modernChunk) Biome(x, y, z int) (Biome, bool) {
	sec, ok := c.tower.forY(y)
	if !ok {
		return UnknownBiome, false
	}
	secY := y - int(sec.sectionY())*16
	b, err := sec.biomeAt(x, secY, z)
	if err != nil {
		return UnknownBiome, false
	}
	return b, true
}

func (c *modernChunk) SurfaceHeight(x, z int, mode HeightMode) int {
	vals := c.heights.get(func() [256]int {
		if mode == Trust && c.heightmaps != nil && len(c.heightmaps.MotionBlocking) > 0 {
			expanded, err := ExpandHeightmap(c.heightmaps.MotionBlocking, c.yMin, c.dataVersion)
			if err == nil {
				var arr [256]int
				copy(arr[:], expanded)
				return arr
			}
		}
		return calculateHeightmap(c.yMin, c.yMax, c.Block)
	})
	return vals[z*16+x]
}
