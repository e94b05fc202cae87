package chunk

// Biome identifies a namespaced biome id (modern worlds carry these
// directly; legacy worlds carry a numeric code translated via
// legacyBiomeNames below). Grounded on the Biome::try_from(i32) dispatch
// referenced throughout original_source/fastanvil/src/java/{mod,pre13}.rs,
// reimplemented here as string ids since the retrieved pack's biome.rs
// itself was not part of the distillation: only the call sites survived.
type Biome string

const UnknownBiome Biome = ""

// Climate is the (temperature, rainfall) pair the palette uses to index
// the grass/foliage color ramps (spec.md §4.6).
type Climate struct {
	Temperature float64
	Rainfall    float64
}

// climates holds the biomes whose color resolution actually depends on
// their climate values (grass/foliage ramps) or on the water color table;
// everything else defaults to temperate (0.5, 0.5), which does not change
// any special-cased lookup in palette.Pick.
var climates = map[Biome]Climate{
	"minecraft:ocean":              {Temperature: 0.5, Rainfall: 0.5},
	"minecraft:plains":             {Temperature: 0.8, Rainfall: 0.4},
	"minecraft:desert":             {Temperature: 2.0, Rainfall: 0.0},
	"minecraft:forest":             {Temperature: 0.7, Rainfall: 0.8},
	"minecraft:birch_forest":       {Temperature: 0.6, Rainfall: 0.6},
	"minecraft:dark_forest":        {Temperature: 0.7, Rainfall: 0.8},
	"minecraft:taiga":              {Temperature: 0.25, Rainfall: 0.8},
	"minecraft:snowy_taiga":        {Temperature: -0.5, Rainfall: 0.4},
	"minecraft:snowy_plains":       {Temperature: 0.0, Rainfall: 0.5},
	"minecraft:snowy_tundra":       {Temperature: 0.0, Rainfall: 0.5},
	"minecraft:jungle":             {Temperature: 0.95, Rainfall: 0.9},
	"minecraft:bamboo_jungle":      {Temperature: 0.95, Rainfall: 0.9},
	"minecraft:savanna":            {Temperature: 1.2, Rainfall: 0.0},
	"minecraft:savanna_plateau":    {Temperature: 1.0, Rainfall: 0.0},
	"minecraft:badlands":           {Temperature: 2.0, Rainfall: 0.0},
	"minecraft:swamp":              {Temperature: 0.8, Rainfall: 0.9},
	"minecraft:mushroom_fields":    {Temperature: 0.9, Rainfall: 1.0},
	"minecraft:beach":              {Temperature: 0.8, Rainfall: 0.4},
	"minecraft:snowy_beach":        {Temperature: 0.05, Rainfall: 0.3},
	"minecraft:river":              {Temperature: 0.5, Rainfall: 0.5},
	"minecraft:frozen_river":       {Temperature: 0.0, Rainfall: 0.5},
	"minecraft:frozen_ocean":       {Temperature: 0.0, Rainfall: 0.5},
	"minecraft:cold_ocean":         {Temperature: 0.5, Rainfall: 0.5},
	"minecraft:lukewarm_ocean":     {Temperature: 0.5, Rainfall: 0.5},
	"minecraft:warm_ocean":         {Temperature: 0.5, Rainfall: 0.5},
	"minecraft:mountains":         {Temperature: 0.2, Rainfall: 0.3},
	"minecraft:windswept_hills":    {Temperature: 0.2, Rainfall: 0.3},
	"minecraft:nether_wastes":      {Temperature: 2.0, Rainfall: 0.0},
	"minecraft:the_end":            {Temperature: 0.5, Rainfall: 0.5},
}

// Climate reports the biome's (temperature, rainfall), defaulting to a
// temperate value for anything not in the table (spec.md §3.4: "bounded,
// implementation-specific range").
func (b Biome) Climate() Climate {
	if c, ok := climates[b]; ok {
		return c
	}
	return Climate{Temperature: 0.5, Rainfall: 0.5}
}

// legacyBiomeNames translates the numeric biome codes carried by pre-1.13
// worlds (fastanvil/src/java/pre13.rs: `Biome::try_from(biome as i32)`)
// into the namespaced ids the palette and climate table key on. Covers the
// common overworld set; anything absent resolves to UnknownBiome.
var legacyBiomeNames = map[int32]Biome{
	0:  "minecraft:ocean",
	1:  "minecraft:plains",
	2:  "minecraft:desert",
	3:  "minecraft:mountains",
	4:  "minecraft:forest",
	5:  "minecraft:taiga",
	6:  "minecraft:swamp",
	7:  "minecraft:river",
	8:  "minecraft:nether_wastes",
	9:  "minecraft:the_end",
	10: "minecraft:frozen_ocean",
	11: "minecraft:frozen_river",
	12: "minecraft:snowy_tundra",
	14: "minecraft:mushroom_fields",
	16: "minecraft:beach",
	21: "minecraft:jungle",
	23: "minecraft:jungle",
	35: "minecraft:savanna",
	37: "minecraft:badlands",
	44: "minecraft:warm_ocean",
	45: "minecraft:lukewarm_ocean",
	46: "minecraft:cold_ocean",
	47: "minecraft:warm_ocean",
	48: "minecraft:lukewarm_ocean",
	49: "minecraft:cold_ocean",
	50: "minecraft:frozen_ocean",
}

func legacyBiome(id int32) Biome {
	if b, ok := legacyBiomeNames[id]; ok {
		return b
	}
	return UnknownBiome
}
