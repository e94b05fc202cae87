package chunk

import "sync"

// legacyBlockNames maps a pre-1.13 numeric block id (0..4095, 12 bits once
// the "add" nibble is folded in) to its bare (unnamespaced) pre-1.13 name.
// Ported from fastanvil/src/java/pre13.rs's block_name(block_id) match.
// Ids absent from this table fall back to a synthetic "unknown_<id>" name
// rather than panicking, since a renderer must still draw something.
var legacyBlockNames = map[int]string{
	0: "air", 1: "stone", 2: "grass", 3: "dirt", 4: "cobblestone",
	5: "planks", 6: "sapling", 7: "bedrock", 8: "flowing_water", 9: "water",
	10: "flowing_lava", 11: "lava", 12: "sand", 13: "gravel", 14: "gold_ore",
	15: "iron_ore", 16: "coal_ore", 17: "log", 18: "leaves", 19: "sponge",
	20: "glass", 21: "lapis_ore", 22: "lapis_block", 23: "dispenser", 24: "sandstone",
	25: "noteblock", 26: "bed", 27: "golden_rail", 28: "detector_rail", 29: "sticky_piston",
	30: "web", 31: "tallgrass", 32: "deadbush", 33: "piston", 34: "piston_head",
	35: "wool", 37: "yellow_flower", 38: "red_flower", 39: "brown_mushroom", 40: "red_mushroom",
	41: "gold_block", 42: "iron_block", 43: "double_stone_slab", 44: "stone_slab", 45: "brick_block",
	46: "tnt", 47: "bookshelf", 48: "mossy_cobblestone", 49: "obsidian", 50: "torch",
	51: "fire", 52: "mob_spawner", 53: "oak_stairs", 54: "chest", 55: "redstone_wire",
	56: "diamond_ore", 57: "diamond_block", 58: "crafting_table", 59: "wheat", 60: "farmland",
	61: "furnace", 62: "lit_furnace", 63: "standing_sign", 64: "wooden_door", 65: "ladder",
	66: "rail", 67: "stone_stairs", 68: "wall_sign", 69: "lever", 70: "stone_pressure_plate",
	71: "iron_door", 72: "wooden_pressure_plate", 73: "redstone_ore", 74: "lit_redstone_ore", 75: "unlit_redstone_torch",
	76: "redstone_torch", 77: "stone_button", 78: "snow_layer", 79: "ice", 80: "snow",
	81: "cactus", 82: "clay", 83: "reeds", 84: "jukebox", 85: "fence",
	86: "pumpkin", 87: "netherrack", 88: "soul_sand", 89: "glowstone", 90: "portal",
	91: "lit_pumpkin", 92: "cake", 93: "unpowered_repeater", 94: "powered_repeater", 95: "stained_glass",
	96: "trapdoor", 97: "monster_egg", 98: "stonebrick", 99: "brown_mushroom_block", 100: "red_mushroom_block",
	101: "iron_bars", 102: "glass_pane", 103: "melon_block",
}

// legacyOverrides lets a caller register an exact (block id, data value) ->
// Block mapping, taking precedence over the bare-name default (spec.md
// §4.4.2: legacy worlds need per-data-value property resolution that the
// flat id table alone can't express, e.g. log orientation or wool color).
// Guarded by a RWMutex since chunk decoding happens from many goroutines
// concurrently (spec.md §5).
var (
	legacyOverridesMu sync.RWMutex
	legacyOverrides    = map[int]Block{}
)

func legacyKey(blockID int, dataValue uint8) int {
	return (blockID << 4) | int(dataValue&0xF)
}

// RegisterLegacyBlock installs a (blockID, dataValue) -> Block override,
// used once per key: a second registration for the same key is a no-op and
// reports false, leaving the first registration intact (spec.md §4.4.2's
// "install-once" rule, mirrored from pre13.rs's init_block/BLOCK_LIST).
func RegisterLegacyBlock(blockID int, dataValue uint8, block Block) bool {
	key := legacyKey(blockID, dataValue)

	legacyOverridesMu.Lock()
	defer legacyOverridesMu.Unlock()
	if _, exists := legacyOverrides[key]; exists {
		return false
	}
	legacyOverrides[key] = block
	return true
}

// resolveLegacyBlock turns a numeric block id (with the optional 4-bit
// "add" nibble already folded in to extend it to 12 bits) and its 4-bit
// data value into a Block, consulting overrides first.
func resolveLegacyBlock(blockID int, dataValue uint8) Block {
	key := legacyKey(blockID, dataValue)

	legacyOverridesMu.RLock()
	b, ok := legacyOverrides[key]
	legacyOverridesMu.RUnlock()
	if ok {
		return b
	}

	name, known := legacyBlockNames[blockID]
	if !known || name == "" {
		return Block{Name: unknownLegacyName(blockID)}
	}
	return Block{Name: "minecraft:" + name}
}

func unknownLegacyName(blockID int) string {
	const hex = "0123456789abcdef"
	buf := []byte("minecraft:unknown_0x0000")
	for i := 0; i < 4; i++ {
		buf[len(buf)-1-i] = hex[(blockID>>(4*i))&0xF]
	}
	return string(buf)
}
