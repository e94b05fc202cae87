package chunk

import (
	"sort"
	"strings"
)

// Block is a namespaced block id plus its property map (spec.md §3.4).
// Grounded on fastanvil/src/types.rs's Block::encoded_id and the later
// Block struct in java/block.rs (original_source/), which separate the raw
// name from a canonical, property-sorted lookup key.
type Block struct {
	Name       string
	Properties map[string]string
}

// excludedProperties are omitted from the canonical description: they
// affect rendering-irrelevant game state (spec.md §3.4, and the Open
// Question in §9 resolved in DESIGN.md).
var excludedProperties = map[string]bool{
	"waterlogged": true,
	"powered":     true,
}

// EncodedDescription returns the canonical palette lookup key:
// `name + "|" + sorted(k=v, k=v, ...)`, independent of property insertion
// order (spec.md §4.4.6).
func (b Block) EncodedDescription() string {
	if len(b.Properties) == 0 {
		return b.Name + "|"
	}
	keys := make([]string, 0, len(b.Properties))
	for k := range b.Properties {
		if excludedProperties[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b2 strings.Builder
	b2.WriteString(b.Name)
	b2.WriteByte('|')
	for i, k := range keys {
		if i > 0 {
			b2.WriteByte(',')
		}
		b2.WriteString(k)
		b2.WriteByte('=')
		b2.WriteString(b.Properties[k])
	}
	return b2.String()
}

// AIR is the shared sentinel returned for out-of-bounds-within-chunk and
// implicitly-air-filled section queries (spec.md §4.4.1).
var AIR = Block{Name: "minecraft:air"}

// caveAirName names the block treated the same as AIR by heightmap calculation (both are
// "not a surface" per the original implementation's name check).
const caveAirName = "minecraft:cave_air"

func isAirLike(b Block) bool {
	return b.Name == AIR.Name || b.Name == caveAirName
}
