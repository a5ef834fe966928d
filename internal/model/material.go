package model

import "strings"

// Material identifies a block type by its namespaced-free name ("stone", "oak_log").
type Material string

// Biome identifies a biome by name ("plains", "desert").
type Biome string

// Built-in materials used by terrain generation and structure logic.
const (
	Air       Material = "air"
	Water     Material = "water"
	Stone     Material = "stone"
	Dirt      Material = "dirt"
	Grass     Material = "grass_block"
	Sand      Material = "sand"
	Sandstone Material = "sandstone"
	Gravel    Material = "gravel"
	Snow      Material = "snow_block"
	Bedrock   Material = "bedrock"
	Chest     Material = "chest"
	Spawner   Material = "spawner"
)

// Built-in biomes produced by the terrain generator.
const (
	Plains Biome = "plains"
	Forest Biome = "forest"
	Desert Biome = "desert"
	Ocean  Biome = "ocean"
	Tundra Biome = "tundra"
)

// ParseMaterial normalizes a configured material name.
// Accepts "minecraft:stone" and "STONE" forms.
func ParseMaterial(name string) Material {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "minecraft:")
	return Material(name)
}

// ParseBiome normalizes a configured biome name.
func ParseBiome(name string) Biome {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "minecraft:")
	return Biome(name)
}

// IsAir reports whether m is empty space.
func (m Material) IsAir() bool {
	return m == Air || m == ""
}

// IsWater reports whether m is a water block.
func (m Material) IsWater() bool {
	return m == Water
}

// ItemStack is an item and a count placed into a container.
type ItemStack struct {
	Item  string
	Count int
}
