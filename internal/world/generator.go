package world

import (
	"context"
	"log/slog"
	"time"

	"github.com/udisondev/structgen/internal/model"
)

// Generator defaults.
const (
	DefaultSeaLevel   = 48
	DefaultBaseHeight = 56
	DefaultAmplitude  = 20

	heightGrid      = 32 // value-noise lattice spacing, blocks
	biomeRegionSize = 96
)

// Extra materials only the generator emits.
const (
	OakLog    model.Material = "oak_log"
	OakLeaves model.Material = "oak_leaves"
)

// Listener receives region-generated events.
type Listener func(ctx context.Context, ev RegionEvent)

// Generator produces deterministic terrain for a seed and announces each
// generated chunk to its listener.
type Generator struct {
	seed     int64
	seaLevel int
	base     int
	amp      int

	listener Listener
}

// NewGenerator creates a terrain generator.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		seed:     seed,
		seaLevel: DefaultSeaLevel,
		base:     DefaultBaseHeight,
		amp:      DefaultAmplitude,
	}
}

// Seed returns the generator seed.
func (g *Generator) Seed() int64 {
	return g.seed
}

// SeaLevel returns the water surface Y.
func (g *Generator) SeaLevel() int {
	return g.seaLevel
}

// OnRegionGenerated sets the listener called after each chunk is stored.
func (g *Generator) OnRegionGenerated(fn Listener) {
	g.listener = fn
}

// lattice returns the noise value in [0,1) at a lattice point.
func (g *Generator) lattice(ix, iz int) float64 {
	return float64(Hash2(g.seed, ix, iz)>>11) / float64(1<<53)
}

func smooth(t float64) float64 {
	return t * t * (3 - 2*t)
}

// SurfaceHeight returns the terrain top Y at (x, z): bilinear value noise.
func (g *Generator) SurfaceHeight(x, z int) int {
	ix, iz := FloorDiv(x, heightGrid), FloorDiv(z, heightGrid)
	fx := smooth(float64(x-ix*heightGrid) / heightGrid)
	fz := smooth(float64(z-iz*heightGrid) / heightGrid)

	v00 := g.lattice(ix, iz)
	v10 := g.lattice(ix+1, iz)
	v01 := g.lattice(ix, iz+1)
	v11 := g.lattice(ix+1, iz+1)

	top := v00 + (v10-v00)*fx
	bottom := v01 + (v11-v01)*fx
	n := top + (bottom-top)*fz // [0,1)

	return g.base + int((n-0.5)*2*float64(g.amp))
}

// BiomeAt returns the biome of a column with the given surface height.
func (g *Generator) BiomeAt(x, z, height int) model.Biome {
	if height < g.seaLevel {
		return model.Ocean
	}
	rx, rz := FloorDiv(x, biomeRegionSize), FloorDiv(z, biomeRegionSize)
	switch Hash2(g.seed^0x5bd1e995, rx, rz) % 4 {
	case 0:
		return model.Plains
	case 1:
		return model.Forest
	case 2:
		return model.Desert
	default:
		return model.Tundra
	}
}

func surfaceFor(b model.Biome) (top, sub model.Material) {
	switch b {
	case model.Desert:
		return model.Sand, model.Sandstone
	case model.Ocean:
		return model.Gravel, model.Sand
	case model.Tundra:
		return model.Snow, model.Dirt
	default:
		return model.Grass, model.Dirt
	}
}

// Chunk builds the blocks of one chunk without storing it. minY/maxY bound
// the produced columns.
func (g *Generator) Chunk(cp ChunkPos, minY, maxY int) *ChunkData {
	d := &ChunkData{Pos: cp}

	for lz := range ChunkSize {
		for lx := range ChunkSize {
			x, z := cp.Column(lx, lz)
			h := min(g.SurfaceHeight(x, z), maxY-1)
			biome := g.BiomeAt(x, z, h)
			top, sub := surfaceFor(biome)

			height := max(h, g.seaLevel) + 1
			if biome == model.Forest {
				height += 6
			}
			height = min(height, maxY) - minY
			col := make([]model.Material, 0, max(height, 0))

			for y := minY; y < minY+height; y++ {
				var m model.Material
				switch {
				case y == minY:
					m = model.Bedrock
				case y < h-3:
					m = model.Stone
				case y < h:
					m = sub
				case y == h:
					m = top
				case y <= g.seaLevel:
					m = model.Water
				default:
					m = model.Air
				}
				col = append(col, m)
			}

			if biome == model.Forest && Hash2(g.seed, x, z)%23 == 0 {
				g.plantTree(col, h-minY)
			}

			li := lx + lz*ChunkSize
			d.Columns[li] = col
			d.Biomes[li] = biome
		}
	}
	return d
}

// plantTree places a trunk with a leaf cap above the surface index.
func (g *Generator) plantTree(col []model.Material, surface int) {
	for i := surface + 1; i < len(col); i++ {
		switch {
		case i <= surface+4:
			col[i] = OakLog
		case i <= surface+6:
			col[i] = OakLeaves
		}
	}
}

// Generate builds and stores chunk cp in w, then notifies the listener.
func (g *Generator) Generate(ctx context.Context, w *World, cp ChunkPos) RegionEvent {
	w.PutChunk(g.Chunk(cp, w.MinY(), w.MaxY()))

	ev := RegionEvent{World: w.Name(), Chunk: cp, Seed: g.seed}
	if g.listener != nil {
		g.listener(ctx, ev)
	}
	return ev
}

// Run generates chunks in rings around the origin up to radius, one chunk per
// interval (blocks until done or context is canceled). Already stored chunks are skipped.
func (g *Generator) Run(ctx context.Context, w *World, radius int, interval time.Duration) error {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("region generator started", "world", w.Name(), "radius", radius, "interval", interval)

	generated := 0
	for ring := 0; ring <= radius; ring++ {
		for _, cp := range ringChunks(ring) {
			if w.HasChunk(cp) {
				continue
			}
			select {
			case <-ctx.Done():
				slog.Info("region generator stopping", "generated", generated)
				return ctx.Err()
			case <-ticker.C:
			}
			g.Generate(ctx, w, cp)
			generated++
		}
	}

	slog.Info("region generator finished", "world", w.Name(), "generated", generated)
	return nil
}

// ringChunks returns the chunks at Chebyshev distance ring from the origin.
func ringChunks(ring int) []ChunkPos {
	if ring == 0 {
		return []ChunkPos{{0, 0}}
	}
	out := make([]ChunkPos, 0, 8*ring)
	for x := -ring; x <= ring; x++ {
		out = append(out, ChunkPos{x, -ring}, ChunkPos{x, ring})
	}
	for z := -ring + 1; z <= ring-1; z++ {
		out = append(out, ChunkPos{-ring, z}, ChunkPos{ring, z})
	}
	return out
}
