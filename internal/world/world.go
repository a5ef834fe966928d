package world

import (
	"sync"

	"github.com/udisondev/structgen/internal/model"
)

// chunk stores palette indices for every cell, column-major by Y.
type chunk struct {
	blocks []uint16 // index: (y-minY)*ChunkArea + localIndex(x, z)
	biomes [ChunkArea]model.Biome
}

// World is an in-memory chunked voxel world.
// Thread-safe: generation/paste and fill tasks write from different goroutines.
type World struct {
	name       string
	minY, maxY int

	mu         sync.RWMutex
	chunks     map[ChunkPos]*chunk
	palette    []model.Material
	index      map[model.Material]uint16
	containers map[model.BlockPos][]model.ItemStack
}

// New creates an empty world with the vertical range [minY, maxY).
func New(name string, minY, maxY int) *World {
	if maxY <= minY {
		minY, maxY = DefaultMinY, DefaultMaxY
	}
	w := &World{
		name:       name,
		minY:       minY,
		maxY:       maxY,
		chunks:     make(map[ChunkPos]*chunk, 256),
		index:      make(map[model.Material]uint16, 32),
		containers: make(map[model.BlockPos][]model.ItemStack),
	}
	// Palette index 0 is always air, so zeroed chunks are empty.
	w.paletteID(model.Air)
	return w
}

// Name returns the world name.
func (w *World) Name() string {
	return w.name
}

// MinY returns the lowest valid Y.
func (w *World) MinY() int {
	return w.minY
}

// MaxY returns one past the highest valid Y.
func (w *World) MaxY() int {
	return w.maxY
}

// paletteID returns the palette index for m, adding it if new. Caller holds mu (or owns w).
func (w *World) paletteID(m model.Material) uint16 {
	if m.IsAir() {
		m = model.Air
	}
	if id, ok := w.index[m]; ok {
		return id
	}
	id := uint16(len(w.palette))
	w.palette = append(w.palette, m)
	w.index[m] = id
	return id
}

func (w *World) newChunk() *chunk {
	return &chunk{blocks: make([]uint16, (w.maxY-w.minY)*ChunkArea)}
}

func (w *World) cell(pos model.BlockPos) int {
	return (pos.Y-w.minY)*ChunkArea + localIndex(pos.X, pos.Z)
}

func (w *World) inRange(y int) bool {
	return y >= w.minY && y < w.maxY
}

// HasChunk reports whether the chunk exists (generated or written to).
func (w *World) HasChunk(c ChunkPos) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.chunks[c]
	return ok
}

// ChunkCount returns number of stored chunks.
func (w *World) ChunkCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.chunks)
}

// BlockAt returns the material at pos. Out-of-range and missing chunks read as air.
func (w *World) BlockAt(pos model.BlockPos) model.Material {
	if !w.inRange(pos.Y) {
		return model.Air
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	c, ok := w.chunks[ChunkOf(pos.X, pos.Z)]
	if !ok {
		return model.Air
	}
	return w.palette[c.blocks[w.cell(pos)]]
}

// SetBlock writes m at pos, creating the chunk if needed.
// Returns false when pos is outside the vertical range.
func (w *World) SetBlock(pos model.BlockPos, m model.Material) bool {
	if !w.inRange(pos.Y) {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	cp := ChunkOf(pos.X, pos.Z)
	c, ok := w.chunks[cp]
	if !ok {
		c = w.newChunk()
		w.chunks[cp] = c
	}
	c.blocks[w.cell(pos)] = w.paletteID(m)
	if m.IsAir() {
		delete(w.containers, pos)
	}
	return true
}

// HighestBlockY returns the Y of the top non-air block in the column, or
// MinY-1 when the column is empty.
func (w *World) HighestBlockY(x, z int) int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	c, ok := w.chunks[ChunkOf(x, z)]
	if !ok {
		return w.minY - 1
	}
	li := localIndex(x, z)
	for y := w.maxY - 1; y >= w.minY; y-- {
		if c.blocks[(y-w.minY)*ChunkArea+li] != 0 {
			return y
		}
	}
	return w.minY - 1
}

// BiomeAt returns the biome of the column. Missing chunks report plains.
func (w *World) BiomeAt(x, z int) model.Biome {
	w.mu.RLock()
	defer w.mu.RUnlock()

	c, ok := w.chunks[ChunkOf(x, z)]
	if !ok {
		return model.Plains
	}
	if b := c.biomes[localIndex(x, z)]; b != "" {
		return b
	}
	return model.Plains
}

// SetContents stores container contents at pos.
func (w *World) SetContents(pos model.BlockPos, items []model.ItemStack) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.containers[pos] = items
}

// Contents returns container contents at pos.
func (w *World) Contents(pos model.BlockPos) []model.ItemStack {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.containers[pos]
}

// ChunkData is a generated chunk ready to be stored.
type ChunkData struct {
	Pos     ChunkPos
	Columns [ChunkArea][]model.Material // bottom-up from MinY, shorter columns are air above
	Biomes  [ChunkArea]model.Biome
}

// PutChunk stores generated chunk data, replacing anything at that position.
func (w *World) PutChunk(d *ChunkData) {
	w.mu.Lock()
	defer w.mu.Unlock()

	c := w.newChunk()
	c.biomes = d.Biomes
	height := w.maxY - w.minY
	for li, col := range d.Columns {
		for i, m := range col {
			if i >= height {
				break
			}
			c.blocks[i*ChunkArea+li] = w.paletteID(m)
		}
	}
	w.chunks[d.Pos] = c
}
