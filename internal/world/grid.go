package world

import "github.com/udisondev/structgen/internal/model"

// Grid constants.
const (
	// ShiftBy - shift by N bits for 2^N blocks per chunk side (2^4 = 16)
	ShiftBy = 4

	// ChunkSize is the chunk side length in blocks.
	ChunkSize = 1 << ShiftBy

	// ChunkArea is the number of columns per chunk.
	ChunkArea = ChunkSize * ChunkSize

	// Default vertical range, MinY inclusive, MaxY exclusive.
	DefaultMinY = 0
	DefaultMaxY = 128
)

// ChunkPos is a chunk (region) coordinate.
type ChunkPos struct {
	X int
	Z int
}

// ChunkOf converts a block coordinate to its chunk.
// Arithmetic shift floors for negative coordinates.
func ChunkOf(x, z int) ChunkPos {
	return ChunkPos{X: x >> ShiftBy, Z: z >> ShiftBy}
}

// Origin returns the block coordinate of the chunk's north-west column.
func (c ChunkPos) Origin() (x, z int) {
	return c.X << ShiftBy, c.Z << ShiftBy
}

// Column returns the block column at local offset (lx, lz) inside the chunk.
func (c ChunkPos) Column(lx, lz int) (x, z int) {
	ox, oz := c.Origin()
	return ox + lx, oz + lz
}

// localIndex returns the column index of (x, z) inside its chunk.
func localIndex(x, z int) int {
	return (x & (ChunkSize - 1)) + (z&(ChunkSize-1))*ChunkSize
}

// RegionEvent is emitted once a chunk has been generated and stored.
type RegionEvent struct {
	World string
	Chunk ChunkPos
	Seed  int64
}

// Anchor returns the block column at offset inside the event's chunk.
func (e RegionEvent) Anchor(offset int) (x, z int) {
	return e.Chunk.Column(offset, offset)
}

// Hash2 mixes seed and a 2D coordinate into a uniformly distributed value.
func Hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	return mix64(uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9))
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// FloorDiv divides rounding toward negative infinity (b > 0).
func FloorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// Terrain is read access to world blocks.
type Terrain interface {
	Name() string
	BlockAt(pos model.BlockPos) model.Material
	HighestBlockY(x, z int) int
	BiomeAt(x, z int) model.Biome
}

// BlockWriter is write access to world blocks.
type BlockWriter interface {
	BlockAt(pos model.BlockPos) model.Material
	SetBlock(pos model.BlockPos, m model.Material) bool
}
