package testutil

import (
	"testing"

	"github.com/udisondev/structgen/internal/model"
	"github.com/udisondev/structgen/internal/world"
)

// FlatWorld returns a memory world where every column of the given chunks is
// stone from MinY up to groundY inclusive.
func FlatWorld(t testing.TB, name string, groundY int, chunks ...world.ChunkPos) *world.World {
	t.Helper()

	w := world.New(name, 0, 128)
	for _, cp := range chunks {
		for lz := range world.ChunkSize {
			for lx := range world.ChunkSize {
				x, z := cp.Column(lx, lz)
				for y := w.MinY(); y <= groundY; y++ {
					if !w.SetBlock(model.Pos(x, y, z), model.Stone) {
						t.Fatalf("flat world: y=%d outside [%d,%d)", y, w.MinY(), w.MaxY())
					}
				}
			}
		}
	}
	return w
}
