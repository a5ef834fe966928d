package world

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/structgen/internal/model"
)

func TestWorld_EmptyReadsAsAir(t *testing.T) {
	w := New("world", 0, 64)

	assert.Equal(t, model.Air, w.BlockAt(model.Pos(5, 10, 5)))
	assert.Equal(t, -1, w.HighestBlockY(5, 5))
	assert.Equal(t, model.Plains, w.BiomeAt(5, 5))
	assert.False(t, w.HasChunk(ChunkPos{0, 0}))
}

func TestWorld_SetBlock(t *testing.T) {
	w := New("world", 0, 64)

	require.True(t, w.SetBlock(model.Pos(-3, 10, 7), model.Stone))
	assert.Equal(t, model.Stone, w.BlockAt(model.Pos(-3, 10, 7)))
	assert.Equal(t, 10, w.HighestBlockY(-3, 7))
	assert.True(t, w.HasChunk(ChunkOf(-3, 7)))

	// Out of vertical range.
	assert.False(t, w.SetBlock(model.Pos(0, 64, 0), model.Stone))
	assert.False(t, w.SetBlock(model.Pos(0, -1, 0), model.Stone))
	assert.Equal(t, model.Air, w.BlockAt(model.Pos(0, 64, 0)))

	// Writing air clears the column top.
	require.True(t, w.SetBlock(model.Pos(-3, 10, 7), model.Air))
	assert.Equal(t, -1, w.HighestBlockY(-3, 7))
}

func TestWorld_Contents(t *testing.T) {
	w := New("world", 0, 64)
	pos := model.Pos(1, 5, 1)

	w.SetBlock(pos, model.Chest)
	w.SetContents(pos, []model.ItemStack{{Item: "bread", Count: 3}})
	assert.Equal(t, []model.ItemStack{{Item: "bread", Count: 3}}, w.Contents(pos))

	// Breaking the container drops its contents.
	w.SetBlock(pos, model.Air)
	assert.Nil(t, w.Contents(pos))
}

func TestWorld_InvalidRangeFallsBack(t *testing.T) {
	w := New("world", 10, 10)
	assert.Equal(t, DefaultMinY, w.MinY())
	assert.Equal(t, DefaultMaxY, w.MaxY())
}

func TestWorld_ConcurrentWriters(t *testing.T) {
	w := New("world", 0, 64)

	var wg sync.WaitGroup
	for g := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				w.SetBlock(model.Pos(g*32+i%16, i%64, i/16), model.Stone)
				_ = w.BlockAt(model.Pos(i, 1, g))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, model.Stone, w.BlockAt(model.Pos(0, 0, 0)))
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(1234)
	b := NewGenerator(1234)
	c := NewGenerator(4321)

	differs := false
	for x := -40; x < 40; x += 7 {
		for z := -40; z < 40; z += 5 {
			require.Equal(t, a.SurfaceHeight(x, z), b.SurfaceHeight(x, z))
			if a.SurfaceHeight(x, z) != c.SurfaceHeight(x, z) {
				differs = true
			}
		}
	}
	assert.True(t, differs, "different seeds should produce different terrain")
}

func TestGenerator_HeightWithinAmplitude(t *testing.T) {
	g := NewGenerator(99)
	for x := -200; x < 200; x += 3 {
		for z := -200; z < 200; z += 11 {
			h := g.SurfaceHeight(x, z)
			assert.GreaterOrEqual(t, h, DefaultBaseHeight-DefaultAmplitude)
			assert.Less(t, h, DefaultBaseHeight+DefaultAmplitude)
		}
	}
}

func TestGenerator_GenerateStoresChunkAndNotifies(t *testing.T) {
	w := New("world", 0, 128)
	g := NewGenerator(42)

	var events []RegionEvent
	g.OnRegionGenerated(func(_ context.Context, ev RegionEvent) {
		// Chunk must already be readable when the event fires.
		assert.True(t, w.HasChunk(ev.Chunk))
		events = append(events, ev)
	})

	cp := ChunkPos{X: 2, Z: -1}
	ev := g.Generate(context.Background(), w, cp)

	require.Len(t, events, 1)
	assert.Equal(t, RegionEvent{World: "world", Chunk: cp, Seed: 42}, ev)

	x, z := cp.Column(8, 8)
	h := g.SurfaceHeight(x, z)
	assert.Equal(t, model.Bedrock, w.BlockAt(model.Pos(x, 0, z)))
	assert.Equal(t, model.Stone, w.BlockAt(model.Pos(x, 1, z)))
	assert.GreaterOrEqual(t, w.HighestBlockY(x, z), min(h, g.SeaLevel()))

	surface := w.BlockAt(model.Pos(x, h, z))
	switch w.BiomeAt(x, z) {
	case model.Desert:
		assert.Equal(t, model.Sand, surface)
	case model.Ocean:
		assert.Equal(t, model.Gravel, surface)
		assert.Equal(t, model.Water, w.BlockAt(model.Pos(x, g.SeaLevel(), z)))
	case model.Tundra:
		assert.Equal(t, model.Snow, surface)
	default:
		assert.Equal(t, model.Grass, surface)
	}
}

func TestGenerator_RunGeneratesRings(t *testing.T) {
	w := New("world", 0, 128)
	g := NewGenerator(7)

	var mu sync.Mutex
	seen := map[ChunkPos]bool{}
	g.OnRegionGenerated(func(_ context.Context, ev RegionEvent) {
		mu.Lock()
		seen[ev.Chunk] = true
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, g.Run(ctx, w, 2, time.Millisecond))
	assert.Equal(t, 25, w.ChunkCount())
	assert.Len(t, seen, 25)

	// Second run skips stored chunks.
	seen = map[ChunkPos]bool{}
	require.NoError(t, g.Run(ctx, w, 2, time.Millisecond))
	assert.Empty(t, seen)
}

func TestRingChunks(t *testing.T) {
	assert.Len(t, ringChunks(0), 1)
	assert.Len(t, ringChunks(1), 8)
	assert.Len(t, ringChunks(3), 24)

	uniq := map[ChunkPos]bool{}
	for _, c := range ringChunks(2) {
		uniq[c] = true
	}
	assert.Len(t, uniq, 16)
}
