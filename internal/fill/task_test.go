package fill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/structgen/internal/model"
	"github.com/udisondev/structgen/internal/scheduler"
	"github.com/udisondev/structgen/internal/world"
)

const leaves model.Material = "oak_leaves"

// mockMaterials ignores leaves and fills with a fixed material per biome.
type mockMaterials struct {
	fill   map[model.Biome]model.Material
	biomes []model.Biome
}

func newMockMaterials() *mockMaterials {
	return &mockMaterials{fill: map[model.Biome]model.Material{
		model.Plains: model.Dirt,
		model.Desert: model.Sand,
	}}
}

func (m *mockMaterials) IsIgnored(mat model.Material) bool {
	return mat == leaves
}

func (m *mockMaterials) FillMaterialFor(b model.Biome) (model.Material, bool) {
	m.biomes = append(m.biomes, b)
	mat, ok := m.fill[b]
	return mat, ok
}

// fillBox writes mat into every cell of b.
func fillBox(w *world.World, b model.Bounds, mat model.Material) {
	for y := b.Min.Y; y <= b.Max.Y; y++ {
		for z := b.Min.Z; z <= b.Max.Z; z++ {
			for x := b.Min.X; x <= b.Max.X; x++ {
				w.SetBlock(model.Pos(x, y, z), mat)
			}
		}
	}
}

func countLayer(w *world.World, b model.Bounds, y int, mat model.Material) int {
	n := 0
	for z := b.Min.Z; z <= b.Max.Z; z++ {
		for x := b.Min.X; x <= b.Max.X; x++ {
			if w.BlockAt(model.Pos(x, y, z)) == mat {
				n++
			}
		}
	}
	return n
}

func newTask(w *world.World, b model.Bounds, mats Materials, quota int) *Task {
	return New(Config{
		Structure: "test",
		Anchor:    model.Location{World: w.Name(), Pos: b.Min},
		Bounds:    b,
		Biome:     model.Plains,
		Blocks:    w,
		Materials: mats,
		Quota:     quota,
	})
}

func TestTask_TenByOneByTenExhaustsInThreeTicks(t *testing.T) {
	w := world.New("world", 0, 64)
	b := model.NewBounds(model.Pos(0, 10, 0), model.Pos(9, 10, 9))
	fillBox(w, b, model.Stone)

	s := scheduler.New(0)
	task := newTask(w, b, newMockMaterials(), 40)
	require.NoError(t, task.Start(s, 1, 1))
	assert.Equal(t, StateRunning, task.State())

	var perTick []int
	last := 0
	for range 5 {
		s.Tick()
		p := task.Processed()
		perTick = append(perTick, p-last)
		last = p
	}

	assert.Equal(t, []int{40, 40, 20, 0, 0}, perTick)
	assert.Equal(t, StateExhausted, task.State())
	assert.Zero(t, s.Pending(), "exhausted task must release its handle")

	// Every column was solid to the floor: one fill block under each.
	assert.Equal(t, 100, task.Written())
	assert.Equal(t, 100, countLayer(w, b, 9, model.Dirt))
	// Scanned layer untouched.
	assert.Equal(t, 100, countLayer(w, b, 10, model.Stone))
}

func TestTask_TickReturnsQuotaThenRemainder(t *testing.T) {
	w := world.New("world", 0, 64)
	b := model.NewBounds(model.Pos(-3, 5, 2), model.Pos(3, 7, 6)) // 7*3*5 = 105
	fillBox(w, b, model.Stone)

	task := newTask(w, b, newMockMaterials(), 40)
	require.NoError(t, task.Start(scheduler.New(0), 1, 1))

	assert.Equal(t, 40, task.Tick())
	assert.Equal(t, 40, task.Tick())
	assert.Equal(t, 25, task.Tick())
	assert.Equal(t, StateExhausted, task.State())
	assert.Equal(t, 0, task.Tick())
	assert.Equal(t, 105, task.Processed())
	assert.Equal(t, 35, countLayer(w, b, 4, model.Dirt))
}

func TestTask_ColumnRules(t *testing.T) {
	// Single column x=0,z=0, y 1..4; backfill target is y=0.
	b := model.NewBounds(model.Pos(0, 1, 0), model.Pos(0, 4, 0))

	tests := []struct {
		name        string
		column      map[int]model.Material // y → material, others stone
		below       model.Material
		ignoreWater bool
		wantCells   int
		wantBelow   model.Material
	}{
		{
			name:      "solid to floor backfills below",
			wantCells: 4,
			wantBelow: model.Dirt,
		},
		{
			name:      "air abandons column",
			column:    map[int]model.Material{3: model.Air},
			wantCells: 2,
			wantBelow: model.Air,
		},
		{
			name:      "ignored material abandons column",
			column:    map[int]model.Material{2: leaves},
			wantCells: 3,
			wantBelow: model.Air,
		},
		{
			name:      "water is solid by default",
			column:    map[int]model.Material{2: model.Water},
			wantCells: 4,
			wantBelow: model.Dirt,
		},
		{
			name:        "water open when ignorable",
			column:      map[int]model.Material{2: model.Water},
			ignoreWater: true,
			wantCells:   3,
			wantBelow:   model.Air,
		},
		{
			name:      "solid ground below is overwritten",
			below:     model.Stone,
			wantCells: 4,
			wantBelow: model.Dirt,
		},
		{
			name:      "water below is overwritten",
			below:     model.Water,
			wantCells: 4,
			wantBelow: model.Dirt,
		},
		{
			name:      "open column leaves ground below alone",
			column:    map[int]model.Material{1: model.Air},
			below:     model.Stone,
			wantCells: 4,
			wantBelow: model.Stone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := world.New("world", 0, 64)
			fillBox(w, b, model.Stone)
			for y, m := range tt.column {
				w.SetBlock(model.Pos(0, y, 0), m)
			}
			if tt.below != "" {
				w.SetBlock(model.Pos(0, 0, 0), tt.below)
			}

			task := New(Config{
				Structure:   "col",
				Anchor:      model.Location{World: "world"},
				Bounds:      b,
				Biome:       model.Plains,
				Blocks:      w,
				Materials:   newMockMaterials(),
				IgnoreWater: tt.ignoreWater,
				Quota:       100,
			})
			require.NoError(t, task.Start(scheduler.New(0), 1, 1))

			assert.Equal(t, tt.wantCells, task.Tick())
			assert.Equal(t, StateExhausted, task.State())
			assert.Equal(t, tt.wantBelow, w.BlockAt(model.Pos(0, 0, 0)))
		})
	}
}

func TestTask_SingleCellOverStoneLaysFill(t *testing.T) {
	w := world.New("world", 0, 64)
	b := model.NewBounds(model.Pos(0, 10, 0), model.Pos(0, 10, 0))
	w.SetBlock(model.Pos(0, 10, 0), model.Stone)
	w.SetBlock(model.Pos(0, 9, 0), model.Stone)

	task := newTask(w, b, newMockMaterials(), 40)
	require.NoError(t, task.Start(scheduler.New(0), 1, 1))

	assert.Equal(t, 1, task.Tick())
	assert.Equal(t, StateExhausted, task.State())
	assert.Equal(t, 1, task.Written())
	assert.Equal(t, model.Dirt, w.BlockAt(model.Pos(0, 9, 0)))
}

func TestTask_NoFillMaterialWritesNothing(t *testing.T) {
	w := world.New("world", 0, 64)
	b := model.NewBounds(model.Pos(0, 10, 0), model.Pos(3, 10, 3))
	fillBox(w, b, model.Stone)

	task := New(Config{
		Anchor:    model.Location{World: "world"},
		Bounds:    b,
		Biome:     model.Ocean, // no material configured
		Blocks:    w,
		Materials: newMockMaterials(),
		Quota:     40,
	})
	require.NoError(t, task.Start(scheduler.New(0), 1, 1))
	task.Tick()

	assert.Equal(t, StateExhausted, task.State())
	assert.Zero(t, task.Written())
	assert.Zero(t, countLayer(w, b, 9, model.Dirt))
}

// The fill material follows the biome at the anchor, not the biome of each
// scanned column, even when the structure spans several biomes.
func TestTask_UsesAnchorBiomeForEveryColumn(t *testing.T) {
	w := world.New("world", 0, 64)
	b := model.NewBounds(model.Pos(0, 10, 0), model.Pos(4, 10, 0))
	fillBox(w, b, model.Stone)

	mats := newMockMaterials()
	task := New(Config{
		Anchor:    model.Location{World: "world", Pos: model.Pos(0, 10, 0)},
		Bounds:    b,
		Biome:     model.Desert,
		Blocks:    w,
		Materials: mats,
		Quota:     40,
	})
	require.NoError(t, task.Start(scheduler.New(0), 1, 1))
	task.Tick()

	require.Len(t, mats.biomes, 5)
	for _, biome := range mats.biomes {
		assert.Equal(t, model.Desert, biome)
	}
	assert.Equal(t, 5, countLayer(w, b, 9, model.Sand))
}

func TestTask_CancelStopsWrites(t *testing.T) {
	w := world.New("world", 0, 64)
	b := model.NewBounds(model.Pos(0, 10, 0), model.Pos(19, 10, 19)) // 400 cells
	fillBox(w, b, model.Stone)

	s := scheduler.New(0)
	task := newTask(w, b, newMockMaterials(), 40)
	require.NoError(t, task.Start(s, 1, 1))

	s.Tick()
	s.Tick()
	require.Equal(t, 80, task.Processed())
	written := task.Written()

	task.Cancel()
	assert.Equal(t, StateCancelled, task.State())
	assert.Zero(t, s.Pending())

	for range 5 {
		s.Tick()
	}
	assert.Equal(t, 80, task.Processed())
	assert.Equal(t, written, task.Written())
	assert.Equal(t, written, countLayer(w, b, 9, model.Dirt))
	assert.Zero(t, task.Tick())

	task.Cancel() // idempotent
	assert.Equal(t, StateCancelled, task.State())
}

func TestTask_CancelAfterExhaustedIsNoop(t *testing.T) {
	w := world.New("world", 0, 64)
	b := model.NewBounds(model.Pos(0, 10, 0), model.Pos(1, 10, 1))
	fillBox(w, b, model.Stone)

	task := newTask(w, b, newMockMaterials(), 40)
	require.NoError(t, task.Start(scheduler.New(0), 1, 1))
	task.Tick()
	require.Equal(t, StateExhausted, task.State())

	task.Cancel()
	assert.Equal(t, StateExhausted, task.State())
}

func TestTask_StartTwiceFails(t *testing.T) {
	w := world.New("world", 0, 64)
	b := model.NewBounds(model.Pos(0, 10, 0), model.Pos(1, 10, 1))
	s := scheduler.New(0)

	task := newTask(w, b, newMockMaterials(), 40)
	require.NoError(t, task.Start(s, 1, 1))
	require.ErrorIs(t, task.Start(s, 1, 1), ErrNotIdle)

	cancelled := newTask(w, b, newMockMaterials(), 40)
	cancelled.Cancel()
	assert.Equal(t, StateCancelled, cancelled.State())
	require.ErrorIs(t, cancelled.Start(s, 1, 1), ErrNotIdle)
}

func TestTask_CancelConcurrentWithRunningScheduler(t *testing.T) {
	w := world.New("world", 0, 64)
	b := model.NewBounds(model.Pos(0, 1, 0), model.Pos(63, 40, 63))
	fillBox(w, b, model.Stone)

	s := scheduler.New(time.Millisecond)
	task := newTask(w, b, newMockMaterials(), 40)
	require.NoError(t, task.Start(s, 1, 1))

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				s.Tick()
			}
		}
	}()

	require.Eventually(t, func() bool { return task.Processed() > 200 }, 2*time.Second, time.Millisecond)
	task.Cancel()
	processed := task.Processed()
	written := task.Written()

	time.Sleep(20 * time.Millisecond)
	close(stop)
	<-done

	assert.Equal(t, StateCancelled, task.State())
	assert.Equal(t, processed, task.Processed())
	assert.Equal(t, written, task.Written())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "IDLE", StateIdle.String())
	assert.Equal(t, "RUNNING", StateRunning.String())
	assert.Equal(t, "EXHAUSTED", StateExhausted.String())
	assert.Equal(t, "CANCELLED", StateCancelled.String())
	assert.Equal(t, "State(9)", State(9).String())
}
