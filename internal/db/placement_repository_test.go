package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/structgen/internal/model"
)

func placementAt(id string, x int, at time.Time) model.Placement {
	anchor := model.NewLocation("world", x, 64, -x)
	return model.Placement{
		Structure: id,
		Anchor:    anchor,
		Bounds:    model.NewBounds(anchor.Pos.Add(-2, 0, -2), anchor.Pos.Add(2, 6, 2)),
		Biome:     model.Desert,
		PlacedAt:  at,
	}
}

func TestPlacementRepository_InsertAndRecent(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPlacementRepository(pool)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		require.NoError(t, repo.Insert(ctx, placementAt("tower", i*100, base.Add(time.Duration(i)*time.Minute))))
	}

	recent, err := repo.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	want := placementAt("tower", 400, base.Add(4*time.Minute))
	got := recent[0]
	assert.Equal(t, want.Structure, got.Structure)
	assert.Equal(t, want.Anchor, got.Anchor)
	assert.Equal(t, want.Bounds, got.Bounds)
	assert.Equal(t, want.Biome, got.Biome)
	assert.True(t, want.PlacedAt.Equal(got.PlacedAt))

	assert.Equal(t, 300, recent[1].Anchor.Pos.X)
	assert.Equal(t, 200, recent[2].Anchor.Pos.X)
}

func TestPlacementRepository_CountByStructure(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPlacementRepository(pool)
	ctx := context.Background()

	now := time.Now()
	for i, id := range []string{"tower", "well", "tower", "tower", "hut"} {
		require.NoError(t, repo.Insert(ctx, placementAt(id, i, now)))
	}

	counts, err := repo.CountByStructure(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"tower": 3, "well": 1, "hut": 1}, counts)
}

func TestPlacementRepository_Empty(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewPlacementRepository(pool)

	recent, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)

	counts, err := repo.CountByStructure(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, RunMigrations(context.Background(), testDSN))
}
