package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/structgen/internal/model"
)

// PlacementRepository journals structure placements. Write-mostly: the spawn
// registry never reads it back.
type PlacementRepository struct {
	pool *pgxpool.Pool
}

// NewPlacementRepository creates a new placement repository
func NewPlacementRepository(pool *pgxpool.Pool) *PlacementRepository {
	return &PlacementRepository{pool: pool}
}

// Insert appends one placement.
func (r *PlacementRepository) Insert(ctx context.Context, p model.Placement) error {
	query := `
		INSERT INTO placements (structure, world, x, y, z, min_x, min_y, min_z, max_x, max_y, max_z, biome, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	a, b := p.Anchor.Pos, p.Bounds
	_, err := r.pool.Exec(ctx, query,
		p.Structure, p.Anchor.World, a.X, a.Y, a.Z,
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z,
		string(p.Biome), p.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting placement %s at %s: %w", p.Structure, p.Anchor, err)
	}
	return nil
}

// Recent returns up to limit placements, newest first.
func (r *PlacementRepository) Recent(ctx context.Context, limit int) ([]model.Placement, error) {
	query := `
		SELECT structure, world, x, y, z, min_x, min_y, min_z, max_x, max_y, max_z, biome, placed_at
		FROM placements
		ORDER BY placed_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("loading recent placements: %w", err)
	}
	defer rows.Close()

	out := make([]model.Placement, 0, limit)
	for rows.Next() {
		var (
			p     model.Placement
			biome string
		)
		a, b := &p.Anchor.Pos, &p.Bounds
		if err := rows.Scan(
			&p.Structure, &p.Anchor.World, &a.X, &a.Y, &a.Z,
			&b.Min.X, &b.Min.Y, &b.Min.Z, &b.Max.X, &b.Max.Y, &b.Max.Z,
			&biome, &p.PlacedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning placement row: %w", err)
		}
		p.Biome = model.Biome(biome)
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating placement rows: %w", err)
	}
	return out, nil
}

// CountByStructure returns the number of journaled placements per structure ID.
func (r *PlacementRepository) CountByStructure(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT structure, COUNT(*) FROM placements GROUP BY structure`)
	if err != nil {
		return nil, fmt.Errorf("counting placements: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			id string
			n  int64
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scanning placement count: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating placement counts: %w", err)
	}
	return counts, nil
}
