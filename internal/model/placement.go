package model

import "time"

// Placement is one successful structure placement, as journaled for operators.
type Placement struct {
	Structure string
	Anchor    Location
	Bounds    Bounds
	Biome     Biome
	PlacedAt  time.Time
}
