package model

import "fmt"

// BlockPos is an integer block coordinate. Y is vertical.
// Value type, passed by value (immutable).
type BlockPos struct {
	X int
	Y int
	Z int
}

// Pos creates a BlockPos.
func Pos(x, y, z int) BlockPos {
	return BlockPos{X: x, Y: y, Z: z}
}

// Add returns p shifted by the given deltas.
func (p BlockPos) Add(dx, dy, dz int) BlockPos {
	return BlockPos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Below returns the position one block under p.
func (p BlockPos) Below() BlockPos {
	p.Y--
	return p
}

// HorizontalDistanceSquared returns squared XZ distance (no sqrt).
func (p BlockPos) HorizontalDistanceSquared(other BlockPos) int64 {
	dx := int64(p.X - other.X)
	dz := int64(p.Z - other.Z)
	return dx*dx + dz*dz
}

func (p BlockPos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Location is a block position inside a named world.
type Location struct {
	World string
	Pos   BlockPos
}

// NewLocation creates a Location.
func NewLocation(world string, x, y, z int) Location {
	return Location{World: world, Pos: Pos(x, y, z)}
}

// WithPos returns a copy of l moved to pos (immutable pattern).
func (l Location) WithPos(pos BlockPos) Location {
	l.Pos = pos
	return l
}

func (l Location) String() string {
	return l.World + l.Pos.String()
}

// Bounds is an axis-aligned box, both corners inclusive.
type Bounds struct {
	Min BlockPos
	Max BlockPos
}

// NewBounds builds Bounds from two arbitrary corners.
func NewBounds(a, b BlockPos) Bounds {
	return Bounds{
		Min: BlockPos{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)},
		Max: BlockPos{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)},
	}
}

// Size returns the box extent along each axis.
func (b Bounds) Size() (dx, dy, dz int) {
	return b.Max.X - b.Min.X + 1, b.Max.Y - b.Min.Y + 1, b.Max.Z - b.Min.Z + 1
}

// Volume returns the number of cells in the box.
func (b Bounds) Volume() int {
	dx, dy, dz := b.Size()
	return dx * dy * dz
}

// Contains reports whether p lies inside the box.
func (b Bounds) Contains(p BlockPos) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}
