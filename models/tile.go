package models

import (
	"math/rand"
)

const (
	// TileWidth is the on-edge width of every tile in world units.
	TileWidth = 4.0
	// HeightStep is the world height represented by one corner height unit.
	HeightStep = 0.20
)

// Corner names one of the four height points of a tile.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

// Corners lists every corner in index order.
var Corners = [4]Corner{TopLeft, TopRight, BottomLeft, BottomRight}

// SwapHorizontal returns the corner mirrored across the tile's vertical axis.
func (c Corner) SwapHorizontal() Corner {
	switch c {
	case TopLeft:
		return TopRight
	case TopRight:
		return TopLeft
	case BottomLeft:
		return BottomRight
	case BottomRight:
		return BottomLeft
	}
	return TopLeft
}

// SwapVertical returns the corner mirrored across the tile's horizontal axis.
func (c Corner) SwapVertical() Corner {
	switch c {
	case TopLeft:
		return BottomLeft
	case BottomLeft:
		return TopLeft
	case TopRight:
		return BottomRight
	case BottomRight:
		return TopRight
	}
	return TopLeft
}

// Displacement is the direction of the neighbouring tiles that share this corner.
func (c Corner) Displacement() (dx, dz int) {
	switch c {
	case TopLeft:
		return -1, -1
	case TopRight:
		return 1, -1
	case BottomLeft:
		return -1, 1
	case BottomRight:
		return 1, 1
	}
	return 0, 0
}

func (c Corner) valid() bool {
	return c >= TopLeft && c <= BottomRight
}

// RandomCorner picks a corner uniformly.
func RandomCorner(rng *rand.Rand) Corner {
	return Corners[rng.Intn(len(Corners))]
}

// Side names an edge of a tile.
type Side int

const (
	West  Side = iota // towards -X
	East              // towards +X
	North             // towards -Z
	South             // towards +Z
)

// TileKind discriminates tile variants. The value is the tile's network code.
type TileKind int32

const (
	TileBlank    TileKind = 0
	TileDirt     TileKind = 1
	TileGrass    TileKind = 2
	TileTree     TileKind = 3
	TileFarmland TileKind = 4
	TileSand     TileKind = 5
)

// Tile is a single cell of the world grid.
type Tile struct {
	Kind     TileKind `json:"kind"`
	Heights  [4]int   `json:"heights"`
	Fruitful bool     `json:"fruitful"`
	Diggable bool     `json:"diggable"`

	// Tree state
	Growth       int     `json:"growth,omitempty"`
	TreeCorner   Corner  `json:"tree_corner,omitempty"`
	TreeRotation float64 `json:"tree_rotation,omitempty"`
}

// NewTile creates a tile of the given kind with flat heights. Kinds with random
// sub-state (grass fruitfulness, tree placement) draw it from rng.
func NewTile(kind TileKind, rng *rand.Rand) Tile {
	t := baseTile(kind)
	if k := kindOf(t.Kind); k.randomize != nil && rng != nil {
		k.randomize(&t, rng)
	}
	return t
}

// baseTile returns the deterministic defaults of a kind. Unknown kinds become blank.
func baseTile(kind TileKind) Tile {
	if _, ok := tileKinds[kind]; !ok {
		kind = TileBlank
	}
	return Tile{
		Kind:     kind,
		Diggable: kindOf(kind).diggable,
	}
}

// Height returns the height of the given corner.
func (t Tile) Height(c Corner) int {
	if !c.valid() {
		return 0
	}
	return t.Heights[c]
}

// ChangeHeight adds delta to a single corner of this tile only.
// Use World.ChangeHeight to keep neighbouring tiles consistent.
func (t *Tile) ChangeHeight(c Corner, delta int) {
	if !c.valid() {
		return
	}
	t.Heights[c] += delta
}

// AverageHeight is the height of the tile centre, in height units.
func (t Tile) AverageHeight() float64 {
	sum := 0
	for _, h := range t.Heights {
		sum += h
	}
	return float64(sum) / float64(len(t.Heights))
}

// SideHeight is the height of the midpoint of a side, in height units.
func (t Tile) SideHeight(s Side) float64 {
	var a, b Corner
	switch s {
	case West:
		a, b = TopLeft, BottomLeft
	case East:
		a, b = TopRight, BottomRight
	case North:
		a, b = TopLeft, TopRight
	case South:
		a, b = BottomLeft, BottomRight
	default:
		return 0
	}
	return float64(t.Heights[a]+t.Heights[b]) / 2.0
}

// Name is the short display name of the tile.
func (t Tile) Name() string {
	return kindOf(t.Kind).name(&t)
}

// Description is the text shown when the tile is examined.
func (t Tile) Description() string {
	return kindOf(t.Kind).description
}

// Slipperiness is the per-tick velocity retention of entities on this tile.
func (t Tile) Slipperiness() float64 {
	return kindOf(t.Kind).slipperiness
}

// NatureTick applies the slow growth hook. It reports whether the tile changed.
func (t *Tile) NatureTick(rng *rand.Rand) bool {
	k := kindOf(t.Kind)
	if k.natureTick == nil {
		return false
	}
	return k.natureTick(t, rng)
}

// Operations lists what can be done to the tile with the given tool in hand.
// Examine is always first.
func (t Tile) Operations(tool *Item) []Operation {
	ops := []Operation{OpExamine}
	if k := kindOf(t.Kind); k.operations != nil {
		ops = append(ops, k.operations(&t, tool)...)
	}
	return ops
}

// Dig runs the kind's dig hook. The caller applies the result to the world.
func (t *Tile) Dig(rng *rand.Rand, skills *SkillSet) DigResult {
	k := kindOf(t.Kind)
	if k.dig == nil {
		return DigResult{}
	}
	return k.dig(t, rng, skills)
}

// DigResult describes what digging a tile produced.
type DigResult struct {
	Replace     bool
	ReplaceWith TileKind
	Yield       *Item
}
