package models

import (
	"fmt"
	"math/rand"
)

const (
	// NatureInterval is the number of ticks between nature sweeps.
	NatureInterval = 54000
	// RayStep is the distance a selection ray advances per step.
	RayStep = 0.05
	// RaySteps caps the selection march.
	RaySteps = 150
)

// WorldData is the serialisable state of a world: the tile grid in x-major
// order (index x*Height+z) and the ground items.
type WorldData struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Tiles  []Tile  `json:"tiles"`
	Items  []*Item `json:"items"`
}

// Index returns the position of tile (x, z) in Tiles.
func (d *WorldData) Index(x, z int) int {
	return x*d.Height + z
}

// World is the tile grid, the ground items and the player.
type World struct {
	Width  int
	Height int
	Items  []*Item
	Player *Player

	// Authoritative worlds run nature sweeps. Clients receive the results.
	Authoritative bool

	tiles         []Tile
	natureCounter int
}

// NewWorld creates a width x height world of flat blank tiles with the
// player standing in the middle.
func NewWorld(width, height int) *World {
	w := &World{
		Width:  width,
		Height: height,
		tiles:  make([]Tile, width*height),
	}
	for i := range w.tiles {
		w.tiles[i] = baseTile(TileBlank)
	}
	w.Player = NewPlayer(float64(width)*TileWidth/2, float64(height)*TileWidth/2)
	return w
}

// FromData builds a world from a snapshot. The snapshot's tiles are copied.
func FromData(d *WorldData) (*World, error) {
	if d.Width <= 0 || d.Height <= 0 {
		return nil, fmt.Errorf("invalid world size %dx%d", d.Width, d.Height)
	}
	if len(d.Tiles) != d.Width*d.Height {
		return nil, fmt.Errorf("world %dx%d has %d tiles", d.Width, d.Height, len(d.Tiles))
	}
	w := NewWorld(d.Width, d.Height)
	copy(w.tiles, d.Tiles)
	w.Items = append([]*Item(nil), d.Items...)
	return w, nil
}

// Snapshot copies the grid and the item list into a WorldData.
func (w *World) Snapshot() *WorldData {
	return &WorldData{
		Width:  w.Width,
		Height: w.Height,
		Tiles:  append([]Tile(nil), w.tiles...),
		Items:  append([]*Item(nil), w.Items...),
	}
}

// InBounds reports whether (x, z) is a grid cell.
func (w *World) InBounds(x, z int) bool {
	return x >= 0 && z >= 0 && x < w.Width && z < w.Height
}

// Tile returns the tile at (x, z) for in-place mutation.
func (w *World) Tile(x, z int) (*Tile, bool) {
	if !w.InBounds(x, z) {
		return nil, false
	}
	return &w.tiles[x*w.Height+z], true
}

// SetTile overwrites the tile at (x, z) wholesale.
func (w *World) SetTile(x, z int, t Tile) bool {
	if !w.InBounds(x, z) {
		return false
	}
	w.tiles[x*w.Height+z] = t
	return true
}

// ReplaceTile changes the kind of the tile at (x, z) keeping its corner heights.
func (w *World) ReplaceTile(x, z int, kind TileKind, rng *rand.Rand) bool {
	old, ok := w.Tile(x, z)
	if !ok {
		return false
	}
	t := NewTile(kind, rng)
	t.Heights = old.Heights
	*old = t
	return true
}

// ChangeHeight adds delta to a corner of tile (x, z) and to the same grid
// corner of every neighbour sharing it. Tiles outside the world are skipped,
// so a grid point on the edge can be moved from an out-of-bounds tile. It
// returns the tiles it changed.
func (w *World) ChangeHeight(x, z int, c Corner, delta int) []Point {
	if !c.valid() {
		return nil
	}
	dx, dz := c.Displacement()
	sharing := []struct {
		x, z int
		c    Corner
	}{
		{x, z, c},
		{x + dx, z, c.SwapHorizontal()},
		{x, z + dz, c.SwapVertical()},
		{x + dx, z + dz, c.SwapHorizontal().SwapVertical()},
	}
	var changed []Point
	for _, n := range sharing {
		t, ok := w.Tile(n.x, n.z)
		if !ok {
			continue
		}
		t.ChangeHeight(n.c, delta)
		changed = append(changed, Point{X: n.x, Z: n.z})
	}
	return changed
}

// locate splits a world position into a tile coordinate and the fractional
// position inside that tile.
func (w *World) locate(x, z float64) (p Point, fx, fz float64, ok bool) {
	if x < 0 || z < 0 {
		return Point{}, 0, 0, false
	}
	gx, gz := x/TileWidth, z/TileWidth
	p = Point{X: int(gx), Z: int(gz)}
	if !w.InBounds(p.X, p.Z) {
		return Point{}, 0, 0, false
	}
	return p, gx - float64(p.X), gz - float64(p.Z), true
}

// Quadrant returns the tile under a world position and the corner whose
// quadrant contains it.
func (w *World) Quadrant(x, z float64) (Point, Corner, bool) {
	p, fx, fz, ok := w.locate(x, z)
	if !ok {
		return Point{}, TopLeft, false
	}
	return p, quadrantCorner(fx, fz), true
}

func quadrantCorner(fx, fz float64) Corner {
	switch {
	case fx < 0.5 && fz < 0.5:
		return TopLeft
	case fz < 0.5:
		return TopRight
	case fx < 0.5:
		return BottomLeft
	}
	return BottomRight
}

func squash(f float64) float64 {
	if f < 0.5 {
		return f * 2
	}
	return (f - 0.5) * 2
}

// HeightAt samples the terrain surface at a world position. Each tile is
// split into four quadrants spanning a corner, two side midpoints and the
// tile centre; each quadrant is split into two triangles. Positions outside
// the grid have height 0.
func (w *World) HeightAt(x, z float64) float64 {
	p, fx, fz, ok := w.locate(x, z)
	if !ok {
		return 0
	}
	t, _ := w.Tile(p.X, p.Z)

	tl := float64(t.Heights[TopLeft])
	tr := float64(t.Heights[TopRight])
	bl := float64(t.Heights[BottomLeft])
	br := float64(t.Heights[BottomRight])
	avg := t.AverageHeight()
	north, south := t.SideHeight(North), t.SideHeight(South)
	west, east := t.SideHeight(West), t.SideHeight(East)

	// z0..z3 are the sub-square's top-left, top-right, bottom-left and
	// bottom-right heights. Flipped squares split along z0-z3.
	var z0, z1, z2, z3 float64
	var flipped bool
	switch quadrantCorner(fx, fz) {
	case TopLeft:
		z0, z1, z2, z3, flipped = tl, north, west, avg, true
	case TopRight:
		z0, z1, z2, z3 = north, tr, avg, east
	case BottomLeft:
		z0, z1, z2, z3 = west, avg, bl, south
	case BottomRight:
		z0, z1, z2, z3, flipped = avg, east, south, br, true
	}

	sqX, sqZ := squash(fx), squash(fz)
	var h float64
	if flipped {
		if sqX < sqZ {
			h = z2 + (z3-z2)*sqX + (z0-z2)*(1-sqZ)
		} else {
			h = z1 + (z0-z1)*(1-sqX) + (z3-z1)*sqZ
		}
	} else {
		if sqX+sqZ < 1 {
			h = z0 + (z1-z0)*sqX + (z2-z0)*sqZ
		} else {
			h = z3 + (z1-z3)*(1-sqZ) + (z2-z3)*(1-sqX)
		}
	}
	return h * HeightStep
}

// TileUnder returns a copy of the tile under a world position, or a blank
// tile outside the grid.
func (w *World) TileUnder(x, z float64) Tile {
	p, _, _, ok := w.locate(x, z)
	if !ok {
		return baseTile(TileBlank)
	}
	t, _ := w.Tile(p.X, p.Z)
	return *t
}

// SelectedTile marches ray forward until it reaches the terrain and returns
// the tile it hit.
func (w *World) SelectedTile(ray Ray) (Point, bool) {
	for i := 0; i < RaySteps; i++ {
		p, _, _, ok := w.locate(ray.Position.X, ray.Position.Z)
		if !ok {
			return Point{}, false
		}
		if ray.Position.Y <= w.HeightAt(ray.Position.X, ray.Position.Z) {
			return p, true
		}
		ray.MoveForward(RayStep)
	}
	return Point{}, false
}

// Update advances the world one tick. On an authoritative world it also
// counts towards the next nature sweep and returns the tiles the sweep changed.
func (w *World) Update(rng *rand.Rand, in Input) []Point {
	if w.Player != nil {
		w.Player.Update(w, in)
	}
	if !w.Authoritative {
		return nil
	}
	w.natureCounter++
	if w.natureCounter < NatureInterval {
		return nil
	}
	w.natureCounter = 0
	return w.TickNature(rng)
}

// TickNature runs every tile's nature hook and returns the tiles that changed.
func (w *World) TickNature(rng *rand.Rand) []Point {
	var changed []Point
	for x := 0; x < w.Width; x++ {
		for z := 0; z < w.Height; z++ {
			if w.tiles[x*w.Height+z].NatureTick(rng) {
				changed = append(changed, Point{X: x, Z: z})
			}
		}
	}
	return changed
}

// AddItem places item on the ground at (x, z).
func (w *World) AddItem(item *Item, x, z float32) {
	item.X, item.Z = x, z
	w.Items = append(w.Items, item)
}

// RemoveItem takes item off the ground. It reports whether it was there.
func (w *World) RemoveItem(item *Item) bool {
	for i, it := range w.Items {
		if it == item {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			return true
		}
	}
	return false
}

// ItemHeight is the terrain height under a ground item.
func (w *World) ItemHeight(item *Item) float64 {
	return w.HeightAt(float64(item.X), float64(item.Z))
}

// Neighbourhood returns the in-bounds tiles within radius of center,
// center included, in x-major order.
func (w *World) Neighbourhood(center Point, radius int) []Point {
	var out []Point
	for x := center.X - radius; x <= center.X+radius; x++ {
		for z := center.Z - radius; z <= center.Z+radius; z++ {
			if w.InBounds(x, z) {
				out = append(out, Point{X: x, Z: z})
			}
		}
	}
	return out
}
