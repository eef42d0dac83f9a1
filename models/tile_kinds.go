package models

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
)

// tileKind is the behaviour table entry for one tile variant.
type tileKind struct {
	name         func(t *Tile) string
	description  string
	slipperiness float64
	diggable     bool

	randomize  func(t *Tile, rng *rand.Rand)
	writeExtra func(t *Tile, w FieldWriter)
	readExtra  func(t *Tile, r FieldReader)
	fileExtra  func(t *Tile) []string
	parseExtra func(t *Tile, fields []string) error

	// operations lists kind-specific actions, most relevant first.
	operations func(t *Tile, tool *Item) []Operation
	dig        func(t *Tile, rng *rand.Rand, skills *SkillSet) DigResult
	natureTick func(t *Tile, rng *rand.Rand) bool
}

func fixedName(name string) func(*Tile) string {
	return func(*Tile) string { return name }
}

var tileKinds = map[TileKind]*tileKind{
	TileBlank: {
		name:         fixedName("blank tile"),
		description:  "A completely blank tile, made of dark matter.",
		slipperiness: 0.80,
		diggable:     true,
	},
	TileDirt: {
		name:         fixedName("dirt"),
		description:  "Moist soil, great for growing crops on.",
		slipperiness: 0.77,
		diggable:     true,
		operations: func(t *Tile, tool *Item) []Operation {
			if tool.Is(ItemShovel) {
				return []Operation{OpDig}
			}
			return nil
		},
		dig: func(t *Tile, rng *rand.Rand, skills *SkillSet) DigResult {
			return DigResult{Yield: digYield(ItemDirt, rng, skills)}
		},
	},
	TileGrass: {
		name:         fixedName("grass"),
		description:  "Wild, lush grass grows here.",
		slipperiness: 0.72,
		diggable:     true,
		randomize: func(t *Tile, rng *rand.Rand) {
			t.Fruitful = rng.Intn(2) == 0
		},
		writeExtra: func(t *Tile, w FieldWriter) {
			w.WriteBool(t.Fruitful)
		},
		readExtra: func(t *Tile, r FieldReader) {
			t.Fruitful = r.ReadBool()
		},
		fileExtra: func(t *Tile) []string {
			return []string{strconv.FormatBool(t.Fruitful)}
		},
		parseExtra: func(t *Tile, fields []string) error {
			if len(fields) < 1 {
				return fmt.Errorf("grass tile: expected 1 field, got %d", len(fields))
			}
			v, err := strconv.ParseBool(fields[0])
			if err != nil {
				return fmt.Errorf("grass tile fruitful: %w", err)
			}
			t.Fruitful = v
			return nil
		},
		operations: func(t *Tile, tool *Item) []Operation {
			var ops []Operation
			if t.Fruitful {
				ops = append(ops, OpForage)
			}
			if tool.Is(ItemShovel) {
				ops = append(ops, OpDig, OpCultivate)
			}
			return ops
		},
		dig: func(t *Tile, rng *rand.Rand, skills *SkillSet) DigResult {
			return DigResult{Replace: true, ReplaceWith: TileDirt, Yield: digYield(ItemDirt, rng, skills)}
		},
		natureTick: func(t *Tile, rng *rand.Rand) bool {
			if t.Fruitful || rng.Intn(2) != 0 {
				return false
			}
			t.Fruitful = true
			return true
		},
	},
	TileTree: {
		name:         treeName,
		description:  "Wild, lush grass grows here. A tree is also here.",
		slipperiness: 0.71,
		diggable:     false,
		randomize: func(t *Tile, rng *rand.Rand) {
			t.Fruitful = rng.Intn(2) == 0
			t.TreeCorner = RandomCorner(rng)
			t.TreeRotation = rng.Float64() * 2 * math.Pi
		},
		writeExtra: func(t *Tile, w FieldWriter) {
			w.WriteBool(t.Fruitful)
			w.WriteFloat64(t.TreeRotation)
			w.WriteInt32(int32(t.TreeCorner))
			w.WriteInt32(int32(t.Growth))
		},
		readExtra: func(t *Tile, r FieldReader) {
			t.Fruitful = r.ReadBool()
			t.TreeRotation = r.ReadFloat64()
			t.TreeCorner = cornerOrDefault(r.ReadInt32())
			t.Growth = clampGrowth(int(r.ReadInt32()))
		},
		fileExtra: func(t *Tile) []string {
			return []string{
				strconv.FormatBool(t.Fruitful),
				strconv.FormatFloat(t.TreeRotation, 'g', -1, 64),
				strconv.Itoa(int(t.TreeCorner)),
				strconv.Itoa(t.Growth),
			}
		},
		parseExtra: func(t *Tile, fields []string) error {
			if len(fields) < 3 {
				return fmt.Errorf("tree tile: expected at least 3 fields, got %d", len(fields))
			}
			fruitful, err := strconv.ParseBool(fields[0])
			if err != nil {
				return fmt.Errorf("tree tile fruitful: %w", err)
			}
			rotation, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return fmt.Errorf("tree tile rotation: %w", err)
			}
			corner, err := strconv.Atoi(fields[2])
			if err != nil {
				return fmt.Errorf("tree tile corner: %w", err)
			}
			t.Fruitful = fruitful
			t.TreeRotation = rotation
			t.TreeCorner = cornerOrDefault(int32(corner))
			// Older saves have no growth field.
			if len(fields) > 3 {
				growth, err := strconv.Atoi(fields[3])
				if err != nil {
					return fmt.Errorf("tree tile growth: %w", err)
				}
				t.Growth = clampGrowth(growth)
			}
			return nil
		},
		operations: func(t *Tile, tool *Item) []Operation {
			var ops []Operation
			if t.Fruitful {
				ops = append(ops, OpForage)
			}
			if tool.Is(ItemHatchet) {
				ops = append(ops, OpCutDown)
			}
			return ops
		},
		natureTick: func(t *Tile, rng *rand.Rand) bool {
			if t.Growth >= MaxTreeGrowth {
				return false
			}
			t.Growth++
			return true
		},
	},
	TileFarmland: {
		name:         fixedName("farmland"),
		description:  "A section of land designed to grow crops.",
		slipperiness: 0.72,
		diggable:     true,
		operations: func(t *Tile, tool *Item) []Operation {
			if tool.Is(ItemShovel) {
				return []Operation{OpCultivate}
			}
			return nil
		},
		dig: func(t *Tile, rng *rand.Rand, skills *SkillSet) DigResult {
			return DigResult{Replace: true, ReplaceWith: TileDirt, Yield: digYield(ItemDirt, rng, skills)}
		},
	},
	TileSand: {
		name:         fixedName("sand"),
		description:  "Coarse sand, littered with rocks and shells.",
		slipperiness: 0.71,
		diggable:     true,
		operations: func(t *Tile, tool *Item) []Operation {
			if tool.Is(ItemShovel) {
				return []Operation{OpDig}
			}
			return nil
		},
		dig: func(t *Tile, rng *rand.Rand, skills *SkillSet) DigResult {
			return DigResult{Yield: digYield(ItemSand, rng, skills)}
		},
	},
}

// MaxTreeGrowth is the final growth stage of a tree.
const MaxTreeGrowth = 5

var treeStages = [MaxTreeGrowth + 1]string{"sprouting", "young", "mature", "old", "very old", "dead"}

func treeName(t *Tile) string {
	if t.Growth < 0 || t.Growth > MaxTreeGrowth {
		return "tree"
	}
	return treeStages[t.Growth] + " tree"
}

func clampGrowth(g int) int {
	if g < 0 {
		return 0
	}
	if g > MaxTreeGrowth {
		return MaxTreeGrowth
	}
	return g
}

func cornerOrDefault(v int32) Corner {
	c := Corner(v)
	if !c.valid() {
		return TopLeft
	}
	return c
}

// digYield creates the resource item dug out of a tile. Quality scales with
// the digger's skill.
func digYield(kind ItemKind, rng *rand.Rand, skills *SkillSet) *Item {
	level := 0.0
	if skills != nil {
		level = skills.Digging.Level
	}
	return NewItem(kind, MaterialNone, float32(rng.Float64()*level), 0)
}

func kindOf(kind TileKind) *tileKind {
	if k, ok := tileKinds[kind]; ok {
		return k
	}
	return tileKinds[TileBlank]
}
