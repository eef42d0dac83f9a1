package models

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
)

var (
	// ErrUnknownItemKind is returned when a record carries an unregistered item code.
	ErrUnknownItemKind = errors.New("unknown item kind")
	// ErrItemTooDeep is returned when stored items nest deeper than MaxItemDepth.
	ErrItemTooDeep = errors.New("items nested too deeply")
	// ErrContainerFull is returned when a record stores more than its container holds.
	ErrContainerFull = errors.New("container cannot hold item")
)

// MaxItemDepth is how many storage levels a single item record may nest.
const MaxItemDepth = 4

// ItemKind discriminates item variants. The value is the item's network code.
type ItemKind int32

const (
	ItemBranch      ItemKind = 1
	ItemCorn        ItemKind = 2
	ItemDirt        ItemKind = 3
	ItemHatchet     ItemKind = 4
	ItemPlank       ItemKind = 5
	ItemPotato      ItemKind = 6
	ItemSand        ItemKind = 7
	ItemShovel      ItemKind = 8
	ItemSmallBarrel ItemKind = 9
	ItemStorage     ItemKind = 10
)

// Material is what an item is made of.
type Material int32

const (
	MaterialOakWood Material = iota
	MaterialRock
	MaterialNone
)

func (m Material) String() string {
	switch m {
	case MaterialOakWood:
		return "oak"
	case MaterialRock:
		return "rock"
	}
	return ""
}

type capacity struct {
	maxVolume float32
	maxCount  int
}

type itemKind struct {
	name        string
	description string
	weight      float32
	volume      float32
	hasMaterial bool
	storage     *capacity
}

var itemKinds = map[ItemKind]*itemKind{
	ItemBranch:      {name: "branch", description: "A thin branch snapped from a tree.", weight: 0.25, volume: 0.5, hasMaterial: true},
	ItemCorn:        {name: "corn", description: "An ear of sweet corn.", weight: 0.1, volume: 0.2},
	ItemDirt:        {name: "dirt", description: "A heap of loose, damp soil.", weight: 20, volume: 50},
	ItemHatchet:     {name: "hatchet", description: "A small axe, handy for felling trees.", weight: 1.5, volume: 2, hasMaterial: true},
	ItemPlank:       {name: "plank", description: "A flat length of sawn timber.", weight: 2, volume: 4, hasMaterial: true},
	ItemPotato:      {name: "potato", description: "A small, starchy vegetable used in cooking.", weight: 0.4, volume: 0.3},
	ItemSand:        {name: "sand", description: "A pile of coarse sand.", weight: 20, volume: 50},
	ItemShovel:      {name: "shovel", description: "A useful tool for digging and terraforming.", weight: 1.5, volume: 3, hasMaterial: true},
	ItemSmallBarrel: {name: "small barrel", description: "A small barrel for keeping things in.", weight: 5, volume: 60, hasMaterial: true, storage: &capacity{maxVolume: 40, maxCount: 100}},
	ItemStorage:     {name: "container", description: "Something to keep things in.", weight: 1, volume: 1, hasMaterial: true, storage: &capacity{}},
}

// Item is a portable object, either held in a Container or lying on the ground.
type Item struct {
	Kind     ItemKind `json:"kind"`
	Material Material `json:"material"`
	Quality  float32  `json:"quality"`
	Damage   float32  `json:"damage"`
	Weight   float32  `json:"weight"`
	Volume   float32  `json:"volume"`

	// Ground placement, meaningful only while the item is in World.Items.
	X        float32 `json:"x"`
	Z        float32 `json:"z"`
	Rotation float32 `json:"rotation"`

	Storage *Container `json:"storage,omitempty"`
}

// NewItem builds an item with the fixed profile of its kind. Quality is
// clamped to [1, 100] and damage to [0, 100].
func NewItem(kind ItemKind, material Material, quality, damage float32) *Item {
	item := &Item{
		Kind:     kind,
		Material: material,
		Quality:  clamp32(quality, 1, 100),
		Damage:   clamp32(damage, 0, 100),
	}
	if k, ok := itemKinds[kind]; ok {
		item.Weight = k.weight
		item.Volume = k.volume
		if k.storage != nil {
			item.Storage = NewContainer(k.storage.maxVolume, k.storage.maxCount)
		}
	}
	return item
}

// KnownItemKind reports whether kind has an entry in the item table.
func KnownItemKind(kind ItemKind) bool {
	_, ok := itemKinds[kind]
	return ok
}

// Is reports whether the item is non-nil and of the given kind.
func (i *Item) Is(kind ItemKind) bool {
	return i != nil && i.Kind == kind
}

// Name is the display name, including the material when it has one.
func (i *Item) Name() string {
	k, ok := itemKinds[i.Kind]
	if !ok {
		return "unknown"
	}
	if m := i.Material.String(); m != "" && k.hasMaterial {
		return k.name + ", " + m
	}
	return k.name
}

// Description is the text shown when the item is examined.
func (i *Item) Description() string {
	if k, ok := itemKinds[i.Kind]; ok {
		return k.description
	}
	return "You are not sure what this is."
}

// WriteExtra writes the variant-specific network fields.
func (i *Item) WriteExtra(w FieldWriter) {
	k, ok := itemKinds[i.Kind]
	if !ok {
		return
	}
	if k.hasMaterial {
		w.WriteInt32(int32(i.Material))
	}
	if k.storage != nil {
		var contents []*Item
		if i.Storage != nil {
			contents = i.Storage.Items
		}
		w.WriteInt32(int32(len(contents)))
		for _, inner := range contents {
			WriteItem(w, inner)
		}
	}
}

// ReadExtra reads the variant-specific network fields written by WriteExtra.
func (i *Item) ReadExtra(r FieldReader) error {
	return i.readExtra(r, 0)
}

func (i *Item) readExtra(r FieldReader, depth int) error {
	k, ok := itemKinds[i.Kind]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownItemKind, i.Kind)
	}
	if k.hasMaterial {
		i.Material = Material(r.ReadInt32())
	}
	if k.storage != nil {
		n := int(r.ReadInt32())
		if err := r.Err(); err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("negative item count %d", n)
		}
		for j := 0; j < n; j++ {
			inner, err := readItem(r, depth+1)
			if err != nil {
				return err
			}
			if err := i.StoreNested(inner); err != nil {
				return err
			}
		}
	}
	return r.Err()
}

// StoreNested puts a decoded item into this item's storage, failing when the
// container limits would be broken.
func (i *Item) StoreNested(inner *Item) error {
	if i.Storage == nil || !i.Storage.Store(inner) {
		return fmt.Errorf("%w: %s in %s", ErrContainerFull, inner.Name(), i.Name())
	}
	return nil
}

// FileExtra returns the variant-specific fields of the item's file record.
// Storage kinds also report how many nested records follow.
func (i *Item) FileExtra() []string {
	k, ok := itemKinds[i.Kind]
	if !ok {
		return nil
	}
	var fields []string
	if k.hasMaterial {
		fields = append(fields, strconv.Itoa(int(i.Material)))
	}
	if k.storage != nil {
		n := 0
		if i.Storage != nil {
			n = len(i.Storage.Items)
		}
		fields = append(fields, strconv.Itoa(n))
	}
	return fields
}

// ParseFileExtra applies fields produced by FileExtra and returns the number
// of nested item records that follow.
func (i *Item) ParseFileExtra(fields []string) (int, error) {
	k, ok := itemKinds[i.Kind]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownItemKind, i.Kind)
	}
	idx := 0
	next := func(what string) (int, error) {
		if idx >= len(fields) {
			return 0, fmt.Errorf("%s: missing %s field", k.name, what)
		}
		v, err := strconv.Atoi(fields[idx])
		idx++
		if err != nil {
			return 0, fmt.Errorf("%s %s: %w", k.name, what, err)
		}
		return v, nil
	}
	if k.hasMaterial {
		m, err := next("material")
		if err != nil {
			return 0, err
		}
		i.Material = Material(m)
	}
	if k.storage != nil {
		return next("count")
	}
	return 0, nil
}

// WriteItem writes a full network item record: code, quality, damage, extras.
func WriteItem(w FieldWriter, item *Item) {
	w.WriteInt32(int32(item.Kind))
	w.WriteFloat32(item.Quality)
	w.WriteFloat32(item.Damage)
	item.WriteExtra(w)
}

// ReadItem reads a network item record written by WriteItem. Stored items
// may nest at most MaxItemDepth levels.
func ReadItem(r FieldReader) (*Item, error) {
	return readItem(r, 0)
}

func readItem(r FieldReader, depth int) (*Item, error) {
	if depth > MaxItemDepth {
		return nil, ErrItemTooDeep
	}
	kind := ItemKind(r.ReadInt32())
	quality := r.ReadFloat32()
	damage := r.ReadFloat32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	if !KnownItemKind(kind) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownItemKind, kind)
	}
	item := NewItem(kind, MaterialNone, quality, damage)
	if err := item.readExtra(r, depth); err != nil {
		return nil, err
	}
	return item, nil
}

var forageable = []ItemKind{ItemPotato, ItemBranch, ItemCorn}

// ForagedItem produces one item from the forage pool at a random quality.
func ForagedItem(rng *rand.Rand) *Item {
	quality := float32(1 + rng.Float64()*89)
	kind := forageable[rng.Intn(len(forageable))]
	return NewItem(kind, MaterialNone, quality, 0)
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
