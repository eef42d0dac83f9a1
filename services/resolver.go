package services

import (
	"errors"
	"fmt"
	"math/rand"

	"tilecraft/server/models"
)

var (
	ErrActionInProgress = errors.New("an action is already in progress")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrOutOfBounds      = errors.New("target outside the world")
)

// Outcome is what resolving an action did to the world. Tiles and Dropped
// must be relayed to the server by the caller.
type Outcome struct {
	Notifications []string
	Tiles         []models.Point
	Dropped       []*models.Item
}

func (o *Outcome) notify(lines ...string) {
	o.Notifications = append(o.Notifications, lines...)
}

// Resolver applies finished timed actions to a world
type Resolver struct {
	rules models.ActionRules
}

// NewResolver creates a resolver using the given action table
func NewResolver(rules models.ActionRules) *Resolver {
	return &Resolver{rules: rules}
}

// Rules returns the action table the resolver was built with
func (r *Resolver) Rules() models.ActionRules {
	return r.rules
}

// Resolve performs a on w for w's player. Skill experience is granted before
// the success roll, so failed attempts still train.
func (r *Resolver) Resolve(w *models.World, rng *rand.Rand, a models.Action) (Outcome, error) {
	var out Outcome
	if w.Player == nil {
		return out, errors.New("world has no player")
	}
	fail := rng.Float64() > a.Chance

	var err error
	switch a.Op {
	case models.OpExamine:
		err = r.examine(w, a, fail, &out)
	case models.OpDig:
		err = r.dig(w, rng, fail, &out)
	case models.OpForage:
		err = r.forage(w, rng, a, fail, &out)
	case models.OpCultivate:
		err = r.cultivate(w, rng, a, fail, &out)
	case models.OpCutDown:
		err = r.cutDown(w, rng, a, fail, &out)
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownOperation, a.Op)
	}
	return out, err
}

func (r *Resolver) examine(w *models.World, a models.Action, fail bool, out *Outcome) error {
	var description string
	if a.Target == models.TargetItem {
		if a.Item == nil {
			return errors.New("examine: no item")
		}
		description = a.Item.Description()
	} else {
		t, ok := w.Tile(a.Tile.X, a.Tile.Z)
		if !ok {
			return fmt.Errorf("examine %v: %w", a.Tile, ErrOutOfBounds)
		}
		description = t.Description()
	}
	if !fail {
		out.notify(description)
	}
	return nil
}

// dig lowers the corner of the quadrant the player stands in, not the
// selected tile.
func (r *Resolver) dig(w *models.World, rng *rand.Rand, fail bool, out *Outcome) error {
	p := w.Player
	out.notify(p.Skills.Digging.Increase(rng)...)
	if fail {
		out.notify("You fail to dig anything up.")
		return nil
	}

	at, corner, ok := w.Quadrant(p.Position.X, p.Position.Z)
	if !ok {
		return fmt.Errorf("dig at (%.2f, %.2f): %w", p.Position.X, p.Position.Z, ErrOutOfBounds)
	}
	t, _ := w.Tile(at.X, at.Z)
	if !t.Diggable {
		out.notify("The ground here is too hard to dig.")
		return nil
	}

	res := t.Dig(rng, &p.Skills)
	if res.Replace {
		w.ReplaceTile(at.X, at.Z, res.ReplaceWith, rng)
	}
	w.ChangeHeight(at.X, at.Z, corner, -1)
	out.Tiles = append(out.Tiles, w.Neighbourhood(at, 1)...)

	dug := "dirt"
	if res.Yield != nil {
		dug = res.Yield.Name()
	}
	out.notify("You excavate some " + dug + ".")
	if res.Yield != nil {
		r.give(w, res.Yield, out)
	}
	return nil
}

func (r *Resolver) forage(w *models.World, rng *rand.Rand, a models.Action, fail bool, out *Outcome) error {
	out.notify(w.Player.Skills.Foraging.Increase(rng)...)
	t, ok := w.Tile(a.Tile.X, a.Tile.Z)
	if !ok {
		return fmt.Errorf("forage %v: %w", a.Tile, ErrOutOfBounds)
	}
	// The tile may have been picked clean by someone else since the menu opened
	if fail || !t.Fruitful {
		out.notify("You fail to find anything of use.")
		return nil
	}

	item := models.ForagedItem(rng)
	t.Fruitful = false
	out.Tiles = append(out.Tiles, a.Tile)
	out.notify("You find a " + item.Name() + "!")
	r.give(w, item, out)
	return nil
}

func (r *Resolver) cultivate(w *models.World, rng *rand.Rand, a models.Action, fail bool, out *Outcome) error {
	skills := &w.Player.Skills
	out.notify(skills.Farming.Increase(rng)...)
	out.notify(skills.Digging.Increase(rng)...)
	if fail {
		return nil
	}
	if !w.ReplaceTile(a.Tile.X, a.Tile.Z, models.TileDirt, rng) {
		return fmt.Errorf("cultivate %v: %w", a.Tile, ErrOutOfBounds)
	}
	out.Tiles = append(out.Tiles, a.Tile)
	out.notify("The tile is now cultivated.")
	return nil
}

func (r *Resolver) cutDown(w *models.World, rng *rand.Rand, a models.Action, fail bool, out *Outcome) error {
	out.notify(w.Player.Skills.Woodcutting.Increase(rng)...)
	if fail {
		return nil
	}
	if !w.ReplaceTile(a.Tile.X, a.Tile.Z, models.TileGrass, rng) {
		return fmt.Errorf("cut down %v: %w", a.Tile, ErrOutOfBounds)
	}
	out.Tiles = append(out.Tiles, a.Tile)
	out.notify("You cut down the tree.")
	return nil
}

// give puts item in the player's inventory, or on the ground at their feet
// when it does not fit.
func (r *Resolver) give(w *models.World, item *models.Item, out *Outcome) {
	p := w.Player
	if p.Inventory.Store(item) {
		return
	}
	w.AddItem(item, float32(p.Position.X), float32(p.Position.Z))
	out.Dropped = append(out.Dropped, item)
	out.notify("Your inventory is full. You drop the " + item.Name() + ".")
}
