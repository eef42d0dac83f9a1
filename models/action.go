package models

import (
	"fmt"
	"math"
)

// TickRate is the number of simulation ticks per second.
const TickRate = 60

// Operation is the kind of thing an action does.
type Operation int

const (
	OpExamine Operation = iota
	OpDig
	OpCultivate
	OpCutDown
	OpForage
)

func (o Operation) String() string {
	switch o {
	case OpExamine:
		return "Examine"
	case OpDig:
		return "Dig"
	case OpCultivate:
		return "Cultivate"
	case OpCutDown:
		return "Cut down"
	case OpForage:
		return "Forage"
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// Verb is the progressive form shown while the action is in progress.
func (o Operation) Verb() string {
	switch o {
	case OpExamine:
		return "Examining"
	case OpDig:
		return "Digging"
	case OpCultivate:
		return "Cultivating"
	case OpCutDown:
		return "Cutting down"
	case OpForage:
		return "Foraging"
	}
	return "Working"
}

// BaseDuration is the unskilled duration of the operation in seconds.
func (o Operation) BaseDuration() float64 {
	switch o {
	case OpDig:
		return 1.0
	case OpCultivate:
		return 4.0
	case OpCutDown:
		return 7.5
	case OpForage:
		return 5.0
	}
	return 0
}

// Skill is the skill whose level speeds up the operation.
func (o Operation) Skill() (SkillKind, bool) {
	switch o {
	case OpDig:
		return SkillDigging, true
	case OpCultivate:
		return SkillFarming, true
	case OpCutDown:
		return SkillWoodcutting, true
	case OpForage:
		return SkillForaging, true
	}
	return 0, false
}

// TargetType tells which of Action.Tile or Action.Item is meaningful.
type TargetType int

const (
	TargetTile TargetType = iota
	TargetItem
)

// Point is an integer tile coordinate.
type Point struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Action is an immutable request to perform an operation on a tile or item.
type Action struct {
	Op     Operation
	Target TargetType
	Tile   Point
	Item   *Item
	Chance float64
}

// Label is the context menu entry text. Uncertain actions show their chance.
func (a Action) Label() string {
	if a.Chance < 1 {
		return fmt.Sprintf("%s (%d%%)", a.Op, int(math.Round(a.Chance*100)))
	}
	return a.Op.String()
}

// ActionRules holds the tunable parts of the action table.
type ActionRules struct {
	DigChance float64
}

// DefaultActionRules returns the stock action table.
func DefaultActionRules() ActionRules {
	return ActionRules{DigChance: 1.0}
}

// Chance is the success probability of op for a player with the given skills.
func (r ActionRules) Chance(op Operation, skills *SkillSet) float64 {
	switch op {
	case OpForage:
		return 0.5 + skills.Foraging.Level*0.004
	case OpDig:
		return r.DigChance
	}
	return 1.0
}

// Duration is the skill-scaled duration of op in seconds.
func (r ActionRules) Duration(op Operation, skills *SkillSet) float64 {
	base := op.BaseDuration()
	if kind, ok := op.Skill(); ok {
		return base * skills.Get(kind).TimeMultiplier()
	}
	return base
}

// NewTileAction creates an action targeting the tile at p.
func (r ActionRules) NewTileAction(op Operation, p Point, skills *SkillSet) Action {
	return Action{Op: op, Target: TargetTile, Tile: p, Chance: r.Chance(op, skills)}
}

// NewItemAction creates an action targeting item.
func (r ActionRules) NewItemAction(op Operation, item *Item, skills *SkillSet) Action {
	return Action{Op: op, Target: TargetItem, Item: item, Chance: r.Chance(op, skills)}
}

// TimedAction is an action in flight. It resolves once Age reaches Lifetime.
type TimedAction struct {
	Action
	Lifetime float64
	Age      float64
}

// NewTimedAction wraps a with its skill-scaled duration.
func (r ActionRules) NewTimedAction(a Action, skills *SkillSet) *TimedAction {
	return &TimedAction{Action: a, Lifetime: r.Duration(a.Op, skills)}
}

// Tick advances the action by one simulation tick and reports whether it is due.
func (t *TimedAction) Tick() bool {
	t.Age += 1.0 / TickRate
	return t.Done()
}

// Done reports whether the action has run its full lifetime.
func (t *TimedAction) Done() bool {
	return t.Age >= t.Lifetime
}

// Progress is the completed fraction in [0, 1].
func (t *TimedAction) Progress() float64 {
	if t.Lifetime <= 0 {
		return 1
	}
	return math.Min(t.Age/t.Lifetime, 1)
}

// ContextMenu is the list of actions offered for a selected tile or item.
type ContextMenu struct {
	Title   string
	Actions []Action
}

// TileMenu builds the context menu for the tile at p. It reports false when
// p is outside the world.
func (r ActionRules) TileMenu(w *World, p Point, skills *SkillSet, tool *Item) (ContextMenu, bool) {
	t, ok := w.Tile(p.X, p.Z)
	if !ok {
		return ContextMenu{}, false
	}
	menu := ContextMenu{Title: t.Name()}
	for _, op := range t.Operations(tool) {
		menu.Actions = append(menu.Actions, r.NewTileAction(op, p, skills))
	}
	return menu, true
}

// ItemMenu builds the context menu for an item.
func (r ActionRules) ItemMenu(item *Item, skills *SkillSet) ContextMenu {
	return ContextMenu{
		Title:   item.Name(),
		Actions: []Action{r.NewItemAction(OpExamine, item, skills)},
	}
}
