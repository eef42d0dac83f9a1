package services

import (
	"math/rand"

	"tilecraft/server/models"
)

// PlayerService tracks the local player's single timed action
type PlayerService struct {
	resolver *Resolver
	pending  *models.TimedAction
}

// NewPlayerService creates a new player service
func NewPlayerService(resolver *Resolver) *PlayerService {
	return &PlayerService{resolver: resolver}
}

// Rules returns the action table used to build menus and durations
func (ps *PlayerService) Rules() models.ActionRules {
	return ps.resolver.Rules()
}

// Begin starts a. Only one action may run at a time.
func (ps *PlayerService) Begin(a models.Action, skills *models.SkillSet) (*models.TimedAction, error) {
	if ps.pending != nil {
		return nil, ErrActionInProgress
	}
	ps.pending = ps.resolver.Rules().NewTimedAction(a, skills)
	return ps.pending, nil
}

// Pending returns the action in flight, if any
func (ps *PlayerService) Pending() *models.TimedAction {
	return ps.pending
}

// Cancel drops the action in flight without resolving it
func (ps *PlayerService) Cancel() {
	ps.pending = nil
}

// Tick ages the pending action and resolves it against w once it is due.
// It reports whether an action was resolved this tick.
func (ps *PlayerService) Tick(w *models.World, rng *rand.Rand) (Outcome, bool, error) {
	if ps.pending == nil || !ps.pending.Tick() {
		return Outcome{}, false, nil
	}
	a := ps.pending.Action
	ps.pending = nil
	out, err := ps.resolver.Resolve(w, rng, a)
	return out, true, err
}
