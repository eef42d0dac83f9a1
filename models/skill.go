package models

import "math/rand"

// SkillGainMultiplier scales every skill gain.
const SkillGainMultiplier = 5.0

// SkillKind names a trainable skill.
type SkillKind int

const (
	SkillDigging SkillKind = iota
	SkillFarming
	SkillWoodcutting
	SkillForaging
)

func (k SkillKind) String() string {
	switch k {
	case SkillDigging:
		return "Digging"
	case SkillFarming:
		return "Farming"
	case SkillWoodcutting:
		return "Woodcutting"
	case SkillForaging:
		return "Foraging"
	}
	return "Blank Skill"
}

// Skill is a single skill level in [0, 100].
type Skill struct {
	Kind  SkillKind `json:"kind"`
	Level float64   `json:"level"`
}

// NewSkill creates a skill with its starting level clamped to [0, 100].
func NewSkill(kind SkillKind, level float64) Skill {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	return Skill{Kind: kind, Level: level}
}

// Name is the display name of the skill.
func (s Skill) Name() string {
	return s.Kind.String()
}

// TimeMultiplier scales action durations; 1.0 at level 0, 0.25 at level 100.
func (s Skill) TimeMultiplier() float64 {
	return 1.0 - s.Level*0.0075
}

var skillTiers = []struct {
	level  float64
	format func(name string) string
}{
	{25, func(n string) string { return "You have reached apprentice level in " + n + "." }},
	{50, func(n string) string { return "You have reached adept level in " + n + "." }},
	{75, func(n string) string { return "You have reached expert level in " + n + "." }},
	{100, func(n string) string { return "You have become a master in " + n + "!" }},
}

// Increase trains the skill once and returns one notification per tier
// boundary crossed by this gain. After any gain the level is at least 1.
func (s *Skill) Increase(rng *rand.Rand) []string {
	gain := (0.1/((s.Level+100)/100) + rng.Float64()*0.01) * SkillGainMultiplier
	previous := s.Level
	s.Level += gain
	if s.Level > 100 {
		s.Level = 100
	}
	if s.Level < 1 {
		s.Level = 1
	}

	var notes []string
	for _, tier := range skillTiers {
		if previous < tier.level && s.Level >= tier.level {
			notes = append(notes, tier.format(s.Name()))
		}
	}
	return notes
}

// SkillSet holds every skill of a player.
type SkillSet struct {
	Digging     Skill `json:"digging"`
	Farming     Skill `json:"farming"`
	Woodcutting Skill `json:"woodcutting"`
	Foraging    Skill `json:"foraging"`
}

// NewSkillSet starts every skill at base.
func NewSkillSet(base float64) SkillSet {
	return SkillSet{
		Digging:     NewSkill(SkillDigging, base),
		Farming:     NewSkill(SkillFarming, base),
		Woodcutting: NewSkill(SkillWoodcutting, base),
		Foraging:    NewSkill(SkillForaging, base),
	}
}

// Get returns the skill of the given kind.
func (s *SkillSet) Get(kind SkillKind) *Skill {
	switch kind {
	case SkillDigging:
		return &s.Digging
	case SkillFarming:
		return &s.Farming
	case SkillWoodcutting:
		return &s.Woodcutting
	case SkillForaging:
		return &s.Foraging
	}
	return nil
}
