package main

import "time"

// AbilityType identifies an ability by its wire name
type AbilityType string

const (
	AbilityPush   AbilityType = "push"
	AbilitySprint AbilityType = "sprint"
	AbilitySlide  AbilityType = "slide"
	AbilityInvul  AbilityType = "invul"
)

// Effect is a transient flag raised by an ability
type Effect int

const (
	EffectPushing Effect = iota
	EffectSprinting
	EffectSliding
	EffectInvulnerable
	effectCount
)

// Ability cooldowns and effect durations
const (
	PushCooldown   = 3000 * time.Millisecond
	PushDuration   = 100 * time.Millisecond
	SprintCooldown = 10000 * time.Millisecond
	SprintDuration = 3000 * time.Millisecond
	SlideCooldown  = 3000 * time.Millisecond
	SlideDuration  = 400 * time.Millisecond
	InvulCooldown  = 20000 * time.Millisecond
	InvulDuration  = 3000 * time.Millisecond
	SlideSpeed     = 25.0
	PushRange      = 100.0
	PushKnockback  = 50.0
)

// AbilityDef describes the fixed timings of one ability
type AbilityDef struct {
	Type     AbilityType
	Cooldown time.Duration
	Effect   Effect
	Duration time.Duration
}

// Abilities lists every ability in wire order
var Abilities = []AbilityDef{
	{AbilityPush, PushCooldown, EffectPushing, PushDuration},
	{AbilitySprint, SprintCooldown, EffectSprinting, SprintDuration},
	{AbilitySlide, SlideCooldown, EffectSliding, SlideDuration},
	{AbilityInvul, InvulCooldown, EffectInvulnerable, InvulDuration},
}

// abilityAliases maps alternative client names to canonical ones
var abilityAliases = map[string]AbilityType{
	"invulnerability": AbilityInvul,
}

// LookupAbility resolves a wire name to its definition
func LookupAbility(name string) (AbilityDef, bool) {
	if alias, ok := abilityAliases[name]; ok {
		name = string(alias)
	}
	for _, def := range Abilities {
		if string(def.Type) == name {
			return def, true
		}
	}
	return AbilityDef{}, false
}

// AbilityParams carries optional activation arguments
type AbilityParams struct {
	DirX, DirY float64
}
