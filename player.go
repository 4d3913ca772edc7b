package main

import (
	"math"
	"time"
)

const (
	PlayerAccel       = 0.5  // units/tick² from a full input vector
	PlayerFriction    = 0.9  // velocity multiplier per tick
	SprintAccelMul    = 2.0
	MaxSpeedNormal    = 8.0  // units/tick
	MaxSpeedSprinting = 15.0 // units/tick
	MaxSpeedSliding   = 30.0 // units/tick
	defaultPlayerName = "Player"
)

// Player is one participant's simulation state. It is owned by a single room
// worker and never shared.
type Player struct {
	ID       string
	Name     string
	X, Y     float64
	VX, VY   float64
	InputX   float64
	InputY   float64
	Alive    bool
	Ready    bool
	Cooldown map[AbilityType]time.Duration // remaining, never negative
	effects  [effectCount]time.Duration    // remaining active time per effect
}

// NewPlayer creates a player at the origin with every ability ready
func NewPlayer(id, name string) *Player {
	p := &Player{
		ID:       id,
		Name:     name,
		Alive:    true,
		Cooldown: make(map[AbilityType]time.Duration, len(Abilities)),
	}
	for _, def := range Abilities {
		p.Cooldown[def.Type] = 0
	}
	return p
}

// Reset prepares the player for a new round
func (p *Player) Reset() {
	p.VX, p.VY = 0, 0
	p.InputX, p.InputY = 0, 0
	p.Alive = true
	for _, def := range Abilities {
		p.Cooldown[def.Type] = 0
	}
	p.effects = [effectCount]time.Duration{}
}

// Has reports whether the effect is currently active
func (p *Player) Has(e Effect) bool {
	return p.effects[e] > 0
}

// ClearEffect ends an effect early
func (p *Player) ClearEffect(e Effect) {
	p.effects[e] = 0
}

// SetInput stores the latest movement intent, clamped per axis to [-1, 1]
func (p *Player) SetInput(x, y float64) {
	p.InputX = Clamp(finite(x), -1, 1)
	p.InputY = Clamp(finite(y), -1, 1)
}

// MaxSpeed returns the speed cap for the current effect state
func (p *Player) MaxSpeed() float64 {
	switch {
	case p.Has(EffectSliding):
		return MaxSpeedSliding
	case p.Has(EffectSprinting):
		return MaxSpeedSprinting
	default:
		return MaxSpeedNormal
	}
}

// Speed returns the current velocity magnitude
func (p *Player) Speed() float64 {
	return math.Sqrt(p.VX*p.VX + p.VY*p.VY)
}

// Update advances movement by one tick
func (p *Player) Update() {
	if !p.Alive {
		return
	}

	accel := PlayerAccel
	if p.Has(EffectSprinting) {
		accel *= SprintAccelMul
	}
	p.VX += p.InputX * accel
	p.VY += p.InputY * accel

	p.VX *= PlayerFriction
	p.VY *= PlayerFriction

	maxSpd := p.MaxSpeed()
	speed := p.Speed()
	if speed > maxSpd {
		scale := maxSpd / speed
		p.VX *= scale
		p.VY *= scale
	}

	p.X += p.VX
	p.Y += p.VY
}

// Tick decays cooldowns and effect timers by dt, clamping at zero
func (p *Player) Tick(dt time.Duration) {
	for k, cd := range p.Cooldown {
		if cd > 0 {
			cd -= dt
			if cd < 0 {
				cd = 0
			}
			p.Cooldown[k] = cd
		}
	}
	for i := range p.effects {
		if p.effects[i] > 0 {
			p.effects[i] -= dt
			if p.effects[i] < 0 {
				p.effects[i] = 0
			}
		}
	}
}

// UseAbility activates the named ability. It returns false, with no side
// effects, if the ability is unknown or still cooling down.
func (p *Player) UseAbility(name string, params AbilityParams) bool {
	def, ok := LookupAbility(name)
	if !ok {
		return false
	}
	if p.Cooldown[def.Type] > 0 {
		return false
	}

	p.Cooldown[def.Type] = def.Cooldown
	// Re-activation restarts the timer rather than extending it
	p.effects[def.Effect] = def.Duration

	if def.Type == AbilitySlide {
		p.slide(params)
	}
	return true
}

// slide sets velocity to a fixed impulse along the requested direction, or
// along current motion when no direction is given
func (p *Player) slide(params AbilityParams) {
	nx, ny, l := Normalize(finite(params.DirX), finite(params.DirY))
	if l == 0 {
		nx, ny, l = Normalize(p.VX, p.VY)
	}
	if l == 0 {
		return
	}
	p.VX = nx * SlideSpeed
	p.VY = ny * SlideSpeed
}

// ToState converts to a protocol snapshot. The cooldown map is copied.
func (p *Player) ToState() PlayerState {
	cds := make(map[string]int64, len(p.Cooldown))
	for k, v := range p.Cooldown {
		cds[string(k)] = v.Milliseconds()
	}
	return PlayerState{
		ID:           p.ID,
		Name:         p.Name,
		X:            p.X,
		Y:            p.Y,
		VX:           p.VX,
		VY:           p.VY,
		Alive:        p.Alive,
		Ready:        p.Ready,
		Sprinting:    p.Has(EffectSprinting),
		Sliding:      p.Has(EffectSliding),
		Invulnerable: p.Has(EffectInvulnerable),
		Cooldowns:    cds,
	}
}
