package main

import (
	"math"
	"sort"
)

// ContactRadius is the minimum center distance between two bodies
const ContactRadius = 50.0

// separationNormal returns the unit vector from (x1,y1) toward (x2,y2) and
// the distance. Coincident points get the +X axis.
func separationNormal(x1, y1, x2, y2 float64) (nx, ny, d float64) {
	dx := x2 - x1
	dy := y2 - y1
	d = math.Sqrt(dx*dx + dy*dy)
	if d == 0 {
		return 1, 0, 0
	}
	return dx / d, dy / d, d
}

// byID returns the living players sorted by ascending id
func byID(players []*Player) []*Player {
	out := make([]*Player, 0, len(players))
	for _, p := range players {
		if p.Alive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ResolveBodies separates every overlapping pair of living, vulnerable players.
// Each side absorbs a share of the overlap proportional to the other side's
// speed, so the faster body is displaced less.
func ResolveBodies(players []*Player) {
	live := byID(players)
	for i := 0; i < len(live); i++ {
		for j := i + 1; j < len(live); j++ {
			a, b := live[i], live[j]
			if a.Has(EffectInvulnerable) || b.Has(EffectInvulnerable) {
				continue
			}
			nx, ny, d := separationNormal(a.X, a.Y, b.X, b.Y)
			if d >= ContactRadius {
				continue
			}
			overlap := ContactRadius - d

			sa, sb := a.Speed(), b.Speed()
			shareA, shareB := 0.5, 0.5
			if total := sa + sb; total > 0 {
				shareA = sb / total
				shareB = sa / total
			}

			a.X -= nx * overlap * shareA
			a.Y -= ny * overlap * shareA
			b.X += nx * overlap * shareB
			b.Y += ny * overlap * shareB
		}
	}
}

// ResolvePushes applies knockback from every player whose pushing flag is set.
// A push displaces one target, the in-range target with the lowest id, and is
// consumed when it fires.
func ResolvePushes(players []*Player) []Knockback {
	live := byID(players)
	var hits []Knockback
	for _, pusher := range live {
		if !pusher.Has(EffectPushing) || pusher.Has(EffectInvulnerable) {
			continue
		}
		for _, target := range live {
			if target == pusher || target.Has(EffectInvulnerable) {
				continue
			}
			nx, ny, d := separationNormal(pusher.X, pusher.Y, target.X, target.Y)
			if d > PushRange {
				continue
			}
			target.X += nx * PushKnockback
			target.Y += ny * PushKnockback
			pusher.ClearEffect(EffectPushing)
			hits = append(hits, Knockback{PusherID: pusher.ID, TargetID: target.ID})
			break
		}
	}
	return hits
}

// Knockback records one resolved push
type Knockback struct {
	PusherID string
	TargetID string
}

// CheckBounds marks every living player outside the arena as eliminated and
// returns their ids in room order
func CheckBounds(players []*Player, radius float64) []string {
	var out []string
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if Distance(0, 0, p.X, p.Y) > radius {
			p.Alive = false
			out = append(out, p.ID)
		}
	}
	return out
}
