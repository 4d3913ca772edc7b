package main

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func at(id string, x, y float64) *Player {
	p := NewPlayer(id, id)
	p.X, p.Y = x, y
	return p
}

func TestResolveBodiesCoincident(t *testing.T) {
	a := at("a", 0, 0)
	b := at("b", 0, 0)
	ResolveBodies([]*Player{a, b})

	if d := Distance(a.X, a.Y, b.X, b.Y); d != ContactRadius {
		t.Errorf("expected separation %f, got %f", ContactRadius, d)
	}
	if a.X != -25 || b.X != 25 || a.Y != 0 || b.Y != 0 {
		t.Errorf("expected symmetric split along X, got a=(%f,%f) b=(%f,%f)", a.X, a.Y, b.X, b.Y)
	}
}

func TestResolveBodiesSpeedShare(t *testing.T) {
	a := at("a", 0, 0)
	b := at("b", 30, 0)
	b.VX = 10

	ResolveBodies([]*Player{a, b})

	// The still body absorbs the whole overlap
	if math.Abs(a.X+20) > 1e-9 {
		t.Errorf("expected a at -20, got %f", a.X)
	}
	if b.X != 30 {
		t.Errorf("expected moving body to stay at 30, got %f", b.X)
	}
}

func TestResolveBodiesNoOverlap(t *testing.T) {
	a := at("a", 0, 0)
	b := at("b", 50, 0)
	ResolveBodies([]*Player{a, b})
	if a.X != 0 || b.X != 50 {
		t.Error("touching bodies should not move")
	}
}

func TestResolveBodiesSkipsInvulnerable(t *testing.T) {
	a := at("a", 0, 0)
	b := at("b", 10, 0)
	b.UseAbility("invul", AbilityParams{})
	ResolveBodies([]*Player{a, b})
	if a.X != 0 || b.X != 10 {
		t.Error("invulnerable body should pass through")
	}
}

func TestResolveBodiesSkipsDead(t *testing.T) {
	a := at("a", 0, 0)
	b := at("b", 10, 0)
	b.Alive = false
	ResolveBodies([]*Player{a, b})
	if a.X != 0 || b.X != 10 {
		t.Error("dead body should not collide")
	}
}

func TestResolveBodiesSeparatesPair(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := at("a", rapid.Float64Range(-100, 100).Draw(t, "ax"), rapid.Float64Range(-100, 100).Draw(t, "ay"))
		b := at("b", rapid.Float64Range(-100, 100).Draw(t, "bx"), rapid.Float64Range(-100, 100).Draw(t, "by"))
		a.VX = rapid.Float64Range(-10, 10).Draw(t, "avx")
		b.VY = rapid.Float64Range(-10, 10).Draw(t, "bvy")

		ResolveBodies([]*Player{a, b})

		if d := Distance(a.X, a.Y, b.X, b.Y); d < ContactRadius-1e-6 {
			t.Fatalf("bodies still overlap: d=%f", d)
		}
	})
}

func TestResolvePushLowestID(t *testing.T) {
	pusher := at("a", 0, 0)
	c := at("c", 60, 0)
	b := at("b", 0, 60)
	pusher.UseAbility("push", AbilityParams{})

	hits := ResolvePushes([]*Player{pusher, c, b})

	if len(hits) != 1 || hits[0].TargetID != "b" {
		t.Fatalf("expected single hit on b, got %+v", hits)
	}
	if b.Y != 60+PushKnockback {
		t.Errorf("expected b at y=%f, got %f", 60+PushKnockback, b.Y)
	}
	if c.X != 60 {
		t.Errorf("c should not move, got x=%f", c.X)
	}
	if pusher.Has(EffectPushing) {
		t.Error("push should be consumed")
	}
	if again := ResolvePushes([]*Player{pusher, c, b}); len(again) != 0 {
		t.Errorf("consumed push fired again: %+v", again)
	}
}

func TestResolvePushOutOfRange(t *testing.T) {
	pusher := at("a", 0, 0)
	target := at("b", PushRange+1, 0)
	pusher.UseAbility("push", AbilityParams{})

	if hits := ResolvePushes([]*Player{pusher, target}); len(hits) != 0 {
		t.Fatalf("expected no hit, got %+v", hits)
	}
	if !pusher.Has(EffectPushing) {
		t.Error("unfired push should stay armed")
	}
}

func TestResolvePushSkipsInvulnerableTarget(t *testing.T) {
	pusher := at("c", 0, 0)
	shielded := at("a", 40, 0)
	open := at("b", 80, 0)
	shielded.UseAbility("invul", AbilityParams{})
	pusher.UseAbility("push", AbilityParams{})

	hits := ResolvePushes([]*Player{pusher, shielded, open})
	if len(hits) != 1 || hits[0].TargetID != "b" {
		t.Fatalf("expected hit on b, got %+v", hits)
	}
	if shielded.X != 40 {
		t.Error("invulnerable target moved")
	}
}

func TestResolvePushInvulnerablePusher(t *testing.T) {
	pusher := at("a", 0, 0)
	target := at("b", 40, 0)
	pusher.UseAbility("push", AbilityParams{})
	pusher.UseAbility("invul", AbilityParams{})

	if hits := ResolvePushes([]*Player{pusher, target}); len(hits) != 0 {
		t.Fatalf("expected no hit, got %+v", hits)
	}
	if target.X != 40 || target.Y != 0 {
		t.Errorf("target moved to (%f, %f)", target.X, target.Y)
	}
	if !pusher.Has(EffectPushing) {
		t.Error("push should stay armed while invulnerable")
	}
}

func TestCheckBounds(t *testing.T) {
	inside := at("in", 500, 0)
	outside := at("out", 0, -500.5)
	dead := at("dead", 900, 0)
	dead.Alive = false

	out := CheckBounds([]*Player{inside, outside, dead}, 500)

	if len(out) != 1 || out[0] != "out" {
		t.Fatalf("expected [out], got %v", out)
	}
	if !inside.Alive {
		t.Error("player on the boundary should survive")
	}
	if outside.Alive {
		t.Error("player past the boundary should be eliminated")
	}
}
