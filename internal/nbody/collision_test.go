package nbody

import (
	"math"
	"testing"
)

func TestResolveCollisions_HeadOnElastic(t *testing.T) {
	bodies := []Body{
		{Position: Vec2{-0.45, 0}, Velocity: Vec2{1, 0}, Mass: 1, Radius: 0.5},
		{Position: Vec2{0.45, 0}, Velocity: Vec2{-1, 0}, Mass: 1, Radius: 0.5},
	}
	keBefore := bodies[0].KineticEnergy() + bodies[1].KineticEnergy()

	tree := buildTree(bodies, 8)
	n := ResolveCollisions(bodies, tree)
	if n != 1 {
		t.Fatalf("expected 1 collision, got %d", n)
	}

	if bodies[0].Velocity[0] >= 0 {
		t.Errorf("expected body A velocity to reverse, got %v", bodies[0].Velocity)
	}
	if bodies[1].Velocity[0] <= 0 {
		t.Errorf("expected body B velocity to reverse, got %v", bodies[1].Velocity)
	}

	keAfter := bodies[0].KineticEnergy() + bodies[1].KineticEnergy()
	if rel := math.Abs(keAfter-keBefore) / keBefore; rel > 1e-10 {
		t.Errorf("kinetic energy not conserved: before %v, after %v (rel err %v)", keBefore, keAfter, rel)
	}

	dist := math.Hypot(bodies[1].Position[0]-bodies[0].Position[0], bodies[1].Position[1]-bodies[0].Position[1])
	wantDist := bodies[0].Radius + bodies[1].Radius
	if math.Abs(dist-wantDist) > 1e-9 {
		t.Errorf("post-collision separation = %v, want %v", dist, wantDist)
	}
}

func TestResolveCollisions_NoContactNoChange(t *testing.T) {
	bodies := []Body{
		{Position: Vec2{-5, 0}, Velocity: Vec2{1, 0}, Mass: 1, Radius: 0.1},
		{Position: Vec2{5, 0}, Velocity: Vec2{-1, 0}, Mass: 1, Radius: 0.1},
	}
	tree := buildTree(bodies, 8)
	if n := ResolveCollisions(bodies, tree); n != 0 {
		t.Errorf("expected 0 collisions for bodies out of range, got %d", n)
	}
	if bodies[0].Velocity != (Vec2{1, 0}) {
		t.Errorf("body A velocity changed unexpectedly: %v", bodies[0].Velocity)
	}
}

func TestResolveCollisions_EachBodyAtMostOnce(t *testing.T) {
	// Three bodies clustered so that all pairs are in contact; only one
	// collision should be resolved per body per pass.
	bodies := []Body{
		{Position: Vec2{0, 0}, Velocity: Vec2{1, 0}, Mass: 1, Radius: 0.6},
		{Position: Vec2{0.5, 0}, Velocity: Vec2{-1, 0}, Mass: 1, Radius: 0.6},
		{Position: Vec2{-0.5, 0}, Velocity: Vec2{0, 1}, Mass: 1, Radius: 0.6},
	}
	tree := buildTree(bodies, 8)
	n := ResolveCollisions(bodies, tree)
	if n != 1 {
		t.Errorf("expected exactly 1 collision among a 3-way cluster, got %d", n)
	}
}
