package nbody

import "testing"

func TestQuadrantOf_UnitBox(t *testing.T) {
	box := NewSquareBox(Vec2{0, 0}, 0.5)

	cases := []struct {
		point Vec2
		want  int
	}{
		{Vec2{0.5, 0.5}, QuadNE},
		{Vec2{-0.5, 0.5}, QuadNW},
		{Vec2{-0.5, -0.5}, QuadSW},
		{Vec2{0.5, -0.5}, QuadSE},
	}
	for _, c := range cases {
		if got := box.QuadrantOf(c.point); got != c.want {
			t.Errorf("QuadrantOf(%v) = %d, want %d", c.point, got, c.want)
		}
	}
}

func TestSquareBox_Contains(t *testing.T) {
	box := NewSquareBox(Vec2{0, 0}, 1)
	if !box.Contains(Vec2{1, 1}) {
		t.Error("expected edge point to be contained")
	}
	if box.Contains(Vec2{1.01, 0}) {
		t.Error("expected point outside box to be rejected")
	}
}

func TestSquareBox_ContainsBox(t *testing.T) {
	outer := NewSquareBox(Vec2{0, 0}, 2)
	inner := NewSquareBox(Vec2{1, 1}, 0.5)
	if !outer.ContainsBox(inner) {
		t.Error("expected outer to contain inner")
	}
	if inner.ContainsBox(outer) {
		t.Error("expected inner not to contain outer")
	}
}

func TestSquareBoxFromBodies(t *testing.T) {
	bodies := []Body{
		{Position: Vec2{-2, 0}},
		{Position: Vec2{2, 1}},
		{Position: Vec2{0, -3}},
	}
	box := SquareBoxFromBodies(bodies)
	for _, b := range bodies {
		if !box.Contains(b.Position) {
			t.Errorf("bounding box %+v does not contain %v", box, b.Position)
		}
	}
}
