// Package nbody implements the spatial index and physics kernels of the
// simulator: the point-region quadtree, the Barnes-Hut gravity
// approximation, and the pairwise elastic-collision resolver. These three
// pieces are kept in one package because the quadtree needs Body to insert
// and query, and the gravity/collision kernels need the quadtree to
// traverse — splitting them further would just reintroduce the circularity
// the original implementation resolved by putting them in the same crate.
package nbody

// small is the squared-distance singularity guard. Below this, force
// contributions and energy-correction ratios are skipped rather than
// risking a division blow-up.
const small = 1e-5

// Vec2 is a 2D real vector, used for position, velocity and force.
type Vec2 = [2]float64

// SquareBox is an axis-aligned square region described by its center and
// half-side length.
type SquareBox struct {
	Center   Vec2
	HalfSize float64
}

// NewSquareBox builds a square centered at center with the given half-side.
func NewSquareBox(center Vec2, halfSize float64) SquareBox {
	return SquareBox{Center: center, HalfSize: halfSize}
}

func (b SquareBox) XMin() float64 { return b.Center[0] - b.HalfSize }
func (b SquareBox) XMax() float64 { return b.Center[0] + b.HalfSize }
func (b SquareBox) YMin() float64 { return b.Center[1] - b.HalfSize }
func (b SquareBox) YMax() float64 { return b.Center[1] + b.HalfSize }

// Size returns the full side length of the square.
func (b SquareBox) Size() float64 { return b.HalfSize * 2 }

// Contains reports whether point lies within the box, closed on all four
// edges.
func (b SquareBox) Contains(point Vec2) bool {
	return b.XMin() <= point[0] && point[0] <= b.XMax() &&
		b.YMin() <= point[1] && point[1] <= b.YMax()
}

// ContainsBox reports whether other is fully contained within b, closed on
// all four edges of both boxes.
func (b SquareBox) ContainsBox(other SquareBox) bool {
	return b.XMin() <= other.XMin() && other.XMax() <= b.XMax() &&
		b.YMin() <= other.YMin() && other.YMax() <= b.YMax()
}

// Quadrant indices, fixed layout for the four children of a node.
const (
	QuadNE = 0
	QuadNW = 1
	QuadSW = 2
	QuadSE = 3
)

// QuadrantOf returns the quadrant a point assumed to be inside b falls
// into. The tie-break is asymmetric by contract: strict > on y, strict < on
// x in the lower half, so a point exactly on a subdivision boundary always
// descends the same way.
func (b SquareBox) QuadrantOf(point Vec2) int {
	x, y := point[0], point[1]
	if y > b.Center[1] {
		if x > b.Center[0] {
			return QuadNE
		}
		return QuadNW
	}
	if x < b.Center[0] {
		return QuadSW
	}
	return QuadSE
}

func (b SquareBox) NorthEast() SquareBox {
	h := b.HalfSize / 2
	return SquareBox{Center: Vec2{b.Center[0] + h, b.Center[1] + h}, HalfSize: h}
}

func (b SquareBox) NorthWest() SquareBox {
	h := b.HalfSize / 2
	return SquareBox{Center: Vec2{b.Center[0] - h, b.Center[1] + h}, HalfSize: h}
}

func (b SquareBox) SouthWest() SquareBox {
	h := b.HalfSize / 2
	return SquareBox{Center: Vec2{b.Center[0] - h, b.Center[1] - h}, HalfSize: h}
}

func (b SquareBox) SouthEast() SquareBox {
	h := b.HalfSize / 2
	return SquareBox{Center: Vec2{b.Center[0] + h, b.Center[1] - h}, HalfSize: h}
}

// SquareBoxFromBodies returns the smallest square centered on the midpoint
// of bodies' bounding rectangle whose half-side is half the larger of the
// rectangle's two extents. The caller must not call this with an empty
// slice; the simulation skips stepping when there are no bodies.
func SquareBoxFromBodies(bodies []Body) SquareBox {
	xMin, xMax := bodies[0].Position[0], bodies[0].Position[0]
	yMin, yMax := bodies[0].Position[1], bodies[0].Position[1]
	for _, b := range bodies[1:] {
		x, y := b.Position[0], b.Position[1]
		if x < xMin {
			xMin = x
		}
		if x > xMax {
			xMax = x
		}
		if y < yMin {
			yMin = y
		}
		if y > yMax {
			yMax = y
		}
	}
	halfSize := (xMax - xMin)
	if dy := yMax - yMin; dy > halfSize {
		halfSize = dy
	}
	halfSize /= 2
	return SquareBox{
		Center:   Vec2{(xMin + xMax) / 2, (yMin + yMax) / 2},
		HalfSize: halfSize,
	}
}
