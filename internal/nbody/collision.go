package nbody

import "math"

// ResolveCollisions detects and resolves pairwise elastic collisions among
// bodies, using tree (already built over bodies' current positions) to
// narrow the candidate set for each body. Indices are visited in order;
// once a body appears in the resolved set — whether as the driving body or
// as a partner — it is skipped for the remainder of the pass, so each body
// participates in at most one collision and the earliest-encountered
// partner wins. Returns the number of pairs an impulse was actually applied
// to; contact pairs already separating on approach are still marked
// resolved (so neither body is considered again this pass) but are not
// counted as a physical collision.
func ResolveCollisions(bodies []Body, tree *Quadtree) int {
	collided := make(map[int]bool, len(bodies))
	count := 0

	for i := range bodies {
		if collided[i] {
			continue
		}
		region := SquareBox{Center: bodies[i].Position, HalfSize: 2 * bodies[i].Radius}
		for _, j := range tree.QueryRange(region, bodies) {
			if j == i || collided[j] {
				continue
			}
			contact, impulseApplied := resolvePair(bodies, i, j, collided)
			if contact {
				if impulseApplied {
					count++
				}
				break
			}
		}
	}
	return count
}

// resolvePair attempts the pairwise resolution procedure between i and j,
// in the exact order the contract requires for reproducibility. The first
// return reports whether the pair was in contact (and therefore added to
// collided); the second reports whether a velocity impulse was actually
// applied, as opposed to a contact pair already separating on approach.
func resolvePair(bodies []Body, i, j int, collided map[int]bool) (contact, impulseApplied bool) {
	bi := &bodies[i]
	bj := &bodies[j]

	rx := bj.Position[0] - bi.Position[0]
	ry := bj.Position[1] - bi.Position[1]
	distSq := rx*rx + ry*ry
	radiiSum := bi.Radius + bj.Radius
	if distSq > radiiSum*radiiSum {
		return false, false
	}
	if distSq < small {
		// Degenerate geometry: coincident centers give no usable
		// separation direction. Guard and skip rather than risk NaN.
		return false, false
	}

	collided[i] = true
	collided[j] = true

	dist := math.Sqrt(distSq)
	ux, uy := rx/dist, ry/dist

	// Positional correction: move j so it just touches i. i never moves.
	bj.Position[0] = bi.Position[0] + ux*radiiSum
	bj.Position[1] = bi.Position[1] + uy*radiiSum

	vRelX := bj.Velocity[0] - bi.Velocity[0]
	vRelY := bj.Velocity[1] - bi.Velocity[1]
	vn := vRelX*ux + vRelY*uy
	if vn > 0 {
		// Approaching centers but separating velocities: contact is
		// recorded, no impulse applied.
		return true, false
	}

	ke0 := bi.KineticEnergy() + bj.KineticEnergy()

	j2 := 2 * vn / (bi.Mass + bj.Mass)
	bi.Velocity[0] += ux * j2 * bj.Mass
	bi.Velocity[1] += uy * j2 * bj.Mass
	bj.Velocity[0] -= ux * j2 * bi.Mass
	bj.Velocity[1] -= uy * j2 * bi.Mass

	keINew := bi.KineticEnergy()
	keJNew := bj.KineticEnergy()
	if keJNew > small {
		if target := ke0 - keINew; target > 0 {
			ratio := math.Sqrt(target / keJNew)
			bj.Velocity[0] *= ratio
			bj.Velocity[1] *= ratio
		}
	}
	return true, true
}
