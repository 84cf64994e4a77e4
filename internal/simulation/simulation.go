// Package simulation implements the integrator that couples the quadtree,
// the Barnes-Hut gravity kernel and the collision resolver in internal/nbody
// into a steppable, resettable simulation.
package simulation

import "github.com/nbodysim/server/internal/nbody"

// SolverParameters controls the numerical integration and spatial index.
type SolverParameters struct {
	Dt               float64
	Theta            float64
	QuadtreeCapacity int
}

// DefaultSolverParameters mirrors the engine's defaults.
func DefaultSolverParameters() SolverParameters {
	return SolverParameters{Dt: 0.01, Theta: 1.0, QuadtreeCapacity: nbody.DefaultCapacity}
}

// PhysicsParameters controls the physical constants of the simulated world.
type PhysicsParameters struct {
	GravityConstant float64
}

// DefaultPhysicsParameters mirrors the engine's defaults.
func DefaultPhysicsParameters() PhysicsParameters {
	return PhysicsParameters{GravityConstant: 1.0}
}

// Simulation holds the full mutable state of the physical world: bodies,
// per-body force accumulators, the spatial index, tunable parameters, and
// two running totals (physical time, kinetic energy) refreshed every step.
// It is single-threaded and synchronous — callers that share one Simulation
// across goroutines are responsible for external synchronization.
type Simulation struct {
	bodies  []nbody.Body
	forces  []nbody.Vec2
	tree    *nbody.Quadtree
	solver  SolverParameters
	physics PhysicsParameters

	physicalTime   float64
	kineticEnergy  float64
	lastCollisions int
}

// New returns an empty simulation with default parameters, matching the
// engine's zero-body default state.
func New() *Simulation {
	solver := DefaultSolverParameters()
	return &Simulation{
		bodies:  nil,
		forces:  nil,
		tree:    nbody.NewWithCapacity(nbody.NewSquareBox(nbody.Vec2{0, 0}, 1), solver.QuadtreeCapacity),
		solver:  solver,
		physics: DefaultPhysicsParameters(),
	}
}

// AddBody appends a single body, resizing the force buffer and rebuilding
// the quadtree.
func (s *Simulation) AddBody(b nbody.Body) {
	s.bodies = append(s.bodies, b)
	s.forces = append(s.forces, nbody.Vec2{})
	s.rebuildTree()
}

// AddBodies appends a batch of bodies in one rebuild pass.
func (s *Simulation) AddBodies(bodies []nbody.Body) {
	s.bodies = append(s.bodies, bodies...)
	for range bodies {
		s.forces = append(s.forces, nbody.Vec2{})
	}
	s.rebuildTree()
}

// SetSolverParameters replaces the solver (dt/theta/capacity) group.
func (s *Simulation) SetSolverParameters(p SolverParameters) {
	s.solver = p
	s.tree.SetCapacity(p.QuadtreeCapacity)
}

// SetPhysicsParameters replaces the physics (gravity constant) group.
func (s *Simulation) SetPhysicsParameters(p PhysicsParameters) {
	s.physics = p
}

// SolverParameters returns the current solver parameter group.
func (s *Simulation) SolverParameters() SolverParameters { return s.solver }

// PhysicsParameters returns the current physics parameter group.
func (s *Simulation) PhysicsParameters() PhysicsParameters { return s.physics }

// Reset clears all bodies, forces and physical time, and reinitializes the
// quadtree to a unit-square root at the origin.
func (s *Simulation) Reset() {
	s.bodies = s.bodies[:0]
	s.forces = s.forces[:0]
	s.physicalTime = 0
	s.kineticEnergy = 0
	s.lastCollisions = 0
	s.tree.Reset(nbody.NewSquareBox(nbody.Vec2{0, 0}, 1))
}

// BodyCount returns the number of bodies currently simulated.
func (s *Simulation) BodyCount() int { return len(s.bodies) }

// Body returns a copy of the body at index i.
func (s *Simulation) Body(i int) nbody.Body { return s.bodies[i] }

// Bodies returns a copy of the full body slice, safe for a caller to retain
// and mutate without affecting simulation state.
func (s *Simulation) Bodies() []nbody.Body {
	out := make([]nbody.Body, len(s.bodies))
	copy(out, s.bodies)
	return out
}

// Position returns the position of the body at index i.
func (s *Simulation) Position(i int) nbody.Vec2 { return s.bodies[i].Position }

// PhysicalTime returns the accumulated simulated time in seconds.
func (s *Simulation) PhysicalTime() float64 { return s.physicalTime }

// KineticEnergy returns the total kinetic energy as of the last step.
func (s *Simulation) KineticEnergy() float64 { return s.kineticEnergy }

// LastCollisionCount returns the number of collisions resolved in the most
// recent Step call.
func (s *Simulation) LastCollisionCount() int { return s.lastCollisions }

// QuadtreeDepth returns the max depth of the spatial index as of the last
// rebuild, for diagnostics.
func (s *Simulation) QuadtreeDepth() int { return s.tree.Depth() }

// rebuildTree clears and repopulates the quadtree from the current bodies.
// A no-op when there are no bodies — SquareBoxFromBodies requires at least
// one.
func (s *Simulation) rebuildTree() {
	if len(s.bodies) == 0 {
		s.tree.Reset(nbody.NewSquareBox(nbody.Vec2{0, 0}, 1))
		return
	}
	s.tree.Reset(nbody.SquareBoxFromBodies(s.bodies))
	for i := range s.bodies {
		s.tree.InsertUnchecked(i, s.bodies)
	}
}

// Step advances the simulation by one timestep: collisions, then gravity,
// then semi-implicit Euler integration, in that fixed order. The quadtree
// is rebuilt once at the start of the step and is not rebuilt between
// collision resolution and gravity — gravity is deliberately computed
// against pre-collision tree aggregates even though bodies have already
// moved during collision resolution. Step never fails: degenerate geometry
// is guarded and skipped rather than propagated.
func (s *Simulation) Step() {
	if len(s.bodies) == 0 {
		s.physicalTime += s.solver.Dt
		return
	}

	for i := range s.forces {
		s.forces[i] = nbody.Vec2{}
	}
	s.rebuildTree()

	s.lastCollisions = nbody.ResolveCollisions(s.bodies, s.tree)

	gravity := nbody.ComputeGravityForces(s.bodies, s.tree, s.solver.Theta, s.physics.GravityConstant)
	copy(s.forces, gravity)

	dt := s.solver.Dt
	totalKE := 0.0
	for i := range s.bodies {
		b := &s.bodies[i]
		ax := s.forces[i][0] / b.Mass
		ay := s.forces[i][1] / b.Mass

		b.Velocity[0] += ax * dt
		b.Velocity[1] += ay * dt
		totalKE += b.KineticEnergy()

		b.Position[0] += b.Velocity[0] * dt
		b.Position[1] += b.Velocity[1] * dt
	}
	s.kineticEnergy = totalKE

	s.physicalTime += dt
}
