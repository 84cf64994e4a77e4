package nbody

// Body is a point-like particle. Radius only matters for contact
// collisions, never for gravity. Color is opaque to the engine — it rides
// along for the wire protocol and the renderer.
type Body struct {
	Position Vec2
	Velocity Vec2
	Mass     float64
	Radius   float64
	Color    [4]uint8
}

// KineticEnergy returns ½·m·|v|².
func (b Body) KineticEnergy() float64 {
	return 0.5 * b.Mass * (b.Velocity[0]*b.Velocity[0] + b.Velocity[1]*b.Velocity[1])
}
