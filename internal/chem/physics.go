package chem

// Body is the narrow surface the engine needs from the physics
// collaborator. The engine reads and nudges bodies but never
// integrates them; position/velocity updates between ticks belong
// to the owner of the body.
type Body interface {
	Position() Vec3
	SetPosition(pos Vec3)
	Velocity() Vec3
	SetVelocity(vel Vec3)
	Mass() float64
	SetMass(mass float64)
}

// BodyFactory creates a body for a newly spawned atom or a newly
// materialized molecule aggregate.
type BodyFactory func(pos Vec3, mass float64) Body

// KinematicBody is a plain in-process Body implementation. It is the
// default when no physics collaborator is attached, and what the
// tests drive directly.
type KinematicBody struct {
	pos  Vec3
	vel  Vec3
	mass float64
}

// NewKinematicBody creates a body at the given position with the given mass.
func NewKinematicBody(pos Vec3, mass float64) *KinematicBody {
	return &KinematicBody{pos: pos, mass: mass}
}

func (b *KinematicBody) Position() Vec3        { return b.pos }
func (b *KinematicBody) SetPosition(pos Vec3)  { b.pos = pos }
func (b *KinematicBody) Velocity() Vec3        { return b.vel }
func (b *KinematicBody) SetVelocity(vel Vec3)  { b.vel = vel }
func (b *KinematicBody) Mass() float64         { return b.mass }
func (b *KinematicBody) SetMass(mass float64)  { b.mass = mass }

// KineticEnergy returns ½·m·v² for a body.
func KineticEnergy(b Body) float64 {
	v := b.Velocity().Length()
	return 0.5 * b.Mass() * v * v
}
