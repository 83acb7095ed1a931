package game

// Physical is the attribute set shared by every mobile entity: a circle
// with mass, velocity and friction living on the torus.
type Physical struct {
	ID           string `json:"id"`
	Position     Vector `json:"position"`
	Velocity     Vector `json:"velocity"`
	Acceleration Vector `json:"-"`

	Mass     float64 `json:"-"`
	Radius   float64 `json:"-"`
	Friction float64 `json:"-"`
}

// Body is the capability interface the physics step dispatches on. Seekers
// and goals differ only in how they compute acceleration and thrust.
type Body interface {
	Phys() *Physical
	// UpdateAcceleration refreshes Acceleration before integration. Goals
	// leave the externally-summed magnetic acceleration untouched.
	UpdateAcceleration(w World)
	// Thrust returns the length scale applied to the acceleration.
	Thrust() float64
}

func (p *Physical) Phys() *Physical { return p }

// Move advances b by one tick: friction decay, thrust along the current
// acceleration, integration, wrap into world bounds. The order is part of
// the simulation contract.
func Move(b Body, w World) {
	p := b.Phys()

	p.Velocity = p.Velocity.Mul(1 - p.Friction)

	b.UpdateAcceleration(w)
	p.Velocity = p.Velocity.Add(p.Acceleration.Mul(b.Thrust()))

	p.Position = p.Position.Add(p.Velocity)
	w.NormalizePosition(&p.Position)
}

// Collide resolves an elastic collision between two overlapping bodies.
// Momentum along the toroidal collision normal is exchanged weighted by
// mass, then the bodies are separated to the sum of their radii along the
// same normal.
func Collide(a, b *Physical, w World) {
	minDist := a.Radius + b.Radius

	d := w.TorusDifference(a.Position, b.Position)
	dn := d.Normalized()

	dv := b.Velocity.Sub(a.Velocity)
	m := 2 / (a.Mass + b.Mass)

	// Only transfer momentum while the bodies approach each other;
	// separating bodies already resolved their impulse.
	dvdn := dv.Dot(dn)
	if dvdn < 0 {
		a.Velocity = a.Velocity.Add(dn.Mul(m * b.Mass * dvdn))
		b.Velocity = b.Velocity.Sub(dn.Mul(m * a.Mass * dvdn))
	}

	ddn := d.Dot(dn)
	if ddn < minDist {
		a.Position = a.Position.Add(dn.Mul(ddn - minDist))
		b.Position = b.Position.Sub(dn.Mul(ddn - minDist))
		w.NormalizePosition(&a.Position)
		w.NormalizePosition(&b.Position)
	}
}
