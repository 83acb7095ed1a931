package game

import (
	"fmt"
	"math"

	"seekers/internal/config"
)

// MagnetMin and MagnetMax bound the magnet strength range. Attraction is
// positive, repulsion negative.
const (
	MagnetMin = -8.0
	MagnetMax = 1.0
)

// Magnet is a seeker's field generator. Strength 0 means off. Out-of-range
// strengths are rejected, never clamped.
type Magnet struct {
	strength float64
}

func (m *Magnet) Strength() float64 { return m.strength }

// SetStrength sets the field strength, validating it lies in
// [MagnetMin, MagnetMax].
func (m *Magnet) SetStrength(v float64) error {
	if math.IsNaN(v) || v < MagnetMin || v > MagnetMax {
		return fmt.Errorf("magnet strength must be between %g and %g, got %g", MagnetMin, MagnetMax, v)
	}
	m.strength = v
	return nil
}

func (m *Magnet) IsOn() bool { return m.strength != 0 }

func (m *Magnet) SetAttractive() { m.strength = MagnetMax }

func (m *Magnet) SetRepulsive() { m.strength = MagnetMin }

func (m *Magnet) Disable() { m.strength = 0 }

// Seeker is a player-controlled entity that chases its target position and
// can push or pull goals with its magnet.
type Seeker struct {
	Physical

	Owner           *Player `json:"-"`
	Target          Vector  `json:"target"`
	DisabledCounter int     `json:"disabled_counter"`
	Magnet          Magnet  `json:"-"`

	DisabledTime   int     `json:"-"`
	MagnetSlowdown float64 `json:"-"`
	BaseThrust     float64 `json:"-"`
}

// NewSeeker builds a seeker at pos from the config's seeker constants. The
// initial target is the spawn position, so an uncommanded seeker stays put.
func NewSeeker(owner *Player, id string, pos Vector, cfg *config.Config) *Seeker {
	return &Seeker{
		Physical: Physical{
			ID:       id,
			Position: pos,
			Mass:     cfg.Seeker.Mass,
			Radius:   cfg.Seeker.Radius,
			Friction: cfg.Seeker.Friction,
		},
		Owner:          owner,
		Target:         pos,
		DisabledTime:   cfg.Seeker.DisabledTime,
		MagnetSlowdown: cfg.Seeker.MagnetSlowdown,
		BaseThrust:     cfg.Seeker.Thrust,
	}
}

func (s *Seeker) IsDisabled() bool { return s.DisabledCounter > 0 }

// Disable knocks the seeker out for the configured recovery time.
func (s *Seeker) Disable() { s.DisabledCounter = s.DisabledTime }

// MagnetEffective reports whether the magnet is on and the seeker is not
// disabled. Only an effective magnet exerts force or shields its owner in
// a seeker collision.
func (s *Seeker) MagnetEffective() bool {
	return s.Magnet.IsOn() && !s.IsDisabled()
}

// Thrust slows down while the magnet is powered.
func (s *Seeker) Thrust() float64 {
	if s.Magnet.IsOn() {
		return s.BaseThrust * s.MagnetSlowdown
	}
	return s.BaseThrust
}

// MaxSpeed is the terminal velocity where friction cancels thrust.
func (s *Seeker) MaxSpeed() float64 {
	return s.BaseThrust / s.Friction
}

// UpdateAcceleration steers toward the target. Disabled seekers coast on
// pure momentum decay.
func (s *Seeker) UpdateAcceleration(w World) {
	if s.DisabledCounter == 0 {
		s.Acceleration = w.TorusDirection(s.Position, s.Target)
	} else {
		s.Acceleration = Vector{}
	}
}

// MagneticForce returns the force this seeker exerts on a body at pos.
// The field has compact support: a bump function of the toroidal distance
// scaled by a tenth of the world diameter, so far-away bodies feel exactly
// zero. Disabled seekers exert nothing.
func (s *Seeker) MagneticForce(w World, pos Vector) Vector {
	if s.IsDisabled() {
		return Vector{}
	}

	diff := w.TorusDifference(s.Position, pos)
	dist := diff.Length()

	var dir Vector
	if dist != 0 {
		dir = diff.Div(dist)
	}

	r := dist / w.Diameter()
	return dir.Mul(-(s.Magnet.Strength() * bump(r * 10)))
}

// bump is exp(1/(r^2-1)) for r<1 and 0 beyond, a smooth compactly-supported
// falloff.
func bump(r float64) float64 {
	if r >= 1 {
		return 0
	}
	return math.Exp(1 / (r*r - 1))
}

// CollideSeekers applies the seeker-specific collision rule and then the
// generic elastic collision. A seeker with an effective magnet is knocked
// out by any seeker contact; if neither magnet is effective, both are.
func CollideSeekers(a, b *Seeker, w World) {
	aShielded := a.MagnetEffective()
	bShielded := b.MagnetEffective()

	if !aShielded && !bShielded {
		a.Disable()
		b.Disable()
	}
	if aShielded {
		a.Disable()
	}
	if bShielded {
		b.Disable()
	}

	Collide(&a.Physical, &b.Physical, w)
}
