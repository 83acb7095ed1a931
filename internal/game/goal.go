package game

import "seekers/internal/config"

// Goal is a neutral mobile entity that players herd into their camps. It
// keeps its id for the whole game; scoring teleports it instead of
// recreating it.
type Goal struct {
	Physical

	Owner     *Player `json:"-"`
	TimeOwned int     `json:"time_owned"`

	ScoringTime int     `json:"-"`
	BaseThrust  float64 `json:"-"`
}

// NewGoal builds a goal at pos from the config's goal constants.
func NewGoal(id string, pos Vector, cfg *config.Config) *Goal {
	return &Goal{
		Physical: Physical{
			ID:       id,
			Position: pos,
			Mass:     cfg.Goal.Mass,
			Radius:   cfg.Goal.Radius,
			Friction: cfg.Goal.Friction,
		},
		ScoringTime: cfg.Goal.ScoringTime,
		BaseThrust:  cfg.Goal.Thrust,
	}
}

func (g *Goal) Thrust() float64 { return g.BaseThrust }

// UpdateAcceleration is a no-op: the physics step sums the magnetic field
// into Acceleration before the goal moves.
func (g *Goal) UpdateAcceleration(World) {}

// CampTick advances the ownership counter against one camp and reports
// whether the goal was captured this tick.
//
// The counter starts at 1 on the first contained tick and is deliberately
// held while the goal is inside no camp: leaving a camp does not reset
// progress, only containment by a camp with a different owner does. A
// capture can therefore only fire inside the owning camp.
func (g *Goal) CampTick(c *Camp) bool {
	if !c.Contains(g.Position) {
		return false
	}
	if g.Owner == c.Owner {
		g.TimeOwned++
	} else {
		g.TimeOwned = 1
		g.Owner = c.Owner
	}
	return g.TimeOwned >= g.ScoringTime
}
