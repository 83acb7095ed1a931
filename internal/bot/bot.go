// Package bot ships example decide functions. They double as smoke
// opponents for local games and as realistic workloads in tests.
package bot

import (
	"seekers/internal/game"
)

// Idle leaves every seeker on its current target with the magnet off.
func Idle(in game.AIInput) []*game.Seeker {
	for _, s := range in.MySeekers {
		s.Magnet.Disable()
	}
	return in.MySeekers
}

// ChaseNearestGoal sends every seeker after its nearest goal, flipping
// the magnet on for the final approach so the goal gets dragged along.
func ChaseNearestGoal(in game.AIInput) []*game.Seeker {
	for _, s := range in.MySeekers {
		if len(in.Goals) == 0 {
			s.Magnet.Disable()
			continue
		}
		goal := in.World.NearestGoal(s.Position, in.Goals)
		s.Target = goal.Position
		if in.World.TorusDistance(s.Position, goal.Position) < 6*s.Radius {
			s.Magnet.SetAttractive()
		} else {
			s.Magnet.Disable()
		}
	}
	return in.MySeekers
}

// HerdToCamp splits the swarm: half fetch the nearest goal, half park at
// the camp and repel intruders near it.
func HerdToCamp(in game.AIInput) []*game.Seeker {
	if in.MyCamp == nil || len(in.Goals) == 0 {
		return Idle(in)
	}

	for i, s := range in.MySeekers {
		if i%2 == 0 {
			goal := in.World.NearestGoal(s.Position, in.Goals)
			if in.World.TorusDistance(s.Position, goal.Position) < 6*s.Radius {
				// Drag the goal toward home.
				s.Target = in.MyCamp.Position
				s.Magnet.SetAttractive()
			} else {
				s.Target = goal.Position
				s.Magnet.Disable()
			}
			continue
		}

		s.Target = in.MyCamp.Position
		if len(in.OtherSeekers) > 0 {
			intruder := in.World.NearestSeeker(in.MyCamp.Position, in.OtherSeekers)
			if in.World.TorusDistance(in.MyCamp.Position, intruder.Position) < in.MyCamp.Width {
				s.Target = intruder.Position
				s.Magnet.SetRepulsive()
				continue
			}
		}
		s.Magnet.Disable()
	}
	return in.MySeekers
}
