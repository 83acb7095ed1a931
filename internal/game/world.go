package game

import (
	"math"
	"math/rand"
)

// World is the toroidal coordinate space the game takes place in. It is a
// value type fixed per game instance; it mainly implements the torus
// metric. Both axes wrap: the left edge adjoins the right edge and the top
// edge adjoins the bottom edge.
type World struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NormalizePosition wraps pos into [0,Width)x[0,Height) in place. Floored
// modulo, so negative coordinates wrap correctly.
func (w World) NormalizePosition(pos *Vector) {
	pos.X -= math.Floor(pos.X/w.Width) * w.Width
	pos.Y -= math.Floor(pos.Y/w.Height) * w.Height
}

// NormalizedPosition returns the wrapped copy of pos.
func (w World) NormalizedPosition(pos Vector) Vector {
	w.NormalizePosition(&pos)
	return pos
}

func (w World) Geometry() Vector {
	return Vector{X: w.Width, Y: w.Height}
}

func (w World) Diameter() float64 {
	return w.Geometry().Length()
}

func (w World) Middle() Vector {
	return w.Geometry().Div(2)
}

// TorusDifference returns the per-axis signed shortest-path difference from
// left to right. Each axis independently picks the shorter of the direct
// and the wrapped way around; this is the defined torus metric, not the
// true geodesic.
func (w World) TorusDifference(left, right Vector) Vector {
	diff1d := func(length, a, b float64) float64 {
		delta := math.Abs(a - b)
		if delta < length-delta {
			return b - a
		}
		return a - b
	}
	return Vector{
		X: diff1d(w.Width, left.X, right.X),
		Y: diff1d(w.Height, left.Y, right.Y),
	}
}

func (w World) TorusDistance(left, right Vector) float64 {
	return w.TorusDifference(left, right).Length()
}

func (w World) TorusDirection(left, right Vector) Vector {
	return w.TorusDifference(left, right).Normalized()
}

// IndexOfNearest returns the index of the position nearest to pos. Ties
// keep the first-seen candidate, so the result is deterministic for a
// fixed input order.
func (w World) IndexOfNearest(pos Vector, positions []Vector) int {
	d := w.TorusDistance(pos, positions[0])
	j := 0
	for i, p := range positions[1:] {
		dn := w.TorusDistance(pos, p)
		if dn < d {
			d = dn
			j = i + 1
		}
	}
	return j
}

// NearestGoal returns the goal nearest to pos. goals must be non-empty.
func (w World) NearestGoal(pos Vector, goals []*Goal) *Goal {
	positions := make([]Vector, len(goals))
	for i, g := range goals {
		positions[i] = g.Position
	}
	return goals[w.IndexOfNearest(pos, positions)]
}

// NearestSeeker returns the seeker nearest to pos. seekers must be
// non-empty.
func (w World) NearestSeeker(pos Vector, seekers []*Seeker) *Seeker {
	positions := make([]Vector, len(seekers))
	for i, s := range seekers {
		positions[i] = s.Position
	}
	return seekers[w.IndexOfNearest(pos, positions)]
}

// RandomPosition draws a uniformly random in-bounds position from rng.
func (w World) RandomPosition(rng *rand.Rand) Vector {
	return Vector{
		X: rng.Float64() * w.Width,
		Y: rng.Float64() * w.Height,
	}
}
