package game

import "math"

// Vector is a 2D value-type vector. All operations return new values.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec is shorthand for Vector{x, y}.
func Vec(x, y float64) Vector {
	return Vector{X: x, Y: y}
}

// FromPolar builds a vector from an angle (radians) and radius.
func FromPolar(angle, radius float64) Vector {
	return Vector{X: math.Cos(angle) * radius, Y: math.Sin(angle) * radius}
}

func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector) Neg() Vector {
	return Vector{X: -v.X, Y: -v.Y}
}

func (v Vector) Mul(f float64) Vector {
	return Vector{X: v.X * f, Y: v.Y * f}
}

func (v Vector) Div(f float64) Vector {
	return Vector{X: v.X / f, Y: v.Y / f}
}

func (v Vector) Dot(o Vector) float64 {
	return v.X*o.X + v.Y*o.Y
}

func (v Vector) SquaredLength() float64 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vector) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalized returns the unit vector, or the zero vector for zero input
// (never NaN).
func (v Vector) Normalized() Vector {
	n := v.Length()
	if n == 0 {
		return Vector{}
	}
	return Vector{X: v.X / n, Y: v.Y / n}
}

// Rotated returns the vector rotated counter-clockwise by angle radians.
func (v Vector) Rotated(angle float64) Vector {
	sin, cos := math.Sincos(angle)
	return Vector{
		X: cos*v.X - sin*v.Y,
		Y: sin*v.X + cos*v.Y,
	}
}

// Map applies f to both components.
func (v Vector) Map(f func(float64) float64) Vector {
	return Vector{X: f(v.X), Y: f(v.Y)}
}

// IsFinite reports whether both components are finite numbers. Used to
// reject NaN/Inf targets from decide functions.
func (v Vector) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}
