package game

import (
	"math"
	"testing"
)

func TestVectorOps(t *testing.T) {
	a := Vec(3, 4)
	b := Vec(1, -2)

	if got := a.Add(b); got != Vec(4, 2) {
		t.Errorf("Add = %v", got)
	}
	if got := a.Sub(b); got != Vec(2, 6) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Mul(2); got != Vec(6, 8) {
		t.Errorf("Mul = %v", got)
	}
	if got := a.Div(2); got != Vec(1.5, 2) {
		t.Errorf("Div = %v", got)
	}
	if got := a.Dot(b); got != -5 {
		t.Errorf("Dot = %g", got)
	}
	if got := a.Length(); got != 5 {
		t.Errorf("Length = %g", got)
	}
	if got := a.SquaredLength(); got != 25 {
		t.Errorf("SquaredLength = %g", got)
	}
	if got := a.Neg(); got != Vec(-3, -4) {
		t.Errorf("Neg = %v", got)
	}
}

func TestVectorNormalized(t *testing.T) {
	n := Vec(3, 4).Normalized()
	if math.Abs(n.Length()-1) > 1e-12 {
		t.Errorf("Normalized length = %g", n.Length())
	}

	if got := Vec(0, 0).Normalized(); got != (Vector{}) {
		t.Errorf("Normalized zero = %v, want zero", got)
	}
}

func TestVectorRotated(t *testing.T) {
	got := Vec(1, 0).Rotated(math.Pi / 2).Map(math.Round)
	if got != Vec(0, 1) {
		t.Errorf("Rotated quarter turn = %v, want (0,1)", got)
	}
}

func TestVectorIsFinite(t *testing.T) {
	if !Vec(1, 2).IsFinite() {
		t.Error("finite vector reported non-finite")
	}
	for _, v := range []Vector{
		Vec(math.NaN(), 0),
		Vec(0, math.NaN()),
		Vec(math.Inf(1), 0),
		Vec(0, math.Inf(-1)),
	} {
		if v.IsFinite() {
			t.Errorf("%v reported finite", v)
		}
	}
}
