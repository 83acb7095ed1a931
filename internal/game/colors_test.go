package game

import (
	"math/rand"
	"testing"
)

func TestStringHashColorIsStable(t *testing.T) {
	c1 := StringHashColor("Alice")
	c2 := StringHashColor("Alice")
	if c1 != c2 {
		t.Errorf("same name hashed to %v and %v", c1, c2)
	}

	if StringHashColor("Alice") == StringHashColor("Bob") {
		t.Log("Alice and Bob share a color; allowed but suspicious")
	}
}

func TestPickNewColorNoConflicts(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	preferred := Color{R: 200, G: 10, B: 10}

	got := PickNewColor(nil, preferred, 200, rng)
	if got != preferred {
		t.Errorf("with no assigned colors got %v, want preferred %v", got, preferred)
	}

	far := []Color{{R: 0, G: 0, B: 255}}
	got = PickNewColor(far, preferred, 200, rng)
	if got != preferred {
		t.Errorf("preferred clears the threshold but got %v", got)
	}
}

func TestPickNewColorAvoidsNearDuplicate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	preferred := Color{R: 200, G: 10, B: 10}
	taken := []Color{preferred}

	got := PickNewColor(taken, preferred, 200, rng)
	if got == preferred {
		t.Error("returned the exact taken color despite perturbation attempts")
	}
}

func TestPickNewColorIsReproducible(t *testing.T) {
	preferred := Color{R: 200, G: 10, B: 10}
	taken := []Color{preferred}

	a := PickNewColor(taken, preferred, 200, rand.New(rand.NewSource(7)))
	b := PickNewColor(taken, preferred, 200, rand.New(rand.NewSource(7)))
	if a != b {
		t.Errorf("same seed produced %v and %v", a, b)
	}
}

func TestIDSourcePerKindCounters(t *testing.T) {
	ids := newIDSource()

	if got := ids.Next("seeker"); got != "seeker@1" {
		t.Errorf("first seeker id = %q", got)
	}
	if got := ids.Next("seeker"); got != "seeker@2" {
		t.Errorf("second seeker id = %q", got)
	}
	if got := ids.Next("goal"); got != "goal@1" {
		t.Errorf("goal counter not independent: %q", got)
	}
}
