package game

import (
	"hash/fnv"
	"math/rand"
)

// Color is an RGB triple used for player display colors. Purely cosmetic,
// but assignment must be reproducible so remote clients can precompute the
// color the server will hand them.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// StringHashColor assigns a stable nice color to a name by hashing it to a
// hue. The RNG is seeded from the name alone, independent of game state.
func StringHashColor(name string) Color {
	h := fnv.New64a()
	h.Write([]byte(name))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	return hueColor(rng.Float64())
}

// hueColor maps a hue in [0,1) onto a seven-anchor RGB color wheel.
func hueColor(hue float64) Color {
	anchors := []Color{
		{255, 0, 0},
		{255, 255, 0},
		{0, 255, 0},
		{0, 255, 255},
		{0, 0, 255},
		{255, 0, 255},
		{255, 0, 0},
	}
	n := len(anchors) - 1
	i := int(hue * float64(n))
	if i > n-1 {
		i = n - 1
	}
	return interpolateColor(anchors[i], anchors[i+1], hue*float64(n)-float64(i))
}

func interpolateColor(c1, c2 Color, t float64) Color {
	lerp := func(a, b uint8) uint8 {
		return uint8((1-t)*float64(a) + t*float64(b))
	}
	return Color{R: lerp(c1.R, c2.R), G: lerp(c1.G, c2.G), B: lerp(c1.B, c2.B)}
}

// colorDistance is the squared RGB distance between two colors.
func colorDistance(c1, c2 Color) float64 {
	dr := float64(c1.R) - float64(c2.R)
	dg := float64(c1.G) - float64(c2.G)
	db := float64(c1.B) - float64(c2.B)
	return dr*dr + dg*dg + db*db
}

// PickNewColor picks a color close to preferred but sufficiently different
// from the already-assigned ones. It tries up to ten bounded random
// perturbations and falls back to the candidate with the largest minimum
// distance when none clears the threshold. Draws come from rng, so the
// result is reproducible for a fixed seed and join order.
func PickNewColor(old []Color, preferred Color, threshold float64, rng *rand.Rand) Color {
	if len(old) == 0 {
		return preferred
	}

	scatter := 2 * threshold / 3

	candidate := preferred
	best := preferred
	bestDistance := 0.0

	for attempt := 0; attempt < 10; attempt++ {
		d := colorDistance(old[0], candidate)
		for _, o := range old[1:] {
			if od := colorDistance(o, candidate); od < d {
				d = od
			}
		}
		if d >= threshold {
			return candidate
		}
		if d > bestDistance {
			bestDistance = d
			best = candidate
		}

		perturb := func(x uint8) uint8 {
			v := float64(x) + (rng.Float64()*2-1)*scatter
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			return uint8(v)
		}
		candidate = Color{R: perturb(preferred.R), G: perturb(preferred.G), B: perturb(preferred.B)}
	}

	return best
}
