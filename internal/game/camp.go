package game

// Camp is a player's rectangular home zone, the capture target for goals.
// It is immutable after creation and never wraps around the world edge
// (config validation guarantees it fits its per-player slice).
type Camp struct {
	ID       string  `json:"id"`
	Owner    *Player `json:"-"`
	Position Vector  `json:"position"` // center
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// Contains reports whether pos lies strictly inside the camp rectangle.
func (c *Camp) Contains(pos Vector) bool {
	delta := c.Position.Sub(pos)
	return 2*abs(delta.X) < c.Width && 2*abs(delta.Y) < c.Height
}

func (c *Camp) TopLeft() Vector {
	return c.Position.Sub(Vec(c.Width, c.Height).Div(2))
}

func (c *Camp) BottomRight() Vector {
	return c.Position.Add(Vec(c.Width, c.Height).Div(2))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
