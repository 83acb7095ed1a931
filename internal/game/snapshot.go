package game

import "fmt"

// Wire-level snapshot types. A Snapshot is the full authoritative state at
// one tick, produced under the game lock and immutable afterwards; the API
// layer serves it verbatim and network clients rebuild their mirrors from
// it.

// SeekerStatus is the wire form of one seeker.
type SeekerStatus struct {
	ID              string  `json:"id"`
	PlayerID        string  `json:"player_id"`
	Position        Vector  `json:"position"`
	Velocity        Vector  `json:"velocity"`
	Target          Vector  `json:"target"`
	Magnet          float64 `json:"magnet"`
	DisabledCounter int     `json:"disabled_counter"`
}

// GoalStatus is the wire form of one goal. OwnerID is empty while the goal
// is unowned.
type GoalStatus struct {
	ID        string `json:"id"`
	Position  Vector `json:"position"`
	Velocity  Vector `json:"velocity"`
	OwnerID   string `json:"owner_id,omitempty"`
	TimeOwned int    `json:"time_owned"`
}

// PlayerStatus is the wire form of one player.
type PlayerStatus struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Score     int      `json:"score"`
	CampID    string   `json:"camp_id"`
	SeekerIDs []string `json:"seeker_ids"`
	Color     Color    `json:"color"`
}

// CampStatus is the wire form of one camp. Camps never change after game
// start; clients treat them as immutable once learned.
type CampStatus struct {
	ID       string  `json:"id"`
	OwnerID  string  `json:"owner_id"`
	Position Vector  `json:"position"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// Snapshot is the full world state at one tick.
type Snapshot struct {
	PassedPlaytime int64          `json:"passed_playtime"`
	Players        []PlayerStatus `json:"players"`
	Camps          []CampStatus   `json:"camps"`
	Seekers        []SeekerStatus `json:"seekers"`
	Goals          []GoalStatus   `json:"goals"`
}

// Snapshot captures the current authoritative state.
func (g *Game) Snapshot() *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Game) snapshotLocked() *Snapshot {
	snap := &Snapshot{PassedPlaytime: g.ticks}

	for _, p := range g.players {
		ps := PlayerStatus{
			ID:    p.ID,
			Name:  p.Name,
			Score: p.Score,
			Color: p.Color,
		}
		if p.Camp != nil {
			ps.CampID = p.Camp.ID
		}
		for _, s := range p.Seekers {
			ps.SeekerIDs = append(ps.SeekerIDs, s.ID)
			snap.Seekers = append(snap.Seekers, SeekerStatus{
				ID:              s.ID,
				PlayerID:        p.ID,
				Position:        s.Position,
				Velocity:        s.Velocity,
				Target:          s.Target,
				Magnet:          s.Magnet.Strength(),
				DisabledCounter: s.DisabledCounter,
			})
		}
		snap.Players = append(snap.Players, ps)
	}

	for _, c := range g.camps {
		snap.Camps = append(snap.Camps, CampStatus{
			ID:       c.ID,
			OwnerID:  c.Owner.ID,
			Position: c.Position,
			Width:    c.Width,
			Height:   c.Height,
		})
	}

	for _, goal := range g.goals {
		gs := GoalStatus{
			ID:        goal.ID,
			Position:  goal.Position,
			Velocity:  goal.Velocity,
			TimeOwned: goal.TimeOwned,
		}
		if goal.Owner != nil {
			gs.OwnerID = goal.Owner.ID
		}
		snap.Goals = append(snap.Goals, gs)
	}

	return snap
}

// aiMirror is a local player's persistent deep-copied view of the world.
// It is initialized once and field-updated every tick, so a decide
// function sees stable object identities and its mutations never reach
// authoritative state.
type aiMirror struct {
	players map[string]*Player
	seekers map[string]*Seeker
	goals   []*Goal
	self    *Player
}

func newAIMirror(g *Game, self *Player) *aiMirror {
	m := &aiMirror{
		players: make(map[string]*Player),
		seekers: make(map[string]*Seeker),
	}

	for _, ap := range g.players {
		mp := &Player{
			ID:    ap.ID,
			Name:  ap.Name,
			Score: ap.Score,
			Color: ap.Color,
		}
		if ap.PreferredColor != nil {
			pc := *ap.PreferredColor
			mp.PreferredColor = &pc
		}
		mp.Camp = &Camp{
			ID:       ap.Camp.ID,
			Owner:    mp,
			Position: ap.Camp.Position,
			Width:    ap.Camp.Width,
			Height:   ap.Camp.Height,
		}
		for _, as := range ap.Seekers {
			ms := &Seeker{
				Physical:        as.Physical,
				Owner:           mp,
				Target:          as.Target,
				DisabledCounter: as.DisabledCounter,
				Magnet:          as.Magnet,
				DisabledTime:    as.DisabledTime,
				MagnetSlowdown:  as.MagnetSlowdown,
				BaseThrust:      as.BaseThrust,
			}
			mp.addSeeker(ms)
			m.seekers[ms.ID] = ms
		}
		m.players[mp.ID] = mp
		if ap.ID == self.ID {
			m.self = mp
		}
	}

	for _, ag := range g.goals {
		mg := &Goal{
			Physical:    ag.Physical,
			TimeOwned:   ag.TimeOwned,
			ScoringTime: ag.ScoringTime,
			BaseThrust:  ag.BaseThrust,
		}
		if ag.Owner != nil {
			mg.Owner = m.players[ag.Owner.ID]
		}
		m.goals = append(m.goals, mg)
	}

	return m
}

func (m *aiMirror) update(g *Game) {
	for _, ap := range g.players {
		mp := m.players[ap.ID]
		mp.Score = ap.Score
		for _, as := range ap.Seekers {
			ms := m.seekers[as.ID]
			ms.Position = as.Position
			ms.Velocity = as.Velocity
			ms.Acceleration = as.Acceleration
			ms.Target = as.Target
			ms.DisabledCounter = as.DisabledCounter
			ms.Magnet = as.Magnet
		}
	}
	for i, ag := range g.goals {
		mg := m.goals[i]
		mg.Position = ag.Position
		mg.Velocity = ag.Velocity
		mg.TimeOwned = ag.TimeOwned
		if ag.Owner != nil {
			mg.Owner = m.players[ag.Owner.ID]
		} else {
			mg.Owner = nil
		}
	}
}

// aiInputFor assembles the decide-function input for p, refreshing the
// controller's mirror under the game lock.
func (g *Game) aiInputFor(c *LocalController, p *Player) AIInput {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c.mirror == nil {
		c.mirror = newAIMirror(g, p)
	} else {
		c.mirror.update(g)
	}
	m := c.mirror

	me := m.self
	mySeekers := make([]*Seeker, len(me.Seekers))
	copy(mySeekers, me.Seekers)

	var otherSeekers []*Seeker
	var otherPlayers []*Player
	var camps []*Camp
	for _, ap := range g.players {
		mp := m.players[ap.ID]
		camps = append(camps, mp.Camp)
		if mp == me {
			continue
		}
		otherPlayers = append(otherPlayers, mp)
		otherSeekers = append(otherSeekers, mp.Seekers...)
	}

	allSeekers := make([]*Seeker, 0, len(mySeekers)+len(otherSeekers))
	allSeekers = append(allSeekers, mySeekers...)
	allSeekers = append(allSeekers, otherSeekers...)

	goals := make([]*Goal, len(m.goals))
	copy(goals, m.goals)

	return AIInput{
		MySeekers:    mySeekers,
		OtherSeekers: otherSeekers,
		AllSeekers:   allSeekers,
		Goals:        goals,
		OtherPlayers: otherPlayers,
		MyCamp:       me.Camp,
		Camps:        camps,
		World:        g.world,
		PassedTime:   float64(g.ticks),
	}
}

// applyAIOutput validates a decide function's output and, only if the
// whole batch is well-formed, applies it to the player's authoritative
// seekers. A rejected batch leaves every previous target and magnet
// untouched.
func (g *Game) applyAIOutput(p *Player, out []*Seeker) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(out) != len(p.Seekers) {
		return &InvalidAIOutputError{
			Player: p.Name,
			Reason: fmt.Sprintf("output must cover %d seekers, got %d", len(p.Seekers), len(out)),
		}
	}

	seen := make(map[string]bool, len(out))
	for _, cmd := range out {
		if cmd == nil {
			return &InvalidAIOutputError{Player: p.Name, Reason: "output contains a nil seeker"}
		}
		if _, ok := p.seekerIndex[cmd.ID]; !ok {
			return &InvalidAIOutputError{
				Player: p.Name,
				Reason: fmt.Sprintf("seeker %s is not owned by this player", cmd.ID),
			}
		}
		if seen[cmd.ID] {
			return &InvalidAIOutputError{
				Player: p.Name,
				Reason: fmt.Sprintf("seeker %s appears more than once", cmd.ID),
			}
		}
		seen[cmd.ID] = true

		if !cmd.Target.IsFinite() {
			return &InvalidAIOutputError{
				Player: p.Name,
				Reason: fmt.Sprintf("seeker %s target is not a finite position", cmd.ID),
			}
		}
		var probe Magnet
		if err := probe.SetStrength(cmd.Magnet.Strength()); err != nil {
			return &InvalidAIOutputError{Player: p.Name, Reason: "magnet out of range", Err: err}
		}
	}

	for _, cmd := range out {
		own := p.seekerIndex[cmd.ID]
		own.Target = cmd.Target
		own.Magnet.SetStrength(cmd.Magnet.Strength())
	}
	return nil
}
