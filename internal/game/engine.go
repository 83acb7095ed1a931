package game

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"seekers/internal/config"
)

var (
	// ErrGameFull is returned when a join would exceed the configured
	// player capacity.
	ErrGameFull = errors.New("game is full")
	// ErrGameStarted is returned when a join arrives after camps have been
	// assigned.
	ErrGameStarted = errors.New("game has already started")
	// ErrUnknownSeeker is returned for a command naming a seeker id that
	// does not exist.
	ErrUnknownSeeker = errors.New("unknown seeker")
	// ErrNotOwner is returned for a command naming a seeker owned by
	// another player.
	ErrNotOwner = errors.New("seeker is owned by another player")
	// ErrUnknownPlayer is returned for a command batch from a player id
	// the game does not know.
	ErrUnknownPlayer = errors.New("unknown player")
)

// Command is one remote instruction for a single seeker: where to steer
// and how to set the magnet.
type Command struct {
	SeekerID string  `json:"seeker_id"`
	Target   Vector  `json:"target"`
	Magnet   float64 `json:"magnet"`
}

// Score is one row of the final standing.
type Score struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// Game owns the full simulation state and the fixed-timestep loop. All
// entity state is guarded by mu; the tick loop holds it for the whole
// physics pass, controllers and the API reach in through accessor
// methods.
type Game struct {
	mu  sync.Mutex
	cfg *config.Config

	world World
	ids   *idSource
	rng   *rand.Rand

	// players is ordered by join; the whole tick contract iterates it in
	// this order.
	players     []*Player
	playersByID map[string]*Player
	goals       []*Goal
	camps       []*Camp

	ticks      int64
	started    bool
	running    bool
	stopOnce   sync.Once
	stopCh     chan struct{}
	pollErrors int64

	onTick func(*Snapshot, time.Duration)
	events *EventLog
}

// New builds a game from a validated config. Players join before Start.
func New(cfg *config.Config) *Game {
	return &Game{
		cfg:         cfg,
		world:       World{Width: cfg.Map.Width, Height: cfg.Map.Height},
		ids:         newIDSource(),
		rng:         rand.New(rand.NewSource(cfg.Global.Seed)),
		playersByID: make(map[string]*Player),
		stopCh:      make(chan struct{}),
	}
}

// World returns the game's toroidal geometry.
func (g *Game) World() World { return g.world }

// Config returns the game's config. Treated as read-only after New.
func (g *Game) Config() *config.Config { return g.cfg }

// Ticks returns how many logic ticks have run.
func (g *Game) Ticks() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ticks
}

// PollErrors returns how many controller polls have failed so far.
func (g *Game) PollErrors() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pollErrors
}

// SetTickObserver installs a callback invoked after every tick with the
// fresh snapshot and the tick's wall duration. It runs outside the game
// lock. Must be set before Run.
func (g *Game) SetTickObserver(fn func(*Snapshot, time.Duration)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onTick = fn
}

// AddPlayer registers a player before the game starts. The returned
// player carries the final, deduplicated name.
func (g *Game) AddPlayer(name string, preferred *Color, ctrl Controller) (*Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return nil, ErrGameStarted
	}
	if len(g.players) >= g.cfg.Global.Players {
		return nil, ErrGameFull
	}

	p := &Player{
		ID:             g.ids.Next("player"),
		Name:           g.dedupNameLocked(name),
		PreferredColor: preferred,
		Controller:     ctrl,
	}
	g.players = append(g.players, p)
	g.playersByID[p.ID] = p

	g.events.Emit("player_joined", map[string]any{"id": p.ID, "name": p.Name})
	return p, nil
}

func (g *Game) dedupNameLocked(name string) string {
	taken := func(n string) bool {
		for _, p := range g.players {
			if p.Name == n {
				return true
			}
		}
		return false
	}
	candidate := name
	for i := 2; taken(candidate); i++ {
		candidate = fmt.Sprintf("%s (%d)", name, i)
	}
	return candidate
}

// Players returns the players in join order.
func (g *Game) Players() []*Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Player, len(g.players))
	copy(out, g.players)
	return out
}

// PlayerByID looks a player up by id.
func (g *Game) PlayerByID(id string) (*Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.playersByID[id]
	return p, ok
}

// Start spawns goals, seekers, colors and camps from the seeded RNG and
// freezes the roster. The spawn draw order is part of the deterministic
// contract: goals first, then per player seekers and color, in join
// order.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return ErrGameStarted
	}
	if len(g.players) == 0 {
		return errors.New("cannot start without players")
	}
	if g.cfg.Camp.Height*float64(len(g.players)) > g.world.Height {
		return fmt.Errorf("camps do not fit: %d camps of height %g on a map of height %g",
			len(g.players), g.cfg.Camp.Height, g.world.Height)
	}

	for i := 0; i < g.cfg.Global.Goals; i++ {
		g.goals = append(g.goals, NewGoal(g.ids.Next("goal"), g.world.RandomPosition(g.rng), g.cfg))
	}

	var assigned []Color
	for _, p := range g.players {
		for i := 0; i < g.cfg.Global.Seekers; i++ {
			s := NewSeeker(p, g.ids.Next("seeker"), g.world.RandomPosition(g.rng), g.cfg)
			p.addSeeker(s)
		}
		preferred := StringHashColor(p.Name)
		if p.PreferredColor != nil {
			preferred = *p.PreferredColor
		}
		p.Color = PickNewColor(assigned, preferred, g.cfg.Global.ColorThreshold, g.rng)
		assigned = append(assigned, p.Color)
	}

	g.generateCampsLocked()

	g.started = true
	g.running = true
	g.events.Emit("game_started", map[string]any{"players": len(g.players), "seed": g.cfg.Global.Seed})
	return nil
}

// generateCampsLocked places one camp per player in a vertical column
// through the map center.
func (g *Game) generateCampsLocked() {
	delta := g.world.Height / float64(len(g.players))
	for i, p := range g.players {
		c := &Camp{
			ID:       g.ids.Next("camp"),
			Owner:    p,
			Position: Vec(g.world.Width/2, delta*(float64(i)+0.5)),
			Width:    g.cfg.Camp.Width,
			Height:   g.cfg.Camp.Height,
		}
		p.Camp = c
		g.camps = append(g.camps, c)
	}
}

// Running reports whether the loop should keep ticking.
func (g *Game) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Stop ends the game loop. Safe to call more than once and from any
// goroutine.
func (g *Game) Stop() {
	g.mu.Lock()
	g.running = false
	g.mu.Unlock()
	g.stopOnce.Do(func() { close(g.stopCh) })
}

// Done is closed when the game has been stopped.
func (g *Game) Done() <-chan struct{} { return g.stopCh }

// Run drives the fixed-timestep loop until playtime runs out or Stop is
// called, then returns the final standing. Each frame runs `speed` logic
// ticks; the speed multiplier changes pacing only, never the per-tick
// physics, so histories are identical across speeds.
func (g *Game) Run() []Score {
	interval := time.Second / time.Duration(g.cfg.Global.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for g.Running() {
		for i := 0; i < g.cfg.Global.Speed; i++ {
			if g.playtimeOver() {
				if g.cfg.Flags.DontKill {
					continue
				}
				g.events.Emit("game_over", map[string]any{"ticks": g.Ticks()})
				g.Stop()
				break
			}
			g.Tick()
		}
		select {
		case <-ticker.C:
		case <-g.stopCh:
		}
	}
	return g.Scores()
}

func (g *Game) playtimeOver() bool {
	if g.cfg.Global.Playtime <= 0 {
		return false
	}
	return g.Ticks() >= g.cfg.Global.Playtime
}

// Tick runs one logic tick: poll every controller in join order, then the
// physics pass, then publish the fresh snapshot.
func (g *Game) Tick() {
	start := time.Now()

	wait := g.cfg.Global.WaitForPlayers
	for _, p := range g.Players() {
		if err := p.Controller.Poll(g, p, wait); err != nil {
			log.Printf("⚠️ poll failed: %v", err)
			g.mu.Lock()
			g.pollErrors++
			g.mu.Unlock()
		}
	}

	g.mu.Lock()
	for _, p := range g.players {
		p.DebugAnnotations = nil
	}
	g.logicTickLocked()
	g.ticks++
	snap := g.snapshotLocked()
	obs := g.onTick
	g.mu.Unlock()

	if obs != nil {
		obs(snap, time.Since(start))
	}
}

// logicTickLocked is the deterministic physics pass. Phase order is
// fixed: seekers move and disabled counters decrement, goals accumulate
// the magnetic field and move, collisions resolve over ordered pairs,
// then each goal is scored against the camps.
func (g *Game) logicTickLocked() {
	seekers := g.allSeekersLocked()

	for _, s := range seekers {
		Move(s, g.world)
		if s.DisabledCounter > 0 {
			s.DisabledCounter--
		}
	}

	for _, goal := range g.goals {
		goal.Acceleration = Vector{}
		for _, s := range seekers {
			goal.Acceleration = goal.Acceleration.Add(s.MagneticForce(g.world, goal.Position))
		}
		Move(goal, g.world)
	}

	bodies := make([]Body, 0, len(seekers)+len(g.goals))
	for _, s := range seekers {
		bodies = append(bodies, s)
	}
	for _, goal := range g.goals {
		bodies = append(bodies, goal)
	}
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			p1, p2 := bodies[i].Phys(), bodies[j].Phys()
			minDist := p1.Radius + p2.Radius
			d := g.world.TorusDifference(p2.Position, p1.Position).SquaredLength()
			if d >= minDist*minDist {
				continue
			}
			s1, ok1 := bodies[i].(*Seeker)
			s2, ok2 := bodies[j].(*Seeker)
			if ok1 && ok2 {
				CollideSeekers(s1, s2, g.world)
			} else {
				Collide(p1, p2, g.world)
			}
		}
	}

	for _, goal := range g.goals {
		for _, c := range g.camps {
			if goal.CampTick(c) {
				g.goalScoredLocked(c.Owner, goal)
				break
			}
		}
	}
}

func (g *Game) allSeekersLocked() []*Seeker {
	var out []*Seeker
	for _, p := range g.players {
		out = append(out, p.Seekers...)
	}
	return out
}

// goalScoredLocked credits the capture and teleports the goal to a fresh
// random position. The goal keeps its id and velocity.
func (g *Game) goalScoredLocked(p *Player, goal *Goal) {
	p.Score++
	g.events.Emit("goal_scored", map[string]any{
		"player": p.ID, "name": p.Name, "score": p.Score, "goal": goal.ID, "tick": g.ticks,
	})
	log.Printf("🥅 %s scored, now at %d", p.Name, p.Score)

	goal.Position = g.world.RandomPosition(g.rng)
	goal.Owner = nil
	goal.TimeOwned = 0
}

// ApplyCommands applies a remote batch for one player. Commands apply in
// order and abort on the first bad one; a non-empty successful batch
// releases the player's tick barrier.
func (g *Game) ApplyCommands(playerID string, cmds []Command) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.playersByID[playerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
	}

	for _, cmd := range cmds {
		s, ok := g.seekerByIDLocked(cmd.SeekerID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSeeker, cmd.SeekerID)
		}
		if s.Owner != p {
			return fmt.Errorf("%w: %s", ErrNotOwner, cmd.SeekerID)
		}
		if !cmd.Target.IsFinite() {
			return fmt.Errorf("seeker %s: target is not a finite position", cmd.SeekerID)
		}
		if err := s.Magnet.SetStrength(cmd.Magnet); err != nil {
			return fmt.Errorf("seeker %s: %w", cmd.SeekerID, err)
		}
		s.Target = g.world.NormalizedPosition(cmd.Target)
	}

	if len(cmds) > 0 {
		if rc, ok := p.Controller.(*RemoteController); ok {
			rc.SignalUpdated()
		}
	}
	return nil
}

func (g *Game) seekerByIDLocked(id string) (*Seeker, bool) {
	for _, p := range g.players {
		if s, ok := p.seekerIndex[id]; ok {
			return s, true
		}
	}
	return nil, false
}

// Scores returns the standing sorted by score descending, name ascending
// for ties.
func (g *Game) Scores() []Score {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Score, 0, len(g.players))
	for _, p := range g.players {
		out = append(out, Score{PlayerID: p.ID, Name: p.Name, Score: p.Score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// StartEventLog attaches an async JSONL journal. Call before Run.
func (g *Game) StartEventLog(path string) error {
	el, err := NewEventLog(path)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.events = el
	g.mu.Unlock()
	return nil
}

// StopEventLog flushes and closes the journal if one is attached.
func (g *Game) StopEventLog() {
	g.mu.Lock()
	el := g.events
	g.events = nil
	g.mu.Unlock()
	el.Close()
}
