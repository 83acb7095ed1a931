package game

import (
	"fmt"
	"time"
)

// Player owns a camp and a fixed set of seekers. The decision-making side
// is polymorphic over Controller: an in-process decide function or a
// network session driving the same seekers remotely.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`

	// Seekers is ordered by creation; the physics step iterates it, so the
	// order is part of the deterministic tick contract.
	Seekers     []*Seeker          `json:"-"`
	seekerIndex map[string]*Seeker

	Camp           *Camp  `json:"-"`
	Color          Color  `json:"color"`
	PreferredColor *Color `json:"-"`

	// DebugAnnotations are ephemeral per-tick notes a decide function may
	// leave for a renderer; the engine clears them every tick.
	DebugAnnotations []string `json:"-"`

	Controller Controller `json:"-"`
}

// SeekerByID returns the player's seeker with the given id.
func (p *Player) SeekerByID(id string) (*Seeker, bool) {
	s, ok := p.seekerIndex[id]
	return s, ok
}

// AddSeeker appends a seeker to the player's ordered roster. Used by the
// engine at spawn and by clients rebuilding a mirrored roster.
func (p *Player) AddSeeker(s *Seeker) { p.addSeeker(s) }

func (p *Player) addSeeker(s *Seeker) {
	if p.seekerIndex == nil {
		p.seekerIndex = make(map[string]*Seeker)
	}
	p.Seekers = append(p.Seekers, s)
	p.seekerIndex[s.ID] = s
}

// InvalidAIOutputError reports a decide function returning a malformed
// command set (wrong cardinality, foreign or duplicate seeker id,
// non-finite target, out-of-range magnet) or panicking. The tick that
// produced it keeps the player's previous targets.
type InvalidAIOutputError struct {
	Player string
	Reason string
	Err    error
}

func (e *InvalidAIOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid AI output for %s: %s: %v", e.Player, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid AI output for %s: %s", e.Player, e.Reason)
}

func (e *InvalidAIOutputError) Unwrap() error { return e.Err }

// PollTimeoutError reports a remote player that did not deliver its
// command batch within the wait window.
type PollTimeoutError struct {
	Player  string
	Timeout time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("player %s did not update within %s", e.Player, e.Timeout)
}

// Controller supplies a player's commands for one tick. Poll runs without
// the game lock held; implementations lock through Game accessors as
// needed.
type Controller interface {
	Poll(g *Game, p *Player, wait bool) error
}

// AIInput is the snapshotted world view handed to a decide function. Every
// entity in it is a deep copy scoped to the polled player; mutating it
// cannot corrupt authoritative state.
type AIInput struct {
	MySeekers    []*Seeker
	OtherSeekers []*Seeker
	AllSeekers   []*Seeker
	Goals        []*Goal
	OtherPlayers []*Player
	MyCamp       *Camp
	Camps        []*Camp
	World        World
	PassedTime   float64
}

// DecideFunc is the decision callback contract: given the player-scoped
// view, return command carriers covering exactly the player's own seeker
// ids (copies with target and magnet set).
type DecideFunc func(in AIInput) []*Seeker

// LocalController calls a decide function in-process. It keeps a
// persistent mirrored view so a decide function sees stable object
// identities across ticks.
type LocalController struct {
	Decide DecideFunc
	mirror *aiMirror
}

func NewLocalController(decide DecideFunc) *LocalController {
	return &LocalController{Decide: decide}
}

// Poll snapshots the world, invokes the decide function and applies the
// validated output. Panics in user code are recovered and reported as
// invalid output.
func (c *LocalController) Poll(g *Game, p *Player, wait bool) error {
	in := g.aiInputFor(c, p)

	out, err := callDecide(c.Decide, in)
	if err != nil {
		return &InvalidAIOutputError{Player: p.Name, Reason: "decide function panicked", Err: err}
	}

	return g.applyAIOutput(p, out)
}

func callDecide(decide DecideFunc, in AIInput) (out []*Seeker, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return decide(in), nil
}

// DefaultPollTimeout bounds how long the tick loop waits for one remote
// player's command batch.
const DefaultPollTimeout = 5 * time.Second

// RemoteController represents a player driven over the network. The
// command handler signals Updated after applying a full batch; Poll blocks
// the tick loop on that signal.
type RemoteController struct {
	Token   string
	Timeout time.Duration

	updated chan struct{}
	lapsed  bool
}

func NewRemoteController(token string) *RemoteController {
	return &RemoteController{
		Token:   token,
		Timeout: DefaultPollTimeout,
		updated: make(chan struct{}, 1),
	}
}

// SignalUpdated marks the player's per-tick command batch as applied,
// releasing a pending or upcoming Poll.
func (c *RemoteController) SignalUpdated() {
	select {
	case c.updated <- struct{}{}:
	default:
	}
}

// Poll waits for the remote batch signal. After a timeout the player is
// considered lapsed and subsequent polls stop blocking until a new batch
// arrives, so one dead client cannot stall every later tick for the full
// window (ghost-player policy).
func (c *RemoteController) Poll(g *Game, p *Player, wait bool) error {
	if !wait {
		return nil
	}

	if c.lapsed {
		select {
		case <-c.updated:
			c.lapsed = false
		default:
		}
		return nil
	}

	timer := time.NewTimer(c.Timeout)
	defer timer.Stop()

	select {
	case <-c.updated:
		return nil
	case <-timer.C:
		c.lapsed = true
		return &PollTimeoutError{Player: p.Name, Timeout: c.Timeout}
	}
}
