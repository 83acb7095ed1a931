package client

import (
	"errors"
	"fmt"
	"log"

	"seekers/internal/config"
	"seekers/internal/game"
)

// Runner drives a decide function against a mirrored world rebuilt from
// server snapshots. Entity identities stay stable across ticks: replies
// are merged field by field, and only an unreconcilable reply forces a
// full rebuild.
type Runner struct {
	service *Service
	decide  game.DecideFunc

	// careful escalates reconciliation errors instead of resyncing.
	careful bool

	cfg   *config.Config
	world game.World

	lastGametime int64
	players      map[string]*game.Player
	seekers      map[string]*game.Seeker
	camps        map[string]*game.Camp
	goals        map[string]*game.Goal
	playerOrder  []string
	goalOrder    []string
}

// NewRunner builds a runner over a joined service.
func NewRunner(service *Service, decide game.DecideFunc, careful bool) *Runner {
	return &Runner{
		service:      service,
		decide:       decide,
		careful:      careful,
		lastGametime: -1,
	}
}

// Run blocks until the game ends. A vanished server ends the loop
// cleanly; other errors are logged and the state resynced, unless
// careful mode escalates them.
func (r *Runner) Run() error {
	defer r.service.Close()

	for {
		err := r.tick()
		switch {
		case err == nil:
		case errors.Is(err, ErrServerUnavailable):
			log.Printf("🏁 Game ended: %v", err)
			return nil
		default:
			if r.careful {
				return err
			}
			log.Printf("⚠️ Client error: %v", err)
			r.lastGametime = -1
		}
	}
}

// tick runs one decide round trip: refresh state, call the decide
// function, send its commands, reconcile the reply.
func (r *Runner) tick() error {
	if r.cfg == nil {
		cfg, err := r.service.Config()
		if err != nil {
			return err
		}
		r.cfg = cfg
		r.world = game.World{Width: cfg.Map.Width, Height: cfg.Map.Height}
	}

	if r.lastGametime == -1 {
		// No state yet; an empty batch fetches it without blocking a tick.
		if err := r.sendAndUpdate(nil); err != nil {
			return err
		}
	}

	in, err := r.aiInput()
	if err != nil {
		return err
	}

	out := r.decide(in)

	cmds := make([]game.Command, 0, len(out))
	for _, s := range out {
		cmds = append(cmds, game.Command{
			SeekerID: s.ID,
			Target:   s.Target,
			Magnet:   s.Magnet.Strength(),
		})
	}
	return r.sendAndUpdate(cmds)
}

func (r *Runner) sendAndUpdate(cmds []game.Command) error {
	resp, err := r.service.SendCommands(cmds)
	if err != nil {
		return err
	}
	r.updateState(resp.Status)
	return nil
}

// updateState reconciles a snapshot into the mirror. Merge failures mean
// the mirror has drifted (or never existed); a rebuild from the full
// snapshot recovers either way.
func (r *Runner) updateState(snap *game.Snapshot) {
	if r.lastGametime != -1 {
		if err := r.merge(snap); err == nil {
			r.lastGametime = snap.PassedPlaytime
			return
		} else {
			log.Printf("🔄 Resyncing state: %v", err)
		}
	}
	r.rebuild(snap)
	r.lastGametime = snap.PassedPlaytime
}

func (r *Runner) merge(snap *game.Snapshot) error {
	for _, ss := range snap.Seekers {
		s, ok := r.seekers[ss.ID]
		if !ok {
			return &InvalidResponseError{Reason: fmt.Sprintf("seeker %s not in mirrored state", ss.ID)}
		}
		s.Position = ss.Position
		s.Velocity = ss.Velocity
		s.Target = ss.Target
		s.DisabledCounter = ss.DisabledCounter
		s.Magnet.SetStrength(ss.Magnet)
	}

	for _, ps := range snap.Players {
		p, ok := r.players[ps.ID]
		if !ok {
			return &InvalidResponseError{Reason: fmt.Sprintf("player %s not in mirrored state", ps.ID)}
		}
		p.Score = ps.Score
	}

	for _, gs := range snap.Goals {
		goal, ok := r.goals[gs.ID]
		if !ok {
			return &InvalidResponseError{Reason: fmt.Sprintf("goal %s not in mirrored state", gs.ID)}
		}
		goal.Position = gs.Position
		goal.Velocity = gs.Velocity
		goal.TimeOwned = gs.TimeOwned
		if gs.OwnerID == "" {
			goal.Owner = nil
		} else {
			owner, ok := r.players[gs.OwnerID]
			if !ok {
				return &InvalidResponseError{Reason: fmt.Sprintf("goal owner %s not in mirrored state", gs.OwnerID)}
			}
			goal.Owner = owner
		}
	}

	// Camps never change after game start.
	return nil
}

// rebuild reconstructs the whole mirror from one snapshot and the
// server config.
func (r *Runner) rebuild(snap *game.Snapshot) {
	r.players = make(map[string]*game.Player)
	r.seekers = make(map[string]*game.Seeker)
	r.camps = make(map[string]*game.Camp)
	r.goals = make(map[string]*game.Goal)
	r.playerOrder = r.playerOrder[:0]
	r.goalOrder = r.goalOrder[:0]

	seekerStatus := make(map[string]game.SeekerStatus, len(snap.Seekers))
	for _, ss := range snap.Seekers {
		seekerStatus[ss.ID] = ss
	}
	campStatus := make(map[string]game.CampStatus, len(snap.Camps))
	for _, cs := range snap.Camps {
		campStatus[cs.ID] = cs
	}

	for _, ps := range snap.Players {
		p := &game.Player{
			ID:    ps.ID,
			Name:  ps.Name,
			Score: ps.Score,
			Color: ps.Color,
		}
		for _, sid := range ps.SeekerIDs {
			ss := seekerStatus[sid]
			s := &game.Seeker{
				Physical: game.Physical{
					ID:       ss.ID,
					Position: ss.Position,
					Velocity: ss.Velocity,
					Mass:     r.cfg.Seeker.Mass,
					Radius:   r.cfg.Seeker.Radius,
					Friction: r.cfg.Seeker.Friction,
				},
				Owner:           p,
				Target:          ss.Target,
				DisabledCounter: ss.DisabledCounter,
				DisabledTime:    r.cfg.Seeker.DisabledTime,
				MagnetSlowdown:  r.cfg.Seeker.MagnetSlowdown,
				BaseThrust:      r.cfg.Seeker.Thrust,
			}
			s.Magnet.SetStrength(ss.Magnet)
			p.AddSeeker(s)
			r.seekers[sid] = s
		}
		if cs, ok := campStatus[ps.CampID]; ok {
			camp := &game.Camp{
				ID:       cs.ID,
				Owner:    p,
				Position: cs.Position,
				Width:    cs.Width,
				Height:   cs.Height,
			}
			p.Camp = camp
			r.camps[camp.ID] = camp
		}
		r.players[ps.ID] = p
		r.playerOrder = append(r.playerOrder, ps.ID)
	}

	for _, gs := range snap.Goals {
		goal := &game.Goal{
			Physical: game.Physical{
				ID:       gs.ID,
				Position: gs.Position,
				Velocity: gs.Velocity,
				Mass:     r.cfg.Goal.Mass,
				Radius:   r.cfg.Goal.Radius,
				Friction: r.cfg.Goal.Friction,
			},
			TimeOwned:   gs.TimeOwned,
			ScoringTime: r.cfg.Goal.ScoringTime,
			BaseThrust:  r.cfg.Goal.Thrust,
		}
		if gs.OwnerID != "" {
			goal.Owner = r.players[gs.OwnerID]
		}
		r.goals[gs.ID] = goal
		r.goalOrder = append(r.goalOrder, gs.ID)
	}
}

// aiInput assembles the decide-function view from the mirror, in the
// server's player and goal order.
func (r *Runner) aiInput() (game.AIInput, error) {
	me, ok := r.players[r.service.PlayerID]
	if !ok {
		return game.AIInput{}, &InvalidResponseError{
			Reason: fmt.Sprintf("own player id %s not in mirrored state", r.service.PlayerID),
		}
	}

	var mySeekers, otherSeekers, allSeekers []*game.Seeker
	var otherPlayers []*game.Player
	var camps []*game.Camp
	for _, pid := range r.playerOrder {
		p := r.players[pid]
		if p.Camp != nil {
			camps = append(camps, p.Camp)
		}
		allSeekers = append(allSeekers, p.Seekers...)
		if p == me {
			mySeekers = append(mySeekers, p.Seekers...)
		} else {
			otherPlayers = append(otherPlayers, p)
			otherSeekers = append(otherSeekers, p.Seekers...)
		}
	}

	goals := make([]*game.Goal, 0, len(r.goalOrder))
	for _, gid := range r.goalOrder {
		goals = append(goals, r.goals[gid])
	}

	return game.AIInput{
		MySeekers:    mySeekers,
		OtherSeekers: otherSeekers,
		AllSeekers:   allSeekers,
		Goals:        goals,
		OtherPlayers: otherPlayers,
		MyCamp:       me.Camp,
		Camps:        camps,
		World:        r.world,
		PassedTime:   float64(r.lastGametime),
	}, nil
}
