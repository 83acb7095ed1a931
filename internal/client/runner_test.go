package client

import (
	"errors"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"seekers/internal/api"
	"seekers/internal/config"
	"seekers/internal/game"
)

func testRunner() *Runner {
	cfg := config.Default()
	r := NewRunner(&Service{PlayerID: "player@1"}, nil, false)
	r.cfg = cfg
	r.world = game.World{Width: cfg.Map.Width, Height: cfg.Map.Height}
	return r
}

func testSnapshot() *game.Snapshot {
	return &game.Snapshot{
		PassedPlaytime: 10,
		Players: []game.PlayerStatus{
			{ID: "player@1", Name: "Me", Score: 0, CampID: "camp@1", SeekerIDs: []string{"seeker@1"}},
			{ID: "player@2", Name: "Them", Score: 2, CampID: "camp@2", SeekerIDs: []string{"seeker@2"}},
		},
		Camps: []game.CampStatus{
			{ID: "camp@1", OwnerID: "player@1", Position: game.Vec(384, 192), Width: 175, Height: 100},
			{ID: "camp@2", OwnerID: "player@2", Position: game.Vec(384, 576), Width: 175, Height: 100},
		},
		Seekers: []game.SeekerStatus{
			{ID: "seeker@1", PlayerID: "player@1", Position: game.Vec(10, 20), Velocity: game.Vec(1, 0), Target: game.Vec(50, 50), Magnet: 1},
			{ID: "seeker@2", PlayerID: "player@2", Position: game.Vec(700, 700), Target: game.Vec(700, 700), Magnet: -2, DisabledCounter: 30},
		},
		Goals: []game.GoalStatus{
			{ID: "goal@1", Position: game.Vec(300, 300), Velocity: game.Vec(0, 1), OwnerID: "player@2", TimeOwned: 7},
		},
	}
}

func TestRebuildReconstructsMirror(t *testing.T) {
	r := testRunner()
	r.updateState(testSnapshot())

	if r.lastGametime != 10 {
		t.Errorf("lastGametime = %d", r.lastGametime)
	}

	me := r.players["player@1"]
	if me == nil || len(me.Seekers) != 1 || me.Camp == nil {
		t.Fatal("own player not fully rebuilt")
	}
	s := me.Seekers[0]
	if s.Position != game.Vec(10, 20) || s.Target != game.Vec(50, 50) {
		t.Errorf("seeker state = %v target %v", s.Position, s.Target)
	}
	if s.Magnet.Strength() != 1 {
		t.Errorf("magnet = %g", s.Magnet.Strength())
	}
	if s.Mass != r.cfg.Seeker.Mass || s.Radius != r.cfg.Seeker.Radius {
		t.Error("physics constants not taken from config")
	}
	if s.Owner != me {
		t.Error("seeker owner not wired to mirrored player")
	}

	theirs := r.seekers["seeker@2"]
	if theirs == nil || !theirs.IsDisabled() {
		t.Error("disabled counter not carried over")
	}

	goal := r.goals["goal@1"]
	if goal == nil || goal.Owner != r.players["player@2"] || goal.TimeOwned != 7 {
		t.Error("goal ownership not rebuilt")
	}
	if goal.ScoringTime != r.cfg.Goal.ScoringTime {
		t.Error("goal scoring time not taken from config")
	}
}

func TestMergeKeepsIdentities(t *testing.T) {
	r := testRunner()
	r.updateState(testSnapshot())

	before := r.seekers["seeker@1"]
	beforeGoal := r.goals["goal@1"]

	snap := testSnapshot()
	snap.PassedPlaytime = 11
	snap.Seekers[0].Position = game.Vec(11, 21)
	snap.Seekers[0].Magnet = -3
	snap.Goals[0].OwnerID = ""
	snap.Goals[0].TimeOwned = 0
	r.updateState(snap)

	if r.seekers["seeker@1"] != before {
		t.Fatal("merge replaced the seeker instead of updating it")
	}
	if before.Position != game.Vec(11, 21) || before.Magnet.Strength() != -3 {
		t.Errorf("seeker not updated: %v magnet %g", before.Position, before.Magnet.Strength())
	}
	if r.goals["goal@1"] != beforeGoal || beforeGoal.Owner != nil {
		t.Error("goal owner clear not merged in place")
	}
	if r.lastGametime != 11 {
		t.Errorf("lastGametime = %d", r.lastGametime)
	}
}

func TestMergeRejectsUnknownIDs(t *testing.T) {
	r := testRunner()
	r.rebuild(testSnapshot())

	snap := testSnapshot()
	snap.Seekers = append(snap.Seekers, game.SeekerStatus{ID: "seeker@3", PlayerID: "player@2"})
	err := r.merge(snap)
	var invalid *InvalidResponseError
	if !errors.As(err, &invalid) {
		t.Errorf("unknown seeker merge error = %v", err)
	}

	snap = testSnapshot()
	snap.Goals[0].OwnerID = "player@9"
	if err := r.merge(snap); !errors.As(err, &invalid) {
		t.Errorf("unknown goal owner merge error = %v", err)
	}
}

func TestUpdateStateFallsBackToRebuild(t *testing.T) {
	r := testRunner()
	r.updateState(testSnapshot())
	old := r.seekers["seeker@1"]

	// A reply with a never-seen seeker cannot merge; the mirror must be
	// rebuilt from the snapshot rather than dropped.
	snap := testSnapshot()
	snap.PassedPlaytime = 12
	snap.Players[0].SeekerIDs = []string{"seeker@1", "seeker@7"}
	snap.Seekers = append(snap.Seekers, game.SeekerStatus{ID: "seeker@7", PlayerID: "player@1"})
	r.updateState(snap)

	if r.seekers["seeker@7"] == nil {
		t.Fatal("rebuild did not pick up the new seeker")
	}
	if r.seekers["seeker@1"] == old {
		t.Error("rebuild kept a stale seeker instance")
	}
	if r.lastGametime != 12 {
		t.Errorf("lastGametime = %d", r.lastGametime)
	}
}

func TestAIInputFromMirror(t *testing.T) {
	r := testRunner()
	r.updateState(testSnapshot())

	in, err := r.aiInput()
	if err != nil {
		t.Fatalf("aiInput: %v", err)
	}
	if len(in.MySeekers) != 1 || in.MySeekers[0].ID != "seeker@1" {
		t.Errorf("MySeekers = %v", in.MySeekers)
	}
	if len(in.OtherSeekers) != 1 || len(in.AllSeekers) != 2 {
		t.Errorf("seeker partition = %d/%d", len(in.OtherSeekers), len(in.AllSeekers))
	}
	if in.MyCamp == nil || in.MyCamp.ID != "camp@1" {
		t.Error("MyCamp not the own camp")
	}
	if len(in.Camps) != 2 || len(in.OtherPlayers) != 1 {
		t.Errorf("camps/others = %d/%d", len(in.Camps), len(in.OtherPlayers))
	}
	if in.PassedTime != 10 {
		t.Errorf("PassedTime = %g", in.PassedTime)
	}
	if in.World != r.world {
		t.Errorf("World = %v", in.World)
	}
}

func TestAIInputRequiresOwnPlayer(t *testing.T) {
	r := testRunner()
	snap := testSnapshot()
	snap.Players = snap.Players[1:]
	snap.Seekers = snap.Seekers[1:]
	r.updateState(snap)

	_, err := r.aiInput()
	var invalid *InvalidResponseError
	if !errors.As(err, &invalid) {
		t.Errorf("missing own player error = %v", err)
	}
}

// TestTransportEquivalence runs the same seeded scenario once fully
// in-process and once through the HTTP/websocket protocol. The JSON
// float round trip is exact, so the two histories must match bit for
// bit.
func TestTransportEquivalence(t *testing.T) {
	const ticks = 30

	newCfg := func() *config.Config {
		cfg := config.Default()
		cfg.Global.Players = 1
		cfg.Global.Seekers = 2
		cfg.Global.Goals = 2
		cfg.Global.WaitForPlayers = true
		return cfg
	}

	decide := func(in game.AIInput) []*game.Seeker {
		for _, s := range in.MySeekers {
			if len(in.Goals) == 0 {
				continue
			}
			goal := in.World.NearestGoal(s.Position, in.Goals)
			s.Target = goal.Position
			if in.World.TorusDistance(s.Position, goal.Position) < 60 {
				s.Magnet.SetAttractive()
			} else {
				s.Magnet.Disable()
			}
		}
		return in.MySeekers
	}

	local := game.New(newCfg())
	if _, err := local.AddPlayer("Solo", nil, game.NewLocalController(decide)); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := local.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < ticks; i++ {
		local.Tick()
	}
	want := local.Snapshot()

	remote := game.New(newCfg())
	srv := api.NewServer(remote, api.ServerConfig{DisableLogging: true})
	ts := httptest.NewServer(srv.Router())
	defer func() {
		ts.Close()
		srv.Stop()
	}()

	svc := Dial(strings.TrimPrefix(ts.URL, "http://"))
	if err := svc.Join("Solo", nil); err != nil {
		t.Fatalf("Join: %v", err)
	}
	defer svc.Close()
	if err := remote.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	r := NewRunner(svc, decide, true)
	done := make(chan error, 1)
	go func() {
		// Batch i is consumed by server tick i; the first call also
		// performs the initial empty-batch state fetch.
		for i := 0; i < ticks; i++ {
			if err := r.tick(); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	for i := 0; i < ticks; i++ {
		remote.Tick()
	}
	if err := <-done; err != nil {
		t.Fatalf("runner tick: %v", err)
	}
	got := remote.Snapshot()

	if !reflect.DeepEqual(want, got) {
		t.Errorf("networked history diverged from in-process run:\n%+v\nvs\n%+v", got, want)
	}
}

func TestRunnerAgainstServer(t *testing.T) {
	cfg := config.Default()
	cfg.Global.Players = 1
	cfg.Global.Seekers = 1
	cfg.Global.Goals = 1
	cfg.Global.WaitForPlayers = true

	g := game.New(cfg)
	srv := api.NewServer(g, api.ServerConfig{DisableLogging: true})
	ts := httptest.NewServer(srv.Router())
	defer func() {
		ts.Close()
		srv.Stop()
	}()

	svc := Dial(strings.TrimPrefix(ts.URL, "http://"))
	if err := svc.Join("Mirror", nil); err != nil {
		t.Fatalf("Join: %v", err)
	}
	defer svc.Close()

	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var sawTarget game.Vector
	decide := func(in game.AIInput) []*game.Seeker {
		for _, s := range in.MySeekers {
			s.Target = game.Vec(111, 222)
			s.Magnet.SetAttractive()
			sawTarget = s.Target
		}
		return in.MySeekers
	}
	r := NewRunner(svc, decide, true)

	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Tick()
	}()

	// The first tick fetches initial state with an empty batch, then
	// sends one real batch consumed by the single server tick.
	if err := r.tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	<-done

	if sawTarget != game.Vec(111, 222) {
		t.Fatal("decide function never ran")
	}
	if r.lastGametime != 1 {
		t.Errorf("lastGametime = %d, want 1", r.lastGametime)
	}

	authoritative := g.Players()[0].Seekers[0]
	if authoritative.Target != game.Vec(111, 222) {
		t.Errorf("server target = %v, want commanded (111,222)", authoritative.Target)
	}
	if authoritative.Magnet.Strength() != game.MagnetMax {
		t.Errorf("server magnet = %g", authoritative.Magnet.Strength())
	}

	mirrored := r.seekers[authoritative.ID]
	if mirrored == nil {
		t.Fatal("own seeker missing from mirror")
	}
	if mirrored.Position != authoritative.Position {
		t.Errorf("mirror position %v != server %v", mirrored.Position, authoritative.Position)
	}
}
