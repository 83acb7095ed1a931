package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"seekers/internal/config"
	"seekers/internal/game"

	"github.com/gorilla/websocket"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Global.Players = 2
	cfg.Global.Seekers = 2
	cfg.Global.Goals = 1
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*game.Game, *Server, *httptest.Server) {
	t.Helper()
	g := game.New(cfg)
	s := NewServer(g, ServerConfig{
		DisableLogging: true,
		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 10000,
			Burst:             10000,
			CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
		},
	})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		ts.Close()
		s.Stop()
	})
	return g, s, ts
}

func joinPlayer(t *testing.T, ts *httptest.Server, name string) JoinResponse {
	t.Helper()
	body, _ := json.Marshal(JoinRequest{Name: name})
	resp, err := http.Post(ts.URL+"/api/join", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join status = %d", resp.StatusCode)
	}
	var jr JoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&jr); err != nil {
		t.Fatalf("join decode: %v", err)
	}
	return jr
}

func joinError(t *testing.T, ts *httptest.Server, name string) (int, ErrorCode) {
	t.Helper()
	body, _ := json.Marshal(JoinRequest{Name: name})
	resp, err := http.Post(ts.URL+"/api/join", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	defer resp.Body.Close()
	var wrapped struct {
		Error ErrorBody `json:"error"`
	}
	json.NewDecoder(resp.Body).Decode(&wrapped)
	return resp.StatusCode, wrapped.Error.Code
}

func TestJoinDeduplicatesAndFills(t *testing.T) {
	_, _, ts := newTestServer(t, testConfig())

	first := joinPlayer(t, ts, "Alice")
	second := joinPlayer(t, ts, "Alice")

	if first.Name != "Alice" || second.Name != "Alice (2)" {
		t.Errorf("names = %q, %q", first.Name, second.Name)
	}
	if first.Token == second.Token {
		t.Error("tokens not unique")
	}
	if first.PlayerID == second.PlayerID {
		t.Error("player ids not unique")
	}

	status, code := joinError(t, ts, "Carol")
	if status != http.StatusConflict || code != CodeGameFull {
		t.Errorf("third join = %d %s, want 409 game_full", status, code)
	}
}

func TestJoinRejectsAfterStart(t *testing.T) {
	g, _, ts := newTestServer(t, testConfig())
	joinPlayer(t, ts, "Alice")

	if _, err := g.AddPlayer("Bot", nil, game.NewLocalController(func(in game.AIInput) []*game.Seeker {
		return in.MySeekers
	})); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	status, code := joinError(t, ts, "Late")
	if status != http.StatusConflict || code != CodeGameStarted {
		t.Errorf("late join = %d %s, want 409 game_started", status, code)
	}
}

func TestJoinRejectsEmptyName(t *testing.T) {
	_, _, ts := newTestServer(t, testConfig())
	status, code := joinError(t, ts, "   ")
	if status != http.StatusBadRequest || code != CodeInvalidArgument {
		t.Errorf("empty name join = %d %s", status, code)
	}
}

func TestPropertiesRoundTripToConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Seeker.Thrust = 1.0 / 3.0
	_, _, ts := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/api/properties")
	if err != nil {
		t.Fatalf("properties: %v", err)
	}
	defer resp.Body.Close()

	var props map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&props); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rebuilt, err := config.FromProperties(props)
	if err != nil {
		t.Fatalf("FromProperties: %v", err)
	}
	if rebuilt.Seeker.Thrust != cfg.Seeker.Thrust {
		t.Errorf("thrust drifted: %v != %v", rebuilt.Seeker.Thrust, cfg.Seeker.Thrust)
	}
	if rebuilt.Map.Width != cfg.Map.Width {
		t.Errorf("map width drifted")
	}
}

func TestStatusBeforeFirstTick(t *testing.T) {
	_, _, ts := newTestServer(t, testConfig())
	joinPlayer(t, ts, "Alice")

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	defer resp.Body.Close()

	var snap game.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.PassedPlaytime != 0 {
		t.Errorf("passed playtime = %d, want 0", snap.PassedPlaytime)
	}
	if len(snap.Players) != 1 {
		t.Errorf("players = %d, want 1", len(snap.Players))
	}
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req CommandRequest) CommandResponse {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("ws write: %v", err)
	}
	var resp CommandResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("ws read: %v", err)
	}
	return resp
}

func TestCommandSession(t *testing.T) {
	cfg := testConfig()
	cfg.Global.Players = 1
	cfg.Global.WaitForPlayers = true
	g, _, ts := newTestServer(t, cfg)

	joined := joinPlayer(t, ts, "Remote")
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn := dialWS(t, ts)

	// An empty batch is a status query and must not block on a tick.
	resp := roundTrip(t, conn, CommandRequest{Token: joined.Token})
	if resp.Error != nil {
		t.Fatalf("status query error: %+v", resp.Error)
	}
	if resp.Status.PassedPlaytime != 0 {
		t.Fatalf("passed playtime before ticks = %d", resp.Status.PassedPlaytime)
	}
	if len(resp.Status.Seekers) != cfg.Global.Seekers {
		t.Fatalf("seekers = %d", len(resp.Status.Seekers))
	}

	ticks := make(chan struct{})
	go func() {
		defer close(ticks)
		for i := 0; i < 2; i++ {
			g.Tick()
		}
	}()

	// Two full batches release the two ticks; each reply reflects the
	// tick that consumed its batch.
	for want := int64(1); want <= 2; want++ {
		var cmds []game.Command
		for _, s := range resp.Status.Seekers {
			cmds = append(cmds, game.Command{SeekerID: s.ID, Target: game.Vec(100, 100), Magnet: 1})
		}
		resp = roundTrip(t, conn, CommandRequest{Token: joined.Token, Commands: cmds})
		if resp.Error != nil {
			t.Fatalf("batch error: %+v", resp.Error)
		}
		if resp.SeekersChanged != cfg.Global.Seekers {
			t.Errorf("seekers changed = %d", resp.SeekersChanged)
		}
		if resp.Status.PassedPlaytime != want {
			t.Errorf("passed playtime = %d, want %d", resp.Status.PassedPlaytime, want)
		}
	}
	<-ticks

	for _, s := range resp.Status.Seekers {
		if s.Magnet != 1 {
			t.Errorf("seeker magnet = %g, want 1", s.Magnet)
		}
	}
}

func TestCommandSessionErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Global.Players = 2
	g, _, ts := newTestServer(t, cfg)

	alice := joinPlayer(t, ts, "Alice")
	bob := joinPlayer(t, ts, "Bob")
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	snap := g.Snapshot()

	var bobSeeker string
	for _, s := range snap.Seekers {
		if s.PlayerID == bob.PlayerID {
			bobSeeker = s.ID
			break
		}
	}

	conn := dialWS(t, ts)

	resp := roundTrip(t, conn, CommandRequest{Token: "bogus"})
	if resp.Error == nil || resp.Error.Code != CodePermissionDenied {
		t.Errorf("bogus token error = %+v", resp.Error)
	}

	resp = roundTrip(t, conn, CommandRequest{
		Token:    alice.Token,
		Commands: []game.Command{{SeekerID: "seeker@99", Target: game.Vec(1, 1)}},
	})
	if resp.Error == nil || resp.Error.Code != CodeNotFound {
		t.Errorf("unknown seeker error = %+v", resp.Error)
	}

	resp = roundTrip(t, conn, CommandRequest{
		Token:    alice.Token,
		Commands: []game.Command{{SeekerID: bobSeeker, Target: game.Vec(1, 1)}},
	})
	if resp.Error == nil || resp.Error.Code != CodePermissionDenied {
		t.Errorf("foreign seeker error = %+v", resp.Error)
	}

	resp = roundTrip(t, conn, CommandRequest{
		Token:    alice.Token,
		Commands: []game.Command{{SeekerID: snap.Seekers[0].ID, Target: game.Vec(1, 1), Magnet: 99}},
	})
	if resp.Error == nil || resp.Error.Code != CodeInvalidArgument {
		t.Errorf("bad magnet error = %+v", resp.Error)
	}
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             2,
		CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
	})
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("burst rejected")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("over-burst request allowed")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("separate IP throttled")
	}
}
