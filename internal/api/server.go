package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"seekers/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server exposes a running game over HTTP and websocket: join, the
// read-only properties and status views, and the per-tick command
// channel.
type Server struct {
	game        *game.Game
	router      *chi.Mux
	sessions    *sessionStore
	rateLimiter *IPRateLimiter
	wsLimiter   *WebSocketRateLimiter
	barrier     *tickBarrier

	connMu    sync.Mutex
	connCount int
}

// ServerConfig tunes the HTTP surface. The zero value works for tests.
type ServerConfig struct {
	// RateLimitConfig overrides the per-IP request limiter.
	RateLimitConfig *RateLimitConfig
	// DisableLogging drops the request logger middleware.
	DisableLogging bool
}

// NewServer wires the router and installs itself as the game's tick
// observer. It starts no goroutines and opens no listeners, so tests can
// mount Router() on httptest directly.
func NewServer(g *game.Game, cfg ServerConfig) *Server {
	s := &Server{
		game:      g,
		sessions:  newSessionStore(),
		wsLimiter: NewWebSocketRateLimiter(MaxWSConnectionsPerIP),
		barrier:   newTickBarrier(),
	}

	rateLimitCfg := DefaultRateLimitConfig
	if cfg.RateLimitConfig != nil {
		rateLimitCfg = *cfg.RateLimitConfig
	}
	s.rateLimiter = NewIPRateLimiter(rateLimitCfg)

	g.SetTickObserver(func(snap *game.Snapshot, dur time.Duration) {
		RecordTick(dur)
		UpdatePlayerCount(len(snap.Players))
		s.barrier.Publish(snap)
	})

	r := chi.NewRouter()
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(s.rateLimiter.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/join", s.handleJoin)
		r.Get("/properties", s.handleProperties)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/ws", s.handleWS)

	s.router = r
	return s
}

// Router returns the HTTP handler, for httptest or a custom listener.
func (s *Server) Router() http.Handler { return s.router }

// Start serves the API on addr. Blocks like http.ListenAndServe.
func (s *Server) Start(addr string) error {
	log.Printf("🌐 API server starting on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// Stop shuts down the server's background state.
func (s *Server) Stop() {
	s.rateLimiter.Stop()
}

// handleJoin registers a remote player and hands back a session token.
// The name is deduplicated server-side; the reply carries the final one.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "malformed join request")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "name must not be empty")
		return
	}

	token, err := newToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, CodeInvalidArgument, "token generation failed")
		return
	}

	ctrl := game.NewRemoteController(token)
	p, err := s.game.AddPlayer(req.Name, req.Color, ctrl)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrGameFull):
			writeError(w, http.StatusConflict, CodeGameFull, err.Error())
		case errors.Is(err, game.ErrGameStarted):
			writeError(w, http.StatusConflict, CodeGameStarted, err.Error())
		default:
			writeError(w, http.StatusBadRequest, CodeInvalidArgument, err.Error())
		}
		return
	}

	s.sessions.put(token, p.ID)
	log.Printf("🙋 %s joined as %s", p.Name, p.ID)
	writeJSON(w, http.StatusOK, JoinResponse{Token: token, PlayerID: p.ID, Name: p.Name})
}

// handleProperties serves the full config as a flat section.key map. A
// client rebuilds its physics constants from this, so the map must round
// trip exactly.
func (s *Server) handleProperties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Config().Properties())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentStatus())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, msg string) {
	writeJSON(w, status, map[string]ErrorBody{"error": {Code: code, Message: msg}})
}

// sessionStore maps opaque session tokens to player ids. Tokens are
// write-once: entries live for the whole game.
type sessionStore struct {
	mu      sync.RWMutex
	byToken map[string]string
}

func newSessionStore() *sessionStore {
	return &sessionStore{byToken: make(map[string]string)}
}

func (st *sessionStore) put(token, playerID string) {
	st.mu.Lock()
	st.byToken[token] = playerID
	st.mu.Unlock()
}

func (st *sessionStore) playerForToken(token string) (string, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.byToken[token]
	return id, ok
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
