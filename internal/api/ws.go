package api

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"seekers/internal/game"

	"github.com/gorilla/websocket"
)

const (
	// MaxWSConnectionsTotal caps sessions across all IPs.
	MaxWSConnectionsTotal = 500

	// MaxWSConnectionsPerIP caps sessions per client IP.
	MaxWSConnectionsPerIP = 10

	// commandReplyTimeout bounds how long a command reply may wait for the
	// next tick, so a stopped game cannot strand a client forever.
	commandReplyTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if isAllowedOrigin(origin) {
			return true
		}
		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		RecordConnectionRejected("origin")
		return false
	},
}

// isAllowedOrigin accepts non-browser clients (no Origin header) and
// local browser frontends.
func isAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	return strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1")
}

// tickBarrier publishes the per-tick snapshot and lets command handlers
// block until the tick after their batch was applied. Each tick closes
// the previous waiters' channel and starts a fresh one.
type tickBarrier struct {
	mu   sync.Mutex
	snap *game.Snapshot
	next chan struct{}
}

func newTickBarrier() *tickBarrier {
	return &tickBarrier{next: make(chan struct{})}
}

// Publish installs the fresh snapshot and releases everyone waiting on
// the tick that just completed.
func (b *tickBarrier) Publish(snap *game.Snapshot) {
	b.mu.Lock()
	b.snap = snap
	close(b.next)
	b.next = make(chan struct{})
	b.mu.Unlock()
}

// Next returns a channel closed by the next Publish. Grab it before
// applying commands: a batch applied before the grab could otherwise
// race past its own tick.
func (b *tickBarrier) Next() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.next
}

// Current returns the latest published snapshot, nil before the first
// tick.
func (b *tickBarrier) Current() *game.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap
}

// handleWS runs one websocket command session. Each received message is
// a CommandRequest; each reply is a CommandResponse. Messages on one
// connection are handled strictly in order.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	s.connMu.Lock()
	total := s.connCount
	s.connMu.Unlock()
	if total >= MaxWSConnectionsTotal {
		RecordConnectionRejected("ws_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}
	if !s.wsLimiter.Allow(ip) {
		RecordConnectionRejected("ws_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		s.wsLimiter.Release(ip)
		return
	}

	s.trackConn(1)
	defer func() {
		s.trackConn(-1)
		s.wsLimiter.Release(ip)
		conn.Close()
	}()
	log.Printf("📱 Command session opened from %s", ip)

	for {
		var req CommandRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("📱 Command session from %s ended: %v", ip, err)
			}
			return
		}

		resp := s.handleCommandBatch(&req)
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *Server) trackConn(delta int) {
	s.connMu.Lock()
	s.connCount += delta
	count := s.connCount
	s.connMu.Unlock()
	UpdateWSConnections(count)
}

// handleCommandBatch applies one batch and waits for the tick that sees
// it. An empty batch is a status query and replies immediately from the
// cached snapshot.
func (s *Server) handleCommandBatch(req *CommandRequest) *CommandResponse {
	playerID, ok := s.sessions.playerForToken(req.Token)
	if !ok {
		return &CommandResponse{Error: &ErrorBody{
			Code:    CodePermissionDenied,
			Message: "unknown session token",
		}}
	}

	if len(req.Commands) == 0 {
		return &CommandResponse{Status: s.currentStatus()}
	}

	next := s.barrier.Next()
	if err := s.game.ApplyCommands(playerID, req.Commands); err != nil {
		return &CommandResponse{Error: commandError(err)}
	}

	select {
	case <-next:
	case <-s.game.Done():
	case <-time.After(commandReplyTimeout):
	}

	RecordCommandBatch(len(req.Commands))
	return &CommandResponse{
		Status:         s.currentStatus(),
		SeekersChanged: len(req.Commands),
	}
}

func (s *Server) currentStatus() *game.Snapshot {
	if snap := s.barrier.Current(); snap != nil {
		return snap
	}
	return s.game.Snapshot()
}

func commandError(err error) *ErrorBody {
	code := CodeInvalidArgument
	switch {
	case errors.Is(err, game.ErrUnknownSeeker), errors.Is(err, game.ErrUnknownPlayer):
		code = CodeNotFound
	case errors.Is(err, game.ErrNotOwner):
		code = CodePermissionDenied
	}
	return &ErrorBody{Code: code, Message: err.Error()}
}
