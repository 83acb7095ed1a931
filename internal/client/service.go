// Package client implements a remote player: the service wrapper speaks
// the join/properties/command protocol and the Runner drives a decide
// function against a mirrored world state.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"seekers/internal/api"
	"seekers/internal/config"
	"seekers/internal/game"

	"github.com/gorilla/websocket"
)

var (
	// ErrServerUnavailable means the server cannot be reached or closed
	// the connection; the run loop treats it as game over.
	ErrServerUnavailable = errors.New("server unavailable")
	// ErrGameFull mirrors the server-side join rejection.
	ErrGameFull = errors.New("game is full")
	// ErrGameStarted mirrors the server-side join rejection.
	ErrGameStarted = errors.New("game has already started")
)

// InvalidResponseError reports a server reply the mirror cannot
// reconcile, usually an entity id the client has never seen.
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return "invalid response: " + e.Reason
}

// Service wraps one session against a game server: join and properties
// over HTTP, command batches over a single ordered websocket.
type Service struct {
	addr  string
	httpc *http.Client
	conn  *websocket.Conn

	Token    string
	PlayerID string
	Name     string
}

// Dial prepares a service for the server at addr (host:port). No
// connection is opened until Join.
func Dial(addr string) *Service {
	return &Service{
		addr:  addr,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

// Join registers with the server and opens the command websocket. The
// reply may carry a deduplicated name differing from the requested one.
func (s *Service) Join(name string, color *game.Color) error {
	body, err := json.Marshal(api.JoinRequest{Name: name, Color: color})
	if err != nil {
		return err
	}

	resp, err := s.httpc.Post("http://"+s.addr+"/api/join", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return joinError(resp)
	}

	var jr api.JoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&jr); err != nil {
		return &InvalidResponseError{Reason: "malformed join reply: " + err.Error()}
	}
	s.Token = jr.Token
	s.PlayerID = jr.PlayerID
	s.Name = jr.Name

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.addr+"/ws", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	s.conn = conn
	return nil
}

func joinError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	var wrapped struct {
		Error api.ErrorBody `json:"error"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return fmt.Errorf("join rejected with status %d", resp.StatusCode)
	}
	switch wrapped.Error.Code {
	case api.CodeGameFull:
		return fmt.Errorf("%w: %s", ErrGameFull, wrapped.Error.Message)
	case api.CodeGameStarted:
		return fmt.Errorf("%w: %s", ErrGameStarted, wrapped.Error.Message)
	default:
		return fmt.Errorf("join rejected: %s", wrapped.Error.Message)
	}
}

// Properties fetches the server's flat config map.
func (s *Service) Properties() (map[string]string, error) {
	resp, err := s.httpc.Get("http://" + s.addr + "/api/properties")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	defer resp.Body.Close()

	var props map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&props); err != nil {
		return nil, &InvalidResponseError{Reason: "malformed properties reply: " + err.Error()}
	}
	return props, nil
}

// Config fetches the properties and rebuilds a full typed config. The
// round trip is exact, so client-side physics match the server.
func (s *Service) Config() (*config.Config, error) {
	props, err := s.Properties()
	if err != nil {
		return nil, err
	}
	cfg, err := config.FromProperties(props)
	if err != nil {
		return nil, &InvalidResponseError{Reason: err.Error()}
	}
	return cfg, nil
}

// SendCommands sends one batch and blocks for the matching reply. The
// connection carries strictly ordered request/reply pairs.
func (s *Service) SendCommands(cmds []game.Command) (*api.CommandResponse, error) {
	if s.conn == nil {
		return nil, fmt.Errorf("%w: not joined", ErrServerUnavailable)
	}

	req := api.CommandRequest{Token: s.Token, Commands: cmds}
	if err := s.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}

	var resp api.CommandResponse
	if err := s.conn.ReadJSON(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("command rejected (%s): %s", resp.Error.Code, resp.Error.Message)
	}
	if resp.Status == nil {
		return nil, &InvalidResponseError{Reason: "command reply without status"}
	}
	return &resp, nil
}

// Close shuts the websocket down.
func (s *Service) Close() {
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
		s.conn = nil
	}
}
