package api

import "seekers/internal/game"

// Wire protocol for remote players. Join and the read-only views travel
// over plain HTTP; per-tick command batches travel over a websocket so a
// client can hold one ordered connection for the whole game.

// ErrorCode classifies a rejected request.
type ErrorCode string

const (
	CodeInvalidArgument  ErrorCode = "invalid_argument"
	CodeGameFull         ErrorCode = "game_full"
	CodeGameStarted      ErrorCode = "game_started"
	CodeNotFound         ErrorCode = "not_found"
	CodePermissionDenied ErrorCode = "permission_denied"
)

// ErrorBody is the JSON error payload shared by HTTP and websocket
// responses.
type ErrorBody struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// JoinRequest registers a remote player. Color is optional; without it
// the server derives one from the name.
type JoinRequest struct {
	Name  string      `json:"name"`
	Color *game.Color `json:"color,omitempty"`
}

// JoinResponse carries the session token and the final player identity.
// Name may differ from the requested one when it was already taken.
type JoinResponse struct {
	Token    string `json:"token"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// CommandRequest is one websocket command batch. An empty batch is a
// plain status query and does not block on the next tick.
type CommandRequest struct {
	Token    string         `json:"token"`
	Commands []game.Command `json:"commands"`
}

// CommandResponse answers a CommandRequest. On success Status holds the
// snapshot of the first tick that saw the batch; on failure Error is set
// and the batch had no effect beyond the commands already applied.
type CommandResponse struct {
	Error          *ErrorBody     `json:"error,omitempty"`
	Status         *game.Snapshot `json:"status,omitempty"`
	SeekersChanged int            `json:"seekers_changed"`
}
