package service

import (
	"time"

	"github.com/wricardo/memory-workout/game/engine"
)

// MaxHistoryPage caps the page size of GetTurnHistory
const MaxHistoryPage = 100

// Event types carried in PlayResult.Events and WebSocket messages
const (
	EventFlip       = "flip"
	EventMatch      = "match"
	EventMismatch   = "mismatch"
	EventMistake    = "mistake"
	EventGameOver   = "game_over"
	EventInitialize = "initialize"
	EventRestart    = "restart"
)

// MsgMatchFinal labels the match that ends a game
const MsgMatchFinal = "Final pair found."

// CreateSessionRequest selects a preset and optionally overrides its grid.
// Zero Rows and Columns keep the preset dimensions.
type CreateSessionRequest struct {
	ConfigID string  `json:"config_id"`
	Rows     int     `json:"rows,omitempty"`
	Columns  int     `json:"columns,omitempty"`
	Seed     *uint64 `json:"seed,omitempty"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// FlippedCard exposes a card turned over by the current call. Mismatched
// cards are concealed again before the state is returned, so this is the
// only place a client sees their faces.
type FlippedCard struct {
	Index int           `json:"index"`
	Row   int           `json:"row"`
	Col   int           `json:"col"`
	Value int           `json:"value"`
	Image engine.Symbol `json:"image"`
}

// PlayResult contains the result of a flip
type PlayResult struct {
	Status    engine.Status     `json:"status"`
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Flipped   []FlippedCard     `json:"flipped,omitempty"`
	GameState *engine.GameState `json:"game_state"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Indices   []int     `json:"indices,omitempty"`
}

// HistoryOptions configures turn history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated turn history
type HistoryResponse struct {
	Turns       []engine.TurnRecord `json:"turns"`
	TotalTurns  int                 `json:"total_turns"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Columns     int    `json:"columns"`
	Pairs       int    `json:"pairs"`
	Shuffle     string `json:"shuffle,omitempty"`
}
