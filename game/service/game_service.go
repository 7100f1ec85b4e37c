package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/memory-workout/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Play(ctx context.Context, sessionID string, index int) (*PlayResult, error)
	Initialize(ctx context.Context, sessionID string, rows, columns int) (*engine.GameState, error)
	Restart(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig, opts ...engine.Option) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session. The engine is only reachable
// through WithEngine, which serializes access per session.
type Session struct {
	ID        string
	Config    *engine.GameConfig // preset the session was created from
	CreatedAt time.Time

	mu             sync.Mutex
	engine         *engine.GameEngine
	lastAccessedAt time.Time
}

// NewSession wraps an engine in a session
func NewSession(id string, config *engine.GameConfig, eng *engine.GameEngine) *Session {
	now := time.Now()
	return &Session{
		ID:             id,
		Config:         config,
		CreatedAt:      now,
		engine:         eng,
		lastAccessedAt: now,
	}
}

// WithEngine runs fn while holding the session lock.
func (s *Session) WithEngine(fn func(e *engine.GameEngine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.engine)
}

// State returns a full, unmasked snapshot
func (s *Session) State() *engine.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.GetState()
}

// CurrentConfig returns a copy of the preset carrying the dimensions of the
// board in play, which differ from the preset after Initialize.
func (s *Session) CurrentConfig() *engine.GameConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	config := *s.Config
	config.Symbols = append([]engine.Symbol(nil), s.Config.Symbols...)
	config.Rows, config.Columns = s.engine.Dimensions()
	return &config
}

// Touch records an access
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastAccessedAt = time.Now()
	s.mu.Unlock()
}

// LastAccessedAt returns the time of the last access
func (s *Session) LastAccessedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessedAt
}
