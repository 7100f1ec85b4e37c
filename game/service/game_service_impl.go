package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/memory-workout/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var config *engine.GameConfig
	if req.ConfigID != "" {
		loaded, err := s.configs.LoadConfig(req.ConfigID)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				return nil, s.configNotFound(req.ConfigID)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", req.ConfigID, err)
		}
		config = loaded
	} else {
		config = s.configs.GetDefault()
	}

	if req.Rows != 0 || req.Columns != 0 {
		rows, columns := req.Rows, req.Columns
		if rows == 0 {
			rows = config.Rows
		}
		if columns == 0 {
			columns = config.Columns
		}
		if err := engine.ValidateDimensions(rows, columns); err != nil {
			return nil, err
		}
		custom := *config
		custom.Rows, custom.Columns = rows, columns
		config = &custom
	}

	var opts []engine.Option
	if req.Seed != nil {
		opts = append(opts, engine.WithSeed(*req.Seed))
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := req.ConfigID
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	log.Info().Str("session", sess.ID).Str("config", configID).
		Int("rows", config.Rows).Int("columns", config.Columns).Msg("session created")

	return s.sessionInfo(sess, configID), nil
}

func (s *gameServiceImpl) configNotFound(configID string) error {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil && len(availableConfigs) > 0 {
		var configIDs []string
		for _, cfg := range availableConfigs {
			configIDs = append(configIDs, cfg.ConfigID)
		}
		return fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configID, configIDs)
	}
	return fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configID)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess, s.getConfigID(sess.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	log.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// Play flips one card of a session
func (s *gameServiceImpl) Play(ctx context.Context, sessionID string, index int) (*PlayResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var result *PlayResult
	err = sess.WithEngine(func(e *engine.GameEngine) error {
		mistakesBefore := e.Mistakes()
		selection := e.Selection()

		status, err := e.Play(index)
		if err != nil {
			return err
		}

		result = &PlayResult{
			Status:    status,
			Code:      status.Code.String(),
			Message:   status.Message,
			GameState: e.GetState().Masked(),
		}

		now := time.Now()
		if status.Code == engine.StatusAlreadyFaceUp {
			return nil
		}

		turn := append(selection, index)
		_, columns := e.Dimensions()
		cards := e.Cards()
		for _, i := range turn {
			row, col := engine.GridPosition(i, columns)
			result.Flipped = append(result.Flipped, FlippedCard{
				Index: i,
				Row:   row,
				Col:   col,
				Value: cards[i].Value,
				Image: cards[i].Image,
			})
		}

		result.Events = append(result.Events, GameEvent{
			Type:      EventFlip,
			Message:   fmt.Sprintf("Flipped card %d", index),
			Timestamp: now,
			Indices:   []int{index},
		})

		switch status.Code {
		case engine.StatusMatch:
			result.Events = append(result.Events, GameEvent{
				Type: EventMatch, Message: status.Message, Timestamp: now,
				Indices: turn,
			})
		case engine.StatusNoMatch:
			result.Events = append(result.Events, GameEvent{
				Type: EventMismatch, Message: status.Message, Timestamp: now,
				Indices: status.Args,
			})
			if e.Mistakes() > mistakesBefore {
				result.Events = append(result.Events, GameEvent{
					Type:      EventMistake,
					Message:   fmt.Sprintf("Mistake %d: one of these cards was seen before", e.Mistakes()),
					Timestamp: now,
					Indices:   status.Args,
				})
			}
		case engine.StatusGameOver:
			result.Events = append(result.Events,
				GameEvent{Type: EventMatch, Message: MsgMatchFinal, Timestamp: now, Indices: turn},
				GameEvent{Type: EventGameOver, Message: status.Message, Timestamp: now},
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Str("session", sess.ID).Int("index", index).
		Int("code", int(result.Status.Code)).Msg("card flipped")
	if result.Status.Code == engine.StatusGameOver {
		log.Info().Str("session", sess.ID).Int("attempts", result.GameState.Attempts).
			Int("mistakes", result.GameState.Mistakes).Msg("game over")
	}
	return result, nil
}

// Initialize re-deals a session with new dimensions
func (s *gameServiceImpl) Initialize(ctx context.Context, sessionID string, rows, columns int) (*engine.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var state *engine.GameState
	err = sess.WithEngine(func(e *engine.GameEngine) error {
		if _, err := e.Initialize(rows, columns); err != nil {
			return err
		}
		state = e.GetState().Masked()
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("session", sess.ID).Int("rows", rows).Int("columns", columns).Msg("board initialized")
	return state, nil
}

// Restart re-deals a session with its current dimensions
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var state *engine.GameState
	err = sess.WithEngine(func(e *engine.GameEngine) error {
		if _, err := e.Restart(); err != nil {
			return err
		}
		state = e.GetState().Masked()
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("session", sess.ID).Msg("game restarted")
	return state, nil
}

// GetGameState returns the masked state of a session
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.State().Masked(), nil
}

// GetTurnHistory returns paginated turn history
func (s *gameServiceImpl) GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var history []engine.TurnRecord
	_ = sess.WithEngine(func(e *engine.GameEngine) error {
		history = e.GetTurnHistory()
		return nil
	})
	return paginate(history, opts), nil
}

func paginate(history []engine.TurnRecord, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > MaxHistoryPage {
		opts.Limit = MaxHistoryPage
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	turns := []engine.TurnRecord{}
	if opts.Order == "desc" {
		// most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			turns = append(turns, history[i])
		}
	} else if start < total {
		turns = append(turns, history[start:end]...)
	}

	return &HistoryResponse{
		Turns:       turns,
		TotalTurns:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a configuration
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if err := s.configs.SaveConfig(configName, config); err != nil {
		return err
	}
	log.Info().Str("config", configName).Msg("config saved")
	return nil
}

func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	_ = s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt(),
		GameState:      sess.State().Masked(),
		GameConfig:     sess.CurrentConfig(),
	}
}
