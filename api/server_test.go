package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/memory-workout/game/config"
	"github.com/wricardo/memory-workout/game/engine"
	"github.com/wricardo/memory-workout/game/service"
	"github.com/wricardo/memory-workout/game/session"
	"github.com/wricardo/memory-workout/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	PlayFunc       func(ctx context.Context, sessionID string, index int) (*service.PlayResult, error)
	InitializeFunc func(ctx context.Context, sessionID string, rows, columns int) (*engine.GameState, error)
	RestartFunc    func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetTurnHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

func (m *MockGameService) CreateSession(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, req)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: req.ConfigID, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Play(ctx context.Context, sessionID string, index int) (*service.PlayResult, error) {
	if m.PlayFunc != nil {
		return m.PlayFunc(ctx, sessionID, index)
	}
	return &service.PlayResult{
		Status:    engine.Status{Code: engine.StatusFirstCard, Message: engine.MsgFirstCard},
		Code:      engine.StatusFirstCard.String(),
		Message:   engine.MsgFirstCard,
		GameState: &engine.GameState{},
	}, nil
}

func (m *MockGameService) Initialize(ctx context.Context, sessionID string, rows, columns int) (*engine.GameState, error) {
	if m.InitializeFunc != nil {
		return m.InitializeFunc(ctx, sessionID, rows, columns)
	}
	return &engine.GameState{Rows: rows, Columns: columns}, nil
}

func (m *MockGameService) Restart(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.RestartFunc != nil {
		return m.RestartFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetTurnHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetTurnHistoryFunc != nil {
		return m.GetTurnHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{Turns: []engine.TurnRecord{}, Page: opts.Page, PageSize: opts.Limit}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{Name: configName, Description: "Test config", Rows: 2, Columns: 2}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(mockService *MockGameService) *Server {
	return NewServer(mockService, nil, zerolog.Nop())
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	switch b := body.(type) {
	case nil:
	case string:
		bodyBytes = []byte(b)
	default:
		bodyBytes, _ = json.Marshal(b)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), w.Body.String())
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	parseResponse(t, w, &resp)
	assert.NotEmpty(t, resp["error"])
	return resp["kind"]
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantKind   string
	}{
		{fmt.Errorf("%w: abc", service.ErrSessionNotFound), http.StatusNotFound, KindSessionNotFound},
		{fmt.Errorf("%w: huge", service.ErrConfigNotFound), http.StatusNotFound, KindConfigNotFound},
		{engine.ErrInvalidDimension, http.StatusBadRequest, "invalid_dimension"},
		{engine.ErrOddTotal, http.StatusBadRequest, "odd_total"},
		{engine.ErrIndexOutOfRange, http.StatusBadRequest, "index_out_of_range"},
		{engine.ErrSymbolPoolTooSmall, http.StatusBadRequest, "symbol_pool_too_small"},
		{config.ErrInvalidName, http.StatusBadRequest, "invalid_config"},
		{engine.ErrGameAlreadyOver, http.StatusConflict, "game_already_over"},
		{engine.ErrNotInitialized, http.StatusConflict, "not_initialized"},
		{context.Canceled, http.StatusServiceUnavailable, KindCanceled},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.wantKind, func(t *testing.T) {
			status, kind := classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*testing.T, *MockGameService)
		expectedStatus int
		expectedKind   string
	}{
		{
			name:        "default config",
			requestBody: nil,
			setupMock: func(t *testing.T, m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					assert.Equal(t, service.CreateSessionRequest{}, req)
					return &service.SessionInfo{ID: "a1b2", ConfigName: "classic"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "preset with grid override and seed",
			requestBody: `{"config_id":"easy","rows":4,"columns":6,"seed":7}`,
			setupMock: func(t *testing.T, m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					assert.Equal(t, "easy", req.ConfigID)
					assert.Equal(t, 4, req.Rows)
					assert.Equal(t, 6, req.Columns)
					require.NotNil(t, req.Seed)
					assert.Equal(t, uint64(7), *req.Seed)
					return &service.SessionInfo{ID: "c3d4", ConfigName: req.ConfigID}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "deprecated config_name",
			requestBody: map[string]string{"config_name": "medium"},
			setupMock: func(t *testing.T, m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					assert.Equal(t, "medium", req.ConfigID)
					return &service.SessionInfo{ID: "e5f6"}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "fractional rows",
			requestBody:    `{"rows":2.5,"columns":4}`,
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "invalid_dimension",
		},
		{
			name:           "rows without columns",
			requestBody:    `{"rows":4}`,
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "invalid_dimension",
		},
		{
			name:           "malformed body",
			requestBody:    `{"config_id":`,
			expectedStatus: http.StatusBadRequest,
			expectedKind:   KindBadRequest,
		},
		{
			name:        "unknown preset",
			requestBody: map[string]string{"config_id": "nope"},
			setupMock: func(t *testing.T, m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: nope", service.ErrConfigNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
			expectedKind:   KindConfigNotFound,
		},
		{
			name:        "odd grid",
			requestBody: `{"rows":3,"columns":3}`,
			setupMock: func(t *testing.T, m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, req service.CreateSessionRequest) (*service.SessionInfo, error) {
					return nil, engine.ValidateDimensions(req.Rows, req.Columns)
				}
			},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "odd_total",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(t, mockService)
			}

			w := serve(setupTestServer(mockService), makeRequest("POST", "/api/sessions", tt.requestBody))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedKind != "" {
				assert.Equal(t, tt.expectedKind, errorKind(t, w))
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "old", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-time.Minute)},
			{ID: "mid", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
			{ID: "new", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
		}
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"default sorts by access desc", "", []string{"old", "mid", "new"}},
		{"created desc", "?sort=created", []string{"new", "mid", "old"}},
		{"created asc", "?sort=created&order=asc", []string{"old", "mid", "new"}},
		{"limit", "?sort=created&limit=2", []string{"new", "mid"}},
		{"bad limit ignored", "?limit=abc", []string{"old", "mid", "new"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			}

			w := serve(setupTestServer(mockService), makeRequest("GET", "/api/sessions"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			ids := make([]string, len(resp.Sessions))
			for i, s := range resp.Sessions {
				ids[i] = s.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, len(tt.wantIDs), resp.Count)
			assert.Equal(t, 3, resp.Total)
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "a1b2" {
				return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
			}
			return &service.SessionInfo{ID: sessionID, ConfigName: "classic"}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID != "a1b2" {
				return fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
			}
			return nil
		},
	}
	server := setupTestServer(mockService)

	w := serve(server, makeRequest("GET", "/api/sessions/a1b2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info service.SessionInfo
	parseResponse(t, w, &info)
	assert.Equal(t, "classic", info.ConfigName)

	w = serve(server, makeRequest("GET", "/api/sessions/zzzz", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, KindSessionNotFound, errorKind(t, w))

	w = serve(server, makeRequest("DELETE", "/api/sessions/a1b2", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Session a1b2 deleted")

	w = serve(server, makeRequest("DELETE", "/api/sessions/zzzz", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Game Operation Tests

func TestPlay(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		playErr        error
		expectedStatus int
		expectedKind   string
		wantIndex      int
	}{
		{name: "valid flip", body: `{"index":3}`, expectedStatus: http.StatusOK, wantIndex: 3},
		{name: "integral float", body: `{"index":2.0}`, expectedStatus: http.StatusOK, wantIndex: 2},
		{name: "fractional index", body: `{"index":1.5}`, expectedStatus: http.StatusBadRequest, expectedKind: KindBadRequest},
		{name: "huge index", body: `{"index":1e20}`, expectedStatus: http.StatusBadRequest, expectedKind: "index_out_of_range"},
		{name: "missing index", body: `{}`, expectedStatus: http.StatusBadRequest, expectedKind: KindBadRequest},
		{name: "empty body", body: nil, expectedStatus: http.StatusBadRequest, expectedKind: KindBadRequest},
		{name: "string index", body: `{"index":"3"}`, expectedStatus: http.StatusBadRequest, expectedKind: KindBadRequest},
		{name: "out of range", body: `{"index":99}`, playErr: engine.ErrIndexOutOfRange, expectedStatus: http.StatusBadRequest, expectedKind: "index_out_of_range", wantIndex: 99},
		{name: "game over", body: `{"index":0}`, playErr: engine.ErrGameAlreadyOver, expectedStatus: http.StatusConflict, expectedKind: "game_already_over"},
		{name: "unknown session", body: `{"index":0}`, playErr: service.ErrSessionNotFound, expectedStatus: http.StatusNotFound, expectedKind: KindSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				PlayFunc: func(ctx context.Context, sessionID string, index int) (*service.PlayResult, error) {
					assert.Equal(t, "a1b2", sessionID)
					assert.Equal(t, tt.wantIndex, index)
					if tt.playErr != nil {
						return nil, tt.playErr
					}
					return &service.PlayResult{
						Status:    engine.Status{Code: engine.StatusFirstCard, Message: engine.MsgFirstCard},
						Code:      "first_card",
						Message:   engine.MsgFirstCard,
						GameState: &engine.GameState{Selection: []int{index}},
					}, nil
				},
			}

			w := serve(setupTestServer(mockService), makeRequest("POST", "/api/sessions/a1b2/play", tt.body))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedKind != "" {
				assert.Equal(t, tt.expectedKind, errorKind(t, w))
				return
			}
			var result service.PlayResult
			parseResponse(t, w, &result)
			assert.Equal(t, "first_card", result.Code)
			assert.Equal(t, []int{tt.wantIndex}, result.GameState.Selection)
		})
	}
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedKind   string
	}{
		{"valid", `{"rows":4,"columns":4}`, http.StatusOK, ""},
		{"fractional", `{"rows":2.5,"columns":4}`, http.StatusBadRequest, "invalid_dimension"},
		{"missing columns", `{"rows":4}`, http.StatusBadRequest, "invalid_dimension"},
		{"too small", `{"rows":1,"columns":4}`, http.StatusBadRequest, "invalid_dimension"},
		{"odd total", `{"rows":3,"columns":3}`, http.StatusBadRequest, "odd_total"},
		{"malformed", `{"rows":`, http.StatusBadRequest, KindBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				InitializeFunc: func(ctx context.Context, sessionID string, rows, columns int) (*engine.GameState, error) {
					if err := engine.ValidateDimensions(rows, columns); err != nil {
						return nil, err
					}
					return &engine.GameState{Rows: rows, Columns: columns, PairCount: rows * columns / 2}, nil
				},
			}

			w := serve(setupTestServer(mockService), makeRequest("POST", "/api/sessions/a1b2/initialize", tt.body))

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedKind != "" {
				assert.Equal(t, tt.expectedKind, errorKind(t, w))
				return
			}
			var resp struct {
				Message string            `json:"message"`
				State   *engine.GameState `json:"state"`
			}
			parseResponse(t, w, &resp)
			assert.Equal(t, "New 4x4 board dealt", resp.Message)
			assert.Equal(t, 8, resp.State.PairCount)
		})
	}
}

func TestRestart(t *testing.T) {
	mockService := &MockGameService{
		RestartFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID != "a1b2" {
				return nil, service.ErrSessionNotFound
			}
			return &engine.GameState{Rows: 2, Columns: 3}, nil
		},
	}
	server := setupTestServer(mockService)

	w := serve(server, makeRequest("POST", "/api/sessions/a1b2/restart", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Game restarted")

	w = serve(server, makeRequest("POST", "/api/sessions/zzzz/restart", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantOpts service.HistoryOptions
	}{
		{"defaults", "", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"explicit", "?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"invalid values fall back", "?page=-1&limit=x&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.HistoryOptions
			mockService := &MockGameService{
				GetTurnHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Turns: []engine.TurnRecord{{Turn: 1, First: 0, Second: 1}}, TotalTurns: 1}, nil
				},
			}

			w := serve(setupTestServer(mockService), makeRequest("GET", "/api/sessions/a1b2/history"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantOpts, got)

			var resp service.HistoryResponse
			parseResponse(t, w, &resp)
			assert.Equal(t, 1, resp.TotalTurns)
		})
	}
}

func TestGetGameState(t *testing.T) {
	mockService := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return &engine.GameState{Rows: 2, Columns: 2, Cards: make([]engine.Card, 4)}, nil
		},
	}

	w := serve(setupTestServer(mockService), makeRequest("GET", "/api/sessions/a1b2/state", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var state engine.GameState
	parseResponse(t, w, &state)
	assert.Len(t, state.Cards, 4)
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	var saved struct {
		name   string
		config *engine.GameConfig
	}
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic", Name: "Classic", Rows: 2, Columns: 3, Pairs: 3}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			if configName != "classic" {
				return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, configName)
			}
			return &engine.GameConfig{Name: "Classic", Description: "d", Rows: 2, Columns: 3}, nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, config *engine.GameConfig) error {
			if err := engine.ValidateGameConfig(config); err != nil {
				return err
			}
			saved.name, saved.config = configName, config
			return nil
		},
	}
	server := setupTestServer(mockService)

	w := serve(server, makeRequest("GET", "/api/configs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var configs []service.ConfigInfo
	parseResponse(t, w, &configs)
	require.Len(t, configs, 1)
	assert.Equal(t, 3, configs[0].Pairs)

	w = serve(server, makeRequest("GET", "/api/configs/classic", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(server, makeRequest("GET", "/api/configs/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, KindConfigNotFound, errorKind(t, w))

	w = serve(server, makeRequest("POST", "/api/configs", map[string]interface{}{
		"name": "Big Board", "description": "Lots of pairs", "rows": 6, "columns": 6,
	}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "big-board", saved.name)
	assert.Equal(t, 6, saved.config.Rows)

	w = serve(server, makeRequest("POST", "/api/configs", map[string]interface{}{
		"config_id": "odd", "name": "Odd", "description": "Odd board", "rows": 3, "columns": 3,
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "odd_total", errorKind(t, w))

	w = serve(server, makeRequest("POST", "/api/configs", map[string]interface{}{"rows": 2}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{{ID: "a"}, {ID: "b"}}, nil
		},
	}

	w := serve(setupTestServer(mockService), makeRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	parseResponse(t, w, &resp)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, float64(2), resp["sessions"])
}

func TestWebSocketValidation(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, service.ErrSessionNotFound
		},
	}

	w := serve(setupTestServer(mockService), makeRequest("GET", "/ws", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(setupTestServer(mockService), makeRequest("GET", "/ws?session=x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "no hub configured")

	server := NewServer(mockService, websocket.NewHub(), zerolog.Nop())
	w = serve(server, makeRequest("GET", "/ws?session=x", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// End-to-end over real sessions, presets and the WebSocket hub

type stack struct {
	server   *httptest.Server
	sessions *session.Manager
	hub      *websocket.Hub
}

func newStack(t *testing.T) *stack {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "classic.json"),
		[]byte(`{"name":"Classic","description":"2x2","rows":2,"columns":2}`), 0644))

	configs, err := config.NewManager(dir)
	require.NoError(t, err)
	sessions := session.NewManager()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	api := NewServer(service.NewGameService(sessions, configs), hub, zerolog.Nop())
	server := httptest.NewServer(api.Handler())
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-hub.Done()
	})
	return &stack{server: server, sessions: sessions, hub: hub}
}

func (s *stack) post(t *testing.T, path, body string, target interface{}) int {
	t.Helper()
	resp, err := http.Post(s.server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if target != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}
	return resp.StatusCode
}

func TestEndToEndGame(t *testing.T) {
	s := newStack(t)

	var info service.SessionInfo
	require.Equal(t, http.StatusCreated, s.post(t, "/api/sessions", `{"seed":42}`, &info))
	require.NotEmpty(t, info.ID)
	assert.Equal(t, 2, info.GameState.PairCount)
	for _, card := range info.GameState.Cards {
		assert.Zero(t, card.Value, "face-down cards must be masked")
	}

	wsURL := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?session=" + info.ID
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() websocket.Message {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg websocket.Message
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}
	assert.Equal(t, websocket.EventConnected, read().Event)

	sess, err := s.sessions.Get(info.ID)
	require.NoError(t, err)
	pairs := engine.PairLocations(sess.State().Cards)

	var lastResult service.PlayResult
	for _, value := range []int{1, 2} {
		for _, idx := range pairs[value] {
			lastResult = service.PlayResult{}
			require.Equal(t, http.StatusOK,
				s.post(t, "/api/sessions/"+info.ID+"/play", fmt.Sprintf(`{"index":%d}`, idx), &lastResult))
		}
	}
	assert.Equal(t, "game_over", lastResult.Code)
	assert.Equal(t, "GAME OVER! Attempts: 2, Mistakes: 0", lastResult.Message)
	assert.True(t, lastResult.GameState.GameOver)

	// the final flip broadcasts a state update followed by its events
	var events []string
	for len(events) == 0 || events[len(events)-1] != service.EventGameOver {
		events = append(events, read().Event)
	}
	assert.Contains(t, events, websocket.EventStateUpdate)
	assert.Contains(t, events, service.EventMatch)

	var errResp map[string]string
	assert.Equal(t, http.StatusConflict,
		s.post(t, "/api/sessions/"+info.ID+"/play", `{"index":0}`, &errResp))
	assert.Equal(t, "game_already_over", errResp["kind"])

	var restarted struct {
		State *engine.GameState `json:"state"`
	}
	require.Equal(t, http.StatusOK, s.post(t, "/api/sessions/"+info.ID+"/restart", "", &restarted))
	assert.False(t, restarted.State.GameOver)
	assert.Zero(t, restarted.State.Attempts)
}
