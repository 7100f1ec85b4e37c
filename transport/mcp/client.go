package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/memory-workout/game/engine"
	"github.com/wricardo/memory-workout/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// APIError is a non-2xx answer from the REST API
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Memory Workout",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Memory Workout - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Find every pair of matching cards on a face-down grid in as few attempts as possible.
Flip two cards per turn. A match stays face up; a mismatch is turned back over.

AVAILABLE TOOLS:
- create_session: Create a new game session (preset and optional grid size)
- list_sessions: List all active sessions
- get_session: Get session details
- game_state: Show the board
- flip_card: Flip one card by index or by row and col
- initialize_board: Deal a new board with new dimensions
- restart_game: Deal again with the same dimensions
- turn_history: View resolved turns
- list_configs: List available presets
- game_instructions: Full rules and scoring

NOTE: flip_card is the only way to see a card's face. Remember what you saw!`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional preset and grid size",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use, see list_configs (optional)",
				},
				"rows": map[string]interface{}{
					"type":        "integer",
					"description": "Grid rows, at least 2 (optional, requires columns)",
				},
				"columns": map[string]interface{}{
					"type":        "integer",
					"description": "Grid columns, at least 2 (optional, requires rows)",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Shuffle seed for a reproducible deal (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Show the board. Face-down cards are drawn as [ ?? ]",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "flip_card",
		Description: "Flip one card, given either its index or its row and col (0-based)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Card index, row*columns+col",
				},
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the card (use with col instead of index)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the card (use with row instead of index)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleFlipCard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "initialize_board",
		Description: "Deal a new board with the given dimensions, resetting the score",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"rows": map[string]interface{}{
					"type":        "integer",
					"description": "Grid rows, at least 2",
				},
				"columns": map[string]interface{}{
					"type":        "integer",
					"description": "Grid columns, at least 2; rows*columns must be even",
				},
			},
			Required: []string{"session_id", "rows", "columns"},
		},
	}, c.handleInitializeBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_game",
		Description: "Deal a fresh shuffle with the current dimensions",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleRestartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_history",
		Description: "Get the resolved turns of a session with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Turns per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleTurnHistory)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules, scoring and tool usage",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return &APIError{Status: resp.StatusCode, Kind: errResp["kind"], Message: msg}
		}
		return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("API error: %d", resp.StatusCode)}
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// arguments returns the tool arguments, empty when the caller sent none
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads an integer argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, name string) (int, bool, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	v, ok := raw.(float64)
	if !ok || v != float64(int(v)) {
		return 0, true, fmt.Errorf("%s must be an integer", name)
	}
	return int(v), true, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if configID, _ := args["config_id"].(string); configID != "" {
		body["config_id"] = configID
	}
	for _, name := range []string{"rows", "columns", "seed"} {
		if v, ok := args[name].(float64); ok {
			body[name] = v
		}
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\n\n%s", session.ID, formatSessionInfo(&session))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		progress := ""
		if s.GameState != nil {
			progress = fmt.Sprintf(", Pairs: %d/%d, Attempts: %d",
				s.GameState.MatchedPairs, s.GameState.PairCount, s.GameState.Attempts)
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s%s)\n",
			s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"), progress)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleFlipCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	index, hasIndex, err := intArg(args, "index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !hasIndex {
		row, hasRow, err := intArg(args, "row")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		col, hasCol, err := intArg(args, "col")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !hasRow || !hasCol {
			return mcp.NewToolResultError("either index or both row and col are required"), nil
		}

		var state engine.GameState
		if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		index = engine.IndexAt(row, col, state.Rows, state.Columns)
		if index < 0 {
			return mcp.NewToolResultError(fmt.Sprintf("(%d,%d) is outside the %dx%d grid",
				row, col, state.Rows, state.Columns)), nil
		}
	}

	var result service.PlayResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/play"), map[string]int{"index": index}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlayResult(&result)), nil
}

func (c *Client) handleInitializeBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	// numbers pass through untouched so the server can reject fractions
	body := map[string]interface{}{"rows": args["rows"], "columns": args["columns"]}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/initialize"), body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleRestartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/restart"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleTurnHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprint(int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprint(int(limit)))
	}
	if order, ok := args["order"].(string); ok {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Pairs: %d\n\n",
			config.Name, config.ConfigID, config.Description, config.Rows, config.Columns, config.Pairs)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Memory Workout - Complete Instructions

GAME OBJECTIVE:
Every card on the grid has exactly one twin. Find all pairs.

TURNS:
• Flip one card, then a second one. Two flips make one attempt.
• Same value: both cards stay face up.
• Different values: both cards are turned face down again.
• Flipping a card that is already face up does nothing and costs nothing.
• The game ends when the last pair is found.

SCORING:
• Attempts: number of two-card turns.
• Mistakes: a mismatch counts as a mistake when one of its values had
  already been seen in an earlier mismatch. You had the information and
  did not use it.
• The best possible game on N pairs takes N attempts.

BOARD:
Cards are numbered row by row from 0: index = row * columns + col.
game_state draws face-down cards as [ ?? ]. flip_card reports the faces of
the cards it turned, including a mismatched pair before it is concealed.

LIMITS:
• Rows and columns: at least 2 each, rows * columns must be even.
• The default image pool holds 284 symbols, so a board has at most 284
  pairs; presets with their own symbols are limited by their list.
• A finished game rejects further flips; use restart_game or initialize_board.

STRATEGY:
1. Flip an unknown card first.
2. If its twin was seen before, flip the twin.
3. Otherwise flip another unknown card and remember both faces.`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Board: %dx%d | Pairs: %d/%d | Attempts: %d | Mistakes: %d\n\n",
		state.Rows, state.Columns, state.MatchedPairs, state.PairCount, state.Attempts, state.Mistakes)

	b.WriteString(engine.RenderBoard(state))
	b.WriteString("\n")

	if len(state.Selection) == 1 {
		row, col := engine.GridPosition(state.Selection[0], state.Columns)
		fmt.Fprintf(&b, "\nWaiting for the second card (first: %d at %d,%d)", state.Selection[0], row, col)
	}

	if state.GameOver {
		b.WriteString("\n🎉 ALL PAIRS FOUND!")
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatPlayResult(result *service.PlayResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", result.Message, result.Code)

	for _, card := range result.Flipped {
		fmt.Fprintf(&b, "  card %d (row %d, col %d): %s\n", card.Index, card.Row, card.Col, card.Image)
	}
	for _, event := range result.Events {
		if event.Type == service.EventMistake {
			fmt.Fprintf(&b, "  %s\n", event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn History (Page %d/%d) - Total turns: %d\n\n",
		history.Page, history.TotalPages, history.TotalTurns)

	for _, turn := range history.Turns {
		mistake := ""
		if turn.Mistake {
			mistake = " (mistake)"
		}
		fmt.Fprintf(&b, "%d. cards %d & %d -> %s%s\n",
			turn.Turn, turn.First, turn.Second, turn.Outcome, mistake)
	}

	return b.String()
}
