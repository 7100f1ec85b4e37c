// Package mcp provides a Model Context Protocol server for the memory game.
//
// The server is a thin proxy: every tool call becomes a request to the REST
// API, so MCP agents, browsers and WebSocket viewers share the same sessions.
//
// MCP Tools:
//   - create_session: Create a session from a preset, optionally resized or seeded
//   - list_sessions: List all active sessions
//   - get_session: Get specific session details
//   - game_state: Draw the board, face-down cards as [ ?? ]
//   - flip_card: Flip a card by index or by row and col
//   - initialize_board: Deal a new board with new dimensions
//   - restart_game: Deal again with the current dimensions
//   - turn_history: Resolved turns with pagination
//   - list_configs: List available presets
//   - game_instructions: Rules, scoring and strategy
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST /mcp on the game server, handled with HandleMessage
//
// API errors reach the agent as tool errors carrying the error kind, for
// example "game is already over (game_already_over)".
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
