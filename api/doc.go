// Package api provides the HTTP REST API for the memory game.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session {config_id, rows, columns, seed}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Masked game state
//   - POST /api/sessions/{id}/play - Flip a card {index}
//   - POST /api/sessions/{id}/initialize - Deal a new board {rows, columns}
//   - POST /api/sessions/{id}/restart - Deal again with the same dimensions
//   - GET /api/sessions/{id}/history - Turn history (?page&limit&order)
//
// Configuration:
//   - GET /api/configs - List presets
//   - POST /api/configs - Save a preset
//   - GET /api/configs/{name} - Get a preset
//
// Other:
//   - GET /health - Liveness and session count
//   - GET /ws?session=<id> - WebSocket live updates
//
// States returned by the API are masked: face-down cards carry no value or
// image. The cards turned by a play call are listed in PlayResult.Flipped,
// which is the only way to see a mismatched pair before it is concealed.
//
// Errors are returned as JSON with a stable kind:
//
//	{
//	  "error": "card index out of range: 40 not in [0, 16)",
//	  "kind": "index_out_of_range"
//	}
//
// Kinds map to status codes: not-found kinds give 404, game_already_over and
// not_initialized give 409, validation kinds give 400 and anything else 500.
//
// Play, initialize and restart broadcast a state_update followed by their
// events to the WebSocket clients of the session.
package api
