// Package websocket pushes game updates to browser clients.
//
// A central Hub keeps the connected clients of every session. Each client
// has a read pump, which only keeps the connection alive, and a write pump,
// which drains its send buffer and sends pings. The hub loop in Run owns
// registration and broadcasting; it stops when its context is cancelled and
// closes every connection on the way out.
//
// Clients connect with ?session=<id>. Session IDs are matched
// case-insensitively. The first message on a connection is a "connected"
// event carrying the client's ID; after that the server sends
// "state_update" messages with the masked game state and gameplay events
// (flip, match, mismatch, mistake, game_over).
//
//	{"session_id": "a1b2", "event": "state_update", "game_state": {...}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
