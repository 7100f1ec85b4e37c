// Package session provides in-memory session management for the memory game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session cleanup and expiration
//
// Manager stores service.Session values keyed by a lower-cased ID. Lookups
// are case-insensitive. Generated IDs are 4 hex characters drawn from
// crypto/rand; a collision is retried.
//
// Sessions live only as long as the process. There is no persistence.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", config, engine.WithSeed(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Expire idle sessions
//	removed := manager.CleanupExpiredSessions(24 * time.Hour)
package session
