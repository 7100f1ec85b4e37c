// Package service provides the business logic layer for the memory game.
//
// The service package implements:
//   - Multi-session game management
//   - Preset lookup and per-session dimension overrides
//   - Flip processing with gameplay events
//   - Paginated turn history
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game preset loading and validation.
//
// Architecture:
//
// The service layer sits between the transports (HTTP/WebSocket/MCP) and the
// game engine. Each Session owns one engine behind its own mutex, so flips on
// one session are serialized while different sessions run in parallel.
// States handed to callers are masked: face-down cards carry no value or
// image. PlayResult.Flipped reports the faces of the cards turned in the call.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, service.CreateSessionRequest{ConfigID: "easy"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Play(ctx, info.ID, 0)
package service
