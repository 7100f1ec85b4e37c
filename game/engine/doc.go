// Package engine provides the core game logic for the memory game.
//
// The engine package implements the game mechanics including:
//   - Deck construction: two cards per pair value on a rows x columns grid
//   - Unbiased shuffling of the symbol pool and of the deck
//   - Per-turn reveal/conceal resolution
//   - Attempt and mistake accounting, completion detection
//   - Preset validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. Card is a single card, Status is the result of
// a flip, GameState is a serializable snapshot, and GameConfig is a preset
// loaded from JSON or YAML files.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Deal a 4x4 grid
//	cards, err := gameEngine.Initialize(4, 4)
//
//	// Flip cards
//	status, err := gameEngine.Play(0)
//	status, err = gameEngine.Play(5)
//
// Status Codes:
//
//	0  card already facing up, nothing changed
//	1  first card of the turn flipped
//	2  match, game continues
//	3  no match, Args holds the two indices to conceal
//	4  game over, the message reports attempts and mistakes
//
// Mistakes:
//
// A mismatch counts as a mistake when at least one of the two pair values
// was already seen face up in an earlier turn of the same game. A turn adds
// at most one mistake.
package engine
