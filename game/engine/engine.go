package engine

import (
	"fmt"
	"math/rand/v2"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game lifecycle
	Initialize(rows, columns int) ([]Card, error)
	Restart() ([]Card, error)
	Play(index int) (Status, error)

	// Game state
	GetState() *GameState
	Cards() []Card
	Attempts() int
	Mistakes() int
	IsGameOver() bool
	Selection() []int
	MatchedPairs() int
	PairCount() int

	// Configuration
	GetConfig() *GameConfig
	Dimensions() (rows, columns int)

	// History
	GetTurnHistory() []TurnRecord
	GetLastTurn() *TurnRecord
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialize access per game.
type GameEngine struct {
	config   *GameConfig
	pool     []Symbol
	strategy ShuffleStrategy
	rng      *rand.Rand

	rows     int
	columns  int
	cards    []Card
	images   []Symbol
	attempts int
	mistakes int
	gameOver bool

	// turn state, owned by Play
	selection     []int
	revealedCount int
	seenValues    map[int]struct{}

	history    []TurnRecord
	lastStatus *Status
	message    string
}

// Option customizes a GameEngine.
type Option func(*GameEngine)

// WithSeed makes every deal of the engine reproducible.
func WithSeed(seed uint64) Option {
	return func(e *GameEngine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand sets the random source used for shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(e *GameEngine) {
		e.rng = rng
	}
}

// WithShuffle overrides the configured shuffle strategy.
func WithShuffle(strategy ShuffleStrategy) Option {
	return func(e *GameEngine) {
		e.strategy = strategy
	}
}

// NewEngine creates a new game engine and deals the configured grid
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	strategy, err := ParseShuffleStrategy(config.Shuffle)
	if err != nil {
		return nil, err
	}

	e := &GameEngine{
		config:     config,
		pool:       config.SymbolPool(),
		strategy:   strategy,
		seenValues: make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if _, err := e.Initialize(config.Rows, config.Columns); err != nil {
		return nil, err
	}
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the built-in 2x3 preset
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		panic(fmt.Sprintf("engine: default configuration rejected: %v", err))
	}
	return e
}

// Initialize validates the dimensions and deals a fresh, shuffled deck.
// On error the current game is left exactly as it was.
func (e *GameEngine) Initialize(rows, columns int) ([]Card, error) {
	if err := ValidateDimensions(rows, columns); err != nil {
		return nil, err
	}
	pairCount := rows * columns / 2
	if pairCount > len(e.pool) {
		return nil, fmt.Errorf("%w: need %d symbols, have %d", ErrSymbolPoolTooSmall, pairCount, len(e.pool))
	}

	images := shuffleSymbols(e.rng, e.pool, e.strategy)
	cards := shuffleCards(e.rng, buildDeck(pairCount), images, e.strategy)

	e.rows, e.columns = rows, columns
	e.images = images
	e.cards = cards
	e.attempts = 0
	e.mistakes = 0
	e.gameOver = false
	e.selection = make([]int, 0, SelectionCapacity)
	e.revealedCount = 0
	e.seenValues = make(map[int]struct{})
	e.history = nil
	e.lastStatus = nil
	e.message = fmt.Sprintf("New game: %dx%d grid, %d pairs", rows, columns, pairCount)

	return e.Cards(), nil
}

// Restart deals a new game with the current dimensions
func (e *GameEngine) Restart() ([]Card, error) {
	if e.cards == nil {
		return e.Initialize(e.config.Rows, e.config.Columns)
	}
	return e.Initialize(e.rows, e.columns)
}

// Play flips the card at index and resolves the turn once two cards are up.
func (e *GameEngine) Play(index int) (Status, error) {
	if e.cards == nil {
		return Status{}, ErrNotInitialized
	}
	if e.gameOver {
		return Status{}, ErrGameAlreadyOver
	}
	if index < 0 || index >= len(e.cards) {
		return Status{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(e.cards))
	}

	card := &e.cards[index]
	if card.IsRevealed {
		return Status{Code: StatusAlreadyFaceUp, Message: MsgAlreadyFaceUp}, nil
	}

	card.reveal()
	e.selection = append(e.selection, index)
	if len(e.selection) == 1 {
		return e.record(Status{Code: StatusFirstCard, Message: MsgFirstCard}), nil
	}
	return e.resolveTurn(), nil
}

// resolveTurn settles a two-card selection.
func (e *GameEngine) resolveTurn() Status {
	first, second := e.selection[0], e.selection[1]
	e.selection = e.selection[:0]
	e.attempts++

	a, b := &e.cards[first], &e.cards[second]
	values := [2]int{a.Value, b.Value}

	if a.Value != b.Value {
		a.conceal()
		b.conceal()
		mistake := e.recordMismatch(a.Value, b.Value)
		if mistake {
			e.mistakes++
		}
		e.history = append(e.history, newTurnRecord(e.attempts, first, second, values, StatusNoMatch, mistake))
		return e.record(Status{Code: StatusNoMatch, Message: MsgNoMatch, Args: []int{first, second}})
	}

	e.revealedCount += 2
	if e.revealedCount == len(e.cards) {
		e.gameOver = true
		e.revealedCount = 0
		e.seenValues = make(map[int]struct{})
		e.history = append(e.history, newTurnRecord(e.attempts, first, second, values, StatusGameOver, false))
		return e.record(Status{
			Code:    StatusGameOver,
			Message: fmt.Sprintf(MsgGameOver, e.attempts, e.mistakes),
		})
	}

	e.history = append(e.history, newTurnRecord(e.attempts, first, second, values, StatusMatch, false))
	return e.record(Status{Code: StatusMatch, Message: MsgMatch})
}

// recordMismatch applies the mistake rule: a mismatch is a mistake when
// either value was already seen in an earlier turn. Unseen values are
// recorded. At most one mistake per turn.
func (e *GameEngine) recordMismatch(first, second int) bool {
	mistake := false
	for _, v := range [2]int{first, second} {
		if _, seen := e.seenValues[v]; seen {
			mistake = true
			continue
		}
		e.seenValues[v] = struct{}{}
	}
	return mistake
}

func (e *GameEngine) record(s Status) Status {
	e.lastStatus = &s
	e.message = s.Message
	return s
}

// GetState returns a snapshot of the game
func (e *GameEngine) GetState() *GameState {
	state := &GameState{
		ConfigName:   e.config.Name,
		Rows:         e.rows,
		Columns:      e.columns,
		Cards:        e.Cards(),
		Attempts:     e.attempts,
		Mistakes:     e.mistakes,
		GameOver:     e.gameOver,
		PairCount:    e.PairCount(),
		MatchedPairs: e.MatchedPairs(),
		Selection:    e.Selection(),
		Message:      e.message,
		TotalTurns:   len(e.history),
	}
	if e.lastStatus != nil {
		s := *e.lastStatus
		s.Args = append([]int(nil), e.lastStatus.Args...)
		state.LastStatus = &s
	}
	return state
}

// Cards returns a copy of the deck in play order
func (e *GameEngine) Cards() []Card {
	return append([]Card(nil), e.cards...)
}

// Attempts returns the number of completed two-card turns
func (e *GameEngine) Attempts() int {
	return e.attempts
}

// Mistakes returns the number of turns counted as mistakes
func (e *GameEngine) Mistakes() int {
	return e.mistakes
}

// IsGameOver returns whether every pair has been found
func (e *GameEngine) IsGameOver() bool {
	return e.gameOver
}

// Selection returns the indices flipped in the current turn
func (e *GameEngine) Selection() []int {
	return append([]int{}, e.selection...)
}

// PairCount returns the number of pairs in the current deck
func (e *GameEngine) PairCount() int {
	return len(e.cards) / 2
}

// MatchedPairs returns the number of pairs permanently face up
func (e *GameEngine) MatchedPairs() int {
	return (CountRevealed(e.cards) - len(e.selection)) / 2
}

// GetConfig returns the preset the engine was created from
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// Dimensions returns the current grid size
func (e *GameEngine) Dimensions() (rows, columns int) {
	return e.rows, e.columns
}

// GetTurnHistory returns all resolved turns of the current game
func (e *GameEngine) GetTurnHistory() []TurnRecord {
	return append([]TurnRecord(nil), e.history...)
}

// GetLastTurn returns the last resolved turn, or nil if none
func (e *GameEngine) GetLastTurn() *TurnRecord {
	if len(e.history) == 0 {
		return nil
	}
	t := e.history[len(e.history)-1]
	return &t
}
