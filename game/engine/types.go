package engine

import "time"

// Symbol identifies the face drawn on a card (an image id or a short name).
type Symbol string

const (
	// Validation constants
	MinDimension      = 2
	DefaultRows       = 2
	DefaultColumns    = 3
	DefaultPoolSize   = 284
	SelectionCapacity = 2
)

// StatusCode is the stable contract between the engine and its renderers.
type StatusCode int

const (
	StatusAlreadyFaceUp StatusCode = iota // card was already face up, nothing changed
	StatusFirstCard                       // first card of the turn flipped
	StatusMatch                           // pair found, game continues
	StatusNoMatch                         // mismatch, Args carries the two indices to conceal
	StatusGameOver                        // last pair found
)

// String returns the machine-friendly name of a status code.
func (c StatusCode) String() string {
	switch c {
	case StatusAlreadyFaceUp:
		return "already_face_up"
	case StatusFirstCard:
		return "first_card"
	case StatusMatch:
		return "match"
	case StatusNoMatch:
		return "no_match"
	case StatusGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Status messages
const (
	MsgAlreadyFaceUp = "Card is already facing up"
	MsgFirstCard     = "Flip first card"
	MsgMatch         = "Match."
	MsgNoMatch       = "No Match. Conceal cards."
	MsgGameOver      = "GAME OVER! Attempts: %d, Mistakes: %d"
)

// Card is a single card of the deck. Two cards share each Value.
type Card struct {
	Value      int    `json:"value"`
	Image      Symbol `json:"image"`
	IsRevealed bool   `json:"is_revealed"`
}

func (c *Card) reveal()  { c.IsRevealed = true }
func (c *Card) conceal() { c.IsRevealed = false }

// Status is returned by every Play call.
type Status struct {
	Code    StatusCode `json:"code"`
	Message string     `json:"message"`
	Args    []int      `json:"args,omitempty"`
}

// GameState is a read-only snapshot of a game, safe to serialize.
type GameState struct {
	ConfigName   string  `json:"config_name"`
	Rows         int     `json:"rows"`
	Columns      int     `json:"columns"`
	Cards        []Card  `json:"cards"`
	Attempts     int     `json:"attempts"`
	Mistakes     int     `json:"mistakes"`
	GameOver     bool    `json:"game_over"`
	PairCount    int     `json:"pair_count"`
	MatchedPairs int     `json:"matched_pairs"`
	Selection    []int   `json:"selection"`
	Message      string  `json:"message"`
	TotalTurns   int     `json:"total_turns"`
	LastStatus   *Status `json:"last_status,omitempty"`
}

// TurnRecord describes one resolved two-card turn.
type TurnRecord struct {
	Turn      int        `json:"turn"`
	First     int        `json:"first"`
	Second    int        `json:"second"`
	Values    [2]int     `json:"values"`
	Outcome   StatusCode `json:"outcome"`
	Mistake   bool       `json:"mistake"`
	Timestamp int64      `json:"timestamp"`
}

// Masked returns a copy of the state in which face-down cards hide their
// value and image.
func (s *GameState) Masked() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Cards = make([]Card, len(s.Cards))
	for i, c := range s.Cards {
		if c.IsRevealed {
			out.Cards[i] = c
			continue
		}
		out.Cards[i] = Card{}
	}
	out.Selection = append([]int(nil), s.Selection...)
	return &out
}

func newTurnRecord(turn, first, second int, values [2]int, outcome StatusCode, mistake bool) TurnRecord {
	return TurnRecord{
		Turn:      turn,
		First:     first,
		Second:    second,
		Values:    values,
		Outcome:   outcome,
		Mistake:   mistake,
		Timestamp: time.Now().UnixMilli(),
	}
}
