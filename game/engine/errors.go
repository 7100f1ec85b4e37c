package engine

import "errors"

var (
	ErrInvalidDimension   = errors.New("rows and columns must be integers greater than 1")
	ErrOddTotal           = errors.New("rows * columns must be even")
	ErrSymbolPoolTooSmall = errors.New("symbol pool is smaller than the number of pairs")
	ErrIndexOutOfRange    = errors.New("card index out of range")
	ErrGameAlreadyOver    = errors.New("game is already over")
	ErrNotInitialized     = errors.New("game has not been initialized")
	ErrInvalidConfig      = errors.New("invalid game configuration")
)

// ErrorKind maps engine errors to stable identifiers for API consumers.
// Unknown errors map to "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidDimension):
		return "invalid_dimension"
	case errors.Is(err, ErrOddTotal):
		return "odd_total"
	case errors.Is(err, ErrSymbolPoolTooSmall):
		return "symbol_pool_too_small"
	case errors.Is(err, ErrIndexOutOfRange):
		return "index_out_of_range"
	case errors.Is(err, ErrGameAlreadyOver):
		return "game_already_over"
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrInvalidConfig):
		return "invalid_config"
	default:
		return "internal"
	}
}
