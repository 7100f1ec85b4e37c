package engine

import (
	"fmt"
	"math"
)

// GameConfig is a named game preset. It is loaded from JSON or YAML files by
// the config manager.
type GameConfig struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Rows        int      `json:"rows" yaml:"rows"`
	Columns     int      `json:"columns" yaml:"columns"`
	Symbols     []Symbol `json:"symbols,omitempty" yaml:"symbols,omitempty"`
	Shuffle     string   `json:"shuffle,omitempty" yaml:"shuffle,omitempty"`
}

// PairCount returns rows*columns/2.
func (c *GameConfig) PairCount() int {
	return c.Rows * c.Columns / 2
}

// SymbolPool returns a copy of the configured symbols, or the default pool.
func (c *GameConfig) SymbolPool() []Symbol {
	if len(c.Symbols) == 0 {
		return DefaultSymbolPool()
	}
	return append([]Symbol(nil), c.Symbols...)
}

// DefaultGameConfig returns the built-in 2x3 preset.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:        "classic",
		Description: "Three pairs on a 2x3 grid",
		Rows:        DefaultRows,
		Columns:     DefaultColumns,
	}
}

// ValidateDimensions checks a grid size. Columns and rows are checked
// independently before the parity check. There is no upper bound per side;
// the symbol pool limits how many pairs a board can hold.
func ValidateDimensions(rows, columns int) error {
	if columns < MinDimension {
		return fmt.Errorf("%w: got %d columns", ErrInvalidDimension, columns)
	}
	if rows < MinDimension {
		return fmt.Errorf("%w: got %d rows", ErrInvalidDimension, rows)
	}
	if (rows*columns)%2 != 0 {
		return fmt.Errorf("%w: %dx%d gives %d cards", ErrOddTotal, rows, columns, rows*columns)
	}
	return nil
}

// IntegerDimension converts a decoded JSON number into a dimension,
// rejecting fractional and non-finite values.
func IntegerDimension(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidDimension, v)
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("%w: %v is out of range", ErrInvalidDimension, v)
	}
	return int(v), nil
}

// ValidateGameConfig validates a preset for correctness and playability.
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if config.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidConfig)
	}

	if err := ValidateDimensions(config.Rows, config.Columns); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if len(config.Symbols) > 0 {
		if err := uniqueSymbols(config.Symbols); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if pool := config.SymbolPool(); len(pool) < config.PairCount() {
		return fmt.Errorf("%w: %w: need %d symbols, have %d",
			ErrInvalidConfig, ErrSymbolPoolTooSmall, config.PairCount(), len(pool))
	}

	if _, err := ParseShuffleStrategy(config.Shuffle); err != nil {
		return err
	}

	return nil
}
