package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		name    string
		rows    int
		columns int
		wantErr error
	}{
		{"minimum grid", 2, 2, nil},
		{"default grid", 2, 3, nil},
		{"large square", 16, 16, nil},
		{"long strip", 2, 17, nil},
		{"tall strip", 17, 2, nil},
		{"odd total", 3, 3, ErrOddTotal},
		// columns are checked before parity, so 1x3 is a dimension error
		{"one by three", 1, 3, ErrInvalidDimension},
		{"one column", 3, 1, ErrInvalidDimension},
		{"zero", 0, 0, ErrInvalidDimension},
		{"odd wide", 3, 17, ErrOddTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDimensions(tt.rows, tt.columns)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIntegerDimension(t *testing.T) {
	tests := []struct {
		input   float64
		want    int
		wantErr bool
	}{
		{4, 4, false},
		{-2, -2, false},
		{2.5, 0, true},
		{math.NaN(), 0, true},
		{math.Inf(1), 0, true},
		{1e12, 0, true},
	}

	for _, tt := range tests {
		got, err := IntegerDimension(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidDimension, "input %v", tt.input)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestValidateGameConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *GameConfig)
		wantErr error
	}{
		{"valid", func(c *GameConfig) {}, nil},
		{"missing name", func(c *GameConfig) { c.Name = "" }, ErrInvalidConfig},
		{"missing description", func(c *GameConfig) { c.Description = "" }, ErrInvalidConfig},
		{"odd grid", func(c *GameConfig) { c.Rows, c.Columns = 3, 5 }, ErrOddTotal},
		{"bad rows", func(c *GameConfig) { c.Rows = 1 }, ErrInvalidDimension},
		{"duplicate symbols", func(c *GameConfig) { c.Symbols = []Symbol{"a", "b", "a"} }, ErrInvalidConfig},
		{"empty symbol", func(c *GameConfig) { c.Symbols = []Symbol{"a", "", "c"} }, ErrInvalidConfig},
		{"too few symbols", func(c *GameConfig) { c.Symbols = []Symbol{"a", "b"} }, ErrSymbolPoolTooSmall},
		{"unknown shuffle", func(c *GameConfig) { c.Shuffle = "riffle" }, ErrInvalidConfig},
		{"rejection shuffle", func(c *GameConfig) { c.Shuffle = "rejection" }, nil},
		{"custom symbols", func(c *GameConfig) { c.Symbols = []Symbol{"cat", "dog", "owl"} }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultGameConfig()
			tt.mutate(config)
			err := ValidateGameConfig(config)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	assert.ErrorIs(t, ValidateGameConfig(nil), ErrInvalidConfig)
}

func TestGameConfig_SymbolPool(t *testing.T) {
	config := DefaultGameConfig()
	assert.Len(t, config.SymbolPool(), DefaultPoolSize)
	assert.Equal(t, 3, config.PairCount())

	config.Symbols = []Symbol{"x", "y", "z"}
	pool := config.SymbolPool()
	pool[0] = "changed"
	assert.Equal(t, Symbol("x"), config.Symbols[0])
}

func TestDefaultSymbolPool(t *testing.T) {
	pool := DefaultSymbolPool()
	require.Len(t, pool, DefaultPoolSize)
	assert.Equal(t, Symbol("001"), pool[0])
	assert.Equal(t, Symbol("284"), pool[DefaultPoolSize-1])
	assert.NoError(t, uniqueSymbols(pool))
}
