// Command validate checks the game presets in a configs directory
// (../configs unless a directory is given). It checks:
//   - JSON or YAML structure and required fields
//   - Grid dimensions within bounds and an even card count
//   - Symbol pool large enough for the pairs, with no duplicate symbols
//   - A known shuffle strategy
//   - Playability: a seeded deal places every value exactly twice and a
//     perfect game ends after one attempt per pair
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/memory-workout/game/config"
	"github.com/wricardo/memory-workout/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateConfig loads and validates a single preset file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	preset, err := config.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%v (%s)", err, engine.ErrorKind(err)))
		return result
	}

	playResult := validatePlayability(preset)
	if !playResult.Valid {
		result.Valid = false
		result.Errors = append(result.Errors, playResult.Errors...)
		return result
	}
	result.Errors = append(result.Errors, playResult.Errors...)

	shuffle := preset.Shuffle
	if shuffle == "" {
		shuffle = "default"
	}
	symbols := "default pool"
	if len(preset.Symbols) > 0 {
		symbols = fmt.Sprintf("%d custom", len(preset.Symbols))
	}

	result.Errors = append(result.Errors,
		fmt.Sprintf("✓ Name: %s", preset.Name),
		fmt.Sprintf("✓ Grid: %dx%d", preset.Rows, preset.Columns),
		fmt.Sprintf("✓ Pairs: %d", preset.PairCount()),
		fmt.Sprintf("✓ Symbols: %s", symbols),
		fmt.Sprintf("✓ Shuffle: %s", shuffle),
	)
	return result
}

// validatePlayability deals the preset with a fixed seed, checks the deck
// and plays a perfect game through it
func validatePlayability(preset *engine.GameConfig) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	eng, err := engine.NewEngine(preset, engine.WithSeed(1))
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot deal preset: %v", err))
		return result
	}

	pairs := engine.PairLocations(eng.Cards())
	if len(pairs) != preset.PairCount() {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Deal has %d distinct values, expected %d", len(pairs), preset.PairCount()))
		return result
	}
	for value, indices := range pairs {
		if len(indices) != 2 {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Value %d appears %d times", value, len(indices)))
		}
	}
	if !result.Valid {
		return result
	}

	for value := 1; value <= preset.PairCount(); value++ {
		for _, index := range pairs[value] {
			if _, err := eng.Play(index); err != nil {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("Perfect game failed at card %d: %v", index, err))
				return result
			}
		}
	}

	if !eng.IsGameOver() || eng.Attempts() != preset.PairCount() || eng.Mistakes() != 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Perfect game ended with over=%t attempts=%d mistakes=%d",
			eng.IsGameOver(), eng.Attempts(), eng.Mistakes()))
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Playable: perfect game in %d attempts", eng.Attempts()))
	return result
}

// presetFiles lists the JSON and YAML files of a directory
func presetFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

// main validates every preset, printing a concise report and exiting with
// non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := presetFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No presets found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
