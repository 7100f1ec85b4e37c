// Package config provides preset management for the memory game.
//
// The config package handles:
//   - Loading presets from JSON and YAML files
//   - Validation through engine.ValidateGameConfig
//   - Default preset selection
//   - Preset discovery, listing and saving
//
// Preset Format:
//
// Presets live in the configs directory as .json, .yaml or .yml files. The
// file name without extension is the preset ID used to create sessions.
//
//	name: Animals
//	description: Ten animal pairs on a 4x5 grid
//	rows: 4
//	columns: 5
//	shuffle: rejection        # optional, fisher-yates by default
//	symbols: [cat, dog, owl]  # optional, numbered images by default
//
// The default preset is classic when present, otherwise the first valid
// preset in name order, otherwise a built-in 2x3 preset.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("medium")
//	presets, err := manager.ListConfigs()
package config
