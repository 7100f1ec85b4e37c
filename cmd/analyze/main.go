// Command analyze plays simulated games on every preset in the configs
// directory and prints how many attempts and mistakes a player with perfect
// memory needs, next to a forgetful player that loses each remembered card
// with a fixed probability per turn.
package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"math/rand/v2"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/memory-workout/game/config"
	"github.com/wricardo/memory-workout/game/engine"
)

// Summary aggregates the simulated games of one player on one preset.
type Summary struct {
	Player        string
	Games         int
	MeanAttempts  float64
	MeanMistakes  float64
	BestAttempts  int
	WorstAttempts int
}

// player remembers the values of face-down cards it has seen.
type player struct {
	recall float64 // chance a remembered card survives a turn
	rng    *rand.Rand
	memory map[int]int // card index -> value
}

func newPlayer(recall float64, rng *rand.Rand) *player {
	return &player{recall: recall, rng: rng, memory: make(map[int]int)}
}

// playGame plays one game to the end. maxAttempts bounds players that never
// converge.
func (p *player) playGame(eng *engine.GameEngine, maxAttempts int) error {
	clear(p.memory)

	for !eng.IsGameOver() {
		if eng.Attempts() >= maxAttempts {
			return fmt.Errorf("no finish after %d attempts", maxAttempts)
		}
		if err := p.takeTurn(eng); err != nil {
			return err
		}
		p.forget()
	}
	return nil
}

func (p *player) takeTurn(eng *engine.GameEngine) error {
	if a, b, ok := p.knownPair(); ok {
		return p.flipPair(eng, a, b)
	}

	first, ok := p.unknownCard(eng.Cards(), -1)
	if !ok {
		return fmt.Errorf("no card left to flip")
	}
	if _, err := eng.Play(first); err != nil {
		return err
	}
	value := eng.Cards()[first].Value

	second := -1
	for i, v := range p.memory {
		if v == value && i != first {
			second = i
			break
		}
	}
	if second < 0 {
		if second, ok = p.unknownCard(eng.Cards(), first); !ok {
			return fmt.Errorf("no second card to flip")
		}
	}

	status, err := eng.Play(second)
	if err != nil {
		return err
	}
	p.observe(eng, status, first, second)
	return nil
}

func (p *player) flipPair(eng *engine.GameEngine, a, b int) error {
	if _, err := eng.Play(a); err != nil {
		return err
	}
	status, err := eng.Play(b)
	if err != nil {
		return err
	}
	p.observe(eng, status, a, b)
	return nil
}

// observe records the two flipped cards, or drops them once matched
func (p *player) observe(eng *engine.GameEngine, status engine.Status, first, second int) {
	if status.Code != engine.StatusNoMatch {
		delete(p.memory, first)
		delete(p.memory, second)
		return
	}
	cards := eng.Cards()
	p.memory[first] = cards[first].Value
	p.memory[second] = cards[second].Value
}

// knownPair returns two remembered cards sharing a value
func (p *player) knownPair() (int, int, bool) {
	byValue := make(map[int]int, len(p.memory))
	for i, v := range p.memory {
		if j, ok := byValue[v]; ok {
			return j, i, true
		}
		byValue[v] = i
	}
	return 0, 0, false
}

// unknownCard picks a random face-down card that is not remembered
func (p *player) unknownCard(cards []engine.Card, exclude int) (int, bool) {
	var candidates []int
	for _, i := range engine.FaceDownIndices(cards) {
		if _, known := p.memory[i]; known || i == exclude {
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[p.rng.IntN(len(candidates))], true
}

func (p *player) forget() {
	if p.recall >= 1 {
		return
	}
	for _, i := range slices.Sorted(maps.Keys(p.memory)) {
		if p.rng.Float64() >= p.recall {
			delete(p.memory, i)
		}
	}
}

// simulate plays games on preset and summarizes the results
func simulate(preset *engine.GameConfig, name string, recall float64, games int, seed uint64) (Summary, error) {
	summary := Summary{Player: name, Games: games}
	rng := rand.New(rand.NewPCG(seed, seed+1))
	p := newPlayer(recall, rng)

	eng, err := engine.NewEngine(preset, engine.WithRand(rand.New(rand.NewPCG(seed, seed^0xdeadbeef))))
	if err != nil {
		return summary, err
	}
	maxAttempts := 50 * preset.Rows * preset.Columns

	totalAttempts, totalMistakes := 0, 0
	for g := 0; g < games; g++ {
		if g > 0 {
			if _, err := eng.Restart(); err != nil {
				return summary, err
			}
		}
		if err := p.playGame(eng, maxAttempts); err != nil {
			return summary, fmt.Errorf("game %d: %w", g, err)
		}

		attempts := eng.Attempts()
		totalAttempts += attempts
		totalMistakes += eng.Mistakes()
		if g == 0 || attempts < summary.BestAttempts {
			summary.BestAttempts = attempts
		}
		if attempts > summary.WorstAttempts {
			summary.WorstAttempts = attempts
		}
	}

	if games > 0 {
		summary.MeanAttempts = float64(totalAttempts) / float64(games)
		summary.MeanMistakes = float64(totalMistakes) / float64(games)
	}
	return summary, nil
}

// analyze simulates both players on every preset of configDir
func analyze(out io.Writer, configDir string, games int, recall float64, seed uint64) error {
	manager, err := config.NewManager(configDir)
	if err != nil {
		return err
	}
	infos, err := manager.ListConfigs()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tGRID\tPAIRS\tPLAYER\tMEAN ATTEMPTS\tMEAN MISTAKES\tBEST\tWORST")

	for _, info := range infos {
		preset, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\terror: %v\t\t\t\t\n", info.ConfigID, err)
			continue
		}

		players := []struct {
			name   string
			recall float64
		}{
			{"perfect", 1},
			{fmt.Sprintf("recall %.0f%%", recall*100), recall},
		}
		for _, pl := range players {
			s, err := simulate(preset, pl.name, pl.recall, games, seed)
			if err != nil {
				return fmt.Errorf("%s: %w", info.ConfigID, err)
			}
			fmt.Fprintf(w, "%s\t%dx%d\t%d\t%s\t%.1f\t%.1f\t%d\t%d\n",
				info.ConfigID, preset.Rows, preset.Columns, preset.PairCount(),
				s.Player, s.MeanAttempts, s.MeanMistakes, s.BestAttempts, s.WorstAttempts)
		}
	}
	return w.Flush()
}

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Simulate players on every preset",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing game presets"},
			&cli.IntFlag{Name: "games", Value: 200, Usage: "Games per preset and player"},
			&cli.FloatFlag{Name: "recall", Value: 0.8, Usage: "Chance the forgetful player keeps a card in mind each turn"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "Seed for deals and player choices"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			recall := cmd.Float("recall")
			if recall < 0 || recall > 1 {
				return fmt.Errorf("recall must be between 0 and 1, got %v", recall)
			}
			return analyze(os.Stdout, cmd.String("config-dir"), int(cmd.Int("games")), recall, uint64(cmd.Int("seed")))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
