package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/memory-workout/game/config"
	"github.com/wricardo/memory-workout/game/engine"
)

const playHelp = `Commands:
  <index>        flip the card at index (0-based, row-major)
  <row>,<col>    flip the card at row and column (0-based)
  r, restart     deal a new board
  h, help        show this help
  q, quit        leave the game`

// runPlay plays a single game in the terminal
func runPlay(ctx context.Context, cmd *cli.Command) error {
	configs, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}

	preset := configs.GetDefault()
	if name := cmd.String("preset"); name != "" {
		if preset, err = configs.LoadConfig(name); err != nil {
			return err
		}
	}

	cfg := *preset
	if cmd.IsSet("rows") {
		cfg.Rows = int(cmd.Int("rows"))
	}
	if cmd.IsSet("columns") {
		cfg.Columns = int(cmd.Int("columns"))
	}

	var opts []engine.Option
	if cmd.IsSet("seed") {
		opts = append(opts, engine.WithSeed(uint64(cmd.Int("seed"))))
	}

	eng, err := engine.NewEngine(&cfg, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s: %s\n", cfg.Name, cfg.Description)
	return playLoop(eng, os.Stdin, os.Stdout)
}

// playLoop reads commands from in until the input ends or the player quits
func playLoop(eng *engine.GameEngine, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, playHelp)
	printBoard(out, eng)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "q", "quit", "exit":
			fmt.Fprintln(out, "Bye.")
			return nil
		case "h", "help":
			fmt.Fprintln(out, playHelp)
			continue
		case "r", "restart":
			if _, err := eng.Restart(); err != nil {
				return err
			}
			fmt.Fprintln(out, "Game restarted")
			printBoard(out, eng)
			continue
		}

		if eng.IsGameOver() {
			fmt.Fprintln(out, "The game is over. Type restart for a new board or quit.")
			continue
		}

		rows, columns := eng.Dimensions()
		index, err := parseCardInput(line, rows, columns)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		status, err := eng.Play(index)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		if status.Code == engine.StatusNoMatch {
			cards := eng.Cards()
			for _, i := range status.Args {
				r, c := engine.GridPosition(i, columns)
				fmt.Fprintf(out, "  card %d (row %d, col %d): %s\n", i, r, c, cards[i].Image)
			}
		}
		fmt.Fprintln(out, status.Message)
		printBoard(out, eng)

		if status.Code == engine.StatusGameOver {
			fmt.Fprintln(out, "All pairs found. Type restart for a new board or quit.")
		}
	}
}

func printBoard(out io.Writer, eng *engine.GameEngine) {
	state := eng.GetState()
	fmt.Fprintf(out, "Pairs: %d/%d | Attempts: %d | Mistakes: %d\n",
		state.MatchedPairs, state.PairCount, state.Attempts, state.Mistakes)
	fmt.Fprintln(out, engine.RenderBoard(state.Masked()))
}

// parseCardInput accepts a card index or a "row,col" / "row col" pair
func parseCardInput(line string, rows, columns int) (int, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })

	switch len(fields) {
	case 1:
		index, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, fmt.Errorf("%q is not a card index", fields[0])
		}
		if index < 0 || index >= rows*columns {
			return 0, fmt.Errorf("index %d is outside the board (0-%d)", index, rows*columns-1)
		}
		return index, nil
	case 2:
		row, err := strconv.Atoi(fields[0])
		if err != nil {
			return 0, fmt.Errorf("%q is not a row", fields[0])
		}
		col, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, fmt.Errorf("%q is not a column", fields[1])
		}
		index := engine.IndexAt(row, col, rows, columns)
		if index < 0 {
			return 0, fmt.Errorf("row %d, col %d is outside the %dx%d board", row, col, rows, columns)
		}
		return index, nil
	default:
		return 0, fmt.Errorf("expected an index or row,col, got %q", line)
	}
}
