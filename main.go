// Command memory-workout runs the memory pair-matching game.
//
// It supports three modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" – plays a game in the terminal
//
// Flags control host/port, config directory, logging, and optional ngrok
// tunneling for easy external access during development. Every flag can also
// be set from the environment or a .env file.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/memory-workout/game/config"
	"github.com/wricardo/memory-workout/game/service"
	"github.com/wricardo/memory-workout/game/session"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Memory Workout"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

// newApp builds the command tree. Root flags are shared by every subcommand.
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "memory-workout",
		Usage:   AppName + " server, MCP bridge and terminal game",
		Version: Version,
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing game presets",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (trace, debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Shorthand for --log-level debug",
			},
			&cli.BoolFlag{
				Name:    "pretty",
				Usage:   "Human-readable console logs instead of JSON",
				Sources: cli.EnvVars("LOG_PRETTY"),
			},
		}, serverFlags()...),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := cmd.String("log-level")
			if cmd.Bool("debug") {
				level = "debug"
			}
			if err := setupLogging(level, cmd.Bool("pretty")); err != nil {
				return ctx, err
			}
			return ctx, nil
		},
		Action: runServer,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  runServer,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server, starting an internal HTTP server when needed",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Value:   "http://localhost:8080",
						Usage:   "External API to reuse when it is reachable",
						Sources: cli.EnvVars("MCP_API_URL"),
					},
				},
				Action: runStdioMCP,
			},
			{
				Name:  "play",
				Usage: "Play a game in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "preset",
						Usage: "Preset to play (default: the server default preset)",
					},
					&cli.IntFlag{
						Name:  "rows",
						Usage: "Grid rows, overrides the preset",
					},
					&cli.IntFlag{
						Name:  "columns",
						Usage: "Grid columns, overrides the preset",
					},
					&cli.IntFlag{
						Name:  "seed",
						Usage: "Shuffle seed for a reproducible deal",
					},
				},
				Action: runPlay,
			},
		},
	}
}

// serverFlags configure the server, which is also the default action
func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    "session-ttl",
			Value:   24 * time.Hour,
			Usage:   "Remove sessions not accessed for this long",
			Sources: cli.EnvVars("SESSION_TTL"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}
}

// setupLogging configures the global zerolog logger. Logs always go to
// stderr so stdout stays free for the MCP stdio transport and the terminal game.
func setupLogging(level string, pretty bool) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return nil
}

// services holds the wired game layers
type services struct {
	game     service.GameService
	sessions *session.Manager
	configs  *config.Manager
}

// initializeServices wires session/config managers and the game service
func initializeServices(configDir string) (*services, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()

	return &services{
		game:     service.NewGameService(sessionManager, configManager),
		sessions: sessionManager,
		configs:  configManager,
	}, nil
}
