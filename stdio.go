package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/memory-workout/api"
	"github.com/wricardo/memory-workout/transport/mcp"
)

// runStdioMCP runs an MCP stdio server. It reuses the API at --api-url when
// it answers; otherwise it starts an internal HTTP API bound to a random
// loopback port and targets that.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	baseURL := strings.TrimRight(cmd.String("api-url"), "/")

	if apiAvailable(ctx, baseURL) {
		log.Info().Str("url", baseURL).Msg("external API server found, using it for MCP")
	} else {
		log.Info().Str("url", baseURL).Msg("no external API server found, starting internal HTTP server")

		deps, err := initializeServices(cmd.String("config-dir"))
		if err != nil {
			return err
		}

		internalURL, shutdown, err := startInternalServer(deps)
		if err != nil {
			return err
		}
		defer shutdown()
		baseURL = internalURL
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

// apiAvailable probes the health endpoint of an API server
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalServer serves the REST API on a random loopback port. Live
// WebSocket updates are not offered; stdio agents never connect to them.
func startInternalServer(deps *services) (string, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	apiServer := api.NewServer(deps.game, nil, log.Logger)
	httpServer := &http.Server{Handler: apiServer.Handler()}

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()

	addr := listener.Addr().String()
	log.Info().Str("addr", addr).Msg("internal HTTP server started for MCP stdio")

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		httpServer.Shutdown(ctx)
	}
	return "http://" + addr, shutdown, nil
}
