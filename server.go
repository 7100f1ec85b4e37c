package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/memory-workout/api"
	"github.com/wricardo/memory-workout/game/session"
	"github.com/wricardo/memory-workout/transport/mcp"
	"github.com/wricardo/memory-workout/transport/websocket"
)

const (
	cleanupInterval = time.Hour
	shutdownTimeout = 10 * time.Second
)

// runServer starts the HTTP server with REST API, WebSocket hub, and an /mcp
// proxy endpoint. If ngrok is enabled it also provisions a public tunnel.
// Everything stops on SIGINT or SIGTERM.
func runServer(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := initializeServices(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(cmd.String("host"), strconv.Itoa(int(cmd.Int("port"))))
	hub := websocket.NewHub()
	handler := newHandler(deps, hub, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		sessionCleanupRoutine(gctx, deps.sessions, cleanupInterval, cmd.Duration("session-ttl"))
		return nil
	})

	g.Go(func() error {
		log.Info().
			Str("addr", addr).
			Str("api", fmt.Sprintf("http://%s/api", addr)).
			Str("websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)).
			Str("mcp", fmt.Sprintf("http://%s/mcp", addr)).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	if cmd.Bool("ngrok") {
		g.Go(func() error {
			return serveNgrok(gctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	log.Info().Msg("server stopped")
	return err
}

// newHandler builds the full HTTP handler: REST API, WebSocket and /mcp.
// baseURL is where the MCP proxy reaches the REST API.
func newHandler(deps *services, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(deps.game, hub, log.Logger)

	mcpClient := mcp.NewClient(baseURL)
	apiServer.Router().Handle("/mcp", mcpHandler(mcpClient.GetMCPServer())).Methods("POST")

	return apiServer.Handler()
}

// mcpHandler serves single JSON-RPC messages over plain HTTP POST
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		if response == nil {
			// notifications carry no response
			w.WriteHeader(http.StatusAccepted)
			return
		}
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// serveNgrok exposes handler through an ngrok tunnel until ctx is done. A
// missing token or a failed tunnel is logged and leaves the local server up.
func serveNgrok(ctx context.Context, authToken, domain string, handler http.Handler) error {
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return nil
	}

	log.Info().Msg("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return nil
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.Info().
		Str("url", ngrokURL).
		Str("api", ngrokURL+"/api").
		Str("websocket", ngrokURL+"/ws?session=<session_id>").
		Str("mcp", ngrokURL+"/mcp").
		Msg("ngrok tunnel established")

	err = http.Serve(tun, handler)
	if ctx.Err() != nil {
		log.Info().Msg("ngrok tunnel closed")
		return nil
	}
	return fmt.Errorf("ngrok server: %w", err)
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within maxAge, until ctx is done
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(maxAge)
		}
	}
}
