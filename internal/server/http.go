// Package server assembles the HTTP API from the per-mode handlers.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/lmercadier/moneydrop/internal/config"
	"github.com/lmercadier/moneydrop/internal/game"
	"github.com/lmercadier/moneydrop/internal/leaderboard"
	"github.com/lmercadier/moneydrop/internal/live"
	"github.com/lmercadier/moneydrop/internal/lobby"
)

// NewHTTPServer wires every route: health, metrics, the three game modes and
// the leaderboard. All /v1 and /ws routes go through the CORS middleware.
func NewHTTPServer(cfg *config.App, gameHandler *game.Handler, lobbyHandler *lobby.Handler, liveHandler *live.Handler, lbHandler *leaderboard.Handler) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	// Single player
	mux.HandleFunc("POST /v1/games", gameHandler.Start)
	mux.HandleFunc("GET /v1/games/state", gameHandler.State)
	mux.HandleFunc("POST /v1/games/bet", gameHandler.Bet)
	mux.HandleFunc("POST /v1/games/reset", gameHandler.Reset)

	// Synchronous polling lobby
	mux.HandleFunc("POST /v1/lobbies", lobbyHandler.Create)
	mux.HandleFunc("POST /v1/lobbies/join", lobbyHandler.Join)
	mux.HandleFunc("POST /v1/lobbies/start", lobbyHandler.Start)
	mux.HandleFunc("GET /v1/lobbies/state", lobbyHandler.State)
	mux.HandleFunc("POST /v1/lobbies/bet", lobbyHandler.Bet)

	// Real-time live lobby
	mux.HandleFunc("POST /v1/live", liveHandler.Create)
	mux.HandleFunc("/ws/live", liveHandler.HandleWebSocket)

	mux.HandleFunc("GET /v1/leaderboard", lbHandler.Top)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware.Handler(mux),
	}
}
