// Package app bootstraps and runs the HTTP service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lmercadier/moneydrop/internal/config"
	"github.com/lmercadier/moneydrop/internal/game"
	"github.com/lmercadier/moneydrop/internal/leaderboard"
	"github.com/lmercadier/moneydrop/internal/live"
	"github.com/lmercadier/moneydrop/internal/lobby"
	"github.com/lmercadier/moneydrop/internal/logging"
	"github.com/lmercadier/moneydrop/internal/metrics"
	"github.com/lmercadier/moneydrop/internal/question"
	"github.com/lmercadier/moneydrop/internal/registry"
	"github.com/lmercadier/moneydrop/internal/server"
	ws "github.com/lmercadier/moneydrop/pkg/http/ws"
)

// Application aggregates shared infrastructure: the question bank, the
// per-mode registries, the score store and the HTTP server.
type Application struct {
	cfg    *config.App
	logger zerolog.Logger
	clock  clockwork.Clock

	redis *redis.Client
	http  *http.Server

	sessions    *registry.Registry[*game.Session]
	lobbies     *registry.Registry[*lobby.Lobby]
	liveLobbies *registry.Registry[*live.Lobby]

	ticker    *live.Ticker
	bgCancels []context.CancelFunc
}

// New bootstraps config, logger, question bank, score store and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	bank, err := loadBank(cfg, logger)
	if err != nil {
		return nil, err
	}

	clock := clockwork.NewRealClock()
	engine := game.NewEngine(bank, clock)

	gameCfg := game.Config{
		StartingChips:   cfg.Game.StartingChips,
		QuestionCount:   cfg.Game.QuestionCount,
		AllowUnbetChips: cfg.Game.AllowUnbetChips,
	}

	var redisClient *redis.Client
	var board leaderboard.Store
	if cfg.Leaderboard.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.Leaderboard.RedisAddr,
			DB:   cfg.Leaderboard.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		board = leaderboard.NewRedisStore(redisClient, logger)
		logger.Info().Str("addr", cfg.Leaderboard.RedisAddr).Msg("using redis leaderboard store")
	} else {
		board = leaderboard.NewFileStore(cfg.Leaderboard.Path, logger)
		logger.Info().Str("path", cfg.Leaderboard.Path).Msg("using file leaderboard store")
	}

	sessions := registry.New[*game.Session](clock)
	lobbies := registry.New[*lobby.Lobby](clock)
	liveLobbies := registry.New[*live.Lobby](clock)

	hub := ws.NewHub(logger)

	gameHandler := game.NewHandler(engine, gameCfg, sessions, board, cfg.Leaderboard.TopN, logger)
	lobbyHandler := lobby.NewHandler(engine, gameCfg, cfg.Lobby.DefaultSize, cfg.Lobby.TimeLimit, lobbies, sessions, clock, logger)
	liveHandler := live.NewHandler(liveLobbies, hub, engine.Draw, live.Options{
		MaxPlayers:    cfg.Live.MaxPlayers,
		QuestionCount: cfg.Game.QuestionCount,
		TimeLimit:     cfg.Live.TimeLimit,
	}, clock, logger)
	lbHandler := leaderboard.NewHandler(board, cfg.Leaderboard.TopN, logger)

	ticker := live.NewTicker(liveLobbies, live.HubBroadcaster{Hub: hub}, cfg.Live.TickInterval, clock, logger)

	apiServer := server.NewHTTPServer(cfg, gameHandler, lobbyHandler, liveHandler, lbHandler)

	return &Application{
		cfg:         cfg,
		logger:      logger,
		clock:       clock,
		redis:       redisClient,
		http:        apiServer,
		sessions:    sessions,
		lobbies:     lobbies,
		liveLobbies: liveLobbies,
		ticker:      ticker,
		bgCancels:   make([]context.CancelFunc, 0, 2),
	}, nil
}

func loadBank(cfg *config.App, logger zerolog.Logger) ([]question.Question, error) {
	if cfg.Game.QuestionBank == "" {
		logger.Info().Msg("using embedded question bank")
		return question.DefaultBank(), nil
	}
	bank, err := question.LoadBank(cfg.Game.QuestionBank)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	logger.Info().Str("path", cfg.Game.QuestionBank).Int("questions", len(bank)).Msg("question bank loaded")
	return bank, nil
}

// Run starts the HTTP server and background workers and waits for a
// termination signal.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	tickerCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		if err := a.ticker.Run(tickerCtx); err != nil && err != context.Canceled {
			a.logger.Warn().Err(err).Msg("live ticker stopped")
		}
	}()

	janitorCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go a.runJanitor(janitorCtx)
}

// runJanitor periodically evicts idle sessions and lobbies.
func (a *Application) runJanitor(ctx context.Context) {
	ticker := a.clock.NewTicker(a.cfg.Game.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			ttl := a.cfg.Game.SessionTTL
			removed := a.sessions.CleanupInactive(ttl)
			removed += a.lobbies.CleanupInactive(ttl)
			removed += a.liveLobbies.CleanupInactive(ttl)
			if removed > 0 {
				metrics.SessionsEvicted.Add(float64(removed))
				a.logger.Info().Int("removed", removed).Msg("idle sessions evicted")
			}
		}
	}
}
