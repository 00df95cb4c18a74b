package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/lmercadier/moneydrop/internal/config"
	"github.com/lmercadier/moneydrop/internal/console"
	"github.com/lmercadier/moneydrop/internal/game"
	"github.com/lmercadier/moneydrop/internal/leaderboard"
	"github.com/lmercadier/moneydrop/internal/logging"
	"github.com/lmercadier/moneydrop/internal/question"
)

func newConsoleCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Start the TCP console server (playable with netcat)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.ConsoleAddr = addr
			}
			return runConsole(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides CONSOLE_ADDR)")
	return cmd
}

func runConsole(ctx context.Context, cfg *config.App) error {
	logger := logging.New(cfg.Name, cfg.Env)

	bank := question.DefaultBank()
	if cfg.Game.QuestionBank != "" {
		loaded, err := question.LoadBank(cfg.Game.QuestionBank)
		if err != nil {
			return fmt.Errorf("load question bank: %w", err)
		}
		bank = loaded
	}

	clock := clockwork.NewRealClock()
	engine := game.NewEngine(bank, clock)
	gameCfg := game.Config{
		StartingChips:   cfg.Game.StartingChips,
		QuestionCount:   cfg.Game.QuestionCount,
		AllowUnbetChips: cfg.Game.AllowUnbetChips,
	}

	var board leaderboard.Store
	if cfg.Leaderboard.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Leaderboard.RedisAddr,
			DB:   cfg.Leaderboard.RedisDB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		board = leaderboard.NewRedisStore(client, logger)
	} else {
		board = leaderboard.NewFileStore(cfg.Leaderboard.Path, logger)
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := console.NewServer(cfg.ConsoleAddr, engine, gameCfg, board, cfg.Leaderboard.TopN, logger)
	return srv.Run(runCtx)
}
