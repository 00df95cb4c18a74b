package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds the runtime configuration for both entry points.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"moneydrop"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	ConsoleAddr             string        `env:"CONSOLE_ADDR" envDefault:"127.0.0.1:5050"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" envDefault:"20s"`

	Game        Game
	Lobby       Lobby
	Live        Live
	Leaderboard Leaderboard
	CORS        CORS
}

// Game groups single-player gameplay defaults and session housekeeping.
type Game struct {
	StartingChips   int           `env:"STARTING_CHIPS" envDefault:"1000"`
	QuestionCount   int           `env:"QUESTION_COUNT" envDefault:"7"`
	AllowUnbetChips bool          `env:"ALLOW_UNBET_CHIPS" envDefault:"true"`
	QuestionBank    string        `env:"QUESTION_BANK"` // optional YAML path; empty uses the embedded bank
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`
}

// Lobby configures the synchronous polling mode.
type Lobby struct {
	DefaultSize int           `env:"LOBBY_DEFAULT_SIZE" envDefault:"2"`
	TimeLimit   time.Duration `env:"LOBBY_TIME_LIMIT" envDefault:"30s"`
}

// Live configures the real-time host-driven mode.
type Live struct {
	MaxPlayers   int           `env:"LIVE_MAX_PLAYERS" envDefault:"12"`
	TimeLimit    time.Duration `env:"LIVE_TIME_LIMIT" envDefault:"45s"`
	TickInterval time.Duration `env:"LIVE_TICK_INTERVAL" envDefault:"1s"`
}

// Leaderboard selects and configures the score store. An empty RedisAddr
// selects the JSON file store.
type Leaderboard struct {
	Path      string `env:"LEADERBOARD_PATH" envDefault:"data/leaderboard.json"`
	RedisAddr string `env:"LEADERBOARD_REDIS_ADDR"`
	RedisDB   int    `env:"LEADERBOARD_REDIS_DB" envDefault:"0"`
	TopN      int    `env:"LEADERBOARD_TOP" envDefault:"10"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
}

// Load parses environment variables into the App config.
func Load() (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
