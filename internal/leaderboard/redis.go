package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisKey = "moneydrop:leaderboard"

// updateScript applies the best-of merge atomically inside Redis: the entry
// is replaced iff chips strictly exceed the stored best, or tie with more
// correct answers.
var updateScript = redis.NewScript(`
local raw = redis.call("HGET", KEYS[1], ARGV[1])
local chips = tonumber(ARGV[2])
local correct = tonumber(ARGV[3])
if raw then
	local cur = cjson.decode(raw)
	if chips < cur.best_chips then return 0 end
	if chips == cur.best_chips and correct <= cur.best_correct then return 0 end
end
redis.call("HSET", KEYS[1], ARGV[1], cjson.encode({best_chips = chips, best_correct = correct}))
return 1
`)

// RedisStore keeps the leaderboard in a Redis hash, one JSON entry per
// player name, for deployments with more than one server instance.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		logger: logger.With().Str("component", "leaderboard_redis").Logger(),
	}
}

// Update applies the best-of merge via a Lua compare-and-set.
func (s *RedisStore) Update(ctx context.Context, name string, finalChips, correctAnswers int) error {
	if err := updateScript.Run(ctx, s.client, []string{redisKey}, name, finalChips, correctAnswers).Err(); err != nil {
		return fmt.Errorf("leaderboard update: %w", err)
	}
	return nil
}

// Top returns the n best entries. The full hash is read and sorted in
// process; player counts are small.
func (s *RedisStore) Top(ctx context.Context, n int) ([]Entry, error) {
	raw, err := s.client.HGetAll(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard fetch: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for name, payload := range raw {
		var e fileEntry
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			s.logger.Warn().Err(err).Str("player", name).Msg("skip corrupted leaderboard entry")
			continue
		}
		entries = append(entries, Entry{Name: name, BestChips: e.BestChips, BestCorrect: e.BestCorrect})
	}

	sortEntries(entries)
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}
