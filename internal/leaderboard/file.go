package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

type fileEntry struct {
	BestChips   int `json:"best_chips"`
	BestCorrect int `json:"best_correct"`
}

// FileStore keeps the leaderboard in a JSON file keyed by player name.
// Writes go through a temp file and an atomic rename; a corrupt or missing
// file starts a fresh board instead of failing.
type FileStore struct {
	mu     sync.Mutex
	path   string
	scores map[string]fileEntry
	logger zerolog.Logger
}

// NewFileStore loads the file at path, if any.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	s := &FileStore{
		path:   path,
		scores: make(map[string]fileEntry),
		logger: logger.With().Str("component", "leaderboard_file").Logger(),
	}
	s.load()
	return s
}

func (s *FileStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("leaderboard unreadable, starting empty")
		}
		return
	}
	var scores map[string]fileEntry
	if err := json.Unmarshal(data, &scores); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("leaderboard corrupted, starting empty")
		return
	}
	s.scores = scores
}

func (s *FileStore) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create leaderboard dir: %w", err)
	}
	data, err := json.MarshalIndent(s.scores, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal leaderboard: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write leaderboard: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace leaderboard: %w", err)
	}
	return nil
}

// Update applies the best-of merge and persists.
func (s *FileStore) Update(_ context.Context, name string, finalChips, correctAnswers int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.scores[name]
	if !ok || betterThan(Entry{BestChips: current.BestChips, BestCorrect: current.BestCorrect}, finalChips, correctAnswers) {
		s.scores[name] = fileEntry{BestChips: finalChips, BestCorrect: correctAnswers}
	}
	return s.saveLocked()
}

// Top returns the n best entries.
func (s *FileStore) Top(_ context.Context, n int) ([]Entry, error) {
	s.mu.Lock()
	entries := make([]Entry, 0, len(s.scores))
	for name, e := range s.scores {
		entries = append(entries, Entry{Name: name, BestChips: e.BestChips, BestCorrect: e.BestCorrect})
	}
	s.mu.Unlock()

	sortEntries(entries)
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}
