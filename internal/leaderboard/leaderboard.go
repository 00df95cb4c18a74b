// Package leaderboard persists each player's best-ever final chip balance
// and the correct-answer count achieved at that balance.
package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Entry is one player's best recorded performance.
type Entry struct {
	Name        string `json:"name"`
	BestChips   int    `json:"best_chips"`
	BestCorrect int    `json:"best_correct"`
}

// Store is the collaborator interface the game modes write through.
// Update applies the best-of merge: an entry is replaced iff the new chip
// count strictly exceeds the previous best, or equals it with strictly more
// correct answers.
type Store interface {
	Update(ctx context.Context, name string, finalChips, correctAnswers int) error
	Top(ctx context.Context, n int) ([]Entry, error)
}

// betterThan reports whether (chips, correct) beats the stored entry.
func betterThan(current Entry, chips, correct int) bool {
	if chips > current.BestChips {
		return true
	}
	return chips == current.BestChips && correct > current.BestCorrect
}

// sortEntries orders by chips, then correct answers, then lowercased name,
// all descending.
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.BestChips != b.BestChips {
			return a.BestChips > b.BestChips
		}
		if a.BestCorrect != b.BestCorrect {
			return a.BestCorrect > b.BestCorrect
		}
		return strings.ToLower(a.Name) > strings.ToLower(b.Name)
	})
}

// Render formats the top n entries as a text table for console clients.
func Render(ctx context.Context, store Store, n int) (string, error) {
	entries, err := store.Top(ctx, n)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "(Leaderboard empty)", nil
	}
	lines := []string{"=== Global leaderboard ==="}
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("%2d. %-16s | Chips: %-5d | Correct answers: %d", i+1, e.Name, e.BestChips, e.BestCorrect))
	}
	return strings.Join(lines, "\n"), nil
}
