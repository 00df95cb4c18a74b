// Package metrics exposes the Prometheus collectors shared by the game
// modes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mode labels for per-mode counters.
const (
	ModeSingle = "single"
	ModeLobby  = "lobby"
	ModeLive   = "live"
)

var (
	// GamesStarted counts new games per mode.
	GamesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moneydrop_games_started_total",
		Help: "Number of games started, by mode.",
	}, []string{"mode"})

	// RoundsResolved counts resolved question rounds per mode.
	RoundsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "moneydrop_rounds_resolved_total",
		Help: "Number of question rounds resolved, by mode.",
	}, []string{"mode"})

	// SessionsEvicted counts idle sessions and lobbies reclaimed by the
	// janitor.
	SessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "moneydrop_sessions_evicted_total",
		Help: "Number of idle sessions and lobbies evicted.",
	})
)
