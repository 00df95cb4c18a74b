package live

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Broadcaster pushes lobby state to connected clients. The websocket hub
// implements it in production; tests substitute a recorder.
type Broadcaster interface {
	BroadcastState(lobbyID string, snap Snapshot)
	BroadcastTick(lobbyID string, remaining int)
}

// Lister exposes the live lobbies the ticker should scan. Implemented by
// the lobby registry.
type Lister interface {
	All() []*Lobby
}

// Ticker is the only autonomous state transition in the system: at a fixed
// interval it broadcasts every lobby's remaining time and force-validates
// rounds whose countdown ran out. Lobbies are ticked independently so one
// lobby's failure cannot starve the others.
type Ticker struct {
	lobbies     Lister
	broadcaster Broadcaster
	clock       clockwork.Clock
	interval    time.Duration
	logger      zerolog.Logger
}

// NewTicker builds the background ticker.
func NewTicker(lobbies Lister, broadcaster Broadcaster, interval time.Duration, clock clockwork.Clock, logger zerolog.Logger) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{
		lobbies:     lobbies,
		broadcaster: broadcaster,
		clock:       clock,
		interval:    interval,
		logger:      logger.With().Str("component", "live_ticker").Logger(),
	}
}

// Run blocks until context cancellation.
func (t *Ticker) Run(ctx context.Context) error {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			t.Tick()
		}
	}
}

// Tick performs one scan over every live lobby. Exposed for tests driving a
// fake clock.
func (t *Ticker) Tick() {
	for _, lobby := range t.lobbies.All() {
		t.tickLobby(lobby)
	}
}

func (t *Ticker) tickLobby(lobby *Lobby) {
	// A lobby can be evicted or change phase between the scan and this
	// call; TickExpired re-checks under the lobby's own lock.
	if lobby.TickExpired() {
		t.logger.Info().Str("lobby_id", lobby.ID()).Msg("round force-validated on timeout")
		t.broadcaster.BroadcastState(lobby.ID(), lobby.Snapshot())
	}
	t.broadcaster.BroadcastTick(lobby.ID(), lobby.Remaining())
}
