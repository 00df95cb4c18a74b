package lobby

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/lmercadier/moneydrop/internal/game"
	"github.com/lmercadier/moneydrop/internal/metrics"
	"github.com/lmercadier/moneydrop/internal/question"
	"github.com/lmercadier/moneydrop/internal/registry"
	httperrors "github.com/lmercadier/moneydrop/pkg/http/errors"
)

// Handler serves the synchronous lobby HTTP API. Lobbies are created from an
// existing single-player session, which seeds the joining player's name and
// chip balance.
type Handler struct {
	engine      *game.Engine
	cfg         game.Config
	defaultSize int
	timeLimit   time.Duration
	lobbies     *registry.Registry[*Lobby]
	sessions    *registry.Registry[*game.Session]
	clock       clockwork.Clock
	logger      zerolog.Logger
}

// NewHandler wires the lobby endpoints.
func NewHandler(engine *game.Engine, cfg game.Config, defaultSize int, timeLimit time.Duration, lobbies *registry.Registry[*Lobby], sessions *registry.Registry[*game.Session], clock clockwork.Clock, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:      engine,
		cfg:         cfg,
		defaultSize: defaultSize,
		timeLimit:   timeLimit,
		lobbies:     lobbies,
		sessions:    sessions,
		clock:       clock,
		logger:      logger.With().Str("component", "lobby_http").Logger(),
	}
}

type createRequest struct {
	SessionID string `json:"session_id"`
	Size      int    `json:"size,omitempty"`
	TimeLimit int    `json:"time_limit,omitempty"` // seconds
}

// Create opens a lobby with the caller as first member.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "invalid JSON body")
		return
	}
	session, ok := h.sessions.Get(req.SessionID)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "unknown session")
		return
	}

	size := req.Size
	if size <= 0 {
		size = h.defaultSize
	}
	timeLimit := h.timeLimit
	if req.TimeLimit > 0 {
		timeLimit = time.Duration(req.TimeLimit) * time.Second
	}

	creator := Player{
		SessionID: req.SessionID,
		Name:      session.PlayerName(),
		Chips:     session.Chips(),
	}

	lobbyID := uuid.NewString()
	qs := h.engine.Draw(h.cfg.QuestionCount)
	if err := h.lobbies.CreateWithID(lobbyID, New(lobbyID, qs, h.cfg, size, creator, timeLimit, h.clock)); err != nil {
		httperrors.RespondInternalError(w, err.Error())
		return
	}
	metrics.GamesStarted.WithLabelValues(metrics.ModeLobby).Inc()

	h.logger.Info().Str("lobby_id", lobbyID).Int("size", size).Msg("lobby created")
	respondJSON(w, http.StatusCreated, map[string]string{"lobby_id": lobbyID})
}

type joinRequest struct {
	SessionID string `json:"session_id"`
	LobbyID   string `json:"lobby_id"`
}

// Join adds the caller's session to a lobby.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "invalid JSON body")
		return
	}
	session, ok := h.sessions.Get(req.SessionID)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "unknown session")
		return
	}
	l, ok := h.lobbies.Get(req.LobbyID)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeLobbyNotFound, "unknown lobby")
		return
	}

	err := l.Join(Player{
		SessionID: req.SessionID,
		Name:      session.PlayerName(),
		Chips:     session.Chips(),
	})
	if err != nil {
		respondLobbyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"lobby_id": req.LobbyID})
}

type startRequest struct {
	LobbyID string `json:"lobby_id"`
}

// Start begins the first round once the cohort is complete.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "invalid JSON body")
		return
	}
	l, ok := h.lobbies.Get(req.LobbyID)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeLobbyNotFound, "unknown lobby")
		return
	}
	if err := l.Start(); err != nil {
		respondLobbyError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// State returns the caller's view of the lobby; polling this endpoint is
// also what advances a timed-out round.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	lobbyID := r.URL.Query().Get("lobby_id")
	sessionID := r.URL.Query().Get("session_id")
	if lobbyID == "" || sessionID == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "lobby_id and session_id are required")
		return
	}
	l, ok := h.lobbies.Get(lobbyID)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeLobbyNotFound, "unknown lobby")
		return
	}
	respondJSON(w, http.StatusOK, l.PlayerView(sessionID))
}

type betRequest struct {
	SessionID string         `json:"session_id"`
	LobbyID   string         `json:"lobby_id"`
	Bets      map[string]int `json:"bets"`
}

// Bet stores the caller's submission for the current round.
func (h *Handler) Bet(w http.ResponseWriter, r *http.Request) {
	var req betRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "invalid JSON body")
		return
	}
	l, ok := h.lobbies.Get(req.LobbyID)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeLobbyNotFound, "unknown lobby")
		return
	}

	bets := game.BetMap{}
	for raw, amount := range req.Bets {
		key, err := question.ParseKey(raw)
		if err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidBet, err.Error())
			return
		}
		bets[key] = amount
	}

	resolved, err := l.Submit(req.SessionID, bets)
	if err != nil {
		respondLobbyError(w, err)
		return
	}
	if resolved {
		metrics.RoundsResolved.WithLabelValues(metrics.ModeLobby).Inc()
	}
	respondJSON(w, http.StatusOK, l.PlayerView(req.SessionID))
}

func respondLobbyError(w http.ResponseWriter, err error) {
	switch {
	case game.IsValidation(err):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidBet, err.Error())
	case errors.Is(err, ErrLobbyFull):
		httperrors.RespondConflict(w, httperrors.ErrCodeLobbyFull, err.Error())
	default:
		httperrors.RespondConflict(w, httperrors.ErrCodePreconditionFailed, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
