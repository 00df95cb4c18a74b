package game

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/lmercadier/moneydrop/internal/leaderboard"
	"github.com/lmercadier/moneydrop/internal/metrics"
	"github.com/lmercadier/moneydrop/internal/question"
	"github.com/lmercadier/moneydrop/internal/registry"
	httperrors "github.com/lmercadier/moneydrop/pkg/http/errors"
)

// Handler serves the single-player HTTP API.
type Handler struct {
	engine   *Engine
	cfg      Config
	sessions *registry.Registry[*Session]
	board    leaderboard.Store
	topN     int
	logger   zerolog.Logger
}

// NewHandler wires the single-player endpoints.
func NewHandler(engine *Engine, cfg Config, sessions *registry.Registry[*Session], board leaderboard.Store, topN int, logger zerolog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		cfg:      cfg,
		sessions: sessions,
		board:    board,
		topN:     topN,
		logger:   logger.With().Str("component", "game_http").Logger(),
	}
}

type startRequest struct {
	Name string `json:"name"`
}

type startResponse struct {
	SessionID string `json:"session_id"`
}

// Start creates a session for a named player.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "invalid JSON body")
		return
	}
	if req.Name == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "name is required")
		return
	}

	session := h.engine.NewSession(req.Name, h.cfg)
	id := h.sessions.Create(session)
	metrics.GamesStarted.WithLabelValues(metrics.ModeSingle).Inc()

	h.logger.Info().Str("player", req.Name).Msg("single-player game started")
	respondJSON(w, http.StatusCreated, startResponse{SessionID: id})
}

type stateResponse struct {
	SessionState
	Result      *Result             `json:"result,omitempty"`
	Leaderboard []leaderboard.Entry `json:"leaderboard,omitempty"`
}

// State returns the session projection. Once the game is terminal the
// response also carries the final result and the updated leaderboard.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	resp := stateResponse{SessionState: session.State()}
	if session.Terminal() {
		result := session.Result()
		if err := h.board.Update(r.Context(), result.PlayerName, result.FinalChips, result.CorrectAnswers); err != nil {
			h.logger.Warn().Err(err).Str("player", result.PlayerName).Msg("leaderboard update failed")
		}
		resp.Result = &result
		if entries, err := h.board.Top(r.Context(), h.topN); err == nil {
			resp.Leaderboard = entries
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

type betRequest struct {
	SessionID string         `json:"session_id"`
	Bets      map[string]int `json:"bets"`
}

type betResponse struct {
	Resolution Resolution `json:"resolution"`
	Chips      int        `json:"chips"`
	Finished   bool       `json:"finished"`
	Eliminated bool       `json:"eliminated"`
}

// Bet resolves the current turn.
func (h *Handler) Bet(w http.ResponseWriter, r *http.Request) {
	var req betRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "invalid JSON body")
		return
	}
	session, ok := h.sessions.Get(req.SessionID)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "unknown session")
		return
	}

	bets := BetMap{}
	for raw, amount := range req.Bets {
		key, err := question.ParseKey(raw)
		if err != nil {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidBet, err.Error())
			return
		}
		bets[key] = amount
	}

	res, err := session.SubmitBets(bets)
	if err != nil {
		respondGameError(w, err)
		return
	}
	metrics.RoundsResolved.WithLabelValues(metrics.ModeSingle).Inc()

	state := session.State()
	if session.Terminal() {
		result := session.Result()
		if err := h.board.Update(r.Context(), result.PlayerName, result.FinalChips, result.CorrectAnswers); err != nil {
			h.logger.Warn().Err(err).Str("player", result.PlayerName).Msg("leaderboard update failed")
		}
	}
	respondJSON(w, http.StatusOK, betResponse{
		Resolution: res,
		Chips:      state.Chips,
		Finished:   state.Finished,
		Eliminated: state.Eliminated,
	})
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

// Reset discards the session.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "invalid JSON body")
		return
	}
	h.sessions.Delete(req.SessionID)
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "session_id is required")
		return nil, false
	}
	session, ok := h.sessions.Get(id)
	if !ok {
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "unknown session")
		return nil, false
	}
	return session, true
}

func respondGameError(w http.ResponseWriter, err error) {
	if IsValidation(err) {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidBet, err.Error())
		return
	}
	httperrors.RespondConflict(w, httperrors.ErrCodeGameOver, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
