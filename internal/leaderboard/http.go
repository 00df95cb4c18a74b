package leaderboard

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/lmercadier/moneydrop/pkg/http/errors"
)

// Handler serves the leaderboard read endpoint.
type Handler struct {
	store  Store
	topN   int
	logger zerolog.Logger
}

// NewHandler wires the leaderboard endpoint.
func NewHandler(store Store, topN int, logger zerolog.Logger) *Handler {
	return &Handler{
		store:  store,
		topN:   topN,
		logger: logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

type topResponse struct {
	Entries  []Entry `json:"entries"`
	Rendered string  `json:"rendered"`
}

// Top returns the best results, both structured and pre-rendered as a text
// table for terminal-style clients.
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Top(r.Context(), h.topN)
	if err != nil {
		h.logger.Error().Err(err).Msg("leaderboard read failed")
		httperrors.RespondInternalError(w, "leaderboard unavailable")
		return
	}
	rendered, err := Render(r.Context(), h.store, h.topN)
	if err != nil {
		rendered = ""
	}
	if entries == nil {
		entries = []Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(topResponse{Entries: entries, Rendered: rendered})
}
