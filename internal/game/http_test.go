package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmercadier/moneydrop/internal/leaderboard"
	"github.com/lmercadier/moneydrop/internal/question"
	"github.com/lmercadier/moneydrop/internal/registry"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	clock := clockwork.NewFakeClock()
	// Every question shares the same correct key so bets stay deterministic
	// under shuffling.
	engine := NewEngine(testBank(question.KeyA, question.KeyA), clock)
	cfg := DefaultConfig()
	cfg.QuestionCount = 2
	board := leaderboard.NewFileStore(filepath.Join(t.TempDir(), "lb.json"), zerolog.Nop())
	return NewHandler(engine, cfg, registry.New[*Session](clock), board, 10, zerolog.Nop())
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func startSession(t *testing.T, h *Handler) string {
	t.Helper()
	rec := postJSON(t, h.Start, map[string]string{"name": "alice"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp startResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestHandlerStartRequiresName(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h.Start, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerBetFlow(t *testing.T) {
	h := newTestHandler(t)
	id := startSession(t, h)

	rec := postJSON(t, h.Bet, map[string]any{
		"session_id": id,
		"bets":       map[string]int{"A": 600},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp betResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1000, resp.Chips) // 600 correct + 400 unbet
	assert.False(t, resp.Finished)

	rec = postJSON(t, h.Bet, map[string]any{
		"session_id": id,
		"bets":       map[string]int{"B": 1000},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Chips)
	assert.True(t, resp.Finished)
	assert.True(t, resp.Eliminated)
}

func TestHandlerBetRejectsInvalid(t *testing.T) {
	h := newTestHandler(t)
	id := startSession(t, h)

	rec := postJSON(t, h.Bet, map[string]any{
		"session_id": id,
		"bets":       map[string]int{"Z": 10},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.Bet, map[string]any{
		"session_id": id,
		"bets":       map[string]int{"A": 99999},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.Bet, map[string]any{
		"session_id": "missing",
		"bets":       map[string]int{"A": 10},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerStateIncludesResultWhenTerminal(t *testing.T) {
	h := newTestHandler(t)
	id := startSession(t, h)

	for i := 0; i < 2; i++ {
		rec := postJSON(t, h.Bet, map[string]any{
			"session_id": id,
			"bets":       map[string]int{"A": 100},
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/?session_id=%s", id), nil)
	rec := httptest.NewRecorder()
	h.State(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Finished)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 1000, resp.Result.FinalChips)
	assert.Equal(t, 2, resp.Result.CorrectAnswers)
	require.NotEmpty(t, resp.Leaderboard)
	assert.Equal(t, "alice", resp.Leaderboard[0].Name)
}

func TestHandlerReset(t *testing.T) {
	h := newTestHandler(t)
	id := startSession(t, h)

	rec := postJSON(t, h.Reset, map[string]string{"session_id": id})
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/?session_id=%s", id), nil)
	stateRec := httptest.NewRecorder()
	h.State(stateRec, req)
	assert.Equal(t, http.StatusNotFound, stateRec.Code)
}
