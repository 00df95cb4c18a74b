package live

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/lmercadier/moneydrop/internal/metrics"
	"github.com/lmercadier/moneydrop/internal/question"
	"github.com/lmercadier/moneydrop/internal/registry"
	httperrors "github.com/lmercadier/moneydrop/pkg/http/errors"
	ws "github.com/lmercadier/moneydrop/pkg/http/ws"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering is handled by the CORS layer in front.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Options bounds new lobbies.
type Options struct {
	MaxPlayers    int
	QuestionCount int
	TimeLimit     time.Duration
}

// Handler serves the real-time lobby: one HTTP endpoint to create a lobby
// and a WebSocket endpoint carrying the live protocol.
type Handler struct {
	lobbies *registry.Registry[*Lobby]
	hub     *ws.Hub
	draw    func(n int) []question.Question
	opts    Options
	clock   clockwork.Clock
	logger  zerolog.Logger
}

// NewHandler wires the live lobby endpoints.
func NewHandler(lobbies *registry.Registry[*Lobby], hub *ws.Hub, draw func(n int) []question.Question, opts Options, clock clockwork.Clock, logger zerolog.Logger) *Handler {
	return &Handler{
		lobbies: lobbies,
		hub:     hub,
		draw:    draw,
		opts:    opts,
		clock:   clock,
		logger:  logger.With().Str("component", "live_handler").Logger(),
	}
}

type createRequest struct {
	SessionID     string `json:"session_id"`
	QuestionCount int    `json:"question_count,omitempty"`
	TimeLimit     int    `json:"time_limit,omitempty"` // seconds
}

// Create opens a live lobby; the creating session becomes its host.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPayload, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "session_id is required")
		return
	}

	questionCount := req.QuestionCount
	if questionCount <= 0 {
		questionCount = h.opts.QuestionCount
	}
	timeLimit := h.opts.TimeLimit
	if req.TimeLimit > 0 {
		timeLimit = time.Duration(req.TimeLimit) * time.Second
	}

	lobbyID := uuid.NewString()
	lobby := New(lobbyID, req.SessionID, h.opts.MaxPlayers, questionCount, timeLimit, h.draw, h.clock)
	if err := h.lobbies.CreateWithID(lobbyID, lobby); err != nil {
		httperrors.RespondInternalError(w, err.Error())
		return
	}
	metrics.GamesStarted.WithLabelValues(metrics.ModeLive).Inc()

	h.logger.Info().Str("lobby_id", lobbyID).Str("host", req.SessionID).Msg("live lobby created")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"lobby_id": lobbyID})
}

// HandleWebSocket upgrades the connection and pumps live protocol messages.
// The caller identifies itself with a session_id query parameter.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "session_id is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.Register(sessionID, wsConn)
	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(sessionID, msg)
	})

	h.hub.Unregister(sessionID)
}

func (h *Handler) handleMessage(sessionID string, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoinLobby:
		return h.handleJoin(sessionID, msg.Payload)
	case ws.TypePlayerAnswer:
		return h.handleAnswer(sessionID, msg.Payload)
	case ws.TypeHostStart, ws.TypeHostLaunch, ws.TypeHostPause, ws.TypeHostResume, ws.TypeHostForceValidate, ws.TypeHostNext:
		return h.handleHostCommand(sessionID, msg.Type, msg.Payload)
	default:
		return h.sendError(sessionID, httperrors.ErrCodeUnknownMessageType, "unknown message type: "+msg.Type)
	}
}

func (h *Handler) handleJoin(sessionID string, payload json.RawMessage) error {
	var req ws.JoinLobbyPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(sessionID, httperrors.ErrCodeInvalidPayload, "invalid join_lobby payload")
	}
	lobby, ok := h.lobbies.Get(req.LobbyID)
	if !ok {
		return h.sendError(sessionID, httperrors.ErrCodeLobbyNotFound, "unknown lobby")
	}

	// The host observes without playing; everyone else takes a player slot.
	if req.Role != "host" || sessionID != lobby.HostID() {
		name := req.Name
		if name == "" {
			short := sessionID
			if len(short) > 8 {
				short = short[:8]
			}
			name = "Player " + short
		}
		if err := lobby.AddPlayer(sessionID, name); err != nil {
			return h.sendError(sessionID, httperrors.ErrCodeLobbyFull, err.Error())
		}
	}

	h.hub.JoinLobby(req.LobbyID, sessionID)
	h.broadcastState(lobby)
	return nil
}

func (h *Handler) handleAnswer(sessionID string, payload json.RawMessage) error {
	var req ws.PlayerAnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(sessionID, httperrors.ErrCodeInvalidPayload, "invalid player_answer payload")
	}
	lobby, ok := h.lobbies.Get(req.LobbyID)
	if !ok {
		return h.sendError(sessionID, httperrors.ErrCodeLobbyNotFound, "unknown lobby")
	}
	choice, err := question.ParseKey(req.Choice)
	if err != nil {
		return h.sendError(sessionID, httperrors.ErrCodeInvalidPayload, err.Error())
	}
	if err := lobby.Answer(sessionID, choice); err != nil {
		return h.sendError(sessionID, httperrors.ErrCodePreconditionFailed, err.Error())
	}
	h.broadcastState(lobby)
	return nil
}

func (h *Handler) handleHostCommand(sessionID, msgType string, payload json.RawMessage) error {
	var req ws.HostCommandPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(sessionID, httperrors.ErrCodeInvalidPayload, "invalid host command payload")
	}
	lobby, ok := h.lobbies.Get(req.LobbyID)
	if !ok {
		return h.sendError(sessionID, httperrors.ErrCodeLobbyNotFound, "unknown lobby")
	}

	var err error
	switch msgType {
	case ws.TypeHostStart:
		err = lobby.StartGame(sessionID)
	case ws.TypeHostLaunch:
		err = lobby.LaunchQuestion(sessionID)
	case ws.TypeHostPause:
		err = lobby.Pause(sessionID)
	case ws.TypeHostResume:
		err = lobby.Resume(sessionID)
	case ws.TypeHostForceValidate:
		err = lobby.Validate(sessionID)
		if err == nil {
			metrics.RoundsResolved.WithLabelValues(metrics.ModeLive).Inc()
		}
	case ws.TypeHostNext:
		err = lobby.NextQuestion(sessionID)
	}
	if err != nil {
		if errors.Is(err, ErrNotHost) {
			return h.sendError(sessionID, httperrors.ErrCodeNotHost, err.Error())
		}
		return h.sendError(sessionID, httperrors.ErrCodePreconditionFailed, err.Error())
	}

	h.broadcastState(lobby)
	return nil
}

func (h *Handler) broadcastState(lobby *Lobby) {
	h.hub.BroadcastToLobby(lobby.ID(), ws.NewMessage(ws.TypeState, lobby.Snapshot()))
}

func (h *Handler) sendError(sessionID, code, message string) error {
	return h.hub.SendTo(sessionID, ws.NewMessage(ws.TypeError, ws.ErrorPayload{Code: code, Error: message}))
}

// HubBroadcaster adapts the websocket hub to the ticker's Broadcaster
// interface.
type HubBroadcaster struct {
	Hub *ws.Hub
}

// BroadcastState pushes a full snapshot to a lobby.
func (b HubBroadcaster) BroadcastState(lobbyID string, snap Snapshot) {
	b.Hub.BroadcastToLobby(lobbyID, ws.NewMessage(ws.TypeState, snap))
}

// BroadcastTick pushes the remaining countdown to a lobby.
func (b HubBroadcaster) BroadcastTick(lobbyID string, remaining int) {
	b.Hub.BroadcastToLobby(lobbyID, ws.NewMessage(ws.TypeTick, ws.TickPayload{LobbyID: lobbyID, TimeRemaining: remaining}))
}
