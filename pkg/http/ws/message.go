package ws

import "encoding/json"

// Message types for the live lobby WebSocket protocol.
const (
	// Client -> Server
	TypeJoinLobby         = "join_lobby"
	TypePlayerAnswer      = "player_answer"
	TypeHostStart         = "host_start"
	TypeHostLaunch        = "host_launch_question"
	TypeHostPause         = "host_pause"
	TypeHostResume        = "host_resume"
	TypeHostForceValidate = "host_force_validate"
	TypeHostNext          = "host_next_question"

	// Server -> Client
	TypeState = "state"
	TypeTick  = "tick"
	TypeError = "error_msg"
)

// Message wraps every WebSocket payload with its type.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload into a Message. Marshalling only fails for
// unsupported types, which would be a programming error.
func NewMessage(msgType string, payload any) Message {
	data, _ := json.Marshal(payload)
	return Message{Type: msgType, Payload: data}
}

// Client messages (incoming)

// JoinLobbyPayload attaches the connection to a lobby, optionally claiming
// the host role.
type JoinLobbyPayload struct {
	LobbyID string `json:"lobby_id"`
	Role    string `json:"role,omitempty"`
	Name    string `json:"name,omitempty"`
}

// PlayerAnswerPayload carries a single-choice answer.
type PlayerAnswerPayload struct {
	LobbyID string `json:"lobby_id"`
	Choice  string `json:"choice"`
}

// HostCommandPayload is shared by all five host commands.
type HostCommandPayload struct {
	LobbyID string `json:"lobby_id"`
}

// Server messages (outgoing)

// TickPayload broadcasts the remaining countdown seconds.
type TickPayload struct {
	LobbyID       string `json:"lobby_id"`
	TimeRemaining int    `json:"time_remaining"`
}

// ErrorPayload notifies a client of a rejected action.
type ErrorPayload struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}
