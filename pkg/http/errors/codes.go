package errors

// Error codes for standardized error responses.
const (
	// Bet validation: the caller may fix the input and retry.
	ErrCodeInvalidBet = "invalid_bet"

	// Preconditions: the operation is illegal in the current state.
	ErrCodePreconditionFailed = "precondition_failed"
	ErrCodeLobbyFull          = "lobby_full"
	ErrCodeNotHost            = "not_host"
	ErrCodeGameOver           = "game_over"

	// Resources
	ErrCodeSessionNotFound = "session_not_found"
	ErrCodeLobbyNotFound   = "lobby_not_found"

	// Requests
	ErrCodeInvalidRequest     = "invalid_request"
	ErrCodeMissingField       = "missing_field"
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server
	ErrCodeInternalError = "internal_error"
)
