package game

import "errors"

// Validation errors reject malformed bet input. The session is left
// untouched and the caller may re-prompt.
var (
	ErrNegativeBet   = errors.New("negative bet amount")
	ErrBetOverBudget = errors.New("bet total exceeds available chips")
	ErrMustBetAll    = errors.New("all chips must be placed on A/B/C/D")
)

// Precondition errors signal an operation that is illegal in the current
// state. State is unchanged.
var (
	ErrGameOver   = errors.New("game already over")
	ErrNoQuestion = errors.New("no question remaining")
)

// IsValidation reports whether err came from bet input validation, as
// opposed to a state precondition.
func IsValidation(err error) bool {
	return errors.Is(err, ErrNegativeBet) ||
		errors.Is(err, ErrBetOverBudget) ||
		errors.Is(err, ErrMustBetAll)
}
