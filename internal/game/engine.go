package game

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/lmercadier/moneydrop/internal/question"
)

// Engine owns the shared question bank. Each session or lobby gets its own
// shuffled working copy so concurrent games never interfere; the bank itself
// is never mutated.
type Engine struct {
	mu    sync.Mutex
	bank  []question.Question
	clock clockwork.Clock
}

// NewEngine copies the bank. The clock is forwarded to every session it
// creates.
func NewEngine(bank []question.Question, clock clockwork.Clock) *Engine {
	owned := make([]question.Question, len(bank))
	copy(owned, bank)
	return &Engine{bank: owned, clock: clock}
}

// Draw returns a freshly shuffled copy of the bank, truncated to n
// questions. n is clamped to the bank size.
func (e *Engine) Draw(n int) []question.Question {
	e.mu.Lock()
	defer e.mu.Unlock()

	qs := make([]question.Question, len(e.bank))
	copy(qs, e.bank)
	rand.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	if n > 0 && n < len(qs) {
		qs = qs[:n]
	}
	return qs
}

// BankSize reports the number of questions available.
func (e *Engine) BankSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.bank)
}

// NewSession creates a single-player session over a fresh shuffled draw.
func (e *Engine) NewSession(playerName string, cfg Config) *Session {
	return NewSession(playerName, e.Draw(cfg.QuestionCount), cfg, e.clock)
}

// LineIO abstracts a turn-driven text transport (console, raw socket,
// tests): one write stream and one prompting line reader.
type LineIO interface {
	WriteString(s string) error
	ReadLine(prompt string) (string, error)
}

// RunGame drives a full single-player game over a blocking line transport.
// Invalid bet input re-prompts; a read failure (disconnect) aborts with the
// partial result.
func (e *Engine) RunGame(playerName string, io LineIO, cfg Config) (Result, error) {
	session := e.NewSession(playerName, cfg)

	if err := io.WriteString(fmt.Sprintf(
		"\n=== Money Drop ===\nPlayer: %s | Starting chips: %d\nRule: split your chips across A/B/C/D. Chips on wrong answers are lost.\n",
		playerName, cfg.StartingChips,
	)); err != nil {
		return session.Result(), err
	}

	total := len(session.questions)
	for {
		q, ok := session.CurrentQuestion()
		if !ok {
			break
		}
		state := session.State()

		header := fmt.Sprintf(
			"\n------------------------------------------------------------\nQuestion %d/%d [%s]\n%s\n",
			state.QuestionIndex+1, total, q.Category, q.Prompt,
		)
		for _, k := range question.Keys {
			header += fmt.Sprintf("  %s) %s\n", k, q.Answers[k])
		}
		header += fmt.Sprintf("Available chips: %d\nBet format: A=200 B=300 C=0 D=50 (spaces or commas).\n", state.Chips)
		if err := io.WriteString(header); err != nil {
			return session.Result(), err
		}

		res, err := e.promptTurn(session, io)
		if err != nil {
			return session.Result(), err
		}

		summary := fmt.Sprintf("\nOutcome:\nCorrect answer: %s) %s\n", res.Correct, res.CorrectLabel)
		if res.Explanation != "" {
			summary += fmt.Sprintf("Explanation: %s\n", res.Explanation)
		}
		summary += fmt.Sprintf("Chips bet: %d | Unbet: %d\nLost: %d | Kept: %d\n", res.BetTotal, res.Unbet, res.Lost, res.Kept)
		if err := io.WriteString(summary); err != nil {
			return session.Result(), err
		}
	}

	result := session.Result()
	if err := io.WriteString(fmt.Sprintf(
		"\n============================================================\nGame over - %s\nFinal chips: %d\nCorrect answers: %d/%d\n",
		result.PlayerName, result.FinalChips, result.CorrectAnswers, result.QuestionsPlayed,
	)); err != nil {
		return result, err
	}
	return result, nil
}

// promptTurn reads bet lines until one passes validation, then resolves the
// turn.
func (e *Engine) promptTurn(session *Session, io LineIO) (Resolution, error) {
	for {
		raw, err := io.ReadLine("Enter your bets (e.g. A=200 B=300 C=0 D=50). Zero is allowed.\n> ")
		if err != nil {
			return Resolution{}, err
		}

		bets, err := ParseBets(raw)
		if err != nil {
			if werr := io.WriteString(fmt.Sprintf("Invalid input: %v\n", err)); werr != nil {
				return Resolution{}, werr
			}
			continue
		}

		res, err := session.SubmitBets(bets)
		if err != nil {
			if !IsValidation(err) {
				return Resolution{}, err
			}
			if werr := io.WriteString(fmt.Sprintf("Invalid bet: %v\n", err)); werr != nil {
				return Resolution{}, werr
			}
			continue
		}
		return res, nil
	}
}
