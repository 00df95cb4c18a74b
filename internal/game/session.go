package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lmercadier/moneydrop/internal/question"
)

// Config groups the gameplay settings shared by all modes.
type Config struct {
	StartingChips   int
	QuestionCount   int
	AllowUnbetChips bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		StartingChips:   1000,
		QuestionCount:   7,
		AllowUnbetChips: true,
	}
}

// Result is the terminal snapshot of a single-player game.
type Result struct {
	PlayerName      string   `json:"player_name"`
	FinalChips      int      `json:"final_chips"`
	CorrectAnswers  int      `json:"correct_answers"`
	QuestionsPlayed int      `json:"questions_played"`
	Eliminated      bool     `json:"eliminated"`
	Details         []string `json:"details"`
}

// SessionState is a read-only projection for transports. The active
// question never carries its correct key.
type SessionState struct {
	PlayerName    string        `json:"player_name"`
	Chips         int           `json:"chips"`
	QuestionIndex int           `json:"question_index"`
	QuestionTotal int           `json:"question_total"`
	Finished      bool          `json:"finished"`
	Eliminated    bool          `json:"eliminated"`
	Question      *QuestionView `json:"question,omitempty"`
}

// QuestionView is a question stripped of its correct key and explanation.
type QuestionView struct {
	Category string                        `json:"category"`
	Prompt   string                        `json:"prompt"`
	Answers  map[question.AnswerKey]string `json:"answers"`
}

// NewQuestionView projects a question for clients.
func NewQuestionView(q question.Question) *QuestionView {
	answers := make(map[question.AnswerKey]string, len(q.Answers))
	for k, v := range q.Answers {
		answers[k] = v
	}
	return &QuestionView{Category: q.Category, Prompt: q.Prompt, Answers: answers}
}

// Session is a single-player game advancing turn by turn through a question
// list fixed at creation. All mutation is serialized on the session's own
// mutex so concurrent transport workers cannot double-resolve a turn.
type Session struct {
	mu    sync.Mutex
	clock clockwork.Clock
	cfg   Config

	playerName     string
	chips          int
	correctAnswers int

	questions  []question.Question
	index      int
	eliminated bool
	finished   bool
	details    []string

	lastActivity time.Time
}

// NewSession builds a session over an already drawn question list. The list
// is owned by the session and must not be mutated by the caller.
func NewSession(playerName string, qs []question.Question, cfg Config, clock clockwork.Clock) *Session {
	return &Session{
		clock:        clock,
		cfg:          cfg,
		playerName:   playerName,
		chips:        cfg.StartingChips,
		questions:    qs,
		lastActivity: clock.Now(),
	}
}

// PlayerName returns the session owner's display name.
func (s *Session) PlayerName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerName
}

// Chips returns the current balance.
func (s *Session) Chips() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chips
}

// LastActivity reports when the session was last touched.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// CurrentQuestion returns the active question, or false once the session is
// finished, eliminated or exhausted.
func (s *Session) CurrentQuestion() (question.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Session) currentLocked() (question.Question, bool) {
	if s.finished || s.eliminated || s.index >= len(s.questions) {
		return question.Question{}, false
	}
	return s.questions[s.index], true
}

// SubmitBets resolves the current turn with the given bet map and advances
// the session. Missing keys are treated as zero. Validation failures leave
// the session untouched.
func (s *Session) SubmitBets(bets BetMap) (Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = s.clock.Now()

	if s.finished || s.eliminated {
		return Resolution{}, ErrGameOver
	}
	q, ok := s.currentLocked()
	if !ok {
		s.finished = true
		return Resolution{}, ErrNoQuestion
	}

	res, err := Resolve(s.chips, q, bets, !s.cfg.AllowUnbetChips)
	if err != nil {
		return Resolution{}, err
	}

	s.chips = res.Kept
	if res.AnsweredCorrectly() {
		s.correctAnswers++
	}
	s.details = append(s.details, fmt.Sprintf(
		"Q%d: correct=%s bet=%d kept=%d lost=%d",
		s.index+1, res.Correct, res.BetTotal, res.Kept, res.Lost,
	))

	s.index++
	if s.chips <= 0 {
		s.eliminated = true
	}
	if s.index >= len(s.questions) {
		s.finished = true
	}
	return res, nil
}

// Result snapshots the final balance, correct-answer count and audit trail.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	details := make([]string, len(s.details))
	copy(details, s.details)
	return Result{
		PlayerName:      s.playerName,
		FinalChips:      s.chips,
		CorrectAnswers:  s.correctAnswers,
		QuestionsPlayed: len(s.questions),
		Eliminated:      s.eliminated,
		Details:         details,
	}
}

// State projects the session for transports.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = s.clock.Now()

	state := SessionState{
		PlayerName:    s.playerName,
		Chips:         s.chips,
		QuestionIndex: s.index,
		QuestionTotal: len(s.questions),
		Finished:      s.finished,
		Eliminated:    s.eliminated,
	}
	if q, ok := s.currentLocked(); ok {
		state.Question = NewQuestionView(q)
	}
	return state
}

// Terminal reports whether the session reached a terminal state.
func (s *Session) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished || s.eliminated
}
