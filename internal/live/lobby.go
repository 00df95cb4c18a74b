// Package live implements the host-driven real-time mode: a phase state
// machine (waiting, question, paused, results, finished) with a ticking
// countdown, host commands and single-choice answers worth one point.
package live

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lmercadier/moneydrop/internal/game"
	"github.com/lmercadier/moneydrop/internal/question"
)

// Phase is the lobby's current stage.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseQuestion Phase = "question"
	PhasePaused   Phase = "paused"
	PhaseResults  Phase = "results"
	PhaseFinished Phase = "finished"
)

// Precondition errors for live lobby operations.
var (
	ErrLobbyFull    = errors.New("lobby full")
	ErrNotHost      = errors.New("host privileges required")
	ErrNotAnswering = errors.New("answers are not being accepted")
	ErrNotMember    = errors.New("player not in lobby")
)

// PlayerState is a participant's live view: current choice, correctness of
// the last validated round and running score.
type PlayerState struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Score   int                 `json:"score"`
	Choice  *question.AnswerKey `json:"choice,omitempty"`
	Correct *bool               `json:"is_correct,omitempty"`
}

// Snapshot is a point-in-time projection of the lobby. The correct key and
// per-player correctness appear only during the results phase.
type Snapshot struct {
	LobbyID       string              `json:"lobby_id"`
	Phase         Phase               `json:"phase"`
	TimeRemaining int                 `json:"time_remaining"`
	QuestionIndex int                 `json:"question_index"`
	QuestionTotal int                 `json:"question_total"`
	Question      *game.QuestionView  `json:"question,omitempty"`
	Players       []PlayerState       `json:"players"`
	Correct       *question.AnswerKey `json:"correct,omitempty"`
	Explanation   string              `json:"explanation,omitempty"`
}

// Lobby is the phase-driven real-time state machine. Every mutation,
// including the ticker's force-validation, runs under the lobby's own mutex;
// illegal host commands are idempotent no-ops so duplicate commands and
// network retries cannot corrupt a round.
type Lobby struct {
	mu    sync.Mutex
	clock clockwork.Clock

	id         string
	hostID     string
	maxPlayers int
	timeLimit  time.Duration

	questions []question.Question
	draw      func(n int) []question.Question
	drawCount int

	phase   Phase
	index   int
	players map[string]*PlayerState
	order   []string

	questionStart   time.Time
	pausedRemaining time.Duration
	lastActivity    time.Time
}

// New creates a lobby in the waiting phase. The question list stays empty
// until the host starts the game; draw supplies a fresh shuffled list then.
func New(id, hostID string, maxPlayers, questionCount int, timeLimit time.Duration, draw func(n int) []question.Question, clock clockwork.Clock) *Lobby {
	return &Lobby{
		clock:        clock,
		id:           id,
		hostID:       hostID,
		maxPlayers:   maxPlayers,
		timeLimit:    timeLimit,
		draw:         draw,
		drawCount:    questionCount,
		phase:        PhaseWaiting,
		players:      make(map[string]*PlayerState),
		lastActivity: clock.Now(),
	}
}

// ID returns the lobby identifier.
func (l *Lobby) ID() string { return l.id }

// HostID returns the privileged participant's identifier.
func (l *Lobby) HostID() string { return l.hostID }

// LastActivity reports when the lobby was last touched.
func (l *Lobby) LastActivity() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastActivity
}

// AddPlayer registers a participant. Re-joining with a known id only
// refreshes the display name, so reconnects keep score.
func (l *Lobby) AddPlayer(id, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = l.clock.Now()

	if existing, ok := l.players[id]; ok {
		if name != "" {
			existing.Name = name
		}
		return nil
	}
	if len(l.players) >= l.maxPlayers {
		return ErrLobbyFull
	}
	l.players[id] = &PlayerState{ID: id, Name: name}
	l.order = append(l.order, id)
	return nil
}

// requireHost guards host commands.
func (l *Lobby) requireHost(actorID string) error {
	if actorID != l.hostID {
		return ErrNotHost
	}
	return nil
}

// StartGame draws the question list. It is only effective from the waiting
// phase with no questions set: repeating it mid-game never resets scores.
func (l *Lobby) StartGame(actorID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = l.clock.Now()

	if err := l.requireHost(actorID); err != nil {
		return err
	}
	if l.phase != PhaseWaiting || len(l.questions) > 0 {
		return nil
	}
	l.questions = l.draw(l.drawCount)
	l.index = 0
	return nil
}

// LaunchQuestion opens the countdown for the current question. A no-op
// outside the waiting phase or before StartGame; moves straight to finished
// when no questions remain.
func (l *Lobby) LaunchQuestion(actorID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = l.clock.Now()

	if err := l.requireHost(actorID); err != nil {
		return err
	}
	if l.phase != PhaseWaiting || len(l.questions) == 0 {
		return nil
	}
	if l.index >= len(l.questions) {
		l.phase = PhaseFinished
		return nil
	}
	for _, p := range l.players {
		p.Choice = nil
		p.Correct = nil
	}
	l.phase = PhaseQuestion
	l.questionStart = l.clock.Now()
	return nil
}

// Pause freezes the countdown, capturing the remaining time at the pause
// instant. Player answers are retained.
func (l *Lobby) Pause(actorID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = l.clock.Now()

	if err := l.requireHost(actorID); err != nil {
		return err
	}
	if l.phase != PhaseQuestion {
		return nil
	}
	remaining := l.timeLimit - l.clock.Since(l.questionStart)
	if remaining < 0 {
		remaining = 0
	}
	l.pausedRemaining = remaining
	l.phase = PhasePaused
	return nil
}

// Resume restarts the countdown with exactly the remaining time captured at
// pause, regardless of wall-clock time spent paused.
func (l *Lobby) Resume(actorID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = l.clock.Now()

	if err := l.requireHost(actorID); err != nil {
		return err
	}
	if l.phase != PhasePaused {
		return nil
	}
	l.questionStart = l.clock.Now().Add(l.pausedRemaining - l.timeLimit)
	l.phase = PhaseQuestion
	return nil
}

// Answer records a player's single choice for the active question. The
// choice may be overwritten until the phase changes.
func (l *Lobby) Answer(playerID string, choice question.AnswerKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = l.clock.Now()

	if l.phase != PhaseQuestion {
		return ErrNotAnswering
	}
	p, ok := l.players[playerID]
	if !ok {
		return ErrNotMember
	}
	if _, err := question.ParseKey(string(choice)); err != nil {
		return err
	}
	c := choice
	p.Choice = &c
	return nil
}

// Validate settles the round: each exactly-matching choice scores one
// point. Callable by the host from the question or paused phase.
func (l *Lobby) Validate(actorID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = l.clock.Now()

	if err := l.requireHost(actorID); err != nil {
		return err
	}
	if l.phase != PhaseQuestion && l.phase != PhasePaused {
		return nil
	}
	l.validateLocked()
	return nil
}

// TickExpired force-validates the round when the countdown ran out. It is
// the ticker's entry point and tolerates the lobby having changed phase
// since the ticker's scan. Returns true when the round was settled.
func (l *Lobby) TickExpired() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase != PhaseQuestion {
		return false
	}
	if l.clock.Since(l.questionStart) < l.timeLimit {
		return false
	}
	l.validateLocked()
	return true
}

func (l *Lobby) validateLocked() {
	if l.index >= len(l.questions) {
		l.phase = PhaseFinished
		return
	}
	q := l.questions[l.index]
	for _, p := range l.players {
		correct := p.Choice != nil && *p.Choice == q.Correct
		c := correct
		p.Correct = &c
		if correct {
			p.Score++
		}
	}
	l.phase = PhaseResults
}

// NextQuestion clears round state and advances, moving to waiting or, when
// the list is exhausted, to finished.
func (l *Lobby) NextQuestion(actorID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = l.clock.Now()

	if err := l.requireHost(actorID); err != nil {
		return err
	}
	if l.phase != PhaseResults {
		return nil
	}
	for _, p := range l.players {
		p.Choice = nil
		p.Correct = nil
	}
	l.index++
	if l.index >= len(l.questions) {
		l.phase = PhaseFinished
	} else {
		l.phase = PhaseWaiting
	}
	return nil
}

// Remaining returns the countdown value in whole seconds, floored at zero.
func (l *Lobby) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remainingLocked()
}

func (l *Lobby) remainingLocked() int {
	switch l.phase {
	case PhaseQuestion:
		remaining := l.timeLimit - l.clock.Since(l.questionStart)
		if remaining < 0 {
			remaining = 0
		}
		return int(remaining / time.Second)
	case PhasePaused:
		return int(l.pausedRemaining / time.Second)
	default:
		return 0
	}
}

// Snapshot projects the lobby for broadcast. Answers are only shown while a
// round is active or being reviewed; the correct key and per-player
// correctness appear only during results.
func (l *Lobby) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := Snapshot{
		LobbyID:       l.id,
		Phase:         l.phase,
		TimeRemaining: l.remainingLocked(),
		QuestionIndex: l.index,
		QuestionTotal: len(l.questions),
		Players:       make([]PlayerState, 0, len(l.order)),
	}

	active := l.phase == PhaseQuestion || l.phase == PhasePaused || l.phase == PhaseResults
	if active && l.index < len(l.questions) {
		q := l.questions[l.index]
		snap.Question = game.NewQuestionView(q)
		if l.phase == PhaseResults {
			correct := q.Correct
			snap.Correct = &correct
			snap.Explanation = q.Explanation
		}
	}

	for _, id := range l.order {
		p := l.players[id]
		state := PlayerState{ID: p.ID, Name: p.Name, Score: p.Score}
		if p.Choice != nil {
			c := *p.Choice
			state.Choice = &c
		}
		if l.phase == PhaseResults && p.Correct != nil {
			c := *p.Correct
			state.Correct = &c
		}
		snap.Players = append(snap.Players, state)
	}
	return snap
}

// Phase returns the current phase.
func (l *Lobby) CurrentPhase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}
