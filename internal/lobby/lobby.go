// Package lobby implements the polling-based synchronous mode: a fixed
// cohort answers the same question and the round resolves once everyone has
// submitted or the per-question time limit elapses.
package lobby

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lmercadier/moneydrop/internal/game"
	"github.com/lmercadier/moneydrop/internal/question"
)

// Precondition errors for lobby operations.
var (
	ErrLobbyFull  = errors.New("lobby full")
	ErrNotStarted = errors.New("game not started")
	ErrWaiting    = errors.New("waiting for more players")
	ErrNotMember  = errors.New("player not in lobby")
)

// Player is a lobby participant. Balances live here for the lobby's
// lifetime; the joining session only seeds the name and starting chips.
type Player struct {
	SessionID      string `json:"session_id"`
	Name           string `json:"name"`
	Chips          int    `json:"chips"`
	CorrectAnswers int    `json:"correct_answers"`
}

// View is the read-only projection returned to polling clients. The active
// question never exposes its correct key.
type View struct {
	LobbyID       string                     `json:"lobby_id"`
	Started       bool                       `json:"started"`
	Players       []Player                   `json:"players"`
	QuestionIndex int                        `json:"question_index"`
	QuestionTotal int                        `json:"question_total"`
	Question      *game.QuestionView         `json:"question,omitempty"`
	TimeRemaining int                        `json:"time_remaining"`
	YouSubmitted  bool                       `json:"you_submitted"`
	LastResults   map[string]game.Resolution `json:"last_results"`
	Finished      bool                       `json:"finished"`
}

// Lobby advances a fixed-size cohort through a shared question list in
// lockstep. One mutex serializes join, submit, the timeout path and view
// reads, so a submission racing the timeout can never resolve a round twice.
type Lobby struct {
	mu    sync.Mutex
	clock clockwork.Clock

	id        string
	cfg       game.Config
	size      int
	timeLimit time.Duration

	players   []*Player
	creator   string
	questions []question.Question

	index         int
	started       bool
	submissions   map[string]game.BetMap
	lastResults   map[string]game.Resolution
	questionStart time.Time
	lastActivity  time.Time
}

// New creates a lobby owned by the creator, with a question list drawn once
// for the whole cohort.
func New(id string, qs []question.Question, cfg game.Config, size int, creator Player, timeLimit time.Duration, clock clockwork.Clock) *Lobby {
	return &Lobby{
		clock:        clock,
		id:           id,
		cfg:          cfg,
		size:         size,
		timeLimit:    timeLimit,
		players:      []*Player{&creator},
		creator:      creator.SessionID,
		questions:    qs,
		submissions:  make(map[string]game.BetMap),
		lastResults:  make(map[string]game.Resolution),
		lastActivity: clock.Now(),
	}
}

// ID returns the lobby identifier.
func (l *Lobby) ID() string { return l.id }

// LastActivity reports when the lobby was last touched.
func (l *Lobby) LastActivity() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastActivity
}

// Join adds a player. Joining twice with the same session id is a no-op; a
// new player beyond the target size is rejected.
func (l *Lobby) Join(p Player) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = l.clock.Now()

	for _, existing := range l.players {
		if existing.SessionID == p.SessionID {
			return nil
		}
	}
	if len(l.players) >= l.size {
		return ErrLobbyFull
	}
	l.players = append(l.players, &p)
	return nil
}

// Start begins the first round. It requires exactly the target player count
// and is idempotent once started.
func (l *Lobby) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = l.clock.Now()

	if l.started {
		return nil
	}
	if len(l.players) != l.size {
		return ErrWaiting
	}
	l.started = true
	l.index = 0
	l.submissions = make(map[string]game.BetMap)
	l.lastResults = make(map[string]game.Resolution)
	l.questionStart = l.clock.Now()
	return nil
}

// Submit stores (or overwrites) a player's bet for the current round, after
// validating it against that player's own balance. If this was the last
// missing submission, or the round already timed out, the round resolves
// before Submit returns; the boolean reports whether that happened.
func (l *Lobby) Submit(sessionID string, bets game.BetMap) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = l.clock.Now()

	if !l.started {
		return false, ErrNotStarted
	}
	q, ok := l.currentLocked()
	if !ok {
		return false, game.ErrNoQuestion
	}

	player := l.playerLocked(sessionID)
	if player == nil {
		return false, ErrNotMember
	}
	// Dry-run through the resolver so stored submissions are always valid
	// for the balance they will be applied to.
	if _, err := game.Resolve(player.Chips, q, bets, !l.cfg.AllowUnbetChips); err != nil {
		return false, err
	}

	l.submissions[sessionID] = bets.Normalized()
	if l.shouldResolveLocked() {
		l.resolveRoundLocked()
		return true, nil
	}
	return false, nil
}

// PlayerView projects the lobby for one polling client. If the poll notices
// the round has timed out it resolves the round first, so an absent cohort
// member cannot stall the game between submissions.
func (l *Lobby) PlayerView(sessionID string) View {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastActivity = l.clock.Now()

	if l.started && l.shouldResolveLocked() {
		l.resolveRoundLocked()
	}

	players := make([]Player, len(l.players))
	for i, p := range l.players {
		players[i] = *p
	}

	results := make(map[string]game.Resolution, len(l.lastResults))
	for id, r := range l.lastResults {
		results[id] = r
	}

	view := View{
		LobbyID:       l.id,
		Started:       l.started,
		Players:       players,
		QuestionIndex: l.index,
		QuestionTotal: len(l.questions),
		TimeRemaining: l.remainingLocked(),
		YouSubmitted:  false,
		LastResults:   results,
		Finished:      l.index >= len(l.questions),
	}
	if _, ok := l.submissions[sessionID]; ok {
		view.YouSubmitted = true
	}
	if q, ok := l.currentLocked(); ok {
		view.Question = game.NewQuestionView(q)
	}
	return view
}

// Finished reports whether every question has been resolved.
func (l *Lobby) Finished() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index >= len(l.questions)
}

func (l *Lobby) currentLocked() (question.Question, bool) {
	if !l.started || l.index >= len(l.questions) {
		return question.Question{}, false
	}
	return l.questions[l.index], true
}

func (l *Lobby) playerLocked(sessionID string) *Player {
	for _, p := range l.players {
		if p.SessionID == sessionID {
			return p
		}
	}
	return nil
}

func (l *Lobby) remainingLocked() int {
	if !l.started || l.index >= len(l.questions) {
		return 0
	}
	remaining := l.timeLimit - l.clock.Since(l.questionStart)
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}

func (l *Lobby) shouldResolveLocked() bool {
	if _, ok := l.currentLocked(); !ok {
		return false
	}
	if len(l.submissions) >= len(l.players) {
		return true
	}
	return l.clock.Since(l.questionStart) >= l.timeLimit
}

// resolveRoundLocked settles the current question for every player, present
// or absent. Absent players are resolved with a zero bet on every key, which
// keeps their whole balance as unbet chips. Runs exactly once per round: the
// index advance and submission reset make a second trigger a fresh round.
func (l *Lobby) resolveRoundLocked() {
	q, ok := l.currentLocked()
	if !ok {
		return
	}

	for _, p := range l.players {
		bets, submitted := l.submissions[p.SessionID]
		if !submitted {
			bets = game.ZeroBets()
		}
		res, err := game.Resolve(p.Chips, q, bets, false)
		if err != nil {
			// Submissions were validated on entry; a failure here means the
			// balance changed out from under us, treat as absent.
			res, _ = game.Resolve(p.Chips, q, game.ZeroBets(), false)
		}

		p.Chips = res.Kept
		if res.AnsweredCorrectly() {
			p.CorrectAnswers++
		}
		l.lastResults[p.SessionID] = res
	}

	l.index++
	l.submissions = make(map[string]game.BetMap)
	l.questionStart = l.clock.Now()
}
