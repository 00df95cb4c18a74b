package lobby

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmercadier/moneydrop/internal/game"
	"github.com/lmercadier/moneydrop/internal/question"
)

func testQuestion(correct question.AnswerKey) question.Question {
	return question.Question{
		Category: "General",
		Prompt:   "What is the chemical symbol for gold?",
		Answers: map[question.AnswerKey]string{
			question.KeyA: "Au",
			question.KeyB: "Ag",
			question.KeyC: "Go",
			question.KeyD: "Gd",
		},
		Correct: correct,
	}
}

func testLobby(t *testing.T, size int, correct ...question.AnswerKey) (*Lobby, *clockwork.FakeClock) {
	t.Helper()
	qs := make([]question.Question, len(correct))
	for i, c := range correct {
		qs[i] = testQuestion(c)
	}
	clock := clockwork.NewFakeClock()
	creator := Player{SessionID: "s1", Name: "alice", Chips: 1000}
	return New("lobby-1", qs, game.DefaultConfig(), size, creator, 30*time.Second, clock), clock
}

func TestLobbyJoinIdempotentAndFull(t *testing.T) {
	l, _ := testLobby(t, 2, question.KeyA)

	require.NoError(t, l.Join(Player{SessionID: "s1", Name: "alice", Chips: 1000}))
	require.NoError(t, l.Join(Player{SessionID: "s2", Name: "bob", Chips: 800}))
	assert.ErrorIs(t, l.Join(Player{SessionID: "s3", Name: "carol", Chips: 500}), ErrLobbyFull)

	// Re-joining a full lobby with a known session stays a no-op.
	assert.NoError(t, l.Join(Player{SessionID: "s2", Name: "bob", Chips: 800}))
}

func TestLobbyStartRequiresExactSize(t *testing.T) {
	l, _ := testLobby(t, 2, question.KeyA)

	assert.ErrorIs(t, l.Start(), ErrWaiting)
	require.NoError(t, l.Join(Player{SessionID: "s2", Name: "bob", Chips: 1000}))
	require.NoError(t, l.Start())
	assert.NoError(t, l.Start(), "starting twice is idempotent")
}

func TestLobbySubmitBeforeStart(t *testing.T) {
	l, _ := testLobby(t, 2, question.KeyA)

	_, err := l.Submit("s1", game.BetMap{question.KeyA: 100})
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestLobbyResolvesWhenAllSubmit(t *testing.T) {
	l, _ := testLobby(t, 2, question.KeyA, question.KeyB)
	require.NoError(t, l.Join(Player{SessionID: "s2", Name: "bob", Chips: 1000}))
	require.NoError(t, l.Start())

	resolved, err := l.Submit("s1", game.BetMap{question.KeyA: 400})
	require.NoError(t, err)
	assert.False(t, resolved)

	resolved, err = l.Submit("s2", game.BetMap{question.KeyB: 1000})
	require.NoError(t, err)
	assert.True(t, resolved)

	view := l.PlayerView("s1")
	assert.Equal(t, 1, view.QuestionIndex)
	require.Len(t, view.LastResults, 2)
	assert.Equal(t, 1000, view.LastResults["s1"].Kept) // 400 correct + 600 unbet
	assert.Equal(t, 0, view.LastResults["s2"].Kept)

	for _, p := range view.Players {
		switch p.SessionID {
		case "s1":
			assert.Equal(t, 1000, p.Chips)
			assert.Equal(t, 1, p.CorrectAnswers)
		case "s2":
			assert.Equal(t, 0, p.Chips)
			assert.Equal(t, 0, p.CorrectAnswers)
		}
	}
}

func TestLobbyTimeoutResolvesAbsentWithZeroBets(t *testing.T) {
	l, clock := testLobby(t, 2, question.KeyA, question.KeyB)
	require.NoError(t, l.Join(Player{SessionID: "s2", Name: "bob", Chips: 1000}))
	require.NoError(t, l.Start())

	_, err := l.Submit("s1", game.BetMap{question.KeyA: 1000})
	require.NoError(t, err)

	clock.Advance(31 * time.Second)

	// The next poll notices the expiry and settles the round.
	view := l.PlayerView("s2")
	assert.Equal(t, 1, view.QuestionIndex)

	res, ok := view.LastResults["s2"]
	require.True(t, ok)
	assert.Equal(t, 1000, res.Kept, "absent players keep their whole balance as unbet chips")
	assert.Equal(t, 0, res.BetTotal)
	assert.False(t, res.AnsweredCorrectly())
}

func TestLobbySubmitValidatesAgainstOwnBalance(t *testing.T) {
	l, _ := testLobby(t, 2, question.KeyA)
	require.NoError(t, l.Join(Player{SessionID: "s2", Name: "bob", Chips: 200}))
	require.NoError(t, l.Start())

	_, err := l.Submit("s2", game.BetMap{question.KeyA: 500})
	assert.ErrorIs(t, err, game.ErrBetOverBudget)

	_, err = l.Submit("ghost", game.BetMap{question.KeyA: 1})
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestLobbySubmitOverwritesBeforeResolution(t *testing.T) {
	l, _ := testLobby(t, 2, question.KeyA)
	require.NoError(t, l.Join(Player{SessionID: "s2", Name: "bob", Chips: 1000}))
	require.NoError(t, l.Start())

	_, err := l.Submit("s1", game.BetMap{question.KeyB: 1000})
	require.NoError(t, err)
	_, err = l.Submit("s1", game.BetMap{question.KeyA: 1000})
	require.NoError(t, err)

	resolved, err := l.Submit("s2", game.BetMap{})
	require.NoError(t, err)
	require.True(t, resolved)

	view := l.PlayerView("s1")
	assert.Equal(t, 1000, view.LastResults["s1"].Kept, "the later submission wins")
}

func TestLobbyFinishes(t *testing.T) {
	l, _ := testLobby(t, 2, question.KeyA)
	require.NoError(t, l.Join(Player{SessionID: "s2", Name: "bob", Chips: 1000}))
	require.NoError(t, l.Start())

	_, err := l.Submit("s1", game.BetMap{})
	require.NoError(t, err)
	resolved, err := l.Submit("s2", game.BetMap{})
	require.NoError(t, err)
	require.True(t, resolved)

	assert.True(t, l.Finished())
	view := l.PlayerView("s1")
	assert.True(t, view.Finished)
	assert.Nil(t, view.Question)
	assert.Equal(t, 0, view.TimeRemaining)
}

func TestLobbyViewHidesCorrectKey(t *testing.T) {
	l, _ := testLobby(t, 2, question.KeyA)
	require.NoError(t, l.Join(Player{SessionID: "s2", Name: "bob", Chips: 1000}))
	require.NoError(t, l.Start())

	view := l.PlayerView("s1")
	require.NotNil(t, view.Question)
	assert.Len(t, view.Question.Answers, 4)
	assert.False(t, view.YouSubmitted)

	_, err := l.Submit("s1", game.BetMap{})
	require.NoError(t, err)
	assert.True(t, l.PlayerView("s1").YouSubmitted)
}
