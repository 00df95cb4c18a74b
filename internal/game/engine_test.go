package game

import (
	"io"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmercadier/moneydrop/internal/question"
)

// scriptIO feeds a fixed sequence of input lines and records all output.
type scriptIO struct {
	lines []string
	out   strings.Builder
}

func (s *scriptIO) WriteString(str string) error {
	s.out.WriteString(str)
	return nil
}

func (s *scriptIO) ReadLine(prompt string) (string, error) {
	s.out.WriteString(prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func testBank(correct ...question.AnswerKey) []question.Question {
	qs := make([]question.Question, len(correct))
	for i, c := range correct {
		qs[i] = testQuestion(c)
	}
	return qs
}

func TestEngineDrawClampsAndCopies(t *testing.T) {
	engine := NewEngine(testBank(question.KeyA, question.KeyB, question.KeyC), clockwork.NewFakeClock())

	assert.Equal(t, 3, engine.BankSize())
	assert.Len(t, engine.Draw(2), 2)
	assert.Len(t, engine.Draw(10), 3)
	assert.Len(t, engine.Draw(0), 3)

	drawn := engine.Draw(3)
	drawn[0].Prompt = "mutated"
	for _, q := range engine.Draw(3) {
		assert.NotEqual(t, "mutated", q.Prompt, "draws must not share backing arrays with the bank")
	}
}

func TestEngineRunGameCompletes(t *testing.T) {
	engine := NewEngine(testBank(question.KeyA, question.KeyB), clockwork.NewFakeClock())
	cfg := DefaultConfig()
	cfg.QuestionCount = 2

	// Betting nothing keeps the full balance on every question.
	script := &scriptIO{lines: []string{"A=0 B=0 C=0 D=0", "A=0"}}
	result, err := engine.RunGame("carol", script, cfg)
	require.NoError(t, err)

	assert.Equal(t, "carol", result.PlayerName)
	assert.Equal(t, cfg.StartingChips, result.FinalChips)
	assert.Equal(t, 0, result.CorrectAnswers)
	assert.Equal(t, 2, result.QuestionsPlayed)

	transcript := script.out.String()
	assert.Contains(t, transcript, "=== Money Drop ===")
	assert.Contains(t, transcript, "Question 1/2")
	assert.Contains(t, transcript, "Game over - carol")
}

func TestEngineRunGameRepromptsOnInvalidInput(t *testing.T) {
	engine := NewEngine(testBank(question.KeyA), clockwork.NewFakeClock())
	cfg := DefaultConfig()
	cfg.QuestionCount = 1

	script := &scriptIO{lines: []string{"not a bet", "A=999999", "A=0"}}
	result, err := engine.RunGame("dave", script, cfg)
	require.NoError(t, err)

	transcript := script.out.String()
	assert.Contains(t, transcript, "Invalid input:")
	assert.Contains(t, transcript, "Invalid bet:")
	assert.Equal(t, cfg.StartingChips, result.FinalChips)
}

func TestEngineRunGameAbortsOnDisconnect(t *testing.T) {
	engine := NewEngine(testBank(question.KeyA, question.KeyB), clockwork.NewFakeClock())
	cfg := DefaultConfig()
	cfg.QuestionCount = 2

	script := &scriptIO{lines: []string{"A=100"}}
	result, err := engine.RunGame("erin", script, cfg)
	assert.Error(t, err)
	assert.Equal(t, 2, result.QuestionsPlayed)
}
