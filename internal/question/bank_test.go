package question

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	for _, raw := range []string{"A", "B", "C", "D"} {
		k, err := ParseKey(raw)
		require.NoError(t, err)
		assert.Equal(t, AnswerKey(raw), k)
	}
	for _, raw := range []string{"", "a", "E", "AB"} {
		_, err := ParseKey(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestQuestionValidate(t *testing.T) {
	valid := Question{
		Prompt: "Which ocean is the largest?",
		Answers: map[AnswerKey]string{
			KeyA: "Atlantic", KeyB: "Pacific", KeyC: "Indian", KeyD: "Arctic",
		},
		Correct: KeyB,
	}
	require.NoError(t, valid.Validate())
	assert.Equal(t, "Pacific", valid.CorrectLabel())

	missing := valid
	missing.Answers = map[AnswerKey]string{KeyA: "Atlantic", KeyB: "Pacific"}
	assert.Error(t, missing.Validate())

	badKey := valid
	badKey.Correct = "X"
	assert.Error(t, badKey.Validate())

	empty := valid
	empty.Prompt = ""
	assert.Error(t, empty.Validate())
}

func TestDefaultBankIsValid(t *testing.T) {
	bank := DefaultBank()
	require.NotEmpty(t, bank)
	for _, q := range bank {
		assert.NoError(t, q.Validate())
	}
}

func TestLoadBankFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	content := []byte(`questions:
  - category: Science
    prompt: "What gas do plants absorb?"
    answers:
      A: "Oxygen"
      B: "Carbon dioxide"
      C: "Nitrogen"
      D: "Helium"
    correct: B
    explanation: "Photosynthesis consumes CO2."
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	bank, err := LoadBank(path)
	require.NoError(t, err)
	require.Len(t, bank, 1)
	assert.Equal(t, "Science", bank[0].Category)
	assert.Equal(t, KeyB, bank[0].Correct)
	assert.Equal(t, "Photosynthesis consumes CO2.", bank[0].Explanation)
}

func TestLoadBankRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")

	require.NoError(t, os.WriteFile(path, []byte("questions: []"), 0o644))
	_, err := LoadBank(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`questions:
  - prompt: "Broken"
    answers:
      A: "only one"
    correct: A
`), 0o644))
	_, err = LoadBank(path)
	assert.Error(t, err)

	_, err = LoadBank(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
