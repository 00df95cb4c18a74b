package question

import "fmt"

// AnswerKey identifies one of the four fixed answer slots.
type AnswerKey string

const (
	KeyA AnswerKey = "A"
	KeyB AnswerKey = "B"
	KeyC AnswerKey = "C"
	KeyD AnswerKey = "D"
)

// Keys lists the answer slots in presentation order.
var Keys = []AnswerKey{KeyA, KeyB, KeyC, KeyD}

// ParseKey validates a raw answer key from client input.
func ParseKey(raw string) (AnswerKey, error) {
	k := AnswerKey(raw)
	switch k {
	case KeyA, KeyB, KeyC, KeyD:
		return k, nil
	}
	return "", fmt.Errorf("unknown answer key %q", raw)
}

// Question is an immutable four-choice quiz item with exactly one correct key.
type Question struct {
	Category    string                `yaml:"category" json:"category"`
	Prompt      string                `yaml:"prompt" json:"prompt"`
	Answers     map[AnswerKey]string  `yaml:"answers" json:"answers"`
	Correct     AnswerKey             `yaml:"correct" json:"-"`
	Explanation string                `yaml:"explanation,omitempty" json:"-"`
}

// Validate checks the structural invariants: all four answer slots are
// present and the correct key references one of them.
func (q Question) Validate() error {
	if q.Prompt == "" {
		return fmt.Errorf("question has empty prompt")
	}
	for _, k := range Keys {
		if _, ok := q.Answers[k]; !ok {
			return fmt.Errorf("question %q: missing answer %s", q.Prompt, k)
		}
	}
	if len(q.Answers) != len(Keys) {
		return fmt.Errorf("question %q: expected exactly %d answers, got %d", q.Prompt, len(Keys), len(q.Answers))
	}
	if _, err := ParseKey(string(q.Correct)); err != nil {
		return fmt.Errorf("question %q: invalid correct key: %w", q.Prompt, err)
	}
	return nil
}

// CorrectLabel returns the label of the correct answer.
func (q Question) CorrectLabel() string {
	return q.Answers[q.Correct]
}
