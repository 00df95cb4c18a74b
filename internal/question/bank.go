package question

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed bank.yaml
var defaultBankYAML []byte

type bankFile struct {
	Questions []Question `yaml:"questions"`
}

// LoadBank reads a question bank from a YAML file. Callers own the returned
// slice; questions themselves are treated as immutable.
func LoadBank(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return parseBank(data)
}

// DefaultBank returns the embedded question bank.
func DefaultBank() []Question {
	bank, err := parseBank(defaultBankYAML)
	if err != nil {
		// The embedded bank is validated by tests; reaching this is a build defect.
		panic(fmt.Sprintf("embedded question bank invalid: %v", err))
	}
	return bank
}

func parseBank(data []byte) ([]Question, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}
	for i, q := range f.Questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
	}
	return f.Questions, nil
}
