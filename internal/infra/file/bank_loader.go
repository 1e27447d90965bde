package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Mayhomes/quiz/internal/domain"
)

// BankLoader reads the question bank from a JSON document with a top-level
// "questions" field.
type BankLoader struct {
	path string
}

func NewBankLoader(path string) *BankLoader {
	return &BankLoader{path: path}
}

func (l *BankLoader) LoadBank(_ context.Context) ([]domain.Question, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read question bank %s: %w", l.path, err)
	}
	var doc struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse question bank %s: %w", l.path, err)
	}
	if len(doc.Questions) == 0 {
		return nil, fmt.Errorf("%w: %s has no questions", domain.ErrBankUnavailable, l.path)
	}
	return doc.Questions, nil
}
