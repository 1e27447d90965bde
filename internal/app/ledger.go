package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/Mayhomes/quiz/internal/domain"
)

// Ledger holds the answers keyed by stringified question index. Every
// mutation persists the full ledger immediately, last-write-wins per index.
type Ledger struct {
	store Store
	key   string

	mu      sync.Mutex
	answers domain.AnswerLedger
}

func NewLedger(store Store, key string) *Ledger {
	return &Ledger{store: store, key: key, answers: make(domain.AnswerLedger)}
}

// Load restores persisted answers. A missing or unparsable record is not an
// error: the ledger simply starts empty.
func (l *Ledger) Load(ctx context.Context) {
	raw, err := l.store.Get(ctx, l.key)
	if err != nil {
		return
	}
	var answers domain.AnswerLedger
	if json.Unmarshal(raw, &answers) != nil || answers == nil {
		return
	}
	l.mu.Lock()
	l.answers = answers
	l.mu.Unlock()
}

// SetAnswer records an answer value for a question index and persists the
// whole ledger.
func (l *Ledger) SetAnswer(ctx context.Context, index int, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.answers[strconv.Itoa(index)] = value
	raw, err := json.Marshal(l.answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	if err := l.store.Set(ctx, l.key, raw); err != nil {
		return fmt.Errorf("persist answers: %w", err)
	}
	return nil
}

// All returns a copy of the current answer mapping.
func (l *Ledger) All() domain.AnswerLedger {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(domain.AnswerLedger, len(l.answers))
	for k, v := range l.answers {
		out[k] = v
	}
	return out
}

// Reset drops all answers without persisting; callers clear the store record
// separately as part of the retake group purge.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.answers = make(domain.AnswerLedger)
	l.mu.Unlock()
}

// Statistics summarizes answer progress. An answer counts as answered iff
// its value is non-empty. answered + unanswered == total always holds.
func Statistics(set domain.QuestionSet, answers domain.AnswerLedger) domain.AnswerStats {
	total := len(set)
	answered := 0
	for _, v := range answers {
		if v != "" {
			answered++
		}
	}
	if answered > total {
		answered = total
	}
	return domain.AnswerStats{
		Total:      total,
		Answered:   answered,
		Unanswered: total - answered,
		Percentage: formatPercent(answered, total),
	}
}
