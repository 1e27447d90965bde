package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/Mayhomes/quiz/internal/domain"
)

// Provisioner selects and persists the working question set for a session.
// Provision is idempotent across reloads: once a valid set is persisted it
// is returned unchanged until the session is cleared.
type Provisioner struct {
	store Store
	bank  BankLoader
	count int
	key   string
	rnd   *rand.Rand
}

func NewProvisioner(store Store, bank BankLoader, count int, key string) *Provisioner {
	return NewProvisionerWithRand(store, bank, count, key, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewProvisionerWithRand allows deterministic shuffles in tests.
func NewProvisionerWithRand(store Store, bank BankLoader, count int, key string, rnd *rand.Rand) *Provisioner {
	return &Provisioner{store: store, bank: bank, count: count, key: key, rnd: rnd}
}

// Provision returns the persisted question set if one exists and is validly
// shaped, otherwise draws a fresh random subset from the bank, shuffles each
// question's options, and persists the result before returning it. A
// malformed persisted set is treated as absent and regenerated.
func (p *Provisioner) Provision(ctx context.Context) (domain.QuestionSet, error) {
	if raw, err := p.store.Get(ctx, p.key); err == nil {
		var set domain.QuestionSet
		if json.Unmarshal(raw, &set) == nil && len(set) == p.count {
			return set, nil
		}
	}

	bank, err := p.bank.LoadBank(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBankUnavailable, err)
	}
	if len(bank) < p.count {
		return nil, fmt.Errorf("%w: need %d, have %d", domain.ErrBankTooSmall, p.count, len(bank))
	}

	shuffled := p.shuffleQuestions(bank)
	set := domain.QuestionSet(shuffled[:p.count])
	for i := range set {
		// Options are shuffled independently per question; correctness
		// stays keyed on the literal option text, never its position.
		set[i].Options = p.shuffleOptions(set[i].Options)
	}

	raw, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("marshal question set: %w", err)
	}
	if err := p.store.Set(ctx, p.key, raw); err != nil {
		return nil, fmt.Errorf("persist question set: %w", err)
	}
	return set, nil
}

// shuffleQuestions is a Fisher-Yates permutation over a copy of the bank.
func (p *Provisioner) shuffleQuestions(src []domain.Question) []domain.Question {
	out := make([]domain.Question, len(src))
	copy(out, src)
	for i := len(out) - 1; i > 0; i-- {
		j := p.rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (p *Provisioner) shuffleOptions(src []string) []string {
	if len(src) == 0 {
		return src
	}
	out := make([]string, len(src))
	copy(out, src)
	for i := len(out) - 1; i > 0; i-- {
		j := p.rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
