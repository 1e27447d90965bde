package app_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/Mayhomes/quiz/internal/app"
	"github.com/Mayhomes/quiz/internal/domain"
	"github.com/Mayhomes/quiz/internal/infra/memory"
)

func TestProvisionSelectsExactCount(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	prov := app.NewProvisioner(store, memory.NewStaticBankLoader(testBank(50)), 20, "quiz:t:questions")

	set, err := prov.Provision(ctx)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if len(set) != 20 {
		t.Fatalf("expected 20 questions, got %d", len(set))
	}
}

func TestProvisionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	prov := app.NewProvisioner(store, memory.NewStaticBankLoader(testBank(50)), 20, "quiz:t:questions")

	first, err := prov.Provision(ctx)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	second, err := prov.Provision(ctx)
	if err != nil {
		t.Fatalf("provision again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical sets across calls")
	}
}

func TestProvisionShuffleIsPermutation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	bank := testBank(30)
	prov := app.NewProvisioner(store, memory.NewStaticBankLoader(bank), 20, "quiz:t:questions")

	set, err := prov.Provision(ctx)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	bankIDs := make(map[string]bool, len(bank))
	for _, q := range bank {
		bankIDs[q.ID] = true
	}
	seen := make(map[string]bool, len(set))
	for _, q := range set {
		if !bankIDs[q.ID] {
			t.Fatalf("question %s not in bank", q.ID)
		}
		if seen[q.ID] {
			t.Fatalf("question %s selected twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestProvisionKeepsCorrectAnswerInOptions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	bank := testBank(30)
	prov := app.NewProvisioner(store, memory.NewStaticBankLoader(bank), 20, "quiz:t:questions")

	set, err := prov.Provision(ctx)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	original := make(map[string][]string, len(bank))
	for _, q := range bank {
		original[q.ID] = q.Options
	}
	for _, q := range set {
		found := false
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("question %s: correct answer %q missing from options %v", q.ID, q.CorrectAnswer, q.Options)
		}
		// Options stay the same multiset after shuffling.
		got := append([]string(nil), q.Options...)
		want := append([]string(nil), original[q.ID]...)
		sort.Strings(got)
		sort.Strings(want)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("question %s: options changed, got %v want %v", q.ID, got, want)
		}
	}
}

func TestProvisionRegeneratesMalformedSet(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	key := "quiz:t:questions"

	// Wrong shape and wrong length are both treated as absent.
	for _, raw := range []string{`{"not":"an array"}`, `[{"id":"mcq-1"}]`} {
		if err := store.Set(ctx, key, []byte(raw)); err != nil {
			t.Fatalf("seed store: %v", err)
		}
		prov := app.NewProvisioner(store, memory.NewStaticBankLoader(testBank(30)), 20, key)
		set, err := prov.Provision(ctx)
		if err != nil {
			t.Fatalf("provision: %v", err)
		}
		if len(set) != 20 {
			t.Fatalf("expected regenerated set of 20, got %d", len(set))
		}
	}
}

func TestProvisionFailsOnSmallBank(t *testing.T) {
	ctx := context.Background()
	prov := app.NewProvisioner(memory.NewStore(), memory.NewStaticBankLoader(testBank(10)), 20, "quiz:t:questions")

	_, err := prov.Provision(ctx)
	if !errors.Is(err, domain.ErrBankTooSmall) {
		t.Fatalf("expected bank-too-small error, got %v", err)
	}
}

func TestProvisionFailsOnUnreachableBank(t *testing.T) {
	ctx := context.Background()
	prov := app.NewProvisioner(memory.NewStore(), failingLoader{}, 20, "quiz:t:questions")

	_, err := prov.Provision(ctx)
	if !errors.Is(err, domain.ErrBankUnavailable) {
		t.Fatalf("expected bank-unavailable error, got %v", err)
	}
}

type failingLoader struct{}

func (failingLoader) LoadBank(context.Context) ([]domain.Question, error) {
	return nil, errors.New("connection refused")
}

func testBank(n int) []domain.Question {
	qs := make([]domain.Question, n)
	for i := range qs {
		qs[i] = domain.Question{
			ID:            fmt.Sprintf("mcq-%03d", i+1),
			Text:          fmt.Sprintf("Question %d", i+1),
			Options:       []string{"Option A", "Option B", "Option C", "Option D"},
			CorrectAnswer: "Option B",
		}
	}
	return qs
}
